package core

// Skin 蛇皮肤
type Skin struct {
	ID             string
	Name           string
	PrimaryColor   string
	SecondaryColor string
}

// Skins 可选皮肤列表
var Skins = []Skin{
	{ID: "solana", Name: "Solana", PrimaryColor: "#DC1FFF", SecondaryColor: "#00FFA3"},
	{ID: "cyber", Name: "Cyber", PrimaryColor: "#00ffea", SecondaryColor: "#ff0099"},
	{ID: "neon", Name: "Neon", PrimaryColor: "#0bff00", SecondaryColor: "#7f00ff"},
}

// SkinByID 按 ID 查找皮肤
func SkinByID(id string) (Skin, bool) {
	for _, s := range Skins {
		if s.ID == id {
			return s, true
		}
	}
	return Skin{}, false
}
