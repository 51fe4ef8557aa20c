package core

// Food 食物（可收集实体），位置为服务器权威位置
type Food struct {
	ID       string
	Position Vec2
	Color    string
	Size     float64
}

// Token 代币（可收集实体）
type Token struct {
	ID          string
	Position    Vec2
	Value       float64
	Color       string
	Size        float64
	SpawnTime   int64
	Collectible bool
}
