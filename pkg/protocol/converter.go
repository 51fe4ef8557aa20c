package protocol

import "arena/pkg/core"

// Core 转换为核心向量
func (v Vector2D) Core() core.Vec2 {
	return core.Vec2{X: float64(v.X), Y: float64(v.Y)}
}

// VecToWire 核心向量转线上向量
func VecToWire(v core.Vec2) Vector2D {
	return Vector2D{X: Float32(v.X), Y: Float32(v.Y)}
}

// SkinToWire 皮肤转线上结构
func SkinToWire(s core.Skin) PlayerSkin {
	return PlayerSkin{ID: s.ID, PrimaryColor: s.PrimaryColor, SecondaryColor: s.SecondaryColor}
}

// ToCorePlayer 快照玩家转核心玩家
func ToCorePlayer(ps PlayerState) *core.Player {
	p := &core.Player{
		ID:             ps.ID,
		Name:           ps.Name,
		Score:          float64(ps.Score),
		Segments:       make([]core.Segment, len(ps.Segments)),
		Direction:      ps.Direction.Core(),
		Boosting:       ps.Boosting,
		PrimaryColor:   ps.PrimaryColor,
		SecondaryColor: ps.SecondaryColor,
		Tokens:         int(ps.Tokens),
	}
	for i, s := range ps.Segments {
		p.Segments[i].Position = s.Position.Core()
	}
	if ps.LastKillTime != nil {
		p.LastKillTime = *ps.LastKillTime
	}
	return p
}

// ToCorePlayers 批量转换
func ToCorePlayers(list []PlayerState) []*core.Player {
	out := make([]*core.Player, 0, len(list))
	for _, ps := range list {
		out = append(out, ToCorePlayer(ps))
	}
	return out
}

// FromCorePlayer 核心玩家转快照玩家
func FromCorePlayer(p *core.Player) PlayerState {
	ps := PlayerState{
		Boosting:       p.Boosting,
		Direction:      VecToWire(p.Direction),
		ID:             p.ID,
		Name:           p.Name,
		PrimaryColor:   p.PrimaryColor,
		Score:          Float32(p.Score),
		SecondaryColor: p.SecondaryColor,
		Segments:       make([]SegmentState, len(p.Segments)),
		Tokens:         uint32(p.Tokens),
	}
	for i, s := range p.Segments {
		ps.Segments[i].Position = VecToWire(s.Position)
	}
	if p.LastKillTime != 0 {
		t := p.LastKillTime
		ps.LastKillTime = &t
	}
	return ps
}

// ToCoreFood 快照食物转核心食物
func ToCoreFood(list []FoodState) []core.Food {
	out := make([]core.Food, len(list))
	for i, f := range list {
		out[i] = core.Food{ID: f.ID, Position: f.Position.Core(), Color: f.Color, Size: float64(f.Size)}
	}
	return out
}

// FromCoreFood 核心食物转快照食物
func FromCoreFood(list []core.Food) []FoodState {
	out := make([]FoodState, len(list))
	for i, f := range list {
		out[i] = FoodState{Color: f.Color, ID: f.ID, Position: VecToWire(f.Position), Size: Float32(f.Size)}
	}
	return out
}

// ToCoreTokens 快照代币转核心代币
func ToCoreTokens(list []TokenState) []core.Token {
	out := make([]core.Token, len(list))
	for i, t := range list {
		out[i] = core.Token{
			ID:          t.ID,
			Position:    t.Position.Core(),
			Value:       float64(t.Value),
			Color:       t.Color,
			Size:        float64(t.Size),
			SpawnTime:   t.SpawnTime,
			Collectible: t.Collectible,
		}
	}
	return out
}

// FromCoreTokens 核心代币转快照代币
func FromCoreTokens(list []core.Token) []TokenState {
	out := make([]TokenState, len(list))
	for i, t := range list {
		out[i] = TokenState{
			Collectible: t.Collectible,
			Color:       t.Color,
			ID:          t.ID,
			Position:    VecToWire(t.Position),
			Size:        Float32(t.Size),
			SpawnTime:   t.SpawnTime,
			Value:       Float32(t.Value),
		}
	}
	return out
}
