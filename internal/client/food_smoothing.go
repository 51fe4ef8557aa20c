package client

import (
	"math"
	"time"

	"arena/internal/config"
	"arena/pkg/core"
)

// ItemKind 可收集实体类型
type ItemKind int

const (
	ItemFood ItemKind = iota
	ItemToken
)

// Item 可收集实体的显示状态
// Origin 为服务器权威位置，Position 为插值后的显示位置
type Item struct {
	ID          string
	Kind        ItemKind
	Position    core.Vec2
	Origin      core.Vec2
	Velocity    core.Vec2 // 单位/秒，平滑后的显示速度
	Color       string
	Size        float64
	Value       float64
	Collectible bool
	Attraction  float64 // 当前吸附强度 [0, MaxAttraction]

	smooth core.Vec2 // 不含抖动的插值位置
}

type itemKey struct {
	kind ItemKind
	id   string
}

// FoodField 食物与代币的显示插值
// 只读权威数据，从不回写存储层
type FoodField struct {
	cfg        config.Food
	items      []*Item
	index      map[itemKey]*Item
	lastUpdate time.Time
}

// NewFoodField 创建插值层
func NewFoodField(cfg config.Food) *FoodField {
	return &FoodField{cfg: cfg, index: make(map[itemKey]*Item)}
}

// Sync 用新快照替换权威位置，已存在的实体保留当前显示位置
func (f *FoodField) Sync(food []core.Food, tokens []core.Token, now time.Time) {
	items := make([]*Item, 0, len(food)+len(tokens))
	index := make(map[itemKey]*Item, len(food)+len(tokens))

	put := func(key itemKey, origin core.Vec2, fill func(*Item)) {
		it, ok := f.index[key]
		if !ok {
			it = &Item{ID: key.id, Kind: key.kind, Position: origin, smooth: origin}
		}
		it.Origin = origin
		fill(it)
		items = append(items, it)
		index[key] = it
	}

	for _, fd := range food {
		fd := fd
		put(itemKey{ItemFood, fd.ID}, fd.Position, func(it *Item) {
			it.Color = fd.Color
			it.Size = fd.Size
		})
	}
	for _, tk := range tokens {
		tk := tk
		put(itemKey{ItemToken, tk.ID}, tk.Position, func(it *Item) {
			it.Color = tk.Color
			it.Size = tk.Size
			it.Value = tk.Value
			it.Collectible = tk.Collectible
		})
	}

	f.items = items
	f.index = index
	if f.lastUpdate.IsZero() {
		f.lastUpdate = now
	}
}

// Update 推进一帧插值，head 为本地蛇头（没有本地玩家时为 nil）
func (f *FoodField) Update(now time.Time, head *core.Vec2) {
	if f.lastUpdate.IsZero() {
		f.lastUpdate = now
		return
	}
	step := now.Sub(f.lastUpdate)
	f.lastUpdate = now
	if step <= 0 {
		return
	}
	if step > f.cfg.MaxStep {
		step = f.cfg.MaxStep
	}
	dt := step.Seconds()

	blend := f.cfg.InterpolationSpeed * f.cfg.InterpolationScale * dt
	if blend > 1 {
		blend = 1
	}
	phase := float64(now.UnixMilli()) * 0.001 * f.cfg.WobbleSpeed
	wobble := core.Vec2{X: math.Sin(phase), Y: math.Cos(phase)}.Scale(f.cfg.WobbleAmount)

	for _, it := range f.items {
		// 吸附按显示位置计算，偏移叠加在权威位置上
		strength := f.attraction(it.smooth, head)
		target := it.Origin
		if strength > 0 {
			target = it.Origin.Add(head.Sub(it.smooth).Scale(strength))
		}

		prev := it.Position
		it.smooth = it.smooth.Add(target.Sub(it.smooth).Scale(blend))
		it.Position = it.smooth.Add(wobble.Scale(strength))
		it.Attraction = strength

		v := it.Position.Sub(prev).Scale(1 / dt)
		k := f.cfg.VelocitySmoothing
		it.Velocity = it.Velocity.Scale(k).Add(v.Scale(1 - k))
	}
}

// attraction 反立方衰减的吸附强度，超出半径为 0
func (f *FoodField) attraction(pos core.Vec2, head *core.Vec2) float64 {
	if head == nil {
		return 0
	}
	dist := pos.Dist(*head)
	if dist >= f.cfg.AttractionRadius {
		return 0
	}
	falloff := 1 - dist/f.cfg.AttractionRadius
	s := falloff * falloff * falloff * f.cfg.AttractionStrength * f.cfg.AttractionScale
	return math.Min(s, f.cfg.MaxAttraction)
}

// Items 当前显示状态（按快照顺序，食物在前）
func (f *FoodField) Items() []Item {
	out := make([]Item, len(f.items))
	for i, it := range f.items {
		out[i] = *it
	}
	return out
}

// Len 实体数量
func (f *FoodField) Len() int { return len(f.items) }
