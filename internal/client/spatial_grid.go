package client

import (
	"math"
	"sort"

	"arena/pkg/core"
)

type cellKey struct{ x, y int }

// SpatialGrid 均匀网格，按插值位置索引可收集实体
type SpatialGrid struct {
	cellSize float64
	cells    map[cellKey][]int
	items    []Item
}

// NewSpatialGrid 创建网格
func NewSpatialGrid(cellSize float64) *SpatialGrid {
	if cellSize <= 0 {
		cellSize = 100
	}
	return &SpatialGrid{cellSize: cellSize, cells: make(map[cellKey][]int)}
}

func (g *SpatialGrid) cellOf(p core.Vec2) cellKey {
	return cellKey{int(math.Floor(p.X / g.cellSize)), int(math.Floor(p.Y / g.cellSize))}
}

// Rebuild 每帧用插值位置重建
func (g *SpatialGrid) Rebuild(items []Item) {
	for k, v := range g.cells {
		g.cells[k] = v[:0]
	}
	g.items = items
	for i, it := range items {
		if !it.Position.IsFinite() {
			continue
		}
		k := g.cellOf(it.Position)
		g.cells[k] = append(g.cells[k], i)
	}
}

// Query 返回落在 r 内的实体，最多 max 个，按插入顺序截断
func (g *SpatialGrid) Query(r core.Rect, max int) []Item {
	if max <= 0 || len(g.items) == 0 {
		return nil
	}
	minC, maxC := g.cellOf(core.Vec2{X: r.Left, Y: r.Top}), g.cellOf(core.Vec2{X: r.Right, Y: r.Bottom})
	if minC.x > maxC.x || minC.y > maxC.y {
		return nil
	}

	var idx []int
	collect := func(list []int) {
		for _, i := range list {
			if r.Contains(g.items[i].Position) {
				idx = append(idx, i)
			}
		}
	}

	span := float64(maxC.x-minC.x+1) * float64(maxC.y-minC.y+1)
	if span > float64(len(g.cells)) {
		for _, list := range g.cells {
			collect(list)
		}
	} else {
		for x := minC.x; x <= maxC.x; x++ {
			for y := minC.y; y <= maxC.y; y++ {
				collect(g.cells[cellKey{x, y}])
			}
		}
	}

	sort.Ints(idx)
	if len(idx) > max {
		idx = idx[:max]
	}
	out := make([]Item, len(idx))
	for i, j := range idx {
		out[i] = g.items[j]
	}
	return out
}
