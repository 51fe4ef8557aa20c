package ai

import (
	"math"

	"arena/pkg/core"
)

// DangerField 附近其他蛇身的排斥场
type DangerField struct {
	Repulsion core.Vec2 // 远离威胁的合力方向（未归一化）
	Nearest   float64   // 最近威胁的距离
}

// Update 按 radius 内其他蛇的节点计算排斥
func (df *DangerField) Update(head core.Vec2, others []*core.Player, radius float64) {
	df.Repulsion = core.Vec2{}
	df.Nearest = math.Inf(1)

	for _, p := range others {
		for _, seg := range p.Segments {
			d := head.Sub(seg.Position)
			dist := d.Len() - p.Width()/2
			if dist < df.Nearest {
				df.Nearest = dist
			}
			if dist >= radius {
				continue
			}
			// 越近权重越大
			w := 1 - math.Max(dist, 0)/radius
			df.Repulsion = df.Repulsion.Add(d.Normalize().Scale(w))
		}
	}
}

// InDanger 是否有威胁进入半径
func (df *DangerField) InDanger(radius float64) bool {
	return df.Nearest < radius
}
