package core

import "math"

// Vec2 二维向量（世界坐标）
type Vec2 struct {
	X, Y float64
}

// Add 向量相加
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }

// Sub 向量相减
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

// Scale 数乘
func (v Vec2) Scale(k float64) Vec2 { return Vec2{v.X * k, v.Y * k} }

// Len 向量长度
func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

// Dist 两点距离
func (v Vec2) Dist(o Vec2) float64 { return o.Sub(v).Len() }

// IsZero 是否为零向量
func (v Vec2) IsZero() bool { return v.X == 0 && v.Y == 0 }

// IsFinite 分量均为有限值
func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Normalize 归一化，零向量或非有限向量返回 (0,0)，不会产生 NaN
func (v Vec2) Normalize() Vec2 {
	if !v.IsFinite() {
		return Vec2{}
	}
	l := v.Len()
	if l == 0 || math.IsInf(l, 0) {
		return Vec2{}
	}
	return Vec2{v.X / l, v.Y / l}
}

// FromAngle 由弧度构造单位向量
func FromAngle(rad float64) Vec2 {
	return Vec2{math.Cos(rad), math.Sin(rad)}
}

// Rect 轴对齐矩形（世界坐标，闭区间）
type Rect struct {
	Left, Top, Right, Bottom float64
}

// Contains 点是否落在矩形内
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Left && p.X <= r.Right && p.Y >= r.Top && p.Y <= r.Bottom
}

// Expand 四周各扩展 pad
func (r Rect) Expand(pad float64) Rect {
	return Rect{r.Left - pad, r.Top - pad, r.Right + pad, r.Bottom + pad}
}

// ViewRect 以 center 为中心、宽 w 高 h 的可视矩形
func ViewRect(center Vec2, w, h float64) Rect {
	return Rect{
		Left:   center.X - w/2,
		Top:    center.Y - h/2,
		Right:  center.X + w/2,
		Bottom: center.Y + h/2,
	}
}
