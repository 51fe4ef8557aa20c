package ui

import "arena/pkg/core"

// camera 以本地蛇头为中心的视口
type camera struct {
	center        core.Vec2
	width, height float64
}

func (c camera) toScreen(p core.Vec2) (float32, float32) {
	return float32(p.X - c.center.X + c.width/2), float32(p.Y - c.center.Y + c.height/2)
}

func (c camera) view() core.Rect {
	return core.ViewRect(c.center, c.width, c.height)
}

func (c camera) screenCenter() core.Vec2 {
	return core.Vec2{X: c.width / 2, Y: c.height / 2}
}
