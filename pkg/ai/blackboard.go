package ai

import (
	"math/rand"

	"arena/pkg/core"
)

// View 自动驾驶每帧看到的世界
type View struct {
	Self    *core.Player
	Others  []*core.Player
	Food    []core.Vec2
	MapSize float64 // 安全圈直径，圆心为原点
}

// Decision 决策结果
type Decision struct {
	Direction core.Vec2
	Boost     bool
}

// Blackboard 行为树共享数据
type Blackboard struct {
	View   View
	Head   core.Vec2
	RNG    *rand.Rand
	Config *Config
	Danger *DangerField

	Target *core.Vec2
	Next   Decision

	// 游荡方向在多帧之间保持，减少抖动
	WanderDirection core.Vec2
	WanderFrames    int
}

// ResetFrame 每次思考前重置
func (bb *Blackboard) ResetFrame(view View, head core.Vec2) {
	bb.View = view
	bb.Head = head
	bb.Target = nil
	bb.Next = Decision{}
}
