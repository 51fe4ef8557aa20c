// Package ai 无界面客户端使用的自动驾驶，用于长时间压测连接和预测
package ai

import (
	"math"
	"math/rand"
	"time"

	"arena/pkg/core"
)

// Autopilot 基于行为树的蛇控制器
type Autopilot struct {
	rnd    *rand.Rand
	config *Config

	thinkCounter int
	cached       Decision

	blackboard Blackboard
	tree       Node
	danger     DangerField
}

// NewAutopilot 使用普通配置
func NewAutopilot() *Autopilot {
	return NewAutopilotWithConfig(&ConfigNormal, time.Now().UnixNano())
}

// NewAutopilotWithConfig 使用指定配置和随机种子
func NewAutopilotWithConfig(config *Config, seed int64) *Autopilot {
	if config == nil {
		config = &ConfigNormal
	}
	rnd := rand.New(rand.NewSource(seed))

	a := &Autopilot{rnd: rnd, config: config}
	a.blackboard = Blackboard{RNG: rnd, Config: config, Danger: &a.danger}
	a.tree = Selector{
		Sequence{Condition(condInDanger), Action(actFlee)},
		Sequence{Condition(condNearEdge), Action(actReturnToCenter)},
		Sequence{Action(actFindFood), Action(actSteerToTarget)},
		Action(actWander),
	}
	return a
}

// Decide 每帧调用；两次思考之间返回缓存的决策，危险出现时立即思考
func (a *Autopilot) Decide(view View) Decision {
	head, ok := view.Self.Head()
	if !ok {
		return Decision{}
	}

	a.danger.Update(head, view.Others, a.config.DangerRadius)
	force := a.danger.InDanger(a.config.DangerRadius)

	a.thinkCounter++
	if !force && a.thinkCounter < a.config.ThinkIntervalFrames && !a.cached.Direction.IsZero() {
		return a.cached
	}
	a.thinkCounter = 0

	a.blackboard.ResetFrame(view, head)
	_ = a.tree.Tick(&a.blackboard)

	if a.config.MistakeRate > 0 && a.rnd.Float64() < a.config.MistakeRate {
		a.blackboard.Next = Decision{Direction: core.FromAngle(a.rnd.Float64() * 2 * math.Pi)}
	}

	a.cached = a.blackboard.Next
	return a.cached
}

// Config 当前配置
func (a *Autopilot) Config() *Config { return a.config }

// SetConfig 替换配置
func (a *Autopilot) SetConfig(config *Config) {
	if config == nil {
		return
	}
	a.config = config
	a.blackboard.Config = config
}
