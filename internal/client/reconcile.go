package client

import (
	"arena/internal/config"
	"arena/pkg/core"
)

// Reconcile 用未确认命令对权威头部位置做阻尼重预测
// 每条命令按其时间戳到 now 的位移算出预测点，再向预测点靠拢 ReconcileBlend 比例
func Reconcile(head core.Vec2, remaining []Command, nowMs int64, p config.Prediction) core.Vec2 {
	for _, c := range remaining {
		dt := float64(nowMs-c.Timestamp) / 1000
		if dt < 0 {
			dt = 0
		}
		speed := p.BaseSpeed
		if c.Boosting {
			speed *= p.BoostMultiplier
		}
		predicted := head.Add(c.Direction.Scale(speed * dt))
		head = head.Add(predicted.Sub(head).Scale(p.ReconcileBlend))
	}
	return head
}

// Predict 沿 dir 推进 dt
func Predict(head, dir core.Vec2, boosting bool, dtSeconds float64, p config.Prediction) core.Vec2 {
	speed := p.BaseSpeed
	if boosting {
		speed *= p.BoostMultiplier
	}
	return head.Add(dir.Scale(speed * dtSeconds))
}
