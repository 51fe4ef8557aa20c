package ai

import (
	"math"

	"arena/pkg/core"
)

// 游荡方向持续的思考次数
const wanderThinks = 10

func condInDanger(bb *Blackboard) bool {
	return bb.Danger.InDanger(bb.Config.DangerRadius)
}

func actFlee(bb *Blackboard) Status {
	dir := bb.Danger.Repulsion.Normalize()
	if dir.IsZero() {
		return StatusFailure
	}
	bb.Next = Decision{Direction: dir, Boost: bb.Danger.Nearest < bb.Config.DangerRadius/3}
	bb.WanderFrames = 0
	return StatusSuccess
}

func condNearEdge(bb *Blackboard) bool {
	if bb.View.MapSize <= 0 {
		return false
	}
	return bb.Head.Len() > bb.View.MapSize/2-bb.Config.EdgeMargin
}

func actReturnToCenter(bb *Blackboard) Status {
	dir := bb.Head.Scale(-1).Normalize()
	if dir.IsZero() {
		return StatusFailure
	}
	bb.Next = Decision{Direction: dir}
	bb.WanderFrames = 0
	return StatusSuccess
}

func actFindFood(bb *Blackboard) Status {
	best := math.Inf(1)
	for i := range bb.View.Food {
		f := bb.View.Food[i]
		d := f.Dist(bb.Head)
		if d > bb.Config.SightRadius || d >= best {
			continue
		}
		if bb.View.MapSize > 0 && f.Len() > bb.View.MapSize/2-bb.Config.EdgeMargin/2 {
			continue
		}
		best = d
		bb.Target = &bb.View.Food[i]
	}
	if bb.Target == nil {
		return StatusFailure
	}
	return StatusSuccess
}

func actSteerToTarget(bb *Blackboard) Status {
	d := bb.Target.Sub(bb.Head)
	dir := d.Normalize()
	if dir.IsZero() {
		return StatusFailure
	}
	boost := bb.Config.BoostDistance > 0 && d.Len() > bb.Config.BoostDistance
	bb.Next = Decision{Direction: dir, Boost: boost}
	return StatusSuccess
}

func actWander(bb *Blackboard) Status {
	if bb.WanderFrames > 0 && !bb.WanderDirection.IsZero() {
		bb.WanderFrames--
		bb.Next = Decision{Direction: bb.WanderDirection}
		return StatusRunning
	}
	bb.WanderDirection = core.FromAngle(bb.RNG.Float64() * 2 * math.Pi)
	bb.WanderFrames = wanderThinks
	bb.Next = Decision{Direction: bb.WanderDirection}
	return StatusRunning
}
