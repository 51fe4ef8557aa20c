package ui

import (
	"time"

	"arena/pkg/core"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/time/rate"
)

// SteerDeadzone 光标距屏幕中心小于该距离（像素）时不改变方向
const SteerDeadzone = 10.0

// InputInterval 鼠标方向采样间隔
const InputInterval = 16 * time.Millisecond

// 方向变化小于该值时不重复发送
const directionEpsilon = 0.01

type keyTracker struct {
	prev map[ebiten.Key]bool
}

func (k *keyTracker) JustPressed(key ebiten.Key) bool {
	if k.prev == nil {
		k.prev = make(map[ebiten.Key]bool)
	}
	now := ebiten.IsKeyPressed(key)
	prev := k.prev[key]
	k.prev[key] = now
	return now && !prev
}

// SteerDirection 由屏幕中心指向光标的单位向量，落在死区内返回 false
func SteerDirection(center, cursor core.Vec2, deadzone float64) (core.Vec2, bool) {
	d := cursor.Sub(center)
	if d.Len() < deadzone {
		return core.Vec2{}, false
	}
	dir := d.Normalize()
	if dir.IsZero() {
		return core.Vec2{}, false
	}
	return dir, true
}

// steering 节流后的转向输入
type steering struct {
	limiter  *rate.Limiter
	last     core.Vec2
	boosting bool
}

func newSteering() *steering {
	return &steering{limiter: rate.NewLimiter(rate.Every(InputInterval), 1)}
}

// Direction 返回需要发送的新方向；被节流或变化太小时返回 false
func (s *steering) Direction(now time.Time, center, cursor core.Vec2) (core.Vec2, bool) {
	dir, ok := SteerDirection(center, cursor, SteerDeadzone)
	if !ok {
		return core.Vec2{}, false
	}
	if !s.last.IsZero() && dir.Sub(s.last).Len() < directionEpsilon {
		return core.Vec2{}, false
	}
	if !s.limiter.AllowN(now, 1) {
		return core.Vec2{}, false
	}
	s.last = dir
	return dir, true
}

// Boost 加速状态变化时返回 true
func (s *steering) Boost(pressed bool) bool {
	if pressed == s.boosting {
		return false
	}
	s.boosting = pressed
	return true
}

// Reset 新会话开始时清空
func (s *steering) Reset() {
	s.last = core.Vec2{}
	s.boosting = false
}
