package ui

import (
	"math"
	"testing"
	"time"

	"arena/pkg/core"
)

func TestSteerDirection(t *testing.T) {
	center := core.Vec2{X: 640, Y: 360}
	tests := []struct {
		name   string
		cursor core.Vec2
		want   core.Vec2
		ok     bool
	}{
		{"right", core.Vec2{X: 740, Y: 360}, core.Vec2{X: 1}, true},
		{"up", core.Vec2{X: 640, Y: 300}, core.Vec2{Y: -1}, true},
		{"diagonal", core.Vec2{X: 740, Y: 460}, core.Vec2{X: math.Sqrt2 / 2, Y: math.Sqrt2 / 2}, true},
		{"inside deadzone", core.Vec2{X: 645, Y: 364}, core.Vec2{}, false},
		{"on center", center, core.Vec2{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SteerDirection(center, tt.cursor, SteerDeadzone)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Fatalf("direction = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSteeringThrottlesAndSkipsRepeats(t *testing.T) {
	s := newSteering()
	center := core.Vec2{}
	start := time.Unix(100, 0)

	if _, ok := s.Direction(start, center, core.Vec2{X: 100}); !ok {
		t.Fatal("first direction was throttled")
	}
	if _, ok := s.Direction(start.Add(5*time.Millisecond), center, core.Vec2{Y: 100}); ok {
		t.Fatal("direction within the sampling interval was not throttled")
	}
	if _, ok := s.Direction(start.Add(40*time.Millisecond), center, core.Vec2{X: 200}); ok {
		t.Fatal("unchanged direction was sent again")
	}
	dir, ok := s.Direction(start.Add(60*time.Millisecond), center, core.Vec2{Y: 100})
	if !ok || dir != (core.Vec2{Y: 1}) {
		t.Fatalf("direction = %v, %v; want (0,1), true", dir, ok)
	}
}

func TestSteeringBoostEdges(t *testing.T) {
	s := newSteering()
	steps := []struct {
		pressed bool
		changed bool
	}{
		{false, false},
		{true, true},
		{true, false},
		{false, true},
	}
	for i, st := range steps {
		if got := s.Boost(st.pressed); got != st.changed {
			t.Fatalf("step %d: Boost(%v) = %v, want %v", i, st.pressed, got, st.changed)
		}
	}
	s.Boost(true)
	s.Reset()
	if s.Boost(false) {
		t.Fatal("Reset did not clear boost state")
	}
}
