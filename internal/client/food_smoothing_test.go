package client

import (
	"testing"
	"time"

	"arena/internal/config"
	"arena/pkg/core"
)

func TestFoodFieldConvergesToOrigin(t *testing.T) {
	f := NewFoodField(config.Default().Food)
	t0 := time.UnixMilli(1_000)
	f.Sync([]core.Food{{ID: "a", Position: core.Vec2{X: 10, Y: 10}}}, nil, t0)

	// 新快照移动权威位置，显示位置保持不变
	f.Sync([]core.Food{{ID: "a", Position: core.Vec2{X: 50, Y: 10}}}, nil, t0)
	if got := f.Items()[0].Position; got != (core.Vec2{X: 10, Y: 10}) {
		t.Fatalf("position jumped to %v on sync", got)
	}

	now := t0
	prevDist := 40.0
	for i := 0; i < 30; i++ {
		now = now.Add(16 * time.Millisecond)
		f.Update(now, nil)
		it := f.Items()[0]
		d := it.Position.Dist(it.Origin)
		if d > prevDist {
			t.Fatalf("frame %d: distance grew %v -> %v", i, prevDist, d)
		}
		prevDist = d
	}
	if prevDist > 0.5 {
		t.Fatalf("not converged: distance %v", prevDist)
	}
}

func TestFoodFieldAttraction(t *testing.T) {
	cfg := config.Default().Food
	f := NewFoodField(cfg)
	t0 := time.UnixMilli(0)
	f.Sync([]core.Food{
		{ID: "near", Position: core.Vec2{X: 20}},
		{ID: "far", Position: core.Vec2{X: 500}},
	}, []core.Token{{ID: "t", Position: core.Vec2{X: 0, Y: 50}, Value: 3}}, t0)

	head := core.Vec2{}
	now := t0
	for i := 0; i < 20; i++ {
		now = now.Add(16 * time.Millisecond)
		f.Update(now, &head)
	}

	items := f.Items()
	near, far, token := items[0], items[1], items[2]
	if near.Attraction <= 0 || near.Attraction > cfg.MaxAttraction {
		t.Fatalf("near attraction = %v", near.Attraction)
	}
	if near.Position.Dist(head) >= near.Origin.Dist(head) {
		t.Fatalf("near item not pulled toward head: %v", near.Position)
	}
	if far.Attraction != 0 || far.Position != far.Origin {
		t.Fatalf("far item moved: %+v", far)
	}
	if token.Kind != ItemToken || token.Value != 3 || token.Attraction <= 0 {
		t.Fatalf("token = %+v", token)
	}
	if near.Attraction <= token.Attraction {
		t.Fatalf("closer item should attract more: %v <= %v", near.Attraction, token.Attraction)
	}
}

func TestFoodFieldDropsRemovedItems(t *testing.T) {
	f := NewFoodField(config.Default().Food)
	t0 := time.UnixMilli(0)
	f.Sync([]core.Food{{ID: "a"}, {ID: "b"}}, nil, t0)
	f.Sync([]core.Food{{ID: "b"}}, nil, t0)
	if f.Len() != 1 || f.Items()[0].ID != "b" {
		t.Fatalf("items = %+v", f.Items())
	}
}

func TestFoodFieldAttractionUsesDisplayPosition(t *testing.T) {
	tests := []struct {
		name        string
		from, to    float64
		wantAttract bool
	}{
		{"display inside radius, origin outside", 10, 150, true},
		{"display outside radius, origin inside", 300, 50, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFoodField(config.Default().Food)
			now := time.UnixMilli(0)
			f.Sync([]core.Food{{ID: "a", Position: core.Vec2{X: tt.from}}}, nil, now)
			for i := 0; i < 60; i++ {
				now = now.Add(16 * time.Millisecond)
				f.Update(now, nil)
			}

			f.Sync([]core.Food{{ID: "a", Position: core.Vec2{X: tt.to}}}, nil, now)
			head := core.Vec2{}
			now = now.Add(16 * time.Millisecond)
			f.Update(now, &head)

			it := f.Items()[0]
			if got := it.Attraction > 0; got != tt.wantAttract {
				t.Fatalf("attraction = %v, want attracting=%v (display %v, origin %v)",
					it.Attraction, tt.wantAttract, it.Position, it.Origin)
			}
			if tt.wantAttract && it.Position.Dist(head) >= it.Origin.Dist(head) {
				t.Fatalf("display %v not pulled toward head", it.Position)
			}
		})
	}
}
