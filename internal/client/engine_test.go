package client

import (
	"testing"
	"time"

	"arena/internal/config"
	"arena/pkg/core"
	"arena/pkg/protocol"
)

func TestEngineTick(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{X: 0, Y: 0})
	e := NewEngine(h.store, config.Default(), nil)

	food := []protocol.FoodState{
		{ID: "in", Position: protocol.Vector2D{X: 300, Y: 0}},
		{ID: "out", Position: protocol.Vector2D{X: 1500, Y: 0}},
	}
	players := []protocol.PlayerState{wirePlayer("p1", core.Vec2{})}
	h.session().events <- Event{Kind: EventMessage, Message: protocol.ServerMessage{
		Type:      protocol.ServerGameState,
		GameState: &protocol.GameStateData{Players: &players, Food: &food},
	}}

	now := h.now
	for i := 0; i < 3; i++ {
		e.Tick(now)
		now = now.Add(16 * time.Millisecond)
	}

	visible := e.Visible(core.ViewRect(core.Vec2{}, 800, 600))
	if len(visible) != 1 || visible[0].ID != "in" {
		t.Fatalf("Visible = %+v, want only food \"in\"", visible)
	}

	info := e.SessionInfo()
	if info.PlayerID != "p1" || info.Players != 1 || info.Food != 2 {
		t.Fatalf("SessionInfo = %+v", info)
	}
	if info.Quality != "high" {
		t.Fatalf("quality = %q, want high", info.Quality)
	}
}
