package client

import (
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"arena/internal/config"
	"arena/pkg/core"
	"arena/pkg/protocol"
)

var testServer = config.Server{ID: "in", Name: "India", Region: "Mumbai", URL: "ws://127.0.0.1:1/ws", MaxPlayers: 500}

type storeHarness struct {
	store    *Store
	sessions []*fakeSession
	now      time.Time
	ids      []string
	reasons  []error
	prefs    *config.Prefs
}

func newStoreHarness(t *testing.T) *storeHarness {
	t.Helper()
	h := &storeHarness{now: time.UnixMilli(1_700_000_000_000)}
	prefs, err := config.LoadPrefs(filepath.Join(t.TempDir(), "prefs.json"))
	if err != nil {
		t.Fatalf("LoadPrefs: %v", err)
	}
	h.prefs = prefs
	h.store = NewStore(config.Default(), nil,
		WithClock(func() time.Time { return h.now }),
		WithRand(rand.New(rand.NewSource(1))),
		WithPrefs(prefs),
		WithSessionFactory(func(url string) Session {
			s := newFakeSession(url)
			h.sessions = append(h.sessions, s)
			return s
		}),
	)
	h.store.Subscribe(ObserverFuncs{
		PlayerID: func(id string) { h.ids = append(h.ids, id) },
		Teardown: func(reason error) { h.reasons = append(h.reasons, reason) },
	})
	return h
}

func (h *storeHarness) session() *fakeSession { return h.sessions[len(h.sessions)-1] }

func (h *storeHarness) deliver(msg protocol.ServerMessage) {
	h.session().events <- Event{Kind: EventMessage, Message: msg}
	h.store.Pump()
}

func wirePlayer(id string, head core.Vec2) protocol.PlayerState {
	return protocol.PlayerState{
		ID:        id,
		Name:      "n-" + id,
		Direction: protocol.Vector2D{X: 0, Y: 1},
		Segments:  []protocol.SegmentState{{Position: protocol.VecToWire(head)}},
	}
}

func joined(id string, head core.Vec2) protocol.ServerMessage {
	p := wirePlayer(id, head)
	return protocol.ServerMessage{Type: protocol.ServerPlayerJoined, PlayerJoined: &protocol.PlayerJoinedData{Player: &p}}
}

func snapshot(lastProcessed *uint32, players ...protocol.PlayerState) protocol.ServerMessage {
	food := []protocol.FoodState{{ID: "f1", Position: protocol.Vector2D{X: 5, Y: 5}, Size: 6}}
	return protocol.ServerMessage{Type: protocol.ServerGameState, GameState: &protocol.GameStateData{
		Players:            &players,
		Food:               &food,
		LastProcessedInput: lastProcessed,
	}}
}

func u32(v uint32) *uint32 { return &v }

// joinAs 启动会话、连接并以 id 加入
func (h *storeHarness) joinAs(t *testing.T, id string, head core.Vec2) {
	t.Helper()
	if err := h.store.Start(testServer, "Ann", core.Skins[0]); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.session().status = StatusConnected
	h.session().events <- Event{Kind: EventConnected}
	h.store.Pump()
	h.deliver(joined(id, head))
}

func TestStoreJoinEstablishesLocalPlayer(t *testing.T) {
	h := newStoreHarness(t)
	if err := h.store.Start(testServer, "Ann", core.Skins[0]); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h.session().events <- Event{Kind: EventConnected}
	h.store.Pump()

	joins := h.session().sentOfType(protocol.ClientJoin)
	if len(joins) != 1 {
		t.Fatalf("join sent %d times, want 1", len(joins))
	}
	j := joins[0].Join
	if j.Name != "Ann" || j.Skin.ID != "solana" || j.Skin.PrimaryColor != "#DC1FFF" {
		t.Fatalf("join = %+v", j)
	}
	if j.Timestamp != h.now.UnixMilli() {
		t.Fatalf("join timestamp = %d, want %d", j.Timestamp, h.now.UnixMilli())
	}

	h.deliver(joined("p1", core.Vec2{X: 10, Y: 10}))
	h.deliver(joined("p1", core.Vec2{X: 10, Y: 10}))

	if got := h.store.PlayerID(); got != "p1" {
		t.Fatalf("PlayerID() = %q, want p1", got)
	}
	if got := len(h.store.Players()); got != 1 {
		t.Fatalf("roster size = %d, want 1", got)
	}
	if len(h.ids) != 1 || h.ids[0] != "p1" {
		t.Fatalf("observer ids = %v, want [p1]", h.ids)
	}
	dir := h.store.LocalPlayer().Direction
	if math.Abs(dir.Len()-1) > 1e-9 {
		t.Fatalf("initial direction %v is not a unit vector", dir)
	}
	if h.prefs.LastServer() != "in" {
		t.Fatalf("last server = %q, want in", h.prefs.LastServer())
	}
}

func TestStoreAcknowledgeKeepsUnackedCommands(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{})

	for i := 0; i < 3; i++ {
		if err := h.store.SetDirection(core.Vec2{X: 1, Y: float64(i)}); err != nil {
			t.Fatalf("SetDirection: %v", err)
		}
	}
	sent := h.session().sentOfType(protocol.ClientDirection)
	for i, m := range sent {
		if m.Direction.Sequence != uint32(i+1) {
			t.Fatalf("sequence[%d] = %d, want %d", i, m.Direction.Sequence, i+1)
		}
	}

	h.deliver(snapshot(u32(2), wirePlayer("p1", core.Vec2{})))

	pending := h.store.PendingInputs()
	if len(pending) != 1 || pending[0].Sequence != 3 {
		t.Fatalf("pending = %+v, want only seq 3", pending)
	}
}

func TestStoreSnapshotWithoutAckKeepsPending(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{})
	_ = h.store.SetDirection(core.Vec2{X: 1})

	h.deliver(snapshot(nil, wirePlayer("p1", core.Vec2{})))
	if got := len(h.store.PendingInputs()); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}
}

func TestReconcileBlendsHalfway(t *testing.T) {
	p := config.Default().Prediction
	now := int64(10_000)
	cmd := Command{Sequence: 1, Timestamp: now - 200, Direction: core.Vec2{X: 1}, Boosting: true}

	got := Reconcile(core.Vec2{X: 100}, []Command{cmd}, now, p)
	full := 100 + p.BaseSpeed*p.BoostMultiplier*0.2

	if !(got.X > 100 && got.X < full) {
		t.Fatalf("reconciled x = %v, want strictly between 100 and %v", got.X, full)
	}
	if math.Abs(got.X-100.6) > 1e-9 || got.Y != 0 {
		t.Fatalf("reconciled = %v, want (100.6, 0)", got)
	}
}

func TestStoreReconcilesLocalHead(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{X: 100})

	h.now = h.now.Add(-300 * time.Millisecond)
	_ = h.store.SetBoosting(true) // seq 1
	h.now = h.now.Add(100 * time.Millisecond)
	_ = h.store.SetDirection(core.Vec2{X: 1}) // seq 2，200ms 前
	h.now = h.now.Add(200 * time.Millisecond)

	h.deliver(snapshot(u32(1), wirePlayer("p1", core.Vec2{X: 100})))

	head, _ := h.store.LocalPlayer().Head()
	if !(head.X > 100 && head.X < 101.2) {
		t.Fatalf("head x = %v, want strictly between 100 and 101.2", head.X)
	}
	if got := h.store.LocalPlayer().Direction; got != (core.Vec2{X: 1}) {
		t.Fatalf("local direction = %v, want locally held (1,0)", got)
	}
	other := h.store.Players()
	if len(other) != 1 {
		t.Fatalf("roster = %d players", len(other))
	}
}

func TestStoreMalformedSnapshotLeavesState(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{X: 1})
	h.deliver(snapshot(nil, wirePlayer("p1", core.Vec2{X: 1}), wirePlayer("p2", core.Vec2{X: 2})))
	version := h.store.Version()

	players := []protocol.PlayerState{}
	h.deliver(protocol.ServerMessage{Type: protocol.ServerGameState, GameState: &protocol.GameStateData{Players: &players}})

	if h.store.Version() != version {
		t.Fatalf("version changed on malformed snapshot")
	}
	if got := len(h.store.Players()); got != 2 {
		t.Fatalf("players = %d, want 2", got)
	}
	if got := len(h.store.Food()); got != 1 {
		t.Fatalf("food = %d, want 1", got)
	}

	_, err := protocol.DecodeServer([]byte{0x80})
	var perr *protocol.ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("DecodeServer(short) = %v, want *ProtocolError", err)
	}
	if h.store.Version() != version {
		t.Fatalf("version changed after protocol error")
	}
}

func TestStoreIgnoresSnapshotBeforeJoin(t *testing.T) {
	h := newStoreHarness(t)
	_ = h.store.Start(testServer, "Ann", core.Skins[0])
	h.deliver(snapshot(nil, wirePlayer("p2", core.Vec2{})))
	if got := len(h.store.Players()); got != 0 {
		t.Fatalf("players = %d, want 0", got)
	}
}

func TestStoreLocalDeathTearsDown(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{})
	sess := h.session()

	h.deliver(protocol.ServerMessage{Type: protocol.ServerPlayerDied, PlayerDied: &protocol.PlayerDiedData{PlayerID: "p1"}})

	if !sess.closed {
		t.Fatal("session not closed on local death")
	}
	if h.store.PlayerID() != "" || len(h.store.Players()) != 0 {
		t.Fatal("state not cleared on local death")
	}
	if len(h.reasons) != 1 || !errors.Is(h.reasons[0], ErrPlayerDied) {
		t.Fatalf("teardown reasons = %v, want [ErrPlayerDied]", h.reasons)
	}
	if h.prefs.LastServer() != "" {
		t.Fatalf("last server = %q, want cleared", h.prefs.LastServer())
	}
	if h.store.Status() != StatusDisconnected {
		t.Fatalf("Status() = %v", h.store.Status())
	}
}

func TestStoreRemoteDeathRemovesPlayer(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{})
	h.deliver(joined("p2", core.Vec2{X: 3}))

	h.deliver(protocol.ServerMessage{Type: protocol.ServerPlayerDied, PlayerDied: &protocol.PlayerDiedData{PlayerIDCamel: "p2"}})

	if got := len(h.store.Players()); got != 1 {
		t.Fatalf("players = %d, want 1", got)
	}
	if h.store.PlayerID() != "p1" || len(h.reasons) != 0 {
		t.Fatal("local session disturbed by remote death")
	}
}

func TestStoreBoostOnlyOnChange(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{})

	for _, b := range []bool{true, true, false, false, true} {
		if err := h.store.SetBoosting(b); err != nil {
			t.Fatalf("SetBoosting(%v): %v", b, err)
		}
	}
	boosts := h.session().sentOfType(protocol.ClientBoost)
	if len(boosts) != 3 {
		t.Fatalf("boost sent %d times, want 3", len(boosts))
	}
	for i, want := range []bool{true, false, true} {
		if boosts[i].Boost.Active != want {
			t.Fatalf("boost[%d] = %v, want %v", i, boosts[i].Boost.Active, want)
		}
	}
}

func TestStoreRejectsInvalidInput(t *testing.T) {
	h := newStoreHarness(t)

	var serr *StateError
	if err := h.store.SetDirection(core.Vec2{X: 1}); !errors.As(err, &serr) || !errors.Is(err, ErrNoPlayer) {
		t.Fatalf("SetDirection without player = %v, want StateError", err)
	}
	if err := h.store.SetBoosting(true); !errors.As(err, &serr) {
		t.Fatalf("SetBoosting without player = %v, want StateError", err)
	}

	h.joinAs(t, "p1", core.Vec2{})
	before := h.store.LocalPlayer().Direction

	for _, v := range []core.Vec2{{}, {X: math.NaN(), Y: 1}, {X: math.Inf(1)}} {
		var verr *protocol.ValidationError
		if err := h.store.SetDirection(v); !errors.As(err, &verr) {
			t.Fatalf("SetDirection(%v) = %v, want *ValidationError", v, err)
		}
	}
	if got := h.store.LocalPlayer().Direction; got != before {
		t.Fatalf("direction changed to %v by invalid input", got)
	}
	if n := len(h.session().sentOfType(protocol.ClientDirection)); n != 0 {
		t.Fatalf("invalid directions transmitted %d times", n)
	}
}

func TestStoreDisconnectClearsWorldKeepsSequence(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{})
	_ = h.store.SetDirection(core.Vec2{X: 1})
	_ = h.store.SetDirection(core.Vec2{Y: 1})

	h.session().events <- Event{Kind: EventDisconnected, Err: errors.New("eof")}
	h.session().events <- Event{Kind: EventConnected}
	h.store.Pump()

	if h.store.PlayerID() != "" || len(h.store.PendingInputs()) != 0 {
		t.Fatal("world not cleared on disconnect")
	}
	if n := len(h.session().sentOfType(protocol.ClientJoin)); n != 2 {
		t.Fatalf("joins = %d, want 2 (rejoin after reconnect)", n)
	}

	h.deliver(joined("p5", core.Vec2{}))
	_ = h.store.SetDirection(core.Vec2{X: -1})
	dirs := h.session().sentOfType(protocol.ClientDirection)
	if got := dirs[len(dirs)-1].Direction.Sequence; got != 3 {
		t.Fatalf("sequence after reconnect = %d, want 3", got)
	}
}

func TestStoreFatalClearsPrefs(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{})

	fatal := &ConnectionError{Op: "reconnect", Err: ErrRetriesExhausted}
	h.session().events <- Event{Kind: EventFatal, Err: fatal}
	h.store.Pump()

	if h.store.Active() {
		t.Fatal("session still active after fatal error")
	}
	if len(h.reasons) != 1 || !errors.Is(h.reasons[0], ErrRetriesExhausted) {
		t.Fatalf("teardown reasons = %v", h.reasons)
	}
	if h.prefs.LastServer() != "" {
		t.Fatal("last server not cleared")
	}
}

func TestStoreStartReplacesSession(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{})
	old := h.session()

	if err := h.store.Start(testServer, "<b>Bob</b>", core.Skins[1]); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !old.closed {
		t.Fatal("previous session not closed before new start")
	}
	if h.store.PlayerID() != "" {
		t.Fatal("previous player survived restart")
	}
	h.session().events <- Event{Kind: EventConnected}
	h.store.Pump()
	if got := h.session().sentOfType(protocol.ClientJoin)[0].Join.Name; got != "Bob" {
		t.Fatalf("join name = %q, want sanitized Bob", got)
	}
}

func TestStoreUnsubscribe(t *testing.T) {
	h := newStoreHarness(t)
	var calls int
	unsubscribe := h.store.Subscribe(ObserverFuncs{PlayerID: func(string) { calls++ }})
	unsubscribe()
	h.joinAs(t, "p1", core.Vec2{})
	if calls != 0 {
		t.Fatalf("observer called %d times after unsubscribe", calls)
	}
}

func TestStoreAdvancePredictsLocalHead(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{})
	_ = h.store.SetDirection(core.Vec2{X: 1})

	h.store.Advance(h.now)
	h.now = h.now.Add(50 * time.Millisecond)
	h.store.Advance(h.now)

	head, _ := h.store.LocalPlayer().Head()
	want := config.Default().Prediction.BaseSpeed * 0.05
	if math.Abs(head.X-want) > 1e-9 {
		t.Fatalf("head x = %v, want %v", head.X, want)
	}
}

func TestStoreLeaderboard(t *testing.T) {
	h := newStoreHarness(t)
	h.joinAs(t, "p1", core.Vec2{})
	a, b, c := wirePlayer("p1", core.Vec2{}), wirePlayer("p2", core.Vec2{}), wirePlayer("p3", core.Vec2{})
	a.Score, b.Score, c.Score = 5, 9, 9
	h.deliver(snapshot(nil, a, c, b))

	top := h.store.Leaderboard(2)
	if len(top) != 2 || top[0].ID != "p2" || top[1].ID != "p3" {
		t.Fatalf("leaderboard = %+v, want p2, p3", top)
	}
}
