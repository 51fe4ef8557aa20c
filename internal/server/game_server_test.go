package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arena/internal/client"
	"arena/internal/config"
	"arena/pkg/core"
	"arena/pkg/protocol"

	"github.com/gorilla/websocket"
)

func startTestServer(t *testing.T) (*GameServer, string) {
	t.Helper()
	opts := testOptions()
	opts.Tick = 20 * time.Millisecond
	opts.Food = 5
	srv := NewGameServer("", "ws", opts)
	srv.startWorld()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Shutdown()
		ts.Close()
	})
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestWebsocketJoinAndAck(t *testing.T) {
	_, url := startTestServer(t)

	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	_ = c.SetReadDeadline(time.Now().Add(3 * time.Second))

	join, _ := protocol.EncodeClient(protocol.NewJoin("Ann", protocol.SkinToWire(core.Skins[0]), 1))
	if err := c.WriteMessage(websocket.BinaryMessage, join); err != nil {
		t.Fatalf("write join: %v", err)
	}

	next := func() protocol.ServerMessage {
		t.Helper()
		for {
			mt, data, err := c.ReadMessage()
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			msg, err := protocol.DecodeServer(data)
			if err != nil {
				t.Fatalf("DecodeServer: %v", err)
			}
			return msg
		}
	}

	msg := next()
	if msg.Type != protocol.ServerPlayerJoined {
		t.Fatalf("first message = %v, want playerJoined", msg.Type)
	}
	if p := msg.PlayerJoined.Player; p.ID != "p1" || p.Name != "Ann" {
		t.Fatalf("joined = %+v, want p1 Ann", p)
	}

	if err := c.WriteMessage(websocket.TextMessage, []byte("ping")); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	dir, _ := protocol.EncodeClient(protocol.NewDirection(protocol.Vector2D{Y: 1}, 4, 2))
	if err := c.WriteMessage(websocket.BinaryMessage, dir); err != nil {
		t.Fatalf("write direction: %v", err)
	}

	for {
		msg := next()
		if msg.Type != protocol.ServerGameState {
			continue
		}
		if lpi := msg.GameState.LastProcessedInput; lpi != nil && *lpi == 4 {
			break
		}
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := startTestServer(t)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestClientStoreAgainstLoopback(t *testing.T) {
	_, url := startTestServer(t)

	cfg := config.Default()
	cfg.Servers = []config.Server{{ID: "local", Name: "Local", Region: "loopback", URL: url, MaxPlayers: 8}}
	store := client.NewStore(cfg, client.NewDialer(time.Second))
	engine := client.NewEngine(store, cfg, nil)

	var joined string
	unsubscribe := store.Subscribe(client.ObserverFuncs{PlayerID: func(id string) { joined = id }})
	defer unsubscribe()

	if err := store.Start(cfg.Servers[0], "Ann", core.Skins[1]); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer store.Close()

	waitFor := func(what string, cond func() bool) {
		t.Helper()
		deadline := time.Now().Add(5 * time.Second)
		for !cond() {
			if time.Now().After(deadline) {
				t.Fatalf("timed out waiting for %s (status %v)", what, store.Status())
			}
			engine.Tick(time.Now())
			time.Sleep(5 * time.Millisecond)
		}
	}

	waitFor("join", func() bool { return joined == "p1" && store.LocalPlayer() != nil })
	waitFor("snapshot", func() bool { return len(store.Food()) == 5 })

	if err := store.SetDirection(core.Vec2{X: 0, Y: -1}); err != nil {
		t.Fatalf("SetDirection: %v", err)
	}
	if store.PendingCount() == 0 {
		t.Fatal("direction was not buffered")
	}
	waitFor("ack", func() bool { return store.PendingCount() == 0 })

	if got := engine.SessionInfo().PlayerID; got != "p1" {
		t.Fatalf("session info player = %q", got)
	}
}
