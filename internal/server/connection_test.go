package server

import (
	"bufio"
	"net"
	"sync"
	"testing"
	"time"

	"arena/pkg/protocol"
)

func TestConnectionOverStreamFraming(t *testing.T) {
	opts := testOptions()
	opts.Tick = time.Hour // 只测试连接本身
	srv := NewGameServer("", "tcp", opts)
	srv.startWorld()
	defer srv.Shutdown()

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go NewConnection(1, newStreamConn(serverSide), srv).Handle(srv.ctx, &wg)

	r := bufio.NewReader(clientSide)
	read := func() (protocol.FrameKind, []byte) {
		t.Helper()
		_ = clientSide.SetReadDeadline(time.Now().Add(2 * time.Second))
		kind, data, err := protocol.ReadFrame(r)
		if err != nil {
			t.Fatalf("ReadFrame: %v", err)
		}
		return kind, data
	}

	if err := protocol.WriteFrame(clientSide, protocol.FrameText, []byte(protocol.PingToken)); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if kind, data := read(); kind != protocol.FrameText || string(data) != protocol.PongToken {
		t.Fatalf("reply = %v %q, want text pong", kind, data)
	}

	join, err := protocol.EncodeClient(protocol.NewJoin("Ann", protocol.PlayerSkin{ID: "cyber"}, 1))
	if err != nil {
		t.Fatalf("EncodeClient: %v", err)
	}
	if err := protocol.WriteFrame(clientSide, protocol.FrameBinary, join); err != nil {
		t.Fatalf("write join: %v", err)
	}
	kind, data := read()
	if kind != protocol.FrameBinary {
		t.Fatalf("join reply kind = %v, want binary", kind)
	}
	msg, err := protocol.DecodeServer(data)
	if err != nil {
		t.Fatalf("DecodeServer: %v", err)
	}
	if msg.Type != protocol.ServerPlayerJoined || msg.PlayerJoined.Player.ID != "p1" {
		t.Fatalf("reply = %+v, want playerJoined p1", msg)
	}
	if got := msg.PlayerJoined.Player.PrimaryColor; got != "#00ffea" {
		t.Fatalf("primary color = %q, want skin default", got)
	}

	srv.Shutdown()
	wg.Wait()
}

func TestDecodePacket(t *testing.T) {
	tests := []struct {
		name string
		kind protocol.FrameKind
		data []byte
		want EventKind
	}{
		{"text ping", protocol.FrameText, []byte("ping"), EventPing},
		{"text pong", protocol.FrameText, []byte("pong"), EventPong},
		{"text garbage", protocol.FrameText, []byte("hello"), EventUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodePacket(tt.kind, tt.data)
			if err != nil {
				t.Fatalf("DecodePacket: %v", err)
			}
			if ev.Kind != tt.want {
				t.Fatalf("kind = %v, want %v", ev.Kind, tt.want)
			}
		})
	}

	b, err := protocol.EncodeClient(protocol.NewDirection(protocol.Vector2D{X: 1}, 3, 10))
	if err != nil {
		t.Fatalf("EncodeClient: %v", err)
	}
	ev, err := DecodePacket(protocol.FrameBinary, b)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if ev.Kind != EventDirection || ev.Direction.Sequence != 3 {
		t.Fatalf("event = %+v", ev)
	}

	if _, err := DecodePacket(protocol.FrameBinary, []byte{0x01}); err == nil {
		t.Fatal("short binary payload was accepted")
	}
}
