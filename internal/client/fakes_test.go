package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"arena/pkg/protocol"
)

type frame struct {
	kind protocol.FrameKind
	data []byte
}

// fakeConn 内存连接，in 中的帧交给读者，写入的帧记录在 written
type fakeConn struct {
	in      chan frame
	closed  chan struct{}
	once    sync.Once
	written chan frame

	mu         sync.Mutex
	failWrites int
	autoPong   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:      make(chan frame, 64),
		closed:  make(chan struct{}),
		written: make(chan frame, 256),
	}
}

func (c *fakeConn) ReadMessage() (protocol.FrameKind, []byte, error) {
	select {
	case f := <-c.in:
		return f.kind, f.data, nil
	case <-c.closed:
		return 0, nil, io.EOF
	}
}

func (c *fakeConn) WriteMessage(kind protocol.FrameKind, data []byte) error {
	c.mu.Lock()
	if c.failWrites > 0 {
		c.failWrites--
		c.mu.Unlock()
		return errors.New("write failed")
	}
	autoPong := c.autoPong
	c.mu.Unlock()

	select {
	case <-c.closed:
		return io.ErrClosedPipe
	default:
	}
	select {
	case c.written <- frame{kind: kind, data: append([]byte(nil), data...)}:
	default:
	}
	if autoPong && kind == protocol.FrameText && string(data) == protocol.PingToken {
		select {
		case c.in <- frame{kind: protocol.FrameText, data: []byte(protocol.PongToken)}:
		default:
		}
	}
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// nextWritten 等待下一帧写入
func (c *fakeConn) nextWritten(timeout time.Duration) (frame, bool) {
	select {
	case f := <-c.written:
		return f, true
	case <-time.After(timeout):
		return frame{}, false
	}
}

// fakeDialer 依次返回 conns，用完后拨号失败
type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
	dials int
}

func (d *fakeDialer) Dial(ctx context.Context, url string) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(d.conns) == 0 {
		return nil, errors.New("connection refused")
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// fakeSession 供存储层测试使用
type fakeSession struct {
	url        string
	events     chan Event
	sent       []protocol.ClientMessage
	status     ConnectionStatus
	closed     bool
	connectErr error
}

func newFakeSession(url string) *fakeSession {
	return &fakeSession{url: url, events: make(chan Event, 64), status: StatusConnecting}
}

func (s *fakeSession) Connect() error { return s.connectErr }

func (s *fakeSession) Send(msg protocol.ClientMessage) error {
	if s.closed {
		return &StateError{Op: "send", Err: ErrClosed}
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *fakeSession) Events() <-chan Event { return s.events }

func (s *fakeSession) Status() ConnectionStatus { return s.status }

func (s *fakeSession) Latency() time.Duration { return 42 * time.Millisecond }

func (s *fakeSession) Close() {
	if !s.closed {
		s.closed = true
		s.status = StatusDisconnected
		close(s.events)
	}
}

func (s *fakeSession) sentOfType(typ protocol.ClientMessageType) []protocol.ClientMessage {
	var out []protocol.ClientMessage
	for _, m := range s.sent {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}
