package client

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"arena/pkg/protocol"

	"github.com/gorilla/websocket"
	kcp "github.com/xtaci/kcp-go/v5"
)

// Conn 面向消息的双向连接
// 同一时刻只允许一个读者和一个写者
type Conn interface {
	ReadMessage() (protocol.FrameKind, []byte, error)
	WriteMessage(kind protocol.FrameKind, data []byte) error
	Close() error
}

// Dialer 建立连接
type Dialer interface {
	Dial(ctx context.Context, rawURL string) (Conn, error)
}

// DialerFunc 函数适配器
type DialerFunc func(ctx context.Context, rawURL string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, rawURL string) (Conn, error) { return f(ctx, rawURL) }

// NewDialer 按 URL scheme 选择 websocket、kcp 或 tcp
func NewDialer(writeTimeout time.Duration) Dialer {
	return &schemeDialer{writeTimeout: writeTimeout}
}

type schemeDialer struct {
	writeTimeout time.Duration
}

func (d *schemeDialer) Dial(ctx context.Context, rawURL string) (Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("解析地址失败: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		dialer := websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: websocket.DefaultDialer.HandshakeTimeout,
		}
		if deadline, ok := ctx.Deadline(); ok {
			dialer.HandshakeTimeout = time.Until(deadline)
		}
		c, _, err := dialer.DialContext(ctx, rawURL, nil)
		if err != nil {
			return nil, err
		}
		return &wsConn{c: c, writeTimeout: d.writeTimeout}, nil

	case "kcp":
		// kcp 基于 UDP，拨号本身不阻塞，超时由心跳兜底
		sess, err := kcp.DialWithOptions(u.Host, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		sess.SetStreamMode(true)
		sess.SetNoDelay(1, 10, 2, 1)
		sess.SetWindowSize(256, 256)
		return newStreamConn(sess, d.writeTimeout), nil

	case "tcp":
		var nd net.Dialer
		c, err := nd.DialContext(ctx, "tcp", u.Host)
		if err != nil {
			return nil, err
		}
		return newStreamConn(c, d.writeTimeout), nil

	default:
		return nil, fmt.Errorf("不支持的协议: %s", u.Scheme)
	}
}

// wsConn websocket 连接，文本/二进制消息直接对应帧类型
type wsConn struct {
	c            *websocket.Conn
	writeTimeout time.Duration
}

func (w *wsConn) ReadMessage() (protocol.FrameKind, []byte, error) {
	for {
		mt, data, err := w.c.ReadMessage()
		if err != nil {
			return 0, nil, err
		}
		switch mt {
		case websocket.TextMessage:
			return protocol.FrameText, data, nil
		case websocket.BinaryMessage:
			return protocol.FrameBinary, data, nil
		}
	}
}

func (w *wsConn) WriteMessage(kind protocol.FrameKind, data []byte) error {
	if w.writeTimeout > 0 {
		_ = w.c.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	}
	mt := websocket.BinaryMessage
	if kind == protocol.FrameText {
		mt = websocket.TextMessage
	}
	return w.c.WriteMessage(mt, data)
}

func (w *wsConn) Close() error { return w.c.Close() }

// streamConn kcp/tcp 字节流上的分帧连接
type streamConn struct {
	c            net.Conn
	r            *bufio.Reader
	writeTimeout time.Duration
}

func newStreamConn(c net.Conn, writeTimeout time.Duration) *streamConn {
	return &streamConn{c: c, r: bufio.NewReader(c), writeTimeout: writeTimeout}
}

func (s *streamConn) ReadMessage() (protocol.FrameKind, []byte, error) {
	return protocol.ReadFrame(s.r)
}

func (s *streamConn) WriteMessage(kind protocol.FrameKind, data []byte) error {
	if s.writeTimeout > 0 {
		_ = s.c.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	}
	return protocol.WriteFrame(s.c, kind, data)
}

func (s *streamConn) Close() error { return s.c.Close() }
