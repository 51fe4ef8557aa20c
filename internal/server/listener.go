package server

import (
	"bufio"
	"fmt"
	"net"
	"time"

	"arena/pkg/protocol"

	"github.com/gorilla/websocket"
	kcp "github.com/xtaci/kcp-go/v5"
)

type ServerListener interface {
	Accept() (net.Conn, error)
	Close() error
	Addr() net.Addr
}

func newListener(proto, addr string) (ServerListener, error) {
	switch proto {
	case "tcp":
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return nil, err
		}
		return &tcpListener{listener: listener}, nil
	case "kcp":
		listener, err := kcp.ListenWithOptions(addr, nil, 0, 0)
		if err != nil {
			return nil, err
		}
		return &kcpListener{listener: listener}, nil
	default:
		return nil, fmt.Errorf("不支持的协议: %s", proto)
	}
}

type tcpListener struct {
	listener net.Listener
}

func (l *tcpListener) Accept() (net.Conn, error) {
	conn, err := l.listener.Accept()
	if err != nil {
		return nil, err
	}
	// 开启 TCP_NODELAY，禁用 Nagle 算法以减少延迟
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		tcpConn.SetNoDelay(true)
	}
	return conn, nil
}

func (l *tcpListener) Close() error {
	return l.listener.Close()
}

func (l *tcpListener) Addr() net.Addr {
	return l.listener.Addr()
}

type kcpListener struct {
	listener *kcp.Listener
}

func (l *kcpListener) Accept() (net.Conn, error) {
	session, err := l.listener.AcceptKCP()
	if err != nil {
		return nil, err
	}
	// 与客户端一致使用流模式，消息边界由分帧协议处理
	session.SetStreamMode(true)
	session.SetNoDelay(1, 10, 2, 1)
	session.SetWindowSize(256, 256)
	return session, nil
}

func (l *kcpListener) Close() error {
	return l.listener.Close()
}

func (l *kcpListener) Addr() net.Addr {
	return l.listener.Addr()
}

// messageConn 面向消息的连接，websocket 与分帧字节流共用
type messageConn interface {
	ReadMessage() (protocol.FrameKind, []byte, error)
	WriteMessage(kind protocol.FrameKind, data []byte) error
	SetReadDeadline(t time.Time) error
	RemoteAddr() net.Addr
	Close() error
}

type wsConn struct {
	c *websocket.Conn
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
	_ = w.c.SetWriteDeadline(time.Now().Add(writeTimeout))
	if kind == protocol.FrameText {
		return w.c.WriteMessage(websocket.TextMessage, data)
	}
	return w.c.WriteMessage(websocket.BinaryMessage, data)
}

func (w *wsConn) SetReadDeadline(t time.Time) error { return w.c.SetReadDeadline(t) }
func (w *wsConn) RemoteAddr() net.Addr              { return w.c.RemoteAddr() }
func (w *wsConn) Close() error                      { return w.c.Close() }

type streamConn struct {
	c net.Conn
	r *bufio.Reader
}

func newStreamConn(c net.Conn) *streamConn {
	return &streamConn{c: c, r: bufio.NewReader(c)}
}

func (s *streamConn) ReadMessage() (protocol.FrameKind, []byte, error) {
	return protocol.ReadFrame(s.r)
}

func (s *streamConn) WriteMessage(kind protocol.FrameKind, data []byte) error {
	_ = s.c.SetWriteDeadline(time.Now().Add(writeTimeout))
	return protocol.WriteFrame(s.c, kind, data)
}

func (s *streamConn) SetReadDeadline(t time.Time) error { return s.c.SetReadDeadline(t) }
func (s *streamConn) RemoteAddr() net.Addr              { return s.c.RemoteAddr() }
func (s *streamConn) Close() error                      { return s.c.Close() }
