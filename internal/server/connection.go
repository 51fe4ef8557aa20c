package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"arena/pkg/protocol"
)

const (
	readTimeout  = 15 * time.Second // 读取超时，客户端每 5 秒发一次 ping
	writeTimeout = 1 * time.Second  // 写入超时
)

var (
	ErrSendQueueFull = errors.New("发送队列满")
	ErrConnClosed    = errors.New("连接已关闭")
)

type outbound struct {
	kind protocol.FrameKind
	data []byte
}

// Connection 表示一个客户端连接
type Connection struct {
	id     int64
	conn   messageConn
	server *GameServer

	joined atomic.Bool

	// 发送队列
	sendChan chan outbound
	closeCh  chan struct{}
	closed   bool
	closeMu  sync.Mutex

	lastRecvTime atomic.Value
}

// NewConnection 创建新连接
func NewConnection(id int64, conn messageConn, server *GameServer) *Connection {
	c := &Connection{
		id:       id,
		conn:     conn,
		server:   server,
		sendChan: make(chan outbound, 256), // 发送队列缓冲区
		closeCh:  make(chan struct{}),
	}
	c.lastRecvTime.Store(time.Now())
	return c
}

// Handle 处理连接，阻塞直到连接关闭或 ctx 取消
func (c *Connection) Handle(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	log.Printf("连接 %d: 处理开始 (%s)", c.id, c.conn.RemoteAddr())

	wg.Add(1)
	go c.startHeartbeat(ctx, wg)

	wg.Add(1)
	go c.sendLoop(ctx, wg)

	wg.Add(1)
	go c.receiveLoop(ctx, wg)

	select {
	case <-ctx.Done():
	case <-c.closeCh:
	}

	c.Close()
}

func (c *Connection) ID() int64 { return c.id }

// Close 关闭连接并把玩家从世界中移除
func (c *Connection) Close() {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	close(c.closeCh)
	c.conn.Close()
	close(c.sendChan)
	c.closeMu.Unlock()

	// 世界循环可能正在调用 Send，必须在释放锁之后再通知
	if c.joined.Load() {
		c.server.removePlayer(c.id)
	}
	log.Printf("连接 %d: 已关闭", c.id)
}

// Send 发送数据（异步）
func (c *Connection) Send(kind protocol.FrameKind, data []byte) error {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return ErrConnClosed
	}

	select {
	case c.sendChan <- outbound{kind: kind, data: data}:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// sendLoop 唯一的写者
func (c *Connection) sendLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				log.Printf("连接 %d: 发送失败: %v", c.id, err)
				c.Close()
				return
			}
		}
	}
}

// receiveLoop 接收循环
func (c *Connection) receiveLoop(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			var netErr net.Error
			switch {
			case errors.As(err, &netErr) && netErr.Timeout():
				log.Printf("连接 %d: 读取超时", c.id)
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
			default:
				log.Printf("连接 %d: 读取失败: %v", c.id, err)
			}
			c.Close()
			return
		}

		c.onMessageReceived()
		if err := c.handleMessage(kind, data); err != nil {
			log.Printf("连接 %d: 处理消息失败: %v (%s)", c.id, err, protocol.HexPrefix(data, 16))
		}
	}
}

// handleMessage 处理接收到的消息
func (c *Connection) handleMessage(kind protocol.FrameKind, data []byte) error {
	event, err := DecodePacket(kind, data)
	if err != nil {
		return fmt.Errorf("反序列化失败: %w", err)
	}

	switch event.Kind {
	case EventPing:
		return c.Send(protocol.FrameText, []byte(protocol.PongToken))

	case EventPong:
		// lastRecvTime 已刷新

	case EventJoin:
		id, err := c.server.handleJoin(c, event.Join)
		if err != nil {
			return fmt.Errorf("处理加入请求失败: %w", err)
		}
		c.joined.Store(true)
		log.Printf("连接 %d: 加入成功，玩家 %s", c.id, id)

	case EventDirection, EventBoost:
		c.server.handleInput(c.id, event)

	default:
		return fmt.Errorf("未知消息类型")
	}
	return nil
}

// String 返回连接的字符串表示
func (c *Connection) String() string {
	return fmt.Sprintf("Connection{%d, %s}", c.id, c.conn.RemoteAddr())
}

const (
	heartbeatInterval = 5 * time.Second
	heartbeatTimeout  = 15 * time.Second
)

func (c *Connection) startHeartbeat(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.closeCh:
			return
		case <-ticker.C:
			lastRecv, _ := c.lastRecvTime.Load().(time.Time)
			if !lastRecv.IsZero() && time.Since(lastRecv) > heartbeatTimeout {
				log.Printf("连接 %d: 心跳超时", c.id)
				c.Close()
				return
			}
			_ = c.Send(protocol.FrameText, []byte(protocol.PingToken))
		}
	}
}

func (c *Connection) onMessageReceived() {
	c.lastRecvTime.Store(time.Now())
}
