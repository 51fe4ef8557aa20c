package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"arena/internal/config"
	"arena/internal/metrics"
	"arena/pkg/protocol"
)

// ConnectionStatus 连接状态
type ConnectionStatus int32

const (
	StatusDisconnected ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusError
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusError:
		return "error"
	}
	return fmt.Sprintf("ConnectionStatus(%d)", int32(s))
}

// EventKind 传输层事件类型
type EventKind int

const (
	EventConnected EventKind = iota
	EventDisconnected
	EventMessage
	EventFatal // 重连耗尽，传输层已停止
)

// Event 传输层对外发布的事件，按发生顺序投递
type Event struct {
	Kind    EventKind
	Status  ConnectionStatus
	Message protocol.ServerMessage
	Err     error
}

type outbound struct {
	msg     protocol.ClientMessage
	retried bool
}

type inboundFrame struct {
	kind protocol.FrameKind
	data []byte
}

// Transport 会话传输层
// 一次只持有一个连接，负责心跳、延迟采样、发送队列和指数退避重连。
// 所有计时器都属于 supervisor goroutine，退出时一并停止。
type Transport struct {
	url     string
	dialer  Dialer
	cfg     config.Transport
	metrics *metrics.Metrics

	status   atomic.Int32
	latency  atomic.Int64
	attempts atomic.Int32

	hadConn bool // 只由 supervisor goroutine 读写

	mu     sync.Mutex
	queue  []outbound
	wake   chan struct{}
	closed bool

	events chan Event

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewTransport 创建传输层，Connect 之前不会拨号
func NewTransport(url string, dialer Dialer, cfg config.Transport, m *metrics.Metrics) *Transport {
	ctx, cancel := context.WithCancel(context.Background())
	size := cfg.EventBufferSize
	if size <= 0 {
		size = 256
	}
	return &Transport{
		url:     url,
		dialer:  dialer,
		cfg:     cfg,
		metrics: m,
		wake:    make(chan struct{}, 1),
		events:  make(chan Event, size),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Connect 启动连接与重连循环，立即返回
func (t *Transport) Connect() error {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return &StateError{Op: "connect", Err: ErrClosed}
	}

	t.startOnce.Do(func() {
		log.Printf("连接到服务器: %s", t.url)
		t.wg.Add(1)
		go t.run()
	})
	return nil
}

// Close 停止所有 goroutine 和计时器，返回后不会再有事件产生
func (t *Transport) Close() {
	t.closeOnce.Do(func() {
		t.mu.Lock()
		t.closed = true
		t.queue = nil
		t.mu.Unlock()

		t.cancel()
		t.wg.Wait()

		if t.Status() != StatusError {
			t.setStatus(StatusDisconnected)
		}
		close(t.events)
		log.Printf("网络客户端已关闭")
	})
}

// Events 事件通道，Close 后关闭
func (t *Transport) Events() <-chan Event { return t.events }

// Status 当前连接状态
func (t *Transport) Status() ConnectionStatus { return ConnectionStatus(t.status.Load()) }

// Latency 最近一次心跳往返时间
func (t *Transport) Latency() time.Duration { return time.Duration(t.latency.Load()) }

// ReconnectAttempts 当前连续失败次数
func (t *Transport) ReconnectAttempts() int { return int(t.attempts.Load()) }

// Send 消息入队，按 FIFO 顺序发送
// 未连接时消息留在队列里，队列满时丢弃最旧的消息
func (t *Transport) Send(msg protocol.ClientMessage) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return &StateError{Op: "send", Err: ErrClosed}
	}
	if limit := t.cfg.SendQueueSize; limit > 0 && len(t.queue) >= limit {
		dropped := t.queue[0]
		t.queue = t.queue[1:]
		t.metrics.MessageDropped(string(dropped.msg.Type), "queue_full")
		log.Printf("发送队列满，丢弃 %s", dropped.msg.Type)
	}
	t.queue = append(t.queue, outbound{msg: msg})
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
	return nil
}

func (t *Transport) setStatus(s ConnectionStatus) {
	if ConnectionStatus(t.status.Swap(int32(s))) != s {
		t.metrics.SetStatus(int(s))
	}
}

// emit 投递事件，传输层关闭时放弃
func (t *Transport) emit(ev Event) bool {
	ev.Status = t.Status()
	select {
	case t.events <- ev:
		return true
	case <-t.ctx.Done():
		return false
	}
}

// run 连接、服务、失败后退避重连
func (t *Transport) run() {
	defer t.wg.Done()

	for {
		err := t.serve()
		if t.ctx.Err() != nil {
			return
		}

		t.setStatus(StatusDisconnected)
		log.Printf("连接断开: %v", err)
		if !t.emit(Event{Kind: EventDisconnected, Err: err}) {
			return
		}

		n := int(t.attempts.Add(1))
		if n > t.cfg.MaxReconnectAttempts {
			t.setStatus(StatusError)
			log.Printf("重连 %d 次失败，放弃", t.cfg.MaxReconnectAttempts)
			t.emit(Event{Kind: EventFatal, Err: &ConnectionError{
				Op:  "reconnect",
				Err: fmt.Errorf("%w: %w", ErrRetriesExhausted, err),
			}})
			return
		}

		delay := t.cfg.ReconnectInterval << (n - 1)
		t.metrics.ReconnectAttempt()
		log.Printf("%v 后第 %d 次重连", delay, n)

		timer := time.NewTimer(delay)
		select {
		case <-t.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// serve 建立一个连接并处理到失败为止；ctx 取消时返回 nil
func (t *Transport) serve() error {
	t.setStatus(StatusConnecting)

	dialCtx, dialCancel := context.WithTimeout(t.ctx, t.cfg.ConnectionTimeout)
	conn, err := t.dialer.Dial(dialCtx, t.url)
	dialCancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && t.ctx.Err() == nil {
			return &ConnectionError{Op: "dial", Err: fmt.Errorf("连接超时: %w", err)}
		}
		return &ConnectionError{Op: "dial", Err: err}
	}

	connCtx, connCancel := context.WithCancel(t.ctx)
	inbound := make(chan inboundFrame, 16)
	readErr := make(chan error, 1)

	t.wg.Add(1)
	go t.receiveLoop(connCtx, conn, inbound, readErr)

	defer func() {
		connCancel()
		conn.Close()
	}()

	t.attempts.Store(0)
	t.dropStale(t.hadConn)
	t.hadConn = true
	t.setStatus(StatusConnected)
	log.Printf("已连接到服务器: %s", t.url)
	if !t.emit(Event{Kind: EventConnected}) {
		return nil
	}

	ping := time.NewTicker(t.cfg.PingInterval)
	defer ping.Stop()

	var (
		pongTimer *time.Timer
		pongC     <-chan time.Time
		msgTimer  *time.Timer
		msgC      <-chan time.Time
		pingSent  time.Time
	)
	defer func() {
		if pongTimer != nil {
			pongTimer.Stop()
		}
		if msgTimer != nil {
			msgTimer.Stop()
		}
	}()

	armMessageTimer := func() {
		if msgTimer == nil {
			msgTimer = time.NewTimer(t.cfg.MessageTimeout)
		} else {
			msgTimer.Reset(t.cfg.MessageTimeout)
		}
		msgC = msgTimer.C
	}
	clearMessageTimer := func() {
		if msgTimer != nil {
			msgTimer.Stop()
		}
		msgC = nil
	}

	flush := func() error {
		sentBinary, err := t.flush(conn)
		if sentBinary {
			armMessageTimer()
		}
		return err
	}

	if err := flush(); err != nil {
		return err
	}

	for {
		select {
		case <-t.ctx.Done():
			return nil

		case err := <-readErr:
			return &ConnectionError{Op: "read", Err: err}

		case <-t.wake:
			if err := flush(); err != nil {
				return err
			}

		case now := <-ping.C:
			if err := conn.WriteMessage(protocol.FrameText, []byte(protocol.PingToken)); err != nil {
				return &ConnectionError{Op: "ping", Err: err}
			}
			pingSent = now
			if pongC == nil {
				pongTimer = time.NewTimer(t.cfg.PongTimeout)
				pongC = pongTimer.C
			}

		case <-pongC:
			return &ConnectionError{Op: "ping", Err: ErrPongTimeout}

		case <-msgC:
			return &ConnectionError{Op: "send", Err: ErrMessageTimeout}

		case f := <-inbound:
			switch f.kind {
			case protocol.FrameText:
				switch string(f.data) {
				case protocol.PingToken:
					if err := conn.WriteMessage(protocol.FrameText, []byte(protocol.PongToken)); err != nil {
						return &ConnectionError{Op: "pong", Err: err}
					}
				case protocol.PongToken:
					if pongC != nil {
						pongTimer.Stop()
						pongC = nil
						t.recordLatency(time.Since(pingSent))
					}
				default:
					log.Printf("忽略文本消息: %q", f.data)
				}

			case protocol.FrameBinary:
				clearMessageTimer()
				msg, err := protocol.DecodeServer(f.data)
				if err != nil {
					t.metrics.ProtocolError()
					log.Printf("丢弃无法解析的消息 [%s]: %v", protocol.HexPrefix(f.data, 32), err)
					continue
				}
				switch msg.Type {
				case protocol.ServerPing:
					if err := conn.WriteMessage(protocol.FrameText, []byte(protocol.PongToken)); err != nil {
						return &ConnectionError{Op: "pong", Err: err}
					}
				case protocol.ServerPong:
					if pongC != nil {
						pongTimer.Stop()
						pongC = nil
						t.recordLatency(time.Since(pingSent))
					}
				case protocol.ServerGameState:
					// 快照可以丢，后续快照会覆盖
					select {
					case t.events <- Event{Kind: EventMessage, Status: StatusConnected, Message: msg}:
					default:
						t.metrics.SnapshotDropped()
						log.Printf("事件队列满，丢弃快照")
					}
				default:
					if !t.emit(Event{Kind: EventMessage, Message: msg}) {
						return nil
					}
				}
			}
		}
	}
}

// receiveLoop 读取连接直到出错或连接被关闭
func (t *Transport) receiveLoop(ctx context.Context, conn Conn, out chan<- inboundFrame, errc chan<- error) {
	defer t.wg.Done()
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			errc <- err
			return
		}
		select {
		case out <- inboundFrame{kind: kind, data: data}:
		case <-ctx.Done():
			return
		}
	}
}

// flush 依次发送队列中的消息
// 写失败时 join/direction 重新放回队首，只重试一次
func (t *Transport) flush(conn Conn) (sentBinary bool, err error) {
	for {
		out, ok := t.pop()
		if !ok {
			return sentBinary, nil
		}

		kind := protocol.FrameBinary
		var data []byte
		if out.msg.IsControl() {
			kind = protocol.FrameText
			data = []byte(out.msg.Type)
		} else {
			data, err = protocol.EncodeClient(out.msg)
			if err != nil {
				t.metrics.MessageDropped(string(out.msg.Type), "encode")
				log.Printf("编码 %s 失败: %v", out.msg.Type, err)
				continue
			}
		}

		if err := conn.WriteMessage(kind, data); err != nil {
			if out.msg.Retryable() && !out.retried {
				out.retried = true
				t.pushFront(out)
			} else {
				t.metrics.MessageDropped(string(out.msg.Type), "write")
			}
			return sentBinary, &ConnectionError{Op: "write", Err: err}
		}
		t.metrics.MessageSent(string(out.msg.Type))
		if kind == protocol.FrameBinary {
			sentBinary = true
		}
	}
}

func (t *Transport) pop() (outbound, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.queue) == 0 {
		return outbound{}, false
	}
	out := t.queue[0]
	t.queue = t.queue[1:]
	return out, true
}

func (t *Transport) pushFront(out outbound) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.queue = append([]outbound{out}, t.queue...)
}

// dropStale 新连接建立时清理旧会话的消息
// join 总是丢弃，所有者会在 EventConnected 后重新加入；
// 重连时旧会话的 direction/boost 也一并丢弃，不能先于新的 join 到达服务器
func (t *Transport) dropStale(reconnect bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.queue[:0]
	for _, out := range t.queue {
		switch out.msg.Type {
		case protocol.ClientJoin:
			continue
		case protocol.ClientDirection, protocol.ClientBoost:
			if reconnect {
				t.metrics.MessageDropped(string(out.msg.Type), "stale_session")
				continue
			}
		}
		kept = append(kept, out)
	}
	t.queue = kept
}

func (t *Transport) recordLatency(d time.Duration) {
	t.latency.Store(int64(d))
	t.metrics.SetLatency(d.Seconds())
}
