// Package server 开发用回环服务器，与客户端说同一套协议
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"arena/pkg/protocol"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

// GameServer 游戏服务器
type GameServer struct {
	world *World
	opts  Options

	// 网络
	listener   ServerListener
	httpServer *http.Server
	upgrader   websocket.Upgrader
	addr       string
	proto      string
	nextConnID atomic.Int64

	// 控制
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	shutdown     chan struct{}
	shutdownOnce sync.Once
	worldOnce    sync.Once
}

// NewGameServer 创建新的游戏服务器，proto 为 ws、kcp 或 tcp
func NewGameServer(addr, proto string, opts Options) *GameServer {
	ctx, cancel := context.WithCancel(context.Background())

	return &GameServer{
		addr:     addr,
		proto:    proto,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		shutdown: make(chan struct{}),
		world:    NewWorld(ctx, opts),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Start 启动服务器，阻塞直到 Shutdown
func (s *GameServer) Start() error {
	log.Printf("启动游戏服务器: %s (%s)", s.addr, s.proto)

	s.startWorld()

	switch s.proto {
	case "ws":
		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return fmt.Errorf("监听失败: %w", err)
		}
		s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("HTTP 服务异常退出: %v", err)
			}
		}()
		log.Printf("服务器监听中: ws://%s/ws", ln.Addr())

	default:
		listener, err := newListener(s.proto, s.addr)
		if err != nil {
			return fmt.Errorf("监听失败: %w", err)
		}
		s.listener = listener
		log.Printf("服务器监听中: %s://%s", s.proto, listener.Addr())

		s.wg.Add(1)
		go s.acceptLoop()
	}

	<-s.shutdown
	return nil
}

func (s *GameServer) startWorld() {
	s.worldOnce.Do(func() {
		s.wg.Add(1)
		go s.world.Run(&s.wg)
	})
}

// Handler websocket 入口，/ws 升级连接，/healthz 存活检查
func (s *GameServer) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/ws", s.serveWS)
	return r
}

func (s *GameServer) serveWS(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket 升级失败: %v", err)
		return
	}
	c.SetReadLimit(protocol.MaxFrameSize)

	// 连接在 handler 内处理完毕，保证 Shutdown 前所有连接已退出
	s.wg.Add(1)
	NewConnection(s.nextConnID.Add(1), &wsConn{c: c}, s).Handle(s.ctx, &s.wg)
}

// Shutdown 优雅关闭服务器
func (s *GameServer) Shutdown() {
	s.shutdownOnce.Do(func() {
		log.Println("正在关闭服务器...")

		s.cancel()
		s.world.Shutdown()

		if s.listener != nil {
			s.listener.Close()
		}
		if s.httpServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			_ = s.httpServer.Shutdown(ctx)
			cancel()
		}

		close(s.shutdown)
		s.wg.Wait()
		log.Println("服务器已关闭")
	})
}

// acceptLoop 接受 kcp/tcp 连接
func (s *GameServer) acceptLoop() {
	defer s.wg.Done()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				log.Println("停止接受新连接")
				return
			default:
				log.Printf("接受连接失败: %v", err)
				continue
			}
		}

		connection := NewConnection(s.nextConnID.Add(1), newStreamConn(conn), s)
		s.wg.Add(1)
		go connection.Handle(s.ctx, &s.wg)
	}
}

func (s *GameServer) handleJoin(conn *Connection, join *protocol.JoinData) (string, error) {
	return s.world.Join(conn, join)
}

func (s *GameServer) handleInput(connID int64, event *ServerEvent) {
	s.world.EnqueueInput(connID, event)
}

func (s *GameServer) removePlayer(connID int64) {
	s.world.Leave(connID)
}
