// Package config 客户端可调参数、服务器列表和默认值
package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"arena/pkg/core"
)

// Server 可选服务器
type Server struct {
	ID         string
	Name       string
	Region     string
	URL        string
	MaxPlayers int
}

// Transport 连接、心跳与重连参数
type Transport struct {
	ReconnectInterval    time.Duration // 退避基数，第 n 次重连等待 base*2^(n-1)
	MaxReconnectAttempts int
	PingInterval         time.Duration
	PongTimeout          time.Duration
	ConnectionTimeout    time.Duration
	MessageTimeout       time.Duration // 发出二进制消息后必须在此时间内收到二进制消息
	WriteTimeout         time.Duration
	SendQueueSize        int // 断线期间最多缓存的待发消息
	EventBufferSize      int
}

// Prediction 客户端预测与纠正
type Prediction struct {
	BaseSpeed       float64 // 单位/秒
	BoostMultiplier float64
	ReconcileBlend  float64 // 重放时向预测点靠拢的比例
	MaxStep         time.Duration
	MaxPending      int // 未确认输入上限
}

// Food 食物插值与吸附
type Food struct {
	AttractionRadius   float64
	AttractionStrength float64
	AttractionScale    float64
	MaxAttraction      float64 // 吸附强度上限
	InterpolationSpeed float64
	InterpolationScale float64
	WobbleAmount       float64
	WobbleSpeed        float64
	VelocitySmoothing  float64
	MaxStep            time.Duration
}

// Grid 空间网格与视口裁剪
type Grid struct {
	CellSize        float64
	MaxVisible      int
	ViewportPadding float64
}

// Quality 自适应画质
type Quality struct {
	Adaptive      bool
	FrameBudget   time.Duration
	SampleSize    int
	EvalInterval  time.Duration
	DownThreshold float64 // 平均帧时 > budget*DownThreshold 降档
	UpThreshold   float64 // 平均帧时 < budget*UpThreshold 升档
}

// Config 客户端全部配置
type Config struct {
	Servers    []Server
	MapSize    float64
	Transport  Transport
	Prediction Prediction
	Food       Food
	Grid       Grid
	Quality    Quality
}

// DefaultServers 内置服务器列表
var DefaultServers = []Server{
	{ID: "in", Name: "India", Region: "Mumbai", URL: "wss://ws.4meme.org/ws", MaxPlayers: 500},
	{ID: "eu", Name: "EU West", Region: "Frankfurt", URL: "wss://ws.4meme.org/ws", MaxPlayers: 500},
}

// Default 返回默认配置
func Default() Config {
	return Config{
		Servers: append([]Server(nil), DefaultServers...),
		MapSize: core.MapSize,
		Transport: Transport{
			ReconnectInterval:    500 * time.Millisecond,
			MaxReconnectAttempts: 5,
			PingInterval:         5 * time.Second,
			PongTimeout:          3 * time.Second,
			ConnectionTimeout:    5 * time.Second,
			MessageTimeout:       5 * time.Second,
			WriteTimeout:         5 * time.Second,
			SendQueueSize:        256,
			EventBufferSize:      256,
		},
		Prediction: Prediction{
			BaseSpeed:       core.BaseSpeed,
			BoostMultiplier: core.BoostMultiplier,
			ReconcileBlend:  0.5,
			MaxStep:         100 * time.Millisecond,
			MaxPending:      256,
		},
		Food: Food{
			AttractionRadius:   core.FoodAttractionRadius,
			AttractionStrength: core.FoodAttractionStrength,
			AttractionScale:    2,
			MaxAttraction:      1,
			InterpolationSpeed: core.FoodInterpolationSpeed,
			InterpolationScale: 2,
			WobbleAmount:       3,
			WobbleSpeed:        4,
			VelocitySmoothing:  0.9,
			MaxStep:            100 * time.Millisecond,
		},
		Grid: Grid{
			CellSize:        100,
			MaxVisible:      100,
			ViewportPadding: 100,
		},
		Quality: Quality{
			Adaptive:      true,
			FrameBudget:   16660 * time.Microsecond,
			SampleSize:    60,
			EvalInterval:  time.Second,
			DownThreshold: 1.2,
			UpThreshold:   0.8,
		},
	}
}

// Validate 检查配置，返回所有问题
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	positiveDur := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, d))
		}
	}

	if len(c.Servers) == 0 {
		errs = append(errs, errors.New("servers: empty list"))
	}
	seen := make(map[string]bool, len(c.Servers))
	for _, s := range c.Servers {
		if s.ID == "" {
			errs = append(errs, errors.New("servers: empty id"))
			continue
		}
		if seen[s.ID] {
			errs = append(errs, fmt.Errorf("servers: duplicate id %q", s.ID))
		}
		seen[s.ID] = true
		if err := ValidateURL(s.URL); err != nil {
			errs = append(errs, fmt.Errorf("servers[%s]: %w", s.ID, err))
		}
	}
	positive("map size", c.MapSize)

	t := c.Transport
	positiveDur("transport.reconnect interval", t.ReconnectInterval)
	positiveDur("transport.ping interval", t.PingInterval)
	positiveDur("transport.pong timeout", t.PongTimeout)
	positiveDur("transport.connection timeout", t.ConnectionTimeout)
	positiveDur("transport.message timeout", t.MessageTimeout)
	positiveDur("transport.write timeout", t.WriteTimeout)
	if t.MaxReconnectAttempts < 0 {
		errs = append(errs, fmt.Errorf("transport.max reconnect attempts must not be negative, got %d", t.MaxReconnectAttempts))
	}
	if t.SendQueueSize <= 0 {
		errs = append(errs, fmt.Errorf("transport.send queue size must be positive, got %d", t.SendQueueSize))
	}
	if t.EventBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("transport.event buffer size must be positive, got %d", t.EventBufferSize))
	}

	p := c.Prediction
	positive("prediction.base speed", p.BaseSpeed)
	positive("prediction.boost multiplier", p.BoostMultiplier)
	if p.ReconcileBlend <= 0 || p.ReconcileBlend > 1 {
		errs = append(errs, fmt.Errorf("prediction.reconcile blend must be in (0,1], got %v", p.ReconcileBlend))
	}
	positiveDur("prediction.max step", p.MaxStep)
	if p.MaxPending <= 0 {
		errs = append(errs, fmt.Errorf("prediction.max pending must be positive, got %d", p.MaxPending))
	}

	f := c.Food
	positive("food.attraction radius", f.AttractionRadius)
	positive("food.interpolation speed", f.InterpolationSpeed)
	positive("food.interpolation scale", f.InterpolationScale)
	if f.VelocitySmoothing < 0 || f.VelocitySmoothing >= 1 {
		errs = append(errs, fmt.Errorf("food.velocity smoothing must be in [0,1), got %v", f.VelocitySmoothing))
	}
	positiveDur("food.max step", f.MaxStep)

	positive("grid.cell size", c.Grid.CellSize)
	if c.Grid.MaxVisible <= 0 {
		errs = append(errs, fmt.Errorf("grid.max visible must be positive, got %d", c.Grid.MaxVisible))
	}
	if c.Grid.ViewportPadding < 0 {
		errs = append(errs, fmt.Errorf("grid.viewport padding must not be negative, got %v", c.Grid.ViewportPadding))
	}

	q := c.Quality
	positiveDur("quality.frame budget", q.FrameBudget)
	positiveDur("quality.eval interval", q.EvalInterval)
	if q.SampleSize <= 0 {
		errs = append(errs, fmt.Errorf("quality.sample size must be positive, got %d", q.SampleSize))
	}
	if q.UpThreshold >= q.DownThreshold {
		errs = append(errs, fmt.Errorf("quality thresholds: up %v must be below down %v", q.UpThreshold, q.DownThreshold))
	}

	return errors.Join(errs...)
}

// ServerByID 按 ID 查找服务器
func (c Config) ServerByID(id string) (Server, bool) {
	for _, s := range c.Servers {
		if s.ID == id {
			return s, true
		}
	}
	return Server{}, false
}

// ValidateURL 只接受 ws、wss、kcp、tcp 地址
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "ws", "wss", "kcp", "tcp":
	default:
		return fmt.Errorf("unsupported scheme %q in %q", u.Scheme, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
