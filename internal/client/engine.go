package client

import (
	"sync/atomic"
	"time"

	"arena/internal/config"
	"arena/internal/metrics"
	"arena/pkg/core"
)

// Engine 每帧驱动：处理网络事件、预测、插值、重建网格、采样帧时
type Engine struct {
	cfg     config.Config
	store   *Store
	food    *FoodField
	grid    *SpatialGrid
	quality *QualityController
	metrics *metrics.Metrics

	lastVersion uint64
	lastFrame   time.Time
	info        atomic.Pointer[metrics.SessionInfo]
}

// NewEngine 创建帧引擎
func NewEngine(store *Store, cfg config.Config, m *metrics.Metrics) *Engine {
	e := &Engine{
		cfg:     cfg,
		store:   store,
		food:    NewFoodField(cfg.Food),
		grid:    NewSpatialGrid(cfg.Grid.CellSize),
		quality: NewQualityController(cfg.Quality),
		metrics: m,
	}
	e.info.Store(&metrics.SessionInfo{Status: StatusDisconnected.String()})
	return e
}

// Tick 推进一帧
func (e *Engine) Tick(now time.Time) {
	if !e.lastFrame.IsZero() {
		if e.quality.AddFrameTime(now.Sub(e.lastFrame), now) {
			e.metrics.SetQuality(int(e.quality.Level()), e.quality.FPS())
		}
	}
	e.lastFrame = now

	e.store.Pump()
	e.store.Advance(now)

	if v := e.store.Version(); v != e.lastVersion {
		e.food.Sync(e.store.Food(), e.store.Tokens(), now)
		e.lastVersion = v
	}

	var head *core.Vec2
	if p := e.store.LocalPlayer(); p != nil {
		if h, ok := p.Head(); ok {
			head = &h
		}
	}
	e.food.Update(now, head)
	e.grid.Rebuild(e.food.Items())

	e.publish()
}

// Visible 视口查询，rect 为相机可视矩形，内部加上固定边距
func (e *Engine) Visible(rect core.Rect) []Item {
	return e.grid.Query(rect.Expand(e.cfg.Grid.ViewportPadding), e.cfg.Grid.MaxVisible)
}

// Store 存储层
func (e *Engine) Store() *Store { return e.store }

// Quality 画质控制器
func (e *Engine) Quality() *QualityController { return e.quality }

// SessionInfo 最近一帧的会话摘要，可在任意 goroutine 读取
func (e *Engine) SessionInfo() metrics.SessionInfo {
	return *e.info.Load()
}

func (e *Engine) publish() {
	s := e.store
	e.info.Store(&metrics.SessionInfo{
		Status:        s.Status().String(),
		PlayerID:      s.PlayerID(),
		LatencyMs:     float64(s.Latency()) / float64(time.Millisecond),
		Reconnects:    s.ReconnectAttempts(),
		PendingInputs: s.PendingCount(),
		Players:       len(s.Players()),
		Food:          e.food.Len(),
		Quality:       e.quality.Level().String(),
		FPS:           e.quality.FPS(),
	})
}
