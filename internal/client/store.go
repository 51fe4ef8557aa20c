package client

import (
	"errors"
	"log"
	"math"
	"math/rand"
	"sort"
	"time"

	"arena/internal/config"
	"arena/internal/metrics"
	"arena/pkg/core"
	"arena/pkg/protocol"
)

// Session 存储层使用的会话接口，*Transport 实现了它
type Session interface {
	Connect() error
	Send(msg protocol.ClientMessage) error
	Events() <-chan Event
	Status() ConnectionStatus
	Latency() time.Duration
	Close()
}

// Observer 会话通知，在帧线程上同步按顺序调用
type Observer interface {
	OnPlayerID(id string)
	OnTeardown(reason error) // reason 为 nil 表示主动关闭
}

// ObserverFuncs 函数形式的 Observer
type ObserverFuncs struct {
	PlayerID func(id string)
	Teardown func(reason error)
}

func (o ObserverFuncs) OnPlayerID(id string) {
	if o.PlayerID != nil {
		o.PlayerID(id)
	}
}

func (o ObserverFuncs) OnTeardown(reason error) {
	if o.Teardown != nil {
		o.Teardown(reason)
	}
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	ID     string
	Name   string
	Score  float64
	Tokens int
}

// StoreOption 存储层选项
type StoreOption func(*Store)

// WithClock 替换时钟
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithMetrics 启用指标
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// WithRand 替换随机源（初始朝向）
func WithRand(r *rand.Rand) StoreOption {
	return func(s *Store) { s.rng = r }
}

// WithPrefs 记录上次选择的服务器
func WithPrefs(p *config.Prefs) StoreOption {
	return func(s *Store) { s.prefs = p }
}

// WithSessionFactory 替换会话构造
func WithSessionFactory(f func(url string) Session) StoreOption {
	return func(s *Store) { s.newSession = f }
}

// Store 客户端权威状态的唯一持有者
// 所有方法都必须在同一个（帧）goroutine 上调用
type Store struct {
	cfg        config.Config
	metrics    *metrics.Metrics
	prefs      *config.Prefs
	now        func() time.Time
	rng        *rand.Rand
	newSession func(url string) Session

	session Session
	server  config.Server
	name    string
	skin    core.Skin

	playerID         string
	roster           *Roster
	food             []core.Food
	tokens           []core.Token
	mapSize          float64
	nextCircleShrink int64
	input            *InputBuffer
	version          uint64
	lastAdvance      time.Time

	observer    Observer
	observerGen int
}

// NewStore 创建存储层，dialer 用于默认会话构造
func NewStore(cfg config.Config, dialer Dialer, opts ...StoreOption) *Store {
	s := &Store{
		cfg:     cfg,
		now:     time.Now,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		roster:  NewRoster(),
		mapSize: cfg.MapSize,
		input:   NewInputBuffer(cfg.Prediction.MaxPending),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newSession == nil {
		s.newSession = func(url string) Session {
			return NewTransport(url, dialer, cfg.Transport, s.metrics)
		}
	}
	return s
}

// Start 开始新的游戏会话，旧会话先被完整拆除
func (s *Store) Start(server config.Server, name string, skin core.Skin) error {
	if s.session != nil {
		s.teardown(nil, false)
	}
	if err := config.ValidateURL(server.URL); err != nil {
		return err
	}

	s.server = server
	s.name = core.SanitizeName(name)
	s.skin = skin
	if err := s.prefs.SetLastServer(server.ID); err != nil {
		log.Printf("保存服务器选择失败: %v", err)
	}

	s.session = s.newSession(server.URL)
	if err := s.session.Connect(); err != nil {
		s.session.Close()
		s.session = nil
		return err
	}
	log.Printf("开始会话: %s (%s) 玩家 %q", server.Name, server.URL, s.name)
	return nil
}

// Close 主动结束会话
func (s *Store) Close() {
	if s.session == nil {
		return
	}
	s.teardown(nil, false)
}

// Subscribe 设置唯一的观察者，返回取消函数
func (s *Store) Subscribe(o Observer) (unsubscribe func()) {
	s.observerGen++
	gen := s.observerGen
	s.observer = o
	return func() {
		if s.observerGen == gen {
			s.observer = nil
		}
	}
}

// Pump 处理当前已到达的全部传输层事件，不阻塞
func (s *Store) Pump() {
	for s.session != nil {
		select {
		case ev, ok := <-s.session.Events():
			if !ok {
				return
			}
			s.handleEvent(ev)
		default:
			return
		}
	}
}

func (s *Store) handleEvent(ev Event) {
	switch ev.Kind {
	case EventConnected:
		join := protocol.NewJoin(s.name, protocol.SkinToWire(s.skin), s.now().UnixMilli())
		if err := s.session.Send(join); err != nil {
			log.Printf("发送加入请求失败: %v", err)
		}

	case EventDisconnected:
		// 服务器会在重新加入后分配新玩家
		s.clearWorld()

	case EventFatal:
		log.Printf("连接失败: %v", ev.Err)
		s.teardown(ev.Err, true)

	case EventMessage:
		s.HandleMessage(ev.Message)
	}
}

// HandleMessage 应用一条已解码的服务器消息
func (s *Store) HandleMessage(msg protocol.ServerMessage) {
	switch msg.Type {
	case protocol.ServerGameState:
		s.handleGameState(msg.GameState)
	case protocol.ServerPlayerJoined:
		s.handlePlayerJoined(msg.PlayerJoined)
	case protocol.ServerPlayerDied:
		s.handlePlayerDied(msg.PlayerDied)
	}
}

func (s *Store) handleGameState(gs *protocol.GameStateData) {
	if err := gs.Validate(); err != nil {
		log.Printf("丢弃快照: %v", err)
		return
	}
	if s.playerID == "" {
		return
	}

	now := s.now()
	players := protocol.ToCorePlayers(*gs.Players)

	var remaining []Command
	acked := gs.LastProcessedInput != nil
	if acked {
		remaining = s.input.Acknowledge(*gs.LastProcessedInput)
	}

	for _, p := range players {
		if p.ID != s.playerID {
			continue
		}
		if acked {
			if head, ok := p.Head(); ok {
				p.SetHead(Reconcile(head, remaining, now.UnixMilli(), s.cfg.Prediction))
			}
		}
		if dir := s.input.Direction(); !dir.IsZero() {
			p.Direction = dir
		}
	}

	s.roster.Replace(players)
	s.food = protocol.ToCoreFood(*gs.Food)
	s.tokens = protocol.ToCoreTokens(gs.Tokens)
	s.mapSize = s.cfg.MapSize
	if gs.MapSize != nil {
		s.mapSize = float64(*gs.MapSize)
	}
	if gs.NextCircleShrink != nil {
		s.nextCircleShrink = *gs.NextCircleShrink
	}
	s.lastAdvance = now
	s.version++

	s.metrics.SnapshotApplied()
	s.metrics.SetPendingInputs(s.input.Len())
}

func (s *Store) handlePlayerJoined(pj *protocol.PlayerJoinedData) {
	if err := pj.Validate(); err != nil {
		log.Printf("丢弃加入消息: %v", err)
		return
	}
	p := protocol.ToCorePlayer(*pj.Player)

	first := s.playerID == ""
	if first {
		s.playerID = p.ID
		dir := core.FromAngle(s.rng.Float64() * 2 * math.Pi)
		s.input.SetDirection(dir)
		p.Direction = s.input.Direction()
		log.Printf("本地玩家 ID: %s", p.ID)
	} else if p.ID == s.playerID {
		if dir := s.input.Direction(); !dir.IsZero() {
			p.Direction = dir
		}
	}
	s.roster.Put(p)
	s.version++

	if first && s.observer != nil {
		s.observer.OnPlayerID(p.ID)
	}
}

func (s *Store) handlePlayerDied(pd *protocol.PlayerDiedData) {
	id := pd.ID()
	if id == "" {
		return
	}
	if id == s.playerID {
		log.Printf("本地玩家 %s 死亡", id)
		s.teardown(ErrPlayerDied, true)
		return
	}
	if s.roster.Remove(id) {
		s.version++
	}
}

// SetDirection 改变朝向并发送方向命令
func (s *Store) SetDirection(dir core.Vec2) error {
	if n := dir.Normalize(); n.IsZero() {
		return &protocol.ValidationError{Field: "direction", Reason: "zero-length or non-finite vector"}
	}
	local := s.LocalPlayer()
	if local == nil || s.session == nil {
		return &StateError{Op: "direction", Err: ErrNoPlayer}
	}

	cmd, err := s.input.PushDirection(dir, s.now().UnixMilli())
	if err != nil {
		return err
	}
	local.Direction = cmd.Direction
	s.metrics.SetPendingInputs(s.input.Len())
	return s.session.Send(protocol.NewDirection(protocol.VecToWire(cmd.Direction), cmd.Sequence, cmd.Timestamp))
}

// SetBoosting 切换加速，只有状态真正变化时才发送
func (s *Store) SetBoosting(active bool) error {
	local := s.LocalPlayer()
	if local == nil || s.session == nil {
		return &StateError{Op: "boost", Err: ErrNoPlayer}
	}
	if local.Boosting == active {
		return nil
	}

	cmd := s.input.PushBoost(active, s.now().UnixMilli())
	local.Boosting = active
	s.metrics.SetPendingInputs(s.input.Len())
	return s.session.Send(protocol.NewBoost(active, cmd.Sequence, cmd.Timestamp))
}

// Advance 两次快照之间沿当前朝向推进本地蛇头
func (s *Store) Advance(now time.Time) {
	local := s.LocalPlayer()
	if local == nil {
		s.lastAdvance = now
		return
	}
	if s.lastAdvance.IsZero() {
		s.lastAdvance = now
		return
	}
	dt := now.Sub(s.lastAdvance)
	s.lastAdvance = now
	if dt <= 0 {
		return
	}
	if dt > s.cfg.Prediction.MaxStep {
		dt = s.cfg.Prediction.MaxStep
	}

	dir := s.input.Direction()
	if dir.IsZero() {
		dir = local.Direction.Normalize()
	}
	if head, ok := local.Head(); ok && !dir.IsZero() {
		local.SetHead(Predict(head, dir, local.Boosting, dt.Seconds(), s.cfg.Prediction))
	}
}

func (s *Store) clearWorld() {
	s.playerID = ""
	s.roster.Clear()
	s.food = nil
	s.tokens = nil
	s.mapSize = s.cfg.MapSize
	s.nextCircleShrink = 0
	s.input.Reset()
	s.lastAdvance = time.Time{}
	s.version++
	s.metrics.SetPendingInputs(0)
}

// teardown 同步关闭传输层（停止所有计时器）并清空状态
func (s *Store) teardown(reason error, clearPrefs bool) {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
	s.clearWorld()

	if clearPrefs {
		if err := s.prefs.ClearLastServer(); err != nil {
			log.Printf("清除服务器选择失败: %v", err)
		}
	}
	if reason != nil && !errors.Is(reason, ErrPlayerDied) {
		log.Printf("会话结束: %v", reason)
	}
	if s.observer != nil {
		s.observer.OnTeardown(reason)
	}
}

// PlayerID 本地玩家 ID，未加入时为空
func (s *Store) PlayerID() string { return s.playerID }

// LocalPlayer 本地玩家
func (s *Store) LocalPlayer() *core.Player {
	if s.playerID == "" {
		return nil
	}
	return s.roster.Get(s.playerID)
}

// Players 按加入顺序的全部玩家（只读）
func (s *Store) Players() []*core.Player { return s.roster.All() }

// Food 权威食物列表（只读）
func (s *Store) Food() []core.Food { return s.food }

// Tokens 权威代币列表（只读）
func (s *Store) Tokens() []core.Token { return s.tokens }

// MapSize 当前地图直径
func (s *Store) MapSize() float64 { return s.mapSize }

// NextCircleShrink 下次缩圈时间（毫秒时间戳）
func (s *Store) NextCircleShrink() int64 { return s.nextCircleShrink }

// Version 世界状态每次被替换或修改时递增
func (s *Store) Version() uint64 { return s.version }

// PendingInputs 未确认命令
func (s *Store) PendingInputs() []Command { return s.input.Pending() }

// PendingCount 未确认命令数量
func (s *Store) PendingCount() int { return s.input.Len() }

// ReconnectAttempts 当前连续重连次数
func (s *Store) ReconnectAttempts() int {
	if r, ok := s.session.(interface{ ReconnectAttempts() int }); ok {
		return r.ReconnectAttempts()
	}
	return 0
}

// Server 当前会话的服务器
func (s *Store) Server() config.Server { return s.server }

// Active 是否有会话
func (s *Store) Active() bool { return s.session != nil }

// Status 连接状态
func (s *Store) Status() ConnectionStatus {
	if s.session == nil {
		return StatusDisconnected
	}
	return s.session.Status()
}

// Latency 最近一次往返时间
func (s *Store) Latency() time.Duration {
	if s.session == nil {
		return 0
	}
	return s.session.Latency()
}

// Leaderboard 按分数降序的前 n 名
func (s *Store) Leaderboard(n int) []LeaderboardEntry {
	players := s.roster.All()
	entries := make([]LeaderboardEntry, 0, len(players))
	for _, p := range players {
		entries = append(entries, LeaderboardEntry{ID: p.ID, Name: p.Name, Score: p.Score, Tokens: p.Tokens})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ID < entries[j].ID
	})
	if n >= 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
