package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"arena/pkg/core"
	"arena/pkg/protocol"
)

var ErrWorldClosed = errors.New("世界已关闭")

// Options 回环服务器的世界参数
type Options struct {
	Tick            time.Duration
	Food            int
	Tokens          int
	MapSize         float64
	Speed           float64 // 单位/秒，与客户端预测一致
	BoostMultiplier float64
	ShrinkInterval  time.Duration // 0 表示不缩圈
	Seed            int64
}

// DefaultOptions 默认世界参数
func DefaultOptions() Options {
	return Options{
		Tick:            50 * time.Millisecond,
		Food:            200,
		Tokens:          10,
		MapSize:         core.MapSize,
		Speed:           core.BaseSpeed,
		BoostMultiplier: core.BoostMultiplier,
		ShrinkInterval:  core.CircleShrinkIntervalMs * time.Millisecond,
		Seed:            time.Now().UnixNano(),
	}
}

// worldClient 世界循环中的一个连接
type worldClient struct {
	session   Session
	player    *core.Player
	hasInput  bool
	lastInput uint32
}

// World 最小化的蛇世界，只由 Run 所在的 goroutine 修改
type World struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   Options
	rnd    *rand.Rand

	clients    map[int64]*worldClient
	nextPlayer int
	nextItem   int
	food       []core.Food
	tokens     []core.Token
	mapSize    float64
	nextShrink time.Time

	joinCh  chan joinRequest
	inputCh chan inputEvent
	leaveCh chan int64
}

type joinRequest struct {
	session Session
	join    *protocol.JoinData
	respCh  chan joinResponse
}

type joinResponse struct {
	id  string
	err error
}

type inputEvent struct {
	connID int64
	event  *ServerEvent
}

func NewWorld(parent context.Context, opts Options) *World {
	ctx, cancel := context.WithCancel(parent)
	w := &World{
		ctx:     ctx,
		cancel:  cancel,
		opts:    opts,
		rnd:     rand.New(rand.NewSource(opts.Seed)),
		clients: make(map[int64]*worldClient),
		mapSize: opts.MapSize,
		joinCh:  make(chan joinRequest),
		inputCh: make(chan inputEvent, 256),
		leaveCh: make(chan int64, 256),
	}
	for i := 0; i < opts.Food; i++ {
		w.food = append(w.food, w.spawnFood())
	}
	for i := 0; i < opts.Tokens; i++ {
		w.tokens = append(w.tokens, w.spawnToken(0))
	}
	return w
}

func (w *World) Run(wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(w.opts.Tick)
	defer ticker.Stop()

	if w.opts.ShrinkInterval > 0 {
		w.nextShrink = time.Now().Add(w.opts.ShrinkInterval)
	}
	log.Printf("世界循环启动: tick %v, 食物 %d", w.opts.Tick, w.opts.Food)

	for {
		select {
		case <-w.ctx.Done():
			log.Println("世界循环停止")
			return

		case req := <-w.joinCh:
			id, err := w.handleJoin(req.session, req.join)
			req.respCh <- joinResponse{id: id, err: err}

		case ev := <-w.inputCh:
			w.handleInput(ev.connID, ev.event)

		case connID := <-w.leaveCh:
			w.handleLeave(connID)

		case now := <-ticker.C:
			w.tick(now)
		}
	}
}

func (w *World) Shutdown() {
	w.cancel()
}

// Join 同步加入，返回分配的玩家 ID
func (w *World) Join(session Session, join *protocol.JoinData) (string, error) {
	respCh := make(chan joinResponse, 1)

	select {
	case <-w.ctx.Done():
		return "", ErrWorldClosed
	case w.joinCh <- joinRequest{session: session, join: join, respCh: respCh}:
	}

	select {
	case <-w.ctx.Done():
		return "", ErrWorldClosed
	case resp := <-respCh:
		return resp.id, resp.err
	}
}

func (w *World) EnqueueInput(connID int64, event *ServerEvent) {
	select {
	case <-w.ctx.Done():
	case w.inputCh <- inputEvent{connID: connID, event: event}:
	}
}

func (w *World) Leave(connID int64) {
	select {
	case <-w.ctx.Done():
	case w.leaveCh <- connID:
	}
}

func (w *World) handleJoin(session Session, join *protocol.JoinData) (string, error) {
	if join == nil {
		return "", fmt.Errorf("缺少加入数据")
	}
	c := w.clients[session.ID()]
	if c != nil && c.player != nil {
		return "", fmt.Errorf("玩家已加入")
	}
	if c == nil {
		c = &worldClient{session: session}
		w.clients[session.ID()] = c
	}

	w.nextPlayer++
	skin, ok := core.SkinByID(join.Skin.ID)
	if !ok {
		skin = core.Skins[0]
	}
	primary, secondary := join.Skin.PrimaryColor, join.Skin.SecondaryColor
	if primary == "" {
		primary = skin.PrimaryColor
	}
	if secondary == "" {
		secondary = skin.SecondaryColor
	}

	c.player = &core.Player{
		ID:             fmt.Sprintf("p%d", w.nextPlayer),
		Name:           core.SanitizeName(join.Name),
		Segments:       core.NewSnake(w.randomPoint(0.5)),
		Direction:      core.Vec2{X: 1},
		PrimaryColor:   primary,
		SecondaryColor: secondary,
	}
	c.hasInput = false

	data, err := encodePlayerJoined(protocol.FromCorePlayer(c.player))
	if err != nil {
		return "", err
	}
	w.broadcast(data)
	log.Printf("玩家 %s (%q) 加入", c.player.ID, c.player.Name)
	return c.player.ID, nil
}

func (w *World) handleInput(connID int64, ev *ServerEvent) {
	c := w.clients[connID]
	if c == nil || c.player == nil || ev == nil {
		return
	}

	switch ev.Kind {
	case EventDirection:
		if ev.Direction == nil {
			return
		}
		dir := ev.Direction.Direction.Core().Normalize()
		if dir.IsZero() {
			return
		}
		c.player.Direction = dir
		w.ack(c, ev.Direction.Sequence)

	case EventBoost:
		if ev.Boost == nil {
			return
		}
		c.player.Boosting = ev.Boost.Active
		w.ack(c, ev.Boost.Sequence)
	}
}

func (w *World) ack(c *worldClient, seq uint32) {
	if !c.hasInput || seq > c.lastInput {
		c.lastInput = seq
	}
	c.hasInput = true
}

func (w *World) handleLeave(connID int64) {
	c := w.clients[connID]
	if c == nil {
		return
	}
	delete(w.clients, connID)
	if c.player != nil {
		log.Printf("玩家 %s 离开", c.player.ID)
	}
}

func (w *World) tick(now time.Time) {
	dt := w.opts.Tick.Seconds()

	if w.opts.ShrinkInterval > 0 && !w.nextShrink.IsZero() && !now.Before(w.nextShrink) {
		w.mapSize = math.Max(core.MinMapSize, w.mapSize-core.CircleShrinkSpeed*2)
		w.nextShrink = now.Add(w.opts.ShrinkInterval)
	}

	ids := w.sortedClients()
	var dead []*worldClient
	for _, id := range ids {
		c := w.clients[id]
		if c.player == nil {
			continue
		}
		w.move(c.player, dt)
		w.eat(c.player, now)
		if head, ok := c.player.Head(); ok && head.Len() > w.mapSize/2 {
			dead = append(dead, c)
		}
	}

	for _, c := range dead {
		id := c.player.ID
		c.player = nil
		c.hasInput = false
		data, err := encodePlayerDied(id)
		if err != nil {
			log.Printf("编码死亡消息失败: %v", err)
			continue
		}
		w.broadcast(data)
		log.Printf("玩家 %s 离开安全圈死亡", id)
	}

	w.broadcastState(ids)
}

// move 头部沿方向前进，其余节点保持间距跟随
func (w *World) move(p *core.Player, dt float64) {
	if len(p.Segments) == 0 {
		return
	}
	speed := w.opts.Speed
	if p.Boosting {
		speed *= w.opts.BoostMultiplier
		p.Score = math.Max(0, p.Score-core.BoostCost*dt)
	}

	prev := p.Segments[0].Position.Add(p.Direction.Scale(speed * dt))
	p.Segments[0].Position = prev
	for i := 1; i < len(p.Segments); i++ {
		seg := p.Segments[i].Position
		if d := seg.Sub(prev); d.Len() > core.SegmentGap {
			seg = prev.Add(d.Scale(core.SegmentGap / d.Len()))
		}
		p.Segments[i].Position = seg
		prev = seg
	}
}

func (w *World) eat(p *core.Player, now time.Time) {
	head, ok := p.Head()
	if !ok {
		return
	}
	reach := p.Width() / 2
	for i, f := range w.food {
		if head.Dist(f.Position) <= reach+f.Size/2 {
			p.Score += f.Size / core.MaxFoodSize
			p.Segments = append(p.Segments, p.Segments[len(p.Segments)-1])
			w.food[i] = w.spawnFood()
		}
	}
	for i, t := range w.tokens {
		if t.Collectible && head.Dist(t.Position) <= reach+t.Size/2 {
			p.Tokens += int(t.Value)
			w.tokens[i] = w.spawnToken(now.UnixMilli())
		}
	}
}

func (w *World) broadcastState(ids []int64) {
	players := make([]protocol.PlayerState, 0, len(ids))
	for _, id := range ids {
		if p := w.clients[id].player; p != nil {
			players = append(players, protocol.FromCorePlayer(p))
		}
	}
	food := protocol.FromCoreFood(w.food)
	tokens := protocol.FromCoreTokens(w.tokens)
	var nextShrink int64
	if !w.nextShrink.IsZero() {
		nextShrink = w.nextShrink.UnixMilli()
	}

	for _, id := range ids {
		c := w.clients[id]
		if c.player == nil {
			continue
		}
		var lastInput *uint32
		if c.hasInput {
			seq := c.lastInput
			lastInput = &seq
		}
		data, err := encodeGameState(players, food, tokens, protocol.Float32(w.mapSize), nextShrink, lastInput)
		if err != nil {
			log.Printf("编码快照失败: %v", err)
			return
		}
		if err := c.session.Send(protocol.FrameBinary, data); err != nil && !errors.Is(err, ErrConnClosed) {
			log.Printf("连接 %d: 快照发送失败: %v", id, err)
		}
	}
}

func (w *World) broadcast(data []byte) {
	for id, c := range w.clients {
		if err := c.session.Send(protocol.FrameBinary, data); err != nil && !errors.Is(err, ErrConnClosed) {
			log.Printf("连接 %d: 广播失败: %v", id, err)
		}
	}
}

func (w *World) sortedClients() []int64 {
	ids := make([]int64, 0, len(w.clients))
	for id := range w.clients {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// randomPoint 圆内均匀随机点，frac 为相对安全圈半径的比例
func (w *World) randomPoint(frac float64) core.Vec2 {
	r := w.mapSize / 2 * frac * math.Sqrt(w.rnd.Float64())
	return core.FromAngle(w.rnd.Float64() * 2 * math.Pi).Scale(r)
}

func (w *World) spawnFood() core.Food {
	w.nextItem++
	return core.Food{
		ID:       fmt.Sprintf("f%d", w.nextItem),
		Position: w.randomPoint(0.9),
		Color:    core.FoodColors[w.rnd.Intn(len(core.FoodColors))],
		Size:     core.MinFoodSize + w.rnd.Float64()*(core.MaxFoodSize-core.MinFoodSize),
	}
}

func (w *World) spawnToken(now int64) core.Token {
	w.nextItem++
	return core.Token{
		ID:          fmt.Sprintf("t%d", w.nextItem),
		Position:    w.randomPoint(0.9),
		Value:       1,
		Color:       "#FFD700",
		Size:        10,
		SpawnTime:   now,
		Collectible: true,
	}
}
