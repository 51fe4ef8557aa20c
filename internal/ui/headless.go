package ui

import (
	"context"
	"errors"
	"log"
	"time"

	"arena/internal/client"
	"arena/internal/config"
	"arena/pkg/ai"
	"arena/pkg/core"
)

// 死亡后重新加入前的等待
const rejoinDelay = time.Second

// Headless 无窗口运行：固定频率驱动引擎，可选由自动驾驶控制
type Headless struct {
	engine *client.Engine
	store  *client.Store
	bot    *ai.Autopilot

	server config.Server
	name   string
	skin   core.Skin

	ended  bool
	reason error
}

// NewHeadless 创建无窗口运行器，bot 为 nil 时只保持连接
func NewHeadless(engine *client.Engine, bot *ai.Autopilot, server config.Server, name string, skin core.Skin) *Headless {
	return &Headless{
		engine: engine,
		store:  engine.Store(),
		bot:    bot,
		server: server,
		name:   name,
		skin:   skin,
	}
}

// Run 阻塞直到 ctx 取消或会话因连接失败结束；玩家死亡后自动重新开始
func (h *Headless) Run(ctx context.Context, tick time.Duration) error {
	unsubscribe := h.store.Subscribe(client.ObserverFuncs{
		PlayerID: func(id string) { log.Printf("已加入，玩家 ID: %s", id) },
		Teardown: func(reason error) {
			h.ended = true
			h.reason = reason
		},
	})
	defer unsubscribe()
	defer h.store.Close()

	if err := h.store.Start(h.server, h.name, h.skin); err != nil {
		return err
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	var rejoinAt time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			h.engine.Tick(now)

			if h.ended {
				h.ended = false
				if !errors.Is(h.reason, client.ErrPlayerDied) {
					return h.reason
				}
				log.Printf("玩家死亡，%v 后重新加入", rejoinDelay)
				rejoinAt = now.Add(rejoinDelay)
			}
			if !rejoinAt.IsZero() && !now.Before(rejoinAt) {
				rejoinAt = time.Time{}
				if err := h.store.Start(h.server, h.name, h.skin); err != nil {
					return err
				}
			}
			h.steer()
		}
	}
}

func (h *Headless) steer() {
	if h.bot == nil {
		return
	}
	self := h.store.LocalPlayer()
	if self == nil {
		return
	}

	view := ai.View{Self: self, MapSize: h.store.MapSize()}
	for _, p := range h.store.Players() {
		if p.ID != self.ID {
			view.Others = append(view.Others, p)
		}
	}
	for _, f := range h.store.Food() {
		view.Food = append(view.Food, f.Position)
	}
	for _, t := range h.store.Tokens() {
		if t.Collectible {
			view.Food = append(view.Food, t.Position)
		}
	}

	d := h.bot.Decide(view)
	if d.Direction.IsZero() {
		return
	}
	if d.Direction.Sub(self.Direction).Len() > directionEpsilon {
		if err := h.store.SetDirection(d.Direction); err != nil {
			log.Printf("自动驾驶发送方向失败: %v", err)
		}
	}
	if d.Boost != self.Boosting {
		if err := h.store.SetBoosting(d.Boost); err != nil {
			log.Printf("自动驾驶发送加速失败: %v", err)
		}
	}
}
