// Package ui ebiten 前端：菜单、输入采集、世界绘制与 HUD
package ui

import (
	"errors"
	"fmt"
	"log"
	"time"

	"arena/internal/client"
	"arena/internal/config"
	"arena/pkg/core"

	"github.com/hajimehoshi/ebiten/v2"
)

// 默认窗口大小
const (
	ScreenWidth  = 1280
	ScreenHeight = 720
)

type screenKind int

const (
	screenMenu screenKind = iota
	screenPlaying
)

// App 实现 ebiten.Game
type App struct {
	engine *client.Engine
	store  *client.Store
	cfg    config.Config
	name   string

	screen      screenKind
	serverIndex int
	skinIndex   int
	message     string

	input       keyTracker
	steer       *steering
	colors      colorCache
	unsubscribe func()

	width, height int
}

// NewApp 创建前端，serverID 为预选服务器（通常来自上次的选择）
func NewApp(engine *client.Engine, cfg config.Config, name, serverID, skinID string) *App {
	a := &App{
		engine: engine,
		store:  engine.Store(),
		cfg:    cfg,
		name:   name,
		steer:  newSteering(),
		colors: make(colorCache),
		width:  ScreenWidth,
		height: ScreenHeight,
	}
	for i, s := range cfg.Servers {
		if s.ID == serverID {
			a.serverIndex = i
		}
	}
	for i, s := range core.Skins {
		if s.ID == skinID {
			a.skinIndex = i
		}
	}
	a.unsubscribe = a.store.Subscribe(client.ObserverFuncs{
		Teardown: a.onTeardown,
	})
	return a
}

// StartSelected 直接以当前选择开始游戏
func (a *App) StartSelected() {
	if len(a.cfg.Servers) == 0 {
		a.message = "no servers configured"
		return
	}
	server := a.cfg.Servers[a.serverIndex]
	skin := core.Skins[a.skinIndex]
	if err := a.store.Start(server, a.name, skin); err != nil {
		log.Printf("开始游戏失败: %v", err)
		a.message = err.Error()
		return
	}
	a.steer.Reset()
	a.message = ""
	a.screen = screenPlaying
}

// onTeardown 会话结束后回到菜单
func (a *App) onTeardown(reason error) {
	a.screen = screenMenu
	a.steer.Reset()
	a.message = teardownMessage(reason)
}

func teardownMessage(reason error) string {
	switch {
	case reason == nil:
		return ""
	case errors.Is(reason, client.ErrPlayerDied):
		return "You died. Press Enter to play again."
	case errors.Is(reason, client.ErrRetriesExhausted):
		return "Connection lost. Press Enter to retry."
	default:
		return fmt.Sprintf("Session ended: %v", reason)
	}
}

// Close 结束会话并取消订阅
func (a *App) Close() {
	a.store.Close()
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

func (a *App) Update() error {
	now := time.Now()
	a.engine.Tick(now)

	switch a.screen {
	case screenMenu:
		a.updateMenu()
	case screenPlaying:
		a.updatePlaying(now)
	}
	return nil
}

func (a *App) updateMenu() {
	if a.input.JustPressed(ebiten.KeyArrowUp) || a.input.JustPressed(ebiten.KeyW) {
		if a.serverIndex > 0 {
			a.serverIndex--
		}
	}
	if a.input.JustPressed(ebiten.KeyArrowDown) || a.input.JustPressed(ebiten.KeyS) {
		if a.serverIndex < len(a.cfg.Servers)-1 {
			a.serverIndex++
		}
	}
	if a.input.JustPressed(ebiten.KeyArrowLeft) || a.input.JustPressed(ebiten.KeyA) {
		a.skinIndex = (a.skinIndex + len(core.Skins) - 1) % len(core.Skins)
	}
	if a.input.JustPressed(ebiten.KeyArrowRight) || a.input.JustPressed(ebiten.KeyD) {
		a.skinIndex = (a.skinIndex + 1) % len(core.Skins)
	}
	if a.input.JustPressed(ebiten.KeyQ) {
		a.engine.Quality().SetAdaptive(false)
		a.engine.Quality().SetLevel((a.engine.Quality().Level() + 1) % (client.QualityHigh + 1))
	}
	if a.input.JustPressed(ebiten.KeyEnter) {
		a.StartSelected()
	}
}

func (a *App) updatePlaying(now time.Time) {
	if a.input.JustPressed(ebiten.KeyEscape) {
		a.store.Close()
		return
	}
	if a.store.LocalPlayer() == nil {
		return
	}

	mx, my := ebiten.CursorPosition()
	cursor := core.Vec2{X: float64(mx), Y: float64(my)}
	center := core.Vec2{X: float64(a.width) / 2, Y: float64(a.height) / 2}
	if dir, ok := a.steer.Direction(now, center, cursor); ok {
		if err := a.store.SetDirection(dir); err != nil {
			log.Printf("发送方向失败: %v", err)
		}
	}

	pressed := ebiten.IsKeyPressed(ebiten.KeySpace) || ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if a.steer.Boost(pressed) {
		if err := a.store.SetBoosting(pressed); err != nil {
			log.Printf("发送加速失败: %v", err)
		}
	}
}

func (a *App) Draw(screen *ebiten.Image) {
	switch a.screen {
	case screenMenu:
		a.drawMenu(screen)
	case screenPlaying:
		a.drawWorld(screen)
		a.drawHUD(screen)
	}
}

func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.width, a.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}
