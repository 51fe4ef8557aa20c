package ui

import (
	"fmt"
	"image/color"

	"arena/internal/client"
	"arena/pkg/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/basicfont"
)

var hudFont = text.NewGoXFace(basicfont.Face7x13)

var (
	backgroundColor = color.RGBA{12, 14, 22, 255}
	boundaryColor   = color.RGBA{255, 70, 70, 200}
	hintColor       = color.RGBA{180, 190, 200, 255}
	selectColor     = color.RGBA{255, 220, 120, 255}
	errorColor      = color.RGBA{255, 120, 120, 255}
	shadowColor     = color.RGBA{0, 0, 0, 90}
)

func drawText(screen *ebiten.Image, x, y int, msg string, clr color.Color) {
	options := &text.DrawOptions{}
	options.GeoM.Translate(float64(x), float64(y))
	options.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, msg, hudFont, options)
}

func (a *App) camera() camera {
	cam := camera{width: float64(a.width), height: float64(a.height)}
	if p := a.store.LocalPlayer(); p != nil {
		if h, ok := p.Head(); ok {
			cam.center = h
		}
	}
	return cam
}

func (a *App) drawMenu(screen *ebiten.Image) {
	screen.Fill(color.RGBA{18, 22, 30, 255})
	drawText(screen, 16, 24, "Arena", color.White)
	drawText(screen, 16, 44, "W/S: Server  A/D: Skin  Q: Quality  Enter: Play", hintColor)

	y := 70
	for i, s := range a.cfg.Servers {
		prefix := " "
		col := color.RGBA{210, 220, 230, 255}
		if i == a.serverIndex {
			prefix = ">"
			col = selectColor
		}
		drawText(screen, 16, y, fmt.Sprintf("%s %s (%s)  max %d", prefix, s.Name, s.Region, s.MaxPlayers), col)
		y += 16
	}

	skin := core.Skins[a.skinIndex]
	y += 16
	drawText(screen, 16, y, fmt.Sprintf("Name: %s", core.SanitizeName(a.name)), color.White)
	y += 16
	drawText(screen, 16, y, fmt.Sprintf("Skin: < %s >", skin.Name), a.colors.get(skin.PrimaryColor))
	vector.FillCircle(screen, 200, float32(y-4), 8, a.colors.get(skin.PrimaryColor), true)
	vector.FillCircle(screen, 216, float32(y-4), 8, a.colors.get(skin.SecondaryColor), true)
	y += 16
	drawText(screen, 16, y, fmt.Sprintf("Quality: %s", a.engine.Quality().Level()), hintColor)

	if a.message != "" {
		drawText(screen, 16, a.height-8, a.message, errorColor)
	}
}

func (a *App) drawWorld(screen *ebiten.Image) {
	screen.Fill(backgroundColor)
	cam := a.camera()
	settings := a.engine.Quality().Settings()

	// 安全圈
	cx, cy := cam.toScreen(core.Vec2{})
	if size := a.store.MapSize(); size > 0 {
		vector.StrokeCircle(screen, cx, cy, float32(size/2), 3, boundaryColor, true)
	}

	for _, item := range a.engine.Visible(cam.view()) {
		a.drawItem(screen, cam, item, settings)
	}

	// 本地玩家最后绘制，保证在最上层
	local := a.store.PlayerID()
	var self *core.Player
	for _, p := range a.store.Players() {
		if p.ID == local {
			self = p
			continue
		}
		a.drawSnake(screen, cam, p, settings)
	}
	if self != nil {
		a.drawSnake(screen, cam, self, settings)
	}
}

func (a *App) drawItem(screen *ebiten.Image, cam camera, item client.Item, settings client.RenderSettings) {
	x, y := cam.toScreen(item.Position)
	r := float32(item.Size / 2)
	if r < 2 {
		r = 2
	}
	clr := a.colors.get(item.Color)
	if settings.Glow {
		vector.FillCircle(screen, x, y, r*2, withAlpha(clr, 60), true)
	}
	vector.FillCircle(screen, x, y, r, clr, true)
	if item.Kind == client.ItemToken {
		vector.StrokeCircle(screen, x, y, r+2, 1, color.White, true)
	}
}

func (a *App) drawSnake(screen *ebiten.Image, cam camera, p *core.Player, settings client.RenderSettings) {
	if len(p.Segments) == 0 {
		return
	}
	r := float32(p.Width() / 2)
	primary := a.colors.get(p.PrimaryColor)
	secondary := a.colors.get(p.SecondaryColor)

	// 从尾到头绘制，头部在最上层
	for i := len(p.Segments) - 1; i >= 0; i-- {
		x, y := cam.toScreen(p.Segments[i].Position)
		if settings.Shadows {
			vector.FillCircle(screen, x+3, y+3, r, shadowColor, true)
		}
		clr := primary
		if i%2 == 1 {
			clr = secondary
		}
		if p.Boosting && settings.Glow {
			vector.FillCircle(screen, x, y, r*1.3, withAlpha(clr, 50), true)
		}
		vector.FillCircle(screen, x, y, r, clr, true)
	}

	hx, hy := cam.toScreen(p.Segments[0].Position)
	if p.Direction.IsFinite() && !p.Direction.IsZero() {
		ex := hx + float32(p.Direction.X)*r*0.5
		ey := hy + float32(p.Direction.Y)*r*0.5
		vector.FillCircle(screen, ex, ey, r*0.3, color.White, true)
	}
	drawText(screen, int(hx)-len(p.Name)*7/2, int(hy-r)-6, p.Name, color.White)
}

func (a *App) drawHUD(screen *ebiten.Image) {
	q := a.engine.Quality()
	status := a.store.Status()
	line := fmt.Sprintf("%s  %dms  %d fps  %s", status, a.store.Latency().Milliseconds(), q.FPS(), q.Level())
	if n := a.store.ReconnectAttempts(); n > 0 {
		line += fmt.Sprintf("  reconnect #%d", n)
	}
	drawText(screen, 16, 20, line, hintColor)

	if p := a.store.LocalPlayer(); p != nil {
		drawText(screen, 16, 40, fmt.Sprintf("Score %.0f  Tokens %d  Length %d", p.Score, p.Tokens, len(p.Segments)), color.White)
	} else if status == client.StatusConnected {
		drawText(screen, 16, 40, "Joining...", color.RGBA{200, 200, 120, 255})
	}

	y := 20
	x := a.width - 200
	drawText(screen, x, y, "Leaderboard", color.White)
	for i, e := range a.store.Leaderboard(5) {
		y += 16
		col := hintColor
		if e.ID == a.store.PlayerID() {
			col = selectColor
		}
		drawText(screen, x, y, fmt.Sprintf("%d. %-12s %6.0f", i+1, e.Name, e.Score), col)
	}
	drawText(screen, 16, a.height-8, "Mouse: steer  Space/Click: boost  Esc: menu", hintColor)
}
