package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arena/internal/client"
	"arena/internal/config"
	"arena/internal/metrics"
	"arena/internal/ui"
	"arena/pkg/ai"
	"arena/pkg/core"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

type options struct {
	server      string
	url         string
	name        string
	skin        string
	headless    bool
	bot         string
	metricsAddr string
	prefsPath   string
}

func main() {
	var opts options

	rootCmd := &cobra.Command{
		Use:   "arena",
		Short: "Arena snake client",
		Long: `Arena snake client.

Connects to a game server over websocket, kcp or tcp, predicts the
local snake between snapshots and reconciles against the server.

Examples:
  arena --server eu --name Ann
  arena --url ws://127.0.0.1:8080/ws --headless --bot hard`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.server, "server", "", "服务器 ID（默认使用上次的选择）")
	flags.StringVar(&opts.url, "url", "", "直接指定服务器地址，覆盖 --server")
	flags.StringVar(&opts.name, "name", core.DefaultPlayerName, "玩家名称")
	flags.StringVar(&opts.skin, "skin", core.Skins[0].ID, "皮肤 ID")
	flags.BoolVar(&opts.headless, "headless", false, "无窗口运行")
	flags.StringVar(&opts.bot, "bot", "", "自动驾驶难度: normal 或 hard（仅 --headless）")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "调试 HTTP 监听地址，如 :9100")
	flags.StringVar(&opts.prefsPath, "prefs", "", "偏好文件路径")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(opts options) error {
	cfg := config.Default()
	if opts.url != "" {
		if err := config.ValidateURL(opts.url); err != nil {
			return err
		}
		custom := config.Server{ID: "custom", Name: "Custom", Region: "-", URL: opts.url}
		cfg.Servers = append([]config.Server{custom}, cfg.Servers...)
		opts.server = custom.ID
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("配置无效: %w", err)
	}

	skin, ok := core.SkinByID(opts.skin)
	if !ok {
		return fmt.Errorf("未知皮肤: %s", opts.skin)
	}

	prefsPath := opts.prefsPath
	if prefsPath == "" {
		p, err := config.DefaultPrefsPath()
		if err != nil {
			log.Printf("无法定位偏好文件: %v", err)
		}
		prefsPath = p
	}
	var prefs *config.Prefs
	if prefsPath != "" {
		p, err := config.LoadPrefs(prefsPath)
		if err != nil {
			log.Printf("读取偏好失败: %v", err)
		}
		prefs = p
	}

	server, err := cfg.ResolveServer(opts.server, prefs)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := client.NewStore(cfg, client.NewDialer(cfg.Transport.WriteTimeout),
		client.WithMetrics(m),
		client.WithPrefs(prefs),
	)
	engine := client.NewEngine(store, cfg, m)

	if opts.metricsAddr != "" {
		srv := &http.Server{
			Addr:              opts.metricsAddr,
			Handler:           metrics.Handler(m, engine.SessionInfo),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("调试 HTTP 退出: %v", err)
			}
		}()
		defer srv.Close()
		log.Printf("调试 HTTP: http://%s/debug/session", opts.metricsAddr)
	}

	if opts.headless {
		return runHeadless(engine, opts, server, skin)
	}

	app := ui.NewApp(engine, cfg, opts.name, server.ID, skin.ID)
	defer app.Close()

	ebiten.SetWindowSize(ui.ScreenWidth, ui.ScreenHeight)
	ebiten.SetWindowTitle("Arena [" + server.Name + "]")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(core.FPS)

	return ebiten.RunGame(app)
}

func runHeadless(engine *client.Engine, opts options, server config.Server, skin core.Skin) error {
	var bot *ai.Autopilot
	switch opts.bot {
	case "":
	case "normal":
		bot = ai.NewAutopilot()
	case "hard":
		bot = ai.NewAutopilotWithConfig(&ai.ConfigHard, time.Now().UnixNano())
	default:
		return fmt.Errorf("未知自动驾驶难度: %s", opts.bot)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("无窗口模式: %s (%s)", server.Name, server.URL)
	return ui.NewHeadless(engine, bot, server, opts.name, skin).Run(ctx, time.Second/core.FPS)
}
