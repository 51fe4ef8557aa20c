package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arena/internal/server"

	"github.com/spf13/cobra"
)

func main() {
	opts := server.DefaultOptions()
	var (
		address string
		proto   string
		shrink  bool
	)

	rootCmd := &cobra.Command{
		Use:   "arena-server",
		Short: "Loopback development server for the arena client",
		Long: `Loopback development server.

Speaks the same protocol as the production servers, enough to play
locally and to exercise the client end to end.

Examples:
  arena-server --addr :8080
  arena-server --proto kcp --addr :9000 --food 500`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch proto {
			case "ws", "kcp", "tcp":
			default:
				return fmt.Errorf("不支持的协议: %s", proto)
			}
			if opts.Tick <= 0 {
				return fmt.Errorf("tick 必须为正数")
			}
			if !shrink {
				opts.ShrinkInterval = 0
			}
			return serve(address, proto, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&address, "addr", ":8080", "服务器监听地址")
	flags.StringVar(&proto, "proto", "ws", "监听协议: ws、kcp 或 tcp")
	flags.IntVar(&opts.Food, "food", opts.Food, "食物数量")
	flags.IntVar(&opts.Tokens, "tokens", opts.Tokens, "代币数量")
	flags.DurationVar(&opts.Tick, "tick", opts.Tick, "快照间隔")
	flags.BoolVar(&shrink, "shrink", true, "是否周期性缩圈")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(address, proto string, opts server.Options) error {
	gameServer := server.NewGameServer(address, proto, opts)

	errCh := make(chan error, 1)
	go func() {
		errCh <- gameServer.Start()
	}()

	log.Println("========================================")
	log.Println("  Arena 回环服务器")
	log.Println("========================================")
	log.Printf("监听地址: %s (%s)", address, proto)
	log.Printf("快照间隔: %v", opts.Tick)
	log.Printf("食物数量: %d", opts.Food)
	log.Println("========================================")
	log.Println("按 Ctrl+C 停止服务器")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
	case err := <-errCh:
		if err != nil {
			gameServer.Shutdown()
			return err
		}
	}

	log.Println("正在关闭服务器...")
	start := time.Now()
	gameServer.Shutdown()
	log.Printf("服务器已关闭 (%v)", time.Since(start).Round(time.Millisecond))
	return nil
}
