package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/livefir/livepatch/cmd/livepatch/internal/config"
	"github.com/livefir/livepatch/cmd/livepatch/internal/server"
	"github.com/livefir/livepatch/cmd/livepatch/internal/store"
	"github.com/livefir/livepatch/cmd/livepatch/internal/ticker"
)

// Serve runs the demo server.
func Serve(args []string) error {
	var configPath string
	for i := 0; i < len(args); i++ {
		if args[i] == "--config" && i+1 < len(args) {
			configPath = args[i+1]
			i++ // skip next arg
		} else {
			return fmt.Errorf("unknown argument: %s", args[i])
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	logger := log.New(os.Stderr, "[livepatch] ", log.LstdFlags)
	if n, err := st.Seed(ctx, gofakeit.New(0), cfg.SeedTodos); err != nil {
		return err
	} else if n > 0 {
		logger.Printf("STORE: seeded %d todos", n)
	}

	fmt.Printf("🚀 Server running at http://%s\n", cfg.Addr)
	fmt.Printf("📈 Stocks endpoint: http://%s/api/stocks\n", cfg.Addr)
	fmt.Printf("🔌 WebSocket: ws://%s/ws\n", cfg.Addr)
	fmt.Println("Press Ctrl+C to stop")

	return server.New(cfg, st, ticker.New(0), logger).ListenAndServe(ctx)
}
