package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"stock_watch/internal/app"
	"stock_watch/internal/domain"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file (env vars take precedence)")
	flag.Parse()

	// 1. System Bootstrapping
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			slog.Error("❌ Invalid configuration", slog.String("field", cfgErr.Field), slog.Any("error", cfgErr.Err))
		} else {
			slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		}
		os.Exit(1)
	}

	// 2. Graceful Shutdown Context
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.InfoContext(ctx, "✨ Watcher running. Press Ctrl+C to exit.")

	if err := bootstrap.Run(ctx); err != nil {
		slog.Error("Watcher exited with error", slog.Any("error", err))
		stop()
		os.Exit(1)
	}
}
