package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/app/bootstrap"
)

// API process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring (ports + adapters + use cases).
// 3) Serve HTTP until SIGINT/SIGTERM.
func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	if err := run(); err != nil {
		slog.Error("cau-eleitoral api stopped with error",
			"event", "api_stopped",
			"module", "cmd/api",
			"layer", "platform",
			"error", err.Error(),
		)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("cau-eleitoral api starting", "event", "api_starting", "module", "cmd/api", "layer", "platform")
	app, err := bootstrap.BuildAPI(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("api shutdown close failed",
				"event", "api_close_failed",
				"module", "cmd/api",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}()
	return app.Run(ctx)
}
