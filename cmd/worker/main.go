package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Start consumers/schedulers (outbox relays, voting window closer,
// deadline sweeper, verdict consumer).
func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	if err := run(); err != nil {
		slog.Error("cau-eleitoral worker stopped with error",
			"event", "worker_stopped",
			"module", "cmd/worker",
			"layer", "platform",
			"error", err.Error(),
		)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("cau-eleitoral worker starting", "event", "worker_starting", "module", "cmd/worker", "layer", "platform")
	app, err := bootstrap.BuildWorker(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("worker shutdown close failed",
				"event", "worker_close_failed",
				"module", "cmd/worker",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}()
	return app.Run(ctx)
}
