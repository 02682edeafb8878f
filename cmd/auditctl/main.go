package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/app/bootstrap"
	"github.com/spf13/cobra"
)

const programName = "auditctl"

var (
	globalFlags = struct {
		debug bool
	}{}
	configFile string
)

// auditctl inspects a running deployment's store offline: it rebuilds tallies
// from stored ballots, checks receipts and dumps the audit trail.
func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Verify tallies and receipts, and read the audit trail",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.debug, "debug", "D", false, "enable debug logging")
	rootCmd.PersistentFlags().
		StringVar(&configFile, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		commonRun()
		if configFile != "" {
			if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
				return fmt.Errorf("failed to set config file: %w", err)
			}
		}
		return nil
	}

	rootCmd.AddCommand(verifyTallyCommand())
	rootCmd.AddCommand(verifyReceiptCommand())
	rootCmd.AddCommand(auditLogCommand())

	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

func commonRun() {
	level := slog.LevelWarn
	if globalFlags.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

// withRuntime builds the shared runtime for one command and releases it on
// return. Workers are never started here.
func withRuntime(ctx context.Context, fn func(*bootstrap.Runtime) error) error {
	runtime, err := bootstrap.BuildRuntime(ctx, programName)
	if err != nil {
		return fmt.Errorf("failed to build runtime: %w", err)
	}
	defer func() {
		if err := runtime.Close(); err != nil {
			slog.Warn("runtime close failed",
				"event", "auditctl_close_failed",
				"module", "cmd/auditctl",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	}()
	return fn(runtime)
}

func printJSON(w io.Writer, value any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
