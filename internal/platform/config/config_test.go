package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.DatabaseDriver != DriverSQLite || cfg.HTTPPort != "8080" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.TieBreak) != 3 || cfg.TieBreak[2] != "draw" {
		t.Fatalf("unexpected default tie-break criteria: %v", cfg.TieBreak)
	}
	if !cfg.EnableWindowCloser || !cfg.EnableDeadlineSweeper || !cfg.EnableVerdictConsumer {
		t.Fatalf("workers must be enabled by default: %+v", cfg)
	}
}

func TestLoadFileEnvironmentOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("httpPort: \"9000\"\nserviceName: from-file\nworkerPollInterval: 2s\nenableDeadlineSweeper: false\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("TIE_BREAK_CRITERIA", "registration_order, draw")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPPort != "9100" {
		t.Fatalf("expected env to win, got %s", cfg.HTTPPort)
	}
	if cfg.ServiceName != "from-file" || cfg.PollInterval != 2*time.Second || cfg.EnableDeadlineSweeper {
		t.Fatalf("expected file values kept, got %+v", cfg)
	}
	if len(cfg.TieBreak) != 2 || cfg.TieBreak[0] != "registration_order" || cfg.TieBreak[1] != "draw" {
		t.Fatalf("unexpected criteria: %v", cfg.TieBreak)
	}
}

func TestLoadFileRejectsPostgresWithoutDSN(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	if _, err := LoadFile(""); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
}
