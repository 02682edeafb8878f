package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	electionhttp "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/transport/http"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/auditlog"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/config"
)

func TestParseTieBreakCriteria(t *testing.T) {
	criteria, err := ParseTieBreakCriteria([]string{"Registration_Order", "draw", "draw"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(criteria) != 2 || criteria[0] != entities.TieBreakRegistrationOrder || criteria[1] != entities.TieBreakByDraw {
		t.Fatalf("unexpected criteria: %v", criteria)
	}
	defaults, err := ParseTieBreakCriteria(nil)
	if err != nil || len(defaults) != len(entities.DefaultTieBreakCriteria) {
		t.Fatalf("expected defaults, got %v err=%v", defaults, err)
	}
	if _, err := ParseTieBreakCriteria([]string{"seniority"}); !errors.Is(err, ErrUnknownTieBreakCriterion) {
		t.Fatalf("expected unknown criterion, got %v", err)
	}
}

func TestNormalizeAddr(t *testing.T) {
	for input, want := range map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"} {
		if got := normalizeAddr(input); got != want {
			t.Fatalf("normalizeAddr(%q) = %q, want %q", input, got, want)
		}
	}
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		ServiceName:           "cau-eleitoral-test",
		HTTPPort:              "0",
		DatabaseDriver:        config.DriverSQLite,
		SQLitePath:            "file:" + t.Name() + "?mode=memory&cache=shared",
		VoterHashKey:          "test-secret",
		PollInterval:          10 * time.Millisecond,
		EnableWindowCloser:    true,
		EnableDeadlineSweeper: true,
		EnableVerdictConsumer: true,
	}
}

func TestNewRuntimeRequiresVoterHashSecret(t *testing.T) {
	cfg := testConfig(t)
	cfg.VoterHashKey = ""
	if _, err := NewRuntime(context.Background(), cfg, "test"); err == nil {
		t.Fatal("expected missing voter hash secret rejected")
	}
}

func TestRuntimeWiresAuditAndWorkers(t *testing.T) {
	ctx := context.Background()
	runtime, err := NewRuntime(ctx, testConfig(t), "test")
	if err != nil {
		t.Fatalf("new runtime: %v", err)
	}

	if _, err := runtime.Election.Handler.CreateElectionHandler(ctx, "admin-1", electionhttp.CreateElectionRequest{
		Name:      "Conselho 2024",
		SeatCount: 1,
	}); err != nil {
		t.Fatalf("create election: %v", err)
	}
	entries, err := runtime.Audit.List(ctx, auditlog.Filter{EntityType: "election"})
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("expected election creation in the audit log")
	}

	workers := newWorkerApp(runtime)
	runCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	if err := workers.Run(runCtx); err != nil {
		t.Fatalf("worker run: %v", err)
	}
	if err := workers.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}
