package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	judgmentsession "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session"
	judgmentpostgres "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/postgres"
	electioncore "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core"
	electionintegrity "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/integrity"
	electionpostgres "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/postgres"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/auditlog"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/config"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/db"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/httpserver"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/integrity"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/messaging"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/platform/metrics"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/shared/outbox"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

var ErrUnknownTieBreakCriterion = errors.New("unknown tie-break criterion")

// Runtime holds the shared infrastructure and both context modules. The API,
// the worker and auditctl all build one.
type Runtime struct {
	Config       config.Config
	Database     *db.Database
	Audit        *auditlog.Log
	Bus          *messaging.Kafka
	Metrics      *metrics.Collectors
	Signer       *integrity.Signer
	Election     electioncore.Module
	Judgment     judgmentsession.Module
	ElectionRepo *electionpostgres.Repository
	JudgmentRepo *judgmentpostgres.Repository
	Logger       *slog.Logger
}

type APIApp struct {
	runtime *Runtime
	server  *httpserver.Server
	// workers is set for single-node sqlite runs, where a separate worker
	// process cannot see the API's database.
	workers *WorkerApp
	logger  *slog.Logger
}

type WorkerApp struct {
	runtime        *Runtime
	electionRelay  outbox.Relay
	judgmentRelay  outbox.Relay
	pollInterval   time.Duration
	windowCloser   bool
	deadlineSweep  bool
	verdictConsume bool
	logger         *slog.Logger
}

// BuildRuntime loads configuration and wires storage, messaging, audit and
// both modules for the named process.
func BuildRuntime(ctx context.Context, process string) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return NewRuntime(ctx, cfg, process)
}

func NewRuntime(ctx context.Context, cfg config.Config, process string) (*Runtime, error) {
	logger := slog.Default().With("service", cfg.ServiceName, "process", process)

	criteria, err := ParseTieBreakCriteria(cfg.TieBreak)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.VoterHashKey) == "" {
		return nil, errors.New("VOTER_HASH_SECRET is required")
	}
	hasher, err := electionintegrity.NewHasher(cfg.VoterHashKey)
	if err != nil {
		return nil, err
	}
	signer, err := integrity.NewSigner(cfg.SigningSeed)
	if err != nil {
		return nil, err
	}
	if cfg.SigningSeed == "" {
		logger.Warn("signing seed not configured, using an ephemeral key",
			"event", "bootstrap_ephemeral_signing_key",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}

	dsn := cfg.PostgresDSN
	if cfg.DatabaseDriver == config.DriverSQLite {
		dsn = cfg.SQLitePath
	}
	database, err := db.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, err
	}

	audit, err := auditlog.Open(cfg.AuditLogDir, logger)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = audit.Close()
		_ = database.Close()
		return nil, err
	}

	electionRepo := electionpostgres.NewRepository(database.DB, logger)
	judgmentRepo := judgmentpostgres.NewRepository(database.DB, logger)
	if err := electionRepo.AutoMigrate(ctx); err != nil {
		_ = audit.Close()
		_ = database.Close()
		return nil, fmt.Errorf("migrate election schema: %w", err)
	}
	if err := judgmentRepo.AutoMigrate(ctx); err != nil {
		_ = audit.Close()
		_ = database.Close()
		return nil, fmt.Errorf("migrate judgment schema: %w", err)
	}

	collectors := metrics.New(nil)

	election := electioncore.NewModule(electioncore.Dependencies{
		Elections:              electionRepo,
		Slates:                 electionRepo,
		Voters:                 electionRepo,
		Ballots:                electionRepo,
		Tallies:                electionRepo,
		Identity:               electionRepo,
		Hasher:                 hasher,
		Signer:                 signer,
		Audit:                  audit,
		Notifier:               bus,
		Metrics:                collectors,
		Outbox:                 electionRepo,
		Subscriber:             bus,
		Dedup:                  electionRepo,
		Clock:                  electionRepo,
		IDGen:                  electionRepo,
		Criteria:               criteria,
		DedupTTL:               7 * 24 * time.Hour,
		DisableVerdictConsumer: !cfg.EnableVerdictConsumer,
		Logger:                 logger,
	})
	judgment := judgmentsession.NewModule(judgmentsession.Dependencies{
		Commissions: judgmentRepo,
		Cases:       judgmentRepo,
		Sessions:    judgmentRepo,
		Votes:       judgmentRepo,
		Verdicts:    judgmentRepo,
		Audit:       audit,
		Metrics:     collectors,
		Clock:       judgmentRepo,
		IDGen:       judgmentRepo,
		Logger:      logger,
	})

	return &Runtime{
		Config:       cfg,
		Database:     database,
		Audit:        audit,
		Bus:          bus,
		Metrics:      collectors,
		Signer:       signer,
		Election:     election,
		Judgment:     judgment,
		ElectionRepo: electionRepo,
		JudgmentRepo: judgmentRepo,
		Logger:       logger,
	}, nil
}

func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.Audit != nil {
		errs = append(errs, r.Audit.Close())
	}
	if r.Database != nil {
		errs = append(errs, r.Database.Close())
	}
	return errors.Join(errs...)
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	runtime, err := BuildRuntime(ctx, "api")
	if err != nil {
		return nil, err
	}
	app := &APIApp{
		runtime: runtime,
		server: httpserver.New(
			runtime.Election,
			runtime.Judgment,
			runtime.Metrics.Handler(),
			runtime.Logger,
			normalizeAddr(runtime.Config.HTTPPort),
		),
		logger: runtime.Logger,
	}
	if runtime.Config.DatabaseDriver == config.DriverSQLite {
		app.workers = newWorkerApp(runtime)
	}
	return app, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	runtime, err := BuildRuntime(ctx, "worker")
	if err != nil {
		return nil, err
	}
	return newWorkerApp(runtime), nil
}

func newWorkerApp(runtime *Runtime) *WorkerApp {
	cfg := runtime.Config
	return &WorkerApp{
		runtime: runtime,
		electionRelay: outbox.Relay{
			Outbox:    runtime.ElectionRepo,
			Publisher: runtime.Bus,
			Now:       runtime.ElectionRepo.Now,
			BatchSize: 100,
			Module:    "election-administration/election-core",
			Logger:    runtime.Logger,
		},
		judgmentRelay: outbox.Relay{
			Outbox:    runtime.JudgmentRepo,
			Publisher: runtime.Bus,
			Now:       runtime.JudgmentRepo.Now,
			BatchSize: 100,
			Module:    "dispute-resolution/judgment-session",
			Logger:    runtime.Logger,
		},
		pollInterval:   cfg.PollInterval,
		windowCloser:   cfg.EnableWindowCloser,
		deadlineSweep:  cfg.EnableDeadlineSweeper,
		verdictConsume: cfg.EnableVerdictConsumer,
		logger:         runtime.Logger,
	}
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"embedded_workers", a.workers != nil,
	)
	if a.workers == nil {
		return a.server.Run(ctx)
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return a.server.Run(groupCtx) })
	group.Go(func() error { return a.workers.Run(groupCtx) })
	return group.Wait()
}

func (a *APIApp) Close() error {
	return a.runtime.Close()
}

// Run starts the verdict consumer and one polling loop per periodic job. A
// failed cycle is logged and retried on the next tick; only a failed
// subscription stops the worker.
func (w *WorkerApp) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	if w.verdictConsume {
		if err := w.runtime.Election.VerdictConsumer.Start(groupCtx); err != nil {
			return err
		}
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	group.Go(func() error {
		return w.poll(groupCtx, "election_outbox_relay", func(ctx context.Context) (int, error) {
			return w.electionRelay.RunOnce(ctx)
		})
	})
	group.Go(func() error {
		return w.poll(groupCtx, "judgment_outbox_relay", func(ctx context.Context) (int, error) {
			return w.judgmentRelay.RunOnce(ctx)
		})
	})
	if w.windowCloser {
		group.Go(func() error {
			return w.poll(groupCtx, "election_window_closer", w.runtime.Election.WindowCloser.RunOnce)
		})
	}
	if w.deadlineSweep {
		group.Go(func() error {
			return w.poll(groupCtx, "judgment_deadline_sweeper", w.runtime.Judgment.DeadlineSweeper.RunOnce)
		})
	}
	err := group.Wait()
	w.runtime.Bus.Wait()
	return err
}

func (w *WorkerApp) poll(ctx context.Context, job string, runOnce func(context.Context) (int, error)) error {
	interval := w.pollInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := runOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("worker cycle failed",
				"event", "bootstrap_worker_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"job", job,
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	return w.runtime.Close()
}

// ParseTieBreakCriteria maps configured names onto criteria, keeping order.
// An empty list yields the defaults.
func ParseTieBreakCriteria(values []string) ([]entities.TieBreakCriterion, error) {
	if len(values) == 0 {
		return append([]entities.TieBreakCriterion(nil), entities.DefaultTieBreakCriteria...), nil
	}
	out := make([]entities.TieBreakCriterion, 0, len(values))
	seen := make(map[entities.TieBreakCriterion]bool, len(values))
	for _, value := range values {
		criterion := entities.TieBreakCriterion(strings.ToLower(strings.TrimSpace(value)))
		switch criterion {
		case entities.TieBreakIncumbency, entities.TieBreakRegistrationOrder, entities.TieBreakByDraw:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownTieBreakCriterion, value)
		}
		if seen[criterion] {
			continue
		}
		seen[criterion] = true
		out = append(out, criterion)
	}
	return out, nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
