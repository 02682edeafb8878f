package judgmentsession

import (
	"log/slog"

	httpadapter "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/http"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/integrity"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/memory"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application/queries"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application/workers"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/ports"
)

// Module is the judgment-session composition root exposed to runtime wiring.
type Module struct {
	Handler         httpadapter.Handler
	DeadlineSweeper workers.DeadlineSweeper
	Store           *memory.Store
}

// Dependencies captures every port the judgment use cases need. Audit and
// Metrics are optional.
type Dependencies struct {
	Commissions ports.CommissionRepository
	Cases       ports.CaseRepository
	Sessions    ports.SessionRepository
	Votes       ports.VoteRepository
	Verdicts    ports.VerdictRepository
	Stamper     ports.Stamper
	Audit       ports.AuditSink
	Metrics     ports.Metrics
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	if deps.Stamper == nil {
		deps.Stamper = integrity.Stamper{}
	}
	cases := commands.CaseUseCase{
		Commissions: deps.Commissions,
		Cases:       deps.Cases,
		Verdicts:    deps.Verdicts,
		Audit:       deps.Audit,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	sessions := commands.SessionUseCase{
		Commissions: deps.Commissions,
		Cases:       deps.Cases,
		Sessions:    deps.Sessions,
		Votes:       deps.Votes,
		Audit:       deps.Audit,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		Logger:      deps.Logger,
	}
	verdicts := commands.VerdictUseCase{
		Cases:    deps.Cases,
		Sessions: deps.Sessions,
		Votes:    deps.Votes,
		Verdicts: deps.Verdicts,
		Stamper:  deps.Stamper,
		Audit:    deps.Audit,
		Metrics:  deps.Metrics,
		Clock:    deps.Clock,
		IDGen:    deps.IDGen,
		Logger:   deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Cases:    cases,
			Sessions: sessions,
			Verdicts: verdicts,
			Queries: queries.JudgmentQueries{
				Commissions: deps.Commissions,
				Cases:       deps.Cases,
				Sessions:    deps.Sessions,
				Votes:       deps.Votes,
				Verdicts:    deps.Verdicts,
				Stamper:     deps.Stamper,
			},
			Logger: deps.Logger,
		},
		DeadlineSweeper: workers.DeadlineSweeper{
			Cases:    deps.Cases,
			Verdicts: verdicts,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Commissions: store,
		Cases:       store,
		Sessions:    store,
		Votes:       store,
		Verdicts:    store,
		Stamper:     integrity.Stamper{},
		Audit:       store,
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
