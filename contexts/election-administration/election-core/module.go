package electioncore

import (
	"log/slog"
	"time"

	httpadapter "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/http"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/integrity"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/memory"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application/queries"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application/workers"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"

	"golang.org/x/sync/singleflight"
)

// Module is the election-core composition root exposed to runtime wiring.
type Module struct {
	Handler         httpadapter.Handler
	VerdictConsumer workers.VerdictConsumer
	WindowCloser    workers.VotingWindowCloser
	Store           *memory.Store
}

// Dependencies captures every port the election-core use cases need. Signer,
// Notifier and Metrics are optional.
type Dependencies struct {
	Elections  ports.ElectionRepository
	Slates     ports.SlateRepository
	Voters     ports.VoterRegistry
	Ballots    ports.BallotRepository
	Tallies    ports.TallyRepository
	Identity   ports.IdentitySource
	Hasher     ports.Hasher
	Signer     ports.Signer
	Audit      ports.AuditSink
	Notifier   ports.Notifier
	Metrics    ports.Metrics
	Outbox     ports.OutboxWriter
	Subscriber ports.EventSubscriber
	Dedup      ports.EventDedupStore
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Criteria   []entities.TieBreakCriterion
	DedupTTL   time.Duration
	// DisableVerdictConsumer keeps the consumer wired but idle.
	DisableVerdictConsumer bool
	Logger                 *slog.Logger
}

func NewModule(deps Dependencies) Module {
	tallying := commands.TallyUseCase{
		Elections: deps.Elections,
		Ballots:   deps.Ballots,
		Tallies:   deps.Tallies,
		Hasher:    deps.Hasher,
		Signer:    deps.Signer,
		Audit:     deps.Audit,
		Outbox:    deps.Outbox,
		Metrics:   deps.Metrics,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Criteria:  deps.Criteria,
		Logger:    deps.Logger,
	}
	phases := commands.PhaseUseCase{
		Elections: deps.Elections,
		Slates:    deps.Slates,
		Voters:    deps.Voters,
		Tallies:   deps.Tallies,
		Tallying:  tallying,
		Audit:     deps.Audit,
		Outbox:    deps.Outbox,
		Metrics:   deps.Metrics,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	roll := commands.RollUseCase{
		Elections: deps.Elections,
		Slates:    deps.Slates,
		Voters:    deps.Voters,
		Audit:     deps.Audit,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	casting := commands.CastUseCase{
		Elections: deps.Elections,
		Slates:    deps.Slates,
		Voters:    deps.Voters,
		Ballots:   deps.Ballots,
		Identity:  deps.Identity,
		Hasher:    deps.Hasher,
		Signer:    deps.Signer,
		Audit:     deps.Audit,
		Notifier:  deps.Notifier,
		Metrics:   deps.Metrics,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Phases:   phases,
			Roll:     roll,
			Casting:  casting,
			Tallying: tallying,
			Elections: queries.ElectionQueries{
				Elections: deps.Elections,
				Slates:    deps.Slates,
				Voters:    deps.Voters,
			},
			Tallies: queries.TallyQueries{
				Ballots: deps.Ballots,
				Tallies: deps.Tallies,
			},
			PartialRuns: &singleflight.Group{},
			Logger:      deps.Logger,
		},
		VerdictConsumer: workers.VerdictConsumer{
			Subscriber: deps.Subscriber,
			Dedup:      deps.Dedup,
			Roll:       roll,
			Tallying:   tallying,
			Clock:      deps.Clock,
			DedupTTL:   deps.DedupTTL,
			Disabled:   deps.DisableVerdictConsumer,
			Logger:     deps.Logger,
		},
		WindowCloser: workers.VotingWindowCloser{
			Elections: deps.Elections,
			Phases:    phases,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule builds a development/testing module with in-memory
// adapters. It fails only when voterHashSecret is empty.
func NewInMemoryModule(voterHashSecret string, subscriber ports.EventSubscriber, logger *slog.Logger) (Module, error) {
	hasher, err := integrity.NewHasher(voterHashSecret)
	if err != nil {
		return Module{}, err
	}
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Elections:  store,
		Slates:     store,
		Voters:     store,
		Ballots:    store,
		Tallies:    store,
		Identity:   store,
		Hasher:     hasher,
		Audit:      store,
		Outbox:     store,
		Subscriber: subscriber,
		Dedup:      store,
		Clock:      store,
		IDGen:      store,
		Criteria:   entities.DefaultTieBreakCriteria,
		DedupTTL:   7 * 24 * time.Hour,
		Logger:     logger,
	})
	module.Store = store
	return module, nil
}
