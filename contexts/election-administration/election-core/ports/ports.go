package ports

import (
	"context"
	"time"

	auditv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/audit/v1"
	eventsv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/events/v1"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
)

type EventEnvelope = eventsv1.Envelope

type AuditEntry = auditv1.Entry

// ElectionRepository persists elections and their append-only transition
// history. UpdateElection must apply only when the stored Version equals
// expectedVersion, and must store the transition in the same atomic unit.
type ElectionRepository interface {
	CreateElection(ctx context.Context, election entities.Election, transition entities.PhaseTransition) error
	GetElection(ctx context.Context, electionID string) (entities.Election, error)
	ListElections(ctx context.Context, phase entities.Phase) ([]entities.Election, error)
	UpdateElection(
		ctx context.Context,
		election entities.Election,
		expectedVersion int64,
		transition entities.PhaseTransition,
	) error
	ListTransitions(ctx context.Context, electionID string) ([]entities.PhaseTransition, error)
}

type SlateRepository interface {
	SaveSlate(ctx context.Context, slate entities.Slate) error
	GetSlate(ctx context.Context, electionID string, slateID string) (entities.Slate, error)
	ListSlates(ctx context.Context, electionID string) ([]entities.Slate, error)
	NextRegistrationOrder(ctx context.Context, electionID string) (int, error)
}

// VoterRegistry is the eligibility registry. UpsertVoters never changes
// HasVoted or VotedAt on existing rows.
type VoterRegistry interface {
	UpsertVoters(ctx context.Context, voters []entities.EligibleVoter) (int, error)
	GetVoter(ctx context.Context, electionID string, identityID string) (entities.EligibleVoter, error)
	SetIneligible(ctx context.Context, electionID string, identityID string, reason string) error
	CountEligible(ctx context.Context, electionID string) (int, error)
}

// BallotRepository owns the single serialization point of casting.
//
// CommitCast must, as one atomic unit: confirm the election is still open for
// voting at ballot.CastAt, flip HasVoted false->true on the (election,
// identity) row only if it is eligible and not yet voted, and insert the
// ballot under a uniqueness guarantee on (election, voter hash). It returns
// ErrElectionNotOpenForVoting, ErrNotEligible, ErrAlreadyVoted or
// ErrDuplicateBallot and leaves no partial state behind on failure.
type BallotRepository interface {
	CommitCast(ctx context.Context, identityID string, ballot entities.Ballot) error
	GetBallotByHash(ctx context.Context, electionID string, ballotHash string) (entities.Ballot, error)
	SaveNullification(ctx context.Context, nullification entities.BallotNullification) error
	IsNullified(ctx context.Context, electionID string, ballotHash string) (bool, error)
	// Snapshot returns ballots, nullifications, slates and the eligible count as
	// of one point in time.
	Snapshot(ctx context.Context, electionID string) (entities.BallotSnapshot, error)
}

type TallyRepository interface {
	SaveTally(ctx context.Context, tally entities.TallyResult) error
	GetTally(ctx context.Context, tallyID string) (entities.TallyResult, error)
	ListTallies(ctx context.Context, electionID string) ([]entities.TallyResult, error)
	NextTallyVersion(ctx context.Context, electionID string) (int, error)
	// MarkHomologated sets the flag only if no tally of the election is
	// homologated yet; otherwise ErrAlreadyHomologated.
	MarkHomologated(ctx context.Context, tallyID string, expected entities.TallyInputGuard, actor string, at time.Time) (entities.TallyResult, error)
	HasHomologated(ctx context.Context, electionID string) (bool, error)
	// SaveDrawIfAbsent stores draw unless one exists and returns the stored one.
	SaveDrawIfAbsent(ctx context.Context, draw entities.TieBreakDraw) (entities.TieBreakDraw, error)
	GetDraw(ctx context.Context, electionID string) (entities.TieBreakDraw, bool, error)
}

type VoterIdentity struct {
	IdentityID string
}

// IdentitySource maps a caller credential onto a voter identity. It never
// authenticates.
type IdentitySource interface {
	ResolveVoter(ctx context.Context, electionID string, credential string) (VoterIdentity, error)
}

type Hasher interface {
	VoterHash(electionID string, identityID string) (string, error)
	BallotHash(content entities.BallotContent) (string, error)
	TallyInputHash(input entities.TallyInput) (string, error)
	TallyResultHash(outcome entities.TallyOutcome) (string, error)
	DrawKey(seed string, slateID string) string
	NewDrawSeed() (string, error)
}

// Signer is optional; a nil Signer leaves signatures empty.
type Signer interface {
	Sign(payload []byte) (string, error)
}

type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

// Notifier is fire-and-forget: callers log failures and carry on.
type Notifier interface {
	Notify(ctx context.Context, topic string, event EventEnvelope) error
}

type Metrics interface {
	ObserveCast(outcome string)
	ObserveTally(mode string, seconds float64)
	ObservePhaseTransition(phase string, automatic bool)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// EventDedupStore records processed event IDs. A reservation whose handling
// failed is released so a redelivery is processed again.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
	ReleaseEvent(ctx context.Context, eventID string) error
}
