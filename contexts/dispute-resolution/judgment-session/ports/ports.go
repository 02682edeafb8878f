package ports

import (
	"context"
	"time"

	auditv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/audit/v1"
	eventsv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/events/v1"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
)

type EventEnvelope = eventsv1.Envelope

type AuditEntry = auditv1.Entry

type CommissionRepository interface {
	CreateCommission(ctx context.Context, commission entities.Commission) error
	GetCommission(ctx context.Context, commissionID string) (entities.Commission, error)
}

// CaseRepository updates are compare-and-set on the stored state.
type CaseRepository interface {
	CreateCase(ctx context.Context, c entities.Case) error
	GetCase(ctx context.Context, caseID string) (entities.Case, error)
	UpdateCase(ctx context.Context, c entities.Case, expectedState entities.CaseState) error
	ListCasesByState(ctx context.Context, state entities.CaseState) ([]entities.Case, error)
}

// SessionRepository updates are compare-and-set on the stored status.
type SessionRepository interface {
	CreateSession(ctx context.Context, session entities.Session) error
	GetSession(ctx context.Context, sessionID string) (entities.Session, error)
	UpdateSession(ctx context.Context, session entities.Session, expectedStatus entities.SessionStatus) error
}

// VoteRepository inserts are atomic and unique per (case, member) for
// regular votes and per case for the tie-break; duplicates return
// ErrAlreadyVoted.
type VoteRepository interface {
	InsertVote(ctx context.Context, vote entities.MemberVote) error
	ListVotes(ctx context.Context, caseID string, sessionID string) ([]entities.MemberVote, error)
	InsertTieBreak(ctx context.Context, vote entities.TieBreakVote) error
	GetTieBreak(ctx context.Context, caseID string, sessionID string) (entities.TieBreakVote, bool, error)
}

// VerdictRepository.FinalizeVerdict must, as one atomic unit: insert the
// verdict (unique per case), move the case from expectedState to its closed
// state and append the envelope to the outbox. A second verdict for the same
// case returns ErrAlreadyDecided.
type VerdictRepository interface {
	FinalizeVerdict(
		ctx context.Context,
		verdict entities.Verdict,
		decided entities.Case,
		expectedState entities.CaseState,
		envelope EventEnvelope,
	) error
	GetVerdict(ctx context.Context, verdictID string) (entities.Verdict, error)
	GetVerdictByCase(ctx context.Context, caseID string) (entities.Verdict, error)
}

type Stamper interface {
	Stamp(verdict entities.Verdict) (string, error)
}

type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry) error
}

type Metrics interface {
	ObserveVerdict(resolution string, kind string)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
