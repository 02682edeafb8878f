package queries

import (
	"context"
	"strings"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/ports"
)

type JudgmentQueries struct {
	Commissions ports.CommissionRepository
	Cases       ports.CaseRepository
	Sessions    ports.SessionRepository
	Votes       ports.VoteRepository
	Verdicts    ports.VerdictRepository
	Stamper     ports.Stamper
}

// VerdictVerification compares the stored stamp against one recomputed from
// the stored fields.
type VerdictVerification struct {
	VerdictID  string
	Stored     string
	Recomputed string
	Valid      bool
}

func (q JudgmentQueries) GetCommission(ctx context.Context, commissionID string) (entities.Commission, error) {
	commissionID = strings.TrimSpace(commissionID)
	if commissionID == "" {
		return entities.Commission{}, domainerrors.ErrInvalidInput
	}
	return q.Commissions.GetCommission(ctx, commissionID)
}

func (q JudgmentQueries) GetCase(ctx context.Context, caseID string) (entities.Case, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return entities.Case{}, domainerrors.ErrInvalidInput
	}
	return q.Cases.GetCase(ctx, caseID)
}

func (q JudgmentQueries) ListCases(ctx context.Context, state entities.CaseState) ([]entities.Case, error) {
	return q.Cases.ListCasesByState(ctx, state)
}

func (q JudgmentQueries) GetSession(ctx context.Context, sessionID string) (entities.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return entities.Session{}, domainerrors.ErrInvalidInput
	}
	return q.Sessions.GetSession(ctx, sessionID)
}

// ListVotes returns the regular votes of the case in the session it was last
// voted in.
func (q JudgmentQueries) ListVotes(ctx context.Context, caseID string) ([]entities.MemberVote, error) {
	c, err := q.GetCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.SessionID == "" {
		return []entities.MemberVote{}, nil
	}
	return q.Votes.ListVotes(ctx, c.CaseID, c.SessionID)
}

func (q JudgmentQueries) GetVerdict(ctx context.Context, verdictID string) (entities.Verdict, error) {
	verdictID = strings.TrimSpace(verdictID)
	if verdictID == "" {
		return entities.Verdict{}, domainerrors.ErrInvalidInput
	}
	return q.Verdicts.GetVerdict(ctx, verdictID)
}

func (q JudgmentQueries) GetVerdictByCase(ctx context.Context, caseID string) (entities.Verdict, error) {
	caseID = strings.TrimSpace(caseID)
	if caseID == "" {
		return entities.Verdict{}, domainerrors.ErrInvalidInput
	}
	return q.Verdicts.GetVerdictByCase(ctx, caseID)
}

func (q JudgmentQueries) VerifyVerdict(ctx context.Context, verdictID string) (VerdictVerification, error) {
	verdict, err := q.GetVerdict(ctx, verdictID)
	if err != nil {
		return VerdictVerification{}, err
	}
	result := VerdictVerification{VerdictID: verdict.VerdictID, Stored: verdict.Stamp}
	if q.Stamper == nil {
		return result, nil
	}
	stored := verdict.Stamp
	verdict.Stamp = ""
	recomputed, err := q.Stamper.Stamp(verdict)
	if err != nil {
		return VerdictVerification{}, err
	}
	result.Recomputed = recomputed
	result.Valid = stored != "" && stored == recomputed
	return result, nil
}
