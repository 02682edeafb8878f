package commands

import (
	"context"
	"log/slog"
	"strings"

	application "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/services"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/ports"
)

type ConcludeCommand struct {
	SessionID string
	CaseID    string
	Rationale string
	Actor     string
}

type ArchiveCaseCommand struct {
	CaseID    string
	Rationale string
	Actor     string
}

type VerdictUseCase struct {
	Cases    ports.CaseRepository
	Sessions ports.SessionRepository
	Votes    ports.VoteRepository
	Verdicts ports.VerdictRepository
	Stamper  ports.Stamper
	Audit    ports.AuditSink
	Metrics  ports.Metrics
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

// Conclude resolves a case in voting and stores its verdict together with the
// case transition and the outbox event.
func (uc VerdictUseCase) Conclude(ctx context.Context, cmd ConcludeCommand) (entities.Verdict, error) {
	logger := application.ResolveLogger(uc.Logger)
	sessionID := strings.TrimSpace(cmd.SessionID)
	caseID := strings.TrimSpace(cmd.CaseID)
	if sessionID == "" || caseID == "" {
		return entities.Verdict{}, domainerrors.ErrInvalidInput
	}
	session, err := uc.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return entities.Verdict{}, err
	}
	c, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Verdict{}, err
	}
	if c.State.Closed() {
		return entities.Verdict{}, domainerrors.ErrAlreadyDecided
	}
	if c.State != entities.CaseVoting || c.SessionID != session.SessionID {
		return entities.Verdict{}, domainerrors.ErrCaseNotVoting
	}

	votes, err := uc.Votes.ListVotes(ctx, c.CaseID, session.SessionID)
	if err != nil {
		return entities.Verdict{}, err
	}
	ballot := services.Ballot{
		Present:      session.Present,
		Votes:        votes,
		TieBreakerID: session.TieBreakerID,
	}
	tieBreak, ok, err := uc.Votes.GetTieBreak(ctx, c.CaseID, session.SessionID)
	if err != nil {
		return entities.Verdict{}, err
	}
	if ok {
		ballot.TieBreak = &tieBreak
	}
	now := resolveNow(uc.Clock)
	ballot.DeadlineElapsed = c.DeadlineElapsed(now)

	outcome, err := services.Resolve(ballot)
	if err != nil {
		logger.Info("case not concluded",
			"event", "judgment_conclusion_deferred",
			"module", moduleName,
			"layer", "application",
			"case_id", c.CaseID,
			"reason", err.Error(),
		)
		return entities.Verdict{}, err
	}

	tieBreakerID := ""
	if outcome.DecisionKind == entities.DecisionTieBreak {
		tieBreakerID = session.TieBreakerID
	}
	verdict := entities.Verdict{
		CaseID:              c.CaseID,
		SessionID:           session.SessionID,
		ElectionID:          c.ElectionID,
		AppealOf:            c.AppealOf,
		Votes:               votes,
		Grants:              outcome.Grants,
		Denials:             outcome.Denials,
		Abstentions:         outcome.Abstentions,
		DeadlineAbstentions: outcome.DeadlineAbstentions,
		Resolution:          outcome.Resolution,
		DecisionKind:        outcome.DecisionKind,
		TieBreakerID:        tieBreakerID,
		TieBreakChoice:      outcome.TieBreakChoice,
		Rationale:           strings.TrimSpace(cmd.Rationale),
		Remedy:              c.Remedy,
		DecidedBy:           strings.TrimSpace(cmd.Actor),
		DecidedAt:           now,
	}
	decided := c
	decided.State = entities.CaseDecided
	decided.UpdatedAt = now
	return uc.finalize(ctx, verdict, decided, entities.CaseVoting)
}

// ArchiveCase closes a case before any decision. Its verdict carries the
// archived resolution and no remedy.
func (uc VerdictUseCase) ArchiveCase(ctx context.Context, cmd ArchiveCaseCommand) (entities.Verdict, error) {
	caseID := strings.TrimSpace(cmd.CaseID)
	if caseID == "" {
		return entities.Verdict{}, domainerrors.ErrInvalidInput
	}
	c, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Verdict{}, err
	}
	if c.State.Closed() {
		return entities.Verdict{}, domainerrors.ErrAlreadyDecided
	}
	if err := services.CheckCaseTransition(c.State, entities.CaseArchived); err != nil {
		return entities.Verdict{}, err
	}
	now := resolveNow(uc.Clock)
	verdict := entities.Verdict{
		CaseID:     c.CaseID,
		SessionID:  c.SessionID,
		ElectionID: c.ElectionID,
		AppealOf:   c.AppealOf,
		Resolution: entities.ResolutionArchived,
		Rationale:  strings.TrimSpace(cmd.Rationale),
		Remedy:     entities.Remedy{Action: entities.RemedyNone},
		DecidedBy:  strings.TrimSpace(cmd.Actor),
		DecidedAt:  now,
	}
	archived := c
	archived.State = entities.CaseArchived
	archived.UpdatedAt = now
	return uc.finalize(ctx, verdict, archived, c.State)
}

func (uc VerdictUseCase) finalize(
	ctx context.Context,
	verdict entities.Verdict,
	closed entities.Case,
	expectedState entities.CaseState,
) (entities.Verdict, error) {
	logger := application.ResolveLogger(uc.Logger)
	verdictID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Verdict{}, err
	}
	verdict.VerdictID = verdictID
	if uc.Stamper != nil {
		stamp, err := uc.Stamper.Stamp(verdict)
		if err != nil {
			return entities.Verdict{}, err
		}
		verdict.Stamp = stamp
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Verdict{}, err
	}
	envelope, err := verdictEnvelope(eventID, verdict)
	if err != nil {
		return entities.Verdict{}, err
	}
	if err := uc.Verdicts.FinalizeVerdict(ctx, verdict, closed, expectedState, envelope); err != nil {
		logger.Error("verdict finalize failed",
			"event", "judgment_verdict_finalize_failed",
			"module", moduleName,
			"layer", "application",
			"case_id", verdict.CaseID,
			"error", err.Error(),
		)
		return entities.Verdict{}, err
	}
	if uc.Metrics != nil {
		uc.Metrics.ObserveVerdict(string(verdict.Resolution), string(verdict.DecisionKind))
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, verdict.DecidedAt, auditRecord{
		Action:     "verdict.finalized",
		EntityType: "case",
		EntityID:   verdict.CaseID,
		Actor:      verdict.DecidedBy,
		Details: map[string]string{
			"verdict_id":    verdict.VerdictID,
			"resolution":    string(verdict.Resolution),
			"decision_kind": string(verdict.DecisionKind),
			"remedy":        string(verdict.Remedy.Action),
			"stamp":         verdict.Stamp,
		},
	})
	logger.Info("verdict finalized",
		"event", "judgment_verdict_finalized",
		"module", moduleName,
		"layer", "application",
		"verdict_id", verdict.VerdictID,
		"case_id", verdict.CaseID,
		"resolution", string(verdict.Resolution),
		"decision_kind", string(verdict.DecisionKind),
	)
	return verdict, nil
}
