package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/services"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/ports"
)

const DefaultVotingWindow = 30 * time.Minute

type ScheduleSessionCommand struct {
	CommissionID string
	ScheduledFor time.Time
	Agenda       []string
	VotingWindow time.Duration
	Actor        string
}

type OpenSessionCommand struct {
	SessionID string
	Present   []string
	Actor     string
}

type CaseStepCommand struct {
	SessionID string
	CaseID    string
	Actor     string
}

type RecordVoteCommand struct {
	SessionID string
	CaseID    string
	MemberID  string
	Choice    entities.VoteChoice
}

type SessionUseCase struct {
	Commissions ports.CommissionRepository
	Cases       ports.CaseRepository
	Sessions    ports.SessionRepository
	Votes       ports.VoteRepository
	Audit       ports.AuditSink
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	Logger      *slog.Logger
}

// ScheduleSession reserves a sitting for an agenda of scheduled cases.
func (uc SessionUseCase) ScheduleSession(ctx context.Context, cmd ScheduleSessionCommand) (entities.Session, error) {
	logger := application.ResolveLogger(uc.Logger)
	commissionID := strings.TrimSpace(cmd.CommissionID)
	if commissionID == "" || len(cmd.Agenda) == 0 || cmd.VotingWindow < 0 {
		return entities.Session{}, domainerrors.ErrInvalidInput
	}
	if _, err := uc.Commissions.GetCommission(ctx, commissionID); err != nil {
		return entities.Session{}, err
	}
	agenda := make([]string, 0, len(cmd.Agenda))
	seen := make(map[string]bool, len(cmd.Agenda))
	for _, raw := range cmd.Agenda {
		caseID := strings.TrimSpace(raw)
		if caseID == "" || seen[caseID] {
			return entities.Session{}, domainerrors.ErrInvalidInput
		}
		seen[caseID] = true
		c, err := uc.Cases.GetCase(ctx, caseID)
		if err != nil {
			return entities.Session{}, err
		}
		if c.State != entities.CaseScheduled {
			return entities.Session{}, domainerrors.ErrInvalidTransition
		}
		agenda = append(agenda, caseID)
	}

	sessionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Session{}, err
	}
	window := cmd.VotingWindow
	if window == 0 {
		window = DefaultVotingWindow
	}
	now := resolveNow(uc.Clock)
	session := entities.Session{
		SessionID:    sessionID,
		CommissionID: commissionID,
		ScheduledFor: cmd.ScheduledFor.UTC(),
		Status:       entities.SessionScheduled,
		Agenda:       agenda,
		VotingWindow: window,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.Sessions.CreateSession(ctx, session); err != nil {
		return entities.Session{}, err
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     "session.scheduled",
		EntityType: "session",
		EntityID:   sessionID,
		Actor:      strings.TrimSpace(cmd.Actor),
		Details:    map[string]string{"commission_id": commissionID, "agenda": strings.Join(agenda, ",")},
	})
	logger.Info("session scheduled",
		"event", "judgment_session_scheduled",
		"module", moduleName,
		"layer", "application",
		"session_id", sessionID,
		"agenda_size", len(agenda),
	)
	return session, nil
}

// OpenSession records attendance. Only active members count; the quorum is
// ceil(active/2) and the present President becomes the tie-breaker.
func (uc SessionUseCase) OpenSession(ctx context.Context, cmd OpenSessionCommand) (entities.Session, error) {
	logger := application.ResolveLogger(uc.Logger)
	session, err := uc.Sessions.GetSession(ctx, strings.TrimSpace(cmd.SessionID))
	if err != nil {
		return entities.Session{}, err
	}
	if session.Status != entities.SessionScheduled {
		return entities.Session{}, domainerrors.ErrSessionNotScheduled
	}
	commission, err := uc.Commissions.GetCommission(ctx, session.CommissionID)
	if err != nil {
		return entities.Session{}, err
	}

	present := make([]string, 0, len(cmd.Present))
	seen := make(map[string]bool, len(cmd.Present))
	tieBreaker := ""
	for _, raw := range cmd.Present {
		memberID := strings.TrimSpace(raw)
		if memberID == "" || seen[memberID] {
			continue
		}
		seen[memberID] = true
		member, ok := commission.Member(memberID)
		if !ok {
			return entities.Session{}, domainerrors.ErrMemberNotFound
		}
		if !member.Active {
			continue
		}
		present = append(present, memberID)
		if member.Role == entities.RolePresident {
			tieBreaker = memberID
		}
	}
	required := entities.Quorum(commission.ActiveCount())
	if len(present) == 0 || len(present) < required {
		logger.Warn("session quorum not reached",
			"event", "judgment_session_no_quorum",
			"module", moduleName,
			"layer", "application",
			"session_id", session.SessionID,
			"present", len(present),
			"required", required,
		)
		return entities.Session{}, domainerrors.ErrNoQuorum
	}

	now := resolveNow(uc.Clock)
	session.Present = present
	session.TieBreakerID = tieBreaker
	session.Status = entities.SessionOpen
	session.OpenedAt = &now
	session.UpdatedAt = now
	if err := uc.Sessions.UpdateSession(ctx, session, entities.SessionScheduled); err != nil {
		return entities.Session{}, err
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     "session.opened",
		EntityType: "session",
		EntityID:   session.SessionID,
		Actor:      strings.TrimSpace(cmd.Actor),
		Details:    map[string]string{"present": strings.Join(present, ","), "tie_breaker_id": tieBreaker},
	})
	logger.Info("session opened",
		"event", "judgment_session_opened",
		"module", moduleName,
		"layer", "application",
		"session_id", session.SessionID,
		"present", len(present),
		"required", required,
		"has_tie_breaker", tieBreaker != "",
	)
	return session, nil
}

func (uc SessionUseCase) StartDeliberation(ctx context.Context, cmd CaseStepCommand) (entities.Case, error) {
	session, c, err := uc.loadAgendaCase(ctx, cmd)
	if err != nil {
		return entities.Case{}, err
	}
	return uc.moveCase(ctx, session, c, entities.CaseUnderDeliberation, cmd.Actor, func(*entities.Case, time.Time) {})
}

// OpenVoting starts the case's voting window.
func (uc SessionUseCase) OpenVoting(ctx context.Context, cmd CaseStepCommand) (entities.Case, error) {
	session, c, err := uc.loadAgendaCase(ctx, cmd)
	if err != nil {
		return entities.Case{}, err
	}
	return uc.moveCase(ctx, session, c, entities.CaseVoting, cmd.Actor, func(c *entities.Case, now time.Time) {
		deadline := now.Add(session.VotingWindow)
		c.VotingOpenedAt = &now
		c.VotingDeadline = &deadline
	})
}

// RecordVote stores one present member's single vote on a case in voting.
func (uc SessionUseCase) RecordVote(ctx context.Context, cmd RecordVoteCommand) (entities.MemberVote, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !cmd.Choice.Valid() {
		return entities.MemberVote{}, domainerrors.ErrInvalidInput
	}
	session, c, err := uc.loadAgendaCase(ctx, CaseStepCommand{SessionID: cmd.SessionID, CaseID: cmd.CaseID})
	if err != nil {
		return entities.MemberVote{}, err
	}
	if c.State != entities.CaseVoting || c.SessionID != session.SessionID {
		return entities.MemberVote{}, domainerrors.ErrCaseNotVoting
	}
	memberID := strings.TrimSpace(cmd.MemberID)
	if !session.IsPresent(memberID) {
		return entities.MemberVote{}, domainerrors.ErrMemberNotPresent
	}
	now := resolveNow(uc.Clock)
	if c.DeadlineElapsed(now) {
		return entities.MemberVote{}, domainerrors.ErrVotingClosed
	}

	vote := entities.MemberVote{
		CaseID:    c.CaseID,
		SessionID: session.SessionID,
		MemberID:  memberID,
		Choice:    cmd.Choice,
		CastAt:    now,
	}
	if err := uc.Votes.InsertVote(ctx, vote); err != nil {
		if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
			logger.Error("vote insert failed",
				"event", "judgment_vote_insert_failed",
				"module", moduleName,
				"layer", "application",
				"case_id", c.CaseID,
				"error", err.Error(),
			)
		}
		return entities.MemberVote{}, err
	}
	logger.Info("vote recorded",
		"event", "judgment_vote_recorded",
		"module", moduleName,
		"layer", "application",
		"case_id", c.CaseID,
		"session_id", session.SessionID,
		"member_id", memberID,
	)
	return vote, nil
}

// CastTieBreak is only accepted from the designated tie-breaker and only when
// the regular tally is tied without a decisive vote of theirs. It remains
// allowed after the voting deadline.
func (uc SessionUseCase) CastTieBreak(ctx context.Context, cmd RecordVoteCommand) (entities.TieBreakVote, error) {
	logger := application.ResolveLogger(uc.Logger)
	if !cmd.Choice.Decisive() {
		return entities.TieBreakVote{}, domainerrors.ErrInvalidInput
	}
	session, c, err := uc.loadAgendaCase(ctx, CaseStepCommand{SessionID: cmd.SessionID, CaseID: cmd.CaseID})
	if err != nil {
		return entities.TieBreakVote{}, err
	}
	if c.State != entities.CaseVoting || c.SessionID != session.SessionID {
		return entities.TieBreakVote{}, domainerrors.ErrCaseNotVoting
	}
	memberID := strings.TrimSpace(cmd.MemberID)
	if session.TieBreakerID == "" || memberID != session.TieBreakerID {
		return entities.TieBreakVote{}, domainerrors.ErrNotTieBreaker
	}
	votes, err := uc.Votes.ListVotes(ctx, c.CaseID, session.SessionID)
	if err != nil {
		return entities.TieBreakVote{}, err
	}
	now := resolveNow(uc.Clock)
	_, err = services.Resolve(services.Ballot{
		Present:         session.Present,
		Votes:           votes,
		TieBreakerID:    session.TieBreakerID,
		DeadlineElapsed: c.DeadlineElapsed(now),
	})
	if !errors.Is(err, domainerrors.ErrTieBreakPending) {
		return entities.TieBreakVote{}, domainerrors.ErrTieBreakNotNeeded
	}

	vote := entities.TieBreakVote{
		CaseID:    c.CaseID,
		SessionID: session.SessionID,
		MemberID:  memberID,
		Choice:    cmd.Choice,
		CastAt:    now,
	}
	if err := uc.Votes.InsertTieBreak(ctx, vote); err != nil {
		return entities.TieBreakVote{}, err
	}
	logger.Info("tie-break vote recorded",
		"event", "judgment_tie_break_recorded",
		"module", moduleName,
		"layer", "application",
		"case_id", c.CaseID,
		"session_id", session.SessionID,
	)
	return vote, nil
}

// CloseSession refuses while any agenda case is still being deliberated or
// voted.
func (uc SessionUseCase) CloseSession(ctx context.Context, sessionID string, actor string) (entities.Session, error) {
	logger := application.ResolveLogger(uc.Logger)
	session, err := uc.Sessions.GetSession(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return entities.Session{}, err
	}
	if session.Status != entities.SessionOpen {
		return entities.Session{}, domainerrors.ErrSessionNotOpen
	}
	for _, caseID := range session.Agenda {
		c, err := uc.Cases.GetCase(ctx, caseID)
		if err != nil {
			return entities.Session{}, err
		}
		if c.SessionID == session.SessionID &&
			(c.State == entities.CaseUnderDeliberation || c.State == entities.CaseVoting) {
			return entities.Session{}, domainerrors.ErrSessionBusy
		}
	}
	now := resolveNow(uc.Clock)
	session.Status = entities.SessionClosed
	session.ClosedAt = &now
	session.UpdatedAt = now
	if err := uc.Sessions.UpdateSession(ctx, session, entities.SessionOpen); err != nil {
		return entities.Session{}, err
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     "session.closed",
		EntityType: "session",
		EntityID:   session.SessionID,
		Actor:      strings.TrimSpace(actor),
	})
	logger.Info("session closed",
		"event", "judgment_session_closed",
		"module", moduleName,
		"layer", "application",
		"session_id", session.SessionID,
	)
	return session, nil
}

func (uc SessionUseCase) loadAgendaCase(ctx context.Context, cmd CaseStepCommand) (entities.Session, entities.Case, error) {
	sessionID := strings.TrimSpace(cmd.SessionID)
	caseID := strings.TrimSpace(cmd.CaseID)
	if sessionID == "" || caseID == "" {
		return entities.Session{}, entities.Case{}, domainerrors.ErrInvalidInput
	}
	session, err := uc.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return entities.Session{}, entities.Case{}, err
	}
	if session.Status != entities.SessionOpen {
		return entities.Session{}, entities.Case{}, domainerrors.ErrSessionNotOpen
	}
	if !session.OnAgenda(caseID) {
		return entities.Session{}, entities.Case{}, domainerrors.ErrCaseNotOnAgenda
	}
	c, err := uc.Cases.GetCase(ctx, caseID)
	if err != nil {
		return entities.Session{}, entities.Case{}, err
	}
	return session, c, nil
}

func (uc SessionUseCase) moveCase(
	ctx context.Context,
	session entities.Session,
	c entities.Case,
	to entities.CaseState,
	actor string,
	mutate func(*entities.Case, time.Time),
) (entities.Case, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := services.CheckCaseTransition(c.State, to); err != nil {
		return entities.Case{}, err
	}
	from := c.State
	now := resolveNow(uc.Clock)
	c.State = to
	c.SessionID = session.SessionID
	c.UpdatedAt = now
	mutate(&c, now)
	if err := uc.Cases.UpdateCase(ctx, c, from); err != nil {
		return entities.Case{}, err
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     "case.state_changed",
		EntityType: "case",
		EntityID:   c.CaseID,
		Actor:      strings.TrimSpace(actor),
		Details:    map[string]string{"from": string(from), "to": string(to), "session_id": session.SessionID},
	})
	logger.Info("case state changed",
		"event", "judgment_case_state_changed",
		"module", moduleName,
		"layer", "application",
		"case_id", c.CaseID,
		"from", string(from),
		"to", string(to),
	)
	return c, nil
}
