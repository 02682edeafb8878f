package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application/queries"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
	httptransport "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/transport/http"

	"github.com/go-playground/validator/v10"
)

var requestValidate = validator.New(validator.WithRequiredStructEnabled())

type Handler struct {
	Cases    commands.CaseUseCase
	Sessions commands.SessionUseCase
	Verdicts commands.VerdictUseCase
	Queries  queries.JudgmentQueries
	Logger   *slog.Logger
}

func validate(req any) error {
	if err := requestValidate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", domainerrors.ErrInvalidInput, err.Error())
	}
	return nil
}

func (h Handler) CreateCommissionHandler(
	ctx context.Context,
	actor string,
	req httptransport.CreateCommissionRequest,
) (httptransport.CommissionResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.CommissionResponse{}, err
	}
	members := make([]commands.CommissionMemberInput, 0, len(req.Members))
	for _, member := range req.Members {
		members = append(members, commands.CommissionMemberInput{
			MemberID: member.MemberID,
			Name:     member.Name,
			Role:     entities.MemberRole(member.Role),
			Active:   member.Active,
		})
	}
	commission, err := h.Cases.CreateCommission(ctx, commands.CreateCommissionCommand{
		Name:    req.Name,
		Members: members,
		Actor:   actor,
	})
	if err != nil {
		return httptransport.CommissionResponse{}, err
	}
	return mapCommission(commission), nil
}

func (h Handler) GetCommissionHandler(ctx context.Context, commissionID string) (httptransport.CommissionResponse, error) {
	commission, err := h.Queries.GetCommission(ctx, commissionID)
	if err != nil {
		return httptransport.CommissionResponse{}, err
	}
	return mapCommission(commission), nil
}

func (h Handler) RegisterCaseHandler(
	ctx context.Context,
	actor string,
	req httptransport.RegisterCaseRequest,
) (httptransport.CaseResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.CaseResponse{}, err
	}
	c, err := h.Cases.RegisterCase(ctx, commands.RegisterCaseCommand{
		Kind:       entities.CaseKind(req.Kind),
		Subject:    req.Subject,
		ElectionID: req.ElectionID,
		Remedy:     remedyFromPayload(req.Remedy),
		Actor:      actor,
	})
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(c), nil
}

func (h Handler) FileAppealHandler(
	ctx context.Context,
	originalCaseID string,
	actor string,
	req httptransport.FileAppealRequest,
) (httptransport.CaseResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.CaseResponse{}, err
	}
	c, err := h.Cases.FileAppeal(ctx, commands.FileAppealCommand{
		OriginalCaseID: originalCaseID,
		Subject:        req.Subject,
		Remedy:         remedyFromPayload(req.Remedy),
		Actor:          actor,
	})
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(c), nil
}

func (h Handler) GetCaseHandler(ctx context.Context, caseID string) (httptransport.CaseResponse, error) {
	c, err := h.Queries.GetCase(ctx, caseID)
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(c), nil
}

func (h Handler) ListCasesHandler(ctx context.Context, state string) (httptransport.CaseListResponse, error) {
	cases, err := h.Queries.ListCases(ctx, entities.CaseState(strings.TrimSpace(state)))
	if err != nil {
		return httptransport.CaseListResponse{}, err
	}
	items := make([]httptransport.CaseResponse, 0, len(cases))
	for _, c := range cases {
		items = append(items, mapCase(c))
	}
	return httptransport.CaseListResponse{Items: items}, nil
}

func (h Handler) ArchiveCaseHandler(
	ctx context.Context,
	caseID string,
	actor string,
	req httptransport.ConcludeRequest,
) (httptransport.VerdictResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.VerdictResponse{}, err
	}
	verdict, err := h.Verdicts.ArchiveCase(ctx, commands.ArchiveCaseCommand{
		CaseID:    caseID,
		Rationale: req.Rationale,
		Actor:     actor,
	})
	if err != nil {
		return httptransport.VerdictResponse{}, err
	}
	return mapVerdict(verdict), nil
}

func (h Handler) ScheduleSessionHandler(
	ctx context.Context,
	actor string,
	req httptransport.ScheduleSessionRequest,
) (httptransport.SessionResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.SessionResponse{}, err
	}
	session, err := h.Sessions.ScheduleSession(ctx, commands.ScheduleSessionCommand{
		CommissionID: req.CommissionID,
		ScheduledFor: req.ScheduledFor,
		Agenda:       req.Agenda,
		VotingWindow: time.Duration(req.VotingWindowSeconds) * time.Second,
		Actor:        actor,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(session), nil
}

func (h Handler) OpenSessionHandler(
	ctx context.Context,
	sessionID string,
	actor string,
	req httptransport.OpenSessionRequest,
) (httptransport.SessionResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.SessionResponse{}, err
	}
	session, err := h.Sessions.OpenSession(ctx, commands.OpenSessionCommand{
		SessionID: sessionID,
		Present:   req.Present,
		Actor:     actor,
	})
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(session), nil
}

func (h Handler) GetSessionHandler(ctx context.Context, sessionID string) (httptransport.SessionResponse, error) {
	session, err := h.Queries.GetSession(ctx, sessionID)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(session), nil
}

func (h Handler) CloseSessionHandler(ctx context.Context, sessionID string, actor string) (httptransport.SessionResponse, error) {
	session, err := h.Sessions.CloseSession(ctx, sessionID, actor)
	if err != nil {
		return httptransport.SessionResponse{}, err
	}
	return mapSession(session), nil
}

// CaseStepHandler runs "deliberate" or "open-voting" on an agenda case.
func (h Handler) CaseStepHandler(
	ctx context.Context,
	sessionID string,
	caseID string,
	step string,
	actor string,
) (httptransport.CaseResponse, error) {
	cmd := commands.CaseStepCommand{SessionID: sessionID, CaseID: caseID, Actor: actor}
	var (
		c   entities.Case
		err error
	)
	switch step {
	case "deliberate":
		c, err = h.Sessions.StartDeliberation(ctx, cmd)
	case "open-voting":
		c, err = h.Sessions.OpenVoting(ctx, cmd)
	default:
		return httptransport.CaseResponse{}, domainerrors.ErrInvalidInput
	}
	if err != nil {
		return httptransport.CaseResponse{}, err
	}
	return mapCase(c), nil
}

func (h Handler) RecordVoteHandler(
	ctx context.Context,
	sessionID string,
	caseID string,
	req httptransport.RecordVoteRequest,
) (httptransport.VoteResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.VoteResponse{}, err
	}
	vote, err := h.Sessions.RecordVote(ctx, commands.RecordVoteCommand{
		SessionID: sessionID,
		CaseID:    caseID,
		MemberID:  req.MemberID,
		Choice:    entities.VoteChoice(req.Choice),
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return mapVote(vote), nil
}

func (h Handler) TieBreakHandler(
	ctx context.Context,
	sessionID string,
	caseID string,
	req httptransport.TieBreakRequest,
) (httptransport.VoteResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.VoteResponse{}, err
	}
	vote, err := h.Sessions.CastTieBreak(ctx, commands.RecordVoteCommand{
		SessionID: sessionID,
		CaseID:    caseID,
		MemberID:  req.MemberID,
		Choice:    entities.VoteChoice(req.Choice),
	})
	if err != nil {
		return httptransport.VoteResponse{}, err
	}
	return httptransport.VoteResponse{
		CaseID:    vote.CaseID,
		SessionID: vote.SessionID,
		MemberID:  vote.MemberID,
		Choice:    string(vote.Choice),
		TieBreak:  true,
		CastAt:    vote.CastAt,
	}, nil
}

func (h Handler) ListVotesHandler(ctx context.Context, caseID string) (httptransport.VoteListResponse, error) {
	votes, err := h.Queries.ListVotes(ctx, caseID)
	if err != nil {
		return httptransport.VoteListResponse{}, err
	}
	items := make([]httptransport.VoteResponse, 0, len(votes))
	for _, vote := range votes {
		items = append(items, mapVote(vote))
	}
	return httptransport.VoteListResponse{Items: items}, nil
}

func (h Handler) ConcludeHandler(
	ctx context.Context,
	sessionID string,
	caseID string,
	actor string,
	req httptransport.ConcludeRequest,
) (httptransport.VerdictResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.VerdictResponse{}, err
	}
	verdict, err := h.Verdicts.Conclude(ctx, commands.ConcludeCommand{
		SessionID: sessionID,
		CaseID:    caseID,
		Rationale: req.Rationale,
		Actor:     actor,
	})
	if err != nil {
		return httptransport.VerdictResponse{}, err
	}
	return mapVerdict(verdict), nil
}

func (h Handler) GetVerdictHandler(ctx context.Context, verdictID string) (httptransport.VerdictResponse, error) {
	verdict, err := h.Queries.GetVerdict(ctx, verdictID)
	if err != nil {
		return httptransport.VerdictResponse{}, err
	}
	return mapVerdict(verdict), nil
}

func (h Handler) CaseVerdictHandler(ctx context.Context, caseID string) (httptransport.VerdictResponse, error) {
	verdict, err := h.Queries.GetVerdictByCase(ctx, caseID)
	if err != nil {
		return httptransport.VerdictResponse{}, err
	}
	return mapVerdict(verdict), nil
}

func (h Handler) VerifyVerdictHandler(ctx context.Context, verdictID string) (httptransport.VerdictVerificationResponse, error) {
	result, err := h.Queries.VerifyVerdict(ctx, verdictID)
	if err != nil {
		return httptransport.VerdictVerificationResponse{}, err
	}
	return httptransport.VerdictVerificationResponse{
		VerdictID:  result.VerdictID,
		Stored:     result.Stored,
		Recomputed: result.Recomputed,
		Valid:      result.Valid,
	}, nil
}

func remedyFromPayload(payload httptransport.RemedyPayload) entities.Remedy {
	return entities.Remedy{
		Action:     entities.RemedyAction(payload.Action),
		SlateID:    strings.TrimSpace(payload.SlateID),
		BallotHash: strings.TrimSpace(payload.BallotHash),
	}
}

func mapRemedy(remedy entities.Remedy) httptransport.RemedyPayload {
	return httptransport.RemedyPayload{
		Action:     string(remedy.Action),
		SlateID:    remedy.SlateID,
		BallotHash: remedy.BallotHash,
	}
}

func mapCommission(commission entities.Commission) httptransport.CommissionResponse {
	members := make([]httptransport.CommissionMemberResponse, 0, len(commission.Members))
	for _, member := range commission.Members {
		members = append(members, httptransport.CommissionMemberResponse{
			MemberID: member.MemberID,
			Name:     member.Name,
			Role:     string(member.Role),
			Active:   member.Active,
		})
	}
	active := commission.ActiveCount()
	return httptransport.CommissionResponse{
		CommissionID: commission.CommissionID,
		Name:         commission.Name,
		ActiveCount:  active,
		Quorum:       entities.Quorum(active),
		Members:      members,
	}
}

func mapCase(c entities.Case) httptransport.CaseResponse {
	return httptransport.CaseResponse{
		CaseID:         c.CaseID,
		Kind:           string(c.Kind),
		Subject:        c.Subject,
		ElectionID:     c.ElectionID,
		AppealOf:       c.AppealOf,
		Remedy:         mapRemedy(c.Remedy),
		State:          string(c.State),
		SessionID:      c.SessionID,
		VotingOpenedAt: c.VotingOpenedAt,
		VotingDeadline: c.VotingDeadline,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func mapSession(session entities.Session) httptransport.SessionResponse {
	return httptransport.SessionResponse{
		SessionID:           session.SessionID,
		CommissionID:        session.CommissionID,
		ScheduledFor:        session.ScheduledFor,
		Status:              string(session.Status),
		Agenda:              session.Agenda,
		Present:             session.Present,
		TieBreakerID:        session.TieBreakerID,
		VotingWindowSeconds: int(session.VotingWindow / time.Second),
		OpenedAt:            session.OpenedAt,
		ClosedAt:            session.ClosedAt,
	}
}

func mapVote(vote entities.MemberVote) httptransport.VoteResponse {
	return httptransport.VoteResponse{
		CaseID:    vote.CaseID,
		SessionID: vote.SessionID,
		MemberID:  vote.MemberID,
		Choice:    string(vote.Choice),
		CastAt:    vote.CastAt,
	}
}

func mapVerdict(verdict entities.Verdict) httptransport.VerdictResponse {
	votes := make([]httptransport.VoteResponse, 0, len(verdict.Votes))
	for _, vote := range verdict.Votes {
		votes = append(votes, mapVote(vote))
	}
	return httptransport.VerdictResponse{
		VerdictID:           verdict.VerdictID,
		CaseID:              verdict.CaseID,
		SessionID:           verdict.SessionID,
		ElectionID:          verdict.ElectionID,
		AppealOf:            verdict.AppealOf,
		Votes:               votes,
		Grants:              verdict.Grants,
		Denials:             verdict.Denials,
		Abstentions:         verdict.Abstentions,
		DeadlineAbstentions: verdict.DeadlineAbstentions,
		Resolution:          string(verdict.Resolution),
		DecisionKind:        string(verdict.DecisionKind),
		TieBreakerID:        verdict.TieBreakerID,
		TieBreakChoice:      string(verdict.TieBreakChoice),
		Rationale:           verdict.Rationale,
		Remedy:              mapRemedy(verdict.Remedy),
		DecidedBy:           verdict.DecidedBy,
		DecidedAt:           verdict.DecidedAt,
		Stamp:               verdict.Stamp,
	}
}
