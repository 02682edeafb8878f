package httpadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application/queries"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	httptransport "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/transport/http"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"
)

var requestValidate = validator.New(validator.WithRequiredStructEnabled())

type Handler struct {
	Phases    commands.PhaseUseCase
	Roll      commands.RollUseCase
	Casting   commands.CastUseCase
	Tallying  commands.TallyUseCase
	Elections queries.ElectionQueries
	Tallies   queries.TallyQueries
	// PartialRuns coalesces concurrent partial tally requests per election.
	PartialRuns *singleflight.Group
	Logger      *slog.Logger
}

func validate(req any) error {
	if err := requestValidate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", domainerrors.ErrInvalidInput, err.Error())
	}
	return nil
}

func (h Handler) CreateElectionHandler(
	ctx context.Context,
	actor string,
	req httptransport.CreateElectionRequest,
) (httptransport.ElectionResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.ElectionResponse{}, err
	}
	election, err := h.Phases.CreateElection(ctx, commands.CreateElectionCommand{
		Name:           req.Name,
		VotingMode:     entities.VotingMode(req.VotingMode),
		SeatCount:      req.SeatCount,
		VotingStartsAt: req.VotingStartsAt,
		VotingEndsAt:   req.VotingEndsAt,
		Actor:          actor,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) GetElectionHandler(ctx context.Context, electionID string) (httptransport.ElectionResponse, error) {
	election, err := h.Elections.GetElection(ctx, electionID)
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) ListElectionsHandler(ctx context.Context, phase string) (httptransport.ElectionListResponse, error) {
	elections, err := h.Elections.ListElections(ctx, entities.Phase(strings.TrimSpace(phase)))
	if err != nil {
		return httptransport.ElectionListResponse{}, err
	}
	items := make([]httptransport.ElectionResponse, 0, len(elections))
	for _, election := range elections {
		items = append(items, mapElection(election))
	}
	return httptransport.ElectionListResponse{Items: items}, nil
}

func (h Handler) AdvanceElectionHandler(
	ctx context.Context,
	electionID string,
	actor string,
	req httptransport.AdvanceElectionRequest,
) (httptransport.ElectionResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.ElectionResponse{}, err
	}
	election, err := h.Phases.Advance(ctx, commands.AdvanceCommand{
		ElectionID:   electionID,
		Target:       entities.Phase(req.TargetPhase),
		Actor:        actor,
		EarlyClosure: req.EarlyClosure,
		Reason:       req.Reason,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) SuspendElectionHandler(
	ctx context.Context,
	electionID string,
	actor string,
	req httptransport.PhaseChangeRequest,
) (httptransport.ElectionResponse, error) {
	return h.changeElection(ctx, h.Phases.Suspend, electionID, actor, req)
}

func (h Handler) ResumeElectionHandler(
	ctx context.Context,
	electionID string,
	actor string,
	req httptransport.PhaseChangeRequest,
) (httptransport.ElectionResponse, error) {
	return h.changeElection(ctx, h.Phases.Resume, electionID, actor, req)
}

func (h Handler) CancelElectionHandler(
	ctx context.Context,
	electionID string,
	actor string,
	req httptransport.PhaseChangeRequest,
) (httptransport.ElectionResponse, error) {
	return h.changeElection(ctx, h.Phases.Cancel, electionID, actor, req)
}

func (h Handler) RetireElectionHandler(
	ctx context.Context,
	electionID string,
	actor string,
	req httptransport.PhaseChangeRequest,
) (httptransport.ElectionResponse, error) {
	return h.changeElection(ctx, h.Phases.Retire, electionID, actor, req)
}

func (h Handler) changeElection(
	ctx context.Context,
	change func(context.Context, commands.PhaseChangeCommand) (entities.Election, error),
	electionID string,
	actor string,
	req httptransport.PhaseChangeRequest,
) (httptransport.ElectionResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.ElectionResponse{}, err
	}
	election, err := change(ctx, commands.PhaseChangeCommand{
		ElectionID: electionID,
		Actor:      actor,
		Reason:     req.Reason,
	})
	if err != nil {
		return httptransport.ElectionResponse{}, err
	}
	return mapElection(election), nil
}

func (h Handler) ElectionHistoryHandler(ctx context.Context, electionID string) (httptransport.ElectionHistoryResponse, error) {
	history, err := h.Elections.History(ctx, electionID)
	if err != nil {
		return httptransport.ElectionHistoryResponse{}, err
	}
	items := make([]httptransport.TransitionResponse, 0, len(history))
	for _, transition := range history {
		items = append(items, httptransport.TransitionResponse{
			Sequence:   transition.Sequence,
			FromPhase:  string(transition.FromPhase),
			ToPhase:    string(transition.ToPhase),
			FromStatus: string(transition.FromStatus),
			ToStatus:   string(transition.ToStatus),
			Actor:      transition.Actor,
			Reason:     transition.Reason,
			Automatic:  transition.Automatic,
			OccurredAt: transition.OccurredAt,
		})
	}
	return httptransport.ElectionHistoryResponse{ElectionID: electionID, Transitions: items}, nil
}

func (h Handler) ImportVoterRollHandler(
	ctx context.Context,
	electionID string,
	actor string,
	req httptransport.ImportVoterRollRequest,
) (httptransport.ImportVoterRollResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.ImportVoterRollResponse{}, err
	}
	entries := make([]commands.VoterRollEntry, 0, len(req.Entries))
	for _, entry := range req.Entries {
		entries = append(entries, commands.VoterRollEntry{
			IdentityID:          entry.IdentityID,
			Ineligible:          entry.Ineligible,
			IneligibilityReason: entry.IneligibilityReason,
			SectionRef:          entry.SectionRef,
		})
	}
	imported, err := h.Roll.ImportVoterRoll(ctx, commands.ImportVoterRollCommand{
		ElectionID: electionID,
		Entries:    entries,
		Actor:      actor,
	})
	if err != nil {
		return httptransport.ImportVoterRollResponse{}, err
	}
	return httptransport.ImportVoterRollResponse{ElectionID: electionID, Imported: imported}, nil
}

func (h Handler) MarkIneligibleHandler(
	ctx context.Context,
	electionID string,
	identityID string,
	actor string,
	req httptransport.MarkIneligibleRequest,
) error {
	if err := validate(req); err != nil {
		return err
	}
	return h.Roll.MarkIneligible(ctx, commands.MarkIneligibleCommand{
		ElectionID: electionID,
		IdentityID: identityID,
		Reason:     req.Reason,
		Actor:      actor,
	})
}

func (h Handler) LookupVoterHandler(ctx context.Context, electionID string, identityID string) (httptransport.VoterResponse, error) {
	voter, err := h.Elections.LookupVoter(ctx, electionID, identityID)
	if err != nil {
		return httptransport.VoterResponse{}, err
	}
	return httptransport.VoterResponse{
		ElectionID:          voter.ElectionID,
		IdentityID:          voter.IdentityID,
		Eligible:            voter.Eligible,
		IneligibilityReason: voter.IneligibilityReason,
		HasVoted:            voter.HasVoted,
		VotedAt:             voter.VotedAt,
		SectionRef:          voter.SectionRef,
	}, nil
}

func (h Handler) EligibleCountHandler(ctx context.Context, electionID string) (httptransport.EligibleCountResponse, error) {
	count, err := h.Elections.CountEligible(ctx, electionID)
	if err != nil {
		return httptransport.EligibleCountResponse{}, err
	}
	return httptransport.EligibleCountResponse{ElectionID: electionID, EligibleCount: count}, nil
}

func (h Handler) RegisterSlateHandler(
	ctx context.Context,
	electionID string,
	actor string,
	req httptransport.RegisterSlateRequest,
) (httptransport.SlateResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.SlateResponse{}, err
	}
	slate, err := h.Roll.RegisterSlate(ctx, commands.RegisterSlateCommand{
		ElectionID: electionID,
		Name:       req.Name,
		Number:     req.Number,
		Incumbent:  req.Incumbent,
		Actor:      actor,
	})
	if err != nil {
		return httptransport.SlateResponse{}, err
	}
	return mapSlate(slate), nil
}

// SlateActionHandler applies approve, disqualify or reinstate.
func (h Handler) SlateActionHandler(
	ctx context.Context,
	electionID string,
	slateID string,
	action string,
	actor string,
	req httptransport.SlateStatusRequest,
) (httptransport.SlateResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.SlateResponse{}, err
	}
	cmd := commands.SlateStatusCommand{
		ElectionID: electionID,
		SlateID:    slateID,
		Actor:      actor,
		Reason:     req.Reason,
		VerdictID:  req.VerdictID,
	}
	var (
		slate entities.Slate
		err   error
	)
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "approve":
		slate, err = h.Roll.ApproveSlate(ctx, cmd)
	case "disqualify":
		slate, err = h.Roll.DisqualifySlate(ctx, cmd)
	case "reinstate":
		slate, err = h.Roll.ReinstateSlate(ctx, cmd)
	default:
		return httptransport.SlateResponse{}, domainerrors.ErrInvalidInput
	}
	if err != nil {
		return httptransport.SlateResponse{}, err
	}
	return mapSlate(slate), nil
}

func (h Handler) ListSlatesHandler(ctx context.Context, electionID string) (httptransport.SlateListResponse, error) {
	slates, err := h.Elections.ListSlates(ctx, electionID)
	if err != nil {
		return httptransport.SlateListResponse{}, err
	}
	items := make([]httptransport.SlateResponse, 0, len(slates))
	for _, slate := range slates {
		items = append(items, mapSlate(slate))
	}
	return httptransport.SlateListResponse{Items: items}, nil
}

func (h Handler) CastBallotHandler(
	ctx context.Context,
	electionID string,
	clientIP string,
	userAgent string,
	req httptransport.CastBallotRequest,
) (httptransport.ReceiptResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.ReceiptResponse{}, err
	}
	receipt, err := h.Casting.CastBallot(ctx, commands.CastBallotCommand{
		ElectionID: electionID,
		Credential: req.Credential,
		Kind:       entities.VoteKind(req.Kind),
		SlateID:    req.SlateID,
		Channel: entities.Channel{
			TerminalID: req.TerminalID,
			IPAddress:  clientIP,
			UserAgent:  userAgent,
		},
	})
	if err != nil {
		return httptransport.ReceiptResponse{}, err
	}
	return httptransport.ReceiptResponse{
		ElectionID: receipt.ElectionID,
		BallotHash: receipt.BallotHash,
		CastAt:     receipt.CastAt,
		Signature:  receipt.Signature,
	}, nil
}

func (h Handler) VerifyReceiptHandler(
	ctx context.Context,
	electionID string,
	ballotHash string,
) (httptransport.ReceiptVerificationResponse, error) {
	verification, err := h.Tallies.VerifyReceipt(ctx, electionID, ballotHash)
	if err != nil {
		return httptransport.ReceiptVerificationResponse{}, err
	}
	response := httptransport.ReceiptVerificationResponse{
		ElectionID:      verification.ElectionID,
		BallotHash:      verification.BallotHash,
		Stored:          verification.Stored,
		Nullified:       verification.Nullified,
		FinalTallyID:    verification.FinalTallyID,
		IncludedInFinal: verification.IncludedInFinal,
		Homologated:     verification.Homologated,
	}
	if verification.Stored {
		castAt := verification.CastAt
		response.CastAt = &castAt
	}
	return response, nil
}

// ComputeTallyHandler runs a tally. Concurrent partial requests for the same
// election share one run.
func (h Handler) ComputeTallyHandler(
	ctx context.Context,
	electionID string,
	actor string,
	req httptransport.ComputeTallyRequest,
) (httptransport.TallyResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.TallyResponse{}, err
	}
	cmd := commands.ComputeTallyCommand{
		ElectionID: electionID,
		Mode:       entities.TallyMode(req.Mode),
		Actor:      actor,
	}
	if cmd.Mode != entities.TallyModePartial || h.PartialRuns == nil {
		result, err := h.Tallying.ComputeTally(ctx, cmd)
		if err != nil {
			return httptransport.TallyResponse{}, err
		}
		return mapTally(result), nil
	}

	value, err, shared := h.PartialRuns.Do(strings.TrimSpace(electionID), func() (any, error) {
		return h.Tallying.ComputeTally(ctx, cmd)
	})
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	result, ok := value.(entities.TallyResult)
	if !ok {
		return httptransport.TallyResponse{}, fmt.Errorf("unexpected partial tally result type %T", value)
	}
	if shared && h.Logger != nil {
		h.Logger.Debug("partial tally request coalesced",
			"event", "election_partial_tally_coalesced",
			"module", "election-administration/election-core",
			"layer", "adapter",
			"election_id", electionID,
			"tally_id", result.TallyID,
		)
	}
	return mapTally(result), nil
}

func (h Handler) GetTallyHandler(ctx context.Context, tallyID string) (httptransport.TallyResponse, error) {
	result, err := h.Tallies.GetTally(ctx, tallyID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return mapTally(result), nil
}

func (h Handler) ListTalliesHandler(ctx context.Context, electionID string) (httptransport.TallyListResponse, error) {
	tallies, err := h.Tallies.ListTallies(ctx, electionID)
	if err != nil {
		return httptransport.TallyListResponse{}, err
	}
	items := make([]httptransport.TallyResponse, 0, len(tallies))
	for _, tally := range tallies {
		items = append(items, mapTally(tally))
	}
	return httptransport.TallyListResponse{Items: items}, nil
}

func (h Handler) LatestTallyHandler(ctx context.Context, electionID string, mode string) (httptransport.TallyResponse, error) {
	tallyMode := entities.TallyMode(strings.TrimSpace(mode))
	if tallyMode != "" && !tallyMode.Valid() {
		return httptransport.TallyResponse{}, domainerrors.ErrInvalidInput
	}
	result, err := h.Tallies.LatestTally(ctx, electionID, tallyMode)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return mapTally(result), nil
}

func (h Handler) OfficialTallyHandler(ctx context.Context, electionID string) (httptransport.TallyResponse, error) {
	result, err := h.Tallies.OfficialTally(ctx, electionID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return mapTally(result), nil
}

func (h Handler) HomologateTallyHandler(ctx context.Context, tallyID string, actor string) (httptransport.TallyResponse, error) {
	result, err := h.Tallying.Homologate(ctx, commands.HomologateCommand{
		TallyID: tallyID,
		Actor:   actor,
	})
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return mapTally(result), nil
}

func (h Handler) VerifyTallyHandler(ctx context.Context, tallyID string) (httptransport.TallyVerificationResponse, error) {
	verification, err := h.Tallying.VerifyTally(ctx, tallyID)
	if err != nil {
		return httptransport.TallyVerificationResponse{}, err
	}
	return httptransport.TallyVerificationResponse{
		TallyID:           verification.Tally.TallyID,
		StoredHashValid:   verification.StoredHashValid,
		InputHashMatches:  verification.InputHashMatches,
		ResultHashMatches: verification.ResultHashMatches,
		Reproducible:      verification.Reproducible(),
		RecomputedInput:   verification.Recomputed.InputHash,
		RecomputedResult:  verification.Recomputed.ResultHash,
	}, nil
}

func (h Handler) NullifyBallotHandler(
	ctx context.Context,
	electionID string,
	actor string,
	req httptransport.NullifyBallotRequest,
) (httptransport.NullificationResponse, error) {
	if err := validate(req); err != nil {
		return httptransport.NullificationResponse{}, err
	}
	nullification, err := h.Tallying.NullifyBallot(ctx, commands.NullifyBallotCommand{
		ElectionID: electionID,
		BallotHash: req.BallotHash,
		VerdictID:  req.VerdictID,
		Reason:     req.Reason,
		Actor:      actor,
	})
	if err != nil {
		return httptransport.NullificationResponse{}, err
	}
	return httptransport.NullificationResponse{
		NullificationID: nullification.NullificationID,
		ElectionID:      nullification.ElectionID,
		BallotHash:      nullification.BallotHash,
		VerdictID:       nullification.VerdictID,
		Reason:          nullification.Reason,
		CreatedAt:       nullification.CreatedAt,
	}, nil
}

func mapElection(election entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		ElectionID:         election.ElectionID,
		Name:               election.Name,
		Status:             string(election.Status),
		Phase:              string(election.Phase),
		VotingMode:         string(election.VotingMode),
		SeatCount:          election.SeatCount,
		VotingStartsAt:     election.VotingStartsAt,
		VotingEndsAt:       election.VotingEndsAt,
		EarlyClosure:       election.EarlyClosure,
		EarlyClosureReason: election.EarlyClosureReason,
		Retired:            election.Retired,
		Version:            election.Version,
		UpdatedAt:          election.UpdatedAt,
	}
}

func mapSlate(slate entities.Slate) httptransport.SlateResponse {
	return httptransport.SlateResponse{
		SlateID:           slate.SlateID,
		ElectionID:        slate.ElectionID,
		Name:              slate.Name,
		Number:            slate.Number,
		Status:            string(slate.Status),
		Incumbent:         slate.Incumbent,
		RegistrationOrder: slate.RegistrationOrder,
	}
}

func mapTally(tally entities.TallyResult) httptransport.TallyResponse {
	rows := make([]httptransport.TallySlateResponse, 0, len(tally.Slates))
	for _, row := range tally.Slates {
		rows = append(rows, httptransport.TallySlateResponse{
			SlateID:           row.SlateID,
			SlateName:         row.SlateName,
			Votes:             row.Votes,
			PercentValid:      row.PercentValid,
			Rank:              row.Rank,
			Elected:           row.Elected,
			TieBreakCriterion: string(row.TieBreakCriterion),
		})
	}
	return httptransport.TallyResponse{
		TallyID:         tally.TallyID,
		ElectionID:      tally.ElectionID,
		Version:         tally.Version,
		Mode:            string(tally.Mode),
		Partial:         tally.Partial,
		PercentCounted:  tally.PercentCounted,
		EligibleCount:   tally.EligibleCount,
		VotedCount:      tally.VotedCount,
		AbstainedCount:  tally.AbstainedCount,
		ValidCount:      tally.ValidCount,
		BlankCount:      tally.BlankCount,
		NullCount:       tally.NullCount,
		VoidedCount:     tally.VoidedCount,
		SeatCount:       tally.SeatCount,
		InputHash:       tally.InputHash,
		ResultHash:      tally.ResultHash,
		DrawSeed:        tally.DrawSeed,
		TieBreakApplied: tally.TieBreakApplied,
		ExcludedSlates:  tally.ExcludedSlates,
		Homologated:     tally.Homologated,
		HomologatedAt:   tally.HomologatedAt,
		HomologatedBy:   tally.HomologatedBy,
		Signature:       tally.Signature,
		ComputedAt:      tally.ComputedAt,
		Slates:          rows,
	}
}
