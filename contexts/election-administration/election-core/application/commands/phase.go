package commands

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	application "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/services"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
)

type CreateElectionCommand struct {
	Name           string
	VotingMode     entities.VotingMode
	SeatCount      int
	VotingStartsAt time.Time
	VotingEndsAt   time.Time
	Actor          string
}

// AdvanceCommand moves an election to the immediate successor phase.
// EarlyClosure and Reason are only consulted when entering Tallying.
type AdvanceCommand struct {
	ElectionID   string
	Target       entities.Phase
	Actor        string
	EarlyClosure bool
	Reason       string
	Automatic    bool
}

// PhaseChangeCommand covers Suspend, Resume, Cancel and Retire.
type PhaseChangeCommand struct {
	ElectionID string
	Actor      string
	Reason     string
}

// PhaseUseCase is the election phase machine. Every successful call stores
// exactly one PhaseTransition under an optimistic version check.
type PhaseUseCase struct {
	Elections ports.ElectionRepository
	Slates    ports.SlateRepository
	Voters    ports.VoterRegistry
	Tallies   ports.TallyRepository
	Tallying  TallyUseCase
	Audit     ports.AuditSink
	Outbox    ports.OutboxWriter
	Metrics   ports.Metrics
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc PhaseUseCase) CreateElection(ctx context.Context, cmd CreateElectionCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	mode := cmd.VotingMode
	if mode == "" {
		mode = entities.VotingModeOnline
	}
	if name == "" || !mode.Valid() || cmd.SeatCount < 1 {
		logger.Warn("election create validation failed",
			"event", "election_create_validation_failed",
			"module", moduleName,
			"layer", "application",
			"name", name,
			"seat_count", cmd.SeatCount,
		)
		return entities.Election{}, domainerrors.ErrInvalidInput
	}
	if !cmd.VotingStartsAt.IsZero() && !cmd.VotingEndsAt.IsZero() &&
		!cmd.VotingStartsAt.Before(cmd.VotingEndsAt) {
		return entities.Election{}, domainerrors.ErrInvalidInput
	}

	electionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, err
	}
	transitionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, err
	}
	now := resolveNow(uc.Clock)
	election := entities.Election{
		ElectionID:     electionID,
		Name:           name,
		Status:         services.StatusForPhase(entities.PhasePreparatory),
		Phase:          entities.PhasePreparatory,
		VotingMode:     mode,
		SeatCount:      cmd.SeatCount,
		VotingStartsAt: cmd.VotingStartsAt.UTC(),
		VotingEndsAt:   cmd.VotingEndsAt.UTC(),
		Version:        1,
		CreatedBy:      strings.TrimSpace(cmd.Actor),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	transition := entities.PhaseTransition{
		TransitionID: transitionID,
		ElectionID:   electionID,
		Sequence:     1,
		ToPhase:      election.Phase,
		ToStatus:     election.Status,
		Actor:        election.CreatedBy,
		Reason:       "created",
		OccurredAt:   now,
	}
	if err := uc.Elections.CreateElection(ctx, election, transition); err != nil {
		logger.Error("election create failed",
			"event", "election_create_failed",
			"module", moduleName,
			"layer", "application",
			"error", err.Error(),
		)
		return entities.Election{}, err
	}
	uc.afterTransition(ctx, election, transition)
	logger.Info("election created",
		"event", "election_created",
		"module", moduleName,
		"layer", "application",
		"election_id", election.ElectionID,
		"seat_count", election.SeatCount,
		"voting_mode", string(election.VotingMode),
	)
	return election, nil
}

// Advance succeeds only for the immediate successor phase and only when the
// target's entry rule holds. Entering Result computes the Final tally first;
// an integrity failure there aborts the transition.
func (uc PhaseUseCase) Advance(ctx context.Context, cmd AdvanceCommand) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	if electionID == "" || !services.KnownPhase(cmd.Target) {
		return entities.Election{}, domainerrors.ErrInvalidInput
	}
	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.Election{}, err
	}
	if err := services.CheckAdvance(election, cmd.Target); err != nil {
		logger.Warn("election advance rejected",
			"event", "election_advance_rejected",
			"module", moduleName,
			"layer", "application",
			"election_id", electionID,
			"from_phase", string(election.Phase),
			"to_phase", string(cmd.Target),
			"error", err.Error(),
		)
		return entities.Election{}, err
	}

	now := resolveNow(uc.Clock)
	facts, err := uc.gatherFacts(ctx, election, cmd, now)
	if err != nil {
		return entities.Election{}, err
	}
	if err := services.CheckEntry(election, cmd.Target, facts); err != nil {
		logger.Warn("election phase entry precondition failed",
			"event", "election_advance_precondition_failed",
			"module", moduleName,
			"layer", "application",
			"election_id", electionID,
			"to_phase", string(cmd.Target),
			"approved_slates", facts.ApprovedSlates,
			"eligible_voters", facts.EligibleVoters,
		)
		return entities.Election{}, err
	}

	reason := strings.TrimSpace(cmd.Reason)
	if cmd.Target == entities.PhaseResult {
		tally, err := uc.Tallying.ComputeTally(ctx, ComputeTallyCommand{
			ElectionID: electionID,
			Mode:       entities.TallyModeFinal,
			Actor:      cmd.Actor,
		})
		if err != nil {
			logger.Error("final tally on result entry failed",
				"event", "election_advance_final_tally_failed",
				"module", moduleName,
				"layer", "application",
				"election_id", electionID,
				"error", err.Error(),
			)
			return entities.Election{}, err
		}
		if reason == "" {
			reason = "final tally " + tally.TallyID + " v" + strconv.Itoa(tally.Version)
		}
	}

	updated := election
	updated.Phase = cmd.Target
	updated.Status = services.StatusForPhase(cmd.Target)
	if cmd.Target == entities.PhaseTallying && !election.VotingWindowElapsed(now) {
		updated.EarlyClosure = true
		updated.EarlyClosureReason = reason
	}
	return uc.commit(ctx, election, updated, strings.TrimSpace(cmd.Actor), reason, cmd.Automatic, now)
}

func (uc PhaseUseCase) Suspend(ctx context.Context, cmd PhaseChangeCommand) (entities.Election, error) {
	election, err := uc.load(ctx, cmd.ElectionID)
	if err != nil {
		return entities.Election{}, err
	}
	if err := services.CheckSuspend(election, cmd.Reason); err != nil {
		return entities.Election{}, err
	}
	updated := election
	updated.StatusBeforeSuspension = election.Status
	updated.Status = entities.StatusSuspended
	return uc.commit(ctx, election, updated, strings.TrimSpace(cmd.Actor), strings.TrimSpace(cmd.Reason), false, resolveNow(uc.Clock))
}

// Resume restores the exact status the election had before suspension. The
// phase never moved while suspended.
func (uc PhaseUseCase) Resume(ctx context.Context, cmd PhaseChangeCommand) (entities.Election, error) {
	election, err := uc.load(ctx, cmd.ElectionID)
	if err != nil {
		return entities.Election{}, err
	}
	if err := services.CheckResume(election); err != nil {
		return entities.Election{}, err
	}
	updated := election
	updated.Status = election.StatusBeforeSuspension
	updated.StatusBeforeSuspension = ""
	return uc.commit(ctx, election, updated, strings.TrimSpace(cmd.Actor), strings.TrimSpace(cmd.Reason), false, resolveNow(uc.Clock))
}

func (uc PhaseUseCase) Cancel(ctx context.Context, cmd PhaseChangeCommand) (entities.Election, error) {
	election, err := uc.load(ctx, cmd.ElectionID)
	if err != nil {
		return entities.Election{}, err
	}
	if err := services.CheckCancel(election, cmd.Reason); err != nil {
		return entities.Election{}, err
	}
	updated := election
	updated.Status = entities.StatusCancelled
	updated.StatusBeforeSuspension = ""
	return uc.commit(ctx, election, updated, strings.TrimSpace(cmd.Actor), strings.TrimSpace(cmd.Reason), false, resolveNow(uc.Clock))
}

// Retire soft-deletes a finished election. It stays readable by ID for audit
// but drops out of listings.
func (uc PhaseUseCase) Retire(ctx context.Context, cmd PhaseChangeCommand) (entities.Election, error) {
	election, err := uc.load(ctx, cmd.ElectionID)
	if err != nil {
		return entities.Election{}, err
	}
	if election.Retired ||
		(election.Status != entities.StatusFinalized && election.Status != entities.StatusCancelled) {
		return entities.Election{}, domainerrors.ErrOperationNotAllowed
	}
	updated := election
	updated.Retired = true
	reason := strings.TrimSpace(cmd.Reason)
	if reason == "" {
		reason = "retired"
	}
	return uc.commit(ctx, election, updated, strings.TrimSpace(cmd.Actor), reason, false, resolveNow(uc.Clock))
}

func (uc PhaseUseCase) load(ctx context.Context, electionID string) (entities.Election, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return entities.Election{}, domainerrors.ErrInvalidInput
	}
	return uc.Elections.GetElection(ctx, electionID)
}

func (uc PhaseUseCase) gatherFacts(
	ctx context.Context,
	election entities.Election,
	cmd AdvanceCommand,
	now time.Time,
) (services.PhaseFacts, error) {
	facts := services.PhaseFacts{
		Now:                now,
		EarlyClosure:       cmd.EarlyClosure,
		EarlyClosureReason: cmd.Reason,
	}
	switch cmd.Target {
	case entities.PhaseVoting:
		slates, err := uc.Slates.ListSlates(ctx, election.ElectionID)
		if err != nil {
			return services.PhaseFacts{}, err
		}
		for _, slate := range slates {
			if slate.Votable() {
				facts.ApprovedSlates++
			}
		}
		eligible, err := uc.Voters.CountEligible(ctx, election.ElectionID)
		if err != nil {
			return services.PhaseFacts{}, err
		}
		facts.EligibleVoters = eligible
	case entities.PhaseInstallation:
		homologated, err := uc.Tallies.HasHomologated(ctx, election.ElectionID)
		if err != nil {
			return services.PhaseFacts{}, err
		}
		facts.HomologatedTally = homologated
	}
	return facts, nil
}

func (uc PhaseUseCase) commit(
	ctx context.Context,
	previous entities.Election,
	updated entities.Election,
	actor string,
	reason string,
	automatic bool,
	now time.Time,
) (entities.Election, error) {
	logger := application.ResolveLogger(uc.Logger)
	transitionID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Election{}, err
	}
	updated.Version = previous.Version + 1
	updated.UpdatedAt = now
	transition := entities.PhaseTransition{
		TransitionID: transitionID,
		ElectionID:   previous.ElectionID,
		Sequence:     int(updated.Version),
		FromPhase:    previous.Phase,
		ToPhase:      updated.Phase,
		FromStatus:   previous.Status,
		ToStatus:     updated.Status,
		Actor:        actor,
		Reason:       reason,
		Automatic:    automatic,
		OccurredAt:   now,
	}
	if err := uc.Elections.UpdateElection(ctx, updated, previous.Version, transition); err != nil {
		level := slog.LevelError
		if errors.Is(err, domainerrors.ErrConcurrentModification) {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, "election transition write failed",
			"event", "election_transition_write_failed",
			"module", moduleName,
			"layer", "application",
			"election_id", previous.ElectionID,
			"from_phase", string(previous.Phase),
			"to_phase", string(updated.Phase),
			"error", err.Error(),
		)
		return entities.Election{}, err
	}
	uc.afterTransition(ctx, updated, transition)
	logger.Info("election transition applied",
		"event", "election_transition_applied",
		"module", moduleName,
		"layer", "application",
		"election_id", updated.ElectionID,
		"from_phase", string(transition.FromPhase),
		"to_phase", string(transition.ToPhase),
		"from_status", string(transition.FromStatus),
		"to_status", string(transition.ToStatus),
		"automatic", automatic,
		"sequence", transition.Sequence,
	)
	return updated, nil
}

func (uc PhaseUseCase) afterTransition(
	ctx context.Context,
	election entities.Election,
	transition entities.PhaseTransition,
) {
	logger := application.ResolveLogger(uc.Logger)
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, transition.OccurredAt, auditRecord{
		Action:     EventPhaseChanged,
		EntityType: "election",
		EntityID:   election.ElectionID,
		Actor:      transition.Actor,
		Details: map[string]string{
			"from_phase":  string(transition.FromPhase),
			"to_phase":    string(transition.ToPhase),
			"from_status": string(transition.FromStatus),
			"to_status":   string(transition.ToStatus),
			"reason":      transition.Reason,
			"automatic":   strconv.FormatBool(transition.Automatic),
			"sequence":    strconv.Itoa(transition.Sequence),
		},
	})
	if err := appendEvent(ctx, uc.Outbox, uc.IDGen, EventPhaseChanged, election.ElectionID, transition.OccurredAt, map[string]any{
		"election_id": election.ElectionID,
		"from_phase":  string(transition.FromPhase),
		"to_phase":    string(transition.ToPhase),
		"from_status": string(transition.FromStatus),
		"to_status":   string(transition.ToStatus),
		"automatic":   transition.Automatic,
		"sequence":    transition.Sequence,
		"occurred_at": transition.OccurredAt.Format(time.RFC3339Nano),
	}); err != nil {
		logger.Error("election phase event append failed",
			"event", "election_phase_outbox_failed",
			"module", moduleName,
			"layer", "application",
			"election_id", election.ElectionID,
			"error", err.Error(),
		)
	}
	if uc.Metrics != nil {
		uc.Metrics.ObservePhaseTransition(string(transition.ToPhase), transition.Automatic)
	}
}
