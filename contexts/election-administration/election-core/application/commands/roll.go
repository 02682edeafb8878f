package commands

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	application "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
)

type VoterRollEntry struct {
	IdentityID          string
	Ineligible          bool
	IneligibilityReason string
	SectionRef          string
}

type ImportVoterRollCommand struct {
	ElectionID string
	Entries    []VoterRollEntry
	Actor      string
}

type MarkIneligibleCommand struct {
	ElectionID string
	IdentityID string
	Reason     string
	Actor      string
}

type RegisterSlateCommand struct {
	ElectionID string
	Name       string
	Number     int
	Incumbent  bool
	Actor      string
}

// SlateStatusCommand drives approval, disqualification and reinstatement.
// VerdictID is set when a judgment remedy triggered the change.
type SlateStatusCommand struct {
	ElectionID string
	SlateID    string
	Actor      string
	Reason     string
	VerdictID  string
}

// RollUseCase maintains the eligibility registry and the slate roster of an
// election. It never touches HasVoted; only CommitCast may.
type RollUseCase struct {
	Elections ports.ElectionRepository
	Slates    ports.SlateRepository
	Voters    ports.VoterRegistry
	Audit     ports.AuditSink
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

var rollImportPhases = map[entities.Phase]bool{
	entities.PhasePreparatory:  true,
	entities.PhaseRegistration: true,
	entities.PhaseCampaign:     true,
}

func (uc RollUseCase) ImportVoterRoll(ctx context.Context, cmd ImportVoterRollCommand) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	election, err := uc.liveElection(ctx, cmd.ElectionID)
	if err != nil {
		return 0, err
	}
	if !rollImportPhases[election.Phase] {
		return 0, domainerrors.ErrOperationNotAllowed
	}
	if len(cmd.Entries) == 0 {
		return 0, domainerrors.ErrInvalidInput
	}

	seen := make(map[string]bool, len(cmd.Entries))
	voters := make([]entities.EligibleVoter, 0, len(cmd.Entries))
	for _, entry := range cmd.Entries {
		identityID := strings.TrimSpace(entry.IdentityID)
		if identityID == "" {
			return 0, domainerrors.ErrInvalidInput
		}
		if seen[identityID] {
			continue
		}
		seen[identityID] = true
		voter := entities.EligibleVoter{
			ElectionID: election.ElectionID,
			IdentityID: identityID,
			Eligible:   !entry.Ineligible,
			SectionRef: strings.TrimSpace(entry.SectionRef),
			Active:     true,
		}
		if entry.Ineligible {
			voter.IneligibilityReason = strings.TrimSpace(entry.IneligibilityReason)
		}
		voters = append(voters, voter)
	}

	imported, err := uc.Voters.UpsertVoters(ctx, voters)
	if err != nil {
		logger.Error("voter roll import failed",
			"event", "election_roll_import_failed",
			"module", moduleName,
			"layer", "application",
			"election_id", election.ElectionID,
			"error", err.Error(),
		)
		return 0, err
	}
	now := resolveNow(uc.Clock)
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     "voter_roll.imported",
		EntityType: "election",
		EntityID:   election.ElectionID,
		Actor:      strings.TrimSpace(cmd.Actor),
		Details: map[string]string{
			"entries":  strconv.Itoa(len(voters)),
			"imported": strconv.Itoa(imported),
		},
	})
	logger.Info("voter roll imported",
		"event", "election_roll_imported",
		"module", moduleName,
		"layer", "application",
		"election_id", election.ElectionID,
		"entries", len(voters),
		"imported", imported,
	)
	return imported, nil
}

func (uc RollUseCase) MarkIneligible(ctx context.Context, cmd MarkIneligibleCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	identityID := strings.TrimSpace(cmd.IdentityID)
	reason := strings.TrimSpace(cmd.Reason)
	if identityID == "" || reason == "" {
		return domainerrors.ErrInvalidInput
	}
	election, err := uc.liveElection(ctx, cmd.ElectionID)
	if err != nil {
		return err
	}
	if err := uc.Voters.SetIneligible(ctx, election.ElectionID, identityID, reason); err != nil {
		logger.Warn("voter ineligibility update rejected",
			"event", "election_voter_ineligible_rejected",
			"module", moduleName,
			"layer", "application",
			"election_id", election.ElectionID,
			"error", err.Error(),
		)
		return err
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, resolveNow(uc.Clock), auditRecord{
		Action:     "voter.marked_ineligible",
		EntityType: "election",
		EntityID:   election.ElectionID,
		Actor:      strings.TrimSpace(cmd.Actor),
		Details:    map[string]string{"reason": reason},
	})
	return nil
}

func (uc RollUseCase) RegisterSlate(ctx context.Context, cmd RegisterSlateCommand) (entities.Slate, error) {
	logger := application.ResolveLogger(uc.Logger)
	name := strings.TrimSpace(cmd.Name)
	if name == "" || cmd.Number <= 0 {
		return entities.Slate{}, domainerrors.ErrInvalidInput
	}
	election, err := uc.liveElection(ctx, cmd.ElectionID)
	if err != nil {
		return entities.Slate{}, err
	}
	if election.Phase != entities.PhaseRegistration {
		return entities.Slate{}, domainerrors.ErrOperationNotAllowed
	}
	existing, err := uc.Slates.ListSlates(ctx, election.ElectionID)
	if err != nil {
		return entities.Slate{}, err
	}
	for _, slate := range existing {
		if slate.Active && slate.Number == cmd.Number {
			return entities.Slate{}, domainerrors.ErrConflict
		}
	}
	order, err := uc.Slates.NextRegistrationOrder(ctx, election.ElectionID)
	if err != nil {
		return entities.Slate{}, err
	}
	slateID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Slate{}, err
	}
	now := resolveNow(uc.Clock)
	slate := entities.Slate{
		SlateID:           slateID,
		ElectionID:        election.ElectionID,
		Name:              name,
		Number:            cmd.Number,
		Status:            entities.SlateStatusPending,
		Incumbent:         cmd.Incumbent,
		RegistrationOrder: order,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := uc.Slates.SaveSlate(ctx, slate); err != nil {
		return entities.Slate{}, err
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     "slate.registered",
		EntityType: "slate",
		EntityID:   slate.SlateID,
		Actor:      strings.TrimSpace(cmd.Actor),
		Details: map[string]string{
			"election_id":        slate.ElectionID,
			"number":             strconv.Itoa(slate.Number),
			"registration_order": strconv.Itoa(slate.RegistrationOrder),
		},
	})
	logger.Info("slate registered",
		"event", "election_slate_registered",
		"module", moduleName,
		"layer", "application",
		"election_id", slate.ElectionID,
		"slate_id", slate.SlateID,
		"registration_order", slate.RegistrationOrder,
	)
	return slate, nil
}

func (uc RollUseCase) ApproveSlate(ctx context.Context, cmd SlateStatusCommand) (entities.Slate, error) {
	return uc.changeSlateStatus(ctx, cmd, slateChange{
		action: "slate.approved",
		phases: map[entities.Phase]bool{
			entities.PhaseRegistration: true,
			entities.PhaseCampaign:     true,
		},
		from: []entities.SlateStatus{entities.SlateStatusPending},
		to:   entities.SlateStatusApproved,
	})
}

// DisqualifySlate may run in any live phase; a later tally excludes the slate
// and voids its ballots.
func (uc RollUseCase) DisqualifySlate(ctx context.Context, cmd SlateStatusCommand) (entities.Slate, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return entities.Slate{}, domainerrors.ErrInvalidInput
	}
	return uc.changeSlateStatus(ctx, cmd, slateChange{
		action: "slate.disqualified",
		from:   []entities.SlateStatus{entities.SlateStatusPending, entities.SlateStatusApproved},
		to:     entities.SlateStatusDisqualified,
	})
}

func (uc RollUseCase) ReinstateSlate(ctx context.Context, cmd SlateStatusCommand) (entities.Slate, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return entities.Slate{}, domainerrors.ErrInvalidInput
	}
	return uc.changeSlateStatus(ctx, cmd, slateChange{
		action: "slate.reinstated",
		from:   []entities.SlateStatus{entities.SlateStatusDisqualified},
		to:     entities.SlateStatusApproved,
	})
}

type slateChange struct {
	action string
	phases map[entities.Phase]bool
	from   []entities.SlateStatus
	to     entities.SlateStatus
}

func (uc RollUseCase) changeSlateStatus(
	ctx context.Context,
	cmd SlateStatusCommand,
	change slateChange,
) (entities.Slate, error) {
	logger := application.ResolveLogger(uc.Logger)
	slateID := strings.TrimSpace(cmd.SlateID)
	if slateID == "" {
		return entities.Slate{}, domainerrors.ErrInvalidInput
	}
	election, err := uc.liveElection(ctx, cmd.ElectionID)
	if err != nil {
		return entities.Slate{}, err
	}
	if change.phases != nil && !change.phases[election.Phase] {
		return entities.Slate{}, domainerrors.ErrOperationNotAllowed
	}
	slate, err := uc.Slates.GetSlate(ctx, election.ElectionID, slateID)
	if err != nil {
		return entities.Slate{}, err
	}
	if !slate.Active {
		return entities.Slate{}, domainerrors.ErrSlateNotFound
	}
	allowed := false
	for _, status := range change.from {
		if slate.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		logger.Warn("slate status change rejected",
			"event", "election_slate_status_rejected",
			"module", moduleName,
			"layer", "application",
			"election_id", election.ElectionID,
			"slate_id", slate.SlateID,
			"from_status", string(slate.Status),
			"to_status", string(change.to),
		)
		return entities.Slate{}, domainerrors.ErrInvalidTransition
	}

	now := resolveNow(uc.Clock)
	previous := slate.Status
	slate.Status = change.to
	slate.UpdatedAt = now
	if err := uc.Slates.SaveSlate(ctx, slate); err != nil {
		return entities.Slate{}, err
	}
	details := map[string]string{
		"election_id": election.ElectionID,
		"from_status": string(previous),
		"to_status":   string(slate.Status),
	}
	if reason := strings.TrimSpace(cmd.Reason); reason != "" {
		details["reason"] = reason
	}
	if verdictID := strings.TrimSpace(cmd.VerdictID); verdictID != "" {
		details["verdict_id"] = verdictID
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     change.action,
		EntityType: "slate",
		EntityID:   slate.SlateID,
		Actor:      strings.TrimSpace(cmd.Actor),
		Details:    details,
	})
	logger.Info("slate status changed",
		"event", "election_slate_status_changed",
		"module", moduleName,
		"layer", "application",
		"election_id", election.ElectionID,
		"slate_id", slate.SlateID,
		"from_status", string(previous),
		"to_status", string(slate.Status),
	)
	return slate, nil
}

// liveElection loads an election that can still accept administrative changes.
func (uc RollUseCase) liveElection(ctx context.Context, electionID string) (entities.Election, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return entities.Election{}, domainerrors.ErrInvalidInput
	}
	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.Election{}, err
	}
	if election.Terminal() || election.Retired {
		return entities.Election{}, domainerrors.ErrElectionTerminal
	}
	return election, nil
}
