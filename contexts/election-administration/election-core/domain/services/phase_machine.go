package services

import (
	"strings"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
)

// phaseSuccessor is the only legal forward edge out of each phase. No entry
// means the phase is final.
var phaseSuccessor = map[entities.Phase]entities.Phase{
	entities.PhasePreparatory:  entities.PhaseRegistration,
	entities.PhaseRegistration: entities.PhaseCampaign,
	entities.PhaseCampaign:     entities.PhaseVoting,
	entities.PhaseVoting:       entities.PhaseTallying,
	entities.PhaseTallying:     entities.PhaseResult,
	entities.PhaseResult:       entities.PhaseInstallation,
}

var phaseStatus = map[entities.Phase]entities.Status{
	entities.PhasePreparatory:  entities.StatusScheduled,
	entities.PhaseRegistration: entities.StatusScheduled,
	entities.PhaseCampaign:     entities.StatusInProgress,
	entities.PhaseVoting:       entities.StatusInProgress,
	entities.PhaseTallying:     entities.StatusInProgress,
	entities.PhaseResult:       entities.StatusClosed,
	entities.PhaseInstallation: entities.StatusFinalized,
}

// PhaseFacts are the observations a caller gathers before asking whether a
// phase may be entered.
type PhaseFacts struct {
	Now                time.Time
	ApprovedSlates     int
	EligibleVoters     int
	EarlyClosure       bool
	EarlyClosureReason string
	HomologatedTally   bool
}

type entryRule func(election entities.Election, facts PhaseFacts) error

var phaseEntryRules = map[entities.Phase]entryRule{
	entities.PhaseRegistration: func(election entities.Election, _ PhaseFacts) error {
		if election.VotingStartsAt.IsZero() || election.VotingEndsAt.IsZero() ||
			!election.VotingStartsAt.Before(election.VotingEndsAt) {
			return domainerrors.ErrPreconditionFailed
		}
		return nil
	},
	entities.PhaseVoting: func(election entities.Election, facts PhaseFacts) error {
		if facts.ApprovedSlates < 1 || facts.EligibleVoters < 1 {
			return domainerrors.ErrPreconditionFailed
		}
		if election.VotingWindowElapsed(facts.Now) {
			return domainerrors.ErrPreconditionFailed
		}
		return nil
	},
	entities.PhaseTallying: func(election entities.Election, facts PhaseFacts) error {
		if election.VotingWindowElapsed(facts.Now) {
			return nil
		}
		if facts.EarlyClosure && strings.TrimSpace(facts.EarlyClosureReason) != "" {
			return nil
		}
		return domainerrors.ErrPreconditionFailed
	},
	entities.PhaseInstallation: func(_ entities.Election, facts PhaseFacts) error {
		if !facts.HomologatedTally {
			return domainerrors.ErrPreconditionFailed
		}
		return nil
	},
}

func NextPhase(phase entities.Phase) (entities.Phase, bool) {
	next, ok := phaseSuccessor[phase]
	return next, ok
}

func StatusForPhase(phase entities.Phase) entities.Status {
	return phaseStatus[phase]
}

func KnownPhase(phase entities.Phase) bool {
	_, ok := phaseStatus[phase]
	return ok
}

// Consistent reports whether Status and Phase agree with the status table.
// Suspended and cancelled elections keep whatever phase they were frozen in.
func Consistent(election entities.Election) bool {
	switch election.Status {
	case entities.StatusSuspended, entities.StatusCancelled:
		return KnownPhase(election.Phase)
	default:
		return KnownPhase(election.Phase) && phaseStatus[election.Phase] == election.Status
	}
}

// CheckAdvance validates the sequencing part of Advance: the target must be the
// immediate successor of the current phase and the election must be live.
func CheckAdvance(election entities.Election, target entities.Phase) error {
	if election.Terminal() || election.Retired {
		return domainerrors.ErrElectionTerminal
	}
	if election.Status == entities.StatusSuspended {
		return domainerrors.ErrInvalidTransition
	}
	next, ok := NextPhase(election.Phase)
	if !ok || next != target {
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

// CheckEntry evaluates the entry rule of target, if any.
func CheckEntry(election entities.Election, target entities.Phase, facts PhaseFacts) error {
	rule, ok := phaseEntryRules[target]
	if !ok {
		return nil
	}
	return rule(election, facts)
}

func CheckSuspend(election entities.Election, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return domainerrors.ErrInvalidInput
	}
	if election.Terminal() || election.Retired {
		return domainerrors.ErrElectionTerminal
	}
	if election.Status == entities.StatusSuspended {
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

func CheckResume(election entities.Election) error {
	if election.Status != entities.StatusSuspended {
		return domainerrors.ErrElectionNotSuspended
	}
	if election.StatusBeforeSuspension == "" {
		return domainerrors.ErrInvalidTransition
	}
	return nil
}

func CheckCancel(election entities.Election, reason string) error {
	if strings.TrimSpace(reason) == "" {
		return domainerrors.ErrInvalidInput
	}
	if election.Terminal() || election.Retired {
		return domainerrors.ErrElectionTerminal
	}
	return nil
}
