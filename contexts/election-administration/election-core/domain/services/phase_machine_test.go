package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/services"
)

var machineNow = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func election(phase entities.Phase, status entities.Status) entities.Election {
	return entities.Election{
		ElectionID:     "election-1",
		Phase:          phase,
		Status:         status,
		VotingStartsAt: machineNow.Add(-time.Hour),
		VotingEndsAt:   machineNow.Add(time.Hour),
	}
}

func TestCheckAdvanceOnlyAllowsTheSuccessor(t *testing.T) {
	phases := []entities.Phase{
		entities.PhasePreparatory,
		entities.PhaseRegistration,
		entities.PhaseCampaign,
		entities.PhaseVoting,
		entities.PhaseTallying,
		entities.PhaseResult,
		entities.PhaseInstallation,
	}
	for i, from := range phases {
		for j, to := range phases {
			current := election(from, services.StatusForPhase(from))
			err := services.CheckAdvance(current, to)
			switch {
			case from == entities.PhaseInstallation:
				if !errors.Is(err, domainerrors.ErrElectionTerminal) {
					t.Fatalf("%s is terminal, got %v", from, err)
				}
			case j == i+1:
				if err != nil {
					t.Fatalf("%s -> %s should be legal, got %v", from, to, err)
				}
			default:
				if !errors.Is(err, domainerrors.ErrInvalidTransition) {
					t.Fatalf("%s -> %s should be rejected, got %v", from, to, err)
				}
			}
		}
	}
}

func TestCheckAdvanceRejectsSuspendedAndCancelled(t *testing.T) {
	suspended := election(entities.PhaseVoting, entities.StatusSuspended)
	if err := services.CheckAdvance(suspended, entities.PhaseTallying); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected suspended election frozen, got %v", err)
	}
	cancelled := election(entities.PhaseVoting, entities.StatusCancelled)
	if err := services.CheckAdvance(cancelled, entities.PhaseTallying); !errors.Is(err, domainerrors.ErrElectionTerminal) {
		t.Fatalf("expected cancelled election terminal, got %v", err)
	}
	if err := services.CheckCancel(cancelled, "again"); !errors.Is(err, domainerrors.ErrElectionTerminal) {
		t.Fatalf("expected cancel of cancelled rejected, got %v", err)
	}
	if err := services.CheckResume(election(entities.PhaseVoting, entities.StatusInProgress)); !errors.Is(err, domainerrors.ErrElectionNotSuspended) {
		t.Fatalf("expected resume of live election rejected, got %v", err)
	}
	if err := services.CheckSuspend(election(entities.PhaseVoting, entities.StatusInProgress), " "); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected suspension without reason rejected, got %v", err)
	}
}

func TestCheckEntryRules(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*entities.Election)
		target entities.Phase
		facts  services.PhaseFacts
		ok     bool
	}{
		{name: "registration needs ordered window", target: entities.PhaseRegistration, ok: true},
		{
			name:   "registration rejects inverted window",
			target: entities.PhaseRegistration,
			mutate: func(e *entities.Election) { e.VotingEndsAt = e.VotingStartsAt },
		},
		{
			name:   "voting needs slates and voters",
			target: entities.PhaseVoting,
			facts:  services.PhaseFacts{Now: machineNow, ApprovedSlates: 1},
		},
		{
			name:   "voting opens with slates and voters",
			target: entities.PhaseVoting,
			facts:  services.PhaseFacts{Now: machineNow, ApprovedSlates: 1, EligibleVoters: 1},
			ok:     true,
		},
		{
			name:   "voting rejects an elapsed window",
			target: entities.PhaseVoting,
			facts:  services.PhaseFacts{Now: machineNow.Add(time.Hour), ApprovedSlates: 1, EligibleVoters: 1},
		},
		{
			name:   "tallying before window end needs a reasoned early closure",
			target: entities.PhaseTallying,
			facts:  services.PhaseFacts{Now: machineNow, EarlyClosure: true},
		},
		{
			name:   "tallying with early closure",
			target: entities.PhaseTallying,
			facts:  services.PhaseFacts{Now: machineNow, EarlyClosure: true, EarlyClosureReason: "all voted"},
			ok:     true,
		},
		{
			name:   "tallying at the exclusive window end",
			target: entities.PhaseTallying,
			facts:  services.PhaseFacts{Now: machineNow.Add(time.Hour)},
			ok:     true,
		},
		{name: "installation needs homologation", target: entities.PhaseInstallation},
		{
			name:   "installation with homologated tally",
			target: entities.PhaseInstallation,
			facts:  services.PhaseFacts{HomologatedTally: true},
			ok:     true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			current := election(entities.PhaseCampaign, entities.StatusInProgress)
			if tc.mutate != nil {
				tc.mutate(&current)
			}
			err := services.CheckEntry(current, tc.target, tc.facts)
			if tc.ok && err != nil {
				t.Fatalf("expected entry allowed, got %v", err)
			}
			if !tc.ok && !errors.Is(err, domainerrors.ErrPreconditionFailed) {
				t.Fatalf("expected precondition failure, got %v", err)
			}
		})
	}
}

func TestConsistentFollowsStatusTable(t *testing.T) {
	if !services.Consistent(election(entities.PhaseResult, entities.StatusClosed)) {
		t.Fatal("result/closed must be consistent")
	}
	if services.Consistent(election(entities.PhaseResult, entities.StatusInProgress)) {
		t.Fatal("result/in_progress must be inconsistent")
	}
	if !services.Consistent(election(entities.PhaseVoting, entities.StatusSuspended)) {
		t.Fatal("a suspended election keeps its frozen phase")
	}
}
