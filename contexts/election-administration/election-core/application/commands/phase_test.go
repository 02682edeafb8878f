package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
)

func TestAdvanceRejectsSkippedAndBackwardPhases(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, _ := h.votingElection(t, 1, 3, slateSpec{name: "Chapa A"})

	_, err := h.phases.Advance(ctx, commands.AdvanceCommand{
		ElectionID: election.ElectionID,
		Target:     entities.PhaseResult,
		Actor:      "admin",
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for voting->result, got %v", err)
	}

	h.closeVoting(t, election.ElectionID)
	h.advance(t, election.ElectionID, entities.PhaseResult)

	_, err = h.phases.Advance(ctx, commands.AdvanceCommand{
		ElectionID: election.ElectionID,
		Target:     entities.PhaseCampaign,
		Actor:      "admin",
	})
	if !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition for result->campaign, got %v", err)
	}

	stored, err := h.store.GetElection(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("get election: %v", err)
	}
	if stored.Phase != entities.PhaseResult || stored.Status != entities.StatusClosed {
		t.Fatalf("expected result/closed, got %s/%s", stored.Phase, stored.Status)
	}
}

func TestTallyingEntryNeedsElapsedWindowOrEarlyClosure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, _ := h.votingElection(t, 1, 3, slateSpec{name: "Chapa A"})

	_, err := h.phases.Advance(ctx, commands.AdvanceCommand{
		ElectionID: election.ElectionID,
		Target:     entities.PhaseTallying,
		Actor:      "admin",
	})
	if !errors.Is(err, domainerrors.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure before window end, got %v", err)
	}
	_, err = h.phases.Advance(ctx, commands.AdvanceCommand{
		ElectionID:   election.ElectionID,
		Target:       entities.PhaseTallying,
		Actor:        "admin",
		EarlyClosure: true,
	})
	if !errors.Is(err, domainerrors.ErrPreconditionFailed) {
		t.Fatalf("expected early closure without reason to fail, got %v", err)
	}

	updated, err := h.phases.Advance(ctx, commands.AdvanceCommand{
		ElectionID:   election.ElectionID,
		Target:       entities.PhaseTallying,
		Actor:        "admin",
		EarlyClosure: true,
		Reason:       "all voters have voted",
	})
	if err != nil {
		t.Fatalf("early closure advance: %v", err)
	}
	if !updated.EarlyClosure || updated.EarlyClosureReason != "all voters have voted" {
		t.Fatalf("expected early closure recorded, got %+v", updated)
	}
}

func TestVotingEntryRequiresApprovedSlateAndVoters(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, err := h.phases.CreateElection(ctx, commands.CreateElectionCommand{
		Name:           "Sem chapas",
		SeatCount:      1,
		VotingStartsAt: baseTime.Add(time.Hour),
		VotingEndsAt:   baseTime.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create election: %v", err)
	}
	h.advance(t, election.ElectionID, entities.PhaseRegistration)
	if _, err := h.roll.RegisterSlate(ctx, commands.RegisterSlateCommand{
		ElectionID: election.ElectionID,
		Name:       "Pendente",
		Number:     1,
	}); err != nil {
		t.Fatalf("register slate: %v", err)
	}
	h.advance(t, election.ElectionID, entities.PhaseCampaign)
	if _, err := h.roll.ImportVoterRoll(ctx, commands.ImportVoterRollCommand{
		ElectionID: election.ElectionID,
		Entries:    []commands.VoterRollEntry{{IdentityID: "voter-001"}},
	}); err != nil {
		t.Fatalf("import roll: %v", err)
	}

	_, err = h.phases.Advance(ctx, commands.AdvanceCommand{
		ElectionID: election.ElectionID,
		Target:     entities.PhaseVoting,
	})
	if !errors.Is(err, domainerrors.ErrPreconditionFailed) {
		t.Fatalf("expected precondition failure without approved slate, got %v", err)
	}
}

func TestSuspendAndResumeRestoreExactState(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, slates := h.votingElection(t, 1, 3, slateSpec{name: "Chapa A"})

	suspended, err := h.phases.Suspend(ctx, commands.PhaseChangeCommand{
		ElectionID: election.ElectionID,
		Actor:      "admin",
		Reason:     "court order",
	})
	if err != nil {
		t.Fatalf("suspend: %v", err)
	}
	if suspended.Status != entities.StatusSuspended || suspended.Phase != entities.PhaseVoting {
		t.Fatalf("unexpected suspended state %s/%s", suspended.Status, suspended.Phase)
	}

	_, err = h.cast.CastBallot(ctx, commands.CastBallotCommand{
		ElectionID: election.ElectionID,
		Credential: voterID(1),
		SlateID:    slates[0].SlateID,
	})
	if !errors.Is(err, domainerrors.ErrElectionNotOpenForVoting) {
		t.Fatalf("expected cast to observe suspension, got %v", err)
	}
	if _, err := h.phases.Suspend(ctx, commands.PhaseChangeCommand{ElectionID: election.ElectionID, Reason: "again"}); !errors.Is(err, domainerrors.ErrInvalidTransition) {
		t.Fatalf("expected double suspend to fail, got %v", err)
	}

	resumed, err := h.phases.Resume(ctx, commands.PhaseChangeCommand{ElectionID: election.ElectionID, Actor: "admin"})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if resumed.Status != election.Status || resumed.Phase != election.Phase {
		t.Fatalf("expected %s/%s after resume, got %s/%s", election.Status, election.Phase, resumed.Status, resumed.Phase)
	}
	h.castFor(t, election.ElectionID, 1, slates[0].SlateID)

	history, err := h.store.ListTransitions(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	for i, transition := range history {
		if transition.Sequence != i+1 {
			t.Fatalf("expected contiguous sequence, got %d at %d", transition.Sequence, i)
		}
	}
	last := history[len(history)-1]
	if last.FromStatus != entities.StatusSuspended || last.ToStatus != entities.StatusInProgress {
		t.Fatalf("unexpected resume transition %+v", last)
	}
}

func TestSuspendRequiresReasonAndCancelIsTerminal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, _ := h.votingElection(t, 1, 3, slateSpec{name: "Chapa A"})

	if _, err := h.phases.Suspend(ctx, commands.PhaseChangeCommand{ElectionID: election.ElectionID}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for missing reason, got %v", err)
	}
	if _, err := h.phases.Cancel(ctx, commands.PhaseChangeCommand{ElectionID: election.ElectionID, Reason: "fraud"}); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := h.phases.Resume(ctx, commands.PhaseChangeCommand{ElectionID: election.ElectionID}); !errors.Is(err, domainerrors.ErrElectionNotSuspended) {
		t.Fatalf("expected resume of cancelled election to fail, got %v", err)
	}
	if _, err := h.phases.Suspend(ctx, commands.PhaseChangeCommand{ElectionID: election.ElectionID, Reason: "x"}); !errors.Is(err, domainerrors.ErrElectionTerminal) {
		t.Fatalf("expected suspend after cancel to fail, got %v", err)
	}
	h.clock.Set(baseTime.Add(11 * time.Hour))
	if _, err := h.phases.Advance(ctx, commands.AdvanceCommand{ElectionID: election.ElectionID, Target: entities.PhaseTallying}); !errors.Is(err, domainerrors.ErrElectionTerminal) {
		t.Fatalf("expected advance after cancel to fail, got %v", err)
	}
	if _, err := h.tally.ComputeTally(ctx, commands.ComputeTallyCommand{ElectionID: election.ElectionID, Mode: entities.TallyModePartial}); !errors.Is(err, domainerrors.ErrTallyNotPermitted) {
		t.Fatalf("expected tally of cancelled election to fail, got %v", err)
	}

	retired, err := h.phases.Retire(ctx, commands.PhaseChangeCommand{ElectionID: election.ElectionID})
	if err != nil {
		t.Fatalf("retire: %v", err)
	}
	if !retired.Retired {
		t.Fatal("expected retired flag")
	}
	listed, err := h.store.ListElections(ctx, "")
	if err != nil {
		t.Fatalf("list elections: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected retired election hidden from listings, got %d", len(listed))
	}
}

func TestInstallationRequiresHomologatedTally(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, slates := h.votingElection(t, 1, 3, slateSpec{name: "Chapa A"})
	h.castFor(t, election.ElectionID, 1, slates[0].SlateID)
	h.closeVoting(t, election.ElectionID)
	h.advance(t, election.ElectionID, entities.PhaseResult)

	_, err := h.phases.Advance(ctx, commands.AdvanceCommand{ElectionID: election.ElectionID, Target: entities.PhaseInstallation})
	if !errors.Is(err, domainerrors.ErrPreconditionFailed) {
		t.Fatalf("expected installation to need homologation, got %v", err)
	}

	tallies, err := h.store.ListTallies(ctx, election.ElectionID)
	if err != nil || len(tallies) != 1 {
		t.Fatalf("expected one final tally from result entry, got %d (%v)", len(tallies), err)
	}
	if tallies[0].Mode != entities.TallyModeFinal {
		t.Fatalf("expected final tally, got %s", tallies[0].Mode)
	}
	if _, err := h.tally.Homologate(ctx, commands.HomologateCommand{TallyID: tallies[0].TallyID, Actor: "commission"}); err != nil {
		t.Fatalf("homologate: %v", err)
	}
	installed := h.advance(t, election.ElectionID, entities.PhaseInstallation)
	if installed.Status != entities.StatusFinalized {
		t.Fatalf("expected finalized, got %s", installed.Status)
	}
}

func TestConcurrentAdvanceCommitsOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, err := h.phases.CreateElection(ctx, commands.CreateElectionCommand{
		Name:           "Concorrente",
		SeatCount:      1,
		VotingStartsAt: baseTime.Add(time.Hour),
		VotingEndsAt:   baseTime.Add(2 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create election: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.phases.Advance(ctx, commands.AdvanceCommand{
				ElectionID: election.ElectionID,
				Target:     entities.PhaseRegistration,
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domainerrors.ErrConcurrentModification), errors.Is(err, domainerrors.ErrInvalidTransition):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful advance, got %d", successes)
	}
	history, _ := h.store.ListTransitions(ctx, election.ElectionID)
	if len(history) != 2 {
		t.Fatalf("expected creation plus one transition, got %d", len(history))
	}
}
