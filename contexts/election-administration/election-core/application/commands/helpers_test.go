package commands_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/integrity"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/memory"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
)

var baseTime = time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

type harness struct {
	store  *memory.Store
	clock  *fixedClock
	phases commands.PhaseUseCase
	roll   commands.RollUseCase
	cast   commands.CastUseCase
	tally  commands.TallyUseCase
}

func newHarness(t *testing.T, criteria ...entities.TieBreakCriterion) *harness {
	t.Helper()
	store := memory.NewStore()
	clock := &fixedClock{now: baseTime}
	hasher, err := integrity.NewHasher("test-secret")
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	tally := commands.TallyUseCase{
		Elections: store,
		Ballots:   store,
		Tallies:   store,
		Hasher:    hasher,
		Audit:     store,
		Outbox:    store,
		Clock:     clock,
		IDGen:     store,
		Criteria:  criteria,
	}
	return &harness{
		store: store,
		clock: clock,
		phases: commands.PhaseUseCase{
			Elections: store,
			Slates:    store,
			Voters:    store,
			Tallies:   store,
			Tallying:  tally,
			Audit:     store,
			Outbox:    store,
			Clock:     clock,
			IDGen:     store,
		},
		roll: commands.RollUseCase{
			Elections: store,
			Slates:    store,
			Voters:    store,
			Audit:     store,
			Clock:     clock,
			IDGen:     store,
		},
		cast: commands.CastUseCase{
			Elections: store,
			Slates:    store,
			Voters:    store,
			Ballots:   store,
			Identity:  store,
			Hasher:    hasher,
			Audit:     store,
			Clock:     clock,
			IDGen:     store,
		},
		tally: tally,
	}
}

type slateSpec struct {
	name      string
	incumbent bool
}

// votingElection drives a fresh election into the Voting phase with the
// given approved slates and voter-001..voter-N on the roll.
func (h *harness) votingElection(t *testing.T, seats int, voters int, slates ...slateSpec) (entities.Election, []entities.Slate) {
	t.Helper()
	ctx := context.Background()
	h.clock.Set(baseTime)
	election, err := h.phases.CreateElection(ctx, commands.CreateElectionCommand{
		Name:           "Conselho 2024",
		SeatCount:      seats,
		VotingStartsAt: baseTime.Add(2 * time.Hour),
		VotingEndsAt:   baseTime.Add(10 * time.Hour),
		Actor:          "admin",
	})
	if err != nil {
		t.Fatalf("create election: %v", err)
	}
	h.advance(t, election.ElectionID, entities.PhaseRegistration)

	registered := make([]entities.Slate, 0, len(slates))
	for i, s := range slates {
		slate, err := h.roll.RegisterSlate(ctx, commands.RegisterSlateCommand{
			ElectionID: election.ElectionID,
			Name:       s.name,
			Number:     i + 1,
			Incumbent:  s.incumbent,
			Actor:      "admin",
		})
		if err != nil {
			t.Fatalf("register slate %s: %v", s.name, err)
		}
		slate, err = h.roll.ApproveSlate(ctx, commands.SlateStatusCommand{
			ElectionID: election.ElectionID,
			SlateID:    slate.SlateID,
			Actor:      "admin",
		})
		if err != nil {
			t.Fatalf("approve slate %s: %v", s.name, err)
		}
		registered = append(registered, slate)
	}

	h.advance(t, election.ElectionID, entities.PhaseCampaign)
	if voters > 0 {
		entries := make([]commands.VoterRollEntry, 0, voters)
		for i := 1; i <= voters; i++ {
			entries = append(entries, commands.VoterRollEntry{IdentityID: voterID(i), SectionRef: "S1"})
		}
		if _, err := h.roll.ImportVoterRoll(ctx, commands.ImportVoterRollCommand{
			ElectionID: election.ElectionID,
			Entries:    entries,
			Actor:      "admin",
		}); err != nil {
			t.Fatalf("import voter roll: %v", err)
		}
	}
	h.clock.Set(baseTime.Add(3 * time.Hour))
	election = h.advance(t, election.ElectionID, entities.PhaseVoting)
	return election, registered
}

func (h *harness) advance(t *testing.T, electionID string, target entities.Phase) entities.Election {
	t.Helper()
	election, err := h.phases.Advance(context.Background(), commands.AdvanceCommand{
		ElectionID: electionID,
		Target:     target,
		Actor:      "admin",
	})
	if err != nil {
		t.Fatalf("advance to %s: %v", target, err)
	}
	return election
}

// closeVoting moves the clock past the window and enters Tallying.
func (h *harness) closeVoting(t *testing.T, electionID string) {
	t.Helper()
	h.clock.Set(baseTime.Add(11 * time.Hour))
	h.advance(t, electionID, entities.PhaseTallying)
}

func (h *harness) castFor(t *testing.T, electionID string, voter int, slateID string) entities.Receipt {
	t.Helper()
	receipt, err := h.cast.CastBallot(context.Background(), commands.CastBallotCommand{
		ElectionID: electionID,
		Credential: voterID(voter),
		SlateID:    slateID,
	})
	if err != nil {
		t.Fatalf("cast for %s: %v", voterID(voter), err)
	}
	return receipt
}

func voterID(i int) string {
	return fmt.Sprintf("voter-%03d", i)
}

func votesFor(result entities.TallyResult, slateID string) int {
	for _, row := range result.Slates {
		if row.SlateID == slateID {
			return row.Votes
		}
	}
	return -1
}

func rowFor(result entities.TallyResult, slateID string) entities.TallyResultBySlate {
	for _, row := range result.Slates {
		if row.SlateID == slateID {
			return row
		}
	}
	return entities.TallyResultBySlate{}
}
