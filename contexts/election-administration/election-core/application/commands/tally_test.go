package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	hashing "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/integrity"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/memory"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	auditv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/audit/v1"
)

func (h *harness) finalTally(t *testing.T, electionID string) entities.TallyResult {
	t.Helper()
	result, err := h.tally.ComputeTally(context.Background(), commands.ComputeTallyCommand{
		ElectionID: electionID,
		Mode:       entities.TallyModeFinal,
		Actor:      "commission",
	})
	if err != nil {
		t.Fatalf("final tally: %v", err)
	}
	return result
}

func TestPartialTallyDuringVoting(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, slates := h.votingElection(t, 1, 1000, slateSpec{name: "Chapa A"}, slateSpec{name: "Chapa B"})
	for i := 1; i <= 400; i++ {
		h.castFor(t, election.ElectionID, i, slates[i%2].SlateID)
	}

	result, err := h.tally.ComputeTally(ctx, commands.ComputeTallyCommand{
		ElectionID: election.ElectionID,
		Mode:       entities.TallyModePartial,
	})
	if err != nil {
		t.Fatalf("partial tally: %v", err)
	}
	if !result.Partial || result.PercentCounted != 40 {
		t.Fatalf("expected partial with 40%% counted, got partial=%v percent=%v", result.Partial, result.PercentCounted)
	}
	if result.VotedCount != 400 || result.AbstainedCount != 600 {
		t.Fatalf("expected voted=400 abstained=600, got %d/%d", result.VotedCount, result.AbstainedCount)
	}
	for _, row := range result.Slates {
		if row.Elected {
			t.Fatalf("partial tally must not mark slates elected, got %+v", row)
		}
	}
	if _, found, _ := h.store.GetDraw(ctx, election.ElectionID); found {
		t.Fatal("partial tally must not persist a draw")
	}

	_, err = h.tally.ComputeTally(ctx, commands.ComputeTallyCommand{
		ElectionID: election.ElectionID,
		Mode:       entities.TallyModeFinal,
	})
	if !errors.Is(err, domainerrors.ErrTallyNotPermitted) {
		t.Fatalf("expected final tally rejected during voting, got %v", err)
	}
}

func TestFinalTallyIsReproducible(t *testing.T) {
	h := newHarness(t)
	election, slates := h.votingElection(t, 1, 10, slateSpec{name: "Chapa A"}, slateSpec{name: "Chapa B"})
	for i := 1; i <= 7; i++ {
		h.castFor(t, election.ElectionID, i, slates[0].SlateID)
	}
	h.castFor(t, election.ElectionID, 8, slates[1].SlateID)
	if _, err := h.cast.CastBallot(context.Background(), commands.CastBallotCommand{
		ElectionID: election.ElectionID,
		Credential: voterID(9),
		Kind:       entities.VoteKindBlank,
	}); err != nil {
		t.Fatalf("blank cast: %v", err)
	}
	h.closeVoting(t, election.ElectionID)

	first := h.finalTally(t, election.ElectionID)
	second := h.finalTally(t, election.ElectionID)
	if first.ResultHash != second.ResultHash || first.InputHash != second.InputHash {
		t.Fatalf("expected identical hashes across runs, got %s/%s", first.ResultHash, second.ResultHash)
	}
	if first.Version == second.Version || first.TallyID == second.TallyID {
		t.Fatal("expected each run to store a new tally version")
	}
	if len(first.Slates) != len(second.Slates) {
		t.Fatalf("expected identical rows, got %d and %d", len(first.Slates), len(second.Slates))
	}
	for i := range first.Slates {
		if first.Slates[i] != second.Slates[i] {
			t.Fatalf("row %d differs: %+v vs %+v", i, first.Slates[i], second.Slates[i])
		}
	}
	winner := rowFor(first, slates[0].SlateID)
	if winner.Rank != 1 || !winner.Elected || winner.Votes != 7 {
		t.Fatalf("expected slate A elected with 7 votes, got %+v", winner)
	}
	if first.ValidCount != 8 || first.BlankCount != 1 || first.AbstainedCount != 1 || first.PercentCounted != 100 {
		t.Fatalf("unexpected counts: %+v", first)
	}
	if first.TieBreakApplied {
		t.Fatal("no tie-break expected")
	}
}

func TestDrawIsPersistedAndReused(t *testing.T) {
	h := newHarness(t, entities.TieBreakByDraw)
	ctx := context.Background()
	election, slates := h.votingElection(t, 1, 4, slateSpec{name: "Chapa A"}, slateSpec{name: "Chapa B"})
	h.castFor(t, election.ElectionID, 1, slates[0].SlateID)
	h.castFor(t, election.ElectionID, 2, slates[1].SlateID)
	h.closeVoting(t, election.ElectionID)

	first := h.finalTally(t, election.ElectionID)
	draw, found, err := h.store.GetDraw(ctx, election.ElectionID)
	if err != nil || !found {
		t.Fatalf("expected draw persisted, found=%v err=%v", found, err)
	}
	if first.DrawSeed != draw.Seed || !first.TieBreakApplied {
		t.Fatalf("expected tally to record the draw seed, got %+v", first)
	}
	if first.Slates[0].TieBreakCriterion != entities.TieBreakByDraw {
		t.Fatalf("expected draw criterion on the winner, got %+v", first.Slates[0])
	}

	second := h.finalTally(t, election.ElectionID)
	if second.DrawSeed != draw.Seed || second.ResultHash != first.ResultHash {
		t.Fatal("expected later runs to reuse the stored draw")
	}
	again, _, _ := h.store.GetDraw(ctx, election.ElectionID)
	if again.Seed != draw.Seed {
		t.Fatal("draw must never be replaced")
	}
}

func TestIncumbencyBreaksTie(t *testing.T) {
	h := newHarness(t)
	election, slates := h.votingElection(t, 1, 4,
		slateSpec{name: "Chapa A"},
		slateSpec{name: "Chapa B", incumbent: true},
	)
	h.castFor(t, election.ElectionID, 1, slates[0].SlateID)
	h.castFor(t, election.ElectionID, 2, slates[1].SlateID)
	h.closeVoting(t, election.ElectionID)

	result := h.finalTally(t, election.ElectionID)
	incumbent := rowFor(result, slates[1].SlateID)
	if incumbent.Rank != 1 || !incumbent.Elected || incumbent.TieBreakCriterion != entities.TieBreakIncumbency {
		t.Fatalf("expected incumbent ranked first by incumbency, got %+v", incumbent)
	}
	challenger := rowFor(result, slates[0].SlateID)
	if challenger.Rank != 2 || challenger.Elected {
		t.Fatalf("expected challenger second and not elected, got %+v", challenger)
	}
	if result.DrawSeed != "" {
		t.Fatal("no draw expected when incumbency decides")
	}
}

func TestDuplicateVoterHashHaltsTally(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, slates := h.votingElection(t, 1, 3, slateSpec{name: "Chapa A"})
	h.castFor(t, election.ElectionID, 1, slates[0].SlateID)

	snapshot, err := h.store.Snapshot(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	hasher, err := hashing.NewHasher("test-secret")
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	duplicate := snapshot.Ballots[0]
	duplicate.BallotID = "injected"
	duplicate.Nonce = "injected-nonce"
	duplicate.BallotHash, err = hasher.BallotHash(duplicate.Content())
	if err != nil {
		t.Fatalf("ballot hash: %v", err)
	}
	h.store.SeedBallot(duplicate)
	h.closeVoting(t, election.ElectionID)

	_, err = h.tally.ComputeTally(ctx, commands.ComputeTallyCommand{
		ElectionID: election.ElectionID,
		Mode:       entities.TallyModeFinal,
	})
	if !errors.Is(err, domainerrors.ErrDuplicateBallot) {
		t.Fatalf("expected duplicate ballot, got %v", err)
	}
	if !hasViolation(h, "duplicate_voter_hash") {
		t.Fatal("expected a violation audit entry for the duplicate voter hash")
	}
	tallies, err := h.store.ListTallies(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("list tallies: %v", err)
	}
	if len(tallies) != 0 {
		t.Fatalf("expected no tally stored, got %d", len(tallies))
	}
}

func TestTamperedBallotHaltsTally(t *testing.T) {
	h := newHarness(t)
	election, slates := h.votingElection(t, 1, 3, slateSpec{name: "Chapa A"}, slateSpec{name: "Chapa B"})
	receipt := h.castFor(t, election.ElectionID, 1, slates[0].SlateID)
	h.castFor(t, election.ElectionID, 2, slates[1].SlateID)
	if !h.store.ReplaceBallot(receipt.BallotHash, func(b *entities.Ballot) { b.SlateID = slates[1].SlateID }) {
		t.Fatal("expected ballot to be replaced")
	}

	_, err := h.tally.ComputeTally(context.Background(), commands.ComputeTallyCommand{
		ElectionID: election.ElectionID,
		Mode:       entities.TallyModePartial,
	})
	if !errors.Is(err, domainerrors.ErrIntegrityViolation) {
		t.Fatalf("expected integrity violation, got %v", err)
	}
	if !hasViolation(h, "ballot_hash_mismatch") {
		t.Fatal("expected a violation audit entry for the hash mismatch")
	}
}

func TestHomologationLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, slates := h.votingElection(t, 1, 5, slateSpec{name: "Chapa A"}, slateSpec{name: "Chapa B"})
	h.castFor(t, election.ElectionID, 1, slates[0].SlateID)
	h.castFor(t, election.ElectionID, 2, slates[0].SlateID)
	disputed := h.castFor(t, election.ElectionID, 3, slates[1].SlateID)
	h.closeVoting(t, election.ElectionID)

	partial, err := h.tally.ComputeTally(ctx, commands.ComputeTallyCommand{
		ElectionID: election.ElectionID,
		Mode:       entities.TallyModePartial,
	})
	if err != nil {
		t.Fatalf("partial tally: %v", err)
	}
	if _, err := h.tally.Homologate(ctx, commands.HomologateCommand{TallyID: partial.TallyID}); !errors.Is(err, domainerrors.ErrNotFinalTally) {
		t.Fatalf("expected partial tally refused, got %v", err)
	}

	stale := h.finalTally(t, election.ElectionID)
	if _, err := h.tally.NullifyBallot(ctx, commands.NullifyBallotCommand{
		ElectionID: election.ElectionID,
		BallotHash: disputed.BallotHash,
		VerdictID:  "verdict-1",
		Reason:     "coerced vote",
	}); err != nil {
		t.Fatalf("nullify: %v", err)
	}
	if _, err := h.tally.Homologate(ctx, commands.HomologateCommand{TallyID: stale.TallyID}); !errors.Is(err, domainerrors.ErrStaleTally) {
		t.Fatalf("expected stale tally refused, got %v", err)
	}

	current := h.finalTally(t, election.ElectionID)
	if current.VoidedCount != 1 || votesFor(current, slates[1].SlateID) != 0 {
		t.Fatalf("expected nullified ballot voided, got %+v", current)
	}
	frozen, err := h.tally.Homologate(ctx, commands.HomologateCommand{TallyID: current.TallyID, Actor: "commission"})
	if err != nil {
		t.Fatalf("homologate: %v", err)
	}
	if !frozen.Homologated || frozen.HomologatedAt == nil || frozen.HomologatedBy != "commission" {
		t.Fatalf("expected frozen tally, got %+v", frozen)
	}
	if frozen.ResultHash != current.ResultHash {
		t.Fatal("homologation must not change the result")
	}

	if _, err := h.tally.Homologate(ctx, commands.HomologateCommand{TallyID: current.TallyID}); !errors.Is(err, domainerrors.ErrAlreadyHomologated) {
		t.Fatalf("expected second homologation refused, got %v", err)
	}
	if _, err := h.tally.Homologate(ctx, commands.HomologateCommand{TallyID: stale.TallyID}); !errors.Is(err, domainerrors.ErrAlreadyHomologated) {
		t.Fatalf("expected other tally refused after homologation, got %v", err)
	}
	if _, err := h.tally.NullifyBallot(ctx, commands.NullifyBallotCommand{
		ElectionID: election.ElectionID,
		BallotHash: disputed.BallotHash,
		Reason:     "late",
	}); !errors.Is(err, domainerrors.ErrAlreadyHomologated) {
		t.Fatalf("expected nullification refused after homologation, got %v", err)
	}
}

func TestDisqualifiedSlateIsExcludedAndVoided(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, slates := h.votingElection(t, 1, 5, slateSpec{name: "Chapa A"}, slateSpec{name: "Chapa B"})
	h.castFor(t, election.ElectionID, 1, slates[0].SlateID)
	h.castFor(t, election.ElectionID, 2, slates[0].SlateID)
	h.castFor(t, election.ElectionID, 3, slates[1].SlateID)
	h.closeVoting(t, election.ElectionID)

	if _, err := h.roll.DisqualifySlate(ctx, commands.SlateStatusCommand{
		ElectionID: election.ElectionID,
		SlateID:    slates[0].SlateID,
		Reason:     "abuse of economic power",
		VerdictID:  "verdict-9",
	}); err != nil {
		t.Fatalf("disqualify: %v", err)
	}

	result := h.finalTally(t, election.ElectionID)
	if len(result.ExcludedSlates) != 1 || result.ExcludedSlates[0] != slates[0].SlateID {
		t.Fatalf("expected slate A excluded, got %v", result.ExcludedSlates)
	}
	if votesFor(result, slates[0].SlateID) != -1 {
		t.Fatal("excluded slate must not be ranked")
	}
	if result.VoidedCount != 2 || result.ValidCount != 1 {
		t.Fatalf("expected 2 voided and 1 valid, got %d/%d", result.VoidedCount, result.ValidCount)
	}
	survivor := rowFor(result, slates[1].SlateID)
	if survivor.Rank != 1 || !survivor.Elected || survivor.PercentValid != 100 {
		t.Fatalf("expected slate B elected, got %+v", survivor)
	}
}

func TestVerifyTallyDetectsDrift(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, slates := h.votingElection(t, 1, 3, slateSpec{name: "Chapa A"})
	first := h.castFor(t, election.ElectionID, 1, slates[0].SlateID)
	h.castFor(t, election.ElectionID, 2, slates[0].SlateID)
	h.closeVoting(t, election.ElectionID)
	stored := h.finalTally(t, election.ElectionID)

	verification, err := h.tally.VerifyTally(ctx, stored.TallyID)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !verification.Reproducible() {
		t.Fatalf("expected reproducible tally, got %+v", verification)
	}

	if _, err := h.tally.NullifyBallot(ctx, commands.NullifyBallotCommand{
		ElectionID: election.ElectionID,
		BallotHash: first.BallotHash,
		Reason:     "verdict",
	}); err != nil {
		t.Fatalf("nullify: %v", err)
	}
	verification, err = h.tally.VerifyTally(ctx, stored.TallyID)
	if err != nil {
		t.Fatalf("verify after nullification: %v", err)
	}
	if verification.InputHashMatches || verification.Reproducible() {
		t.Fatal("expected drift after nullification")
	}
	if !verification.StoredHashValid {
		t.Fatal("stored result hash should still match stored fields")
	}
}

func hasViolation(h *harness, reason string) bool {
	for _, entry := range h.store.AuditEntries() {
		if entry.Severity == auditv1.SeverityViolation && entry.Details["reason"] == reason {
			return true
		}
	}
	return false
}

// interleavedTallies calls before just ahead of the homologation write, in the
// window between the stale check and the store update.
type interleavedTallies struct {
	*memory.Store
	before func()
}

func (r interleavedTallies) MarkHomologated(
	ctx context.Context,
	tallyID string,
	expected entities.TallyInputGuard,
	actor string,
	at time.Time,
) (entities.TallyResult, error) {
	if r.before != nil {
		r.before()
	}
	return r.Store.MarkHomologated(ctx, tallyID, expected, actor, at)
}

func TestHomologateRejectsNullificationDuringHomologation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	election, slates := h.votingElection(t, 1, 5, slateSpec{name: "Chapa A"}, slateSpec{name: "Chapa B"})
	h.castFor(t, election.ElectionID, 1, slates[0].SlateID)
	disputed := h.castFor(t, election.ElectionID, 2, slates[1].SlateID)
	h.closeVoting(t, election.ElectionID)
	final := h.finalTally(t, election.ElectionID)

	uc := h.tally
	uc.Tallies = interleavedTallies{Store: h.store, before: func() {
		if _, err := h.tally.NullifyBallot(ctx, commands.NullifyBallotCommand{
			ElectionID: election.ElectionID,
			BallotHash: disputed.BallotHash,
			VerdictID:  "verdict-1",
			Reason:     "coerced vote",
		}); err != nil {
			t.Fatalf("nullify: %v", err)
		}
	}}
	if _, err := uc.Homologate(ctx, commands.HomologateCommand{TallyID: final.TallyID, Actor: "commission"}); !errors.Is(err, domainerrors.ErrStaleTally) {
		t.Fatalf("expected stale tally refused, got %v", err)
	}
	homologated, err := h.store.HasHomologated(ctx, election.ElectionID)
	if err != nil || homologated {
		t.Fatalf("expected nothing homologated, got %v / %v", homologated, err)
	}
}
