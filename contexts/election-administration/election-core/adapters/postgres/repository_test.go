package postgresadapter_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	postgresadapter "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/adapters/postgres"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var repoBase = time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

func newRepository(t *testing.T) *postgresadapter.Repository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("resolve sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := postgresadapter.NewRepository(db, nil)
	if err := repo.AutoMigrate(context.Background()); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return repo
}

func seedVotingElection(t *testing.T, repo *postgresadapter.Repository) entities.Election {
	t.Helper()
	ctx := context.Background()
	election := entities.Election{
		ElectionID:     "election-1",
		Name:           "Conselho 2024",
		Status:         entities.StatusInProgress,
		Phase:          entities.PhaseVoting,
		VotingMode:     entities.VotingModeOnline,
		SeatCount:      1,
		VotingStartsAt: repoBase.Add(-time.Hour),
		VotingEndsAt:   repoBase.Add(time.Hour),
		Version:        1,
		CreatedAt:      repoBase.Add(-48 * time.Hour),
		UpdatedAt:      repoBase.Add(-48 * time.Hour),
	}
	if err := repo.CreateElection(ctx, election, entities.PhaseTransition{
		TransitionID: "transition-1",
		ElectionID:   election.ElectionID,
		Sequence:     1,
		ToPhase:      entities.PhaseVoting,
		ToStatus:     entities.StatusInProgress,
		OccurredAt:   election.CreatedAt,
	}); err != nil {
		t.Fatalf("create election: %v", err)
	}
	if err := repo.SaveSlate(ctx, entities.Slate{
		SlateID:           "slate-a",
		ElectionID:        election.ElectionID,
		Name:              "Chapa A",
		Number:            10,
		Status:            entities.SlateStatusApproved,
		RegistrationOrder: 1,
		Active:            true,
	}); err != nil {
		t.Fatalf("save slate: %v", err)
	}
	voters := []entities.EligibleVoter{
		{ElectionID: election.ElectionID, IdentityID: "voter-1", Eligible: true, Active: true},
		{ElectionID: election.ElectionID, IdentityID: "voter-2", Eligible: true, Active: true},
		{ElectionID: election.ElectionID, IdentityID: "voter-3", Eligible: false, IneligibilityReason: "debt", Active: true},
	}
	if _, err := repo.UpsertVoters(ctx, voters); err != nil {
		t.Fatalf("upsert voters: %v", err)
	}
	return election
}

func ballotFor(electionID string, voterHash string, ballotHash string) entities.Ballot {
	return entities.Ballot{
		BallotID:   "ballot-" + ballotHash,
		ElectionID: electionID,
		SlateID:    "slate-a",
		Kind:       entities.VoteKindValid,
		VoterHash:  voterHash,
		BallotHash: ballotHash,
		Nonce:      "nonce-" + ballotHash,
		CastAt:     repoBase,
	}
}

func TestRepositoryCommitCastEnforcesOneBallotPerVoter(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	election := seedVotingElection(t, repo)

	if err := repo.CommitCast(ctx, "voter-1", ballotFor(election.ElectionID, "vh-1", "bh-1")); err != nil {
		t.Fatalf("first cast: %v", err)
	}
	if err := repo.CommitCast(ctx, "voter-1", ballotFor(election.ElectionID, "vh-1b", "bh-1b")); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected already voted, got %v", err)
	}
	if err := repo.CommitCast(ctx, "voter-3", ballotFor(election.ElectionID, "vh-3", "bh-3")); !errors.Is(err, domainerrors.ErrNotEligible) {
		t.Fatalf("expected not eligible, got %v", err)
	}
	if err := repo.CommitCast(ctx, "voter-2", ballotFor(election.ElectionID, "vh-1", "bh-2")); !errors.Is(err, domainerrors.ErrDuplicateBallot) {
		t.Fatalf("expected duplicate ballot on reused voter hash, got %v", err)
	}

	voter, err := repo.GetVoter(ctx, election.ElectionID, "voter-2")
	if err != nil {
		t.Fatalf("get voter: %v", err)
	}
	if voter.HasVoted {
		t.Fatal("a rejected cast must not leave the voter marked as voted")
	}

	late := ballotFor(election.ElectionID, "vh-2", "bh-late")
	late.CastAt = repoBase.Add(time.Hour)
	if err := repo.CommitCast(ctx, "voter-2", late); !errors.Is(err, domainerrors.ErrElectionNotOpenForVoting) {
		t.Fatalf("expected window end to reject, got %v", err)
	}

	snapshot, err := repo.Snapshot(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snapshot.Ballots) != 1 || snapshot.EligibleCount != 2 || len(snapshot.Slates) != 1 {
		t.Fatalf("unexpected snapshot: ballots=%d eligible=%d slates=%d",
			len(snapshot.Ballots), snapshot.EligibleCount, len(snapshot.Slates))
	}
	if !snapshot.Ballots[0].CastAt.Equal(repoBase) {
		t.Fatalf("expected cast time preserved, got %s", snapshot.Ballots[0].CastAt)
	}

	if _, err := repo.UpsertVoters(ctx, []entities.EligibleVoter{
		{ElectionID: election.ElectionID, IdentityID: "voter-1", Eligible: false, Active: true},
	}); err != nil {
		t.Fatalf("re-import: %v", err)
	}
	voter, err = repo.GetVoter(ctx, election.ElectionID, "voter-1")
	if err != nil {
		t.Fatalf("get voter after re-import: %v", err)
	}
	if !voter.HasVoted || !voter.Eligible {
		t.Fatalf("re-import must not touch a voter who already voted, got %+v", voter)
	}
	if err := repo.SetIneligible(ctx, election.ElectionID, "voter-1", "late"); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ineligibility after voting rejected, got %v", err)
	}
}

func TestRepositoryUpdateElectionIsCompareAndSwap(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	election := seedVotingElection(t, repo)

	updated := election
	updated.Phase = entities.PhaseTallying
	updated.Status = entities.StatusClosed
	updated.Version = 2
	transition := entities.PhaseTransition{
		TransitionID: "transition-2",
		ElectionID:   election.ElectionID,
		Sequence:     2,
		FromPhase:    entities.PhaseVoting,
		ToPhase:      entities.PhaseTallying,
		OccurredAt:   repoBase,
	}
	if err := repo.UpdateElection(ctx, updated, 1, transition); err != nil {
		t.Fatalf("update: %v", err)
	}
	transition.TransitionID = "transition-2b"
	if err := repo.UpdateElection(ctx, updated, 1, transition); !errors.Is(err, domainerrors.ErrConcurrentModification) {
		t.Fatalf("expected stale version rejected, got %v", err)
	}

	history, err := repo.ListTransitions(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("list transitions: %v", err)
	}
	if len(history) != 2 || history[1].ToPhase != entities.PhaseTallying {
		t.Fatalf("expected two transitions ending in tallying, got %+v", history)
	}
	listed, err := repo.ListElections(ctx, entities.PhaseTallying)
	if err != nil {
		t.Fatalf("list elections: %v", err)
	}
	if len(listed) != 1 || listed[0].Version != 2 {
		t.Fatalf("expected updated election listed, got %+v", listed)
	}
}

func TestRepositoryTallyVersionsAndHomologation(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	election := seedVotingElection(t, repo)

	for i := 1; i <= 2; i++ {
		version, err := repo.NextTallyVersion(ctx, election.ElectionID)
		if err != nil {
			t.Fatalf("next version: %v", err)
		}
		if version != i {
			t.Fatalf("expected version %d, got %d", i, version)
		}
		if err := repo.SaveTally(ctx, entities.TallyResult{
			TallyID:    fmt.Sprintf("tally-%d", i),
			ElectionID: election.ElectionID,
			Version:    version,
			Mode:       entities.TallyModeFinal,
			ResultHash: "hash",
			ComputedAt: repoBase,
			Slates: []entities.TallyResultBySlate{
				{SlateID: "slate-a", Votes: 1, Rank: 1, Elected: true, PercentValid: 100},
			},
		}); err != nil {
			t.Fatalf("save tally: %v", err)
		}
	}
	if err := repo.SaveTally(ctx, entities.TallyResult{TallyID: "tally-dup", ElectionID: election.ElectionID, Version: 2}); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	snapshot, err := repo.Snapshot(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	guard := entities.InputGuardOf(snapshot)
	frozen, err := repo.MarkHomologated(ctx, "tally-2", guard, "commission", repoBase)
	if err != nil {
		t.Fatalf("homologate: %v", err)
	}
	if !frozen.Homologated || frozen.HomologatedBy != "commission" || len(frozen.Slates) != 1 {
		t.Fatalf("unexpected frozen tally: %+v", frozen)
	}
	if _, err := repo.MarkHomologated(ctx, "tally-1", guard, "commission", repoBase); !errors.Is(err, domainerrors.ErrAlreadyHomologated) {
		t.Fatalf("expected second homologation rejected, got %v", err)
	}

	first, err := repo.SaveDrawIfAbsent(ctx, entities.TieBreakDraw{ElectionID: election.ElectionID, Seed: "seed-1", DrawnAt: repoBase})
	if err != nil {
		t.Fatalf("save draw: %v", err)
	}
	second, err := repo.SaveDrawIfAbsent(ctx, entities.TieBreakDraw{ElectionID: election.ElectionID, Seed: "seed-2", DrawnAt: repoBase})
	if err != nil {
		t.Fatalf("save draw again: %v", err)
	}
	if first.Seed != "seed-1" || second.Seed != "seed-1" {
		t.Fatalf("expected the first draw to stick, got %s and %s", first.Seed, second.Seed)
	}
}

func TestRepositoryMarkHomologatedRejectsChangedInputs(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	election := seedVotingElection(t, repo)
	if err := repo.CommitCast(ctx, "voter-1", ballotFor(election.ElectionID, "vh-1", "bh-1")); err != nil {
		t.Fatalf("cast: %v", err)
	}
	if err := repo.SaveTally(ctx, entities.TallyResult{
		TallyID:    "tally-1",
		ElectionID: election.ElectionID,
		Version:    1,
		Mode:       entities.TallyModeFinal,
		ComputedAt: repoBase,
	}); err != nil {
		t.Fatalf("save tally: %v", err)
	}
	snapshot, err := repo.Snapshot(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	checked := entities.InputGuardOf(snapshot)

	if err := repo.SaveNullification(ctx, entities.BallotNullification{
		NullificationID: "nullification-1",
		ElectionID:      election.ElectionID,
		BallotHash:      "bh-1",
		Reason:          "court order",
		CreatedAt:       repoBase,
	}); err != nil {
		t.Fatalf("nullify: %v", err)
	}
	if _, err := repo.MarkHomologated(ctx, "tally-1", checked, "commission", repoBase); !errors.Is(err, domainerrors.ErrStaleTally) {
		t.Fatalf("expected stale tally after nullification, got %v", err)
	}

	withdrawn := entities.Slate{
		SlateID:           "slate-a",
		ElectionID:        election.ElectionID,
		Name:              "Chapa A",
		Number:            10,
		Status:            entities.SlateStatusWithdrawn,
		RegistrationOrder: 1,
		Active:            true,
	}
	snapshot, err = repo.Snapshot(ctx, election.ElectionID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	checked = entities.InputGuardOf(snapshot)
	if err := repo.SaveSlate(ctx, withdrawn); err != nil {
		t.Fatalf("withdraw slate: %v", err)
	}
	if _, err := repo.MarkHomologated(ctx, "tally-1", checked, "commission", repoBase); !errors.Is(err, domainerrors.ErrStaleTally) {
		t.Fatalf("expected stale tally after slate withdrawal, got %v", err)
	}
	homologated, err := repo.HasHomologated(ctx, election.ElectionID)
	if err != nil || homologated {
		t.Fatalf("stale tally must not be homologated, got %v / %v", homologated, err)
	}
}
