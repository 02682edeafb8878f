package postgresadapter_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	eventsv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/events/v1"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/integrity"
	postgresadapter "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/postgres"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var repoBase = time.Date(2024, 11, 4, 14, 0, 0, 0, time.UTC)

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

func seedVotingCase(t *testing.T, repo *postgresadapter.Repository) (entities.Session, entities.Case) {
	t.Helper()
	ctx := context.Background()
	if err := repo.CreateCommission(ctx, entities.Commission{
		CommissionID: "commission-1",
		Name:         "Comissao",
		Members: []entities.CommissionMember{
			{MemberID: "pres", Role: entities.RolePresident, Active: true},
			{MemberID: "m1", Role: entities.RoleMember, Active: true},
			{MemberID: "alt", Role: entities.RoleAlternate, Active: false},
		},
	}); err != nil {
		t.Fatalf("create commission: %v", err)
	}
	deadline := repoBase.Add(time.Hour)
	c := entities.Case{
		CaseID:         "case-1",
		Kind:           entities.CaseKindChallenge,
		Subject:        "Impugnacao",
		ElectionID:     "election-1",
		Remedy:         entities.Remedy{Action: entities.RemedyDisqualifySlate, SlateID: "slate-a"},
		State:          entities.CaseVoting,
		SessionID:      "session-1",
		VotingOpenedAt: &repoBase,
		VotingDeadline: &deadline,
		CreatedAt:      repoBase,
		UpdatedAt:      repoBase,
	}
	if err := repo.CreateCase(ctx, c); err != nil {
		t.Fatalf("create case: %v", err)
	}
	session := entities.Session{
		SessionID:    "session-1",
		CommissionID: "commission-1",
		ScheduledFor: repoBase,
		Status:       entities.SessionScheduled,
		Agenda:       []string{"case-1"},
		VotingWindow: time.Hour,
		CreatedAt:    repoBase,
		UpdatedAt:    repoBase,
	}
	if err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	session.Status = entities.SessionOpen
	session.Present = []string{"pres", "m1"}
	session.TieBreakerID = "pres"
	session.OpenedAt = &repoBase
	if err := repo.UpdateSession(ctx, session, entities.SessionScheduled); err != nil {
		t.Fatalf("open session: %v", err)
	}
	return session, c
}

func TestRepositoryRoundTripsCommissionAndSession(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	session, _ := seedVotingCase(t, repo)

	commission, err := repo.GetCommission(ctx, "commission-1")
	if err != nil {
		t.Fatalf("get commission: %v", err)
	}
	if len(commission.Members) != 3 || commission.Members[0].Role != entities.RolePresident || commission.ActiveCount() != 2 {
		t.Fatalf("unexpected commission: %+v", commission)
	}
	stored, err := repo.GetSession(ctx, session.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.Status != entities.SessionOpen || len(stored.Present) != 2 || stored.VotingWindow != time.Hour || stored.TieBreakerID != "pres" {
		t.Fatalf("unexpected session: %+v", stored)
	}
	if err := repo.UpdateSession(ctx, session, entities.SessionScheduled); !errors.Is(err, domainerrors.ErrConcurrentModification) {
		t.Fatalf("expected stale status rejected, got %v", err)
	}
	if _, err := repo.GetCommission(ctx, "missing"); !errors.Is(err, domainerrors.ErrCommissionNotFound) {
		t.Fatalf("expected commission not found, got %v", err)
	}
}

func TestRepositoryVotesAreUniquePerMember(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	session, c := seedVotingCase(t, repo)

	vote := entities.MemberVote{CaseID: c.CaseID, SessionID: session.SessionID, MemberID: "m1", Choice: entities.ChoiceGrant, CastAt: repoBase}
	if err := repo.InsertVote(ctx, vote); err != nil {
		t.Fatalf("insert vote: %v", err)
	}
	vote.Choice = entities.ChoiceDeny
	if err := repo.InsertVote(ctx, vote); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected duplicate vote rejected, got %v", err)
	}
	tieBreak := entities.TieBreakVote{CaseID: c.CaseID, SessionID: session.SessionID, MemberID: "pres", Choice: entities.ChoiceDeny, CastAt: repoBase}
	if err := repo.InsertTieBreak(ctx, tieBreak); err != nil {
		t.Fatalf("insert tie-break: %v", err)
	}
	if err := repo.InsertTieBreak(ctx, tieBreak); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected duplicate tie-break rejected, got %v", err)
	}
	stored, ok, err := repo.GetTieBreak(ctx, c.CaseID, session.SessionID)
	if err != nil || !ok || stored.Choice != entities.ChoiceDeny {
		t.Fatalf("unexpected tie-break lookup: %+v %v %v", stored, ok, err)
	}
	votes, err := repo.ListVotes(ctx, c.CaseID, session.SessionID)
	if err != nil {
		t.Fatalf("list votes: %v", err)
	}
	if len(votes) != 1 || votes[0].Choice != entities.ChoiceGrant {
		t.Fatalf("expected the first vote only, got %+v", votes)
	}
}

func TestRepositoryFinalizeVerdictIsAtomicAndUnique(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	session, c := seedVotingCase(t, repo)

	verdict := entities.Verdict{
		VerdictID:  "verdict-1",
		CaseID:     c.CaseID,
		SessionID:  session.SessionID,
		ElectionID: c.ElectionID,
		Votes: []entities.MemberVote{
			{CaseID: c.CaseID, SessionID: session.SessionID, MemberID: "m1", Choice: entities.ChoiceGrant, CastAt: repoBase},
		},
		Grants:              1,
		Abstentions:         1,
		DeadlineAbstentions: []string{"pres"},
		Resolution:          entities.ResolutionGranted,
		DecisionKind:        entities.DecisionUnanimous,
		Remedy:              c.Remedy,
		DecidedAt:           repoBase.Add(time.Hour),
	}
	stamp, err := integrity.Stamper{}.Stamp(verdict)
	if err != nil {
		t.Fatalf("stamp: %v", err)
	}
	verdict.Stamp = stamp
	envelope, err := eventsv1.New("event-1", eventsv1.TopicVerdictFinalized, "judgment-session", "case_id", c.CaseID, verdict.DecidedAt, map[string]string{"verdict_id": verdict.VerdictID})
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	decided := c
	decided.State = entities.CaseDecided

	if err := repo.FinalizeVerdict(ctx, verdict, decided, entities.CaseVoting, envelope); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	second := verdict
	second.VerdictID = "verdict-2"
	envelope.EventID = "event-2"
	if err := repo.FinalizeVerdict(ctx, second, decided, entities.CaseVoting, envelope); !errors.Is(err, domainerrors.ErrAlreadyDecided) {
		t.Fatalf("expected second verdict rejected, got %v", err)
	}

	pending, err := repo.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 1 || pending[0].OutboxID != "event-1" {
		t.Fatalf("expected only the first event queued, got %+v", pending)
	}

	loaded, err := repo.GetVerdictByCase(ctx, c.CaseID)
	if err != nil {
		t.Fatalf("get verdict: %v", err)
	}
	loaded.Stamp = ""
	recomputed, err := integrity.Stamper{}.Stamp(loaded)
	if err != nil {
		t.Fatalf("restamp: %v", err)
	}
	if recomputed != stamp {
		t.Fatal("a stored verdict must restamp to the same value")
	}
	storedCase, err := repo.GetCase(ctx, c.CaseID)
	if err != nil {
		t.Fatalf("get case: %v", err)
	}
	if storedCase.State != entities.CaseDecided {
		t.Fatalf("expected decided case, got %s", storedCase.State)
	}
	decidedCases, err := repo.ListCasesByState(ctx, entities.CaseDecided)
	if err != nil || len(decidedCases) != 1 {
		t.Fatalf("expected one decided case, got %d, %v", len(decidedCases), err)
	}
}
