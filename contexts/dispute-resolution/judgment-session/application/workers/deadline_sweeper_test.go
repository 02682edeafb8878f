package workers_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/integrity"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/memory"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application/workers"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
)

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestDeadlineSweeperConcludesExpiredCasesAndSkipsTies(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clock := &fixedClock{now: time.Date(2024, 11, 4, 14, 0, 0, 0, time.UTC)}
	cases := commands.CaseUseCase{Commissions: store, Cases: store, Verdicts: store, Clock: clock, IDGen: store}
	sessions := commands.SessionUseCase{Commissions: store, Cases: store, Sessions: store, Votes: store, Clock: clock, IDGen: store}
	verdicts := commands.VerdictUseCase{
		Cases: store, Sessions: store, Votes: store, Verdicts: store,
		Stamper: integrity.Stamper{}, Clock: clock, IDGen: store,
	}
	sweeper := workers.DeadlineSweeper{Cases: store, Verdicts: verdicts, Clock: clock}

	commission, err := cases.CreateCommission(ctx, commands.CreateCommissionCommand{
		Name: "Comissao",
		Members: []commands.CommissionMemberInput{
			{MemberID: "m1", Role: entities.RoleMember, Active: true},
			{MemberID: "m2", Role: entities.RoleMember, Active: true},
			{MemberID: "m3", Role: entities.RoleMember, Active: true},
		},
	})
	if err != nil {
		t.Fatalf("create commission: %v", err)
	}
	decisive, err := cases.RegisterCase(ctx, commands.RegisterCaseCommand{Kind: entities.CaseKindComplaint, Subject: "A"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	tied, err := cases.RegisterCase(ctx, commands.RegisterCaseCommand{Kind: entities.CaseKindComplaint, Subject: "B"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	session, err := sessions.ScheduleSession(ctx, commands.ScheduleSessionCommand{
		CommissionID: commission.CommissionID,
		Agenda:       []string{decisive.CaseID, tied.CaseID},
		VotingWindow: 10 * time.Minute,
	})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if _, err := sessions.OpenSession(ctx, commands.OpenSessionCommand{
		SessionID: session.SessionID, Present: []string{"m1", "m2", "m3"},
	}); err != nil {
		t.Fatalf("open: %v", err)
	}
	for _, caseID := range []string{decisive.CaseID, tied.CaseID} {
		step := commands.CaseStepCommand{SessionID: session.SessionID, CaseID: caseID}
		if _, err := sessions.StartDeliberation(ctx, step); err != nil {
			t.Fatalf("deliberate: %v", err)
		}
		if _, err := sessions.OpenVoting(ctx, step); err != nil {
			t.Fatalf("open voting: %v", err)
		}
	}
	votes := []commands.RecordVoteCommand{
		{SessionID: session.SessionID, CaseID: decisive.CaseID, MemberID: "m1", Choice: entities.ChoiceDeny},
		{SessionID: session.SessionID, CaseID: tied.CaseID, MemberID: "m1", Choice: entities.ChoiceGrant},
		{SessionID: session.SessionID, CaseID: tied.CaseID, MemberID: "m2", Choice: entities.ChoiceDeny},
	}
	for _, vote := range votes {
		if _, err := sessions.RecordVote(ctx, vote); err != nil {
			t.Fatalf("vote: %v", err)
		}
	}

	concluded, err := sweeper.RunOnce(ctx)
	if err != nil {
		t.Fatalf("sweep before deadline: %v", err)
	}
	if concluded != 0 {
		t.Fatalf("expected nothing concluded before the deadline, got %d", concluded)
	}

	clock.Advance(10 * time.Minute)
	concluded, err = sweeper.RunOnce(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if concluded != 1 {
		t.Fatalf("expected one case concluded, got %d", concluded)
	}
	verdict, err := store.GetVerdictByCase(ctx, decisive.CaseID)
	if err != nil {
		t.Fatalf("get verdict: %v", err)
	}
	if verdict.Resolution != entities.ResolutionDenied || len(verdict.DeadlineAbstentions) != 2 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	stillVoting, err := store.GetCase(ctx, tied.CaseID)
	if err != nil {
		t.Fatalf("get tied case: %v", err)
	}
	if stillVoting.State != entities.CaseVoting {
		t.Fatalf("a tie without a tie-breaker must stay in voting, got %s", stillVoting.State)
	}

	concluded, err = sweeper.RunOnce(ctx)
	if err != nil || concluded != 0 {
		t.Fatalf("expected idempotent second sweep, got %d, %v", concluded, err)
	}
}
