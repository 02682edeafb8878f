package commands_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/integrity"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/memory"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
)

var baseTime = time.Date(2024, 11, 4, 14, 0, 0, 0, time.UTC)

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

type metricsRecorder struct {
	mu       sync.Mutex
	observed []string
}

func (m *metricsRecorder) ObserveVerdict(resolution string, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observed = append(m.observed, resolution+"/"+kind)
}

type harness struct {
	store    *memory.Store
	clock    *fixedClock
	metrics  *metricsRecorder
	cases    commands.CaseUseCase
	sessions commands.SessionUseCase
	verdicts commands.VerdictUseCase
}

func newHarness() *harness {
	store := memory.NewStore()
	clock := &fixedClock{now: baseTime}
	metrics := &metricsRecorder{}
	return &harness{
		store:   store,
		clock:   clock,
		metrics: metrics,
		cases: commands.CaseUseCase{
			Commissions: store,
			Cases:       store,
			Verdicts:    store,
			Audit:       store,
			Clock:       clock,
			IDGen:       store,
		},
		sessions: commands.SessionUseCase{
			Commissions: store,
			Cases:       store,
			Sessions:    store,
			Votes:       store,
			Audit:       store,
			Clock:       clock,
			IDGen:       store,
		},
		verdicts: commands.VerdictUseCase{
			Cases:    store,
			Sessions: store,
			Votes:    store,
			Verdicts: store,
			Stamper:  integrity.Stamper{},
			Audit:    store,
			Metrics:  metrics,
			Clock:    clock,
			IDGen:    store,
		},
	}
}

// commission creates "pres" as President plus the given number of regular
// members m1..mN, all active, and one inactive alternate.
func (h *harness) commission(t *testing.T, members int) entities.Commission {
	t.Helper()
	inputs := []commands.CommissionMemberInput{
		{MemberID: "pres", Name: "Presidente", Role: entities.RolePresident, Active: true},
		{MemberID: "alt", Name: "Suplente", Role: entities.RoleAlternate, Active: false},
	}
	for i := 1; i <= members; i++ {
		inputs = append(inputs, commands.CommissionMemberInput{
			MemberID: fmt.Sprintf("m%d", i),
			Role:     entities.RoleMember,
			Active:   true,
		})
	}
	commission, err := h.cases.CreateCommission(context.Background(), commands.CreateCommissionCommand{
		Name:    "Comissao Eleitoral",
		Members: inputs,
		Actor:   "admin",
	})
	if err != nil {
		t.Fatalf("create commission: %v", err)
	}
	return commission
}

func (h *harness) registerCase(t *testing.T, remedy entities.Remedy) entities.Case {
	t.Helper()
	c, err := h.cases.RegisterCase(context.Background(), commands.RegisterCaseCommand{
		Kind:       entities.CaseKindChallenge,
		Subject:    "Impugnacao de chapa",
		ElectionID: "election-1",
		Remedy:     remedy,
		Actor:      "filer",
	})
	if err != nil {
		t.Fatalf("register case: %v", err)
	}
	return c
}

// votingSession schedules and opens a session for the given cases with the
// given attendance and moves every case into voting.
func (h *harness) votingSession(t *testing.T, commissionID string, present []string, caseIDs ...string) entities.Session {
	t.Helper()
	ctx := context.Background()
	session, err := h.sessions.ScheduleSession(ctx, commands.ScheduleSessionCommand{
		CommissionID: commissionID,
		ScheduledFor: baseTime,
		Agenda:       caseIDs,
		VotingWindow: time.Hour,
		Actor:        "secretary",
	})
	if err != nil {
		t.Fatalf("schedule session: %v", err)
	}
	session, err = h.sessions.OpenSession(ctx, commands.OpenSessionCommand{SessionID: session.SessionID, Present: present})
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	for _, caseID := range caseIDs {
		step := commands.CaseStepCommand{SessionID: session.SessionID, CaseID: caseID}
		if _, err := h.sessions.StartDeliberation(ctx, step); err != nil {
			t.Fatalf("start deliberation: %v", err)
		}
		if _, err := h.sessions.OpenVoting(ctx, step); err != nil {
			t.Fatalf("open voting: %v", err)
		}
	}
	return session
}

func (h *harness) vote(t *testing.T, sessionID string, caseID string, memberID string, choice entities.VoteChoice) {
	t.Helper()
	if _, err := h.sessions.RecordVote(context.Background(), commands.RecordVoteCommand{
		SessionID: sessionID,
		CaseID:    caseID,
		MemberID:  memberID,
		Choice:    choice,
	}); err != nil {
		t.Fatalf("vote %s: %v", memberID, err)
	}
}
