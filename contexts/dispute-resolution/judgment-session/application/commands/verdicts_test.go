package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	eventsv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/events/v1"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
)

func TestConcludeTieBrokenByPresidentsVote(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	commission := h.commission(t, 3)
	c := h.registerCase(t, entities.Remedy{Action: entities.RemedyDisqualifySlate, SlateID: "slate-a"})
	session := h.votingSession(t, commission.CommissionID, []string{"pres", "m1", "m2", "m3"}, c.CaseID)

	h.vote(t, session.SessionID, c.CaseID, "pres", entities.ChoiceDeny)
	h.vote(t, session.SessionID, c.CaseID, "m1", entities.ChoiceGrant)
	h.vote(t, session.SessionID, c.CaseID, "m2", entities.ChoiceGrant)
	h.vote(t, session.SessionID, c.CaseID, "m3", entities.ChoiceDeny)

	if _, err := h.sessions.CastTieBreak(ctx, commands.RecordVoteCommand{
		SessionID: session.SessionID, CaseID: c.CaseID, MemberID: "pres", Choice: entities.ChoiceGrant,
	}); !errors.Is(err, domainerrors.ErrTieBreakNotNeeded) {
		t.Fatalf("expected tie-break refused once the President voted, got %v", err)
	}

	verdict, err := h.verdicts.Conclude(ctx, commands.ConcludeCommand{
		SessionID: session.SessionID,
		CaseID:    c.CaseID,
		Rationale: "Empate decidido pela presidencia",
		Actor:     "pres",
	})
	if err != nil {
		t.Fatalf("conclude: %v", err)
	}
	if verdict.Resolution != entities.ResolutionDenied ||
		verdict.DecisionKind != entities.DecisionTieBreak ||
		verdict.TieBreakerID != "pres" ||
		verdict.Grants != 2 || verdict.Denials != 2 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if verdict.Stamp == "" || len(verdict.Votes) != 4 {
		t.Fatalf("expected stamped verdict carrying every vote, got %+v", verdict)
	}

	stored, err := h.store.GetCase(ctx, c.CaseID)
	if err != nil {
		t.Fatalf("get case: %v", err)
	}
	if stored.State != entities.CaseDecided {
		t.Fatalf("expected decided case, got %s", stored.State)
	}
	if _, err := h.verdicts.Conclude(ctx, commands.ConcludeCommand{
		SessionID: session.SessionID, CaseID: c.CaseID,
	}); !errors.Is(err, domainerrors.ErrAlreadyDecided) {
		t.Fatalf("expected second conclusion rejected, got %v", err)
	}

	pending, err := h.store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != eventsv1.TopicVerdictFinalized {
		t.Fatalf("expected one verdict event, got %+v", pending)
	}
	var envelope eventsv1.Envelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	var payload eventsv1.VerdictFinalized
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.VerdictID != verdict.VerdictID ||
		payload.Resolution != eventsv1.ResolutionDenied ||
		payload.Remedy.Action != eventsv1.RemedyDisqualifySlate ||
		payload.ElectionID != "election-1" {
		t.Fatalf("unexpected event payload: %+v", payload)
	}
	if !reflect.DeepEqual(h.metrics.observed, []string{"denied/tie_break"}) {
		t.Fatalf("unexpected metrics: %v", h.metrics.observed)
	}
}

func TestConcludeTiedWithoutPresidentStaysOpen(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	commission := h.commission(t, 3)
	c := h.registerCase(t, entities.Remedy{})
	session := h.votingSession(t, commission.CommissionID, []string{"m1", "m2"}, c.CaseID)

	h.vote(t, session.SessionID, c.CaseID, "m1", entities.ChoiceGrant)
	h.vote(t, session.SessionID, c.CaseID, "m2", entities.ChoiceDeny)

	if _, err := h.verdicts.Conclude(ctx, commands.ConcludeCommand{
		SessionID: session.SessionID, CaseID: c.CaseID,
	}); !errors.Is(err, domainerrors.ErrTiedNoBreaker) {
		t.Fatalf("expected tie without breaker, got %v", err)
	}
	if _, err := h.sessions.CastTieBreak(ctx, commands.RecordVoteCommand{
		SessionID: session.SessionID, CaseID: c.CaseID, MemberID: "m1", Choice: entities.ChoiceGrant,
	}); !errors.Is(err, domainerrors.ErrNotTieBreaker) {
		t.Fatalf("expected non-president tie-break rejected, got %v", err)
	}
	stored, err := h.store.GetCase(ctx, c.CaseID)
	if err != nil {
		t.Fatalf("get case: %v", err)
	}
	if stored.State != entities.CaseVoting {
		t.Fatalf("a tied case must remain in voting, got %s", stored.State)
	}
}

func TestConcludeAfterSeparateTieBreakVote(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	commission := h.commission(t, 2)
	c := h.registerCase(t, entities.Remedy{})
	session := h.votingSession(t, commission.CommissionID, []string{"pres", "m1", "m2"}, c.CaseID)

	h.vote(t, session.SessionID, c.CaseID, "pres", entities.ChoiceAbstain)
	h.vote(t, session.SessionID, c.CaseID, "m1", entities.ChoiceGrant)
	h.vote(t, session.SessionID, c.CaseID, "m2", entities.ChoiceDeny)

	if _, err := h.verdicts.Conclude(ctx, commands.ConcludeCommand{
		SessionID: session.SessionID, CaseID: c.CaseID,
	}); !errors.Is(err, domainerrors.ErrTieBreakPending) {
		t.Fatalf("expected pending tie-break, got %v", err)
	}

	tieBreak := commands.RecordVoteCommand{
		SessionID: session.SessionID, CaseID: c.CaseID, MemberID: "pres", Choice: entities.ChoiceGrant,
	}
	if _, err := h.sessions.CastTieBreak(ctx, tieBreak); err != nil {
		t.Fatalf("tie-break: %v", err)
	}
	if _, err := h.sessions.CastTieBreak(ctx, tieBreak); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected second tie-break rejected, got %v", err)
	}

	verdict, err := h.verdicts.Conclude(ctx, commands.ConcludeCommand{
		SessionID: session.SessionID, CaseID: c.CaseID, Actor: "pres",
	})
	if err != nil {
		t.Fatalf("conclude: %v", err)
	}
	if verdict.Resolution != entities.ResolutionGranted ||
		verdict.DecisionKind != entities.DecisionTieBreak ||
		verdict.TieBreakChoice != entities.ChoiceGrant ||
		verdict.Abstentions != 1 {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
}

func TestConcludeAfterDeadlineCountsMissingVotesAsAbstentions(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	commission := h.commission(t, 2)
	c := h.registerCase(t, entities.Remedy{})
	session := h.votingSession(t, commission.CommissionID, []string{"pres", "m1", "m2"}, c.CaseID)

	h.vote(t, session.SessionID, c.CaseID, "m1", entities.ChoiceGrant)
	if _, err := h.verdicts.Conclude(ctx, commands.ConcludeCommand{
		SessionID: session.SessionID, CaseID: c.CaseID,
	}); !errors.Is(err, domainerrors.ErrVotesPending) {
		t.Fatalf("expected votes pending before the deadline, got %v", err)
	}

	h.clock.Advance(2 * time.Hour)
	verdict, err := h.verdicts.Conclude(ctx, commands.ConcludeCommand{
		SessionID: session.SessionID, CaseID: c.CaseID, Actor: "system",
	})
	if err != nil {
		t.Fatalf("conclude: %v", err)
	}
	if verdict.Resolution != entities.ResolutionGranted || verdict.DecisionKind != entities.DecisionUnanimous {
		t.Fatalf("unexpected verdict: %+v", verdict)
	}
	if !reflect.DeepEqual(verdict.DeadlineAbstentions, []string{"m2", "pres"}) || verdict.Abstentions != 2 {
		t.Fatalf("expected deadline abstentions for m2 and pres, got %+v", verdict)
	}
}

func TestFileAppealReferencesDecidedCase(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	commission := h.commission(t, 2)
	original := h.registerCase(t, entities.Remedy{Action: entities.RemedyDisqualifySlate, SlateID: "slate-a"})

	if _, err := h.cases.FileAppeal(ctx, commands.FileAppealCommand{
		OriginalCaseID: original.CaseID, Subject: "Recurso",
	}); !errors.Is(err, domainerrors.ErrCaseNotDecided) {
		t.Fatalf("expected appeal of an open case rejected, got %v", err)
	}

	session := h.votingSession(t, commission.CommissionID, []string{"pres", "m1", "m2"}, original.CaseID)
	h.vote(t, session.SessionID, original.CaseID, "pres", entities.ChoiceGrant)
	h.vote(t, session.SessionID, original.CaseID, "m1", entities.ChoiceGrant)
	h.vote(t, session.SessionID, original.CaseID, "m2", entities.ChoiceGrant)
	first, err := h.verdicts.Conclude(ctx, commands.ConcludeCommand{
		SessionID: session.SessionID, CaseID: original.CaseID,
	})
	if err != nil {
		t.Fatalf("conclude: %v", err)
	}

	appeal, err := h.cases.FileAppeal(ctx, commands.FileAppealCommand{
		OriginalCaseID: original.CaseID,
		Subject:        "Recurso contra cassacao",
		Remedy:         entities.Remedy{Action: entities.RemedyReinstateSlate, SlateID: "slate-a"},
		Actor:          "slate-a",
	})
	if err != nil {
		t.Fatalf("file appeal: %v", err)
	}
	if appeal.Kind != entities.CaseKindAppeal ||
		appeal.AppealOf != original.CaseID ||
		appeal.ElectionID != original.ElectionID ||
		appeal.State != entities.CaseScheduled {
		t.Fatalf("unexpected appeal: %+v", appeal)
	}

	stillFirst, err := h.store.GetVerdictByCase(ctx, original.CaseID)
	if err != nil {
		t.Fatalf("get original verdict: %v", err)
	}
	if stillFirst.Stamp != first.Stamp {
		t.Fatal("filing an appeal must not touch the original verdict")
	}
}

func TestArchiveCaseAndCloseSession(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	commission := h.commission(t, 2)
	c := h.registerCase(t, entities.Remedy{Action: entities.RemedyNullifyBallot, BallotHash: "abc"})
	session := h.votingSession(t, commission.CommissionID, []string{"pres", "m1"}, c.CaseID)

	verdict, err := h.verdicts.ArchiveCase(ctx, commands.ArchiveCaseCommand{
		CaseID: c.CaseID, Rationale: "Desistencia", Actor: "pres",
	})
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if verdict.Resolution != entities.ResolutionArchived || verdict.Remedy.Action != entities.RemedyNone {
		t.Fatalf("unexpected archive verdict: %+v", verdict)
	}
	if _, err := h.verdicts.ArchiveCase(ctx, commands.ArchiveCaseCommand{CaseID: c.CaseID}); !errors.Is(err, domainerrors.ErrAlreadyDecided) {
		t.Fatalf("expected second archive rejected, got %v", err)
	}

	closed, err := h.sessions.CloseSession(ctx, session.SessionID, "secretary")
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	if closed.Status != entities.SessionClosed || closed.ClosedAt == nil {
		t.Fatalf("unexpected closed session: %+v", closed)
	}
	entries := h.store.AuditEntries()
	if len(entries) == 0 || entries[len(entries)-1].Action != "session.closed" {
		t.Fatalf("expected session closure audited, got %d entries", len(entries))
	}
}
