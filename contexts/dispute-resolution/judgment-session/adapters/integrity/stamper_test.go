package integrity_test

import (
	"testing"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/adapters/integrity"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
)

func sampleVerdict() entities.Verdict {
	decidedAt := time.Date(2024, 11, 4, 15, 0, 0, 0, time.UTC)
	return entities.Verdict{
		VerdictID:  "verdict-1",
		CaseID:     "case-1",
		SessionID:  "session-1",
		ElectionID: "election-1",
		Votes: []entities.MemberVote{
			{CaseID: "case-1", SessionID: "session-1", MemberID: "m1", Choice: entities.ChoiceGrant, CastAt: decidedAt.Add(-time.Minute)},
		},
		Grants:       1,
		Resolution:   entities.ResolutionGranted,
		DecisionKind: entities.DecisionUnanimous,
		Remedy:       entities.Remedy{Action: entities.RemedyDisqualifySlate, SlateID: "slate-a"},
		DecidedAt:    decidedAt,
	}
}

func TestStampIgnoresVerdictIDAndTimeZone(t *testing.T) {
	stamper := integrity.Stamper{}
	base := sampleVerdict()
	first, err := stamper.Stamp(base)
	if err != nil {
		t.Fatalf("stamp: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("expected 32-byte hex stamp, got %q", first)
	}

	renamed := sampleVerdict()
	renamed.VerdictID = "verdict-2"
	renamed.DecidedAt = renamed.DecidedAt.In(time.FixedZone("BRT", -3*3600))
	renamed.DeadlineAbstentions = []string{}
	second, err := stamper.Stamp(renamed)
	if err != nil {
		t.Fatalf("stamp: %v", err)
	}
	if first != second {
		t.Fatal("stamp must depend on content only")
	}
}

func TestStampCoversDecisionFields(t *testing.T) {
	stamper := integrity.Stamper{}
	base, err := stamper.Stamp(sampleVerdict())
	if err != nil {
		t.Fatalf("stamp: %v", err)
	}
	mutations := map[string]func(*entities.Verdict){
		"resolution": func(v *entities.Verdict) { v.Resolution = entities.ResolutionDenied },
		"remedy":     func(v *entities.Verdict) { v.Remedy.SlateID = "slate-b" },
		"vote":       func(v *entities.Verdict) { v.Votes[0].Choice = entities.ChoiceDeny },
		"rationale":  func(v *entities.Verdict) { v.Rationale = "changed" },
		"abstention": func(v *entities.Verdict) { v.DeadlineAbstentions = []string{"m2"} },
	}
	for name, mutate := range mutations {
		verdict := sampleVerdict()
		mutate(&verdict)
		stamp, err := stamper.Stamp(verdict)
		if err != nil {
			t.Fatalf("%s: stamp: %v", name, err)
		}
		if stamp == base {
			t.Fatalf("%s: expected stamp to change", name)
		}
	}
}
