package services_test

import (
	"testing"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/services"
)

func slate(id string, order int, incumbent bool) entities.Slate {
	return entities.Slate{
		SlateID:           id,
		Name:              "Chapa " + id,
		Status:            entities.SlateStatusApproved,
		RegistrationOrder: order,
		Incumbent:         incumbent,
		Active:            true,
	}
}

func ballot(hash string, kind entities.VoteKind, slateID string) entities.Ballot {
	return entities.Ballot{BallotHash: hash, Kind: kind, SlateID: slateID}
}

func TestCountBallotsSeparatesVoidedFromBlankAndNull(t *testing.T) {
	ballots := []entities.Ballot{
		ballot("h1", entities.VoteKindValid, "a"),
		ballot("h2", entities.VoteKindValid, "a"),
		ballot("h3", entities.VoteKindValid, "b"),
		ballot("h4", entities.VoteKindBlank, ""),
		ballot("h5", entities.VoteKindNull, ""),
		ballot("h6", entities.VoteKindValid, "gone"),
	}
	count := services.CountBallots(ballots, map[string]bool{"h2": true}, map[string]bool{"a": true, "b": true})

	if count.Voted != 6 || count.Valid != 2 || count.Blank != 1 || count.Null != 1 || count.Voided != 2 {
		t.Fatalf("unexpected count: %+v", count)
	}
	if count.BySlate["a"] != 1 || count.BySlate["b"] != 1 {
		t.Fatalf("unexpected per-slate count: %+v", count.BySlate)
	}
	if count.Valid+count.Blank+count.Null+count.Voided != count.Voted {
		t.Fatal("every ballot must land in exactly one bucket")
	}
}

func TestRankSlatesTieBreakCriteria(t *testing.T) {
	count := services.BallotCount{Valid: 20, BySlate: map[string]int{"a": 10, "b": 10}}

	cases := []struct {
		name          string
		slates        []entities.Slate
		criteria      []entities.TieBreakCriterion
		drawKey       func(string) string
		wantFirst     string
		wantCriterion entities.TieBreakCriterion
		wantNeedsDraw bool
		wantUsedDraw  bool
	}{
		{
			name:          "incumbency wins first",
			slates:        []entities.Slate{slate("a", 1, false), slate("b", 2, true)},
			wantFirst:     "b",
			wantCriterion: entities.TieBreakIncumbency,
		},
		{
			name:          "registration order when incumbency is equal",
			slates:        []entities.Slate{slate("b", 2, false), slate("a", 1, false)},
			wantFirst:     "a",
			wantCriterion: entities.TieBreakRegistrationOrder,
		},
		{
			name:          "draw needed when nothing else separates",
			slates:        []entities.Slate{slate("a", 1, false), slate("b", 2, false)},
			criteria:      []entities.TieBreakCriterion{entities.TieBreakByDraw},
			wantFirst:     "a",
			wantNeedsDraw: true,
		},
		{
			name:     "draw key orders tied slates",
			slates:   []entities.Slate{slate("a", 1, false), slate("b", 2, false)},
			criteria: []entities.TieBreakCriterion{entities.TieBreakByDraw},
			drawKey: func(slateID string) string {
				if slateID == "b" {
					return "0001"
				}
				return "ffff"
			},
			wantFirst:     "b",
			wantCriterion: entities.TieBreakByDraw,
			wantUsedDraw:  true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ranking := services.RankSlates(tc.slates, count, services.RankOptions{
				Criteria:  tc.criteria,
				DrawKey:   tc.drawKey,
				SeatCount: 1,
				Final:     true,
			})
			if ranking.Rows[0].SlateID != tc.wantFirst {
				t.Fatalf("expected %s first, got %s", tc.wantFirst, ranking.Rows[0].SlateID)
			}
			if ranking.Rows[0].TieBreakCriterion != tc.wantCriterion {
				t.Fatalf("expected criterion %q, got %q", tc.wantCriterion, ranking.Rows[0].TieBreakCriterion)
			}
			if ranking.NeedsDraw != tc.wantNeedsDraw || ranking.UsedDraw != tc.wantUsedDraw {
				t.Fatalf("unexpected draw flags: needs=%v used=%v", ranking.NeedsDraw, ranking.UsedDraw)
			}
			if !ranking.Rows[0].Elected || ranking.Rows[1].Elected {
				t.Fatalf("expected only the first slate elected, got %+v", ranking.Rows)
			}
		})
	}
}

func TestRankSlatesNeverElectsOnPartialOrZeroVotes(t *testing.T) {
	slates := []entities.Slate{slate("a", 1, false), slate("b", 2, false)}
	count := services.BallotCount{Valid: 3, BySlate: map[string]int{"a": 3, "b": 0}}

	partial := services.RankSlates(slates, count, services.RankOptions{SeatCount: 2})
	for _, row := range partial.Rows {
		if row.Elected {
			t.Fatalf("partial ranking must not elect, got %+v", row)
		}
	}

	final := services.RankSlates(slates, count, services.RankOptions{SeatCount: 2, Final: true})
	if !final.Rows[0].Elected || final.Rows[1].Elected {
		t.Fatalf("slate without votes must not be elected, got %+v", final.Rows)
	}
	if final.Rows[0].PercentValid != 100 || final.Rows[1].PercentValid != 0 {
		t.Fatalf("unexpected percentages: %+v", final.Rows)
	}
}

func TestPercentRoundsToFourDecimals(t *testing.T) {
	if got := services.Percent(1, 3); got != 33.3333 {
		t.Fatalf("expected 33.3333, got %v", got)
	}
	if got := services.Percent(5, 0); got != 0 {
		t.Fatalf("expected zero for empty whole, got %v", got)
	}
}
