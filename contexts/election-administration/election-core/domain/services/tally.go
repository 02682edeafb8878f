package services

import (
	"math"
	"sort"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
)

// BallotCount is the raw aggregation of one ballot snapshot.
type BallotCount struct {
	Voted   int
	Valid   int
	Blank   int
	Null    int
	Voided  int
	BySlate map[string]int
}

// CountBallots aggregates ballots without mutating them. Nullified ballots and
// valid ballots naming a slate outside rankable are counted as voided.
func CountBallots(
	ballots []entities.Ballot,
	nullified map[string]bool,
	rankable map[string]bool,
) BallotCount {
	count := BallotCount{BySlate: make(map[string]int, len(rankable))}
	for slateID := range rankable {
		count.BySlate[slateID] = 0
	}
	for _, ballot := range ballots {
		count.Voted++
		if nullified[ballot.BallotHash] {
			count.Voided++
			continue
		}
		switch ballot.Kind {
		case entities.VoteKindBlank:
			count.Blank++
		case entities.VoteKindNull:
			count.Null++
		case entities.VoteKindValid:
			if !rankable[ballot.SlateID] {
				count.Voided++
				continue
			}
			count.Valid++
			count.BySlate[ballot.SlateID]++
		default:
			count.Voided++
		}
	}
	return count
}

// RankOptions configure ranking. DrawKey returns the draw position key of a
// slate; nil means no draw has been made yet.
type RankOptions struct {
	Criteria  []entities.TieBreakCriterion
	DrawKey   func(slateID string) string
	SeatCount int
	Final     bool
}

// Ranking is the ordered result plus whether any tie reached the draw.
type Ranking struct {
	Rows      []entities.TallyResultBySlate
	NeedsDraw bool
	UsedDraw  bool
}

// RankSlates orders slates by valid votes descending and resolves ties with
// the configured criteria, then the draw. Without a draw, ties that reach it
// fall back to slate ID order and NeedsDraw is set.
func RankSlates(slates []entities.Slate, count BallotCount, opts RankOptions) Ranking {
	criteria := normalizeCriteria(opts.Criteria)
	ordered := append([]entities.Slate(nil), slates...)
	separatedBy := make(map[string]entities.TieBreakCriterion, len(ordered))

	ranking := Ranking{}
	less := func(a, b entities.Slate) (bool, entities.TieBreakCriterion, bool) {
		va, vb := count.BySlate[a.SlateID], count.BySlate[b.SlateID]
		if va != vb {
			return va > vb, "", true
		}
		for _, criterion := range criteria {
			switch criterion {
			case entities.TieBreakIncumbency:
				if a.Incumbent != b.Incumbent {
					return a.Incumbent, criterion, true
				}
			case entities.TieBreakRegistrationOrder:
				if a.RegistrationOrder != b.RegistrationOrder {
					return a.RegistrationOrder < b.RegistrationOrder, criterion, true
				}
			case entities.TieBreakByDraw:
				if opts.DrawKey == nil {
					ranking.NeedsDraw = true
					return a.SlateID < b.SlateID, "", true
				}
				ka, kb := opts.DrawKey(a.SlateID), opts.DrawKey(b.SlateID)
				if ka != kb {
					ranking.UsedDraw = true
					return ka < kb, criterion, true
				}
			}
		}
		return a.SlateID < b.SlateID, "", false
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		result, _, _ := less(ordered[i], ordered[j])
		return result
	})
	for i := 1; i < len(ordered); i++ {
		_, criterion, _ := less(ordered[i-1], ordered[i])
		if criterion != "" {
			separatedBy[ordered[i-1].SlateID] = criterion
			if _, ok := separatedBy[ordered[i].SlateID]; !ok {
				separatedBy[ordered[i].SlateID] = criterion
			}
		}
	}

	ranking.Rows = make([]entities.TallyResultBySlate, 0, len(ordered))
	for i, slate := range ordered {
		votes := count.BySlate[slate.SlateID]
		row := entities.TallyResultBySlate{
			SlateID:           slate.SlateID,
			SlateName:         slate.Name,
			Votes:             votes,
			PercentValid:      Percent(votes, count.Valid),
			Rank:              i + 1,
			TieBreakCriterion: separatedBy[slate.SlateID],
		}
		// A slate with no valid votes is never elected.
		if opts.Final && row.Rank <= opts.SeatCount && votes > 0 {
			row.Elected = true
		}
		ranking.Rows = append(ranking.Rows, row)
	}
	return ranking
}

// Percent returns part/whole*100 rounded to four decimal places; zero when
// whole is zero.
func Percent(part int, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	value := float64(part) * 100 / float64(whole)
	return math.Round(value*10000) / 10000
}

func normalizeCriteria(criteria []entities.TieBreakCriterion) []entities.TieBreakCriterion {
	if len(criteria) == 0 {
		criteria = entities.DefaultTieBreakCriteria
	}
	out := make([]entities.TieBreakCriterion, 0, len(criteria)+1)
	seen := make(map[entities.TieBreakCriterion]bool, len(criteria))
	for _, criterion := range criteria {
		switch criterion {
		case entities.TieBreakIncumbency, entities.TieBreakRegistrationOrder, entities.TieBreakByDraw:
		default:
			continue
		}
		if seen[criterion] {
			continue
		}
		seen[criterion] = true
		out = append(out, criterion)
	}
	if !seen[entities.TieBreakByDraw] {
		out = append(out, entities.TieBreakByDraw)
	}
	return out
}
