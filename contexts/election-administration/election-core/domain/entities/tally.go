package entities

import (
	"slices"
	"sort"
	"time"
)

type TallyMode string

const (
	TallyModePartial TallyMode = "partial"
	TallyModeFinal   TallyMode = "final"
)

func (m TallyMode) Valid() bool {
	return m == TallyModePartial || m == TallyModeFinal
}

type TieBreakCriterion string

const (
	TieBreakIncumbency        TieBreakCriterion = "incumbency"
	TieBreakRegistrationOrder TieBreakCriterion = "registration_order"
	TieBreakByDraw            TieBreakCriterion = "draw"
)

// DefaultTieBreakCriteria is applied in order to slates with equal valid-vote
// counts. Draw is always the last resort even when not listed.
var DefaultTieBreakCriteria = []TieBreakCriterion{
	TieBreakIncumbency,
	TieBreakRegistrationOrder,
	TieBreakByDraw,
}

// TieBreakDraw is persisted once per election and reused by every later run.
type TieBreakDraw struct {
	ElectionID string
	Seed       string
	DrawnBy    string
	DrawnAt    time.Time
}

type TallyResultBySlate struct {
	SlateID           string
	SlateName         string
	Votes             int
	PercentValid      float64
	Rank              int
	Elected           bool
	TieBreakCriterion TieBreakCriterion
}

// TallyResult is an immutable snapshot. A new run creates a new Version.
type TallyResult struct {
	TallyID         string
	ElectionID      string
	Version         int
	Mode            TallyMode
	Partial         bool
	PercentCounted  float64
	EligibleCount   int
	VotedCount      int
	AbstainedCount  int
	ValidCount      int
	BlankCount      int
	NullCount       int
	VoidedCount     int
	SeatCount       int
	InputHash       string
	ResultHash      string
	DrawSeed        string
	TieBreakApplied bool
	ExcludedSlates  []string
	Homologated     bool
	HomologatedAt   *time.Time
	HomologatedBy   string
	Signature       string
	ComputedBy      string
	ComputedAt      time.Time
	Slates          []TallyResultBySlate
}

// TallyInput is the hashed description of everything a run consumed.
type TallyInput struct {
	ElectionID            string
	Mode                  TallyMode
	EligibleCount         int
	BallotHashes          []string
	NullifiedBallotHashes []string
	ExcludedSlates        []string
	DrawSeed              string
}

// TallyOutcome is the reproducible part of a TallyResult; ResultHash covers
// exactly these fields.
type TallyOutcome struct {
	ElectionID     string
	Mode           TallyMode
	PercentCounted float64
	EligibleCount  int
	VotedCount     int
	AbstainedCount int
	ValidCount     int
	BlankCount     int
	NullCount      int
	VoidedCount    int
	InputHash      string
	Slates         []TallyResultBySlate
}

func (t TallyResult) Outcome() TallyOutcome {
	return TallyOutcome{
		ElectionID:     t.ElectionID,
		Mode:           t.Mode,
		PercentCounted: t.PercentCounted,
		EligibleCount:  t.EligibleCount,
		VotedCount:     t.VotedCount,
		AbstainedCount: t.AbstainedCount,
		ValidCount:     t.ValidCount,
		BlankCount:     t.BlankCount,
		NullCount:      t.NullCount,
		VoidedCount:    t.VoidedCount,
		InputHash:      t.InputHash,
		Slates:         t.Slates,
	}
}

// TallyInputGuard summarises the stored state a tally input hash covers.
// Storage compares it inside the homologation write so a tally whose inputs
// changed after it was checked is never frozen.
type TallyInputGuard struct {
	Ballots       int
	EligibleCount int
	Nullified     []string
	Excluded      []string
}

// InputGuardOf derives the guard from a snapshot. Nullified holds distinct
// ballot hashes and Excluded the active disqualified or withdrawn slates, both
// sorted.
func InputGuardOf(snapshot BallotSnapshot) TallyInputGuard {
	guard := TallyInputGuard{
		Ballots:       len(snapshot.Ballots),
		EligibleCount: snapshot.EligibleCount,
		Nullified:     make([]string, 0, len(snapshot.Nullifications)),
		Excluded:      make([]string, 0),
	}
	seen := make(map[string]bool, len(snapshot.Nullifications))
	for _, nullification := range snapshot.Nullifications {
		if !seen[nullification.BallotHash] {
			seen[nullification.BallotHash] = true
			guard.Nullified = append(guard.Nullified, nullification.BallotHash)
		}
	}
	for _, slate := range snapshot.Slates {
		if slate.Active && (slate.Status == SlateStatusDisqualified || slate.Status == SlateStatusWithdrawn) {
			guard.Excluded = append(guard.Excluded, slate.SlateID)
		}
	}
	sort.Strings(guard.Nullified)
	sort.Strings(guard.Excluded)
	return guard
}

func (g TallyInputGuard) Equal(other TallyInputGuard) bool {
	return g.Ballots == other.Ballots &&
		g.EligibleCount == other.EligibleCount &&
		slices.Equal(g.Nullified, other.Nullified) &&
		slices.Equal(g.Excluded, other.Excluded)
}
