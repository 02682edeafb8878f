package entities

import "time"

type VoteChoice string

const (
	ChoiceGrant   VoteChoice = "grant"
	ChoiceDeny    VoteChoice = "deny"
	ChoiceAbstain VoteChoice = "abstain"
)

func (c VoteChoice) Valid() bool {
	return c == ChoiceGrant || c == ChoiceDeny || c == ChoiceAbstain
}

// Decisive reports whether the choice counts towards G or D.
func (c VoteChoice) Decisive() bool {
	return c == ChoiceGrant || c == ChoiceDeny
}

// MemberVote is written once; a second vote by the same member on the same
// case is rejected by storage.
type MemberVote struct {
	CaseID    string
	SessionID string
	MemberID  string
	Choice    VoteChoice
	CastAt    time.Time
}

// TieBreakVote is kept apart from the regular tally.
type TieBreakVote struct {
	CaseID    string
	SessionID string
	MemberID  string
	Choice    VoteChoice
	CastAt    time.Time
}

type Resolution string

const (
	ResolutionGranted  Resolution = "granted"
	ResolutionDenied   Resolution = "denied"
	ResolutionArchived Resolution = "archived"
)

type DecisionKind string

const (
	DecisionUnanimous DecisionKind = "unanimous"
	DecisionMajority  DecisionKind = "majority"
	DecisionTieBreak  DecisionKind = "tie_break"
)

// Verdict is immutable once stored. Stamp is a content hash over every other
// field except VerdictID.
type Verdict struct {
	VerdictID           string
	CaseID              string
	SessionID           string
	ElectionID          string
	AppealOf            string
	Votes               []MemberVote
	Grants              int
	Denials             int
	Abstentions         int
	DeadlineAbstentions []string
	Resolution          Resolution
	DecisionKind        DecisionKind
	TieBreakerID        string
	TieBreakChoice      VoteChoice
	Rationale           string
	Remedy              Remedy
	DecidedBy           string
	DecidedAt           time.Time
	Stamp               string
}
