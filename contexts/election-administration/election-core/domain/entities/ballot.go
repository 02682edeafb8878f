package entities

import "time"

type VoteKind string

const (
	VoteKindValid VoteKind = "valid"
	VoteKindBlank VoteKind = "blank"
	VoteKindNull  VoteKind = "null"
)

func (k VoteKind) Valid() bool {
	switch k {
	case VoteKindValid, VoteKindBlank, VoteKindNull:
		return true
	default:
		return false
	}
}

type Channel struct {
	TerminalID string
	IPAddress  string
	UserAgent  string
}

// Ballot never stores the voter identity. VoterHash is election scoped and
// BallotHash is fixed at creation.
type Ballot struct {
	BallotID   string
	ElectionID string
	SlateID    string
	Kind       VoteKind
	VoterHash  string
	BallotHash string
	Nonce      string
	CastAt     time.Time
	Channel    Channel
}

// BallotContent is the exact input of the ballot hash.
type BallotContent struct {
	ElectionID string
	SlateID    string
	Kind       VoteKind
	Nonce      string
	CastAt     time.Time
}

func (b Ballot) Content() BallotContent {
	return BallotContent{
		ElectionID: b.ElectionID,
		SlateID:    b.SlateID,
		Kind:       b.Kind,
		Nonce:      b.Nonce,
		CastAt:     b.CastAt,
	}
}

type BallotNullification struct {
	NullificationID string
	ElectionID      string
	BallotHash      string
	VerdictID       string
	Reason          string
	CreatedAt       time.Time
}

type Receipt struct {
	ElectionID string
	BallotHash string
	CastAt     time.Time
	Signature  string
}

// BallotSnapshot is a point-in-time view used by one tally run.
type BallotSnapshot struct {
	Ballots        []Ballot
	Nullifications []BallotNullification
	Slates         []Slate
	EligibleCount  int
}
