package entities

import "time"

type CaseKind string

const (
	CaseKindComplaint CaseKind = "complaint"
	CaseKindChallenge CaseKind = "challenge"
	CaseKindAppeal    CaseKind = "appeal"
)

func (k CaseKind) Valid() bool {
	switch k {
	case CaseKindComplaint, CaseKindChallenge, CaseKindAppeal:
		return true
	default:
		return false
	}
}

type CaseState string

const (
	CaseScheduled         CaseState = "scheduled"
	CaseUnderDeliberation CaseState = "under_deliberation"
	CaseVoting            CaseState = "voting"
	CaseDecided           CaseState = "decided"
	CaseArchived          CaseState = "archived"
)

// Closed reports whether the case already carries its verdict.
func (s CaseState) Closed() bool {
	return s == CaseDecided || s == CaseArchived
}

type RemedyAction string

const (
	RemedyNone            RemedyAction = "none"
	RemedyDisqualifySlate RemedyAction = "disqualify_slate"
	RemedyReinstateSlate  RemedyAction = "reinstate_slate"
	RemedyNullifyBallot   RemedyAction = "nullify_ballot"
)

// Remedy is what a granted verdict asks the election context to do.
type Remedy struct {
	Action     RemedyAction
	SlateID    string
	BallotHash string
}

func (r Remedy) Valid() bool {
	switch r.Action {
	case "", RemedyNone:
		return r.SlateID == "" && r.BallotHash == ""
	case RemedyDisqualifySlate, RemedyReinstateSlate:
		return r.SlateID != "" && r.BallotHash == ""
	case RemedyNullifyBallot:
		return r.BallotHash != "" && r.SlateID == ""
	default:
		return false
	}
}

// Case is one disputed matter. An appeal references the decided case it
// contests through AppealOf and never edits it.
type Case struct {
	CaseID         string
	Kind           CaseKind
	Subject        string
	ElectionID     string
	AppealOf       string
	Remedy         Remedy
	State          CaseState
	SessionID      string
	VotingOpenedAt *time.Time
	VotingDeadline *time.Time
	CreatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DeadlineElapsed is true once now reaches the voting deadline.
func (c Case) DeadlineElapsed(now time.Time) bool {
	return c.VotingDeadline != nil && !now.Before(*c.VotingDeadline)
}
