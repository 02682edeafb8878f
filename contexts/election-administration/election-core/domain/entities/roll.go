package entities

import "time"

type SlateStatus string

const (
	SlateStatusPending      SlateStatus = "pending"
	SlateStatusApproved     SlateStatus = "approved"
	SlateStatusDisqualified SlateStatus = "disqualified"
	SlateStatusWithdrawn    SlateStatus = "withdrawn"
)

type Slate struct {
	SlateID           string
	ElectionID        string
	Name              string
	Number            int
	Status            SlateStatus
	Incumbent         bool
	RegistrationOrder int
	Active            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Votable reports whether a ballot may name this slate.
func (s Slate) Votable() bool {
	return s.Active && s.Status == SlateStatusApproved
}

type EligibleVoter struct {
	ElectionID          string
	IdentityID          string
	Eligible            bool
	IneligibilityReason string
	HasVoted            bool
	VotedAt             *time.Time
	SectionRef          string
	Active              bool
}
