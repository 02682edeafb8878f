package entities

import "time"

type Phase string

const (
	PhasePreparatory  Phase = "preparatory"
	PhaseRegistration Phase = "registration"
	PhaseCampaign     Phase = "campaign"
	PhaseVoting       Phase = "voting"
	PhaseTallying     Phase = "tallying"
	PhaseResult       Phase = "result"
	PhaseInstallation Phase = "installation"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
	StatusFinalized  Status = "finalized"
	StatusSuspended  Status = "suspended"
	StatusCancelled  Status = "cancelled"
)

type VotingMode string

const (
	VotingModeOnline   VotingMode = "online"
	VotingModeInPerson VotingMode = "in_person"
	VotingModeHybrid   VotingMode = "hybrid"
)

func (m VotingMode) Valid() bool {
	switch m {
	case VotingModeOnline, VotingModeInPerson, VotingModeHybrid:
		return true
	default:
		return false
	}
}

// Election is the aggregate root of one electoral process. Phase and Status
// only change through the phase machine; Version guards concurrent writers.
type Election struct {
	ElectionID             string
	Name                   string
	Status                 Status
	Phase                  Phase
	VotingMode             VotingMode
	SeatCount              int
	VotingStartsAt         time.Time
	VotingEndsAt           time.Time
	StatusBeforeSuspension Status
	EarlyClosure           bool
	EarlyClosureReason     string
	Retired                bool
	Version                int64
	CreatedBy              string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Terminal reports whether no further phase or status change is possible.
func (e Election) Terminal() bool {
	return e.Status == StatusCancelled || e.Phase == PhaseInstallation
}

// WithinVotingWindow uses a half-open window [start, end).
func (e Election) WithinVotingWindow(now time.Time) bool {
	if e.VotingStartsAt.IsZero() || e.VotingEndsAt.IsZero() {
		return false
	}
	return !now.Before(e.VotingStartsAt) && now.Before(e.VotingEndsAt)
}

func (e Election) VotingWindowElapsed(now time.Time) bool {
	return !e.VotingEndsAt.IsZero() && !now.Before(e.VotingEndsAt)
}

// OpenForVoting is re-evaluated on every cast; nothing caches it.
func (e Election) OpenForVoting(now time.Time) bool {
	return !e.Retired &&
		e.Status == StatusInProgress &&
		e.Phase == PhaseVoting &&
		e.WithinVotingWindow(now)
}

// PhaseTransition is one immutable row of the election audit history.
type PhaseTransition struct {
	TransitionID string
	ElectionID   string
	Sequence     int
	FromPhase    Phase
	ToPhase      Phase
	FromStatus   Status
	ToStatus     Status
	Actor        string
	Reason       string
	Automatic    bool
	OccurredAt   time.Time
}
