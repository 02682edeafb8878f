package entities

import "time"

type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionOpen      SessionStatus = "open"
	SessionClosed    SessionStatus = "closed"
)

// Session is one sitting of a commission. Present and TieBreakerID are fixed
// when the session opens.
type Session struct {
	SessionID    string
	CommissionID string
	ScheduledFor time.Time
	Status       SessionStatus
	Agenda       []string
	Present      []string
	TieBreakerID string
	VotingWindow time.Duration
	OpenedAt     *time.Time
	ClosedAt     *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s Session) IsPresent(memberID string) bool {
	for _, present := range s.Present {
		if present == memberID {
			return true
		}
	}
	return false
}

func (s Session) OnAgenda(caseID string) bool {
	for _, item := range s.Agenda {
		if item == caseID {
			return true
		}
	}
	return false
}
