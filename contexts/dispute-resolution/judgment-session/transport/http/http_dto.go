package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CommissionMemberRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Name     string `json:"name,omitempty" validate:"max=200"`
	Role     string `json:"role" validate:"required,oneof=president rapporteur reviewer member alternate"`
	Active   bool   `json:"active"`
}

type CreateCommissionRequest struct {
	Name    string                    `json:"name" validate:"required,max=200"`
	Members []CommissionMemberRequest `json:"members" validate:"required,min=1,max=100,dive"`
}

type CommissionMemberResponse struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name,omitempty"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

type CommissionResponse struct {
	CommissionID string                     `json:"commission_id"`
	Name         string                     `json:"name"`
	ActiveCount  int                        `json:"active_count"`
	Quorum       int                        `json:"quorum"`
	Members      []CommissionMemberResponse `json:"members"`
}

type RemedyPayload struct {
	Action     string `json:"action,omitempty" validate:"omitempty,oneof=none disqualify_slate reinstate_slate nullify_ballot"`
	SlateID    string `json:"slate_id,omitempty"`
	BallotHash string `json:"ballot_hash,omitempty"`
}

type RegisterCaseRequest struct {
	Kind       string        `json:"kind" validate:"required,oneof=complaint challenge"`
	Subject    string        `json:"subject" validate:"required,max=2000"`
	ElectionID string        `json:"election_id,omitempty"`
	Remedy     RemedyPayload `json:"remedy"`
}

type FileAppealRequest struct {
	Subject string        `json:"subject" validate:"required,max=2000"`
	Remedy  RemedyPayload `json:"remedy"`
}

type CaseResponse struct {
	CaseID         string        `json:"case_id"`
	Kind           string        `json:"kind"`
	Subject        string        `json:"subject"`
	ElectionID     string        `json:"election_id,omitempty"`
	AppealOf       string        `json:"appeal_of,omitempty"`
	Remedy         RemedyPayload `json:"remedy"`
	State          string        `json:"state"`
	SessionID      string        `json:"session_id,omitempty"`
	VotingOpenedAt *time.Time    `json:"voting_opened_at,omitempty"`
	VotingDeadline *time.Time    `json:"voting_deadline,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

type CaseListResponse struct {
	Items []CaseResponse `json:"items"`
}

type ScheduleSessionRequest struct {
	CommissionID        string    `json:"commission_id" validate:"required"`
	ScheduledFor        time.Time `json:"scheduled_for"`
	Agenda              []string  `json:"agenda" validate:"required,min=1,max=200,dive,required"`
	VotingWindowSeconds int       `json:"voting_window_seconds,omitempty" validate:"gte=0,lte=604800"`
}

type OpenSessionRequest struct {
	Present []string `json:"present" validate:"required,min=1,dive,required"`
}

type SessionResponse struct {
	SessionID           string     `json:"session_id"`
	CommissionID        string     `json:"commission_id"`
	ScheduledFor        time.Time  `json:"scheduled_for"`
	Status              string     `json:"status"`
	Agenda              []string   `json:"agenda"`
	Present             []string   `json:"present,omitempty"`
	TieBreakerID        string     `json:"tie_breaker_id,omitempty"`
	VotingWindowSeconds int        `json:"voting_window_seconds"`
	OpenedAt            *time.Time `json:"opened_at,omitempty"`
	ClosedAt            *time.Time `json:"closed_at,omitempty"`
}

type RecordVoteRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Choice   string `json:"choice" validate:"required,oneof=grant deny abstain"`
}

type TieBreakRequest struct {
	MemberID string `json:"member_id" validate:"required"`
	Choice   string `json:"choice" validate:"required,oneof=grant deny"`
}

type VoteResponse struct {
	CaseID    string    `json:"case_id"`
	SessionID string    `json:"session_id"`
	MemberID  string    `json:"member_id"`
	Choice    string    `json:"choice"`
	TieBreak  bool      `json:"tie_break"`
	CastAt    time.Time `json:"cast_at"`
}

type VoteListResponse struct {
	Items []VoteResponse `json:"items"`
}

type ConcludeRequest struct {
	Rationale string `json:"rationale,omitempty" validate:"max=5000"`
}

type VerdictResponse struct {
	VerdictID           string         `json:"verdict_id"`
	CaseID              string         `json:"case_id"`
	SessionID           string         `json:"session_id,omitempty"`
	ElectionID          string         `json:"election_id,omitempty"`
	AppealOf            string         `json:"appeal_of,omitempty"`
	Votes               []VoteResponse `json:"votes"`
	Grants              int            `json:"grants"`
	Denials             int            `json:"denials"`
	Abstentions         int            `json:"abstentions"`
	DeadlineAbstentions []string       `json:"deadline_abstentions,omitempty"`
	Resolution          string         `json:"resolution"`
	DecisionKind        string         `json:"decision_kind,omitempty"`
	TieBreakerID        string         `json:"tie_breaker_id,omitempty"`
	TieBreakChoice      string         `json:"tie_break_choice,omitempty"`
	Rationale           string         `json:"rationale,omitempty"`
	Remedy              RemedyPayload  `json:"remedy"`
	DecidedBy           string         `json:"decided_by,omitempty"`
	DecidedAt           time.Time      `json:"decided_at"`
	Stamp               string         `json:"stamp"`
}

type VerdictVerificationResponse struct {
	VerdictID  string `json:"verdict_id"`
	Stored     string `json:"stored_stamp"`
	Recomputed string `json:"recomputed_stamp"`
	Valid      bool   `json:"valid"`
}
