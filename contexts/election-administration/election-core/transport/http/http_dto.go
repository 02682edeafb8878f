package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateElectionRequest struct {
	Name           string    `json:"name" validate:"required,max=200"`
	VotingMode     string    `json:"voting_mode,omitempty" validate:"omitempty,oneof=online in_person hybrid"`
	SeatCount      int       `json:"seat_count" validate:"gte=1"`
	VotingStartsAt time.Time `json:"voting_starts_at"`
	VotingEndsAt   time.Time `json:"voting_ends_at"`
}

type ElectionResponse struct {
	ElectionID         string    `json:"election_id"`
	Name               string    `json:"name"`
	Status             string    `json:"status"`
	Phase              string    `json:"phase"`
	VotingMode         string    `json:"voting_mode"`
	SeatCount          int       `json:"seat_count"`
	VotingStartsAt     time.Time `json:"voting_starts_at"`
	VotingEndsAt       time.Time `json:"voting_ends_at"`
	EarlyClosure       bool      `json:"early_closure"`
	EarlyClosureReason string    `json:"early_closure_reason,omitempty"`
	Retired            bool      `json:"retired"`
	Version            int64     `json:"version"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ElectionListResponse struct {
	Items []ElectionResponse `json:"items"`
}

type AdvanceElectionRequest struct {
	TargetPhase  string `json:"target_phase" validate:"required,oneof=preparatory registration campaign voting tallying result installation"`
	EarlyClosure bool   `json:"early_closure"`
	Reason       string `json:"reason,omitempty" validate:"max=500"`
}

type PhaseChangeRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type TransitionResponse struct {
	Sequence   int       `json:"sequence"`
	FromPhase  string    `json:"from_phase,omitempty"`
	ToPhase    string    `json:"to_phase"`
	FromStatus string    `json:"from_status,omitempty"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Automatic  bool      `json:"automatic"`
	OccurredAt time.Time `json:"occurred_at"`
}

type ElectionHistoryResponse struct {
	ElectionID  string               `json:"election_id"`
	Transitions []TransitionResponse `json:"transitions"`
}

type VoterRollEntryRequest struct {
	IdentityID          string `json:"identity_id" validate:"required"`
	Ineligible          bool   `json:"ineligible"`
	IneligibilityReason string `json:"ineligibility_reason,omitempty"`
	SectionRef          string `json:"section_ref,omitempty"`
}

type ImportVoterRollRequest struct {
	Entries []VoterRollEntryRequest `json:"entries" validate:"required,min=1,max=50000,dive"`
}

type ImportVoterRollResponse struct {
	ElectionID string `json:"election_id"`
	Imported   int    `json:"imported"`
}

type MarkIneligibleRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type VoterResponse struct {
	ElectionID          string     `json:"election_id"`
	IdentityID          string     `json:"identity_id"`
	Eligible            bool       `json:"eligible"`
	IneligibilityReason string     `json:"ineligibility_reason,omitempty"`
	HasVoted            bool       `json:"has_voted"`
	VotedAt             *time.Time `json:"voted_at,omitempty"`
	SectionRef          string     `json:"section_ref,omitempty"`
}

type EligibleCountResponse struct {
	ElectionID    string `json:"election_id"`
	EligibleCount int    `json:"eligible_count"`
}

type RegisterSlateRequest struct {
	Name      string `json:"name" validate:"required,max=200"`
	Number    int    `json:"number" validate:"gte=0"`
	Incumbent bool   `json:"incumbent"`
}

type SlateStatusRequest struct {
	Reason    string `json:"reason,omitempty" validate:"max=500"`
	VerdictID string `json:"verdict_id,omitempty"`
}

type SlateResponse struct {
	SlateID           string `json:"slate_id"`
	ElectionID        string `json:"election_id"`
	Name              string `json:"name"`
	Number            int    `json:"number"`
	Status            string `json:"status"`
	Incumbent         bool   `json:"incumbent"`
	RegistrationOrder int    `json:"registration_order"`
}

type SlateListResponse struct {
	Items []SlateResponse `json:"items"`
}

type CastBallotRequest struct {
	Credential string `json:"credential" validate:"required"`
	Kind       string `json:"kind,omitempty" validate:"omitempty,oneof=valid blank null"`
	SlateID    string `json:"slate_id,omitempty"`
	TerminalID string `json:"terminal_id,omitempty"`
}

type ReceiptResponse struct {
	ElectionID string    `json:"election_id"`
	BallotHash string    `json:"ballot_hash"`
	CastAt     time.Time `json:"cast_at"`
	Signature  string    `json:"signature,omitempty"`
}

type ReceiptVerificationResponse struct {
	ElectionID      string     `json:"election_id"`
	BallotHash      string     `json:"ballot_hash"`
	Stored          bool       `json:"stored"`
	CastAt          *time.Time `json:"cast_at,omitempty"`
	Nullified       bool       `json:"nullified"`
	FinalTallyID    string     `json:"final_tally_id,omitempty"`
	IncludedInFinal bool       `json:"included_in_final"`
	Homologated     bool       `json:"homologated"`
}

type ComputeTallyRequest struct {
	Mode string `json:"mode" validate:"required,oneof=partial final"`
}

type TallySlateResponse struct {
	SlateID           string  `json:"slate_id"`
	SlateName         string  `json:"slate_name,omitempty"`
	Votes             int     `json:"votes"`
	PercentValid      float64 `json:"percent_valid"`
	Rank              int     `json:"rank"`
	Elected           bool    `json:"elected"`
	TieBreakCriterion string  `json:"tie_break_criterion,omitempty"`
}

type TallyResponse struct {
	TallyID         string               `json:"tally_id"`
	ElectionID      string               `json:"election_id"`
	Version         int                  `json:"version"`
	Mode            string               `json:"mode"`
	Partial         bool                 `json:"partial"`
	PercentCounted  float64              `json:"percent_counted"`
	EligibleCount   int                  `json:"eligible_count"`
	VotedCount      int                  `json:"voted_count"`
	AbstainedCount  int                  `json:"abstained_count"`
	ValidCount      int                  `json:"valid_count"`
	BlankCount      int                  `json:"blank_count"`
	NullCount       int                  `json:"null_count"`
	VoidedCount     int                  `json:"voided_count"`
	SeatCount       int                  `json:"seat_count"`
	InputHash       string               `json:"input_hash"`
	ResultHash      string               `json:"result_hash"`
	DrawSeed        string               `json:"draw_seed,omitempty"`
	TieBreakApplied bool                 `json:"tie_break_applied"`
	ExcludedSlates  []string             `json:"excluded_slates,omitempty"`
	Homologated     bool                 `json:"homologated"`
	HomologatedAt   *time.Time           `json:"homologated_at,omitempty"`
	HomologatedBy   string               `json:"homologated_by,omitempty"`
	Signature       string               `json:"signature,omitempty"`
	ComputedAt      time.Time            `json:"computed_at"`
	Slates          []TallySlateResponse `json:"slates"`
}

type TallyListResponse struct {
	Items []TallyResponse `json:"items"`
}

type TallyVerificationResponse struct {
	TallyID           string `json:"tally_id"`
	StoredHashValid   bool   `json:"stored_hash_valid"`
	InputHashMatches  bool   `json:"input_hash_matches"`
	ResultHashMatches bool   `json:"result_hash_matches"`
	Reproducible      bool   `json:"reproducible"`
	RecomputedInput   string `json:"recomputed_input_hash"`
	RecomputedResult  string `json:"recomputed_result_hash"`
}

type NullifyBallotRequest struct {
	BallotHash string `json:"ballot_hash" validate:"required"`
	VerdictID  string `json:"verdict_id,omitempty"`
	Reason     string `json:"reason" validate:"required,max=500"`
}

type NullificationResponse struct {
	NullificationID string    `json:"nullification_id"`
	ElectionID      string    `json:"election_id"`
	BallotHash      string    `json:"ballot_hash"`
	VerdictID       string    `json:"verdict_id,omitempty"`
	Reason          string    `json:"reason"`
	CreatedAt       time.Time `json:"created_at"`
}
