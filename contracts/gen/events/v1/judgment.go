package v1

// TopicVerdictFinalized carries VerdictFinalized payloads from the judgment
// context to the election context.
const TopicVerdictFinalized = "judgment.verdict_finalized"

const (
	RemedyDisqualifySlate = "disqualify_slate"
	RemedyReinstateSlate  = "reinstate_slate"
	RemedyNullifyBallot   = "nullify_ballot"
	RemedyNone            = "none"

	ResolutionGranted  = "granted"
	ResolutionDenied   = "denied"
	ResolutionArchived = "archived"
)

type Remedy struct {
	Action     string `json:"action"`
	SlateID    string `json:"slate_id,omitempty"`
	BallotHash string `json:"ballot_hash,omitempty"`
}

// VerdictFinalized is the Data of a judgment.verdict_finalized envelope. A
// remedy only takes effect when Resolution is granted.
type VerdictFinalized struct {
	VerdictID    string `json:"verdict_id"`
	CaseID       string `json:"case_id"`
	SessionID    string `json:"session_id,omitempty"`
	ElectionID   string `json:"election_id,omitempty"`
	AppealOf     string `json:"appeal_of,omitempty"`
	Resolution   string `json:"resolution"`
	DecisionKind string `json:"decision_kind,omitempty"`
	Remedy       Remedy `json:"remedy"`
	Stamp        string `json:"stamp,omitempty"`
	DecidedAt    string `json:"decided_at"`
}
