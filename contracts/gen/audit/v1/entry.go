package v1

import "time"

// Severity separates routine trail entries from integrity violations.
type Severity string

const (
	SeverityInfo      Severity = "info"
	SeverityViolation Severity = "violation"
)

// Entry is one append-only audit record. Producers fill Action with a dotted
// name (election.phase_changed, ballot.cast, tally.computed, verdict.finalized)
// and never include voter identities in Details.
type Entry struct {
	EntryID       string            `json:"entry_id"`
	Action        string            `json:"action"`
	Severity      Severity          `json:"severity"`
	SourceService string            `json:"source_service"`
	EntityType    string            `json:"entity_type"`
	EntityID      string            `json:"entity_id"`
	Actor         string            `json:"actor,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}
