package v1

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Envelope is the canonical, versioned event envelope shared by the election
// and judgment contexts. Fields must stay backward compatible.
type Envelope struct {
	EventID          string          `json:"event_id"`
	EventType        string          `json:"event_type"`
	OccurredAt       time.Time       `json:"occurred_at"`
	SourceService    string          `json:"source_service"`
	TraceID          string          `json:"trace_id"`
	SchemaVersion    int             `json:"schema_version"`
	PartitionKeyPath string          `json:"partition_key_path"`
	PartitionKey     string          `json:"partition_key"`
	Data             json.RawMessage `json:"data"`
}

var ErrInvalidEnvelope = errors.New("invalid event envelope")

// New builds an envelope whose payload is the JSON encoding of data.
func New(
	eventID string,
	eventType string,
	sourceService string,
	partitionKeyPath string,
	partitionKey string,
	occurredAt time.Time,
	data any,
) (Envelope, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, err
	}
	envelope := Envelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: partitionKeyPath,
		PartitionKey:     partitionKey,
		Data:             payload,
	}
	return envelope, envelope.Validate()
}

func (e Envelope) Validate() error {
	if strings.TrimSpace(e.EventID) == "" ||
		strings.TrimSpace(e.EventType) == "" ||
		strings.TrimSpace(e.SourceService) == "" ||
		e.SchemaVersion <= 0 {
		return ErrInvalidEnvelope
	}
	return nil
}
