package commands

import (
	"context"
	"log/slog"
	"time"

	auditv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/audit/v1"
	eventsv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/events/v1"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
)

const (
	moduleName    = "election-administration/election-core"
	sourceService = "election-core"

	EventPhaseChanged     = "election.phase_changed"
	EventBallotConfirmed  = "ballot.confirmed"
	EventTallyComputed    = "tally.computed"
	EventTallyHomologated = "tally.homologated"
	EventBallotNullified  = "ballot.nullified"
)

// newElectionEnvelope partitions every command-side event by election so
// consumers observe one election's history in order.
func newElectionEnvelope(
	eventID string,
	eventType string,
	electionID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	return eventsv1.New(eventID, eventType, sourceService, "election_id", electionID, occurredAt, data)
}

func appendEvent(
	ctx context.Context,
	outbox ports.OutboxWriter,
	idGen ports.IDGenerator,
	eventType string,
	electionID string,
	occurredAt time.Time,
	data map[string]any,
) error {
	if outbox == nil {
		return nil
	}
	eventID, err := idGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newElectionEnvelope(eventID, eventType, electionID, occurredAt, data)
	if err != nil {
		return err
	}
	return outbox.AppendOutbox(ctx, envelope)
}

type auditRecord struct {
	Action     string
	Severity   auditv1.Severity
	EntityType string
	EntityID   string
	Actor      string
	Details    map[string]string
}

// recordAudit writes to the audit sink. A sink failure is logged; it never
// reverts a state change that already committed.
func recordAudit(
	ctx context.Context,
	sink ports.AuditSink,
	idGen ports.IDGenerator,
	logger *slog.Logger,
	occurredAt time.Time,
	record auditRecord,
) {
	if sink == nil {
		return
	}
	severity := record.Severity
	if severity == "" {
		severity = auditv1.SeverityInfo
	}
	entryID, err := idGen.NewID(ctx)
	if err != nil {
		logger.Error("audit entry id generation failed",
			"event", "election_audit_id_failed",
			"module", moduleName,
			"layer", "application",
			"action", record.Action,
			"error", err.Error(),
		)
		return
	}
	entry := ports.AuditEntry{
		EntryID:       entryID,
		Action:        record.Action,
		Severity:      severity,
		SourceService: sourceService,
		EntityType:    record.EntityType,
		EntityID:      record.EntityID,
		Actor:         record.Actor,
		Details:       record.Details,
		OccurredAt:    occurredAt.UTC(),
	}
	if err := sink.Record(ctx, entry); err != nil {
		logger.Error("audit entry write failed",
			"event", "election_audit_write_failed",
			"module", moduleName,
			"layer", "application",
			"action", record.Action,
			"entity_id", record.EntityID,
			"error", err.Error(),
		)
	}
}

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
