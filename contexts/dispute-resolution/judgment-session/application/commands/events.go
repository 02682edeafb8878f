package commands

import (
	"context"
	"log/slog"
	"time"

	auditv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/audit/v1"
	eventsv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/events/v1"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/ports"
)

const (
	moduleName    = "dispute-resolution/judgment-session"
	sourceService = "judgment-session"
)

// verdictEnvelope partitions by case so an appeal's verdict is ordered after
// nothing but its own case history.
func verdictEnvelope(eventID string, verdict entities.Verdict) (ports.EventEnvelope, error) {
	return eventsv1.New(
		eventID,
		eventsv1.TopicVerdictFinalized,
		sourceService,
		"case_id",
		verdict.CaseID,
		verdict.DecidedAt,
		eventsv1.VerdictFinalized{
			VerdictID:    verdict.VerdictID,
			CaseID:       verdict.CaseID,
			SessionID:    verdict.SessionID,
			ElectionID:   verdict.ElectionID,
			AppealOf:     verdict.AppealOf,
			Resolution:   string(verdict.Resolution),
			DecisionKind: string(verdict.DecisionKind),
			Remedy: eventsv1.Remedy{
				Action:     string(verdict.Remedy.Action),
				SlateID:    verdict.Remedy.SlateID,
				BallotHash: verdict.Remedy.BallotHash,
			},
			Stamp:     verdict.Stamp,
			DecidedAt: verdict.DecidedAt.UTC().Format(time.RFC3339Nano),
		},
	)
}

type auditRecord struct {
	Action     string
	EntityType string
	EntityID   string
	Actor      string
	Details    map[string]string
}

// recordAudit never fails the caller; a missing sink or a write error is
// logged.
func recordAudit(
	ctx context.Context,
	sink ports.AuditSink,
	idGen ports.IDGenerator,
	logger *slog.Logger,
	now time.Time,
	record auditRecord,
) {
	if sink == nil {
		return
	}
	entryID, err := idGen.NewID(ctx)
	if err != nil {
		logger.Error("audit entry id generation failed",
			"event", "judgment_audit_id_failed",
			"module", moduleName,
			"layer", "application",
			"action", record.Action,
			"error", err.Error(),
		)
		return
	}
	if err := sink.Record(ctx, auditv1.Entry{
		EntryID:       entryID,
		Action:        record.Action,
		Severity:      auditv1.SeverityInfo,
		SourceService: sourceService,
		EntityType:    record.EntityType,
		EntityID:      record.EntityID,
		Actor:         record.Actor,
		Details:       record.Details,
		OccurredAt:    now,
	}); err != nil {
		logger.Error("audit entry write failed",
			"event", "judgment_audit_write_failed",
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
