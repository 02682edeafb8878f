package workers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	eventsv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/events/v1"
	application "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application/commands"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
)

const defaultVerdictCG = "election-core-verdict-cg"

// VerdictConsumer applies granted judgment remedies to election state. The
// verdict itself stays owned by the judgment context.
type VerdictConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Roll          commands.RollUseCase
	Tallying      commands.TallyUseCase
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Disabled      bool
	Logger        *slog.Logger
}

func (c VerdictConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("verdict consumer disabled by feature flag",
			"event", "election_verdict_consumer_disabled",
			"module", moduleName,
			"layer", "worker",
		)
		return nil
	}
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultVerdictCG
	}
	if err := c.Subscriber.Subscribe(ctx, eventsv1.TopicVerdictFinalized, group, c.Handle); err != nil {
		logger.Error("verdict consumer subscribe failed",
			"event", "election_verdict_consumer_subscribe_failed",
			"module", moduleName,
			"layer", "worker",
			"topic", eventsv1.TopicVerdictFinalized,
			"consumer_group", group,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("verdict consumer subscription active",
		"event", "election_verdict_consumer_started",
		"module", moduleName,
		"layer", "worker",
		"consumer_group", group,
	)
	return nil
}

// Handle is exported so other transports can feed envelopes directly.
func (c VerdictConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
	if err != nil {
		logger.Error("verdict event dedupe failed",
			"event", "election_verdict_dedupe_failed",
			"module", moduleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("verdict replay skipped",
			"event", "election_verdict_replayed",
			"module", moduleName,
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload eventsv1.VerdictFinalized
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		// A malformed payload never decodes on redelivery either; it stays
		// reserved so it cannot block the events behind it.
		logger.Error("verdict payload decode failed",
			"event", "election_verdict_decode_failed",
			"module", moduleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return nil
	}
	if payload.Resolution != eventsv1.ResolutionGranted ||
		strings.TrimSpace(payload.ElectionID) == "" ||
		payload.Remedy.Action == "" || payload.Remedy.Action == eventsv1.RemedyNone {
		logger.Debug("verdict carries no election remedy",
			"event", "election_verdict_no_remedy",
			"module", moduleName,
			"layer", "worker",
			"verdict_id", payload.VerdictID,
			"resolution", payload.Resolution,
		)
		return nil
	}

	reason := "verdict " + payload.VerdictID
	actor := "judgment:" + payload.CaseID
	switch payload.Remedy.Action {
	case eventsv1.RemedyDisqualifySlate:
		_, err = c.Roll.DisqualifySlate(ctx, commands.SlateStatusCommand{
			ElectionID: payload.ElectionID,
			SlateID:    payload.Remedy.SlateID,
			Actor:      actor,
			Reason:     reason,
			VerdictID:  payload.VerdictID,
		})
	case eventsv1.RemedyReinstateSlate:
		_, err = c.Roll.ReinstateSlate(ctx, commands.SlateStatusCommand{
			ElectionID: payload.ElectionID,
			SlateID:    payload.Remedy.SlateID,
			Actor:      actor,
			Reason:     reason,
			VerdictID:  payload.VerdictID,
		})
	case eventsv1.RemedyNullifyBallot:
		_, err = c.Tallying.NullifyBallot(ctx, commands.NullifyBallotCommand{
			ElectionID: payload.ElectionID,
			BallotHash: payload.Remedy.BallotHash,
			VerdictID:  payload.VerdictID,
			Reason:     reason,
			Actor:      actor,
		})
	default:
		logger.Warn("verdict remedy unknown",
			"event", "election_verdict_remedy_unknown",
			"module", moduleName,
			"layer", "worker",
			"verdict_id", payload.VerdictID,
			"action", payload.Remedy.Action,
		)
		return nil
	}
	if err != nil {
		// A remedy already in effect is not a failure of the consumer.
		if errors.Is(err, domainerrors.ErrInvalidTransition) || errors.Is(err, domainerrors.ErrAlreadyNullified) {
			logger.Info("verdict remedy already applied",
				"event", "election_verdict_remedy_noop",
				"module", moduleName,
				"layer", "worker",
				"verdict_id", payload.VerdictID,
				"action", payload.Remedy.Action,
			)
			return nil
		}
		if permanentRemedyError(err) {
			logger.Error("verdict remedy rejected",
				"event", "election_verdict_remedy_rejected",
				"module", moduleName,
				"layer", "worker",
				"verdict_id", payload.VerdictID,
				"election_id", payload.ElectionID,
				"action", payload.Remedy.Action,
				"error", err.Error(),
			)
			return nil
		}
		logger.Error("verdict remedy failed",
			"event", "election_verdict_remedy_failed",
			"module", moduleName,
			"layer", "worker",
			"verdict_id", payload.VerdictID,
			"election_id", payload.ElectionID,
			"action", payload.Remedy.Action,
			"error", err.Error(),
		)
		if releaseErr := c.Dedup.ReleaseEvent(ctx, event.EventID); releaseErr != nil {
			logger.Error("verdict event release failed",
				"event", "election_verdict_release_failed",
				"module", moduleName,
				"layer", "worker",
				"event_id", event.EventID,
				"error", releaseErr.Error(),
			)
			return errors.Join(err, releaseErr)
		}
		return err
	}
	logger.Info("verdict remedy applied",
		"event", "election_verdict_remedy_applied",
		"module", moduleName,
		"layer", "worker",
		"verdict_id", payload.VerdictID,
		"election_id", payload.ElectionID,
		"action", payload.Remedy.Action,
	)
	return nil
}

// permanentRemedyError reports errors that a retry cannot fix: the target is
// gone or the election no longer accepts the change.
func permanentRemedyError(err error) bool {
	return errors.Is(err, domainerrors.ErrInvalidInput) ||
		errors.Is(err, domainerrors.ErrElectionNotFound) ||
		errors.Is(err, domainerrors.ErrSlateNotFound) ||
		errors.Is(err, domainerrors.ErrBallotNotFound) ||
		errors.Is(err, domainerrors.ErrElectionTerminal) ||
		errors.Is(err, domainerrors.ErrOperationNotAllowed)
}

func (c VerdictConsumer) now() time.Time {
	if c.Clock != nil {
		return c.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (c VerdictConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}
