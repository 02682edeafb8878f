package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/ports"
)

const moduleName = "dispute-resolution/judgment-session"

// DeadlineSweeper concludes cases whose voting deadline elapsed. Missing
// votes are counted as abstentions by the resolution itself.
type DeadlineSweeper struct {
	Cases    ports.CaseRepository
	Verdicts commands.VerdictUseCase
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (w DeadlineSweeper) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(w.Logger)
	cases, err := w.Cases.ListCasesByState(ctx, entities.CaseVoting)
	if err != nil {
		logger.Error("deadline sweep scan failed",
			"event", "judgment_deadline_sweep_list_failed",
			"module", moduleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}
	now := time.Now().UTC()
	if w.Clock != nil {
		now = w.Clock.Now().UTC()
	}

	concluded := 0
	for _, c := range cases {
		if !c.DeadlineElapsed(now) {
			continue
		}
		_, err := w.Verdicts.Conclude(ctx, commands.ConcludeCommand{
			SessionID: c.SessionID,
			CaseID:    c.CaseID,
			Rationale: "voting deadline elapsed",
			Actor:     "system:deadline-sweeper",
		})
		switch {
		case err == nil:
			concluded++
		case errors.Is(err, domainerrors.ErrTiedNoBreaker), errors.Is(err, domainerrors.ErrTieBreakPending):
			logger.Warn("tied case awaits a tie-break",
				"event", "judgment_deadline_sweep_tied",
				"module", moduleName,
				"layer", "worker",
				"case_id", c.CaseID,
				"reason", err.Error(),
			)
		case errors.Is(err, domainerrors.ErrAlreadyDecided), errors.Is(err, domainerrors.ErrConcurrentModification):
			// A manual conclusion won the race.
		default:
			logger.Error("deadline conclusion failed",
				"event", "judgment_deadline_sweep_failed",
				"module", moduleName,
				"layer", "worker",
				"case_id", c.CaseID,
				"error", err.Error(),
			)
			return concluded, err
		}
	}
	if concluded > 0 {
		logger.Info("expired cases concluded",
			"event", "judgment_deadline_sweep_completed",
			"module", moduleName,
			"layer", "worker",
			"concluded_count", concluded,
		)
	}
	return concluded, nil
}
