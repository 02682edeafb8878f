package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application/commands"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
)

// VotingWindowCloser moves elections out of Voting once their window has
// elapsed. The transition is recorded as automatic.
type VotingWindowCloser struct {
	Elections ports.ElectionRepository
	Phases    commands.PhaseUseCase
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (w VotingWindowCloser) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(w.Logger)
	elections, err := w.Elections.ListElections(ctx, entities.PhaseVoting)
	if err != nil {
		logger.Error("voting window scan failed",
			"event", "election_window_closer_list_failed",
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

	closed := 0
	for _, election := range elections {
		if election.Status != entities.StatusInProgress || !election.VotingWindowElapsed(now) {
			continue
		}
		_, err := w.Phases.Advance(ctx, commands.AdvanceCommand{
			ElectionID: election.ElectionID,
			Target:     entities.PhaseTallying,
			Actor:      "system:voting-window-closer",
			Reason:     "voting window elapsed",
			Automatic:  true,
		})
		if err != nil {
			// A concurrent manual transition wins; the next cycle sees the new phase.
			if errors.Is(err, domainerrors.ErrConcurrentModification) || errors.Is(err, domainerrors.ErrInvalidTransition) {
				continue
			}
			logger.Error("voting window close failed",
				"event", "election_window_closer_advance_failed",
				"module", moduleName,
				"layer", "worker",
				"election_id", election.ElectionID,
				"error", err.Error(),
			)
			return closed, err
		}
		closed++
	}
	if closed > 0 {
		logger.Info("voting windows closed",
			"event", "election_window_closer_completed",
			"module", moduleName,
			"layer", "worker",
			"closed_count", closed,
		)
	}
	return closed, nil
}
