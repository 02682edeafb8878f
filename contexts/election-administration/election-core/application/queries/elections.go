package queries

import (
	"context"
	"strings"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
)

type ElectionQueries struct {
	Elections ports.ElectionRepository
	Slates    ports.SlateRepository
	Voters    ports.VoterRegistry
}

func (q ElectionQueries) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return entities.Election{}, domainerrors.ErrInvalidInput
	}
	return q.Elections.GetElection(ctx, electionID)
}

// ListElections returns active elections only; an empty phase lists all.
func (q ElectionQueries) ListElections(ctx context.Context, phase entities.Phase) ([]entities.Election, error) {
	return q.Elections.ListElections(ctx, phase)
}

func (q ElectionQueries) History(ctx context.Context, electionID string) ([]entities.PhaseTransition, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if _, err := q.Elections.GetElection(ctx, electionID); err != nil {
		return nil, err
	}
	return q.Elections.ListTransitions(ctx, electionID)
}

func (q ElectionQueries) ListSlates(ctx context.Context, electionID string) ([]entities.Slate, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return q.Slates.ListSlates(ctx, electionID)
}

func (q ElectionQueries) LookupVoter(ctx context.Context, electionID string, identityID string) (entities.EligibleVoter, error) {
	electionID = strings.TrimSpace(electionID)
	identityID = strings.TrimSpace(identityID)
	if electionID == "" || identityID == "" {
		return entities.EligibleVoter{}, domainerrors.ErrInvalidInput
	}
	return q.Voters.GetVoter(ctx, electionID, identityID)
}

func (q ElectionQueries) CountEligible(ctx context.Context, electionID string) (int, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return 0, domainerrors.ErrInvalidInput
	}
	return q.Voters.CountEligible(ctx, electionID)
}
