package queries

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
)

// ReceiptVerification answers a voter's question "is my ballot counted?"
// from the ballot hash alone.
type ReceiptVerification struct {
	ElectionID      string
	BallotHash      string
	Stored          bool
	CastAt          time.Time
	Nullified       bool
	FinalTallyID    string
	IncludedInFinal bool
	Homologated     bool
}

type TallyQueries struct {
	Ballots ports.BallotRepository
	Tallies ports.TallyRepository
}

func (q TallyQueries) GetTally(ctx context.Context, tallyID string) (entities.TallyResult, error) {
	tallyID = strings.TrimSpace(tallyID)
	if tallyID == "" {
		return entities.TallyResult{}, domainerrors.ErrInvalidInput
	}
	return q.Tallies.GetTally(ctx, tallyID)
}

// ListTallies returns every stored version, oldest first.
func (q TallyQueries) ListTallies(ctx context.Context, electionID string) ([]entities.TallyResult, error) {
	electionID = strings.TrimSpace(electionID)
	if electionID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	return q.Tallies.ListTallies(ctx, electionID)
}

// LatestTally returns the highest version of the given mode; an empty mode
// matches any.
func (q TallyQueries) LatestTally(ctx context.Context, electionID string, mode entities.TallyMode) (entities.TallyResult, error) {
	tallies, err := q.ListTallies(ctx, electionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	return latest(tallies, mode)
}

// OfficialTally returns the homologated tally of an election.
func (q TallyQueries) OfficialTally(ctx context.Context, electionID string) (entities.TallyResult, error) {
	tallies, err := q.ListTallies(ctx, electionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	for _, tally := range tallies {
		if tally.Homologated {
			return tally, nil
		}
	}
	return entities.TallyResult{}, domainerrors.ErrTallyNotFound
}

// VerifyReceipt reports whether a ballot is stored and covered by the latest
// Final tally. Every stored ballot predates any Final run because casting
// closes before Tallying, so coverage reduces to a timestamp comparison.
func (q TallyQueries) VerifyReceipt(ctx context.Context, electionID string, ballotHash string) (ReceiptVerification, error) {
	electionID = strings.TrimSpace(electionID)
	ballotHash = strings.TrimSpace(ballotHash)
	if electionID == "" || ballotHash == "" {
		return ReceiptVerification{}, domainerrors.ErrInvalidInput
	}
	verification := ReceiptVerification{ElectionID: electionID, BallotHash: ballotHash}
	ballot, err := q.Ballots.GetBallotByHash(ctx, electionID, ballotHash)
	if errors.Is(err, domainerrors.ErrBallotNotFound) {
		return verification, nil
	}
	if err != nil {
		return ReceiptVerification{}, err
	}
	verification.Stored = true
	verification.CastAt = ballot.CastAt
	verification.Nullified, err = q.Ballots.IsNullified(ctx, electionID, ballotHash)
	if err != nil {
		return ReceiptVerification{}, err
	}

	tallies, err := q.Tallies.ListTallies(ctx, electionID)
	if err != nil {
		return ReceiptVerification{}, err
	}
	final, err := latest(tallies, entities.TallyModeFinal)
	if errors.Is(err, domainerrors.ErrTallyNotFound) {
		return verification, nil
	}
	if err != nil {
		return ReceiptVerification{}, err
	}
	verification.FinalTallyID = final.TallyID
	verification.Homologated = final.Homologated
	verification.IncludedInFinal = !ballot.CastAt.After(final.ComputedAt)
	return verification, nil
}

func latest(tallies []entities.TallyResult, mode entities.TallyMode) (entities.TallyResult, error) {
	var found *entities.TallyResult
	for i := range tallies {
		if mode != "" && tallies[i].Mode != mode {
			continue
		}
		if found == nil || tallies[i].Version > found.Version {
			found = &tallies[i]
		}
	}
	if found == nil {
		return entities.TallyResult{}, domainerrors.ErrTallyNotFound
	}
	return *found, nil
}
