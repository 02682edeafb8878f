package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	auditv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/audit/v1"
	application "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
)

// CastBallotCommand carries a caller credential, never a resolved identity.
// An empty Kind with a SlateID means a valid vote for that slate.
type CastBallotCommand struct {
	ElectionID string
	Credential string
	Kind       entities.VoteKind
	SlateID    string
	Channel    entities.Channel
}

// CastUseCase accepts at most one ballot per eligible voter. The open-window
// check runs on every call and again inside CommitCast, so a suspension is
// observed by the very next cast.
type CastUseCase struct {
	Elections ports.ElectionRepository
	Slates    ports.SlateRepository
	Voters    ports.VoterRegistry
	Ballots   ports.BallotRepository
	Identity  ports.IdentitySource
	Hasher    ports.Hasher
	Signer    ports.Signer
	Audit     ports.AuditSink
	Notifier  ports.Notifier
	Metrics   ports.Metrics
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

func (uc CastUseCase) CastBallot(ctx context.Context, cmd CastBallotCommand) (entities.Receipt, error) {
	logger := application.ResolveLogger(uc.Logger)
	receipt, outcome, err := uc.cast(ctx, cmd, logger)
	if uc.Metrics != nil {
		uc.Metrics.ObserveCast(outcome)
	}
	return receipt, err
}

func (uc CastUseCase) cast(
	ctx context.Context,
	cmd CastBallotCommand,
	logger *slog.Logger,
) (entities.Receipt, string, error) {
	electionID := strings.TrimSpace(cmd.ElectionID)
	credential := strings.TrimSpace(cmd.Credential)
	slateID := strings.TrimSpace(cmd.SlateID)
	kind := cmd.Kind
	if kind == "" && slateID != "" {
		kind = entities.VoteKindValid
	}
	if electionID == "" || credential == "" || !kind.Valid() {
		logger.Warn("ballot cast validation failed",
			"event", "election_cast_validation_failed",
			"module", moduleName,
			"layer", "application",
			"election_id", electionID,
		)
		return entities.Receipt{}, "invalid_input", domainerrors.ErrInvalidInput
	}

	now := resolveNow(uc.Clock).Truncate(time.Microsecond)
	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.Receipt{}, "error", err
	}
	if !election.OpenForVoting(now) {
		logger.Info("ballot cast rejected: election not open",
			"event", "election_cast_not_open",
			"module", moduleName,
			"layer", "application",
			"election_id", electionID,
			"phase", string(election.Phase),
			"status", string(election.Status),
		)
		return entities.Receipt{}, "not_open", domainerrors.ErrElectionNotOpenForVoting
	}
	if err := uc.checkChoice(ctx, electionID, kind, slateID); err != nil {
		return entities.Receipt{}, "invalid_choice", err
	}

	identity, err := uc.Identity.ResolveVoter(ctx, electionID, credential)
	if err != nil {
		if errors.Is(err, domainerrors.ErrUnknownCredential) {
			return entities.Receipt{}, "not_eligible", domainerrors.ErrNotEligible
		}
		return entities.Receipt{}, "error", err
	}
	voter, err := uc.Voters.GetVoter(ctx, electionID, identity.IdentityID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrVoterNotFound) {
			return entities.Receipt{}, "not_eligible", domainerrors.ErrNotEligible
		}
		return entities.Receipt{}, "error", err
	}
	if !voter.Active || !voter.Eligible {
		return entities.Receipt{}, "not_eligible", domainerrors.ErrNotEligible
	}
	if voter.HasVoted {
		return entities.Receipt{}, "already_voted", domainerrors.ErrAlreadyVoted
	}

	voterHash, err := uc.Hasher.VoterHash(electionID, identity.IdentityID)
	if err != nil {
		return entities.Receipt{}, "error", err
	}
	ballotID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Receipt{}, "error", err
	}
	nonce, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Receipt{}, "error", err
	}
	ballot := entities.Ballot{
		BallotID:   ballotID,
		ElectionID: electionID,
		SlateID:    slateID,
		Kind:       kind,
		VoterHash:  voterHash,
		Nonce:      nonce,
		CastAt:     now,
		Channel: entities.Channel{
			TerminalID: strings.TrimSpace(cmd.Channel.TerminalID),
			IPAddress:  strings.TrimSpace(cmd.Channel.IPAddress),
			UserAgent:  strings.TrimSpace(cmd.Channel.UserAgent),
		},
	}
	ballot.BallotHash, err = uc.Hasher.BallotHash(ballot.Content())
	if err != nil {
		return entities.Receipt{}, "error", err
	}

	if err := uc.Ballots.CommitCast(ctx, identity.IdentityID, ballot); err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrAlreadyVoted):
			return entities.Receipt{}, "already_voted", err
		case errors.Is(err, domainerrors.ErrNotEligible):
			return entities.Receipt{}, "not_eligible", err
		case errors.Is(err, domainerrors.ErrElectionNotOpenForVoting):
			return entities.Receipt{}, "not_open", err
		case errors.Is(err, domainerrors.ErrDuplicateBallot):
			logger.Error("duplicate ballot detected at storage layer",
				"event", "election_cast_duplicate_ballot",
				"module", moduleName,
				"layer", "application",
				"election_id", electionID,
				"voter_hash", voterHash,
			)
			recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
				Action:     "ballot.duplicate_detected",
				Severity:   auditv1.SeverityViolation,
				EntityType: "election",
				EntityID:   electionID,
				Details: map[string]string{
					"voter_hash":  voterHash,
					"ballot_hash": ballot.BallotHash,
				},
			})
			return entities.Receipt{}, "integrity_violation", err
		default:
			logger.Error("ballot commit failed",
				"event", "election_cast_commit_failed",
				"module", moduleName,
				"layer", "application",
				"election_id", electionID,
				"error", err.Error(),
			)
			return entities.Receipt{}, "error", err
		}
	}

	receipt := entities.Receipt{
		ElectionID: electionID,
		BallotHash: ballot.BallotHash,
		CastAt:     ballot.CastAt,
	}
	if uc.Signer != nil {
		signature, err := uc.Signer.Sign(ReceiptPayload(receipt))
		if err != nil {
			logger.Error("receipt signing failed",
				"event", "election_cast_receipt_sign_failed",
				"module", moduleName,
				"layer", "application",
				"election_id", electionID,
				"error", err.Error(),
			)
		} else {
			receipt.Signature = signature
		}
	}

	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     "ballot.cast",
		EntityType: "election",
		EntityID:   electionID,
		Details: map[string]string{
			"ballot_hash": ballot.BallotHash,
			"voter_hash":  voterHash,
			"terminal_id": ballot.Channel.TerminalID,
		},
	})
	uc.notify(ctx, logger, receipt)
	logger.Info("ballot cast",
		"event", "election_ballot_cast",
		"module", moduleName,
		"layer", "application",
		"election_id", electionID,
		"ballot_hash", ballot.BallotHash,
		"voter_hash", voterHash,
	)
	return receipt, "accepted", nil
}

func (uc CastUseCase) checkChoice(ctx context.Context, electionID string, kind entities.VoteKind, slateID string) error {
	if kind != entities.VoteKindValid {
		if slateID != "" {
			return domainerrors.ErrInvalidChoice
		}
		return nil
	}
	if slateID == "" {
		return domainerrors.ErrInvalidChoice
	}
	slate, err := uc.Slates.GetSlate(ctx, electionID, slateID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrSlateNotFound) {
			return domainerrors.ErrInvalidChoice
		}
		return err
	}
	if slate.ElectionID != electionID || !slate.Votable() {
		return domainerrors.ErrInvalidChoice
	}
	return nil
}

// notify never fails the cast; the ballot is already committed.
func (uc CastUseCase) notify(ctx context.Context, logger *slog.Logger, receipt entities.Receipt) {
	if uc.Notifier == nil {
		return
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err == nil {
		var envelope ports.EventEnvelope
		envelope, err = newElectionEnvelope(eventID, EventBallotConfirmed, receipt.ElectionID, receipt.CastAt, map[string]any{
			"election_id": receipt.ElectionID,
			"ballot_hash": receipt.BallotHash,
			"cast_at":     receipt.CastAt.Format(time.RFC3339Nano),
		})
		if err == nil {
			err = uc.Notifier.Notify(ctx, EventBallotConfirmed, envelope)
		}
	}
	if err != nil {
		logger.Warn("ballot confirmation notification failed",
			"event", "election_cast_notify_failed",
			"module", moduleName,
			"layer", "application",
			"election_id", receipt.ElectionID,
			"error", err.Error(),
		)
	}
}

// ReceiptPayload is the byte string a receipt signature covers.
func ReceiptPayload(receipt entities.Receipt) []byte {
	return []byte(receipt.ElectionID + "|" + receipt.BallotHash + "|" + receipt.CastAt.UTC().Format(time.RFC3339Nano))
}
