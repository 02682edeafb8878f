package commands

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	auditv1 "github.com/brunohelius/cau-eleitoral-migrado-sub006/contracts/gen/audit/v1"
	application "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/application"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/services"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
)

type ComputeTallyCommand struct {
	ElectionID string
	Mode       entities.TallyMode
	Actor      string
}

type HomologateCommand struct {
	TallyID string
	Actor   string
}

type NullifyBallotCommand struct {
	ElectionID string
	BallotHash string
	VerdictID  string
	Reason     string
	Actor      string
}

// TallyVerification compares a stored tally against a fresh recomputation
// over the ballots stored now, using the stored draw seed.
type TallyVerification struct {
	Tally             entities.TallyResult
	Recomputed        entities.TallyResult
	StoredHashValid   bool
	InputHashMatches  bool
	ResultHashMatches bool
}

func (v TallyVerification) Reproducible() bool {
	return v.StoredHashValid && v.InputHashMatches && v.ResultHashMatches
}

var (
	partialTallyPhases = map[entities.Phase]bool{
		entities.PhaseVoting:       true,
		entities.PhaseTallying:     true,
		entities.PhaseResult:       true,
		entities.PhaseInstallation: true,
	}
	finalTallyPhases = map[entities.Phase]bool{
		entities.PhaseTallying:     true,
		entities.PhaseResult:       true,
		entities.PhaseInstallation: true,
	}
	homologationPhases = map[entities.Phase]bool{
		entities.PhaseTallying: true,
		entities.PhaseResult:   true,
	}
)

const maxTallyVersionAttempts = 3

// TallyUseCase is the tallying engine. A run reads one snapshot, never mutates
// ballots and always writes a new immutable TallyResult version.
type TallyUseCase struct {
	Elections ports.ElectionRepository
	Ballots   ports.BallotRepository
	Tallies   ports.TallyRepository
	Hasher    ports.Hasher
	Signer    ports.Signer
	Audit     ports.AuditSink
	Outbox    ports.OutboxWriter
	Metrics   ports.Metrics
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Criteria  []entities.TieBreakCriterion
	Logger    *slog.Logger
}

func (uc TallyUseCase) ComputeTally(ctx context.Context, cmd ComputeTallyCommand) (entities.TallyResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	started := time.Now()
	electionID := strings.TrimSpace(cmd.ElectionID)
	if electionID == "" || !cmd.Mode.Valid() {
		return entities.TallyResult{}, domainerrors.ErrInvalidInput
	}
	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	if !tallyPermitted(election, cmd.Mode) {
		logger.Warn("tally rejected in current phase",
			"event", "election_tally_not_permitted",
			"module", moduleName,
			"layer", "application",
			"election_id", electionID,
			"mode", string(cmd.Mode),
			"phase", string(election.Phase),
			"status", string(election.Status),
		)
		return entities.TallyResult{}, domainerrors.ErrTallyNotPermitted
	}

	now := resolveNow(uc.Clock)
	actor := strings.TrimSpace(cmd.Actor)
	draw, found, err := uc.Tallies.GetDraw(ctx, electionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	seed := ""
	if found {
		seed = draw.Seed
	}
	result, err := uc.evaluate(ctx, election, cmd.Mode, seed, cmd.Mode == entities.TallyModeFinal, actor, now)
	if err != nil {
		return entities.TallyResult{}, err
	}

	result.ComputedBy = actor
	result.ComputedAt = now
	if uc.Signer != nil {
		signature, err := uc.Signer.Sign([]byte(result.ResultHash))
		if err != nil {
			return entities.TallyResult{}, err
		}
		result.Signature = signature
	}
	if err := uc.save(ctx, &result); err != nil {
		logger.Error("tally save failed",
			"event", "election_tally_save_failed",
			"module", moduleName,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		return entities.TallyResult{}, err
	}

	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     EventTallyComputed,
		EntityType: "tally",
		EntityID:   result.TallyID,
		Actor:      actor,
		Details: map[string]string{
			"election_id": electionID,
			"mode":        string(result.Mode),
			"version":     strconv.Itoa(result.Version),
			"input_hash":  result.InputHash,
			"result_hash": result.ResultHash,
			"voted":       strconv.Itoa(result.VotedCount),
		},
	})
	if err := appendEvent(ctx, uc.Outbox, uc.IDGen, EventTallyComputed, electionID, now, map[string]any{
		"election_id": electionID,
		"tally_id":    result.TallyID,
		"version":     result.Version,
		"mode":        string(result.Mode),
		"result_hash": result.ResultHash,
	}); err != nil {
		logger.Error("tally event append failed",
			"event", "election_tally_outbox_failed",
			"module", moduleName,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
	}
	if uc.Metrics != nil {
		uc.Metrics.ObserveTally(string(result.Mode), time.Since(started).Seconds())
	}
	logger.Info("tally computed",
		"event", "election_tally_computed",
		"module", moduleName,
		"layer", "application",
		"election_id", electionID,
		"tally_id", result.TallyID,
		"version", result.Version,
		"mode", string(result.Mode),
		"voted", result.VotedCount,
		"percent_counted", result.PercentCounted,
		"tie_break_applied", result.TieBreakApplied,
	)
	return result, nil
}

// Homologate freezes a Final tally. It refuses a tally whose inputs no longer
// match the stored ballot set, and at most one tally per election succeeds.
func (uc TallyUseCase) Homologate(ctx context.Context, cmd HomologateCommand) (entities.TallyResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	tallyID := strings.TrimSpace(cmd.TallyID)
	if tallyID == "" {
		return entities.TallyResult{}, domainerrors.ErrInvalidInput
	}
	tally, err := uc.Tallies.GetTally(ctx, tallyID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	if tally.Mode != entities.TallyModeFinal {
		return entities.TallyResult{}, domainerrors.ErrNotFinalTally
	}
	homologated, err := uc.Tallies.HasHomologated(ctx, tally.ElectionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	if homologated {
		return entities.TallyResult{}, domainerrors.ErrAlreadyHomologated
	}
	election, err := uc.Elections.GetElection(ctx, tally.ElectionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	if !homologationPhases[election.Phase] || election.Status == entities.StatusSuspended ||
		election.Status == entities.StatusCancelled {
		return entities.TallyResult{}, domainerrors.ErrOperationNotAllowed
	}

	now := resolveNow(uc.Clock)
	actor := strings.TrimSpace(cmd.Actor)
	snapshot, err := uc.Ballots.Snapshot(ctx, election.ElectionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	current, err := uc.evaluateSnapshot(ctx, election, snapshot, entities.TallyModeFinal, tally.DrawSeed, false, actor, now)
	if err != nil {
		return entities.TallyResult{}, err
	}
	if current.InputHash != tally.InputHash {
		logger.Warn("homologation rejected: stale tally",
			"event", "election_homologate_stale",
			"module", moduleName,
			"layer", "application",
			"tally_id", tally.TallyID,
			"stored_input_hash", tally.InputHash,
			"current_input_hash", current.InputHash,
		)
		return entities.TallyResult{}, domainerrors.ErrStaleTally
	}

	// The store re-checks the inputs against this guard inside the write.
	frozen, err := uc.Tallies.MarkHomologated(ctx, tally.TallyID, entities.InputGuardOf(snapshot), actor, now)
	if err != nil {
		if errors.Is(err, domainerrors.ErrStaleTally) {
			logger.Warn("homologation rejected: inputs changed",
				"event", "election_homologate_stale",
				"module", moduleName,
				"layer", "application",
				"tally_id", tally.TallyID,
			)
		}
		return entities.TallyResult{}, err
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     EventTallyHomologated,
		EntityType: "tally",
		EntityID:   frozen.TallyID,
		Actor:      actor,
		Details: map[string]string{
			"election_id": frozen.ElectionID,
			"version":     strconv.Itoa(frozen.Version),
			"result_hash": frozen.ResultHash,
		},
	})
	if err := appendEvent(ctx, uc.Outbox, uc.IDGen, EventTallyHomologated, frozen.ElectionID, now, map[string]any{
		"election_id": frozen.ElectionID,
		"tally_id":    frozen.TallyID,
		"version":     frozen.Version,
		"result_hash": frozen.ResultHash,
	}); err != nil {
		logger.Error("homologation event append failed",
			"event", "election_homologate_outbox_failed",
			"module", moduleName,
			"layer", "application",
			"tally_id", frozen.TallyID,
			"error", err.Error(),
		)
	}
	logger.Info("tally homologated",
		"event", "election_tally_homologated",
		"module", moduleName,
		"layer", "application",
		"election_id", frozen.ElectionID,
		"tally_id", frozen.TallyID,
		"version", frozen.Version,
	)
	return frozen, nil
}

// NullifyBallot records a post-hoc exclusion for one stored ballot. The
// ballot row itself is never touched.
func (uc TallyUseCase) NullifyBallot(ctx context.Context, cmd NullifyBallotCommand) (entities.BallotNullification, error) {
	logger := application.ResolveLogger(uc.Logger)
	electionID := strings.TrimSpace(cmd.ElectionID)
	ballotHash := strings.TrimSpace(cmd.BallotHash)
	reason := strings.TrimSpace(cmd.Reason)
	if electionID == "" || ballotHash == "" || reason == "" {
		return entities.BallotNullification{}, domainerrors.ErrInvalidInput
	}
	election, err := uc.Elections.GetElection(ctx, electionID)
	if err != nil {
		return entities.BallotNullification{}, err
	}
	if election.Status == entities.StatusCancelled || election.Retired {
		return entities.BallotNullification{}, domainerrors.ErrElectionTerminal
	}
	homologated, err := uc.Tallies.HasHomologated(ctx, electionID)
	if err != nil {
		return entities.BallotNullification{}, err
	}
	if homologated {
		return entities.BallotNullification{}, domainerrors.ErrAlreadyHomologated
	}
	if _, err := uc.Ballots.GetBallotByHash(ctx, electionID, ballotHash); err != nil {
		return entities.BallotNullification{}, err
	}

	nullificationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.BallotNullification{}, err
	}
	now := resolveNow(uc.Clock)
	nullification := entities.BallotNullification{
		NullificationID: nullificationID,
		ElectionID:      electionID,
		BallotHash:      ballotHash,
		VerdictID:       strings.TrimSpace(cmd.VerdictID),
		Reason:          reason,
		CreatedAt:       now,
	}
	if err := uc.Ballots.SaveNullification(ctx, nullification); err != nil {
		logger.Warn("ballot nullification rejected",
			"event", "election_nullify_rejected",
			"module", moduleName,
			"layer", "application",
			"election_id", electionID,
			"ballot_hash", ballotHash,
			"error", err.Error(),
		)
		return entities.BallotNullification{}, err
	}
	recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
		Action:     EventBallotNullified,
		EntityType: "election",
		EntityID:   electionID,
		Actor:      strings.TrimSpace(cmd.Actor),
		Details: map[string]string{
			"ballot_hash": ballotHash,
			"verdict_id":  nullification.VerdictID,
			"reason":      reason,
		},
	})
	if err := appendEvent(ctx, uc.Outbox, uc.IDGen, EventBallotNullified, electionID, now, map[string]any{
		"election_id": electionID,
		"ballot_hash": ballotHash,
		"verdict_id":  nullification.VerdictID,
	}); err != nil {
		logger.Error("nullification event append failed",
			"event", "election_nullify_outbox_failed",
			"module", moduleName,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
	}
	return nullification, nil
}

// VerifyTally replays a stored tally. It never persists anything, including
// a draw.
func (uc TallyUseCase) VerifyTally(ctx context.Context, tallyID string) (TallyVerification, error) {
	tallyID = strings.TrimSpace(tallyID)
	if tallyID == "" {
		return TallyVerification{}, domainerrors.ErrInvalidInput
	}
	tally, err := uc.Tallies.GetTally(ctx, tallyID)
	if err != nil {
		return TallyVerification{}, err
	}
	election, err := uc.Elections.GetElection(ctx, tally.ElectionID)
	if err != nil {
		return TallyVerification{}, err
	}
	recomputed, err := uc.evaluate(ctx, election, tally.Mode, tally.DrawSeed, false, "", resolveNow(uc.Clock))
	if err != nil {
		return TallyVerification{}, err
	}
	storedHash, err := uc.Hasher.TallyResultHash(tally.Outcome())
	if err != nil {
		return TallyVerification{}, err
	}
	return TallyVerification{
		Tally:             tally,
		Recomputed:        recomputed,
		StoredHashValid:   storedHash == tally.ResultHash,
		InputHashMatches:  recomputed.InputHash == tally.InputHash,
		ResultHashMatches: recomputed.ResultHash == tally.ResultHash,
	}, nil
}

// evaluate is the pure part of a run: snapshot, integrity checks, counting,
// ranking and hashing. Only when allowDraw is set may it persist a new draw.
func (uc TallyUseCase) evaluate(
	ctx context.Context,
	election entities.Election,
	mode entities.TallyMode,
	seed string,
	allowDraw bool,
	actor string,
	now time.Time,
) (entities.TallyResult, error) {
	snapshot, err := uc.Ballots.Snapshot(ctx, election.ElectionID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	return uc.evaluateSnapshot(ctx, election, snapshot, mode, seed, allowDraw, actor, now)
}

func (uc TallyUseCase) evaluateSnapshot(
	ctx context.Context,
	election entities.Election,
	snapshot entities.BallotSnapshot,
	mode entities.TallyMode,
	seed string,
	allowDraw bool,
	actor string,
	now time.Time,
) (entities.TallyResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	if err := uc.checkIntegrity(ctx, election.ElectionID, snapshot, now); err != nil {
		return entities.TallyResult{}, err
	}

	nullified := make(map[string]bool, len(snapshot.Nullifications))
	nullifiedHashes := make([]string, 0, len(snapshot.Nullifications))
	for _, nullification := range snapshot.Nullifications {
		if !nullified[nullification.BallotHash] {
			nullified[nullification.BallotHash] = true
			nullifiedHashes = append(nullifiedHashes, nullification.BallotHash)
		}
	}
	rankable := make(map[string]bool, len(snapshot.Slates))
	slates := make([]entities.Slate, 0, len(snapshot.Slates))
	excluded := make([]string, 0)
	for _, slate := range snapshot.Slates {
		switch {
		case slate.Votable():
			rankable[slate.SlateID] = true
			slates = append(slates, slate)
		case slate.Active && (slate.Status == entities.SlateStatusDisqualified ||
			slate.Status == entities.SlateStatusWithdrawn):
			excluded = append(excluded, slate.SlateID)
		}
	}
	ballotHashes := make([]string, 0, len(snapshot.Ballots))
	for _, ballot := range snapshot.Ballots {
		ballotHashes = append(ballotHashes, ballot.BallotHash)
	}
	sort.Strings(ballotHashes)
	sort.Strings(nullifiedHashes)
	sort.Strings(excluded)

	count := services.CountBallots(snapshot.Ballots, nullified, rankable)
	final := mode == entities.TallyModeFinal
	rank := func(seed string) services.Ranking {
		opts := services.RankOptions{
			Criteria:  uc.Criteria,
			SeatCount: election.SeatCount,
			Final:     final,
		}
		if seed != "" {
			opts.DrawKey = func(slateID string) string { return uc.Hasher.DrawKey(seed, slateID) }
		}
		return services.RankSlates(slates, count, opts)
	}
	ranking := rank(seed)
	if ranking.NeedsDraw && allowDraw {
		newSeed, err := uc.Hasher.NewDrawSeed()
		if err != nil {
			return entities.TallyResult{}, err
		}
		stored, err := uc.Tallies.SaveDrawIfAbsent(ctx, entities.TieBreakDraw{
			ElectionID: election.ElectionID,
			Seed:       newSeed,
			DrawnBy:    actor,
			DrawnAt:    now,
		})
		if err != nil {
			return entities.TallyResult{}, err
		}
		seed = stored.Seed
		recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
			Action:     "tally.draw_recorded",
			EntityType: "election",
			EntityID:   election.ElectionID,
			Actor:      actor,
			Details:    map[string]string{"seed": stored.Seed},
		})
		ranking = rank(seed)
	}
	usedSeed := ""
	if ranking.UsedDraw {
		usedSeed = seed
	}
	tieBreakApplied := false
	for _, row := range ranking.Rows {
		if row.TieBreakCriterion != "" {
			tieBreakApplied = true
			break
		}
	}

	input := entities.TallyInput{
		ElectionID:            election.ElectionID,
		Mode:                  mode,
		EligibleCount:         snapshot.EligibleCount,
		BallotHashes:          ballotHashes,
		NullifiedBallotHashes: nullifiedHashes,
		ExcludedSlates:        excluded,
		DrawSeed:              usedSeed,
	}
	inputHash, err := uc.Hasher.TallyInputHash(input)
	if err != nil {
		return entities.TallyResult{}, err
	}

	abstained := snapshot.EligibleCount - count.Voted
	if abstained < 0 {
		abstained = 0
	}
	percentCounted := float64(100)
	if !final {
		percentCounted = services.Percent(count.Voted, snapshot.EligibleCount)
	}
	result := entities.TallyResult{
		ElectionID:      election.ElectionID,
		Mode:            mode,
		Partial:         !final,
		PercentCounted:  percentCounted,
		EligibleCount:   snapshot.EligibleCount,
		VotedCount:      count.Voted,
		AbstainedCount:  abstained,
		ValidCount:      count.Valid,
		BlankCount:      count.Blank,
		NullCount:       count.Null,
		VoidedCount:     count.Voided,
		SeatCount:       election.SeatCount,
		InputHash:       inputHash,
		DrawSeed:        usedSeed,
		TieBreakApplied: tieBreakApplied,
		ExcludedSlates:  excluded,
		Slates:          ranking.Rows,
	}
	result.ResultHash, err = uc.Hasher.TallyResultHash(result.Outcome())
	if err != nil {
		return entities.TallyResult{}, err
	}
	return result, nil
}

// checkIntegrity halts the run on any sign of tampering or a storage-level
// duplicate. Every failure is audited as a violation.
func (uc TallyUseCase) checkIntegrity(
	ctx context.Context,
	electionID string,
	snapshot entities.BallotSnapshot,
	now time.Time,
) error {
	logger := application.ResolveLogger(uc.Logger)
	violation := func(err error, details map[string]string) error {
		details["election_id"] = electionID
		logger.Error("tally integrity violation",
			"event", "election_tally_integrity_violation",
			"module", moduleName,
			"layer", "application",
			"election_id", electionID,
			"error", err.Error(),
		)
		recordAudit(ctx, uc.Audit, uc.IDGen, logger, now, auditRecord{
			Action:     "tally.integrity_violation",
			Severity:   auditv1.SeverityViolation,
			EntityType: "election",
			EntityID:   electionID,
			Details:    details,
		})
		return err
	}

	voters := make(map[string]bool, len(snapshot.Ballots))
	ballots := make(map[string]bool, len(snapshot.Ballots))
	for _, ballot := range snapshot.Ballots {
		if ballot.ElectionID != electionID {
			return violation(domainerrors.ErrIntegrityViolation, map[string]string{
				"reason":      "foreign_ballot",
				"ballot_hash": ballot.BallotHash,
			})
		}
		recomputed, err := uc.Hasher.BallotHash(ballot.Content())
		if err != nil {
			return err
		}
		if recomputed != ballot.BallotHash {
			return violation(domainerrors.ErrIntegrityViolation, map[string]string{
				"reason":      "ballot_hash_mismatch",
				"ballot_hash": ballot.BallotHash,
				"recomputed":  recomputed,
			})
		}
		if voters[ballot.VoterHash] {
			return violation(domainerrors.ErrDuplicateBallot, map[string]string{
				"reason":     "duplicate_voter_hash",
				"voter_hash": ballot.VoterHash,
			})
		}
		if ballots[ballot.BallotHash] {
			return violation(domainerrors.ErrDuplicateBallot, map[string]string{
				"reason":      "duplicate_ballot_hash",
				"ballot_hash": ballot.BallotHash,
			})
		}
		voters[ballot.VoterHash] = true
		ballots[ballot.BallotHash] = true
	}
	for _, nullification := range snapshot.Nullifications {
		if !ballots[nullification.BallotHash] {
			return violation(domainerrors.ErrIntegrityViolation, map[string]string{
				"reason":      "dangling_nullification",
				"ballot_hash": nullification.BallotHash,
			})
		}
	}
	return nil
}

func (uc TallyUseCase) save(ctx context.Context, result *entities.TallyResult) error {
	tallyID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	result.TallyID = tallyID
	for attempt := 1; ; attempt++ {
		version, err := uc.Tallies.NextTallyVersion(ctx, result.ElectionID)
		if err != nil {
			return err
		}
		result.Version = version
		err = uc.Tallies.SaveTally(ctx, *result)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domainerrors.ErrConflict) || attempt >= maxTallyVersionAttempts {
			return err
		}
	}
}

func tallyPermitted(election entities.Election, mode entities.TallyMode) bool {
	if election.Status == entities.StatusCancelled || election.Retired {
		return false
	}
	if mode == entities.TallyModeFinal {
		return finalTallyPhases[election.Phase] && election.Status != entities.StatusSuspended
	}
	return partialTallyPhases[election.Phase]
}
