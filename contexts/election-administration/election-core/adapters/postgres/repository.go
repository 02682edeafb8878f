package postgresadapter

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/election-administration/election-core/ports"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"

	voterUpsertBatchSize = 500
)

// Repository is the gorm implementation of the election-core ports. The same
// models run on Postgres in production and on SQLite for local runs.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates or updates every election-core table and index.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	err := r.db.WithContext(ctx).AutoMigrate(
		&electionModel{},
		&transitionModel{},
		&slateModel{},
		&voterModel{},
		&credentialModel{},
		&ballotModel{},
		&nullificationModel{},
		&tallyModel{},
		&drawModel{},
		&outboxModel{},
		&eventDedupModel{},
	)
	if err != nil {
		return r.logError("election_repo_auto_migrate_failed", err)
	}
	return nil
}

func (r *Repository) CreateElection(ctx context.Context, election entities.Election, transition entities.PhaseTransition) error {
	row := electionModelFromEntity(election)
	history := transitionModelFromEntity(transition)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_create_election_failed", err, "election_id", row.ElectionID)
	}
	return nil
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (entities.Election, error) {
	var row electionModel
	err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Election{}, domainerrors.ErrElectionNotFound
		}
		return entities.Election{}, r.logError("election_repo_get_election_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListElections(ctx context.Context, phase entities.Phase) ([]entities.Election, error) {
	tx := r.db.WithContext(ctx).Model(&electionModel{}).Where("retired = ?", false)
	if phase != "" {
		tx = tx.Where("phase = ?", string(phase))
	}
	var rows []electionModel
	if err := tx.Order("created_at ASC").Order("election_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_elections_failed", err, "phase", string(phase))
	}
	items := make([]entities.Election, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// UpdateElection is a compare-and-swap on version; the transition row is
// written in the same transaction.
func (r *Repository) UpdateElection(
	ctx context.Context,
	election entities.Election,
	expectedVersion int64,
	transition entities.PhaseTransition,
) error {
	row := electionModelFromEntity(election)
	history := transitionModelFromEntity(transition)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&electionModel{}).
			Where("election_id = ? AND version = ?", row.ElectionID, expectedVersion).
			Updates(electionUpdatesFromModel(row))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&electionModel{}).Where("election_id = ?", row.ElectionID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrElectionNotFound
			}
			return domainerrors.ErrConcurrentModification
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrElectionNotFound) || errors.Is(err, domainerrors.ErrConcurrentModification) {
			return err
		}
		if isUniqueViolation(err) {
			return domainerrors.ErrConcurrentModification
		}
		return r.logError("election_repo_update_election_failed", err, "election_id", row.ElectionID)
	}
	return nil
}

func (r *Repository) ListTransitions(ctx context.Context, electionID string) ([]entities.PhaseTransition, error) {
	var rows []transitionModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_transitions_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	items := make([]entities.PhaseTransition, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) SaveSlate(ctx context.Context, slate entities.Slate) error {
	row := slateModelFromEntity(slate)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockElection(tx, row.ElectionID); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "slate_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":               row.Name,
				"number":             row.Number,
				"status":             row.Status,
				"incumbent":          row.Incumbent,
				"registration_order": row.RegistrationOrder,
				"active":             row.Active,
				"updated_at":         row.UpdatedAt,
			}),
		}).Create(&row).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_save_slate_failed", err, "slate_id", row.SlateID)
	}
	return nil
}

func (r *Repository) GetSlate(ctx context.Context, electionID string, slateID string) (entities.Slate, error) {
	var row slateModel
	err := r.db.WithContext(ctx).
		Where("election_id = ? AND slate_id = ?", strings.TrimSpace(electionID), strings.TrimSpace(slateID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Slate{}, domainerrors.ErrSlateNotFound
		}
		return entities.Slate{}, r.logError("election_repo_get_slate_failed", err, "slate_id", strings.TrimSpace(slateID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListSlates(ctx context.Context, electionID string) ([]entities.Slate, error) {
	return r.listSlates(r.db.WithContext(ctx), strings.TrimSpace(electionID))
}

func (r *Repository) listSlates(tx *gorm.DB, electionID string) ([]entities.Slate, error) {
	var rows []slateModel
	if err := tx.
		Where("election_id = ? AND active = ?", electionID, true).
		Order("registration_order ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_slates_failed", err, "election_id", electionID)
	}
	items := make([]entities.Slate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) NextRegistrationOrder(ctx context.Context, electionID string) (int, error) {
	var current sql.NullInt64
	if err := r.db.WithContext(ctx).
		Model(&slateModel{}).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Select("MAX(registration_order)").
		Scan(&current).Error; err != nil {
		return 0, r.logError("election_repo_next_registration_order_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	return int(current.Int64) + 1, nil
}

// UpsertVoters never resets has_voted or voted_at, and keeps the eligibility
// of rows that already voted.
func (r *Repository) UpsertVoters(ctx context.Context, voters []entities.EligibleVoter) (int, error) {
	if len(voters) == 0 {
		return 0, nil
	}
	rows := make([]voterModel, 0, len(voters))
	for _, voter := range voters {
		rows = append(rows, voterModelFromEntity(voter))
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "election_id"}, {Name: "identity_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"eligible": gorm.Expr(
				"CASE WHEN election_voters.has_voted THEN election_voters.eligible ELSE excluded.eligible END",
			),
			"ineligibility_reason": gorm.Expr(
				"CASE WHEN election_voters.has_voted THEN election_voters.ineligibility_reason ELSE excluded.ineligibility_reason END",
			),
			"section_ref": gorm.Expr("excluded.section_ref"),
			"active":      gorm.Expr("excluded.active"),
		}),
	}).CreateInBatches(&rows, voterUpsertBatchSize)
	if create.Error != nil {
		return 0, r.logError("election_repo_upsert_voters_failed", create.Error, "entries", len(voters))
	}
	return len(voters), nil
}

func (r *Repository) GetVoter(ctx context.Context, electionID string, identityID string) (entities.EligibleVoter, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("election_id = ? AND identity_id = ? AND active = ?", strings.TrimSpace(electionID), strings.TrimSpace(identityID), true).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.EligibleVoter{}, domainerrors.ErrVoterNotFound
		}
		return entities.EligibleVoter{}, r.logError("election_repo_get_voter_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	return row.toEntity(), nil
}

func (r *Repository) SetIneligible(ctx context.Context, electionID string, identityID string, reason string) error {
	electionID = strings.TrimSpace(electionID)
	identityID = strings.TrimSpace(identityID)
	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockElection(tx, electionID); err != nil {
			return err
		}
		result := tx.Model(&voterModel{}).
			Where("election_id = ? AND identity_id = ? AND active = ? AND has_voted = ?", electionID, identityID, true, false).
			Updates(map[string]any{
				"eligible":             false,
				"ineligibility_reason": strings.TrimSpace(reason),
			})
		affected = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return r.logError("election_repo_set_ineligible_failed", err, "election_id", electionID)
	}
	if affected > 0 {
		return nil
	}
	voter, err := r.GetVoter(ctx, electionID, identityID)
	if err != nil {
		return err
	}
	if voter.HasVoted {
		return domainerrors.ErrAlreadyVoted
	}
	return nil
}

func (r *Repository) CountEligible(ctx context.Context, electionID string) (int, error) {
	count, err := r.countEligible(r.db.WithContext(ctx), strings.TrimSpace(electionID))
	if err != nil {
		return 0, r.logError("election_repo_count_eligible_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	return count, nil
}

func (r *Repository) countEligible(tx *gorm.DB, electionID string) (int, error) {
	var count int64
	err := tx.Model(&voterModel{}).
		Where("election_id = ? AND active = ? AND eligible = ?", electionID, true, true).
		Count(&count).Error
	return int(count), err
}

// SetCredential maps an opaque credential onto an identity for ResolveVoter.
func (r *Repository) SetCredential(ctx context.Context, electionID string, credential string, identityID string) error {
	row := credentialModel{
		ElectionID: strings.TrimSpace(electionID),
		Credential: strings.TrimSpace(credential),
		IdentityID: strings.TrimSpace(identityID),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "election_id"}, {Name: "credential"}},
		DoUpdates: clause.Assignments(map[string]any{"identity_id": row.IdentityID}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_set_credential_failed", create.Error, "election_id", row.ElectionID)
	}
	return nil
}

func (r *Repository) ResolveVoter(ctx context.Context, electionID string, credential string) (ports.VoterIdentity, error) {
	electionID = strings.TrimSpace(electionID)
	credential = strings.TrimSpace(credential)
	var mapped credentialModel
	err := r.db.WithContext(ctx).
		Where("election_id = ? AND credential = ?", electionID, credential).
		First(&mapped).Error
	if err == nil {
		return ports.VoterIdentity{IdentityID: mapped.IdentityID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ports.VoterIdentity{}, r.logError("election_repo_resolve_credential_failed", err, "election_id", electionID)
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voterModel{}).
		Where("election_id = ? AND identity_id = ?", electionID, credential).
		Count(&count).Error; err != nil {
		return ports.VoterIdentity{}, r.logError("election_repo_resolve_voter_failed", err, "election_id", electionID)
	}
	if count == 0 {
		return ports.VoterIdentity{}, domainerrors.ErrUnknownCredential
	}
	return ports.VoterIdentity{IdentityID: credential}, nil
}

// CommitCast holds a shared lock on the election row, so a concurrent
// suspension either commits before the open check or waits for the cast.
// The conditional voter update is the test-and-set; the ballot unique
// indexes back it up.
func (r *Repository) CommitCast(ctx context.Context, identityID string, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	identityID = strings.TrimSpace(identityID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var election electionModel
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Where("election_id = ?", row.ElectionID).
			First(&election).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrElectionNotFound
			}
			return err
		}
		if !election.toEntity().OpenForVoting(ballot.CastAt) {
			return domainerrors.ErrElectionNotOpenForVoting
		}

		votedAt := row.CastAt
		flip := tx.Model(&voterModel{}).
			Where("election_id = ? AND identity_id = ? AND active = ? AND eligible = ? AND has_voted = ?",
				row.ElectionID, identityID, true, true, false).
			Updates(map[string]any{
				"has_voted": true,
				"voted_at":  votedAt,
			})
		if flip.Error != nil {
			return flip.Error
		}
		if flip.RowsAffected == 0 {
			var voter voterModel
			err := tx.Where("election_id = ? AND identity_id = ?", row.ElectionID, identityID).First(&voter).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				return domainerrors.ErrNotEligible
			case err != nil:
				return err
			case voter.HasVoted:
				return domainerrors.ErrAlreadyVoted
			default:
				return domainerrors.ErrNotEligible
			}
		}

		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrDuplicateBallot
			}
			return err
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrElectionNotFound),
			errors.Is(err, domainerrors.ErrElectionNotOpenForVoting),
			errors.Is(err, domainerrors.ErrNotEligible),
			errors.Is(err, domainerrors.ErrAlreadyVoted),
			errors.Is(err, domainerrors.ErrDuplicateBallot):
			return err
		}
		return r.logError("election_repo_commit_cast_failed", err, "election_id", row.ElectionID)
	}
	return nil
}

func (r *Repository) GetBallotByHash(ctx context.Context, electionID string, ballotHash string) (entities.Ballot, error) {
	var row ballotModel
	err := r.db.WithContext(ctx).
		Where("election_id = ? AND ballot_hash = ?", strings.TrimSpace(electionID), strings.TrimSpace(ballotHash)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, domainerrors.ErrBallotNotFound
		}
		return entities.Ballot{}, r.logError("election_repo_get_ballot_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	return row.toEntity(), nil
}

func (r *Repository) SaveNullification(ctx context.Context, nullification entities.BallotNullification) error {
	row := nullificationModel{
		NullificationID: strings.TrimSpace(nullification.NullificationID),
		ElectionID:      strings.TrimSpace(nullification.ElectionID),
		BallotHash:      strings.TrimSpace(nullification.BallotHash),
		VerdictID:       strings.TrimSpace(nullification.VerdictID),
		Reason:          strings.TrimSpace(nullification.Reason),
		CreatedAt:       nullification.CreatedAt.UTC(),
	}
	if row.NullificationID == "" {
		row.NullificationID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockElection(tx, row.ElectionID); err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyNullified
		}
		return r.logError("election_repo_save_nullification_failed", err, "election_id", row.ElectionID)
	}
	return nil
}

func (r *Repository) IsNullified(ctx context.Context, electionID string, ballotHash string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&nullificationModel{}).
		Where("election_id = ? AND ballot_hash = ?", strings.TrimSpace(electionID), strings.TrimSpace(ballotHash)).
		Count(&count).Error; err != nil {
		return false, r.logError("election_repo_is_nullified_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	return count > 0, nil
}

// Snapshot reads everything in one transaction. On Postgres it runs at
// repeatable read so every table reflects the same instant.
func (r *Repository) Snapshot(ctx context.Context, electionID string) (entities.BallotSnapshot, error) {
	electionID = strings.TrimSpace(electionID)
	snapshot := entities.BallotSnapshot{}
	var opts []*sql.TxOptions
	if r.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		snapshot, err = r.snapshot(tx, electionID)
		return err
	}, opts...)
	if err != nil {
		return entities.BallotSnapshot{}, r.logError("election_repo_snapshot_failed", err, "election_id", electionID)
	}
	return snapshot, nil
}

func (r *Repository) snapshot(tx *gorm.DB, electionID string) (entities.BallotSnapshot, error) {
	snapshot := entities.BallotSnapshot{}
	var ballots []ballotModel
	if err := tx.Where("election_id = ?", electionID).Order("ballot_hash ASC").Find(&ballots).Error; err != nil {
		return snapshot, err
	}
	snapshot.Ballots = make([]entities.Ballot, 0, len(ballots))
	for _, row := range ballots {
		snapshot.Ballots = append(snapshot.Ballots, row.toEntity())
	}

	var nullifications []nullificationModel
	if err := tx.Where("election_id = ?", electionID).Order("ballot_hash ASC").Find(&nullifications).Error; err != nil {
		return snapshot, err
	}
	for _, row := range nullifications {
		snapshot.Nullifications = append(snapshot.Nullifications, row.toEntity())
	}

	slates, err := r.listSlates(tx, electionID)
	if err != nil {
		return snapshot, err
	}
	snapshot.Slates = slates

	snapshot.EligibleCount, err = r.countEligible(tx, electionID)
	return snapshot, err
}

// lockElection takes the election row lock that serializes writes to tally
// inputs with homologation. A missing election row locks nothing.
func lockElection(tx *gorm.DB, electionID string) error {
	var rows []electionModel
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("election_id = ?", electionID).
		Limit(1).
		Find(&rows).Error
}

func (r *Repository) SaveTally(ctx context.Context, tally entities.TallyResult) error {
	row, err := tallyModelFromEntity(tally)
	if err != nil {
		return r.logError("election_repo_save_tally_encode_failed", err, "tally_id", tally.TallyID)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("election_repo_save_tally_failed", err, "tally_id", row.TallyID)
	}
	return nil
}

func (r *Repository) GetTally(ctx context.Context, tallyID string) (entities.TallyResult, error) {
	var row tallyModel
	err := r.db.WithContext(ctx).Where("tally_id = ?", strings.TrimSpace(tallyID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TallyResult{}, domainerrors.ErrTallyNotFound
		}
		return entities.TallyResult{}, r.logError("election_repo_get_tally_failed", err, "tally_id", strings.TrimSpace(tallyID))
	}
	tally, err := row.toEntity()
	if err != nil {
		return entities.TallyResult{}, r.logError("election_repo_decode_tally_failed", err, "tally_id", row.TallyID)
	}
	return tally, nil
}

func (r *Repository) ListTallies(ctx context.Context, electionID string) ([]entities.TallyResult, error) {
	var rows []tallyModel
	if err := r.db.WithContext(ctx).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Order("version ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_tallies_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	items := make([]entities.TallyResult, 0, len(rows))
	for _, row := range rows {
		tally, err := row.toEntity()
		if err != nil {
			return nil, r.logError("election_repo_decode_tally_failed", err, "tally_id", row.TallyID)
		}
		items = append(items, tally)
	}
	return items, nil
}

func (r *Repository) NextTallyVersion(ctx context.Context, electionID string) (int, error) {
	var current sql.NullInt64
	if err := r.db.WithContext(ctx).
		Model(&tallyModel{}).
		Where("election_id = ?", strings.TrimSpace(electionID)).
		Select("MAX(version)").
		Scan(&current).Error; err != nil {
		return 0, r.logError("election_repo_next_tally_version_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	return int(current.Int64) + 1, nil
}

// MarkHomologated locks the election row so two commissions cannot both
// freeze a tally, and so no nullification, slate or eligibility write lands
// between the input check and the update. The partial unique index on
// homologated rows is the backstop.
func (r *Repository) MarkHomologated(
	ctx context.Context,
	tallyID string,
	expected entities.TallyInputGuard,
	actor string,
	at time.Time,
) (entities.TallyResult, error) {
	tallyID = strings.TrimSpace(tallyID)
	var frozen tallyModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tally_id = ?", tallyID).First(&frozen).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrTallyNotFound
			}
			return err
		}
		if err := lockElection(tx, frozen.ElectionID); err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&tallyModel{}).
			Where("election_id = ? AND homologated = ?", frozen.ElectionID, true).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domainerrors.ErrAlreadyHomologated
		}
		snapshot, err := r.snapshot(tx, frozen.ElectionID)
		if err != nil {
			return err
		}
		if !entities.InputGuardOf(snapshot).Equal(expected) {
			return domainerrors.ErrStaleTally
		}
		homologatedAt := at.UTC()
		frozen.Homologated = true
		frozen.HomologatedAt = &homologatedAt
		frozen.HomologatedBy = strings.TrimSpace(actor)
		return tx.Model(&tallyModel{}).
			Where("tally_id = ?", tallyID).
			Updates(map[string]any{
				"homologated":    true,
				"homologated_at": homologatedAt,
				"homologated_by": frozen.HomologatedBy,
			}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrTallyNotFound),
			errors.Is(err, domainerrors.ErrAlreadyHomologated),
			errors.Is(err, domainerrors.ErrStaleTally):
			return entities.TallyResult{}, err
		case isUniqueViolation(err):
			return entities.TallyResult{}, domainerrors.ErrAlreadyHomologated
		}
		return entities.TallyResult{}, r.logError("election_repo_mark_homologated_failed", err, "tally_id", tallyID)
	}
	tally, err := frozen.toEntity()
	if err != nil {
		return entities.TallyResult{}, r.logError("election_repo_decode_tally_failed", err, "tally_id", tallyID)
	}
	return tally, nil
}

func (r *Repository) HasHomologated(ctx context.Context, electionID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&tallyModel{}).
		Where("election_id = ? AND homologated = ?", strings.TrimSpace(electionID), true).
		Count(&count).Error; err != nil {
		return false, r.logError("election_repo_has_homologated_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	return count > 0, nil
}

func (r *Repository) SaveDrawIfAbsent(ctx context.Context, draw entities.TieBreakDraw) (entities.TieBreakDraw, error) {
	row := drawModel{
		ElectionID: strings.TrimSpace(draw.ElectionID),
		Seed:       strings.TrimSpace(draw.Seed),
		DrawnBy:    strings.TrimSpace(draw.DrawnBy),
		DrawnAt:    draw.DrawnAt.UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "election_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return entities.TieBreakDraw{}, r.logError("election_repo_save_draw_failed", create.Error, "election_id", row.ElectionID)
	}
	stored, found, err := r.GetDraw(ctx, row.ElectionID)
	if err != nil {
		return entities.TieBreakDraw{}, err
	}
	if !found {
		return entities.TieBreakDraw{}, domainerrors.ErrConflict
	}
	return stored, nil
}

func (r *Repository) GetDraw(ctx context.Context, electionID string) (entities.TieBreakDraw, bool, error) {
	var row drawModel
	err := r.db.WithContext(ctx).Where("election_id = ?", strings.TrimSpace(electionID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TieBreakDraw{}, false, nil
		}
		return entities.TieBreakDraw{}, false, r.logError("election_repo_get_draw_failed", err, "election_id", strings.TrimSpace(electionID))
	}
	return entities.TieBreakDraw{
		ElectionID: row.ElectionID,
		Seed:       row.Seed,
		DrawnBy:    row.DrawnBy,
		DrawnAt:    row.DrawnAt.UTC(),
	}, true, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("election_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("election_repo_append_outbox_insert_failed", create.Error, "outbox_id", row.OutboxID)
	}
	if create.RowsAffected > 0 {
		return nil
	}

	var existing outboxModel
	if err := r.db.WithContext(ctx).
		Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("election_repo_append_outbox_load_existing_failed", err, "outbox_id", row.OutboxID)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Record, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("election_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]outbox.Record, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Record{
			OutboxID:  row.OutboxID,
			EventType: row.EventType,
			Payload:   append([]byte(nil), row.Payload...),
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("election_repo_mark_outbox_published_failed", result.Error, "outbox_id", strings.TrimSpace(outboxID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("election_repo_reserve_event_failed", create.Error, "event_id", row.EventID)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("election_repo_reserve_event_load_existing_failed", err, "event_id", row.EventID)
	}
	if existing.ExpiresAt.Before(time.Now().UTC()) {
		if err := r.db.WithContext(ctx).
			Model(&eventDedupModel{}).
			Where("event_id = ?", row.EventID).
			Updates(map[string]any{
				"payload_hash": row.PayloadHash,
				"expires_at":   row.ExpiresAt,
				"processed_at": row.ProcessedAt,
			}).Error; err != nil {
			return false, r.logError("election_repo_reserve_event_refresh_failed", err, "event_id", row.EventID)
		}
		return false, nil
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, domainerrors.ErrConflict
	}
	return true, nil
}

func (r *Repository) ReleaseEvent(ctx context.Context, eventID string) error {
	eventID = strings.TrimSpace(eventID)
	if err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&eventDedupModel{}).Error; err != nil {
		return r.logError("election_repo_release_event_failed", err, "event_id", eventID)
	}
	return nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "election-administration/election-core",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("election repository operation failed", fields...)
	return err
}

// isUniqueViolation recognises Postgres 23505, gorm's translated error and
// the SQLite constraint message.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ ports.ElectionRepository = (*Repository)(nil)
var _ ports.SlateRepository = (*Repository)(nil)
var _ ports.VoterRegistry = (*Repository)(nil)
var _ ports.IdentitySource = (*Repository)(nil)
var _ ports.BallotRepository = (*Repository)(nil)
var _ ports.TallyRepository = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
var _ ports.Clock = (*Repository)(nil)
var _ ports.IDGenerator = (*Repository)(nil)
var _ outbox.Repository = (*Repository)(nil)
