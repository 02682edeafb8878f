package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/entities"
	domainerrors "github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/domain/errors"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/contexts/dispute-resolution/judgment-session/ports"
	"github.com/brunohelius/cau-eleitoral-migrado-sub006/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

// Repository is the gorm implementation of the judgment-session ports.
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

func (r *Repository) AutoMigrate(ctx context.Context) error {
	err := r.db.WithContext(ctx).AutoMigrate(
		&commissionModel{},
		&memberModel{},
		&caseModel{},
		&sessionModel{},
		&voteModel{},
		&tieBreakModel{},
		&verdictModel{},
		&outboxModel{},
	)
	if err != nil {
		return r.logError("judgment_repo_auto_migrate_failed", err)
	}
	return nil
}

func (r *Repository) CreateCommission(ctx context.Context, commission entities.Commission) error {
	row := commissionModel{
		CommissionID: strings.TrimSpace(commission.CommissionID),
		Name:         commission.Name,
	}
	members := make([]memberModel, 0, len(commission.Members))
	for i, member := range commission.Members {
		members = append(members, memberModel{
			CommissionID: row.CommissionID,
			MemberID:     member.MemberID,
			Name:         member.Name,
			Role:         string(member.Role),
			Active:       member.Active,
			Position:     i,
		})
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(members) == 0 {
			return nil
		}
		return tx.Create(&members).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("judgment_repo_create_commission_failed", err, "commission_id", row.CommissionID)
	}
	return nil
}

func (r *Repository) GetCommission(ctx context.Context, commissionID string) (entities.Commission, error) {
	commissionID = strings.TrimSpace(commissionID)
	var row commissionModel
	if err := r.db.WithContext(ctx).Where("commission_id = ?", commissionID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Commission{}, domainerrors.ErrCommissionNotFound
		}
		return entities.Commission{}, r.logError("judgment_repo_get_commission_failed", err, "commission_id", commissionID)
	}
	var members []memberModel
	if err := r.db.WithContext(ctx).
		Where("commission_id = ?", commissionID).
		Order("position ASC").
		Find(&members).Error; err != nil {
		return entities.Commission{}, r.logError("judgment_repo_list_members_failed", err, "commission_id", commissionID)
	}
	commission := entities.Commission{
		CommissionID: row.CommissionID,
		Name:         row.Name,
		Members:      make([]entities.CommissionMember, 0, len(members)),
	}
	for _, member := range members {
		commission.Members = append(commission.Members, entities.CommissionMember{
			MemberID: member.MemberID,
			Name:     member.Name,
			Role:     entities.MemberRole(member.Role),
			Active:   member.Active,
		})
	}
	return commission, nil
}

func (r *Repository) CreateCase(ctx context.Context, c entities.Case) error {
	row := caseModelFromEntity(c)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("judgment_repo_create_case_failed", err, "case_id", row.CaseID)
	}
	return nil
}

func (r *Repository) GetCase(ctx context.Context, caseID string) (entities.Case, error) {
	caseID = strings.TrimSpace(caseID)
	var row caseModel
	if err := r.db.WithContext(ctx).Where("case_id = ?", caseID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Case{}, domainerrors.ErrCaseNotFound
		}
		return entities.Case{}, r.logError("judgment_repo_get_case_failed", err, "case_id", caseID)
	}
	return row.toEntity(), nil
}

// UpdateCase is a compare-and-swap on the stored state.
func (r *Repository) UpdateCase(ctx context.Context, c entities.Case, expectedState entities.CaseState) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return updateCaseTx(tx, caseModelFromEntity(c), expectedState)
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrConcurrentModification) || errors.Is(err, domainerrors.ErrCaseNotFound) {
			return err
		}
		return r.logError("judgment_repo_update_case_failed", err, "case_id", c.CaseID)
	}
	return nil
}

func updateCaseTx(tx *gorm.DB, row caseModel, expectedState entities.CaseState) error {
	result := tx.Model(&caseModel{}).
		Where("case_id = ? AND state = ?", row.CaseID, string(expectedState)).
		Updates(caseUpdatesFromModel(row))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&caseModel{}).Where("case_id = ?", row.CaseID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domainerrors.ErrCaseNotFound
	}
	return domainerrors.ErrConcurrentModification
}

func (r *Repository) ListCasesByState(ctx context.Context, state entities.CaseState) ([]entities.Case, error) {
	tx := r.db.WithContext(ctx).Model(&caseModel{})
	if state != "" {
		tx = tx.Where("state = ?", string(state))
	}
	var rows []caseModel
	if err := tx.Order("created_at ASC").Order("case_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("judgment_repo_list_cases_failed", err, "state", string(state))
	}
	items := make([]entities.Case, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CreateSession(ctx context.Context, session entities.Session) error {
	row, err := sessionModelFromEntity(session)
	if err != nil {
		return r.logError("judgment_repo_encode_session_failed", err, "session_id", session.SessionID)
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("judgment_repo_create_session_failed", err, "session_id", row.SessionID)
	}
	return nil
}

func (r *Repository) GetSession(ctx context.Context, sessionID string) (entities.Session, error) {
	sessionID = strings.TrimSpace(sessionID)
	var row sessionModel
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Session{}, domainerrors.ErrSessionNotFound
		}
		return entities.Session{}, r.logError("judgment_repo_get_session_failed", err, "session_id", sessionID)
	}
	session, err := row.toEntity()
	if err != nil {
		return entities.Session{}, r.logError("judgment_repo_decode_session_failed", err, "session_id", sessionID)
	}
	return session, nil
}

// UpdateSession is a compare-and-swap on the stored status.
func (r *Repository) UpdateSession(ctx context.Context, session entities.Session, expectedStatus entities.SessionStatus) error {
	row, err := sessionModelFromEntity(session)
	if err != nil {
		return r.logError("judgment_repo_encode_session_failed", err, "session_id", session.SessionID)
	}
	result := r.db.WithContext(ctx).
		Model(&sessionModel{}).
		Where("session_id = ? AND status = ?", row.SessionID, string(expectedStatus)).
		Updates(map[string]any{
			"status":         row.Status,
			"present":        row.Present,
			"tie_breaker_id": row.TieBreakerID,
			"opened_at":      row.OpenedAt,
			"closed_at":      row.ClosedAt,
			"updated_at":     row.UpdatedAt,
		})
	if result.Error != nil {
		return r.logError("judgment_repo_update_session_failed", result.Error, "session_id", row.SessionID)
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if _, err := r.GetSession(ctx, row.SessionID); err != nil {
		return err
	}
	return domainerrors.ErrConcurrentModification
}

// InsertVote relies on the (case, session, member) primary key to reject a
// second vote.
func (r *Repository) InsertVote(ctx context.Context, vote entities.MemberVote) error {
	row := voteModel{
		CaseID:    vote.CaseID,
		SessionID: vote.SessionID,
		MemberID:  vote.MemberID,
		Choice:    string(vote.Choice),
		CastAt:    vote.CastAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("judgment_repo_insert_vote_failed", err, "case_id", row.CaseID)
	}
	return nil
}

func (r *Repository) ListVotes(ctx context.Context, caseID string, sessionID string) ([]entities.MemberVote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("case_id = ? AND session_id = ?", caseID, sessionID).
		Order("cast_at ASC").
		Order("member_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("judgment_repo_list_votes_failed", err, "case_id", caseID)
	}
	items := make([]entities.MemberVote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) InsertTieBreak(ctx context.Context, vote entities.TieBreakVote) error {
	row := tieBreakModel{
		CaseID:    vote.CaseID,
		SessionID: vote.SessionID,
		MemberID:  vote.MemberID,
		Choice:    string(vote.Choice),
		CastAt:    vote.CastAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("judgment_repo_insert_tie_break_failed", err, "case_id", row.CaseID)
	}
	return nil
}

func (r *Repository) GetTieBreak(ctx context.Context, caseID string, sessionID string) (entities.TieBreakVote, bool, error) {
	var row tieBreakModel
	err := r.db.WithContext(ctx).
		Where("case_id = ? AND session_id = ?", caseID, sessionID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.TieBreakVote{}, false, nil
		}
		return entities.TieBreakVote{}, false, r.logError("judgment_repo_get_tie_break_failed", err, "case_id", caseID)
	}
	return entities.TieBreakVote{
		CaseID:    row.CaseID,
		SessionID: row.SessionID,
		MemberID:  row.MemberID,
		Choice:    entities.VoteChoice(row.Choice),
		CastAt:    row.CastAt.UTC(),
	}, true, nil
}

// FinalizeVerdict writes the verdict, the case transition and the outbox row
// in one transaction. The unique index on case_id rejects a second verdict.
func (r *Repository) FinalizeVerdict(
	ctx context.Context,
	verdict entities.Verdict,
	decided entities.Case,
	expectedState entities.CaseState,
	envelope ports.EventEnvelope,
) error {
	row, err := verdictModelFromEntity(verdict)
	if err != nil {
		return r.logError("judgment_repo_encode_verdict_failed", err, "case_id", verdict.CaseID)
	}
	event, err := outboxRowFromEnvelope(envelope)
	if err != nil {
		return r.logError("judgment_repo_encode_outbox_failed", err, "case_id", verdict.CaseID)
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyDecided
			}
			return err
		}
		if err := updateCaseTx(tx, caseModelFromEntity(decided), expectedState); err != nil {
			return err
		}
		if err := tx.Create(&event).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrConflict
			}
			return err
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domainerrors.ErrAlreadyDecided),
			errors.Is(err, domainerrors.ErrConcurrentModification),
			errors.Is(err, domainerrors.ErrCaseNotFound),
			errors.Is(err, domainerrors.ErrConflict):
			return err
		}
		return r.logError("judgment_repo_finalize_verdict_failed", err, "case_id", verdict.CaseID)
	}
	return nil
}

func (r *Repository) GetVerdict(ctx context.Context, verdictID string) (entities.Verdict, error) {
	return r.findVerdict(ctx, "verdict_id = ?", strings.TrimSpace(verdictID))
}

func (r *Repository) GetVerdictByCase(ctx context.Context, caseID string) (entities.Verdict, error) {
	return r.findVerdict(ctx, "case_id = ?", strings.TrimSpace(caseID))
}

func (r *Repository) findVerdict(ctx context.Context, query string, key string) (entities.Verdict, error) {
	var row verdictModel
	if err := r.db.WithContext(ctx).Where(query, key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Verdict{}, domainerrors.ErrVerdictNotFound
		}
		return entities.Verdict{}, r.logError("judgment_repo_get_verdict_failed", err, "key", key)
	}
	verdict, err := row.toEntity()
	if err != nil {
		return entities.Verdict{}, r.logError("judgment_repo_decode_verdict_failed", err, "verdict_id", row.VerdictID)
	}
	return verdict, nil
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
		return nil, r.logError("judgment_repo_list_pending_outbox_failed", err, "limit", limit)
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
		return r.logError("judgment_repo_mark_outbox_published_failed", result.Error, "outbox_id", strings.TrimSpace(outboxID))
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) Now() time.Time {
	return time.Now().UTC()
}

func (r *Repository) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func outboxRowFromEnvelope(envelope ports.EventEnvelope) (outboxModel, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return outboxModel{}, err
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
	return row, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "dispute-resolution/judgment-session",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("judgment repository operation failed", fields...)
	return err
}

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

var _ ports.CommissionRepository = (*Repository)(nil)
var _ ports.CaseRepository = (*Repository)(nil)
var _ ports.SessionRepository = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.VerdictRepository = (*Repository)(nil)
var _ ports.Clock = (*Repository)(nil)
var _ ports.IDGenerator = (*Repository)(nil)
var _ outbox.Repository = (*Repository)(nil)
