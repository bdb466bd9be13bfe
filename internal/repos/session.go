package repos

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type SessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Session, error)
	GetByTitleInsensitive(ctx context.Context, tx *gorm.DB, title string) (*types.Session, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Session, error)
	ListOrderedByTitle(ctx context.Context, tx *gorm.DB) ([]*types.Session, error)
	ListByAuthorID(ctx context.Context, tx *gorm.DB, authorID uuid.UUID) ([]*types.Session, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Session, error)
	ListPublishedEndingBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Session, error)
	ListDraftWithReadinessAtLeast(ctx context.Context, tx *gorm.DB, minScore int) ([]*types.Session, error)
	ListIDsByTopicID(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]uuid.UUID, error)
	Save(ctx context.Context, tx *gorm.DB, session *types.Session) error
	// UpdateStatusIf performs a compare-and-set on the status column so
	// concurrent lifecycle transitions cannot both win.
	UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatus, toStatus string, updates map[string]any) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *types.Session) (*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var session types.Session
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) GetByTitleInsensitive(ctx context.Context, tx *gorm.DB, title string) (*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var session types.Session
	if err := transaction.WithContext(ctx).
		Where("LOWER(title) = ?", strings.ToLower(title)).
		First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sessions []*types.Session
	if err := transaction.WithContext(ctx).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) ListOrderedByTitle(ctx context.Context, tx *gorm.DB) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sessions []*types.Session
	if err := transaction.WithContext(ctx).
		Order("title ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) ListByAuthorID(ctx context.Context, tx *gorm.DB, authorID uuid.UUID) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sessions []*types.Session
	if err := transaction.WithContext(ctx).
		Where("author_id = ?", authorID).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sessions []*types.Session
	if err := transaction.WithContext(ctx).
		Where("status = ? AND end_time IS NOT NULL", types.SessionStatusPublished).
		Order("end_time ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) ListPublishedEndingBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sessions []*types.Session
	if err := transaction.WithContext(ctx).
		Where("status = ? AND end_time IS NOT NULL AND end_time < ?", types.SessionStatusPublished, cutoff).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) ListDraftWithReadinessAtLeast(ctx context.Context, tx *gorm.DB, minScore int) ([]*types.Session, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sessions []*types.Session
	if err := transaction.WithContext(ctx).
		Where("status = ? AND readiness_score >= ?", types.SessionStatusDraft, minScore).
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) ListIDsByTopicID(ctx context.Context, tx *gorm.DB, topicID uuid.UUID) ([]uuid.UUID, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ids []uuid.UUID
	if err := transaction.WithContext(ctx).
		Model(&types.Session{}).
		Where("topic_id = ?", topicID).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *sessionRepo) Save(ctx context.Context, tx *gorm.DB, session *types.Session) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(session).Error
}

func (r *sessionRepo) UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatus, toStatus string, updates map[string]any) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	set := map[string]any{"status": toStatus}
	for k, v := range updates {
		set[k] = v
	}
	res := transaction.WithContext(ctx).
		Model(&types.Session{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Session{}).Error
}

func (r *sessionRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Session{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
