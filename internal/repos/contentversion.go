package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type SessionContentVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, version *types.SessionContentVersion) (*types.SessionContentVersion, error)
	LatestBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.SessionContentVersion, error)
	NextVersionNumber(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int, error)
}

type sessionContentVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionContentVersionRepo(db *gorm.DB, baseLog *logger.Logger) SessionContentVersionRepo {
	return &sessionContentVersionRepo{db: db, log: baseLog.With("repo", "SessionContentVersionRepo")}
}

func (r *sessionContentVersionRepo) Create(ctx context.Context, tx *gorm.DB, version *types.SessionContentVersion) (*types.SessionContentVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(version).Error; err != nil {
		return nil, err
	}
	return version, nil
}

func (r *sessionContentVersionRepo) LatestBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (*types.SessionContentVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var version types.SessionContentVersion
	if err := transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("version DESC").
		First(&version).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &version, nil
}

func (r *sessionContentVersionRepo) NextVersionNumber(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int, error) {
	latest, err := r.LatestBySessionID(ctx, tx, sessionID)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return 1, nil
	}
	return latest.Version + 1, nil
}
