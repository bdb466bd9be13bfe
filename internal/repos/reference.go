package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

// ReferenceRepo covers the small lookup entities (category, audience,
// tone, trainer, location) that share the same access pattern.
type ReferenceRepo[T any] interface {
	Create(ctx context.Context, tx *gorm.DB, record *T) (*T, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*T, error)
	List(ctx context.Context, tx *gorm.DB) ([]*T, error)
	Save(ctx context.Context, tx *gorm.DB, record *T) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type referenceRepo[T any] struct {
	db  *gorm.DB
	log *logger.Logger
}

func newReferenceRepo[T any](db *gorm.DB, baseLog *logger.Logger, name string) ReferenceRepo[T] {
	return &referenceRepo[T]{db: db, log: baseLog.With("repo", name)}
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) ReferenceRepo[types.Category] {
	return newReferenceRepo[types.Category](db, baseLog, "CategoryRepo")
}

func NewAudienceRepo(db *gorm.DB, baseLog *logger.Logger) ReferenceRepo[types.Audience] {
	return newReferenceRepo[types.Audience](db, baseLog, "AudienceRepo")
}

func NewToneRepo(db *gorm.DB, baseLog *logger.Logger) ReferenceRepo[types.Tone] {
	return newReferenceRepo[types.Tone](db, baseLog, "ToneRepo")
}

func NewTrainerRepo(db *gorm.DB, baseLog *logger.Logger) ReferenceRepo[types.Trainer] {
	return newReferenceRepo[types.Trainer](db, baseLog, "TrainerRepo")
}

func NewLocationRepo(db *gorm.DB, baseLog *logger.Logger) ReferenceRepo[types.Location] {
	return newReferenceRepo[types.Location](db, baseLog, "LocationRepo")
}

func (r *referenceRepo[T]) Create(ctx context.Context, tx *gorm.DB, record *T) (*T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *referenceRepo[T]) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var record T
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *referenceRepo[T]) List(ctx context.Context, tx *gorm.DB) ([]*T, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var records []*T
	if err := transaction.WithContext(ctx).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *referenceRepo[T]) Save(ctx context.Context, tx *gorm.DB, record *T) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(record).Error
}

func (r *referenceRepo[T]) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var record T
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&record).Error
}
