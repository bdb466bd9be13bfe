package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type VariantCacheRepo interface {
	Get(ctx context.Context, tx *gorm.DB, requestHash string, variantIndex int) (*types.VariantCacheEntry, error)
	// Upsert inserts or replaces on the (request_hash, variant_index) key.
	Upsert(ctx context.Context, tx *gorm.DB, entry *types.VariantCacheEntry) error
	RecordHit(ctx context.Context, tx *gorm.DB, requestHash string, variantIndex int, accessedAt time.Time) error
	DeleteExpiredBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error)
}

type variantCacheRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVariantCacheRepo(db *gorm.DB, baseLog *logger.Logger) VariantCacheRepo {
	return &variantCacheRepo{db: db, log: baseLog.With("repo", "VariantCacheRepo")}
}

func (r *variantCacheRepo) Get(ctx context.Context, tx *gorm.DB, requestHash string, variantIndex int) (*types.VariantCacheEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var entry types.VariantCacheEntry
	if err := transaction.WithContext(ctx).
		Where("request_hash = ? AND variant_index = ?", requestHash, variantIndex).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *variantCacheRepo) Upsert(ctx context.Context, tx *gorm.DB, entry *types.VariantCacheEntry) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "request_hash"}, {Name: "variant_index"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"payload", "expires_at", "last_accessed", "updated_at",
			}),
		}).
		Create(entry).Error
}

func (r *variantCacheRepo) RecordHit(ctx context.Context, tx *gorm.DB, requestHash string, variantIndex int, accessedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Model(&types.VariantCacheEntry{}).
		Where("request_hash = ? AND variant_index = ?", requestHash, variantIndex).
		Updates(map[string]any{
			"hit_count":     gorm.Expr("hit_count + 1"),
			"last_accessed": accessedAt,
		}).Error
}

func (r *variantCacheRepo) DeleteExpiredBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("expires_at <= ?", cutoff).
		Delete(&types.VariantCacheEntry{})
	return res.RowsAffected, res.Error
}
