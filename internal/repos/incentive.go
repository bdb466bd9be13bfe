package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type IncentiveRepo interface {
	Create(ctx context.Context, tx *gorm.DB, incentive *types.Incentive) (*types.Incentive, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Incentive, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Incentive, error)
	ListByAuthorID(ctx context.Context, tx *gorm.DB, authorID uuid.UUID) ([]*types.Incentive, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Incentive, error)
	ListPublishedEndedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Incentive, error)
	Save(ctx context.Context, tx *gorm.DB, incentive *types.Incentive) error
	// UpdateStatusIf performs a compare-and-set on the status column.
	UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatus, toStatus string, updates map[string]any) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type incentiveRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIncentiveRepo(db *gorm.DB, baseLog *logger.Logger) IncentiveRepo {
	return &incentiveRepo{db: db, log: baseLog.With("repo", "IncentiveRepo")}
}

func (r *incentiveRepo) Create(ctx context.Context, tx *gorm.DB, incentive *types.Incentive) (*types.Incentive, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if err := transaction.WithContext(ctx).Create(incentive).Error; err != nil {
		return nil, err
	}
	return incentive, nil
}

func (r *incentiveRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Incentive, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var incentive types.Incentive
	if err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&incentive).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &incentive, nil
}

func (r *incentiveRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Incentive, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var incentives []*types.Incentive
	if err := transaction.WithContext(ctx).
		Find(&incentives).Error; err != nil {
		return nil, err
	}
	return incentives, nil
}

func (r *incentiveRepo) ListByAuthorID(ctx context.Context, tx *gorm.DB, authorID uuid.UUID) ([]*types.Incentive, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var incentives []*types.Incentive
	if err := transaction.WithContext(ctx).
		Where("author_id = ?", authorID).
		Find(&incentives).Error; err != nil {
		return nil, err
	}
	return incentives, nil
}

func (r *incentiveRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Incentive, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var incentives []*types.Incentive
	if err := transaction.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL", types.IncentiveStatusPublished).
		Order("end_date ASC").
		Find(&incentives).Error; err != nil {
		return nil, err
	}
	return incentives, nil
}

func (r *incentiveRepo) ListPublishedEndedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) ([]*types.Incentive, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var incentives []*types.Incentive
	if err := transaction.WithContext(ctx).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", types.IncentiveStatusPublished, cutoff).
		Find(&incentives).Error; err != nil {
		return nil, err
	}
	return incentives, nil
}

func (r *incentiveRepo) Save(ctx context.Context, tx *gorm.DB, incentive *types.Incentive) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Save(incentive).Error
}

func (r *incentiveRepo) UpdateStatusIf(ctx context.Context, tx *gorm.DB, id uuid.UUID, fromStatus, toStatus string, updates map[string]any) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	set := map[string]any{"status": toStatus}
	for k, v := range updates {
		set[k] = v
	}
	res := transaction.WithContext(ctx).
		Model(&types.Incentive{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(set)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *incentiveRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&types.Incentive{}).Error
}

func (r *incentiveRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Incentive{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
