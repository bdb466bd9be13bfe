package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/repos"
)

// ReferenceService is the shared CRUD surface for the lookup entities.
type ReferenceService[T any] interface {
	Create(ctx context.Context, record *T) (*T, error)
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	List(ctx context.Context) ([]*T, error)
	Update(ctx context.Context, id uuid.UUID, apply func(*T) error) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type referenceService[T any] struct {
	db     *gorm.DB
	log    *logger.Logger
	repo   repos.ReferenceRepo[T]
	assign func(record *T, id uuid.UUID)
}

func NewReferenceService[T any](
	db *gorm.DB,
	baseLog *logger.Logger,
	name string,
	repo repos.ReferenceRepo[T],
	assignID func(record *T, id uuid.UUID),
) ReferenceService[T] {
	return &referenceService[T]{
		db:     db,
		log:    baseLog.With("service", name),
		repo:   repo,
		assign: assignID,
	}
}

func (rs *referenceService[T]) Create(ctx context.Context, record *T) (*T, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: no record given", ErrValidation)
	}
	rs.assign(record, uuid.New())
	if _, err := rs.repo.Create(ctx, nil, record); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return record, nil
}

func (rs *referenceService[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	record, err := rs.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load record: %w", err)
	}
	if record == nil {
		return nil, ErrNotFound
	}
	return record, nil
}

func (rs *referenceService[T]) List(ctx context.Context) ([]*T, error) {
	records, err := rs.repo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (rs *referenceService[T]) Update(ctx context.Context, id uuid.UUID, apply func(*T) error) (*T, error) {
	record, err := rs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(record); err != nil {
		return nil, err
	}
	if err := rs.repo.Save(ctx, nil, record); err != nil {
		return nil, fmt.Errorf("save record: %w", err)
	}
	return record, nil
}

func (rs *referenceService[T]) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := rs.GetByID(ctx, id); err != nil {
		return err
	}
	return rs.repo.Delete(ctx, nil, id)
}
