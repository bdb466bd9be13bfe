package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/clock"
	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/repos"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

const MaxVariantIndex = 3

// VariantCacheService is a TTL-only cache of generated outline variants.
// No capacity eviction; expiry is the only invalidation.
type VariantCacheService interface {
	// Lookup returns the payload only when an unexpired entry exists for
	// the key. Hits bump hit_count and last_accessed.
	Lookup(ctx context.Context, requestHash string, variantIndex int) (datatypes.JSON, bool, error)
	Store(ctx context.Context, requestHash string, variantIndex int, payload datatypes.JSON, ttl time.Duration) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type variantCacheService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  repos.VariantCacheRepo
	clock clock.Clock
}

func NewVariantCacheService(db *gorm.DB, baseLog *logger.Logger, repo repos.VariantCacheRepo, clk clock.Clock) VariantCacheService {
	return &variantCacheService{
		db:    db,
		log:   baseLog.With("service", "VariantCacheService"),
		repo:  repo,
		clock: clk,
	}
}

func (vs *variantCacheService) Lookup(ctx context.Context, requestHash string, variantIndex int) (datatypes.JSON, bool, error) {
	if err := validateVariantKey(requestHash, variantIndex); err != nil {
		return nil, false, err
	}
	entry, err := vs.repo.Get(ctx, nil, requestHash, variantIndex)
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	now := vs.clock.Now()
	if entry == nil || !entry.ExpiresAt.After(now) {
		return nil, false, nil
	}
	if err := vs.repo.RecordHit(ctx, nil, requestHash, variantIndex, now); err != nil {
		// A hit that fails bookkeeping is still a hit.
		vs.log.Warn("Cache hit bookkeeping failed", "error", err, "request_hash", requestHash)
	}
	return entry.Payload, true, nil
}

func (vs *variantCacheService) Store(ctx context.Context, requestHash string, variantIndex int, payload datatypes.JSON, ttl time.Duration) error {
	if err := validateVariantKey(requestHash, variantIndex); err != nil {
		return err
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrValidation)
	}
	if ttl <= 0 {
		return fmt.Errorf("%w: ttl must be positive", ErrValidation)
	}
	now := vs.clock.Now()
	entry := &types.VariantCacheEntry{
		ID:           uuid.New(),
		RequestHash:  requestHash,
		VariantIndex: variantIndex,
		Payload:      payload,
		LastAccessed: now,
		ExpiresAt:    now.Add(ttl),
	}
	if err := vs.repo.Upsert(ctx, nil, entry); err != nil {
		return fmt.Errorf("cache upsert: %w", err)
	}
	return nil
}

func (vs *variantCacheService) PurgeExpired(ctx context.Context) (int64, error) {
	purged, err := vs.repo.DeleteExpiredBefore(ctx, nil, vs.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("cache purge: %w", err)
	}
	if purged > 0 {
		vs.log.Info("Purged expired variant cache entries", "count", purged)
	}
	return purged, nil
}

func validateVariantKey(requestHash string, variantIndex int) error {
	if requestHash == "" {
		return fmt.Errorf("%w: empty request hash", ErrValidation)
	}
	if variantIndex < 0 || variantIndex > MaxVariantIndex {
		return fmt.Errorf("%w: variant index %d outside [0,%d]", ErrValidation, variantIndex, MaxVariantIndex)
	}
	return nil
}
