package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/trainstudio-backend/internal/clock"
	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/repos"
)

func newCacheFixture(t *testing.T) (VariantCacheService, repos.VariantCacheRepo, *clock.Fixed) {
	t.Helper()
	gdb := openTestDB(t)
	log := logger.NewNop()
	clk := &clock.Fixed{T: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	repo := repos.NewVariantCacheRepo(gdb, log)
	return NewVariantCacheService(gdb, log, repo, clk), repo, clk
}

func TestVariantCacheService_StoreThenLookupBumpsHitCount(t *testing.T) {
	svc, repo, _ := newCacheFixture(t)
	ctx := context.Background()
	payload := datatypes.JSON(`{"sections":[]}`)

	if err := svc.Store(ctx, "hash-a", 0, payload, time.Hour); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, hit, err := svc.Lookup(ctx, "hash-a", 0)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !hit {
		t.Fatalf("expected a hit")
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch: %s", got)
	}

	entry, err := repo.Get(ctx, nil, "hash-a", 0)
	if err != nil {
		t.Fatalf("repo get: %v", err)
	}
	if entry == nil || entry.HitCount != 1 {
		t.Fatalf("expected hit_count 1, got %+v", entry)
	}
}

func TestVariantCacheService_VariantIndicesAreIndependent(t *testing.T) {
	svc, _, _ := newCacheFixture(t)
	ctx := context.Background()

	if err := svc.Store(ctx, "hash-a", 0, datatypes.JSON(`{"v":0}`), time.Hour); err != nil {
		t.Fatalf("store variant 0: %v", err)
	}
	if err := svc.Store(ctx, "hash-a", 1, datatypes.JSON(`{"v":1}`), time.Hour); err != nil {
		t.Fatalf("store variant 1: %v", err)
	}

	got, hit, err := svc.Lookup(ctx, "hash-a", 1)
	if err != nil || !hit {
		t.Fatalf("lookup variant 1: hit=%v err=%v", hit, err)
	}
	if string(got) != `{"v":1}` {
		t.Fatalf("wrong variant returned: %s", got)
	}
	if _, hit, _ := svc.Lookup(ctx, "hash-a", 2); hit {
		t.Fatalf("unstored variant index should miss")
	}
}

func TestVariantCacheService_ExpiredEntriesMiss(t *testing.T) {
	svc, _, clk := newCacheFixture(t)
	ctx := context.Background()

	if err := svc.Store(ctx, "hash-a", 0, datatypes.JSON(`{}`), time.Hour); err != nil {
		t.Fatalf("store: %v", err)
	}
	clk.Advance(2 * time.Hour)

	if _, hit, err := svc.Lookup(ctx, "hash-a", 0); err != nil || hit {
		t.Fatalf("expected expired miss, hit=%v err=%v", hit, err)
	}
}

func TestVariantCacheService_StoreRefreshesExistingEntry(t *testing.T) {
	svc, _, clk := newCacheFixture(t)
	ctx := context.Background()

	if err := svc.Store(ctx, "hash-a", 0, datatypes.JSON(`{"old":true}`), time.Hour); err != nil {
		t.Fatalf("first store: %v", err)
	}
	clk.Advance(2 * time.Hour)
	// Re-storing the same key revives the expired entry with a new TTL.
	if err := svc.Store(ctx, "hash-a", 0, datatypes.JSON(`{"new":true}`), time.Hour); err != nil {
		t.Fatalf("second store: %v", err)
	}

	got, hit, err := svc.Lookup(ctx, "hash-a", 0)
	if err != nil || !hit {
		t.Fatalf("lookup after refresh: hit=%v err=%v", hit, err)
	}
	if string(got) != `{"new":true}` {
		t.Fatalf("expected refreshed payload, got %s", got)
	}
}

func TestVariantCacheService_PurgeExpiredIsIdempotent(t *testing.T) {
	svc, repo, clk := newCacheFixture(t)
	ctx := context.Background()

	if err := svc.Store(ctx, "stale", 0, datatypes.JSON(`{}`), time.Hour); err != nil {
		t.Fatalf("store stale: %v", err)
	}
	if err := svc.Store(ctx, "fresh", 0, datatypes.JSON(`{}`), 48*time.Hour); err != nil {
		t.Fatalf("store fresh: %v", err)
	}
	clk.Advance(24 * time.Hour)

	purged, err := svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if purged != 1 {
		t.Fatalf("expected 1 purged, got %d", purged)
	}
	if entry, err := repo.Get(ctx, nil, "fresh", 0); err != nil || entry == nil {
		t.Fatalf("fresh entry should survive, err=%v", err)
	}

	purged, err = svc.PurgeExpired(ctx)
	if err != nil || purged != 0 {
		t.Fatalf("expected idempotent purge, purged=%d err=%v", purged, err)
	}
}

func TestVariantCacheService_ValidatesKeyAndTTL(t *testing.T) {
	svc, _, _ := newCacheFixture(t)
	ctx := context.Background()
	payload := datatypes.JSON(`{}`)

	if err := svc.Store(ctx, "", 0, payload, time.Hour); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty hash, got %v", err)
	}
	if err := svc.Store(ctx, "h", MaxVariantIndex+1, payload, time.Hour); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for index out of range, got %v", err)
	}
	if err := svc.Store(ctx, "h", 0, payload, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for zero ttl, got %v", err)
	}
	if err := svc.Store(ctx, "h", 0, nil, time.Hour); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty payload, got %v", err)
	}
}
