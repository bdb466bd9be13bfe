package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/trainstudio-backend/internal/clock"
	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/repos"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

func newIncentiveFixture(t *testing.T) (IncentiveService, *clock.Fixed) {
	t.Helper()
	gdb := openTestDB(t)
	log := logger.NewNop()
	clk := &clock.Fixed{T: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	repo := repos.NewIncentiveRepo(gdb, log)
	return NewIncentiveService(gdb, log, repo, nil, nil, clk), clk
}

func createDraftIncentive(t *testing.T, svc IncentiveService, ctx context.Context, clk *clock.Fixed) *types.Incentive {
	t.Helper()
	end := clk.Now().Add(72 * time.Hour)
	incentive, err := svc.Create(ctx, &types.Incentive{
		Title:       "Early Bird Discount",
		Description: "Register early and save",
		Rules:       "One per attendee",
		EndDate:     &end,
	})
	if err != nil {
		t.Fatalf("create incentive: %v", err)
	}
	return incentive
}

func TestIncentiveService_PublishRejectsMissingDescription(t *testing.T) {
	svc, clk := newIncentiveFixture(t)
	ctx := authorContext(uuid.New())

	end := clk.Now().Add(48 * time.Hour)
	incentive, err := svc.Create(ctx, &types.Incentive{
		Title:   "No Details Yet",
		Rules:   "TBD",
		EndDate: &end,
	})
	if err != nil {
		t.Fatalf("create incentive: %v", err)
	}

	if _, err := svc.Publish(ctx, incentive.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}

	desc := "Now described"
	if _, err := svc.Update(ctx, incentive.ID, IncentivePatch{Description: &desc}); err != nil {
		t.Fatalf("update incentive: %v", err)
	}
	published, err := svc.Publish(ctx, incentive.ID)
	if err != nil {
		t.Fatalf("publish after fixing description: %v", err)
	}
	if published.Status != types.IncentiveStatusPublished {
		t.Fatalf("expected status published, got %q", published.Status)
	}
	if published.PublishedAt == nil || !published.PublishedAt.Equal(clk.Now()) {
		t.Fatalf("expected published_at %v, got %v", clk.Now(), published.PublishedAt)
	}
}

func TestIncentiveService_PublishRejectsPastEndDate(t *testing.T) {
	svc, clk := newIncentiveFixture(t)
	ctx := authorContext(uuid.New())

	past := clk.Now().Add(-time.Hour)
	incentive, err := svc.Create(ctx, &types.Incentive{
		Title:       "Expired Before Launch",
		Description: "d",
		Rules:       "r",
		StartDate:   &past,
	})
	if err != nil {
		t.Fatalf("create incentive: %v", err)
	}
	// No end date at all also fails.
	if _, err := svc.Publish(ctx, incentive.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for missing end date, got %v", err)
	}
}

func TestIncentiveService_PublishForbiddenForNonOwner(t *testing.T) {
	svc, clk := newIncentiveFixture(t)
	owner := uuid.New()
	incentive := createDraftIncentive(t, svc, authorContext(owner), clk)

	if _, err := svc.Publish(authorContext(uuid.New()), incentive.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	// An admin may publish someone else's incentive.
	if _, err := svc.Publish(actorContext(uuid.New(), types.RoleAdmin), incentive.ID); err != nil {
		t.Fatalf("admin publish: %v", err)
	}
}

func TestIncentiveService_UnpublishOnlyFromPublished(t *testing.T) {
	svc, clk := newIncentiveFixture(t)
	ctx := authorContext(uuid.New())
	incentive := createDraftIncentive(t, svc, ctx, clk)

	if _, err := svc.Unpublish(ctx, incentive.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState unpublishing a draft, got %v", err)
	}

	if _, err := svc.Publish(ctx, incentive.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	unpublished, err := svc.Unpublish(ctx, incentive.ID)
	if err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if unpublished.Status != types.IncentiveStatusDraft || unpublished.PublishedAt != nil {
		t.Fatalf("expected draft with cleared published_at, got %q %v", unpublished.Status, unpublished.PublishedAt)
	}
}

func TestIncentiveService_ExpireOverdueIsIdempotent(t *testing.T) {
	svc, clk := newIncentiveFixture(t)
	ctx := authorContext(uuid.New())
	incentive := createDraftIncentive(t, svc, ctx, clk)
	if _, err := svc.Publish(ctx, incentive.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	// Not yet overdue.
	report, err := svc.ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("expire sweep: %v", err)
	}
	if report.Expired != 0 {
		t.Fatalf("expected 0 expired before end date, got %d", report.Expired)
	}

	clk.Advance(73 * time.Hour)
	report, err = svc.ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("expire sweep: %v", err)
	}
	if report.Expired != 1 {
		t.Fatalf("expected 1 expired, got %d", report.Expired)
	}
	got, err := svc.GetByID(context.Background(), incentive.ID)
	if err != nil {
		t.Fatalf("reload incentive: %v", err)
	}
	if got.Status != types.IncentiveStatusExpired {
		t.Fatalf("expected expired, got %q", got.Status)
	}

	// A second sweep finds nothing to do.
	report, err = svc.ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("expire sweep: %v", err)
	}
	if report.Expired != 0 {
		t.Fatalf("expected idempotent sweep, got %d expired", report.Expired)
	}
}

func TestIncentiveService_CloneResetsLifecycleFields(t *testing.T) {
	svc, clk := newIncentiveFixture(t)
	owner := uuid.New()
	ctx := authorContext(owner)
	incentive := createDraftIncentive(t, svc, ctx, clk)
	if _, err := svc.Publish(ctx, incentive.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	cloner := uuid.New()
	clone, err := svc.Clone(authorContext(cloner), incentive.ID)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if clone.ID == incentive.ID {
		t.Fatalf("clone kept the source id")
	}
	if clone.Title != incentive.Title+" (Copy)" {
		t.Fatalf("unexpected clone title %q", clone.Title)
	}
	if clone.Status != types.IncentiveStatusDraft || clone.PublishedAt != nil {
		t.Fatalf("clone should start as an unpublished draft, got %q %v", clone.Status, clone.PublishedAt)
	}
	if clone.AuthorID != cloner {
		t.Fatalf("clone should belong to the cloner, got %s", clone.AuthorID)
	}
	if clone.Description != incentive.Description || clone.Rules != incentive.Rules {
		t.Fatalf("clone should copy description and rules")
	}
}

func TestIncentiveService_GetActiveOnlyPublishedWithEndDate(t *testing.T) {
	svc, clk := newIncentiveFixture(t)
	ctx := authorContext(uuid.New())

	published := createDraftIncentive(t, svc, ctx, clk)
	if _, err := svc.Publish(ctx, published.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if _, err := svc.Create(ctx, &types.Incentive{Title: "Still Draft"}); err != nil {
		t.Fatalf("create draft: %v", err)
	}

	active, err := svc.GetActive(context.Background())
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if len(active) != 1 || active[0].ID != published.ID {
		t.Fatalf("expected only the published incentive, got %d records", len(active))
	}
}
