package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/clock"
	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/repos"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type sessionFixture struct {
	db       *gorm.DB
	svc      SessionService
	clk      *clock.Fixed
	topics   repos.TopicRepo
	versions repos.SessionContentVersionRepo
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()
	gdb := openTestDB(t)
	log := logger.NewNop()
	clk := &clock.Fixed{T: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	sessionRepo := repos.NewSessionRepo(gdb, log)
	topicRepo := repos.NewTopicRepo(gdb, log)
	versionRepo := repos.NewSessionContentVersionRepo(gdb, log)
	return &sessionFixture{
		db:       gdb,
		svc:      NewSessionService(gdb, log, sessionRepo, topicRepo, versionRepo, clk),
		clk:      clk,
		topics:   topicRepo,
		versions: versionRepo,
	}
}

func (f *sessionFixture) createDraft(t *testing.T, ctx context.Context, title string) *types.Session {
	t.Helper()
	start := f.clk.Now().Add(24 * time.Hour)
	end := start.Add(2 * time.Hour)
	session, err := f.svc.Create(ctx, &types.Session{
		Title:       title,
		Description: "An introduction",
		Rules:       "Arrive on time",
		StartTime:   &start,
		EndTime:     &end,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func TestSessionService_CreateSnapshotsInitialContentVersion(t *testing.T) {
	f := newSessionFixture(t)
	ctx := authorContext(uuid.New())
	session := f.createDraft(t, ctx, "Onboarding Basics")

	latest, err := f.versions.LatestBySessionID(context.Background(), nil, session.ID)
	if err != nil {
		t.Fatalf("load latest version: %v", err)
	}
	if latest == nil || latest.Version != 1 {
		t.Fatalf("expected version 1 snapshot, got %+v", latest)
	}
	if latest.Title != "Onboarding Basics" {
		t.Fatalf("snapshot title mismatch: %q", latest.Title)
	}
}

func TestSessionService_ContentEditsSnapshotNewVersions(t *testing.T) {
	f := newSessionFixture(t)
	ctx := authorContext(uuid.New())
	session := f.createDraft(t, ctx, "Onboarding Basics")

	title := "Onboarding Basics v2"
	if _, err := f.svc.Update(ctx, session.ID, SessionPatch{Title: &title}); err != nil {
		t.Fatalf("update title: %v", err)
	}
	// A schedule-only change must not snapshot.
	newStart := f.clk.Now().Add(48 * time.Hour)
	if _, err := f.svc.Update(ctx, session.ID, SessionPatch{StartTime: &newStart}); err != nil {
		t.Fatalf("update start time: %v", err)
	}

	latest, err := f.versions.LatestBySessionID(context.Background(), nil, session.ID)
	if err != nil {
		t.Fatalf("load latest version: %v", err)
	}
	if latest == nil || latest.Version != 2 {
		t.Fatalf("expected version 2 after one content edit, got %+v", latest)
	}
	if latest.Title != title {
		t.Fatalf("snapshot should carry the new title, got %q", latest.Title)
	}
}

func TestSessionService_PublishLifecycle(t *testing.T) {
	f := newSessionFixture(t)
	ctx := authorContext(uuid.New())
	session := f.createDraft(t, ctx, "Lifecycle Session")

	published, err := f.svc.Publish(ctx, session.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if published.Status != types.SessionStatusPublished || published.PublishedAt == nil {
		t.Fatalf("expected published with timestamp, got %q %v", published.Status, published.PublishedAt)
	}
	// Publishing twice is an invalid transition.
	if _, err := f.svc.Publish(ctx, session.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on double publish, got %v", err)
	}

	unpublished, err := f.svc.Unpublish(ctx, session.ID)
	if err != nil {
		t.Fatalf("unpublish: %v", err)
	}
	if unpublished.Status != types.SessionStatusDraft || unpublished.PublishedAt != nil {
		t.Fatalf("expected draft with cleared timestamp, got %q %v", unpublished.Status, unpublished.PublishedAt)
	}
}

func TestSessionService_ExpireOverdueCompletesElapsedSessions(t *testing.T) {
	f := newSessionFixture(t)
	ctx := authorContext(uuid.New())
	session := f.createDraft(t, ctx, "Short Lived")
	if _, err := f.svc.Publish(ctx, session.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	f.clk.Advance(27 * time.Hour)
	report, err := f.svc.ExpireOverdue(context.Background())
	if err != nil {
		t.Fatalf("expire sweep: %v", err)
	}
	if report.Expired != 1 {
		t.Fatalf("expected 1 completed, got %d", report.Expired)
	}
	got, err := f.svc.GetByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.SessionStatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}
}

func TestSessionService_AttemptAutomaticPublication(t *testing.T) {
	f := newSessionFixture(t)
	ctx := authorContext(uuid.New())

	ready := f.createDraft(t, ctx, "Almost Live")
	score := 85
	if _, err := f.svc.Update(ctx, ready.ID, SessionPatch{ReadinessScore: &score}); err != nil {
		t.Fatalf("set readiness: %v", err)
	}
	notReady := f.createDraft(t, ctx, "Needs Work")
	low := 40
	if _, err := f.svc.Update(ctx, notReady.ID, SessionPatch{ReadinessScore: &low}); err != nil {
		t.Fatalf("set readiness: %v", err)
	}

	won, err := f.svc.AttemptAutomaticPublication(context.Background(), ready.ID)
	if err != nil {
		t.Fatalf("auto-publish ready: %v", err)
	}
	if !won {
		t.Fatalf("expected the ready session to publish")
	}
	won, err = f.svc.AttemptAutomaticPublication(context.Background(), notReady.ID)
	if err != nil {
		t.Fatalf("auto-publish not-ready: %v", err)
	}
	if won {
		t.Fatalf("expected the low-readiness session to stay draft")
	}
	// Re-running against an already published session is a no-op, not an error.
	won, err = f.svc.AttemptAutomaticPublication(context.Background(), ready.ID)
	if err != nil || won {
		t.Fatalf("expected idempotent no-op, got won=%v err=%v", won, err)
	}
}

func TestSessionService_CloneCopiesContentResetsState(t *testing.T) {
	f := newSessionFixture(t)
	owner := uuid.New()
	ctx := authorContext(owner)
	session := f.createDraft(t, ctx, "Source Session")
	if _, err := f.svc.Publish(ctx, session.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	cloner := uuid.New()
	clone, err := f.svc.Clone(authorContext(cloner), session.ID)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if clone.Title != "Source Session (Copy)" {
		t.Fatalf("unexpected clone title %q", clone.Title)
	}
	if clone.Status != types.SessionStatusDraft || clone.PublishedAt != nil {
		t.Fatalf("clone must start draft, got %q %v", clone.Status, clone.PublishedAt)
	}
	if clone.AuthorID != cloner {
		t.Fatalf("clone author mismatch: %s", clone.AuthorID)
	}
	latest, err := f.versions.LatestBySessionID(context.Background(), nil, clone.ID)
	if err != nil {
		t.Fatalf("load clone versions: %v", err)
	}
	if latest == nil || latest.Version != 1 {
		t.Fatalf("clone should get its own version 1 snapshot, got %+v", latest)
	}
}

func TestSessionService_ImportReconcilesByIDThenTitle(t *testing.T) {
	f := newSessionFixture(t)
	ctx := authorContext(uuid.New())

	byID := f.createDraft(t, ctx, "Budget Workshop")
	f.createDraft(t, ctx, "Compliance Briefing")

	newDesc := "Reworked agenda"
	badStatus := "archived"
	records := []SessionImportRecord{
		{ID: &byID.ID, Title: "Budget Workshop 2026", Description: &newDesc},
		{Title: "COMPLIANCE briefing", Rules: strPtr("Updated rules")},
		{Title: "Brand New Session"},
		{Title: "Broken Record", Status: &badStatus},
	}
	result, err := f.svc.Import(ctx, records)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Updated != 2 {
		t.Fatalf("expected 2 updated, got %d", result.Updated)
	}
	if result.Created != 1 {
		t.Fatalf("expected 1 created, got %d", result.Created)
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 3 {
		t.Fatalf("expected one error at index 3, got %+v", result.Errors)
	}

	renamed, err := f.svc.GetByID(context.Background(), byID.ID)
	if err != nil {
		t.Fatalf("reload renamed: %v", err)
	}
	if renamed.Title != "Budget Workshop 2026" || renamed.Description != newDesc {
		t.Fatalf("id-matched record not updated: %+v", renamed)
	}
}

func TestSessionService_ImportStampsPublishedAtWhenMissing(t *testing.T) {
	f := newSessionFixture(t)
	ctx := authorContext(uuid.New())
	session := f.createDraft(t, ctx, "To Be Published")

	status := types.SessionStatusPublished
	result, err := f.svc.Import(ctx, []SessionImportRecord{
		{ID: &session.ID, Title: session.Title, Status: &status},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Updated != 1 {
		t.Fatalf("expected 1 updated, got %+v", result)
	}
	got, err := f.svc.GetByID(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Status != types.SessionStatusPublished {
		t.Fatalf("expected published, got %q", got.Status)
	}
	if got.PublishedAt == nil || !got.PublishedAt.Equal(f.clk.Now()) {
		t.Fatalf("expected published_at stamped with %v, got %v", f.clk.Now(), got.PublishedAt)
	}
}

func TestSessionService_ExportIncludesTopicAndLatestVersion(t *testing.T) {
	f := newSessionFixture(t)
	ctx := authorContext(uuid.New())

	topic := &types.Topic{ID: uuid.New(), Name: "Leadership", Active: true}
	if _, err := f.topics.Create(context.Background(), nil, topic); err != nil {
		t.Fatalf("create topic: %v", err)
	}
	session := f.createDraft(t, ctx, "Zeta Session")
	if _, err := f.svc.Update(ctx, session.ID, SessionPatch{TopicID: &topic.ID}); err != nil {
		t.Fatalf("attach topic: %v", err)
	}
	f.createDraft(t, ctx, "Alpha Session")

	records, err := f.svc.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	// Ordered by title.
	if records[0].Title != "Alpha Session" || records[1].Title != "Zeta Session" {
		t.Fatalf("expected title ordering, got %q then %q", records[0].Title, records[1].Title)
	}
	zeta := records[1]
	if zeta.TopicName != "Leadership" {
		t.Fatalf("expected topic name resolved, got %q", zeta.TopicName)
	}
	if zeta.LatestVersion == nil || zeta.LatestVersion.Version != 1 {
		t.Fatalf("expected latest version summary, got %+v", zeta.LatestVersion)
	}
}

func TestSessionService_DeleteForbiddenForNonOwner(t *testing.T) {
	f := newSessionFixture(t)
	ctx := authorContext(uuid.New())
	session := f.createDraft(t, ctx, "Protected")

	if err := f.svc.Delete(authorContext(uuid.New()), session.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := f.svc.Delete(ctx, session.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if _, err := f.svc.GetByID(context.Background(), session.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func strPtr(s string) *string { return &s }
