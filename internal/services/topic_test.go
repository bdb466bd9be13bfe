package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/repos"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

func newTopicFixture(t *testing.T) (TopicService, repos.SessionRepo) {
	t.Helper()
	gdb := openTestDB(t)
	log := logger.NewNop()
	topicRepo := repos.NewTopicRepo(gdb, log)
	sessionRepo := repos.NewSessionRepo(gdb, log)
	return NewTopicService(gdb, log, topicRepo, sessionRepo), sessionRepo
}

func TestTopicService_CreateRejectsDuplicateNameCaseInsensitive(t *testing.T) {
	svc, _ := newTopicFixture(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, &types.Topic{Name: "Conflict Resolution", Active: true}); err != nil {
		t.Fatalf("create topic: %v", err)
	}
	if _, err := svc.Create(ctx, &types.Topic{Name: "conflict RESOLUTION"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for duplicate name, got %v", err)
	}
}

func TestTopicService_ImportReconciliation(t *testing.T) {
	svc, _ := newTopicFixture(t)
	ctx := context.Background()

	existing, err := svc.Create(ctx, &types.Topic{Name: "Time Management", Active: true})
	if err != nil {
		t.Fatalf("create topic: %v", err)
	}
	byName, err := svc.Create(ctx, &types.Topic{Name: "Public Speaking", Active: true})
	if err != nil {
		t.Fatalf("create topic: %v", err)
	}

	desc := "Updated description"
	records := []TopicImportRecord{
		{ID: &existing.ID, Name: "Time Management 101"},
		{Name: "PUBLIC speaking", Description: &desc},
		{Name: "Delegation"},
		{Name: ""},
	}
	result, err := svc.Import(ctx, records)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Updated != 2 || result.Created != 1 {
		t.Fatalf("expected 2 updated and 1 created, got %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Index != 3 {
		t.Fatalf("expected the nameless record to fail, got %+v", result.Errors)
	}

	renamed, err := svc.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if renamed.Name != "Time Management 101" {
		t.Fatalf("id-matched rename not applied, got %q", renamed.Name)
	}
	matched, err := svc.GetByID(ctx, byName.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if matched.Description != desc {
		t.Fatalf("name-matched update not applied, got %q", matched.Description)
	}
}

func TestTopicService_ExportListsSessionIDs(t *testing.T) {
	svc, sessionRepo := newTopicFixture(t)
	ctx := context.Background()

	topic, err := svc.Create(ctx, &types.Topic{Name: "Negotiation", Active: true})
	if err != nil {
		t.Fatalf("create topic: %v", err)
	}
	session := &types.Session{
		ID:       uuid.New(),
		AuthorID: uuid.New(),
		Title:    "Negotiation Workshop",
		Status:   types.SessionStatusDraft,
		TopicID:  &topic.ID,
	}
	if _, err := sessionRepo.Create(ctx, nil, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	records, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if len(records[0].SessionIDs) != 1 || records[0].SessionIDs[0] != session.ID {
		t.Fatalf("expected the linked session id, got %+v", records[0].SessionIDs)
	}
}
