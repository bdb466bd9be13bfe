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

type fakeAIClient struct {
	calls    int
	response string
	err      error
}

func (f *fakeAIClient) Chat(ctx context.Context, messages []AIMessage, opts *AIOptions) (*AICompletion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &AICompletion{Content: f.response, Model: "fake"}, nil
}

type generationFixture struct {
	svc      GenerationService
	ai       *fakeAIClient
	topics   repos.TopicRepo
	sessions repos.SessionRepo
}

func newGenerationFixture(t *testing.T, ai *fakeAIClient) *generationFixture {
	t.Helper()
	gdb := openTestDB(t)
	log := logger.NewNop()
	clk := &clock.Fixed{T: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}
	topicRepo := repos.NewTopicRepo(gdb, log)
	sessionRepo := repos.NewSessionRepo(gdb, log)
	cacheRepo := repos.NewVariantCacheRepo(gdb, log)
	cache := NewVariantCacheService(gdb, log, cacheRepo, clk)
	return &generationFixture{
		svc:      NewGenerationService(gdb, log, topicRepo, sessionRepo, cache, ai, 24*time.Hour),
		ai:       ai,
		topics:   topicRepo,
		sessions: sessionRepo,
	}
}

func TestGenerationService_OutlineVariantUsesCacheOnSecondCall(t *testing.T) {
	ai := &fakeAIClient{response: `{"sections":[{"title":"Intro","minutes":10}]}`}
	f := newGenerationFixture(t, ai)
	ctx := context.Background()
	req := OutlineRequest{TopicName: "Feedback Culture", DurationMins: 60}

	first, err := f.svc.GenerateOutlineVariant(ctx, req, 0)
	if err != nil {
		t.Fatalf("first generation: %v", err)
	}
	if first.CacheHit {
		t.Fatalf("first call should miss the cache")
	}
	second, err := f.svc.GenerateOutlineVariant(ctx, req, 0)
	if err != nil {
		t.Fatalf("second generation: %v", err)
	}
	if !second.CacheHit {
		t.Fatalf("second call should hit the cache")
	}
	if ai.calls != 1 {
		t.Fatalf("expected exactly one model call, got %d", ai.calls)
	}
	if string(second.Payload) != string(first.Payload) {
		t.Fatalf("cached payload mismatch")
	}
}

func TestGenerationService_DistinctVariantIndicesCallModelSeparately(t *testing.T) {
	ai := &fakeAIClient{response: `{"sections":[]}`}
	f := newGenerationFixture(t, ai)
	ctx := context.Background()
	req := OutlineRequest{TopicName: "Coaching"}

	if _, err := f.svc.GenerateOutlineVariant(ctx, req, 0); err != nil {
		t.Fatalf("variant 0: %v", err)
	}
	if _, err := f.svc.GenerateOutlineVariant(ctx, req, 1); err != nil {
		t.Fatalf("variant 1: %v", err)
	}
	if ai.calls != 2 {
		t.Fatalf("expected 2 model calls for 2 variants, got %d", ai.calls)
	}
}

func TestGenerationService_OutlineVariantValidatesInput(t *testing.T) {
	f := newGenerationFixture(t, &fakeAIClient{response: `{}`})
	ctx := context.Background()

	if _, err := f.svc.GenerateOutlineVariant(ctx, OutlineRequest{}, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing topic, got %v", err)
	}
	req := OutlineRequest{TopicName: "X"}
	if _, err := f.svc.GenerateOutlineVariant(ctx, req, MaxVariantIndex+1); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for index out of range, got %v", err)
	}
}

func TestHashOutlineRequest_DeterministicAndInputSensitive(t *testing.T) {
	a := OutlineRequest{TopicName: "Coaching", DurationMins: 60}
	b := OutlineRequest{TopicName: "Coaching", DurationMins: 60}
	c := OutlineRequest{TopicName: "Coaching", DurationMins: 90}

	ha, err := HashOutlineRequest(a)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	hb, _ := HashOutlineRequest(b)
	hc, _ := HashOutlineRequest(c)
	if ha != hb {
		t.Fatalf("equal requests must hash equally")
	}
	if ha == hc {
		t.Fatalf("different requests must hash differently")
	}
	if len(ha) != 64 {
		t.Fatalf("expected hex sha256, got %q", ha)
	}
}

func TestGenerationService_EnhanceTopicPersistsExtractedFields(t *testing.T) {
	ai := &fakeAIClient{response: `{"summary":"s","learning_outcomes":"Know X","trainer_notes":"Bring slides","materials_needed":"Projector","delivery_guidance":"Workshop style"}`}
	f := newGenerationFixture(t, ai)
	ctx := context.Background()

	topic := &types.Topic{ID: uuid.New(), Name: "Difficult Conversations", Active: true}
	if _, err := f.topics.Create(ctx, nil, topic); err != nil {
		t.Fatalf("create topic: %v", err)
	}

	if err := f.svc.EnhanceTopic(ctx, topic.ID); err != nil {
		t.Fatalf("enhance: %v", err)
	}
	got, err := f.topics.GetByID(ctx, nil, topic.ID)
	if err != nil {
		t.Fatalf("reload topic: %v", err)
	}
	if got.LearningOutcomes != "Know X" || got.TrainerNotes != "Bring slides" {
		t.Fatalf("extracted fields not persisted: %+v", got)
	}
	if len(got.Enhancement) == 0 {
		t.Fatalf("raw enhancement payload not stored")
	}
}

func TestGenerationService_EnhanceTopicUnknownID(t *testing.T) {
	f := newGenerationFixture(t, &fakeAIClient{response: `{}`})
	if err := f.svc.EnhanceTopic(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerationService_GeneratePromoSurvivesModelFailure(t *testing.T) {
	ai := &fakeAIClient{err: errors.New("model unavailable")}
	f := newGenerationFixture(t, ai)
	ctx := context.Background()

	session := &types.Session{
		ID:       uuid.New(),
		AuthorID: uuid.New(),
		Title:    "Launch Day",
		Status:   types.SessionStatusDraft,
	}
	if _, err := f.sessions.Create(ctx, nil, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	result, err := f.svc.GeneratePromo(ctx, session.ID)
	if err != nil {
		t.Fatalf("promo should not error on model failure: %v", err)
	}
	if result.Success || result.Error == "" {
		t.Fatalf("expected failed result with message, got %+v", result)
	}
}

func TestGenerationService_GeneratePromoStoresCopy(t *testing.T) {
	ai := &fakeAIClient{response: `{"headline":"Big Launch","blurb":"Join us","social":"#launch"}`}
	f := newGenerationFixture(t, ai)
	ctx := context.Background()

	session := &types.Session{
		ID:       uuid.New(),
		AuthorID: uuid.New(),
		Title:    "Launch Day",
		Status:   types.SessionStatusDraft,
	}
	if _, err := f.sessions.Create(ctx, nil, session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	result, err := f.svc.GeneratePromo(ctx, session.ID)
	if err != nil {
		t.Fatalf("promo: %v", err)
	}
	if !result.Success || result.Headline != "Big Launch" {
		t.Fatalf("unexpected result %+v", result)
	}
	got, err := f.sessions.GetByID(ctx, nil, session.ID)
	if err != nil {
		t.Fatalf("reload session: %v", err)
	}
	if got.PromoHeadline != "Big Launch" || got.SocialPost != "#launch" {
		t.Fatalf("promo fields not persisted: %+v", got)
	}
}
