package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/repos"
)

// OutlineRequest carries everything that makes a generated outline
// distinct. Its canonical JSON form is what gets hashed for the cache key.
type OutlineRequest struct {
	TopicName    string `json:"topic_name"`
	AudienceName string `json:"audience_name,omitempty"`
	ToneName     string `json:"tone_name,omitempty"`
	DurationMins int    `json:"duration_mins,omitempty"`
	Emphasis     string `json:"emphasis,omitempty"`
}

type OutlineVariant struct {
	Payload  datatypes.JSON `json:"payload"`
	CacheHit bool           `json:"cache_hit"`
}

type PromoResult struct {
	Success  bool   `json:"success"`
	Headline string `json:"headline,omitempty"`
	Blurb    string `json:"blurb,omitempty"`
	Social   string `json:"social,omitempty"`
	Error    string `json:"error,omitempty"`
}

type GenerationService interface {
	GenerateOutlineVariant(ctx context.Context, req OutlineRequest, variantIndex int) (*OutlineVariant, error)
	EnhanceTopic(ctx context.Context, topicID uuid.UUID) error
	// GeneratePromo is best effort: AI failure yields a failed result, not
	// an error.
	GeneratePromo(ctx context.Context, sessionID uuid.UUID) (PromoResult, error)
}

type generationService struct {
	db          *gorm.DB
	log         *logger.Logger
	topicRepo   repos.TopicRepo
	sessionRepo repos.SessionRepo
	cache       VariantCacheService
	ai          AIClient
	variantTTL  time.Duration
}

func NewGenerationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	topicRepo repos.TopicRepo,
	sessionRepo repos.SessionRepo,
	cache VariantCacheService,
	ai AIClient,
	variantTTL time.Duration,
) GenerationService {
	return &generationService{
		db:          db,
		log:         baseLog.With("service", "GenerationService"),
		topicRepo:   topicRepo,
		sessionRepo: sessionRepo,
		cache:       cache,
		ai:          ai,
		variantTTL:  variantTTL,
	}
}

// HashOutlineRequest fingerprints a request for the variant cache.
func HashOutlineRequest(req OutlineRequest) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal outline request: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func (gs *generationService) GenerateOutlineVariant(ctx context.Context, req OutlineRequest, variantIndex int) (*OutlineVariant, error) {
	if req.TopicName == "" {
		return nil, fmt.Errorf("%w: topic name is required", ErrValidation)
	}
	if variantIndex < 0 || variantIndex > MaxVariantIndex {
		return nil, fmt.Errorf("%w: variant index %d outside [0,%d]", ErrValidation, variantIndex, MaxVariantIndex)
	}
	hash, err := HashOutlineRequest(req)
	if err != nil {
		return nil, err
	}
	if payload, hit, err := gs.cache.Lookup(ctx, hash, variantIndex); err != nil {
		gs.log.Warn("Variant cache lookup failed, regenerating", "error", err)
	} else if hit {
		return &OutlineVariant{Payload: payload, CacheHit: true}, nil
	}

	prompt := fmt.Sprintf(
		"Produce outline variant %d of a training session on %q.", variantIndex+1, req.TopicName)
	if req.AudienceName != "" {
		prompt += fmt.Sprintf(" Audience: %s.", req.AudienceName)
	}
	if req.ToneName != "" {
		prompt += fmt.Sprintf(" Tone: %s.", req.ToneName)
	}
	if req.DurationMins > 0 {
		prompt += fmt.Sprintf(" Duration: %d minutes.", req.DurationMins)
	}
	if req.Emphasis != "" {
		prompt += fmt.Sprintf(" Emphasize: %s.", req.Emphasis)
	}
	prompt += ` Respond with JSON: {"sections": [{"title", "minutes", "summary"}]}.`

	completion, err := gs.ai.Chat(ctx, []AIMessage{
		{Role: "system", Content: "You are a curriculum designer. Respond only with JSON."},
		{Role: "user", Content: prompt},
	}, &AIOptions{Temperature: 0.7 + 0.1*float32(variantIndex)})
	if err != nil {
		return nil, fmt.Errorf("outline generation: %w", err)
	}

	payload := normalizeJSONPayload(completion.Content)
	if err := gs.cache.Store(ctx, hash, variantIndex, payload, gs.variantTTL); err != nil {
		gs.log.Warn("Variant cache store failed", "error", err, "request_hash", hash)
	}
	return &OutlineVariant{Payload: payload, CacheHit: false}, nil
}

type topicEnhancement struct {
	Summary          string `json:"summary"`
	LearningOutcomes string `json:"learning_outcomes"`
	TrainerNotes     string `json:"trainer_notes"`
	MaterialsNeeded  string `json:"materials_needed"`
	DeliveryGuidance string `json:"delivery_guidance"`
}

func (gs *generationService) EnhanceTopic(ctx context.Context, topicID uuid.UUID) error {
	topic, err := gs.topicRepo.GetByID(ctx, nil, topicID)
	if err != nil {
		return fmt.Errorf("load topic: %w", err)
	}
	if topic == nil {
		return fmt.Errorf("%w: topic", ErrNotFound)
	}

	prompt := fmt.Sprintf(
		`Enhance the training topic %q (current description: %q). Respond with JSON: `+
			`{"summary", "learning_outcomes", "trainer_notes", "materials_needed", "delivery_guidance"}.`,
		topic.Name, topic.Description)
	completion, err := gs.ai.Chat(ctx, []AIMessage{
		{Role: "system", Content: "You are a corporate training expert. Respond only with JSON."},
		{Role: "user", Content: prompt},
	}, nil)
	if err != nil {
		return fmt.Errorf("topic enhancement: %w", err)
	}

	payload := normalizeJSONPayload(completion.Content)
	var enhancement topicEnhancement
	if err := json.Unmarshal(payload, &enhancement); err != nil {
		return fmt.Errorf("decode enhancement payload: %w", err)
	}
	topic.Enhancement = payload
	if enhancement.LearningOutcomes != "" {
		topic.LearningOutcomes = enhancement.LearningOutcomes
	}
	if enhancement.TrainerNotes != "" {
		topic.TrainerNotes = enhancement.TrainerNotes
	}
	if enhancement.MaterialsNeeded != "" {
		topic.MaterialsNeeded = enhancement.MaterialsNeeded
	}
	if enhancement.DeliveryGuidance != "" {
		topic.DeliveryGuidance = enhancement.DeliveryGuidance
	}
	if err := gs.topicRepo.Save(ctx, nil, topic); err != nil {
		return fmt.Errorf("save enhanced topic: %w", err)
	}
	return nil
}

type promoPayload struct {
	Headline string `json:"headline"`
	Blurb    string `json:"blurb"`
	Social   string `json:"social"`
}

func (gs *generationService) GeneratePromo(ctx context.Context, sessionID uuid.UUID) (PromoResult, error) {
	session, err := gs.sessionRepo.GetByID(ctx, nil, sessionID)
	if err != nil {
		return PromoResult{}, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return PromoResult{}, fmt.Errorf("%w: session", ErrNotFound)
	}

	prompt := fmt.Sprintf(
		`Write promotional copy for the training session %q (description: %q). Respond with JSON: `+
			`{"headline", "blurb", "social"}.`,
		session.Title, session.Description)
	completion, err := gs.ai.Chat(ctx, []AIMessage{
		{Role: "system", Content: "You are a marketing copywriter. Respond only with JSON."},
		{Role: "user", Content: prompt},
	}, nil)
	if err != nil {
		gs.log.Warn("Promo generation failed", "error", err, "session_id", sessionID)
		return PromoResult{Success: false, Error: err.Error()}, nil
	}

	var promo promoPayload
	if err := json.Unmarshal(normalizeJSONPayload(completion.Content), &promo); err != nil {
		gs.log.Warn("Promo payload decode failed", "error", err, "session_id", sessionID)
		return PromoResult{Success: false, Error: err.Error()}, nil
	}
	session.PromoHeadline = promo.Headline
	session.PromoBlurb = promo.Blurb
	session.SocialPost = promo.Social
	if err := gs.sessionRepo.Save(ctx, nil, session); err != nil {
		return PromoResult{}, fmt.Errorf("save promo fields: %w", err)
	}
	return PromoResult{Success: true, Headline: promo.Headline, Blurb: promo.Blurb, Social: promo.Social}, nil
}

// normalizeJSONPayload wraps non-JSON model output so it can still live in
// a jsonb column.
func normalizeJSONPayload(content string) datatypes.JSON {
	trimmed := []byte(content)
	if json.Valid(trimmed) {
		return datatypes.JSON(trimmed)
	}
	wrapped, _ := json.Marshal(map[string]string{"text": content})
	return datatypes.JSON(wrapped)
}
