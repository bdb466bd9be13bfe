package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/repos"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type TopicService interface {
	Create(ctx context.Context, topic *types.Topic) (*types.Topic, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Topic, error)
	List(ctx context.Context) ([]*types.Topic, error)
	Update(ctx context.Context, id uuid.UUID, patch TopicPatch) (*types.Topic, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Export(ctx context.Context) ([]TopicExportRecord, error)
	Import(ctx context.Context, records []TopicImportRecord) (BulkResult, error)
}

type TopicPatch struct {
	Name             *string    `json:"name,omitempty"`
	Description      *string    `json:"description,omitempty"`
	LearningOutcomes *string    `json:"learning_outcomes,omitempty"`
	TrainerNotes     *string    `json:"trainer_notes,omitempty"`
	MaterialsNeeded  *string    `json:"materials_needed,omitempty"`
	DeliveryGuidance *string    `json:"delivery_guidance,omitempty"`
	Active           *bool      `json:"active,omitempty"`
	CategoryID       *uuid.UUID `json:"category_id,omitempty"`
}

type TopicExportRecord struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	Description      string      `json:"description"`
	LearningOutcomes string      `json:"learning_outcomes"`
	TrainerNotes     string      `json:"trainer_notes"`
	MaterialsNeeded  string      `json:"materials_needed"`
	DeliveryGuidance string      `json:"delivery_guidance"`
	Active           bool        `json:"active"`
	SessionIDs       []uuid.UUID `json:"session_ids"`
}

type TopicImportRecord struct {
	ID               *uuid.UUID `json:"id,omitempty"`
	Name             string     `json:"name"`
	Description      *string    `json:"description,omitempty"`
	LearningOutcomes *string    `json:"learning_outcomes,omitempty"`
	TrainerNotes     *string    `json:"trainer_notes,omitempty"`
	MaterialsNeeded  *string    `json:"materials_needed,omitempty"`
	DeliveryGuidance *string    `json:"delivery_guidance,omitempty"`
	Active           *bool      `json:"active,omitempty"`
}

type topicService struct {
	db          *gorm.DB
	log         *logger.Logger
	repo        repos.TopicRepo
	sessionRepo repos.SessionRepo
}

func NewTopicService(db *gorm.DB, baseLog *logger.Logger, repo repos.TopicRepo, sessionRepo repos.SessionRepo) TopicService {
	return &topicService{
		db:          db,
		log:         baseLog.With("service", "TopicService"),
		repo:        repo,
		sessionRepo: sessionRepo,
	}
}

func (ts *topicService) Create(ctx context.Context, topic *types.Topic) (*types.Topic, error) {
	if topic == nil || topic.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	existing, err := ts.repo.GetByNameInsensitive(ctx, nil, topic.Name)
	if err != nil {
		return nil, fmt.Errorf("check topic name: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: topic name already in use", ErrValidation)
	}
	topic.ID = uuid.New()
	if _, err := ts.repo.Create(ctx, nil, topic); err != nil {
		return nil, fmt.Errorf("create topic: %w", err)
	}
	return topic, nil
}

func (ts *topicService) GetByID(ctx context.Context, id uuid.UUID) (*types.Topic, error) {
	topic, err := ts.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load topic: %w", err)
	}
	if topic == nil {
		return nil, fmt.Errorf("%w: topic", ErrNotFound)
	}
	return topic, nil
}

func (ts *topicService) List(ctx context.Context) ([]*types.Topic, error) {
	topics, err := ts.repo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topics, nil
}

func (ts *topicService) Update(ctx context.Context, id uuid.UUID, patch TopicPatch) (*types.Topic, error) {
	topic, err := ts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		topic.Name = *patch.Name
	}
	if patch.Description != nil {
		topic.Description = *patch.Description
	}
	if patch.LearningOutcomes != nil {
		topic.LearningOutcomes = *patch.LearningOutcomes
	}
	if patch.TrainerNotes != nil {
		topic.TrainerNotes = *patch.TrainerNotes
	}
	if patch.MaterialsNeeded != nil {
		topic.MaterialsNeeded = *patch.MaterialsNeeded
	}
	if patch.DeliveryGuidance != nil {
		topic.DeliveryGuidance = *patch.DeliveryGuidance
	}
	if patch.Active != nil {
		topic.Active = *patch.Active
	}
	if patch.CategoryID != nil {
		topic.CategoryID = patch.CategoryID
	}
	if err := ts.repo.Save(ctx, nil, topic); err != nil {
		return nil, fmt.Errorf("save topic: %w", err)
	}
	return topic, nil
}

func (ts *topicService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := ts.GetByID(ctx, id); err != nil {
		return err
	}
	return ts.repo.Delete(ctx, nil, id)
}

func (ts *topicService) Export(ctx context.Context) ([]TopicExportRecord, error) {
	topics, err := ts.repo.ListOrderedByName(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	records := make([]TopicExportRecord, 0, len(topics))
	for _, topic := range topics {
		sessionIDs, err := ts.sessionRepo.ListIDsByTopicID(ctx, nil, topic.ID)
		if err != nil {
			return nil, fmt.Errorf("list sessions for topic %s: %w", topic.ID, err)
		}
		if sessionIDs == nil {
			sessionIDs = []uuid.UUID{}
		}
		records = append(records, TopicExportRecord{
			ID:               topic.ID,
			Name:             topic.Name,
			Description:      topic.Description,
			LearningOutcomes: topic.LearningOutcomes,
			TrainerNotes:     topic.TrainerNotes,
			MaterialsNeeded:  topic.MaterialsNeeded,
			DeliveryGuidance: topic.DeliveryGuidance,
			Active:           topic.Active,
			SessionIDs:       sessionIDs,
		})
	}
	return records, nil
}

func (ts *topicService) Import(ctx context.Context, records []TopicImportRecord) (BulkResult, error) {
	result := BulkResult{Errors: []BulkError{}}
	for i, record := range records {
		if err := ts.importOne(ctx, record, &result); err != nil {
			result.Errors = append(result.Errors, BulkError{
				Index:      i,
				Identifier: record.Name,
				Message:    err.Error(),
			})
		}
	}
	return result, nil
}

func (ts *topicService) importOne(ctx context.Context, record TopicImportRecord, result *BulkResult) error {
	var existing *types.Topic
	if record.ID != nil {
		found, err := ts.repo.GetByID(ctx, nil, *record.ID)
		if err != nil {
			return fmt.Errorf("lookup by id: %w", err)
		}
		existing = found
	}
	if existing == nil && record.Name != "" {
		found, err := ts.repo.GetByNameInsensitive(ctx, nil, record.Name)
		if err != nil {
			return fmt.Errorf("lookup by name: %w", err)
		}
		existing = found
	}

	if existing != nil {
		if record.Name != "" {
			existing.Name = record.Name
		}
		if record.Description != nil {
			existing.Description = *record.Description
		}
		if record.LearningOutcomes != nil {
			existing.LearningOutcomes = *record.LearningOutcomes
		}
		if record.TrainerNotes != nil {
			existing.TrainerNotes = *record.TrainerNotes
		}
		if record.MaterialsNeeded != nil {
			existing.MaterialsNeeded = *record.MaterialsNeeded
		}
		if record.DeliveryGuidance != nil {
			existing.DeliveryGuidance = *record.DeliveryGuidance
		}
		if record.Active != nil {
			existing.Active = *record.Active
		}
		if err := ts.repo.Save(ctx, nil, existing); err != nil {
			return fmt.Errorf("save topic: %w", err)
		}
		result.Updated++
		return nil
	}

	if record.Name == "" {
		return fmt.Errorf("%w: name is required to create a topic", ErrValidation)
	}
	created := &types.Topic{
		ID:     uuid.New(),
		Name:   record.Name,
		Active: true,
	}
	if record.Description != nil {
		created.Description = *record.Description
	}
	if record.LearningOutcomes != nil {
		created.LearningOutcomes = *record.LearningOutcomes
	}
	if record.TrainerNotes != nil {
		created.TrainerNotes = *record.TrainerNotes
	}
	if record.MaterialsNeeded != nil {
		created.MaterialsNeeded = *record.MaterialsNeeded
	}
	if record.DeliveryGuidance != nil {
		created.DeliveryGuidance = *record.DeliveryGuidance
	}
	if record.Active != nil {
		created.Active = *record.Active
	}
	if _, err := ts.repo.Create(ctx, nil, created); err != nil {
		return fmt.Errorf("create topic: %w", err)
	}
	result.Created++
	return nil
}
