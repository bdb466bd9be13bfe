package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/clock"
	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/policy"
	"github.com/yungbote/trainstudio-backend/internal/repos"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

// AutoPublishReadinessThreshold gates scheduler-initiated publication.
const AutoPublishReadinessThreshold = 80

type SessionService interface {
	Create(ctx context.Context, session *types.Session) (*types.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Session, error)
	List(ctx context.Context) ([]*types.Session, error)
	Update(ctx context.Context, id uuid.UUID, patch SessionPatch) (*types.Session, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Publish(ctx context.Context, id uuid.UUID) (*types.Session, error)
	Unpublish(ctx context.Context, id uuid.UUID) (*types.Session, error)
	Clone(ctx context.Context, id uuid.UUID) (*types.Session, error)
	ExpireOverdue(ctx context.Context) (ExpireReport, error)
	GetActive(ctx context.Context) ([]*types.Session, error)
	// AttemptAutomaticPublication applies the publish preconditions as a
	// readiness probe: false means "not ready", never an InvalidState error.
	AttemptAutomaticPublication(ctx context.Context, id uuid.UUID) (bool, error)
	Export(ctx context.Context) ([]SessionExportRecord, error)
	Import(ctx context.Context, records []SessionImportRecord) (BulkResult, error)
}

type SessionPatch struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	Rules          *string    `json:"rules,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	ReadinessScore *int       `json:"readiness_score,omitempty"`
	TopicID        *uuid.UUID `json:"topic_id,omitempty"`
	AudienceID     *uuid.UUID `json:"audience_id,omitempty"`
	ToneID         *uuid.UUID `json:"tone_id,omitempty"`
	CategoryID     *uuid.UUID `json:"category_id,omitempty"`
	TrainerID      *uuid.UUID `json:"trainer_id,omitempty"`
	LocationID     *uuid.UUID `json:"location_id,omitempty"`
}

type ContentVersionSummary struct {
	Version   int       `json:"version"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionExportRecord struct {
	ID             uuid.UUID              `json:"id"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Rules          string                 `json:"rules"`
	Status         string                 `json:"status"`
	StartTime      *time.Time             `json:"start_time,omitempty"`
	EndTime        *time.Time             `json:"end_time,omitempty"`
	ReadinessScore int                    `json:"readiness_score"`
	TopicName      string                 `json:"topic_name,omitempty"`
	PublishedAt    *time.Time             `json:"published_at,omitempty"`
	LatestVersion  *ContentVersionSummary `json:"latest_version,omitempty"`
}

type SessionImportRecord struct {
	ID             *uuid.UUID `json:"id,omitempty"`
	Title          string     `json:"title"`
	Description    *string    `json:"description,omitempty"`
	Rules          *string    `json:"rules,omitempty"`
	Status         *string    `json:"status,omitempty"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	ReadinessScore *int       `json:"readiness_score,omitempty"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
}

type sessionService struct {
	db        *gorm.DB
	log       *logger.Logger
	repo      repos.SessionRepo
	topicRepo repos.TopicRepo
	versions  repos.SessionContentVersionRepo
	clock     clock.Clock
}

func NewSessionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.SessionRepo,
	topicRepo repos.TopicRepo,
	versions repos.SessionContentVersionRepo,
	clk clock.Clock,
) SessionService {
	return &sessionService{
		db:        db,
		log:       baseLog.With("service", "SessionService"),
		repo:      repo,
		topicRepo: topicRepo,
		versions:  versions,
		clock:     clk,
	}
}

func validateSessionWindow(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: end time before start time", ErrValidation)
	}
	return nil
}

func validateReadiness(score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("%w: readiness score %d outside [0,100]", ErrValidation, score)
	}
	return nil
}

func (ss *sessionService) Create(ctx context.Context, session *types.Session) (*types.Session, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if err := validateSessionWindow(session.StartTime, session.EndTime); err != nil {
		return nil, err
	}
	if err := validateReadiness(session.ReadinessScore); err != nil {
		return nil, err
	}
	session.ID = uuid.New()
	session.AuthorID = uuid.MustParse(actor.ID)
	session.Status = types.SessionStatusDraft
	session.PublishedAt = nil

	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.repo.Create(ctx, tx, session); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return ss.snapshotContent(ctx, tx, session, session.AuthorID)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (ss *sessionService) snapshotContent(ctx context.Context, tx *gorm.DB, session *types.Session, by uuid.UUID) error {
	next, err := ss.versions.NextVersionNumber(ctx, tx, session.ID)
	if err != nil {
		return fmt.Errorf("next content version: %w", err)
	}
	_, err = ss.versions.Create(ctx, tx, &types.SessionContentVersion{
		ID:          uuid.New(),
		SessionID:   session.ID,
		Version:     next,
		Title:       session.Title,
		Description: session.Description,
		Rules:       session.Rules,
		CreatedBy:   by,
		CreatedAt:   ss.clock.Now(),
	})
	if err != nil {
		return fmt.Errorf("snapshot content version: %w", err)
	}
	return nil
}

func (ss *sessionService) GetByID(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	session, err := ss.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session", ErrNotFound)
	}
	return session, nil
}

func (ss *sessionService) List(ctx context.Context) ([]*types.Session, error) {
	sessions, err := ss.repo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (ss *sessionService) Update(ctx context.Context, id uuid.UUID, patch SessionPatch) (*types.Session, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	session, err := ss.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Allow(actor, session, policy.ActionEdit) {
		return nil, fmt.Errorf("%w: not the session author", ErrForbidden)
	}

	contentChanged := false
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		session.Title = *patch.Title
		contentChanged = true
	}
	if patch.Description != nil {
		session.Description = *patch.Description
		contentChanged = true
	}
	if patch.Rules != nil {
		session.Rules = *patch.Rules
		contentChanged = true
	}
	if patch.StartTime != nil {
		session.StartTime = patch.StartTime
	}
	if patch.EndTime != nil {
		session.EndTime = patch.EndTime
	}
	if patch.ReadinessScore != nil {
		if err := validateReadiness(*patch.ReadinessScore); err != nil {
			return nil, err
		}
		session.ReadinessScore = *patch.ReadinessScore
	}
	if patch.TopicID != nil {
		session.TopicID = patch.TopicID
	}
	if patch.AudienceID != nil {
		session.AudienceID = patch.AudienceID
	}
	if patch.ToneID != nil {
		session.ToneID = patch.ToneID
	}
	if patch.CategoryID != nil {
		session.CategoryID = patch.CategoryID
	}
	if patch.TrainerID != nil {
		session.TrainerID = patch.TrainerID
	}
	if patch.LocationID != nil {
		session.LocationID = patch.LocationID
	}
	if err := validateSessionWindow(session.StartTime, session.EndTime); err != nil {
		return nil, err
	}

	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ss.repo.Save(ctx, tx, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
		if contentChanged {
			return ss.snapshotContent(ctx, tx, session, uuid.MustParse(actor.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (ss *sessionService) Delete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	session, err := ss.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Allow(actor, session, policy.ActionDelete) {
		return fmt.Errorf("%w: not the session author", ErrForbidden)
	}
	return ss.repo.Delete(ctx, nil, id)
}

func (ss *sessionService) publishPreconditions(session *types.Session) error {
	if session.Status != types.SessionStatusDraft {
		return fmt.Errorf("%w: cannot publish from status %q", ErrInvalidState, session.Status)
	}
	if session.Title == "" {
		return fmt.Errorf("%w: missing title", ErrInvalidState)
	}
	if session.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidState)
	}
	if session.Rules == "" {
		return fmt.Errorf("%w: missing rules", ErrInvalidState)
	}
	if session.EndTime != nil && !session.EndTime.After(ss.clock.Now()) {
		return fmt.Errorf("%w: session already ended", ErrInvalidState)
	}
	return nil
}

func (ss *sessionService) Publish(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	session, err := ss.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Allow(actor, session, policy.ActionPublish) {
		return nil, fmt.Errorf("%w: not the session author", ErrForbidden)
	}
	if err := ss.publishPreconditions(session); err != nil {
		return nil, err
	}
	now := ss.clock.Now()
	won, err := ss.repo.UpdateStatusIf(ctx, nil, id, types.SessionStatusDraft, types.SessionStatusPublished, map[string]any{
		"published_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return nil, fmt.Errorf("publish session: %w", err)
	}
	if !won {
		return nil, fmt.Errorf("%w: session is no longer in draft", ErrInvalidState)
	}
	session.Status = types.SessionStatusPublished
	session.PublishedAt = &now
	return session, nil
}

func (ss *sessionService) Unpublish(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	session, err := ss.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Allow(actor, session, policy.ActionUnpublish) {
		return nil, fmt.Errorf("%w: not the session author", ErrForbidden)
	}
	if session.Status != types.SessionStatusPublished {
		return nil, fmt.Errorf("%w: only published sessions can be unpublished", ErrInvalidState)
	}
	won, err := ss.repo.UpdateStatusIf(ctx, nil, id, types.SessionStatusPublished, types.SessionStatusDraft, map[string]any{
		"published_at": nil,
		"updated_at":   ss.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("unpublish session: %w", err)
	}
	if !won {
		return nil, fmt.Errorf("%w: session is no longer published", ErrInvalidState)
	}
	session.Status = types.SessionStatusDraft
	session.PublishedAt = nil
	return session, nil
}

func (ss *sessionService) Clone(ctx context.Context, id uuid.UUID) (*types.Session, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	source, err := ss.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Allow(actor, source, policy.ActionClone) {
		return nil, fmt.Errorf("%w: cannot clone this session", ErrForbidden)
	}
	actorID := uuid.MustParse(actor.ID)
	copyRecord := &types.Session{
		ID:             uuid.New(),
		AuthorID:       actorID,
		Title:          source.Title + " (Copy)",
		Description:    source.Description,
		Rules:          source.Rules,
		Status:         types.SessionStatusDraft,
		StartTime:      source.StartTime,
		EndTime:        source.EndTime,
		ReadinessScore: source.ReadinessScore,
		TopicID:        source.TopicID,
		AudienceID:     source.AudienceID,
		ToneID:         source.ToneID,
		CategoryID:     source.CategoryID,
		TrainerID:      source.TrainerID,
		LocationID:     source.LocationID,
		PromoHeadline:  source.PromoHeadline,
		PromoBlurb:     source.PromoBlurb,
		SocialPost:     source.SocialPost,
		OutlineDraft:   source.OutlineDraft,
	}
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.repo.Create(ctx, tx, copyRecord); err != nil {
			return fmt.Errorf("clone session: %w", err)
		}
		return ss.snapshotContent(ctx, tx, copyRecord, actorID)
	})
	if err != nil {
		return nil, err
	}
	return copyRecord, nil
}

// ExpireOverdue completes published sessions whose end time has passed.
// Completed is the session-side terminal state for an elapsed window.
func (ss *sessionService) ExpireOverdue(ctx context.Context) (ExpireReport, error) {
	report := ExpireReport{Errors: []string{}}
	overdue, err := ss.repo.ListPublishedEndingBefore(ctx, nil, ss.clock.Now())
	if err != nil {
		return report, fmt.Errorf("list overdue sessions: %w", err)
	}
	for _, session := range overdue {
		won, err := ss.repo.UpdateStatusIf(ctx, nil, session.ID, types.SessionStatusPublished, types.SessionStatusCompleted, map[string]any{
			"updated_at": ss.clock.Now(),
		})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", session.ID, err))
			continue
		}
		if won {
			report.Expired++
		}
	}
	return report, nil
}

func (ss *sessionService) GetActive(ctx context.Context) ([]*types.Session, error) {
	sessions, err := ss.repo.ListActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list active sessions: %w", err)
	}
	return sessions, nil
}

func (ss *sessionService) AttemptAutomaticPublication(ctx context.Context, id uuid.UUID) (bool, error) {
	session, err := ss.repo.GetByID(ctx, nil, id)
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return false, nil
	}
	if session.ReadinessScore < AutoPublishReadinessThreshold {
		return false, nil
	}
	if err := ss.publishPreconditions(session); err != nil {
		return false, nil
	}
	now := ss.clock.Now()
	won, err := ss.repo.UpdateStatusIf(ctx, nil, id, types.SessionStatusDraft, types.SessionStatusPublished, map[string]any{
		"published_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return false, fmt.Errorf("auto-publish session: %w", err)
	}
	return won, nil
}

func (ss *sessionService) Export(ctx context.Context) ([]SessionExportRecord, error) {
	sessions, err := ss.repo.ListOrderedByTitle(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	records := make([]SessionExportRecord, len(sessions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, session := range sessions {
		g.Go(func() error {
			record := SessionExportRecord{
				ID:             session.ID,
				Title:          session.Title,
				Description:    session.Description,
				Rules:          session.Rules,
				Status:         session.Status,
				StartTime:      session.StartTime,
				EndTime:        session.EndTime,
				ReadinessScore: session.ReadinessScore,
				PublishedAt:    session.PublishedAt,
			}
			if session.TopicID != nil {
				topic, err := ss.topicRepo.GetByID(gctx, nil, *session.TopicID)
				if err != nil {
					return fmt.Errorf("load topic for %s: %w", session.ID, err)
				}
				if topic != nil {
					record.TopicName = topic.Name
				}
			}
			latest, err := ss.versions.LatestBySessionID(gctx, nil, session.ID)
			if err != nil {
				return fmt.Errorf("load latest version for %s: %w", session.ID, err)
			}
			if latest != nil {
				record.LatestVersion = &ContentVersionSummary{
					Version:   latest.Version,
					Title:     latest.Title,
					CreatedAt: latest.CreatedAt,
				}
			}
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (ss *sessionService) Import(ctx context.Context, records []SessionImportRecord) (BulkResult, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return BulkResult{}, err
	}
	actorID := uuid.MustParse(actor.ID)
	result := BulkResult{Errors: []BulkError{}}

	for i, record := range records {
		if err := ss.importOne(ctx, actorID, record, &result); err != nil {
			result.Errors = append(result.Errors, BulkError{
				Index:      i,
				Identifier: record.Title,
				Message:    err.Error(),
			})
		}
	}
	return result, nil
}

func (ss *sessionService) importOne(ctx context.Context, actorID uuid.UUID, record SessionImportRecord, result *BulkResult) error {
	if record.ReadinessScore != nil {
		if err := validateReadiness(*record.ReadinessScore); err != nil {
			return err
		}
	}
	if record.Status != nil {
		switch *record.Status {
		case types.SessionStatusDraft, types.SessionStatusPublished, types.SessionStatusCompleted, types.SessionStatusCancelled:
		default:
			return fmt.Errorf("%w: unknown status %q", ErrValidation, *record.Status)
		}
	}

	// Reconcile: id match, then case-insensitive title match, then create.
	var existing *types.Session
	if record.ID != nil {
		found, err := ss.repo.GetByID(ctx, nil, *record.ID)
		if err != nil {
			return fmt.Errorf("lookup by id: %w", err)
		}
		existing = found
	}
	if existing == nil && record.Title != "" {
		found, err := ss.repo.GetByTitleInsensitive(ctx, nil, record.Title)
		if err != nil {
			return fmt.Errorf("lookup by title: %w", err)
		}
		existing = found
	}

	if existing != nil {
		contentChanged := false
		if record.Title != "" && record.Title != existing.Title {
			existing.Title = record.Title
			contentChanged = true
		}
		if record.Description != nil {
			existing.Description = *record.Description
			contentChanged = true
		}
		if record.Rules != nil {
			existing.Rules = *record.Rules
			contentChanged = true
		}
		if record.StartTime != nil {
			existing.StartTime = record.StartTime
		}
		if record.EndTime != nil {
			existing.EndTime = record.EndTime
		}
		if record.ReadinessScore != nil {
			existing.ReadinessScore = *record.ReadinessScore
		}
		if record.Status != nil {
			existing.Status = *record.Status
			if *record.Status == types.SessionStatusPublished {
				if record.PublishedAt != nil {
					existing.PublishedAt = record.PublishedAt
				} else if existing.PublishedAt == nil {
					now := ss.clock.Now()
					existing.PublishedAt = &now
				}
			}
		}
		if err := validateSessionWindow(existing.StartTime, existing.EndTime); err != nil {
			return err
		}
		err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := ss.repo.Save(ctx, tx, existing); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			if contentChanged {
				return ss.snapshotContent(ctx, tx, existing, actorID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result.Updated++
		return nil
	}

	if record.Title == "" {
		return fmt.Errorf("%w: title is required to create a session", ErrValidation)
	}
	created := &types.Session{
		ID:        uuid.New(),
		AuthorID:  actorID,
		Title:     record.Title,
		Status:    types.SessionStatusDraft,
		StartTime: record.StartTime,
		EndTime:   record.EndTime,
	}
	if record.Description != nil {
		created.Description = *record.Description
	}
	if record.Rules != nil {
		created.Rules = *record.Rules
	}
	if record.ReadinessScore != nil {
		created.ReadinessScore = *record.ReadinessScore
	}
	if record.Status != nil {
		created.Status = *record.Status
		if *record.Status == types.SessionStatusPublished {
			if record.PublishedAt != nil {
				created.PublishedAt = record.PublishedAt
			} else {
				now := ss.clock.Now()
				created.PublishedAt = &now
			}
		}
	}
	if err := validateSessionWindow(created.StartTime, created.EndTime); err != nil {
		return err
	}
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := ss.repo.Create(ctx, tx, created); err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return ss.snapshotContent(ctx, tx, created, actorID)
	})
	if err != nil {
		return err
	}
	result.Created++
	return nil
}
