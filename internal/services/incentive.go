package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/clock"
	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/policy"
	"github.com/yungbote/trainstudio-backend/internal/repos"
	"github.com/yungbote/trainstudio-backend/internal/requestdata"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type IncentiveService interface {
	Create(ctx context.Context, incentive *types.Incentive) (*types.Incentive, error)
	GetByID(ctx context.Context, id uuid.UUID) (*types.Incentive, error)
	List(ctx context.Context) ([]*types.Incentive, error)
	Update(ctx context.Context, id uuid.UUID, patch IncentivePatch) (*types.Incentive, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Publish(ctx context.Context, id uuid.UUID) (*types.Incentive, error)
	Unpublish(ctx context.Context, id uuid.UUID) (*types.Incentive, error)
	Clone(ctx context.Context, id uuid.UUID) (*types.Incentive, error)
	ExpireOverdue(ctx context.Context) (ExpireReport, error)
	GetActive(ctx context.Context) ([]*types.Incentive, error)
}

// IncentivePatch carries partial updates; nil means "leave unchanged".
type IncentivePatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Rules       *string    `json:"rules,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type incentiveService struct {
	db    *gorm.DB
	log   *logger.Logger
	repo  repos.IncentiveRepo
	email EmailService
	users repos.UserRepo
	clock clock.Clock
}

func NewIncentiveService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repo repos.IncentiveRepo,
	userRepo repos.UserRepo,
	email EmailService,
	clk clock.Clock,
) IncentiveService {
	return &incentiveService{
		db:    db,
		log:   baseLog.With("service", "IncentiveService"),
		repo:  repo,
		users: userRepo,
		email: email,
		clock: clk,
	}
}

func actorFromContext(ctx context.Context) (policy.Actor, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return policy.Actor{}, fmt.Errorf("%w: not authenticated", ErrForbidden)
	}
	return policy.Actor{ID: rd.UserID.String(), Role: rd.Role}, nil
}

func (is *incentiveService) Create(ctx context.Context, incentive *types.Incentive) (*types.Incentive, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if incentive == nil || incentive.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if incentive.StartDate != nil && incentive.EndDate != nil && incentive.EndDate.Before(*incentive.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	incentive.ID = uuid.New()
	incentive.AuthorID = uuid.MustParse(actor.ID)
	incentive.Status = types.IncentiveStatusDraft
	incentive.PublishedAt = nil
	if _, err := is.repo.Create(ctx, nil, incentive); err != nil {
		return nil, fmt.Errorf("create incentive: %w", err)
	}
	return incentive, nil
}

func (is *incentiveService) GetByID(ctx context.Context, id uuid.UUID) (*types.Incentive, error) {
	incentive, err := is.repo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("load incentive: %w", err)
	}
	if incentive == nil {
		return nil, fmt.Errorf("%w: incentive", ErrNotFound)
	}
	return incentive, nil
}

func (is *incentiveService) List(ctx context.Context) ([]*types.Incentive, error) {
	incentives, err := is.repo.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list incentives: %w", err)
	}
	return incentives, nil
}

func (is *incentiveService) Update(ctx context.Context, id uuid.UUID, patch IncentivePatch) (*types.Incentive, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	incentive, err := is.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Allow(actor, incentive, policy.ActionEdit) {
		return nil, fmt.Errorf("%w: not the incentive author", ErrForbidden)
	}
	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		incentive.Title = *patch.Title
	}
	if patch.Description != nil {
		incentive.Description = *patch.Description
	}
	if patch.Rules != nil {
		incentive.Rules = *patch.Rules
	}
	if patch.StartDate != nil {
		incentive.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		incentive.EndDate = patch.EndDate
	}
	if incentive.StartDate != nil && incentive.EndDate != nil && incentive.EndDate.Before(*incentive.StartDate) {
		return nil, fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	if err := is.repo.Save(ctx, nil, incentive); err != nil {
		return nil, fmt.Errorf("save incentive: %w", err)
	}
	return incentive, nil
}

func (is *incentiveService) Delete(ctx context.Context, id uuid.UUID) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	incentive, err := is.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !policy.Allow(actor, incentive, policy.ActionDelete) {
		return fmt.Errorf("%w: not the incentive author", ErrForbidden)
	}
	return is.repo.Delete(ctx, nil, id)
}

// publishPreconditions reports why an incentive cannot be published, or
// nil when it can.
func (is *incentiveService) publishPreconditions(incentive *types.Incentive) error {
	if incentive.Status != types.IncentiveStatusDraft {
		return fmt.Errorf("%w: cannot publish from status %q", ErrInvalidState, incentive.Status)
	}
	if incentive.Description == "" {
		return fmt.Errorf("%w: missing description", ErrInvalidState)
	}
	if incentive.Rules == "" {
		return fmt.Errorf("%w: missing rules", ErrInvalidState)
	}
	if incentive.EndDate == nil || !incentive.EndDate.After(is.clock.Now()) {
		return fmt.Errorf("%w: end date is not in the future", ErrInvalidState)
	}
	return nil
}

func (is *incentiveService) Publish(ctx context.Context, id uuid.UUID) (*types.Incentive, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	incentive, err := is.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Allow(actor, incentive, policy.ActionPublish) {
		return nil, fmt.Errorf("%w: not the incentive author", ErrForbidden)
	}
	if err := is.publishPreconditions(incentive); err != nil {
		return nil, err
	}
	now := is.clock.Now()
	won, err := is.repo.UpdateStatusIf(ctx, nil, id, types.IncentiveStatusDraft, types.IncentiveStatusPublished, map[string]any{
		"published_at": now,
		"updated_at":   now,
	})
	if err != nil {
		return nil, fmt.Errorf("publish incentive: %w", err)
	}
	if !won {
		return nil, fmt.Errorf("%w: incentive is no longer in draft", ErrInvalidState)
	}
	incentive.Status = types.IncentiveStatusPublished
	incentive.PublishedAt = &now
	is.notifyPublished(ctx, incentive)
	return incentive, nil
}

func (is *incentiveService) Unpublish(ctx context.Context, id uuid.UUID) (*types.Incentive, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	incentive, err := is.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Allow(actor, incentive, policy.ActionUnpublish) {
		return nil, fmt.Errorf("%w: not the incentive author", ErrForbidden)
	}
	if incentive.Status != types.IncentiveStatusPublished {
		return nil, fmt.Errorf("%w: only published incentives can be unpublished", ErrInvalidState)
	}
	now := is.clock.Now()
	won, err := is.repo.UpdateStatusIf(ctx, nil, id, types.IncentiveStatusPublished, types.IncentiveStatusDraft, map[string]any{
		"published_at": nil,
		"updated_at":   now,
	})
	if err != nil {
		return nil, fmt.Errorf("unpublish incentive: %w", err)
	}
	if !won {
		return nil, fmt.Errorf("%w: incentive is no longer published", ErrInvalidState)
	}
	incentive.Status = types.IncentiveStatusDraft
	incentive.PublishedAt = nil
	return incentive, nil
}

func (is *incentiveService) Clone(ctx context.Context, id uuid.UUID) (*types.Incentive, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	source, err := is.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !policy.Allow(actor, source, policy.ActionClone) {
		return nil, fmt.Errorf("%w: cannot clone this incentive", ErrForbidden)
	}
	copyRecord := &types.Incentive{
		ID:          uuid.New(),
		AuthorID:    uuid.MustParse(actor.ID),
		Title:       source.Title + " (Copy)",
		Description: source.Description,
		Rules:       source.Rules,
		AIContent:   source.AIContent,
		Status:      types.IncentiveStatusDraft,
		StartDate:   source.StartDate,
		EndDate:     source.EndDate,
	}
	if _, err := is.repo.Create(ctx, nil, copyRecord); err != nil {
		return nil, fmt.Errorf("clone incentive: %w", err)
	}
	return copyRecord, nil
}

func (is *incentiveService) ExpireOverdue(ctx context.Context) (ExpireReport, error) {
	report := ExpireReport{Errors: []string{}}
	overdue, err := is.repo.ListPublishedEndedBefore(ctx, nil, is.clock.Now())
	if err != nil {
		return report, fmt.Errorf("list overdue incentives: %w", err)
	}
	for _, incentive := range overdue {
		won, err := is.repo.UpdateStatusIf(ctx, nil, incentive.ID, types.IncentiveStatusPublished, types.IncentiveStatusExpired, map[string]any{
			"updated_at": is.clock.Now(),
		})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", incentive.ID, err))
			continue
		}
		if won {
			report.Expired++
		}
	}
	return report, nil
}

func (is *incentiveService) GetActive(ctx context.Context) ([]*types.Incentive, error) {
	incentives, err := is.repo.ListActive(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list active incentives: %w", err)
	}
	return incentives, nil
}

func (is *incentiveService) notifyPublished(ctx context.Context, incentive *types.Incentive) {
	if is.email == nil || is.users == nil {
		return
	}
	author, err := is.users.GetByID(ctx, nil, incentive.AuthorID)
	if err != nil || author == nil {
		return
	}
	result := is.email.Queue(ctx, EmailMessage{
		To:      author.Email,
		Subject: fmt.Sprintf("Incentive published: %s", incentive.Title),
		Body:    fmt.Sprintf("Your incentive %q is now live.", incentive.Title),
	})
	if !result.Success {
		is.log.Warn("Publish notification not queued", "error", result.Error, "incentive_id", incentive.ID)
	}
}
