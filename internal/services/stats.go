package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/repos"
)

// StatsService backs the periodic health-log job and the healthcheck
// endpoint's entity counts.
type StatsService interface {
	EntityCounts(ctx context.Context) (EntityCounts, error)
}

type EntityCounts struct {
	Sessions   int64 `json:"sessions"`
	Topics     int64 `json:"topics"`
	Incentives int64 `json:"incentives"`
}

type statsService struct {
	db            *gorm.DB
	log           *logger.Logger
	sessionRepo   repos.SessionRepo
	topicRepo     repos.TopicRepo
	incentiveRepo repos.IncentiveRepo
}

func NewStatsService(db *gorm.DB, baseLog *logger.Logger, sessionRepo repos.SessionRepo, topicRepo repos.TopicRepo, incentiveRepo repos.IncentiveRepo) StatsService {
	return &statsService{
		db:            db,
		log:           baseLog.With("service", "StatsService"),
		sessionRepo:   sessionRepo,
		topicRepo:     topicRepo,
		incentiveRepo: incentiveRepo,
	}
}

func (st *statsService) EntityCounts(ctx context.Context) (EntityCounts, error) {
	var counts EntityCounts
	var err error
	if counts.Sessions, err = st.sessionRepo.Count(ctx, nil); err != nil {
		return counts, fmt.Errorf("count sessions: %w", err)
	}
	if counts.Topics, err = st.topicRepo.Count(ctx, nil); err != nil {
		return counts, fmt.Errorf("count topics: %w", err)
	}
	if counts.Incentives, err = st.incentiveRepo.Count(ctx, nil); err != nil {
		return counts, fmt.Errorf("count incentives: %w", err)
	}
	return counts, nil
}
