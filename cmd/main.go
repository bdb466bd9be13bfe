package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/trainstudio-backend/internal/clock"
	"github.com/yungbote/trainstudio-backend/internal/db"
	"github.com/yungbote/trainstudio-backend/internal/handlers"
	"github.com/yungbote/trainstudio-backend/internal/logger"
	"github.com/yungbote/trainstudio-backend/internal/middleware"
	"github.com/yungbote/trainstudio-backend/internal/observability"
	"github.com/yungbote/trainstudio-backend/internal/repos"
	"github.com/yungbote/trainstudio-backend/internal/scheduler"
	"github.com/yungbote/trainstudio-backend/internal/server"
	"github.com/yungbote/trainstudio-backend/internal/services"
	"github.com/yungbote/trainstudio-backend/internal/types"
	"github.com/yungbote/trainstudio-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	variantTTLHours := utils.GetEnvAsInt("VARIANT_CACHE_TTL_HOURS", 24, log)
	serviceName := utils.GetEnv("SERVICE_NAME", "trainstudio-backend", log)

	// Tracing
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: logMode,
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(ctx); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Clock
	clk := clock.SystemClock{}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	topicRepo := repos.NewTopicRepo(thePG, log)
	sessionRepo := repos.NewSessionRepo(thePG, log)
	incentiveRepo := repos.NewIncentiveRepo(thePG, log)
	contentVersionRepo := repos.NewSessionContentVersionRepo(thePG, log)
	variantCacheRepo := repos.NewVariantCacheRepo(thePG, log)
	categoryRepo := repos.NewCategoryRepo(thePG, log)
	audienceRepo := repos.NewAudienceRepo(thePG, log)
	toneRepo := repos.NewToneRepo(thePG, log)
	trainerRepo := repos.NewTrainerRepo(thePG, log)
	locationRepo := repos.NewLocationRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	aiClient, err := services.NewAIClient(log)
	if err != nil {
		log.Error("Could not init AIClient", "error", err)
		os.Exit(1)
	}
	emailService, err := services.NewEmailService(log)
	if err != nil {
		log.Warn("Could not init EmailService", "error", err)
	}
	qrService := services.NewQRService(log)
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	topicService := services.NewTopicService(thePG, log, topicRepo, sessionRepo)
	sessionService := services.NewSessionService(thePG, log, sessionRepo, topicRepo, contentVersionRepo, clk)
	incentiveService := services.NewIncentiveService(thePG, log, incentiveRepo, userRepo, emailService, clk)
	variantCacheService := services.NewVariantCacheService(thePG, log, variantCacheRepo, clk)
	generationService := services.NewGenerationService(thePG, log, topicRepo, sessionRepo, variantCacheService, aiClient, time.Duration(variantTTLHours)*time.Hour)
	statsService := services.NewStatsService(thePG, log, sessionRepo, topicRepo, incentiveRepo)
	categoryService := services.NewReferenceService(thePG, log, "CategoryService", categoryRepo, func(r *types.Category, id uuid.UUID) { r.ID = id })
	audienceService := services.NewReferenceService(thePG, log, "AudienceService", audienceRepo, func(r *types.Audience, id uuid.UUID) { r.ID = id })
	toneService := services.NewReferenceService(thePG, log, "ToneService", toneRepo, func(r *types.Tone, id uuid.UUID) { r.ID = id })
	trainerService := services.NewReferenceService(thePG, log, "TrainerService", trainerRepo, func(r *types.Trainer, id uuid.UUID) { r.ID = id })
	locationService := services.NewReferenceService(thePG, log, "LocationService", locationRepo, func(r *types.Location, id uuid.UUID) { r.ID = id })

	// Scheduler
	log.Info("Setting up Scheduler from main...")
	sched := scheduler.New(log, clk)
	mustRegister := func(name string, interval time.Duration, fn scheduler.TaskFunc) {
		if err := sched.Register(name, interval, fn); err != nil {
			log.Error("Could not register task", "task", name, "error", err)
			os.Exit(1)
		}
	}
	mustRegister("expire_overdue_incentives", 24*time.Hour, func(ctx context.Context) error {
		report, err := incentiveService.ExpireOverdue(ctx)
		if err != nil {
			return err
		}
		log.Info("Incentive expiry sweep finished", "expired", report.Expired, "errors", len(report.Errors))
		return nil
	})
	mustRegister("expire_overdue_sessions", 24*time.Hour, func(ctx context.Context) error {
		report, err := sessionService.ExpireOverdue(ctx)
		if err != nil {
			return err
		}
		log.Info("Session expiry sweep finished", "expired", report.Expired, "errors", len(report.Errors))
		return nil
	})
	mustRegister("auto_publish_sessions", 4*time.Hour, func(ctx context.Context) error {
		candidates, err := sessionRepo.ListDraftWithReadinessAtLeast(ctx, nil, services.AutoPublishReadinessThreshold)
		if err != nil {
			return err
		}
		published := 0
		for _, candidate := range candidates {
			won, err := sessionService.AttemptAutomaticPublication(ctx, candidate.ID)
			if err != nil {
				log.Warn("Auto-publish attempt failed", "session_id", candidate.ID, "error", err)
				continue
			}
			if won {
				published++
			}
		}
		log.Info("Auto-publish sweep finished", "candidates", len(candidates), "published", published)
		return nil
	})
	mustRegister("purge_variant_cache", 12*time.Hour, func(ctx context.Context) error {
		purged, err := variantCacheService.PurgeExpired(ctx)
		if err != nil {
			return err
		}
		log.Info("Variant cache purge finished", "purged", purged)
		return nil
	})
	mustRegister("health_log", time.Hour, func(ctx context.Context) error {
		counts, err := statsService.EntityCounts(ctx)
		if err != nil {
			return err
		}
		log.Info("Health snapshot", "sessions", counts.Sessions, "topics", counts.Topics, "incentives", counts.Incentives)
		return nil
	})
	sched.Start(context.Background(), time.Minute)
	defer sched.Stop()

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	sessionHandler := handlers.NewSessionHandler(log, sessionService, qrService)
	topicHandler := handlers.NewTopicHandler(log, topicService)
	incentiveHandler := handlers.NewIncentiveHandler(log, incentiveService)
	generationHandler := handlers.NewGenerationHandler(log, generationService)
	statsHandler := handlers.NewStatsHandler(statsService)
	categoryHandler := handlers.NewReferenceHandler(categoryService, "category", "categories", mergeCategory)
	audienceHandler := handlers.NewReferenceHandler(audienceService, "audience", "audiences", mergeAudience)
	toneHandler := handlers.NewReferenceHandler(toneService, "tone", "tones", mergeTone)
	trainerHandler := handlers.NewReferenceHandler(trainerService, "trainer", "trainers", mergeTrainer)
	locationHandler := handlers.NewReferenceHandler(locationService, "location", "locations", mergeLocation)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:       authHandler,
		AuthMiddleware:    authMiddleware,
		UserHandler:       userHandler,
		SessionHandler:    sessionHandler,
		TopicHandler:      topicHandler,
		IncentiveHandler:  incentiveHandler,
		GenerationHandler: generationHandler,
		StatsHandler:      statsHandler,
		CategoryHandler:   categoryHandler,
		AudienceHandler:   audienceHandler,
		ToneHandler:       toneHandler,
		TrainerHandler:    trainerHandler,
		LocationHandler:   locationHandler,
		ServiceName:       serviceName,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func mergeCategory(dst, patch *types.Category) {
	if patch.Name != "" {
		dst.Name = patch.Name
	}
	if patch.Description != "" {
		dst.Description = patch.Description
	}
	dst.Active = patch.Active
}

func mergeAudience(dst, patch *types.Audience) {
	if patch.Name != "" {
		dst.Name = patch.Name
	}
	if patch.Description != "" {
		dst.Description = patch.Description
	}
	dst.Active = patch.Active
}

func mergeTone(dst, patch *types.Tone) {
	if patch.Name != "" {
		dst.Name = patch.Name
	}
	if patch.Description != "" {
		dst.Description = patch.Description
	}
	dst.Active = patch.Active
}

func mergeTrainer(dst, patch *types.Trainer) {
	if patch.Name != "" {
		dst.Name = patch.Name
	}
	if patch.Email != "" {
		dst.Email = patch.Email
	}
	if patch.Bio != "" {
		dst.Bio = patch.Bio
	}
	if patch.Expertise != "" {
		dst.Expertise = patch.Expertise
	}
	dst.Active = patch.Active
}

func mergeLocation(dst, patch *types.Location) {
	if patch.Name != "" {
		dst.Name = patch.Name
	}
	if patch.Address != "" {
		dst.Address = patch.Address
	}
	if patch.Capacity != 0 {
		dst.Capacity = patch.Capacity
	}
	if patch.MeetingURL != "" {
		dst.MeetingURL = patch.MeetingURL
	}
	dst.Virtual = patch.Virtual
}
