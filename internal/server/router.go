package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/trainstudio-backend/internal/handlers"
	"github.com/yungbote/trainstudio-backend/internal/middleware"
	"github.com/yungbote/trainstudio-backend/internal/types"
)

type RouterConfig struct {
	AuthHandler       *handlers.AuthHandler
	AuthMiddleware    *middleware.AuthMiddleware
	UserHandler       *handlers.UserHandler
	SessionHandler    *handlers.SessionHandler
	TopicHandler      *handlers.TopicHandler
	IncentiveHandler  *handlers.IncentiveHandler
	GenerationHandler *handlers.GenerationHandler
	StatsHandler      *handlers.StatsHandler
	CategoryHandler   *handlers.ReferenceHandler[types.Category]
	AudienceHandler   *handlers.ReferenceHandler[types.Audience]
	ToneHandler       *handlers.ReferenceHandler[types.Tone]
	TrainerHandler    *handlers.ReferenceHandler[types.Trainer]
	LocationHandler   *handlers.ReferenceHandler[types.Location]
	ServiceName       string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
		api.GET("/sessions/public/active", cfg.SessionHandler.PublicActive)
		api.GET("/incentives/public/active", cfg.IncentiveHandler.PublicActive)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// User
	protected.GET("/user", cfg.UserHandler.GetMe)
	// Stats
	protected.GET("/stats", cfg.StatsHandler.EntityCounts)
	// Sessions
	protected.POST("/sessions", cfg.SessionHandler.Create)
	protected.GET("/sessions", cfg.SessionHandler.List)
	protected.GET("/sessions/export", cfg.SessionHandler.Export)
	protected.POST("/sessions/import", cfg.SessionHandler.Import)
	protected.GET("/sessions/:id", cfg.SessionHandler.Get)
	protected.PATCH("/sessions/:id", cfg.SessionHandler.Patch)
	protected.DELETE("/sessions/:id", cfg.SessionHandler.Delete)
	protected.POST("/sessions/:id/publish", cfg.SessionHandler.Publish)
	protected.POST("/sessions/:id/unpublish", cfg.SessionHandler.Unpublish)
	protected.POST("/sessions/:id/clone", cfg.SessionHandler.Clone)
	protected.GET("/sessions/:id/qr", cfg.SessionHandler.QR)
	protected.POST("/sessions/:id/promo", cfg.GenerationHandler.GeneratePromo)
	// Topics
	protected.POST("/topics", cfg.TopicHandler.Create)
	protected.GET("/topics", cfg.TopicHandler.List)
	protected.GET("/topics/export", cfg.TopicHandler.Export)
	protected.POST("/topics/import", cfg.TopicHandler.Import)
	protected.GET("/topics/:id", cfg.TopicHandler.Get)
	protected.PATCH("/topics/:id", cfg.TopicHandler.Patch)
	protected.DELETE("/topics/:id", cfg.TopicHandler.Delete)
	protected.POST("/topics/:id/enhance", cfg.GenerationHandler.EnhanceTopic)
	// Incentives
	protected.POST("/incentives", cfg.IncentiveHandler.Create)
	protected.GET("/incentives", cfg.IncentiveHandler.List)
	protected.GET("/incentives/:id", cfg.IncentiveHandler.Get)
	protected.PATCH("/incentives/:id", cfg.IncentiveHandler.Patch)
	protected.DELETE("/incentives/:id", cfg.IncentiveHandler.Delete)
	protected.POST("/incentives/:id/publish", cfg.IncentiveHandler.Publish)
	protected.POST("/incentives/:id/unpublish", cfg.IncentiveHandler.Unpublish)
	protected.POST("/incentives/:id/clone", cfg.IncentiveHandler.Clone)
	// Generation
	protected.POST("/generate/outline", cfg.GenerationHandler.GenerateOutline)
	// Reference entities
	registerReference(protected, "categories", cfg.CategoryHandler)
	registerReference(protected, "audiences", cfg.AudienceHandler)
	registerReference(protected, "tones", cfg.ToneHandler)
	registerReference(protected, "trainers", cfg.TrainerHandler)
	registerReference(protected, "locations", cfg.LocationHandler)

	return router
}

func registerReference[T any](group *gin.RouterGroup, path string, h *handlers.ReferenceHandler[T]) {
	group.POST("/"+path, h.Create)
	group.GET("/"+path, h.List)
	group.GET("/"+path+"/:id", h.Get)
	group.PATCH("/"+path+"/:id", h.Patch)
	group.DELETE("/"+path+"/:id", h.Delete)
}
