package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/talentscoutke/talentscout-backend/internal/handlers"
	"github.com/talentscoutke/talentscout-backend/internal/middleware"
	"github.com/talentscoutke/talentscout-backend/internal/types"
)

type RouterConfig struct {
	AuthMiddleware        *middleware.AuthMiddleware
	VideoHandler          *handlers.VideoHandler
	AnalysisHandler       *handlers.AnalysisHandler
	RecommendationHandler *handlers.RecommendationHandler
	LeaderboardHandler    *handlers.LeaderboardHandler
	AllowOrigins          []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("talentscout-backend"))

	allowOrigins := cfg.AllowOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	router.GET("/leaderboard", cfg.LeaderboardHandler.Top)

	// Protected
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Player
	protected.POST("/videos", cfg.VideoHandler.Upload)
	protected.POST("/videos/:id/view", cfg.VideoHandler.RecordView)
	protected.POST("/analyses", cfg.AnalysisHandler.Analyze)
	protected.GET("/analyses/latest", cfg.AnalysisHandler.Latest)
	// Scout
	scouts := protected.Group("/scouts")
	scouts.Use(cfg.AuthMiddleware.RequireRole(types.RoleScout))
	scouts.GET("/recommendations", cfg.RecommendationHandler.Recommendations)

	return router
}
