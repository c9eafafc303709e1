package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/talentscoutke/talentscout-backend/internal/config"
	"github.com/talentscoutke/talentscout-backend/internal/db"
	"github.com/talentscoutke/talentscout-backend/internal/handlers"
	"github.com/talentscoutke/talentscout-backend/internal/logger"
	"github.com/talentscoutke/talentscout-backend/internal/middleware"
	"github.com/talentscoutke/talentscout-backend/internal/observability"
	"github.com/talentscoutke/talentscout-backend/internal/repos"
	"github.com/talentscoutke/talentscout-backend/internal/server"
	"github.com/talentscoutke/talentscout-backend/internal/services"
	"github.com/talentscoutke/talentscout-backend/internal/utils"
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

	ctx := context.Background()

	// Tracing
	otelShutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "talentscout-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if otelShutdown != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelShutdown(shutdownCtx); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey, err := utils.MustGetEnv("JWT_SECRET_KEY")
	if err != nil {
		log.Fatal("JWT secret is required", "error", err)
	}

	// Config
	cfg, err := config.Load(utils.GetEnv("CONFIG_PATH", "", log))
	if err != nil {
		log.Fatal("Config load failed", "error", err)
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	videoRepo := repos.NewVideoRepo(thePG, log)
	analysisRepo := repos.NewAnalysisRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Fatal("Bucket init failed", "error", err)
	}
	mediaTools := services.NewMediaToolsService(log)
	scoringClient, err := services.NewGeminiClient(log, cfg.Scoring)
	if err != nil {
		log.Fatal("Scoring client init failed", "error", err)
	}
	leaderboardService := services.NewLeaderboardService(log, userRepo)
	intakeService := services.NewVideoIntakeService(
		thePG,
		log,
		userRepo,
		videoRepo,
		analysisRepo,
		bucketService,
		mediaTools,
		scoringClient,
		leaderboardService,
		cfg.Scoring,
	)
	intakeService.StartWorker(ctx)
	analysisReadService := services.NewAnalysisReadService(log, videoRepo, analysisRepo)
	recommendationService := services.NewRecommendationService(log, userRepo, analysisRepo, cfg.Scouting)
	authService := services.NewAuthService(log, jwtSecretKey)

	// Handlers
	log.Info("Setting up Handlers from main...")
	videoHandler := handlers.NewVideoHandler(log, intakeService, videoRepo)
	analysisHandler := handlers.NewAnalysisHandler(log, intakeService, analysisReadService)
	recommendationHandler := handlers.NewRecommendationHandler(log, recommendationService)
	leaderboardHandler := handlers.NewLeaderboardHandler(log, leaderboardService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		AuthMiddleware:        authMiddleware,
		VideoHandler:          videoHandler,
		AnalysisHandler:       analysisHandler,
		RecommendationHandler: recommendationHandler,
		LeaderboardHandler:    leaderboardHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
