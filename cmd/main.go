package main

import (
	"context"
	"fmt"
	"os"

	httpserver "github.com/codingswamp/codingswamp-backend/internal/http"
	"github.com/codingswamp/codingswamp-backend/internal/http/handlers"
	"github.com/codingswamp/codingswamp-backend/internal/http/middleware"

	"github.com/codingswamp/codingswamp-backend/internal/data/db"
	memberrepo "github.com/codingswamp/codingswamp-backend/internal/data/repos/member"
	studyrepo "github.com/codingswamp/codingswamp-backend/internal/data/repos/study"
	"github.com/codingswamp/codingswamp-backend/internal/platform/envutil"
	"github.com/codingswamp/codingswamp-backend/internal/platform/github"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
	"github.com/codingswamp/codingswamp-backend/internal/platform/sendgrid"
	"github.com/codingswamp/codingswamp-backend/internal/scheduler"
	"github.com/codingswamp/codingswamp-backend/internal/services"
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
	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	accessTokenTTL := envutil.Seconds("ACCESS_TOKEN_TTL", 3600)
	recomputeHour := envutil.Int("STATUS_RECOMPUTE_HOUR", 0)
	port := envutil.String("PORT", "8080")

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

	// Repos
	log.Info("Setting up Repos from main...")
	memberRepo := memberrepo.NewMemberRepo(thePG, log)
	studyRepo := studyrepo.NewStudyRepo(thePG, log)
	reviewRepo := studyrepo.NewReviewRepo(thePG, log)

	// External clients
	githubClient, err := github.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init GitHub client", "error", err)
		os.Exit(1)
	}
	mailClient, err := sendgrid.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init SendGrid client", "error", err)
		os.Exit(1)
	}

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := services.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService", "error", err)
	}
	fileService := services.NewFileService(log, bucketService)
	tokenService := services.NewTokenService(log, jwtSecretKey, accessTokenTTL)
	mailService := services.NewMailVerificationService(log, mailClient)
	memberService := services.NewMemberService(thePG, log, memberRepo, fileService, githubClient)
	studyService := services.NewStudyService(thePG, log, studyRepo, memberRepo)
	reviewService := services.NewReviewService(thePG, log, studyRepo, reviewRepo, memberRepo)

	// Scheduler
	recomputer := scheduler.NewStatusRecomputer(log, studyService, recomputeHour)
	recomputer.Start(context.Background())
	defer recomputer.Stop()

	// Handlers
	log.Info("Setting up Handlers from main...")
	authHandler := handlers.NewAuthHandler(memberService, tokenService, mailService)
	memberHandler := handlers.NewMemberHandler(memberService)
	studyHandler := handlers.NewStudyHandler(studyService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	healthHandler := handlers.NewHealthHandler()

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, tokenService)

	// Server
	server := httpserver.NewServer(httpserver.RouterConfig{
		Log:            log,
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		MemberHandler:  memberHandler,
		StudyHandler:   studyHandler,
		ReviewHandler:  reviewHandler,
		HealthHandler:  healthHandler,
	})

	log.Info("Starting HTTP server", "port", port)
	if err := server.Run(":" + port); err != nil {
		log.Error("HTTP server exited", "error", err)
		os.Exit(1)
	}
}
