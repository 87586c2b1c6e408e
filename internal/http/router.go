package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/codingswamp/codingswamp-backend/internal/http/handlers"
	httpMW "github.com/codingswamp/codingswamp-backend/internal/http/middleware"
	"github.com/codingswamp/codingswamp-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	MemberHandler  *httpH.MemberHandler
	StudyHandler   *httpH.StudyHandler
	ReviewHandler  *httpH.ReviewHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/signup", cfg.AuthHandler.Signup)
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/github/login", cfg.AuthHandler.GithubLogin)
			api.GET("/auth/duplicate-email", cfg.AuthHandler.DuplicateEmailCheck)
			api.POST("/auth/email/send-code", cfg.AuthHandler.SendVerificationMail)
			api.POST("/auth/email/verify", cfg.AuthHandler.VerifyMailCode)
		}

		// Study (public reads)
		if cfg.StudyHandler != nil {
			api.GET("/study", cfg.StudyHandler.List)
			api.GET("/study/search", cfg.StudyHandler.Search)
			api.GET("/study/:id", cfg.StudyHandler.Detail)
		}

		// Review (public reads)
		if cfg.ReviewHandler != nil {
			api.GET("/study/:id/review", cfg.ReviewHandler.ListByStudy)
		}
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Member (Me)
		if cfg.MemberHandler != nil {
			protected.GET("/member/me", cfg.MemberHandler.GetMe)
			protected.PUT("/member/me", cfg.MemberHandler.Edit)
			protected.DELETE("/member/me", cfg.MemberHandler.Delete)
		}

		// Study (mutations)
		if cfg.StudyHandler != nil {
			protected.POST("/study", cfg.StudyHandler.Create)
			protected.PUT("/study/:id", cfg.StudyHandler.Edit)
			protected.DELETE("/study/:id", cfg.StudyHandler.Delete)
			protected.POST("/study/:id/apply", cfg.StudyHandler.Apply)
			protected.DELETE("/study/:id/apply", cfg.StudyHandler.CancelApply)
			protected.PATCH("/study/:id/approve/:memberId", cfg.StudyHandler.Approve)
			protected.DELETE("/study/:id/withdraw", cfg.StudyHandler.Withdraw)
			protected.DELETE("/study/:id/kick/:memberId", cfg.StudyHandler.Kick)
			protected.GET("/study/my-applies", cfg.StudyHandler.MyApplies)
			protected.GET("/study/my-participates", cfg.StudyHandler.MyParticipates)
		}

		// Review
		if cfg.ReviewHandler != nil {
			protected.POST("/study/:id/review", cfg.ReviewHandler.Register)
		}
	}

	return r
}
