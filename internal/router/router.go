package router

import (
	"net/http"
	"time"

	"github.com/caredemy/certpath-backend/internal/config"
	"github.com/caredemy/certpath-backend/internal/handler"
	"github.com/caredemy/certpath-backend/internal/middleware"
	"github.com/caredemy/certpath-backend/internal/response"
	"github.com/caredemy/certpath-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Access      *handler.AccessHandler
	Assessment  *handler.AssessmentHandler
	Exam        *handler.ExamHandler
	Progress    *handler.ProgressHandler
	Certificate *handler.CertificateHandler
	Stream      *handler.StreamHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	tokenService *service.TokenService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Auth) ─────────────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	{
		publicAPI.GET("/certificates/verify/:code", handlers.Certificate.VerifyCertificate)
	}

	// Rate limiter for session starts (10 requests per minute per IP).
	// Session creation is the only endpoint with a write amplification
	// worth throttling; everything else is already gated by progress.
	startLimiter := middleware.NewRateLimiter(10, time.Minute)

	// ─── 1. Authenticated API Group ────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireIdentity(tokenService))
	{
		// Gating checks (read-only)
		api.GET("/access/lessons/:lesson_id", handlers.Access.CheckLessonAccess)
		api.GET("/access/chapter-tests/:chapter_id", handlers.Access.CheckChapterTestAccess)
		api.GET("/courses/:course_id/access/final-exam", handlers.Access.CheckFinalExamAccess)

		// Lessons and quizzes
		api.POST("/lessons/:lesson_id/complete", handlers.Progress.CompleteLesson)
		api.POST("/lessons/:lesson_id/quiz/submit", handlers.Progress.SubmitQuiz)

		// Chapter tests
		api.POST("/chapters/:chapter_id/test/start", startLimiter.Middleware(), handlers.Assessment.StartChapterTest)
		api.POST("/chapters/:chapter_id/test/submit", handlers.Assessment.SubmitChapterTest)
		api.POST("/chapters/:chapter_id/test/abandon", handlers.Assessment.AbandonChapterTest)

		// Final exam
		api.POST("/courses/:course_id/exam/start", startLimiter.Middleware(), handlers.Exam.StartFinalExam)
		api.POST("/courses/:course_id/submit-exam", handlers.Exam.SubmitFinalExam)

		// Progress
		api.GET("/courses/:course_id/detailed-progress", handlers.Progress.GetDetailedProgress)

		// Certificates
		api.GET("/certificates", handlers.Certificate.ListCertificates)
	}

	// ─── 2. WebSocket Group (Token via Query Param) ────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireIdentityWS(tokenService))
	{
		ws.GET("/sessions/:session_id/stream", handlers.Stream.SessionStream)
	}

	return router
}
