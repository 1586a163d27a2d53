package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quizentia/quizentia-web/internal/config"
	"github.com/quizentia/quizentia-web/internal/handler"
	"github.com/quizentia/quizentia-web/internal/middleware"
	"github.com/quizentia/quizentia-web/internal/response"
	"github.com/quizentia/quizentia-web/internal/service"
	"github.com/quizentia/quizentia-web/internal/storage"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Setting *handler.SettingHandler
	Catalog *handler.CatalogHandler
	Quiz    *handler.QuizHandler
	Admin   *handler.AdminHandler
}

// Deps are the shared collaborators the middleware chain needs.
type Deps struct {
	Store        storage.Store
	AdminService *service.AdminService
	LoginLimiter *middleware.RateLimiter
	Log          zerolog.Logger
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, deps Deps, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// Listed origins may send the client cookie with credentials. With no
	// list every origin is allowed, but cross-origin callers then have to
	// pass X-Client-ID instead of the cookie.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID", middleware.ClientIDHeader}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 0. Public Group (No Client State) ─────────────────────────────
	publicAPI := router.Group("/api/v1/public")
	publicAPI.Use(middleware.CacheControl(300))
	{
		publicAPI.GET("/settings", handlers.Setting.GetPublicSettings)
	}

	// Everything below is per client.
	clientAPI := router.Group("/api/v1")
	clientAPI.Use(
		middleware.NoStore(),
		middleware.ClientIdentity(deps.Store, cfg.ClientCookieSecure),
	)

	// ─── 1. Quiz List ──────────────────────────────────────────────────
	quizzes := clientAPI.Group("/quizzes")
	{
		quizzes.GET("/weekly", handlers.Catalog.ListWeeks)
		quizzes.POST("/weekly/:week_id/select", handlers.Catalog.SelectWeek)
		quizzes.POST("/generate", handlers.Catalog.Generate)
	}

	// ─── 2. Quiz Session ───────────────────────────────────────────────
	session := clientAPI.Group("/quiz/session")
	{
		session.GET("", handlers.Quiz.GetSession)
		session.POST("", handlers.Quiz.StartSession)
		session.POST("/answer", handlers.Quiz.Answer)
		session.POST("/next", handlers.Quiz.Next)
		session.POST("/hint", handlers.Quiz.ToggleHint)
		session.POST("/restart", handlers.Quiz.Restart)
	}

	// ─── 3. Admin Auth (Rate Limited) ──────────────────────────────────
	adminAuth := clientAPI.Group("/admin")
	{
		adminAuth.POST("/login", deps.LoginLimiter.Middleware(), handlers.Admin.Login)
		adminAuth.POST("/logout", handlers.Admin.Logout)
		adminAuth.GET("/session", handlers.Admin.Session)
	}

	// ─── 4. Admin Management (Live Credential) ─────────────────────────
	adminAPI := clientAPI.Group("/admin")
	adminAPI.Use(middleware.RequireAdminSession(deps.AdminService, deps.Log))
	{
		adminAPI.GET("/weeks", handlers.Admin.ListWeeks)
		adminAPI.GET("/weeks/:week_id/quizzes", handlers.Admin.WeekQuizzes)
		adminAPI.GET("/weeks/:week_id/questions", handlers.Admin.WeekQuestions)

		adminAPI.DELETE("/quizzes/:quiz_id", handlers.Admin.DeleteQuiz)
		adminAPI.GET("/quizzes/:quiz_id/questions", handlers.Admin.QuizQuestions)
		adminAPI.PUT("/quizzes/:quiz_id/questions/:index", handlers.Admin.UpdateQuestion)
		adminAPI.DELETE("/quizzes/:quiz_id/questions/:index", handlers.Admin.DeleteQuestion)
	}

	return router
}
