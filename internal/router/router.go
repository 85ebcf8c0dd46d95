package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/paperdrill/paperdrill-backend/internal/config"
	"github.com/paperdrill/paperdrill-backend/internal/handler"
	"github.com/paperdrill/paperdrill-backend/internal/middleware"
	"github.com/paperdrill/paperdrill-backend/internal/response"
	"github.com/paperdrill/paperdrill-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Paper   *handler.PaperHandler
	Session *handler.SessionHandler
	Drill   *handler.DrillHandler
	Stats   *handler.StatsHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list; otherwise
	// allow all so dev works without extra config.
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

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	auth := router.Group("/api/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/register", handlers.Auth.Register)

		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	api := router.Group("/api")
	api.Use(middleware.RequireJWT(authService))
	{
		// Paper catalog
		api.GET("/papers", handlers.Paper.List)
		api.POST("/papers", handlers.Paper.Create)
		api.GET("/papers/:id", handlers.Paper.Get)
		api.PUT("/papers/:id", handlers.Paper.Update)
		api.DELETE("/papers/:id", handlers.Paper.Delete)
		api.GET("/papers/:id/questions", handlers.Paper.ListQuestions)
		api.POST("/papers/:id/questions", handlers.Paper.AddQuestion)

		// Paper sessions
		api.POST("/papers/sessions", handlers.Session.Start)
		api.PATCH("/papers/sessions", handlers.Session.Patch)
		api.GET("/papers/sessions", handlers.Session.Get)
		api.GET("/papers/sessions/active", handlers.Session.Active)
		api.GET("/papers/sessions/history", handlers.Session.History)

		// Drill items
		api.POST("/papers/drill-items", handlers.Drill.CreateBatch)
		api.GET("/drill-items/due", handlers.Drill.ListDue)
		api.POST("/drill-items/:id/grade", handlers.Drill.Grade)

		// Analytics
		api.GET("/stats/overview", handlers.Stats.Overview)
	}

	ws := router.Group("/ws")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/session/:session_id/stream", handlers.WS.SessionStream)
	}

	return router
}
