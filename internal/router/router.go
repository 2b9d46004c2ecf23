package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/handler"
	"github.com/stemsi/exstem-practice/internal/middleware"
	"github.com/stemsi/exstem-practice/internal/response"
	"github.com/stemsi/exstem-practice/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Practice *handler.PracticeHandler
	WS       *handler.WSHandler
	Monitor  *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter may be nil to disable rate limiting.
func SetupRouter(
	auth middleware.TokenValidator,
	handlers *Handlers,
	limiter *middleware.RateLimiter,
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
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.Brotli())

	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Practice Group (JWT + Rate Limit) ──────────────────────────
	practiceAPI := router.Group("/api/v1/practice")
	practiceAPI.Use(middleware.RequireJWT(auth))
	if limiter != nil {
		practiceAPI.Use(limiter.Middleware())
	}
	{
		practiceAPI.GET("/categories", middleware.CacheControl(60), handlers.Practice.ListCategories)
		practiceAPI.GET("/history", middleware.NoStore(), handlers.Practice.ListHistory)
		practiceAPI.POST("/sessions", handlers.Practice.StartSession)

		session := practiceAPI.Group("/session")
		session.Use(middleware.NoStore())
		{
			session.GET("", handlers.Practice.GetSession)
			session.DELETE("", handlers.Practice.DiscardSession)
			session.GET("/pending", handlers.Practice.GetPending)
			session.POST("/actions", handlers.Practice.Dispatch)
			session.GET("/result", handlers.Practice.GetResult)
			session.GET("/review", handlers.Practice.GetReview)
		}

		if handlers.Monitor != nil {
			monitor := practiceAPI.Group("/monitor")
			monitor.Use(middleware.RequireTokenType(service.TokenTypeAdmin), middleware.NoStore())
			{
				monitor.GET("", handlers.Monitor.Snapshot)
				monitor.GET("/stream", handlers.Monitor.Stream)
			}
		}
	}

	// ─── 2. WebSocket Group (query token auth) ─────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireJWT(auth))
	{
		ws.GET("/practice/stream", handlers.WS.PracticeStream)
	}

	return router
}
