package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/pricelens/backend/config"
	"github.com/pricelens/backend/internal/domain"
)

// SetupRouter creates and configures the Gin router.
// limiters may be nil, which disables per-client rate limiting.
func SetupRouter(cfg *config.Config, handler *Handler, limiters domain.CacheRepository[*rate.Limiter]) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := RateLimitMiddleware(limiters, cfg.RateLimit.PerIP, cfg.RateLimit.IdleTTL)

	// API v1 routes
	v1 := router.Group("/api/v1", limited)
	{
		price := v1.Group("/price")
		{
			price.POST("/predict", handler.PredictPrice)
		}
	}

	// Path served by the first release of the service
	router.POST("/predict_price/", limited, handler.PredictPrice)

	return router
}
