package api

import (
	"context"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"leadpdf/internal/config"
	"leadpdf/internal/constants"
	"leadpdf/internal/logger"
	"leadpdf/pkg/middleware"
	"leadpdf/pkg/ratelimit"
	"leadpdf/pkg/tracing"
)

type RouterDependencies struct {
	Config  *config.Config
	Handler *Handler
	Logger  logger.Logger
}

// NewRouter builds the engine. ctx bounds background work owned by the
// middleware, such as rate limiter eviction.
func NewRouter(ctx context.Context, deps RouterDependencies) *gin.Engine {
	router := gin.New()
	cfg := deps.Config

	if cfg.Tracing.Enabled {
		serviceName := cfg.Tracing.ServiceName
		if serviceName == "" {
			serviceName = constants.ServiceName
		}
		router.Use(tracing.GinMiddleware(serviceName))
		router.Use(tracing.TraceIDMiddleware())
	}

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RecoveryMiddleware(deps.Logger))
	router.Use(middleware.LoggerMiddleware(deps.Logger))
	router.Use(middleware.BodySizeLimit(constants.MaxRequestBodyBytes))

	corsConfig := gincors.Config{
		AllowOrigins:  cfg.CORS.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"*"}
	}
	router.Use(gincors.New(corsConfig))

	var sendMiddleware []gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		rateLimitConfig := ratelimit.RateLimitConfig{
			RPS:             cfg.RateLimit.RPS,
			Burst:           cfg.RateLimit.Burst,
			CleanupInterval: time.Duration(cfg.RateLimit.CleanupInterval) * time.Second,
			MaxAge:          time.Duration(cfg.RateLimit.MaxAge) * time.Second,
		}
		sendMiddleware = append(sendMiddleware, ratelimit.RateLimitMiddleware(ctx, rateLimitConfig))
		deps.Logger.InfowCtx(ctx, "Rate limiting enabled", "rps", rateLimitConfig.RPS, "burst", rateLimitConfig.Burst)
	}

	deps.Handler.RegisterRoutes(router, sendMiddleware...)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
