package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/samsoft00/gold-standard/internal/infra/config"
	"github.com/samsoft00/gold-standard/internal/transport/http/handlers"
	"github.com/samsoft00/gold-standard/internal/transport/http/middleware"
	"github.com/samsoft00/gold-standard/internal/usecase"
)

// ServiceSet groups the use cases the HTTP layer fronts.
type ServiceSet struct {
	Auth      *usecase.AuthService
	Passwords *usecase.PasswordService
	Invites   *usecase.InviteService
}

// Dependencies is everything Register needs to assemble the engine. Metrics,
// Database, and Cache are optional; missing ones simply drop the matching
// middleware or readiness probe.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker is the readiness probe for the document store.
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// CacheChecker is the readiness probe for the revocation/throttle cache.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register assembles the middleware chain, the operational endpoints, and
// the /api/v1 surface.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.EnrichContext(),
		middleware.RequestID(),
		middleware.Logger(deps.Logger),
		middleware.CORS(deps.Config.App.AllowedOrigins),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	var probes []handlers.HealthOption
	if deps.Database != nil {
		probes = append(probes, handlers.WithReadinessCheck("mongodb", deps.Database.HealthCheck))
	}
	if deps.Cache != nil {
		probes = append(probes, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	health := handlers.NewHealthHandler(probes...)

	r.GET("/healthz", health.Status)
	r.GET("/readyz", health.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		isTestEnv := deps.Config.App.IsTestEnv()
		sessionTTLSeconds := int(deps.Config.Session.SessionTTL / time.Second)

		authGroup := api.Group("/auth")

		authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Services.Passwords, sessionTTLSeconds)
		authHandler.RegisterRoutes(authGroup, ipThrottle(deps, "auth_login_ip", deps.Config.RateLimit.LoginMaxAttempts)...)

		passwordHandler := handlers.NewPasswordHandler(deps.Services.Passwords, isTestEnv)
		passwordHandler.RegisterRoutes(authGroup, ipThrottle(deps, "password_reset_ip", deps.Config.RateLimit.PasswordResetMaxAttempts)...)

		inviteHandler := handlers.NewInviteHandler(deps.Services.Invites, deps.Services.Auth, isTestEnv)
		inviteHandler.RegisterRoutes(api)
	}

	return r
}

// ipThrottle builds the per-IP sliding-window guard for one route family.
// A zero limit disables the guard entirely.
func ipThrottle(deps Dependencies, name string, limit int) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil || limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	})}
}
