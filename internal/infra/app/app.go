package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/samsoft00/gold-standard/internal/core/domain"
	"github.com/samsoft00/gold-standard/internal/core/port"
	"github.com/samsoft00/gold-standard/internal/infra/config"
	kafkainfra "github.com/samsoft00/gold-standard/internal/infra/kafka"
	"github.com/samsoft00/gold-standard/internal/infra/logger"
	mongoinfra "github.com/samsoft00/gold-standard/internal/infra/mongodb"
	redisinfra "github.com/samsoft00/gold-standard/internal/infra/redis"
	"github.com/samsoft00/gold-standard/internal/infra/security"
	"github.com/samsoft00/gold-standard/internal/infra/telemetry"
	mongorepo "github.com/samsoft00/gold-standard/internal/repository/mongodb"
	redisrepo "github.com/samsoft00/gold-standard/internal/repository/redis"
	"github.com/samsoft00/gold-standard/internal/transport/http/middleware"
	"github.com/samsoft00/gold-standard/internal/transport/http/routes"
	"github.com/samsoft00/gold-standard/internal/usecase"
)

type Application struct {
	cfg      *config.AppConfig
	engine   *gin.Engine
	logger   *zap.Logger
	mongo    *mongoinfra.Client
	redis    *redisinfra.Client
	producer *kafkainfra.Producer
}

// New wires every layer of the service. Infrastructure opened along the way
// is torn down in reverse order when a later step fails.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var cleanups []func()
	fail := func(step string, err error) error {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
		return fmt.Errorf("%s: %w", step, err)
	}

	metrics, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fail("init telemetry", err)
	}

	if err := security.ConfigurePBKDF2(security.PBKDF2Config{
		Iterations: cfg.PBKDF2.Iterations,
		SaltLength: cfg.PBKDF2.SaltLength,
		KeyLength:  cfg.PBKDF2.KeyLength,
	}); err != nil {
		return nil, fail("configure pbkdf2", err)
	}

	tokens, err := security.NewTokenService(security.TokenServiceConfig{
		Issuer:        cfg.Session.Issuer,
		SessionSecret: cfg.Session.SessionSecret,
		SessionTTL:    cfg.Session.SessionTTL,
		ScopedSecret:  cfg.Session.InviteSecret,
		ScopedTTL:     cfg.Session.InviteTTL,
	})
	if err != nil {
		return nil, fail("init token service", err)
	}

	mongoClient, err := mongoinfra.NewClient(ctx, cfg.Mongo, log)
	if err != nil {
		return nil, fail("init mongodb", err)
	}
	cleanups = append(cleanups, func() { _ = mongoClient.Close(ctx) })

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		return nil, fail("init redis", err)
	}
	cleanups = append(cleanups, func() { _ = redisClient.Close() })

	adminRepo, err := mongorepo.NewAdminRepository(ctx, mongoClient.Database(), cfg.Mongo.OperationTimeout)
	if err != nil {
		return nil, fail("init admin repository", err)
	}

	revocationStore := redisrepo.NewRevocationStore(redisClient.Client(), cfg.Redis.RevocationPrefix)

	window := cfg.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}
	attemptStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: cfg.Redis.RateLimitPrefix,
		TTL:       window * 2,
	})
	rateLimiter := middleware.NewRateLimiter(attemptStore, log)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fail("init http metrics", err)
	}

	producer, eventPublisher := connectEvents(cfg, log)
	if producer != nil {
		cleanups = append(cleanups, func() { _ = producer.Close() })
	}

	passwordValidator, err := buildPasswordValidator(cfg.Password)
	if err != nil {
		return nil, fail("init password validator", err)
	}

	policy := domain.NewDegradationPolicy(domain.ParseDegradationPolicyMode(cfg.Revocation.DegradationPolicy))

	authService, err := usecase.NewAuthService(cfg, adminRepo, revocationStore, attemptStore, tokens, policy, metrics, log)
	if err != nil {
		return nil, fail("init auth service", err)
	}

	passwordService, err := usecase.NewPasswordService(cfg, adminRepo, eventPublisher, passwordValidator, log)
	if err != nil {
		return nil, fail("init password service", err)
	}

	inviteService, err := usecase.NewInviteService(cfg, adminRepo, tokens, eventPublisher, passwordValidator, log)
	if err != nil {
		return nil, fail("init invite service", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     httpMetrics,
		Database:    mongoClient,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			Auth:      authService,
			Passwords: passwordService,
			Invites:   inviteService,
		},
	})

	return &Application{
		cfg:      cfg,
		engine:   engine,
		logger:   log,
		mongo:    mongoClient,
		redis:    redisClient,
		producer: producer,
	}, nil
}

// connectEvents picks a real Kafka publisher when brokers are configured and
// reachable, and silently drops events through the stub otherwise.
func connectEvents(cfg *config.AppConfig, log *zap.Logger) (*kafkainfra.Producer, port.EventPublisher) {
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("no kafka brokers configured, events will be dropped")
		return nil, kafkainfra.NewStubPublisher(log)
	}
	producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
	if err != nil {
		log.Warn("kafka producer unavailable, events will be dropped", zap.Error(err))
		return nil, kafkainfra.NewStubPublisher(log)
	}
	log.Info("publishing events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	return producer, kafkainfra.NewEventPublisher(producer, cfg.App, log)
}

func buildPasswordValidator(cfg config.PasswordSettings) (*security.PasswordValidator, error) {
	if cfg.Pattern == "" {
		return security.DefaultPasswordValidator(), nil
	}
	pattern, err := regexp.Compile(cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("compile password pattern: %w", err)
	}
	return security.NewPasswordValidator(security.PatternRule(pattern)), nil
}

// Run serves HTTP until the context is cancelled, then shuts down in order:
// server drain, kafka producer, redis, mongo.
func (a *Application) Run(ctx context.Context) error {
	defer func() { _ = a.logger.Sync() }()
	defer a.closeInfra()

	srv := &http.Server{
		Addr:              net.JoinHostPort(a.cfg.App.Host, strconv.Itoa(a.cfg.App.Port)),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting admin auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-errCh:
		return err
	}
}

func (a *Application) closeInfra() {
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.mongo != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.mongo.Close(closeCtx)
	}
}
