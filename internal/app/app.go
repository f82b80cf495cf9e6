// Package app wires together all dependencies and runs the SnapCook backend.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/snapcook/backend/internal/auth"
	"github.com/snapcook/backend/internal/classifier"
	"github.com/snapcook/backend/internal/classifier/remote"
	"github.com/snapcook/backend/internal/classifier/script"
	"github.com/snapcook/backend/internal/config"
	"github.com/snapcook/backend/internal/event"
	handler "github.com/snapcook/backend/internal/handler/http"
	"github.com/snapcook/backend/internal/repository/postgres"
	redisrepo "github.com/snapcook/backend/internal/repository/redis"
	"github.com/snapcook/backend/internal/service"
	"github.com/snapcook/backend/internal/storage/local"
	"github.com/snapcook/backend/migrations"
	"github.com/snapcook/backend/pkg/database"
	"github.com/snapcook/backend/pkg/health"
	"github.com/snapcook/backend/pkg/httpclient"
	pkgkafka "github.com/snapcook/backend/pkg/kafka"
	"github.com/snapcook/backend/pkg/middleware"
	"github.com/snapcook/backend/pkg/tracing"
)

// App holds the long-lived resources of the backend process.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "snapcook-backend",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleRatio,
		Enabled:        cfg.OTLPEndpoint != "",
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "snapcook")

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Initialize Redis client for the recipe corpus cache.
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Ingredient image storage on the local filesystem.
	store, err := local.New(cfg.UploadsDir)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init upload storage: %w", err)
	}

	// Classifier selection: an external script process or a remote service.
	cls, err := buildClassifier(cfg, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	// Build the dependency graph.
	tokens := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	guard := auth.NewSessionGuard(tokens)
	userRepo := postgres.NewUserRepository(pool)
	recipeRepo := redisrepo.NewRecipeCache(postgres.NewRecipeRepository(pool), rdb, cfg.RecipeCacheTTL, logger)
	eventProducer := event.NewProducer(producer, logger)

	userService := service.NewUserService(userRepo, tokens, store, eventProducer, logger)
	pantryService := service.NewPantryService(userRepo, cls, store, eventProducer, logger)
	recommendService := service.NewRecommendService(userRepo, recipeRepo, logger)
	historyService := service.NewHistoryService(userRepo, eventProducer, logger)

	// Health checks. Redis and Kafka are non-critical: the recipe cache falls
	// back to Postgres and event publishes degrade to log-only, so outages
	// there must not fail readiness.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		UserService:      userService,
		PantryService:    pantryService,
		RecommendService: recommendService,
		HistoryService:   historyService,
		SessionGuard:     guard,
		HealthHandler:    healthHandler,
		Logger:           logger,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		MaxUploadSize: cfg.MaxUploadSize,
		PprofCIDRs:    cfg.PprofAllowedCIDRs,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		rdb:            rdb,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

func buildClassifier(cfg *config.Config, logger *slog.Logger) (classifier.Classifier, error) {
	switch cfg.ClassifierMode {
	case "script":
		return script.New(script.Config{
			Interpreter: cfg.ClassifierInterpreter,
			ScriptPath:  cfg.ClassifierScript,
			Timeout:     cfg.ClassifierTimeout,
		}, logger), nil
	case "remote":
		clientCfg := httpclient.DefaultConfig()
		clientCfg.Timeout = cfg.ClassifierTimeout
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(clientCfg),
			httpclient.DefaultCircuitBreakerConfig("classifier"),
			logger,
		)
		return remote.New(client, cfg.ClassifierURL, logger), nil
	default:
		return nil, fmt.Errorf("unknown classifier mode %q", cfg.ClassifierMode)
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: drain in-flight HTTP
// requests, flush pending spans, then close the Kafka producer and the
// database connections.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.rdb.Close(); err != nil {
		a.logger.Error("redis close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
