package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectoinject/ectocontainer"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/Ramsey-B/jasmine/config"
	profilerepo "github.com/Ramsey-B/jasmine/internal/repositories/profile"
	"github.com/Ramsey-B/jasmine/pkg/database"
	"github.com/Ramsey-B/jasmine/pkg/events"
	"github.com/Ramsey-B/jasmine/pkg/kafka"
	"github.com/Ramsey-B/jasmine/pkg/matching"
	"github.com/Ramsey-B/jasmine/pkg/middleware"
	"github.com/Ramsey-B/jasmine/pkg/models"
	"github.com/Ramsey-B/jasmine/pkg/preferences"
	"github.com/Ramsey-B/jasmine/pkg/redis"
	"github.com/Ramsey-B/jasmine/pkg/routes/health"
	matchroutes "github.com/Ramsey-B/jasmine/pkg/routes/match"
	profileroutes "github.com/Ramsey-B/jasmine/pkg/routes/profile"
	"github.com/Ramsey-B/jasmine/pkg/startup"
	"github.com/Ramsey-B/jasmine/pkg/tracing"
	"github.com/Ramsey-B/jasmine/pkg/tracing/exporters"
)

func main() {
	_ = godotenv.Load()

	var cfg config.Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		panic(fmt.Sprintf("failed to bind configuration: %v", err))
	}

	logger := newLogger(cfg)
	logger.WithField("app", cfg.AppName).Info("Starting")

	shutdownTracing := setupTracing(cfg, logger)
	defer shutdownTracing()

	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		fatal(logger, err, "Failed to create DI container")
	}

	ctx := context.Background()

	// Database
	db, err := connectDatabase(cfg, logger)
	if err != nil {
		fatal(logger, err, "Failed to connect to database")
	}
	dbInstance := database.NewDatabaseInstance(db, logger)

	if err := runMigrations(cfg, logger, db); err != nil {
		fatal(logger, err, "Failed to run migrations")
	}

	// Redis ranking cache
	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		fatal(logger, err, "Failed to connect to Redis")
	}

	// Kafka producer
	var producer *kafka.Producer
	if cfg.KafkaProducerEnabled {
		producer = kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			Topic:        cfg.KafkaOutputTopic,
			BatchSize:    cfg.KafkaBatchSize,
			BatchTimeout: time.Duration(cfg.KafkaBatchTimeout) * time.Millisecond,
			RequiredAcks: cfg.KafkaRequiredAcks,
			Compression:  cfg.KafkaCompression,
		}, logger)
	}
	emitter := events.NewEmitter(producer, logger)

	// Matching engine
	profileRepo := profilerepo.NewRepository(dbInstance, logger)
	normalizer := preferences.NewNormalizer(logger, preferences.Config{
		AgeMin: cfg.PreferenceAgeMin,
		AgeMax: cfg.PreferenceAgeMax,
	})
	scorers := matching.NewScorers(matching.ScorerConfig{
		AgeGraceYears:    cfg.AgeGraceYears,
		HardFailAge:      cfg.HardFailAge,
		HardFailLocation: cfg.HardFailLocation,
		HardFailMarital:  cfg.HardFailMarital,
		HardFailHabits:   cfg.HardFailHabits,
	})
	aggregator := matching.NewAggregator(matching.Weights{
		models.DimensionAge:           cfg.WeightAge,
		models.DimensionLocation:      cfg.WeightLocation,
		models.DimensionCommunity:     cfg.WeightCommunity,
		models.DimensionEducation:     cfg.WeightEducation,
		models.DimensionProfession:    cfg.WeightProfession,
		models.DimensionDiet:          cfg.WeightDiet,
		models.DimensionHabits:        cfg.WeightHabits,
		models.DimensionMaritalStatus: cfg.WeightMaritalStatus,
	})
	scorer := matching.NewService(logger, profileRepo, normalizer, scorers, aggregator, emitter)
	rankingCache := matching.NewRedisRankingCache(redisClient, logger, cfg.MatchPageCacheTTL)
	finder := matching.NewFinder(logger, scorer, rankingCache, emitter, matching.FinderConfig{
		WorkerCount:      cfg.FinderWorkerCount,
		CandidateTimeout: cfg.FinderCandidateTimeout,
		PoolLimit:        cfg.FinderPoolLimit,
		DefaultPageSize:  cfg.FinderDefaultPageSize,
		MaxPageSize:      cfg.FinderMaxPageSize,
	})

	registerDependencies(logger, container, profileRepo, scorer, finder)

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.Error(logger)
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	checker := health.NewChecker(dbInstance, redisClient, version())
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	matchroutes.Register(api)
	profileroutes.Register(api)

	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Port),
		Handler:        e,
		ReadTimeout:    time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second,
		WriteTimeout:   time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second,
		IdleTimeout:    time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	boot := startup.NewStartup(logger, cfg.StartupMaxAttempts)
	boot.AddDependency(&serverDependency{server: server, logger: logger})
	if err := boot.Start(ctx); err != nil {
		fatal(logger, err, "Startup failed")
	}
	checker.SetReady(true)

	// Block until shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")
	checker.SetReady(false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := boot.Stop(shutdownCtx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.WithError(err).Error("Failed to close Kafka producer")
		}
	}
	if err := redisClient.Close(); err != nil {
		logger.WithError(err).Error("Failed to close Redis client")
	}
	if err := db.Close(); err != nil {
		logger.WithError(err).Error("Failed to close database")
	}
}

func fatal(logger ectologger.Logger, err error, msg string) {
	logger.WithError(err).Error(msg)
	os.Exit(1)
}

func newLogger(cfg config.Config) ectologger.Logger {
	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	if level, err := zap.ParseAtomicLevel(cfg.LogLevel); err == nil {
		zapCfg.Level = level
	}

	zapLogger, err := zapCfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func connectDatabase(cfg config.Config, logger ectologger.Logger) (*sqlx.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	db, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DatabaseConnMaxLifetime)

	logger.WithField("database", cfg.DatabaseName).Info("Connected to database")

	return db, nil
}

func runMigrations(cfg config.Config, logger ectologger.Logger, db *sqlx.DB) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return err
	}

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: cfg.DatabaseMigrationFolderPath,
		Version:             uint(cfg.DatabaseMigrationVersion),
		Force:               cfg.DatabaseMigrationForce,
		AutoRollback:        cfg.DatabaseMigrationAutoRollback,
	})

	return migrations.Migrate(cfg.DatabaseName, driver)
}

func setupTracing(cfg config.Config, logger ectologger.Logger) func() {
	var exporter sdktrace.SpanExporter
	var err error

	if cfg.TracingEnabled && cfg.TracingOTLPEndpoint != "" {
		otlpConfig := exporters.DefaultOTLPConfig()
		otlpConfig.Endpoint = cfg.TracingOTLPEndpoint
		exporter, err = exporters.NewOTLPExporter(context.Background(), otlpConfig)
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(noopWriter{}))
	}
	if err != nil {
		logger.WithError(err).Error("Failed to create trace exporter; tracing disabled")
		return func() {}
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracing.SetTracer(provider.Tracer(cfg.AppName))

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Error("Failed to shut down tracer provider")
		}
	}
}

// noopWriter discards spans when no collector is configured
type noopWriter struct{}

func (noopWriter) Write(p []byte) (int, error) {
	return len(p), nil
}

func registerDependencies(
	logger ectologger.Logger,
	container ectocontainer.DIContainer,
	profileRepo *profilerepo.Repository,
	scorer *matching.Service,
	finder *matching.Finder,
) {
	if err := ectoinject.RegisterInstance[*profilerepo.Repository](container, profileRepo); err != nil {
		fatal(logger, err, "Failed to register profile repository")
	}
	if err := ectoinject.RegisterInstance[*matching.Service](container, scorer); err != nil {
		fatal(logger, err, "Failed to register match scorer")
	}
	if err := ectoinject.RegisterInstance[*matching.Finder](container, finder); err != nil {
		fatal(logger, err, "Failed to register candidate finder")
	}
}

// serverDependency runs the HTTP listener under the startup manager so it
// participates in retry and ordered shutdown.
type serverDependency struct {
	server *http.Server
	logger ectologger.Logger
}

func (d *serverDependency) GetName() string {
	return "http-server"
}

func (d *serverDependency) DependsOn() []string {
	return nil
}

func (d *serverDependency) Start(_ context.Context) error {
	go func() {
		if err := d.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(d.logger, err, "HTTP server failed")
		}
	}()
	return nil
}

func (d *serverDependency) Stop(ctx context.Context) error {
	return d.server.Shutdown(ctx)
}

func version() string {
	if v := os.Getenv("APP_VERSION"); v != "" {
		return v
	}
	return "dev"
}
