// @title           Feedback Board API
// @version         1.0
// @description     보드별 피드백 수집, 추천, 댓글, 태그 관리 API
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:8000
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "feedback-board-api/docs" // Swagger docs import

	"feedback-board-api/internal/client"
	"feedback-board-api/internal/config"
	"feedback-board-api/internal/database"
	"feedback-board-api/internal/job"
	"feedback-board-api/internal/metrics"
	"feedback-board-api/internal/repository"
	"feedback-board-api/internal/router"
	"feedback-board-api/internal/service"
	"feedback-board-api/internal/token"
)

const migrationRetries = 5

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logger.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Starting Feedback Board API",
		zap.String("port", cfg.Server.Port),
		zap.String("mode", cfg.Server.Mode),
		zap.String("base_path", cfg.Server.BasePath),
	)

	m := metrics.NewWithLogger(logger)

	db, err := database.New(database.Config{
		DSN:             cfg.Database.GetDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	if err := database.AutoMigrateWithRetry(db, logger, migrationRetries); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	database.RegisterMetricsCallbacks(db, m)
	statsDone := database.StartDBStatsCollector(db, m, 15*time.Second)
	defer close(statsDone)

	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)

	// Seed the admin account before serving so the first login works
	bootstrap := service.NewAuthService(repository.NewUserRepository(db), tokens, 0, m, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := bootstrap.EnsureBootstrapAdmin(ctx, cfg.BootstrapAdmin); err != nil {
		cancel()
		logger.Fatal("Failed to create bootstrap admin", zap.Error(err))
	}
	cancel()

	// Redis is optional: without it the tag list is always read from the database
	redisClient, err := database.NewRedis(cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis unavailable, tag cache disabled", zap.Error(err))
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var events client.EventPublisher
	if cfg.Kafka.Enabled() {
		events = client.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger, m)
		logger.Info("Event publisher initialized",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic),
		)
	} else {
		events = client.NewNoOpEventPublisher()
		logger.Warn("Kafka not configured, domain events disabled")
	}

	scheduler := job.NewScheduler(logger)
	statsJob := job.NewStatsJob(metrics.NewBusinessMetricsCollector(db, m, logger), logger)
	if err := scheduler.Register("business-stats", cfg.Jobs.StatsSchedule, statsJob); err != nil {
		logger.Fatal("Failed to schedule jobs", zap.Error(err))
	}
	statsJob.Run()
	scheduler.Start()

	r := router.Setup(router.Config{
		DB:        db,
		Redis:     redisClient,
		Logger:    logger,
		Metrics:   m,
		Tokens:    tokens,
		Events:    events,
		BasePath:  cfg.Server.BasePath,
		CORS:      cfg.CORS,
		RateLimit: cfg.RateLimit,
		CacheTTL:  cfg.Redis.CacheTTL,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("Feedback Board API started successfully",
			zap.String("address", srv.Addr),
			zap.String("swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Server.Port)),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	scheduler.Stop(shutdownCtx)

	// flushes events still buffered in the writer
	if err := events.Close(); err != nil {
		logger.Warn("Failed to close event publisher", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

// initLogger initializes the zap logger with the specified level
func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      zapLevel == zapcore.DebugLevel,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
