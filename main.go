package main

import (
	"context"
	"encoding/base64"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/healthvault/backend/internal/ai"
	"github.com/healthvault/backend/internal/analysis"
	"github.com/healthvault/backend/internal/audit"
	"github.com/healthvault/backend/internal/config"
	"github.com/healthvault/backend/internal/handler"
	"github.com/healthvault/backend/internal/middleware"
	"github.com/healthvault/backend/internal/pdf"
	"github.com/healthvault/backend/internal/repository"
	"github.com/healthvault/backend/internal/security"
	"github.com/healthvault/backend/internal/service"
	"github.com/healthvault/backend/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.Bool("ai_configured", cfg.AIConfigured()),
	)

	pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	// The model client is optional: a nil Completer routes every
	// analysis through the rule-based fallback.
	var completer analysis.Completer
	if cfg.AIConfigured() {
		client, err := ai.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, logger)
		if err != nil {
			logger.Fatal("failed to initialize model client", zap.Error(err))
		}
		completer = client
	} else {
		logger.Warn("no AI API key configured, analysis will use rule-based fallback")
	}

	downloader := storage.NewHTTPDownloader(logger)
	analysisService := analysis.NewService(completer, downloader, logger)

	blobClient, err := storage.NewBlobClient(
		cfg.Storage.AccountName,
		cfg.Storage.AccountKey,
		cfg.Storage.ReportContainer,
		logger,
	)
	if err != nil {
		logger.Fatal("failed to initialize blob storage client", zap.Error(err))
	}

	var encryptor *security.Encryptor
	if cfg.Security.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.Security.EncryptionKey)
		if err != nil {
			logger.Fatal("failed to decode notes encryption key", zap.Error(err))
		}
		encryptor, err = security.NewEncryptor(key)
		if err != nil {
			logger.Fatal("failed to initialize notes encryption", zap.Error(err))
		}
	}

	vitalRepo := repository.NewVitalRepository(pool, encryptor, logger)
	reportRepo := repository.NewReportRepository(pool, logger)
	auditLogger := audit.NewLogger(pool, logger)

	vitalsService := service.NewVitalsService(vitalRepo, analysisService, auditLogger, logger)
	reportService := service.NewReportService(reportRepo, blobClient, analysisService, auditLogger, logger)

	pdfGenerator := pdf.NewGenerator(logger)

	vitalsHandler := handler.NewVitalsHandler(vitalsService, pdfGenerator, logger)
	reportHandler := handler.NewReportHandler(reportService, logger)
	statusHandler := handler.NewStatusHandler(pool, cfg.AIConfigured())

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.RecoveryMiddleware(logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLoggingMiddleware(logger))

	r.GET("/health", statusHandler.Status)

	apiV1 := r.Group("/api/v1")
	apiV1.Use(middleware.UserIdentityMiddleware())
	vitalsHandler.RegisterRoutes(apiV1)
	reportHandler.RegisterRoutes(apiV1)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	pool.Close()

	logger.Info("server exited")
}

// newLogger builds the zap logger from the logging configuration
func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
