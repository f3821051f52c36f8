package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaekim/medimap-backend/config"
	"github.com/jaekim/medimap-backend/internal/app/controller"
	"github.com/jaekim/medimap-backend/internal/app/repository"
	"github.com/jaekim/medimap-backend/internal/app/service"
	"github.com/jaekim/medimap-backend/internal/db"
	"github.com/jaekim/medimap-backend/internal/middleware"
	"github.com/jaekim/medimap-backend/internal/router"
	"github.com/jaekim/medimap-backend/internal/scheduler"
	"github.com/jaekim/medimap-backend/internal/storage"
	"github.com/jaekim/medimap-backend/pkg/localdata"
	"github.com/jaekim/medimap-backend/pkg/logger"
	"github.com/jaekim/medimap-backend/pkg/notify"
	"github.com/jaekim/medimap-backend/pkg/redis"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	// Initialize logger
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      "console", // Use "json" for production
		EnableColor: true,
	})

	logger.Info("Starting MEDIMAP Backend Server", map[string]interface{}{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"log_level":   logLevel,
	})

	// Initialize database
	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	// Run migrations
	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	// Initialize Redis cache (optional)
	useCache := true
	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Warn("Failed to connect to Redis, caching disabled", map[string]interface{}{
			"error": err.Error(),
		})
		useCache = false
	} else {
		defer func() {
			if err := redis.Close(); err != nil {
				logger.Error("Failed to close Redis connection", err)
			}
		}()
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.GetDB())
	facilityRepo := repository.NewFacilityRepository(db.GetDB())
	logRepo := repository.NewIngestionLogRepository(db.GetDB())

	// Initialize open data client (optional: without an auth key the
	// query API still works, only ingestion is disabled)
	var fetcher service.FacilityFetcher
	client, err := localdata.NewClient(localdata.Config{
		BaseURL:   cfg.LocalData.BaseURL,
		AuthKey:   cfg.LocalData.AuthKey,
		PageSize:  cfg.LocalData.PageSize,
		MaxPages:  cfg.LocalData.MaxPages,
		PageDelay: cfg.LocalData.PageDelay,
	})
	if err != nil {
		logger.Warn("Open data client unavailable, ingestion disabled", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		fetcher = client
	}

	// Initialize failure notifier (optional)
	var notifier notify.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL)
	}

	// Initialize run report storage (optional)
	var reports service.ReportUploader
	var reportURLs controller.ReportURLGenerator
	if cfg.S3.Bucket != "" {
		reportStorage := storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
		reports = reportStorage
		reportURLs = reportStorage
	}

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	facilityService := service.NewFacilityService(facilityRepo, useCache)
	ingestionService := service.NewIngestionService(fetcher, facilityRepo, logRepo, notifier, reports)

	// Initialize controllers
	authController := controller.NewAuthController(authService)
	facilityController := controller.NewFacilityController(facilityService)
	ingestionController := controller.NewIngestionController(ingestionService, reportURLs)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup router
	r := router.NewRouter(
		authController,
		facilityController,
		ingestionController,
		authMiddleware,
		cfg,
	)
	engine := r.Setup()

	// Start the daily ingestion scheduler
	if fetcher != nil {
		ingestionScheduler := scheduler.NewIngestionScheduler(ingestionService, cfg.LocalData.CronSpec)
		if err := ingestionScheduler.Start(); err != nil {
			logger.Error("Failed to start ingestion scheduler", err)
		} else {
			defer ingestionScheduler.Stop()
		}
	}

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server started successfully", map[string]interface{}{
			"address": addr,
			"pid":     os.Getpid(),
		})
		if err := engine.Run(addr); err != nil {
			logger.Fatal("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server gracefully...")
	logger.Info("Server stopped successfully")
}
