package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jaekim/medimap-backend/config"
	"github.com/jaekim/medimap-backend/internal/app/repository"
	"github.com/jaekim/medimap-backend/internal/app/service"
	"github.com/jaekim/medimap-backend/internal/db"
	"github.com/jaekim/medimap-backend/internal/storage"
	"github.com/jaekim/medimap-backend/pkg/localdata"
	"github.com/jaekim/medimap-backend/pkg/logger"
	"github.com/jaekim/medimap-backend/pkg/notify"
)

const dateLayout = "2006-01-02"

// 수동 수집 실행 바이너리. 스케줄과 무관하게 지정한 기간의
// 인허가/변경 데이터를 한 번 수집한다.
func main() {
	fromFlag := flag.String("from", "", "수집 시작일 (YYYY-MM-DD, 기본값: 어제)")
	toFlag := flag.String("to", "", "수집 종료일 (YYYY-MM-DD, 기본값: 오늘)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err)
	}

	logger.Initialize(logger.Config{
		Level:       "info",
		Format:      "console",
		EnableColor: true,
	})

	window := service.DefaultWindow(time.Now())
	if *fromFlag != "" {
		from, err := time.Parse(dateLayout, *fromFlag)
		if err != nil {
			logger.Fatal("Invalid -from date", err)
		}
		window.From = from
	}
	if *toFlag != "" {
		to, err := time.Parse(dateLayout, *toFlag)
		if err != nil {
			logger.Fatal("Invalid -to date", err)
		}
		window.To = to
	}
	if window.To.Before(window.From) {
		logger.Fatal("Invalid window: end date precedes start date", nil)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		logger.Fatal("Failed to run migrations", err)
	}

	client, err := localdata.NewClient(localdata.Config{
		BaseURL:   cfg.LocalData.BaseURL,
		AuthKey:   cfg.LocalData.AuthKey,
		PageSize:  cfg.LocalData.PageSize,
		MaxPages:  cfg.LocalData.MaxPages,
		PageDelay: cfg.LocalData.PageDelay,
	})
	if err != nil {
		logger.Fatal("Failed to create open data client", err)
	}

	var notifier notify.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL)
	}

	var reports service.ReportUploader
	if cfg.S3.Bucket != "" {
		reports = storage.NewS3Storage(
			cfg.S3.Region,
			cfg.S3.Bucket,
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.BaseURL,
		)
	}

	facilityRepo := repository.NewFacilityRepository(db.GetDB())
	logRepo := repository.NewIngestionLogRepository(db.GetDB())
	ingestionService := service.NewIngestionService(client, facilityRepo, logRepo, notifier, reports)

	summary, err := ingestionService.Run(context.Background(), window)
	if err != nil {
		fields := map[string]interface{}{}
		if summary != nil {
			fields["run_id"] = summary.RunID
			fields["failed_types"] = summary.FailedTypes
		}
		logger.Error("Ingestion run failed", err, fields)
		os.Exit(1)
	}

	logger.Info("Ingestion run finished", map[string]interface{}{
		"run_id":   summary.RunID,
		"duration": summary.FinishedAt.Sub(summary.StartedAt).String(),
	})
}
