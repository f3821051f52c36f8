package scheduler

import (
	"context"
	"time"

	"github.com/jaekim/medimap-backend/internal/app/service"
	"github.com/jaekim/medimap-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// IngestionScheduler 의료기관 데이터 정기 수집 스케줄러
type IngestionScheduler struct {
	cron             *cron.Cron
	ingestionService service.IngestionService
	cronSpec         string
}

// NewIngestionScheduler 수집 스케줄러 생성. cronSpec이 비어 있으면
// 매일 오전 7시에 실행한다.
func NewIngestionScheduler(ingestionService service.IngestionService, cronSpec string) *IngestionScheduler {
	if cronSpec == "" {
		cronSpec = "0 7 * * *"
	}
	return &IngestionScheduler{
		cron:             cron.New(),
		ingestionService: ingestionService,
		cronSpec:         cronSpec,
	}
}

// Start 스케줄러 시작
func (s *IngestionScheduler) Start() error {
	_, err := s.cron.AddFunc(s.cronSpec, s.runOnce)
	if err != nil {
		logger.Error("Failed to add cron job for facility ingestion", err)
		return err
	}

	s.cron.Start()
	logger.Info("Facility ingestion scheduler started", map[string]interface{}{
		"cron_spec": s.cronSpec,
	})
	return nil
}

// runOnce 기본 수집 범위로 수집 한 번 실행. cron 고루틴에서 호출되므로
// summary가 nil인 실패 경로에서도 패닉 없이 로그만 남긴다.
func (s *IngestionScheduler) runOnce() {
	logger.Info("Starting scheduled facility ingestion", nil)

	window := service.DefaultWindow(time.Now())
	summary, err := s.ingestionService.Run(context.Background(), window)
	if err != nil {
		fields := map[string]interface{}{}
		if summary != nil {
			fields["run_id"] = summary.RunID
		}
		logger.Error("Scheduled facility ingestion failed", err, fields)
		return
	}

	logger.Info("Scheduled facility ingestion finished", map[string]interface{}{
		"run_id":       summary.RunID,
		"failed_types": summary.FailedTypes,
	})
}

// Stop 스케줄러 중지
func (s *IngestionScheduler) Stop() {
	logger.Info("Stopping facility ingestion scheduler...", nil)
	s.cron.Stop()
	logger.Info("Facility ingestion scheduler stopped", nil)
}
