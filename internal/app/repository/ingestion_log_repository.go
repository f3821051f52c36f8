package repository

import (
	"github.com/jaekim/medimap-backend/internal/app/model"
	"github.com/jaekim/medimap-backend/pkg/logger"
	"gorm.io/gorm"
)

// IngestionLogRepository 수집 작업 로그 저장소 인터페이스.
// 로그는 추가 전용이며 수정·삭제 경로를 노출하지 않는다.
type IngestionLogRepository interface {
	Append(log *model.IngestionLog) error
	Recent(limit int) ([]model.IngestionLog, error)
	FindByRunID(runID string) ([]model.IngestionLog, error)
}

type ingestionLogRepository struct {
	db *gorm.DB
}

// NewIngestionLogRepository 수집 로그 저장소 생성
func NewIngestionLogRepository(db *gorm.DB) IngestionLogRepository {
	return &ingestionLogRepository{db: db}
}

// Append 로그 한 건 추가
func (r *ingestionLogRepository) Append(log *model.IngestionLog) error {
	if err := r.db.Create(log).Error; err != nil {
		logger.Error("Failed to append ingestion log", err, map[string]interface{}{
			"job_name": log.JobName,
			"level":    log.Level,
		})
		return err
	}
	return nil
}

// Recent 최근 로그 조회 (최신순)
func (r *ingestionLogRepository) Recent(limit int) ([]model.IngestionLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var logs []model.IngestionLog
	if err := r.db.Order("id DESC").Limit(limit).Find(&logs).Error; err != nil {
		logger.Error("Failed to find recent ingestion logs", err)
		return nil, err
	}
	return logs, nil
}

// FindByRunID 특정 실행의 로그 조회 (기록순)
func (r *ingestionLogRepository) FindByRunID(runID string) ([]model.IngestionLog, error) {
	var logs []model.IngestionLog
	if err := r.db.Where("run_id = ?", runID).Order("id ASC").Find(&logs).Error; err != nil {
		logger.Error("Failed to find ingestion logs by run", err, map[string]interface{}{
			"run_id": runID,
		})
		return nil, err
	}
	return logs, nil
}
