package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jaekim/medimap-backend/internal/app/model"
	"github.com/jaekim/medimap-backend/internal/app/repository"
	"github.com/jaekim/medimap-backend/pkg/localdata"
	"github.com/jaekim/medimap-backend/pkg/logger"
	"github.com/jaekim/medimap-backend/pkg/notify"
	"github.com/jaekim/medimap-backend/pkg/redis"
)

var (
	ErrAllTypesFailed       = errors.New("모든 의료기관 유형의 수집에 실패했습니다")
	ErrFetcherNotConfigured = errors.New("수집 API 클라이언트가 설정되지 않았습니다")
)

const ingestionJobName = "daily-ingestion"

// apiDateLayout 정부 API 날짜 파라미터 표기 (YYYYMMDD)
const apiDateLayout = "20060102"

// FacilityFetcher 정부 개방 데이터 조회 인터페이스.
// *localdata.Client가 구현한다.
type FacilityFetcher interface {
	FetchByLicenseDate(ctx context.Context, facilityType, from, to string) ([]localdata.RawFacility, error)
	FetchByLastModified(ctx context.Context, facilityType, from, to string) ([]localdata.RawFacility, error)
}

// ReportUploader 수집 실행 리포트 업로드 인터페이스.
// 업로드 실패는 수집 결과에 영향을 주지 않는다.
type ReportUploader interface {
	UploadRunReport(ctx context.Context, runID string, report []byte) (string, error)
}

// IngestionWindow 수집 대상 날짜 범위 (양끝 포함)
type IngestionWindow struct {
	From time.Time
	To   time.Time
}

// DefaultWindow 기본 수집 범위: 어제부터 오늘까지
func DefaultWindow(now time.Time) IngestionWindow {
	return IngestionWindow{
		From: now.AddDate(0, 0, -1),
		To:   now,
	}
}

// TypeResult 의료기관 유형별 수집 결과
type TypeResult struct {
	FacilityType string `json:"facility_type"`
	Fetched      int    `json:"fetched"`
	Upserted     int64  `json:"upserted"`
	Rejected     int    `json:"rejected"`
	Error        string `json:"error,omitempty"`
}

// IngestionSummary 수집 실행 한 번의 요약
type IngestionSummary struct {
	RunID       string       `json:"run_id"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	WindowFrom  string       `json:"window_from"`
	WindowTo    string       `json:"window_to"`
	Results     []TypeResult `json:"results"`
	FailedTypes int          `json:"failed_types"`
}

// IngestionService 의료기관 데이터 수집 서비스 인터페이스
type IngestionService interface {
	Run(ctx context.Context, window IngestionWindow) (*IngestionSummary, error)
	RecentLogs(limit int) ([]model.IngestionLog, error)
}

type ingestionService struct {
	fetcher      FacilityFetcher
	facilityRepo repository.FacilityRepository
	logRepo      repository.IngestionLogRepository
	notifier     notify.Notifier
	reports      ReportUploader
}

// NewIngestionService 수집 서비스 생성. notifier와 reports는 선택 의존성이며
// nil이면 해당 단계를 건너뛴다.
func NewIngestionService(
	fetcher FacilityFetcher,
	facilityRepo repository.FacilityRepository,
	logRepo repository.IngestionLogRepository,
	notifier notify.Notifier,
	reports ReportUploader,
) IngestionService {
	return &ingestionService{
		fetcher:      fetcher,
		facilityRepo: facilityRepo,
		logRepo:      logRepo,
		notifier:     notifier,
		reports:      reports,
	}
}

// Run 수집 한 번 실행. 유형별 실패는 격리되어 다음 유형으로 진행하고,
// 모든 유형이 실패했을 때만 실행 전체를 실패로 본다.
func (s *ingestionService) Run(ctx context.Context, window IngestionWindow) (*IngestionSummary, error) {
	if s.fetcher == nil {
		return nil, ErrFetcherNotConfigured
	}

	summary := &IngestionSummary{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		WindowFrom: window.From.Format(apiDateLayout),
		WindowTo:   window.To.Format(apiDateLayout),
	}

	logger.Info("Starting facility ingestion run", map[string]interface{}{
		"run_id": summary.RunID,
		"from":   summary.WindowFrom,
		"to":     summary.WindowTo,
	})
	s.opLog(summary.RunID, model.LogInfo, "수집 시작", map[string]interface{}{
		"window_from": summary.WindowFrom,
		"window_to":   summary.WindowTo,
	})

	for _, facilityType := range model.FacilityTypes() {
		result := s.runType(ctx, summary.RunID, string(facilityType), summary.WindowFrom, summary.WindowTo)
		summary.Results = append(summary.Results, result)
		if result.Error != "" {
			summary.FailedTypes++
		}
	}
	summary.FinishedAt = time.Now()

	if summary.FailedTypes == len(summary.Results) {
		s.opLog(summary.RunID, model.LogError, "수집 전체 실패", map[string]interface{}{
			"failed_types": summary.FailedTypes,
		})
		s.notifyFailure(ctx, summary)
		return summary, ErrAllTypesFailed
	}

	s.opLog(summary.RunID, model.LogSuccess, "수집 완료", map[string]interface{}{
		"results":      summary.Results,
		"failed_types": summary.FailedTypes,
	})
	s.invalidateRegionCache(ctx, summary.RunID)
	s.uploadReport(ctx, summary)

	logger.Info("Facility ingestion run finished", map[string]interface{}{
		"run_id":       summary.RunID,
		"failed_types": summary.FailedTypes,
	})
	return summary, nil
}

// runType 의료기관 유형 하나에 대한 수집. 실패해도 에러를 반환하지 않고
// 결과에 담아 격리한다.
func (s *ingestionService) runType(ctx context.Context, runID, facilityType, from, to string) TypeResult {
	result := TypeResult{FacilityType: facilityType}

	raws, err := s.fetchMerged(ctx, facilityType, from, to)
	if err != nil {
		logger.Error("Failed to fetch facility data", err, map[string]interface{}{
			"run_id":        runID,
			"facility_type": facilityType,
		})
		result.Error = err.Error()
		s.opLog(runID, model.LogError, fmt.Sprintf("%s 수집 실패", facilityType), map[string]interface{}{
			"error": err.Error(),
		})
		return result
	}
	result.Fetched = len(raws)

	if len(raws) == 0 {
		s.opLog(runID, model.LogWarning, fmt.Sprintf("%s 신규 데이터 없음", facilityType), nil)
		return result
	}

	facilities, rejected := BuildFacilities(raws)
	result.Rejected = rejected

	upserted, err := s.facilityRepo.UpsertBatch(facilities)
	if err != nil {
		result.Error = err.Error()
		s.opLog(runID, model.LogError, fmt.Sprintf("%s 저장 실패", facilityType), map[string]interface{}{
			"error": err.Error(),
		})
		return result
	}
	result.Upserted = upserted

	s.opLog(runID, model.LogSuccess, fmt.Sprintf("%s 수집 성공", facilityType), map[string]interface{}{
		"fetched":  result.Fetched,
		"upserted": result.Upserted,
		"rejected": result.Rejected,
	})
	return result
}

// fetchMerged 인허가일 기준과 데이터갱신일 기준 조회 결과를 합친다.
// 신규 개원과 기존 기관의 정보 변경을 한 번의 실행으로 모두 잡기 위함이며,
// 중복은 관리번호 기준으로 뒤의 값이 이긴다.
func (s *ingestionService) fetchMerged(ctx context.Context, facilityType, from, to string) ([]localdata.RawFacility, error) {
	byLicense, err := s.fetcher.FetchByLicenseDate(ctx, facilityType, from, to)
	if err != nil {
		return nil, err
	}

	byModified, err := s.fetcher.FetchByLastModified(ctx, facilityType, from, to)
	if err != nil {
		// 인허가일 조회가 성공했으면 그 결과만으로 진행한다.
		logger.Warn("Last-modified fetch failed, continuing with license-date rows", map[string]interface{}{
			"facility_type": facilityType,
			"error":         err.Error(),
		})
		return byLicense, nil
	}

	return append(byLicense, byModified...), nil
}

// RecentLogs 최근 수집 로그 조회
func (s *ingestionService) RecentLogs(limit int) ([]model.IngestionLog, error) {
	return s.logRepo.Recent(limit)
}

// opLog 운영 로그 한 건 기록. 기록 실패는 수집을 중단시키지 않는다.
func (s *ingestionService) opLog(runID string, level model.LogLevel, message string, details map[string]interface{}) {
	var detailsJSON string
	if details != nil {
		if encoded, err := json.Marshal(details); err == nil {
			detailsJSON = string(encoded)
		}
	}

	entry := &model.IngestionLog{
		JobName: ingestionJobName,
		RunID:   runID,
		Level:   level,
		Message: message,
		Details: detailsJSON,
	}
	if err := s.logRepo.Append(entry); err != nil {
		logger.Warn("Failed to append ingestion log", map[string]interface{}{
			"run_id": runID,
			"error":  err.Error(),
		})
	}
}

// invalidateRegionCache 수집으로 지역 집계가 바뀌었을 수 있으므로 캐시를 비운다.
// 실패해도 TTL이 지나면 갱신되므로 경고만 남긴다.
func (s *ingestionService) invalidateRegionCache(ctx context.Context, runID string) {
	if err := redis.Delete(ctx, regionCacheKey); err != nil {
		logger.Warn("Failed to invalidate region cache", map[string]interface{}{
			"run_id": runID,
			"error":  err.Error(),
		})
	}
}

// notifyFailure 실행 전체 실패 알림. 발송 실패도 삼킨다.
func (s *ingestionService) notifyFailure(ctx context.Context, summary *IngestionSummary) {
	if s.notifier == nil {
		return
	}
	message := fmt.Sprintf("수집 실행 %s 실패 (%s ~ %s)", summary.RunID, summary.WindowFrom, summary.WindowTo)
	if err := s.notifier.Notify(ctx, "의료기관 수집 실패", message); err != nil {
		logger.Warn("Failed to send ingestion failure notification", map[string]interface{}{
			"run_id": summary.RunID,
			"error":  err.Error(),
		})
	}
}

// uploadReport 실행 리포트 업로드 (best-effort)
func (s *ingestionService) uploadReport(ctx context.Context, summary *IngestionSummary) {
	if s.reports == nil {
		return
	}
	report, err := json.Marshal(summary)
	if err != nil {
		return
	}
	location, err := s.reports.UploadRunReport(ctx, summary.RunID, report)
	if err != nil {
		logger.Warn("Failed to upload ingestion run report", map[string]interface{}{
			"run_id": summary.RunID,
			"error":  err.Error(),
		})
		return
	}
	logger.Info("Uploaded ingestion run report", map[string]interface{}{
		"run_id":   summary.RunID,
		"location": location,
	})
}
