package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaekim/medimap-backend/internal/app/service"
	apperrors "github.com/jaekim/medimap-backend/internal/errors"
	"github.com/jaekim/medimap-backend/internal/middleware"
	"github.com/jaekim/medimap-backend/internal/storage"
)

// ReportURLGenerator 보관된 수집 리포트의 다운로드 URL 발급 인터페이스.
// *storage.S3Storage가 구현한다.
type ReportURLGenerator interface {
	GenerateReportURL(ctx context.Context, key string) (*storage.ReportURLResponse, error)
}

type IngestionController struct {
	ingestionService service.IngestionService
	reports          ReportURLGenerator
}

// NewIngestionController 수집 컨트롤러 생성. reports는 선택 의존성이며
// nil이면 리포트 URL 발급 엔드포인트가 503을 반환한다.
func NewIngestionController(ingestionService service.IngestionService, reports ReportURLGenerator) *IngestionController {
	return &IngestionController{
		ingestionService: ingestionService,
		reports:          reports,
	}
}

type RunIngestionRequest struct {
	From string `json:"from"` // YYYY-MM-DD, 비우면 어제
	To   string `json:"to"`   // YYYY-MM-DD, 비우면 오늘
}

// RunIngestion 수집 수동 실행 (관리자 전용)
// POST /api/v1/admin/ingestion/run
func (ctrl *IngestionController) RunIngestion(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RunIngestionRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		log.Warn("Invalid ingestion run request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	window := service.DefaultWindow(time.Now())
	if req.From != "" {
		parsed := service.ParseDate(req.From)
		if parsed == nil {
			apperrors.BadRequest(c, apperrors.IngestionInvalidWindow, "시작일 형식이 올바르지 않습니다 (YYYY-MM-DD)")
			return
		}
		window.From = *parsed
	}
	if req.To != "" {
		parsed := service.ParseDate(req.To)
		if parsed == nil {
			apperrors.BadRequest(c, apperrors.IngestionInvalidWindow, "종료일 형식이 올바르지 않습니다 (YYYY-MM-DD)")
			return
		}
		window.To = *parsed
	}
	if window.To.Before(window.From) {
		apperrors.BadRequest(c, apperrors.IngestionInvalidWindow, "종료일이 시작일보다 앞설 수 없습니다")
		return
	}

	summary, err := ctrl.ingestionService.Run(c.Request.Context(), window)
	if err != nil {
		if errors.Is(err, service.ErrAllTypesFailed) {
			log.Error("Ingestion run failed for all facility types", err, map[string]interface{}{
				"run_id": summary.RunID,
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.IngestionRunFailed, "데이터 수집에 실패했습니다")
			return
		}
		log.Error("Ingestion run failed", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "ingestion")
		return
	}

	log.Info("Ingestion run completed", map[string]interface{}{
		"run_id":       summary.RunID,
		"failed_types": summary.FailedTypes,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Ingestion run completed",
		"summary": summary,
	})
}

// ListLogs 최근 수집 로그 조회 (관리자 전용)
// GET /api/v1/admin/ingestion/logs
func (ctrl *IngestionController) ListLogs(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	logs, err := ctrl.ingestionService.RecentLogs(limit)
	if err != nil {
		log.Error("Failed to list ingestion logs", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "ingestion")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// GetReportURL 보관된 수집 리포트의 임시 다운로드 URL 발급 (관리자 전용)
// GET /api/v1/admin/ingestion/report?key=ingestion-reports/...
func (ctrl *IngestionController) GetReportURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.reports == nil {
		apperrors.RespondWithError(c, http.StatusServiceUnavailable, apperrors.IngestionReportUnavailable, "리포트 저장소가 설정되지 않았습니다")
		return
	}

	key := c.Query("key")
	// 리포트 프리픽스 밖의 오브젝트는 발급 대상이 아니다.
	if !strings.HasPrefix(key, "ingestion-reports/") {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "리포트 키가 올바르지 않습니다")
		return
	}

	resp, err := ctrl.reports.GenerateReportURL(c.Request.Context(), key)
	if err != nil {
		log.Error("Failed to generate report download URL", err, map[string]interface{}{
			"key": key,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "ingestion")
		return
	}

	c.JSON(http.StatusOK, resp)
}
