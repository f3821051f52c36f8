package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jaekim/medimap-backend/internal/app/service"
	apperrors "github.com/jaekim/medimap-backend/internal/errors"
	"github.com/jaekim/medimap-backend/internal/middleware"
)

type FacilityController struct {
	facilityService service.FacilityService
}

func NewFacilityController(facilityService service.FacilityService) *FacilityController {
	return &FacilityController{facilityService: facilityService}
}

// ListFacilities 의료기관 목록 조회
// GET /api/v1/facilities
//
// 쿼리 파라미터:
//
//	date_from, date_to: 인허가일 범위 (YYYY-MM-DD)
//	category: 대분류(병원/의원/약국) 또는 진료과목명
//	keyword: 사업장명 검색어
//	has_contact: true면 전화번호 보유 기관만
//	sido, gugun: 지역 ("전체"는 미적용)
//	page, page_size: 페이지네이션
func (ctrl *FacilityController) ListFacilities(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	criteria := service.FacilityCriteria{
		Category:   c.Query("category"),
		Keyword:    c.Query("keyword"),
		HasContact: strings.EqualFold(c.DefaultQuery("has_contact", "false"), "true"),
		Sido:       c.Query("sido"),
		Gugun:      c.Query("gugun"),
	}

	if from := c.Query("date_from"); from != "" {
		parsed := service.ParseDate(from)
		if parsed == nil {
			apperrors.BadRequest(c, apperrors.FacilityInvalidDate, "날짜 형식이 올바르지 않습니다 (YYYY-MM-DD)")
			return
		}
		criteria.DateFrom = parsed
	}
	if to := c.Query("date_to"); to != "" {
		parsed := service.ParseDate(to)
		if parsed == nil {
			apperrors.BadRequest(c, apperrors.FacilityInvalidDate, "날짜 형식이 올바르지 않습니다 (YYYY-MM-DD)")
			return
		}
		criteria.DateTo = parsed
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := ctrl.facilityService.ListFacilities(criteria, page, pageSize)
	if err != nil {
		log.Error("Failed to list facilities", err, map[string]interface{}{
			"category": criteria.Category,
			"keyword":  criteria.Keyword,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "facility")
		return
	}

	log.Info("Facilities listed", map[string]interface{}{
		"count":       len(result.Facilities),
		"total_count": result.TotalCount,
		"page":        result.Page,
	})

	c.JSON(http.StatusOK, result)
}

// GetFacilityByID 의료기관 상세 조회
// GET /api/v1/facilities/:id
func (ctrl *FacilityController) GetFacilityByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		log.Warn("Invalid facility ID", map[string]interface{}{
			"facility_id": idStr,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "잘못된 의료기관 ID입니다")
		return
	}

	facility, err := ctrl.facilityService.GetFacilityByID(uint(id))
	if err != nil {
		if errors.Is(err, service.ErrFacilityNotFound) {
			log.Warn("Facility not found", map[string]interface{}{
				"facility_id": id,
			})
			apperrors.NotFound(c, apperrors.FacilityNotFound, "의료기관을 찾을 수 없습니다")
			return
		}
		log.Error("Failed to fetch facility", err, map[string]interface{}{
			"facility_id": id,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "facility")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"facility": facility,
	})
}

// ListRegions 시·도/구·군별 의료기관 수 집계
// GET /api/v1/facilities/regions
func (ctrl *FacilityController) ListRegions(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	regions, err := ctrl.facilityService.ListRegions(c.Request.Context())
	if err != nil {
		log.Error("Failed to list regions", err, nil)
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "facility")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"regions": regions,
		"count":   len(regions),
	})
}
