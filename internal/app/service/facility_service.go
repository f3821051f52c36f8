package service

import (
	"context"
	"errors"
	"time"

	"github.com/jaekim/medimap-backend/internal/app/model"
	"github.com/jaekim/medimap-backend/internal/app/repository"
	"github.com/jaekim/medimap-backend/pkg/logger"
	"github.com/jaekim/medimap-backend/pkg/redis"
)

var ErrFacilityNotFound = errors.New("의료기관을 찾을 수 없습니다")

const (
	// AllRegions 지역 필터 해제 센티널
	AllRegions = "전체"

	defaultPageSize = 20
	maxPageSize     = 100

	regionCacheKey = "facilities:regions"
	regionCacheTTL = 10 * time.Minute
)

// FacilityCriteria 의료기관 검색 조건. 빈 값은 해당 조건을 적용하지 않는다.
type FacilityCriteria struct {
	DateFrom   *time.Time // 인허가일 하한
	DateTo     *time.Time // 인허가일 상한
	Category   string     // 대분류(병원/의원/약국) 또는 진료과목명
	Keyword    string     // 사업장명 검색어
	HasContact bool       // 전화번호 보유만
	Sido       string     // 시·도 ("전체"면 미적용)
	Gugun      string     // 구·군 ("전체"면 미적용)
}

// FacilityPage 페이지 단위 검색 결과
type FacilityPage struct {
	Facilities []model.FacilityResponse `json:"facilities"`
	TotalCount int64                    `json:"total_count"`
	TotalPages int                      `json:"total_pages"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
}

// FacilityService 의료기관 조회 서비스 인터페이스
type FacilityService interface {
	ListFacilities(criteria FacilityCriteria, page, pageSize int) (*FacilityPage, error)
	GetFacilityByID(id uint) (*model.Facility, error)
	ListRegions(ctx context.Context) ([]model.RegionCount, error)
}

type facilityService struct {
	repo    repository.FacilityRepository
	cacheOn bool
}

// NewFacilityService 의료기관 조회 서비스 생성. useCache가 참이면
// 지역 집계를 Redis에 캐싱한다.
func NewFacilityService(repo repository.FacilityRepository, useCache bool) FacilityService {
	return &facilityService{repo: repo, cacheOn: useCache}
}

// buildFilter 검색 조건을 저장소 필터로 변환
func buildFilter(criteria FacilityCriteria) repository.FacilityFilter {
	filter := repository.FacilityFilter{
		LicenseDateFrom: criteria.DateFrom,
		LicenseDateTo:   criteria.DateTo,
		Keyword:         criteria.Keyword,
		HasContact:      criteria.HasContact,
	}

	// 대분류는 업태 IN 목록으로 전개하고, 그 외 비어 있지 않은 값은
	// 진료과목 부분 일치로 본다.
	if criteria.Category != "" && criteria.Category != AllRegions {
		if types := BusinessTypesForCategory(model.CoarseCategory(criteria.Category)); types != nil {
			filter.BusinessTypes = types
			if criteria.Category == string(model.CategoryPharmacy) {
				// 업태가 비어 있는 약국 행은 사업장명으로 구제한다.
				filter.NameKeywords = []string{"약국"}
			}
		} else {
			filter.Specialty = criteria.Category
		}
	}

	if criteria.Sido != "" && criteria.Sido != AllRegions {
		filter.Sido = criteria.Sido
	}
	if criteria.Gugun != "" && criteria.Gugun != AllRegions {
		filter.Gugun = criteria.Gugun
	}
	return filter
}

// ListFacilities 조건 검색 + 페이지네이션.
// 범위를 벗어난 페이지 요청은 에러 대신 빈 목록과 정확한 건수를 돌려준다.
func (s *facilityService) ListFacilities(criteria FacilityCriteria, page, pageSize int) (*FacilityPage, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page <= 0 {
		page = 1
	}

	filter := buildFilter(criteria)

	totalCount, err := s.repo.Count(filter)
	if err != nil {
		logger.Error("Failed to count facilities", err)
		return nil, err
	}

	totalPages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	result := &FacilityPage{
		Facilities: []model.FacilityResponse{},
		TotalCount: totalCount,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
	}

	if totalCount == 0 || page > totalPages {
		return result, nil
	}

	offset := (page - 1) * pageSize
	facilities, err := s.repo.FindWithFilter(filter, pageSize, offset)
	if err != nil {
		logger.Error("Failed to list facilities", err)
		return nil, err
	}

	for _, facility := range facilities {
		result.Facilities = append(result.Facilities, toFacilityResponse(facility))
	}
	return result, nil
}

// GetFacilityByID ID로 의료기관 상세 조회
func (s *facilityService) GetFacilityByID(id uint) (*model.Facility, error) {
	facility, err := s.repo.FindByID(id)
	if err != nil {
		return nil, err
	}
	if facility == nil {
		return nil, ErrFacilityNotFound
	}
	return facility, nil
}

// ListRegions 시·도/구·군별 의료기관 수 집계. 집계는 수집 주기에만
// 바뀌므로 짧은 TTL의 캐시로 충분하다.
func (s *facilityService) ListRegions(ctx context.Context) ([]model.RegionCount, error) {
	if s.cacheOn {
		var cached []model.RegionCount
		if hit, err := redis.GetJSON(ctx, regionCacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	regions, err := s.repo.ListRegions()
	if err != nil {
		logger.Error("Failed to list regions", err)
		return nil, err
	}

	if s.cacheOn {
		if err := redis.SetJSON(ctx, regionCacheKey, regions, regionCacheTTL); err != nil {
			logger.Warn("Failed to cache region counts", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return regions, nil
}

// toFacilityResponse 저장 모델을 API 응답 형태로 변환
func toFacilityResponse(facility model.Facility) model.FacilityResponse {
	licenseDate := ""
	if facility.LicenseDate != nil {
		licenseDate = facility.LicenseDate.Format("2006-01-02")
	}
	return model.FacilityResponse{
		ID:               facility.ID,
		ManagementNumber: facility.ManagementNumber,
		BusinessName:     facility.BusinessName,
		BusinessType:     facility.BusinessType,
		Category:         string(MapCategory(facility.BusinessType, facility.BusinessName)),
		LicenseDate:      licenseDate,
		Phone:            facility.Phone,
		RoadAddress:      facility.RoadAddress,
		Sido:             facility.Sido,
		Gugun:            facility.Gugun,
		MedicalSubjects:  facility.MedicalSubjects,
	}
}
