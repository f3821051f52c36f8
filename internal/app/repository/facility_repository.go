package repository

import (
	"time"

	"github.com/jaekim/medimap-backend/internal/app/model"
	"github.com/jaekim/medimap-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FacilityFilter 의료기관 목록 조회 조건. 모든 조건은 AND로 결합된다.
type FacilityFilter struct {
	LicenseDateFrom *time.Time // 인허가일 하한 (포함)
	LicenseDateTo   *time.Time // 인허가일 상한 (포함)
	BusinessTypes   []string   // 업태구분명 IN 목록 (대분류 전개 결과)
	NameKeywords    []string   // 사업장명 키워드 (업태 IN과 OR로 결합)
	Specialty       string     // 진료과목 부분 일치
	Keyword         string     // 사업장명 검색어
	HasContact      bool       // 전화번호 보유 여부
	Sido            string     // 시·도 (도로명주소 부분 일치)
	Gugun           string     // 구·군 (도로명주소 부분 일치)
}

// FacilityRepository 의료기관 저장소 인터페이스
type FacilityRepository interface {
	Upsert(facility *model.Facility) error
	UpsertBatch(facilities []*model.Facility) (int64, error)
	FindWithFilter(filter FacilityFilter, limit, offset int) ([]model.Facility, error)
	Count(filter FacilityFilter) (int64, error)
	FindByID(id uint) (*model.Facility, error)
	FindByManagementNumber(managementNumber string) (*model.Facility, error)
	ListRegions() ([]model.RegionCount, error)
}

type facilityRepository struct {
	db *gorm.DB
}

// NewFacilityRepository 의료기관 저장소 생성
func NewFacilityRepository(db *gorm.DB) FacilityRepository {
	return &facilityRepository{db: db}
}

// upsertColumns 재수집 시 최신 값으로 덮어쓰는 컬럼 목록.
// created_at과 관리번호 자체는 갱신하지 않는다.
var upsertColumns = []string{
	"service_name", "service_id", "business_name", "business_type",
	"license_date", "phone", "road_address", "sido", "gugun",
	"medical_subject_names", "bed_count", "personnel_count", "room_count",
	"total_area", "business_status", "business_status_code",
	"data_update_type", "data_update_date", "last_modified_time", "updated_at",
}

// Upsert 관리번호 기준으로 삽입 또는 갱신
func (r *facilityRepository) Upsert(facility *model.Facility) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "management_number"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(facility).Error; err != nil {
		logger.Error("Failed to upsert facility", err, map[string]interface{}{
			"management_number": facility.ManagementNumber,
		})
		return err
	}
	return nil
}

// UpsertBatch 의료기관 일괄 업서트. 반영된 행 수를 반환한다.
func (r *facilityRepository) UpsertBatch(facilities []*model.Facility) (int64, error) {
	if len(facilities) == 0 {
		return 0, nil
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "management_number"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).CreateInBatches(facilities, 200)
	if result.Error != nil {
		logger.Error("Failed to upsert facility batch", result.Error, map[string]interface{}{
			"count": len(facilities),
		})
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// applyFilter 목록 조회와 건수 조회가 공유하는 조건 조립.
// 두 쿼리의 조건이 갈라지면 페이지 수 계산이 어긋난다.
func (r *facilityRepository) applyFilter(query *gorm.DB, filter FacilityFilter) *gorm.DB {
	if filter.LicenseDateFrom != nil {
		query = query.Where("license_date >= ?", *filter.LicenseDateFrom)
	}
	if filter.LicenseDateTo != nil {
		query = query.Where("license_date <= ?", *filter.LicenseDateTo)
	}

	if len(filter.BusinessTypes) > 0 {
		if len(filter.NameKeywords) > 0 {
			// 업태가 비어 있는 행은 사업장명 키워드로 구제한다.
			orClause := r.db.Where("business_type IN ?", filter.BusinessTypes)
			for _, keyword := range filter.NameKeywords {
				orClause = orClause.Or("business_name LIKE ?", "%"+keyword+"%")
			}
			query = query.Where(orClause)
		} else {
			query = query.Where("business_type IN ?", filter.BusinessTypes)
		}
	}
	if filter.Specialty != "" {
		query = query.Where("medical_subject_names LIKE ?", "%"+filter.Specialty+"%")
	}
	if filter.Keyword != "" {
		query = query.Where("business_name LIKE ?", "%"+filter.Keyword+"%")
	}
	if filter.HasContact {
		query = query.Where("phone IS NOT NULL AND phone <> ''")
	}
	if filter.Sido != "" {
		query = query.Where("road_address LIKE ?", "%"+filter.Sido+"%")
	}
	if filter.Gugun != "" {
		query = query.Where("road_address LIKE ?", "%"+filter.Gugun+"%")
	}
	return query
}

// FindWithFilter 조건에 맞는 의료기관 목록 조회.
// 최신 개원 순 정렬이며, 같은 날짜는 관리번호로 순서를 고정해
// 페이지 경계에서 행이 중복되거나 빠지지 않게 한다.
func (r *facilityRepository) FindWithFilter(filter FacilityFilter, limit, offset int) ([]model.Facility, error) {
	query := r.applyFilter(r.db.Model(&model.Facility{}), filter)

	var facilities []model.Facility
	if err := query.
		Order("license_date DESC").
		Order("management_number DESC").
		Limit(limit).
		Offset(offset).
		Find(&facilities).Error; err != nil {
		logger.Error("Failed to find facilities", err, map[string]interface{}{
			"keyword": filter.Keyword,
		})
		return nil, err
	}
	return facilities, nil
}

// Count 조건에 맞는 의료기관 건수 조회
func (r *facilityRepository) Count(filter FacilityFilter) (int64, error) {
	var count int64
	query := r.applyFilter(r.db.Model(&model.Facility{}), filter)
	if err := query.Count(&count).Error; err != nil {
		logger.Error("Failed to count facilities", err)
		return 0, err
	}
	return count, nil
}

// FindByID ID로 의료기관 조회
func (r *facilityRepository) FindByID(id uint) (*model.Facility, error) {
	var facility model.Facility
	if err := r.db.First(&facility, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.Error("Failed to find facility by ID", err, map[string]interface{}{
			"facility_id": id,
		})
		return nil, err
	}
	return &facility, nil
}

// FindByManagementNumber 관리번호로 의료기관 조회
func (r *facilityRepository) FindByManagementNumber(managementNumber string) (*model.Facility, error) {
	var facility model.Facility
	if err := r.db.Where("management_number = ?", managementNumber).
		First(&facility).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		logger.Error("Failed to find facility by management number", err, map[string]interface{}{
			"management_number": managementNumber,
		})
		return nil, err
	}
	return &facility, nil
}

// ListRegions 시·도/구·군별 의료기관 수 집계
func (r *facilityRepository) ListRegions() ([]model.RegionCount, error) {
	var regions []model.RegionCount
	if err := r.db.Model(&model.Facility{}).
		Select("sido, gugun, COUNT(*) as count").
		Where("sido <> ''").
		Group("sido, gugun").
		Order("sido ASC, gugun ASC").
		Scan(&regions).Error; err != nil {
		logger.Error("Failed to list facility regions", err)
		return nil, err
	}
	return regions, nil
}
