package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jaekim/medimap-backend/internal/app/model"
	"github.com/jaekim/medimap-backend/internal/app/repository"
	"github.com/jaekim/medimap-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupFacilityTest(t *testing.T) (*gorm.DB, FacilityService) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := repository.NewFacilityRepository(testDB)
	return testDB, NewFacilityService(repo, false)
}

func date(year, month, day int) *time.Time {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &d
}

func seedFacility(t *testing.T, testDB *gorm.DB, facility model.Facility) {
	t.Helper()
	require.NoError(t, testDB.Create(&facility).Error)
}

func seedFacilities(t *testing.T, testDB *gorm.DB) {
	t.Helper()
	seedFacility(t, testDB, model.Facility{
		ManagementNumber: "H-1",
		BusinessName:     "중앙병원",
		BusinessType:     "종합병원",
		LicenseDate:      date(2020, 1, 10),
		Phone:            "02-111-1111",
		RoadAddress:      "서울특별시 종로구 세종대로 1",
		Sido:             "서울",
		Gugun:            "종로",
	})
	seedFacility(t, testDB, model.Facility{
		ManagementNumber: "C-1",
		BusinessName:     "연세내과의원",
		BusinessType:     "의원",
		LicenseDate:      date(2024, 3, 15),
		Phone:            "02-222-2222",
		RoadAddress:      "서울특별시 강남구 테헤란로 123",
		Sido:             "서울",
		Gugun:            "강남",
		MedicalSubjects:  "내과",
	})
	seedFacility(t, testDB, model.Facility{
		ManagementNumber: "C-2",
		BusinessName:     "화이트치과의원",
		BusinessType:     "치과의원",
		LicenseDate:      date(2024, 3, 15),
		RoadAddress:      "부산광역시 해운대구 센텀로 45",
		Sido:             "부산",
		Gugun:            "해운대",
		MedicalSubjects:  "치과",
	})
	seedFacility(t, testDB, model.Facility{
		ManagementNumber: "P-1",
		BusinessName:     "온누리약국",
		BusinessType:     "약국",
		LicenseDate:      date(2023, 6, 1),
		Phone:            "051-333-3333",
		RoadAddress:      "부산광역시 해운대구 센텀로 46",
		Sido:             "부산",
		Gugun:            "해운대",
	})
	// 업태가 비어 있는 약국 행: 사업장명으로만 식별 가능
	seedFacility(t, testDB, model.Facility{
		ManagementNumber: "P-2",
		BusinessName:     "행복한약국",
		BusinessType:     "",
		LicenseDate:      date(2023, 7, 1),
		RoadAddress:      "서울특별시 강남구 역삼로 10",
		Sido:             "서울",
		Gugun:            "강남",
	})
}

func TestFacilityService_ListFacilities(t *testing.T) {
	testDB, svc := setupFacilityTest(t)
	defer db.CleanupTestDB(testDB)
	seedFacilities(t, testDB)

	page, err := svc.ListFacilities(FacilityCriteria{}, 1, 20)
	require.NoError(t, err)

	assert.Equal(t, int64(5), page.TotalCount)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Facilities, 5)

	// 최신 인허가일 우선, 같은 날짜는 관리번호 내림차순
	assert.Equal(t, "C-2", page.Facilities[0].ManagementNumber)
	assert.Equal(t, "C-1", page.Facilities[1].ManagementNumber)
	assert.Equal(t, "H-1", page.Facilities[4].ManagementNumber)
}

func TestFacilityService_ListFacilities_Pagination(t *testing.T) {
	testDB, svc := setupFacilityTest(t)
	defer db.CleanupTestDB(testDB)

	for i := 1; i <= 7; i++ {
		seedFacility(t, testDB, model.Facility{
			ManagementNumber: fmt.Sprintf("C-%02d", i),
			BusinessName:     fmt.Sprintf("의원%d", i),
			BusinessType:     "의원",
			LicenseDate:      date(2024, 3, i),
		})
	}

	page, err := svc.ListFacilities(FacilityCriteria{}, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Facilities, 3)

	// 마지막 페이지는 나머지 한 건
	page, err = svc.ListFacilities(FacilityCriteria{}, 3, 3)
	require.NoError(t, err)
	assert.Len(t, page.Facilities, 1)

	// 범위를 벗어난 페이지는 빈 목록과 정확한 건수를 돌려준다
	page, err = svc.ListFacilities(FacilityCriteria{}, 4, 3)
	require.NoError(t, err)
	assert.Empty(t, page.Facilities)
	assert.Equal(t, int64(7), page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
}

func TestFacilityService_ListFacilities_CategoryFilter(t *testing.T) {
	testDB, svc := setupFacilityTest(t)
	defer db.CleanupTestDB(testDB)
	seedFacilities(t, testDB)

	page, err := svc.ListFacilities(FacilityCriteria{Category: "병원"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, "중앙병원", page.Facilities[0].BusinessName)

	page, err = svc.ListFacilities(FacilityCriteria{Category: "의원"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)

	// 약국 필터는 업태가 빈 행도 사업장명으로 구제한다
	page, err = svc.ListFacilities(FacilityCriteria{Category: "약국"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
}

func TestFacilityService_ListFacilities_SpecialtyFallback(t *testing.T) {
	testDB, svc := setupFacilityTest(t)
	defer db.CleanupTestDB(testDB)
	seedFacilities(t, testDB)

	// 대분류가 아닌 값은 진료과목 부분 일치로 해석한다
	page, err := svc.ListFacilities(FacilityCriteria{Category: "내과"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, "연세내과의원", page.Facilities[0].BusinessName)
}

func TestFacilityService_ListFacilities_RegionFilter(t *testing.T) {
	testDB, svc := setupFacilityTest(t)
	defer db.CleanupTestDB(testDB)
	seedFacilities(t, testDB)

	page, err := svc.ListFacilities(FacilityCriteria{Sido: "부산"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)

	page, err = svc.ListFacilities(FacilityCriteria{Sido: "서울", Gugun: "강남"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)

	// "전체"는 필터 해제 센티널
	page, err = svc.ListFacilities(FacilityCriteria{Sido: AllRegions, Gugun: AllRegions}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.TotalCount)
}

func TestFacilityService_ListFacilities_KeywordAndContact(t *testing.T) {
	testDB, svc := setupFacilityTest(t)
	defer db.CleanupTestDB(testDB)
	seedFacilities(t, testDB)

	page, err := svc.ListFacilities(FacilityCriteria{Keyword: "약국"}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)

	page, err = svc.ListFacilities(FacilityCriteria{HasContact: true}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)

	// 조건은 AND로 결합된다
	page, err = svc.ListFacilities(FacilityCriteria{Keyword: "약국", HasContact: true}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalCount)
	assert.Equal(t, "온누리약국", page.Facilities[0].BusinessName)
}

func TestFacilityService_ListFacilities_DateRange(t *testing.T) {
	testDB, svc := setupFacilityTest(t)
	defer db.CleanupTestDB(testDB)
	seedFacilities(t, testDB)

	page, err := svc.ListFacilities(FacilityCriteria{
		DateFrom: date(2023, 1, 1),
		DateTo:   date(2023, 12, 31),
	}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
}

func TestFacilityService_ListFacilities_DateToInclusive(t *testing.T) {
	testDB, svc := setupFacilityTest(t)
	defer db.CleanupTestDB(testDB)

	// 원본 데이터의 인허가일이 타임스탬프로 와도 상한 당일 기관은 포함되어야 한다
	seedFacility(t, testDB, model.Facility{
		ManagementNumber: "C-1",
		BusinessName:     "늘푸른내과의원",
		BusinessType:     "의원",
		LicenseDate:      ParseDate("2025-05-29 11:07:55"),
	})

	page, err := svc.ListFacilities(FacilityCriteria{
		DateTo: ParseDate("2025-05-29"),
	}, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.TotalCount)
}

func TestFacilityService_GetFacilityByID(t *testing.T) {
	testDB, svc := setupFacilityTest(t)
	defer db.CleanupTestDB(testDB)
	seedFacilities(t, testDB)

	var seeded model.Facility
	require.NoError(t, testDB.Where("management_number = ?", "C-1").First(&seeded).Error)

	facility, err := svc.GetFacilityByID(seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "연세내과의원", facility.BusinessName)

	_, err = svc.GetFacilityByID(99999)
	assert.ErrorIs(t, err, ErrFacilityNotFound)
}

func TestFacilityService_ListRegions(t *testing.T) {
	testDB, svc := setupFacilityTest(t)
	defer db.CleanupTestDB(testDB)
	seedFacilities(t, testDB)

	regions, err := svc.ListRegions(context.Background())
	require.NoError(t, err)
	require.Len(t, regions, 3)

	assert.Equal(t, "부산", regions[0].Sido)
	assert.Equal(t, "해운대", regions[0].Gugun)
	assert.Equal(t, int64(2), regions[0].Count)
	assert.Equal(t, "서울", regions[1].Sido)
	assert.Equal(t, "강남", regions[1].Gugun)
}
