package service

import (
	"testing"
	"time"

	"github.com/jaekim/medimap-backend/pkg/localdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	expected := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	parsed := ParseDate("2024-03-15")
	require.NotNil(t, parsed)
	assert.Equal(t, expected, *parsed)

	parsed = ParseDate("20240315")
	require.NotNil(t, parsed)
	assert.Equal(t, expected, *parsed)

	// 타임스탬프 표기는 날짜까지만 남긴다
	parsed = ParseDate("2024-03-15 10:30:00")
	require.NotNil(t, parsed)
	assert.Equal(t, expected, *parsed)

	parsed = ParseDate("2025-05-29 11:07:55")
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC), *parsed)

	// 엑셀 내보내기에서 붙는 ".0" 접미사 허용
	parsed = ParseDate("20240315.0")
	require.NotNil(t, parsed)
	assert.Equal(t, expected, *parsed)
}

func TestParseTimestamp(t *testing.T) {
	parsed := ParseTimestamp("2025-05-29 11:07:55")
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2025, 5, 29, 11, 7, 55, 0, time.UTC), *parsed)

	// 시각이 없는 표기는 자정으로 읽힌다
	parsed = ParseTimestamp("2025-05-29")
	require.NotNil(t, parsed)
	assert.Equal(t, time.Date(2025, 5, 29, 0, 0, 0, 0, time.UTC), *parsed)

	assert.Nil(t, ParseTimestamp(""))
	assert.Nil(t, ParseTimestamp("미상"))
}

func TestParseDate_Invalid(t *testing.T) {
	assert.Nil(t, ParseDate(""))
	assert.Nil(t, ParseDate("   "))
	assert.Nil(t, ParseDate("미상"))
	assert.Nil(t, ParseDate("2024/03/15"))
}

func TestParseInt(t *testing.T) {
	n := ParseInt("15")
	require.NotNil(t, n)
	assert.Equal(t, 15, *n)

	// 실수 표기 정수 허용
	n = ParseInt("15.0")
	require.NotNil(t, n)
	assert.Equal(t, 15, *n)

	assert.Nil(t, ParseInt(""))
	assert.Nil(t, ParseInt("없음"))
}

func TestParseDecimal(t *testing.T) {
	f := ParseDecimal("123.45")
	require.NotNil(t, f)
	assert.Equal(t, 123.45, *f)

	assert.Nil(t, ParseDecimal(""))
	assert.Nil(t, ParseDecimal("면적"))
}

func TestSplitRegion(t *testing.T) {
	tests := []struct {
		address string
		sido    string
		gugun   string
	}{
		{"서울특별시 강남구 테헤란로 123", "서울", "강남"},
		{"부산광역시 해운대구 센텀로 45", "부산", "해운대"},
		{"세종특별자치시 한누리대로 2130", "세종", "한누리대로"},
		{"경기도 성남시 분당구 판교로 235", "경기도", "성남"},
		{"강원도 춘천시 중앙로 1", "강원도", "춘천"},
		{"서울특별시", "서울", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		sido, gugun := SplitRegion(tt.address)
		assert.Equal(t, tt.sido, sido, "address: %s", tt.address)
		assert.Equal(t, tt.gugun, gugun, "address: %s", tt.address)
	}
}

func TestBuildFacility(t *testing.T) {
	raw := localdata.RawFacility{
		ManagementNumber: " PHC-2024-001 ",
		ServiceName:      "의원",
		ServiceID:        "01_01_02_P",
		BusinessName:     "연세내과의원",
		BusinessType:     "의원",
		LicenseDate:      "2024-03-15",
		Phone:            "02-1234-5678",
		RoadAddress:      "서울특별시 강남구 테헤란로 123",
		BusinessStatus:   "영업/정상",
		StatusCode:       "01",
		BedCount:         "0",
		PersonnelCount:   "3.0",
	}

	facility, err := BuildFacility(raw)
	require.NoError(t, err)

	assert.Equal(t, "PHC-2024-001", facility.ManagementNumber)
	assert.Equal(t, "연세내과의원", facility.BusinessName)
	assert.Equal(t, "서울", facility.Sido)
	assert.Equal(t, "강남", facility.Gugun)
	assert.Equal(t, "내과", facility.MedicalSubjects)
	require.NotNil(t, facility.LicenseDate)
	assert.Equal(t, 2024, facility.LicenseDate.Year())
	require.NotNil(t, facility.PersonnelCount)
	assert.Equal(t, 3, *facility.PersonnelCount)
}

func TestBuildFacility_MissingManagementNumber(t *testing.T) {
	_, err := BuildFacility(localdata.RawFacility{BusinessName: "연세내과의원"})
	assert.ErrorIs(t, err, ErrMissingManagementNumber)

	_, err = BuildFacility(localdata.RawFacility{ManagementNumber: "   "})
	assert.ErrorIs(t, err, ErrMissingManagementNumber)
}

func TestBuildFacilities_DedupAndReject(t *testing.T) {
	raws := []localdata.RawFacility{
		{ManagementNumber: "A-1", BusinessName: "첫번째약국"},
		{BusinessName: "관리번호없음"},
		{ManagementNumber: "A-2", BusinessName: "연세내과의원"},
		// 같은 관리번호는 마지막 행이 남는다
		{ManagementNumber: "A-1", BusinessName: "갱신된약국"},
	}

	facilities, rejected := BuildFacilities(raws)
	require.Len(t, facilities, 2)
	assert.Equal(t, 1, rejected)
	assert.Equal(t, "갱신된약국", facilities[0].BusinessName)
	assert.Equal(t, "A-2", facilities[1].ManagementNumber)
}
