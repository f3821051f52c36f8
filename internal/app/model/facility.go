package model

import (
	"time"
)

// FacilityType 의료기관 유형 (정부 개방서비스 단위)
type FacilityType string

const (
	FacilityHospital FacilityType = "병원" // 병원
	FacilityClinic   FacilityType = "의원" // 의원
	FacilityPharmacy FacilityType = "약국" // 약국
)

// FacilityTypes 수집 대상 의료기관 유형 (순차 처리 순서)
func FacilityTypes() []FacilityType {
	return []FacilityType{FacilityHospital, FacilityClinic, FacilityPharmacy}
}

// CoarseCategory UI 상단 그룹핑용 대분류
type CoarseCategory string

const (
	CategoryHospital CoarseCategory = "병원" // 병원
	CategoryClinic   CoarseCategory = "의원" // 의원 (보건소, 조산원 포함)
	CategoryPharmacy CoarseCategory = "약국" // 약국
	CategoryOther    CoarseCategory = "기타" // 그 외
)

// Facility 의료기관 정보
// 관리번호(ManagementNumber)가 자연키이며, 재수집 시 같은 관리번호의
// 행은 항상 업서트로 병합된다. 폐업은 상태 필드로 표현하고 행은 삭제하지 않는다.
type Facility struct {
	ID               uint       `gorm:"primarykey" json:"id"`                            // 고유 ID
	ManagementNumber string     `gorm:"uniqueIndex;not null" json:"management_number"`   // 관리번호 (정부 발급, 자연키)
	ServiceName      string     `gorm:"type:varchar(50);index" json:"service_name"`      // 개방서비스명 (병원/의원/약국)
	ServiceID        string     `gorm:"type:varchar(30)" json:"service_id"`              // 개방서비스 ID
	BusinessName     string     `gorm:"index" json:"business_name"`                      // 사업장명
	BusinessType     string     `gorm:"type:varchar(100);index" json:"business_type"`    // 업태구분명 (예: 치과의원, 종합병원)
	LicenseDate      *time.Time `gorm:"index" json:"license_date"`                       // 인허가일 (개원일)
	Phone            string     `gorm:"type:varchar(30)" json:"phone"`                   // 전화번호
	RoadAddress      string     `gorm:"type:text" json:"road_address"`                   // 도로명주소 전체
	Sido             string     `gorm:"type:varchar(30);index" json:"sido"`              // 시·도 (주소 첫 토큰, 접미사 제거)
	Gugun            string     `gorm:"type:varchar(30);index" json:"gugun"`             // 구·군 (주소 둘째 토큰, 접미사 제거)
	MedicalSubjects  string     `gorm:"column:medical_subject_names;type:text" json:"medical_subject_names"` // 진료과목 (쉼표 구분)

	// 운영 규모 필드 (정보성, 필터링에는 사용하지 않음)
	BedCount       *int     `json:"bed_count,omitempty"`       // 병상 수
	PersonnelCount *int     `json:"personnel_count,omitempty"` // 의료인 수
	RoomCount      *int     `json:"room_count,omitempty"`      // 진료실 수
	TotalArea      *float64 `json:"total_area,omitempty"`      // 시설 면적 (㎡)

	BusinessStatus     string `gorm:"type:varchar(30)" json:"business_status"`      // 영업상태명
	BusinessStatusCode string `gorm:"type:varchar(10)" json:"business_status_code"` // 영업상태 코드

	// 수집 감사 필드 (수집기만 기록)
	DataUpdateType   string     `gorm:"type:varchar(5)" json:"data_update_type"` // 데이터갱신구분 (I/U)
	DataUpdateDate   *time.Time `json:"data_update_date"`                        // 데이터갱신일
	LastModifiedTime *time.Time `json:"last_modified_time"`                      // 최종수정시각

	CreatedAt time.Time `json:"created_at"` // 생성 시각
	UpdatedAt time.Time `json:"updated_at"` // 수정 시각
}

func (Facility) TableName() string {
	return "facilities"
}

// FacilityResponse API 응답용 의료기관 정보
type FacilityResponse struct {
	ID               uint   `json:"id"`
	ManagementNumber string `json:"management_number"`
	BusinessName     string `json:"business_name"`
	BusinessType     string `json:"business_type,omitempty"`
	Category         string `json:"category"`     // 대분류 (병원/의원/약국/기타)
	LicenseDate      string `json:"license_date"` // YYYY-MM-DD, 없으면 빈 문자열
	Phone            string `json:"phone,omitempty"`
	RoadAddress      string `json:"road_address,omitempty"`
	Sido             string `json:"sido,omitempty"`
	Gugun            string `json:"gugun,omitempty"`
	MedicalSubjects  string `json:"medical_subject_names,omitempty"`
}

// RegionCount 지역별 의료기관 수 집계
type RegionCount struct {
	Sido  string `json:"sido"`
	Gugun string `json:"gugun"`
	Count int64  `json:"count"`
}
