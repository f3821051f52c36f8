package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jaekim/medimap-backend/internal/app/model"
	"github.com/jaekim/medimap-backend/pkg/localdata"
)

var ErrMissingManagementNumber = errors.New("관리번호가 없는 데이터입니다")

// dateLayouts 정부 데이터에 섞여 들어오는 날짜 표기들.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"20060102",
}

// ParseDate parses the date formats found in open-data feeds. Excel exports
// sometimes carry a trailing ".0" on compact dates; that suffix is stripped
// before matching. Timestamp values are truncated to the calendar date so
// stored dates compare cleanly against midnight range bounds.
// Returns nil for blank or unparseable input.
func ParseDate(s string) *time.Time {
	t := ParseTimestamp(s)
	if t == nil {
		return nil
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

// ParseTimestamp parses the same formats as ParseDate but keeps the time of
// day when the source carries one. Returns nil for blank or unparseable input.
func ParseTimestamp(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasSuffix(s, ".0") {
		s = strings.TrimSuffix(s, ".0")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ParseInt parses an integer field, tolerating decimal notation like "15.0".
// Returns nil for blank or unparseable input.
func ParseInt(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}

// ParseDecimal parses a floating-point field. Returns nil for blank or
// unparseable input.
func ParseDecimal(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return &f
	}
	return nil
}

// 행정구역 표기 정규화용 접미사. 긴 것부터 떼어낸다.
var (
	sidoSuffixes  = []string{"특별자치시", "특별시", "광역시"}
	gugunSuffixes = []string{"구", "시", "군"}
)

func stripSuffix(token string, suffixes []string) string {
	for _, suffix := range suffixes {
		trimmed := strings.TrimSuffix(token, suffix)
		if trimmed != token && trimmed != "" {
			return trimmed
		}
	}
	return token
}

// SplitRegion derives (시도, 구군) display tokens from a road address.
// Administrative suffixes are stripped so "서울특별시"는 "서울"로,
// "강남구"는 "강남"으로 정규화된다.
func SplitRegion(roadAddress string) (sido, gugun string) {
	fields := strings.Fields(strings.TrimSpace(roadAddress))
	if len(fields) == 0 {
		return "", ""
	}
	sido = stripSuffix(fields[0], sidoSuffixes)
	if len(fields) > 1 {
		gugun = stripSuffix(fields[1], gugunSuffixes)
	}
	return sido, gugun
}

// BuildFacility converts one raw open-data row into a Facility record.
// Rows without a management number cannot be upserted and are rejected;
// every other field is optional and parsed best-effort.
func BuildFacility(raw localdata.RawFacility) (*model.Facility, error) {
	mgtNo := strings.TrimSpace(raw.ManagementNumber)
	if mgtNo == "" {
		return nil, ErrMissingManagementNumber
	}

	sido, gugun := SplitRegion(raw.RoadAddress)
	subjects := ClassifySpecialties(raw.BusinessName, raw.BusinessType)

	facility := &model.Facility{
		ManagementNumber:   mgtNo,
		ServiceName:        strings.TrimSpace(raw.ServiceName),
		ServiceID:          strings.TrimSpace(raw.ServiceID),
		BusinessName:       strings.TrimSpace(raw.BusinessName),
		BusinessType:       strings.TrimSpace(raw.BusinessType),
		LicenseDate:        ParseDate(raw.LicenseDate),
		Phone:              strings.TrimSpace(raw.Phone),
		RoadAddress:        strings.TrimSpace(raw.RoadAddress),
		Sido:               sido,
		Gugun:              gugun,
		MedicalSubjects:    JoinSpecialties(subjects),
		BedCount:           ParseInt(raw.BedCount),
		PersonnelCount:     ParseInt(raw.PersonnelCount),
		RoomCount:          ParseInt(raw.RoomCount),
		TotalArea:          ParseDecimal(raw.TotalArea),
		BusinessStatus:     strings.TrimSpace(raw.BusinessStatus),
		BusinessStatusCode: strings.TrimSpace(raw.StatusCode),
		DataUpdateType:     strings.TrimSpace(raw.UpdateType),
		DataUpdateDate:     ParseDate(raw.UpdateDate),
		LastModifiedTime:   ParseTimestamp(raw.LastModified),
	}
	return facility, nil
}

// BuildFacilities converts a raw batch, dropping rejected rows and
// deduplicating by management number (last occurrence wins).
func BuildFacilities(raws []localdata.RawFacility) (facilities []*model.Facility, rejected int) {
	index := make(map[string]int)
	for _, raw := range raws {
		f, err := BuildFacility(raw)
		if err != nil {
			rejected++
			continue
		}
		if i, ok := index[f.ManagementNumber]; ok {
			facilities[i] = f
			continue
		}
		index[f.ManagementNumber] = len(facilities)
		facilities = append(facilities, f)
	}
	return facilities, rejected
}
