package service

import (
	"strings"

	"github.com/jaekim/medimap-backend/internal/app/model"
)

// subjectOverrides 업태구분명이 정확히 일치하면 키워드 탐색 없이
// 해당 진료과목 하나로 확정한다.
var subjectOverrides = map[string]string{
	"치과의원": "치과",
	"치과병원": "치과",
	"한의원":  "한의학",
	"한방병원": "한의학",
}

// subjectKeyword 진료과목 추론용 키워드 사전의 한 항목.
// 맵 대신 슬라이스를 쓰는 이유는 결과 순서를 고정하기 위해서다.
type subjectKeyword struct {
	Subject  string
	Keywords []string
}

// subjectKeywords 사업장명에 포함된 키워드로 진료과목을 추론한다.
// 한 사업장명이 여러 과목에 걸릴 수 있다 (예: "OO내과소아과의원").
var subjectKeywords = []subjectKeyword{
	{"내과", []string{"내과"}},
	{"소아청소년과", []string{"소아", "소아청소년", "소아과"}},
	{"정형외과", []string{"정형외과", "정형"}},
	{"피부과", []string{"피부과", "피부"}},
	{"이비인후과", []string{"이비인후과", "이비"}},
	{"안과", []string{"안과"}},
	{"비뇨기과", []string{"비뇨기과", "비뇨"}},
	{"산부인과", []string{"산부인과", "산부", "여성의원"}},
	{"정신건강의학과", []string{"정신과", "정신건강", "정신"}},
	{"재활의학과", []string{"재활의학과", "재활"}},
	{"가정의학과", []string{"가정의학과", "가정"}},
	{"신경외과", []string{"신경외과"}},
	{"신경과", []string{"신경과"}},
	{"성형외과", []string{"성형외과", "성형"}},
	{"외과", []string{"외과"}},
	{"마취통증의학과", []string{"마취통증", "통증의학과", "통증"}},
	{"치과", []string{"치과"}},
	{"한의학", []string{"한의원", "한방"}},
}

// ClassifySpecialties infers the ordered set of medical specialties for a
// facility from its business type and name. An empty result is valid
// (pharmacies, general hospitals without a specialty in the name).
func ClassifySpecialties(businessName, businessType string) []string {
	businessType = strings.TrimSpace(businessType)
	businessName = strings.TrimSpace(businessName)

	// Override table is authoritative and short-circuits keyword matching.
	if subject, ok := subjectOverrides[businessType]; ok {
		return []string{subject}
	}

	if businessName == "" {
		return nil
	}

	var found []string
	seen := make(map[string]bool)
	for _, entry := range subjectKeywords {
		for _, keyword := range entry.Keywords {
			if strings.Contains(businessName, keyword) {
				if !seen[entry.Subject] {
					seen[entry.Subject] = true
					found = append(found, entry.Subject)
				}
				break
			}
		}
	}

	if len(found) > 0 {
		return found
	}

	// 업태 정보가 없으면 사업장명의 병원/의원 힌트로라도 분류한다.
	if businessType == "" || businessType == string(model.FacilityClinic) {
		if strings.Contains(businessName, "의원") {
			return []string{"일반의원"}
		}
	}

	return nil
}

// JoinSpecialties renders a specialty list as the comma-joined storage form.
func JoinSpecialties(subjects []string) string {
	return strings.Join(subjects, ", ")
}

// knownBusinessTypes 대분류별 원본 업태구분명 목록. 대분류 필터를
// 업태 IN 조건으로 펼칠 때 사용한다.
var knownBusinessTypes = map[model.CoarseCategory][]string{
	model.CategoryHospital: {"종합병원", "병원", "요양병원", "정신병원", "한방병원", "치과병원"},
	model.CategoryClinic:   {"의원", "치과의원", "한의원", "보건소", "보건지소", "보건진료소", "조산원"},
	model.CategoryPharmacy: {"약국"},
}

// BusinessTypesForCategory returns the raw business types grouped under a
// coarse category, or nil for 기타/unknown.
func BusinessTypesForCategory(category model.CoarseCategory) []string {
	return knownBusinessTypes[category]
}

// IsKnownBusinessType reports whether s is one of the raw government
// business-type strings the mapper recognizes.
func IsKnownBusinessType(s string) bool {
	for _, types := range knownBusinessTypes {
		for _, t := range types {
			if t == s {
				return true
			}
		}
	}
	return false
}

// MapCategory collapses a raw business type and name into one of the four
// coarse categories. Total: always returns one of 병원/의원/약국/기타.
//
// Pharmacy is tested first because some pharmacies carry ambiguous
// business-type strings and are only identifiable by name.
func MapCategory(businessType, businessName string) model.CoarseCategory {
	businessType = strings.TrimSpace(businessType)
	businessName = strings.TrimSpace(businessName)

	if strings.Contains(businessName, "약국") || strings.Contains(businessType, "약국") {
		return model.CategoryPharmacy
	}
	if strings.Contains(businessType, "병원") {
		return model.CategoryHospital
	}
	if strings.Contains(businessType, "의원") || strings.Contains(businessType, "한의원") {
		return model.CategoryClinic
	}
	// 보건기관과 조산원은 정책상 의원 그룹으로 묶는다.
	if strings.Contains(businessType, "보건") || strings.Contains(businessType, "조산원") {
		return model.CategoryClinic
	}

	if businessType == "" {
		if strings.Contains(businessName, "병원") {
			return model.CategoryHospital
		}
		if strings.Contains(businessName, "의원") || strings.Contains(businessName, "한의원") {
			return model.CategoryClinic
		}
	}

	return model.CategoryOther
}
