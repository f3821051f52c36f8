package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo 에러 정보 구조
type ErrorInfo struct {
	Code    string // 에러 코드 (codes.go 참조)
	Message string // 사용자 친화적 메시지
}

// ParseError 에러를 파싱하여 사용자 친화적인 메시지와 코드로 변환
// 보안상 민감한 정보는 숨기되, 사용자가 문제를 해결할 수 있는 정보 제공
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "서버 오류가 발생했습니다",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM 기본 에러
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. PostgreSQL 제약 조건 에러

	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		if strings.Contains(errStrLower, "management_number") {
			return ErrorInfo{
				Code:    ResourceAlreadyExists,
				Message: "이미 등록된 관리번호입니다",
			}
		}
		if strings.Contains(errStrLower, "email") {
			return ErrorInfo{
				Code:    AuthEmailAlreadyExists,
				Message: "이미 사용 중인 이메일입니다",
			}
		}
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "이미 존재하는 데이터입니다",
		}
	}

	if strings.Contains(errStrLower, "null value") && strings.Contains(errStrLower, "violates not-null constraint") {
		return ErrorInfo{
			Code:    ValidationRequired,
			Message: "필수 항목이 누락되었습니다",
		}
	}

	// 3. 비즈니스 로직 에러 (service layer에서 정의된 에러)
	if strings.Contains(errStr, "의료기관을 찾을 수 없습니다") {
		return ErrorInfo{Code: FacilityNotFound, Message: "의료기관을 찾을 수 없습니다"}
	}
	if strings.Contains(errStr, "수집에 실패했습니다") {
		return ErrorInfo{Code: IngestionRunFailed, Message: "데이터 수집에 실패했습니다"}
	}
	if strings.Contains(errStr, "관리번호가 없는") {
		return ErrorInfo{Code: ValidationRequired, Message: "관리번호가 없는 데이터입니다"}
	}

	// 4. 네트워크/연결 에러
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "외부 서비스 연결에 실패했습니다. 잠시 후 다시 시도해주세요",
		}
	}

	// 5. 기본 내부 서버 오류
	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

// ParseAndRespond 에러를 파싱해 표준 에러 응답으로 전송
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}

// getNotFoundMessage 컨텍스트별 not found 메시지
func getNotFoundMessage(context string) string {
	switch context {
	case "facility":
		return "의료기관을 찾을 수 없습니다"
	case "user":
		return "사용자를 찾을 수 없습니다"
	case "ingestion":
		return "수집 기록을 찾을 수 없습니다"
	default:
		return "요청하신 데이터를 찾을 수 없습니다"
	}
}

// getDefaultErrorMessage 컨텍스트별 기본 오류 메시지
func getDefaultErrorMessage(context string) string {
	switch context {
	case "facility":
		return "의료기관 조회 중 오류가 발생했습니다"
	case "ingestion":
		return "데이터 수집 중 오류가 발생했습니다"
	case "auth":
		return "인증 처리 중 오류가 발생했습니다"
	default:
		return "서버 오류가 발생했습니다. 잠시 후 다시 시도해주세요"
	}
}
