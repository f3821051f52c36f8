package model

import (
	"time"
)

// LogLevel 수집 작업 로그 레벨
type LogLevel string

const (
	LogInfo    LogLevel = "INFO"
	LogError   LogLevel = "ERROR"
	LogSuccess LogLevel = "SUCCESS"
	LogWarning LogLevel = "WARNING"
)

// IngestionLog 수집 작업 운영 로그 (append-only)
// 수집 파이프라인의 주요 단계마다 한 행씩 쌓인다. 로그 기록 실패가
// 수집 자체를 중단시키면 안 되므로, 호출부는 기록 에러를 삼킨다.
type IngestionLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	JobName   string    `gorm:"type:varchar(100);index;not null" json:"job_name"` // 작업명 (예: daily-ingestion)
	RunID     string    `gorm:"type:varchar(40);index" json:"run_id"`             // 실행 단위 식별자 (UUID)
	Level     LogLevel  `gorm:"type:varchar(10);not null" json:"level"`           // INFO/ERROR/SUCCESS/WARNING
	Message   string    `gorm:"type:text;not null" json:"message"`                // 로그 메시지
	Details   string    `gorm:"type:text" json:"details,omitempty"`               // 구조화된 부가 정보 (JSON)
	CreatedAt time.Time `json:"created_at"`
}

func (IngestionLog) TableName() string {
	return "ingestion_logs"
}
