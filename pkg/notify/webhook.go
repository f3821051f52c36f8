package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jaekim/medimap-backend/pkg/logger"
)

var ErrWebhookNotConfigured = errors.New("알림 웹훅 URL이 설정되지 않았습니다")

// Notifier 운영 알림 발신 인터페이스
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// WebhookNotifier 웹훅 기반 알림 발신기 (Slack 호환 페이로드)
type WebhookNotifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewWebhookNotifier 웹훅 알림 발신기 생성
func NewWebhookNotifier(webhookURL string) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify 알림 한 건 발송. 호출부는 발송 실패를 치명 오류로 다루지 않는다.
func (n *WebhookNotifier) Notify(ctx context.Context, title, message string) error {
	if n.webhookURL == "" {
		return ErrWebhookNotConfigured
	}

	payload := map[string]string{
		"text": fmt.Sprintf("[%s] %s", title, message),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		logger.Warn("Failed to send webhook notification", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
