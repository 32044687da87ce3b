package utils

import (
	"context"
	"fmt"
	"time"

	"lms/models/course"

	"github.com/go-resty/resty/v2"
)

// WebhookPayload is posted once per committed workflow.
type WebhookPayload struct {
	Event         string                `json:"event"`
	UserID        uint                  `json:"user_id"`
	CourseID      uint                  `json:"course_id,omitempty"`
	Notifications []course.Notification `json:"notifications"`
	Certificate   *course.Certificate   `json:"certificate,omitempty"`
	SentAt        time.Time             `json:"sent_at"`
}

type WebhookClient struct {
	url    string
	client *resty.Client
}

func NewWebhookClient(url string) *WebhookClient {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Content-Type", "application/json")
	return &WebhookClient{url: url, client: client}
}

func (w *WebhookClient) Post(ctx context.Context, payload WebhookPayload) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("X-LMS-Event", payload.Event).
		SetBody(payload).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
