package notifier

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// WebhookNotifier posts alerts as JSON to an arbitrary HTTP endpoint.
type WebhookNotifier struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

// NewWebhookNotifier creates a webhook channel for url.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: httpTimeout},
		now:        time.Now,
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// webhookPayload is the JSON body posted for each alert.
type webhookPayload struct {
	DeviceID string   `json:"device_id"`
	Subject  string   `json:"subject"`
	Reasons  []string `json:"reasons"`
	Message  string   `json:"message"`
	SentAt   string   `json:"sent_at"`
}

func (w *WebhookNotifier) Notify(ctx context.Context, alert *Alert) error {
	payload := webhookPayload{
		DeviceID: alert.DeviceID,
		Subject:  alert.Subject,
		Reasons:  alert.Reasons,
		Message:  alert.Body,
		SentAt:   w.now().UTC().Format(time.RFC3339),
	}
	if err := postJSON(ctx, w.httpClient, "webhook", w.url, payload); err != nil {
		return err
	}
	slog.Info("Alert sent to webhook", "device_id", alert.DeviceID, "webhook_url", maskURL(w.url))
	return nil
}
