package notifier

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// SlackNotifier posts alerts to a Slack incoming webhook.
type SlackNotifier struct {
	webhookURL string
	httpClient *http.Client
}

// NewSlackNotifier creates a Slack channel for webhookURL.
func NewSlackNotifier(webhookURL string) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

func (s *SlackNotifier) Name() string { return "slack" }

type slackMessage struct {
	Text   string       `json:"text"`
	Blocks []slackBlock `json:"blocks,omitempty"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func buildSlackMessage(alert *Alert) slackMessage {
	return slackMessage{
		Text: alert.Subject,
		Blocks: []slackBlock{
			{Type: "header", Text: &slackText{Type: "plain_text", Text: alert.Subject}},
			{Type: "section", Text: &slackText{Type: "mrkdwn", Text: "```" + strings.TrimSpace(alert.Body) + "```"}},
		},
	}
}

func (s *SlackNotifier) Notify(ctx context.Context, alert *Alert) error {
	if err := postJSON(ctx, s.httpClient, "slack webhook", s.webhookURL, buildSlackMessage(alert)); err != nil {
		return err
	}
	slog.Info("Alert sent to Slack", "device_id", alert.DeviceID)
	return nil
}

// maskURL hides the webhook token when logging.
func maskURL(url string) string {
	if len(url) > 50 {
		return url[:30] + "..." + url[len(url)-10:]
	}
	return url
}

func parseRecipients(value string) []string {
	parts := strings.Split(value, ",")
	recipients := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			recipients = append(recipients, trimmed)
		}
	}
	return recipients
}
