package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Notifier sends alert notifications to external channels.
type Notifier interface {
	Notify(alerts []Alert) error
}

// summaryWindow is how far back the fetch summary under the alerts looks.
const summaryWindow = 24 * time.Hour

type slackNotifier struct {
	webhookURL string
	client     *http.Client
	metrics    MetricsCalculator
	now        func() time.Time
}

// NewSlackNotifier creates a Notifier posting to a Slack incoming webhook.
// When metrics is non-nil each message ends with a summary of the task
// fetches in the last 24 hours.
func NewSlackNotifier(webhookURL string, metrics MetricsCalculator) Notifier {
	return &slackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		metrics:    metrics,
		now:        time.Now,
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type     string      `json:"type"`
	Text     *slackText  `json:"text,omitempty"`
	Elements []slackText `json:"elements,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Notify posts alerts as one message. An empty slice sends nothing.
func (s *slackNotifier) Notify(alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	msg := buildSlackMessage(alerts)
	if s.metrics != nil {
		// A summary that cannot be computed must not hold back the alerts.
		if m, err := s.metrics.Calculate(s.now().Add(-summaryWindow)); err == nil && m != nil {
			msg.Blocks = append(msg.Blocks, slackBlock{
				Type:     "context",
				Elements: []slackText{{Type: "mrkdwn", Text: fetchSummary(m)}},
			})
		}
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildSlackMessage(alerts []Alert) slackMessage {
	blocks := []slackBlock{{
		Type: "header",
		Text: &slackText{Type: "plain_text", Text: "taskcard Alert Summary"},
	}}

	for i, alert := range alerts {
		if i > 0 {
			blocks = append(blocks, slackBlock{Type: "divider"})
		}
		text := fmt.Sprintf("%s *[%s]* `%s` %s\n_%s_",
			severityEmoji(alert.Severity),
			strings.ToUpper(string(alert.Severity)),
			alert.Condition,
			alert.Message,
			alert.TriggeredAt.UTC().Format("2006-01-02 15:04 UTC"),
		)
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		})
	}
	return slackMessage{Blocks: blocks}
}

// fetchSummary condenses fetch metrics into one line, naming the last task
// a fetch was attempted for and the last error seen.
func fetchSummary(m *Metrics) string {
	parts := []string{fmt.Sprintf("last 24h: %d fetches, %d failed", m.FetchesStarted, m.FetchesFailed)}
	if m.FetchesSucceeded+m.FetchesFailed > 0 {
		parts = append(parts, fmt.Sprintf("%.0f%% success", m.SuccessRate*100))
	}
	if m.AvgFetchMillis > 0 {
		parts = append(parts, fmt.Sprintf("avg %.0fms", m.AvgFetchMillis))
	}
	if m.LastTaskID != nil {
		parts = append(parts, fmt.Sprintf("last task #%d", *m.LastTaskID))
	}
	if m.FallbackReads > 0 {
		parts = append(parts, fmt.Sprintf("%d unreadable state reads", m.FallbackReads))
	}
	if m.LastError != "" {
		parts = append(parts, "last error: "+m.LastError)
	}
	return strings.Join(parts, " | ")
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	default:
		return "❓"
	}
}
