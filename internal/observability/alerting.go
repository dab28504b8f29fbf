package observability

import (
	"fmt"
	"time"
)

// AlertSeverity represents the urgency of an alert.
type AlertSeverity string

const (
	SeverityHigh   AlertSeverity = "high"
	SeverityMedium AlertSeverity = "medium"
	SeverityLow    AlertSeverity = "low"
)

// Alert conditions.
const (
	ConditionFetchFailures  = "fetch_failures"
	ConditionStateFallbacks = "state_fallbacks"
)

// Alert represents a triggered alert condition.
type Alert struct {
	ID          string        `json:"id"`
	Condition   string        `json:"condition"`
	Severity    AlertSeverity `json:"severity"`
	Message     string        `json:"message"`
	TriggeredAt time.Time     `json:"triggered_at"`
}

// AlertThresholds configures when alerts fire. A zero threshold disables its
// alert.
type AlertThresholds struct {
	MaxConsecutiveFailures int           `yaml:"max_consecutive_failures" json:"max_consecutive_failures"`
	MaxFallbackReads       int           `yaml:"max_fallback_reads" json:"max_fallback_reads"`
	FallbackWindow         time.Duration `yaml:"fallback_window" json:"fallback_window"`
}

// DefaultAlertThresholds returns the built-in thresholds.
func DefaultAlertThresholds() AlertThresholds {
	return AlertThresholds{
		MaxConsecutiveFailures: 3,
		MaxFallbackReads:       5,
		FallbackWindow:         24 * time.Hour,
	}
}

// AlertEngine evaluates alert conditions against the event log.
type AlertEngine interface {
	Evaluate() ([]Alert, error)
}

type alertEngine struct {
	eventLog   EventLog
	thresholds AlertThresholds
	now        func() time.Time
}

// NewAlertEngine creates an AlertEngine over eventLog.
func NewAlertEngine(eventLog EventLog, thresholds AlertThresholds) AlertEngine {
	if thresholds.FallbackWindow <= 0 {
		thresholds.FallbackWindow = DefaultAlertThresholds().FallbackWindow
	}
	return &alertEngine{
		eventLog:   eventLog,
		thresholds: thresholds,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (ae *alertEngine) Evaluate() ([]Alert, error) {
	now := ae.now()
	var alerts []Alert

	failureAlerts, err := ae.checkFetchFailures(now)
	if err != nil {
		return nil, fmt.Errorf("checking fetch failures: %w", err)
	}
	alerts = append(alerts, failureAlerts...)

	fallbackAlerts, err := ae.checkFallbacks(now)
	if err != nil {
		return nil, fmt.Errorf("checking fallback reads: %w", err)
	}
	alerts = append(alerts, fallbackAlerts...)

	return alerts, nil
}

// checkFetchFailures fires when the most recent completed fetches all failed.
func (ae *alertEngine) checkFetchFailures(now time.Time) ([]Alert, error) {
	limit := ae.thresholds.MaxConsecutiveFailures
	if limit <= 0 {
		return nil, nil
	}

	events, err := ae.eventLog.Read(EventFilter{Types: []string{EventTaskFetched, EventFetchFailed}})
	if err != nil {
		return nil, err
	}

	streak := 0
	lastError := ""
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type != EventFetchFailed {
			break
		}
		if streak == 0 {
			lastError, _ = events[i].Data["error"].(string)
		}
		streak++
	}

	if streak < limit {
		return nil, nil
	}
	msg := fmt.Sprintf("the last %d task fetches failed", streak)
	if lastError != "" {
		msg += fmt.Sprintf(" (latest: %s)", lastError)
	}
	return []Alert{{
		ID:          "fetch-failures",
		Condition:   ConditionFetchFailures,
		Severity:    SeverityHigh,
		Message:     msg,
		TriggeredAt: now,
	}}, nil
}

// checkFallbacks fires when the fallback snapshot was served too often within
// the window.
func (ae *alertEngine) checkFallbacks(now time.Time) ([]Alert, error) {
	limit := ae.thresholds.MaxFallbackReads
	if limit <= 0 {
		return nil, nil
	}

	since := now.Add(-ae.thresholds.FallbackWindow)
	events, err := ae.eventLog.Read(EventFilter{Since: &since, Types: []string{EventStateFallback}})
	if err != nil {
		return nil, err
	}
	if len(events) < limit {
		return nil, nil
	}
	return []Alert{{
		ID:          "state-fallbacks",
		Condition:   ConditionStateFallbacks,
		Severity:    SeverityMedium,
		Message:     fmt.Sprintf("the stored state could not be read %d times in the last %s", len(events), ae.thresholds.FallbackWindow),
		TriggeredAt: now,
	}}, nil
}
