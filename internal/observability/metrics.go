package observability

import (
	"fmt"
	"time"
)

// Metrics summarizes the event log over a period.
type Metrics struct {
	Initializations  int            `json:"initializations"`
	FetchesStarted   int            `json:"fetches_started"`
	FetchesSucceeded int            `json:"fetches_succeeded"`
	FetchesFailed    int            `json:"fetches_failed"`
	SuccessRate      float64        `json:"success_rate"`
	AvgFetchMillis   float64        `json:"avg_fetch_ms"`
	Transitions      map[string]int `json:"transitions"`
	FallbackReads    int            `json:"fallback_reads"`
	Clears           int            `json:"clears"`
	LastTaskID       *int           `json:"last_task_id,omitempty"`
	LastError        string         `json:"last_error,omitempty"`
	EventCount       int            `json:"event_count"`
	OldestEvent      *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent      *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a MetricsCalculator reading from eventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate aggregates every event at or after since.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{Transitions: make(map[string]int)}
	m.EventCount = len(events)

	var totalMillis float64
	var timed int
	for i, event := range events {
		t := event.Time
		if i == 0 {
			m.OldestEvent = &t
		}
		m.NewestEvent = &t

		switch event.Type {
		case EventStateInitialized:
			m.Initializations++
			if to, ok := event.Data["to"].(string); ok {
				m.Transitions[to]++
			}
		case EventStateTransition:
			if to, ok := event.Data["to"].(string); ok {
				m.Transitions[to]++
			}
		case EventFetchStarted:
			m.FetchesStarted++
		case EventTaskFetched, EventFetchFailed:
			if event.Type == EventTaskFetched {
				m.FetchesSucceeded++
			} else {
				m.FetchesFailed++
				m.LastError, _ = event.Data["error"].(string)
			}
			if id, ok := numberField(event.Data, "task_id"); ok {
				n := int(id)
				m.LastTaskID = &n
			}
			if ms, ok := numberField(event.Data, "duration_ms"); ok {
				totalMillis += ms
				timed++
			}
		case EventStateFallback:
			m.FallbackReads++
		case EventStateCleared:
			m.Clears++
		}
	}

	if done := m.FetchesSucceeded + m.FetchesFailed; done > 0 {
		m.SuccessRate = float64(m.FetchesSucceeded) / float64(done)
	}
	if timed > 0 {
		m.AvgFetchMillis = totalMillis / float64(timed)
	}
	return m, nil
}

// numberField reads a numeric event field. Values read back from the log are
// float64; values written in-process may still be ints.
func numberField(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
