package observability

import (
	"math"
	"testing"
	"time"
)

func TestMetricsCalculator_Empty(t *testing.T) {
	mc := NewMetricsCalculator(newTestLog(t))

	m, err := mc.Calculate(time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.EventCount != 0 || m.FetchesStarted != 0 || m.SuccessRate != 0 {
		t.Errorf("expected zero metrics, got %+v", m)
	}
	if m.OldestEvent != nil || m.NewestEvent != nil || m.LastTaskID != nil {
		t.Errorf("expected nil timestamps and task id, got %+v", m)
	}
}

func TestMetricsCalculator_FetchCycle(t *testing.T) {
	log := newTestLog(t)
	base := time.Now().UTC().Add(-time.Hour)

	writeEvents(t, log,
		Event{Time: base, Type: EventStateInitialized, Data: map[string]any{"to": "start"}},
		Event{Time: base.Add(1 * time.Second), Type: EventFetchStarted, Data: map[string]any{"task_id": 196}},
		Event{Time: base.Add(2 * time.Second), Type: EventStateTransition, Data: map[string]any{"to": "fetchingTask"}},
		Event{Time: base.Add(3 * time.Second), Type: EventTaskFetched, Data: map[string]any{"task_id": 196, "duration_ms": 100}},
		Event{Time: base.Add(4 * time.Second), Type: EventStateTransition, Data: map[string]any{"to": "gotTask"}},
		Event{Time: base.Add(5 * time.Second), Type: EventFetchStarted, Data: map[string]any{"task_id": 197}},
		Event{Time: base.Add(6 * time.Second), Type: EventStateTransition, Data: map[string]any{"to": "fetchingTask"}},
		Event{Time: base.Add(7 * time.Second), Type: EventFetchFailed, Data: map[string]any{"task_id": 197, "duration_ms": 300, "error": "network down"}},
		Event{Time: base.Add(8 * time.Second), Type: EventStateTransition, Data: map[string]any{"to": "error"}},
		Event{Time: base.Add(9 * time.Second), Type: EventStateFallback},
		Event{Time: base.Add(10 * time.Second), Type: EventStateCleared},
	)

	m, err := NewMetricsCalculator(log).Calculate(base.Add(-time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if m.EventCount != 11 {
		t.Errorf("EventCount = %d, want 11", m.EventCount)
	}
	if m.Initializations != 1 {
		t.Errorf("Initializations = %d, want 1", m.Initializations)
	}
	if m.FetchesStarted != 2 || m.FetchesSucceeded != 1 || m.FetchesFailed != 1 {
		t.Errorf("fetch counts = %d/%d/%d, want 2/1/1", m.FetchesStarted, m.FetchesSucceeded, m.FetchesFailed)
	}
	if math.Abs(m.SuccessRate-0.5) > 1e-9 {
		t.Errorf("SuccessRate = %v, want 0.5", m.SuccessRate)
	}
	if math.Abs(m.AvgFetchMillis-200) > 1e-9 {
		t.Errorf("AvgFetchMillis = %v, want 200", m.AvgFetchMillis)
	}
	want := map[string]int{"start": 1, "fetchingTask": 2, "gotTask": 1, "error": 1}
	for state, n := range want {
		if m.Transitions[state] != n {
			t.Errorf("Transitions[%s] = %d, want %d", state, m.Transitions[state], n)
		}
	}
	if m.FallbackReads != 1 || m.Clears != 1 {
		t.Errorf("FallbackReads = %d, Clears = %d, want 1, 1", m.FallbackReads, m.Clears)
	}
	if m.LastTaskID == nil || *m.LastTaskID != 197 {
		t.Errorf("LastTaskID = %v, want 197", m.LastTaskID)
	}
	if m.LastError != "network down" {
		t.Errorf("LastError = %q", m.LastError)
	}
	if m.OldestEvent == nil || !m.OldestEvent.Equal(base) {
		t.Errorf("OldestEvent = %v, want %v", m.OldestEvent, base)
	}
}

func TestMetricsCalculator_Since(t *testing.T) {
	log := newTestLog(t)
	now := time.Now().UTC()

	writeEvents(t, log,
		Event{Time: now.Add(-48 * time.Hour), Type: EventFetchStarted},
		Event{Time: now.Add(-time.Hour), Type: EventFetchStarted},
	)

	m, err := NewMetricsCalculator(log).Calculate(now.Add(-24 * time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.FetchesStarted != 1 {
		t.Errorf("FetchesStarted = %d, want 1", m.FetchesStarted)
	}
}
