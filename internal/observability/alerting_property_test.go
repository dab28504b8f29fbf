package observability

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// The fetch failure alert fires exactly when the trailing run of failures is
// at least the threshold.
func TestProperty_FetchFailureAlertMatchesTrailingStreak(t *testing.T) {
	dir := t.TempDir()
	iteration := 0

	rapid.Check(t, func(rt *rapid.T) {
		iteration++
		log, err := NewJSONLEventLog(filepath.Join(dir, fmt.Sprintf("events-%d.jsonl", iteration)))
		if err != nil {
			rt.Fatalf("creating event log: %v", err)
		}
		defer log.Close()

		outcomes := rapid.SliceOfN(rapid.Bool(), 0, 20).Draw(rt, "outcomes")
		limit := rapid.IntRange(1, 6).Draw(rt, "limit")

		base := time.Now().UTC().Add(-time.Hour)
		for i, ok := range outcomes {
			if err := log.Write(fetchOutcome(base.Add(time.Duration(i)*time.Second), ok, "boom")); err != nil {
				rt.Fatalf("write: %v", err)
			}
		}

		streak := 0
		for i := len(outcomes) - 1; i >= 0 && !outcomes[i]; i-- {
			streak++
		}

		alerts, err := NewAlertEngine(log, AlertThresholds{MaxConsecutiveFailures: limit}).Evaluate()
		if err != nil {
			rt.Fatalf("Evaluate: %v", err)
		}

		fired := false
		for _, a := range alerts {
			if a.Condition == ConditionFetchFailures {
				fired = true
			}
		}
		if fired != (streak >= limit) {
			rt.Fatalf("streak %d, limit %d: fired = %v", streak, limit, fired)
		}
	})
}

// The fallback alert counts only reads inside the window.
func TestProperty_FallbackAlertRespectsWindow(t *testing.T) {
	dir := t.TempDir()
	iteration := 0

	rapid.Check(t, func(rt *rapid.T) {
		iteration++
		log, err := NewJSONLEventLog(filepath.Join(dir, fmt.Sprintf("fallback-%d.jsonl", iteration)))
		if err != nil {
			rt.Fatalf("creating event log: %v", err)
		}
		defer log.Close()

		inside := rapid.IntRange(0, 10).Draw(rt, "inside")
		outside := rapid.IntRange(0, 10).Draw(rt, "outside")
		limit := rapid.IntRange(1, 10).Draw(rt, "limit")

		now := time.Now().UTC()
		for i := 0; i < inside; i++ {
			_ = log.Write(Event{Time: now.Add(-time.Duration(i+1) * time.Minute), Type: EventStateFallback})
		}
		for i := 0; i < outside; i++ {
			_ = log.Write(Event{Time: now.Add(-25*time.Hour - time.Duration(i)*time.Minute), Type: EventStateFallback})
		}

		alerts, err := NewAlertEngine(log, AlertThresholds{MaxFallbackReads: limit, FallbackWindow: 24 * time.Hour}).Evaluate()
		if err != nil {
			rt.Fatalf("Evaluate: %v", err)
		}

		fired := len(alerts) == 1 && alerts[0].Condition == ConditionStateFallbacks
		if fired != (inside >= limit) {
			rt.Fatalf("inside %d, outside %d, limit %d: fired = %v", inside, outside, limit, fired)
		}
	})
}
