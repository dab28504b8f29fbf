package storage

import (
	"encoding/json"
	"fmt"

	"github.com/valter-silva-au/taskcard/internal/core"
	"github.com/valter-silva-au/taskcard/pkg/models"
)

// DefaultKey is the slot key the application state lives under.
const DefaultKey = "app_state"

// StateStoreOptions are the optional collaborators of a StateStore.
type StateStoreOptions struct {
	Reporter *core.StateReporter
	Events   core.EventLogger
	Recorder core.Recorder
}

// StateStore reads and writes snapshots as JSON in one slot key. Reads never
// fail: anything that cannot be decoded into a valid snapshot is replaced by
// the fallback error snapshot.
type StateStore struct {
	slot     Slot
	key      string
	reporter *core.StateReporter
	events   core.EventLogger
	recorder core.Recorder
}

// NewStateStore creates a StateStore over slot. An empty key selects
// DefaultKey.
func NewStateStore(slot Slot, key string, opts StateStoreOptions) *StateStore {
	if key == "" {
		key = DefaultKey
	}
	if opts.Reporter == nil {
		opts.Reporter = core.NewStateReporter(nil)
	}
	return &StateStore{
		slot:     slot,
		key:      key,
		reporter: opts.Reporter,
		events:   opts.Events,
		recorder: opts.Recorder,
	}
}

// Key returns the slot key the store writes to.
func (s *StateStore) Key() string {
	return s.key
}

// Put normalizes snap, encodes it and overwrites the slot.
func (s *StateStore) Put(snap models.Snapshot) error {
	normalized, err := models.Normalize(snap)
	if err != nil {
		return fmt.Errorf("storing state: %w", err)
	}
	if normalized.AppState == models.StateError {
		s.reporter.Report("put state", normalized)
	}

	data, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("encoding state: %w", err)
	}
	if err := s.slot.Store(s.key, string(data)); err != nil {
		return fmt.Errorf("writing state to slot %s: %w", s.key, err)
	}
	return nil
}

// Get returns the stored snapshot, or core.Failed(core.FallbackMessage) when
// the slot is empty, unreadable, or holds an invalid snapshot.
func (s *StateStore) Get() models.Snapshot {
	raw, ok, err := s.slot.Load(s.key)
	if err != nil {
		return s.fallback(fmt.Sprintf("load failed: %v", err))
	}
	if !ok {
		return s.fallback("slot empty")
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return s.fallback(fmt.Sprintf("decode failed: %v", err))
	}
	if _, err := snap.Variant(); err != nil {
		return s.fallback(fmt.Sprintf("invalid snapshot: %v", err))
	}

	if snap.AppState == models.StateError {
		s.reporter.Report("get state", snap)
	}
	return snap
}

// Clear removes the slot value.
func (s *StateStore) Clear() error {
	if err := s.slot.Delete(s.key); err != nil {
		return fmt.Errorf("clearing slot %s: %w", s.key, err)
	}
	if s.events != nil {
		_ = s.events.LogEvent("state.cleared", map[string]any{"key": s.key})
	}
	return nil
}

// Exists reports whether the slot currently holds a value.
func (s *StateStore) Exists() bool {
	_, ok, err := s.slot.Load(s.key)
	return err == nil && ok
}

func (s *StateStore) fallback(reason string) models.Snapshot {
	snap := core.Failed(core.FallbackMessage)
	s.reporter.Report("get state: "+reason, snap)
	if s.events != nil {
		_ = s.events.LogEvent("state.fallback", map[string]any{"key": s.key, "reason": reason})
	}
	if s.recorder != nil {
		s.recorder.RecordFallback()
	}
	return snap
}
