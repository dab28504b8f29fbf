// Package storage holds the persisted application state: the key/value slot
// backends, the state store that (de)serializes snapshots through them, and a
// watcher that reports changes made by other processes.
package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
)

// Slot is a string key/value store. Every Store is an unconditional
// overwrite of a single key.
type Slot interface {
	// Load returns the value stored under key. ok is false when the key holds
	// nothing.
	Load(key string) (value string, ok bool, err error)
	Store(key, value string) error
	Delete(key string) error
}

// Backend names accepted by OpenSlot.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// DataDir is the directory under the base path that holds persisted state.
const DataDir = ".taskcard"

// OpenSlot opens the named backend rooted at basePath. The caller closes the
// returned closer when done; it is a no-op for backends holding no resources.
func OpenSlot(backend, basePath string) (Slot, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(backend) {
	case BackendMemory:
		return NewMemorySlot(), noop, nil
	case BackendFile, "":
		return NewFileSlot(filepath.Join(basePath, DataDir, "slots")), noop, nil
	case BackendSQLite:
		s, err := NewSQLiteSlot(filepath.Join(basePath, DataDir, "slots.db"))
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// memorySlot keeps values for the lifetime of the process.
type memorySlot struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemorySlot creates an empty in-process Slot.
func NewMemorySlot() Slot {
	return &memorySlot{values: make(map[string]string)}
}

func (m *memorySlot) Load(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memorySlot) Store(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memorySlot) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
