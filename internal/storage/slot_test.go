package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slotBackends returns a fresh instance of every Slot implementation.
func slotBackends(t *testing.T) map[string]Slot {
	t.Helper()

	sqliteSlot, err := NewSQLiteSlot(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteSlot.Close() })

	return map[string]Slot{
		BackendMemory: NewMemorySlot(),
		BackendFile:   NewFileSlot(filepath.Join(t.TempDir(), "slots")),
		BackendSQLite: sqliteSlot,
	}
}

func TestSlot_LoadStoreDelete(t *testing.T) {
	for name, slot := range slotBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := slot.Load("app_state")
			require.NoError(t, err)
			assert.False(t, ok, "fresh slot should be empty")

			require.NoError(t, slot.Store("app_state", `{"a":1}`))
			v, ok, err := slot.Load("app_state")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `{"a":1}`, v)

			require.NoError(t, slot.Store("app_state", `{"a":2}`))
			v, _, err = slot.Load("app_state")
			require.NoError(t, err)
			assert.Equal(t, `{"a":2}`, v, "store must overwrite")

			require.NoError(t, slot.Delete("app_state"))
			_, ok, err = slot.Load("app_state")
			require.NoError(t, err)
			assert.False(t, ok, "deleted slot should be empty")

			require.NoError(t, slot.Delete("app_state"), "deleting an empty slot is not an error")
		})
	}
}

func TestSlot_KeysAreIndependent(t *testing.T) {
	for name, slot := range slotBackends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, slot.Store("one", "1"))
			require.NoError(t, slot.Store("two", "2"))
			require.NoError(t, slot.Delete("one"))

			v, ok, err := slot.Load("two")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "2", v)
		})
	}
}

func TestFileSlot_AtomicReplaceLeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "slots")
	slot := NewFileSlot(dir)

	for i := 0; i < 5; i++ {
		require.NoError(t, slot.Store("app_state", "value"))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temp file left behind")
	}
	_, err = os.Stat(slot.Path("app_state"))
	assert.NoError(t, err)
}

func TestFileSlot_DeleteMissingDirectory(t *testing.T) {
	slot := NewFileSlot(filepath.Join(t.TempDir(), "never-created"))
	assert.NoError(t, slot.Delete("app_state"))
}

func TestFileSlot_RejectsPathKeys(t *testing.T) {
	slot := NewFileSlot(t.TempDir())

	for _, key := range []string{"", "../escape", `a\b`, ".."} {
		assert.Error(t, slot.Store(key, "x"), "key %q", key)
		_, _, err := slot.Load(key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestSQLiteSlot_PersistsAcrossHandles(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "slots.db")

	first, err := NewSQLiteSlot(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Store("app_state", "persisted"))
	require.NoError(t, first.Close())

	second, err := NewSQLiteSlot(dbPath)
	require.NoError(t, err)
	defer second.Close()

	v, ok, err := second.Load("app_state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestOpenSlot(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		backend string
		wantErr bool
	}{
		{backend: BackendMemory},
		{backend: BackendFile},
		{backend: "FILE"},
		{backend: BackendSQLite},
		{backend: "redis", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			slot, closeFn, err := OpenSlot(tt.backend, base)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, closeFn()) }()

			require.NoError(t, slot.Store("k", "v"))
			v, ok, err := slot.Load("k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "v", v)
		})
	}

	_, err := os.Stat(filepath.Join(base, DataDir, "slots.db"))
	assert.NoError(t, err, "sqlite backend should create its database under the data dir")
}
