package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// TaskIDCounter hands out the id of the next remote task to request. Every
// call advances the counter, whether or not the request that uses the id
// succeeds.
type TaskIDCounter interface {
	Next() (int, error)
}

// memoryTaskIDCounter keeps the counter in process memory.
type memoryTaskIDCounter struct {
	mu   sync.Mutex
	next int
}

// NewMemoryTaskIDCounter creates a TaskIDCounter whose first id is start.
func NewMemoryTaskIDCounter(start int) TaskIDCounter {
	return &memoryTaskIDCounter{next: start}
}

func (c *memoryTaskIDCounter) Next() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	return id, nil
}

// fileTaskIDCounter implements TaskIDCounter by persisting the next id in a
// task_counter file, so separate invocations keep walking the remote list.
type fileTaskIDCounter struct {
	dir   string
	start int
}

// NewFileTaskIDCounter creates a TaskIDCounter that stores its state in
// dir/task_counter. If the file does not exist the first id is start.
func NewFileTaskIDCounter(dir string, start int) TaskIDCounter {
	return &fileTaskIDCounter{dir: dir, start: start}
}

// Next reads the stored id under an exclusive lock, writes back id+1, and
// returns the stored id.
func (c *fileTaskIDCounter) Next() (int, error) {
	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return 0, fmt.Errorf("creating directory for task counter: %w", err)
	}

	counterPath := filepath.Join(c.dir, "task_counter")
	unlock, err := lockFile(counterPath + ".lock")
	if err != nil {
		return 0, fmt.Errorf("locking task counter: %w", err)
	}
	defer func() { _ = unlock() }()

	id := c.start
	data, err := os.ReadFile(counterPath)
	if err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("reading task counter file: %w", err)
	}
	if err == nil {
		trimmed := strings.TrimSpace(string(data))
		if trimmed != "" {
			id, err = strconv.Atoi(trimmed)
			if err != nil {
				return 0, fmt.Errorf("parsing task counter %q: %w", trimmed, err)
			}
		}
	}

	if err := os.WriteFile(counterPath, []byte(strconv.Itoa(id+1)), 0o600); err != nil {
		return 0, fmt.Errorf("writing task counter file: %w", err)
	}
	return id, nil
}
