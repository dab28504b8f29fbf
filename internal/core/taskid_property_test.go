package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"pgregory.net/rapid"
)

// Every call hands out the next id after the previous one, starting at start.
func TestProperty_FileTaskIDCounterSequential(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		start := rapid.IntRange(0, 10000).Draw(rt, "start")
		n := rapid.IntRange(1, 50).Draw(rt, "n")

		dir, err := os.MkdirTemp("", "taskid-property-*")
		if err != nil {
			t.Fatalf("failed to create temp dir: %v", err)
		}
		defer os.RemoveAll(dir)

		c := NewFileTaskIDCounter(dir, start)
		for i := 0; i < n; i++ {
			id, err := c.Next()
			if err != nil {
				rt.Fatalf("Next failed on call %d: %v", i+1, err)
			}
			if id != start+i {
				rt.Fatalf("call %d returned %d, want %d", i+1, id, start+i)
			}
		}

		data, err := os.ReadFile(filepath.Join(dir, "task_counter"))
		if err != nil {
			rt.Fatalf("failed to read counter file: %v", err)
		}
		if string(data) != strconv.Itoa(start+n) {
			rt.Fatalf("counter file = %s, want %d", data, start+n)
		}
	})
}

// Concurrent callers never receive the same id.
func TestProperty_TaskIDCounterUniqueUnderConcurrency(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		workers := rapid.IntRange(2, 8).Draw(rt, "workers")
		perWorker := rapid.IntRange(1, 10).Draw(rt, "per_worker")
		useFile := rapid.Bool().Draw(rt, "file")

		var c TaskIDCounter
		if useFile {
			dir, err := os.MkdirTemp("", "taskid-concurrent-*")
			if err != nil {
				t.Fatalf("failed to create temp dir: %v", err)
			}
			defer os.RemoveAll(dir)
			c = NewFileTaskIDCounter(dir, 0)
		} else {
			c = NewMemoryTaskIDCounter(0)
		}

		var (
			mu   sync.Mutex
			seen = make(map[int]struct{})
			wg   sync.WaitGroup
			errs []error
		)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perWorker; i++ {
					id, err := c.Next()
					mu.Lock()
					if err != nil {
						errs = append(errs, err)
					} else {
						if _, dup := seen[id]; dup {
							errs = append(errs, fmt.Errorf("duplicate id %d", id))
						}
						seen[id] = struct{}{}
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if len(errs) > 0 {
			rt.Fatalf("errors or duplicate ids: %v", errs)
		}
		if len(seen) != workers*perWorker {
			rt.Fatalf("got %d distinct ids, want %d", len(seen), workers*perWorker)
		}
	})
}
