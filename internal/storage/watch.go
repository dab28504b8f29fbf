package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 100 * time.Millisecond

// SlotWatcher calls onChange whenever the file holding one slot key is
// written, created, renamed or removed. Bursts of events within the debounce
// window produce a single call.
type SlotWatcher struct {
	watcher  *fsnotify.Watcher
	target   string
	debounce time.Duration
	onChange func()
	logger   *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewSlotWatcher watches the file that slot uses for key. The slot directory
// is created if it does not exist yet.
func NewSlotWatcher(slot *FileSlot, key string, debounce time.Duration, onChange func(), logger *slog.Logger) (*SlotWatcher, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(slot.Dir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating slot directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory: the value file is replaced by rename on every write.
	if err := w.Add(slot.Dir()); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch slot directory %s: %w", slot.Dir(), err)
	}

	return &SlotWatcher{
		watcher:  w,
		target:   filepath.Base(slot.Path(key)),
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Run processes events until ctx is cancelled or Close is called.
func (sw *SlotWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			sw.stopTimer()
			return
		case event, ok := <-sw.watcher.Events:
			if !ok {
				sw.stopTimer()
				return
			}
			if filepath.Base(event.Name) != sw.target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				sw.logger.Debug("slot file changed", "file", event.Name, "op", event.Op.String())
				sw.trigger()
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				sw.stopTimer()
				return
			}
			sw.logger.Error("slot watcher error", "error", err)
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (sw *SlotWatcher) Close() error {
	sw.mu.Lock()
	if sw.stopped {
		sw.mu.Unlock()
		return nil
	}
	sw.stopped = true
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.mu.Unlock()
	return sw.watcher.Close()
}

func (sw *SlotWatcher) trigger() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.stopped {
		return
	}
	if sw.timer != nil {
		sw.timer.Stop()
	}
	sw.timer = time.AfterFunc(sw.debounce, func() {
		sw.mu.Lock()
		stopped := sw.stopped
		sw.mu.Unlock()
		if !stopped && sw.onChange != nil {
			sw.onChange()
		}
	})
}

func (sw *SlotWatcher) stopTimer() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.timer != nil {
		sw.timer.Stop()
	}
}
