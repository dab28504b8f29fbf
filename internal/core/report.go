package core

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/valter-silva-au/taskcard/pkg/models"
)

// ParseLogLevel maps a configured level name onto a slog level. Unknown names
// fall back to warn.
func ParseLogLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// NewLogger returns a text logger writing to w at the given level.
func NewLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLogLevel(level)}))
}

// StateReporter writes one diagnostic record per snapshot it is handed.
type StateReporter struct {
	logger *slog.Logger
}

// NewStateReporter creates a StateReporter. A nil logger discards reports.
func NewStateReporter(logger *slog.Logger) *StateReporter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &StateReporter{logger: logger}
}

// Report logs the snapshot observed at where. Error snapshots are logged at
// warn level, everything else at debug.
func (r *StateReporter) Report(where string, s models.Snapshot) {
	level := slog.LevelDebug
	if s.AppState == models.StateError {
		level = slog.LevelWarn
	}
	r.logger.Log(context.Background(), level, "app state",
		"where", where,
		"success", s.Success,
		"state", string(s.AppState),
		"error", s.ErrorMessage,
		"task_id", s.CurrentTask.ID,
		"task_title", s.CurrentTask.Title,
	)
}
