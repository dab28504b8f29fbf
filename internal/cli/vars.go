package cli

import (
	"log/slog"

	"github.com/valter-silva-au/taskcard/internal/core"
	"github.com/valter-silva-au/taskcard/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	Logger    *slog.Logger
	Reporter  *core.StateReporter
	ConfigMgr core.ConfigurationManager
	Store     core.StateStore
	Fetcher   core.TaskFetcher

	// NewWorkflow builds a workflow that renders through renderer. Every
	// surface (card, line output, MCP) supplies its own renderer.
	NewWorkflow func(renderer core.Renderer) core.Workflow

	// WatchState calls onChange whenever another process rewrites the stored
	// state. It is nil when the slot backend cannot be watched.
	WatchState func(onChange func()) (stop func() error, err error)
)

// Observability service instances, set during app initialization in app.go.
var (
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
	Recorder    *observability.PrometheusRecorder
)
