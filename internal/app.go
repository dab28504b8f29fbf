// Package internal provides the App struct that wires all components of
// taskcard together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valter-silva-au/taskcard/internal/cli"
	"github.com/valter-silva-au/taskcard/internal/core"
	"github.com/valter-silva-au/taskcard/internal/integration"
	"github.com/valter-silva-au/taskcard/internal/observability"
	"github.com/valter-silva-au/taskcard/internal/storage"
	"github.com/valter-silva-au/taskcard/pkg/models"
)

// HomeEnv overrides the base path lookup.
const HomeEnv = "TASKCARD_HOME"

// App holds all service dependencies for taskcard.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.Config

	// Logging
	Logger   *slog.Logger
	Reporter *core.StateReporter

	// Storage layer
	Slot  storage.Slot
	Store *storage.StateStore

	// Core services
	Counter core.TaskIDCounter
	Fetcher integration.TaskAPIClient

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier
	Recorder    *observability.PrometheusRecorder

	closeSlot func() error
}

// NewApp creates and wires all components of taskcard. basePath is the
// directory holding .taskcard.yaml and the .taskcard data directory.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	app.Config = cfg

	// --- Logging ---
	app.Logger = core.NewLogger(cfg.Log.Level, os.Stderr)
	app.Reporter = core.NewStateReporter(app.Logger)

	// --- Observability ---
	app.Recorder = observability.NewPrometheusRecorder(nil)
	var evtAdapter core.EventLogger
	if cfg.Events.Enabled {
		eventLogPath := filepath.Join(basePath, storage.DataDir, "events.jsonl")
		app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: run without the event log.
			app.Logger.Warn("event log disabled", "path", eventLogPath, "error", err)
			app.EventLog = nil
		}
	}
	if app.EventLog != nil {
		evtAdapter = &eventLogAdapter{log: app.EventLog}

		thresholds := observability.DefaultAlertThresholds()
		thresholds.MaxConsecutiveFailures = cfg.Alerts.MaxConsecutiveFailures
		thresholds.MaxFallbackReads = cfg.Alerts.MaxFallbackReads
		app.AlertEngine = observability.NewAlertEngine(app.EventLog, thresholds)
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	if cfg.Notifications.Slack.WebhookURL != "" {
		app.Notifier = observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL, app.MetricsCalc)
	}

	// --- Storage layer ---
	slot, closeSlot, err := storage.OpenSlot(cfg.Storage.Backend, basePath)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("opening %s slot: %w", cfg.Storage.Backend, err)
	}
	app.Slot = slot
	app.closeSlot = closeSlot
	app.Store = storage.NewStateStore(slot, cfg.Storage.Key, storage.StateStoreOptions{
		Reporter: app.Reporter,
		Events:   evtAdapter,
		Recorder: app.Recorder,
	})

	// --- Core services ---
	if strings.EqualFold(cfg.Storage.Backend, storage.BackendMemory) {
		app.Counter = core.NewMemoryTaskIDCounter(cfg.API.StartID)
	} else {
		app.Counter = core.NewFileTaskIDCounter(filepath.Join(basePath, storage.DataDir), cfg.API.StartID)
	}
	app.Fetcher = integration.NewTaskAPIClient(integration.TaskAPIConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Token:   cfg.API.Token,
	})

	// --- Wire CLI package-level variables ---
	cli.Logger = app.Logger
	cli.Reporter = app.Reporter
	cli.ConfigMgr = app.ConfigMgr
	cli.Store = app.Store
	cli.Fetcher = app.Fetcher
	cli.NewWorkflow = app.newWorkflow
	if fs, ok := slot.(*storage.FileSlot); ok {
		cli.WatchState = app.stateWatcher(fs, cfg.Storage.Key)
	} else {
		cli.WatchState = nil
	}

	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.Notifier = app.Notifier
	cli.Recorder = app.Recorder

	return app, nil
}

// newWorkflow builds a workflow over the app services. Each surface passes
// its own renderer; nil means nothing is rendered.
func (a *App) newWorkflow(renderer core.Renderer) core.Workflow {
	deps := core.WorkflowDeps{
		Store:    a.Store,
		Counter:  a.Counter,
		Fetcher:  a.Fetcher,
		Renderer: renderer,
		Recorder: a.Recorder,
		Reporter: a.Reporter,
	}
	if a.EventLog != nil {
		deps.Events = &eventLogAdapter{log: a.EventLog}
	}
	return core.NewWorkflow(deps)
}

// stateWatcher returns a function that starts watching the slot file for key
// and calls onChange after writes from any process.
func (a *App) stateWatcher(slot *storage.FileSlot, key string) func(onChange func()) (func() error, error) {
	return func(onChange func()) (func() error, error) {
		w, err := storage.NewSlotWatcher(slot, key, storage.DefaultDebounce, onChange, a.Logger)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithCancel(context.Background())
		go w.Run(ctx)
		return func() error {
			cancel()
			return w.Close()
		}, nil
	}
}

// Close releases resources held by the App, such as the event log file handle
// and the slot database. It is safe to call Close more than once.
func (a *App) Close() error {
	var firstErr error
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil {
			firstErr = err
		}
		a.EventLog = nil
	}
	if a.closeSlot != nil {
		if err := a.closeSlot(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.closeSlot = nil
	}
	return firstErr
}

// ResolveBasePath determines the base path for taskcard data. It checks the
// TASKCARD_HOME env var, then walks up from the current directory looking for
// .taskcard.yaml, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv(HomeEnv); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

// --- Adapters ---

// eventLogAdapter adapts observability.EventLog to core.EventLogger.
type eventLogAdapter struct {
	log observability.EventLog
}

func (a *eventLogAdapter) LogEvent(eventType string, data map[string]any) error {
	return a.log.Write(observability.Event{
		Time:    time.Now().UTC(),
		Level:   observability.LevelFor(eventType),
		Type:    eventType,
		Message: observability.MessageFor(eventType),
		Data:    data,
	})
}
