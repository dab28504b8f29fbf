package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valter-silva-au/taskcard/pkg/models"
)

// StateStore is the persistence gateway the workflow reads and writes
// snapshots through. It is implemented by storage.StateStore.
type StateStore interface {
	Put(s models.Snapshot) error
	Get() models.Snapshot
	Clear() error
	Exists() bool
}

// TaskFetcher retrieves one task from the remote task resource.
type TaskFetcher interface {
	FetchTask(ctx context.Context, id int) (models.Task, error)
}

// Renderer shows a snapshot to the user.
type Renderer interface {
	Render(s models.Snapshot)
}

// Recorder receives counters and timings. It is implemented by the
// observability recorders.
type Recorder interface {
	RecordTransition(to models.AppState)
	RecordFetch(outcome string, elapsed time.Duration)
	RecordFallback()
}

// Fetch outcomes passed to Recorder.RecordFetch.
const (
	FetchOutcomeSuccess = "success"
	FetchOutcomeFailure = "failure"
)

// FetchRequest identifies one task request between Begin and Complete.
type FetchRequest struct {
	TaskID    int
	RequestID string
	StartedAt time.Time
}

// Workflow drives the start -> fetchingTask -> gotTask|error cycle. Every
// transition is persisted and then rendered.
type Workflow interface {
	// Init clears the slot and persists the start state.
	Init() error
	// Current returns the persisted snapshot, or the fallback error snapshot
	// when none can be read.
	Current() models.Snapshot
	// Begin takes the next task id and moves to fetchingTask.
	Begin() (FetchRequest, error)
	// Complete moves to gotTask or error depending on the fetch result.
	Complete(req FetchRequest, task models.Task, fetchErr error) (models.Snapshot, error)
	// RequestNextTask runs Begin, the fetch and Complete in sequence.
	RequestNextTask(ctx context.Context) (models.Snapshot, error)
}

// WorkflowDeps are the collaborators of a Workflow. Store, Counter and Fetcher
// are required; the rest may be nil.
type WorkflowDeps struct {
	Store    StateStore
	Counter  TaskIDCounter
	Fetcher  TaskFetcher
	Renderer Renderer
	Events   EventLogger
	Recorder Recorder
	Reporter *StateReporter
	Now      func() time.Time
}

type taskWorkflow struct {
	deps WorkflowDeps
}

// NewWorkflow creates a Workflow from deps.
func NewWorkflow(deps WorkflowDeps) Workflow {
	if deps.Reporter == nil {
		deps.Reporter = NewStateReporter(nil)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &taskWorkflow{deps: deps}
}

func (w *taskWorkflow) Init() error {
	if err := w.deps.Store.Clear(); err != nil {
		return fmt.Errorf("clearing state: %w", err)
	}
	s := Initialize()
	if err := w.deps.Store.Put(s); err != nil {
		return fmt.Errorf("persisting start state: %w", err)
	}
	w.render(s)
	w.logEvent("state.initialized", map[string]any{"to": string(s.AppState)})
	w.recordTransition(s.AppState)
	return nil
}

func (w *taskWorkflow) Current() models.Snapshot {
	return w.deps.Store.Get()
}

func (w *taskWorkflow) Begin() (FetchRequest, error) {
	prev := w.deps.Store.Get()
	w.deps.Reporter.Report("request next task", prev)

	id, err := w.deps.Counter.Next()
	if err != nil {
		return FetchRequest{}, fmt.Errorf("taking next task id: %w", err)
	}
	req := FetchRequest{
		TaskID:    id,
		RequestID: uuid.NewString(),
		StartedAt: w.deps.Now(),
	}

	s := Fetching()
	if err := w.deps.Store.Put(s); err != nil {
		return FetchRequest{}, fmt.Errorf("persisting fetching state: %w", err)
	}
	w.render(s)

	w.logEvent("task.fetch_started", map[string]any{
		"request_id": req.RequestID,
		"task_id":    req.TaskID,
	})
	w.logEvent("state.transition", map[string]any{
		"request_id": req.RequestID,
		"from":       string(prev.AppState),
		"to":         string(s.AppState),
	})
	w.recordTransition(s.AppState)
	return req, nil
}

func (w *taskWorkflow) Complete(req FetchRequest, task models.Task, fetchErr error) (models.Snapshot, error) {
	elapsed := w.deps.Now().Sub(req.StartedAt)

	var s models.Snapshot
	if fetchErr != nil {
		s = Failed(fetchErr.Error())
	} else {
		s = GotTask(task)
	}

	// Another process may have rewritten the slot since Begin.
	prev := w.deps.Store.Get()
	if err := w.deps.Store.Put(s); err != nil {
		return s, fmt.Errorf("persisting %s state: %w", s.AppState, err)
	}
	w.render(s)

	if fetchErr != nil {
		w.logEvent("task.fetch_failed", map[string]any{
			"request_id":  req.RequestID,
			"task_id":     req.TaskID,
			"duration_ms": elapsed.Milliseconds(),
			"error":       fetchErr.Error(),
		})
		w.recordFetch(FetchOutcomeFailure, elapsed)
	} else {
		w.logEvent("task.fetched", map[string]any{
			"request_id":  req.RequestID,
			"task_id":     req.TaskID,
			"duration_ms": elapsed.Milliseconds(),
			"title":       task.Title,
		})
		w.recordFetch(FetchOutcomeSuccess, elapsed)
	}
	w.logEvent("state.transition", map[string]any{
		"request_id": req.RequestID,
		"from":       string(prev.AppState),
		"to":         string(s.AppState),
	})
	w.recordTransition(s.AppState)
	return s, nil
}

func (w *taskWorkflow) RequestNextTask(ctx context.Context) (models.Snapshot, error) {
	req, err := w.Begin()
	if err != nil {
		return models.Snapshot{}, err
	}
	task, fetchErr := w.deps.Fetcher.FetchTask(ctx, req.TaskID)
	return w.Complete(req, task, fetchErr)
}

func (w *taskWorkflow) render(s models.Snapshot) {
	if w.deps.Renderer != nil {
		w.deps.Renderer.Render(s)
	}
}

// logEvent is best-effort: a failing event log never fails a transition.
func (w *taskWorkflow) logEvent(eventType string, data map[string]any) {
	if w.deps.Events != nil {
		_ = w.deps.Events.LogEvent(eventType, data)
	}
}

func (w *taskWorkflow) recordTransition(to models.AppState) {
	if w.deps.Recorder != nil {
		w.deps.Recorder.RecordTransition(to)
	}
}

func (w *taskWorkflow) recordFetch(outcome string, elapsed time.Duration) {
	if w.deps.Recorder != nil {
		w.deps.Recorder.RecordFetch(outcome, elapsed)
	}
}
