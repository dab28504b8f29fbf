package models

import "fmt"

// AppState is the tag naming where the application currently is.
type AppState string

const (
	StateStart        AppState = "start"
	StateFetchingTask AppState = "fetchingTask"
	StateGotTask      AppState = "gotTask"
	StateError        AppState = "error"
)

// AppStates lists every valid tag in lifecycle order.
var AppStates = []AppState{StateStart, StateFetchingTask, StateGotTask, StateError}

// Valid reports whether s is one of the fixed tags.
func (s AppState) Valid() bool {
	switch s {
	case StateStart, StateFetchingTask, StateGotTask, StateError:
		return true
	}
	return false
}

// Snapshot is the persisted form of the application state. Every Snapshot
// written to or read from a slot satisfies the invariants checked by Variant.
type Snapshot struct {
	Success      bool     `json:"success"`
	AppState     AppState `json:"app_state"`
	CurrentTask  Task     `json:"current_task"`
	ErrorMessage string   `json:"error_message"`
}

// State is the closed set of application states. Each variant carries only
// the payload its state needs.
type State interface {
	Tag() AppState
	isState()
}

// Start is the state set once when the application loads.
type Start struct{}

// Fetching is the state while a task request is in flight.
type Fetching struct{}

// GotTask holds the most recently fetched task.
type GotTask struct {
	Task Task
}

// Failed holds the description of what went wrong.
type Failed struct {
	Message string
}

func (Start) Tag() AppState    { return StateStart }
func (Fetching) Tag() AppState { return StateFetchingTask }
func (GotTask) Tag() AppState  { return StateGotTask }
func (Failed) Tag() AppState   { return StateError }

func (Start) isState()    {}
func (Fetching) isState() {}
func (GotTask) isState()  {}
func (Failed) isState()   {}

// Flatten returns the persisted form of a state variant.
func Flatten(s State) Snapshot {
	switch v := s.(type) {
	case GotTask:
		return Snapshot{Success: true, AppState: StateGotTask, CurrentTask: v.Task}
	case Failed:
		return Snapshot{Success: false, AppState: StateError, CurrentTask: EmptyTask(), ErrorMessage: v.Message}
	case Fetching:
		return Snapshot{Success: true, AppState: StateFetchingTask, CurrentTask: EmptyTask()}
	default:
		return Snapshot{Success: true, AppState: StateStart, CurrentTask: EmptyTask()}
	}
}

// Variant recovers the state variant of a snapshot. It returns an error when
// the tag is unknown or the snapshot violates the invariants of its tag.
func (s Snapshot) Variant() (State, error) {
	switch s.AppState {
	case StateStart, StateFetchingTask:
		if !s.Success {
			return nil, fmt.Errorf("%s snapshot must be successful", s.AppState)
		}
		if !s.CurrentTask.IsEmpty() {
			return nil, fmt.Errorf("%s snapshot must not carry a task", s.AppState)
		}
		if s.ErrorMessage != "" {
			return nil, fmt.Errorf("%s snapshot must not carry an error message", s.AppState)
		}
		if s.AppState == StateStart {
			return Start{}, nil
		}
		return Fetching{}, nil
	case StateGotTask:
		if !s.Success {
			return nil, fmt.Errorf("gotTask snapshot must be successful")
		}
		if s.ErrorMessage != "" {
			return nil, fmt.Errorf("gotTask snapshot must not carry an error message")
		}
		return GotTask{Task: s.CurrentTask}, nil
	case StateError:
		if s.Success {
			return nil, fmt.Errorf("error snapshot must not be successful")
		}
		if !s.CurrentTask.IsEmpty() {
			return nil, fmt.Errorf("error snapshot must not carry a task")
		}
		return Failed{Message: s.ErrorMessage}, nil
	default:
		return nil, fmt.Errorf("unknown app state %q", s.AppState)
	}
}

// Normalize rebuilds s from its tag so that it satisfies the invariants of
// that tag, discarding fields the tag does not own. Unknown tags are rejected.
func Normalize(s Snapshot) (Snapshot, error) {
	switch s.AppState {
	case StateStart:
		return Flatten(Start{}), nil
	case StateFetchingTask:
		return Flatten(Fetching{}), nil
	case StateGotTask:
		return Flatten(GotTask{Task: s.CurrentTask}), nil
	case StateError:
		return Flatten(Failed{Message: s.ErrorMessage}), nil
	default:
		return Snapshot{}, fmt.Errorf("normalizing snapshot: unknown app state %q", s.AppState)
	}
}
