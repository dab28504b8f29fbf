package core

import (
	"testing"

	"github.com/valter-silva-au/taskcard/pkg/models"
	"pgregory.net/rapid"
)

func TestInitialize(t *testing.T) {
	s := Initialize()
	if !s.Success {
		t.Error("Success = false, want true")
	}
	if s.AppState != models.StateStart {
		t.Errorf("AppState = %q, want start", s.AppState)
	}
	if !s.CurrentTask.IsEmpty() {
		t.Errorf("CurrentTask = %+v, want empty", s.CurrentTask)
	}
	if s.ErrorMessage != "" {
		t.Errorf("ErrorMessage = %q, want empty", s.ErrorMessage)
	}
}

func TestFetching(t *testing.T) {
	s := Fetching()
	if !s.Success || s.AppState != models.StateFetchingTask || !s.CurrentTask.IsEmpty() || s.ErrorMessage != "" {
		t.Errorf("Fetching() = %+v", s)
	}
}

func TestGotTask(t *testing.T) {
	task := models.Task{ID: 7, Title: "Write report", UpdatedAt: "2021-03-01T10:00:00Z"}
	s := GotTask(task)
	if !s.Success || s.AppState != models.StateGotTask || s.ErrorMessage != "" {
		t.Errorf("GotTask() = %+v", s)
	}
	if s.CurrentTask != task {
		t.Errorf("CurrentTask = %+v, want %+v", s.CurrentTask, task)
	}
}

func TestFailed(t *testing.T) {
	s := Failed("network down")
	if s.Success {
		t.Error("Success = true, want false")
	}
	if s.AppState != models.StateError {
		t.Errorf("AppState = %q, want error", s.AppState)
	}
	if !s.CurrentTask.IsEmpty() {
		t.Errorf("CurrentTask = %+v, want empty", s.CurrentTask)
	}
	if s.ErrorMessage != "network down" {
		t.Errorf("ErrorMessage = %q", s.ErrorMessage)
	}
}

func TestConstructors_ReturnFreshValues(t *testing.T) {
	a := GotTask(models.Task{ID: 1, Title: "a"})
	a.CurrentTask.Title = "mutated"
	a.ErrorMessage = "mutated"

	b := GotTask(models.Task{ID: 1, Title: "a"})
	if b.CurrentTask.Title != "a" || b.ErrorMessage != "" {
		t.Errorf("constructor returned a value sharing state with an earlier result: %+v", b)
	}

	i := Initialize()
	i.CurrentTask.ID = 99
	if !Initialize().CurrentTask.IsEmpty() {
		t.Error("Initialize() returned a mutated template")
	}
}

func TestSame(t *testing.T) {
	task := models.Task{ID: 3, Title: "t", UpdatedAt: "u1"}

	tests := []struct {
		name string
		a, b models.Snapshot
		want bool
	}{
		{"identical start", Initialize(), Initialize(), true},
		{"start vs fetching", Initialize(), Fetching(), false},
		{"same task", GotTask(task), GotTask(task), true},
		{"different task id", GotTask(task), GotTask(models.Task{ID: 4, UpdatedAt: "u1"}), false},
		{"different updated_at", GotTask(task), GotTask(models.Task{ID: 3, UpdatedAt: "u2"}), false},
		{"title ignored", GotTask(task), GotTask(models.Task{ID: 3, Title: "other", UpdatedAt: "u1"}), true},
		{"different error message", Failed("a"), Failed("b"), false},
		{"error vs start", Failed(""), Initialize(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Same(tt.a, tt.b); got != tt.want {
				t.Errorf("Same() = %v, want %v", got, tt.want)
			}
		})
	}
}

func genTask() *rapid.Generator[models.Task] {
	return rapid.Custom(func(t *rapid.T) models.Task {
		return models.Task{
			ID:          rapid.IntRange(0, 100000).Draw(t, "id"),
			Title:       rapid.String().Draw(t, "title"),
			Description: rapid.String().Draw(t, "description"),
			Urgency:     rapid.IntRange(0, 5).Draw(t, "urgency"),
			Status:      rapid.IntRange(0, 3).Draw(t, "status"),
			UpdatedAt:   rapid.StringMatching(`2021-0[1-9]-[12][0-9]T1[0-9]:00:00Z`).Draw(t, "updated_at"),
		}
	})
}

func genSnapshot() *rapid.Generator[models.Snapshot] {
	return rapid.Custom(func(t *rapid.T) models.Snapshot {
		switch rapid.SampledFrom(models.AppStates).Draw(t, "state") {
		case models.StateStart:
			return Initialize()
		case models.StateFetchingTask:
			return Fetching()
		case models.StateGotTask:
			return GotTask(genTask().Draw(t, "task"))
		default:
			return Failed(rapid.String().Draw(t, "message"))
		}
	})
}

// Every constructor result satisfies the invariants of its tag.
func TestProperty_ConstructorsProduceValidSnapshots(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := genSnapshot().Draw(rt, "snapshot")
		if _, err := s.Variant(); err != nil {
			rt.Fatalf("constructor produced invalid snapshot %+v: %v", s, err)
		}
		if (s.ErrorMessage != "") && s.AppState != models.StateError {
			rt.Fatalf("error message outside error state: %+v", s)
		}
	})
}

// Same is reflexive and symmetric, and false whenever the tags differ.
func TestProperty_SameEquivalence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := genSnapshot().Draw(rt, "a")
		b := genSnapshot().Draw(rt, "b")

		if !Same(a, a) {
			rt.Fatalf("Same(a, a) = false for %+v", a)
		}
		if Same(a, b) != Same(b, a) {
			rt.Fatalf("Same is not symmetric for %+v and %+v", a, b)
		}
		if a.AppState != b.AppState && Same(a, b) {
			rt.Fatalf("Same() = true across states %q and %q", a.AppState, b.AppState)
		}
	})
}
