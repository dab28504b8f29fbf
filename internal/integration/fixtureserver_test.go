package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valter-silva-au/taskcard/pkg/models"
)

func serve(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestFixtureHandler_GetTask(t *testing.T) {
	h := NewFixtureHandler(DefaultTaskFixtures(), nil)

	rec := serve(t, h, "/tasks/197")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var task models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &task))
	assert.Equal(t, 197, task.ID)
	assert.Equal(t, "Review pull request", task.Title)
}

func TestFixtureHandler_Errors(t *testing.T) {
	h := NewFixtureHandler(DefaultTaskFixtures(), nil)

	tests := []struct {
		path string
		code int
	}{
		{"/tasks/abc", http.StatusBadRequest},
		{"/tasks/1", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := serve(t, h, tt.path)
			assert.Equal(t, tt.code, rec.Code)

			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestFixtureHandler_ListAndHealth(t *testing.T) {
	fx := &TaskFixtures{Tasks: []models.Task{{ID: 3}, {ID: 1}, {ID: 2}}}
	h := NewFixtureHandler(fx, nil)

	rec := serve(t, h, "/tasks")
	require.Equal(t, http.StatusOK, rec.Code)
	var tasks []models.Task
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tasks))
	require.Len(t, tasks, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{tasks[0].ID, tasks[1].ID, tasks[2].ID})

	rec = serve(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestLoadTaskFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tasks:
  - id: 196
    title: Stretch
    description: Five minutes.
    duration_minutes: 5
    updated_at: "2021-03-01"
  - id: 197
    title: Tea
`), 0o644))

	fx, err := LoadTaskFixtures(path)
	require.NoError(t, err)
	require.Len(t, fx.Tasks, 2)
	assert.Equal(t, "Stretch", fx.Tasks[0].Title)
	assert.Equal(t, 5, fx.Tasks[0].DurationMinutes)
	assert.Equal(t, "2021-03-01", fx.Tasks[0].UpdatedAt)
}

func TestLoadTaskFixtures_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTaskFixtures(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("tasks:\n  - id: 1\n  - id: 1\n"), 0o644))
	_, err = LoadTaskFixtures(dup)
	assert.ErrorContains(t, err, "duplicate task id 1")

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("tasks: [unterminated"), 0o644))
	_, err = LoadTaskFixtures(bad)
	assert.Error(t, err)
}
