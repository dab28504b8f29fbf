package integration

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/valter-silva-au/taskcard/pkg/models"
	"gopkg.in/yaml.v3"
)

// TaskFixtures is the YAML document served by the fixture task server.
type TaskFixtures struct {
	Tasks []models.Task `yaml:"tasks"`
}

// LoadTaskFixtures reads a fixture file. Task ids must be unique.
func LoadTaskFixtures(path string) (*TaskFixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading fixtures %s: %w", path, err)
	}

	var fx TaskFixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parsing fixtures %s: %w", path, err)
	}

	seen := make(map[int]struct{}, len(fx.Tasks))
	for _, t := range fx.Tasks {
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("fixtures %s: duplicate task id %d", path, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return &fx, nil
}

// DefaultTaskFixtures returns the built-in tasks served when no fixture file
// is given. Their ids start at the default start id.
func DefaultTaskFixtures() *TaskFixtures {
	const created = "2021-03-01T08:00:00.000Z"
	return &TaskFixtures{Tasks: []models.Task{
		{ID: 196, Title: "Water the plants", Description: "The ones on the balcony first.", Urgency: 2, DurationMinutes: 10, Status: 1, PlannedDate: "2021-03-01", PlannedStartingTime: "08:30", CreatedAt: created, UpdatedAt: created},
		{ID: 197, Title: "Review pull request", Description: "Check the storage changes and leave comments.", Urgency: 3, DurationMinutes: 45, Status: 1, Deadline: "2021-03-02", CreatedAt: created, UpdatedAt: created},
		{ID: 198, Title: "Book dentist appointment", Description: "Call before noon.", Urgency: 1, DurationMinutes: 5, Status: 0, AttentionDate: "2021-03-03", CreatedAt: created, UpdatedAt: created},
		{ID: 199, Title: "Plan the week", Description: "Block time for deep work.", Urgency: 2, DurationMinutes: 30, Status: 0, PlannedDate: "2021-03-07", CreatedAt: created, UpdatedAt: created},
		{ID: 200, Title: "Renew library books", Description: "Three are due on Friday.", Urgency: 1, DurationMinutes: 10, Status: 0, Deadline: "2021-03-05", CreatedAt: created, UpdatedAt: created},
	}}
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewFixtureHandler serves fx over HTTP:
//
//	GET /tasks       every task, ordered by id
//	GET /tasks/{id}  one task; 400 for a non-integer id, 404 for an unknown one
//	GET /health      liveness
func NewFixtureHandler(fx *TaskFixtures, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	byID := make(map[int]models.Task, len(fx.Tasks))
	ordered := make([]models.Task, 0, len(fx.Tasks))
	for _, t := range fx.Tasks {
		byID[t.ID] = t
		ordered = append(ordered, t)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/tasks", func(w http.ResponseWriter, req *http.Request) {
		respondJSON(w, logger, http.StatusOK, ordered)
	})
	r.Get("/tasks/{id}", func(w http.ResponseWriter, req *http.Request) {
		raw := chi.URLParam(req, "id")
		id, err := strconv.Atoi(raw)
		if err != nil {
			respondJSON(w, logger, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid task id %q", raw)})
			return
		}
		task, ok := byID[id]
		if !ok {
			logger.Debug("fixture task not found", "id", id, "request_id", middleware.GetReqID(req.Context()))
			respondJSON(w, logger, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("task %d not found", id)})
			return
		}
		respondJSON(w, logger, http.StatusOK, task)
	})
	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.Error("failed to write health check response", "error", err)
		}
	})
	return r
}

func respondJSON(w http.ResponseWriter, logger *slog.Logger, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}
