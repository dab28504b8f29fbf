package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Task is a unit of work fetched from the remote task API. A Task is replaced
// wholesale on every successful fetch and never edited field by field.
type Task struct {
	ID                  int    `json:"id" yaml:"id"`
	Title               string `json:"title" yaml:"title"`
	Description         string `json:"description" yaml:"description"`
	Urgency             int    `json:"urgency" yaml:"urgency"`
	DurationMinutes     int    `json:"duration_minutes" yaml:"duration_minutes"`
	AttentionDate       string `json:"attention_date" yaml:"attention_date"`
	Deadline            string `json:"deadline" yaml:"deadline"`
	PlannedDate         string `json:"planned_date" yaml:"planned_date"`
	PlannedStartingTime string `json:"planned_starting_time" yaml:"planned_starting_time"`
	Status              int    `json:"status" yaml:"status"`
	CreatedAt           string `json:"created_at" yaml:"created_at"`
	UpdatedAt           string `json:"updated_at" yaml:"updated_at"`
}

// EmptyTask returns the canonical placeholder used whenever no real task is
// loaded.
func EmptyTask() Task {
	return Task{}
}

// IsEmpty reports whether t is the canonical placeholder.
func (t Task) IsEmpty() bool {
	return t == Task{}
}

// DecodeTask copies every recognized field from raw into a Task. It never
// fails: missing fields and fields of an unexpected type become zero values.
func DecodeTask(raw map[string]any) Task {
	return Task{
		ID:                  intField(raw, "id"),
		Title:               stringField(raw, "title"),
		Description:         stringField(raw, "description"),
		Urgency:             intField(raw, "urgency"),
		DurationMinutes:     intField(raw, "duration_minutes"),
		AttentionDate:       stringField(raw, "attention_date"),
		Deadline:            stringField(raw, "deadline"),
		PlannedDate:         stringField(raw, "planned_date"),
		PlannedStartingTime: stringField(raw, "planned_starting_time"),
		Status:              intField(raw, "status"),
		CreatedAt:           stringField(raw, "created_at"),
		UpdatedAt:           stringField(raw, "updated_at"),
	}
}

func stringField(raw map[string]any, name string) string {
	switch v := raw[name].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func intField(raw map[string]any, name string) int {
	switch v := raw[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0
		}
		if v >= float64(math.MaxInt) || v < float64(math.MinInt) {
			return 0
		}
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
