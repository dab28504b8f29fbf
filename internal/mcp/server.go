// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the taskcard workflow as MCP tools for AI coding assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/taskcard/internal/core"
	"github.com/valter-silva-au/taskcard/internal/observability"
	"github.com/valter-silva-au/taskcard/pkg/models"
)

// Server wraps the workflow and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	workflow    core.Workflow
	metricsCalc observability.MetricsCalculator
	alertEngine observability.AlertEngine
}

// NewServer creates a new MCP server driving workflow. metricsCalc and
// alertEngine may be nil if the event log is disabled.
func NewServer(workflow core.Workflow, metricsCalc observability.MetricsCalculator, alertEngine observability.AlertEngine, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		workflow:    workflow,
		metricsCalc: metricsCalc,
		alertEngine: alertEngine,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "taskcard", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getStateInput struct{}

type requestNextTaskInput struct{}

type resetStateInput struct{}

type taskOutput struct {
	ID                  int    `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	Urgency             int    `json:"urgency"`
	DurationMinutes     int    `json:"duration_minutes"`
	AttentionDate       string `json:"attention_date,omitempty"`
	Deadline            string `json:"deadline,omitempty"`
	PlannedDate         string `json:"planned_date,omitempty"`
	PlannedStartingTime string `json:"planned_starting_time,omitempty"`
	Status              int    `json:"status"`
	CreatedAt           string `json:"created_at,omitempty"`
	UpdatedAt           string `json:"updated_at,omitempty"`
}

type viewOutput struct {
	Title          string `json:"title"`
	Body           string `json:"body"`
	TriggerEnabled bool   `json:"trigger_enabled"`
}

type stateOutput struct {
	Success      bool        `json:"success"`
	AppState     string      `json:"app_state"`
	ErrorMessage string      `json:"error_message,omitempty"`
	Task         *taskOutput `json:"current_task,omitempty"`
	View         viewOutput  `json:"view"`
}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	Initializations  int            `json:"initializations"`
	FetchesStarted   int            `json:"fetches_started"`
	FetchesSucceeded int            `json:"fetches_succeeded"`
	FetchesFailed    int            `json:"fetches_failed"`
	SuccessRate      float64        `json:"success_rate"`
	AvgFetchMillis   float64        `json:"avg_fetch_ms"`
	Transitions      map[string]int `json:"transitions"`
	FallbackReads    int            `json:"fallback_reads"`
	Clears           int            `json:"clears"`
	LastTaskID       int            `json:"last_task_id,omitempty"`
	LastError        string         `json:"last_error,omitempty"`
	EventCount       int            `json:"event_count"`
	OldestEvent      string         `json:"oldest_event,omitempty"`
	NewestEvent      string         `json:"newest_event,omitempty"`
}

type getAlertsInput struct{}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_state",
		Description: "Get the persisted application state and the card it renders to. Returns the error state when nothing usable is stored.",
	}, s.handleGetState)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "request_next_task",
		Description: "Fetch the next task from the task API. Moves through fetchingTask to gotTask, or to error with the fetch error text.",
	}, s.handleRequestNextTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "reset_state",
		Description: "Clear the stored state and start over in the start state.",
	}, s.handleResetState)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log, including fetch outcomes, state transitions and fallback reads.",
	}, s.handleGetMetrics)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Evaluate and return active alerts (repeated fetch failures, unreadable stored state).",
	}, s.handleGetAlerts)
}

// --- Tool handlers ---

func (s *Server) handleGetState(_ context.Context, _ *gomcp.CallToolRequest, _ getStateInput) (*gomcp.CallToolResult, stateOutput, error) {
	return nil, stateToOutput(s.workflow.Current()), nil
}

func (s *Server) handleRequestNextTask(ctx context.Context, _ *gomcp.CallToolRequest, _ requestNextTaskInput) (*gomcp.CallToolResult, stateOutput, error) {
	snap, err := s.workflow.RequestNextTask(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("requesting next task: %s", err)), stateOutput{}, nil
	}
	return nil, stateToOutput(snap), nil
}

func (s *Server) handleResetState(_ context.Context, _ *gomcp.CallToolRequest, _ resetStateInput) (*gomcp.CallToolResult, stateOutput, error) {
	if err := s.workflow.Init(); err != nil {
		return errorResult(fmt.Sprintf("resetting state: %s", err)), stateOutput{}, nil
	}
	return nil, stateToOutput(s.workflow.Current()), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		Initializations:  metrics.Initializations,
		FetchesStarted:   metrics.FetchesStarted,
		FetchesSucceeded: metrics.FetchesSucceeded,
		FetchesFailed:    metrics.FetchesFailed,
		SuccessRate:      metrics.SuccessRate,
		AvgFetchMillis:   metrics.AvgFetchMillis,
		Transitions:      metrics.Transitions,
		FallbackReads:    metrics.FallbackReads,
		Clears:           metrics.Clears,
		LastError:        metrics.LastError,
		EventCount:       metrics.EventCount,
	}
	if out.Transitions == nil {
		out.Transitions = make(map[string]int)
	}
	if metrics.LastTaskID != nil {
		out.LastTaskID = *metrics.LastTaskID
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, _ getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available (event log may be disabled)"), getAlertsOutput{}, nil
	}

	alerts, err := s.alertEngine.Evaluate()
	if err != nil {
		return errorResult(fmt.Sprintf("evaluating alerts: %s", err)), getAlertsOutput{}, nil
	}

	out := getAlertsOutput{
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}

	return nil, out, nil
}

// --- Helpers ---

func stateToOutput(s models.Snapshot) stateOutput {
	v := core.RenderView(s)
	out := stateOutput{
		Success:      s.Success,
		AppState:     string(s.AppState),
		ErrorMessage: s.ErrorMessage,
		View: viewOutput{
			Title:          v.Title,
			Body:           v.Body,
			TriggerEnabled: v.TriggerEnabled,
		},
	}
	if !s.CurrentTask.IsEmpty() {
		t := taskToOutput(s.CurrentTask)
		out.Task = &t
	}
	return out
}

func taskToOutput(t models.Task) taskOutput {
	return taskOutput{
		ID:                  t.ID,
		Title:               t.Title,
		Description:         t.Description,
		Urgency:             t.Urgency,
		DurationMinutes:     t.DurationMinutes,
		AttentionDate:       t.AttentionDate,
		Deadline:            t.Deadline,
		PlannedDate:         t.PlannedDate,
		PlannedStartingTime: t.PlannedStartingTime,
		Status:              t.Status,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
	}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{Transitions: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
