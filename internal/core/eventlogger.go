package core

// EventLogger appends one structured event to the event log. The workflow and
// the state store write through it without importing observability.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}
