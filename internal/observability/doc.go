// Package observability records what taskcard does: an append-only JSON Lines
// event log of state transitions and task fetches, metrics and alerts derived
// from that log on demand, a Slack notifier for alerts, and live Prometheus
// counters for long-running processes.
package observability
