// Package history records install and uninstall runs in a per-user SQLite
// database. The plain-text install log remains the source of truth for
// idempotence; history is advisory.
package history

import "time"

// RunStatus represents the status of a recorded run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusSkipped   RunStatus = "skipped"
)

// Action distinguishes install from uninstall runs.
type Action string

const (
	ActionInstall   Action = "install"
	ActionUninstall Action = "uninstall"
)

// Run represents one install or uninstall invocation for a single verb.
type Run struct {
	ID          string     `json:"id"`
	Verb        string     `json:"verb"`
	Action      Action     `json:"action"`
	Wineprefix  string     `json:"wineprefix"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
}

// Event is an append-only log line attached to a run.
type Event struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
