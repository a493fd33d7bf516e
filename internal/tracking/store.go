// Package tracking records pipeline stage runs and evaluation scores so
// results outlive the process that produced them.
package tracking

import "time"

// Run statuses
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one execution of a pipeline stage.
type Run struct {
	ID         string    `json:"id"`
	Stage      string    `json:"stage"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Store defines the interface for persisting run history.
type Store interface {
	// Initialize opens the store at dbPath, creating it if needed.
	Initialize(dbPath string) error

	// Close closes the store and releases any resources.
	Close() error

	// StartRun records the start of a stage and returns the run id.
	StartRun(stage string) (string, error)

	// FinishRun marks a run succeeded, or failed with runErr when non-nil.
	FinishRun(id string, runErr error) error

	// RecordScores stores one evaluation's scores for a model.
	RecordScores(modelName string, scores map[string]float64) error

	// LatestScores returns the most recently recorded scores for a model.
	LatestScores(modelName string) (map[string]float64, error)

	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(limit int) ([]Run, error)
}
