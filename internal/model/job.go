package model

import (
	"fmt"
	"time"
)

// JobStatus is the state of a refresh job run.
type JobStatus string

const (
	JobRunning  JobStatus = "running"
	JobComplete JobStatus = "complete"
	JobFailed   JobStatus = "failed"
)

// JobRun represents a row in the refresh_log table.
type JobRun struct {
	ID          string         `json:"id"`
	Job         string         `json:"job"`
	Status      JobStatus      `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Rows        int64          `json:"rows"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Duration returns how long the run took, or zero while still running.
func (r JobRun) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Watermark summarizes the contributions table. Any import changes it.
type Watermark struct {
	MaxID int64 `json:"max_id"`
	Count int64 `json:"count"`
}

// String renders the watermark as "max_id:count".
func (w Watermark) String() string {
	return fmt.Sprintf("%d:%d", w.MaxID, w.Count)
}
