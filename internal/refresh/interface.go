// Package refresh rebuilds the derived tables (percentile snapshot and
// recipient lookup) on a cadence and records every run in the refresh log.
package refresh

import (
	"context"
	"time"

	"github.com/sells-group/contrib-search/internal/store"
)

// Cadence describes how often a job should run.
type Cadence string

const (
	Daily   Cadence = "daily"
	Weekly  Cadence = "weekly"
	Monthly Cadence = "monthly"
)

// Job is a unit of derived-table maintenance.
type Job interface {
	// Name returns the unique job identifier (e.g., "percentiles").
	Name() string

	// Table returns the primary table the job writes.
	Table() string

	// Cadence returns how often the job should run.
	Cadence() Cadence

	// ShouldRun reports whether the job is due, given the last successful run.
	ShouldRun(now time.Time, lastSuccess *time.Time) bool

	// Run executes the job against the store.
	Run(ctx context.Context, st store.Store) (*Result, error)
}

// Result holds the outcome of one job run.
type Result struct {
	Rows     int64
	Metadata map[string]any
}
