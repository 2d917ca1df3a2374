// Package store persists contributions, the derived percentile and recipient
// tables, and the refresh job log. One implementation serves both SQLite
// and Postgres through a small backend abstraction.
package store

import (
	"context"
	"time"

	"github.com/sells-group/contrib-search/internal/model"
)

// SortColumn selects the contribution ordering key.
type SortColumn string

const (
	SortDate   SortColumn = "contribution_date"
	SortAmount SortColumn = "amount"
)

// Sort orders contribution listings. Ties are always broken by id ascending.
type Sort struct {
	Column SortColumn
	Desc   bool
}

// ContributionQuery filters the contributions table. Zero values mean "no filter".
type ContributionQuery struct {
	FirstName   string
	LastName    string
	City        string
	State       string
	ZipPrefix   string
	Year        int
	RecipientID string
	Exclude     model.Conduits
}

// Store defines the persistence interface for contribution search.
type Store interface {
	// Contributions (read only; populated by an external importer)
	ContributionWatermark(ctx context.Context) (model.Watermark, error)
	ScanContributions(ctx context.Context, years *model.YearRange, fn func(model.RawContribution) error) error
	CountContributions(ctx context.Context, q ContributionQuery) (int64, error)
	SumContributions(ctx context.Context, q ContributionQuery) (float64, error)
	ListContributions(ctx context.Context, q ContributionQuery, sort Sort, limit, offset int) ([]model.Contribution, error)

	// Percentile tables
	ReplacePercentiles(ctx context.Context, snap *model.PercentileSnapshot) error
	DonorYear(ctx context.Context, donorKey string, year int) (*model.DonorYearTotal, error)
	DonorYears(ctx context.Context, donorKey string) ([]model.DonorYearTotal, error)
	Thresholds(ctx context.Context, year int) ([]model.PercentileThreshold, error)
	YearStats(ctx context.Context, year int) (*model.DonorYearStats, error)
	LatestBuild(ctx context.Context) (*model.PercentileBuild, error)

	// Recipients
	Committee(ctx context.Context, committeeID string) (*model.Committee, error)
	CountRecipientContributors(ctx context.Context, recipientID string) (int64, error)
	RecipientContributors(ctx context.Context, recipientID string, limit, offset int) ([]model.ContributorTotal, error)
	ReplaceRecipientLookup(ctx context.Context, recentSince time.Time, exclude model.Conduits) (int64, error)
	CountRecipientLookup(ctx context.Context) (int64, error)
	RecipientCandidates(ctx context.Context, fragments []string, limit int) ([]model.RecipientSummary, error)
	CommitteeCandidates(ctx context.Context, fragments []string, limit int) ([]model.RecipientSummary, error)

	// Refresh job log
	StartJob(ctx context.Context, job string) (string, error)
	CompleteJob(ctx context.Context, runID string, rows int64, metadata map[string]any) error
	FailJob(ctx context.Context, runID string, errMsg string) error
	LastJobSuccess(ctx context.Context, job string) (*model.JobRun, error)
	ListJobs(ctx context.Context, limit int) ([]model.JobRun, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
