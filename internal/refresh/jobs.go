package refresh

import (
	"context"
	"time"

	"github.com/sells-group/contrib-search/internal/model"
	"github.com/sells-group/contrib-search/internal/percentile"
	"github.com/sells-group/contrib-search/internal/recipient"
	"github.com/sells-group/contrib-search/internal/store"
)

// PercentileJob rebuilds the donor totals and percentile thresholds for
// every year.
type PercentileJob struct {
	Buckets []int
}

func (j *PercentileJob) Name() string     { return "percentiles" }
func (j *PercentileJob) Table() string    { return "donor_totals_by_year" }
func (j *PercentileJob) Cadence() Cadence { return Weekly }

func (j *PercentileJob) ShouldRun(now time.Time, lastSuccess *time.Time) bool {
	return WeeklySchedule(now, lastSuccess)
}

func (j *PercentileJob) Run(ctx context.Context, st store.Store) (*Result, error) {
	report, err := percentile.NewBuilder(st, j.Buckets).Build(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Result{
		Rows: report.DonorsRanked,
		Metadata: map[string]any{
			"build_id":        report.BuildID,
			"years":           report.YearsProcessed,
			"rows_scanned":    report.RowsScanned,
			"errors_skipped":  report.ErrorsSkipped,
			"ineligible_rows": report.Ineligible,
		},
	}, nil
}

// RecipientJob rebuilds the recipient lookup table.
type RecipientJob struct {
	Conduits   model.Conduits
	RecentDays int
}

func (j *RecipientJob) Name() string     { return "recipients" }
func (j *RecipientJob) Table() string    { return "recipient_lookup" }
func (j *RecipientJob) Cadence() Cadence { return Daily }

func (j *RecipientJob) ShouldRun(now time.Time, lastSuccess *time.Time) bool {
	return DailySchedule(now, lastSuccess)
}

func (j *RecipientJob) Run(ctx context.Context, st store.Store) (*Result, error) {
	report, err := recipient.NewLookupBuilder(st, j.Conduits, j.RecentDays).Build(ctx)
	if err != nil {
		return nil, err
	}
	return &Result{
		Rows: report.Recipients,
		Metadata: map[string]any{
			"recent_since": report.RecentSince.Format(time.DateOnly),
		},
	}, nil
}
