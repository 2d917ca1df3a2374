package percentile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contrib-search/internal/model"
)

// Source is the storage the builder reads contributions from and writes
// the derived tables to.
type Source interface {
	ScanContributions(ctx context.Context, years *model.YearRange, fn func(model.RawContribution) error) error
	ReplacePercentiles(ctx context.Context, snap *model.PercentileSnapshot) error
}

// Report summarizes one build.
type Report struct {
	BuildID        string        `json:"build_id"`
	Range          string        `json:"range"`
	YearsProcessed int           `json:"years_processed"`
	DonorsRanked   int64         `json:"donors_ranked"`
	RowsScanned    int64         `json:"rows_scanned"`
	ErrorsSkipped  int64         `json:"errors_skipped"`
	Ineligible     int64         `json:"ineligible"`
	Duration       time.Duration `json:"duration"`
}

// Builder regenerates the donor totals and percentile thresholds.
type Builder struct {
	src     Source
	buckets []int
	now     func() time.Time
}

// NewBuilder creates a builder. Nil or empty buckets fall back to
// model.DefaultBuckets.
func NewBuilder(src Source, buckets []int) *Builder {
	if len(buckets) == 0 {
		buckets = model.DefaultBuckets
	}
	return &Builder{src: src, buckets: buckets, now: time.Now}
}

// Build scans contributions (all, or only those dated inside years) and
// replaces the derived tables for the affected years. Malformed rows are
// tallied in the report and never fail the build.
func (b *Builder) Build(ctx context.Context, years *model.YearRange) (*Report, error) {
	if years != nil && years.From > years.To {
		return nil, eris.Errorf("percentile: invalid year range %s", years)
	}
	log := zap.L().With(zap.String("component", "percentile.builder"))
	start := b.now()

	agg := NewAggregator(years)
	err := b.src.ScanContributions(ctx, years, func(c model.RawContribution) error {
		agg.Add(c)
		return ctx.Err()
	})
	if err != nil {
		return nil, eris.Wrap(err, "percentile: scan contributions")
	}

	snap := agg.Snapshot(b.buckets)
	snap.Build = model.PercentileBuild{
		BuildID:        uuid.NewString(),
		BuiltAt:        b.now().UTC(),
		Range:          years,
		Years:          len(snap.Years),
		DonorsRanked:   int64(len(snap.Totals)),
		RowsScanned:    agg.Scanned,
		RowsSkipped:    agg.Skipped,
		RowsIneligible: agg.Ineligible,
	}

	if err := b.src.ReplacePercentiles(ctx, snap); err != nil {
		return nil, eris.Wrap(err, "percentile: write tables")
	}

	report := &Report{
		BuildID:        snap.Build.BuildID,
		Range:          "all",
		YearsProcessed: snap.Build.Years,
		DonorsRanked:   snap.Build.DonorsRanked,
		RowsScanned:    agg.Scanned,
		ErrorsSkipped:  agg.Skipped,
		Ineligible:     agg.Ineligible,
		Duration:       b.now().Sub(start),
	}
	if years != nil {
		report.Range = years.String()
	}

	if agg.Skipped > 0 {
		log.Warn("skipped malformed contribution rows",
			zap.Int64("skipped", agg.Skipped),
			zap.Int64("scanned", agg.Scanned),
		)
	}
	log.Info("percentile tables rebuilt",
		zap.String("build_id", report.BuildID),
		zap.String("range", report.Range),
		zap.Int("years", report.YearsProcessed),
		zap.Int64("donors", report.DonorsRanked),
		zap.Int64("ineligible", report.Ineligible),
		zap.Duration("elapsed", report.Duration),
	)
	return report, nil
}
