package recipient

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contrib-search/internal/model"
)

// DefaultRecentDays is the window counted as recent activity.
const DefaultRecentDays = 365

// LookupWriter rebuilds the recipient lookup table.
type LookupWriter interface {
	ReplaceRecipientLookup(ctx context.Context, recentSince time.Time, exclude model.Conduits) (int64, error)
}

// BuildReport summarizes a lookup rebuild.
type BuildReport struct {
	Recipients  int64         `json:"recipients"`
	RecentSince time.Time     `json:"recent_since"`
	Duration    time.Duration `json:"duration"`
}

// LookupBuilder regenerates the recipient lookup table.
type LookupBuilder struct {
	st         LookupWriter
	conduits   model.Conduits
	recentDays int
	now        func() time.Time
}

// NewLookupBuilder creates a builder. Conduit committees are left out of
// the table; recentDays <= 0 uses DefaultRecentDays.
func NewLookupBuilder(st LookupWriter, conduits model.Conduits, recentDays int) *LookupBuilder {
	if recentDays <= 0 {
		recentDays = DefaultRecentDays
	}
	return &LookupBuilder{st: st, conduits: conduits, recentDays: recentDays, now: time.Now}
}

// Build replaces the lookup table with fresh aggregates.
func (b *LookupBuilder) Build(ctx context.Context) (*BuildReport, error) {
	start := b.now()
	since := start.UTC().AddDate(0, 0, -b.recentDays)

	n, err := b.st.ReplaceRecipientLookup(ctx, since, b.conduits)
	if err != nil {
		return nil, eris.Wrap(err, "recipient: build lookup")
	}

	report := &BuildReport{Recipients: n, RecentSince: since, Duration: b.now().Sub(start)}
	zap.L().With(zap.String("component", "recipient.builder")).Info("recipient lookup rebuilt",
		zap.Int64("recipients", n),
		zap.Time("recent_since", since),
		zap.Duration("elapsed", report.Duration),
	)
	return report, nil
}
