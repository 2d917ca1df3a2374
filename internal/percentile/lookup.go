package percentile

import (
	"context"
	"math"
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/donor"
	"github.com/sells-group/contrib-search/internal/model"
)

// Status tells whether ranking data exists for a donor-year.
type Status string

const (
	// StatusAvailable means the donor was ranked.
	StatusAvailable Status = "available"
	// StatusNoData means the year has thresholds but the donor has no total.
	StatusNoData Status = "no_data"
	// StatusUnavailable means no thresholds exist for the year at all.
	StatusUnavailable Status = "unavailable"
)

// BelowLowest is the percentile reported for totals under the lowest bucket.
const BelowLowest = 0

// Result is a donor's ranking in one year.
type Result struct {
	Status            Status  `json:"status"`
	Year              int     `json:"year"`
	Percentile        int     `json:"percentile"`
	BelowLowest       bool    `json:"below_lowest"`
	Rank              int64   `json:"rank"`
	TotalAmount       float64 `json:"total_amount"`
	ContributionCount int64   `json:"contribution_count"`
	TotalDonors       int64   `json:"total_donors"`
}

// TopPercent returns the "top N%" figure for an available result, e.g. 1
// for the 99th percentile bucket, or 100 below the lowest bucket.
func (r Result) TopPercent() int {
	return 100 - r.Percentile
}

// Reader is the storage the lookup reads from.
type Reader interface {
	DonorYear(ctx context.Context, donorKey string, year int) (*model.DonorYearTotal, error)
	DonorYears(ctx context.Context, donorKey string) ([]model.DonorYearTotal, error)
	Thresholds(ctx context.Context, year int) ([]model.PercentileThreshold, error)
	YearStats(ctx context.Context, year int) (*model.DonorYearStats, error)
}

// Lookup ranks donors against the precomputed tables.
type Lookup struct {
	r Reader
}

// NewLookup creates a Lookup over r.
func NewLookup(r Reader) *Lookup {
	return &Lookup{r: r}
}

// Lookup returns id's ranking for year. Missing data is reported through
// Result.Status, never as an error.
func (l *Lookup) Lookup(ctx context.Context, id donor.Identity, year int) (*Result, error) {
	ths, err := l.r.Thresholds(ctx, year)
	if err != nil {
		return nil, eris.Wrapf(err, "percentile: thresholds for %d", year)
	}
	if len(ths) == 0 {
		return &Result{Status: StatusUnavailable, Year: year}, nil
	}
	stats, err := l.r.YearStats(ctx, year)
	if err != nil {
		return nil, eris.Wrapf(err, "percentile: stats for %d", year)
	}

	total, err := l.r.DonorYear(ctx, id.Key(), year)
	if err != nil {
		return nil, eris.Wrapf(err, "percentile: donor total for %d", year)
	}
	if total == nil {
		res := &Result{Status: StatusNoData, Year: year}
		if stats != nil {
			res.TotalDonors = stats.DonorCount
		}
		return res, nil
	}
	return rank(*total, ths, stats), nil
}

// LookupAll ranks id in every year it has a total for, newest year first.
func (l *Lookup) LookupAll(ctx context.Context, id donor.Identity) ([]Result, error) {
	totals, err := l.r.DonorYears(ctx, id.Key())
	if err != nil {
		return nil, eris.Wrap(err, "percentile: donor years")
	}
	out := make([]Result, 0, len(totals))
	for _, t := range totals {
		ths, err := l.r.Thresholds(ctx, t.Year)
		if err != nil {
			return nil, eris.Wrapf(err, "percentile: thresholds for %d", t.Year)
		}
		if len(ths) == 0 {
			out = append(out, Result{
				Status:            StatusUnavailable,
				Year:              t.Year,
				TotalAmount:       t.TotalAmount,
				ContributionCount: t.ContributionCount,
			})
			continue
		}
		stats, err := l.r.YearStats(ctx, t.Year)
		if err != nil {
			return nil, eris.Wrapf(err, "percentile: stats for %d", t.Year)
		}
		out = append(out, *rank(t, ths, stats))
	}
	return out, nil
}

func rank(t model.DonorYearTotal, ths []model.PercentileThreshold, stats *model.DonorYearStats) *Result {
	res := &Result{
		Status:            StatusAvailable,
		Year:              t.Year,
		TotalAmount:       t.TotalAmount,
		ContributionCount: t.ContributionCount,
	}
	res.Percentile, res.BelowLowest = Classify(t.TotalAmount, ths)
	res.Rank, res.TotalDonors = EstimateRank(t.TotalAmount, ths, stats)
	return res
}

// Classify returns the highest bucket whose threshold total meets or
// exceeds. Totals under every threshold yield BelowLowest and true.
// Amounts are compared in whole cents.
func Classify(total float64, ths []model.PercentileThreshold) (int, bool) {
	best, found := BelowLowest, false
	for _, th := range ths {
		if cents(total) >= cents(th.AmountThreshold) && (!found || th.Percentile > best) {
			best, found = th.Percentile, true
		}
	}
	return best, !found
}

// EstimateRank approximates the donor's 1-based rank from the top by linear
// interpolation between the bucket thresholds and their donor counts. The
// year's extremes anchor the two ends: the maximum total has rank 1 and the
// minimum rank N. The result is clamped to [1, N].
func EstimateRank(total float64, ths []model.PercentileThreshold, stats *model.DonorYearStats) (rank int64, donors int64) {
	type point struct {
		amount int64
		rank   int64
	}

	pts := make([]point, 0, len(ths)+2)
	if stats != nil {
		donors = stats.DonorCount
		pts = append(pts, point{cents(stats.MinTotal), stats.DonorCount})
	}
	for _, th := range sortedByPercentile(ths) {
		pts = append(pts, point{cents(th.AmountThreshold), th.DonorCountAtThreshold})
		if th.DonorCountAtThreshold > donors {
			donors = th.DonorCountAtThreshold
		}
	}
	if stats != nil {
		pts = append(pts, point{cents(stats.MaxTotal), 1})
	}
	if len(pts) == 0 || donors == 0 {
		return 0, donors
	}

	x := cents(total)
	var est float64
	switch {
	case x <= pts[0].amount:
		est = float64(pts[0].rank)
	case x >= pts[len(pts)-1].amount:
		est = float64(pts[len(pts)-1].rank)
	default:
		for i := 1; i < len(pts); i++ {
			lo, hi := pts[i-1], pts[i]
			if x > hi.amount {
				continue
			}
			if hi.amount == lo.amount {
				est = float64(hi.rank)
				break
			}
			frac := float64(x-lo.amount) / float64(hi.amount-lo.amount)
			est = float64(lo.rank) - frac*float64(lo.rank-hi.rank)
			break
		}
	}

	rank = int64(math.Round(est))
	if rank < 1 {
		rank = 1
	}
	if rank > donors {
		rank = donors
	}
	return rank, donors
}

func sortedByPercentile(ths []model.PercentileThreshold) []model.PercentileThreshold {
	out := slices.Clone(ths)
	slices.SortFunc(out, func(a, b model.PercentileThreshold) int {
		return a.Percentile - b.Percentile
	})
	return out
}

func cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
