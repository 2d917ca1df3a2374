package model

import (
	"fmt"
	"time"
)

// DefaultBuckets are the percentile buckets thresholds are computed for.
var DefaultBuckets = []int{1, 5, 10, 25, 50, 75, 90, 95, 99}

// YearRange restricts a build to an inclusive span of calendar years.
type YearRange struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// Contains reports whether year falls inside the range.
func (r YearRange) Contains(year int) bool {
	return year >= r.From && year <= r.To
}

// String renders the range as "2020-2024".
func (r YearRange) String() string {
	return fmt.Sprintf("%d-%d", r.From, r.To)
}

// DonorYearTotal is one donor identity's giving in one calendar year.
type DonorYearTotal struct {
	DonorKey          string  `json:"donor_key"`
	Year              int     `json:"year"`
	TotalAmount       float64 `json:"total_amount"`
	ContributionCount int64   `json:"contribution_count"`
	FirstName         string  `json:"first_name"`
	LastName          string  `json:"last_name"`
	Zip5              string  `json:"zip5"`
}

// PercentileThreshold is the minimum annual total needed to reach a bucket.
type PercentileThreshold struct {
	Year                  int     `json:"year"`
	Percentile            int     `json:"percentile"`
	AmountThreshold       float64 `json:"amount_threshold"`
	DonorCountAtThreshold int64   `json:"donor_count_at_threshold"`
}

// DonorYearStats holds the per-year denominator and extremes used for ranking.
type DonorYearStats struct {
	Year       int     `json:"year"`
	DonorCount int64   `json:"donor_count"`
	MinTotal   float64 `json:"min_total"`
	MaxTotal   float64 `json:"max_total"`
}

// PercentileBuild records one builder run.
type PercentileBuild struct {
	BuildID        string     `json:"build_id"`
	BuiltAt        time.Time  `json:"built_at"`
	Range          *YearRange `json:"range,omitempty"`
	Years          int        `json:"years"`
	DonorsRanked   int64      `json:"donors_ranked"`
	RowsScanned    int64      `json:"rows_scanned"`
	RowsSkipped    int64      `json:"rows_skipped"`
	RowsIneligible int64      `json:"rows_ineligible"`
}

// PercentileSnapshot is the complete output of a build, written atomically.
// Years lists every year whose partition is replaced; with a nil Build.Range
// the whole table is replaced.
type PercentileSnapshot struct {
	Build      PercentileBuild
	Years      []int
	Totals     []DonorYearTotal
	Thresholds []PercentileThreshold
	Stats      []DonorYearStats
}
