// Package percentile builds and queries the donor percentile tables.
//
// The builder scans the raw contributions once, totals each donor identity
// per calendar year and precomputes a threshold for every percentile bucket.
// Lookups then cost one donor row plus at most one row per bucket,
// independent of the contribution volume.
package percentile

import (
	"slices"
	"sort"

	"github.com/sells-group/contrib-search/internal/model"
)

// ComputeThresholds derives the bucket thresholds for one year from the
// donors' annual totals in cents. The threshold for bucket p is the total at
// 1-based rank ceil(p/100 * N) counting up from the smallest total, so at
// least p% of donors gave no more than it. A year without donors yields no
// thresholds and nil stats.
func ComputeThresholds(year int, totals []int64, buckets []int) ([]model.PercentileThreshold, *model.DonorYearStats) {
	n := len(totals)
	if n == 0 {
		return nil, nil
	}
	sorted := slices.Clone(totals)
	slices.Sort(sorted)

	out := make([]model.PercentileThreshold, 0, len(buckets))
	for _, p := range normalizeBuckets(buckets) {
		rank := (p*n + 99) / 100
		if rank < 1 {
			rank = 1
		}
		threshold := sorted[rank-1]
		below := sort.Search(n, func(i int) bool { return sorted[i] >= threshold })
		out = append(out, model.PercentileThreshold{
			Year:                  year,
			Percentile:            p,
			AmountThreshold:       dollars(threshold),
			DonorCountAtThreshold: int64(n - below),
		})
	}

	stats := &model.DonorYearStats{
		Year:       year,
		DonorCount: int64(n),
		MinTotal:   dollars(sorted[0]),
		MaxTotal:   dollars(sorted[n-1]),
	}
	return out, stats
}

// normalizeBuckets returns the valid buckets (1..100) sorted and deduplicated.
func normalizeBuckets(buckets []int) []int {
	out := make([]int, 0, len(buckets))
	for _, p := range buckets {
		if p >= 1 && p <= 100 {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func dollars(cents int64) float64 {
	return float64(cents) / 100
}
