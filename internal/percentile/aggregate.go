package percentile

import (
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/contrib-search/internal/donor"
	"github.com/sells-group/contrib-search/internal/model"
)

// dateLayouts are the contribution date formats found across sources.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01022006",
}

// ParseYear extracts the calendar year from a stored contribution date.
func ParseYear(date string) (int, bool) {
	date = strings.TrimSpace(date)
	if date == "" {
		return 0, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// ParseCents converts a stored amount to integer cents. Zero is valid;
// negative and non-finite amounts are rejected.
func ParseCents(amount string) (int64, bool) {
	amount = strings.TrimSpace(strings.ReplaceAll(amount, ",", ""))
	amount = strings.TrimPrefix(amount, "$")
	if amount == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(amount, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return int64(math.Round(f * 100)), true
}

type groupKey struct {
	key  string
	year int
}

type group struct {
	id    donor.Identity
	cents int64
	count int64
}

// Aggregator totals contributions per donor identity and year.
// It is not safe for concurrent use.
type Aggregator struct {
	years  *model.YearRange
	groups map[groupKey]*group

	Scanned    int64
	Skipped    int64
	Ineligible int64
	OutOfRange int64
}

// NewAggregator creates an aggregator. With a non-nil range, rows dated
// outside it are ignored.
func NewAggregator(years *model.YearRange) *Aggregator {
	return &Aggregator{years: years, groups: make(map[groupKey]*group)}
}

// Add folds one raw contribution into the totals. Rows with an unparseable
// date or amount are counted as skipped; rows without a usable identity are
// counted as ineligible.
func (a *Aggregator) Add(c model.RawContribution) {
	a.Scanned++

	year, ok := ParseYear(c.Date)
	if !ok {
		a.Skipped++
		return
	}
	cents, ok := ParseCents(c.Amount)
	if !ok {
		a.Skipped++
		return
	}
	if a.years != nil && !a.years.Contains(year) {
		a.OutOfRange++
		return
	}
	id, ok := donor.NewIdentity(c.FirstName, c.LastName, c.ZipCode)
	if !ok {
		a.Ineligible++
		return
	}

	k := groupKey{key: id.Key(), year: year}
	g := a.groups[k]
	if g == nil {
		g = &group{id: id}
		a.groups[k] = g
	}
	g.cents += cents
	g.count++
}

// Snapshot returns the donor totals, thresholds and stats for every year
// seen. Rows are ordered by year then donor key so equal input produces
// equal output.
func (a *Aggregator) Snapshot(buckets []int) *model.PercentileSnapshot {
	keys := make([]groupKey, 0, len(a.groups))
	for k := range a.groups {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y groupKey) int {
		if x.year != y.year {
			return x.year - y.year
		}
		return strings.Compare(x.key, y.key)
	})

	snap := &model.PercentileSnapshot{Totals: make([]model.DonorYearTotal, 0, len(keys))}
	byYear := make(map[int][]int64)
	for _, k := range keys {
		g := a.groups[k]
		snap.Totals = append(snap.Totals, model.DonorYearTotal{
			DonorKey:          k.key,
			Year:              k.year,
			TotalAmount:       dollars(g.cents),
			ContributionCount: g.count,
			FirstName:         g.id.FirstName,
			LastName:          g.id.LastName,
			Zip5:              g.id.Zip5,
		})
		if len(byYear[k.year]) == 0 {
			snap.Years = append(snap.Years, k.year)
		}
		byYear[k.year] = append(byYear[k.year], g.cents)
	}

	for _, year := range snap.Years {
		ths, stats := ComputeThresholds(year, byYear[year], buckets)
		snap.Thresholds = append(snap.Thresholds, ths...)
		if stats != nil {
			snap.Stats = append(snap.Stats, *stats)
		}
	}
	return snap
}
