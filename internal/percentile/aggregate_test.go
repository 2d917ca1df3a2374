package percentile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contrib-search/internal/model"
)

func TestParseYear(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"2024-03-01", 2024, true},
		{"03/01/2022", 2022, true},
		{"2021-12-31 23:59:59", 2021, true},
		{"2020-06-15T10:00:00", 2020, true},
		{"06152019", 2019, true},
		{"", 0, false},
		{"yesterday", 0, false},
		{"2024-13-45", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseYear(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"100", 10000, true},
		{"100.0", 10000, true},
		{"19.99", 1999, true},
		{"$1,250.50", 125050, true},
		{"0", 0, true},
		{"-25", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCents(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAggregator_GroupsByIdentityAndYear(t *testing.T) {
	agg := NewAggregator(nil)
	for _, c := range []model.RawContribution{
		{FirstName: "john", LastName: "smith", ZipCode: "80202", Date: "2024-01-05", Amount: "100"},
		{FirstName: "John ", LastName: "Smith", ZipCode: "80202-1234", Date: "2024-07-04", Amount: "50.25"},
		{FirstName: "JOHN", LastName: "SMITH", ZipCode: "80202", Date: "2023-02-01", Amount: "10"},
		{FirstName: "MARY", LastName: "JONES", ZipCode: "73301", Date: "2024-02-10", Amount: "0"},
	} {
		agg.Add(c)
	}

	snap := agg.Snapshot(model.DefaultBuckets)
	assert.Equal(t, []int{2023, 2024}, snap.Years)
	require.Len(t, snap.Totals, 3)

	assert.Equal(t, "JOHN|SMITH|80202", snap.Totals[0].DonorKey)
	assert.Equal(t, 2023, snap.Totals[0].Year)

	assert.Equal(t, "JOHN|SMITH|80202", snap.Totals[1].DonorKey)
	assert.Equal(t, 2024, snap.Totals[1].Year)
	assert.InDelta(t, 150.25, snap.Totals[1].TotalAmount, 0.001)
	assert.Equal(t, int64(2), snap.Totals[1].ContributionCount)

	// Zero totals are still ranked.
	assert.Equal(t, "MARY|JONES|73301", snap.Totals[2].DonorKey)
	assert.InDelta(t, 0, snap.Totals[2].TotalAmount, 0.001)

	assert.Len(t, snap.Stats, 2)
	assert.Len(t, snap.Thresholds, 2*len(model.DefaultBuckets))
}

func TestAggregator_CountsAnomalies(t *testing.T) {
	agg := NewAggregator(&model.YearRange{From: 2024, To: 2024})
	for _, c := range []model.RawContribution{
		{FirstName: "A", LastName: "B", ZipCode: "12345", Date: "not a date", Amount: "10"},
		{FirstName: "A", LastName: "B", ZipCode: "12345", Date: "2024-01-01", Amount: "ten"},
		{FirstName: "A", LastName: "B", ZipCode: "12345", Date: "2024-01-01", Amount: "-5"},
		{FirstName: "A", LastName: "B", ZipCode: "1234", Date: "2024-01-01", Amount: "10"},
		{FirstName: "", LastName: "B", ZipCode: "12345", Date: "2024-01-01", Amount: "10"},
		{FirstName: "A", LastName: "B", ZipCode: "12345", Date: "2019-01-01", Amount: "10"},
		{FirstName: "A", LastName: "B", ZipCode: "12345", Date: "2024-01-01", Amount: "10"},
	} {
		agg.Add(c)
	}

	assert.Equal(t, int64(7), agg.Scanned)
	assert.Equal(t, int64(3), agg.Skipped)
	assert.Equal(t, int64(2), agg.Ineligible)
	assert.Equal(t, int64(1), agg.OutOfRange)

	snap := agg.Snapshot(model.DefaultBuckets)
	require.Len(t, snap.Totals, 1)
	assert.Equal(t, 2024, snap.Totals[0].Year)
}

func TestAggregator_EmptyYieldsNoThresholds(t *testing.T) {
	snap := NewAggregator(nil).Snapshot(model.DefaultBuckets)
	assert.Empty(t, snap.Years)
	assert.Empty(t, snap.Totals)
	assert.Empty(t, snap.Thresholds)
	assert.Empty(t, snap.Stats)
}
