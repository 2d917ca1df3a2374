//go:build !integration

package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/contrib-search/internal/model"
	"github.com/sells-group/contrib-search/internal/percentile"
	"github.com/sells-group/contrib-search/internal/refresh"
	"github.com/sells-group/contrib-search/internal/search"
)

func TestMoney(t *testing.T) {
	assert.Equal(t, "$0.00", money(0))
	assert.Equal(t, "$1,234.50", money(1234.5))
	assert.Equal(t, "$1,000,000.00", money(1e6))
}

func TestNumber(t *testing.T) {
	assert.Equal(t, "7", number(7))
	assert.Equal(t, "12,345", number(12345))
}

func TestOrdinal(t *testing.T) {
	tests := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th",
		13: "13th", 21: "21st", 50: "50th", 99: "99th", 101: "101st", 111: "111th",
	}
	for n, want := range tests {
		assert.Equal(t, want, ordinal(n), "n=%d", n)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestFormatJobRuns(t *testing.T) {
	started := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	completed := started.Add(5 * time.Minute)

	var buf bytes.Buffer
	formatJobRuns(&buf, []model.JobRun{
		{ID: "a", Job: "percentiles", Status: model.JobComplete, StartedAt: started, CompletedAt: &completed, Rows: 50000},
		{ID: "b", Job: "recipients", Status: model.JobRunning, StartedAt: started},
	})

	output := buf.String()
	assert.Contains(t, output, "JOB")
	assert.Contains(t, output, "percentiles")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "2025-01-15 10:30")
	assert.Contains(t, output, "5m0s")
	assert.Contains(t, output, "50,000")
	assert.Contains(t, output, "running")
}

func TestFormatBuild(t *testing.T) {
	var buf bytes.Buffer
	formatBuild(&buf, nil)
	assert.Contains(t, buf.String(), "not built")

	buf.Reset()
	formatBuild(&buf, &model.PercentileBuild{
		BuildID:      "b-1",
		BuiltAt:      time.Date(2025, 2, 1, 3, 30, 0, 0, time.UTC),
		Range:        &model.YearRange{From: 2020, To: 2022},
		Years:        3,
		DonorsRanked: 1500,
	})
	output := buf.String()
	assert.Contains(t, output, "b-1")
	assert.Contains(t, output, "years 2020-2022")
	assert.Contains(t, output, "1,500 donors ranked")
}

func TestFormatSearchPage_NoResults(t *testing.T) {
	var buf bytes.Buffer
	formatSearchPage(&buf, &search.Page{Message: "No contributions found matching: last_name=ZZZ."})
	assert.Equal(t, "No contributions found matching: last_name=ZZZ.\n", buf.String())
}

func TestFormatSearchPage_Rows(t *testing.T) {
	var buf bytes.Buffer
	formatSearchPage(&buf, &search.Page{
		Rows: []model.Contribution{
			{FirstName: "JOHN", LastName: "SMITH", City: "DENVER", State: "CO", ZipCode: "80202",
				Date: "2024-03-01", RecipientID: "C001", RecipientName: "FRIENDS OF JANE", RecipientType: "H", Amount: 2500},
		},
		TotalResults: 1,
		TotalPages:   1,
		Page:         1,
		Stage:        2,
		Dropped:      []string{"zip_code"},
		Message:      "Results found after dropping zip_code",
	})
	output := buf.String()
	assert.Contains(t, output, "Results found after dropping zip_code")
	assert.Contains(t, output, "JOHN SMITH")
	assert.Contains(t, output, "FRIENDS OF JANE")
	assert.Contains(t, output, "Candidate")
	assert.Contains(t, output, "$2,500.00")
	assert.Contains(t, output, "Page 1 of 1 (1 results)")
}

func TestPercentileLabel(t *testing.T) {
	assert.Equal(t, "99th (top 1%)", percentileLabel(percentile.Result{Status: percentile.StatusAvailable, Percentile: 99}))
	assert.Equal(t, "below 1st", percentileLabel(percentile.Result{Status: percentile.StatusAvailable, BelowLowest: true}))
	assert.Equal(t, "no contributions", percentileLabel(percentile.Result{Status: percentile.StatusNoData}))
	assert.Equal(t, "not ranked", percentileLabel(percentile.Result{Status: percentile.StatusUnavailable}))
}

func TestFormatRefreshSummaries(t *testing.T) {
	var buf bytes.Buffer
	formatRefreshSummaries(&buf, []*refresh.Summary{
		{Source: "fec", Ran: 2},
		nil,
		{Source: "calaccess", Ran: 1, Failed: 1, Errors: []string{"percentiles: boom"}},
	})
	output := buf.String()
	assert.Contains(t, output, "fec")
	assert.Contains(t, output, "calaccess")
	assert.Contains(t, output, "percentiles: boom")
}
