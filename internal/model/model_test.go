package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCommitteeTypeLabel(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"H", "Candidate"},
		{"S", "Candidate"},
		{"P", "Candidate"},
		{"X", "Party Committee"},
		{"Y", "Party Committee"},
		{"Q", "PAC"},
		{"", "PAC"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CommitteeTypeLabel(tt.code), "code: %q", tt.code)
	}
}

func TestYearRange(t *testing.T) {
	r := YearRange{From: 2020, To: 2022}
	assert.True(t, r.Contains(2020))
	assert.True(t, r.Contains(2022))
	assert.False(t, r.Contains(2019))
	assert.False(t, r.Contains(2023))
	assert.Equal(t, "2020-2022", r.String())
}

func TestJobRun_Duration(t *testing.T) {
	started := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	r := JobRun{StartedAt: started}
	assert.Zero(t, r.Duration())

	done := started.Add(90 * time.Second)
	r.CompletedAt = &done
	assert.Equal(t, 90*time.Second, r.Duration())
}

func TestDefaultBuckets_Ascending(t *testing.T) {
	for i := 1; i < len(DefaultBuckets); i++ {
		assert.Less(t, DefaultBuckets[i-1], DefaultBuckets[i])
	}
}

func TestConduits_Contains(t *testing.T) {
	c := Conduits{IDs: []string{"C00401224"}, Names: []string{"ActBlue California"}}
	assert.False(t, c.Empty())
	assert.True(t, c.Contains("C00401224", ""))
	assert.True(t, c.Contains("1234567", "ActBlue California"))
	assert.False(t, c.Contains("C00000001", "Friends of Smith"))
	assert.False(t, c.Contains("C00000001", ""))
	assert.True(t, Conduits{}.Empty())
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 50))
	assert.Equal(t, 1, TotalPages(1, 50))
	assert.Equal(t, 1, TotalPages(50, 50))
	assert.Equal(t, 2, TotalPages(51, 50))
	assert.Equal(t, 0, TotalPages(10, 0))
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 50))
	assert.Equal(t, 0, Offset(0, 50))
	assert.Equal(t, 100, Offset(3, 50))
}
