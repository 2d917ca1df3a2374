package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contrib-search/internal/percentile"
)

func TestProfiler_Profile(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)
	ctx := context.Background()
	_, err := percentile.NewBuilder(st, nil).Build(ctx, nil)
	require.NoError(t, err)

	p := NewProfiler(st, percentile.NewLookup(st), testConduits, 0)
	prof, err := p.Profile(ctx, Filters{FirstName: "john", LastName: "smith", ZipCode: "80202"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prof.TotalResults)
	assert.InDelta(t, 100, prof.TotalAmount, 0.001)
	assert.Equal(t, 1, prof.TotalPages)
	require.Len(t, prof.Contributions, 1)
	assert.Equal(t, "C001", prof.Contributions[0].RecipientID)

	// Percentiles are ranked over all giving, conduits included.
	require.Len(t, prof.Percentiles, 1)
	assert.Equal(t, 2024, prof.Percentiles[0].Year)
	assert.Equal(t, percentile.StatusAvailable, prof.Percentiles[0].Status)
	assert.InDelta(t, 1300, prof.Percentiles[0].TotalAmount, 0.001)
}

func TestProfiler_NoZipSkipsPercentiles(t *testing.T) {
	st := newTestStore(t)
	seed(t, st)

	prof, err := NewProfiler(st, percentile.NewLookup(st), testConduits, 0).
		Profile(context.Background(), Filters{FirstName: "JANE", LastName: "SMITH"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), prof.TotalResults)
	assert.Nil(t, prof.Percentiles)
}

func TestProfiler_RequiresBothNames(t *testing.T) {
	_, err := NewProfiler(nil, nil, testConduits, 0).Profile(context.Background(), Filters{LastName: "SMITH"}, 1)
	assert.ErrorIs(t, err, ErrNameRequired)
}
