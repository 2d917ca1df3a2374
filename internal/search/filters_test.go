package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contrib-search/internal/store"
)

func TestFilters_Normalize(t *testing.T) {
	f, err := Filters{FirstName: " john ", LastName: "smith", City: "new  york", State: "ny", ZipCode: "10001-1234", Year: "2024"}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "JOHN", f.FirstName)
	assert.Equal(t, "SMITH", f.LastName)
	assert.Equal(t, "NEW YORK", f.City)
	assert.Equal(t, "NY", f.State)
	assert.Equal(t, "100011234", f.ZipCode)
	assert.Equal(t, "2024", f.Year)
}

func TestFilters_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   Filters
		want error
	}{
		{"no name", Filters{City: "DENVER"}, ErrNameRequired},
		{"blank names", Filters{FirstName: "  ", LastName: ""}, ErrNameRequired},
		{"short year", Filters{LastName: "SMITH", Year: "24"}, ErrInvalidYear},
		{"alpha year", Filters{LastName: "SMITH", Year: "20x4"}, ErrInvalidYear},
		{"alpha zip", Filters{LastName: "SMITH", ZipCode: "ABCDE"}, ErrInvalidZip},
		{"long zip", Filters{LastName: "SMITH", ZipCode: "1234567890"}, ErrInvalidZip},
		{"bad state", Filters{LastName: "SMITH", State: "COL"}, ErrInvalidState},
		{"numeric state", Filters{LastName: "SMITH", State: "12"}, ErrInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.in.Normalize()
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsValidation(err))
		})
	}
}

func TestFilters_Query(t *testing.T) {
	q := Filters{LastName: "SMITH", ZipCode: "802", Year: "2022"}.Query()
	assert.Equal(t, "SMITH", q.LastName)
	assert.Equal(t, "802", q.ZipPrefix)
	assert.Equal(t, 2022, q.Year)
	assert.True(t, q.Exclude.Empty())
}

func TestFilters_Describe(t *testing.T) {
	assert.Equal(t, "last_name=SMITH, zip_code=99999", Filters{LastName: "SMITH", ZipCode: "99999"}.Describe())
}

func TestParseSort(t *testing.T) {
	s, err := ParseSort("", "")
	require.NoError(t, err)
	assert.Equal(t, store.Sort{Column: store.SortDate, Desc: true}, s)

	s, err = ParseSort("amount", "ASC")
	require.NoError(t, err)
	assert.Equal(t, store.Sort{Column: store.SortAmount}, s)

	s, err = ParseSort("contribution_date", "asc")
	require.NoError(t, err)
	assert.Equal(t, store.Sort{Column: store.SortDate}, s)

	_, err = ParseSort("name", "")
	assert.ErrorIs(t, err, ErrInvalidSort)
	_, err = ParseSort("amount", "sideways")
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestIsValidation_OtherError(t *testing.T) {
	assert.False(t, IsValidation(assert.AnError))
	assert.False(t, IsValidation(nil))
}
