package search

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/donor"
	"github.com/sells-group/contrib-search/internal/store"
)

// Validation errors. They are returned to the caller immediately and never retried.
var (
	ErrNameRequired = eris.New("search: first or last name is required")
	ErrInvalidYear  = eris.New("search: year must be four digits")
	ErrInvalidZip   = eris.New("search: zip code must be 1 to 9 digits")
	ErrInvalidState = eris.New("search: state must be a two-letter code")
	ErrInvalidSort  = eris.New("search: sort must be date or amount, order asc or desc")
)

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	for _, target := range []error{ErrNameRequired, ErrInvalidYear, ErrInvalidZip, ErrInvalidState, ErrInvalidSort} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Filter names as reported in cascade messages.
const (
	FilterZipCode = "zip_code"
	FilterCity    = "city"
)

var (
	yearRe  = regexp.MustCompile(`^\d{4}$`)
	zipRe   = regexp.MustCompile(`^\d{1,9}$`)
	stateRe = regexp.MustCompile(`^[A-Z]{2}$`)
)

// Filters are the optional contribution search criteria. At least one of
// FirstName or LastName is required.
type Filters struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zip_code,omitempty"`
	Year      string `json:"year,omitempty"`
}

// Normalize trims and upper-cases every filter and validates the result.
func (f Filters) Normalize() (Filters, error) {
	n := Filters{
		FirstName: donor.NormalizeName(f.FirstName),
		LastName:  donor.NormalizeName(f.LastName),
		City:      donor.NormalizeName(f.City),
		State:     strings.ToUpper(strings.TrimSpace(f.State)),
		ZipCode:   strings.ReplaceAll(strings.TrimSpace(f.ZipCode), "-", ""),
		Year:      strings.TrimSpace(f.Year),
	}
	if n.FirstName == "" && n.LastName == "" {
		return n, ErrNameRequired
	}
	if n.Year != "" && !yearRe.MatchString(n.Year) {
		return n, ErrInvalidYear
	}
	if n.ZipCode != "" && !zipRe.MatchString(n.ZipCode) {
		return n, ErrInvalidZip
	}
	if n.State != "" && !stateRe.MatchString(n.State) {
		return n, ErrInvalidState
	}
	return n, nil
}

// Query converts normalized filters into a store query.
func (f Filters) Query() store.ContributionQuery {
	q := store.ContributionQuery{
		FirstName: f.FirstName,
		LastName:  f.LastName,
		City:      f.City,
		State:     f.State,
		ZipPrefix: f.ZipCode,
	}
	if f.Year != "" {
		q.Year, _ = strconv.Atoi(f.Year)
	}
	return q
}

// Describe renders the provided filters as "last_name=SMITH, zip_code=99999".
func (f Filters) Describe() string {
	var parts []string
	for _, kv := range [][2]string{
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{FilterCity, f.City},
		{"state", f.State},
		{FilterZipCode, f.ZipCode},
		{"year", f.Year},
	} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	return strings.Join(parts, ", ")
}

// ParseSort maps user input to a store ordering. Empty values default to
// newest contributions first.
func ParseSort(by, order string) (store.Sort, error) {
	s := store.Sort{Column: store.SortDate, Desc: true}
	switch strings.ToLower(strings.TrimSpace(by)) {
	case "", "date", "contribution_date":
	case "amount":
		s.Column = store.SortAmount
	default:
		return s, ErrInvalidSort
	}
	switch strings.ToLower(strings.TrimSpace(order)) {
	case "", "desc":
	case "asc":
		s.Desc = false
	default:
		return s, ErrInvalidSort
	}
	return s, nil
}
