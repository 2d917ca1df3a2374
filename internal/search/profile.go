package search

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/donor"
	"github.com/sells-group/contrib-search/internal/model"
	"github.com/sells-group/contrib-search/internal/percentile"
	"github.com/sells-group/contrib-search/internal/store"
)

// DefaultProfilePageSize is the number of recent contributions per profile page.
const DefaultProfilePageSize = 10

// Ranker supplies per-year percentile rankings for a donor identity.
type Ranker interface {
	LookupAll(ctx context.Context, id donor.Identity) ([]percentile.Result, error)
}

// Profile is one contributor's giving history.
type Profile struct {
	Filters       Filters              `json:"filters"`
	Contributions []model.Contribution `json:"contributions"`
	TotalResults  int64                `json:"total_results"`
	TotalAmount   float64              `json:"total_amount"`
	TotalPages    int                  `json:"total_pages"`
	Page          int                  `json:"page"`
	Percentiles   []percentile.Result  `json:"percentiles,omitempty"`
}

// Profiler builds contributor profiles.
type Profiler struct {
	st       ContributionReader
	ranker   Ranker
	conduits model.Conduits
	pageSize int
}

// NewProfiler creates a profiler. ranker may be nil to skip percentiles.
func NewProfiler(st ContributionReader, ranker Ranker, conduits model.Conduits, pageSize int) *Profiler {
	if pageSize <= 0 {
		pageSize = DefaultProfilePageSize
	}
	return &Profiler{st: st, ranker: ranker, conduits: conduits, pageSize: pageSize}
}

// Profile returns the contributions of the person named in f, newest first,
// along with their percentile ranking for every year on record when f
// carries a usable zip code. Both names are required; no filter is relaxed.
func (p *Profiler) Profile(ctx context.Context, f Filters, page int) (*Profile, error) {
	f.Year = ""
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	if f.FirstName == "" || f.LastName == "" {
		return nil, ErrNameRequired
	}
	if page < 1 {
		page = 1
	}

	q := f.Query()
	q.Exclude = p.conduits

	total, err := p.st.CountContributions(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "search: count profile contributions")
	}
	sum, err := p.st.SumContributions(ctx, q)
	if err != nil {
		return nil, eris.Wrap(err, "search: sum profile contributions")
	}
	rows, err := p.st.ListContributions(ctx, q, store.Sort{Column: store.SortDate, Desc: true}, p.pageSize, model.Offset(page, p.pageSize))
	if err != nil {
		return nil, eris.Wrap(err, "search: list profile contributions")
	}

	prof := &Profile{
		Filters:       f,
		Contributions: rows,
		TotalResults:  total,
		TotalAmount:   sum,
		TotalPages:    model.TotalPages(total, p.pageSize),
		Page:          page,
	}

	if p.ranker != nil {
		if id, ok := donor.NewIdentity(f.FirstName, f.LastName, f.ZipCode); ok {
			prof.Percentiles, err = p.ranker.LookupAll(ctx, id)
			if err != nil {
				return nil, eris.Wrap(err, "search: profile percentiles")
			}
		}
	}
	return prof, nil
}
