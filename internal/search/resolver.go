// Package search resolves contribution searches and contributor profiles.
package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contrib-search/internal/model"
	"github.com/sells-group/contrib-search/internal/store"
)

// DefaultPageSize is the number of contributions per search page.
const DefaultPageSize = 50

// ContributionReader is the storage the resolver queries.
type ContributionReader interface {
	CountContributions(ctx context.Context, q store.ContributionQuery) (int64, error)
	SumContributions(ctx context.Context, q store.ContributionQuery) (float64, error)
	ListContributions(ctx context.Context, q store.ContributionQuery, sort store.Sort, limit, offset int) ([]model.Contribution, error)
}

// Page is one page of search results.
type Page struct {
	Rows         []model.Contribution `json:"rows"`
	TotalResults int64                `json:"total_results"`
	TotalPages   int                  `json:"total_pages"`
	Page         int                  `json:"page"`
	PageSize     int                  `json:"page_size"`
	Stage        int                  `json:"stage"`
	Dropped      []string             `json:"dropped,omitempty"`
	Message      string               `json:"message,omitempty"`
	Filters      Filters              `json:"filters"`
}

// stage is one step of the relaxation sequence.
type stage struct {
	number  int
	filters Filters
	dropped []string
}

// stages returns the relaxation sequence for f: all filters, then without
// zip_code, then without zip_code and city. A step that would repeat the
// previous filter set is left out. State and year are never relaxed.
func stages(f Filters) []stage {
	out := []stage{{number: 1, filters: f}}

	if f.ZipCode != "" {
		noZip := f
		noZip.ZipCode = ""
		out = append(out, stage{number: 2, filters: noZip, dropped: []string{FilterZipCode}})
	}
	if f.City != "" {
		noCity := f
		noCity.ZipCode = ""
		noCity.City = ""
		var dropped []string
		if f.ZipCode != "" {
			dropped = append(dropped, FilterZipCode)
		}
		out = append(out, stage{number: 3, filters: noCity, dropped: append(dropped, FilterCity)})
	}
	return out
}

// Resolver runs cascading contribution searches.
type Resolver struct {
	st       ContributionReader
	conduits model.Conduits
	pageSize int
}

// NewResolver creates a resolver. Contributions to any of conduits are
// excluded from every stage.
func NewResolver(st ContributionReader, conduits model.Conduits, pageSize int) *Resolver {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Resolver{st: st, conduits: conduits, pageSize: pageSize}
}

// Search validates f and tries each relaxation stage in order until one
// matches. The returned page reports which filters were dropped.
func (r *Resolver) Search(ctx context.Context, f Filters, sort store.Sort, page int) (*Page, error) {
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	log := zap.L().With(zap.String("component", "search.resolver"))

	seq := stages(f)
	for _, s := range seq {
		q := s.filters.Query()
		q.Exclude = r.conduits

		total, err := r.st.CountContributions(ctx, q)
		if err != nil {
			return nil, eris.Wrapf(err, "search: count stage %d", s.number)
		}
		log.Debug("cascade stage",
			zap.Int("stage", s.number),
			zap.String("filters", s.filters.Describe()),
			zap.Int64("total", total),
		)
		if total == 0 {
			continue
		}

		rows, err := r.st.ListContributions(ctx, q, sort, r.pageSize, model.Offset(page, r.pageSize))
		if err != nil {
			return nil, eris.Wrapf(err, "search: list stage %d", s.number)
		}
		return &Page{
			Rows:         rows,
			TotalResults: total,
			TotalPages:   model.TotalPages(total, r.pageSize),
			Page:         page,
			PageSize:     r.pageSize,
			Stage:        s.number,
			Dropped:      s.dropped,
			Message:      droppedMessage(s.dropped),
			Filters:      s.filters,
		}, nil
	}

	last := seq[len(seq)-1]
	return &Page{
		Page:     page,
		PageSize: r.pageSize,
		Stage:    last.number,
		Dropped:  last.dropped,
		Message:  noResultsMessage(f, seq),
		Filters:  last.filters,
	}, nil
}

func droppedMessage(dropped []string) string {
	if len(dropped) == 0 {
		return ""
	}
	return fmt.Sprintf("Results found after dropping %s", strings.Join(dropped, " and "))
}

func noResultsMessage(f Filters, seq []stage) string {
	msg := fmt.Sprintf("No contributions found matching: %s.", f.Describe())
	if len(seq) > 1 {
		var tried []string
		for _, s := range seq[1:] {
			tried = append(tried, "without "+strings.Join(s.dropped, " and "))
		}
		msg += " Also tried searching " + strings.Join(tried, ", ") + "."
	}
	return msg + " Consider broadening your search criteria."
}
