// Package recipient builds the recipient lookup table and serves fuzzy
// committee search and per-committee contributor listings.
package recipient

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contrib-search/internal/model"
)

// Errors returned by recipient search and view.
var (
	ErrQueryRequired     = eris.New("recipient: search query is required")
	ErrInvalidSort       = eris.New("recipient: sort must be relevance, recent_activity, total_activity or alphabetical")
	ErrCommitteeRequired = eris.New("recipient: committee id is required")
	ErrConduit           = eris.New("recipient: committee is a passthrough platform")
)

// SortBy orders recipient search results.
type SortBy string

const (
	SortRelevance      SortBy = "relevance"
	SortRecentActivity SortBy = "recent_activity"
	SortTotalActivity  SortBy = "total_activity"
	SortAlphabetical   SortBy = "alphabetical"
)

// ParseSort validates a sort name. Empty means relevance.
func ParseSort(s string) (SortBy, error) {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortRelevance:
		return SortRelevance, nil
	case SortRecentActivity:
		return SortRecentActivity, nil
	case SortTotalActivity:
		return SortTotalActivity, nil
	case SortAlphabetical:
		return SortAlphabetical, nil
	default:
		return "", ErrInvalidSort
	}
}

// Source names where search candidates came from.
const (
	SourceLookup     = "recipient_lookup"
	SourceCommittees = "committees"
)

// Candidates is the storage recipient search reads.
type Candidates interface {
	CountRecipientLookup(ctx context.Context) (int64, error)
	RecipientCandidates(ctx context.Context, fragments []string, limit int) ([]model.RecipientSummary, error)
	CommitteeCandidates(ctx context.Context, fragments []string, limit int) ([]model.RecipientSummary, error)
}

// Match is a scored search result.
type Match struct {
	model.RecipientSummary
	Score float64 `json:"score"`
}

// Results is one page of recipient matches.
type Results struct {
	Query        string  `json:"query"`
	Sort         SortBy  `json:"sort"`
	Source       string  `json:"source"`
	Matches      []Match `json:"matches"`
	TotalResults int64   `json:"total_results"`
	TotalPages   int     `json:"total_pages"`
	Page         int     `json:"page"`
}

// SearchConfig tunes fuzzy matching. Committees matching Exclude never
// appear in results, whichever table the candidates came from.
type SearchConfig struct {
	MinScore      float64
	MaxCandidates int
	PageSize      int
	Exclude       model.Conduits
}

// Searcher runs fuzzy committee searches.
type Searcher struct {
	st  Candidates
	cfg SearchConfig
}

// NewSearcher creates a searcher, filling unset config values with defaults.
func NewSearcher(st Candidates, cfg SearchConfig) *Searcher {
	if cfg.MinScore <= 0 {
		cfg.MinScore = 0.82
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 500
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	return &Searcher{st: st, cfg: cfg}
}

// Search returns committees whose names resemble query. Candidates come
// from the recipient lookup table, or from the committees table when the
// lookup has never been built.
func (s *Searcher) Search(ctx context.Context, query string, sortBy SortBy, page int) (*Results, error) {
	query = strings.TrimSpace(query)
	frags := Fragments(query)
	if len(frags) == 0 {
		return nil, ErrQueryRequired
	}
	if sortBy == "" {
		sortBy = SortRelevance
	}
	if page < 1 {
		page = 1
	}
	log := zap.L().With(zap.String("component", "recipient.search"))

	n, err := s.st.CountRecipientLookup(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "recipient: count lookup")
	}

	source := SourceLookup
	var cands []model.RecipientSummary
	if n > 0 {
		cands, err = s.st.RecipientCandidates(ctx, frags, s.cfg.MaxCandidates)
	} else {
		source = SourceCommittees
		cands, err = s.st.CommitteeCandidates(ctx, frags, s.cfg.MaxCandidates)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "recipient: candidates from %s", source)
	}

	matches := make([]Match, 0, len(cands))
	for _, c := range cands {
		if s.cfg.Exclude.Contains(c.RecipientID, c.DisplayName) {
			continue
		}
		score := Score(query, c.DisplayName)
		if strings.EqualFold(query, c.RecipientID) {
			score = 1
		}
		if score >= s.cfg.MinScore {
			matches = append(matches, Match{RecipientSummary: c, Score: score})
		}
	}
	sortMatches(matches, sortBy)

	log.Debug("recipient search",
		zap.String("query", query),
		zap.String("source", source),
		zap.Int("candidates", len(cands)),
		zap.Int("matches", len(matches)),
	)

	total := int64(len(matches))
	start := min(model.Offset(page, s.cfg.PageSize), len(matches))
	end := min(start+s.cfg.PageSize, len(matches))
	return &Results{
		Query:        query,
		Sort:         sortBy,
		Source:       source,
		Matches:      matches[start:end],
		TotalResults: total,
		TotalPages:   model.TotalPages(total, s.cfg.PageSize),
		Page:         page,
	}, nil
}

func sortMatches(ms []Match, by SortBy) {
	slices.SortStableFunc(ms, func(a, b Match) int {
		switch by {
		case SortRecentActivity:
			if c := cmpDesc(a.RecentContributions, b.RecentContributions); c != 0 {
				return c
			}
			if c := cmpDesc(a.RecentAmount, b.RecentAmount); c != 0 {
				return c
			}
			if c := cmpDesc(a.TotalContributions, b.TotalContributions); c != 0 {
				return c
			}
		case SortTotalActivity:
			if c := cmpDesc(a.TotalContributions, b.TotalContributions); c != 0 {
				return c
			}
			if c := cmpDesc(a.TotalAmount, b.TotalAmount); c != 0 {
				return c
			}
			if c := cmpDesc(a.RecentContributions, b.RecentContributions); c != 0 {
				return c
			}
		case SortAlphabetical:
			if c := strings.Compare(a.DisplayName, b.DisplayName); c != 0 {
				return c
			}
		default:
			if c := cmpDesc(a.Score, b.Score); c != 0 {
				return c
			}
			if c := cmpDesc(a.TotalAmount, b.TotalAmount); c != 0 {
				return c
			}
		}
		return strings.Compare(a.RecipientID, b.RecipientID)
	})
}

func cmpDesc[T int64 | float64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
