package recipient

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/model"
)

// ContributorSource is the storage the recipient view reads.
type ContributorSource interface {
	Committee(ctx context.Context, committeeID string) (*model.Committee, error)
	CountRecipientContributors(ctx context.Context, recipientID string) (int64, error)
	RecipientContributors(ctx context.Context, recipientID string, limit, offset int) ([]model.ContributorTotal, error)
}

// View is one page of a committee's top contributors.
type View struct {
	CommitteeID   string                   `json:"committee_id"`
	DisplayName   string                   `json:"display_name"`
	CommitteeType string                   `json:"committee_type"`
	Contributors  []model.ContributorTotal `json:"contributors"`
	TotalResults  int64                    `json:"total_results"`
	TotalPages    int                      `json:"total_pages"`
	Page          int                      `json:"page"`
}

// Viewer lists contributors to a committee.
type Viewer struct {
	st       ContributorSource
	conduits model.Conduits
	pageSize int
}

// NewViewer creates a viewer. Conduit committees are refused.
func NewViewer(st ContributorSource, conduits model.Conduits, pageSize int) *Viewer {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &Viewer{st: st, conduits: conduits, pageSize: pageSize}
}

// Contributors returns contributors to committeeID grouped by name, largest
// total first. A conduit committee yields ErrConduit.
func (v *Viewer) Contributors(ctx context.Context, committeeID string, page int) (*View, error) {
	committeeID = strings.ToUpper(strings.TrimSpace(committeeID))
	if committeeID == "" {
		return nil, ErrCommitteeRequired
	}
	if page < 1 {
		page = 1
	}

	c, err := v.st.Committee(ctx, committeeID)
	if err != nil {
		return nil, eris.Wrapf(err, "recipient: committee %s", committeeID)
	}
	view := &View{CommitteeID: committeeID, DisplayName: committeeID, Page: page}
	var name string
	if c != nil {
		name = c.Name
		view.CommitteeType = c.Type
		if c.Name != "" {
			view.DisplayName = c.Name
		}
	}
	if v.conduits.Contains(committeeID, name) {
		return view, eris.Wrapf(ErrConduit, "recipient: %s", view.DisplayName)
	}

	total, err := v.st.CountRecipientContributors(ctx, committeeID)
	if err != nil {
		return nil, eris.Wrapf(err, "recipient: count contributors to %s", committeeID)
	}
	rows, err := v.st.RecipientContributors(ctx, committeeID, v.pageSize, model.Offset(page, v.pageSize))
	if err != nil {
		return nil, eris.Wrapf(err, "recipient: contributors to %s", committeeID)
	}
	view.Contributors = rows
	view.TotalResults = total
	view.TotalPages = model.TotalPages(total, v.pageSize)
	return view, nil
}
