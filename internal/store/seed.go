package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/model"
)

// AddContributions appends rows to the contributions table. The raw tables
// normally belong to the external importer; this exists for fixtures and
// small manual loads.
func (s *SQLStore) AddContributions(ctx context.Context, cs []model.Contribution) (int64, error) {
	data := make([][]any, len(cs))
	for i, c := range cs {
		data[i] = []any{c.FirstName, c.LastName, c.City, c.State, c.ZipCode, c.Date, c.RecipientID, c.Amount, c.RecipientType}
	}
	var n int64
	err := s.b.withTx(ctx, func(tx backend) error {
		var err error
		n, err = tx.bulkInsert(ctx, "contributions", []string{
			"first_name", "last_name", "city", "state", "zip_code",
			"contribution_date", "recipient_id", "amount", "recipient_type",
		}, data)
		return err
	})
	return n, eris.Wrap(err, "store: add contributions")
}

// AddCommittees inserts committee rows.
func (s *SQLStore) AddCommittees(ctx context.Context, cs []model.Committee) (int64, error) {
	data := make([][]any, len(cs))
	for i, c := range cs {
		data[i] = []any{c.ID, c.Name, c.Type}
	}
	var n int64
	err := s.b.withTx(ctx, func(tx backend) error {
		var err error
		n, err = tx.bulkInsert(ctx, "committees", []string{"committee_id", "name", "committee_type"}, data)
		return err
	})
	return n, eris.Wrap(err, "store: add committees")
}
