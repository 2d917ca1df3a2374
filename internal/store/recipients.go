package store

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/model"
)

// Committee resolves a committee id, returning nil when it is unknown.
func (s *SQLStore) Committee(ctx context.Context, committeeID string) (*model.Committee, error) {
	var c model.Committee
	err := s.b.queryRow(ctx,
		`SELECT committee_id, COALESCE(name, ''), COALESCE(committee_type, '')
		 FROM committees WHERE committee_id = ?`, committeeID,
	).Scan(&c.ID, &c.Name, &c.Type)
	if err != nil {
		if s.b.isNoRows(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: committee %s", committeeID)
	}
	return &c, nil
}

// CountRecipientContributors counts distinct contributor names giving to a recipient.
func (s *SQLStore) CountRecipientContributors(ctx context.Context, recipientID string) (int64, error) {
	var n int64
	err := s.b.queryRow(ctx,
		`SELECT COUNT(*) FROM (
			SELECT 1 FROM contributions WHERE recipient_id = ? GROUP BY first_name, last_name
		 ) g`, recipientID,
	).Scan(&n)
	if err != nil {
		return 0, eris.Wrapf(err, "store: count contributors to %s", recipientID)
	}
	return n, nil
}

// RecipientContributors returns contributor totals for a recipient, largest first.
func (s *SQLStore) RecipientContributors(ctx context.Context, recipientID string, limit, offset int) ([]model.ContributorTotal, error) {
	r, err := s.b.query(ctx,
		`SELECT COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(SUM(amount), 0), COUNT(*)
		 FROM contributions WHERE recipient_id = ?
		 GROUP BY first_name, last_name
		 ORDER BY COALESCE(SUM(amount), 0) DESC, first_name, last_name
		 LIMIT ? OFFSET ?`, recipientID, limit, offset)
	if err != nil {
		return nil, eris.Wrapf(err, "store: contributors to %s", recipientID)
	}
	defer r.Close()

	var out []model.ContributorTotal
	for r.Next() {
		var c model.ContributorTotal
		if err := r.Scan(&c.FirstName, &c.LastName, &c.Total, &c.Count); err != nil {
			return nil, eris.Wrap(err, "store: scan contributor total")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(r.Err(), "store: iterate contributor totals")
}

// ReplaceRecipientLookup rebuilds recipient_lookup from contributions.
// Contributions on or after recentSince count towards the recent columns.
func (s *SQLStore) ReplaceRecipientLookup(ctx context.Context, recentSince time.Time, exclude model.Conduits) (int64, error) {
	since := recentSince.UTC().Format("2006-01-02")
	clauses, excludeArgs := conduitClauses(exclude)
	clauses = append([]string{"c.recipient_id IS NOT NULL", "c.recipient_id <> ''"}, clauses...)

	query := `INSERT INTO recipient_lookup
		(recipient_id, display_name, committee_type, total_contributions, total_amount,
		 recent_contributions, recent_amount, first_contribution_date, last_contribution_date,
		 contributor_count, updated_at)
		SELECT c.recipient_id,
			COALESCE(MAX(m.name), c.recipient_id),
			COALESCE(MAX(m.committee_type), ''),
			COUNT(*),
			COALESCE(SUM(c.amount), 0),
			SUM(CASE WHEN c.contribution_date >= ? THEN 1 ELSE 0 END),
			COALESCE(SUM(CASE WHEN c.contribution_date >= ? THEN c.amount ELSE 0 END), 0),
			COALESCE(MIN(c.contribution_date), ''),
			COALESCE(MAX(c.contribution_date), ''),
			COUNT(DISTINCT COALESCE(c.first_name, '') || '|' || COALESCE(c.last_name, '') || '|' || SUBSTR(COALESCE(c.zip_code, ''), 1, 5)),
			CAST(? AS TEXT)
		` + contributionFrom + `
		WHERE ` + strings.Join(clauses, " AND ") + `
		GROUP BY c.recipient_id`
	args := append([]any{since, since, formatTime(s.now())}, excludeArgs...)

	var n int64
	err := s.b.withTx(ctx, func(tx backend) error {
		if _, err := tx.exec(ctx, "DELETE FROM recipient_lookup"); err != nil {
			return eris.Wrap(err, "store: clear recipient lookup")
		}
		var err error
		n, err = tx.exec(ctx, query, args...)
		return eris.Wrap(err, "store: build recipient lookup")
	})
	return n, err
}

// CountRecipientLookup returns the number of rows in recipient_lookup.
func (s *SQLStore) CountRecipientLookup(ctx context.Context) (int64, error) {
	var n int64
	if err := s.b.queryRow(ctx, `SELECT COUNT(*) FROM recipient_lookup`).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "store: count recipient lookup")
	}
	return n, nil
}

// likeAny renders "(col LIKE ? OR col LIKE ? ...)" for upper-cased fragments.
func likeAny(col string, fragments []string) (string, []any) {
	parts := make([]string, len(fragments))
	args := make([]any, len(fragments))
	for i, f := range fragments {
		parts[i] = "UPPER(" + col + ") LIKE ?"
		args[i] = "%" + strings.ToUpper(f) + "%"
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// RecipientCandidates returns lookup rows whose display name contains any fragment.
func (s *SQLStore) RecipientCandidates(ctx context.Context, fragments []string, limit int) ([]model.RecipientSummary, error) {
	if len(fragments) == 0 {
		return nil, nil
	}
	where, args := likeAny("display_name", fragments)
	args = append(args, limit)

	r, err := s.b.query(ctx,
		`SELECT recipient_id, display_name, committee_type, total_contributions, total_amount,
			recent_contributions, recent_amount, first_contribution_date, last_contribution_date,
			contributor_count, updated_at
		 FROM recipient_lookup WHERE `+where+`
		 ORDER BY total_amount DESC, recipient_id LIMIT ?`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: recipient candidates")
	}
	defer r.Close()

	var out []model.RecipientSummary
	for r.Next() {
		var (
			rs        model.RecipientSummary
			updatedAt string
		)
		if err := r.Scan(&rs.RecipientID, &rs.DisplayName, &rs.CommitteeType, &rs.TotalContributions,
			&rs.TotalAmount, &rs.RecentContributions, &rs.RecentAmount, &rs.FirstContributionDate,
			&rs.LastContributionDate, &rs.ContributorCount, &updatedAt); err != nil {
			return nil, eris.Wrap(err, "store: scan recipient")
		}
		if rs.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		out = append(out, rs)
	}
	return out, eris.Wrap(r.Err(), "store: iterate recipients")
}

// CommitteeCandidates searches the raw committees table. Activity columns are zero.
func (s *SQLStore) CommitteeCandidates(ctx context.Context, fragments []string, limit int) ([]model.RecipientSummary, error) {
	if len(fragments) == 0 {
		return nil, nil
	}
	where, args := likeAny("name", fragments)
	args = append(args, limit)

	r, err := s.b.query(ctx,
		`SELECT committee_id, COALESCE(name, committee_id), COALESCE(committee_type, '')
		 FROM committees WHERE `+where+`
		 ORDER BY name, committee_id LIMIT ?`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: committee candidates")
	}
	defer r.Close()

	var out []model.RecipientSummary
	for r.Next() {
		var rs model.RecipientSummary
		if err := r.Scan(&rs.RecipientID, &rs.DisplayName, &rs.CommitteeType); err != nil {
			return nil, eris.Wrap(err, "store: scan committee")
		}
		out = append(out, rs)
	}
	return out, eris.Wrap(r.Err(), "store: iterate committees")
}
