package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/model"
)

const contributionFrom = `FROM contributions c LEFT JOIN committees m ON c.recipient_id = m.committee_id`

const contributionColumns = `c.id, COALESCE(c.first_name, ''), COALESCE(c.last_name, ''),
	COALESCE(c.city, ''), COALESCE(c.state, ''), COALESCE(c.zip_code, ''),
	COALESCE(c.contribution_date, ''), COALESCE(c.recipient_id, ''),
	COALESCE(m.name, c.recipient_id, ''), COALESCE(m.committee_type, ''),
	COALESCE(c.amount, 0)`

// contributionWhere renders the WHERE clause for q. Conduit exclusions are
// always applied first so every caller inherits them.
func contributionWhere(q ContributionQuery) (string, []any) {
	clauses, args := conduitClauses(q.Exclude)
	if q.FirstName != "" {
		clauses = append(clauses, "c.first_name = ?")
		args = append(args, q.FirstName)
	}
	if q.LastName != "" {
		clauses = append(clauses, "c.last_name = ?")
		args = append(args, q.LastName)
	}
	if q.ZipPrefix != "" {
		clauses = append(clauses, "c.zip_code LIKE ?")
		args = append(args, q.ZipPrefix+"%")
	}
	if q.City != "" {
		clauses = append(clauses, "c.city = ?")
		args = append(args, q.City)
	}
	if q.State != "" {
		clauses = append(clauses, "c.state = ?")
		args = append(args, q.State)
	}
	if q.Year > 0 {
		from, to := yearBounds(q.Year, q.Year)
		clauses = append(clauses, "c.contribution_date >= ? AND c.contribution_date < ?")
		args = append(args, from, to)
	}
	if q.RecipientID != "" {
		clauses = append(clauses, "c.recipient_id = ?")
		args = append(args, q.RecipientID)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// conduitClauses excludes conduit committees by id and by resolved name.
// The query must alias contributions as c and committees as m.
func conduitClauses(exclude model.Conduits) ([]string, []any) {
	var clauses []string
	var args []any
	if n := len(exclude.IDs); n > 0 {
		clauses = append(clauses, fmt.Sprintf("c.recipient_id NOT IN (%s)", placeholders(n)))
		for _, id := range exclude.IDs {
			args = append(args, id)
		}
	}
	if n := len(exclude.Names); n > 0 {
		clauses = append(clauses, fmt.Sprintf("(m.name IS NULL OR m.name NOT IN (%s))", placeholders(n)))
		for _, name := range exclude.Names {
			args = append(args, name)
		}
	}
	return clauses, args
}

// yearBounds returns the half-open ISO date interval covering [from, to].
func yearBounds(from, to int) (string, string) {
	return strconv.Itoa(from) + "-01-01", strconv.Itoa(to+1) + "-01-01"
}

func orderBy(sort Sort) string {
	col := "c.contribution_date"
	if sort.Column == SortAmount {
		col = "c.amount"
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, c.id ASC", col, dir)
}

// ScanContributions streams the raw fields the percentile builder needs.
// A year range narrows the scan but may still yield rows outside it.
// fn must not write to the store while the scan is open.
func (s *SQLStore) ScanContributions(ctx context.Context, years *model.YearRange, fn func(model.RawContribution) error) error {
	query := `SELECT COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(zip_code, ''),
		COALESCE(contribution_date, ''), COALESCE(CAST(amount AS TEXT), '')
		FROM contributions`
	var args []any
	if years != nil {
		// ISO dates compare as text. Other layouts pass through and the
		// aggregator filters them by parsed year.
		from, to := yearBounds(years.From, years.To)
		query += ` WHERE ((contribution_date >= ? AND contribution_date < ?)
			OR contribution_date NOT LIKE '____-__-__%')`
		args = append(args, from, to)
	}
	query += ` ORDER BY id`

	r, err := s.b.query(ctx, query, args...)
	if err != nil {
		return eris.Wrap(err, "store: scan contributions")
	}
	defer r.Close()

	for r.Next() {
		var c model.RawContribution
		if err := r.Scan(&c.FirstName, &c.LastName, &c.ZipCode, &c.Date, &c.Amount); err != nil {
			return eris.Wrap(err, "store: scan contribution row")
		}
		if err := fn(c); err != nil {
			return err
		}
	}
	return eris.Wrap(r.Err(), "store: iterate contributions")
}

// CountContributions counts contributions matching q.
func (s *SQLStore) CountContributions(ctx context.Context, q ContributionQuery) (int64, error) {
	where, args := contributionWhere(q)
	var n int64
	if err := s.b.queryRow(ctx, "SELECT COUNT(*) "+contributionFrom+where, args...).Scan(&n); err != nil {
		return 0, eris.Wrap(err, "store: count contributions")
	}
	return n, nil
}

// SumContributions totals the amounts of contributions matching q.
func (s *SQLStore) SumContributions(ctx context.Context, q ContributionQuery) (float64, error) {
	where, args := contributionWhere(q)
	var total float64
	if err := s.b.queryRow(ctx, "SELECT COALESCE(SUM(c.amount), 0) "+contributionFrom+where, args...).Scan(&total); err != nil {
		return 0, eris.Wrap(err, "store: sum contributions")
	}
	return total, nil
}

// ListContributions returns one page of contributions matching q.
func (s *SQLStore) ListContributions(ctx context.Context, q ContributionQuery, sort Sort, limit, offset int) ([]model.Contribution, error) {
	where, args := contributionWhere(q)
	query := "SELECT " + contributionColumns + " " + contributionFrom + where + orderBy(sort) + " LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	r, err := s.b.query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list contributions")
	}
	defer r.Close()

	var out []model.Contribution
	for r.Next() {
		var c model.Contribution
		if err := r.Scan(&c.ID, &c.FirstName, &c.LastName, &c.City, &c.State, &c.ZipCode,
			&c.Date, &c.RecipientID, &c.RecipientName, &c.RecipientType, &c.Amount); err != nil {
			return nil, eris.Wrap(err, "store: scan contribution")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(r.Err(), "store: iterate contributions")
}
