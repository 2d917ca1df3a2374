package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/model"
)

var (
	donorTotalColumns = []string{
		"donor_key", "year", "total_amount", "contribution_count", "first_name", "last_name", "zip5",
	}
	thresholdColumns = []string{
		"year", "percentile", "amount_threshold", "donor_count_at_threshold",
	}
	yearStatsColumns = []string{
		"year", "donor_count", "min_total", "max_total",
	}
)

// derivedTable is one live table rebuilt by ReplacePercentiles and the
// ordering its rows are copied in.
type derivedTable struct {
	name    string
	columns []string
	orderBy string
}

func (t derivedTable) staging() string { return t.name + "_staging" }

var percentileTables = []derivedTable{
	{name: "donor_totals_by_year", columns: donorTotalColumns, orderBy: "year, donor_key"},
	{name: "percentile_thresholds_by_year", columns: thresholdColumns, orderBy: "year, percentile"},
	{name: "donor_year_stats", columns: yearStatsColumns, orderBy: "year"},
}

// ReplacePercentiles loads snap into staging tables and then swaps the
// affected year partitions of the live tables in a single transaction.
// Readers see either the previous snapshot or the new one.
func (s *SQLStore) ReplacePercentiles(ctx context.Context, snap *model.PercentileSnapshot) error {
	if snap == nil {
		return eris.New("store: nil percentile snapshot")
	}

	if err := s.createStaging(ctx); err != nil {
		return err
	}
	defer s.dropStaging(context.WithoutCancel(ctx))

	data := [][][]any{donorTotalRows(snap.Totals), thresholdRows(snap.Thresholds), yearStatsRows(snap.Stats)}
	err := s.b.withTx(ctx, func(tx backend) error {
		for i, t := range percentileTables {
			if _, err := tx.bulkInsert(ctx, t.staging(), t.columns, data[i]); err != nil {
				return eris.Wrapf(err, "store: stage %s", t.name)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.b.withTx(ctx, func(tx backend) error {
		for _, t := range percentileTables {
			del := "DELETE FROM " + t.name
			var args []any
			if r := snap.Build.Range; r != nil {
				del += " WHERE year >= ? AND year <= ?"
				args = append(args, r.From, r.To)
			}
			if _, err := tx.exec(ctx, del, args...); err != nil {
				return eris.Wrapf(err, "store: clear %s", t.name)
			}

			cols := strings.Join(t.columns, ", ")
			swap := fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s ORDER BY %s",
				t.name, cols, cols, t.staging(), t.orderBy)
			if _, err := tx.exec(ctx, swap); err != nil {
				return eris.Wrapf(err, "store: swap %s", t.name)
			}
		}
		return insertBuild(ctx, tx, snap.Build)
	})
}

func (s *SQLStore) createStaging(ctx context.Context) error {
	s.dropStaging(ctx)
	for _, t := range percentileTables {
		q := fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s WHERE 1 = 0", t.staging(), t.name)
		if _, err := s.b.exec(ctx, q); err != nil {
			return eris.Wrapf(err, "store: create %s", t.staging())
		}
	}
	return nil
}

func (s *SQLStore) dropStaging(ctx context.Context) {
	for _, t := range percentileTables {
		_, _ = s.b.exec(ctx, "DROP TABLE IF EXISTS "+t.staging())
	}
}

func insertBuild(ctx context.Context, tx backend, b model.PercentileBuild) error {
	var from, to any
	if b.Range != nil {
		from, to = b.Range.From, b.Range.To
	}
	_, err := tx.exec(ctx,
		`INSERT INTO percentile_builds
		 (build_id, built_at, year_from, year_to, years, donors_ranked, rows_scanned, rows_skipped, rows_ineligible)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.BuildID, formatTime(b.BuiltAt), from, to, b.Years, b.DonorsRanked, b.RowsScanned, b.RowsSkipped, b.RowsIneligible,
	)
	return eris.Wrapf(err, "store: record build %s", b.BuildID)
}

func donorTotalRows(totals []model.DonorYearTotal) [][]any {
	out := make([][]any, len(totals))
	for i, t := range totals {
		out[i] = []any{t.DonorKey, t.Year, t.TotalAmount, t.ContributionCount, t.FirstName, t.LastName, t.Zip5}
	}
	return out
}

func thresholdRows(ths []model.PercentileThreshold) [][]any {
	out := make([][]any, len(ths))
	for i, t := range ths {
		out[i] = []any{t.Year, t.Percentile, t.AmountThreshold, t.DonorCountAtThreshold}
	}
	return out
}

func yearStatsRows(stats []model.DonorYearStats) [][]any {
	out := make([][]any, len(stats))
	for i, st := range stats {
		out[i] = []any{st.Year, st.DonorCount, st.MinTotal, st.MaxTotal}
	}
	return out
}

const donorYearSelect = `SELECT donor_key, year, total_amount, contribution_count,
	COALESCE(first_name, ''), COALESCE(last_name, ''), COALESCE(zip5, '')
	FROM donor_totals_by_year`

func scanDonorYear(r row) (model.DonorYearTotal, error) {
	var d model.DonorYearTotal
	err := r.Scan(&d.DonorKey, &d.Year, &d.TotalAmount, &d.ContributionCount, &d.FirstName, &d.LastName, &d.Zip5)
	return d, err
}

// DonorYear returns one identity's total for a year, or nil if it has none.
func (s *SQLStore) DonorYear(ctx context.Context, donorKey string, year int) (*model.DonorYearTotal, error) {
	d, err := scanDonorYear(s.b.queryRow(ctx, donorYearSelect+` WHERE donor_key = ? AND year = ?`, donorKey, year))
	if err != nil {
		if s.b.isNoRows(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: donor year %s/%d", donorKey, year)
	}
	return &d, nil
}

// DonorYears returns every year on record for an identity, newest first.
func (s *SQLStore) DonorYears(ctx context.Context, donorKey string) ([]model.DonorYearTotal, error) {
	r, err := s.b.query(ctx, donorYearSelect+` WHERE donor_key = ? ORDER BY year DESC`, donorKey)
	if err != nil {
		return nil, eris.Wrapf(err, "store: donor years %s", donorKey)
	}
	defer r.Close()

	var out []model.DonorYearTotal
	for r.Next() {
		d, err := scanDonorYear(r)
		if err != nil {
			return nil, eris.Wrap(err, "store: scan donor year")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(r.Err(), "store: iterate donor years")
}

// Thresholds returns a year's percentile thresholds ordered by bucket.
func (s *SQLStore) Thresholds(ctx context.Context, year int) ([]model.PercentileThreshold, error) {
	r, err := s.b.query(ctx,
		`SELECT year, percentile, amount_threshold, donor_count_at_threshold
		 FROM percentile_thresholds_by_year WHERE year = ? ORDER BY percentile`, year)
	if err != nil {
		return nil, eris.Wrapf(err, "store: thresholds %d", year)
	}
	defer r.Close()

	var out []model.PercentileThreshold
	for r.Next() {
		var t model.PercentileThreshold
		if err := r.Scan(&t.Year, &t.Percentile, &t.AmountThreshold, &t.DonorCountAtThreshold); err != nil {
			return nil, eris.Wrap(err, "store: scan threshold")
		}
		out = append(out, t)
	}
	return out, eris.Wrap(r.Err(), "store: iterate thresholds")
}

// YearStats returns the donor count and extremes for a year, or nil.
func (s *SQLStore) YearStats(ctx context.Context, year int) (*model.DonorYearStats, error) {
	var st model.DonorYearStats
	err := s.b.queryRow(ctx,
		`SELECT year, donor_count, min_total, max_total FROM donor_year_stats WHERE year = ?`, year,
	).Scan(&st.Year, &st.DonorCount, &st.MinTotal, &st.MaxTotal)
	if err != nil {
		if s.b.isNoRows(err) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "store: year stats %d", year)
	}
	return &st, nil
}

// LatestBuild returns the most recent percentile build, or nil if none ran.
func (s *SQLStore) LatestBuild(ctx context.Context) (*model.PercentileBuild, error) {
	var (
		b        model.PercentileBuild
		builtAt  string
		from, to *int
	)
	err := s.b.queryRow(ctx,
		`SELECT build_id, built_at, year_from, year_to, years, donors_ranked, rows_scanned, rows_skipped, rows_ineligible
		 FROM percentile_builds ORDER BY built_at DESC LIMIT 1`,
	).Scan(&b.BuildID, &builtAt, &from, &to, &b.Years, &b.DonorsRanked, &b.RowsScanned, &b.RowsSkipped, &b.RowsIneligible)
	if err != nil {
		if s.b.isNoRows(err) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "store: latest build")
	}
	if b.BuiltAt, err = parseTime(builtAt); err != nil {
		return nil, err
	}
	if from != nil && to != nil {
		b.Range = &model.YearRange{From: *from, To: *to}
	}
	return &b, nil
}
