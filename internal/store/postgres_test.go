package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contrib-search/internal/model"
)

// newMockPostgresStore creates a Postgres-dialect store backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*SQLStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := NewPostgresFromPool(mock)
	s.now = func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) }
	return s, mock
}

func TestRebindDollar(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"SELECT 1", "SELECT 1"},
		{"WHERE a = ? AND b = ?", "WHERE a = $1 AND b = $2"},
		{"IN (?, ?, ?) LIMIT ?", "IN ($1, $2, $3) LIMIT $4"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rebindDollar(tt.in))
	}
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "", placeholders(0))
	assert.Equal(t, "?", placeholders(1))
	assert.Equal(t, "?, ?, ?", placeholders(3))
}

func TestPostgres_Driver(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	assert.Equal(t, "postgres", s.Driver())
}

func TestPostgres_DonorYear_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM donor_totals_by_year WHERE donor_key = \$1 AND year = \$2`).
		WithArgs("JOHN|SMITH|80202", 2024).
		WillReturnError(pgx.ErrNoRows)

	d, err := s.DonorYear(context.Background(), "JOHN|SMITH|80202", 2024)
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DonorYear_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM donor_totals_by_year`).
		WithArgs("K", 2024).
		WillReturnError(errors.New("connection reset"))

	_, err := s.DonorYear(context.Background(), "K", 2024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: donor year")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Thresholds(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM percentile_thresholds_by_year WHERE year = \$1 ORDER BY percentile`).
		WithArgs(2024).
		WillReturnRows(pgxmock.NewRows([]string{"year", "percentile", "amount_threshold", "donor_count_at_threshold"}).
			AddRow(2024, 1, 100.0, int64(100)).
			AddRow(2024, 50, 5000.0, int64(51)))

	ths, err := s.Thresholds(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, ths, 2)
	assert.Equal(t, 50, ths[1].Percentile)
	assert.InDelta(t, 5000, ths[1].AmountThreshold, 0.001)
	assert.Equal(t, int64(51), ths[1].DonorCountAtThreshold)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountContributions_Rebinds(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM contributions c LEFT JOIN committees m ON c.recipient_id = m.committee_id WHERE c.recipient_id NOT IN \(\$1, \$2\) AND c.last_name = \$3 AND c.state = \$4`).
		WithArgs("C00401224", "C00694323", "SMITH", "CO").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := s.CountContributions(context.Background(), ContributionQuery{
		LastName: "SMITH",
		State:    "CO",
		Exclude:  model.Conduits{IDs: []string{"C00401224", "C00694323"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_StartJob(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO refresh_log \(id, job, status, started_at, rows_synced\) VALUES \(\$1, \$2, \$3, \$4, 0\)`).
		WithArgs(pgxmock.AnyArg(), "percentiles", "running", "2024-07-01T12:00:00.000000Z").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.StartJob(context.Background(), "percentiles")
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LastJobSuccess_Never(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, job, status, started_at, completed_at, rows_synced, error, metadata FROM refresh_log`).
		WithArgs("recipients", "complete").
		WillReturnError(pgx.ErrNoRows)

	last, err := s.LastJobSuccess(context.Background(), "recipients")
	require.NoError(t, err)
	assert.Nil(t, last)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ContributionWatermark(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(id\), 0\), COUNT\(\*\) FROM contributions`).
		WillReturnRows(pgxmock.NewRows([]string{"max", "count"}).AddRow(int64(812), int64(640)))

	wm, err := s.ContributionWatermark(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Watermark{MaxID: 812, Count: 640}, wm)
	assert.Equal(t, "812:640", wm.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func expectDropStaging(mock pgxmock.PgxPoolIface) {
	for _, t := range percentileTables {
		mock.ExpectExec(`DROP TABLE IF EXISTS ` + t.staging()).WillReturnResult(pgxmock.NewResult("DROP", 0))
	}
}

func TestPostgres_ReplacePercentiles(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	snap := testSnapshot("b1", &model.YearRange{From: 2024, To: 2024}, 2024, 350)

	expectDropStaging(mock)
	for _, tbl := range percentileTables {
		mock.ExpectExec(`CREATE TABLE ` + tbl.staging() + ` AS SELECT \* FROM ` + tbl.name + ` WHERE 1 = 0`).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}
	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"donor_totals_by_year_staging"}, donorTotalColumns).WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{"percentile_thresholds_by_year_staging"}, thresholdColumns).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"donor_year_stats_staging"}, yearStatsColumns).WillReturnResult(1)
	mock.ExpectCommit()

	mock.ExpectBegin()
	for _, tbl := range percentileTables {
		mock.ExpectExec(`DELETE FROM ` + tbl.name + ` WHERE year >= \$1 AND year <= \$2`).
			WithArgs(2024, 2024).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		mock.ExpectExec(`INSERT INTO ` + tbl.name + ` .* FROM ` + tbl.staging()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectExec(`INSERT INTO percentile_builds`).
		WithArgs("b1", pgxmock.AnyArg(), 2024, 2024, 1, int64(1), int64(2), int64(0), int64(0)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	expectDropStaging(mock)

	require.NoError(t, s.ReplacePercentiles(context.Background(), snap))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ReplacePercentiles_SwapFailureRollsBack(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	snap := testSnapshot("b1", nil, 2024, 350)

	expectDropStaging(mock)
	for _, tbl := range percentileTables {
		mock.ExpectExec(`CREATE TABLE ` + tbl.staging()).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}
	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"donor_totals_by_year_staging"}, donorTotalColumns).WillReturnResult(1)
	mock.ExpectCopyFrom(pgx.Identifier{"percentile_thresholds_by_year_staging"}, thresholdColumns).WillReturnResult(2)
	mock.ExpectCopyFrom(pgx.Identifier{"donor_year_stats_staging"}, yearStatsColumns).WillReturnResult(1)
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM donor_totals_by_year$`).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()
	expectDropStaging(mock)

	err := s.ReplacePercentiles(context.Background(), snap)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store: clear donor_totals_by_year")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_Migrate_AlreadyApplied(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`SELECT pg_advisory_lock\(\$1\)`).WithArgs(migrationLockID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(`SELECT filename FROM schema_migrations`).
		WillReturnRows(pgxmock.NewRows([]string{"filename"}).AddRow("001_schema.sql").AddRow("002_indexes.sql"))
	mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).WithArgs(migrationLockID).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(context.Background(), "sqlite", "", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database_url")

	_, err = Open(context.Background(), "oracle", "x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
