package store

import (
	"time"

	"github.com/rotisserie/eris"
)

var _ Store = (*SQLStore)(nil)

// SQLStore implements Store over a SQLite or Postgres backend.
type SQLStore struct {
	b   backend
	now func() time.Time
}

func newSQLStore(b backend) *SQLStore {
	return &SQLStore{b: b, now: func() time.Time { return time.Now().UTC() }}
}

// Driver returns "sqlite" or "postgres".
func (s *SQLStore) Driver() string {
	return s.b.dialect().String()
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	return eris.Wrap(s.b.close(), "store: close")
}

// timeLayout is fixed width so stored timestamps sort lexically in both dialects.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "store: parse time %q", s)
	}
	return t, nil
}
