package store

import (
	"context"
	"strconv"
	"strings"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

func (d dialect) String() string {
	if d == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

// rows is the iteration surface shared by pgx.Rows and *sql.Rows.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// row is satisfied by pgx.Row and *sql.Row.
type row interface {
	Scan(dest ...any) error
}

// backend hides the driver differences between database/sql and pgx.
// SQL handed to a backend uses "?" placeholders.
type backend interface {
	dialect() dialect
	exec(ctx context.Context, query string, args ...any) (int64, error)
	query(ctx context.Context, query string, args ...any) (rows, error)
	queryRow(ctx context.Context, query string, args ...any) row
	// withTx runs fn inside a transaction. Nested calls reuse the outer one.
	withTx(ctx context.Context, fn func(tx backend) error) error
	bulkInsert(ctx context.Context, table string, columns []string, data [][]any) (int64, error)
	isNoRows(err error) bool
	close() error
}

// rebindDollar rewrites "?" placeholders into Postgres "$n" form.
func rebindDollar(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
