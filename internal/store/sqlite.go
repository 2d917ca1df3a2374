package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// In WAL mode readers keep seeing the previous snapshot while a rebuild
// swaps the derived tables.
func NewSQLite(dsn string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-8000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return newSQLStore(&sqliteBackend{db: db, conn: db}), nil
}

type sqlConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

type sqliteBackend struct {
	db   *sql.DB // nil inside a transaction
	conn sqlConn
}

type sqliteRows struct {
	*sql.Rows
}

func (r sqliteRows) Close() {
	_ = r.Rows.Close()
}

func (b *sqliteBackend) dialect() dialect { return dialectSQLite }

func (b *sqliteBackend) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := b.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (b *sqliteBackend) query(ctx context.Context, query string, args ...any) (rows, error) {
	r, err := b.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqliteRows{r}, nil
}

func (b *sqliteBackend) queryRow(ctx context.Context, query string, args ...any) row {
	return b.conn.QueryRowContext(ctx, query, args...)
}

func (b *sqliteBackend) withTx(ctx context.Context, fn func(tx backend) error) error {
	if b.db == nil {
		return fn(b)
	}
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&sqliteBackend{conn: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return eris.Wrap(err, "sqlite: commit tx")
	}
	return nil
}

// bulkInsert uses one prepared statement per call; wrapped in withTx by the
// caller it runs as a single write transaction.
func (b *sqliteBackend) bulkInsert(ctx context.Context, table string, columns []string, data [][]any) (int64, error) {
	if len(data) == 0 {
		return 0, nil
	}
	stmt, err := b.conn.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders(len(columns)),
	))
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare insert into %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, r := range data {
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			return n, eris.Wrapf(err, "sqlite: insert into %s", table)
		}
		n++
	}
	return n, nil
}

func (b *sqliteBackend) isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func (b *sqliteBackend) close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
