package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contrib-search/internal/db"
)

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a Postgres-backed store with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*SQLStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return newSQLStore(&pgBackend{pool: pool, closeFn: pool.Close}), nil
}

// NewPostgresFromPool wraps an existing pool (or pgxmock pool in tests).
func NewPostgresFromPool(pool db.Pool) *SQLStore {
	return newSQLStore(&pgBackend{pool: pool})
}

type pgBackend struct {
	pool    db.Pool
	inTx    bool
	closeFn func()
}

func (b *pgBackend) dialect() dialect { return dialectPostgres }

func (b *pgBackend) exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := b.pool.Exec(ctx, rebindDollar(query), args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (b *pgBackend) query(ctx context.Context, query string, args ...any) (rows, error) {
	r, err := b.pool.Query(ctx, rebindDollar(query), args...)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (b *pgBackend) queryRow(ctx context.Context, query string, args ...any) row {
	return b.pool.QueryRow(ctx, rebindDollar(query), args...)
}

func (b *pgBackend) withTx(ctx context.Context, fn func(tx backend) error) error {
	if b.inTx {
		return fn(b)
	}
	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(&pgBackend{pool: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: commit tx")
	}
	return nil
}

func (b *pgBackend) bulkInsert(ctx context.Context, table string, columns []string, data [][]any) (int64, error) {
	return db.CopyFrom(ctx, b.pool, table, columns, data)
}

func (b *pgBackend) isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func (b *pgBackend) close() error {
	if b.closeFn != nil {
		b.closeFn()
	}
	return nil
}

// Open creates a store for the given driver ("sqlite" or "postgres").
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (*SQLStore, error) {
	if dsn == "" {
		return nil, eris.New("store: no database_url configured")
	}
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3", "":
		return NewSQLite(dsn)
	case "postgres", "postgresql", "pgx":
		return NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q (valid: sqlite, postgres)", driver)
	}
}
