package store

import (
	"context"
	"embed"
	"io/fs"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

// migrationLockID serializes concurrent Postgres migration runs.
const migrationLockID = 7350212

// Migrate applies every embedded migration for the store's dialect that is
// not yet recorded in schema_migrations, in lexicographic order.
func (s *SQLStore) Migrate(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "store.migrate"), zap.String("driver", s.Driver()))

	if s.b.dialect() == dialectPostgres {
		if _, err := s.b.exec(ctx, "SELECT pg_advisory_lock(?)", migrationLockID); err != nil {
			return eris.Wrap(err, "store: acquire migration advisory lock")
		}
		defer func() {
			if _, err := s.b.exec(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock(?)", migrationLockID); err != nil {
				log.Warn("store: failed to release migration advisory lock", zap.Error(err))
			}
		}()
	}

	if _, err := s.b.exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename   TEXT PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return eris.Wrap(err, "store: ensure migration table")
	}

	dir := "migrations/" + s.b.dialect().String()
	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return eris.Wrap(err, "store: read migration dir")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		name := entry.Name()
		if applied[name] {
			continue
		}
		data, err := migrationFS.ReadFile(dir + "/" + name)
		if err != nil {
			return eris.Wrapf(err, "store: read migration %s", name)
		}

		log.Info("applying migration", zap.String("file", name))
		err = s.b.withTx(ctx, func(tx backend) error {
			if _, err := tx.exec(ctx, string(data)); err != nil {
				return eris.Wrapf(err, "store: apply migration %s", name)
			}
			_, err := tx.exec(ctx,
				"INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)",
				name, formatTime(s.now()),
			)
			return eris.Wrapf(err, "store: record migration %s", name)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	r, err := s.b.query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "store: query applied migrations")
	}
	defer r.Close()

	applied := make(map[string]bool)
	for r.Next() {
		var name string
		if err := r.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "store: scan migration row")
		}
		applied[name] = true
	}
	return applied, r.Err()
}
