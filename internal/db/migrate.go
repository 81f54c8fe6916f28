package db

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// migrateLockID serializes concurrent api instances applying the schema.
const migrateLockID = 7_143_001

const (
	sqlCreateMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version    text PRIMARY KEY,
	applied_at timestamptz NOT NULL DEFAULT now()
);`
	sqlAppliedMigrations = `SELECT version FROM schema_migrations;`
	sqlRecordMigration   = `INSERT INTO schema_migrations (version) VALUES ($1);`
)

// Migrate applies every *.sql file in fsys that schema_migrations has not
// recorded yet, in file name order, each inside its own transaction. It
// returns the versions it applied.
func Migrate(ctx context.Context, pool *pgxpool.Pool, fsys fs.FS) ([]string, error) {
	files, err := migrationFiles(fsys)
	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT pg_advisory_lock($1)`, migrateLockID); err != nil {
		return nil, fmt.Errorf("migration lock: %w", err)
	}
	defer func() {
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, migrateLockID)
	}()

	if _, err := conn.Exec(ctx, sqlCreateMigrationsTable); err != nil {
		return nil, fmt.Errorf("migrations table: %w", err)
	}

	rows, err := conn.Query(ctx, sqlAppliedMigrations)
	if err != nil {
		return nil, err
	}
	done, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, name := range pending(files, done) {
		body, err := fs.ReadFile(fsys, name)
		if err != nil {
			return applied, err
		}
		version := migrationVersion(name)
		err = pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, sqlRecordMigration, version)
			return err
		})
		if err != nil {
			return applied, fmt.Errorf("migration %s: %w", name, err)
		}
		applied = append(applied, version)
	}
	return applied, nil
}

func migrationFiles(fsys fs.FS) ([]string, error) {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

func pending(files, done []string) []string {
	var out []string
	for _, f := range files {
		if !slices.Contains(done, migrationVersion(f)) {
			out = append(out, f)
		}
	}
	return out
}

func migrationVersion(name string) string {
	return strings.TrimSuffix(path.Base(name), ".sql")
}
