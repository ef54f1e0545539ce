package storage

import (
	"context"
	"database/sql"
	"embed"

	"github.com/go-faster/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// MigrateSQLite creates or upgrades the kv table in a SQLite database.
func MigrateSQLite(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, "sqlite3", "migrations/sqlite")
}

// MigratePostgres creates or upgrades the kv table in a PostgreSQL database.
func MigratePostgres(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, "postgres", "migrations/postgres")
}

func migrate(ctx context.Context, db *sql.DB, dialect, dir string) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return errors.Wrap(err, "goose.SetDialect failed")
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return errors.Wrap(err, "goose.Up failed")
	}
	return nil
}
