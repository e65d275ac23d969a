package store

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"

	dbutil "github/chapool/wallet-txengine/internal/util/db"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	DriverSQLite   = dbutil.DriverSQLite
	DriverPostgres = dbutil.DriverPostgres
)

func migrations() migrate.MigrationSource {
	return migrate.EmbedFileSystemMigrationSource{FileSystem: migrationsFS, Root: "migrations"}
}

// Migrate applies every pending up migration and returns how many ran.
func Migrate(ctx context.Context, db *sql.DB, driver string) (int, error) {
	n, err := migrate.ExecContext(ctx, db, driver, migrations(), migrate.Up)
	if err != nil {
		return 0, errors.Wrap(err, "failed to apply migrations")
	}

	return n, nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(ctx context.Context, db *sql.DB, driver string) (int, error) {
	n, err := migrate.ExecMaxContext(ctx, db, driver, migrations(), migrate.Down, 1)
	if err != nil {
		return 0, errors.Wrap(err, "failed to roll back migration")
	}

	return n, nil
}
