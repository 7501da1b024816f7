// Package migrate applies the embedded schema of the postgres state backend.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	pkgerrors "github.com/pkg/errors"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Apply runs every pending migration and returns the resulting schema version.
func Apply(ctx context.Context, pool *pgxpool.Pool) (uint, error) {
	src, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return 0, pkgerrors.Wrap(err, "init migration source")
	}

	sqlDB, err := sql.Open("pgx", pool.Config().ConnString())
	if err != nil {
		return 0, pkgerrors.Wrap(err, "open sql db")
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return 0, pkgerrors.Wrap(err, "ping sql db")
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{MigrationsTable: "storefront_schema_migrations"})
	if err != nil {
		return 0, pkgerrors.Wrap(err, "init db driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx", driver)
	if err != nil {
		return 0, pkgerrors.Wrap(err, "init migrate")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, pkgerrors.Wrap(err, "migrate up")
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return 0, pkgerrors.Wrap(err, "read schema version")
	}
	if dirty {
		return version, pkgerrors.Errorf("schema version %d is dirty", version)
	}
	return version, nil
}
