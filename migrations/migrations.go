// Package migrations embeds the schema for every supported storage driver and
// applies it with golang-migrate.
package migrations

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Dialects with an embedded schema.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// New returns a migrator for the given dialect. databaseURL must use the
// scheme golang-migrate expects (postgres://... or sqlite3://path).
func New(dialect, databaseURL string) (*migrate.Migrate, error) {
	if dialect != Postgres && dialect != SQLite {
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	src, err := iofs.New(files, dialect)
	if err != nil {
		return nil, fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// Up applies all pending migrations. An up-to-date schema is not an error.
func Up(dialect, databaseURL string) error {
	m, err := New(dialect, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Down rolls back every migration.
func Down(dialect, databaseURL string) error {
	m, err := New(dialect, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migrations: %w", err)
	}
	return nil
}

// SQLiteURL converts a file path into a golang-migrate sqlite3 URL.
func SQLiteURL(path string) string {
	return "sqlite3://" + path
}
