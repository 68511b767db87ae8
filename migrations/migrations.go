// Package migrations embeds the database schema and applies it with
// golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/*.sql
var files embed.FS

// Result reports the schema version before and after Up.
type Result struct {
	PreMigrationVersion  uint
	PostMigrationVersion uint
}

// Up applies every pending migration to db. An up to date schema is not an
// error.
func Up(db *sql.DB) (Result, error) {
	source, err := iofs.New(files, "sql")
	if err != nil {
		return Result{}, fmt.Errorf("migrations: source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return Result{}, fmt.Errorf("migrations: postgres.WithInstance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return Result{}, fmt.Errorf("migrations: migrate.NewWithInstance: %w", err)
	}

	var result Result
	result.PreMigrationVersion, _, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Result{}, fmt.Errorf("migrations: pre-migration version: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return Result{}, fmt.Errorf("migrations: up: %w", err)
	}

	result.PostMigrationVersion, _, err = m.Version()
	if err != nil {
		return Result{}, fmt.Errorf("migrations: post-migration version: %w", err)
	}
	return result, nil
}
