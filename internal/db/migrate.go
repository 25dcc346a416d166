package db

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded goose migrations
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// MigrationResult is one applied or rolled back migration
type MigrationResult struct {
	Version   int64
	Source    string
	Direction string
}

func (db *DB) provider() (*goose.Provider, func() error, error) {
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	p, err := goose.NewProvider(goose.DialectPostgres, sqlDB, Migrations())
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to create migration provider: %w", err)
	}
	return p, sqlDB.Close, nil
}

// Migrate applies all pending migrations
func (db *DB) Migrate(ctx context.Context) ([]MigrationResult, error) {
	p, closeDB, err := db.provider()
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeDB() }()

	results, err := p.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return convertResults(results), nil
}

// MigrateDown rolls back the most recent migration
func (db *DB) MigrateDown(ctx context.Context) ([]MigrationResult, error) {
	p, closeDB, err := db.provider()
	if err != nil {
		return nil, err
	}
	defer func() { _ = closeDB() }()

	result, err := p.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to roll back migration: %w", err)
	}
	return convertResults([]*goose.MigrationResult{result}), nil
}

// MigrationVersion returns the current schema version
func (db *DB) MigrationVersion(ctx context.Context) (int64, error) {
	p, closeDB, err := db.provider()
	if err != nil {
		return 0, err
	}
	defer func() { _ = closeDB() }()

	v, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

func convertResults(results []*goose.MigrationResult) []MigrationResult {
	out := make([]MigrationResult, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, MigrationResult{
			Version:   r.Source.Version,
			Source:    r.Source.Path,
			Direction: r.Direction,
		})
	}
	return out
}
