package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

type DB struct {
	*pgxpool.Pool
}

// Initialise a new database connection. connString should be a valid postgres connection string (such as a postgres-url).
func NewDB(ctx context.Context, connString string) (*DB, error) {
	slog.Info("Connecting to postgres database", "connString", connString)
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to postgres database: %w", err)
	}
	return &DB{pool}, nil
}

// Switch the database schema. If the specified schema does not exist already, this will create it.
// Beware that the schema here is not sanitised, as such this could be used to do SQL injection and should never
// pass on unsanitised user input!
func (db *DB) SwitchSchema(ctx context.Context, schema string) error {
	slog.Info("Switching postgres schema", "schema", schema)
	_, err := db.Exec(
		ctx,
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s; SET search_path TO %s;", schema, schema),
	)
	if err != nil {
		return fmt.Errorf("cannot create and switch to schema %q: %w", schema, err)
	}
	return nil
}

// Delete the specified database schema, beware that this will delete all tables and data in the schema.
// The schema string here is not sanitised, as such this could be used to do SQL injection and should never
// pass on unsanitised user input!
func (db *DB) DeleteSchema(ctx context.Context, schema string) error {
	slog.Info("Deleting postgres schema", "schema", schema)
	if _, err := db.Exec(ctx, fmt.Sprintf("DROP SCHEMA IF EXISTS %s CASCADE;", schema)); err != nil {
		return fmt.Errorf("cannot delete schema '%v': %w", schema, err)
	}
	return nil
}

func (db *DB) gooseProvider() (*goose.Provider, error) {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("cannot open the embedded migrations folder: %w", err)
	}
	return goose.NewProvider(
		goose.DialectPostgres,
		stdlib.OpenDBFromPool(db.Pool),
		migrations,
		goose.WithVerbose(true),
	)
}

// Migrate brings the user and account tables up to date with the embedded migrations.
func (db *DB) Migrate(ctx context.Context) error {
	provider, err := db.gooseProvider()
	if err != nil {
		return fmt.Errorf("cannot create goose provider: %w", err)
	}
	if _, err = provider.Up(ctx); err != nil {
		return fmt.Errorf("cannot run database migrations: %w", err)
	}
	if err := provider.Close(); err != nil {
		return fmt.Errorf("cannot close goose provider connection: %w", err)
	}
	return nil
}

// MigrateDown rolls the embedded migrations back a single step.
func (db *DB) MigrateDown(ctx context.Context) error {
	provider, err := db.gooseProvider()
	if err != nil {
		return fmt.Errorf("cannot create goose provider: %w", err)
	}
	if _, err = provider.Down(ctx); err != nil {
		return fmt.Errorf("cannot run database down migrations: %w", err)
	}
	if err := provider.Close(); err != nil {
		return fmt.Errorf("cannot close goose provider connection: %w", err)
	}
	return nil
}
