// Package migrations carries the versioned Postgres schema. SQLite and MySQL
// databases are created with gorm's AutoMigrate instead.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Runner applies the embedded migrations to one database.
type Runner struct {
	db     *sql.DB
	m      *migrate.Migrate
	logger *log.Logger
}

// Open connects to dsn through the pgx driver and prepares a Runner.
// Callers must Close it.
func Open(ctx context.Context, dsn string, logger *log.Logger) (*Runner, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	srcDriver, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return nil, fmt.Errorf("init iofs: %w", err)
	}

	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sql db: %w", err)
	}

	dbDriver, err := postgres.WithInstance(sqlDB, &postgres.Config{})
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcDriver, "pgx", dbDriver)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("init migrate: %w", err)
	}

	return &Runner{db: sqlDB, m: m, logger: logger}, nil
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (r *Runner) Up() error {
	if err := r.m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Println("schema already up to date")
			return nil
		}
		return fmt.Errorf("migrate up: %w", err)
	}
	r.logVersion()
	return nil
}

// Down rolls back steps migrations.
func (r *Runner) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("migrate down: steps must be positive, got %d", steps)
	}
	if err := r.m.Steps(-steps); err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	r.logVersion()
	return nil
}

// Version reports the applied version. It is 0 on an empty database.
func (r *Runner) Version() (uint, bool, error) {
	version, dirty, err := r.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migrate version: %w", err)
	}
	return version, dirty, nil
}

func (r *Runner) logVersion() {
	if version, dirty, err := r.Version(); err == nil {
		r.logger.Printf("schema at version %d (dirty=%t)", version, dirty)
	}
}

// Close releases the migrate instance and its connection.
func (r *Runner) Close() error {
	srcErr, dbErr := r.m.Close()
	return errors.Join(srcErr, dbErr, r.db.Close())
}

// Apply runs all migrations up on dsn.
func Apply(ctx context.Context, dsn string, logger *log.Logger) error {
	runner, err := Open(ctx, dsn, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	return runner.Up()
}
