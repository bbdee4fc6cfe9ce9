package database

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator applies the embedded schema migrations to one database
type Migrator struct {
	m *migrate.Migrate
}

// MigrationStatus describes the schema version of a database
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Applied bool
}

// NewMigrator opens a dedicated database/sql handle for golang-migrate
func NewMigrator(databaseURL string) (*Migrator, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	driver, err := postgres.WithInstance(stdlib.OpenDB(*poolConfig.ConnConfig), &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return &Migrator{m: m}, nil
}

// Up applies all pending migrations. It reports whether anything changed.
func (mg *Migrator) Up() (bool, error) {
	err := mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to run migrations: %w", err)
	}
	return true, nil
}

// Down rolls back steps migrations
func (mg *Migrator) Down(steps int) (bool, error) {
	if steps <= 0 {
		return false, fmt.Errorf("invalid steps value %d: must be a positive integer", steps)
	}
	err := mg.m.Steps(-steps)
	if errors.Is(err, migrate.ErrNoChange) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return true, nil
}

// Force marks version as applied and clean after a failed migration was fixed by hand
func (mg *Migrator) Force(version int) error {
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Status returns the current schema version
func (mg *Migrator) Status() (MigrationStatus, error) {
	version, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, nil
	}
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to get migration version: %w", err)
	}
	return MigrationStatus{Version: version, Dirty: dirty, Applied: true}, nil
}

// Close releases the source and database handles
func (mg *Migrator) Close() {
	srcErr, dbErr := mg.m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		log.WithError(err).Warn("Failed to close migrator")
	}
}

// RunMigrationsWithURL applies all pending migrations to databaseURL.
// Test containers use it since their URL is only known at runtime.
func RunMigrationsWithURL(databaseURL string) error {
	mg, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer mg.Close()

	_, err = mg.Up()
	return err
}

// RunMigrationCommand executes a migrate subcommand against DATABASE_URL/DATABASE_NAME.
// Migrations only need the connection settings, not the full service configuration.
func RunMigrationCommand(command string, args []string) error {
	mg, err := NewMigrator(ConstructDatabaseURL(os.Getenv("DATABASE_URL"), os.Getenv("DATABASE_NAME")))
	if err != nil {
		return err
	}
	defer mg.Close()

	switch command {
	case "up":
		changed, err := mg.Up()
		if err != nil {
			return err
		}
		if !changed {
			log.Info("No new migrations to apply")
			return nil
		}
	case "down":
		steps := 1
		if len(args) > 0 {
			if steps, err = strconv.Atoi(args[0]); err != nil {
				return fmt.Errorf("invalid steps value %q: must be a positive integer", args[0])
			}
		}
		changed, err := mg.Down(steps)
		if err != nil {
			return err
		}
		if !changed {
			log.Info("No migrations to roll back")
			return nil
		}
	case "force":
		if len(args) == 0 {
			return errors.New("usage: peerbets migrate force <version>")
		}
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q", args[0])
		}
		if err := mg.Force(version); err != nil {
			return err
		}
	case "status":
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}

	status, err := mg.Status()
	if err != nil {
		return err
	}
	if !status.Applied {
		log.Info("No migrations have been applied yet")
		return nil
	}
	log.WithFields(log.Fields{
		"command": command,
		"version": status.Version,
		"dirty":   status.Dirty,
	}).Info("Schema version")
	return nil
}
