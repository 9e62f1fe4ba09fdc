package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ecn/internal/repositories"
	"github.com/desertthunder/ecn/internal/shared"
)

// sessionPurger is implemented by both session repositories.
type sessionPurger interface {
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// SetupConfig writes the example configuration to --config.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)
	return r.writePlain("✓ Wrote %s\n", path)
}

// openDatabase opens the SQLite database without migrating it.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database)
	return db, nil
}

// SetupDatabase initializes the database and runs migrations.
//
// With the postgres driver the sessions table is also created in the shared database.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if r.config.Database.Driver == shared.DriverPostgres {
		pool, err := repositories.NewPool(ctx, r.config.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := repositories.NewPGSessionRepository(pool).EnsureSchema(ctx); err != nil {
			return err
		}
		r.logger.Info("postgres sessions table ready")
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready: %s\n", r.config.Database.Path)
}

// SetupStatus prints how many migrations are applied.
func (r *Runner) SetupStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	status, err := shared.GetMigrationStatus(db)
	if err != nil {
		return err
	}

	r.writePlainHeader("Migrations")
	r.writePlain("Database: %s\n", r.config.Database.Path)
	r.writePlain("Current:  %d\n", status.Current)
	r.writePlain("Applied:  %d of %d\n", status.Applied, status.Total)
	if status.Pending() {
		return r.writePlain("Pending migrations found, run 'ecn setup database'\n")
	}
	return r.writePlain("Up to date\n")
}

// SetupRollback reverts the latest migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	status, err := shared.GetMigrationStatus(db)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Rolled back, now at version %d\n", status.Current)
}

// SetupPurgeSessions deletes sessions not written within --older-than.
func (r *Runner) SetupPurgeSessions(ctx context.Context, cmd *cli.Command) error {
	age := cmd.Duration("older-than")
	if age <= 0 {
		return fmt.Errorf("%w: --older-than must be positive", shared.ErrInvalidArgument)
	}
	if err := r.stores(ctx); err != nil {
		return err
	}

	purger, ok := r.sessions.(sessionPurger)
	if !ok {
		return fmt.Errorf("%w: session store cannot purge", shared.ErrNotImplemented)
	}
	n, err := purger.Purge(ctx, time.Now().Add(-age))
	if err != nil {
		return err
	}
	r.logger.Info("purged sessions", "count", n, "older_than", age)
	return r.writePlain("✓ Removed %d session(s)\n", n)
}
