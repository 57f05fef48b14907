package db

import (
	"context"
	"fmt"

	"github.com/quatton/qwell/pkg/db/migrations"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

func newMigrator(ctx context.Context, db *bun.DB) (*migrate.Migrator, error) {
	migrator := migrate.NewMigrator(db, migrations.Migrations)

	// Initialize the migration tables if they don't exist
	if err := migrator.Init(ctx); err != nil {
		return nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	return migrator, nil
}

// Migrate applies every pending migration as one group.
func Migrate(ctx context.Context, db *bun.DB, logger *qlog.Logger) error {
	migrator, err := newMigrator(ctx, db)
	if err != nil {
		return err
	}

	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer migrator.Unlock(ctx) //nolint:errcheck

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}

	if group.IsZero() {
		logger.Info("database is up to date")
		return nil
	}

	logger.Info("migrated", "group", group.String())
	return nil
}

// Rollback reverts the most recently applied migration group.
func Rollback(ctx context.Context, db *bun.DB, logger *qlog.Logger) error {
	migrator, err := newMigrator(ctx, db)
	if err != nil {
		return err
	}

	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to lock migrations: %w", err)
	}
	defer migrator.Unlock(ctx) //nolint:errcheck

	group, err := migrator.Rollback(ctx)
	if err != nil {
		return fmt.Errorf("failed to rollback: %w", err)
	}

	if group.IsZero() {
		logger.Info("nothing to roll back")
		return nil
	}

	logger.Info("rolled back", "group", group.String())
	return nil
}

// MigrationStatus lists migration names by whether they have been applied.
type MigrationStatus struct {
	Applied []string
	Pending []string
}

func Status(ctx context.Context, db *bun.DB) (*MigrationStatus, error) {
	migrator, err := newMigrator(ctx, db)
	if err != nil {
		return nil, err
	}

	ms, err := migrator.MigrationsWithStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	st := &MigrationStatus{}
	for _, m := range ms.Applied() {
		st.Applied = append(st.Applied, m.Name)
	}
	for _, m := range ms.Unapplied() {
		st.Pending = append(st.Pending, m.Name)
	}
	return st, nil
}
