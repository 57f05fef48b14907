package migrations

import (
	"context"
	"fmt"

	"github.com/quatton/qwell/pkg/db/models"
	"github.com/uptrace/bun"
)

// Body metrics and token windows are checked by the database as well, so a
// bad write from any client fails loudly instead of producing a bogus target.
var authConstraints = []string{
	`ALTER TABLE app.users ADD CONSTRAINT users_gender_check CHECK (gender IN ('male', 'female'))`,
	`ALTER TABLE app.users ADD CONSTRAINT users_metrics_check CHECK (weight > 0 AND height > 0 AND age >= 0)`,
	`ALTER TABLE app.auth ADD CONSTRAINT auth_access_window_check CHECK (access_expired_at > access_created_at)`,
	`ALTER TABLE app.auth ADD CONSTRAINT auth_refresh_window_check CHECK (refresh_expired_at > refresh_created_at)`,
}

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [up migration] ")

		for _, stmt := range []string{
			"CREATE EXTENSION IF NOT EXISTS pgcrypto",
			"CREATE SCHEMA IF NOT EXISTS app",
		} {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		if _, err := db.NewCreateTable().
			Model((*models.User)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("create users: %w", err)
		}

		if _, err := db.NewCreateTable().
			Model((*models.Auth)(nil)).
			IfNotExists().
			ForeignKey(`("user_id") REFERENCES app.users ("id") ON DELETE CASCADE`).
			Exec(ctx); err != nil {
			return fmt.Errorf("create auth: %w", err)
		}

		for _, stmt := range authConstraints {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return fmt.Errorf("add constraint: %w", err)
			}
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [down migration] ")

		for _, model := range []any{(*models.Auth)(nil), (*models.User)(nil)} {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		_, err := db.NewRaw("DROP SCHEMA IF EXISTS app").Exec(ctx)
		return err
	})
}
