package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [up migration] ")

		stmts := []string{
			"CREATE INDEX IF NOT EXISTS app_histories_user_date_idx ON app.histories (user_id, date)",
			"ALTER TABLE app.daily_totals ADD CONSTRAINT daily_totals_sums_bounded CHECK (total_kcal <= 9999.99 AND total_car <= 9999.99 AND total_prot <= 9999.99 AND total_fat <= 9999.99)",
		}

		for _, stmt := range stmts {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [down migration] ")

		stmts := []string{
			"ALTER TABLE app.daily_totals DROP CONSTRAINT IF EXISTS daily_totals_sums_bounded",
			"DROP INDEX IF EXISTS app.app_histories_user_date_idx",
		}

		for _, stmt := range stmts {
			if _, err := db.NewRaw(stmt).Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}
