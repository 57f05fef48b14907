package migrations

import (
	"context"
	"fmt"

	"github.com/quatton/qwell/pkg/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [up migration] ")

		_, err := db.NewCreateTable().
			Model((*models.Recommendation)(nil)).
			IfNotExists().
			ForeignKey(`("user_id") REFERENCES app.users ("id") ON DELETE CASCADE`).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*models.DailyTotal)(nil)).
			IfNotExists().
			ForeignKey(`("user_id") REFERENCES app.users ("id") ON DELETE CASCADE`).
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*models.Food)(nil)).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return err
		}

		_, err = db.NewCreateTable().
			Model((*models.History)(nil)).
			IfNotExists().
			ForeignKey(`("user_id") REFERENCES app.users ("id") ON DELETE CASCADE`).
			ForeignKey(`("category_id") REFERENCES app.foods ("category_id")`).
			Exec(ctx)
		if err != nil {
			return err
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Print(" [down migration] ")

		for _, model := range []any{
			(*models.History)(nil),
			(*models.Food)(nil),
			(*models.DailyTotal)(nil),
			(*models.Recommendation)(nil),
		} {
			if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
				return err
			}
		}

		return nil
	})
}
