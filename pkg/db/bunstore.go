package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// BunStore implements Store on Postgres.
type BunStore struct {
	db *bun.DB
}

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db}
}

func (s *BunStore) InTx(ctx context.Context, fn func(ctx context.Context, r Repo) error) error {
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &bunRepo{db: tx})
	})
	return Classify(err)
}

// Ping reports whether the database is reachable.
func (s *BunStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type bunRepo struct {
	db bun.IDB
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func duplicate(err error) error {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.Field('n'))
	}
	return err
}

func (r *bunRepo) CreateUser(ctx context.Context, u *models.User) error {
	_, err := r.db.NewInsert().Model(u).Returning("*").Exec(ctx)
	return duplicate(err)
}

func (r *bunRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u := new(models.User)
	err := r.db.NewSelect().Model(u).Where("u.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *bunRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u := new(models.User)
	err := r.db.NewSelect().Model(u).Where("u.email = ?", email).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *bunRepo) UpdateUser(ctx context.Context, u *models.User) error {
	res, err := r.db.NewUpdate().Model(u).WherePK().Exec(ctx)
	if err != nil {
		return duplicate(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *bunRepo) GetAuthByAccessToken(ctx context.Context, token string) (*models.Auth, error) {
	a := new(models.Auth)
	err := r.db.NewSelect().Model(a).Where("a.access_token = ?", token).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *bunRepo) LockAuth(ctx context.Context, userID uuid.UUID) (*models.Auth, error) {
	a := new(models.Auth)
	err := r.db.NewSelect().Model(a).Where("a.user_id = ?", userID).For("UPDATE").Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return a, nil
}

func (r *bunRepo) SaveAuth(ctx context.Context, a *models.Auth) error {
	_, err := r.db.NewInsert().Model(a).
		On("CONFLICT (user_id) DO UPDATE").
		Set("access_token = EXCLUDED.access_token").
		Set("access_created_at = EXCLUDED.access_created_at").
		Set("access_expired_at = EXCLUDED.access_expired_at").
		Set("refresh_token = EXCLUDED.refresh_token").
		Set("refresh_created_at = EXCLUDED.refresh_created_at").
		Set("refresh_expired_at = EXCLUDED.refresh_expired_at").
		Exec(ctx)
	return duplicate(err)
}

func (r *bunRepo) LockRecommendation(ctx context.Context, userID uuid.UUID) (*models.Recommendation, error) {
	rec := new(models.Recommendation)
	err := r.db.NewSelect().Model(rec).Where("r.user_id = ?", userID).For("UPDATE").Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return rec, nil
}

func (r *bunRepo) SaveRecommendation(ctx context.Context, rec *models.Recommendation) error {
	_, err := r.db.NewInsert().Model(rec).
		On("CONFLICT (user_id) DO UPDATE").
		Set("rec_kcal = EXCLUDED.rec_kcal").
		Set("rec_car = EXCLUDED.rec_car").
		Set("rec_prot = EXCLUDED.rec_prot").
		Set("rec_fat = EXCLUDED.rec_fat").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *bunRepo) LockDailyTotal(ctx context.Context, userID uuid.UUID, day time.Time) (*models.DailyTotal, error) {
	fresh := &models.DailyTotal{UserID: userID, Today: day, HistoryIDs: []int64{}}
	_, err := r.db.NewInsert().Model(fresh).
		On("CONFLICT (user_id, today) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	d := new(models.DailyTotal)
	err = r.db.NewSelect().Model(d).
		Where("dt.user_id = ?", userID).
		Where("dt.today = CAST(? AS date)", DayKey(day)).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return d, nil
}

func (r *bunRepo) SaveDailyTotal(ctx context.Context, d *models.DailyTotal) error {
	_, err := r.db.NewUpdate().Model(d).WherePK().Exec(ctx)
	return err
}

func (r *bunRepo) CountMeals(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	return r.db.NewSelect().Model((*models.History)(nil)).
		Where("h.user_id = ?", userID).
		Where("h.date = CAST(? AS date)", DayKey(day)).
		Count(ctx)
}

func (r *bunRepo) CreateMeal(ctx context.Context, h *models.History) error {
	_, err := r.db.NewInsert().Model(h).Returning("id, created_at").Exec(ctx)
	return err
}

func (r *bunRepo) ListMeals(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.History, error) {
	var rows []models.History
	err := r.db.NewSelect().Model(&rows).
		Relation("Food").
		Where("h.user_id = ?", userID).
		Where("h.date = CAST(? AS date)", DayKey(day)).
		Order("h.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *bunRepo) GetFood(ctx context.Context, categoryID int) (*models.Food, error) {
	f := new(models.Food)
	err := r.db.NewSelect().Model(f).Where("f.category_id = ?", categoryID).Scan(ctx)
	if err != nil {
		return nil, notFound(err)
	}
	return f, nil
}

func (r *bunRepo) UpsertFoods(ctx context.Context, foods []models.Food) error {
	if len(foods) == 0 {
		return nil
	}
	_, err := r.db.NewInsert().Model(&foods).
		On("CONFLICT (category_id) DO UPDATE").
		Set("category_name = EXCLUDED.category_name").
		Set("food_kcal = EXCLUDED.food_kcal").
		Set("food_car = EXCLUDED.food_car").
		Set("food_prot = EXCLUDED.food_prot").
		Set("food_fat = EXCLUDED.food_fat").
		Exec(ctx)
	return err
}

// Ensure BunStore implements Store.
var _ Store = (*BunStore)(nil)
