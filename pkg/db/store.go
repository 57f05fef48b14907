package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/qerr"
)

var (
	ErrNotFound  = errors.New("db: row not found")
	ErrDuplicate = errors.New("db: duplicate key")
)

// Repo is the set of reads and writes available inside one unit of work.
// Lock* methods take a row lock that is held until the unit of work ends.
type Repo interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error

	GetAuthByAccessToken(ctx context.Context, token string) (*models.Auth, error)
	LockAuth(ctx context.Context, userID uuid.UUID) (*models.Auth, error)
	SaveAuth(ctx context.Context, a *models.Auth) error

	LockRecommendation(ctx context.Context, userID uuid.UUID) (*models.Recommendation, error)
	SaveRecommendation(ctx context.Context, r *models.Recommendation) error

	// LockDailyTotal returns the aggregate for (user, day), creating a zeroed
	// one first if none exists.
	LockDailyTotal(ctx context.Context, userID uuid.UUID, day time.Time) (*models.DailyTotal, error)
	SaveDailyTotal(ctx context.Context, d *models.DailyTotal) error

	CountMeals(ctx context.Context, userID uuid.UUID, day time.Time) (int, error)
	CreateMeal(ctx context.Context, h *models.History) error
	ListMeals(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.History, error)

	GetFood(ctx context.Context, categoryID int) (*models.Food, error)
	UpsertFoods(ctx context.Context, foods []models.Food) error
}

// Store runs units of work. A unit of work commits only if fn returns nil and
// is rolled back on every other exit path, panics included.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, r Repo) error) error
}

// Classify leaves sentinel and already-coded errors alone and marks anything
// else as a store failure.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case qerr.HasCode(err), errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate):
		return err
	default:
		return qerr.New(qerr.CodeStoreUnavailable, err)
	}
}

// DayKey renders a calendar day the way date columns are compared.
func DayKey(day time.Time) string {
	return day.Format(time.DateOnly)
}
