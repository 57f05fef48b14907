// Package intake records meals and maintains the per-user, per-day running
// totals compared against the user's recommendation.
package intake

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/qapi/services/recommend"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qmetrics"
	"github.com/quatton/qwell/pkg/qnutri"
)

// Meal is a meal entry with its macros already resolved.
type Meal struct {
	Macros     qnutri.Macros
	CategoryID int
	MealType   qnutri.MealType
	ImageURL   string
}

// MealInput is a meal entry whose macros come from the food catalog.
type MealInput struct {
	CategoryID int
	MealType   qnutri.MealType
	ImageURL   string
}

// Summary is a day's aggregate together with the target it was judged
// against.
type Summary struct {
	Total          *models.DailyTotal
	Recommendation *models.Recommendation
}

type Service struct {
	store     db.Store
	recommend *recommend.Service
	metrics   *qmetrics.Metrics
	logger    *qlog.Logger
	now       func() time.Time
}

func NewService(store db.Store, rec *recommend.Service, m *qmetrics.Metrics, logger *qlog.Logger) *Service {
	return &Service{store: store, recommend: rec, metrics: m, logger: logger, now: time.Now}
}

// SetClock replaces the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// RecordMeal appends a meal to the user's day and folds its macros into the
// day's totals in a single unit of work. Once the day holds MaxMealsPerDay
// entries it fails with TooManyEntries and writes nothing.
func (s *Service) RecordMeal(ctx context.Context, userID uuid.UUID, date time.Time, meal Meal) (*Summary, error) {
	if err := meal.Macros.Validate(); err != nil {
		return nil, err
	}
	if !meal.MealType.Valid() {
		return nil, qerr.Newf(qerr.CodeInvalidInput, "unknown meal type %d", meal.MealType)
	}

	day := qnutri.Day(date)
	var (
		sum     *Summary
		clamped bool
	)
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		var err error
		sum, clamped, err = s.recordIn(ctx, r, userID, day, meal)
		return err
	})
	if err != nil {
		if qerr.IsCode(err, qerr.CodeTooManyEntries) {
			s.metrics.MealsRejected.Inc()
		}
		return nil, err
	}

	s.metrics.MealsRecorded.Inc()
	if clamped {
		s.metrics.TotalsClamped.Inc()
		s.logger.Warn("daily total clamped", "user_id", userID, "day", db.DayKey(day), "max", qnutri.MaxTotal.String())
	}
	return sum, nil
}

func (s *Service) recordIn(ctx context.Context, r db.Repo, userID uuid.UUID, day time.Time, meal Meal) (*Summary, bool, error) {
	user, err := loadUser(ctx, r, userID)
	if err != nil {
		return nil, false, err
	}

	total, err := r.LockDailyTotal(ctx, userID, day)
	if err != nil {
		return nil, false, err
	}

	n, err := r.CountMeals(ctx, userID, day)
	if err != nil {
		return nil, false, err
	}
	if n >= qnutri.MaxMealsPerDay {
		return nil, false, qerr.Newf(qerr.CodeTooManyEntries, "at most %d meals can be recorded per day", qnutri.MaxMealsPerDay)
	}

	entry := &models.History{
		UserID:     userID,
		CategoryID: meal.CategoryID,
		MealType:   meal.MealType,
		ImageURL:   meal.ImageURL,
		Date:       day,
	}
	if err := r.CreateMeal(ctx, entry); err != nil {
		return nil, false, err
	}
	total.HistoryIDs = append(total.HistoryIDs, entry.ID)

	sums, clamped := total.Macros().Add(meal.Macros).Clamp()
	total.SetMacros(sums)

	rec, err := s.recommend.RefreshIn(ctx, r, user)
	if err != nil {
		return nil, false, err
	}
	total.Condition = qnutri.Over(sums, rec.Macros())
	total.UpdatedAt = s.now()

	if err := r.SaveDailyTotal(ctx, total); err != nil {
		return nil, false, err
	}
	return &Summary{Total: total, Recommendation: rec}, clamped, nil
}

// SaveMeal resolves the meal's macros from the food catalog and records it.
func (s *Service) SaveMeal(ctx context.Context, userID uuid.UUID, date time.Time, in MealInput) (*Summary, error) {
	food, err := s.Food(ctx, in.CategoryID)
	if err != nil {
		return nil, err
	}

	return s.RecordMeal(ctx, userID, date, Meal{
		Macros:     food.Macros(),
		CategoryID: in.CategoryID,
		MealType:   in.MealType,
		ImageURL:   in.ImageURL,
	})
}

// Food looks up a catalog entry.
func (s *Service) Food(ctx context.Context, categoryID int) (*models.Food, error) {
	var food *models.Food
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		var err error
		food, err = r.GetFood(ctx, categoryID)
		if errors.Is(err, db.ErrNotFound) {
			return qerr.Newf(qerr.CodeNotFound, "unknown food category %d", categoryID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return food, nil
}

// GetToday returns the day's aggregate, creating an empty one if needed. The
// over-target flag is re-evaluated against a fresh recommendation; the sums
// are never touched.
func (s *Service) GetToday(ctx context.Context, userID uuid.UUID, date time.Time) (*Summary, error) {
	day := qnutri.Day(date)
	var sum *Summary
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		user, err := loadUser(ctx, r, userID)
		if err != nil {
			return err
		}
		total, err := r.LockDailyTotal(ctx, userID, day)
		if err != nil {
			return err
		}
		rec, err := s.recommend.RefreshIn(ctx, r, user)
		if err != nil {
			return err
		}

		if over := qnutri.Over(total.Macros(), rec.Macros()); over != total.Condition {
			total.Condition = over
			total.UpdatedAt = s.now()
			if err := r.SaveDailyTotal(ctx, total); err != nil {
				return err
			}
		}
		sum = &Summary{Total: total, Recommendation: rec}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sum, nil
}

// ListMeals returns the day's entries with their catalog rows attached.
func (s *Service) ListMeals(ctx context.Context, userID uuid.UUID, date time.Time) ([]models.History, error) {
	var meals []models.History
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		var err error
		meals, err = r.ListMeals(ctx, userID, qnutri.Day(date))
		return err
	})
	return meals, err
}

func loadUser(ctx context.Context, r db.Repo, userID uuid.UUID) (*models.User, error) {
	u, err := r.GetUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, qerr.Newf(qerr.CodeUserNotFound, "user %s does not exist", userID)
	}
	return u, err
}
