package intake

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/db/memstore"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/qapi/services/recommend"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qmetrics"
	"github.com/quatton/qwell/pkg/qnutri"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	t0    = time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	today = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc     *Service
	store   *memstore.Store
	metrics *qmetrics.Metrics
	user    *models.User
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func macros(kcal, car, prot, fat string) qnutri.Macros {
	return qnutri.Macros{Kcal: d(kcal), Car: d(car), Prot: d(prot), Fat: d(fat)}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memstore.New()
	m := qmetrics.New()
	now := func() time.Time { return t0 }

	rec := recommend.NewService(store, qlog.NewDiscard())
	rec.SetClock(now)
	svc := NewService(store, rec, m, qlog.NewDiscard())
	svc.SetClock(now)

	u := &models.User{
		Email:     "park@example.com",
		Nickname:  "park",
		Age:       25,
		Gender:    qnutri.Male,
		Weight:    d("70"),
		Height:    d("175"),
		UpdatedAt: t0.Add(-time.Hour),
	}
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, r db.Repo) error {
		if err := r.CreateUser(ctx, u); err != nil {
			return err
		}
		return r.UpsertFoods(ctx, []models.Food{
			{CategoryID: 1, CategoryName: "kimchi stew", FoodKcal: d("500"), FoodCar: d("50"), FoodProt: d("20"), FoodFat: d("15")},
		})
	}))

	return &fixture{svc: svc, store: store, metrics: m, user: u}
}

func (f *fixture) storedTotal(t *testing.T) *models.DailyTotal {
	t.Helper()
	var total *models.DailyTotal
	require.NoError(t, f.store.InTx(context.Background(), func(ctx context.Context, r db.Repo) error {
		var err error
		total, err = r.LockDailyTotal(ctx, f.user.ID, today)
		return err
	}))
	return total
}

func TestRecordMealOnFreshDay(t *testing.T) {
	f := newFixture(t)

	sum, err := f.svc.RecordMeal(context.Background(), f.user.ID, t0, Meal{
		Macros:     macros("500", "50", "20", "15"),
		CategoryID: 1,
		MealType:   qnutri.Lunch,
	})
	require.NoError(t, err)

	total := sum.Total
	assert.Equal(t, "500.00", total.TotalKcal.StringFixed(2))
	assert.Equal(t, "50.00", total.TotalCar.StringFixed(2))
	assert.Equal(t, "20.00", total.TotalProt.StringFixed(2))
	assert.Equal(t, "15.00", total.TotalFat.StringFixed(2))
	assert.Len(t, total.HistoryIDs, 1)
	assert.Equal(t, "2672.28", sum.Recommendation.RecKcal.StringFixed(2))
	assert.False(t, total.Condition)
	assert.Equal(t, today, total.Today)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MealsRecorded))
}

func TestRecordMealSetsConditionWhenOverTarget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		_, err := f.svc.RecordMeal(ctx, f.user.ID, t0, Meal{Macros: macros("500", "50", "20", "15"), CategoryID: 1, MealType: qnutri.Other})
		require.NoError(t, err)
	}

	total := f.storedTotal(t)
	assert.Equal(t, "3000.00", total.TotalKcal.StringFixed(2))
	assert.True(t, total.Condition)
}

func TestEleventhMealIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < qnutri.MaxMealsPerDay; i++ {
		_, err := f.svc.RecordMeal(ctx, f.user.ID, t0, Meal{Macros: macros("100", "10", "5", "2"), CategoryID: 1, MealType: qnutri.Other})
		require.NoError(t, err)
	}
	before := f.storedTotal(t)

	_, err := f.svc.RecordMeal(ctx, f.user.ID, t0, Meal{Macros: macros("100", "10", "5", "2"), CategoryID: 1, MealType: qnutri.Other})
	assert.True(t, qerr.IsCode(err, qerr.CodeTooManyEntries), "got %v", err)

	after := f.storedTotal(t)
	assert.Equal(t, "1000.00", after.TotalKcal.StringFixed(2))
	assert.Equal(t, before.HistoryIDs, after.HistoryIDs)

	meals, err := f.svc.ListMeals(ctx, f.user.ID, t0)
	require.NoError(t, err)
	assert.Len(t, meals, qnutri.MaxMealsPerDay)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.MealsRejected))
}

func TestSumsAreClamped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordMeal(ctx, f.user.ID, t0, Meal{Macros: macros("9000", "10", "10", "10"), CategoryID: 1, MealType: qnutri.Other})
	require.NoError(t, err)
	sum, err := f.svc.RecordMeal(ctx, f.user.ID, t0, Meal{Macros: macros("9000", "10", "10", "10"), CategoryID: 1, MealType: qnutri.Other})
	require.NoError(t, err)

	assert.True(t, sum.Total.TotalKcal.Equal(qnutri.MaxTotal))
	assert.Equal(t, "20.00", sum.Total.TotalCar.StringFixed(2))
	assert.True(t, sum.Total.Condition)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.TotalsClamped))
}

func TestRecordMealRejectsNegativeMacros(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordMeal(context.Background(), f.user.ID, t0, Meal{Macros: macros("-1", "0", "0", "0"), CategoryID: 1})
	assert.True(t, qerr.IsCode(err, qerr.CodeInvalidInput))
}

func TestSaveMealResolvesFood(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sum, err := f.svc.SaveMeal(ctx, f.user.ID, t0, MealInput{CategoryID: 1, MealType: qnutri.Lunch, ImageURL: "meals/x.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "500.00", sum.Total.TotalKcal.StringFixed(2))

	meals, err := f.svc.ListMeals(ctx, f.user.ID, t0)
	require.NoError(t, err)
	require.Len(t, meals, 1)
	assert.Equal(t, "kimchi stew", meals[0].Food.CategoryName)
	assert.Equal(t, qnutri.Lunch, meals[0].MealType)
}

func TestSaveMealUnknownCategory(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.SaveMeal(context.Background(), f.user.ID, t0, MealInput{CategoryID: 99})
	assert.True(t, qerr.IsCode(err, qerr.CodeNotFound))
}

func TestGetTodayCreatesEmptyAggregate(t *testing.T) {
	f := newFixture(t)

	sum, err := f.svc.GetToday(context.Background(), f.user.ID, t0)
	require.NoError(t, err)
	assert.True(t, sum.Total.TotalKcal.IsZero())
	assert.False(t, sum.Total.Condition)
	assert.Empty(t, sum.Total.HistoryIDs)
}

func TestWeightChangeReachesConditionOnNextRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordMeal(ctx, f.user.ID, t0, Meal{Macros: macros("2000", "0", "0", "0"), CategoryID: 1, MealType: qnutri.Other})
	require.NoError(t, err)

	f.user.Weight = d("30")
	f.user.UpdatedAt = recommend.ProfileStamp(t0, f.user.UpdatedAt, t0)
	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		return r.UpdateUser(ctx, f.user)
	}))

	// The aggregate keeps its old verdict until it is read again.
	assert.False(t, f.storedTotal(t).Condition)

	sum, err := f.svc.GetToday(ctx, f.user.ID, t0)
	require.NoError(t, err)
	assert.Equal(t, "1841.67", sum.Recommendation.RecKcal.StringFixed(2))
	assert.True(t, sum.Total.Condition)
	assert.Equal(t, "2000.00", sum.Total.TotalKcal.StringFixed(2))
	assert.True(t, f.storedTotal(t).Condition)
}
