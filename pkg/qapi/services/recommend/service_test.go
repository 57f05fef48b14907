package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/db/memstore"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qnutri"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, store *memstore.Store, weight string) *models.User {
	t.Helper()
	u := &models.User{
		Email:     "lee@example.com",
		Nickname:  "lee",
		Age:       25,
		Gender:    qnutri.Male,
		Weight:    decimal.RequireFromString(weight),
		Height:    decimal.RequireFromString("175"),
		UpdatedAt: t0,
	}
	require.NoError(t, store.InTx(context.Background(), func(ctx context.Context, r db.Repo) error {
		return r.CreateUser(ctx, u)
	}))
	return u
}

func newService(store db.Store, now *time.Time) *Service {
	s := NewService(store, qlog.NewDiscard())
	s.SetClock(func() time.Time { return *now })
	return s
}

func TestGetOrRefreshComputesOnFirstRead(t *testing.T) {
	store := memstore.New()
	now := t0.Add(time.Minute)
	svc := newService(store, &now)
	u := seedUser(t, store, "70")

	rec, err := svc.GetOrRefresh(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, "2672.28", rec.RecKcal.StringFixed(2))
	assert.Equal(t, "334.04", rec.RecCar.StringFixed(2))
	assert.Equal(t, "200.42", rec.RecProt.StringFixed(2))
	assert.Equal(t, "59.38", rec.RecFat.StringFixed(2))
	assert.Equal(t, now, rec.UpdatedAt)
}

func TestGetOrRefreshServesFreshRowUnchanged(t *testing.T) {
	store := memstore.New()
	now := t0.Add(time.Minute)
	svc := newService(store, &now)
	u := seedUser(t, store, "70")

	first, err := svc.GetOrRefresh(context.Background(), u.ID)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	second, err := svc.GetOrRefresh(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt)
	assert.True(t, first.RecKcal.Equal(second.RecKcal))
}

func TestGetOrRefreshRecomputesAfterProfileChange(t *testing.T) {
	store := memstore.New()
	now := t0.Add(time.Minute)
	svc := newService(store, &now)
	u := seedUser(t, store, "70")
	ctx := context.Background()

	before, err := svc.GetOrRefresh(ctx, u.ID)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	u.Weight = decimal.RequireFromString("80")
	u.UpdatedAt = now
	require.NoError(t, store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		return r.UpdateUser(ctx, u)
	}))

	after, err := svc.GetOrRefresh(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, after.RecKcal.GreaterThan(before.RecKcal))
	assert.False(t, after.UpdatedAt.Before(u.UpdatedAt))
}

func TestStampNeverPrecedesProfile(t *testing.T) {
	store := memstore.New()
	now := t0.Add(-time.Hour) // this writer's clock lags the one that updated the profile
	svc := newService(store, &now)
	u := seedUser(t, store, "70")

	rec, err := svc.GetOrRefresh(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, u.UpdatedAt, rec.UpdatedAt)
	assert.False(t, Stale(rec, u))
}

func TestGetOrRefreshInvalidMetrics(t *testing.T) {
	store := memstore.New()
	now := t0
	svc := newService(store, &now)
	u := seedUser(t, store, "0")

	_, err := svc.GetOrRefresh(context.Background(), u.ID)
	assert.True(t, qerr.IsCode(err, qerr.CodeInvalidInput), "got %v", err)
}

func TestGetOrRefreshUnknownUser(t *testing.T) {
	now := t0
	svc := newService(memstore.New(), &now)

	_, err := svc.GetOrRefresh(context.Background(), uuid.New())
	assert.True(t, qerr.IsCode(err, qerr.CodeUserNotFound))
}

func TestProfileStamp(t *testing.T) {
	cases := []struct {
		name       string
		now, prev  time.Time
		recUpdated time.Time
		want       time.Time
	}{
		{"clock ahead", t0.Add(time.Second), t0, t0, t0.Add(time.Second)},
		{"same instant as refresh", t0, t0.Add(-time.Hour), t0, t0.Add(time.Microsecond)},
		{"refresh stamped in the future", t0, t0, t0.Add(time.Hour), t0.Add(time.Hour + time.Microsecond)},
		{"sub-microsecond clock", t0.Add(1500 * time.Nanosecond), t0, t0, t0.Add(2 * time.Microsecond)},
		{"no recommendation yet", t0, t0.Add(-time.Hour), time.Time{}, t0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ProfileStamp(tc.now, tc.prev, tc.recUpdated)
			assert.Equal(t, tc.want, got)
			assert.True(t, Stale(&models.Recommendation{UpdatedAt: tc.recUpdated}, &models.User{UpdatedAt: got}))
		})
	}
}
