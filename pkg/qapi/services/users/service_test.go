package users

import (
	"context"
	"testing"
	"time"

	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/db/memstore"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/kv"
	"github.com/quatton/qwell/pkg/qapi/config"
	"github.com/quatton/qwell/pkg/qapi/services/authconfig"
	"github.com/quatton/qwell/pkg/qapi/services/recommend"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qmetrics"
	"github.com/quatton/qwell/pkg/qnutri"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	auth  *authconfig.AuthService
	rec   *recommend.Service
	store *memstore.Store
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memstore.New(), now: t0}
	clock := func() time.Time { return f.now }
	logger := qlog.NewDiscard()

	auth, err := authconfig.NewAuthService(&config.EnvConfig{
		AuthSecret:            "test-secret-0123456789abcdef0123",
		AuthAlgorithm:         "HS256",
		AccessTokenTTLMinutes: 30,
		RefreshTokenTTLDays:   7,
	}, f.store, kv.NewMemoryStore(), qmetrics.New(), logger)
	require.NoError(t, err)
	auth.SetClock(clock)

	f.rec = recommend.NewService(f.store, logger)
	f.rec.SetClock(clock)
	f.auth = auth
	f.svc = NewService(f.store, auth, f.rec, logger)
	f.svc.SetClock(clock)
	return f
}

func femaleRegistration() Registration {
	return Registration{
		Email:    "  Choi@Example.com ",
		Nickname: "choi",
		Birthday: time.Date(1994, 1, 10, 0, 0, 0, 0, time.UTC),
		Gender:   qnutri.Female,
		Weight:   decimal.RequireFromString("60"),
		Height:   decimal.RequireFromString("165"),
	}
}

func TestRegisterCreatesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Register(ctx, femaleRegistration())
	require.NoError(t, err)

	assert.Equal(t, "choi@example.com", out.User.Email)
	assert.Equal(t, 30, out.User.Age)
	assert.Equal(t, "2144.71", out.Recommendation.RecKcal.StringFixed(2))
	assert.Equal(t, "bearer", out.Tokens.TokenType)

	u, err := f.auth.Authenticate(ctx, out.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, u.ID)

	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		n, err := r.CountMeals(ctx, u.ID, t0)
		assert.Zero(t, n)
		return err
	}))

	res, err := f.auth.Login(ctx, "choi@example.com")
	require.NoError(t, err)
	assert.Equal(t, authconfig.OutcomeExisting, res.Outcome)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, femaleRegistration())
	require.NoError(t, err)

	again := femaleRegistration()
	again.Email = "choi@example.com"
	_, err = f.svc.Register(ctx, again)
	assert.True(t, qerr.IsCode(err, qerr.CodeConflict), "got %v", err)
}

func TestRegisterValidation(t *testing.T) {
	cases := map[string]func(*Registration){
		"bad email":       func(r *Registration) { r.Email = "not-an-email" },
		"empty nickname":  func(r *Registration) { r.Nickname = " " },
		"zero weight":     func(r *Registration) { r.Weight = decimal.Zero },
		"negative height": func(r *Registration) { r.Height = decimal.RequireFromString("-1") },
		"no gender":       func(r *Registration) { r.Gender = "" },
		"no birthday":     func(r *Registration) { r.Birthday = time.Time{} },
		"weight overflow": func(r *Registration) { r.Weight = decimal.RequireFromString("10000") },
		"rounds to limit": func(r *Registration) { r.Height = decimal.RequireFromString("9999.995") },
		"rounds to zero":  func(r *Registration) { r.Weight = decimal.RequireFromString("0.004") },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			in := femaleRegistration()
			mutate(&in)

			_, err := f.svc.Register(context.Background(), in)
			assert.True(t, qerr.IsCode(err, qerr.CodeInvalidInput), "got %v", err)
		})
	}
}

func TestRegisterRoundsMetricsBeforeRecommending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := femaleRegistration()
	in.Weight = decimal.RequireFromString("60.005")
	out, err := f.svc.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "60.01", out.User.Weight.StringFixed(2))

	want, err := qnutri.Recommend(out.User.Metrics())
	require.NoError(t, err)
	assert.True(t, want.Kcal.Equal(out.Recommendation.RecKcal), "want %s got %s", want.Kcal, out.Recommendation.RecKcal)

	stored, err := f.svc.Get(ctx, out.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.Weight.Equal(out.User.Weight))
}

func TestUpdateProfileRejectsOverflowingMetrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Register(ctx, femaleRegistration())
	require.NoError(t, err)

	huge := decimal.RequireFromString("12345.6")
	_, err = f.svc.UpdateProfile(ctx, out.User.ID, ProfilePatch{Weight: &huge})
	assert.True(t, qerr.IsCode(err, qerr.CodeInvalidInput), "got %v", err)
}

func TestUpdateProfileInvalidatesRecommendation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Register(ctx, femaleRegistration())
	require.NoError(t, err)

	// Same instant as registration: updated_at must still move.
	weight := decimal.RequireFromString("55")
	u, err := f.svc.UpdateProfile(ctx, out.User.ID, ProfilePatch{Weight: &weight})
	require.NoError(t, err)
	assert.True(t, u.UpdatedAt.After(out.User.UpdatedAt))

	var stored *models.Recommendation
	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		var err error
		stored, err = r.LockRecommendation(ctx, u.ID)
		return err
	}))
	assert.True(t, recommend.Stale(stored, u))

	rec, err := f.rec.GetOrRefresh(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, rec.RecKcal.LessThan(out.Recommendation.RecKcal))
}

func TestUpdateProfileAfterRefreshAtSameInstant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Register(ctx, femaleRegistration())
	require.NoError(t, err)

	f.now = t0.Add(5 * time.Second)
	height := decimal.RequireFromString("170")
	_, err = f.svc.UpdateProfile(ctx, out.User.ID, ProfilePatch{Height: &height})
	require.NoError(t, err)

	f.now = t0.Add(10 * time.Second)
	before, err := f.rec.GetOrRefresh(ctx, out.User.ID)
	require.NoError(t, err)

	// The edit reads the same clock value the refresh was stamped with.
	weight := decimal.RequireFromString("90")
	u, err := f.svc.UpdateProfile(ctx, out.User.ID, ProfilePatch{Weight: &weight})
	require.NoError(t, err)
	assert.True(t, u.UpdatedAt.After(before.UpdatedAt))

	after, err := f.rec.GetOrRefresh(ctx, out.User.ID)
	require.NoError(t, err)
	assert.True(t, after.RecKcal.GreaterThan(before.RecKcal), "before=%s after=%s", before.RecKcal, after.RecKcal)
}

func TestUpdateProfileWhenRefreshClockRanAhead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Register(ctx, femaleRegistration())
	require.NoError(t, err)

	f.now = t0.Add(time.Minute)
	before, err := f.rec.GetOrRefresh(ctx, out.User.ID)
	require.NoError(t, err)
	require.NoError(t, f.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		before.UpdatedAt = t0.Add(time.Hour)
		return r.SaveRecommendation(ctx, before)
	}))

	weight := decimal.RequireFromString("90")
	u, err := f.svc.UpdateProfile(ctx, out.User.ID, ProfilePatch{Weight: &weight})
	require.NoError(t, err)
	assert.True(t, u.UpdatedAt.After(t0.Add(time.Hour)))

	after, err := f.rec.GetOrRefresh(ctx, out.User.ID)
	require.NoError(t, err)
	assert.True(t, after.RecKcal.GreaterThan(before.RecKcal))
}

func TestUpdateProfileRejectsInvalidMetrics(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.Register(ctx, femaleRegistration())
	require.NoError(t, err)

	zero := decimal.Zero
	_, err = f.svc.UpdateProfile(ctx, out.User.ID, ProfilePatch{Height: &zero})
	assert.True(t, qerr.IsCode(err, qerr.CodeInvalidInput))

	u, err := f.svc.Get(ctx, out.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "165", u.Height.String())
}
