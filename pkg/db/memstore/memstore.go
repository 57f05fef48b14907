// Package memstore is an in-process db.Store. Units of work are serialized
// and operate on a private copy that replaces the live state only on commit.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/qerr"
)

type dayKey struct {
	user uuid.UUID
	day  string
}

type state struct {
	users   map[uuid.UUID]models.User
	auth    map[uuid.UUID]models.Auth
	recs    map[uuid.UUID]models.Recommendation
	totals  map[dayKey]models.DailyTotal
	meals   []models.History
	foods   map[int]models.Food
	totalID int64
	mealID  int64
}

func newState() *state {
	return &state{
		users:  map[uuid.UUID]models.User{},
		auth:   map[uuid.UUID]models.Auth{},
		recs:   map[uuid.UUID]models.Recommendation{},
		totals: map[dayKey]models.DailyTotal{},
		foods:  map[int]models.Food{},
	}
}

func (s *state) clone() *state {
	c := &state{
		users:   make(map[uuid.UUID]models.User, len(s.users)),
		auth:    make(map[uuid.UUID]models.Auth, len(s.auth)),
		recs:    make(map[uuid.UUID]models.Recommendation, len(s.recs)),
		totals:  make(map[dayKey]models.DailyTotal, len(s.totals)),
		meals:   append([]models.History(nil), s.meals...),
		foods:   make(map[int]models.Food, len(s.foods)),
		totalID: s.totalID,
		mealID:  s.mealID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.auth {
		c.auth[k] = v
	}
	for k, v := range s.recs {
		c.recs[k] = v
	}
	for k, v := range s.totals {
		v.HistoryIDs = append([]int64(nil), v.HistoryIDs...)
		c.totals[k] = v
	}
	for k, v := range s.foods {
		c.foods[k] = v
	}
	return c
}

// Store is safe for concurrent use. A unit of work must not open another.
type Store struct {
	mu      sync.Mutex
	st      *state
	failErr error
}

func New() *Store {
	return &Store{st: newState()}
}

// FailWith makes every following unit of work fail as if the database were
// down. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, r db.Repo) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failErr != nil {
		return qerr.New(qerr.CodeStoreUnavailable, s.failErr)
	}
	if err := ctx.Err(); err != nil {
		return qerr.New(qerr.CodeStoreUnavailable, err)
	}

	work := s.st.clone()
	if err := fn(ctx, &repo{st: work}); err != nil {
		return db.Classify(err)
	}
	s.st = work
	return nil
}

type repo struct {
	st *state
}

func (r *repo) CreateUser(_ context.Context, u *models.User) error {
	for _, other := range r.st.users {
		if other.Email == u.Email {
			return fmt.Errorf("%w: users_email_key", db.ErrDuplicate)
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = now
	}
	r.st.users[u.ID] = *u
	return nil
}

func (r *repo) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := r.st.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &u, nil
}

func (r *repo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.st.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *repo) UpdateUser(_ context.Context, u *models.User) error {
	if _, ok := r.st.users[u.ID]; !ok {
		return db.ErrNotFound
	}
	r.st.users[u.ID] = *u
	return nil
}

// DeleteUser removes a user row but leaves its tokens behind. It exists to
// reproduce integrity faults in tests.
func (s *Store) DeleteUser(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.users, id)
}

func (r *repo) GetAuthByAccessToken(_ context.Context, token string) (*models.Auth, error) {
	for _, a := range r.st.auth {
		if a.AccessToken == token {
			return &a, nil
		}
	}
	return nil, db.ErrNotFound
}

func (r *repo) LockAuth(_ context.Context, userID uuid.UUID) (*models.Auth, error) {
	a, ok := r.st.auth[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &a, nil
}

func (r *repo) SaveAuth(_ context.Context, a *models.Auth) error {
	for id, other := range r.st.auth {
		if id != a.UserID && other.AccessToken == a.AccessToken {
			return fmt.Errorf("%w: auth_access_token_key", db.ErrDuplicate)
		}
	}
	r.st.auth[a.UserID] = *a
	return nil
}

func (r *repo) LockRecommendation(_ context.Context, userID uuid.UUID) (*models.Recommendation, error) {
	rec, ok := r.st.recs[userID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &rec, nil
}

func (r *repo) SaveRecommendation(_ context.Context, rec *models.Recommendation) error {
	r.st.recs[rec.UserID] = *rec
	return nil
}

func (r *repo) LockDailyTotal(_ context.Context, userID uuid.UUID, day time.Time) (*models.DailyTotal, error) {
	k := dayKey{user: userID, day: db.DayKey(day)}
	d, ok := r.st.totals[k]
	if !ok {
		r.st.totalID++
		now := time.Now()
		d = models.DailyTotal{
			ID:         r.st.totalID,
			UserID:     userID,
			Today:      day,
			HistoryIDs: []int64{},
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		r.st.totals[k] = d
	}
	d.HistoryIDs = append([]int64(nil), d.HistoryIDs...)
	return &d, nil
}

func (r *repo) SaveDailyTotal(_ context.Context, d *models.DailyTotal) error {
	k := dayKey{user: d.UserID, day: db.DayKey(d.Today)}
	if _, ok := r.st.totals[k]; !ok {
		return db.ErrNotFound
	}
	d.HistoryIDs = append([]int64(nil), d.HistoryIDs...)
	r.st.totals[k] = *d
	return nil
}

func (r *repo) CountMeals(_ context.Context, userID uuid.UUID, day time.Time) (int, error) {
	n := 0
	key := db.DayKey(day)
	for _, m := range r.st.meals {
		if m.UserID == userID && db.DayKey(m.Date) == key {
			n++
		}
	}
	return n, nil
}

func (r *repo) CreateMeal(_ context.Context, h *models.History) error {
	if _, ok := r.st.foods[h.CategoryID]; !ok {
		return fmt.Errorf("insert history: unknown category %d", h.CategoryID)
	}
	r.st.mealID++
	h.ID = r.st.mealID
	h.CreatedAt = time.Now()
	row := *h
	row.Food = nil
	r.st.meals = append(r.st.meals, row)
	return nil
}

func (r *repo) ListMeals(_ context.Context, userID uuid.UUID, day time.Time) ([]models.History, error) {
	key := db.DayKey(day)
	var out []models.History
	for _, m := range r.st.meals {
		if m.UserID != userID || db.DayKey(m.Date) != key {
			continue
		}
		if f, ok := r.st.foods[m.CategoryID]; ok {
			m.Food = &f
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *repo) GetFood(_ context.Context, categoryID int) (*models.Food, error) {
	f, ok := r.st.foods[categoryID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &f, nil
}

func (r *repo) UpsertFoods(_ context.Context, foods []models.Food) error {
	for _, f := range foods {
		r.st.foods[f.CategoryID] = f
	}
	return nil
}

var _ db.Store = (*Store)(nil)
