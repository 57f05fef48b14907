// Package recommend keeps each user's daily nutrition target consistent with
// their body metrics. A stored target is recomputed lazily the first time it
// is read after the user's profile changed.
package recommend

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qnutri"
)

type Service struct {
	store  db.Store
	logger *qlog.Logger
	now    func() time.Time
}

func NewService(store db.Store, logger *qlog.Logger) *Service {
	return &Service{store: store, logger: logger, now: time.Now}
}

// SetClock replaces the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// GetOrRefresh returns the user's recommendation, recomputing it first if it
// is missing or older than the user's last profile change.
func (s *Service) GetOrRefresh(ctx context.Context, userID uuid.UUID) (*models.Recommendation, error) {
	var rec *models.Recommendation
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		u, err := r.GetUser(ctx, userID)
		if errors.Is(err, db.ErrNotFound) {
			return qerr.Newf(qerr.CodeUserNotFound, "user %s does not exist", userID)
		}
		if err != nil {
			return err
		}
		rec, err = s.RefreshIn(ctx, r, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// RefreshIn is GetOrRefresh inside a caller-owned unit of work, for a user
// the caller has already loaded.
func (s *Service) RefreshIn(ctx context.Context, r db.Repo, user *models.User) (*models.Recommendation, error) {
	rec, err := r.LockRecommendation(ctx, user.ID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		rec = &models.Recommendation{UserID: user.ID}
	case err != nil:
		return nil, err
	case !Stale(rec, user):
		return rec, nil
	}

	target, err := qnutri.Recommend(user.Metrics())
	if err != nil {
		return nil, err
	}
	rec.SetMacros(target)
	rec.UpdatedAt = stamp(s.now(), user.UpdatedAt)

	if err := r.SaveRecommendation(ctx, rec); err != nil {
		return nil, err
	}
	s.logger.Debug("recommendation refreshed", "user_id", user.ID, "kcal", target.Kcal.String())
	return rec, nil
}

// Stale reports whether rec predates the user's last profile change.
func Stale(rec *models.Recommendation, user *models.User) bool {
	return rec.UpdatedAt.Before(user.UpdatedAt)
}

// stamp keeps updated_at >= users.updated_at even when the clocks of the
// writers disagree.
func stamp(now, userUpdated time.Time) time.Time {
	if userUpdated.After(now) {
		now = userUpdated
	}
	return ceilMicro(now)
}

// ProfileStamp is the updated_at for a profile edit made at now. It lands
// strictly after both the previous edit and the stored recommendation, so
// the edit always makes that recommendation stale.
func ProfileStamp(now, prevProfile, recUpdated time.Time) time.Time {
	floor := prevProfile
	if recUpdated.After(floor) {
		floor = recUpdated
	}
	next := ceilMicro(now)
	if !next.After(floor) {
		next = ceilMicro(floor).Add(time.Microsecond)
	}
	return next
}

// ceilMicro rounds up to timestamptz precision so a stored stamp never moves
// backwards past the value it was compared against.
func ceilMicro(t time.Time) time.Time {
	if r := t.Truncate(time.Microsecond); r.Before(t) {
		return r.Add(time.Microsecond)
	}
	return t
}
