// Package users handles account registration and profile edits.
package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/qapi/services/authconfig"
	"github.com/quatton/qwell/pkg/qapi/services/recommend"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qnutri"
	"github.com/shopspring/decimal"
)

type Registration struct {
	Email    string
	Nickname string
	Birthday time.Time
	Gender   qnutri.Gender
	Weight   decimal.Decimal
	Height   decimal.Decimal
}

// ProfilePatch carries the fields a user may change. Nil means unchanged.
type ProfilePatch struct {
	Nickname *string
	Birthday *time.Time
	Gender   *qnutri.Gender
	Weight   *decimal.Decimal
	Height   *decimal.Decimal
}

type Registered struct {
	User           *models.User
	Tokens         authconfig.TokenPair
	Recommendation *models.Recommendation
}

type Service struct {
	store     db.Store
	auth      *authconfig.AuthService
	recommend *recommend.Service
	logger    *qlog.Logger
	now       func() time.Time
}

func NewService(store db.Store, auth *authconfig.AuthService, rec *recommend.Service, logger *qlog.Logger) *Service {
	return &Service{store: store, auth: auth, recommend: rec, logger: logger, now: time.Now}
}

// SetClock replaces the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Register creates the account together with its recommendation, an empty
// aggregate for today and a first token pair. Either all of it commits or
// none of it does.
func (s *Service) Register(ctx context.Context, in Registration) (*Registered, error) {
	now := s.now()
	in.Email = models.NormalizeEmail(in.Email)
	in.Nickname = strings.TrimSpace(in.Nickname)

	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, qerr.Newf(qerr.CodeInvalidInput, "invalid email %q", in.Email)
	}
	if in.Nickname == "" {
		return nil, qerr.Newf(qerr.CodeInvalidInput, "nickname is required")
	}
	if in.Birthday.IsZero() {
		return nil, qerr.Newf(qerr.CodeInvalidInput, "birthday is required")
	}

	u := &models.User{
		Email:     in.Email,
		Nickname:  in.Nickname,
		Birthday:  in.Birthday,
		Age:       qnutri.AgeOn(in.Birthday, now),
		Gender:    in.Gender,
		Weight:    in.Weight,
		Height:    in.Height,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := validateMetrics(u); err != nil {
		return nil, err
	}

	out := &Registered{User: u}
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		if err := r.CreateUser(ctx, u); err != nil {
			if errors.Is(err, db.ErrDuplicate) {
				return qerr.Newf(qerr.CodeConflict, "email already registered")
			}
			return err
		}

		rec, err := s.recommend.RefreshIn(ctx, r, u)
		if err != nil {
			return err
		}
		out.Recommendation = rec

		if _, err := r.LockDailyTotal(ctx, u.ID, qnutri.Day(now)); err != nil {
			return err
		}

		a, err := s.auth.IssueIn(ctx, r, u)
		if err != nil {
			return err
		}
		out.Tokens = authconfig.TokenPair{
			AccessToken:      a.AccessToken,
			RefreshToken:     a.RefreshToken,
			TokenType:        authconfig.TokenType,
			AccessExpiresAt:  a.AccessExpiredAt,
			RefreshExpiresAt: a.RefreshExpiredAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auth.Record(u.ID, authconfig.OutcomeIssued)
	s.logger.Info("user registered", "user_id", u.ID)
	return out, nil
}

// Get returns a user by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u *models.User
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		var err error
		u, err = r.GetUser(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			return qerr.Newf(qerr.CodeUserNotFound, "user %s does not exist", id)
		}
		return err
	})
	return u, err
}

// UpdateProfile applies a patch and moves updated_at past the stored
// recommendation's stamp, which marks it stale. The recommendation row is
// locked so a concurrent refresh cannot stamp itself after the edit.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfilePatch) (*models.User, error) {
	var u *models.User
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		var err error
		u, err = r.GetUser(ctx, id)
		if errors.Is(err, db.ErrNotFound) {
			return qerr.Newf(qerr.CodeUserNotFound, "user %s does not exist", id)
		}
		if err != nil {
			return err
		}

		now := s.now()
		if p.Nickname != nil {
			nick := strings.TrimSpace(*p.Nickname)
			if nick == "" {
				return qerr.Newf(qerr.CodeInvalidInput, "nickname must not be empty")
			}
			u.Nickname = nick
		}
		if p.Birthday != nil {
			u.Birthday = *p.Birthday
		}
		if p.Gender != nil {
			u.Gender = *p.Gender
		}
		if p.Weight != nil {
			u.Weight = *p.Weight
		}
		if p.Height != nil {
			u.Height = *p.Height
		}
		u.Age = qnutri.AgeOn(u.Birthday, now)
		if err := validateMetrics(u); err != nil {
			return err
		}

		var recUpdated time.Time
		rec, err := r.LockRecommendation(ctx, id)
		switch {
		case err == nil:
			recUpdated = rec.UpdatedAt
		case !errors.Is(err, db.ErrNotFound):
			return err
		}
		u.UpdatedAt = recommend.ProfileStamp(now, u.UpdatedAt, recUpdated)
		return r.UpdateUser(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// metricLimit is the first value a numeric(6,2) column cannot hold.
var metricLimit = decimal.NewFromInt(10000)

// validateMetrics rounds weight and height to the stored precision before
// checking them, so the recommendation is computed from the values that
// will actually be persisted.
func validateMetrics(u *models.User) error {
	u.Weight = u.Weight.Round(2)
	u.Height = u.Height.Round(2)
	if !u.Weight.LessThan(metricLimit) {
		return qerr.Newf(qerr.CodeInvalidInput, "weight must be below %s", metricLimit)
	}
	if !u.Height.LessThan(metricLimit) {
		return qerr.Newf(qerr.CodeInvalidInput, "height must be below %s", metricLimit)
	}
	_, err := qnutri.Recommend(u.Metrics())
	return err
}
