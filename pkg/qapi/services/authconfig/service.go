package authconfig

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwell/pkg/db"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/kv"
	"github.com/quatton/qwell/pkg/qapi/config"
	"github.com/quatton/qwell/pkg/qauth"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
	"github.com/quatton/qwell/pkg/qmetrics"
	"golang.org/x/oauth2"
)

// TokenType is the scheme name returned alongside every token pair.
const TokenType = "bearer"

// State is where a user sits in the token lifecycle.
type State string

const (
	StateNoAuth                    State = "no_auth"
	StateAccessValid               State = "access_valid"
	StateAccessExpiredRefreshValid State = "access_expired_refresh_valid"
	StateBothExpired               State = "both_expired"
)

// StateOf classifies a stored pair at now using the stored expiry timestamps.
func StateOf(a *models.Auth, now time.Time) State {
	switch {
	case a == nil:
		return StateNoAuth
	case a.AccessValid(now):
		return StateAccessValid
	case a.RefreshValid(now):
		return StateAccessExpiredRefreshValid
	default:
		return StateBothExpired
	}
}

// Outcome reports what a renewal did.
type Outcome string

const (
	OutcomeIssued        Outcome = "issued"
	OutcomeExisting      Outcome = "existing"
	OutcomeAccessRenewed Outcome = "access_renewed"
	OutcomePairReissued  Outcome = "pair_reissued"
)

func (o Outcome) Message() string {
	switch o {
	case OutcomeExisting:
		return "Existing token provided."
	case OutcomeAccessRenewed:
		return "Access token renewed."
	case OutcomePairReissued:
		return "New access and refresh tokens issued."
	default:
		return "Tokens issued."
	}
}

// TokenPair is the client-facing view of a user's live tokens.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	TokenType        string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

func pairOf(a *models.Auth) TokenPair {
	return TokenPair{
		AccessToken:      a.AccessToken,
		RefreshToken:     a.RefreshToken,
		TokenType:        TokenType,
		AccessExpiresAt:  a.AccessExpiredAt,
		RefreshExpiresAt: a.RefreshExpiredAt,
	}
}

// AuthService owns the access/refresh token lifecycle and the Kakao OAuth
// code flow. Token renewal happens only through Login/Renew; Authenticate
// never renews.
type AuthService struct {
	signer  *qauth.Signer
	store   db.Store
	kv      kv.Store
	metrics *qmetrics.Metrics
	logger  *qlog.Logger
	now     func() time.Time

	kakaoConfig      *oauth2.Config
	stateTTL         time.Duration
	allowedRedirects []string
}

// NewAuthService builds the service from the environment. Kakao login is
// enabled only when KAKAO_CLIENT_ID is set.
func NewAuthService(cfg *config.EnvConfig, store db.Store, kvStore kv.Store, m *qmetrics.Metrics, logger *qlog.Logger) (*AuthService, error) {
	signer, err := qauth.NewSigner(cfg.TokenConfig())
	if err != nil {
		return nil, err
	}

	svc := &AuthService{
		signer:           signer,
		store:            store,
		kv:               kvStore,
		metrics:          m,
		logger:           logger,
		now:              time.Now,
		stateTTL:         10 * time.Minute,
		allowedRedirects: cfg.Redirects(),
	}

	if cfg.KakaoClientID != "" {
		svc.kakaoConfig = &oauth2.Config{
			ClientID:     cfg.KakaoClientID,
			ClientSecret: cfg.KakaoClientSecret,
			Endpoint:     KakaoEndpoint,
			RedirectURL:  cfg.KakaoRedirectURL,
		}
	} else {
		logger.Info("kakao oauth not configured", "hint", "set KAKAO_CLIENT_ID and KAKAO_REDIRECT_URL to enable")
	}

	return svc, nil
}

// SetClock replaces the time source. Tests only.
func (s *AuthService) SetClock(now func() time.Time) { s.now = now }

func (s *AuthService) Signer() *qauth.Signer { return s.signer }

// Issue mints a fresh pair for user and overwrites any stored pair.
func (s *AuthService) Issue(ctx context.Context, user *models.User) (TokenPair, error) {
	var pair TokenPair
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		a, err := s.IssueIn(ctx, r, user)
		if err != nil {
			return err
		}
		pair = pairOf(a)
		return nil
	})
	if err != nil {
		return TokenPair{}, err
	}
	s.Record(user.ID, OutcomeIssued)
	return pair, nil
}

// IssueIn is Issue inside a caller-owned unit of work.
func (s *AuthService) IssueIn(ctx context.Context, r db.Repo, user *models.User) (*models.Auth, error) {
	now := s.now()
	access, accessExp, err := s.signer.Mint(user.ID.String(), user.Email, qauth.Access, now)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.signer.Mint(user.ID.String(), user.Email, qauth.Refresh, now)
	if err != nil {
		return nil, err
	}

	a := &models.Auth{
		UserID:           user.ID,
		AccessToken:      access,
		AccessCreatedAt:  now,
		AccessExpiredAt:  accessExp,
		RefreshToken:     refresh,
		RefreshCreatedAt: now,
		RefreshExpiredAt: refreshExp,
	}
	if err := r.SaveAuth(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Authenticate resolves a bearer access token to its user. It never renews:
// an expired access token is rejected even when the refresh token is valid.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, qerr.Newf(qerr.CodeInvalidToken, "missing bearer token")
	}

	var user *models.User
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		a, err := r.GetAuthByAccessToken(ctx, token)
		if errors.Is(err, db.ErrNotFound) {
			return qerr.Newf(qerr.CodeInvalidToken, "unknown access token")
		}
		if err != nil {
			return err
		}

		if !a.AccessValid(s.now()) {
			return qerr.Newf(qerr.CodeTokenExpired, "access token expired at %s", a.AccessExpiredAt.UTC().Format(time.RFC3339))
		}

		claims, err := s.signer.Verify(token)
		if err != nil {
			return qerr.New(qerr.CodeInvalidToken, err)
		}
		if claims.Type != qauth.Access || claims.UserID != a.UserID.String() {
			return qerr.Newf(qerr.CodeInvalidToken, "token claims do not match stored pair")
		}

		u, err := r.GetUser(ctx, a.UserID)
		if errors.Is(err, db.ErrNotFound) {
			return qerr.Newf(qerr.CodeUserNotFound, "user %s owns a live token but does not exist", a.UserID)
		}
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		s.metrics.AuthFailures.WithLabelValues(string(qerr.CodeOf(err))).Inc()
		return nil, err
	}
	return user, nil
}

// Renew runs the login-time transition for user under a row lock on the
// stored pair.
func (s *AuthService) Renew(ctx context.Context, user *models.User) (TokenPair, Outcome, error) {
	var (
		pair    TokenPair
		outcome Outcome
	)
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		var err error
		pair, outcome, err = s.renewIn(ctx, r, user)
		return err
	})
	if err != nil {
		return TokenPair{}, "", err
	}
	s.Record(user.ID, outcome)
	return pair, outcome, nil
}

// LoginResult is what a successful login hands back.
type LoginResult struct {
	User    *models.User
	Tokens  TokenPair
	Outcome Outcome
}

// Login looks the user up by email and renews their tokens in one unit of work.
func (s *AuthService) Login(ctx context.Context, email string) (*LoginResult, error) {
	res := &LoginResult{}
	err := s.store.InTx(ctx, func(ctx context.Context, r db.Repo) error {
		u, err := r.GetUserByEmail(ctx, models.NormalizeEmail(email))
		if errors.Is(err, db.ErrNotFound) {
			return qerr.Newf(qerr.CodeNotFound, "user not found")
		}
		if err != nil {
			return err
		}
		res.User = u
		res.Tokens, res.Outcome, err = s.renewIn(ctx, r, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.Record(res.User.ID, res.Outcome)
	return res, nil
}

func (s *AuthService) renewIn(ctx context.Context, r db.Repo, user *models.User) (TokenPair, Outcome, error) {
	a, err := r.LockAuth(ctx, user.ID)
	if errors.Is(err, db.ErrNotFound) {
		a, err = s.IssueIn(ctx, r, user)
		if err != nil {
			return TokenPair{}, "", err
		}
		return pairOf(a), OutcomeIssued, nil
	}
	if err != nil {
		return TokenPair{}, "", err
	}

	now := s.now()
	switch StateOf(a, now) {
	case StateAccessValid:
		return pairOf(a), OutcomeExisting, nil

	case StateAccessExpiredRefreshValid:
		if s.refreshVerifies(a) {
			access, exp, err := s.signer.Mint(user.ID.String(), user.Email, qauth.Access, now)
			if err != nil {
				return TokenPair{}, "", err
			}
			a.AccessToken = access
			a.AccessCreatedAt = now
			a.AccessExpiredAt = exp
			if err := r.SaveAuth(ctx, a); err != nil {
				return TokenPair{}, "", err
			}
			return pairOf(a), OutcomeAccessRenewed, nil
		}
		s.logger.Warn("stored refresh token failed verification", "user_id", user.ID)
	}

	a, err = s.IssueIn(ctx, r, user)
	if err != nil {
		return TokenPair{}, "", err
	}
	return pairOf(a), OutcomePairReissued, nil
}

func (s *AuthService) refreshVerifies(a *models.Auth) bool {
	claims, err := s.signer.Verify(a.RefreshToken)
	if err != nil {
		return false
	}
	return claims.Type == qauth.Refresh && claims.UserID == a.UserID.String()
}

// Record counts a lifecycle transition that committed.
func (s *AuthService) Record(userID uuid.UUID, outcome Outcome) {
	s.metrics.TokenRenewals.WithLabelValues(string(outcome)).Inc()
	s.logger.Debug("token lifecycle", "user_id", userID, "outcome", string(outcome))
}
