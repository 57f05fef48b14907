package iam

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwell/pkg/db/models"
	"github.com/quatton/qwell/pkg/qerr"
	"github.com/quatton/qwell/pkg/qlog"
)

// Authenticator resolves a bearer access token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type IAMService struct {
	auth   Authenticator
	logger *qlog.Logger
}

func NewIAMService(auth Authenticator, logger *qlog.Logger) *IAMService {
	return &IAMService{auth: auth, logger: logger}
}

// Middleware authenticates every operation that declares a security
// requirement. Unsecured operations pass through untouched, and a rejected
// token never reaches the handler.
func (s *IAMService) Middleware(api huma.API) func(ctx huma.Context, next func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		if op := ctx.Operation(); op == nil || len(op.Security) == 0 {
			next(ctx)
			return
		}

		token, ok := bearerToken(ctx.Header("Authorization"))
		if !ok {
			s.unauthorized(api, ctx, "missing bearer token")
			return
		}

		user, err := s.auth.Authenticate(ctx.Context(), token)
		if err != nil {
			s.reject(api, ctx, err)
			return
		}

		s.logger.Debug("authenticated user", "user_id", user.ID)
		next(huma.WithValue(ctx, principalKey, user))
	}
}

func (s *IAMService) reject(api huma.API, ctx huma.Context, err error) {
	switch qerr.CodeOf(err) {
	case qerr.CodeInvalidToken:
		s.unauthorized(api, ctx, "invalid access token")
	case qerr.CodeTokenExpired:
		s.unauthorized(api, ctx, "access token expired, log in again")
	case qerr.CodeUserNotFound:
		s.logger.Error("account integrity fault", "error", err)
		_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "account integrity fault")
	case qerr.CodeStoreUnavailable:
		s.logger.Error("store unavailable during authentication", "error", err)
		_ = huma.WriteErr(api, ctx, http.StatusServiceUnavailable, "service temporarily unavailable")
	default:
		s.logger.Error("authentication failed", "error", err)
		_ = huma.WriteErr(api, ctx, http.StatusInternalServerError, "authentication failed")
	}
}

func (s *IAMService) unauthorized(api huma.API, ctx huma.Context, msg string) {
	ctx.SetHeader("WWW-Authenticate", `Bearer realm="qwell"`)
	_ = huma.WriteErr(api, ctx, http.StatusUnauthorized, msg)
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
