package iam

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/quatton/qwell/pkg/db/models"
)

type ctxKey string

const principalKey ctxKey = "qwell.principal"

// Principal returns the authenticated user stored by the middleware.
func Principal(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(principalKey).(*models.User)
	return u, ok && u != nil
}

// Require is Principal for handlers of secured operations. A missing
// principal means the operation was registered without a security
// requirement, so it is reported as 401 rather than served anonymously.
func Require(ctx context.Context) (*models.User, error) {
	if u, ok := Principal(ctx); ok {
		return u, nil
	}
	return nil, huma.Error401Unauthorized("authentication required")
}

// WithPrincipal stores u the way the middleware does.
func WithPrincipal(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, principalKey, u)
}
