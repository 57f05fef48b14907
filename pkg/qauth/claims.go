package qauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes access tokens from refresh tokens. It is carried in
// the `typ` claim so one kind can never stand in for the other.
type TokenType string

const (
	Access  TokenType = "access"
	Refresh TokenType = "refresh"
)

// UserClaims represents a minimal view of the JWT payload.
// Important: values parsed without verification are for display and UX only.
// Do not use them for security decisions unless the token has been
// cryptographically verified by a trusted key.
type UserClaims struct {
	UserID string
	Email  string
	Type   TokenType
	ID     string
	Iat    int64
	Exp    int64
}

// ParseTokenClaims extracts raw claims from a JWT without verifying its
// signature. The returned MapClaims will contain numeric timestamps as
// float64 per the jwt library behavior.
// WARNING: do not rely on this for authorization.
func ParseTokenClaims(tokenStr string) (jwt.MapClaims, error) {
	var claims jwt.MapClaims
	parser := new(jwt.Parser)
	_, _, err := parser.ParseUnverified(tokenStr, &claims)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func FromToken(tokenStr string) (*UserClaims, error) {
	claims, err := ParseTokenClaims(tokenStr)
	if err != nil {
		return nil, err
	}
	return FromMapClaims(claims)
}

// FromMapClaims maps token claims into a stable UserClaims structure. It
// tolerates both numeric and string forms of `iat` and `exp`.
func FromMapClaims(mc jwt.MapClaims) (*UserClaims, error) {
	uc := &UserClaims{}

	if id, ok := mc["user_id"]; ok {
		switch v := id.(type) {
		case string:
			uc.UserID = v
		default:
			uc.UserID = fmt.Sprintf("%v", v)
		}
	}
	if email, ok := mc["user_email"].(string); ok {
		uc.Email = email
	}
	if typ, ok := mc["typ"].(string); ok {
		uc.Type = TokenType(typ)
	}
	if jti, ok := mc["jti"].(string); ok {
		uc.ID = jti
	}

	uc.Iat = unixClaim(mc["iat"])
	uc.Exp = unixClaim(mc["exp"])

	if uc.UserID == "" {
		return nil, fmt.Errorf("token has no user_id claim")
	}
	return uc, nil
}

func unixClaim(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		var out int64
		if _, err := fmt.Sscan(n, &out); err == nil {
			return out
		}
	}
	return 0
}

// ToClaims converts a UserClaims into jwt.MapClaims suitable for signing.
// Numeric timestamp fields must be set by the caller in unix seconds.
func ToClaims(uc *UserClaims) jwt.MapClaims {
	mc := jwt.MapClaims{}
	if uc.UserID != "" {
		mc["user_id"] = uc.UserID
	}
	if uc.Email != "" {
		mc["user_email"] = uc.Email
	}
	if uc.Type != "" {
		mc["typ"] = string(uc.Type)
	}
	if uc.ID != "" {
		mc["jti"] = uc.ID
	}
	if uc.Iat != 0 {
		mc["iat"] = uc.Iat
	}
	if uc.Exp != 0 {
		mc["exp"] = uc.Exp
	}
	return mc
}

// IsTokenExpired returns true when the token's exp claim has passed or falls
// within the provided skew window. It parses without verifying the signature,
// which is sufficient for local UX decisions.
func IsTokenExpired(token string, skew time.Duration) (bool, error) {
	if token == "" {
		return true, nil
	}
	uc, err := FromToken(token)
	if err != nil {
		return true, err
	}
	if uc.Exp == 0 {
		return false, nil
	}
	expiresAt := time.Unix(uc.Exp, 0).Add(-skew)
	return time.Now().After(expiresAt), nil
}
