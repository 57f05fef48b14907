package authconfig

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quatton/qwell/pkg/kv"
	"github.com/quatton/qwell/pkg/qerr"
	"golang.org/x/oauth2"
)

const kvPrefixState = "auth:state:"

// KakaoEndpoint is Kakao's OAuth 2.0 endpoint. Kakao expects the client
// credentials in the form body.
var KakaoEndpoint = oauth2.Endpoint{
	AuthURL:   "https://kauth.kakao.com/oauth/authorize",
	TokenURL:  "https://kauth.kakao.com/oauth/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

var (
	ErrStateAlreadyUsed      = errors.New("state token already used")
	ErrRedirectNotAllowed    = errors.New("redirect URI not allowed")
	ErrProviderNotConfigured = errors.New("kakao oauth not configured")
)

// StateClaims is the short-lived JWT used as the OAuth state parameter. It
// carries where the client wants to land after the code exchange.
type StateClaims struct {
	Provider    string `json:"provider"`
	RedirectURI string `json:"redirect_uri"`
	StateID     string `json:"state_id"`
	jwt.RegisteredClaims
}

// KakaoEnabled reports whether the provider credentials are configured.
func (s *AuthService) KakaoEnabled() bool { return s.kakaoConfig != nil }

// SetKakaoConfig overrides the provider configuration, e.g. to point the
// token endpoint at a test server.
func (s *AuthService) SetKakaoConfig(cfg *oauth2.Config) { s.kakaoConfig = cfg }

// IsAllowedRedirect checks if the given URI is in the allowlist. An empty
// redirect is always allowed and means "no redirect".
func (s *AuthService) IsAllowedRedirect(uri string) bool {
	if uri == "" {
		return true
	}
	parsed, err := url.Parse(uri)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}
	origin := parsed.Scheme + "://" + parsed.Host
	for _, allowed := range s.allowedRedirects {
		if origin == strings.TrimRight(allowed, "/") || strings.HasPrefix(uri, allowed) {
			return true
		}
	}
	return false
}

// GenerateState signs a state token and records its id in KV so it can be
// consumed exactly once.
func (s *AuthService) GenerateState(ctx context.Context, redirectURI string) (string, error) {
	if !s.IsAllowedRedirect(redirectURI) {
		return "", qerr.New(qerr.CodeInvalidInput, ErrRedirectNotAllowed)
	}

	stateID, err := randomString(32)
	if err != nil {
		return "", err
	}

	now := s.now()
	claims := StateClaims{
		Provider:    "kakao",
		RedirectURI: redirectURI,
		StateID:     stateID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "qwell",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.stateTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signer.Config().Secret)
	if err != nil {
		return "", err
	}

	if err := s.kv.Set(ctx, kvPrefixState+stateID, []byte("1"), s.stateTTL); err != nil {
		return "", fmt.Errorf("failed to store state: %w", err)
	}
	return signed, nil
}

// ValidateState verifies a state token and consumes its KV marker.
func (s *AuthService) ValidateState(ctx context.Context, state string) (*StateClaims, error) {
	parsed, err := jwt.ParseWithClaims(state, &StateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signer.Config().Secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, qerr.New(qerr.CodeInvalidInput, fmt.Errorf("invalid state: %w", err))
	}

	claims, ok := parsed.Claims.(*StateClaims)
	if !ok || !parsed.Valid {
		return nil, qerr.Newf(qerr.CodeInvalidInput, "invalid state token")
	}

	if _, err := s.kv.GetDel(ctx, kvPrefixState+claims.StateID); err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, qerr.New(qerr.CodeInvalidInput, ErrStateAlreadyUsed)
		}
		return nil, fmt.Errorf("failed to validate state: %w", err)
	}
	return claims, nil
}

// AuthorizeURL returns the Kakao consent URL for a signed state.
func (s *AuthService) AuthorizeURL(state string) (string, error) {
	if s.kakaoConfig == nil {
		return "", qerr.New(qerr.CodeUpstream, ErrProviderNotConfigured)
	}
	return s.kakaoConfig.AuthCodeURL(state), nil
}

// ExchangeCode trades an authorization code for a Kakao access token.
func (s *AuthService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if s.kakaoConfig == nil {
		return nil, qerr.New(qerr.CodeUpstream, ErrProviderNotConfigured)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, qerr.Newf(qerr.CodeInvalidInput, "authorization code is missing")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tok, err := s.kakaoConfig.Exchange(ctx, code)
	if err != nil {
		s.logger.Warn("kakao code exchange failed", "error", err)
		return nil, qerr.New(qerr.CodeUpstream, err)
	}
	return tok, nil
}

func randomString(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf)[:length], nil
}
