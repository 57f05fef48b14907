package qauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultAlgorithm  = "HS256"
)

// Config is the token codec's deployment configuration. It is built once at
// startup and passed explicitly; nothing here reads the environment.
type Config struct {
	Secret     []byte
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

var ErrInvalidSignature = errors.New("token signature invalid")

// Signer mints and verifies HMAC-signed user tokens.
type Signer struct {
	cfg    Config
	method *jwt.SigningMethodHMAC
}

func NewSigner(cfg Config) (*Signer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("signing secret is empty")
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = DefaultAlgorithm
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}

	var method *jwt.SigningMethodHMAC
	switch cfg.Algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}

	return &Signer{cfg: cfg, method: method}, nil
}

func (s *Signer) Config() Config { return s.cfg }

// TTL returns the lifetime configured for the token type.
func (s *Signer) TTL(typ TokenType) time.Duration {
	if typ == Refresh {
		return s.cfg.RefreshTTL
	}
	return s.cfg.AccessTTL
}

// Mint signs a token of the given type for a user, issued at now. Each token
// gets a fresh jti so two tokens minted in the same second still differ.
func (s *Signer) Mint(userID, email string, typ TokenType, now time.Time) (string, time.Time, error) {
	exp := now.Add(s.TTL(typ))
	uc := &UserClaims{
		UserID: userID,
		Email:  email,
		Type:   typ,
		ID:     uuid.NewString(),
		Iat:    now.Unix(),
		Exp:    exp.Unix(),
	}

	token, err := jwt.NewWithClaims(s.method, ToClaims(uc)).SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, exp, nil
}

// Verify checks the signature and algorithm of a token and returns its claims.
// Time-based claims are not validated here; the stored expiry timestamps are
// the authority on token lifetime.
func (s *Signer) Verify(tokenString string) (*UserClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidSignature
	}
	return FromMapClaims(claims)
}
