package qauth

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestFromTokenMatchesSignedClaims(t *testing.T) {
	uc := &UserClaims{
		UserID: "8a4c1f10-2f1e-4d0c-9f41-1c8a3b1c9a77",
		Email:  "alice@example.com",
		Type:   Access,
		ID:     "jti-1",
		Iat:    1000,
		Exp:    2000,
	}

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, ToClaims(uc)).SignedString(testSecret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	parsed, err := FromToken(tokenStr)
	if err != nil {
		t.Fatalf("FromToken error: %v", err)
	}

	if !reflect.DeepEqual(parsed, uc) {
		t.Fatalf("parsed claims mismatch\nexpected=%#v\nparsed=%#v", uc, parsed)
	}
}

func TestFromMapClaimsRequiresUserID(t *testing.T) {
	if _, err := FromMapClaims(jwt.MapClaims{"user_email": "x@example.com"}); err == nil {
		t.Fatal("expected error for missing user_id")
	}
}

func TestToClaimsOmitsEmpty(t *testing.T) {
	mc := ToClaims(&UserClaims{UserID: "1"})
	if _, ok := mc["user_email"]; ok {
		t.Fatalf("expected user_email to be omitted when empty")
	}
	if mc["user_id"] != "1" {
		t.Fatalf("expected user_id to be set, got %v", mc["user_id"])
	}
}

func TestSignerMintVerify(t *testing.T) {
	s, err := NewSigner(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	now := time.Unix(1_700_000_000, 0)
	tok, exp, err := s.Mint("u1", "u1@example.com", Refresh, now)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if !exp.Equal(now.Add(DefaultRefreshTTL)) {
		t.Fatalf("unexpected expiry %v", exp)
	}

	// Long expired by wall clock; signature verification must still succeed.
	uc, err := s.Verify(tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if uc.UserID != "u1" || uc.Type != Refresh || uc.Exp != exp.Unix() {
		t.Fatalf("unexpected claims %+v", uc)
	}
}

func TestSignerMintUniquePerCall(t *testing.T) {
	s, _ := NewSigner(Config{Secret: testSecret})
	now := time.Now()
	a, _, _ := s.Mint("u1", "", Access, now)
	b, _, _ := s.Mint("u1", "", Access, now)
	if a == b {
		t.Fatal("tokens minted in the same instant must differ")
	}
}

func TestSignerVerifyRejects(t *testing.T) {
	s, _ := NewSigner(Config{Secret: testSecret})
	tok, _, _ := s.Mint("u1", "", Access, time.Now())

	other, _ := NewSigner(Config{Secret: []byte(strings.Repeat("z", 32))})
	if _, err := other.Verify(tok); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for wrong key, got %v", err)
	}

	hs512, _ := NewSigner(Config{Secret: testSecret, Algorithm: "HS512"})
	if _, err := hs512.Verify(tok); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for algorithm mismatch, got %v", err)
	}

	if _, err := s.Verify(tok + "x"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for tampered token, got %v", err)
	}
}

func TestNewSignerRejectsUnknownAlgorithm(t *testing.T) {
	if _, err := NewSigner(Config{Secret: testSecret, Algorithm: "RS256"}); err == nil {
		t.Fatal("expected error for non-HMAC algorithm")
	}
}

func TestIsTokenExpired(t *testing.T) {
	s, _ := NewSigner(Config{Secret: testSecret, AccessTTL: time.Minute})
	tok, _, _ := s.Mint("u1", "", Access, time.Now().Add(-2*time.Minute))

	expired, err := IsTokenExpired(tok, 0)
	if err != nil || !expired {
		t.Fatalf("expected expired token, got expired=%v err=%v", expired, err)
	}

	expired, _ = IsTokenExpired("", 0)
	if !expired {
		t.Fatal("empty token must count as expired")
	}
}
