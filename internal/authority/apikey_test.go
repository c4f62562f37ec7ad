// ABOUTME: Tests for anon key issuing and verification
// ABOUTME: Covers role claim, expiry, issuer and signing-method checks

package authority

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-key-at-least-32-bytes!!")

func TestKeyIssuer_RoundTrip(t *testing.T) {
	k := NewKeyIssuer(testSecret)

	key, err := k.Issue(RoleAnon, 0)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	role, err := k.Verify(key)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if role != RoleAnon {
		t.Errorf("expected role %q, got %q", RoleAnon, role)
	}
}

func TestKeyIssuer_Expired(t *testing.T) {
	k := NewKeyIssuer(testSecret)
	claims := jwt.MapClaims{
		"iss":  keyIssuer,
		"role": RoleAnon,
		"iat":  time.Now().Add(-2 * time.Hour).Unix(),
		"exp":  time.Now().Add(-time.Hour).Unix(),
	}
	key, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := k.Verify(key); !errors.Is(err, ErrExpiredKey) {
		t.Errorf("expected ErrExpiredKey, got %v", err)
	}
}

func TestKeyIssuer_WrongSecret(t *testing.T) {
	key, err := NewKeyIssuer([]byte("another-secret-another-secret-!!")).Issue(RoleAnon, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	if _, err := NewKeyIssuer(testSecret).Verify(key); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestKeyIssuer_MissingRole(t *testing.T) {
	claims := jwt.MapClaims{"iss": keyIssuer, "iat": time.Now().Unix()}
	key, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := NewKeyIssuer(testSecret).Verify(key); !errors.Is(err, ErrMissingClaim) {
		t.Errorf("expected ErrMissingClaim, got %v", err)
	}
}

func TestKeyIssuer_WrongIssuer(t *testing.T) {
	claims := jwt.MapClaims{"iss": "supabase", "role": RoleAnon}
	key, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing: %v", err)
	}

	if _, err := NewKeyIssuer(testSecret).Verify(key); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
}

func TestKeyIssuer_Garbage(t *testing.T) {
	if _, err := NewKeyIssuer(testSecret).Verify("not.a.jwt"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := NewKeyIssuer(testSecret).Issue("", 0); !errors.Is(err, ErrMissingClaim) {
		t.Errorf("expected ErrMissingClaim for empty role, got %v", err)
	}
}
