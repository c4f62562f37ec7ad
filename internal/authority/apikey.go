// ABOUTME: Anon API keys for keepsake-authority clients
// ABOUTME: HS256 JWTs carrying a role claim, checked on every request

package authority

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Key errors
var (
	ErrInvalidKey   = errors.New("invalid api key")
	ErrExpiredKey   = errors.New("api key expired")
	ErrMissingClaim = errors.New("missing required claim")
)

// RoleAnon is the role of the public key shipped with the console and storefront.
const RoleAnon = "anon"

const keyIssuer = "keepsake"

// KeyIssuer signs and verifies API keys with a shared secret
type KeyIssuer struct {
	secret []byte
}

// NewKeyIssuer creates a key issuer with the given secret
func NewKeyIssuer(secret []byte) *KeyIssuer {
	return &KeyIssuer{secret: secret}
}

// Verify validates the key and returns its "role" claim
func (k *KeyIssuer) Verify(key string) (role string, err error) {
	token, err := jwt.Parse(key, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return k.secret, nil
	}, jwt.WithIssuer(keyIssuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredKey
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidKey
	}

	role, ok = claims["role"].(string)
	if !ok || role == "" {
		return "", fmt.Errorf("%w: role", ErrMissingClaim)
	}
	return role, nil
}

// Issue creates a key for role. A zero expiresIn issues a key without expiry,
// which is how public anon keys are usually distributed.
func (k *KeyIssuer) Issue(role string, expiresIn time.Duration) (string, error) {
	if role == "" {
		return "", fmt.Errorf("%w: role", ErrMissingClaim)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss":  keyIssuer,
		"role": role,
		"iat":  now.Unix(),
	}
	if expiresIn > 0 {
		claims["exp"] = now.Add(expiresIn).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(k.secret)
}
