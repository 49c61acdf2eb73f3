// Package auth issues access tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Issuer is the iss claim on every token.
const Issuer = "user_server_go"

// ErrInvalidToken is returned by Parse for tokens that fail verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// Claims carried by an access token. The subject is the username, which is
// unique and known before the user row is inserted.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer signs HS256 access tokens. The issued string is what the user
// table stores; the table's expiry column stays authoritative.
type TokenIssuer struct {
	key []byte
	now func() time.Time
}

// NewTokenIssuer returns an issuer keyed by secret.
func NewTokenIssuer(secret string) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("auth: token secret must not be empty")
	}
	return &TokenIssuer{key: []byte(secret), now: time.Now}, nil
}

// Issue creates a token for username that expires at expiresAt.
func (i *TokenIssuer) Issue(username string, expiresAt time.Time) (string, error) {
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   username,
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(i.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}
	return s, nil
}

// Parse verifies the signature and expiry of s and returns its claims.
func (i *TokenIssuer) Parse(s string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(s, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
