package models

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token wraps a server-issued JWT with convenience accessors.
//
// It embeds [jwt.Token] for low-level inspection and [jwt.RegisteredClaims]
// for standard claim access (subject, expiry, etc.). The client never holds
// the signing key, so claims are read but not verified.
type Token struct {
	// Token is the underlying parsed JWT.
	*jwt.Token `json:"-"`

	// RegisteredClaims provides access to the standard JWT claim set
	// (sub, exp, iat, nbf, iss, aud, jti) as defined by RFC 7519.
	jwt.RegisteredClaims

	// SignedString is the compact JWS representation of the token.
	SignedString string `json:"-"`

	// UserID is the "sub" claim: the sync user the token was issued for.
	UserID string `json:"-"`
}

// GetUserID returns the subject claim, failing when it is absent.
func (t *Token) GetUserID() (string, error) {
	sub, err := t.GetSubject()
	if err != nil {
		return "", fmt.Errorf("error extracting UserID from token: %w", err)
	}
	if sub == "" {
		return "", fmt.Errorf("error extracting UserID from token: empty subject")
	}
	return sub, nil
}

// Expired reports whether the token carries an expiry that is not after now.
func (t *Token) Expired(now time.Time) bool {
	if t.ExpiresAt == nil {
		return false
	}
	return !t.ExpiresAt.After(now)
}

// String returns the compact JWS serialization of the token.
func (t *Token) String() string {
	return t.SignedString
}
