// Package magiclink implements passwordless sign-in: a signed, time-bounded
// token embedded in a URL query parameter proves control of an email address.
package magiclink

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenParam is the query parameter carrying the token in login URLs.
const TokenParam = "token"

const issuer = "website"

// Codec issues and verifies magic-link tokens.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a token codec. The secret signs tokens with HMAC-SHA256;
// ttl bounds how long an emailed link stays valid.
func NewCodec(secret string, ttl time.Duration) (*Codec, error) {
	if len(secret) < 32 {
		return nil, ErrSecretTooShort
	}
	return &Codec{secret: []byte(secret), ttl: ttl}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Issue creates a signed token for the email address.
func (c *Codec) Issue(email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})
	return token.SignedString(c.secret)
}

// Verify validates a token and returns the email address it encodes.
// Expired or tampered tokens return ErrExpiredToken or ErrInvalidToken; these
// are the one failure in the sign-in flow that callers surface to the user.
func (c *Codec) Verify(tokenStr string) (string, error) {
	var parsed claims
	_, err := jwt.ParseWithClaims(tokenStr, &parsed, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if parsed.Subject == "" {
		return "", ErrInvalidToken
	}
	return parsed.Subject, nil
}

// LoginURL builds the full magic-link URL for an issued token.
func LoginURL(baseURL, token string) string {
	return fmt.Sprintf("%s/auth/verify?%s=%s", baseURL, TokenParam, url.QueryEscape(token))
}

// TokenFromRequestURL extracts the token from a request URL's query string.
// Returns "" when the parameter is absent.
func TokenFromRequestURL(u *url.URL) string {
	return u.Query().Get(TokenParam)
}
