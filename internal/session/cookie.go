package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const cookieIssuer = "mediconnect-console"

// ErrInvalidCookie is returned for cookies that fail signature, expiry or
// shape checks.
var ErrInvalidCookie = errors.New("invalid session cookie")

type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieCodec signs and verifies the session ID carried by the browser.
type CookieCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCookieCodec creates a codec signing with secret. Tokens expire after ttl.
func NewCookieCodec(secret string, ttl time.Duration) (*CookieCodec, error) {
	if secret == "" {
		return nil, errors.New("session secret key is required")
	}
	return &CookieCodec{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Encode returns a signed token for sessionID.
func (c *CookieCodec) Encode(sessionID string) (string, error) {
	now := c.now()
	claims := &cookieClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cookieIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign session cookie: %w", err)
	}
	return signed, nil
}

// Decode verifies token and returns the session ID it carries.
func (c *CookieCodec) Decode(token string) (string, error) {
	claims := &cookieClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cookieIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCookie, err)
	}

	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", fmt.Errorf("%w: bad session id", ErrInvalidCookie)
	}
	return claims.SessionID, nil
}
