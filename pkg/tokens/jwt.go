package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// minKeyLen is the minimum HMAC key length accepted for HS256.
const minKeyLen = 32

// Codec signs and verifies the self-contained session tokens issued at login.
// The payload carries only the subject (username), issue time and expiry;
// nothing is persisted server-side.
type Codec struct {
	key []byte
	ttl time.Duration
}

// NewCodec derives the signing key from the configured secret. Secrets shorter
// than 32 bytes are zero-padded on the right so the key always satisfies the
// HS256 minimum length.
func NewCodec(secret string, ttl time.Duration) *Codec {
	key := []byte(secret)
	if len(key) < minKeyLen {
		padded := make([]byte, minKeyLen)
		copy(padded, key)
		key = padded
	}
	return &Codec{key: key, ttl: ttl}
}

// Issue creates a signed token for the given username, valid for the
// configured TTL.
func (c *Codec) Issue(username string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.key)
}

// Subject verifies the token's signature and expiry and returns its subject.
// Every parse or crypto failure comes back as an ordinary error; nothing
// panics past this boundary.
func (c *Codec) Subject(tokenString string) (string, error) {
	claims, err := c.parse(tokenString)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Expiry returns the expiry timestamp embedded in the token.
func (c *Codec) Expiry(tokenString string) (time.Time, error) {
	claims, err := c.parse(tokenString)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrInvalidToken
	}
	return claims.ExpiresAt.Time, nil
}

func (c *Codec) parse(tokenString string) (*jwt.RegisteredClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
