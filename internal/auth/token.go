package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// MinSigningSecretLen is the minimum accepted signing secret length.
// HS256 secrets shorter than the hash output add no security margin.
const MinSigningSecretLen = 32

// Token verification failures. All are expected outcomes for
// client-supplied input and must map to a 401, never a 500.
var (
	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenSignature indicates a signature that does not verify.
	ErrTokenSignature = errors.New("token signature invalid")
	// ErrTokenMalformed indicates a token that does not parse at all.
	ErrTokenMalformed = errors.New("token malformed")
)

// SessionClaims are the claims embedded in a session token.
// The user id rides in the registered subject claim; ID (jti) is a
// ULID used by the revocation blocklist.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the subject the token was issued for.
func (c *SessionClaims) UserID() string {
	return c.Subject
}

// TokenIssuer signs and verifies stateless session tokens (HS256 JWT).
// Validity is fully determined by signature and expiry; revocation is
// layered on by the cache blocklist, not here.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer creates a TokenIssuer. A missing or short secret is a
// configuration error and is rejected here so the process fails at
// startup rather than issuing weakly signed tokens.
func NewTokenIssuer(secret []byte, ttl time.Duration) (*TokenIssuer, error) {
	if len(secret) < MinSigningSecretLen {
		return nil, fmt.Errorf("signing secret must be at least %d bytes, got %d", MinSigningSecretLen, len(secret))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &TokenIssuer{secret: secret, ttl: ttl}, nil
}

// TTL returns the configured token lifetime.
func (t *TokenIssuer) TTL() time.Duration {
	return t.ttl
}

// Issue produces a signed token for the given user id, expiring after
// the configured TTL.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ulid.Make().String(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks signature integrity and expiry, returning the claims.
// Invalid tokens return a typed error (ErrTokenExpired,
// ErrTokenSignature, ErrTokenMalformed) rather than a raw parse error.
func (t *TokenIssuer) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(tok *jwt.Token) (any, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignature
		default:
			return nil, ErrTokenMalformed
		}
	}

	if !token.Valid {
		return nil, ErrTokenSignature
	}

	return claims, nil
}
