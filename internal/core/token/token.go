// Package token implements stateless session tokens: signed JWTs carrying the
// subject id, role, and validity window. Verification is a pure function of
// (token, secrets, clock) — no store lookups, no mutation.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
)

// DefaultTTL matches the 30-day session window carried in the login cookie.
const DefaultTTL = 30 * 24 * time.Hour

// Claims are the authenticated facts embedded in a session token.
type Claims struct {
	Subject   string
	Role      domain.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type jwtClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Service issues and verifies session tokens. The first secret signs; every
// secret verifies, which gives rotation a compatibility window.
type Service struct {
	secrets [][]byte
	ttl     time.Duration
	now     func() time.Time
}

// New creates a Service. Extra secrets, if any, are accepted for
// verification only.
func New(secret string, extra ...string) *Service {
	secrets := make([][]byte, 0, 1+len(extra))
	secrets = append(secrets, []byte(secret))
	for _, s := range extra {
		secrets = append(secrets, []byte(s))
	}
	return &Service{secrets: secrets, ttl: DefaultTTL, now: time.Now}
}

// WithTTL overrides the token lifetime.
func (s *Service) WithTTL(ttl time.Duration) *Service {
	if ttl > 0 {
		s.ttl = ttl
	}
	return s
}

// TTL returns the configured token lifetime. Handlers use it to align the
// session cookie's max-age with the token expiry.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

// WithClock overrides the time source. Intended for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue signs a token for the subject with the given role.
func (s *Service) Issue(subjectID string, role domain.Role) (string, error) {
	now := s.now().UTC()
	claims := jwtClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secrets[0])
}

// Verify parses and validates raw, returning the claims by value. Failure
// modes: domain.ErrTokenMissing, ErrTokenMalformed, ErrTokenSignatureInvalid,
// ErrTokenExpired.
func (s *Service) Verify(raw string) (Claims, error) {
	if raw == "" {
		return Claims{}, domain.ErrTokenMissing
	}

	var lastErr error
	for _, secret := range s.secrets {
		claims, err := s.verifyWith(raw, secret)
		if err == nil {
			return claims, nil
		}
		lastErr = err
		// Only a signature mismatch justifies trying the next secret.
		if !errors.Is(err, domain.ErrTokenSignatureInvalid) {
			break
		}
	}
	return Claims{}, lastErr
}

func (s *Service) verifyWith(raw string, secret []byte) (Claims, error) {
	var parsed jwtClaims
	tkn, err := jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, domain.ErrTokenSignatureInvalid
		default:
			return Claims{}, domain.ErrTokenMalformed
		}
	}
	if !tkn.Valid {
		return Claims{}, domain.ErrTokenSignatureInvalid
	}

	out := Claims{
		Subject: parsed.Subject,
		Role:    domain.Role(parsed.Role),
	}
	if parsed.IssuedAt != nil {
		out.IssuedAt = parsed.IssuedAt.Time
	}
	if parsed.ExpiresAt != nil {
		out.ExpiresAt = parsed.ExpiresAt.Time
	}
	return out, nil
}
