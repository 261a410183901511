package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
	"github.com/mandimarket/marketplace-api/internal/core/ports"
	"github.com/mandimarket/marketplace-api/internal/core/token"
)

// SessionCookie is the name of the HTTP-only cookie carrying the session token.
const SessionCookie = "jwt"

// identityKey is the echo context key under which the resolved user is stored.
const identityKey = "identity"

// Auth verifies the session cookie and resolves the subject against the user
// store, so a deleted account is rejected even while its token is still
// cryptographically valid. The resolved user is stored in the echo context.
func Auth(tokens *token.Service, users ports.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := ""
			if ck, err := c.Cookie(SessionCookie); err == nil {
				raw = ck.Value
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				return err
			}

			user, err := users.FindByID(c.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return domain.ErrUnknownSubject
				}
				return err
			}

			c.Set(identityKey, user)
			return next(c)
		}
	}
}

// Identity returns the authenticated user stored by Auth, or nil when the
// middleware has not run.
func Identity(c echo.Context) *domain.User {
	user, _ := c.Get(identityKey).(*domain.User)
	return user
}
