package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
)

// RequireRole enforces role-based access control. An empty role list admits
// any authenticated identity. Must run after Auth.
func RequireRole(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := Identity(c)
			if user == nil {
				return domain.ErrTokenMissing
			}
			if len(allowed) == 0 {
				return next(c)
			}
			if _, ok := allowed[user.Role]; !ok {
				return domain.ErrRoleNotAllowed
			}
			return next(c)
		}
	}
}
