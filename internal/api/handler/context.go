package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/mandimarket/marketplace-api/internal/api/middleware"
	"github.com/mandimarket/marketplace-api/internal/core/domain"
)

// identity extracts the user resolved by the Auth middleware. Its absence
// means the route was wired without the middleware; fail closed.
func identity(c echo.Context) (*domain.User, error) {
	user := middleware.Identity(c)
	if user == nil {
		return nil, domain.ErrTokenMissing
	}
	return user, nil
}
