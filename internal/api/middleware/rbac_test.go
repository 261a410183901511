package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
)

func invokeRBAC(t *testing.T, user *domain.User, roles ...domain.Role) (bool, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(identityKey, user)
	}

	called := false
	err := RequireRole(roles...)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})(c)
	return called, err
}

func TestRequireRole_Allows(t *testing.T) {
	called, err := invokeRBAC(t, &domain.User{ID: "u1", Role: domain.RoleVendor}, domain.RoleVendor, domain.RoleSupplier)
	if err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRequireRole_Forbids(t *testing.T) {
	called, err := invokeRBAC(t, &domain.User{ID: "u1", Role: domain.RoleCustomer}, domain.RoleVendor, domain.RoleSupplier)
	if !errors.Is(err, domain.ErrRoleNotAllowed) {
		t.Fatalf("expected ErrRoleNotAllowed, got %v", err)
	}
	if called {
		t.Fatalf("next handler called despite forbidden role")
	}
}

func TestRequireRole_EmptySetAdmitsAnyAuthenticated(t *testing.T) {
	called, err := invokeRBAC(t, &domain.User{ID: "u1", Role: domain.RoleCustomer})
	if err != nil {
		t.Fatalf("middleware error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
}

func TestRequireRole_NoIdentity(t *testing.T) {
	called, err := invokeRBAC(t, nil, domain.RoleVendor)
	if !errors.Is(err, domain.ErrTokenMissing) {
		t.Fatalf("expected ErrTokenMissing, got %v", err)
	}
	if called {
		t.Fatalf("next handler called without identity")
	}
}
