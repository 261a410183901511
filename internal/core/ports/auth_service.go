package ports

import (
	"context"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
)

// RegisterInput carries all data needed to register a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
	Role     domain.Role
}

// AuthService defines the authentication use-cases.
type AuthService interface {
	// Register creates a user and returns it together with a session token.
	Register(ctx context.Context, input RegisterInput) (*domain.User, string, error)
	// Login verifies credentials and returns the user and a session token.
	// Unknown email and wrong password both fail with
	// domain.ErrInvalidCredentials, never distinguishing the two.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)
	// Profile returns the caller's own profile by authenticated id.
	Profile(ctx context.Context, userID string) (*domain.User, error)
}
