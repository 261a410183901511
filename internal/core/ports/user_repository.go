package ports

import (
	"context"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
)

// UserRepository defines persistence for marketplace users. Create returns
// domain.ErrDuplicateUser when the email or the phone is already registered,
// regardless of which of the two collides.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
