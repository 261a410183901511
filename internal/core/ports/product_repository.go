package ports

import (
	"context"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
)

// ProductRepository defines persistence for products.
type ProductRepository interface {
	Create(ctx context.Context, p *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)

	// SetAvailability updates the in_stock flag of the product.
	SetAvailability(ctx context.Context, id string, inStock bool) error

	// ReplaceMedia writes both media sets in a single document update,
	// compare-and-swapped on version: the write only applies when the stored
	// version still equals the given one, and bumps it by one. Returns
	// domain.ErrVersionConflict when a concurrent writer got there first and
	// domain.ErrProductNotFound when the id is unknown.
	ReplaceMedia(ctx context.Context, id string, version int64, images, attachments []string) (*domain.Product, error)
}
