package ports

import (
	"context"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
)

// CreateProductInput carries all data needed to create a product.
type CreateProductInput struct {
	OwnerID           string
	Name              string
	Category          string
	PricePerUnit      float64
	AvailableQuantity int
	// IdempotencyKey, when set, makes a replayed request return the product
	// created the first time instead of creating a duplicate.
	IdempotencyKey string
}

// CreateProductResult is returned by CreateProduct.
type CreateProductResult struct {
	Product *domain.Product
	// AlreadyExisted is true when the Idempotency-Key matched an earlier creation.
	AlreadyExisted bool
}

// MediaDelta is the ephemeral description of one media update request:
// URIs to drop and raw files to add, per category.
type MediaDelta struct {
	DeleteImages      []string
	DeleteAttachments []string
	NewImages         []UploadFile
	NewAttachments    []UploadFile
}

// UpdateMediaInput identifies the product, the acting user, and the delta.
type UpdateMediaInput struct {
	ProductID string
	ActorID   string
	Delta     MediaDelta
}

// ProductService defines the product use-cases. Every mutating operation
// fetches the product fresh and checks ownership before computing anything.
type ProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*CreateProductResult, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ToggleAvailability(ctx context.Context, productID, actorID string) (*domain.Product, error)
	UpdateMedia(ctx context.Context, input UpdateMediaInput) (*domain.Product, error)
}
