package domain

import "time"

// MediaCategory distinguishes the two bounded media collections on a product.
type MediaCategory string

const (
	MediaImages      MediaCategory = "images"
	MediaAttachments MediaCategory = "attachments"
)

// Per-category media quotas.
const (
	MaxImages      = 5
	MaxAttachments = 10
)

// Limit returns the quota for the category.
func (c MediaCategory) Limit() int {
	if c == MediaImages {
		return MaxImages
	}
	return MaxAttachments
}

// Product is the core aggregate root. OwnerID is set at creation and never
// reassigned. Images and Attachments are insertion-ordered sets of unique
// URIs. Version is the optimistic-concurrency token: every media replace is a
// compare-and-swap on it.
type Product struct {
	ID                string    `json:"id" bson:"_id,omitempty"`
	OwnerID           string    `json:"owner_id" bson:"owner_id"`
	Name              string    `json:"name" bson:"name"`
	Category          string    `json:"category" bson:"category"`
	PricePerUnit      float64   `json:"price_per_unit" bson:"price_per_unit"`
	AvailableQuantity int       `json:"available_quantity" bson:"available_quantity"`
	InStock           bool      `json:"in_stock" bson:"in_stock"`
	Images            []string  `json:"images" bson:"images"`
	Attachments       []string  `json:"attachments" bson:"attachments"`
	Version           int64     `json:"version" bson:"version"`
	CreatedAt         time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

// OwnedBy reports whether the given identity owns the product. There is no
// admin override: every role is subject to the same check.
func (p *Product) OwnedBy(userID string) bool {
	return p.OwnerID != "" && p.OwnerID == userID
}

// Media returns the URI set for the given category.
func (p *Product) Media(c MediaCategory) []string {
	if c == MediaImages {
		return p.Images
	}
	return p.Attachments
}
