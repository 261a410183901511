package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
)

const productCollection = "products"

type ProductRepository struct {
	coll *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection(productCollection)}
}

type mongoProduct struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	OwnerID           string             `bson:"owner_id"`
	Name              string             `bson:"name"`
	Category          string             `bson:"category"`
	PricePerUnit      float64            `bson:"price_per_unit"`
	AvailableQuantity int                `bson:"available_quantity"`
	InStock           bool               `bson:"in_stock"`
	Images            []string           `bson:"images"`
	Attachments       []string           `bson:"attachments"`
	Version           int64              `bson:"version"`
	CreatedAt         time.Time          `bson:"created_at"`
	UpdatedAt         time.Time          `bson:"updated_at"`
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	doc := mongoProduct{
		ID:                primitive.NewObjectID(),
		OwnerID:           p.OwnerID,
		Name:              p.Name,
		Category:          p.Category,
		PricePerUnit:      p.PricePerUnit,
		AvailableQuantity: p.AvailableQuantity,
		InStock:           p.InStock,
		Images:            emptyIfNil(p.Images),
		Attachments:       emptyIfNil(p.Attachments),
		Version:           p.Version,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
	if doc.Version == 0 {
		doc.Version = 1
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrProductNotFound
	}

	var mp mongoProduct
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mp); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *ProductRepository) SetAvailability(ctx context.Context, id string, inStock bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrProductNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"in_stock": inStock, "updated_at": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("set availability: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// ReplaceMedia writes both media sets in one document update, guarded by a
// compare-and-swap on version. Images and attachments therefore commit
// together or not at all, and a concurrent writer surfaces as
// domain.ErrVersionConflict instead of a silent overwrite.
func (r *ProductRepository) ReplaceMedia(ctx context.Context, id string, version int64, images, attachments []string) (*domain.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrProductNotFound
	}

	filter := bson.M{"_id": oid, "version": version}
	update := bson.M{
		"$set": bson.M{
			"images":      emptyIfNil(images),
			"attachments": emptyIfNil(attachments),
			"updated_at":  time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return nil, fmt.Errorf("replace media: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing product from a lost CAS race.
		if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Err(); err == mongo.ErrNoDocuments {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.ErrVersionConflict
	}

	return r.FindByID(ctx, id)
}

func emptyIfNil(uris []string) []string {
	if uris == nil {
		return []string{}
	}
	return uris
}

func (mp mongoProduct) toDomain() *domain.Product {
	return &domain.Product{
		ID:                mp.ID.Hex(),
		OwnerID:           mp.OwnerID,
		Name:              mp.Name,
		Category:          mp.Category,
		PricePerUnit:      mp.PricePerUnit,
		AvailableQuantity: mp.AvailableQuantity,
		InStock:           mp.InStock,
		Images:            mp.Images,
		Attachments:       mp.Attachments,
		Version:           mp.Version,
		CreatedAt:         mp.CreatedAt,
		UpdatedAt:         mp.UpdatedAt,
	}
}
