package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mandimarket/marketplace-api/internal/api/metrics"
	"github.com/mandimarket/marketplace-api/internal/core/domain"
	"github.com/mandimarket/marketplace-api/internal/core/ports"
)

// IdempotencyStore abstracts the replay store for product creation (Redis).
type IdempotencyStore interface {
	// Lookup returns the product id remembered for (ownerID, key), or ""
	// when the key has not been seen.
	Lookup(ctx context.Context, ownerID, key string) (string, error)
	Remember(ctx context.Context, ownerID, key, productID string) error
}

// OrphanSink receives URIs of blobs that were uploaded but will never be
// referenced, for best-effort deletion.
type OrphanSink interface {
	EnqueueBatch(uris []string)
}

// ProductService implements product creation, availability toggling, and
// media reconciliation.
type ProductService struct {
	repo     ports.ProductRepository
	uploader ports.BlobUploader
	idem     IdempotencyStore
	orphans  OrphanSink
	logger   zerolog.Logger
}

func NewProductService(
	repo ports.ProductRepository,
	uploader ports.BlobUploader,
	idem IdempotencyStore,
	orphans OrphanSink,
	logger zerolog.Logger,
) *ProductService {
	return &ProductService{repo: repo, uploader: uploader, idem: idem, orphans: orphans, logger: logger}
}

// CreateProduct creates a new product owned by the caller. If an idempotency
// key is provided and already seen, the previously created product is
// returned without side effects.
func (s *ProductService) CreateProduct(ctx context.Context, input ports.CreateProductInput) (*ports.CreateProductResult, error) {
	if input.OwnerID == "" {
		return nil, &domain.ValidationError{Msg: "owner is required"}
	}
	if input.Name == "" || input.Category == "" {
		return nil, &domain.ValidationError{Msg: "name and category are required"}
	}
	if input.PricePerUnit <= 0 {
		return nil, &domain.ValidationError{Msg: "price_per_unit must be positive"}
	}
	if input.AvailableQuantity < 0 {
		return nil, &domain.ValidationError{Msg: "available_quantity must not be negative"}
	}

	if input.IdempotencyKey != "" && s.idem != nil {
		id, err := s.idem.Lookup(ctx, input.OwnerID, input.IdempotencyKey)
		if err != nil {
			s.logger.Warn().Err(err).Msg("idempotency lookup failed, processing anyway")
		} else if id != "" {
			existing, err := s.repo.FindByID(ctx, id)
			if err == nil {
				s.logger.Info().Str("idempotency_key", input.IdempotencyKey).Str("product_id", id).Msg("idempotent replay")
				return &ports.CreateProductResult{Product: existing, AlreadyExisted: true}, nil
			}
		}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		OwnerID:           input.OwnerID,
		Name:              input.Name,
		Category:          input.Category,
		PricePerUnit:      input.PricePerUnit,
		AvailableQuantity: input.AvailableQuantity,
		InStock:           input.AvailableQuantity > 0,
		Images:            []string{},
		Attachments:       []string{},
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create product")
		return nil, err
	}

	if input.IdempotencyKey != "" && s.idem != nil {
		if err := s.idem.Remember(ctx, input.OwnerID, input.IdempotencyKey, created.ID); err != nil {
			s.logger.Warn().Err(err).Str("product_id", created.ID).Msg("failed to record idempotency key")
		}
	}

	metrics.ProductsCreatedTotal.WithLabelValues(created.Category).Inc()
	s.logger.Info().Str("product_id", created.ID).Str("owner_id", created.OwnerID).Msg("product created")

	return &ports.CreateProductResult{Product: created}, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.repo.FindByID(ctx, id)
}

// ToggleAvailability flips the in_stock flag. The product is fetched fresh
// and ownership checked before the write.
func (s *ProductService) ToggleAvailability(ctx context.Context, productID, actorID string) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.OwnedBy(actorID) {
		return nil, domain.ErrNotOwner
	}

	if err := s.repo.SetAvailability(ctx, productID, !product.InStock); err != nil {
		return nil, err
	}

	product.InStock = !product.InStock
	s.logger.Info().Str("product_id", productID).Bool("in_stock", product.InStock).Msg("availability toggled")
	return product, nil
}

// UpdateMedia reconciles the product's media sets against the delta:
// requested deletions are dropped, new files uploaded, and the result
// persisted with a compare-and-swap on the product version. Quotas for both
// categories are validated before the first upload call is issued.
func (s *ProductService) UpdateMedia(ctx context.Context, input ports.UpdateMediaInput) (*domain.Product, error) {
	start := time.Now()
	updated, err := s.updateMedia(ctx, input)
	metrics.MediaUpdateDuration.WithLabelValues(mediaResult(err)).Observe(time.Since(start).Seconds())
	return updated, err
}

func (s *ProductService) updateMedia(ctx context.Context, input ports.UpdateMediaInput) (*domain.Product, error) {
	product, err := s.repo.FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.OwnedBy(input.ActorID) {
		return nil, domain.ErrNotOwner
	}

	delta := input.Delta

	// Validate both quotas before issuing any upload: uploads are costly,
	// externally side-effecting calls and must not run for a request that
	// cannot succeed.
	retainedImages, err := planMedia(domain.MediaImages, product.Images, delta.DeleteImages, len(delta.NewImages))
	if err != nil {
		metrics.MediaQuotaRejectionsTotal.WithLabelValues(string(domain.MediaImages)).Inc()
		return nil, err
	}
	retainedAttachments, err := planMedia(domain.MediaAttachments, product.Attachments, delta.DeleteAttachments, len(delta.NewAttachments))
	if err != nil {
		metrics.MediaQuotaRejectionsTotal.WithLabelValues(string(domain.MediaAttachments)).Inc()
		return nil, err
	}

	imageURIs, attachmentURIs, err := s.uploadAll(ctx, delta.NewImages, delta.NewAttachments)
	if err != nil {
		return nil, err
	}

	// Never persist the result of an abandoned request; the freshly uploaded
	// blobs become orphans and go to cleanup.
	if ctx.Err() != nil {
		s.discardOrphans(append(imageURIs, attachmentURIs...))
		return nil, ctx.Err()
	}

	nextImages := appendUnique(retainedImages, imageURIs)
	nextAttachments := appendUnique(retainedAttachments, attachmentURIs)

	updated, err := s.repo.ReplaceMedia(ctx, product.ID, product.Version, nextImages, nextAttachments)
	if err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			s.discardOrphans(append(imageURIs, attachmentURIs...))
		}
		return nil, err
	}

	s.logger.Info().
		Str("product_id", product.ID).
		Int("images", len(updated.Images)).
		Int("attachments", len(updated.Attachments)).
		Msg("media updated")

	return updated, nil
}

// uploadAll fans out one blob-service call per file, concurrently, and waits
// for all of them. On any failure the whole batch fails with
// domain.ErrUpstreamStorage and sibling uploads that did succeed are handed
// to the orphan sink.
func (s *ProductService) uploadAll(ctx context.Context, images, attachments []ports.UploadFile) ([]string, []string, error) {
	total := len(images) + len(attachments)
	if total == 0 {
		return nil, nil, nil
	}

	uris := make([]string, total)
	g, gctx := errgroup.WithContext(ctx)

	launch := func(idx int, cat domain.MediaCategory, file ports.UploadFile) {
		g.Go(func() error {
			uri, err := s.uploader.Upload(gctx, file)
			if err != nil {
				metrics.MediaUploadsTotal.WithLabelValues(string(cat), "failed").Inc()
				return fmt.Errorf("upload %s %q: %w", cat, file.Filename, err)
			}
			metrics.MediaUploadsTotal.WithLabelValues(string(cat), "ok").Inc()
			uris[idx] = uri
			return nil
		})
	}

	for i, f := range images {
		launch(i, domain.MediaImages, f)
	}
	for i, f := range attachments {
		launch(len(images)+i, domain.MediaAttachments, f)
	}

	if err := g.Wait(); err != nil {
		var succeeded []string
		for _, uri := range uris {
			if uri != "" {
				succeeded = append(succeeded, uri)
			}
		}
		s.discardOrphans(succeeded)
		s.logger.Error().Err(err).Int("orphaned", len(succeeded)).Msg("media upload batch failed")
		return nil, nil, fmt.Errorf("%w: %v", domain.ErrUpstreamStorage, err)
	}

	return uris[:len(images)], uris[len(images):], nil
}

func (s *ProductService) discardOrphans(uris []string) {
	if s.orphans == nil || len(uris) == 0 {
		return
	}
	s.orphans.EnqueueBatch(uris)
}

func mediaResult(err error) string {
	var quota *domain.QuotaExceededError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &quota):
		return "quota"
	case errors.Is(err, domain.ErrVersionConflict):
		return "conflict"
	case errors.Is(err, domain.ErrUpstreamStorage):
		return "upstream"
	default:
		return "error"
	}
}
