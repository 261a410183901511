package handler

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
	"github.com/mandimarket/marketplace-api/internal/core/ports"
)

// maxUploadBytes caps a single uploaded file. Requests over the limit fail
// with a validation error before reaching the blob service.
const maxUploadBytes = 10 << 20

// ProductHandler handles HTTP requests for product operations.
type ProductHandler struct {
	service ports.ProductService
}

func NewProductHandler(service ports.ProductService) *ProductHandler {
	return &ProductHandler{service: service}
}

type createProductRequest struct {
	Name              string  `json:"name" validate:"required"`
	Category          string  `json:"category" validate:"required"`
	PricePerUnit      float64 `json:"price_per_unit" validate:"required,gt=0"`
	AvailableQuantity int     `json:"available_quantity" validate:"gte=0"`
}

// Create handles POST /products.
//
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                true   "Optional key to make retries safe"
// @Param        body             body      createProductRequest  true   "Product details"
// @Success      201              {object}  domain.Product
// @Failure      400              {object}  map[string]string
// @Failure      403              {object}  map[string]string
// @Router       /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}

	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return &domain.ValidationError{Msg: "invalid payload"}
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.service.CreateProduct(c.Request().Context(), ports.CreateProductInput{
		OwnerID:           user.ID,
		Name:              req.Name,
		Category:          req.Category,
		PricePerUnit:      req.PricePerUnit,
		AvailableQuantity: req.AvailableQuantity,
		IdempotencyKey:    c.Request().Header.Get("Idempotency-Key"),
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.AlreadyExisted {
		status = http.StatusOK
	}
	return c.JSON(status, result.Product)
}

// Get handles GET /products/:id.
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  domain.Product
// @Failure      404  {object}  map[string]string
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	product, err := h.service.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// ToggleAvailability handles PATCH /products/:id/availability. Only the
// owner may flip the flag; the role does not matter.
//
// @Summary      Toggle product availability
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  domain.Product
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /products/{id}/availability [patch]
func (h *ProductHandler) ToggleAvailability(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}

	product, err := h.service.ToggleAvailability(c.Request().Context(), c.Param("id"), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// UpdateMedia handles PUT /products/:id/media. The multipart form carries
// URIs to delete (delete_images, delete_attachments — repeatable fields) and
// new files to add (images, attachments — repeatable file fields).
//
// @Summary      Update product media
// @Tags         products
// @Accept       multipart/form-data
// @Produce      json
// @Param        id   path      string  true  "Product id"
// @Success      200  {object}  domain.Product
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /products/{id}/media [put]
func (h *ProductHandler) UpdateMedia(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return &domain.ValidationError{Msg: "expected a multipart form"}
	}

	newImages, err := readFiles(form.File["images"])
	if err != nil {
		return err
	}
	newAttachments, err := readFiles(form.File["attachments"])
	if err != nil {
		return err
	}

	product, err := h.service.UpdateMedia(c.Request().Context(), ports.UpdateMediaInput{
		ProductID: c.Param("id"),
		ActorID:   user.ID,
		Delta: ports.MediaDelta{
			DeleteImages:      form.Value["delete_images"],
			DeleteAttachments: form.Value["delete_attachments"],
			NewImages:         newImages,
			NewAttachments:    newAttachments,
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, product)
}

// readFiles loads the raw upload parts into memory, enforcing the per-file
// size cap.
func readFiles(headers []*multipart.FileHeader) ([]ports.UploadFile, error) {
	if len(headers) == 0 {
		return nil, nil
	}

	files := make([]ports.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxUploadBytes {
			return nil, &domain.ValidationError{Msg: fmt.Sprintf("file %q exceeds the %d byte limit", fh.Filename, maxUploadBytes)}
		}

		src, err := fh.Open()
		if err != nil {
			return nil, &domain.ValidationError{Msg: fmt.Sprintf("file %q could not be read", fh.Filename)}
		}
		data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
		src.Close()
		if err != nil {
			return nil, &domain.ValidationError{Msg: fmt.Sprintf("file %q could not be read", fh.Filename)}
		}
		if len(data) > maxUploadBytes {
			return nil, &domain.ValidationError{Msg: fmt.Sprintf("file %q exceeds the %d byte limit", fh.Filename, maxUploadBytes)}
		}

		files = append(files, ports.UploadFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return files, nil
}
