package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mandimarket/marketplace-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Collapses every authentication failure into one generic 401 body so the
//     response never reveals which check failed.
//   - Logs unexpected and upstream errors internally without leaking details.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	var ve *domain.ValidationError
	var quota *domain.QuotaExceededError

	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest, ve.Msg
	case errors.As(err, &quota):
		// Category and limit are safe to disclose.
		return http.StatusBadRequest, quota.Error()
	case errors.Is(err, domain.ErrDuplicateUser):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, domain.ErrTokenMissing),
		errors.Is(err, domain.ErrTokenMalformed),
		errors.Is(err, domain.ErrTokenSignatureInvalid),
		errors.Is(err, domain.ErrTokenExpired),
		errors.Is(err, domain.ErrUnknownSubject),
		errors.Is(err, domain.ErrInvalidCredentials):
		// The precise reason is only logged, never returned.
		log.Debug().Err(err).Str("path", c.Path()).Msg("authentication rejected")
		return http.StatusUnauthorized, "not authorized"

	case errors.Is(err, domain.ErrRoleNotAllowed), errors.Is(err, domain.ErrNotOwner):
		return http.StatusForbidden, "forbidden"

	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound, "product not found"

	case errors.Is(err, domain.ErrVersionConflict):
		return http.StatusConflict, "product was modified concurrently, retry"

	case errors.Is(err, domain.ErrUpstreamStorage):
		log.Error().Err(err).Str("path", c.Path()).Msg("upstream storage failure")
		return http.StatusBadGateway, "upstream storage failure"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
