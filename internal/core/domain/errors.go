package domain

import (
	"errors"
	"fmt"
)

// Authentication failures (all rendered as a single generic 401 to callers;
// the precise reason is only logged server-side).
var (
	ErrTokenMissing          = errors.New("no session token provided")
	ErrTokenMalformed        = errors.New("session token malformed")
	ErrTokenSignatureInvalid = errors.New("session token signature invalid")
	ErrTokenExpired          = errors.New("session token expired")
	ErrUnknownSubject        = errors.New("token subject no longer exists")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)

// Authorization failures (403).
var (
	ErrRoleNotAllowed = errors.New("role not allowed")
	ErrNotOwner       = errors.New("not the resource owner")
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateUser   = errors.New("user with this email or phone already exists")

	// ErrVersionConflict signals that a compare-and-swap persist lost to a
	// concurrent writer; callers retry with fresh state.
	ErrVersionConflict = errors.New("product modified concurrently")

	// ErrUpstreamStorage wraps blob-service failures (502).
	ErrUpstreamStorage = errors.New("upstream storage failure")
)

// ValidationError marks caller-correctable input problems (400).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// QuotaExceededError is returned before any upload is attempted when a media
// delta would exceed the category quota. Safe to disclose to callers.
type QuotaExceededError struct {
	Category  MediaCategory
	Limit     int
	Attempted int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s quota exceeded: limit %d, attempted %d", e.Category, e.Limit, e.Attempted)
}
