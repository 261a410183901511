package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mandimarket/marketplace-api/internal/api/middleware"
	"github.com/mandimarket/marketplace-api/internal/core/domain"
	"github.com/mandimarket/marketplace-api/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	cookieTTL   time.Duration
	secure      bool
}

// NewAuthHandler creates an AuthHandler. secure controls the Secure flag on
// the session cookie (off for local development over plain HTTP).
func NewAuthHandler(authService ports.AuthService, cookieTTL time.Duration, secure bool) *AuthHandler {
	return &AuthHandler{authService: authService, cookieTTL: cookieTTL, secure: secure}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Address  string `json:"address" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=vendor supplier customer"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// userResponse is the identity summary returned by auth endpoints. The token
// travels only in the cookie, never in the body.
type userResponse struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Phone   string      `json:"phone"`
	Address string      `json:"address"`
	Role    domain.Role `json:"role"`
	Points  int         `json:"points"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Address: u.Address,
		Role:    u.Role,
		Points:  u.Points,
	}
}

// Register creates a new user account and starts a session.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return &domain.ValidationError{Msg: "invalid payload"}
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, tkn, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		return err
	}

	h.setSessionCookie(c, tkn)
	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login authenticates a user and starts a session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  userResponse
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return &domain.ValidationError{Msg: "invalid payload"}
	}
	if err := c.Validate(&req); err != nil {
		// Missing credentials get the same generic rejection as wrong ones.
		return domain.ErrInvalidCredentials
	}

	user, tkn, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	h.setSessionCookie(c, tkn)
	return c.JSON(http.StatusOK, toUserResponse(user))
}

// Logout ends the session by expiring the cookie. The token itself stays
// valid until expiry; there is no server-side session state to clear.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteNoneMode,
		Expires:  time.Unix(0, 0),
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// Profile returns the caller's own profile.
//
// @Summary      Get own profile
// @Tags         auth
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	user, err := identity(c)
	if err != nil {
		return err
	}

	// Re-fetch rather than trusting the middleware copy: the account may
	// have changed or vanished since the token was resolved.
	fresh, err := h.authService.Profile(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(fresh))
}

func (h *AuthHandler) setSessionCookie(c echo.Context, tkn string) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    tkn,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(h.cookieTTL.Seconds()),
	})
}
