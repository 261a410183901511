package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mandimarket/marketplace-api/internal/api/handler"
	"github.com/mandimarket/marketplace-api/internal/api/middleware"
	"github.com/mandimarket/marketplace-api/internal/core/domain"
	"github.com/mandimarket/marketplace-api/internal/core/ports"
	"github.com/mandimarket/marketplace-api/internal/core/service"
	"github.com/mandimarket/marketplace-api/internal/core/token"
	mongodb "github.com/mandimarket/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/mandimarket/marketplace-api/internal/infrastructure/db/redis"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(
	db *mongo.Database,
	rdb *redis.Client,
	uploader ports.BlobUploader,
	orphans service.OrphanSink,
	tokens *token.Service,
	secureCookies bool,
	log zerolog.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.BodyLimit("64M"))
	e.Use(echoprometheus.NewMiddleware("marketplace"))

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	productRepo := mongodb.NewProductRepository(db)
	idemStore := redisdb.NewIdempotencyStore(rdb)

	authService := service.NewAuthService(userRepo, tokens, log)
	productService := service.NewProductService(productRepo, uploader, idemStore, orphans, log)

	authHandler := handler.NewAuthHandler(authService, tokens.TTL(), secureCookies)
	productHandler := handler.NewProductHandler(productService)

	authenticated := middleware.Auth(tokens, userRepo)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, authenticated)
	e.GET("/auth/profile", authHandler.Profile, authenticated)

	// --- Product routes ---
	// Creation is gated to the selling roles; ownership of an existing
	// product is enforced in the service layer, regardless of role.
	e.POST("/products", productHandler.Create, authenticated,
		middleware.RequireRole(domain.RoleVendor, domain.RoleSupplier))
	e.GET("/products/:id", productHandler.Get, authenticated)
	e.PATCH("/products/:id/availability", productHandler.ToggleAvailability, authenticated)
	e.PUT("/products/:id/media", productHandler.UpdateMedia, authenticated)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
