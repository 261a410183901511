package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/mandimarket/marketplace-api/internal/api"
	"github.com/mandimarket/marketplace-api/internal/core/token"
	"github.com/mandimarket/marketplace-api/internal/infrastructure/config"
	mongodb "github.com/mandimarket/marketplace-api/internal/infrastructure/db/mongo"
	redisdb "github.com/mandimarket/marketplace-api/internal/infrastructure/db/redis"
	"github.com/mandimarket/marketplace-api/internal/infrastructure/queue"
	"github.com/mandimarket/marketplace-api/internal/infrastructure/storage"
	"github.com/mandimarket/marketplace-api/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	if err := mongodb.NewUserRepository(db).EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("user index creation failed")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer rdb.Close()

	uploader := storage.NewClient(storage.Config{
		BaseURL: cfg.Blob.BaseURL,
		Folder:  cfg.Blob.Folder,
	})

	cleanup := queue.NewDispatcher(0, uploader, log)
	cleanup.Start(ctx)

	tokens := token.New(cfg.JWTSecret).WithTTL(cfg.TokenTTL)

	e := api.NewRouter(db, rdb, uploader, cleanup, tokens, cfg.Env != "development", log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("marketplace api started")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("marketplace api stopped")
}
