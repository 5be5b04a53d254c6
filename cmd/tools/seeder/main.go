package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/backend-propostas/internal/auth"
	"github.com/noah-isme/backend-propostas/internal/catalog"
	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/config"
	"github.com/noah-isme/backend-propostas/internal/db"
	"github.com/noah-isme/backend-propostas/internal/obs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "seeder").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, "propostas-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	authSvc, err := auth.NewService(auth.Config{Store: auth.NewPGStore(pool), Secret: cfg.JWTSecret})
	if err != nil {
		logger.Fatal().Err(err).Msg("auth service")
	}
	email := envOrDefault("SEED_USER_EMAIL", "demo@propostas.dev")
	user, err := authSvc.Register(ctx, envOrDefault("SEED_USER_NAME", "Usuário Demo"), email, envOrDefault("SEED_USER_PASSWORD", "demo12345"))
	var appErr *common.AppError
	switch {
	case err == nil:
		logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("demo user created")
	case errors.As(err, &appErr) && appErr.Code == "EMAIL_ALREADY_USED":
		logger.Info().Str("email", email).Msg("demo user already present")
	default:
		logger.Fatal().Err(err).Msg("seed demo user")
	}

	created, err := catalog.SeedDefaults(ctx, catalog.NewPGStore(pool))
	if err != nil {
		logger.Fatal().Err(err).Msg("seed default catalog")
	}
	logger.Info().Int("services", created).Msg("seeding completed")
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
