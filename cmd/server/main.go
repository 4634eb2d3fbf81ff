package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foxxcyber/fresh-feed/internal/config"
	"github.com/foxxcyber/fresh-feed/internal/database"
	"github.com/foxxcyber/fresh-feed/internal/expiry"
	"github.com/foxxcyber/fresh-feed/internal/handlers"
	"github.com/foxxcyber/fresh-feed/internal/logging"
	"github.com/foxxcyber/fresh-feed/internal/services"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Caller: cfg.IsDevelopment(),
	})
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx := context.Background()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	if err := database.EnsureAdminUser(ctx, db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logging.Warn().Err(err).Msg("could not ensure admin user")
	}

	backend, err := services.OpenLearningBackend(ctx, cfg, db)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open learning store")
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logging.Error().Err(err).Msg("close learning store")
		}
	}()

	learning := expiry.NewRegistry(backend.Store)

	var backups handlers.BackupStore
	if backend.Backups != nil {
		backups = backend.Backups
	}

	if cfg.StartupCleanup {
		go sweepLearningStores(learning, cfg.LearningMaxAgeDays)
	}

	h := handlers.New(cfg, db, db, learning, backups)

	app := handlers.NewApp(cfg)
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	h.Routes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logging.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logging.Error().Err(err).Msg("shutdown")
		}
	}()

	logging.Info().Str("port", cfg.Port).Str("learning_store", cfg.LearningStore).Msg("server starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		logging.Error().Err(err).Msg("server stopped")
	}
}

// sweepLearningStores prunes aged-out corrections from every persisted store
func sweepLearningStores(learning *expiry.Registry, maxAgeDays int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	visited, err := learning.CleanupAll(ctx, maxAgeDays)
	if err != nil {
		logging.Warn().Err(err).Msg("startup learning cleanup failed")
		return
	}
	logging.Info().
		Int("stores", visited).
		Int("max_age_days", maxAgeDays).
		Dur("took", time.Since(start)).
		Msg("startup learning cleanup done")
}
