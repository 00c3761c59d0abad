package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"foodshare/internal/auth"
	"foodshare/internal/config"
	"foodshare/internal/database"
	"foodshare/internal/geocode"
	"foodshare/internal/handler"
	"foodshare/internal/media"
	"foodshare/internal/metrics"
	"foodshare/internal/middleware"
	"foodshare/internal/repository"
	"foodshare/internal/router"
	"foodshare/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; the environment may already be populated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting foodshare API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token verifier: %w", err)
	}

	appMetrics := metrics.New()

	// Repositories
	listingRepo := repository.NewListingRepository(pool, logger)
	requestRepo := repository.NewRequestRepository(pool, logger)
	profileRepo := repository.NewProfileRepository(pool, logger)

	// Media store: S3 first, local directory as fallback
	fileStore, err := media.NewFileStore(cfg.Media.LocalDir, cfg.Media.BaseURL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize local media store: %w", err)
	}

	var s3Store media.Store
	if cfg.S3.Enabled {
		s3Store, err = media.NewS3Store(ctx, media.S3Options{
			Bucket:        cfg.S3.Bucket,
			Region:        cfg.S3.Region,
			Prefix:        cfg.S3.Prefix,
			PublicBaseURL: cfg.S3.PublicBaseURL,
		}, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 store, falling back to local media directory only")
			s3Store = nil
		}
	} else {
		logger.Info().Str("dir", cfg.Media.LocalDir).Msg("using local media directory for uploads (S3 disabled)")
	}
	mediaStore := media.NewFallbackStore(s3Store, fileStore, s3Store != nil, logger)

	geocoder := geocode.NewClient(geocode.Options{
		APIKey:  cfg.Geocode.APIKey,
		BaseURL: cfg.Geocode.BaseURL,
		Timeout: cfg.Geocode.Timeout,
	}, appMetrics, logger)
	if cfg.Geocode.APIKey == "" {
		logger.Warn().Msg("OPENCAGE_API_KEY not set, geocoding endpoints will report upstream failure")
	}

	// Services
	listingService := service.NewListingService(listingRepo, requestRepo, profileRepo, logger)
	requestService := service.NewRequestService(requestRepo, listingRepo, profileRepo, appMetrics, logger)
	profileService := service.NewProfileService(profileRepo, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
	go rateLimiter.Run(ctx, time.Minute, 10*time.Minute)

	handlers := router.Handlers{
		Listings: handler.NewListingHandler(listingService, logger),
		Requests: handler.NewRequestHandler(requestService, logger),
		Profile:  handler.NewProfileHandler(profileService, logger),
		Upload:   handler.NewUploadHandler(mediaStore, appMetrics, logger),
		Geocode:  handler.NewGeocodeHandler(geocoder, logger),
	}

	opts := router.Options{
		Verifier:             verifier,
		RateLimiter:          rateLimiter,
		Metrics:              appMetrics,
		AllowAnonymousBrowse: cfg.Auth.AllowAnonymousBrowse,
	}
	// Serve the local directory only when its URLs point back at this server.
	if strings.HasPrefix(cfg.Media.BaseURL, "/") {
		opts.MediaDir = cfg.Media.LocalDir
		opts.MediaPath = cfg.Media.BaseURL
	}

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router.New(handlers, opts, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Bool("anonymous_browse", cfg.Auth.AllowAnonymousBrowse).
			Bool("s3_enabled", s3Store != nil).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}
