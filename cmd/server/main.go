package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mdp/qrterminal/v3"
	"github.com/rs/zerolog/log"

	"qrpack/internal/api"
	"qrpack/internal/api/handlers"
	"qrpack/internal/api/middleware"
	"qrpack/internal/engine/artifact"
	"qrpack/internal/engine/pack"
	"qrpack/internal/engine/session"
	"qrpack/internal/engine/symbol"
	"qrpack/internal/pkg/logger"
	"qrpack/internal/platform/config"
	"qrpack/internal/workers"
)

func main() {
	path := "configs/config.yaml"
	if p := os.Getenv("QRPACK_CONFIG"); p != "" {
		path = p
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Logging)

	// Engine
	encoder, err := symbol.NewEncoder(cfg.Symbol.Size)
	if err != nil {
		log.Fatal().Err(err).Int("size", cfg.Symbol.Size).Msg("invalid symbol size")
	}
	builder := pack.NewBuilder(cfg.Package.MaxFileBytes)
	store := artifact.NewStore()
	generator := session.NewGenerator(encoder, builder, store)
	manager := session.NewManager(generator, cfg.Session.IdleTTL)

	// Handlers
	generateHandler := handlers.NewGenerateHandler(builder.MaxBytes())
	artifactHandler := handlers.NewArtifactHandler(store, builder.MaxBytes())
	healthHandler := handlers.NewHealthHandler(manager)
	metricsHandler := handlers.NewMetricsHandler(manager)

	// Middleware
	sessionMiddleware := middleware.NewSessionMiddleware(manager, cfg.Session.CookieName, cfg.Session.IdleTTL)
	rateLimiter := middleware.NewRateLimiter(map[string]int{
		middleware.LimitGenerate: cfg.RateLimit.GeneratePerMinute,
		middleware.LimitRead:     cfg.RateLimit.ReadPerMinute,
	})

	router := api.NewRouter(&api.Dependencies{
		GenerateHandler:   generateHandler,
		ArtifactHandler:   artifactHandler,
		HealthHandler:     healthHandler,
		MetricsHandler:    metricsHandler,
		SessionMiddleware: sessionMiddleware,
		RateLimiter:       rateLimiter,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Background workers
	go workers.RunSessionSweeper(ctx, manager, cfg.Session.SweepInterval)
	go workers.Every(ctx, 10*time.Minute, func() { rateLimiter.Cleanup(10 * time.Minute) })

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	uiURL := "http://" + addr + "/"
	log.Info().
		Str("addr", addr).
		Int("symbol_size", encoder.Size()).
		Int64("max_file_bytes", builder.MaxBytes()).
		Msg("Server starting")
	if cfg.Server.PrintQR {
		fmt.Println("Open " + uiURL)
		qrterminal.GenerateHalfBlock(uiURL, qrterminal.L, os.Stdout)
	}

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server failed")
	}
	log.Info().Msg("Server stopped")
}
