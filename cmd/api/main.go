package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fedsearch/identity-gateway/internal/http/handlers"
	imw "github.com/fedsearch/identity-gateway/internal/http/middleware"
	"github.com/fedsearch/identity-gateway/internal/repository"
	"github.com/fedsearch/identity-gateway/internal/search"
	"github.com/fedsearch/identity-gateway/internal/service"
	"github.com/fedsearch/identity-gateway/pkg/config"
	"github.com/fedsearch/identity-gateway/pkg/database"
	"github.com/fedsearch/identity-gateway/pkg/events"
	"github.com/fedsearch/identity-gateway/pkg/logger"
	mw "github.com/fedsearch/identity-gateway/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx := context.Background()

	// Database
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, cfg.Database.URL); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Redis (rate limiting); the limiter fails open, so a missing redis
	// only costs us throttling, not availability.
	var rdb *redis.Client
	if opt, err := redis.ParseURL(cfg.Redis.URL); err != nil {
		logger.Warn("Invalid redis URL, rate limiting disabled", "error", err)
	} else {
		rdb = redis.NewClient(opt)
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("Redis unreachable, requests will not be throttled", "error", err)
		}
		cancel()
	}

	// Event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	activationRepo := repository.NewActivationRepository(pool)
	historyRepo := repository.NewSearchHistoryRepository(pool)

	// Services
	activationService := service.NewActivationService(activationRepo)
	tokenService := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL)
	identityService := service.NewIdentityService(userRepo, activationService, tokenService, eventBus, cfg.Auth.ActivationCodeTTL)

	upstream := search.NewHTTPClient(cfg.Search.UpstreamURL, cfg.Search.CallTimeout, cfg.Search.HealthTimeout)
	searchService := service.NewSearchService(upstream, historyRepo, eventBus)

	// HTTP layer
	authHandler := handlers.NewAuthHandler(identityService)
	searchHandler := handlers.NewSearchHandler(searchService)
	authGate := imw.NewAuthGate(tokenService, userRepo)
	limiter := imw.NewRateLimiter(rdb, 10, time.Minute)

	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(limiter.Limit)
			r.Post("/signup", authHandler.Signup)
			r.Post("/signin", authHandler.Signin)
			r.Post("/activate", authHandler.Activate)
		})

		r.Group(func(r chi.Router) {
			r.Use(authGate.Authenticate)

			r.With(imw.RequireUser).Get("/me", authHandler.Me)

			r.Route("/search", func(r chi.Router) {
				r.Get("/health", searchHandler.Health)
				r.With(imw.RequireUser).Post("/", searchHandler.Search)
				r.With(imw.RequireUser).Get("/history", searchHandler.History)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down identity gateway...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting identity gateway", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
