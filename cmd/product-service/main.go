package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kembakery/cakeshop/internal/auth"
	"github.com/kembakery/cakeshop/internal/cakeoption"
	"github.com/kembakery/cakeshop/internal/client"
	"github.com/kembakery/cakeshop/internal/config"
	"github.com/kembakery/cakeshop/internal/db"
	shopHttp "github.com/kembakery/cakeshop/internal/handler/http"
	"github.com/kembakery/cakeshop/internal/review"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "product-service").Logger()

	log.Info().Msg("Product service starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if err := db.ApplyMigrations(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	postgres, err := db.New(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer postgres.Close()

	verifier := auth.NewVerifier(cfg.JWT.Secret)

	optionRepository := cakeoption.NewRepository(postgres.Pool)
	optionService := cakeoption.NewService(optionRepository)
	optionHandler := shopHttp.NewCakeOptionHandler(optionService)

	ordersClient := client.NewOrdersClient(cfg.Services.OrderURL)
	usersClient := client.NewUsersClient(cfg.Services.UserURL)

	reviewRepository := review.NewRepository(postgres.Pool)
	reviewService := review.NewService(reviewRepository, ordersClient, usersClient)
	reviewHandler := shopHttp.NewReviewHandler(reviewService, verifier)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	optionHandler.RegisterRoutes(router)
	reviewHandler.RegisterRoutes(router)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Shutdown failed")
	}

	log.Info().Msg("Product service stopped gracefully")
}
