package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/revlohq/revlo/internal/config"
	"github.com/revlohq/revlo/internal/database"
	"github.com/revlohq/revlo/internal/googleauth"
	"github.com/revlohq/revlo/internal/logging"
	"github.com/revlohq/revlo/internal/mailer"
	"github.com/revlohq/revlo/internal/monitoring"
	"github.com/revlohq/revlo/internal/reminder"
	"github.com/revlohq/revlo/internal/request"
	"github.com/revlohq/revlo/internal/review"
	"github.com/revlohq/revlo/internal/server"
	"github.com/revlohq/revlo/internal/template"
	"github.com/revlohq/revlo/internal/track"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logging
	logging.Setup(&cfg.Logging, cfg.Server.Env)

	log.Info().
		Str("env", cfg.Server.Env).
		Str("base_url", cfg.Server.BaseURL).
		Msg("Starting Revlo API server")

	// Initialize database connection
	db, err := database.New(cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Redis backs the OAuth state store
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to parse Redis URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Initialize Prometheus metrics
	monitoring.Init()
	log.Info().Msg("Prometheus metrics initialized")

	// Start metrics server if enabled
	if cfg.Monitoring.PrometheusEnabled {
		go startMetricsServer(cfg.Monitoring.PrometheusPort)
	}

	// Outbound mail relay
	smtpMailer, err := mailer.New(&cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize mail client")
	}

	// Domain services
	templates := template.NewService(db.Pool)
	requests := request.NewService(db.Pool, smtpMailer, templates, cfg.Server.BaseURL)
	tracker := track.NewService(db.Pool, cfg.Reminder.DefaultRedirect)
	reminders := reminder.NewService(db.Pool, smtpMailer, cfg.Server.BaseURL, cfg.Reminder.Threshold)
	oauth := googleauth.NewService(db.Pool, redisClient, &cfg.Google)
	reviews := review.NewService(db.Pool, review.NewGoogleClient(), oauth)

	// Background reminder sweep; disabled when no interval is configured
	var scheduler *reminder.Scheduler
	if cfg.Reminder.SweepInterval > 0 {
		scheduler = reminder.NewScheduler(reminders, cfg.Reminder.SweepInterval)
		if err := scheduler.Start(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to start reminder scheduler")
		}
		log.Info().
			Dur("interval", cfg.Reminder.SweepInterval).
			Msg("Reminder scheduler started")
	}

	// Create and start server
	srv := server.NewAPIServer(cfg, db.Pool, &server.Services{
		Requests:  requests,
		Tracker:   tracker,
		Reminders: reminders,
		Templates: templates,
		Reviews:   reviews,
		OAuth:     oauth,
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Msg("API server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().
		Str("signal", sig.String()).
		Msg("Shutdown signal received, gracefully shutting down...")

	if scheduler != nil {
		scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}

func startMetricsServer(port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", monitoring.Handler())

	metricsServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info().
		Int("port", port).
		Msg("Prometheus metrics server listening")

	if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("Metrics server error")
	}
}
