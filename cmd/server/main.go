package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"namaz-tracker/internal/calendar"
	"namaz-tracker/internal/config"
	"namaz-tracker/internal/database"
	"namaz-tracker/internal/handlers"
	"namaz-tracker/internal/middleware"
	"namaz-tracker/internal/prayers"
	"namaz-tracker/internal/repository"
	"namaz-tracker/internal/router"
	"namaz-tracker/internal/services"
	"namaz-tracker/internal/websocket"
	"namaz-tracker/internal/worker"
)

func setupLogger(env string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if env == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting namaz tracker server")

	set, err := prayers.NewSet(cfg.Prayers)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid PRAYERS")
	}
	loc, err := calendar.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid TIMEZONE")
	}
	log.Info().Strs("prayers", set.Names()).Str("timezone", loc.String()).Msg("configuration loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("PostgreSQL connection failed")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Redis connection failed")
	}
	defer redisClients.Close()
	log.Info().Msg("Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("database migration failed")
	}
	log.Info().Msg("database migrations applied")

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	prayerRepo := repository.NewPrayerRepo(pool)
	sessionRepo := repository.NewSessionRepo(redisClients.Sessions)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.AccessTokenTTL)
	events := worker.NewPool(services.NewSessionEvents(redisClients.Sessions), cfg.EventWorkers, cfg.EventQueueSize)
	events.Start()
	authService := services.NewAuthService(userRepo, sessionRepo, jwtAuth, events, cfg.RefreshTokenTTL, cfg.MinPasswordLength)
	prayerService := services.NewPrayerService(prayerRepo, events, set, loc, cfg.MaxHistoryDays)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	prayerHandler := handlers.NewPrayerHandler(prayerService)
	dashboardHandler := handlers.NewDashboardHandler(prayerService)

	// ──── Step 5: Start Session Reaper ────
	reaper := services.NewSessionReaper(sessionRepo, events, cfg.SessionSweepInterval)
	reaper.Start()

	// ──── Step 6: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Info().Msg("WebSocket hub started")

	// ──── Step 7: Start HTTP Server ────
	r := router.New(jwtAuth, authHandler, prayerHandler, dashboardHandler, wsHub.HandleWebSocket, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutting down")
		reaper.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
		events.Stop()
		wsHub.Close()
	}()

	log.Info().
		Str("api", fmt.Sprintf("http://localhost:%s/api/v1", cfg.Port)).
		Str("ws", fmt.Sprintf("ws://localhost:%s/api/v1/ws", cfg.Port)).
		Msg("namaz tracker server ready")

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}
	<-shutdownDone
	log.Info().Msg("server stopped")
}
