package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/jobboard-be/internal/api"
	"github.com/isdelr/jobboard-be/internal/auth"
	"github.com/isdelr/jobboard-be/internal/config"
	"github.com/isdelr/jobboard-be/internal/database"
	"github.com/isdelr/jobboard-be/internal/logger"
	"github.com/isdelr/jobboard-be/internal/scheduler"
	"github.com/isdelr/jobboard-be/internal/services"
	ws "github.com/isdelr/jobboard-be/internal/websocket"
)

func main() {
	configPath := flag.String("config", "", "path to a config file (yaml, json or toml)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Log.Level, cfg.Log.Pretty)

	// Set up database
	db, err := database.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up services
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	eventService := services.NewEventService(db)
	userService := services.NewUserService(db, tokens, eventService)
	jobService := services.NewJobService(db, eventService)

	if cfg.Database.SeedFile != "" {
		n, err := jobService.LoadSeedFile(context.Background(), cfg.Database.SeedFile)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Database.SeedFile).Msg("Failed to seed job listings")
		}
		log.Info().Int("listings", n).Msg("Seeded job listings")
	}

	// Start background workers
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub()
	go hub.Run(hubCtx)

	sched, err := scheduler.New(eventService, cfg.Maintenance.PruneSchedule, cfg.Maintenance.EventRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure scheduler")
	}
	sched.Start()

	// Set up router
	router := api.NewRouter(api.Dependencies{
		Users:          userService,
		Jobs:           jobService,
		Events:         eventService,
		DB:             db,
		Auth:           tokens.Middleware(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Hub:            hub,
	})

	// Set up server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	stopHub()
	<-sched.Stop().Done()

	log.Info().Msg("Server exiting")
}
