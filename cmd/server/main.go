package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"flightplanner/internal/aircraft"
	"flightplanner/internal/config"
	"flightplanner/internal/database"
	"flightplanner/internal/flightplan"
	"flightplanner/internal/handler"
	"flightplanner/internal/jwtauth"
	"flightplanner/internal/logging"
	"flightplanner/internal/middleware"
	"flightplanner/internal/navcalc"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, closer := logging.New(cfg.Log.Level, cfg.Log.File)
	slog.SetDefault(logger)

	err = run(cfg, logger)
	if err != nil {
		logger.Error("server exited with error", slog.Any("error", err))
	}
	_ = closer.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	deps := &handler.Deps{
		Config:  cfg,
		Planner: flightplan.NewPlanner(navcalc.FixedDeclination(cfg.MagneticDeclination)),
		Logger:  logger,
	}

	if cfg.Database.Enabled() {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				logger.Error("error closing database connection", slog.Any("error", err))
			}
		}()
		logger.Info("database connection established")

		if err := db.MigrateUp(context.Background()); err != nil {
			return err
		}
		version, dirty, err := db.MigrateVersion(context.Background())
		switch {
		case err != nil:
			logger.Warn("failed to get migration version", slog.Any("error", err))
		case dirty:
			logger.Warn("database is in dirty state, manual intervention is required", slog.Uint64("version", uint64(version)))
		default:
			logger.Info("database migrations complete", slog.Uint64("version", uint64(version)))
		}

		manager, err := aircraft.NewManager(aircraft.NewDatastore(db.DB), cfg.AircraftCacheSize)
		if err != nil {
			return err
		}
		deps.AircraftManager = manager
		deps.DB = db
	} else {
		logger.Info("DATABASE_URL not set, aircraft registry disabled")
	}

	if cfg.Auth0.Enabled() {
		verifier, err := jwtauth.NewVerifier(jwtauth.Config{
			Domain:   cfg.Auth0.Domain,
			Audience: cfg.Auth0.Audience,
		}, logger)
		if err != nil {
			return err
		}
		deps.Verifier = verifier
		logger.Info("Auth0 JWT verification enabled", slog.String("domain", cfg.Auth0.Domain))
	} else if deps.AircraftManager != nil {
		logger.Warn("Auth0 not configured, aircraft registry writes are unauthenticated")
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, deps)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.Chain(mux, middleware.Standard(logger, cfg.CORSAllowedOrigins)...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("flight planner starting", slog.String("port", cfg.Port), slog.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("initiating graceful shutdown, waiting for in-flight requests")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed, forcing shutdown", slog.Any("error", err))
			return server.Close()
		}

		logger.Info("server shutdown complete")
		return nil
	})

	return g.Wait()
}
