package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/procurement-risk/internal/api"
	"github.com/andresuchdata/procurement-risk/internal/cache"
	"github.com/andresuchdata/procurement-risk/internal/config"
	"github.com/andresuchdata/procurement-risk/internal/procurement"
	"github.com/andresuchdata/procurement-risk/internal/repository/postgres"
	"github.com/andresuchdata/procurement-risk/internal/service"
	"github.com/andresuchdata/procurement-risk/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Setup(cfg.Server.Mode, cfg.Server.LogFormat)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	schemaCtx, cancelSchema := context.WithTimeout(context.Background(), 30*time.Second)
	if err := postgres.EnsureSchema(schemaCtx, db); err != nil {
		cancelSchema()
		logger.Log.Fatal().Err(err).Msg("Failed to apply database schema")
	}
	cancelSchema()

	procurementCache, err := cache.NewProcurementCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Redis cache unavailable, continuing without cache")
		procurementCache = cache.NewNoopProcurementCache()
	}

	// Initialize services
	procurementService := service.NewProcurementService(
		postgres.NewProcurementRepository(db),
		procurementCache,
		procurement.NewCalculator(procurement.PolicyFromConfig(cfg.Procurement)),
		service.WithForecastWorkers(cfg.Procurement.ForecastWorkers),
	)

	// Initialize HTTP server
	router := api.NewRouter(&api.Services{ProcurementService: procurementService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
