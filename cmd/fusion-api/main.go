package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/api"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/api/handlers"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/auth"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/config"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/db"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/health"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/logger"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/platform"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/repository"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/scheduler"
	"github.com/sailpoint-oss/colab-saas-conn-sailpoint-identity-fusion-sub001/internal/service"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load and validate configuration first (before logger)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logger with configuration
	logger.Init(cfg.Logger)

	logger.Info().
		Str("environment", cfg.Logger.Environment).
		Str("log_level", cfg.Logger.Level).
		Msg("configuration loaded successfully")

	// Run migrations before connecting to database
	logger.Info().Msg("running database migrations")
	if err := db.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Initialize database
	ctx := context.Background()
	database, err := db.NewDatabase(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("database connected successfully")

	// Initialize the platform API client
	client := platform.NewClient(cfg.Platform)

	// Initialize repositories
	stateRepo := repository.NewFusionStateRepository(database.Pool)
	runRepo := repository.NewRunRepository(database.Pool)

	// Initialize services
	fusionService := service.NewFusionService(client, stateRepo, runRepo)

	// Initialize handlers
	fusionHandler := handlers.NewFusionHandler(fusionService)

	// Initialize and start scheduler
	cronScheduler := scheduler.NewScheduler(fusionService, cfg.Scheduler, cfg.Fusion.SourceIDs)
	if err := cronScheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer cronScheduler.Stop()

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware
	router.Use(api.RequestIDMiddleware())
	router.Use(api.LoggingMiddleware())
	router.Use(api.CORSMiddleware(cfg.CORS))
	router.Use(api.ErrorHandlerMiddleware())

	// Health check endpoint
	healthChecker := health.NewHealthChecker(database, cfg.Database.HealthTimeout)
	router.GET("/health", healthChecker.Handler)

	// API routes
	v1 := router.Group("/api/v1")
	v1.Use(auth.APIKeyMiddleware(cfg))
	{
		fusionRoutes := v1.Group("/fusion")
		{
			fusionRoutes.GET("/reviews", fusionHandler.ListPendingReviews)
			fusionRoutes.POST("/:sourceId/run", fusionHandler.TriggerRun)
			fusionRoutes.GET("/:sourceId/accounts", fusionHandler.ListAccounts)
			fusionRoutes.GET("/:sourceId/status", fusionHandler.GetStatus)
			fusionRoutes.GET("/:sourceId/runs", fusionHandler.ListRuns)
			fusionRoutes.POST("/:sourceId/reset", fusionHandler.RequestReset)
			fusionRoutes.POST("/:sourceId/aggregate", fusionHandler.TriggerAggregation)
		}
	}

	// Start server with configured bind address
	addr := cfg.GetBindAddress()
	// Use a listener so we can discover the selected port when PORT=0
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", addr).Msg("failed to bind listener")
	}

	// Discover the actual port (useful when PORT=0)
	tcpAddr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()
		logger.Fatal().Msg("failed to determine TCP address")
	}
	selectedPort := tcpAddr.Port

	srv := &http.Server{
		Addr:    ln.Addr().String(),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		logger.Info().
			Int("port", selectedPort).
			Str("addr", cfg.Server.Host).
			Msg("starting server")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down server")

	// Give outstanding requests a configured timeout to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited")

	// Print the selected port on graceful exit for supervising processes
	fmt.Printf("PORT=%d\n", selectedPort) //nolint:forbidigo // Intentional stdout output for supervisor
}
