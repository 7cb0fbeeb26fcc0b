package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/relief/internal/config"
	"github.com/stwalsh4118/relief/internal/database"
	apierrors "github.com/stwalsh4118/relief/internal/errors"
	"github.com/stwalsh4118/relief/internal/handlers"
	"github.com/stwalsh4118/relief/internal/logger"
	"github.com/stwalsh4118/relief/internal/middleware"
	"github.com/stwalsh4118/relief/internal/repository"
	"github.com/stwalsh4118/relief/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load configuration from environment variables
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting Relief API", map[string]interface{}{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if err := db.Migrate(ctx); err != nil {
		log.Fatal("Failed to apply schema", err, nil)
	}

	// Build repositories once; they hold no connection state
	repoOpts := repository.OptionsFromConfig(cfg.Repository, log)
	stationRepo, err := repository.NewStationRepository(repoOpts...)
	if err != nil {
		log.Fatal("Failed to build station repository", err, nil)
	}
	geometryRepo, err := repository.NewGeometryRepository(repoOpts...)
	if err != nil {
		log.Fatal("Failed to build geometry repository", err, nil)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := apierrors.RegisterTranslations(v); err != nil {
			log.Fatal("Failed to register validation messages", err, nil)
		}
	}

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log, "/health", "/health/ready"))
	router.Use(apierrors.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Initialize service layer over the shared pool
	stationService := services.NewStationService(db.Pool, stationRepo, log)
	geometryService := services.NewGeometryService(db.Pool, geometryRepo, log)

	// Initialize handlers
	stationHandler := handlers.NewStationHandler(stationService)
	geometryHandler := handlers.NewGeometryHandler(geometryService)

	// Register API v1 routes
	v1 := router.Group("/api/v1")
	{
		stations := v1.Group("/stations")
		{
			stations.GET("", stationHandler.List)
			stations.POST("", stationHandler.Create)
			stations.GET("/high-level", stationHandler.HighLevel)
			stations.GET("/:id", stationHandler.Get)
			stations.PATCH("/:id", stationHandler.Update)
			stations.DELETE("/:id", stationHandler.Delete)
		}
		v1.GET("/geometries/:id", geometryHandler.Get)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
