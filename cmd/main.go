package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ipede/oauth-grant-service/internal/application"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/config"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/database"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/jwt"
	"github.com/ipede/oauth-grant-service/internal/infrastructure/repository"
	httprouter "github.com/ipede/oauth-grant-service/internal/interfaces/http"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Create database connection
	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Initialize the ID token signer
	signer, err := jwt.NewSigner(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize ID token signer", zap.Error(err))
	}

	// Create router
	router := httprouter.NewRouter(db, signer, cfg, logger)

	// Background sweep of expired codes and stale tokens
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	maintenance := application.NewMaintenanceService(
		repository.NewCodeRepository(db, logger),
		repository.NewTokenRepository(db, logger),
		cfg, logger,
	)
	go maintenance.Run(sweepCtx, time.Hour)

	// Start server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", zap.Int("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited properly")
}
