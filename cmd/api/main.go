// Package main is the entry point for the Agency CRM wallet API server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/agency-crm/backend/config"
	"github.com/agency-crm/backend/internal/infra/cache"
	"github.com/agency-crm/backend/internal/infra/db"
	"github.com/agency-crm/backend/internal/infra/dependency"
	"github.com/agency-crm/backend/internal/integration/persistence/model"
)

func main() {
	// Load .env file if it exists (development only)
	_ = godotenv.Load()

	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg := config.Load()

	slog.Info("Starting Agency CRM wallet API",
		"environment", cfg.Server.Environment,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"local_store", cfg.LocalStore.Backend,
		"sync_transport", cfg.Sync.Transport,
	)

	// Initialize database connection
	var gormDB *gorm.DB
	database, err := db.NewConnection(&cfg.Database)
	if err != nil {
		slog.Warn("Database connection failed, running without outbox",
			"error", err,
		)
	} else {
		// Run database migrations
		if err := database.AutoMigrate(
			&model.KVEntryModel{},
			&model.SyncJobModel{},
		); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}
		slog.Info("Database migrations completed successfully")

		gormDB = database.DB()
		defer func() {
			if err := database.Close(); err != nil {
				slog.Error("Failed to close database connection", "error", err)
			}
		}()
	}

	// Initialize Redis connection
	var redisClient *redis.Client
	if cfg.LocalStore.Backend != dependency.StoreBackendSQL {
		redisClient, err = cache.Connect(context.Background(), &cfg.Redis)
		if err != nil {
			slog.Warn("Redis connection failed", "error", err)
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					slog.Error("Failed to close redis connection", "error", err)
				}
			}()
		}
	}

	// Create sync transport
	sender, senderCloser, err := dependency.NewSyncSender(&cfg.Sync)
	if err != nil {
		slog.Error("Failed to create sync transport", "error", err)
		os.Exit(1)
	}
	if senderCloser != nil {
		defer func() {
			if err := senderCloser.Close(); err != nil {
				slog.Error("Failed to close sync transport", "error", err)
			}
		}()
	}

	injector, err := dependency.NewInjector(cfg, gormDB, redisClient, sender)
	if err != nil {
		slog.Error("Failed to wire application", "error", err)
		os.Exit(1)
	}

	// Start sync worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	if injector.Worker != nil {
		go func() {
			defer close(workerDone)
			injector.Worker.Start(workerCtx)
		}()
	} else {
		close(workerDone)
		slog.Info("Sync worker disabled")
	}

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	for _, limiter := range injector.RateLimiters {
		go limiter.RunCleanup(5*time.Minute, stopCleanup)
	}

	engine := injector.Router.Setup(cfg.Server.Environment)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Let immediate deliveries finish before the connections close
	stopWorker()
	<-workerDone
	injector.Dispatcher.Wait()

	slog.Info("Server exited properly")
}
