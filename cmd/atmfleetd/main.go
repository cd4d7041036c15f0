package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"atm-fleet-backend/config"
	"atm-fleet-backend/internal/api"
	"atm-fleet-backend/internal/db"
	"atm-fleet-backend/internal/health"
	"atm-fleet-backend/internal/notification"
	"atm-fleet-backend/internal/report"
	"atm-fleet-backend/internal/sdk"
	"atm-fleet-backend/internal/store"
	"atm-fleet-backend/internal/tasks"
)

func main() {
	logger := log.New(os.Stdout, "atm-fleet-backend ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	// Check for VAPID keys
	if cfg.Push.PublicKey == "" || cfg.Push.PrivateKey == "" {
		logger.Fatalf("VAPID keys must be configured. Please generate them and add them to your config file.")
	}

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logger.Fatalf("failed to run migrations: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Notification fan-out: assignment alerts go through the worker pool so
	// the assignment path never blocks on push delivery.
	textSender := notification.NewHTTPProviderSender(&cfg.Notify)
	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, &webpushOptions, textSender)
	pool.Start(ctx)

	taskSvc := tasks.NewService(appStore, pool)
	sdkSvc := sdk.NewService(appStore, taskSvc, &cfg.Withdrawal)
	reports := report.NewGenerator(appStore, report.NewHTTPGenerator(&cfg.AI))

	// Run the health monitor in the background
	monitor := health.NewMonitor(&cfg.Monitor, appStore, taskSvc)
	go monitor.Run(ctx)

	// Initialize router
	router := api.NewRouter(appStore, taskSvc, sdkSvc, reports, cfg)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
