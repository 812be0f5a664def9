/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the duty roster server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (file, .env, environment)
  2. Build the zap logger
  3. Initialize the store: SQLite (migrations run on open) or memory
  4. Create API handler and router
  5. Start the overdue-resumption monitor
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  Path to a YAML config file (optional)
  -port    Overrides server.port
  -db      Overrides database.path. Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the monitor
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -config=./config/config.yaml
  ROSTER_DATABASE_PATH=":memory:" ROSTER_LOG_FORMAT=console ./server

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/warp/duty-roster/api"
	"github.com/warp/duty-roster/config"
	"github.com/warp/duty-roster/store/memory"
	"github.com/warp/duty-roster/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "Path to YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// Initialize store
	store, closeStore, err := openStore(cfg.Database)
	if err != nil {
		logger.Fatal("failed to initialize database",
			zap.String("driver", cfg.Database.Driver),
			zap.String("path", cfg.Database.Path),
			zap.Error(err))
	}
	defer closeStore()

	// Initialize handler and router
	handler := api.NewHandler(store, logger)
	router := api.NewRouter(handler, cfg.Server.AllowOrigins)

	monitor := api.NewResumptionMonitor(handler.Leaves, logger.Named("monitor"), cfg.Monitor.Interval)
	monitor.Enabled = cfg.Monitor.Enabled
	monitor.Start()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("driver", cfg.Database.Driver),
			zap.String("database", cfg.Database.Path))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	monitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

// openStore opens the configured store and returns its close function.
func openStore(cfg config.DatabaseConfig) (api.Store, func() error, error) {
	if cfg.Driver == "memory" {
		return memory.New(), func() error { return nil }, nil
	}
	store, err := sqlite.New(cfg.Path)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}
