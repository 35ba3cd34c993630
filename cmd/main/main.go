package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"prop-backend/src/config"
	"prop-backend/src/interfaces"
	"prop-backend/src/logger"
	"prop-backend/src/server"
	"prop-backend/src/state"
	"prop-backend/src/storage"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "./config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file (env overrides applied inside)
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(conf.MConfig, conf.Name)

	// Setup snapshot store
	store, err := setupSnapshotStore(conf, appLogger)
	if err != nil {
		appLogger.Critical("Failed to init snapshot store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		appLogger.Critical("Failed to initialize snapshot store: %v", err)
	}

	// Application state: seeds first, then merge the persisted snapshot
	appState := state.NewAppState(store, logger.NewLogger(conf.MConfig, "AppState"))
	appState.Restore()

	// Web server
	srv := server.NewWebServer(conf.MConfig, appState, logger.NewLogger(conf.MConfig, "WebServer"))

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down...")
	if err := srv.Stop(); err != nil {
		appLogger.Error("Stopping server: %v", err)
	}
	if err := store.Close(); err != nil {
		appLogger.Error("Closing snapshot store: %v", err)
	}
	appLogger.Info("Shutdown complete.")
}

// -----------------------------------------------------------------------------

// setupSnapshotStore picks the persistence backend based on config
func setupSnapshotStore(conf *config.Config, appLogger *logger.Logger) (interfaces.ISnapshotStore, error) {
	switch conf.Storage.DBType {
	case "postgres":
		pgLogger := logger.NewLogger(conf.MConfig, "PostgresStore")
		return storage.NewPostgresSnapshotStore(conf.MConfig, pgLogger)
	case "sqlite":
		sqliteLogger := logger.NewLogger(conf.MConfig, "SQLiteStore")
		return storage.NewSQLiteSnapshotStore(conf.MConfig, sqliteLogger)
	default:
		// Default to the JSON document store
		jsonLogger := logger.NewLogger(conf.MConfig, "JSONStore")
		return storage.NewJSONSnapshotStore(conf.MConfig, jsonLogger)
	}
}
