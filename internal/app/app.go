// Package app initializes and runs the library service.
// It configures logging, storage and routing,
// and handles graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patric-chuzhbe/library/internal/config"
	"github.com/patric-chuzhbe/library/internal/db/jsondb"
	"github.com/patric-chuzhbe/library/internal/db/memorystorage"
	"github.com/patric-chuzhbe/library/internal/db/mongodb"
	"github.com/patric-chuzhbe/library/internal/db/postgresdb"
	"github.com/patric-chuzhbe/library/internal/db/storage"
	"github.com/patric-chuzhbe/library/internal/logger"
	"github.com/patric-chuzhbe/library/internal/metrics"
	"github.com/patric-chuzhbe/library/internal/models"
	"github.com/patric-chuzhbe/library/internal/originchecker"
	"github.com/patric-chuzhbe/library/internal/router"
	"github.com/patric-chuzhbe/library/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the configuration, HTTP handler and storage backend
// needed to run the library service.
type App struct {
	cfg         *config.Config
	db          storage.Storage
	httpHandler http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - selecting and setting up storage
// - setting up the router and middleware
func New(optionsProto ...config.InitOption) (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New(optionsProto...)
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = getStorageByType(app.cfg)
	if err != nil {
		return nil, err
	}

	origins, err := originchecker.New()
	if err != nil {
		return nil, err
	}

	app.httpHandler = router.New(
		service.New(app.db),
		origins,
		metrics.New(),
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr(), "storage", a.cfg.Storage)

	server := &http.Server{
		Addr:              a.cfg.RunAddr(),
		Handler:           a.httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Closing storage and exiting...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		if closeErr := a.db.Close(); closeErr != nil {
			logger.Log.Errorln("error while `a.db.Close()` calling:", closeErr)
		}
		return fmt.Errorf("server error: %w", err)
	}
}

// Handler exposes the configured HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpHandler
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}

func getStorageByType(cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageType() {
	case models.StorageTypeMongoDB:
		return mongodb.New(
			context.Background(),
			cfg.MongoURI,
			cfg.MongoDatabase,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypePostgresql:
		return postgresdb.New(
			context.Background(),
			cfg.DatabaseDSN,
			cfg.DBConnectionTimeout,
		)

	case models.StorageTypeFile:
		return jsondb.New(cfg.DBFileName)

	case models.StorageTypeMemory:
		return memorystorage.New()
	}

	return nil, errors.New("unknown storage type")
}
