package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/weldtech/weldwatch/internal/log"
	"github.com/weldtech/weldwatch/internal/managers"
	"github.com/weldtech/weldwatch/internal/models"
	"github.com/weldtech/weldwatch/pkg/config"
)

const defaultModelPollInterval = 500 * time.Millisecond

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfgData, err := a.configProvider.LoadConfig()
	if err != nil {
		return err
	}

	// Initialize the active-model provider, if a model database was
	// configured. Stations run with permissive default limits without it.
	var provider *models.Provider
	var store *models.Store
	if cfgData.ModelDB.Path != "" {
		store, err = models.OpenStore(cfgData.ModelDB.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		interval := defaultModelPollInterval
		if cfgData.ModelDB.PollInterval != "" {
			interval, err = time.ParseDuration(cfgData.ModelDB.PollInterval)
			if err != nil {
				a.logger.Fatalf("invalid model-db poll-interval %q: %v", cfgData.ModelDB.PollInterval, err)
			}
		}

		provider = models.NewProvider(store, a.logger)
		provider.Watch(ctx, &wg, interval)
	} else {
		log.Warn("no model database configured; cycles will use permissive default limits")
	}

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, &wg, a.configProvider)
	if err != nil {
		return err
	}

	// Initialize the station manager
	stm, err := managers.NewStationManager(ctx, &wg, a.configProvider, provider, storageManager, a.logger)
	if err != nil {
		return err
	}
	err = stm.StartStations()
	if err != nil {
		return err
	}

	// Initialize the controller manager
	cm, err := managers.NewControllerManager(ctx, &wg, a.configProvider, stm, provider, storageManager, a.logger)
	if err != nil {
		return err
	}
	err = cm.StartControllers()
	if err != nil {
		return err
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
