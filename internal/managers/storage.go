package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/weldtech/weldwatch/internal/log"
	"github.com/weldtech/weldwatch/internal/storage"
	"github.com/weldtech/weldwatch/internal/storage/alert"
	"github.com/weldtech/weldwatch/internal/storage/journal"
	"github.com/weldtech/weldwatch/internal/storage/spc"
	"github.com/weldtech/weldwatch/internal/storage/timescaledb"
	"github.com/weldtech/weldwatch/internal/types"
	"github.com/weldtech/weldwatch/pkg/config"
)

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines           []StorageEngine
	ResultDistributor chan types.CycleResult

	// SPCEngine is kept addressable so the REST controller can query the
	// rolling window; nil when the spc backend is not configured.
	SPCEngine *spc.Engine
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing cycle results to the engine
type StorageEngine struct {
	Engine storage.StorageEngineInterface
	C      chan<- types.CycleResult
}

// NewStorageManager creates a StorageManager object, populated with all
// configured storage engines
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider) (*StorageManager, error) {
	storageConfig, err := configProvider.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading storage configuration: %v", err)
	}

	s := &StorageManager{
		ResultDistributor: make(chan types.CycleResult, 20),
	}

	// Start the result distributor before any engine so results can
	// never back up into the detector path.
	go s.startResultDistributor(ctx, wg)

	if storageConfig.TimescaleDB != nil && storageConfig.TimescaleDB.ConnectionString != "" {
		engine, err := timescaledb.New(ctx, storageConfig.TimescaleDB.ConnectionString)
		if err != nil {
			return s, fmt.Errorf("could not add TimescaleDB storage backend: %v", err)
		}
		s.addEngine(ctx, wg, engine)
	}

	if storageConfig.Journal != nil && storageConfig.Journal.Path != "" {
		engine, err := journal.New(storageConfig.Journal.Path)
		if err != nil {
			return s, fmt.Errorf("could not add journal storage backend: %v", err)
		}
		s.addEngine(ctx, wg, engine)
	}

	if storageConfig.SPC != nil {
		engine := spc.New(storageConfig.SPC.WindowSize)
		s.SPCEngine = engine
		s.addEngine(ctx, wg, engine)
	}

	if storageConfig.Alert != nil && storageConfig.Alert.GatewayURL != "" {
		engine := alert.New(storageConfig.Alert.GatewayURL, storageConfig.Alert.Recipients)
		s.addEngine(ctx, wg, engine)
	}

	return s, nil
}

func (s *StorageManager) addEngine(ctx context.Context, wg *sync.WaitGroup, engine storage.StorageEngineInterface) {
	se := StorageEngine{Engine: engine}
	se.C = engine.StartStorageEngine(ctx, wg)
	s.Engines = append(s.Engines, se)
}

// Deliver hands one cycle result to the distributor without ever
// blocking the caller. A full distributor drops the result with an error
// log; the detector path must not stall on slow storage.
func (s *StorageManager) Deliver(r types.CycleResult) {
	select {
	case s.ResultDistributor <- r:
	default:
		log.Errorf("result distributor full, dropping cycle %s", r.ID)
	}
}

// startResultDistributor receives cycle results from the detectors and
// fans them out to the various storage backends
func (s *StorageManager) startResultDistributor(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	defer wg.Done()

	for {
		select {
		case r := <-s.ResultDistributor:
			if len(s.Engines) == 0 {
				// No storage engines configured - result discarded silently
				continue
			}
			for _, e := range s.Engines {
				e.C <- r
			}
		case <-ctx.Done():
			return
		}
	}
}
