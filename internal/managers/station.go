package managers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/weldtech/weldwatch/internal/detector"
	"github.com/weldtech/weldwatch/internal/gate"
	"github.com/weldtech/weldwatch/internal/models"
	"github.com/weldtech/weldwatch/internal/station"
	"github.com/weldtech/weldwatch/pkg/config"
)

// StationManager holds our active welding stations
type StationManager struct {
	Stations []*station.Station
}

// NewStationManager creates a StationManager object, populated with one
// gate+detector+station pipeline per enabled device. Every detector is
// registered as a listener on the model provider so accept limits follow
// the plant's active model, and every finished cycle is handed to the
// storage manager's distributor.
func NewStationManager(ctx context.Context, wg *sync.WaitGroup, configProvider config.ConfigProvider, provider *models.Provider, sm *StorageManager, logger *zap.SugaredLogger) (*StationManager, error) {
	devices, err := configProvider.GetDevices()
	if err != nil {
		return nil, fmt.Errorf("error loading device configuration: %v", err)
	}

	s := StationManager{}

	for _, device := range devices {
		if !device.Enabled {
			logger.Infof("station [%s] is disabled, skipping", device.Name)
			continue
		}

		det := detector.New(detectorParams(device.Detector), sm.Deliver, logger)
		if provider != nil {
			provider.RegisterListener(det.UpdateModel)
		}
		g := gate.New(det.Push, logger)

		st := station.New(ctx, wg, configProvider, device.Name, g, det, logger)
		s.Stations = append(s.Stations, st)
	}

	if len(s.Stations) == 0 {
		return nil, fmt.Errorf("no enabled stations configured")
	}

	return &s, nil
}

// StartStations starts all of the stations
func (s *StationManager) StartStations() error {
	for _, st := range s.Stations {
		err := st.Start()
		if err != nil {
			return err
		}
	}
	return nil
}

// detectorParams maps per-device tuning onto detector parameters,
// falling back to the production defaults for zero values.
func detectorParams(d config.DetectorData) detector.Params {
	p := detector.DefaultParams()
	if d.Threshold != 0 {
		p.Threshold = d.Threshold
	}
	if d.MaxWeldSlope != 0 {
		p.MaxWeldSlope = d.MaxWeldSlope
	}
	if d.MaxPlausibleWeldDepth != 0 {
		p.MaxPlausibleWeldDepth = d.MaxPlausibleWeldDepth
	}
	if d.MinWeldSamples != 0 {
		p.MinWeldSamples = d.MinWeldSamples
	}
	if d.ReferenceStableSlope != 0 {
		p.ReferenceStableSlope = d.ReferenceStableSlope
	}
	if d.ReferenceStableCount != 0 {
		p.ReferenceStableCount = d.ReferenceStableCount
	}
	return p
}
