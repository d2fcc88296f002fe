// Package restserver exposes the line-side HTTP API: station status,
// the active model, recent cycle results, and process-capability stats.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/weldtech/weldwatch/internal/log"
	"github.com/weldtech/weldwatch/internal/models"
	"github.com/weldtech/weldwatch/internal/station"
	"github.com/weldtech/weldwatch/internal/storage/spc"
	"github.com/weldtech/weldwatch/pkg/config"
)

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	Stations   []*station.Station
	Provider   *models.Provider
	SPC        *spc.Engine
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller. The model provider
// and SPC engine may be nil; the corresponding endpoints report absence.
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, stations []*station.Station, provider *models.Provider, spcEngine *spc.Engine, logger *zap.SugaredLogger) (*Controller, error) {
	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		Stations:   stations,
		Provider:   provider,
		SPC:        spcEngine,
		logger:     logger,
	}

	if rc.ListenAddr == "" {
		logger.Info("rest.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	ctrl.handlers = NewHandlers(ctrl)

	router := ctrl.setupRouter()
	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = router

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Info("Starting REST server controller...")
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
			log.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		c.Server.Shutdown(context.Background())
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/api/status", c.handlers.GetStatus)
	router.HandleFunc("/api/model", c.handlers.GetActiveModel)
	router.HandleFunc("/api/cycles", c.handlers.GetRecentCycles)
	router.HandleFunc("/api/spc", c.handlers.GetSPCSummary)

	return router
}
