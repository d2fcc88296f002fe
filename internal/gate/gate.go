// Package gate suppresses laser height samples unless the PLC has
// confirmed the machine is powered and running. The cycle detector has no
// independent way to distinguish "machine off" from "part retracted", so
// it must never see a height stream outside an active run.
package gate

import (
	"sync"

	"github.com/weldtech/weldwatch/internal/types"
	"go.uber.org/zap"
)

// PLC state tokens with defined meaning. Any other state token is
// free-form and blocks laser forwarding.
const (
	StateRunning = "RUNNING"
	StateOffline = "OFFLINE"
)

// Gate holds the last-known PLC status and forwards height samples to the
// detector only while the gating predicate holds. Dropped samples are
// permanently lost; there is no buffering.
//
// The forwarding path runs on the single station reader goroutine. The
// mutex exists only so the status surface can be read from other
// goroutines (REST handlers).
type Gate struct {
	mu      sync.RWMutex
	power   bool
	state   string
	synced  bool
	forward func(float64)
	logger  *zap.SugaredLogger
}

// New creates a Gate in the fail-safe offline state. forward receives
// every sample that passes the gating predicate.
func New(forward func(float64), logger *zap.SugaredLogger) *Gate {
	return &Gate{
		state:   StateOffline,
		forward: forward,
		logger:  logger,
	}
}

// SetPower replaces the cached PLC status unconditionally. No smoothing,
// no debounce: the PLC frame is authoritative.
func (g *Gate) SetPower(status types.PowerStatus) {
	g.mu.Lock()
	g.power = status.Power
	g.state = status.State
	g.synced = true
	g.mu.Unlock()
}

// Offer forwards the sample to the detector iff the machine is confirmed
// powered and in the RUNNING state. Samples arriving before the first PLC
// frame after a (re)connect are dropped: the link is not synced yet.
func (g *Gate) Offer(value float64) {
	g.mu.RLock()
	open := g.synced && g.power && g.state == StateRunning
	g.mu.RUnlock()

	if !open {
		return
	}
	g.forward(value)
}

// Reset returns the gate to the fail-safe offline default. The station
// calls this on every connect, reconnect, and watchdog trip: loss of
// communication means laser data is never forwarded.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.power = false
	g.state = StateOffline
	g.synced = false
	g.mu.Unlock()

	g.logger.Debugf("gate reset to offline defaults")
}

// Status returns the last-known PLC status for external status displays.
func (g *Gate) Status() types.PowerStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return types.PowerStatus{Power: g.power, State: g.state}
}
