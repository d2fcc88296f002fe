// Package models supplies the currently active part model to the rest of
// the system. The plant-floor database holds the model catalog and a
// single system_state row naming the active model; a watchdog polls it
// and notifies listeners only on real change.
package models

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/weldtech/weldwatch/internal/types"
	"go.uber.org/zap"
)

// Listener receives the full active model whenever it changes. Listeners
// must be cheap and non-blocking; they run on the watchdog goroutine.
type Listener func(types.ActiveModel)

// Provider caches the active model and fans out change notifications.
// The cache is replaced wholesale via an atomic pointer swap, so readers
// never need a lock.
type Provider struct {
	store  *Store
	cached atomic.Pointer[types.ActiveModel]
	logger *zap.SugaredLogger

	mu        sync.Mutex
	listeners []Listener
}

// NewProvider creates a Provider backed by store. store may be nil when
// models are pushed in externally via Apply (tests, fixed-limit setups).
func NewProvider(store *Store, logger *zap.SugaredLogger) *Provider {
	return &Provider{
		store:  store,
		logger: logger,
	}
}

// CachedModel returns the last delivered model, or false if none has been
// delivered yet.
func (p *Provider) CachedModel() (types.ActiveModel, bool) {
	if m := p.cached.Load(); m != nil {
		return *m, true
	}
	return types.ActiveModel{}, false
}

// RegisterListener registers a change callback. If a model is already
// cached, the callback is invoked immediately with it, so late
// subscribers still get the last-known value.
func (p *Provider) RegisterListener(fn Listener) {
	p.mu.Lock()
	p.listeners = append(p.listeners, fn)
	p.mu.Unlock()

	if m := p.cached.Load(); m != nil {
		fn(*m)
	}
}

// Apply replaces the cached model and notifies listeners if it actually
// changed. Safe to call from any goroutine.
func (p *Provider) Apply(m types.ActiveModel) {
	if prev := p.cached.Load(); prev != nil && *prev == m {
		return
	}
	p.cached.Store(&m)

	p.logger.Infof("active model -> %s (id=%d, limits %.2f-%.2f)",
		m.Name, m.ID, m.LowerLimit, m.UpperLimit)

	p.mu.Lock()
	listeners := make([]Listener, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(m)
	}
}

// Watch polls the store for active-model changes until ctx is cancelled.
// Detects both a new active model id and edits to the active model's own
// fields (limits changed while still active).
func (p *Provider) Watch(ctx context.Context, wg *sync.WaitGroup, interval time.Duration) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		if p.store == nil {
			p.logger.Warnf("model watchdog disabled: no model store configured")
			return
		}

		// Prime the cache before the first tick so the detector starts
		// with the last-known model.
		p.poll()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.poll()
			case <-ctx.Done():
				p.logger.Info("model watchdog stopped")
				return
			}
		}
	}()
}

func (p *Provider) poll() {
	m, ok, err := p.store.ActiveModel()
	if err != nil {
		p.logger.Errorf("model watchdog: %v", err)
		return
	}
	if !ok {
		return
	}
	p.Apply(m)
}
