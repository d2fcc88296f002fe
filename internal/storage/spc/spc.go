// Package spc keeps a rolling window of recent cycle results in memory
// and computes a process-capability summary over the weld depths. The
// REST controller serves both to the dashboard.
package spc

import (
	"context"
	"sync"

	"github.com/weldtech/weldwatch/internal/log"
	"github.com/weldtech/weldwatch/internal/types"
	"gonum.org/v1/gonum/stat"
)

const defaultWindowSize = 200

// Summary is the process-capability snapshot over the current window.
// Cpk uses the supplied accept limits; it is zero when no limits are
// available or the window has fewer than two samples.
type Summary struct {
	Count     int     `json:"count"`
	PassCount int     `json:"pass_count"`
	FailCount int     `json:"fail_count"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"std_dev"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Cpk       float64 `json:"cpk"`
}

// Engine is a storage backend that retains the last windowSize results.
type Engine struct {
	mu     sync.RWMutex
	window []types.CycleResult
	size   int
}

// New creates an Engine with the given window size (0 means default).
func New(windowSize int) *Engine {
	if windowSize <= 0 {
		windowSize = defaultWindowSize
	}
	return &Engine{size: windowSize}
}

// StartStorageEngine creates a goroutine loop to receive cycle results
// and fold them into the window
func (e *Engine) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.CycleResult {
	log.Info("starting SPC window engine...")
	resultChan := make(chan types.CycleResult, 10)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case r := <-resultChan:
				e.Add(r)
			case <-ctx.Done():
				log.Info("cancellation request received, stopping SPC window engine")
				return
			}
		}
	}()

	return resultChan
}

// Add folds one result into the window.
func (e *Engine) Add(r types.CycleResult) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.window = append(e.window, r)
	if len(e.window) > e.size {
		e.window = e.window[1:]
	}
}

// Recent returns up to n of the most recent results, newest first.
func (e *Engine) Recent(n int) []types.CycleResult {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if n <= 0 || n > len(e.window) {
		n = len(e.window)
	}
	out := make([]types.CycleResult, 0, n)
	for i := len(e.window) - 1; i >= len(e.window)-n; i-- {
		out = append(out, e.window[i])
	}
	return out
}

// Summarize computes the capability summary over the current window,
// using limits for Cpk. Pass limits from the active model; a nil limits
// or fewer than two depths yields Cpk 0.
func (e *Engine) Summarize(limits *types.ActiveModel) Summary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Summary{Count: len(e.window)}
	if len(e.window) == 0 {
		return s
	}

	depths := make([]float64, len(e.window))
	s.Min = e.window[0].WeldDepth
	s.Max = e.window[0].WeldDepth
	for i, r := range e.window {
		depths[i] = r.WeldDepth
		if r.WeldDepth < s.Min {
			s.Min = r.WeldDepth
		}
		if r.WeldDepth > s.Max {
			s.Max = r.WeldDepth
		}
		if r.PassFail == types.VerdictPass {
			s.PassCount++
		} else {
			s.FailCount++
		}
	}

	s.Mean = stat.Mean(depths, nil)
	if len(depths) >= 2 {
		s.StdDev = stat.StdDev(depths, nil)
		if limits != nil && s.StdDev > 0 {
			upper := (limits.UpperLimit - s.Mean) / (3 * s.StdDev)
			lower := (s.Mean - limits.LowerLimit) / (3 * s.StdDev)
			if upper < lower {
				s.Cpk = upper
			} else {
				s.Cpk = lower
			}
		}
	}

	return s
}
