// Package detector implements the weld-cycle state machine. It consumes a
// time-ordered stream of gated laser height samples and emits one
// CycleResult per completed, validated weld cycle.
//
// Phases of one cycle, observed as a rise-plateau-fall pattern in height:
//
//	IDLE     below threshold, nothing happening
//	ARMED    above threshold, hunting for a stable reference height
//	WELDING  reference locked, tracking collapse depth
//	POST     retraction detected, waiting for height to fall below threshold
//
// The detector is exclusively owned by the station reader goroutine; only
// UpdateModel, UpdateThreshold, and tuning reads are safe to race against
// Push, via whole-structure atomic replacement.
package detector

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/weldtech/weldwatch/internal/types"
	"go.uber.org/zap"
)

// Params are the tunable constants of the state machine, in millimeters
// and sample counts. Slopes are per-sample deltas against the previous
// raw sample; no smoothing is applied.
type Params struct {
	// Threshold is the height above which a cycle is considered
	// started or still ongoing.
	Threshold float64

	// MaxWeldSlope is the negative per-sample slope magnitude beyond
	// which retraction is declared and the welding phase ends.
	MaxWeldSlope float64

	// MaxPlausibleWeldDepth is the absolute depth below the reference
	// beyond which retraction is declared regardless of slope. Safety
	// bound against runaway values.
	MaxPlausibleWeldDepth float64

	// MinWeldSamples is the minimum number of samples the welding phase
	// must collect for the cycle to be valid.
	MinWeldSamples int

	// ReferenceStableSlope is the maximum per-sample slope magnitude
	// considered stable while hunting for the reference height.
	ReferenceStableSlope float64

	// ReferenceStableCount is the number of consecutive stable samples
	// required to lock the reference.
	ReferenceStableCount int
}

// DefaultParams returns the tuning used on the production line.
func DefaultParams() Params {
	return Params{
		Threshold:             1.0,
		MaxWeldSlope:          2.0,
		MaxPlausibleWeldDepth: 10.0,
		MinWeldSamples:        5,
		ReferenceStableSlope:  0.4,
		ReferenceStableCount:  5,
	}
}

// Detector is the weld-cycle state machine. One Push call consumes exactly
// one sample; samples must arrive in order. The detector has no timestamp
// dependency of its own beyond stamping finished results.
type Detector struct {
	params  atomic.Pointer[Params]
	model   atomic.Pointer[types.ActiveModel]
	onCycle func(types.CycleResult)
	logger  *zap.SugaredLogger

	inCycle         bool
	referenceLocked bool
	welding         bool
	referenceHeight float64
	minHeight       float64
	maxHeight       float64
	prevValue       float64
	stableCount     int
	rawSamples      []float64
	weldSamples     []float64
}

// New creates a Detector. onCycle receives each finished CycleResult and
// must not block; a panicking consumer is logged and does not disturb the
// detector's post-finalize reset.
func New(params Params, onCycle func(types.CycleResult), logger *zap.SugaredLogger) *Detector {
	d := &Detector{
		onCycle: onCycle,
		logger:  logger,
	}
	d.params.Store(&params)
	return d
}

// UpdateModel replaces the cached accept limits and model metadata. Safe
// to call at any time from any goroutine; a cycle in progress is not
// interrupted, since limits are read only at finalization.
//
// This also satisfies the active-model listener signature, so the
// detector can be registered directly with the model provider.
func (d *Detector) UpdateModel(m types.ActiveModel) {
	d.model.Store(&m)
	d.logger.Infof("detector model -> %s | limits %.2f-%.2f", m.Name, m.LowerLimit, m.UpperLimit)
}

// UpdateThreshold replaces the cycle-start threshold. Takes effect on the
// next sample; there is no special cycle-boundary handling.
func (d *Detector) UpdateThreshold(value float64) {
	p := *d.params.Load()
	p.Threshold = value
	d.params.Store(&p)
}

// Params returns the current tuning.
func (d *Detector) Params() Params {
	return *d.params.Load()
}

// ForceReset abandons any in-progress cycle without emitting a result.
// The station calls this on transport loss so a half-observed cycle
// cannot stall the state machine.
func (d *Detector) ForceReset() {
	if d.inCycle {
		d.logger.Warnf("in-progress cycle abandoned by forced reset")
	}
	d.reset()
	d.prevValue = 0
}

// Push consumes one gated height sample.
func (d *Detector) Push(value float64) {
	p := d.params.Load()

	if !d.inCycle {
		if value > p.Threshold {
			d.startCycle(value)
		}
		return
	}

	d.rawSamples = append(d.rawSamples, value)
	slope := value - d.prevValue
	d.prevValue = value

	// Hunt for the reference height: no depth tracking happens before
	// the reference is locked, even above threshold.
	if !d.referenceLocked {
		if math.Abs(slope) < p.ReferenceStableSlope {
			d.stableCount++
			if d.stableCount >= p.ReferenceStableCount {
				d.lockReference(value)
			}
		} else {
			d.stableCount = 0
		}
		return
	}

	if d.welding {
		if slope < -p.MaxWeldSlope || value < d.referenceHeight-p.MaxPlausibleWeldDepth {
			// Retraction: welding phase over, cycle still open.
			d.welding = false
			d.logger.Debugf("retraction detected at %.2f (slope %.2f)", value, slope)
		} else {
			d.weldSamples = append(d.weldSamples, value)
			if value < d.minHeight {
				d.minHeight = value
			}
			if value > d.maxHeight {
				d.maxHeight = value
			}
		}
	}

	if !d.welding && value <= p.Threshold {
		d.finalize(p)
	}
}

func (d *Detector) startCycle(value float64) {
	d.reset()
	d.inCycle = true
	d.rawSamples = append(d.rawSamples, value)
	d.prevValue = value

	d.logger.Debugf("cycle start at %.2f", value)
}

func (d *Detector) lockReference(value float64) {
	d.referenceHeight = value
	d.referenceLocked = true
	d.welding = true
	d.minHeight = value
	d.maxHeight = value
	d.weldSamples = append(d.weldSamples, value)

	d.logger.Debugf("reference locked at %.2f after %d stable samples", value, d.stableCount)
}

// finalize closes the cycle: either emits a CycleResult or discards the
// cycle as a spurious trigger. Either way, all state returns to idle.
func (d *Detector) finalize(p *Params) {
	defer d.reset()

	if !d.referenceLocked || len(d.weldSamples) < p.MinWeldSamples {
		d.logger.Debugf("cycle discarded: locked=%v weld samples=%d (min %d)",
			d.referenceLocked, len(d.weldSamples), p.MinWeldSamples)
		return
	}

	depth := round2(d.referenceHeight - d.minHeight)

	// Limits and model metadata are read once, here, so a mid-cycle
	// model switch cannot produce a result that mixes two models.
	model := d.activeModel()

	verdict := types.VerdictFail
	if model.LowerLimit <= depth && depth <= model.UpperLimit {
		verdict = types.VerdictPass
	}

	result := types.CycleResult{
		ID:              uuid.NewString(),
		Timestamp:       time.Now(),
		ReferenceHeight: round2(d.referenceHeight),
		MinHeight:       round2(d.minHeight),
		MaxHeight:       round2(d.maxHeight),
		WeldDepth:       depth,
		PassFail:        verdict,
		ModelID:         model.ID,
		ModelName:       model.Name,
		ModelType:       model.ModelType,
	}

	d.logger.Infof("cycle end: ref=%.2f depth=%.2f -> %s [%s]",
		result.ReferenceHeight, result.WeldDepth, result.PassFail, result.ModelName)

	d.emit(result)
}

// emit hands the result to the consumer. A consumer failure must not
// propagate back into the sampling path or skip the state reset.
func (d *Detector) emit(result types.CycleResult) {
	if d.onCycle == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("cycle consumer failed: %v", r)
		}
	}()
	d.onCycle(result)
}

// activeModel returns the cached model, or permissive defaults when no
// model has been activated yet.
func (d *Detector) activeModel() types.ActiveModel {
	if m := d.model.Load(); m != nil {
		return *m
	}
	return types.ActiveModel{
		Name:       "Unknown",
		ModelType:  "N/A",
		LowerLimit: 0.0,
		UpperLimit: 100.0,
	}
}

func (d *Detector) reset() {
	d.inCycle = false
	d.referenceLocked = false
	d.welding = false
	d.referenceHeight = 0
	d.minHeight = 0
	d.maxHeight = 0
	d.stableCount = 0
	d.rawSamples = d.rawSamples[:0]
	d.weldSamples = d.weldSamples[:0]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
