package telemetry

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Package-local Collector accumulates per-frame simulation health samples
// within a time window and produces a WindowStats on flush. Grounded on
// the teacher's telemetry/collector.go: same windowed
// accumulate-then-flush shape, with the organism event counters replaced
// by the physics run's own per-frame signals (solver load, population
// sizes, break and collision churn).

// Collector accumulates samples within time windows and produces
// WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	windowStartTick int32

	loadSamples       []float64
	particleSamples   []float64
	permanentSamples  []float64
	transientSamples  []float64
	marionetteSamples []float64

	overloadFrames  int
	totalBreaks     int
	totalCollisions int
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation
// seconds. dt: seconds per tick, used for tick-to-time conversion and to
// size the window in ticks.
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(math.Round(windowDurationSec / float64(dt)))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordFrame records one frame's solver load and population counts.
// Counts are in protocol.UpdateInfo.ConstraintLen order: permanent,
// transient, marionette.
func (c *Collector) RecordFrame(load float32, particleCount int, permanent, transient, marionette int) {
	c.loadSamples = append(c.loadSamples, float64(load))
	c.particleSamples = append(c.particleSamples, float64(particleCount))
	c.permanentSamples = append(c.permanentSamples, float64(permanent))
	c.transientSamples = append(c.transientSamples, float64(transient))
	c.marionetteSamples = append(c.marionetteSamples, float64(marionette))
	if load > 1 {
		c.overloadFrames++
	}
}

// RecordBreaks accumulates the number of constraints removed this frame
// (direct breaks plus cascade-removed dependents).
func (c *Collector) RecordBreaks(n int) { c.totalBreaks += n }

// RecordCollisions accumulates the number of broad-phase collision
// contacts generated this frame.
func (c *Collector) RecordCollisions(n int) { c.totalCollisions += n }

// ShouldFlush returns true if enough ticks have passed to flush the
// window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the accumulated samples and resets
// counters for the next window.
func (c *Collector) Flush(currentTick int32) WindowStats {
	loadMean, loadMin, loadMax, loadP90 := loadStats(c.loadSamples)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Frames:         len(c.loadSamples),
		OverloadFrames: c.overloadFrames,

		LoadMean: loadMean,
		LoadMin:  loadMin,
		LoadMax:  loadMax,
		LoadP90:  loadP90,

		MeanParticleCount:   meanOf(c.particleSamples),
		MeanPermanentCount:  meanOf(c.permanentSamples),
		MeanTransientCount:  meanOf(c.transientSamples),
		MeanMarionetteCount: meanOf(c.marionetteSamples),

		TotalBreaks:     c.totalBreaks,
		TotalCollisions: c.totalCollisions,
	}

	c.windowStartTick = currentTick
	c.loadSamples = nil
	c.particleSamples = nil
	c.permanentSamples = nil
	c.transientSamples = nil
	c.marionetteSamples = nil
	c.overloadFrames = 0
	c.totalBreaks = 0
	c.totalCollisions = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}

// meanOf guards gonum's stat.Mean against an empty sample set, which it
// does not accept on its own.
func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return stat.Mean(xs, nil)
}
