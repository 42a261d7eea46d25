package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for one telemetry window.
// Grounded on the teacher's telemetry/stats.go WindowStats, with the
// organism-specific fields replaced by the physics run's own health
// signals: how loaded the solver was, how big the particle/constraint
// population stayed, and how much churn (breaks, collisions) it saw.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	Frames         int `csv:"frames"`
	OverloadFrames int `csv:"overload_frames"`

	LoadMean float64 `csv:"load_mean"`
	LoadMin  float64 `csv:"load_min"`
	LoadMax  float64 `csv:"load_max"`
	LoadP90  float64 `csv:"load_p90"`

	MeanParticleCount   float64 `csv:"mean_particle_count"`
	MeanPermanentCount  float64 `csv:"mean_permanent_count"`
	MeanTransientCount  float64 `csv:"mean_transient_count"`
	MeanMarionetteCount float64 `csv:"mean_marionette_count"`

	TotalBreaks     int `csv:"total_breaks"`
	TotalCollisions int `csv:"total_collisions"`
}

// Percentile calculates the p-th percentile of a sorted slice using
// linear interpolation between closest ranks. p must be in [0, 1].
// Returns 0 for an empty slice. The rank is p*(len-1), so p = 0.5 over
// [1 2 3 4] gives 2.5. Written by hand because gonum's stat.Quantile
// kinds do not interpolate this way.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := p * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// loadStats computes mean/min/max/p90 over a window's per-frame load
// samples. samples need not be sorted; a sorted copy is used for the
// percentile so the caller's slice order is left intact.
func loadStats(samples []float64) (mean, min, max, p90 float64) {
	if len(samples) == 0 {
		return 0, 0, 0, 0
	}
	mean = stat.Mean(samples, nil)
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	min, max = sorted[0], sorted[len(sorted)-1]
	p90 = Percentile(sorted, 0.90)
	return mean, min, max, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("frames", s.Frames),
		slog.Int("overload_frames", s.OverloadFrames),
		slog.Float64("load_mean", s.LoadMean),
		slog.Float64("load_min", s.LoadMin),
		slog.Float64("load_max", s.LoadMax),
		slog.Float64("load_p90", s.LoadP90),
		slog.Float64("mean_particle_count", s.MeanParticleCount),
		slog.Float64("mean_permanent_count", s.MeanPermanentCount),
		slog.Float64("mean_transient_count", s.MeanTransientCount),
		slog.Float64("mean_marionette_count", s.MeanMarionetteCount),
		slog.Int("total_breaks", s.TotalBreaks),
		slog.Int("total_collisions", s.TotalCollisions),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"frames", s.Frames,
		"overload_frames", s.OverloadFrames,
		"load_mean", s.LoadMean,
		"load_min", s.LoadMin,
		"load_max", s.LoadMax,
		"load_p90", s.LoadP90,
		"mean_particle_count", s.MeanParticleCount,
		"mean_permanent_count", s.MeanPermanentCount,
		"mean_transient_count", s.MeanTransientCount,
		"mean_marionette_count", s.MeanMarionetteCount,
		"total_breaks", s.TotalBreaks,
		"total_collisions", s.TotalCollisions,
	)
}
