package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for a simulation sub-step. Grounded on the teacher's
// telemetry/perf.go phase constants, renamed to the physics pipeline's own
// stages: integrating particles and rebuilding the spatial hash, running
// the broad phase, resetting/breaking permanent constraints, projecting
// the XPBD solve, and snapshotting the frame for the wire protocol.
const (
	PhaseIntegrate    = "integrate"
	PhaseBroadphase   = "broadphase"
	PhasePreIteration = "preiteration"
	PhaseProject      = "project"
	PhaseSnapshot     = "snapshot"
)

// PerfSample holds timing data for a single tick.
type PerfSample struct {
	TickDuration time.Duration
	Phases       map[string]time.Duration
}

// PerfCollector tracks performance metrics over a rolling window.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	tickStart     time.Time
	phaseStart    time.Time
	lastPhase     string

	// Frame timing (for graphics mode)
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of ticks to average over.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	// End previous phase if any
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	// End final phase
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		TickDuration: now.Sub(p.tickStart),
		Phases:       p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records frame-to-frame timing, independent of tick samples.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	// Tick timing
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P90TickDuration time.Duration

	// Phase breakdown (average durations)
	PhaseAvg map[string]time.Duration

	// Phase percentages of total tick time
	PhasePct map[string]float64

	// Throughput
	TicksPerSecond float64

	// Frame timing (graphics mode)
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	// Frame timing is always available (independent of tick samples)
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	// Tick durations as seconds, run through gonum the same way
	// stats.go's loadStats treats a window of load samples: mean via
	// stat.Mean, min/max/p90 off a sorted copy.
	tickSec := make([]float64, p.sampleCount)
	phaseSec := make(map[string][]float64)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		tickSec[i] = s.TickDuration.Seconds()
		for phase, dur := range s.Phases {
			if phaseSec[phase] == nil {
				phaseSec[phase] = make([]float64, p.sampleCount)
			}
			phaseSec[phase][i] = dur.Seconds()
		}
	}

	avgTickSec := stat.Mean(tickSec, nil)
	sortedTick := append([]float64(nil), tickSec...)
	sort.Float64s(sortedTick)
	minTickSec, maxTickSec := sortedTick[0], sortedTick[len(sortedTick)-1]
	p90TickSec := stat.Quantile(0.90, stat.Empirical, sortedTick, nil)

	avgTick := time.Duration(avgTickSec * float64(time.Second))

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, samples := range phaseSec {
		avgSec := stat.Mean(samples, nil)
		phaseAvg[phase] = time.Duration(avgSec * float64(time.Second))
		if avgTick > 0 {
			phasePct[phase] = avgSec / avgTickSec * 100
		}
	}

	var ticksPerSec float64
	if avgTick > 0 {
		ticksPerSec = float64(time.Second) / float64(avgTick)
	}

	return PerfStats{
		AvgTickDuration: avgTick,
		MinTickDuration: time.Duration(minTickSec * float64(time.Second)),
		MaxTickDuration: time.Duration(maxTickSec * float64(time.Second)),
		P90TickDuration: time.Duration(p90TickSec * float64(time.Second)),
		PhaseAvg:        phaseAvg,
		PhasePct:        phasePct,
		TicksPerSecond:  ticksPerSec,
		FrameDuration:   p.frameDuration,
		FPS:             fps,
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTickDuration.Microseconds(),
		"min_tick_us", s.MinTickDuration.Microseconds(),
		"max_tick_us", s.MaxTickDuration.Microseconds(),
		"p90_tick_us", s.P90TickDuration.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	phases := []string{PhaseIntegrate, PhaseBroadphase, PhasePreIteration, PhaseProject, PhaseSnapshot}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("p90_tick_us", s.P90TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd       int32   `csv:"window_end"`
	AvgTickUS       int64   `csv:"avg_tick_us"`
	MinTickUS       int64   `csv:"min_tick_us"`
	MaxTickUS       int64   `csv:"max_tick_us"`
	P90TickUS       int64   `csv:"p90_tick_us"`
	TicksPerSec     float64 `csv:"ticks_per_sec"`
	FPS             float64 `csv:"fps"`
	IntegratePct    float64 `csv:"integrate_pct"`
	BroadphasePct   float64 `csv:"broadphase_pct"`
	PreIterationPct float64 `csv:"preiteration_pct"`
	ProjectPct      float64 `csv:"project_pct"`
	SnapshotPct     float64 `csv:"snapshot_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int32) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:       windowEnd,
		AvgTickUS:       s.AvgTickDuration.Microseconds(),
		MinTickUS:       s.MinTickDuration.Microseconds(),
		MaxTickUS:       s.MaxTickDuration.Microseconds(),
		P90TickUS:       s.P90TickDuration.Microseconds(),
		TicksPerSec:     s.TicksPerSecond,
		FPS:             s.FPS,
		IntegratePct:    s.PhasePct[PhaseIntegrate],
		BroadphasePct:   s.PhasePct[PhaseBroadphase],
		PreIterationPct: s.PhasePct[PhasePreIteration],
		ProjectPct:      s.PhasePct[PhaseProject],
		SnapshotPct:     s.PhasePct[PhaseSnapshot],
	}
}
