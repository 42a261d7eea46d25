// Package world wires particle.Group and constraint.Group into a single
// running simulation: instantiating PhysicalModel templates, advancing
// frames, and exposing the protocol surface a front end drives.
//
// Grounded on original_source/src/xpbd/src/pworld.rs's PWorld.
package world

import (
	"log/slog"
	"time"

	"github.com/archlab/xpbd2d/config"
	"github.com/archlab/xpbd2d/constraint"
	"github.com/archlab/xpbd2d/model"
	"github.com/archlab/xpbd2d/particle"
	"github.com/archlab/xpbd2d/protocol"
	"github.com/archlab/xpbd2d/telemetry"
)

// World owns a live simulation: every particle, every constraint, and the
// timing/solver parameters driving them.
type World struct {
	dt         float32
	ppr        int
	iteration  int
	timeScale  float32
	sequential bool

	cellSize            float32
	collisionCompliance float32
	leashCompliance     float32

	pg *particle.Group
	cg *constraint.Group

	forwardFrames int // -1 runs forever, 0 paused, >0 steps down to 0 then pauses
	firstFrame    bool

	tick int32

	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
}

// New builds a World from a loaded config. Defaults mirror PWorld::new in
// pworld.rs: dt 0.005, 5 particles-per-render ticks per frame, 6 solver
// iterations per tick, time_scale 1, running (forwardFrames -1).
func New(cfg *config.Config) *World {
	box := particle.Posbox{
		XMin: float32(cfg.Posbox.XMin), XMax: float32(cfg.Posbox.XMax),
		YMin: float32(cfg.Posbox.YMin), YMax: float32(cfg.Posbox.YMax),
	}
	return &World{
		dt:                   float32(cfg.Physics.DT),
		ppr:                  cfg.Physics.ParticlesPerRender,
		iteration:            cfg.Physics.Iteration,
		timeScale:            float32(cfg.Physics.TimeScale),
		sequential:           cfg.Physics.Sequential,
		cellSize:             float32(cfg.Physics.CellSize),
		collisionCompliance:  float32(cfg.Compliance.Collision),
		leashCompliance:      float32(cfg.Compliance.Leash),
		pg:                   particle.NewGroup(float32(cfg.Physics.CellSize), float32(cfg.Physics.SpeedLimitK), box),
		cg:                   constraint.NewGroup(),
		forwardFrames:        -1,
		firstFrame:           true,
	}
}

// WithPaused starts the world paused, matching PWorld::with_paused
// (forward_frames = 1, i.e. the very next RunFrame call renders one
// snapshot and then holds).
func (w *World) WithPaused() *World {
	w.forwardFrames = 1
	return w
}

// AttachTelemetry wires in optional telemetry sinks. Any argument may be
// nil to disable that sink; World checks each sink for nil before using
// it.
func (w *World) AttachTelemetry(c *telemetry.Collector, p *telemetry.PerfCollector, o *telemetry.OutputManager) {
	w.collector = c
	w.perf = p
	w.output = o
}

// Particles exposes the underlying particle group, e.g. for a controller
// to resolve a click into a particle ID.
func (w *World) Particles() *particle.Group { return w.pg }

// AddModel instantiates a PhysicalModel template at the given world-space
// offset: every particle template becomes a live particle, every
// constraint template becomes a live permanent constraint, and dependency
// pairs are wired so a broken base constraint cascades its removal.
// Returns the new constraint IDs in template order. Grounded on
// PWorld::add_model in pworld.rs.
func (w *World) AddModel(m model.PhysicalModel, offset particle.Vec2) []uint64 {
	particles := make([]*particle.Particle, len(m.Particles))
	for i, pt := range m.Particles {
		pos := pt.Pos.Add(offset)
		particles[i] = w.pg.Add(pt.Imass, pos, pt.Accel)
	}

	ids := make([]uint64, len(m.Constraints))
	for i, ct := range m.Constraints {
		switch {
		case ct.Distance != nil:
			t := ct.Distance
			d := constraint.NewDistanceFromRest(particles[t.A], particles[t.B]).
				WithID(t.ID).
				WithCompliance(float32(t.Compliance)).
				WithType(constraint.Type(t.Type)).
				WithPlasticity(t.PlasThresh, t.PlasCutoff).
				WithBreakRange(t.BreakLo, t.BreakHi)
			ids[i] = w.cg.AddPermanent(d)
		case ct.Volume != nil:
			t := ct.Volume
			v := constraint.NewVolume(particles[t.A], particles[t.B], particles[t.C]).
				WithID(t.ID).
				WithCompliance(float32(t.Compliance))
			ids[i] = w.cg.AddPermanent(v)
		}
	}

	for _, dep := range m.Dependencies {
		w.cg.AddDependency(ids[dep.Dependent], ids[dep.Base])
	}

	return ids
}

// Control pins particle id toward target via a leash constraint.
func (w *World) Control(id particle.ID, target particle.Vec2) {
	p, ok := w.pg.Get(id)
	if !ok {
		slog.Warn("control dropped", "particle_id", uint64(id), "reason", "unknown particle id")
		return
	}
	w.cg.Control(p, target, w.leashCompliance)
}

// Uncontrol releases any leash pin on particle id and zeroes its implied
// velocity, so a just-released drag doesn't fling the particle off with
// whatever correction the leash last applied.
func (w *World) Uncontrol(id particle.ID) {
	w.cg.Uncontrol(id)
	if p, ok := w.pg.Get(id); ok {
		p.Lock()
		p.ResetLocked(p.PosLocked())
		p.Unlock()
	}
}

// HandleMessage applies one inbound controller message, the way a
// driver's non-blocking channel drain would before sleeping to the next
// frame boundary. Grounded on PWorld::handle_controller_message in
// pworld.rs.
func (w *World) HandleMessage(msg protocol.ControllerMessage) {
	switch msg.Kind {
	case protocol.TogglePause:
		if w.forwardFrames == 0 {
			w.forwardFrames = -1
		} else {
			w.forwardFrames = 0
		}
	case protocol.FrameForward:
		if w.forwardFrames == 0 {
			w.forwardFrames = 1
		}
	case protocol.ControlParticle:
		w.Control(particle.ID(msg.ParticleID), particle.Vec2{X: msg.Target[0], Y: msg.Target[1]})
	case protocol.UncontrolParticle:
		w.Uncontrol(particle.ID(msg.ParticleID))
	}
}

// tickOnce advances the simulation by exactly one physics sub-step: the
// take-and-rebuild integration pass, the broad phase, pre-iteration
// (reset/plasticity/break), and `iteration` rounds of constraint
// projection. Grounded on PWorld::update_frame.
func (w *World) tickOnce() (broken []uint64, collisions int) {
	if w.perf != nil {
		w.perf.StartPhase(telemetry.PhaseIntegrate)
	}
	w.pg.Update(w.dt)

	if w.perf != nil {
		w.perf.StartPhase(telemetry.PhaseBroadphase)
	}
	pairs := w.pg.CollisionPairs(w.sequential)
	transient := make([]*constraint.Distance, len(pairs))
	for i, pr := range pairs {
		transient[i] = constraint.NewDistance(pr.A, pr.B, w.cellSize).
			Repulsive().
			WithCompliance(w.collisionCompliance)
	}
	w.cg.SetTransient(transient)

	if w.perf != nil {
		w.perf.StartPhase(telemetry.PhasePreIteration)
	}
	broken = w.cg.PreIteration()

	if w.perf != nil {
		w.perf.StartPhase(telemetry.PhaseProject)
	}
	for i := 0; i < w.iteration; i++ {
		w.cg.SolveConstraints(w.dt, w.sequential)
	}

	return broken, len(pairs)
}

// RunFrame advances the simulation by one render frame: ppr physics
// sub-steps, followed by a protocol snapshot. Returns the resulting
// UserEvent and every constraint ID removed (by breaking or cascade)
// during the frame. If the world is paused (forwardFrames == 0), no
// physics runs and the current state is simply re-snapshotted. The very
// first call never runs physics either, regardless of forwardFrames, so
// a caller always sees the initial configuration before anything moves.
func (w *World) RunFrame() (protocol.UserEvent, []uint64) {
	start := time.Now()
	if w.perf != nil {
		w.perf.StartTick()
	}

	var allBroken []uint64
	totalCollisions := 0

	if w.forwardFrames != 0 {
		if w.forwardFrames > 0 {
			w.forwardFrames--
		}
		if w.firstFrame {
			w.firstFrame = false
		} else {
			for i := 0; i < w.ppr; i++ {
				broken, collisions := w.tickOnce()
				allBroken = append(allBroken, broken...)
				totalCollisions += collisions
			}
			w.tick += int32(w.ppr)
		}
	}

	if w.perf != nil {
		w.perf.StartPhase(telemetry.PhaseSnapshot)
	}
	prModel := w.PrModel()
	permanent, transientN, marionetteN := w.cg.Counts()

	budget := float64(w.dt) * float64(w.ppr) * float64(w.timeScale)
	var load float32
	if budget > 0 {
		load = float32(time.Since(start).Seconds() / budget)
	}

	info := protocol.UpdateInfo{
		Load:        load,
		ParticleLen: w.pg.Len(),
		ConstraintLen: [3]int{
			protocol.ConstraintPermanent:  permanent,
			protocol.ConstraintTransient:  transientN,
			protocol.ConstraintMarionette: marionetteN,
		},
	}

	if w.perf != nil {
		w.perf.EndTick()
	}

	w.recordTelemetry(info, len(allBroken), totalCollisions)

	return protocol.UserEvent{Model: prModel, Info: info}, allBroken
}

func (w *World) recordTelemetry(info protocol.UpdateInfo, broken, collisions int) {
	if w.collector == nil {
		return
	}
	w.collector.RecordFrame(info.Load, info.ParticleLen,
		info.ConstraintLen[protocol.ConstraintPermanent],
		info.ConstraintLen[protocol.ConstraintTransient],
		info.ConstraintLen[protocol.ConstraintMarionette])
	w.collector.RecordBreaks(broken)
	w.collector.RecordCollisions(collisions)

	if !w.collector.ShouldFlush(w.tick) {
		return
	}
	stats := w.collector.Flush(w.tick)
	stats.LogStats()
	if w.output != nil {
		_ = w.output.WriteTelemetry(stats)
	}
	if w.perf != nil && w.output != nil {
		_ = w.output.WritePerf(w.perf.Stats(), w.tick)
	}
}

// PrModel snapshots every live particle and constraint into the
// wire-protocol representation.
func (w *World) PrModel() protocol.PrModel {
	particles := make(map[uint64]protocol.PrParticle, w.pg.Len())
	w.pg.Each(func(p *particle.Particle) {
		pos := p.Snapshot()
		particles[uint64(p.ID())] = protocol.PrParticle{Pos: [2]float32{pos.X, pos.Y}}
	})
	return protocol.PrModel{
		Particles:   particles,
		Constraints: w.cg.PrConstraints(),
	}
}
