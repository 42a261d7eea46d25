// Package particle implements the point-mass primitive the solver
// operates on: position, previous position and inverse mass, advanced by
// semi-implicit Verlet integration with a per-step displacement cap.
//
// Grounded on original_source/src/xpbd/src/particle.rs. Each Particle owns
// a mutex instead of the source's Arc<RwLock<Particle>>: Go pointers are
// stable for the lifetime of the program, so a *Particle already behaves
// like the shared handle the source builds by hand with reference
// counting. Callers that touch more than one particle (constraints) must
// lock in ascending ID order to keep the whole solver free of deadlocks.
package particle

import (
	"math/rand/v2"
	"sync"
)

// ID uniquely identifies a particle within a Group for its lifetime. IDs
// are never reused.
type ID uint64

// Particle is a single point mass. Zero value is not valid; construct via
// New or Group.Add.
type Particle struct {
	mu sync.Mutex

	id    ID
	imass float32

	pos   Vec2
	ppos  Vec2
	accel Vec2
}

// New builds a particle with the given inverse mass, starting position and
// constant acceleration (typically gravity). imass == 0 marks a pinned,
// infinitely heavy particle: integration and every constraint correction
// leave it untouched.
func New(id ID, imass float32, pos, accel Vec2) *Particle {
	return &Particle{id: id, imass: imass, pos: pos, ppos: pos, accel: accel}
}

// ID returns the particle's stable identifier. Safe to call without
// holding the lock: IDs are immutable after construction.
func (p *Particle) ID() ID { return p.id }

// Imass returns the particle's inverse mass. Safe unlocked: never mutated
// after construction.
func (p *Particle) Imass() float32 { return p.imass }

func (p *Particle) Lock()   { p.mu.Lock() }
func (p *Particle) Unlock() { p.mu.Unlock() }

// PosLocked returns the current position. Caller must hold the lock.
func (p *Particle) PosLocked() Vec2 { return p.pos }

// AddPosLocked displaces the particle by dp, leaving ppos untouched so the
// implied velocity changes. This is how constraint projection applies a
// correction. Caller must hold the lock.
func (p *Particle) AddPosLocked(dp Vec2) { p.pos = p.pos.Add(dp) }

// SetPosLocked overwrites the current position without touching ppos.
// Caller must hold the lock.
func (p *Particle) SetPosLocked(pos Vec2) { p.pos = pos }

// ResetLocked snaps both pos and ppos to the same point, zeroing implied
// velocity. Used when a dragged particle is released or repositioned by a
// controller. Caller must hold the lock.
func (p *Particle) ResetLocked(pos Vec2) {
	p.pos = pos
	p.ppos = pos
}

// Snapshot returns pos under the lock; convenience for single-particle
// reads that don't need to hold the lock across further work (rendering,
// broad-phase bucketing).
func (p *Particle) Snapshot() Vec2 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

// Integrate advances the particle one sub-step of semi-implicit Verlet
// integration: pos' = pos + (pos - ppos) + accel*dt^2, with the
// displacement clamped to dmax to keep a single sub-step from ejecting a
// particle out of its broad-phase cell. dmax <= 0 disables the clamp.
//
// Caller must hold the lock. imass == 0 particles do not move.
func (p *Particle) Integrate(dt, dmax float32) {
	if p.imass == 0 {
		p.ppos = p.pos
		return
	}
	vel := p.pos.Sub(p.ppos)
	disp := vel.Add(p.accel.Scale(dt * dt))
	if dmax > 0 {
		if d := disp.Len(); d > dmax && d > 0 {
			disp = disp.Scale(dmax / d)
		}
	}
	next := p.pos.Add(disp)
	p.ppos = p.pos
	p.pos = next
}

// Jitter returns a small random displacement used to nudge two
// coincident or non-finite particles apart so the next sub-step can
// recover a well-defined separation vector. math/rand/v2's package-level
// generator is safe for concurrent use, which matters here: Step runs
// inside the parallel solve pass and may call Jitter from many goroutines
// at once.
func Jitter(scale float32) Vec2 {
	return Vec2{
		X: (rand.Float32()*2 - 1) * scale,
		Y: (rand.Float32()*2 - 1) * scale,
	}
}
