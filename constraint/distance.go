package constraint

import (
	"math"

	"github.com/archlab/xpbd2d/particle"
	"github.com/archlab/xpbd2d/protocol"
)

// Distance constrains the separation between two particles to a rest
// length l0, with optional plastic yield and a break range. Used both for
// template-authored edges (Normal) and for transient broad-phase contacts
// (Repulsive). Grounded on distance.rs.
type Distance struct {
	id int32

	p1, p2   *particle.Particle // insertion order, used for Render
	lo, hi   *particle.Particle // ascending-ID order, used for locking

	l0         float32
	lambda     float32
	compliance float32
	ty         Type

	plasThresh float32
	plasCutoff float32

	breakLo, breakHi float32 // breakHi <= 0 disables the break check
}

// NewDistance builds a Distance constraint pinning the separation of p1
// and p2 to l0. Compliance defaults to 0 (a rigid, infinitely stiff
// constraint); use WithCompliance to soften it.
func NewDistance(p1, p2 *particle.Particle, l0 float32) *Distance {
	d := &Distance{p1: p1, p2: p2, l0: l0, id: -1}
	d.sortLockOrder()
	return d
}

// NewDistanceFromRest builds a Distance constraint whose rest length is
// the particles' current separation. Mirrors DistanceConstraint::new in
// distance.rs, used when instantiating a PhysicalModel template.
func NewDistanceFromRest(p1, p2 *particle.Particle) *Distance {
	l0 := p1.Snapshot().Sub(p2.Snapshot()).Len()
	return NewDistance(p1, p2, l0)
}

func (d *Distance) sortLockOrder() {
	if d.p1.ID() <= d.p2.ID() {
		d.lo, d.hi = d.p1, d.p2
	} else {
		d.lo, d.hi = d.p2, d.p1
	}
}

// WithID attaches a stable template ID used for Render correlation.
func (d *Distance) WithID(id int32) *Distance { d.id = id; return d }

// WithCompliance sets the XPBD compliance (inverse stiffness, units of
// m/N). 0 is rigid.
func (d *Distance) WithCompliance(c float32) *Distance { d.compliance = c; return d }

// WithType sets how the constraint reacts to the sign of its constraint
// function.
func (d *Distance) WithType(ty Type) *Distance { d.ty = ty; return d }

// Repulsive is shorthand for WithType(Repulsive), used by the broad phase
// to build collision contacts.
func (d *Distance) Repulsive() *Distance { return d.WithType(Repulsive) }

// WithPlasticity makes the rest length yield toward sustained
// displacement: once |l - l0| exceeds cutoff, l0 is nudged toward l by
// thresh fraction of the excess. thresh == 0 disables plasticity.
func (d *Distance) WithPlasticity(thresh, cutoff float32) *Distance {
	d.plasThresh, d.plasCutoff = thresh, cutoff
	return d
}

// WithBreakRange marks the constraint dead, starting with the next
// PreIteration, once its current length leaves [lo, hi]. hi <= 0 disables
// the check.
func (d *Distance) WithBreakRange(lo, hi float32) *Distance {
	d.breakLo, d.breakHi = lo, hi
	return d
}

// PreIteration resets lambda, applies plasticity and checks the break
// range. Returns false once the constraint should be removed.
func (d *Distance) PreIteration() bool {
	d.lambda = 0

	d.lo.Lock()
	d.hi.Lock()
	l := d.lo.PosLocked().Sub(d.hi.PosLocked()).Len()
	d.lo.Unlock()
	d.hi.Unlock()

	if d.breakHi > 0 && (l < d.breakLo || l > d.breakHi) {
		return false
	}

	if d.plasThresh != 0 {
		dl := l - d.l0
		if abs32(dl) > d.plasCutoff {
			d.l0 += dl * d.plasThresh
		}
	}
	return true
}

// Step applies one XPBD projection. Grounded on DistanceConstraint::step
// in distance.rs: compliance is normalized by dt^2 every call rather than
// once per constraint, since dt can change between frames (time_scale).
func (d *Distance) Step(dt float32) {
	d.lo.Lock()
	d.hi.Lock()
	defer d.lo.Unlock()
	defer d.hi.Unlock()

	w1, w2 := d.lo.Imass(), d.hi.Imass()
	w := w1 + w2
	if w == 0 {
		return
	}

	sep := d.lo.PosLocked().Sub(d.hi.PosLocked())
	if !sep.IsNormal() {
		d.lo.AddPosLocked(particle.Jitter(jitterScale))
		d.hi.AddPosLocked(particle.Jitter(jitterScale))
		return
	}

	l := sep.Len()
	c := l - d.l0

	switch d.ty {
	case Repulsive:
		if c >= 0 {
			return
		}
	case Attractive:
		if c <= 0 {
			return
		}
	}

	complianceT := d.compliance / (dt * dt)
	dlambda := (-c - complianceT*d.lambda) / (w + complianceT)
	d.lambda += dlambda

	dir := sep.Scale(1 / l)
	correction := dir.Scale(dlambda)
	d.lo.AddPosLocked(correction.Scale(w1))
	d.hi.AddPosLocked(correction.Scale(-w2))
}

// Render returns the protocol snapshot of this constraint's topology, in
// the original (unsorted) p1/p2 order it was constructed with.
func (d *Distance) Render() protocol.PrConstraint {
	return protocol.PrConstraint{
		ID:        d.id,
		Particles: []uint64{uint64(d.p1.ID()), uint64(d.p2.ID())},
	}
}

func abs32(v float32) float32 {
	return float32(math.Abs(float64(v)))
}
