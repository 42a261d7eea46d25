package constraint

import (
	"sort"

	"github.com/archlab/xpbd2d/particle"
	"github.com/archlab/xpbd2d/protocol"
)

// Volume constrains the signed area of a triangle of particles to a rest
// area s0. Used for cloth/soft-body cells so they resist being crushed
// flat or turned inside out. Grounded on volume.rs.
type Volume struct {
	id int32

	p0, p1, p2 *particle.Particle    // insertion order, for Render
	sorted     [3]*particle.Particle // ascending-ID order, for locking

	s0         float32
	lambda     float32
	compliance float32
}

// NewVolume builds a Volume constraint pinning the triangle's area to the
// area it has at construction time.
func NewVolume(p0, p1, p2 *particle.Particle) *Volume {
	v := &Volume{p0: p0, p1: p1, p2: p2, id: -1}
	v.sorted = [3]*particle.Particle{p0, p1, p2}
	sort.Slice(v.sorted[:], func(i, j int) bool { return v.sorted[i].ID() < v.sorted[j].ID() })
	v.s0 = area(p0.Snapshot(), p1.Snapshot(), p2.Snapshot())
	return v
}

// WithID attaches a stable template ID used for Render correlation.
func (v *Volume) WithID(id int32) *Volume { v.id = id; return v }

// WithCompliance sets the XPBD compliance. 0 is rigid.
func (v *Volume) WithCompliance(c float32) *Volume { v.compliance = c; return v }

// PreIteration resets lambda. Volume constraints have no break range or
// plasticity in this system; they always survive.
func (v *Volume) PreIteration() bool {
	v.lambda = 0
	return true
}

// area computes the shoelace-formula signed area of a triangle, scaled by
// 2 (i.e. x0(y1-y2) + x1(y2-y0) + x2(y0-y1), with no 1/2 factor), matching
// volume.rs's area_p exactly.
func area(a, b, c particle.Vec2) float32 {
	return (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
}

// Step applies one XPBD projection. Grounded on VolumeConstraint::step in
// volume.rs: gradients are the partials of the shoelace area with respect
// to each vertex, and beta is the inverse-mass-weighted sum of squared
// gradient magnitudes that distance.rs doesn't need (distance always has
// exactly two unit-length opposing gradients).
func (v *Volume) Step(dt float32) {
	for _, p := range v.sorted {
		p.Lock()
	}
	defer func() {
		for _, p := range v.sorted {
			p.Unlock()
		}
	}()

	w0, w1, w2 := v.p0.Imass(), v.p1.Imass(), v.p2.Imass()
	if w0+w1+w2 == 0 {
		return
	}

	a := v.p0.PosLocked()
	b := v.p1.PosLocked()
	c := v.p2.PosLocked()

	cur := area(a, b, c)
	cerr := cur - v.s0

	grad0 := particle.Vec2{X: b.Y - c.Y, Y: c.X - b.X}
	grad1 := particle.Vec2{X: c.Y - a.Y, Y: a.X - c.X}
	grad2 := particle.Vec2{X: a.Y - b.Y, Y: b.X - a.X}

	beta := w0*grad0.LenSq() + w1*grad1.LenSq() + w2*grad2.LenSq()
	if beta == 0 {
		return
	}

	complianceT := v.compliance / (dt * dt)
	dlambda := (-cerr - complianceT*v.lambda) / (beta + complianceT)
	v.lambda += dlambda

	v.p0.AddPosLocked(grad0.Scale(dlambda * w0))
	v.p1.AddPosLocked(grad1.Scale(dlambda * w1))
	v.p2.AddPosLocked(grad2.Scale(dlambda * w2))
}

// Render returns the protocol snapshot of this constraint's topology, in
// the original (unsorted) p0/p1/p2 order it was constructed with.
func (v *Volume) Render() protocol.PrConstraint {
	return protocol.PrConstraint{
		ID:        v.id,
		Particles: []uint64{uint64(v.p0.ID()), uint64(v.p1.ID()), uint64(v.p2.ID())},
	}
}
