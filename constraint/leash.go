package constraint

import (
	"github.com/archlab/xpbd2d/particle"
	"github.com/archlab/xpbd2d/protocol"
)

// Leash pins a single particle toward a moving target position, used to
// implement a controller dragging a particle with the pointer. It behaves
// like a one-sided Distance constraint against a virtual anchor with
// infinite mass and no particle of its own on the other end. Grounded on
// leash.rs.
type Leash struct {
	p          *particle.Particle
	target     particle.Vec2
	lambda     float32
	compliance float32
}

// NewLeash builds a Leash pinning p toward target.
func NewLeash(p *particle.Particle, target particle.Vec2) *Leash {
	return &Leash{p: p, target: target}
}

// WithCompliance sets the XPBD compliance. 0 is a rigid pin.
func (l *Leash) WithCompliance(c float32) *Leash { l.compliance = c; return l }

// SetTarget moves the leash's anchor, e.g. as the controller's pointer
// moves while dragging. Not part of Constraint: called by Group.Control
// when the particle it is asked to control already has a leash.
func (l *Leash) SetTarget(target particle.Vec2) { l.target = target }

// Step applies one XPBD projection pulling p toward target. Leash pins
// are never reset by PreIteration in this system, matching the source:
// ConstraintGroup's pre_iteration pass only walks its permanent
// (template-authored) constraints, never the marionette map leash pins
// live in, so a leash's lambda carries over sub-step to sub-step as long
// as the drag continues.
func (l *Leash) Step(dt float32) {
	l.p.Lock()
	defer l.p.Unlock()

	w := l.p.Imass()
	if w == 0 {
		return
	}

	sep := l.p.PosLocked().Sub(l.target)
	if !sep.IsNormal() {
		l.p.AddPosLocked(particle.Jitter(jitterScale))
		return
	}

	length := sep.Len()
	complianceT := l.compliance / (dt * dt)
	dlambda := (-length - complianceT*l.lambda) / (w + complianceT)
	l.lambda += dlambda

	dir := sep.Scale(1 / length)
	l.p.AddPosLocked(dir.Scale(dlambda * w))
}

// Render returns the protocol snapshot of this pin. Leash pins are never
// template-authored, so ID is always -1.
func (l *Leash) Render() protocol.PrConstraint {
	return protocol.PrConstraint{ID: -1, Particles: []uint64{uint64(l.p.ID())}}
}
