package model

import "github.com/archlab/xpbd2d/particle"

// NewChain builds n particles in a straight line spaced spacing apart,
// each linked to the next by a Distance constraint, with the first
// particle pinned. Used for the pendulum scenario: a single rigid chain
// swinging from a fixed anchor is the simplest Distance-only system that
// still exercises gravity, integration and constraint projection without
// any broad-phase or Volume involvement.
func NewChain(n int, spacing, imass, compliance float32, gravity particle.Vec2) PhysicalModel {
	m := PhysicalModel{}
	for i := 0; i < n; i++ {
		pm := imass
		accel := gravity
		if i == 0 {
			pm = 0
			accel = particle.Vec2{}
		}
		m.Particles = append(m.Particles, ParticleTemplate{
			Imass: pm,
			Pos:   particle.Vec2{X: float32(i) * spacing, Y: 0},
			Accel: accel,
		})
	}
	for i := 0; i+1 < n; i++ {
		m.Constraints = append(m.Constraints, ConstraintTemplate{Distance: &DistanceTemplate{
			A: i, B: i + 1, ID: int32(i), Compliance: compliance,
		}})
	}
	return m
}
