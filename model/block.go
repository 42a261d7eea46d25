package model

import (
	"github.com/archlab/xpbd2d/constraint"
	"github.com/archlab/xpbd2d/particle"
)

// NewBlock builds a cols x rows grid of particles spaced spacing apart,
// connected by horizontal, vertical and diagonal Distance constraints and
// a Volume constraint over each pair of triangles making up a grid cell.
// Grounded on PhysicalModel::new_block in physical_model.rs, the source's
// worked example for cloth-like soft bodies. imass applies to every
// particle except the ones in the top row when pinTop is set, which are
// pinned (imass == 0) so the block hangs rather than falling freely.
func NewBlock(cols, rows int, spacing, imass, compliance float32, pinTop bool, gravity particle.Vec2) PhysicalModel {
	m := PhysicalModel{}
	index := func(x, y int) int { return y*cols + x }

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			pm := imass
			accel := gravity
			if pinTop && y == 0 {
				pm = 0
				accel = particle.Vec2{}
			}
			m.Particles = append(m.Particles, ParticleTemplate{
				Imass: pm,
				Pos:   particle.Vec2{X: float32(x) * spacing, Y: float32(y) * spacing},
				Accel: accel,
			})
		}
	}

	// Every block edge is one-sided (attractive_only in the source): it
	// resists stretching but never resists compression, so a block can
	// fold and crumple rather than behaving as a rigid grid.
	addEdge := func(a, b int) {
		m.Constraints = append(m.Constraints, ConstraintTemplate{Distance: &DistanceTemplate{
			A: a, B: b, ID: int32(len(m.Constraints)), Compliance: compliance,
			Type: int(constraint.Attractive),
		}})
	}

	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if x+1 < cols {
				addEdge(index(x, y), index(x+1, y))
			}
			if y+1 < rows {
				addEdge(index(x, y), index(x, y+1))
			}
			if x+1 < cols && y+1 < rows {
				addEdge(index(x, y), index(x+1, y+1))
				addEdge(index(x+1, y), index(x, y+1))

				base := len(m.Constraints) - 1 // the just-added cross diagonal
				m.Constraints = append(m.Constraints,
					ConstraintTemplate{Volume: &VolumeTemplate{
						A: index(x, y), B: index(x+1, y), C: index(x, y+1),
						ID: int32(len(m.Constraints)), Compliance: compliance,
					}},
					ConstraintTemplate{Volume: &VolumeTemplate{
						A: index(x+1, y), B: index(x+1, y+1), C: index(x, y+1),
						ID: int32(len(m.Constraints) + 1), Compliance: compliance,
					}},
				)
				cellVolA := len(m.Constraints) - 2
				cellVolB := len(m.Constraints) - 1
				m.Dependencies = append(m.Dependencies,
					Dependency{Dependent: cellVolA, Base: base},
					Dependency{Dependent: cellVolB, Base: base},
				)
			}
		}
	}

	return m
}
