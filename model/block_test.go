package model

import (
	"testing"

	"github.com/archlab/xpbd2d/constraint"
	"github.com/archlab/xpbd2d/particle"
)

func TestNewBlockParticleCount(t *testing.T) {
	m := NewBlock(3, 4, 1.0, 1.0, 0, true, particle.Vec2{X: 0, Y: -9.8})
	if len(m.Particles) != 12 {
		t.Errorf("len(Particles) = %d, want 12", len(m.Particles))
	}
}

func TestNewBlockPinsTopRow(t *testing.T) {
	cols, rows := 4, 3
	m := NewBlock(cols, rows, 1.0, 1.0, 0, true, particle.Vec2{X: 0, Y: -9.8})

	for x := 0; x < cols; x++ {
		pt := m.Particles[x]
		if pt.Imass != 0 {
			t.Errorf("top row particle %d has Imass = %v, want 0 (pinned)", x, pt.Imass)
		}
		if pt.Accel != (particle.Vec2{}) {
			t.Errorf("top row particle %d has Accel = %+v, want zero", x, pt.Accel)
		}
	}
	// A non-top-row particle should carry gravity and free mass.
	pt := m.Particles[cols]
	if pt.Imass == 0 {
		t.Error("second-row particle is pinned, want free")
	}
	if pt.Accel.Y >= 0 {
		t.Errorf("second-row particle Accel = %+v, want negative Y (gravity)", pt.Accel)
	}
}

func TestNewBlockNoPinning(t *testing.T) {
	m := NewBlock(3, 3, 1.0, 1.0, 0, false, particle.Vec2{X: 0, Y: -9.8})
	for i, pt := range m.Particles {
		if pt.Imass == 0 {
			t.Errorf("particle %d is pinned, want none pinned when pinTop is false", i)
		}
	}
}

func TestNewBlockBuildsVolumeConstraintsWithDependencies(t *testing.T) {
	m := NewBlock(2, 2, 1.0, 1.0, 0.01, true, particle.Vec2{X: 0, Y: -9.8})

	volumes := 0
	distances := 0
	for _, c := range m.Constraints {
		switch {
		case c.Volume != nil:
			volumes++
		case c.Distance != nil:
			distances++
		}
	}
	// A 2x2 grid has one cell: 4 edges around it plus both diagonals
	// (6 distance constraints total), and 2 volume constraints split
	// across the cross diagonal.
	if volumes != 2 {
		t.Errorf("volumes = %d, want 2", volumes)
	}
	if distances != 6 {
		t.Errorf("distances = %d, want 6", distances)
	}
	if len(m.Dependencies) != 2 {
		t.Errorf("len(Dependencies) = %d, want 2 (both volume cells depend on the cross diagonal)", len(m.Dependencies))
	}
	for _, dep := range m.Dependencies {
		if m.Constraints[dep.Dependent].Volume == nil {
			t.Errorf("dependency %+v: Dependent index is not a Volume constraint", dep)
		}
		if m.Constraints[dep.Base].Distance == nil {
			t.Errorf("dependency %+v: Base index is not a Distance constraint", dep)
		}
	}
}

func TestNewBlockEdgesAreAttractiveOnly(t *testing.T) {
	m := NewBlock(2, 2, 1.0, 1.0, 0, true, particle.Vec2{X: 0, Y: -9.8})

	count := 0
	for _, c := range m.Constraints {
		if c.Distance == nil {
			continue
		}
		count++
		if c.Distance.Type != int(constraint.Attractive) {
			t.Errorf("edge %+v has Type = %d, want Attractive (%d): a block must fold under compression, not resist it",
				c.Distance, c.Distance.Type, constraint.Attractive)
		}
	}
	if count == 0 {
		t.Fatal("no Distance constraints found to check")
	}
}

func TestNewBlockPositionsAreGridSpaced(t *testing.T) {
	spacing := float32(2.0)
	m := NewBlock(3, 2, spacing, 1.0, 0, false, particle.Vec2{})

	// index 1 is (x=1, y=0)
	want := particle.Vec2{X: spacing, Y: 0}
	if got := m.Particles[1].Pos; got != want {
		t.Errorf("Particles[1].Pos = %+v, want %+v", got, want)
	}
	// index 3 is (x=0, y=1)
	want = particle.Vec2{X: 0, Y: spacing}
	if got := m.Particles[3].Pos; got != want {
		t.Errorf("Particles[3].Pos = %+v, want %+v", got, want)
	}
}
