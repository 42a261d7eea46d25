package constraint

import (
	"testing"

	"github.com/archlab/xpbd2d/particle"
)

func TestDistanceRigidConstraintHoldsRestLength(t *testing.T) {
	a := particle.New(0, 1, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	b := particle.New(1, 1, particle.Vec2{X: 1, Y: 0}, particle.Vec2{})
	d := NewDistance(a, b, 1.0)

	for i := 0; i < 50; i++ {
		d.PreIteration()
		d.Step(0.01)
	}

	sep := a.Snapshot().Sub(b.Snapshot()).Len()
	if diff := sep - 1.0; diff > 1e-5 || diff < -1e-5 {
		t.Errorf("separation = %v, want 1.0 (within 1e-5)", sep)
	}
}

func TestDistancePinnedParticleNeverMoves(t *testing.T) {
	anchor := particle.New(0, 0, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	free := particle.New(1, 1, particle.Vec2{X: 5, Y: 0}, particle.Vec2{})
	d := NewDistance(anchor, free, 1.0)

	for i := 0; i < 20; i++ {
		d.PreIteration()
		d.Step(0.01)
	}

	pos := anchor.Snapshot()
	if pos.X != 0 || pos.Y != 0 {
		t.Errorf("anchor moved to %+v, want (0, 0)", pos)
	}
}

func TestDistanceRepulsiveOnlyPushesApart(t *testing.T) {
	a := particle.New(0, 1, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	b := particle.New(1, 1, particle.Vec2{X: 2, Y: 0}, particle.Vec2{})
	d := NewDistance(a, b, 1.0).Repulsive()

	// Separation (2.0) already exceeds rest length: a repulsive
	// constraint must not pull them together.
	d.PreIteration()
	d.Step(0.01)

	sep := a.Snapshot().Sub(b.Snapshot()).Len()
	if sep < 1.999 {
		t.Errorf("separation = %v, repulsive constraint should not have pulled particles together", sep)
	}
}

func TestDistanceBreakRangeSignalsRemoval(t *testing.T) {
	a := particle.New(0, 1, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	b := particle.New(1, 1, particle.Vec2{X: 5, Y: 0}, particle.Vec2{})
	d := NewDistance(a, b, 1.0).WithBreakRange(0.5, 2.0)

	if ok := d.PreIteration(); ok {
		t.Error("PreIteration() = true, want false: current separation 5 is outside [0.5, 2.0]")
	}
}

// Invariant: under zero external acceleration and no collisions, a single
// fully-stiff (compliance 0) distance constraint between particles already
// at rest length leaves positions unchanged for arbitrarily many
// sub-steps, to within 1e-5. Restates TestDistanceRigidConstraintHoldsRestLength
// as an explicit energy-non-increase check.
func TestInvariantStiffDistanceAtRestLengthIsMotionless(t *testing.T) {
	a := particle.New(0, 1, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	b := particle.New(1, 1, particle.Vec2{X: 1, Y: 0}, particle.Vec2{})
	d := NewDistance(a, b, 1.0)

	startA, startB := a.Snapshot(), b.Snapshot()
	for i := 0; i < 200; i++ {
		d.PreIteration()
		d.Step(0.01)
		if diff := a.Snapshot().Sub(startA).Len(); diff > 1e-5 {
			t.Fatalf("sub-step %d: particle a moved %v from start, want <= 1e-5", i, diff)
		}
		if diff := b.Snapshot().Sub(startB).Len(); diff > 1e-5 {
			t.Fatalf("sub-step %d: particle b moved %v from start, want <= 1e-5", i, diff)
		}
	}
}

func TestDistancePlasticityYieldsRestLength(t *testing.T) {
	a := particle.New(0, 1, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	b := particle.New(1, 0, particle.Vec2{X: 3, Y: 0}, particle.Vec2{})
	d := NewDistance(a, b, 1.0).WithPlasticity(0.5, 0.1)

	l0Before := d.l0
	d.PreIteration()
	if d.l0 == l0Before {
		t.Error("l0 unchanged after PreIteration with separation well past the plasticity cutoff")
	}
}

func TestDistanceDegenerateSeparationJitters(t *testing.T) {
	a := particle.New(0, 1, particle.Vec2{X: 1, Y: 1}, particle.Vec2{})
	b := particle.New(1, 1, particle.Vec2{X: 1, Y: 1}, particle.Vec2{})
	d := NewDistance(a, b, 1.0)

	d.PreIteration()
	d.Step(0.01)

	if a.Snapshot() == b.Snapshot() {
		t.Error("coincident particles were not jittered apart by Step")
	}
}

func TestNewDistanceFromRestUsesCurrentSeparation(t *testing.T) {
	a := particle.New(0, 1, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	b := particle.New(1, 1, particle.Vec2{X: 3, Y: 4}, particle.Vec2{})
	d := NewDistanceFromRest(a, b)

	if d.l0 != 5.0 {
		t.Errorf("l0 = %v, want 5.0", d.l0)
	}
}
