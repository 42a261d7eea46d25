package world

import (
	"testing"

	"github.com/archlab/xpbd2d/constraint"
	"github.com/archlab/xpbd2d/model"
	"github.com/archlab/xpbd2d/particle"
	"github.com/archlab/xpbd2d/protocol"
)

// S1: a pendulum released from rest with the bob level with the anchor
// (NewChain lays the chain out along +X) swings down under gravity, and
// the rigid link keeps the bob at its rest length from the anchor.
func TestScenarioPendulumRest(t *testing.T) {
	w := New(testConfig(t))
	m := model.NewChain(2, 1.0, 1.0, 0, particle.Vec2{X: 0, Y: -9.8})
	w.AddModel(m, particle.Vec2{})

	anchor, _ := w.Particles().Get(0)
	bob, _ := w.Particles().Get(1)

	for i := 0; i < 30; i++ {
		w.RunFrame()
	}

	length := bob.Snapshot().Sub(anchor.Snapshot()).Len()
	if d := length - 1; d > 1e-3 || d < -1e-3 {
		t.Errorf("pendulum link length = %v, want 1 (within 1e-3)", length)
	}
}

// S2: two particles approaching each other within cellSize must be pushed
// back apart by a transient collision constraint rather than passing
// through one another.
func TestScenarioTwoParticleCollision(t *testing.T) {
	cfg := testConfig(t)
	cfg.Physics.CellSize = 1.0
	w := New(cfg)

	pg := w.Particles()
	a := pg.Add(1, particle.Vec2{X: -0.3, Y: 0}, particle.Vec2{X: 5, Y: 0})
	b := pg.Add(1, particle.Vec2{X: 0.3, Y: 0}, particle.Vec2{X: -5, Y: 0})

	for i := 0; i < 20; i++ {
		w.RunFrame()
	}

	sep := a.Snapshot().Sub(b.Snapshot()).Len()
	if sep < float32(cfg.Physics.CellSize)*0.9 {
		t.Errorf("separation = %v, want close to or above cell size %v after collision response", sep, cfg.Physics.CellSize)
	}
}

// S3: a triangle with every corner pinned never changes shape. Restates
// invariant 5 (kinematic immovability) at the model/world level.
func TestScenarioUnmovableTriangle(t *testing.T) {
	w := New(testConfig(t))
	pg := w.Particles()
	a := pg.Add(0, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	b := pg.Add(0, particle.Vec2{X: 1, Y: 0}, particle.Vec2{})
	c := pg.Add(0, particle.Vec2{X: 0, Y: 1}, particle.Vec2{})
	w.cg.AddPermanent(constraint.NewVolume(a, b, c))

	before := [3]particle.Vec2{a.Snapshot(), b.Snapshot(), c.Snapshot()}
	for i := 0; i < 10; i++ {
		w.RunFrame()
	}
	after := [3]particle.Vec2{a.Snapshot(), b.Snapshot(), c.Snapshot()}

	if before != after {
		t.Errorf("pinned triangle moved: before %+v, after %+v", before, after)
	}
}

// S4: a distance constraint stretched past its plasticity threshold
// yields: its rest length permanently grows toward the stretched
// separation instead of pulling the particles all the way back.
func TestScenarioPlasticYield(t *testing.T) {
	w := New(testConfig(t))
	pg := w.Particles()
	a := pg.Add(0, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	b := pg.Add(1, particle.Vec2{X: 3, Y: 0}, particle.Vec2{})

	d := constraint.NewDistance(a, b, 1.0).WithPlasticity(0.5, 0.1)
	w.cg.AddPermanent(d)

	for i := 0; i < 40; i++ {
		w.RunFrame()
	}

	sep := a.Snapshot().Sub(b.Snapshot()).Len()
	if sep <= 1.5 {
		t.Errorf("separation = %v after yielding, want well above the original rest length 1.0", sep)
	}
}

// S5: a permanent constraint with a dependent breaks once its current
// separation leaves its break range, and the dependent vanishes from the
// very same frame's snapshot (cascade happens in PreIteration, before
// that frame's snapshot is taken).
func TestScenarioBreakAndCascade(t *testing.T) {
	w := New(testConfig(t))
	pg := w.Particles()
	a := pg.Add(1, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	b := pg.Add(1, particle.Vec2{X: 10, Y: 0}, particle.Vec2{})
	c := pg.Add(1, particle.Vec2{X: 0, Y: 1}, particle.Vec2{})

	base := w.cg.AddPermanent(constraint.NewDistance(a, b, 1.0).WithBreakRange(0.1, 2.0).WithID(1))
	dependent := w.cg.AddPermanent(constraint.NewVolume(a, b, c).WithID(2))
	w.cg.AddDependency(dependent, base)

	// The first RunFrame only renders the initial configuration.
	w.RunFrame()

	ev, broken := w.RunFrame()
	if len(broken) != 2 {
		t.Fatalf("len(broken) = %d, want 2 (base + cascaded dependent)", len(broken))
	}

	for _, pc := range ev.Model.Constraints {
		if pc.ID == 2 {
			t.Error("dependent volume constraint still present in the same frame's snapshot")
		}
	}
}

// S6: while paused, consecutive snapshots are identical; a FrameForward
// command (modeled here as setting forwardFrames to 1, the way a
// ControllerMessage handler would) advances exactly one frame and then
// holds again.
func TestScenarioPauseAndStep(t *testing.T) {
	w := New(testConfig(t)).WithPaused()
	m := model.NewChain(3, 1.0, 1.0, 0, particle.Vec2{X: 0, Y: -9.8})
	w.AddModel(m, particle.Vec2{})

	// Consume the initial WithPaused render, then settle into the
	// actually-paused state (forwardFrames == 0).
	w.RunFrame()

	heldA, _ := w.RunFrame()
	heldB, _ := w.RunFrame()
	if !samePositions(heldA.Model, heldB.Model) {
		t.Error("positions changed across two RunFrame calls while paused")
	}

	w.forwardFrames = 1
	stepped, _ := w.RunFrame()
	if samePositions(heldB.Model, stepped.Model) {
		t.Error("FrameForward did not advance the simulation")
	}

	heldAgain, _ := w.RunFrame()
	if !samePositions(stepped.Model, heldAgain.Model) {
		t.Error("simulation advanced a second time after FrameForward should have re-paused it")
	}
}

func samePositions(a, b protocol.PrModel) bool {
	if len(a.Particles) != len(b.Particles) {
		return false
	}
	for id, pa := range a.Particles {
		pb, ok := b.Particles[id]
		if !ok || pa.Pos != pb.Pos {
			return false
		}
	}
	return true
}
