package constraint

import (
	"testing"

	"github.com/archlab/xpbd2d/particle"
)

func TestLeashPullsParticleTowardTarget(t *testing.T) {
	p := particle.New(0, 1, particle.Vec2{X: 5, Y: 5}, particle.Vec2{})
	target := particle.Vec2{X: 0, Y: 0}
	l := NewLeash(p, target)

	for i := 0; i < 200; i++ {
		l.Step(0.01)
	}

	pos := p.Snapshot()
	if d := pos.Sub(target).Len(); d > 1e-3 {
		t.Errorf("distance to target = %v, want near 0", d)
	}
}

func TestLeashPinnedParticleNeverMoves(t *testing.T) {
	p := particle.New(0, 0, particle.Vec2{X: 5, Y: 5}, particle.Vec2{})
	l := NewLeash(p, particle.Vec2{X: 0, Y: 0})

	l.Step(0.01)

	pos := p.Snapshot()
	if pos.X != 5 || pos.Y != 5 {
		t.Errorf("pinned particle moved to %+v, want (5, 5)", pos)
	}
}

func TestLeashSetTargetRetargets(t *testing.T) {
	p := particle.New(0, 1, particle.Vec2{X: 0, Y: 0}, particle.Vec2{})
	l := NewLeash(p, particle.Vec2{X: 10, Y: 0})
	l.SetTarget(particle.Vec2{X: 0, Y: 10})

	if l.target.X != 0 || l.target.Y != 10 {
		t.Errorf("target = %+v, want (0, 10)", l.target)
	}
}

func TestLeashRenderAlwaysReportsIDMinusOne(t *testing.T) {
	p := particle.New(7, 1, particle.Vec2{}, particle.Vec2{})
	l := NewLeash(p, particle.Vec2{})

	pr := l.Render()
	if pr.ID != -1 {
		t.Errorf("Render().ID = %d, want -1", pr.ID)
	}
	if len(pr.Particles) != 1 || pr.Particles[0] != 7 {
		t.Errorf("Render().Particles = %v, want [7]", pr.Particles)
	}
}

func TestLeashLambdaPersistsAcrossSteps(t *testing.T) {
	// Unlike Distance/Volume, a leash's lambda is never reset by the
	// group: PreIteration is never called on marionette entries. Step
	// alone must therefore carry lambda forward sub-step to sub-step.
	// With the carried lambda the first Step already satisfies the XPBD
	// update (-C - alphaT*lambda == 0), so the second Step adds nothing;
	// a lambda reset to 0 would instead add about 0.04 here.
	p := particle.New(0, 1, particle.Vec2{X: 5, Y: 0}, particle.Vec2{})
	l := NewLeash(p, particle.Vec2{X: 0, Y: 0}).WithCompliance(0.001)

	l.Step(0.01)
	firstLambda := l.lambda
	l.Step(0.01)

	if diff := abs32(l.lambda - firstLambda); diff > 1e-4 {
		t.Errorf("lambda moved by %v on the second Step call, want ~0: the first Step's lambda should have been carried forward, not reset", diff)
	}
}
