// Package constraint implements the three constraint families the solver
// projects every sub-step: Distance (edges and collision contacts),
// Volume (triangle-area preservation) and Leash (controller drag pins).
//
// Grounded on original_source/src/xpbd/src/constraint/{distance,volume,
// leash,particle_list}.rs. All three share the same XPBD projection
// shape: a constraint function C, a compliance-scaled Lagrange multiplier
// lambda, and a correction split across the participants in proportion to
// their inverse mass.
package constraint

import "github.com/archlab/xpbd2d/protocol"

// Type distinguishes how a Distance constraint reacts to the sign of its
// constraint function. Normal resists both stretch and compression,
// Repulsive only pushes particles apart (used for collision contacts),
// Attractive only pulls them together.
type Type uint8

const (
	Normal Type = iota
	Repulsive
	Attractive
)

// Constraint is anything the solver can project during a sub-step.
type Constraint interface {
	// Step applies one XPBD projection using the sub-step size dt,
	// updating its own lambda and the positions of the particles it
	// touches. Particles are locked internally in ascending ID order.
	Step(dt float32)
	// Render produces the wire-protocol snapshot of this constraint's
	// topology for the current frame.
	Render() protocol.PrConstraint
}

// Resettable is implemented by permanent (template-authored) constraints:
// Distance and Volume. PreIteration resets lambda for the new sub-step,
// applies plasticity, and reports whether the constraint survives its
// break range. Transient collision constraints and Leash pins are never
// part of a group's permanent set and do not implement this: collision
// constraints are rebuilt from scratch every sub-step (lambda starts at
// zero already), and leash pins are never checked against a break range.
type Resettable interface {
	// PreIteration returns false when the constraint should be removed
	// before solving begins this sub-step.
	PreIteration() bool
}

// Permanent is the interface a constraint group's template-authored
// constraints must satisfy.
type Permanent interface {
	Constraint
	Resettable
}

const jitterScale = 1e-4
