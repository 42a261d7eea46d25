// Package model defines PhysicalModel: a value-only, reusable description
// of a cluster of particles and constraints that World.AddModel
// instantiates into a live simulation at a given offset.
//
// Grounded on original_source/src/xpbd/src/physical_model.rs. Templates
// there are built directly as Rust struct literals inside new_block();
// this package keeps the same value/offset-instantiation idiom but makes
// the constraint variants an explicit sum type, since Go has no enum with
// payload to lean on the way the source's Constraint trait objects do.
package model

import "github.com/archlab/xpbd2d/particle"

// ParticleTemplate describes one particle relative to a model's origin.
// Accel is the particle's constant acceleration term (typically gravity);
// it is carried per-particle rather than supplied once by World so a
// template can mix pinned and free particles with different force terms.
type ParticleTemplate struct {
	Imass float32
	Pos   particle.Vec2
	Accel particle.Vec2
}

// DistanceTemplate describes a Distance constraint between two particle
// indices within the same model. BreakHi <= 0 disables the break check.
type DistanceTemplate struct {
	A, B             int
	ID               int32
	Compliance       float32
	Type             int // constraint.Type, kept as int to avoid importing constraint here
	PlasThresh       float32
	PlasCutoff       float32
	BreakLo, BreakHi float32
}

// VolumeTemplate describes a Volume constraint spanning three particle
// indices within the same model.
type VolumeTemplate struct {
	A, B, C    int
	ID         int32
	Compliance float32
}

// ConstraintTemplate is exactly one of Distance or Volume. Go has no
// payload-carrying enum, so the sum type is expressed as two optional
// pointer fields rather than an interface with a type switch: templates
// are plain data meant to be inspected and instantiated by world.AddModel,
// not behavior, so a marker-method interface would only add ceremony.
type ConstraintTemplate struct {
	Distance *DistanceTemplate
	Volume   *VolumeTemplate
}

// Dependency marks that the constraint at index Dependent should be
// removed whenever the constraint at index Base is removed. Indices are
// positions into PhysicalModel.Constraints.
type Dependency struct {
	Dependent, Base int
}

// PhysicalModel is a reusable, value-only blueprint for a cluster of
// particles and constraints.
type PhysicalModel struct {
	Particles    []ParticleTemplate
	Constraints  []ConstraintTemplate
	Dependencies []Dependency
}
