// Package protocol defines the wire types exchanged between a running
// simulation and a front end: the read-only model snapshot sent out every
// frame and the control messages accepted back in.
//
// Grounded on original_source/src/protocol/src/{lib.rs,pr_model.rs,
// user_event.rs}. The source serializes these over a bincode socket
// (sock.rs); that transport is out of scope here (see SPEC_FULL.md §1),
// so protocol only defines the Go values a caller would marshal onto
// whatever channel or encoding it chooses. Fields use plain arrays and
// float32 rather than the particle/constraint packages' own types so this
// package stays a leaf with no dependency on the solver internals it
// describes.
package protocol

// PrParticle is the render-facing snapshot of one particle: its current
// position only. Mirrors pr_model.rs's PrParticle.
type PrParticle struct {
	Pos [2]float32
}

// PrConstraint is the render-facing snapshot of one constraint: which
// particles it spans, in the order the constraint was constructed with,
// and its stable template ID. ID is
// -1 for constraints that were never assigned one (transient collision
// constraints, leash pins).
type PrConstraint struct {
	ID        int32
	Particles []uint64
}

// PrModel is a full snapshot of the simulation's renderable state for one
// frame: every live particle's position, keyed by ID, plus every live
// constraint's topology.
type PrModel struct {
	Particles   map[uint64]PrParticle
	Constraints []PrConstraint
}

// UpdateInfo carries the bookkeeping a front end uses to judge simulation
// health without needing to inspect the full model: wall-clock load of
// the last frame and current population sizes. Mirrors UpdateInfo in
// user_event.rs.
type UpdateInfo struct {
	// Load is frame wall-clock time divided by the frame's nominal
	// budget (dt * particlesPerRender * timeScale). Load > 1 means the simulation
	// could not keep real time this frame.
	Load float32
	// ParticleLen is the number of live particles.
	ParticleLen int
	// ConstraintLen holds, in order, permanent, transient (collision)
	// and marionette (leash) constraint counts.
	ConstraintLen [3]int
}

// Index names for UpdateInfo.ConstraintLen.
const (
	ConstraintPermanent = iota
	ConstraintTransient
	ConstraintMarionette
)

// UserEvent is the single outbound message kind: a full model snapshot
// paired with this frame's health info. The source models this as an
// enum with one populated variant (UserEvent::Update); since there is
// only one variant, a plain struct says the same thing with less
// ceremony.
type UserEvent struct {
	Model PrModel
	Info  UpdateInfo
}

// MessageKind tags the inbound controller messages a simulation accepts.
type MessageKind uint8

const (
	// TogglePause flips between running and paused.
	TogglePause MessageKind = iota
	// FrameForward advances exactly one frame while paused.
	FrameForward
	// ControlParticle pins ParticleID to Target via a leash constraint.
	ControlParticle
	// UncontrolParticle releases a previously pinned particle.
	UncontrolParticle
)

// ControllerMessage is the single inbound message type, tagged by Kind.
// ParticleID and Target are only meaningful for the Control/Uncontrol
// variants. Mirrors controller_message.rs's ControllerMessage enum.
type ControllerMessage struct {
	Kind       MessageKind
	ParticleID uint64
	Target     [2]float32
}
