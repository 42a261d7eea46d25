package constraint

import (
	"sort"

	"github.com/archlab/xpbd2d/internal/workerpool"
	"github.com/archlab/xpbd2d/particle"
	"github.com/archlab/xpbd2d/protocol"
)

// Group owns every constraint touching a simulation: the permanent,
// template-authored set (Distance and Volume), the transient collision
// contacts rebuilt every sub-step by the broad phase, and the marionette
// leash pins a controller currently has attached. Grounded on
// constraint_group.rs's ConstraintGroup.
type Group struct {
	nextID uint64
	order  []uint64 // ascending insertion order
	perm   map[uint64]Permanent
	deps   map[uint64][]uint64 // base constraint ID -> dependent IDs

	transient []*Distance

	marionette map[particle.ID]*Leash
}

// NewGroup builds an empty constraint group.
func NewGroup() *Group {
	return &Group{
		perm:       make(map[uint64]Permanent),
		deps:       make(map[uint64][]uint64),
		marionette: make(map[particle.ID]*Leash),
	}
}

// AddPermanent registers a template-authored constraint and returns the
// group-internal ID used for dependency tracking and cascade removal.
// This ID is independent of any protocol ID the caller attached via
// WithID; callers instantiating a PhysicalModel template typically set
// both to the same value so wire snapshots correlate with the
// dependency graph.
func (g *Group) AddPermanent(c Permanent) uint64 {
	id := g.nextID
	g.nextID++
	g.perm[id] = c
	g.order = append(g.order, id)
	return id
}

// AddDependency records that dependent should be cascade-removed whenever
// base is removed (by breaking, or by a prior cascade). Mirrors the
// dependency bookkeeping PWorld.add_model performs when a template marks
// one constraint as depending on another, e.g. a volume cell that should
// vanish once the edge bounding it snaps.
func (g *Group) AddDependency(dependent, base uint64) {
	g.deps[base] = append(g.deps[base], dependent)
}

// PreIteration resets every permanent constraint for the new sub-step and
// removes any that failed their break range, cascading the removal to
// whatever depends on them. Returns every constraint ID removed this
// call, for telemetry and tests. Transient collision constraints and
// marionette leash pins are untouched: they are never part of the
// permanent set pre_iteration walks in the source.
func (g *Group) PreIteration() []uint64 {
	var broke []uint64
	for _, id := range g.order {
		if !g.perm[id].PreIteration() {
			broke = append(broke, id)
		}
	}
	if len(broke) == 0 {
		return nil
	}

	removed := make(map[uint64]bool)
	var order []uint64
	var cascade func(id uint64)
	cascade = func(id uint64) {
		if removed[id] {
			return
		}
		removed[id] = true
		order = append(order, id)
		for _, dep := range g.deps[id] {
			cascade(dep)
		}
	}
	for _, id := range broke {
		cascade(id)
	}

	kept := g.order[:0]
	for _, id := range g.order {
		if !removed[id] {
			kept = append(kept, id)
		}
	}
	g.order = kept
	for _, id := range order {
		delete(g.perm, id)
		delete(g.deps, id)
	}
	return order
}

// SetTransient replaces the current frame's broad-phase collision
// constraints. Called once per sub-step after the broad phase runs.
func (g *Group) SetTransient(cs []*Distance) { g.transient = cs }

// Control pins p toward target via a leash constraint, creating one if p
// isn't already controlled or retargeting the existing pin otherwise.
// Mirrors ConstraintGroup::control_particle.
func (g *Group) Control(p *particle.Particle, target particle.Vec2, compliance float32) {
	if l, ok := g.marionette[p.ID()]; ok {
		l.SetTarget(target)
		return
	}
	g.marionette[p.ID()] = NewLeash(p, target).WithCompliance(compliance)
}

// Uncontrol releases any leash pin on the given particle. A no-op if the
// particle wasn't controlled.
func (g *Group) Uncontrol(id particle.ID) {
	delete(g.marionette, id)
}

func (g *Group) marionetteIDs() []particle.ID {
	ids := make([]particle.ID, 0, len(g.marionette))
	for id := range g.marionette {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (g *Group) stream() []Constraint {
	out := make([]Constraint, 0, len(g.order)+len(g.transient)+len(g.marionette))
	for _, id := range g.order {
		out = append(out, g.perm[id])
	}
	for _, t := range g.transient {
		out = append(out, t)
	}
	for _, id := range g.marionetteIDs() {
		out = append(out, g.marionette[id])
	}
	return out
}

// SolveConstraints projects every live constraint once: permanent, then
// transient, then marionette, flattened into one stream and chunked
// across a worker pool. Grounded on ConstraintGroup::solve_constraints,
// which chains three rayon iterators end to end rather than running three
// separate parallel passes. sequential forces in-order, single-goroutine
// projection for deterministic/debug runs.
func (g *Group) SolveConstraints(dt float32, sequential bool) {
	stream := g.stream()
	workerpool.ForEach(len(stream), sequential, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			stream[i].Step(dt)
		}
	})
}

// PrConstraints renders every live constraint's wire-protocol topology, in
// the same permanent/transient/marionette order SolveConstraints uses.
func (g *Group) PrConstraints() []protocol.PrConstraint {
	stream := g.stream()
	out := make([]protocol.PrConstraint, len(stream))
	for i, c := range stream {
		out[i] = c.Render()
	}
	return out
}

// Counts returns the live permanent, transient and marionette constraint
// counts, in that order, matching protocol.UpdateInfo.ConstraintLen.
func (g *Group) Counts() (permanent, transient, marionette int) {
	return len(g.perm), len(g.transient), len(g.marionette)
}
