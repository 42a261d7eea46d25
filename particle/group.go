package particle

import (
	"sort"

	"github.com/archlab/xpbd2d/internal/workerpool"
)

// cell is a spatial-hash bucket coordinate: floor(pos / cellSize) on each
// axis. Grounded on original_source/src/xpbd/src/particle_group.rs
// (get_cpos) and on the teacher's systems/spatial.go grid, adapted from a
// fixed-size toroidal array to an unbounded map keyed by cell since the
// source grid has no wraparound and no fixed extent.
type cell struct{ x, y int32 }

// Group owns every particle in a simulation and the spatial hash used to
// find broad-phase collision candidates. It is the Go counterpart of
// ParticleGroup in particle_group.rs.
type Group struct {
	cellSize    float32
	speedLimitK float32
	box         Posbox

	nextID ID
	data   map[ID]*Particle
	shp    map[cell][]*Particle
}

// NewGroup builds an empty group. cellSize sizes both the spatial hash
// bucket and, scaled by speedLimitK, the per-substep displacement cap
// (d_max = speedLimitK * cellSize) so a particle can never tunnel past a
// neighboring cell in a single integration step.
func NewGroup(cellSize, speedLimitK float32, box Posbox) *Group {
	return &Group{
		cellSize:    cellSize,
		speedLimitK: speedLimitK,
		box:         box,
		data:        make(map[ID]*Particle),
		shp:         make(map[cell][]*Particle),
	}
}

func cellOf(pos Vec2, cellSize float32) cell {
	return cell{
		x: int32(floorDiv(pos.X, cellSize)),
		y: int32(floorDiv(pos.Y, cellSize)),
	}
}

func floorDiv(v, size float32) float32 {
	q := v / size
	f := float32(int32(q))
	if f > q {
		f--
	}
	return f
}

// Add allocates a new particle, assigns it the next ID and inserts it
// into the group and spatial hash. Mirrors add_pref in
// particle_group.rs.
func (g *Group) Add(imass float32, pos, accel Vec2) *Particle {
	id := g.nextID
	g.nextID++
	p := New(id, imass, pos, accel)
	g.data[id] = p
	c := cellOf(pos, g.cellSize)
	g.shp[c] = append(g.shp[c], p)
	return p
}

// Get looks up a particle by ID.
func (g *Group) Get(id ID) (*Particle, bool) {
	p, ok := g.data[id]
	return p, ok
}

// Len returns the number of live particles.
func (g *Group) Len() int { return len(g.data) }

// IDs returns every particle ID in ascending order. Used anywhere
// iteration order must be deterministic: snapshotting, marionette
// bookkeeping, tests.
func (g *Group) IDs() []ID {
	ids := make([]ID, 0, len(g.data))
	for id := range g.data {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Each calls fn for every particle in ascending ID order.
func (g *Group) Each(fn func(*Particle)) {
	for _, id := range g.IDs() {
		fn(g.data[id])
	}
}

// Update advances every particle by one sub-step and rebuilds the spatial
// hash from the resulting positions. Matches ParticleGroup::update, which
// takes the whole hash apart and reinserts every particle rather than
// mutating buckets in place: a moved particle usually changes cell, so an
// in-place update would need to detect and relocate it anyway.
//
// Integration itself stays single-threaded: the source never parallelizes
// this pass, only the broad phase and constraint projection that follow
// it, and each particle's new bucket depends only on its own new
// position so there is nothing to gain from chunking it here.
func (g *Group) Update(dt float32) {
	dmax := g.speedLimitK * g.cellSize
	next := make(map[cell][]*Particle, len(g.shp))
	for _, p := range g.data {
		p.Lock()
		p.Integrate(dt, dmax)
		pos := p.pos
		if g.box.Apply(&pos) {
			p.SetPosLocked(pos)
			p.ppos = pos
		}
		c := cellOf(p.pos, g.cellSize)
		p.Unlock()
		next[c] = append(next[c], p)
	}
	g.shp = next
}

// Pair is an ordered (ascending ID) candidate collision pair.
type Pair struct {
	A, B *Particle
}

var neighborOffsets = [9][2]int32{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// CollisionPairs runs the broad phase: for every occupied cell, scan the
// cell and its 8 neighbors, keep particle pairs with id(A) < id(B) to
// de-duplicate, and keep only pairs whose current distance is within
// cellSize. Grounded on collcon_of_2_pvecs and collision_constraints in
// particle_group.rs, which partition work across cells via rayon; here the
// same partition drives workerpool.Collect. sequential forces the single
// worker path used by deterministic/debug runs.
func (g *Group) CollisionPairs(sequential bool) []Pair {
	cells := make([]cell, 0, len(g.shp))
	for c := range g.shp {
		cells = append(cells, c)
	}

	pairs := workerpool.Collect(len(cells), sequential, func(lo, hi int) []Pair {
		var local []Pair
		for i := lo; i < hi; i++ {
			c := cells[i]
			bucket := g.shp[c]
			for _, off := range neighborOffsets {
				nc := cell{c.x + off[0], c.y + off[1]}
				neighbors, ok := g.shp[nc]
				if !ok {
					continue
				}
				local = append(local, pairsWithin(bucket, neighbors, g.cellSize)...)
			}
		}
		return local
	})

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A.id != pairs[j].A.id {
			return pairs[i].A.id < pairs[j].A.id
		}
		return pairs[i].B.id < pairs[j].B.id
	})
	return dedupPairs(pairs)
}

func pairsWithin(bucket, neighbors []*Particle, cellSize float32) []Pair {
	var out []Pair
	for _, a := range bucket {
		for _, b := range neighbors {
			if a.id >= b.id {
				continue
			}
			if a.Snapshot().Sub(b.Snapshot()).Len() > cellSize {
				continue
			}
			out = append(out, Pair{A: a, B: b})
		}
	}
	return out
}

func dedupPairs(pairs []Pair) []Pair {
	out := pairs[:0]
	var lastA, lastB ID
	first := true
	for _, p := range pairs {
		if !first && p.A.id == lastA && p.B.id == lastB {
			continue
		}
		out = append(out, p)
		lastA, lastB = p.A.id, p.B.id
		first = false
	}
	return out
}
