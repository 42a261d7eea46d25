package particle

// Posbox is an axis-aligned world boundary. Grounded on
// original_source/src/xpbd/src/posbox.rs (there named Posbox/PosBox across
// the two source revisions folded into pworld.rs).
type Posbox struct {
	XMin, XMax, YMin, YMax float32
}

// Apply clamps pos into the box in place and reports whether either axis
// was clamped, matching the source's bool return used to decide whether a
// particle's implied velocity should be killed (Group.Update then sets
// ppos to the clamped position).
func (b Posbox) Apply(pos *Vec2) bool {
	clamped := false
	if pos.X < b.XMin {
		pos.X = b.XMin
		clamped = true
	} else if pos.X > b.XMax {
		pos.X = b.XMax
		clamped = true
	}
	if pos.Y < b.YMin {
		pos.Y = b.YMin
		clamped = true
	} else if pos.Y > b.YMax {
		pos.Y = b.YMax
		clamped = true
	}
	return clamped
}
