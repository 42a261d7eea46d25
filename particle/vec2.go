package particle

import "math"

// Vec2 is a plain 2-D float32 vector. The constraint solver works
// exclusively in float32 to match the precision the original system was
// authored against; Vec2 carries no methods beyond the arithmetic the
// solver needs.
type Vec2 struct {
	X, Y float32
}

func (a Vec2) Add(b Vec2) Vec2 { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2 { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(s float32) Vec2 { return Vec2{a.X * s, a.Y * s} }

func (a Vec2) Dot(b Vec2) float32 { return a.X*b.X + a.Y*b.Y }

func (a Vec2) LenSq() float32 { return a.X*a.X + a.Y*a.Y }

func (a Vec2) Len() float32 { return float32(math.Sqrt(float64(a.LenSq()))) }

// IsNormal reports whether both components are finite, non-NaN and not
// both zero length. A degenerate (zero-length) or non-finite separation
// vector cannot be normalized into a correction direction; callers treat
// that as a jitter condition rather than dividing by zero.
func (a Vec2) IsNormal() bool {
	l := a.Len()
	return !math.IsNaN(float64(l)) && !math.IsInf(float64(l), 0) && l > 0
}
