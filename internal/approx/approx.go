// Package approx provides tolerance-aware comparisons for times and positions.
//
// Comparisons are made against one of a fixed set of precision tiers, and every
// call site names the tier it needs:
//
//   - Tight: same-segment equality where only rounding error is expected.
//   - Low:   boundary detection after a segment has been advanced by many steps.
//   - Huge:  cross-segment drift accumulated over many switches, or data loaded
//     from files written with limited decimal places.
package approx

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/spatial/r2"
)

// Precision is an absolute tolerance tier.
type Precision float64

const (
	Tight Precision = 1e-9
	Low   Precision = 1e-5
	Huge  Precision = 1e-2
)

// Equal reports whether a and b are within p of each other. Equal infinities compare equal.
func Equal(p Precision, a, b float64) bool {
	return scalar.EqualWithinAbsOrRel(a, b, float64(p), float64(p))
}

// Greater reports whether a exceeds b by more than p.
func Greater(p Precision, a, b float64) bool {
	return a > b && !Equal(p, a, b)
}

// Less reports whether a is below b by more than p.
func Less(p Precision, a, b float64) bool {
	return a < b && !Equal(p, a, b)
}

// Zero reports whether v is within p of zero.
func Zero(p Precision, v float64) bool {
	return scalar.EqualWithinAbs(v, 0, float64(p))
}

// EqualPos reports whether both coordinates of a and b are within p.
func EqualPos(p Precision, a, b r2.Vec) bool {
	return Equal(p, a.X, b.X) && Equal(p, a.Y, b.Y)
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
