package som

import "math"

// InitialRadius returns R0, the source's starting neighborhood radius:
// half the grid's column dimension.
func InitialRadius(somX int) float64 {
	return float64(somX) / 2.0
}

// RadiusAt returns the decayed radius for epoch index x (0-based), given
// the initial radius r0 and the total epoch budget n. This reproduces the
// source's schedule exactly: R = R0 * exp(-10*x^2/N^2).
func RadiusAt(r0 float64, x, n int) float64 {
	fx, fn := float64(x), float64(n)
	return r0 * math.Exp(-10*fx*fx/(fn*fn))
}

// Done reports whether training should stop: either the epoch budget is
// exhausted, or the radius has decayed to 1 or below. Both conditions are
// meant to be evaluated at the top of the epoch loop.
func Done(remaining int, r float64) bool {
	return remaining == 0 || r <= 1.0
}
