// SPDX-License-Identifier: EPL-2.0

package utils

// Number covers the scalar types the clamping helpers work on.
type Number interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// Clamp limits val to the closed range [lo, hi].
func Clamp[K Number](lo, val, hi K) K {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// CubicInterpolate performs Catmull-Rom interpolation between y1 and y2.
// x is the fractional position between y1 and y2 (0 <= x <= 1), y0 and y3
// are the neighbouring samples that shape the tangents.
// At x == 0 the result is exactly y1.
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return ((a0*x+a1)*x+a2)*x + a3
}

// Lerp linearly interpolates from a to b.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}
