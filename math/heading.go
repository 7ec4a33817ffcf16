// math/heading.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

///////////////////////////////////////////////////////////////////////////
// headings and directions

// NormalizeHeading reduces h to [0,360).
func NormalizeHeading(h float64) float64 {
	if h < 0 {
		h = 360 - NormalizeHeading(-h)
		if h == 360 {
			return 0
		}
		return h
	}
	return Mod(h, 360)
}

// CircularDelta returns a-b folded into (-180,180]: positive when a is
// clockwise of b.
func CircularDelta(a, b float64) float64 {
	r := NormalizeHeading(a - b)
	if r > 180 {
		return r - 360
	}
	return r
}

// HeadingDifference returns the minimum difference between two
// headings. (i.e., the result is always in the range [0,180].)
func HeadingDifference(a float64, b float64) float64 {
	return Abs(CircularDelta(a, b))
}

// SignedAngle180 folds an angle in degrees to [-180,180] keeping the sign
// of the original value at the boundary.
func SignedAngle180(a float64) float64 {
	a = Mod(a, 360)
	if Abs(a) > 180 {
		if a > 0 {
			a -= 360
		} else {
			a += 360
		}
	}
	return a
}

// TanDegrees evaluates tan for an angle in degrees, reducing by quadrant
// first so that values near ±90 keep their precision.
func TanDegrees(a float64) float64 {
	a = SignedAngle180(a)
	aa := Abs(a)
	var n int
	switch {
	case aa <= 45:
		a = Radians(a)
	case aa <= 135:
		if a > 0 {
			a, n = Radians(a-90), 1
		} else {
			a, n = Radians(a+90), -1
		}
	case a > 0:
		a, n = Radians(a-180), 2
	default:
		a, n = Radians(a+180), -2
	}
	t := Tan(a)
	if n == 1 || n == -1 {
		t = -1 / t
	}
	return t
}
