// math/core.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"

	"golang.org/x/exp/constraints"
)

const (
	// FeetPerMeter converts metres to feet.
	FeetPerMeter = 3.2808398950131235
	// MetersPerNM is the length of a nautical mile.
	MetersPerNM = 1852.0
	// MetersPerSecondPerKnot converts knots to m/s.
	MetersPerSecondPerKnot = 0.51444444444444448
	// FeetPerMinutePerMeterPerSecond converts m/s to ft/min.
	FeetPerMinutePerMeterPerSecond = 196.85039370078741
	// G is standard gravity in m/s².
	G = 9.81
)

// Degrees converts an angle expressed in radians to degrees.
func Degrees(r float64) float64 {
	return r * 180 / gomath.Pi
}

// Radians converts an angle expressed in degrees to radians.
func Radians(d float64) float64 {
	return d / 180 * gomath.Pi
}

func Sin(a float64) float64  { return gomath.Sin(a) }
func Cos(a float64) float64  { return gomath.Cos(a) }
func Tan(a float64) float64  { return gomath.Tan(a) }
func Sqrt(a float64) float64 { return gomath.Sqrt(a) }

func Atan2(y, x float64) float64 {
	return gomath.Atan2(y, x)
}

func SafeASin(a float64) float64 {
	return gomath.Asin(Clamp(a, -1, 1))
}

func Round(v float64) float64 {
	return gomath.Round(v)
}

// Mod returns a mod b with the sign of a, like fmod.
func Mod(a, b float64) float64 {
	return gomath.Mod(a, b)
}

func Sign[V constraints.Signed | constraints.Float](v V) V {
	if v > 0 {
		return 1
	} else if v < 0 {
		return -1
	}
	return 0
}

func Abs[V constraints.Integer | constraints.Float](x V) V {
	if x < 0 {
		return -x
	}
	return x
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Sqr[V constraints.Integer | constraints.Float](v V) V { return v * v }

func Clamp[T constraints.Ordered](x T, low T, high T) T {
	if x < low {
		return low
	} else if x > high {
		return high
	}
	return x
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !gomath.IsNaN(v) && !gomath.IsInf(v, 0)
}
