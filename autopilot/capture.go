// autopilot/capture.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"sort"

	"github.com/mmp/autoflight/math"
)

// Load factor schedule for the altitude capture, as a cubic spline in
// |H_dot| (ft/min). Interval i covers [captureBreakpoints[i],
// captureBreakpoints[i+1]); the last one extrapolates.
var (
	captureBreakpoints = [...]float64{0, 1000, 3333, 4000, 6000, 8000, 10000}
	captureCoeffs      = [4][6]float64{
		{-3.7631613045100394e-12, -3.7631613045100418e-12, 6.2076488130688133e-12,
			2.3375903616618146e-12, -2.9675180723323623e-12, -2.9675180723323619e-12},
		{2.2735910872868498e-8, 1.1446426959338374e-8, -1.4891939010927404e-8,
			-2.4704337359767112e-9, 1.1555108433994175e-8, -6.25e-9},
		{-1.897274956835846e-5, 1.520958826384842e-5, 7.1712086474912069e-6,
			-4.4094939746938354e-6, 1.3759855421341094e-5, 2.4370072289329445e-5},
		{0.05, 0.05, 0.1, 0.1, 0.1, 0.15},
	}
)

const (
	minCaptureDistance = 80
	maxCaptureDistance = 3000
)

// captureLoadFactor returns the incremental load factor (in g) used to
// round out a climb or descent at the given |H_dot|.
func captureLoadFactor(hdot float64) float64 {
	v := math.Abs(hdot)
	// Index of the last breakpoint <= v, limited to the spline's
	// intervals.
	i := sort.SearchFloat64s(captureBreakpoints[:], v)
	if i == len(captureBreakpoints) || captureBreakpoints[i] != v {
		i--
	}
	i = math.Clamp(i, 0, len(captureCoeffs[0])-1)

	x := v - captureBreakpoints[i]
	c := captureCoeffs
	return ((x*c[0][i]+c[1][i])*x+c[2][i])*x + c[3][i]
}

// CaptureDistance returns the altitude error in feet below which an
// altitude capture should begin for the given vertical speed.
func CaptureDistance(hdot float64) float64 {
	a := hdot * 0.00508 // ft/min to m/s
	d := a * a / (captureLoadFactor(hdot) * math.G) * math.FeetPerMeter
	return math.Clamp(d, minCaptureDistance, maxCaptureDistance)
}

// inCaptureWindow reports whether the aircraft is closing on a target d
// feet away fast enough, and near enough, to start capturing it.
func inCaptureWindow(d, hdot float64) bool {
	return math.Abs(d) <= CaptureDistance(hdot) && math.Sign(d) == math.Sign(hdot) &&
		math.Abs(hdot) >= 100
}
