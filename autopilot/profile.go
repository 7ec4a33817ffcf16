// autopilot/profile.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"slices"
	"strings"

	"github.com/mmp/autoflight/util"
)

// RunwayBeam selects the navigation validity flag that the runway mode
// checks before engaging and while active.
type RunwayBeam int

const (
	RunwayBeamLocalizer RunwayBeam = iota
	RunwayBeamNav
)

var runwayBeamNames = map[RunwayBeam]string{
	RunwayBeamLocalizer: "localizer",
	RunwayBeamNav:       "nav",
}

func (r RunwayBeam) String() string { return enumString(runwayBeamNames, r) }
func (r RunwayBeam) MarshalText() ([]byte, error) {
	return enumMarshal(runwayBeamNames, r)
}
func (r *RunwayBeam) UnmarshalText(b []byte) error {
	return enumUnmarshal(runwayBeamNames, r, b)
}

// AircraftProfile holds the thresholds that differ between aircraft
// types. The state machines are otherwise shared.
type AircraftProfile struct {
	Name    string `json:"name"`
	Engines int    `json:"engines"`

	// ALT is captured once |H_fcu - H_ind| stays below ALTCaptureBand
	// for ALTDwell seconds; a zero dwell captures immediately.
	ALTCaptureBand float64 `json:"alt_capture_band_ft"`
	ALTDwell       float64 `json:"alt_dwell_s"`

	RunwayBeam     RunwayBeam `json:"runway_beam"`
	RunwaySRSDwell float64    `json:"runway_srs_dwell_s"`

	HSelectionWindow   float64 `json:"h_selection_window_s"`
	PsiSelectionWindow float64 `json:"psi_selection_window_s"`
	VSelectionWindow   float64 `json:"v_selection_window_s"`

	GsLagC1      float64 `json:"gs_lag_c1"`
	DebounceFall float64 `json:"debounce_fall_s"`
	FCUUnset     float64 `json:"fcu_unset"`
}

func A380() AircraftProfile {
	return AircraftProfile{
		Name:               "A380",
		Engines:            4,
		ALTCaptureBand:     40,
		ALTDwell:           0.8,
		RunwayBeam:         RunwayBeamLocalizer,
		RunwaySRSDwell:     0.9,
		HSelectionWindow:   1,
		PsiSelectionWindow: 5,
		VSelectionWindow:   5,
		GsLagC1:            2,
		DebounceFall:       0.5,
		FCUUnset:           -1,
	}
}

func A320() AircraftProfile {
	return AircraftProfile{
		Name:               "A320",
		Engines:            2,
		ALTCaptureBand:     20,
		ALTDwell:           0,
		RunwayBeam:         RunwayBeamNav,
		RunwaySRSDwell:     0.9,
		HSelectionWindow:   1,
		PsiSelectionWindow: 5,
		VSelectionWindow:   5,
		GsLagC1:            2,
		DebounceFall:       0.5,
		FCUUnset:           -1,
	}
}

// BuiltinProfiles returns the names of the profiles that LookupProfile
// knows about.
func BuiltinProfiles() []string {
	return []string{"A320", "A380"}
}

func LookupProfile(name string) (AircraftProfile, bool) {
	switch strings.ToUpper(name) {
	case "A380":
		return A380(), true
	case "A320":
		return A320(), true
	default:
		return AircraftProfile{}, false
	}
}

// Validate reports all of the problems with the profile's parameters
// through e.
func (p *AircraftProfile) Validate(e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	e.Push("Profile " + p.Name)
	defer e.Pop()

	if p.Name == "" {
		e.ErrorString("must provide \"name\"")
	}
	if !slices.Contains([]int{2, 4}, p.Engines) {
		e.ErrorString("\"engines\" must be 2 or 4; got %d", p.Engines)
	}
	if p.ALTCaptureBand <= 0 {
		e.ErrorString("\"alt_capture_band_ft\" must be positive")
	}
	if p.ALTDwell < 0 {
		e.ErrorString("\"alt_dwell_s\" cannot be negative")
	}
	if p.RunwaySRSDwell < 0 {
		e.ErrorString("\"runway_srs_dwell_s\" cannot be negative")
	}
	for _, w := range []struct {
		name string
		v    float64
	}{{"h_selection_window_s", p.HSelectionWindow}, {"psi_selection_window_s", p.PsiSelectionWindow},
		{"v_selection_window_s", p.VSelectionWindow}} {
		if w.v < 0 {
			e.ErrorString("%q cannot be negative", w.name)
		}
	}
	if p.GsLagC1 <= 0 {
		e.ErrorString("\"gs_lag_c1\" must be positive")
	}
	if p.DebounceFall <= 0 {
		e.ErrorString("\"debounce_fall_s\" must be positive")
	}
}
