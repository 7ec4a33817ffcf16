// scenario/scenario_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package scenario

import (
	"errors"
	"testing"

	"github.com/mmp/autoflight/autopilot"
)

const liftoff = `
name: liftoff
profile: A380
dt: 1
duration: 9
aircraft:
  h_ind: 1000
  h_radio: 1000
  v_ias: 250
  vls: 140
  vmax: 340
  engine_operative: [true, true, true, true]
request:
  fd_active: true
  h_fcu: 10000
  h_dot_fcu: 1000
  v_fcu: 250
steps:
  - at: 5
    expect: {lateral: HDG, vertical: NONE}
  - at: 6
    expect: {lateral: HDG, vertical: VS, vertical_armed: ALT}
  - at: 7
    set: {trk_fpa_mode: true}
    expect: {lateral: TRACK, vertical: FPA, ap1: false}
  - at: 8
    press: [ap_engage]
    hold: 0.5
`

func TestParseAndFrames(t *testing.T) {
	sc, err := Parse([]byte(liftoff), "liftoff.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if sc.Name != "liftoff" || sc.Profile != "A380" || sc.Aircraft.HRadio != 1000 || !sc.Request.FDActive {
		t.Errorf("unexpected scenario header %+v", sc)
	}

	frames, err := sc.Frames()
	if err != nil {
		t.Fatalf("Frames: %v", err)
	}
	if len(frames) != 10 {
		t.Fatalf("%d frames, expected 10", len(frames))
	}
	for i, f := range frames {
		if f.Time != float64(i) {
			t.Errorf("frame %d at t=%v", i, f.Time)
		}
		if trk := f.Request.TrkFpaMode; trk != (i >= 7) {
			t.Errorf("frame %d: trk_fpa_mode %v", i, trk)
		}
		if ap := f.Request.APEngage; ap != (i == 8) {
			t.Errorf("frame %d: ap_engage %v", i, ap)
		}
		if hasExpect := f.Expect != nil; hasExpect != (i >= 5 && i <= 7) {
			t.Errorf("frame %d: expectation present %v", i, hasExpect)
		}
	}
	if !frames[0].Aircraft.EngineOperative[3] {
		t.Errorf("engine_operative array not decoded")
	}
}

func TestHold(t *testing.T) {
	sc, err := Parse([]byte(`
dt: 0.5
duration: 4
steps:
  - at: 1
    press: [hdg_pull, alt_push]
    hold: 1
`), "hold.yaml")
	if err != nil {
		t.Fatal(err)
	}
	frames, err := sc.Frames()
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range frames {
		down := f.Time >= 1 && f.Time < 2
		if f.Request.HDGPull != down || f.Request.ALTPush != down {
			t.Errorf("t=%v: hdg_pull %v alt_push %v, expected %v", f.Time, f.Request.HDGPull, f.Request.ALTPush, down)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{"no dt", "duration: 10\n", ErrInvalidScenario},
		{"unknown top-level key", "dt: 1\nduration: 10\nspeed: 3\n", ErrInvalidScenario},
		{"unknown set input", "dt: 1\nduration: 10\nsteps:\n  - at: 1\n    set: {altitude: 3}\n", ErrInvalidScenario},
		{"bad set value", "dt: 1\nduration: 10\nsteps:\n  - at: 1\n    set: {h_ind: high}\n", ErrInvalidScenario},
		{"press non-button", "dt: 1\nduration: 10\nsteps:\n  - at: 1\n    press: [h_fcu]\n", ErrInvalidScenario},
		{"out of order", "dt: 1\nduration: 10\nsteps:\n  - at: 5\n  - at: 1\n", ErrInvalidScenario},
		{"past the end", "dt: 1\nduration: 10\nsteps:\n  - at: 11\n", ErrInvalidScenario},
		{"bad mode", "dt: 1\nduration: 10\nsteps:\n  - at: 1\n    expect: {lateral: SIDEWAYS}\n", ErrInvalidScenario},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml), tt.name); !errors.Is(err, tt.err) {
				t.Errorf("got error %v, expected %v", err, tt.err)
			}
		})
	}
}

func TestExpectCheck(t *testing.T) {
	hdg, vs := autopilot.LateralHDG, autopilot.VerticalVS
	yes := true
	x := Expect{Lateral: &hdg, Vertical: &vs, AP1: &yes}

	var o autopilot.Output
	o.Lateral.Output.Mode = autopilot.LateralHDG
	o.Vertical.Output.Mode = autopilot.VerticalVS
	o.AP1 = true
	if err := x.Check(o); err != nil {
		t.Errorf("matching output: %v", err)
	}

	o.Vertical.Output.Mode = autopilot.VerticalALT
	if err := x.Check(o); !errors.Is(err, ErrExpectationFailed) {
		t.Errorf("mismatched output: got error %v, expected ErrExpectationFailed", err)
	}
}

// The scripted expectations hold when the frames are flown through a
// session.
func TestScenarioRun(t *testing.T) {
	sc, err := Parse([]byte(liftoff), "liftoff.yaml")
	if err != nil {
		t.Fatal(err)
	}
	frames, err := sc.Frames()
	if err != nil {
		t.Fatal(err)
	}
	p, _ := autopilot.LookupProfile(sc.Profile)
	s, err := autopilot.New(p)
	if err != nil {
		t.Fatal(err)
	}

	checked := 0
	for _, f := range frames {
		o, err := s.Tick(autopilot.Time{Now: f.Time, DT: sc.DT}, &f.Aircraft, &f.Request)
		if err != nil {
			t.Fatal(err)
		}
		if f.Expect != nil {
			checked++
			if err := f.Expect.Check(o); err != nil {
				t.Error(err)
			}
		}
	}
	if checked != 3 {
		t.Errorf("checked %d expectations, expected 3", checked)
	}
}
