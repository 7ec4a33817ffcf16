// autopilot/approach_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"fmt"
	"slices"
	"testing"
)

// step is one row of a scripted run: the inputs are changed by set just
// before the tick at time at, and check is given that tick's output.
type step struct {
	at    int
	set   func(ac *Aircraft, rq *Request)
	check func(t *testing.T, o *Output)
}

// script ticks s once a second from time from through the last step.
// Pushbuttons are released before every tick, so a push in set is a
// single press.
func script(t *testing.T, s *Session, ac *Aircraft, rq *Request, from int, steps []step) {
	t.Helper()
	now := from
	for _, st := range steps {
		for ; now <= st.at; now++ {
			releasePushbuttons(rq)
			if now == st.at && st.set != nil {
				st.set(ac, rq)
			}
			o, err := s.Tick(Time{Now: float64(now), DT: 1}, ac, rq)
			if err != nil {
				t.Fatalf("Tick(%d): %v", now, err)
			}
			if now == st.at && st.check != nil {
				st.check(t, &o)
			}
		}
	}
}

func releasePushbuttons(rq *Request) {
	rq.APEngage, rq.AP1, rq.AP2, rq.APDisconnect = false, false, false, false
	rq.HDGPush, rq.HDGPull, rq.ALTPush, rq.ALTPull = false, false, false, false
	rq.VSPush, rq.VSPull, rq.LOCPush, rq.APPRPush, rq.EXPEDPush = false, false, false, false, false
}

// airborne lifts off with the flight director on (t = 0..8) and then
// forces the given modes, as if they had been active on the last tick.
func airborne(t *testing.T, lat LateralMode, vert VerticalMode, opts ...Option) (*Session, *Aircraft, *Request) {
	t.Helper()
	s := newSession(t, opts...)
	ac, rq := climbingAircraft()
	run(t, s, ac, rq, 0, 8)
	force(s, lat, vert)
	return s, ac, rq
}

func force(s *Session, lat LateralMode, vert VerticalMode) {
	st := &s.State
	st.Lateral.Output.Mode, st.Vertical.Output.Mode = lat, vert
	st.LateralPrev, st.VerticalPrev = st.Lateral, st.Vertical
}

func expectModes(lat LateralMode, vert VerticalMode) func(*testing.T, *Output) {
	return func(t *testing.T, o *Output) {
		t.Helper()
		if o.Lateral.Output.Mode != lat || o.Vertical.Output.Mode != vert {
			t.Errorf("t=%.0f: %v/%v, expected %v/%v", o.Time, o.Lateral.Output.Mode, o.Vertical.Output.Mode,
				lat, vert)
		}
	}
}

// onBeam centers the aircraft on a localizer and glideslope toward 090.
func onBeam(ac *Aircraft) {
	ac.NavValid, ac.LocValid, ac.GsValid = true, true, true
	ac.LocDeg, ac.Psi, ac.PsiTrack = 90, 90, 90
	ac.LocErrorDeg, ac.GsErrorDeg = 0.05, 0.05
}

func TestLocalizerToRollout(t *testing.T) {
	var got []string
	s, ac, rq := airborne(t, LateralLOCCPT, VerticalGSTRACK, WithTransitionFunc(func(tr Transition) {
		got = append(got, fmt.Sprintf("%.0f %s %s", tr.Time, tr.Machine, tr.Name))
	}))
	got = nil
	onBeam(ac)

	script(t, s, ac, rq, 9, []step{
		{at: 9, check: expectModes(LateralLOCCPT, VerticalGSTRACK)},
		// LOC_TRACK after 10 seconds on the beam.
		{at: 17, check: expectModes(LateralLOCCPT, VerticalGSTRACK)},
		{at: 18, check: expectModes(LateralLOCTRACK, VerticalGSTRACK)},
		// LAND once below 400 ft for 1.2 seconds.
		{at: 19, set: func(ac *Aircraft, rq *Request) { ac.HRadio = 300 },
			check: expectModes(LateralLOCTRACK, VerticalGSTRACK)},
		{at: 20, check: expectModes(LateralLAND, VerticalLAND)},
		{at: 21, set: func(ac *Aircraft, rq *Request) { rq.FlareCondition = true },
			check: expectModes(LateralFLARE, VerticalFLARE)},
		{at: 22, set: func(ac *Aircraft, rq *Request) { ac.GearStrut1, ac.HRadio = 1, 0 },
			check: func(t *testing.T, o *Output) {
				expectModes(LateralROLLOUT, VerticalROLLOUT)(t, o)
				if o.Vertical.Output.Autothrust != AutothrustThrustIdle {
					t.Errorf("roll out autothrust %v, expected THRUST_IDLE", o.Vertical.Output.Autothrust)
				}
			}},
		// Leaving the runway axis ends the roll out; on the ground both
		// machines go to OFF.
		{at: 23, set: func(ac *Aircraft, rq *Request) { ac.Psi, ac.PsiTrack = 120, 120 },
			check: expectModes(LateralNone, VerticalNone)},
	})

	expected := []string{
		"18 lateral LOC_TRACK",
		"20 lateral LAND", "20 vertical LAND",
		"21 lateral FLARE", "21 vertical FLARE",
		"22 lateral ROLL_OUT", "22 vertical ROLL_OUT",
		"23 lateral ROLL_OUT_TO_X", "23 vertical ROLL_OUT_TO_X",
	}
	if !slices.Equal(got, expected) {
		t.Errorf("transitions %v, expected %v", got, expected)
	}
}

func TestLocalizerExits(t *testing.T) {
	tests := []struct {
		name     string
		lat      LateralMode
		vert     VerticalMode
		set      func(ac *Aircraft, rq *Request)
		lateral  LateralMode
		vertical VerticalMode
	}{
		{"LOC push in the air", LateralLOCCPT, VerticalVS,
			func(ac *Aircraft, rq *Request) { rq.LOCPush = true }, LateralHDG, VerticalVS},
		{"LOC push on the ground", LateralLOCCPT, VerticalVS,
			func(ac *Aircraft, rq *Request) {
				rq.LOCPush = true
				ac.GearStrut1, ac.HRadio = 1, 0
			}, LateralNone, VerticalVS},
		{"APPR push with the glideslope", LateralLOCTRACK, VerticalGSCPT,
			func(ac *Aircraft, rq *Request) { rq.APPRPush = true }, LateralHDG, VerticalVS},
		{"LOC push with the glideslope", LateralLOCTRACK, VerticalGSTRACK,
			func(ac *Aircraft, rq *Request) { rq.LOCPush = true }, LateralLOCTRACK, VerticalVS},
		{"HDG pull above 400 ft", LateralLOCTRACK, VerticalVS,
			func(ac *Aircraft, rq *Request) { rq.HDGPull = true }, LateralHDG, VerticalVS},
		{"HDG pull below 400 ft", LateralLOCTRACK, VerticalVS,
			func(ac *Aircraft, rq *Request) {
				rq.HDGPull = true
				ac.HRadio = 300
			}, LateralLOCTRACK, VerticalVS},
		{"HDG push above 400 ft", LateralLOCCPT, VerticalVS,
			func(ac *Aircraft, rq *Request) {
				rq.HDGPush = true
				ac.FlightPlanAvailable = true
			}, LateralNAV, VerticalVS},
		{"HDG push below 400 ft", LateralLOCCPT, VerticalVS,
			func(ac *Aircraft, rq *Request) {
				rq.HDGPush = true
				ac.FlightPlanAvailable = true
				ac.HRadio = 300
			}, LateralLOCCPT, VerticalVS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ac, rq := airborne(t, tt.lat, tt.vert)
			onBeam(ac)
			script(t, s, ac, rq, 9, []step{{at: 9, set: tt.set, check: expectModes(tt.lateral, tt.vertical)}})
		})
	}
}

func TestGlideslopeTrackDwell(t *testing.T) {
	tests := []struct {
		name  string
		steps []step
	}{
		{"steady", []step{
			{at: 22, check: expectModes(LateralLOCTRACK, VerticalGSCPT)},
			{at: 23, check: expectModes(LateralLOCTRACK, VerticalGSTRACK)},
		}},
		{"interrupted", []step{
			{at: 15, set: func(ac *Aircraft, rq *Request) { ac.GsErrorDeg = 0.2 },
				check: expectModes(LateralLOCTRACK, VerticalGSCPT)},
			{at: 16, set: func(ac *Aircraft, rq *Request) { ac.GsErrorDeg = 0.05 }},
			{at: 29, check: expectModes(LateralLOCTRACK, VerticalGSCPT)},
			{at: 30, check: expectModes(LateralLOCTRACK, VerticalGSTRACK)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ac, rq := airborne(t, LateralLOCTRACK, VerticalGSCPT)
			onBeam(ac)
			script(t, s, ac, rq, 9, tt.steps)
		})
	}
}

func TestGlideslopeExit(t *testing.T) {
	tests := []struct {
		name      string
		set       func(ac *Aircraft, rq *Request)
		lateral   LateralMode
		vertical  VerticalMode
		reversion bool
	}{
		{"VS pull", func(ac *Aircraft, rq *Request) { rq.VSPull = true }, LateralLOCTRACK, VerticalVS, false},
		{"localizer abandoned", func(ac *Aircraft, rq *Request) { rq.HDGPull = true }, LateralHDG, VerticalVS, true},
		{"LOC push on the ground", func(ac *Aircraft, rq *Request) {
			rq.LOCPush = true
			ac.GearStrut1 = 1
		}, LateralLOCTRACK, VerticalNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ac, rq := airborne(t, LateralLOCTRACK, VerticalGSTRACK)
			onBeam(ac)
			script(t, s, ac, rq, 9, []step{{at: 9, set: tt.set, check: func(t *testing.T, o *Output) {
				expectModes(tt.lateral, tt.vertical)(t, o)
				if o.Vertical.Output.ModeReversion != tt.reversion || o.VerticalReversion != tt.reversion {
					t.Errorf("reversion %v, annunciated %v, expected %v", o.Vertical.Output.ModeReversion,
						o.VerticalReversion, tt.reversion)
				}
			}}})
		})
	}
}

func goAround(ac *Aircraft, rq *Request) {
	ac.FlightPhase, ac.FlapHandle = 5, 3
	ac.VLS, ac.VAPP = 140, 145
	ac.ThrottleLever = [4]float64{45, 45, 45, 45}
}

func TestGoAround(t *testing.T) {
	tests := []struct {
		name     string
		lat      LateralMode
		vert     VerticalMode
		lateral  LateralMode
		psiC     float64
		vertical VerticalMode
	}{
		{"from the approach", LateralLOCTRACK, VerticalGSTRACK, LateralGATRACK, 93, VerticalSRSGA},
		{"from heading", LateralHDG, VerticalVS, LateralHDG, 90, VerticalSRSGA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ac, rq := airborne(t, tt.lat, tt.vert)
			onBeam(ac)
			ac.PsiTrack = 93
			script(t, s, ac, rq, 9, []step{{at: 9, set: goAround, check: func(t *testing.T, o *Output) {
				expectModes(tt.lateral, tt.vertical)(t, o)
				if o.Lateral.Output.PsiCommand != tt.psiC {
					t.Errorf("psi_c %v, expected %v", o.Lateral.Output.PsiCommand, tt.psiC)
				}
				v := &o.Vertical.Output
				if v.Autothrust != AutothrustThrustClimb || v.Law != VerticalLawSRS {
					t.Errorf("SRS_GA law %v autothrust %v", v.Law, v.Autothrust)
				}
				// min(VLS + 25, max(V_IAS, VAPP))
				if v.VCommand != 165 {
					t.Errorf("v_c %v, expected 165", v.VCommand)
				}
				if !o.ReversionTrkFpa {
					t.Errorf("go-around not flagged as a TRK/FPA reversion")
				}
			}}})
		})
	}
}

func TestGoAroundEngineOut(t *testing.T) {
	s, ac, rq := airborne(t, LateralLOCTRACK, VerticalGSTRACK)
	onBeam(ac)

	vc := func(expected float64) func(*testing.T, *Output) {
		return func(t *testing.T, o *Output) {
			expectModes(LateralGATRACK, VerticalSRSGA)(t, o)
			if o.Vertical.Output.VCommand != expected {
				t.Errorf("t=%.0f: v_c %v, expected %v", o.Time, o.Vertical.Output.VCommand, expected)
			}
		}
	}
	script(t, s, ac, rq, 9, []step{
		{at: 9, set: goAround, check: vc(165)},
		{at: 10, check: vc(165)},
		// Losing an engine lowers the target to min(VLS + 15, max(V_IAS, VAPP)).
		{at: 11, set: func(ac *Aircraft, rq *Request) {
			ac.EngineOperative[0] = false
			ac.VIAS = 150
		}, check: vc(150)},
		// Only once.
		{at: 12, set: func(ac *Aircraft, rq *Request) { ac.VIAS = 152 }, check: vc(150)},
	})
}

func TestNAVDropsWithFinalDescent(t *testing.T) {
	tests := []struct {
		name  string
		vert  VerticalMode
		setup func(ac *Aircraft, rq *Request)
		steps []step
	}{
		{"final descent lost", VerticalFINALDES,
			func(ac *Aircraft, rq *Request) { rq.FMFinalDesCanEngage = true },
			[]step{
				{at: 9, check: expectModes(LateralNAV, VerticalFINALDES)},
				{at: 10, set: func(ac *Aircraft, rq *Request) { rq.FMFinalDesCanEngage = false },
					check: expectModes(LateralNAV, VerticalVS)},
				{at: 11, check: expectModes(LateralHDG, VerticalVS)},
			}},
		{"final descent disarmed", VerticalVS,
			func(ac *Aircraft, rq *Request) { rq.FMRnavApproach = true },
			[]step{
				{at: 9, set: func(ac *Aircraft, rq *Request) { rq.APPRPush = true },
					check: func(t *testing.T, o *Output) {
						expectModes(LateralNAV, VerticalVS)(t, o)
						if !o.VerticalArmed.Has(VerticalArmedFINALDES) {
							t.Errorf("FINAL_DES not armed: %v", o.VerticalArmed)
						}
					}},
				{at: 10, check: expectModes(LateralNAV, VerticalVS)},
				{at: 11, set: func(ac *Aircraft, rq *Request) { rq.APPRPush = true },
					check: func(t *testing.T, o *Output) {
						expectModes(LateralNAV, VerticalVS)(t, o)
						if o.VerticalArmed.Has(VerticalArmedFINALDES) {
							t.Errorf("FINAL_DES still armed after a second APPR push")
						}
					}},
				{at: 12, check: expectModes(LateralHDG, VerticalVS)},
			}},
		{"no final descent", VerticalVS, nil, []step{
			{at: 9, check: expectModes(LateralNAV, VerticalVS)},
			{at: 12, check: expectModes(LateralNAV, VerticalVS)},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ac, rq := airborne(t, LateralNAV, tt.vert)
			ac.FlightPlanAvailable = true
			if tt.setup != nil {
				tt.setup(ac, rq)
			}
			script(t, s, ac, rq, 9, tt.steps)
		})
	}
}

// lineUp returns a session that has sat on the runway for 30 seconds
// and then set takeoff thrust, with the given runway and heading.
func lineUp(t *testing.T, profile AircraftProfile, locDeg, psi float64) (*Session, *Aircraft, *Request) {
	t.Helper()
	s, err := New(profile)
	if err != nil {
		t.Fatal(err)
	}
	ac := &Aircraft{
		GearStrut1:      1,
		GearStrut2:      1,
		V2:              150,
		FlapHandle:      1,
		FlightPhase:     1,
		ThrottleLever:   [4]float64{45, 45, 45, 45},
		EngineOperative: [4]bool{true, true, true, true},
		LocDeg:          locDeg,
		Psi:             psi,
		PsiTrack:        psi,
	}
	rq := &Request{FDActive: true, HFcu: 5000, VFcu: 160, PsiFcu: locDeg}
	return s, ac, rq
}

func TestRunwayMode(t *testing.T) {
	tests := []struct {
		name     string
		profile  AircraftProfile
		locDeg   float64
		psi      float64
		nav, loc bool
		lateral  LateralMode
	}{
		{"aligned across north", A380(), 359, 2, false, true, LateralRWY},
		{"misaligned", A380(), 359, 30, false, true, LateralNone},
		{"A380 uses the localizer", A380(), 359, 2, true, false, LateralNone},
		{"A320 uses nav", A320(), 1, 358, true, false, LateralRWY},
		{"A320 without nav", A320(), 1, 358, false, true, LateralNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ac, rq := lineUp(t, tt.profile, tt.locDeg, tt.psi)
			ac.NavValid, ac.LocValid = tt.nav, tt.loc
			script(t, s, ac, rq, 0, []step{
				{at: 30, check: expectModes(LateralNone, VerticalNone)},
				// SRS after half a second of takeoff thrust, then RWY once
				// SRS has been active for the profile's dwell.
				{at: 31, check: expectModes(LateralNone, VerticalSRS)},
				{at: 32, check: expectModes(tt.lateral, VerticalSRS)},
			})
		})
	}
}

func TestRunwayToRunwayTrack(t *testing.T) {
	tests := []struct {
		name    string
		set     func(ac *Aircraft, rq *Request)
		lateral LateralMode
		psiC    float64
	}{
		{"heading within 20 degrees", func(ac *Aircraft, rq *Request) { ac.Psi, ac.PsiTrack = 15, 15 },
			LateralRWY, 0},
		{"heading beyond 20 degrees", func(ac *Aircraft, rq *Request) { ac.Psi, ac.PsiTrack = 25, 24 },
			LateralRWYTRACK, 24},
		{"liftoff", func(ac *Aircraft, rq *Request) {
			ac.GearStrut1, ac.GearStrut2 = 0, 0
			ac.HRadio = 35
		}, LateralRWYTRACK, 2},
		{"beam lost", func(ac *Aircraft, rq *Request) { ac.LocValid = false }, LateralRWYTRACK, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ac, rq := lineUp(t, A380(), 359, 2)
			ac.LocValid = true
			script(t, s, ac, rq, 0, []step{
				{at: 32, check: expectModes(LateralRWY, VerticalSRS)},
				{at: 33, set: tt.set, check: func(t *testing.T, o *Output) {
					if o.Lateral.Output.Mode != tt.lateral {
						t.Errorf("lateral %v, expected %v", o.Lateral.Output.Mode, tt.lateral)
					}
					if o.Lateral.Output.PsiCommand != tt.psiC {
						t.Errorf("psi_c %v, expected %v", o.Lateral.Output.PsiCommand, tt.psiC)
					}
				}},
			})
		})
	}
}
