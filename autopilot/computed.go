// autopilot/computed.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"github.com/mmp/autoflight/math"
)

// Computed is the data derived from the raw inputs at the start of each
// tick; the arming and condition logic and the state machines read it
// rather than the raw snapshot where the two differ.
type Computed struct {
	Pushed Pushbuttons `json:"pushed"`
	DirTo  bool        `json:"dir_to"`

	OnGround           bool    `json:"on_ground"`
	TimeSinceTouchdown float64 `json:"time_since_touchdown"`
	TimeSinceLiftoff   float64 `json:"time_since_liftoff"`
	TimeSinceSRS       float64 `json:"time_since_srs"`

	HFcuInSelection   bool `json:"h_fcu_in_selection"`
	PsiFcuInSelection bool `json:"psi_fcu_in_selection"`
	VFcuInSelection   bool `json:"v_fcu_in_selection"`
	HConstraintValid  bool `json:"h_constraint_valid"`
	GsConvergent      bool `json:"gs_convergent"`
	ALTSoftMode       bool `json:"alt_soft_mode"`

	AltimeterSettingChanged bool `json:"altimeter_setting_changed"`

	// Euler angle rates in deg/s and earth-frame accelerations in m/s².
	ThetaDot float64 `json:"theta_dot"`
	PhiDot   float64 `json:"phi_dot"`
	PsiDot   float64 `json:"psi_dot"`
	AccelX   float64 `json:"ax"`
	AccelY   float64 `json:"ay"`
	AccelZ   float64 `json:"az"`

	DMENmi float64 `json:"dme_nmi"`

	// Localizer and glideslope deviations estimated from the antenna
	// positions, used when the receivers are not tuned.
	EstLocValid    bool    `json:"est_loc_valid"`
	EstLocErrorDeg float64 `json:"est_loc_error_deg"`
	EstGsValid     bool    `json:"est_gs_valid"`
	EstGsErrorDeg  float64 `json:"est_gs_error_deg"`
}

// EdgeCache holds the previous pushbutton levels and altimeter settings.
type EdgeCache struct {
	APEngage, AP1, AP2, APDisconnect EdgeDetector
	HDGPush, HDGPull                 EdgeDetector
	ALTPush, ALTPull                 EdgeDetector
	VSPush, VSPull                   EdgeDetector
	LOCPush, APPRPush, EXPEDPush     EdgeDetector

	AltimeterLeft, AltimeterRight float64
	AltimeterSeen                 bool
}

// TimerContext holds every dwell and age stopwatch of a session.
type TimerContext struct {
	Touchdown, Liftoff, SinceSRS Stopwatch

	LOCTrack, LAND, RunwaySRS Stopwatch

	ALT, ALTCapture, ALTCst, ALTCstCapture Stopwatch
	GSTrack, SRS                           Stopwatch

	Soft, SoftBand4, SoftBand10 Stopwatch
}

// Filters holds the signal-processing state used by the derived data.
type Filters struct {
	OnGround bool

	DirTo           RateLimitedDebounce
	AltimeterChange RateLimitedDebounce

	GsLag   LagFilter
	GsPrevY float64

	HFcu, PsiFcu, VFcu DelayLine

	GsDegHeld float64
	GsDegInit bool

	SoftLastV    float64
	SoftLastInit bool
	Soft         bool
}

func (s *Session) pushbuttonEdges(rq *Request) Pushbuttons {
	e := &s.State.Edges
	return Pushbuttons{
		APEngage:     e.APEngage.Rising(rq.APEngage),
		AP1:          e.AP1.Rising(rq.AP1),
		AP2:          e.AP2.Rising(rq.AP2),
		APDisconnect: e.APDisconnect.Rising(rq.APDisconnect),
		HDGPush:      e.HDGPush.Rising(rq.HDGPush),
		HDGPull:      e.HDGPull.Rising(rq.HDGPull),
		ALTPush:      e.ALTPush.Rising(rq.ALTPush),
		ALTPull:      e.ALTPull.Rising(rq.ALTPull),
		VSPush:       e.VSPush.Rising(rq.VSPush),
		VSPull:       e.VSPull.Rising(rq.VSPull),
		LOCPush:      e.LOCPush.Rising(rq.LOCPush),
		APPRPush:     e.APPRPush.Rising(rq.APPRPush),
		EXPEDPush:    e.EXPEDPush.Rising(rq.EXPEDPush),
	}
}

// computeData fills in State.Computed for the current tick.
func (s *Session) computeData() {
	ac, rq, now, dt := s.ac, s.rq, s.t.Now, s.t.DT
	st := &s.State
	f := &st.Filters
	c := &st.Computed
	vprev := &st.VerticalPrev.Output

	c.Pushed = s.pushbuttonEdges(rq)
	c.DirTo = f.DirTo.Update(rq.DirToTrigger, dt, s.Profile.DebounceFall)

	s.eulerRatesAndAccelerations(c)
	s.navigationEstimates(c)

	// On-ground detection from the gear struts.
	c1, c2 := math.Clamp(ac.GearStrut1, 0, 1), math.Clamp(ac.GearStrut2, 0, 1)
	if !st.Initialized {
		f.OnGround = true
	} else if f.OnGround {
		f.OnGround = c1 != 0 || c2 != 0
	} else {
		f.OnGround = c1 > 0.05 || c2 > 0.05
	}
	c.OnGround = f.OnGround

	e := &st.Edges
	if !e.AltimeterSeen {
		e.AltimeterLeft, e.AltimeterRight = ac.AltimeterLeft, ac.AltimeterRight
		e.AltimeterSeen = true
	}
	changed := ac.AltimeterLeft != e.AltimeterLeft || ac.AltimeterRight != e.AltimeterRight
	c.AltimeterSettingChanged = f.AltimeterChange.Update(changed, dt, s.Profile.DebounceFall)

	tm := &st.Timers
	c.TimeSinceTouchdown = tm.Touchdown.Elapsed(now, c.OnGround)
	c.TimeSinceLiftoff = tm.Liftoff.Elapsed(now, !c.OnGround)
	c.TimeSinceSRS = tm.SinceSRS.Elapsed(now, vprev.Mode.In(VerticalSRS, VerticalSRSGA))

	h := f.HFcu.Ago(s.Profile.HSelectionWindow, dt, rq.HFcu)
	c.HFcuInSelection = h != rq.HFcu

	psi := f.PsiFcu.Ago(s.Profile.PsiSelectionWindow, dt, rq.PsiFcu)
	c.PsiFcuInSelection = psi != rq.PsiFcu && rq.PsiFcu != s.Profile.FCUUnset

	v := f.VFcu.Ago(s.Profile.VSelectionWindow, dt, rq.VFcu)
	c.VFcuInSelection = v != rq.VFcu && rq.VFcu != s.Profile.FCUUnset && !rq.SpeedManaged

	c.HConstraintValid = hConstraintValid(rq.HConstraint, rq.HFcu, ac.HInd)

	y := f.GsLag.Update(ac.GsErrorDeg, dt, s.Profile.GsLagC1)
	c.GsConvergent = y < f.GsPrevY

	c.ALTSoftMode = s.altSoftMode()
}

func hConstraintValid(hcst, hfcu, hind float64) bool {
	return hcst != 0 &&
		((hfcu > hind && hcst > hind && hcst < hfcu) || (hfcu < hind && hcst < hind && hcst > hfcu))
}

// eulerRatesAndAccelerations transforms the body rates into Euler angle
// rates and the body accelerations into the earth frame.
func (s *Session) eulerRatesAndAccelerations(c *Computed) {
	ac := s.ac
	th, ph := math.Radians(ac.Theta), math.Radians(ac.Phi)
	sth, cth := math.Sin(th), math.Cos(th)
	sph, cph := math.Sin(ph), math.Cos(ph)
	tth := sth / cth

	c.PhiDot = math.Degrees(ac.P + sph*tth*ac.Q + cph*tth*ac.R)
	c.ThetaDot = math.Degrees(cph*ac.Q - sph*ac.R)
	c.PsiDot = math.Degrees(sph/cth*ac.Q + cph/cth*ac.R)

	c.AccelX = cth*ac.Bx - sth*ac.Bz
	c.AccelY = sph*sth*ac.Bx + cph*ac.By + cth*sph*ac.Bz
	c.AccelZ = cph*sth*ac.Bx - sph*ac.By + cph*cth*ac.Bz
}

const estimateRangeNM = 30

// navigationEstimates computes the DME distance and the localizer and
// glideslope deviations that follow from the aircraft and antenna
// positions.
func (s *Session) navigationEstimates(c *Computed) {
	ac := s.ac
	f := &s.State.Filters

	switch {
	case ac.DMEValid:
		c.DMENmi = ac.DMENmi
	case ac.LocValid:
		c.DMENmi = math.SlantDistanceNM(ac.Position, ac.LocPosition)
	default:
		c.DMENmi = 0
	}

	c.EstLocValid, c.EstLocErrorDeg = false, 0
	if math.SlantDistanceNM(ac.Position, ac.LocPosition) < estimateRangeNM {
		brg := math.InitialBearing(ac.Position, ac.LocPosition)
		if math.Abs(math.CircularDelta(ac.LocDeg, brg)) < 90 && !ac.LocPosition.IsZero() {
			locTrue := ac.LocDeg - math.SignedAngle180(ac.LocMagVar)
			c.EstLocValid = true
			c.EstLocErrorDeg = math.CircularDelta(brg, locTrue)
		}
	}

	if ac.GsValid || !f.GsDegInit {
		f.GsDegHeld = ac.GsDeg
		f.GsDegInit = true
	}
	c.EstGsValid, c.EstGsErrorDeg = false, 0
	if d := math.SlantDistanceMeters(ac.Position, ac.GsPosition); d/math.MetersPerNM < estimateRangeNM {
		brg := math.InitialBearing(ac.Position, ac.GsPosition)
		if math.Abs(math.CircularDelta(ac.LocDeg, brg)) < 90 && !ac.GsPosition.IsZero() {
			c.EstGsValid = true
			c.EstGsErrorDeg = math.Degrees(math.SafeASin((ac.Position.Alt-ac.GsPosition.Alt)/d)) - f.GsDegHeld
		}
	}
}

// altSoftMode decides whether ALT may hold altitude loosely in cruise:
// Mach mode with autothrust, on speed for two minutes, and the speed
// target unchanged.
func (s *Session) altSoftMode() bool {
	ac, rq, now := s.ac, s.rq, s.t.Now
	st := &s.State
	f := &st.Filters
	tm := &st.Timers
	vprev := st.VerticalPrev.Output.Mode

	if !f.SoftLastInit {
		f.SoftLastV = rq.VFcu
		f.SoftLastInit = true
	}
	speedChanged := math.Abs(rq.VFcu-f.SoftLastV) > 2
	f.SoftLastV = rq.VFcu

	dv := math.Abs(rq.VFcu - ac.VIAS)
	out4 := tm.SoftBand4.Elapsed(now, dv > 4)
	out10 := tm.SoftBand10.Elapsed(now, dv > 10)

	cond := vprev == VerticalALT && ac.FlightPhase == 3 && rq.MachMode && rq.ATHREngaged && dv < 4
	onSpeed := tm.Soft.Elapsed(now, cond && !speedChanged)
	f.Soft = (cond && onSpeed >= 120) || f.Soft

	if speedChanged || !rq.MachMode || !rq.ATHREngaged || vprev != VerticalALT || out4 > 10 || out10 > 4 ||
		ac.VIAS > ac.VMAX-5 {
		f.Soft = false
		tm.Soft.Elapsed(now, false)
	}
	return f.Soft
}

// endTick stores the values that the next tick compares against.
func (s *Session) endTick() {
	st := &s.State
	f := &st.Filters

	st.Edges.AltimeterLeft, st.Edges.AltimeterRight = s.ac.AltimeterLeft, s.ac.AltimeterRight
	f.GsPrevY = f.GsLag.Y
	f.HFcu.Push(s.rq.HFcu)
	f.PsiFcu.Push(s.rq.PsiFcu)
	f.VFcu.Push(s.rq.VFcu)
}
