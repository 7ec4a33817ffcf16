// autopilot/arming_lateral.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"github.com/mmp/autoflight/math"
)

// LateralMemory is the state carried between ticks by the lateral arming
// and condition logic and by the lateral state machine.
type LateralMemory struct {
	NAVArm, LOCArm, RollOut Latch

	WasFPAvailable     bool
	WasFPAvailableInit bool
	WasInSRSGA         bool

	RunwayHeading    float64
	PrevThrottleTOGA bool

	PrevFDESActive bool
	PrevFDESArmed  bool
}

// throttleTOGA reports whether either of the first two levers is in the
// TOGA detent.
func throttleTOGA(ac *Aircraft) bool {
	return ac.ThrottleLever[0] == 45 || ac.ThrottleLever[1] == 45
}

func (s *Session) fdOrAP() bool {
	return s.rq.FDActive || s.State.Engagement.Engaged()
}

// xToOff drops both machines to OFF: no guidance is in use, or the
// flight is done and the autopilot is off.
func (s *Session) xToOff() bool {
	ap := s.State.Engagement.Engaged()
	return (!s.rq.FDActive && !ap) || (s.ac.FlightPhase == 7 && !ap)
}

// evaluateLateral computes the lateral armed flags and conditions for
// this tick from the previous tick's modes.
func (s *Session) evaluateLateral() {
	st := &s.State
	ac, rq, now := s.ac, s.rq, s.t.Now
	c := &st.Computed
	m := &st.LateralMemory
	lprev, vprev := &st.LateralPrev, &st.VerticalPrev
	lm, vm := lprev.Output.Mode, vprev.Output.Mode
	lat := &st.Lateral
	tm := &st.Timers
	rnav := rq.FMRnavApproach
	fpAvail := ac.FlightPlanAvailable

	// NAV
	if !m.WasFPAvailableInit {
		m.WasFPAvailable = fpAvail
		m.WasFPAvailableInit = true
	}
	navSet := fpAvail && lm != LateralNAV &&
		(c.Pushed.HDGPush || (c.OnGround && !m.WasFPAvailable && fpAvail) ||
			(!lprev.Armed.NAV && rnav && c.Pushed.APPRPush) ||
			(!lprev.Armed.NAV && !m.WasInSRSGA && vm == VerticalSRSGA)) &&
		(lm != LateralLOCCPT || rnav) && (lm != LateralLOCTRACK || rnav) &&
		!lm.In(LateralLAND, LateralFLARE)
	navKeep := !c.Pushed.HDGPull && fpAvail && (ac.HRadio >= 30 || !c.PsiFcuInSelection) &&
		(!lprev.Armed.LOC || rnav) && !lm.In(LateralNAV, LateralLAND, LateralFLARE) &&
		(!vprev.Armed.FinalDES || !lprev.Armed.NAV || !rnav || !c.Pushed.APPRPush)
	lat.Armed.NAV = m.NAVArm.Update(navSet, navKeep)
	m.WasFPAvailable = fpAvail
	m.WasInSRSGA = vm == VerticalSRSGA

	// LOC
	gsArmedOrActive := vprev.Armed.GS || vm.In(VerticalGSCPT, VerticalGSTRACK, VerticalLAND, VerticalFLARE)
	notLocMode := !lm.In(LateralLOCCPT, LateralLOCTRACK, LateralLAND, LateralFLARE)
	fdOrAP := s.fdOrAP()
	thr1, thr2 := ac.ThrottleLever[0], ac.ThrottleLever[1]
	locSet := ac.HRadio > 400 && ac.NavValid && thr1 < 45 && thr2 < 45 &&
		(c.Pushed.LOCPush || (c.Pushed.APPRPush && !rnav)) && notLocMode && !gsArmedOrActive && fdOrAP
	locKeep := (!c.Pushed.LOCPush || !lprev.Armed.LOC || gsArmedOrActive) &&
		(!c.Pushed.APPRPush || !gsArmedOrActive) && (!c.Pushed.APPRPush || !rnav) &&
		!lprev.Armed.NAV && notLocMode && thr1 != 45 && thr2 != 45 && fdOrAP
	lat.Armed.LOC = m.LOCArm.Update(locSet, locKeep)

	cond := &lat.Condition
	cond.NAV = ac.HRadio >= 30 && fpAvail && ac.XTKNmi < 10
	cond.LOCCapture = locCaptureCondition(ac, rq)

	cond.LOCTrack = tm.LOCTrack.Elapsed(now, ac.NavValid && ac.LocValid && math.Abs(ac.LocErrorDeg) < 0.16 &&
		lm.In(LateralLOCCPT, LateralLOCTRACK)) >= 10
	cond.LAND = tm.LAND.Elapsed(now, ac.HRadio < 400) >= 1.2 &&
		lm.In(LateralLOCTRACK, LateralLAND) && vm.In(VerticalGSTRACK, VerticalLAND)
	cond.FLARE = rq.FlareCondition && lm.In(LateralLAND, LateralFLARE) && vm.In(VerticalLAND, VerticalFLARE)

	// ROLL_OUT holds while the aircraft stays aligned with the runway.
	if ac.LocValid {
		m.RunwayHeading = ac.LocDeg
	}
	hdg := ac.Psi
	if ac.VGnd >= 40 {
		hdg = ac.PsiTrack
	}
	r := math.NormalizeHeading(m.RunwayHeading - hdg + 180)
	ap := st.Engagement.Engaged()
	inFlare := lm.In(LateralFLARE, LateralROLLOUT) && vm.In(VerticalFLARE, VerticalROLLOUT)
	cond.ROLLOUT = m.RollOut.Update(c.OnGround && inFlare,
		math.Abs(r-180) <= 7 && (ap || ac.FlightPhase != 7) &&
			(ap || c.TimeSinceTouchdown <= 10 || s.engagementEligible()) && inFlare)

	// Go-around: a fresh TOGA selection in flight, or shortly after
	// touchdown, with flaps out.
	toga := throttleTOGA(ac)
	ga := !m.PrevThrottleTOGA && toga && ac.FlapHandle >= 1 &&
		(!c.OnGround || c.TimeSinceTouchdown < 30) && ac.FlightPhase >= 2 && ac.FlightPhase <= 6 &&
		lm != LateralGATRACK && !vm.In(VerticalSRS, VerticalSRSGA)
	m.PrevThrottleTOGA = toga
	cond.GATrack = ga && !lm.In(LateralNAV, LateralHDG, LateralTRACK)
	st.Vertical.Condition.SRSGA = ga

	FGLog(s, now, FGLogArming, "lateral armed %s cond %+v", lat.Armed.Mask(), *cond)
}

// locCaptureCondition decides whether the localizer beam can be captured
// given the intercept angle, the beam deviation and the bank angle that
// the capture law would command.
func locCaptureCondition(ac *Aircraft, rq *Request) bool {
	r := math.CircularDelta(ac.LocDeg, ac.PsiTrack)
	phiLoc := rq.PhiLocCommand

	var ok bool
	if math.Sign(r) == math.Sign(phiLoc) {
		if math.Abs(phiLoc) > 5 && (math.Abs(ac.Phi) <= 5 || math.Sign(phiLoc) != math.Sign(ac.Phi)) {
			ok = true
		} else {
			ok = math.Abs(phiLoc) >= math.Abs(ac.Phi) && math.Sign(phiLoc) == math.Sign(ac.Phi)
		}
	}

	if !ac.NavValid || !ac.LocValid || math.Abs(r) >= 115 {
		return false
	}
	e := ac.LocErrorDeg
	if (math.Abs(r) > 25 && math.Abs(e) < 10 && math.Sign(r) != math.Sign(e) && ok) || math.Abs(e) < 1.92 {
		return ok || (math.Abs(r) < 15 && math.Abs(e) < 1.1)
	}
	return false
}
