// autopilot/arming_vertical.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"github.com/mmp/autoflight/math"
)

// VerticalMemory is the state carried between ticks by the vertical
// arming and condition logic and by the vertical state machine.
type VerticalMemory struct {
	// Arming.
	NewFcuAltitudeSelected bool
	CanArmALT              bool
	CanArmALTCst           bool
	WasTCASActive          bool
	DESArm                 Latch
	FinalDESArm            Latch
	GSArm                  Latch
	TCASArm                Latch

	// Conditions.
	HFcuActive  bool
	SRSLatch    bool
	TCASOneShot bool
	TCASLatch   bool

	// State machine.
	LocalHFcu      float64
	LocalHCst      float64
	LocalHGAInit   float64
	VSCancel       bool
	PrevAPCount    int
	PrevAPCountSet bool

	SRSWereAll       bool
	SRSWereAllSet    bool
	SRSGAWereAll     bool
	SRSGAWereAllSet  bool
	TCASTarget       float64
	TCASWasCorrect   bool
	TCASTrkFpaRevert bool
}

func (s *Session) tcasAvailable() bool {
	return s.rq.TCASAvailable && !s.rq.TCASFail
}

// evaluateVertical computes the vertical armed flags and conditions for
// this tick from the previous tick's modes. SRSGA has already been set by
// evaluateLateral.
func (s *Session) evaluateVertical() {
	st := &s.State
	ac, rq, now := s.ac, s.rq, s.t.Now
	c := &st.Computed
	m := &st.VerticalMemory
	p := &c.Pushed
	lprev, vprev := &st.LateralPrev, &st.VerticalPrev
	lm, vm := lprev.Output.Mode, vprev.Output.Mode
	vert := &st.Vertical
	arm := &vert.Armed
	cond := &vert.Condition

	d := rq.HFcu - ac.HInd
	hsel := c.HFcuInSelection
	airborne := !c.OnGround
	phase := ac.FlightPhase
	thr1, thr2 := ac.ThrottleLever[0], ac.ThrottleLever[1]
	noKnob := !p.ALTPull && !p.VSPush && !p.VSPull
	cstFcu := rq.HConstraint == rq.HFcu && math.Abs(d) < 50

	// ALT
	if hsel {
		m.NewFcuAltitudeSelected = true
	} else if vm == VerticalALT {
		m.NewFcuAltitudeSelected = math.Abs(d) >= 40 && m.NewFcuAltitudeSelected
	}
	m.WasTCASActive = vm == VerticalTCAS || (math.Abs(d) <= 250 && m.WasTCASActive)

	var compat bool
	switch {
	case vm.In(VerticalCLB, VerticalOPCLB, VerticalDES, VerticalOPDES):
		compat = true
	case vm == VerticalVS:
		compat = math.Sign(d) == math.Sign(rq.HDotFcu)
	case vm == VerticalFPA:
		compat = math.Sign(d) == math.Sign(rq.FPAFcu)
	case vm == VerticalTCAS:
		compat = math.Sign(d) == math.Sign(vprev.Output.HDotCommand) && vprev.Output.TCASSubModeCompatible
	default:
		compat = (vm.In(VerticalSRS, VerticalSRSGA) && d > 250) ||
			((phase == 0 || phase == 1 || phase == 7) && !vprev.Armed.CLB)
	}
	if (m.NewFcuAltitudeSelected && compat) || (math.Abs(d) > 250 && compat) ||
		(m.WasTCASActive && vm == VerticalVS && compat) || (vm == VerticalTCAS && compat) {
		m.CanArmALT = true
	} else if vm.In(VerticalVS, VerticalFPA, VerticalTCAS) && !compat && !m.NewFcuAltitudeSelected {
		m.CanArmALT = false
	}
	arm.ALT = phase <= 7 && m.CanArmALT &&
		((!c.HConstraintValid && vm.In(VerticalCLB, VerticalDES)) ||
			vm.In(VerticalOPCLB, VerticalOPDES, VerticalVS, VerticalFPA, VerticalSRS, VerticalSRSGA) ||
			(vm == VerticalTCAS && vprev.Output.TCASSubMode == TCASSubModeNone) ||
			((phase == 0 || phase == 1 || phase == 7) && !vprev.Armed.CLB && vm == VerticalNone))
	captured := vm == VerticalALTCPT || (vm == VerticalALT && math.Abs(d) < 40)
	if captured {
		m.CanArmALT = false
		m.WasTCASActive = false
	}

	// ALT_CST
	if hsel || math.Abs(d) > 250 {
		m.CanArmALTCst = true
	}
	arm.ALTCst = phase < 7 && m.CanArmALTCst && c.HConstraintValid && vm.In(VerticalCLB, VerticalDES)
	if captured {
		m.CanArmALTCst = false
	}

	// CLB is not latched: it is re-derived every tick from the phase and
	// the previous mode.
	var clearCLB bool
	if phase == 2 || phase == 3 || phase == 6 {
		clearCLB = rq.HFcu < ac.HInd || math.Abs(d) < 50 || cstFcu ||
			!vm.In(VerticalALTCST, VerticalALTCSTCPT, VerticalSRS, VerticalSRSGA)
	} else {
		clearCLB = phase == 4 || phase == 5
	}
	var clbSet bool
	switch phase {
	case 0, 1, 7:
		clbSet = vm.In(VerticalNone, VerticalSRS, VerticalSRSGA) &&
			ac.AccelerationAlt > 0 && ac.AccelerationAlt < rq.HFcu
	case 2, 3, 6:
		clbSet = lm == LateralNAV && d > 50 &&
			vm.In(VerticalALTCSTCPT, VerticalALTCST, VerticalSRS, VerticalSRSGA)
	}
	arm.CLB = noKnob && !clearCLB && clbSet

	// DES
	lateralManaged := lm.In(LateralNAV, LateralLOCCPT, LateralLOCTRACK)
	var clearDES bool
	if airborne {
		clearDES = rq.HFcu > ac.HInd || math.Abs(d) < 50 || cstFcu ||
			!vm.In(VerticalALTCST, VerticalALTCSTCPT) || !lateralManaged
	}
	desSet := airborne && d < -50 && vm.In(VerticalALTCST, VerticalALTCSTCPT) && lateralManaged
	arm.DES = m.DESArm.Update(desSet, noKnob && !clearDES)

	// FINAL_DES
	rnav := rq.FMRnavApproach
	fdesSet := ac.HRadio >= 400 && !vprev.Armed.FinalDES &&
		!vm.In(VerticalFINALDES, VerticalSRS, VerticalSRSGA) && p.APPRPush && rnav
	fdesKeep := (!vprev.Armed.FinalDES || !p.APPRPush) && (!p.LOCPush || !ac.NavValid) && !p.HDGPull &&
		!vm.In(VerticalSRSGA, VerticalFINALDES) && !vprev.Condition.TCAS
	arm.FinalDES = m.FinalDESArm.Update(fdesSet, fdesKeep)

	// GS
	fdOrAP := s.fdOrAP()
	notGS := !vm.In(VerticalGSCPT, VerticalGSTRACK, VerticalLAND, VerticalFLARE)
	gsSet := ac.HRadio > 400 && ac.NavValid && thr1 < 45 && thr2 < 45 && p.APPRPush && !rnav && notGS && fdOrAP
	gsKeep := (!p.APPRPush || !vprev.Armed.GS) && !p.LOCPush &&
		(p.APPRPush || lprev.Armed.LOC || lm.In(LateralLOCCPT, LateralLOCTRACK, LateralLAND, LateralFLARE)) &&
		notGS && thr1 != 45 && thr2 != 45 && !vprev.Condition.TCAS && fdOrAP
	arm.GS = m.GSArm.Update(gsSet, gsKeep)

	// TCAS
	avail := s.tcasAvailable()
	adv := rq.TCASAdvisory
	tcasSet := avail && !vprev.Armed.TCAS && vm != VerticalTCAS && adv == 1 && ac.HRadio >= 900
	tcasKeep := avail && adv != 0 && ac.HRadio >= 900 && vm != VerticalTCAS
	arm.TCAS = m.TCASArm.Update(tcasSet, tcasKeep)

	s.verticalConditions(d)

	FGLog(s, now, FGLogArming, "vertical armed %s cond %+v", arm.Mask(), *cond)
}

// verticalConditions evaluates the vertical mode conditions; d is the
// FCU altitude error H_fcu - H_ind.
func (s *Session) verticalConditions(d float64) {
	st := &s.State
	ac, rq, now := s.ac, s.rq, s.t.Now
	c := &st.Computed
	m := &st.VerticalMemory
	lprev, vprev := &st.LateralPrev, &st.VerticalPrev
	lm, vm := lprev.Output.Mode, vprev.Output.Mode
	cond := &st.Vertical.Condition
	tm := &st.Timers
	prof := &s.Profile
	hsel := c.HFcuInSelection
	phase := ac.FlightPhase
	thr1, thr2 := ac.ThrottleLever[0], ac.ThrottleLever[1]

	// ALT: within the capture band, for the profile's dwell.
	inBand := math.Abs(d) < prof.ALTCaptureBand
	dwell := tm.ALT.Elapsed(now, inBand)
	if prof.ALTDwell > 0 {
		cond.ALT = dwell > prof.ALTDwell && !hsel
	} else {
		cond.ALT = inBand && !hsel
	}

	cond.ALTCapture = captureCondition(&tm.ALTCapture, now, d, ac.HDot, hsel, ac.HRadio)

	cond.ALTCst = false
	cond.ALTCstCapture = false
	if rq.HConstraint != 0 && rq.HConstraint != rq.HFcu {
		dc := rq.HConstraint - ac.HInd
		cond.ALTCst = tm.ALTCst.Elapsed(now, math.Abs(dc) < 40) > 0.8 && !hsel
		cond.ALTCstCapture = captureCondition(&tm.ALTCstCapture, now, dc, ac.HDot, hsel, ac.HRadio)
	}

	cond.GSCapture = false
	if ac.NavValid && ac.GsValid && lm.In(LateralLOCCPT, LateralLOCTRACK) && ac.GsErrorDeg >= -0.1 {
		e := math.Abs(ac.GsErrorDeg)
		cond.GSCapture = (e < 0.8 && c.GsConvergent) || e < 0.1333
	}
	cond.GSTrack = tm.GSTrack.Elapsed(now, ac.NavValid && ac.GsValid && math.Abs(ac.GsErrorDeg) < 0.1333 &&
		vm.In(VerticalGSCPT, VerticalGSTRACK)) >= 15

	// SRS latches once takeoff thrust has been set for half a second.
	var takeoffThrust bool
	if c.TimeSinceTouchdown >= 30 && ac.V2 >= 90 && ac.FlapHandle > 0 {
		idle := (thr1 <= 35 || thr2 <= 35) && (!rq.FLXActive || thr1 < 35 || thr2 < 35)
		takeoffThrust = tm.SRS.Elapsed(now, !idle) >= 0.5
	}
	m.SRSLatch = takeoffThrust || (m.SRSLatch && (thr1 != 0 || thr2 != 0) && vm == VerticalSRS)
	cond.SRS = m.SRSLatch

	if hsel || math.Abs(d) > 250 {
		m.HFcuActive = true
	} else if vm == VerticalALT {
		m.HFcuActive = math.Abs(d) >= 40 && m.HFcuActive
	}
	cond.HFcuActive = m.HFcuActive

	// TCAS fires once per resolution advisory.
	ra := s.tcasAvailable() && rq.TCASAdvisory >= 2 && ac.HRadio >= 900
	if ra && vm != VerticalTCAS && !m.TCASLatch {
		m.TCASOneShot, m.TCASLatch = true, true
	}
	m.TCASOneShot = ra && vm != VerticalTCAS && m.TCASOneShot
	m.TCASLatch = ra && m.TCASLatch
	cond.TCAS = m.TCASOneShot

	liftoff := c.TimeSinceLiftoff
	cond.CLB = liftoff > 5 && d > 50 && lm == LateralNAV && !vm.In(VerticalGSCPT, VerticalGSTRACK) &&
		phase >= 2 && phase != 4 && phase != 5 && phase != 6
	cond.DES = liftoff > 5 && d < -50 && lm.In(LateralNAV, LateralLOCCPT, LateralLOCTRACK) &&
		!vm.In(VerticalSRS, VerticalSRSGA, VerticalGSCPT, VerticalGSTRACK, VerticalLAND, VerticalFINALDES,
			VerticalFLARE, VerticalROLLOUT) &&
		phase != 1 && phase != 2 && phase != 6
	cond.FinalDES = rq.FMFinalDesCanEngage && lm == LateralNAV

	lc := &st.Lateral.Condition
	cond.LAND, cond.FLARE, cond.ROLLOUT = lc.LAND, lc.FLARE, lc.ROLLOUT
	cond.THRRed = ac.HInd >= ac.ThrustReductionAlt
}

// captureCondition decides whether an altitude capture toward a target d
// feet away should begin: inside the capture window and with the target
// unchanged for three seconds.
func captureCondition(sw *Stopwatch, now, d, hdot float64, hsel bool, hradio float64) bool {
	if !inCaptureWindow(d, hdot) {
		return false
	}
	r := sw.Elapsed(now, !hsel)
	if r > 0 {
		r += 0.5
	}
	return r >= 3 && hradio > 400
}
