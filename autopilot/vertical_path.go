// autopilot/vertical_path.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"github.com/mmp/autoflight/math"
)

// softCaptureBand is the distance to the target inside which the climb
// and descent modes fly a fixed vertical speed instead of thrust and
// speed on elevator.
const softCaptureBand = 1200

// softCaptureRate is the vertical speed flown inside the band.
const softCaptureRate = 1000

// cstCaptureRow starts capturing a constraint on the way.
func (m *verticalMachine) cstCaptureRow() transition {
	rq := m.s.rq
	return transition{"ALT_CST_CPT", func() bool { return m.cond().ALTCstCapture }, m.to(func() {
		m.mem().LocalHCst = rq.HConstraint
		m.enterALTCstCapture()
	})}
}

// thrustOrSoft sets the law for a climb or descent toward target: thrust
// with speed on elevator when far away, a fixed vertical speed in the
// sign of sgn when inside the band.
func (m *verticalMachine) thrustOrSoft(target, sgn float64, athr AutothrustMode) {
	if math.Abs(m.s.ac.HInd-target) <= softCaptureBand {
		m.out.Law, m.out.Autothrust = VerticalLawVS, AutothrustSpeed
		m.out.HDotCommand = sgn * softCaptureRate
	} else {
		m.thrustMode(athr)
	}
}

// leaveSoft switches back to thrust once the aircraft is outside the
// band again.
func (m *verticalMachine) leaveSoft(target float64, athr AutothrustMode) {
	if math.Abs(m.s.ac.HInd-target) > softCaptureBand {
		m.thrustMode(athr)
	}
}

func (m *verticalMachine) thrustMode(athr AutothrustMode) {
	m.out.Law, m.out.Autothrust = VerticalLawSPDMACH, athr
	m.out.HDotCommand = 0
}

///////////////////////////////////////////////////////////////////////////
// CLB

func (m *verticalMachine) clb() string {
	s := m.s
	ac, rq := s.ac, s.rq
	c := m.cond()
	d := m.fcuError()
	return decide(cat(
		[]transition{m.cstCaptureRow(), m.altCaptureRow(), m.vsKnobRow()},
		m.approachRows(),
		m.altPullRows(),
		[]transition{
			{"CLB_TO_VS", func() bool { return rq.HFcu < ac.HInd && math.Abs(d) > 40 }, m.to(func() {
				m.reversion()
				m.enterVS()
			})},
			{"CLB_TO_OP_CLB", func() bool { return !c.CLB && d > 40 }, m.to(func() {
				m.reversion()
				m.enterOPCLB()
			})},
			{"", always, m.clbDuring},
		},
	)...)
}

func (m *verticalMachine) enterCLB() {
	rq := m.s.rq
	target := m.softTarget()
	m.out.Mode = VerticalCLB
	m.out.VCommand = rq.VFcu
	m.out.HCommand = target
	m.thrustOrSoft(target, 1, AutothrustThrustClimb)
}

func (m *verticalMachine) clbDuring() {
	target := m.softTarget()
	m.out.VCommand = m.s.rq.VFcu
	m.out.HCommand = target
	m.leaveSoft(target, AutothrustThrustClimb)
}

///////////////////////////////////////////////////////////////////////////
// DES

func (m *verticalMachine) des() string {
	s := m.s
	ac, rq := s.ac, s.rq
	c := m.cond()
	d := m.fcuError()
	return decide(cat(
		[]transition{m.cstCaptureRow(), m.altCaptureRow(), m.vsKnobRow()},
		m.approachRows(),
		[]transition{
			{"DES_TO_VS", func() bool { return !c.DES || (rq.HFcu > ac.HInd && math.Abs(d) > 40) }, m.to(func() {
				m.reversion()
				m.enterVS()
			})},
		},
		m.altPullRows(),
		[]transition{{"", always, func() { m.desGuidance(false) }}},
	)...)
}

func (m *verticalMachine) enterDES() {
	m.out.Mode = VerticalDES
	m.desGuidance(true)
}

// desGuidance follows the flight management's requested descent mode.
// Only the unmanaged case uses the soft capture.
func (m *verticalMachine) desGuidance(entry bool) {
	rq := m.s.rq
	target := m.softTarget()
	m.out.VCommand = rq.VFcu

	switch rq.FMVerticalMode {
	case FMVerticalNone:
		m.out.HCommand = target
		if entry {
			m.thrustOrSoft(target, -1, AutothrustThrustIdle)
		} else {
			m.leaveSoft(target, AutothrustThrustIdle)
		}
	case FMVerticalSpeedThrust:
		m.out.HCommand = target
		m.thrustMode(AutothrustThrustIdle)
	case FMVerticalVPathSpeed:
		m.out.Law, m.out.Autothrust = VerticalLawVPATH, AutothrustSpeed
		m.out.HCommand = rq.FMHCommand
		m.out.HDotCommand = rq.FMHDotCommand
	case FMVerticalFPASpeed:
		m.out.HCommand = target
		m.out.Law, m.out.Autothrust = VerticalLawFPA, AutothrustSpeed
		m.out.FPACommand = rq.FMHDotCommand
	case FMVerticalVSSpeed:
		m.out.HCommand = target
		m.out.Law, m.out.Autothrust = VerticalLawVS, AutothrustSpeed
		m.out.HDotCommand = rq.FMHDotCommand
	default:
		m.out.Law, m.out.Autothrust = VerticalLawVPATH, AutothrustThrustIdle
		m.out.HCommand = rq.FMHCommand
		m.out.HDotCommand = rq.FMHDotCommand
	}
}

///////////////////////////////////////////////////////////////////////////
// OP_CLB, OP_DES

func (m *verticalMachine) opCLB() string {
	s := m.s
	ac, rq := s.ac, s.rq
	d := m.fcuError()
	return decide(cat(
		[]transition{
			{"OP_CLB_TO_VS", func() bool { return rq.HFcu < ac.HInd && math.Abs(d) > 40 }, m.to(func() {
				m.reversion()
				m.enterVS()
			})},
			m.altCaptureRow(),
			m.vsKnobRow(),
		},
		m.approachRows(),
		m.altPushRows(),
		[]transition{{"", always, func() { m.openDuring(AutothrustThrustClimb) }}},
	)...)
}

func (m *verticalMachine) opDES() string {
	s := m.s
	ac, rq := s.ac, s.rq
	d := m.fcuError()
	return decide(cat(
		[]transition{m.altCaptureRow(), m.vsKnobRow()},
		m.approachRows(),
		[]transition{
			{"OP_DES_TO_VS", func() bool { return rq.HFcu > ac.HInd && math.Abs(d) > 40 }, m.to(func() {
				m.reversion()
				m.enterVS()
			})},
		},
		m.altPushRows(),
		[]transition{{"", always, func() { m.openDuring(AutothrustThrustIdle) }}},
	)...)
}

func (m *verticalMachine) enterOPCLB() { m.enterOpen(VerticalOPCLB, 1, AutothrustThrustClimb) }
func (m *verticalMachine) enterOPDES() { m.enterOpen(VerticalOPDES, -1, AutothrustThrustIdle) }

func (m *verticalMachine) enterOpen(mode VerticalMode, sgn float64, athr AutothrustMode) {
	rq := m.s.rq
	m.out.Mode = mode
	m.out.VCommand = rq.VFcu
	m.out.HCommand = rq.HFcu
	m.thrustOrSoft(rq.HFcu, sgn, athr)
	m.out.EXPEDActive = m.pushed().EXPEDPush
}

// openDuring also toggles EXPED on each push; an ALT pull cancels it.
func (m *verticalMachine) openDuring(athr AutothrustMode) {
	rq := m.s.rq
	p := m.pushed()
	m.out.HCommand = rq.HFcu
	m.out.VCommand = rq.VFcu
	m.leaveSoft(rq.HFcu, athr)
	if p.EXPEDPush {
		m.out.EXPEDActive = !m.vprev().EXPEDActive
	} else if p.ALTPull {
		m.out.EXPEDActive = false
	}
}

///////////////////////////////////////////////////////////////////////////
// FINAL_DES

func (m *verticalMachine) finalDES() string {
	s := m.s
	c := m.cond()
	p := m.pushed()
	return decide(cat(
		[]transition{
			{"FINAL_DES_TO_X", func() bool {
				return !c.FinalDES || p.APPRPush || p.VSKnob() || p.HDGPull || p.LOCPush
			}, m.to(func() {
				if s.State.Computed.OnGround {
					m.enterOff()
				} else {
					m.enterVS()
				}
			})},
		},
		m.altPullRows(),
		[]transition{{"", always, m.finalDESGuidance}},
	)...)
}

func (m *verticalMachine) enterFinalDES() {
	m.out.Mode = VerticalFINALDES
	m.finalDESGuidance()
}

func (m *verticalMachine) finalDESGuidance() {
	rq := m.s.rq
	m.out.VCommand = rq.VFcu
	m.out.Law, m.out.Autothrust = VerticalLawVPATH, AutothrustSpeed
	m.out.HCommand = rq.FMHCommand
	m.out.HDotCommand = rq.FMHDotCommand
}

///////////////////////////////////////////////////////////////////////////
// SRS

func (m *verticalMachine) srs() string {
	s := m.s
	ac := s.ac
	c := &s.State.Computed
	arm, cond := m.armed(), m.cond()
	all := ac.Engines2()

	var ts []transition
	if all {
		ts = []transition{
			{"CLB", func() bool { return arm.CLB && cond.CLB }, m.to(m.enterCLB)},
			{"DES", func() bool { return arm.DES && cond.DES }, m.to(m.enterDES)},
			m.altCaptureRow(),
		}
	}
	return decide(cat(
		ts,
		m.knobRows(),
		[]transition{
			{"SRS_TO_OP_CLB", func() bool {
				return (c.VFcuInSelection && !c.OnGround) || (!arm.CLB && ac.FlightPhase == 2 && all)
			}, m.to(m.enterOPCLB)},
			m.vsKnobRow(),
			{"", always, m.srsDuring},
		},
	)...)
}

func (m *verticalMachine) enterSRS() {
	ac := m.s.ac
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalSRS, VerticalLawSRS, AutothrustThrustClimb
	if ac.Engines2() {
		m.out.VCommand = ac.V2 + 10
	} else {
		m.out.VCommand = srsEngineOutSpeed(ac)
	}
}

// srsDuring lowers the speed target once when an engine is lost.
func (m *verticalMachine) srsDuring() {
	ac := m.s.ac
	mem := m.mem()
	all := ac.Engines2()
	if !mem.SRSWereAllSet {
		mem.SRSWereAll, mem.SRSWereAllSet = all, true
	}
	if mem.SRSWereAll && !all {
		m.out.VCommand = srsEngineOutSpeed(ac)
	}
	mem.SRSWereAll = all
}

func srsEngineOutSpeed(ac *Aircraft) float64 {
	return math.Min(ac.V2+15, math.Max(ac.VIAS, ac.V2))
}

///////////////////////////////////////////////////////////////////////////
// SRS_GA

func (m *verticalMachine) srsGA() string {
	s := m.s
	ac, rq := s.ac, s.rq
	c := &s.State.Computed
	arm, cond := m.armed(), m.cond()
	ap := s.State.Engagement.Engaged()
	return decide(cat(
		m.knobRows(),
		[]transition{
			m.vsKnobRow(),
			{"ALT_CPT", func() bool { return ac.HRadio > 400 && arm.ALT && cond.ALTCapture }, m.to(m.enterALTCapture)},
			{"SRS_GA_TO_OP_CLB", func() bool {
				ga := ac.AccelerationAltGA
				return (c.VFcuInSelection && c.TimeSinceSRS > 5) ||
					(m.mem().LocalHGAInit < ga && ac.HInd >= ga && ac.Engines2())
			}, m.to(m.enterOPCLB)},
			{"SRS_GA_TO_OFF", func() bool { return !rq.FDActive && !ap && !m.vprev().FDConnect }, m.to(m.enterOff)},
			{"", always, m.srsGADuring},
		},
	)...)
}

func (m *verticalMachine) enterSRSGA() {
	ac := m.s.ac
	m.mem().LocalHGAInit = ac.HInd
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalSRSGA, VerticalLawSRS, AutothrustThrustClimb
	m.out.ModeReversionTrkFpa = true
	if ac.Engines2() {
		m.out.VCommand = math.Min(ac.VLS+25, math.Max(ac.VIAS, ac.VAPP))
	} else {
		m.out.VCommand = goAroundEngineOutSpeed(ac)
	}
}

func (m *verticalMachine) srsGADuring() {
	ac := m.s.ac
	mem := m.mem()
	m.out.FDConnect = false
	m.out.ModeReversionTrkFpa = false
	all := ac.Engines2()
	if !mem.SRSGAWereAllSet {
		mem.SRSGAWereAll, mem.SRSGAWereAllSet = all, true
	}
	if mem.SRSGAWereAll && !all {
		m.out.VCommand = goAroundEngineOutSpeed(ac)
	}
	mem.SRSGAWereAll = all
}

func goAroundEngineOutSpeed(ac *Aircraft) float64 {
	return math.Min(ac.VLS+15, math.Max(ac.VIAS, ac.VAPP))
}
