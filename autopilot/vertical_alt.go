// autopilot/vertical_alt.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"github.com/mmp/autoflight/math"
)

///////////////////////////////////////////////////////////////////////////
// ALT

func (m *verticalMachine) alt() string {
	s := m.s
	rq, ac := s.rq, s.ac
	p := m.pushed()
	return decide(cat(
		m.knobRows(),
		[]transition{
			m.altCaptureRow(),
			m.vsKnobRow(),
			{"ALT_CST", func() bool {
				return p.ALTPush && rq.HConstraint != 0 && math.Abs(rq.HConstraint-ac.HInd) < 50
			}, m.to(func() {
				m.mem().LocalHCst = rq.HConstraint
				m.enterALTCst()
			})},
			{"", always, m.altDuring},
		})...)
}

func (m *verticalMachine) enterALT() {
	s := m.s
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalALT, VerticalLawALTHOLD, AutothrustSpeed
	m.out.HCommand = s.rq.HFcu
	m.out.VCommand = s.rq.VFcu
	m.out.ALTCruiseActive = math.Abs(s.ac.HInd-s.ac.CruiseAlt) < 60
	m.out.ALTSoftActive = s.State.Computed.ALTSoftMode
}

// altDuring holds the altitude. Engaging the first autopilot far from the
// FCU altitude, or a slew, first levels off at the current altitude with
// a zero vertical speed and only then switches back to altitude hold.
func (m *verticalMachine) altDuring() {
	s := m.s
	ac, rq := s.ac, s.rq
	mem := m.mem()
	e := &s.State.Engagement

	m.out.VCommand = rq.VFcu

	var n int
	if e.AP1 {
		n++
	}
	if e.AP2 {
		n++
	}
	if !mem.PrevAPCountSet {
		mem.PrevAPCount, mem.PrevAPCountSet = n, true
	}

	if mem.VSCancel && math.Abs(ac.HDot) <= 50 {
		mem.VSCancel = false
		m.out.Law = VerticalLawALTHOLD
	}
	if mem.PrevAPCount == 0 && n == 1 && math.Abs(rq.HFcu-ac.HInd) > 250 {
		mem.VSCancel = true
	} else {
		mem.VSCancel = rq.SlewTrigger || mem.VSCancel
	}
	if mem.VSCancel {
		m.out.Law = VerticalLawVS
		m.out.HDotCommand = 0
		m.out.HCommand = ac.HInd
	}

	m.out.ALTCruiseActive = math.Abs(ac.HInd-ac.CruiseAlt) < 60
	m.out.ALTSoftActive = s.State.Computed.ALTSoftMode
	mem.PrevAPCount = n
}

///////////////////////////////////////////////////////////////////////////
// ALT_CPT

func (m *verticalMachine) altCapture() string {
	s := m.s
	rq := s.rq
	arm, c := m.armed(), m.cond()
	return decide(
		transition{"ALT", func() bool { return c.ALT }, m.to(m.enterALT)},
		transition{"ALT_CPT_TO_VS", func() bool {
			return math.Abs(m.mem().LocalHFcu-rq.HFcu) > 250 || rq.SlewTrigger
		}, m.to(func() {
			m.reversion()
			m.enterVS()
		})},
		transition{"GS_CPT", func() bool { return arm.GS && c.GSCapture }, m.to(m.enterGSCapture)},
		m.vsKnobRow(),
		transition{"", always, func() { m.out.HCommand = rq.HFcu }},
	)
}

func (m *verticalMachine) enterALTCapture() {
	rq := m.s.rq
	m.mem().LocalHFcu = rq.HFcu
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalALTCPT, VerticalLawALTACQ, AutothrustSpeed
	m.out.HCommand = rq.HFcu
}

///////////////////////////////////////////////////////////////////////////
// ALT_CST and ALT_CST_CPT

// cstChanged is true when there is no constraint or it is not the one
// captured.
func (m *verticalMachine) cstChanged() bool {
	rq := m.s.rq
	return rq.HConstraint == 0 || m.mem().LocalHCst != rq.HConstraint
}

// resumeRows go back to the managed climb or descent once the captured
// constraint has been sequenced.
func (m *verticalMachine) resumeRows() []transition {
	arm, c := m.armed(), m.cond()
	return []transition{
		{"CLB", func() bool { return m.cstChanged() && arm.CLB && c.CLB }, m.to(m.enterCLB)},
		{"DES", func() bool { return m.cstChanged() && arm.DES && c.DES }, m.to(m.enterDES)},
	}
}

// openRows leave for an open mode when neither managed mode is possible
// and the FCU altitude is away.
func (m *verticalMachine) openRows() []transition {
	c := m.cond()
	d := m.fcuError()
	neither := !c.CLB && !c.DES
	return []transition{
		{"OP_CLB", func() bool { return neither && d > 40 }, m.to(m.enterOPCLB)},
		{"OP_DES", func() bool { return neither && d < -40 }, m.to(m.enterOPDES)},
	}
}

func (m *verticalMachine) altCst() string {
	rq := m.s.rq
	c := m.cond()
	return decide(cat(
		m.approachRows(),
		m.resumeRows(),
		m.openRows(),
		[]transition{
			{"ALT", func() bool { return (rq.HConstraint == 0 || rq.HConstraint == rq.HFcu) && c.ALT }, m.to(m.enterALT)},
			m.vsKnobRow(),
		},
		m.altPullRows(),
	)...)
}

func (m *verticalMachine) enterALTCst() {
	rq := m.s.rq
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalALTCST, VerticalLawALTHOLD, AutothrustSpeed
	m.out.HCommand = rq.HConstraint
}

func (m *verticalMachine) altCstCapture() string {
	rq := m.s.rq
	c := m.cond()
	return decide(cat(
		[]transition{{"ALT_CST", func() bool { return c.ALTCst }, m.to(m.enterALTCst)}},
		m.approachRows(),
		m.altPullRows(),
		m.altPushRows(),
		m.resumeRows(),
		m.openRows(),
		[]transition{
			{"ALT_CPT", func() bool {
				return rq.HConstraint == 0 || (rq.HConstraint == rq.HFcu && m.mem().LocalHCst == rq.HConstraint)
			}, m.to(m.enterALTCapture)},
			m.vsKnobRow(),
		},
	)...)
}

func (m *verticalMachine) enterALTCstCapture() {
	rq := m.s.rq
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalALTCSTCPT, VerticalLawALTACQ, AutothrustSpeed
	m.out.HCommand = rq.HConstraint
}
