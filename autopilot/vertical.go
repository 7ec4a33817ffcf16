// autopilot/vertical.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"github.com/mmp/autoflight/math"
)

// verticalMachine runs one step of the vertical state machine. As with
// the lateral machine the active leaf is the published mode, with VS and
// FPA sharing one leaf. Guards that look at the lateral mode see the
// mode lateral has just settled on in this tick.
type verticalMachine struct {
	s   *Session
	out *VerticalOutput
}

func (s *Session) runVertical() {
	st := &s.State
	vm := verticalMachine{s: s, out: &st.Vertical.Output}
	from := vm.out.Mode

	var name string
	switch from {
	case VerticalNone:
		name = vm.off()
	case VerticalSRSGA:
		name = vm.srsGA()
	case VerticalTCAS:
		name = vm.tcas()
	default:
		name = vm.on()
	}

	if to := vm.out.Mode; name != "" && to != from {
		s.reportTransition(FGLogVertical, name, from.String(), to.String())
	}
}

func (m *verticalMachine) armed() *VerticalArming { return &m.s.State.Vertical.Armed }

func (m *verticalMachine) cond() *VerticalConditions { return &m.s.State.Vertical.Condition }

func (m *verticalMachine) pushed() *Pushbuttons { return &m.s.State.Computed.Pushed }

func (m *verticalMachine) mem() *VerticalMemory { return &m.s.State.VerticalMemory }

func (m *verticalMachine) vprev() *VerticalOutput { return &m.s.State.VerticalPrev.Output }

// fcuError is H_fcu - H_ind.
func (m *verticalMachine) fcuError() float64 { return m.s.rq.HFcu - m.s.ac.HInd }

func (m *verticalMachine) vsKnob() bool { return m.pushed().VSKnob() }

// reversion flags an automatic change of mode, with the vertical speed
// at the time of the reversion as the target.
func (m *verticalMachine) reversion() {
	m.out.ModeReversion = true
	m.out.ModeReversionTarget = m.s.ac.HDot
}

// softTarget is the altitude CLB and DES capture toward: the constraint
// if it is valid, otherwise the FCU altitude.
func (m *verticalMachine) softTarget() float64 {
	if m.s.State.Computed.HConstraintValid {
		return m.s.rq.HConstraint
	}
	return m.s.rq.HFcu
}

// exit runs the exit action of the active leaf.
func (m *verticalMachine) exit() {
	switch m.out.Mode {
	case VerticalALT:
		m.out.ALTCruiseActive, m.out.ALTSoftActive = false, false
	case VerticalOPCLB, VerticalOPDES:
		m.out.EXPEDActive = false
	case VerticalVS, VerticalFPA:
		m.out.SpeedProtection = false
	case VerticalTCAS:
		m.tcasExit()
	}
}

// to wraps an entry action so that the active leaf's exit runs first.
func (m *verticalMachine) to(entry func()) func() {
	return func() {
		m.exit()
		entry()
	}
}

// cat joins groups of guard rows into one cascade.
func cat(groups ...[]transition) []transition {
	var ts []transition
	for _, g := range groups {
		ts = append(ts, g...)
	}
	return ts
}

// approachRows captures the glideslope or the final descent path.
func (m *verticalMachine) approachRows() []transition {
	arm, c := m.armed(), m.cond()
	return []transition{
		{"GS_CPT", func() bool { return arm.GS && c.GSCapture }, m.to(m.enterGSCapture)},
		{"FINAL_DES", func() bool { return arm.FinalDES && c.FinalDES }, m.to(m.enterFinalDES)},
	}
}

// altPullRows are the open climb and descent on an ALT pull or EXPED
// push.
func (m *verticalMachine) altPullRows() []transition {
	p, c := m.pushed(), m.cond()
	d := m.fcuError()
	pulled := (p.ALTPull || p.EXPEDPush) && c.HFcuActive
	return []transition{
		{"OP_DES", func() bool { return pulled && d < -40 }, m.to(m.enterOPDES)},
		{"OP_CLB", func() bool { return pulled && d > 40 }, m.to(m.enterOPCLB)},
	}
}

// altPushRows are the managed climb and descent on an ALT push, unless
// the aircraft is already sitting on a constraint.
func (m *verticalMachine) altPushRows() []transition {
	s := m.s
	p, c := m.pushed(), m.cond()
	offCst := s.rq.HConstraint == 0 || math.Abs(s.rq.HConstraint-s.ac.HInd) > 40
	push := p.ALTPush && c.HFcuActive && offCst
	return []transition{
		{"CLB", func() bool { return push && c.CLB }, m.to(m.enterCLB)},
		{"DES", func() bool { return push && c.DES }, m.to(m.enterDES)},
	}
}

// knobRows is the chain shared by most leaves: approach capture, then
// the altitude knob pulled, then pushed.
func (m *verticalMachine) knobRows() []transition {
	return cat(m.approachRows(), m.altPullRows(), m.altPushRows())
}

func (m *verticalMachine) vsKnobRow() transition {
	return transition{"VS", m.vsKnob, m.to(m.enterVS)}
}

func (m *verticalMachine) altCaptureRow() transition {
	arm, c := m.armed(), m.cond()
	return transition{"ALT_CPT", func() bool { return arm.ALT && c.ALTCapture }, m.to(m.enterALTCapture)}
}

func (m *verticalMachine) off() string {
	s := m.s
	ac, rq := s.ac, s.rq
	c := &s.State.Computed
	arm, cond := m.armed(), m.cond()
	ap := s.State.Engagement.Engaged()
	phase := ac.FlightPhase

	return decide(
		transition{"OFF_TO_SRS", func() bool { return rq.FDActive && c.OnGround && cond.SRS }, m.enterSRS},
		transition{"OFF_TO_VS", func() bool {
			return ((rq.FDActive && !m.vprev().FDDisconnect) || ap) &&
				(c.TimeSinceLiftoff > 5 ||
					(phase >= 2 && phase < 7 && !c.OnGround && rq.FDActive && !arm.CLB))
		}, func() {
			m.reversion()
			m.enterVS()
		}},
		transition{"OFF_TO_CLB", func() bool { return arm.CLB && cond.CLB }, m.enterCLB},
		transition{"OFF_TO_DES", func() bool { return arm.DES && cond.DES }, m.enterDES},
		transition{"OFF_TO_TCAS", func() bool { return cond.TCAS }, func() {
			m.out.FDConnect = true
			m.enterTCAS()
		}},
		transition{"OFF_TO_SRS_GA", func() bool { return cond.SRSGA }, func() {
			m.out.FDConnect = true
			m.enterSRSGA()
		}},
		transition{"", always, func() {
			if m.vprev().FDDisconnect && !rq.FDActive {
				m.out.FDDisconnect = false
			}
		}},
	)
}

func (m *verticalMachine) enterOff() {
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalNone, VerticalLawNone, AutothrustSpeed
}

// on runs the rows common to every leaf inside ON and then the active
// leaf.
func (m *verticalMachine) on() string {
	s := m.s
	ac := s.ac
	ap := s.State.Engagement.Engaged()
	cond := m.cond()
	vprev := m.vprev().Mode

	if name := decide(
		transition{"SRS_GA", func() bool { return cond.SRSGA }, m.to(m.enterSRSGA)},
		transition{"SPEED_LIMIT_TO_OFF", func() bool {
			return !ap && ((vprev == VerticalOPCLB && ac.VIAS >= ac.VMAX+4) ||
				(vprev == VerticalOPDES && ac.VIAS <= ac.VLS-2))
		}, m.to(func() {
			m.out.FDDisconnect = true
			m.enterOff()
		})},
		transition{"TCAS", func() bool { return cond.TCAS }, m.to(func() {
			m.out.FDConnect = true
			m.enterTCAS()
		})},
		transition{"X_TO_OFF", s.xToOff, m.to(m.enterOff)},
	); name != "" {
		return name
	}

	switch m.out.Mode {
	case VerticalALT:
		return m.alt()
	case VerticalALTCPT:
		return m.altCapture()
	case VerticalALTCST:
		return m.altCst()
	case VerticalALTCSTCPT:
		return m.altCstCapture()
	case VerticalCLB:
		return m.clb()
	case VerticalDES:
		return m.des()
	case VerticalFINALDES:
		return m.finalDES()
	case VerticalOPCLB:
		return m.opCLB()
	case VerticalOPDES:
		return m.opDES()
	case VerticalSRS:
		return m.srs()
	case VerticalGSCPT, VerticalGSTRACK, VerticalLAND, VerticalFLARE, VerticalROLLOUT:
		return m.gs()
	default:
		return m.vs()
	}
}

func (m *verticalMachine) vs() string {
	arm, c, p := m.armed(), m.cond(), m.pushed()
	return decide(cat(
		m.knobRows(),
		[]transition{
			{"ALT_CPT", func() bool { return arm.ALT && c.ALTCapture }, m.to(m.enterALTCapture)},
			{"ALT", func() bool { return (p.ALTPull || p.ALTPush) && c.ALT }, m.to(m.enterALT)},
			{"", always, m.vsDuring},
		})...)
}

func (m *verticalMachine) enterVS() {
	s := m.s
	rq := s.rq
	m.out.Autothrust = AutothrustSpeed
	if rq.TrkFpaMode {
		m.out.Mode, m.out.Law = VerticalFPA, VerticalLawFPA
	} else {
		m.out.Mode, m.out.Law = VerticalVS, VerticalLawVS
	}
	m.out.HCommand = rq.HFcu
	m.out.HDotCommand = rq.HDotFcu
	m.out.FPACommand = rq.FPAFcu
	if m.pushed().VSPull {
		m.out.HDotCommand = math.Round(s.ac.HDot/100) * 100
	}
}

// vsDuring follows the FCU target and flags speed protection when the
// autopilot is asked to fly away from VLS or VMAX.
func (m *verticalMachine) vsDuring() {
	s := m.s
	ac, rq := s.ac, s.rq

	var target float64
	if rq.TrkFpaMode {
		m.out.Mode, m.out.Law = VerticalFPA, VerticalLawFPA
		target = math.TanDegrees(rq.FPAFcu) * ac.VGnd * 0.514444 * 196.8504
	} else {
		m.out.Mode, m.out.Law = VerticalVS, VerticalLawVS
		target = rq.HDotFcu
	}

	vls := ac.VLS
	if m.out.VCommand == ac.VLS {
		vls = ac.VLS - 5
	}
	diff := ac.HDot - target
	ap := s.State.Engagement.Engaged()
	m.out.SpeedProtection = ap && ((ac.VIAS < vls+3 && diff < -50) || (ac.VIAS > ac.VMAX-3 && diff > 50))

	m.out.VCommand = rq.VFcu
	m.out.HCommand = rq.HFcu
	m.out.HDotCommand = rq.HDotFcu
	m.out.FPACommand = rq.FPAFcu
	m.out.ModeReversion = false
}
