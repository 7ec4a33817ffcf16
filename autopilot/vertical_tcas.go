// autopilot/vertical_tcas.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"github.com/mmp/autoflight/math"
)

// tcasRange returns the advisory's vertical speed bounds in order.
func (m *verticalMachine) tcasRange() (lo, hi float64) {
	rq := m.s.rq
	return math.Min(rq.TCASTargetMin, rq.TCASTargetMax), math.Max(rq.TCASTargetMin, rq.TCASTargetMax)
}

// updateTCASTarget picks the vertical speed to fly. A corrective advisory
// flies 200 fpm beyond the nearest edge of the allowed band; a preventive
// one keeps the current vertical speed, rounded, as long as it is allowed.
func (m *verticalMachine) updateTCASTarget(entry bool) {
	s := m.s
	mem := m.mem()
	lo, hi := m.tcasRange()
	corrective := s.rq.TCASAdvisory == 3

	if corrective {
		if sgn := math.Sign(hi + lo); sgn == 0 {
			mem.TCASTarget = 0
		} else {
			mem.TCASTarget = math.Sign(lo)*math.Min(math.Abs(lo), math.Abs(hi)) + sgn*200
		}
	} else if entry || mem.TCASWasCorrect {
		mem.TCASTarget = math.Round(s.ac.HDot/100) * 100
	}
	mem.TCASTarget = math.Max(math.Min(mem.TCASTarget, hi), lo)
	mem.TCASWasCorrect = corrective
}

// tcasCompatible reports whether an altitude capture can go on under the
// advisory: the target is inside the band and the band allows level
// flight.
func (m *verticalMachine) tcasCompatible() bool {
	lo, hi := m.tcasRange()
	t := m.mem().TCASTarget
	return t <= hi && t >= lo && lo <= 0 && hi >= 0
}

func (m *verticalMachine) tcas() string {
	s := m.s
	rq := s.rq
	c := m.cond()
	done := !rq.TCASAvailable || rq.TCASFail || rq.TCASAdvisory < 2
	sub := m.out.TCASSubMode

	return decide(cat(
		[]transition{
			{"TCAS_TO_ALT", func() bool {
				return done && (sub == TCASSubModeALT || c.ALT) && c.ALT
			}, m.to(m.enterALT)},
			{"TCAS_TO_ALT_CPT", func() bool {
				return done && (sub == TCASSubModeALTCPT || c.ALTCapture)
			}, m.to(m.enterALTCapture)},
			{"TCAS_TO_VS", func() bool {
				return done && sub == TCASSubModeNone && !c.ALTCapture && !c.ALT
			}, func() {
				m.tcasToVS()
				m.exit()
				m.enterVS()
			}},
		},
		m.knobRows(),
		[]transition{
			{"TCAS_TO_OFF", func() bool { return !m.out.FDConnect && s.xToOff() }, m.to(m.enterOff)},
			m.vsKnobRow(),
			{"", always, m.tcasDuring},
		},
	)...)
}

// tcasToVS sets the reversion target for the VS mode that follows the
// advisory: back toward the FCU altitude after a corrective one, else
// the vertical speed that was being flown.
func (m *verticalMachine) tcasToVS() {
	s := m.s
	ac, rq := s.ac, s.rq
	mem := m.mem()

	m.out.ModeReversion = true
	switch {
	case s.tcasAvailable() && mem.TCASWasCorrect:
		t := 1000 * math.Sign(rq.HFcu-ac.HInd)
		if ac.HInd >= 30000 {
			t = math.Min(500, t)
		}
		m.out.ModeReversionTarget = t
	case s.tcasAvailable():
		m.out.ModeReversionTarget = mem.TCASTarget
	default:
		m.out.ModeReversionTarget = math.Max(0, mem.TCASTarget)
	}
	m.out.TCASMessageRAInhibit = false
}

func (m *verticalMachine) enterTCAS() {
	s := m.s
	mem := m.mem()
	arm := m.armed()

	mem.TCASTrkFpaRevert = s.rq.TrkFpaMode
	if s.rq.TrkFpaMode {
		m.out.ModeReversionTrkFpa = true
	}
	m.updateTCASTarget(true)
	m.out.TCASSubMode = TCASSubModeNone
	m.out.TCASSubModeCompatible = true
	m.out.TCASMessageRAInhibit = false
	if arm.CLB || arm.DES || arm.GS || arm.FinalDES {
		m.out.TCASMessageDisarm = true
	}
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalTCAS, VerticalLawVS, AutothrustSpeed
	m.out.HDotCommand = mem.TCASTarget
	m.out.TCASMessageTrkFpaDeselection = false

	FGLog(s, s.t.Now, FGLogTCAS, "RA advisory %d range [%.0f, %.0f] target %.0f disarm %v",
		s.rq.TCASAdvisory, s.rq.TCASTargetMin, s.rq.TCASTargetMax, mem.TCASTarget, m.out.TCASMessageDisarm)
}

func (m *verticalMachine) tcasDuring() {
	s := m.s
	rq := s.rq
	mem := m.mem()

	if s.tcasAvailable() && rq.TCASAdvisory >= 2 {
		m.updateTCASTarget(false)
	}
	if rq.FDActive {
		m.out.FDConnect = false
	}
	m.out.ModeReversionTrkFpa = false
	compat := m.tcasCompatible()
	m.out.TCASSubModeCompatible = compat

	arm, c := m.armed(), m.cond()
	switch sub := m.out.TCASSubMode; {
	case sub == TCASSubModeNone && arm.ALT && c.ALTCapture && compat:
		m.out.TCASSubMode = TCASSubModeALTCPT
		mem.TCASTarget = 0
	case sub == TCASSubModeALTCPT && c.ALT && compat:
		m.out.TCASSubMode = TCASSubModeALT
	case !compat:
		m.out.TCASSubMode = TCASSubModeNone
	case sub == TCASSubModeALTCPT && math.Abs(mem.LocalHFcu-rq.HFcu) > 250:
		m.out.TCASSubMode = TCASSubModeNone
	}

	m.out.Mode, m.out.Autothrust = VerticalTCAS, AutothrustSpeed
	switch m.out.TCASSubMode {
	case TCASSubModeALTCPT:
		mem.LocalHFcu = rq.HFcu
		m.out.Law = VerticalLawALTACQ
		m.out.HCommand = rq.HFcu
	case TCASSubModeALT:
		m.out.Law = VerticalLawALTHOLD
		m.out.HCommand = rq.HFcu
	default:
		m.out.Law = VerticalLawVS
		m.out.HDotCommand = mem.TCASTarget
	}
}

func (m *verticalMachine) tcasExit() {
	s := m.s
	m.out.TCASMessageDisarm = false
	m.out.TCASSubModeCompatible = true
	if m.mem().TCASTrkFpaRevert {
		m.out.TCASMessageTrkFpaDeselection = true
	}
	if !s.tcasAvailable() {
		m.out.TCASMessageRAInhibit = true
	}
	FGLog(s, s.t.Now, FGLogTCAS, "RA done sub-mode %s ra-inhibit %v", m.out.TCASSubMode, m.out.TCASMessageRAInhibit)
}
