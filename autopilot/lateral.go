// autopilot/lateral.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"github.com/mmp/autoflight/math"
)

// lateralMachine runs one step of the lateral state machine. The active
// leaf is identified by the published mode; the guards read the armed
// flags and conditions of this tick and the vertical modes of the last
// one.
type lateralMachine struct {
	s   *Session
	out *LateralOutput
}

func (s *Session) runLateral() {
	st := &s.State
	lm := lateralMachine{s: s, out: &st.Lateral.Output}
	from := lm.out.Mode

	var name string
	switch from {
	case LateralNone:
		name = lm.off()
	case LateralGATRACK:
		name = lm.gaTrack()
	default:
		name = lm.on()
	}

	if to := lm.out.Mode; name != "" && to != from {
		s.reportTransition(FGLogLateral, name, from.String(), to.String())
	}
}

func (m *lateralMachine) fdOrAP() bool { return m.s.fdOrAP() }

func (m *lateralMachine) armed() *LateralArming { return &m.s.State.Lateral.Armed }

func (m *lateralMachine) cond() *LateralConditions { return &m.s.State.Lateral.Condition }

// beamValid is the runway mode's navigation validity, which differs
// between aircraft types.
func (m *lateralMachine) beamValid() bool {
	if m.s.Profile.RunwayBeam == RunwayBeamNav {
		return m.s.ac.NavValid
	}
	return m.s.ac.LocValid
}

// runwayAlignment is |Psi - loc| folded into [0, 180].
func (m *lateralMachine) runwayAlignment() float64 {
	return math.Abs(math.CircularDelta(m.s.ac.LocDeg, m.s.ac.Psi))
}

func (m *lateralMachine) hdgPull() bool { return m.s.State.Computed.Pushed.HDGPull }

func (m *lateralMachine) toNAV() bool {
	c := &m.s.State.Computed
	return m.cond().NAV && (m.armed().NAV || c.Pushed.HDGPush || c.DirTo)
}

func (m *lateralMachine) toLOC() bool { return m.armed().LOC && m.cond().LOCCapture }

func (m *lateralMachine) off() string {
	s := m.s
	ac, c := s.ac, &s.State.Computed
	return decide(
		transition{"OFF_TO_HDG", func() bool {
			return c.TimeSinceLiftoff >= 5 && m.fdOrAP() && (m.hdgPull() || !m.armed().NAV)
		}, func() {
			m.out.ModeReversion = true
			m.enterHDG()
		}},
		transition{"OFF_TO_NAV", func() bool { return m.fdOrAP() && m.armed().NAV && m.cond().NAV }, m.enterNAV},
		transition{"OFF_TO_RWY", m.offToRunway, m.enterRWY},
		transition{"OFF_TO_RWY_TRK", func() bool {
			return m.fdOrAP() && (!m.armed().NAV || !m.cond().NAV) && ac.HRadio >= 30 && ac.HRadio < 100
		}, m.enterRWYTrack},
		transition{"GA_TRK", func() bool { return m.cond().GATrack }, m.enterGATrack},
	)
}

// offToRunway engages the runway mode at the start of the takeoff roll,
// once SRS has been active for the profile's dwell.
func (m *lateralMachine) offToRunway() bool {
	s := m.s
	ac, c := s.ac, &s.State.Computed
	thr1, thr2 := ac.ThrottleLever[0], ac.ThrottleLever[1]
	if !m.fdOrAP() || ac.V2 < 90 || ac.FlapHandle < 1 || c.TimeSinceTouchdown < 30 ||
		(thr1 < 35 && thr2 < 35) || !m.beamValid() ||
		math.Abs(ac.LocErrorDeg) > 0.4 || m.runwayAlignment() > 20 {
		return false
	}
	srs := s.State.VerticalPrev.Output.Mode == VerticalSRS
	return s.State.Timers.RunwaySRS.Elapsed(s.t.Now, srs) >= s.Profile.RunwaySRSDwell
}

func (m *lateralMachine) gaTrack() string {
	s := m.s
	name := ""
	if s.ac.HRadio > 100 {
		name = decide(
			transition{"ON_TO_HDG", m.hdgPull, m.enterHDG},
			transition{"ON_TO_NAV", m.toNAV, m.enterNAV},
		)
	}
	if name == "" && !s.rq.FDActive && !s.State.Engagement.Engaged() && !s.State.VerticalPrev.Output.FDConnect {
		m.enterOff()
		name = "X_TO_OFF"
	}
	return name
}

func (m *lateralMachine) on() string {
	if name := decide(
		transition{"X_TO_OFF", m.s.xToOff, m.enterOff},
		transition{"GA_TRK", func() bool { return m.cond().GATrack }, m.enterGATrack},
	); name != "" {
		return name
	}

	s := m.s
	ac := s.ac
	switch mode := m.out.Mode; mode {
	case LateralHDG, LateralTRACK:
		return decide(
			transition{"ON_TO_NAV", m.toNAV, m.enterNAV},
			transition{"ON_TO_LOC", m.toLOC, m.enterLOCCapture},
			transition{"", always, m.hdgDuring},
		)

	case LateralNAV:
		return decide(
			transition{"NAV_TO_HDG", m.navToHDG, m.enterHDG},
			transition{"ON_TO_LOC", m.toLOC, m.enterLOCCapture},
		)

	case LateralRWY:
		return decide(
			transition{"RWY_TO_RWY_TRK", func() bool {
				return (ac.HRadio >= 30 && !m.armed().NAV) || !m.beamValid() || m.runwayAlignment() > 20
			}, m.enterRWYTrack},
			transition{"ON_TO_HDG", m.hdgPull, m.enterHDG},
			transition{"ON_TO_NAV", m.toNAV, m.enterNAV},
			transition{"RWY_TO_OFF", func() bool { return !ac.NavValid && m.runwayAlignment() > 20 }, m.enterOff},
		)

	case LateralLOCCPT, LateralLOCTRACK, LateralLAND, LateralFLARE, LateralROLLOUT:
		if ac.HRadio > 400 {
			if name := decide(
				transition{"ON_TO_HDG", m.hdgPull, m.enterHDG},
				transition{"ON_TO_NAV", m.toNAV, m.enterNAV},
			); name != "" {
				return name
			}
		}
		return m.loc(mode)

	default:
		return decide(
			transition{"ON_TO_HDG", m.hdgPull, m.enterHDG},
			transition{"ON_TO_NAV", m.toNAV, m.enterNAV},
		)
	}
}

// navToHDG also tracks whether FINAL_DES was active or armed on the
// previous tick, so that losing it drops NAV.
func (m *lateralMachine) navToHDG() bool {
	st := &m.s.State
	mem := &st.LateralMemory
	vprev := &st.VerticalPrev
	vm := vprev.Output.Mode
	pull := m.hdgPull()

	r := pull || !m.cond().NAV ||
		(mem.PrevFDESActive && !vm.In(VerticalFINALDES, VerticalTCAS)) ||
		(mem.PrevFDESArmed && !vprev.Armed.FinalDES && vm != VerticalFINALDES)
	mem.PrevFDESActive = vm == VerticalFINALDES
	mem.PrevFDESArmed = vprev.Armed.FinalDES && !pull
	return r
}

func (m *lateralMachine) loc(mode LateralMode) string {
	s := m.s
	c := m.cond()
	exit := func() {
		if s.State.Computed.OnGround {
			m.enterOff()
		} else {
			m.enterHDG()
		}
	}

	switch mode {
	case LateralLOCCPT:
		return decide(
			transition{"LOC_TO_X", m.locToX, exit},
			transition{"LOC_TRACK", func() bool { return c.LOCTrack }, m.enterLOCTrack},
		)
	case LateralLOCTRACK:
		return decide(
			transition{"LAND", func() bool { return c.LAND }, m.enterLAND},
			transition{"LOC_TO_X", m.locToX, exit},
		)
	case LateralLAND:
		return decide(transition{"FLARE", func() bool { return c.FLARE }, m.enterFLARE})
	case LateralFLARE:
		return decide(transition{"ROLL_OUT", func() bool { return c.ROLLOUT }, m.enterROLLOUT})
	default:
		return decide(transition{"ROLL_OUT_TO_X", func() bool { return !c.ROLLOUT }, exit})
	}
}

// locToX is a second press of LOC, or of APPR when the glideslope is
// involved.
func (m *lateralMachine) locToX() bool {
	st := &m.s.State
	p := &st.Computed.Pushed
	vprev := &st.VerticalPrev
	gs := vprev.Armed.GS || vprev.Output.Mode.In(VerticalGSCPT, VerticalGSTRACK)
	return (p.LOCPush && !gs) || (p.APPRPush && gs)
}

func (m *lateralMachine) set(mode LateralMode, law LateralLaw) {
	m.out.Mode, m.out.Law = mode, law
}

func (m *lateralMachine) enterHDG() {
	if m.s.rq.TrkFpaMode {
		m.set(LateralTRACK, LateralLawTRACK)
	} else {
		m.set(LateralHDG, LateralLawHDG)
	}
}

func (m *lateralMachine) hdgDuring() {
	m.out.ModeReversion = false
	m.out.PsiCommand = m.s.rq.PsiFcu
	m.enterHDG()
}

func (m *lateralMachine) enterNAV()        { m.set(LateralNAV, LateralLawHPATH) }
func (m *lateralMachine) enterLOCCapture() { m.set(LateralLOCCPT, LateralLawLOCCPT) }
func (m *lateralMachine) enterLOCTrack()   { m.set(LateralLOCTRACK, LateralLawLOCTRACK) }
func (m *lateralMachine) enterLAND()       { m.set(LateralLAND, LateralLawLOCTRACK) }
func (m *lateralMachine) enterFLARE()      { m.set(LateralFLARE, LateralLawLOCTRACK) }
func (m *lateralMachine) enterROLLOUT()    { m.set(LateralROLLOUT, LateralLawROLLOUT) }
func (m *lateralMachine) enterRWY()        { m.set(LateralRWY, LateralLawROLLOUT) }
func (m *lateralMachine) enterOff()        { m.set(LateralNone, LateralLawNone) }

func (m *lateralMachine) enterRWYTrack() {
	m.set(LateralRWYTRACK, LateralLawTRACK)
	m.out.PsiCommand = m.s.ac.PsiTrack
}

func (m *lateralMachine) enterGATrack() {
	m.set(LateralGATRACK, LateralLawTRACK)
	m.out.PsiCommand = m.s.ac.PsiTrack
}
