// autopilot/vertical_gs.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

// The glideslope sub-machine: GS_CPT -> GS_TRACK -> LAND -> FLARE ->
// ROLL_OUT.

// gsToX cancels the approach. withKnob also counts a VS knob action;
// only the variant without it flags a reversion.
func (m *verticalMachine) gsToX(withKnob bool) bool {
	p := m.pushed()
	lat := m.s.State.Lateral.Output.Mode
	return p.LOCPush || p.APPRPush || (withKnob && p.VSKnob()) ||
		!lat.In(LateralLOCCPT, LateralLOCTRACK, LateralLAND)
}

func (m *verticalMachine) gsExit() {
	m.out.ModeReversion = m.gsToX(false)
	m.out.ModeReversionTarget = m.s.ac.HDot
	m.leaveGS()
}

// leaveGS goes to VS in the air and OFF on the ground.
func (m *verticalMachine) leaveGS() {
	if m.s.State.Computed.OnGround {
		m.enterOff()
	} else {
		m.enterVS()
	}
}

func (m *verticalMachine) gsToALT() bool {
	p := m.pushed()
	return p.ALTPush || p.ALTPull
}

func (m *verticalMachine) gs() string {
	c := m.cond()
	gsToX := func() bool { return m.gsToX(true) }

	switch m.out.Mode {
	case VerticalGSCPT:
		if name := decide(
			transition{"GS_TO_X", gsToX, m.gsExit},
			transition{"GS_TRACK", func() bool { return c.GSTrack }, m.enterGSTrack},
		); name != "" {
			return name
		}
		if m.gsToALT() {
			return decide(m.knobRows()...)
		}
		return ""

	case VerticalGSTRACK:
		if m.gsToALT() {
			if name := decide(m.knobRows()...); name != "" {
				return name
			}
		}
		return decide(
			transition{"LAND", func() bool { return c.LAND }, m.enterLAND},
			transition{"GS_TO_X", gsToX, m.gsExit},
		)

	case VerticalLAND:
		return decide(transition{"FLARE", func() bool { return c.FLARE }, m.enterFLARE})

	case VerticalFLARE:
		return decide(
			transition{"ROLL_OUT", func() bool { return c.ROLLOUT }, m.enterROLLOUT},
			transition{"", always, m.flareDuring},
		)

	default:
		return decide(transition{"ROLL_OUT_TO_X", func() bool { return !c.ROLLOUT }, m.leaveGS})
	}
}

func (m *verticalMachine) enterGSCapture() {
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalGSCPT, VerticalLawGS, AutothrustSpeed
}

func (m *verticalMachine) enterGSTrack() {
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalGSTRACK, VerticalLawGS, AutothrustSpeed
}

func (m *verticalMachine) enterLAND() {
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalLAND, VerticalLawGS, AutothrustSpeed
}

func (m *verticalMachine) enterFLARE() {
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalFLARE, VerticalLawFLARE, AutothrustSpeed
}

// flareDuring retards the thrust levers below 40 ft with the autopilot
// flying.
func (m *verticalMachine) flareDuring() {
	m.out.Mode, m.out.Law = VerticalFLARE, VerticalLawFLARE
	if m.s.ac.HRadio <= 40 && m.s.State.Engagement.Engaged() {
		m.out.Autothrust = AutothrustRetard
	} else {
		m.out.Autothrust = AutothrustSpeed
	}
}

func (m *verticalMachine) enterROLLOUT() {
	m.out.Mode, m.out.Law, m.out.Autothrust = VerticalROLLOUT, VerticalLawFLARE, AutothrustThrustIdle
}
