// autopilot/engagement.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"github.com/mmp/autoflight/math"
)

// EngagementState is the autopilot channel engagement and the bookkeeping
// that the interlocks compare against.
type EngagementState struct {
	AP1, AP2    bool
	WasLand     bool
	WasRollout  bool
	WasGoAround bool
}

func (e *EngagementState) Engaged() bool { return e.AP1 || e.AP2 }

// engagementEligible reports whether an autopilot may be engaged: above
// 100 ft radio height and more than 5 seconds after liftoff.
func (s *Session) engagementEligible() bool {
	return s.ac.HRadio > 100 && s.State.Computed.TimeSinceLiftoff > 5
}

// updateEngagement applies the pushbutton edges and the interlocks to
// AP1/AP2. It only looks at the previous tick's modes.
func (s *Session) updateEngagement() {
	st := &s.State
	e := &st.Engagement
	ac, c := s.ac, &st.Computed
	lprev, vprev := &st.LateralPrev, &st.VerticalPrev
	lm, vm := lprev.Output.Mode, vprev.Output.Mode

	eligible := s.engagementEligible()
	land := (lprev.Armed.LOC || lm.In(LateralLOCCPT, LateralLOCTRACK, LateralLAND, LateralFLARE, LateralROLLOUT)) &&
		(vprev.Armed.GS || vm.In(VerticalGSCPT, VerticalGSTRACK, VerticalLAND, VerticalFLARE, VerticalROLLOUT))
	rollout := lm == LateralROLLOUT || vm == VerticalROLLOUT
	ga := lm == LateralGATRACK && vm == VerticalSRSGA

	ap1, ap2 := e.AP1, e.AP2
	switch {
	case ac.Theta > 25 || ac.Theta < -13 || math.Abs(ac.Phi) > 45:
		// Outside the attitude envelope nothing stays engaged, whatever
		// was pushed.
		e.AP1, e.AP2 = false, false

	case c.Pushed.APEngage && eligible:
		if !e.AP1 && !e.AP2 {
			e.AP1 = true
		} else if land {
			if e.AP1 && !e.AP2 {
				e.AP2 = true
			} else {
				e.AP1 = (e.AP2 && !e.AP1) || e.AP1
			}
		}

	case c.Pushed.AP1:
		if !e.AP1 {
			if eligible {
				e.AP1 = true
				e.AP2 = land && e.AP2
			}
		} else {
			e.AP1, e.AP2 = false, false
		}

	case c.Pushed.AP2:
		if !e.AP2 {
			if eligible {
				e.AP2 = true
				e.AP1 = land && e.AP1
			}
		} else {
			e.AP1, e.AP2 = false, false
		}

	default:
		if c.Pushed.APDisconnect || (!rollout && e.WasRollout) || (c.OnGround && ga && !e.WasGoAround) {
			e.AP1, e.AP2 = false, false
		} else if !land && e.WasLand && !ga && e.AP1 && e.AP2 {
			e.AP2 = false
		} else {
			e.AP2 = (ga || !e.WasGoAround || !e.AP1 || !e.AP2) && e.AP2
		}
	}

	e.WasLand = land
	e.WasRollout = rollout
	e.WasGoAround = ga

	if ap1 != e.AP1 || ap2 != e.AP2 {
		FGLog(s, s.t.Now, FGLogEngage, "AP1 %v->%v AP2 %v->%v", ap1, e.AP1, ap2, e.AP2)
	}
}
