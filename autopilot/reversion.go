// autopilot/reversion.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

// FMAState is the bookkeeping behind the published annunciations.
//
// A mode reversion that the pilot did not ask for (managed climb falling
// back to open climb, or a capture falling back to VS) arms a warning.
// If the pilot has not acknowledged it after 5 seconds, by selecting a
// new target or pressing the knob, the FMA reversion message is shown
// (with the triple click) for 10 seconds.
type FMAState struct {
	WarnNAV bool
	WarnVS  bool
	FMA     bool

	// Start of the acknowledgement window and of the message.
	WarnTime    float64
	MessageTime float64
	TimesSet    bool

	LastVSTarget    float64
	LastVSTargetSet bool

	LateralReversion  RateLimitedDebounce
	VerticalReversion RateLimitedDebounce
	TrkFpaReversion   RateLimitedDebounce
	TripleClick       RateLimitedDebounce
	TCASDisarm        RateLimitedDebounce
	TCASRAInhibit     RateLimitedDebounce
	TCASTrkFpaDesel   RateLimitedDebounce

	PrevRAInhibit   bool
	PrevTrkFpaDesel bool
}

// updateFMA post-processes the machine outputs into the annunciation
// flags of o. It compares against the vertical state at the start of the
// tick, before runVertical touched it.
func (s *Session) updateFMA(o *Output, vprev *VerticalOutput) {
	st := &s.State
	f := &st.FMA
	rq, now, dt := s.rq, s.t.Now, s.t.DT
	c := &st.Computed
	p := &c.Pushed
	out := &st.Vertical.Output
	lat := &st.Lateral.Output

	wasFMA := f.FMA
	if !f.TimesSet {
		f.WarnTime, f.MessageTime, f.TimesSet = now, now, true
	}
	warn := func(nav bool) {
		f.WarnNAV, f.WarnVS = nav, !nav
		f.WarnTime, f.MessageTime = now, now
		f.FMA = false
	}

	// Managed mode lost without the pilot touching the altitude or VS knob.
	if out.ModeReversion && !p.ALTPull && !p.VSPull &&
		((vprev.Mode == VerticalCLB && out.Mode == VerticalOPCLB) ||
			(vprev.Mode == VerticalDES && out.Mode == VerticalVS)) {
		warn(true)
	} else if f.WarnNAV && (p.VSPush || p.VSPull || c.HFcuInSelection) {
		f.WarnNAV, f.FMA = false, false
	}

	target := rq.HDotFcu
	if rq.TrkFpaMode {
		target = rq.FPAFcu
	}
	if !f.LastVSTargetSet {
		f.LastVSTarget, f.LastVSTargetSet = target, true
	}
	if out.ModeReversion && out.Mode == VerticalVS && !p.VSPush && !p.VSPull &&
		vprev.Mode.In(VerticalOPCLB, VerticalOPDES, VerticalALTCPT) {
		warn(false)
	} else if f.WarnVS && (p.ALTPull || p.VSPush || (f.LastVSTarget != 0 && target != f.LastVSTarget)) {
		f.WarnVS, f.FMA = false, false
	}
	f.LastVSTarget = target

	var click bool
	ap := st.Engagement.Engaged()
	switch {
	case !ap && out.FDDisconnect && vprev.Mode.In(VerticalOPCLB, VerticalOPDES),
		out.SpeedProtection && !vprev.SpeedProtection,
		out.Mode == VerticalVS && vprev.Mode == VerticalTCAS:
		click, f.FMA = true, false

	default:
		if !out.ModeReversion && vprev.Mode != out.Mode {
			f.WarnNAV, f.WarnVS, f.FMA = false, false, false
		}
		if !f.WarnNAV && !f.WarnVS {
			f.WarnTime = now
		}
		if !f.FMA {
			f.MessageTime = now
		}
		if now-f.WarnTime >= 5 {
			click, f.FMA = true, true
			f.WarnNAV, f.WarnVS = false, false
		}
		f.FMA = now-f.MessageTime < 10 && f.FMA
	}

	if click || f.FMA != wasFMA {
		FGLog(s, now, FGLogFMA, "click %v fma %v warn nav %v vs %v", click, f.FMA, f.WarnNAV, f.WarnVS)
	}

	fall := s.Profile.DebounceFall
	o.LateralReversion = f.LateralReversion.Update(lat.ModeReversion, dt, fall)
	o.VerticalReversion = f.VerticalReversion.Update(out.ModeReversion, dt, fall)
	o.ReversionTrkFpa = f.TrkFpaReversion.Update(lat.ModeReversionTrkFpa || out.ModeReversionTrkFpa, dt, fall)
	o.TripleClick = f.TripleClick.Update(click, dt, fall)
	o.FMAReversion = f.FMA
	o.TCASDisarm = f.TCASDisarm.Update(out.TCASMessageDisarm, dt, fall)
	o.TCASRAInhibit = f.TCASRAInhibit.Update(out.TCASMessageRAInhibit && !f.PrevRAInhibit, dt, fall)
	o.TCASTrkFpaDeselection = f.TCASTrkFpaDesel.Update(
		out.TCASMessageTrkFpaDeselection && !f.PrevTrkFpaDesel, dt, fall)
	f.PrevRAInhibit = out.TCASMessageRAInhibit
	f.PrevTrkFpaDesel = out.TCASMessageTrkFpaDeselection
}

// armedMasks publishes the armed modes. With neither flight director
// nor autopilot only a TCAS arming is shown.
func (s *Session) armedMasks(o *Output) {
	st := &s.State
	if s.fdOrAP() {
		o.LateralArmed = st.Lateral.Armed.Mask()
		o.VerticalArmed = st.Vertical.Armed.Mask()
		return
	}
	o.LateralArmed = 0
	o.VerticalArmed = st.Vertical.Armed.Mask() & VerticalArmedTCAS
}
