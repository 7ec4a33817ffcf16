// autopilot/session.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/mmp/autoflight/log"
	"github.com/mmp/autoflight/math"
	"github.com/mmp/autoflight/util"

	"github.com/brunoga/deep"
)

// Time is the simulation clock for one tick, in seconds.
type Time struct {
	Now float64
	DT  float64
}

// Transition describes a change of active mode in one of the state
// machines.
type Transition struct {
	Time    float64 `json:"time"`
	Machine string  `json:"machine"` // "lateral" or "vertical"
	Name    string  `json:"name"`
	From    string  `json:"from"`
	To      string  `json:"to"`
}

func (t Transition) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("time", t.Time),
		slog.String("machine", t.Machine),
		slog.String("name", t.Name),
		slog.String("from", t.From),
		slog.String("to", t.To))
}

type TransitionFunc func(Transition)

// State is everything a session carries from one tick to the next.
type State struct {
	Initialized bool

	Engagement EngagementState

	Lateral      LateralState
	LateralPrev  LateralState
	Vertical     VerticalState
	VerticalPrev VerticalState

	Computed Computed
	Edges    EdgeCache
	Timers   TimerContext
	Filters  Filters

	LateralMemory  LateralMemory
	VerticalMemory VerticalMemory
	FMA            FMAState
}

// Session runs the flight guidance for one aircraft. It is not safe for
// concurrent use.
type Session struct {
	Name    string
	Profile AircraftProfile
	State   State

	lg           *log.Logger
	onTransition TransitionFunc
	warned       map[string]bool

	// Valid only during Tick.
	t  Time
	ac *Aircraft
	rq *Request
}

type Option func(*Session)

func WithLogger(lg *log.Logger) Option {
	return func(s *Session) { s.lg = lg }
}

// WithTransitionFunc registers a function that is called for every mode
// change, after the tick's lateral or vertical dispatch.
func WithTransitionFunc(f TransitionFunc) Option {
	return func(s *Session) { s.onTransition = f }
}

func WithName(name string) Option {
	return func(s *Session) { s.Name = name }
}

// New returns a session with both machines OFF, nothing armed and all
// timers unstarted.
func New(profile AircraftProfile, opts ...Option) (*Session, error) {
	var e util.ErrorLogger
	profile.Validate(&e)
	if e.HaveErrors() {
		return nil, fmt.Errorf("%s: %w", strings.Join(e.Errors(), "; "), ErrInvalidProfile)
	}

	s := &Session{
		Name:    profile.Name,
		Profile: profile,
		warned:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Tick advances the session by one step and returns everything it
// publishes. The aircraft snapshot and pilot request are only read.
func (s *Session) Tick(t Time, ac *Aircraft, rq *Request) (Output, error) {
	if !(t.DT > 0) {
		return Output{}, ErrNonPositiveDT
	}

	s.t, s.ac, s.rq = t, ac, rq
	defer func() { s.ac, s.rq = nil, nil }()
	s.warnNonFinite("aircraft", ac)
	s.warnNonFinite("request", rq)

	st := &s.State

	s.computeData()
	s.updateEngagement()
	s.evaluateLateral()
	s.evaluateVertical()
	s.runLateral()
	s.runVertical()

	o := Output{
		Time:     t.Now,
		AP1:      st.Engagement.AP1,
		AP2:      st.Engagement.AP2,
		Lateral:  st.Lateral,
		Vertical: st.Vertical,
		Computed: st.Computed,
	}
	s.armedMasks(&o)
	s.updateFMA(&o, &st.VerticalPrev.Output)

	s.endTick()
	st.LateralPrev, st.VerticalPrev = st.Lateral, st.Vertical
	st.Initialized = true

	FGLog(s, t.Now, FGLogState, "lat %s/%s vert %s/%s athr %s armed %s|%s ap %v/%v",
		o.Lateral.Output.Mode, o.Lateral.Output.Law, o.Vertical.Output.Mode, o.Vertical.Output.Law,
		o.Vertical.Output.Autothrust, o.LateralArmed, o.VerticalArmed, o.AP1, o.AP2)

	return o, nil
}

func (s *Session) reportTransition(machine, name, from, to string) {
	tr := Transition{Time: s.t.Now, Machine: machine, Name: name, From: from, To: to}
	FGLog(s, s.t.Now, machine, "%s: %s -> %s", name, from, to)
	s.lg.Debug("mode transition", slog.String("session", s.Name), slog.Any("transition", tr))
	if s.onTransition != nil {
		s.onTransition(tr)
	}
}

// warnNonFinite reports each NaN or infinite float field of v the first
// time it is seen. The values are used as is.
func (s *Session) warnNonFinite(prefix string, v any) {
	rv := reflect.Indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return
	}
	rt := rv.Type()
	for i := range rt.NumField() {
		f := rv.Field(i)
		if f.Kind() != reflect.Float64 || math.IsFinite(f.Float()) {
			continue
		}
		name := prefix + "." + rt.Field(i).Name
		if !s.warned[name] {
			s.warned[name] = true
			s.lg.Warn("non-finite input", slog.String("session", s.Name), slog.String("field", name),
				slog.String("value", fmt.Sprint(f.Float())))
		}
	}
}

// TakeSnapshot returns a deep copy of the session state.
func (s *Session) TakeSnapshot() State {
	return deep.MustCopy(s.State)
}

// RestoreSnapshot replaces the session state with a copy of st.
func (s *Session) RestoreSnapshot(st State) {
	s.State = deep.MustCopy(st)
}
