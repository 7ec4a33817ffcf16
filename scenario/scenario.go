// scenario/scenario.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package scenario reads scripted flights: an initial aircraft snapshot
// and pilot request followed by timed steps that change inputs, press
// pushbuttons and state the modes expected at that time.
//
//	name: go-around
//	profile: A380
//	dt: 0.1
//	duration: 60
//	aircraft: {h_ind: 1000, h_radio: 1000}
//	request: {fd_active: true, h_fcu: 5000}
//	steps:
//	  - at: 12.5
//	    set: {h_radio: 500, throttle_lever: [45, 45, 45, 45]}
//	    press: [hdg_pull]
//	    hold: 2
//	    expect: {lateral: GA_TRACK, vertical: SRS_GA}
//
// Keys in set and press are the snake_case input names of
// autopilot.Aircraft and autopilot.Request.
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	gomath "math"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/mmp/autoflight/autopilot"
	"github.com/mmp/autoflight/util"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidScenario   = errors.New("Invalid scenario")
	ErrUnknownInput      = errors.New("Unknown input")
	ErrExpectationFailed = errors.New("Expectation not met")
)

type Scenario struct {
	Name     string             `yaml:"name"`
	Profile  string             `yaml:"profile"`
	DT       float64            `yaml:"dt"`
	Duration float64            `yaml:"duration"`
	Aircraft autopilot.Aircraft `yaml:"aircraft"`
	Request  autopilot.Request  `yaml:"request"`
	Steps    []Step             `yaml:"steps"`
}

type Step struct {
	At float64 `yaml:"at"`
	// Set is a mapping from input names to values.
	Set   yaml.Node `yaml:"set"`
	Press []string  `yaml:"press"`
	// Hold is how long pressed buttons stay down; by default they are
	// released on the next tick.
	Hold   float64 `yaml:"hold"`
	Expect *Expect `yaml:"expect"`
}

// Expect lists the outputs that a step checks; unset fields are not
// checked.
type Expect struct {
	Lateral       *autopilot.LateralMode    `yaml:"lateral"`
	Vertical      *autopilot.VerticalMode   `yaml:"vertical"`
	Autothrust    *autopilot.AutothrustMode `yaml:"autothrust"`
	AP1           *bool                     `yaml:"ap1"`
	AP2           *bool                     `yaml:"ap2"`
	LateralArmed  *string                   `yaml:"lateral_armed"`
	VerticalArmed *string                   `yaml:"vertical_armed"`
	FMAReversion  *bool                     `yaml:"fma_reversion"`
}

// Frame holds the inputs of a single tick.
type Frame struct {
	Time     float64
	Aircraft autopilot.Aircraft
	Request  autopilot.Request
	// Expect is non-nil on the frames where a step states the expected
	// outputs.
	Expect *Expect
}

///////////////////////////////////////////////////////////////////////////
// Inputs by name

type inputField struct {
	request bool
	index   int
}

var inputs = func() map[string]inputField {
	m := make(map[string]inputField)
	add := func(t reflect.Type, request bool) {
		for i := range t.NumField() {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
			if _, ok := m[name]; name != "" && name != "-" && !ok {
				m[name] = inputField{request: request, index: i}
			}
		}
	}
	add(reflect.TypeFor[autopilot.Aircraft](), false)
	add(reflect.TypeFor[autopilot.Request](), true)
	return m
}()

func (f inputField) value(ac *autopilot.Aircraft, rq *autopilot.Request) reflect.Value {
	if f.request {
		return reflect.ValueOf(rq).Elem().Field(f.index)
	}
	return reflect.ValueOf(ac).Elem().Field(f.index)
}

// button returns the named boolean request input.
func button(name string) (inputField, bool) {
	f, ok := inputs[name]
	if !ok || !f.request || reflect.TypeFor[autopilot.Request]().Field(f.index).Type.Kind() != reflect.Bool {
		return inputField{}, false
	}
	return f, true
}

// applySet decodes each value of the step's set mapping into the input
// of the same name.
func (s *Step) applySet(ac *autopilot.Aircraft, rq *autopilot.Request) error {
	n := &s.Set
	if n.Kind == 0 {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: \"set\" must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		f, ok := inputs[k.Value]
		if !ok {
			return fmt.Errorf("line %d: %q: %w", k.Line, k.Value, ErrUnknownInput)
		}
		if err := v.Decode(f.value(ac, rq).Addr().Interface()); err != nil {
			return fmt.Errorf("line %d: %q: %w", k.Line, k.Value, err)
		}
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////
// Loading

// Parse decodes and validates a scenario; source is used in error
// messages.
func Parse(b []byte, source string) (*Scenario, error) {
	var sc Scenario
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&sc); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", source, ErrInvalidScenario, err)
	}

	var e util.ErrorLogger
	e.Push(source)
	sc.validate(&e)
	e.Pop()
	if err := e.Err(ErrInvalidScenario); err != nil {
		return nil, err
	}
	return &sc, nil
}

func LoadFile(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b, path)
}

func (sc *Scenario) validate(e *util.ErrorLogger) {
	defer e.CheckDepth(e.CurrentDepth())

	if !(sc.DT > 0) {
		e.ErrorString("\"dt\" must be positive")
	}
	if !(sc.Duration > 0) {
		e.ErrorString("\"duration\" must be positive")
	}

	// Apply the steps to scratch inputs so that unknown names and bad
	// values are reported now rather than in the middle of a run.
	ac, rq := sc.Aircraft, sc.Request
	for i := range sc.Steps {
		st := &sc.Steps[i]
		e.Push(fmt.Sprintf("step %d (at %v)", i+1, st.At))

		if st.At < 0 || st.At > sc.Duration {
			e.ErrorString("\"at\" must be between 0 and the duration %v", sc.Duration)
		}
		if i > 0 && st.At < sc.Steps[i-1].At {
			e.ErrorString("steps must be in time order")
		}
		if st.Hold < 0 {
			e.ErrorString("\"hold\" cannot be negative")
		}
		if err := st.applySet(&ac, &rq); err != nil {
			e.Error(err)
		}
		for _, p := range st.Press {
			if _, ok := button(p); !ok {
				e.ErrorString("%q: cannot press: %v", p, ErrUnknownInput)
			}
		}
		e.Pop()
	}
}

///////////////////////////////////////////////////////////////////////////
// Expansion

type release struct {
	at    float64
	field inputField
}

// Frames expands the scenario into one frame per tick. Steps are applied
// on the first tick at or after their time.
func (sc *Scenario) Frames() ([]Frame, error) {
	ac, rq := sc.Aircraft, sc.Request
	n := int(gomath.Round(sc.Duration/sc.DT)) + 1
	frames := make([]Frame, 0, n)
	eps := sc.DT / 2

	var held []release
	next := 0
	for i := range n {
		now := float64(i) * sc.DT

		held = slices.DeleteFunc(held, func(r release) bool {
			if now+eps >= r.at {
				r.field.value(&ac, &rq).SetBool(false)
				return true
			}
			return false
		})

		var expect *Expect
		for next < len(sc.Steps) && sc.Steps[next].At <= now+eps {
			st := &sc.Steps[next]
			if err := st.applySet(&ac, &rq); err != nil {
				return nil, err
			}
			hold := max(st.Hold, sc.DT)
			for _, p := range st.Press {
				f, ok := button(p)
				if !ok {
					return nil, fmt.Errorf("%q: %w", p, ErrUnknownInput)
				}
				f.value(&ac, &rq).SetBool(true)
				held = append(held, release{at: now + hold, field: f})
			}
			if st.Expect != nil {
				expect = st.Expect
			}
			next++
		}

		frames = append(frames, Frame{Time: now, Aircraft: ac, Request: rq, Expect: expect})
	}
	return frames, nil
}

///////////////////////////////////////////////////////////////////////////
// Expectations

// Check compares the expectation with the output of a tick.
func (x *Expect) Check(o autopilot.Output) error {
	var diffs []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			diffs = append(diffs, fmt.Sprintf(format, args...))
		}
	}
	if x.Lateral != nil {
		check(o.Lateral.Output.Mode == *x.Lateral, "lateral %s, expected %s", o.Lateral.Output.Mode, *x.Lateral)
	}
	if x.Vertical != nil {
		check(o.Vertical.Output.Mode == *x.Vertical, "vertical %s, expected %s", o.Vertical.Output.Mode, *x.Vertical)
	}
	if x.Autothrust != nil {
		check(o.Vertical.Output.Autothrust == *x.Autothrust, "autothrust %s, expected %s",
			o.Vertical.Output.Autothrust, *x.Autothrust)
	}
	if x.AP1 != nil {
		check(o.AP1 == *x.AP1, "AP1 %v, expected %v", o.AP1, *x.AP1)
	}
	if x.AP2 != nil {
		check(o.AP2 == *x.AP2, "AP2 %v, expected %v", o.AP2, *x.AP2)
	}
	if x.LateralArmed != nil {
		check(o.LateralArmed.String() == *x.LateralArmed, "lateral armed %q, expected %q",
			o.LateralArmed.String(), *x.LateralArmed)
	}
	if x.VerticalArmed != nil {
		check(o.VerticalArmed.String() == *x.VerticalArmed, "vertical armed %q, expected %q",
			o.VerticalArmed.String(), *x.VerticalArmed)
	}
	if x.FMAReversion != nil {
		check(o.FMAReversion == *x.FMAReversion, "FMA reversion %v, expected %v", o.FMAReversion, *x.FMAReversion)
	}

	if len(diffs) > 0 {
		return fmt.Errorf("t=%.2f: %s: %w", o.Time, strings.Join(diffs, "; "), ErrExpectationFailed)
	}
	return nil
}
