// autopilot/timers.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	gomath "math"

	"github.com/mmp/autoflight/math"
)

// Stopwatch measures how long a predicate has continuously held.
type Stopwatch struct {
	Start   float64
	Started bool
}

// Elapsed returns the time since hold last became true. The stopwatch is
// restarted whenever hold is false, on its first use, and when the clock
// has gone backwards (the simulation was paused and rewound).
func (s *Stopwatch) Elapsed(now float64, hold bool) float64 {
	if !s.Started || !hold || s.Start > now {
		s.Start = now
		s.Started = true
	}
	return now - s.Start
}

// Latch is a sticky flag, used for the armed modes. keep is applied after
// set, so a keep condition that fails in the same tick vetoes the set;
// this is what lets a second press of a pushbutton disarm.
type Latch struct {
	On bool
}

func (l *Latch) Update(set, keep bool) bool {
	l.On = (set || l.On) && keep
	return l.On
}

type EdgeDetector struct {
	Prev bool
}

// Rising reports whether v went from false to true since the last call.
func (e *EdgeDetector) Rising(v bool) bool {
	r := v && !e.Prev
	e.Prev = v
	return r
}

// RateLimitedDebounce follows its input immediately when it rises and
// ramps back to zero at 1/fall per second, stretching pulses by fall
// seconds.
type RateLimitedDebounce struct {
	Y float64
}

func (d *RateLimitedDebounce) Update(u bool, dt, fall float64) bool {
	var target float64
	if u {
		target = 1
	}
	d.Y += math.Max(target-d.Y, -dt/fall)
	return d.Y != 0
}

// delayLineLength is the number of samples kept by a DelayLine.
const delayLineLength = 100

// DelayLine keeps the last delayLineLength samples of a signal; windows
// longer than the buffer are silently shortened.
type DelayLine struct {
	Buf    [delayLineLength]float64
	Seeded bool
}

// Ago returns the value window seconds ago. current is returned when the
// window is shorter than a single step.
func (d *DelayLine) Ago(window, dt, current float64) float64 {
	if !d.Seeded {
		for i := range d.Buf {
			d.Buf[i] = current
		}
		d.Seeded = true
	}
	n := window / dt
	if n < 1 || gomath.IsNaN(n) {
		return current
	}
	idx := delayLineLength
	if n < delayLineLength {
		idx = int(n)
	}
	return d.Buf[delayLineLength-idx]
}

func (d *DelayLine) Push(v float64) {
	copy(d.Buf[:delayLineLength-1], d.Buf[1:])
	d.Buf[delayLineLength-1] = v
}

// LagFilter is a first-order lag 1/(s/c1 + 1) discretised with the
// Tustin transform.
type LagFilter struct {
	Y, U float64
	Init bool
}

func (f *LagFilter) Update(u, dt, c1 float64) float64 {
	if !f.Init {
		f.Y, f.U = u, u
		f.Init = true
	}
	ca := dt * c1
	f.Y = (2-ca)/(ca+2)*f.Y + (u+f.U)*ca/(ca+2)
	f.U = u
	return f.Y
}
