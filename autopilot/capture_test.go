// autopilot/capture_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	gomath "math"
	"testing"
)

func TestCaptureDistance(t *testing.T) {
	if d := CaptureDistance(0); d != minCaptureDistance {
		t.Errorf("CaptureDistance(0) = %v, expected %v", d, minCaptureDistance)
	}

	// At 1000 fpm the schedule is exactly 0.05 g.
	a := 1000 * 0.00508
	expected := a * a / (0.05 * 9.81) * 3.2808398950131235
	if d := CaptureDistance(1000); gomath.Abs(d-expected) > 1e-9 {
		t.Errorf("CaptureDistance(1000) = %v, expected %v", d, expected)
	}
	if up, down := CaptureDistance(2500), CaptureDistance(-2500); up != down {
		t.Errorf("CaptureDistance not symmetric: %v climbing, %v descending", up, down)
	}

	prev := 0.0
	for hdot := 0.0; hdot <= 6000; hdot += 250 {
		d := CaptureDistance(hdot)
		if d < minCaptureDistance || d > maxCaptureDistance {
			t.Errorf("CaptureDistance(%v) = %v outside [%v, %v]", hdot, d, minCaptureDistance, maxCaptureDistance)
		}
		if d < prev {
			t.Errorf("CaptureDistance(%v) = %v decreased from %v", hdot, d, prev)
		}
		prev = d
	}
}

func TestInCaptureWindow(t *testing.T) {
	tests := []struct {
		name     string
		d, hdot  float64
		expected bool
	}{
		{"closing climb", 100, 1000, true},
		{"closing descent", -100, -1000, true},
		{"diverging", -100, 1000, false},
		{"too slow", 50, 50, false},
		{"too far", 2000, 1000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := inCaptureWindow(tt.d, tt.hdot); got != tt.expected {
				t.Errorf("inCaptureWindow(%v, %v) = %v, expected %v", tt.d, tt.hdot, got, tt.expected)
			}
		})
	}
}

func TestHConstraintValid(t *testing.T) {
	tests := []struct {
		name             string
		hcst, hfcu, hind float64
		expected         bool
	}{
		{"between climbing", 8000, 10000, 5000, true},
		{"between descending", 8000, 5000, 10000, true},
		{"beyond fcu", 12000, 10000, 5000, false},
		{"behind", 4000, 10000, 5000, false},
		{"none", 0, 10000, 5000, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := hConstraintValid(tt.hcst, tt.hfcu, tt.hind); got != tt.expected {
				t.Errorf("hConstraintValid(%v, %v, %v) = %v, expected %v", tt.hcst, tt.hfcu, tt.hind, got, tt.expected)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	var ran []string
	row := func(name string, ok bool) transition {
		return transition{name, func() bool { return ok }, func() { ran = append(ran, name) }}
	}

	if name := decide(row("a", false), row("b", true), row("c", true)); name != "b" {
		t.Errorf("decide = %q, expected \"b\"", name)
	}
	if len(ran) != 1 || ran[0] != "b" {
		t.Errorf("actions run: %v, expected [b]", ran)
	}
	if name := decide(row("a", false)); name != "" {
		t.Errorf("decide with no match = %q, expected \"\"", name)
	}
}
