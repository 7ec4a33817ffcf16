// cmd/fmaview/fma_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"reflect"
	"testing"

	"github.com/mmp/autoflight/autopilot"
	"github.com/mmp/autoflight/recorder"
)

func TestMakeFMA(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(f *recorder.Frame)
		expect FMA
	}{
		{
			name:   "nothing engaged",
			setup:  func(f *recorder.Frame) {},
			expect: FMA{},
		},
		{
			name: "climb with ALT armed",
			setup: func(f *recorder.Frame) {
				f.Request.FDActive = true
				f.Output.AP1 = true
				f.Output.Vertical.Output.Mode = autopilot.VerticalOPCLB
				f.Output.Vertical.Output.Autothrust = autopilot.AutothrustThrustClimb
				f.Output.VerticalArmed = autopilot.VerticalArmedALT
				f.Output.Lateral.Output.Mode = autopilot.LateralNAV
			},
			expect: FMA{Autothrust: "THR CLB", Vertical: "OP CLB", VerticalArmed: "ALT", Lateral: "NAV", APFD: "AP1 1FD2"},
		},
		{
			name: "approach",
			setup: func(f *recorder.Frame) {
				f.Output.AP1, f.Output.AP2 = true, true
				f.Output.Vertical.Output.Mode = autopilot.VerticalGSCPT
				f.Output.Vertical.Output.Autothrust = autopilot.AutothrustSpeed
				f.Output.Lateral.Output.Mode = autopilot.LateralLOCTRACK
			},
			expect: FMA{Autothrust: "SPEED", Vertical: "G/S*", Lateral: "LOC", APFD: "AP1+2"},
		},
		{
			name: "vertical speed with reversion",
			setup: func(f *recorder.Frame) {
				f.Output.Vertical.Output.Mode = autopilot.VerticalVS
				f.Output.Vertical.Output.HDotCommand = -1500
				f.Output.Lateral.Output.Mode = autopilot.LateralHDG
				f.Output.VerticalReversion = true
				f.Output.TripleClick = true
			},
			expect: FMA{Vertical: "V/S -1500", Lateral: "HDG", Flags: []string{"VERT REV", "TRIPLE CLICK"}},
		},
		{
			name: "expedite",
			setup: func(f *recorder.Frame) {
				f.Output.Vertical.Output.Mode = autopilot.VerticalOPDES
				f.Output.Vertical.Output.EXPEDActive = true
			},
			expect: FMA{Vertical: "EXP OP DES"},
		},
		{
			name: "TCAS capture",
			setup: func(f *recorder.Frame) {
				f.Output.Vertical.Output.Mode = autopilot.VerticalTCAS
				f.Output.Vertical.Output.TCASSubMode = autopilot.TCASSubModeALTCPT
			},
			expect: FMA{Vertical: "TCAS ALT*"},
		},
		{
			name: "cruise",
			setup: func(f *recorder.Frame) {
				f.Output.Vertical.Output.Mode = autopilot.VerticalALT
				f.Output.Vertical.Output.ALTCruiseActive = true
				f.Output.LateralArmed = autopilot.LateralArmedNAV | autopilot.LateralArmedLOC
			},
			expect: FMA{Vertical: "ALT CRZ", LateralArmed: "NAV LOC"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f recorder.Frame
			tt.setup(&f)
			if got := MakeFMA(&f); !reflect.DeepEqual(got, tt.expect) {
				t.Errorf("got %+v, expected %+v", got, tt.expect)
			}
		})
	}
}

func TestNextChange(t *testing.T) {
	modes := []autopilot.LateralMode{
		autopilot.LateralNone, autopilot.LateralNone, autopilot.LateralHDG, autopilot.LateralHDG,
		autopilot.LateralHDG, autopilot.LateralNAV, autopilot.LateralNAV,
	}
	frames := make([]recorder.Frame, len(modes))
	for i, m := range modes {
		frames[i].Output.Lateral.Output.Mode = m
	}

	tests := []struct {
		from, step, expect int
	}{
		{0, 1, 2},
		{2, 1, 5},
		{5, 1, 5},
		{6, -1, 5},
		{5, -1, 2},
		{2, -1, 2},
	}
	for _, tt := range tests {
		if got := nextChange(frames, tt.from, tt.step); got != tt.expect {
			t.Errorf("nextChange(%d, %d) = %d, expected %d", tt.from, tt.step, got, tt.expect)
		}
	}
}

func TestSeek(t *testing.T) {
	v := &viewer{frames: make([]recorder.Frame, 5)}
	for _, tt := range []struct{ to, expect int }{{3, 3}, {-2, 0}, {10, 4}} {
		v.seek(tt.to)
		if v.cur != tt.expect {
			t.Errorf("seek(%d) gave %d, expected %d", tt.to, v.cur, tt.expect)
		}
	}
}

func TestCenter(t *testing.T) {
	if got := center("ALT", 7); got != "  ALT" {
		t.Errorf("center = %q", got)
	}
	if got := center("FPA +2.0°", 5); got != "FPA +" {
		t.Errorf("center truncation = %q", got)
	}
}
