// cmd/fmaview/fma.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"
	"strings"

	"github.com/mmp/autoflight/autopilot"
	"github.com/mmp/autoflight/recorder"
)

// FMA holds the text of the flight mode annunciator for one frame.
type FMA struct {
	Autothrust    string
	Vertical      string
	VerticalArmed string
	Lateral       string
	LateralArmed  string
	APFD          string
	// Flags are the reversion and TCAS messages that are set.
	Flags []string
}

var verticalAnnunciation = map[autopilot.VerticalMode]string{
	autopilot.VerticalALTCPT:    "ALT*",
	autopilot.VerticalOPCLB:     "OP CLB",
	autopilot.VerticalOPDES:     "OP DES",
	autopilot.VerticalALTCST:    "ALT CST",
	autopilot.VerticalALTCSTCPT: "ALT CST*",
	autopilot.VerticalFINALDES:  "FINAL DES",
	autopilot.VerticalGSCPT:     "G/S*",
	autopilot.VerticalGSTRACK:   "G/S",
	autopilot.VerticalROLLOUT:   "ROLL OUT",
	autopilot.VerticalSRSGA:     "SRS GA",
}

var lateralAnnunciation = map[autopilot.LateralMode]string{
	autopilot.LateralLOCCPT:   "LOC*",
	autopilot.LateralLOCTRACK: "LOC",
	autopilot.LateralROLLOUT:  "ROLL OUT",
	autopilot.LateralRWYTRACK: "RWY TRK",
	autopilot.LateralGATRACK:  "GA TRK",
}

var autothrustAnnunciation = map[autopilot.AutothrustMode]string{
	autopilot.AutothrustThrustIdle:  "THR IDLE",
	autopilot.AutothrustThrustClimb: "THR CLB",
}

func annunciate[T interface {
	~int
	fmt.Stringer
}](names map[T]string, m T) string {
	if m == 0 {
		return ""
	}
	if n, ok := names[m]; ok {
		return n
	}
	return m.String()
}

func MakeFMA(f *recorder.Frame) FMA {
	o := &f.Output
	v := &o.Vertical.Output

	fma := FMA{
		Autothrust:    annunciate(autothrustAnnunciation, v.Autothrust),
		Vertical:      annunciate(verticalAnnunciation, v.Mode),
		VerticalArmed: o.VerticalArmed.String(),
		Lateral:       annunciate(lateralAnnunciation, o.Lateral.Output.Mode),
		LateralArmed:  o.LateralArmed.String(),
	}

	switch v.Mode {
	case autopilot.VerticalVS:
		fma.Vertical = fmt.Sprintf("V/S %+.0f", v.HDotCommand)
	case autopilot.VerticalFPA:
		fma.Vertical = fmt.Sprintf("FPA %+.1f°", v.FPACommand)
	case autopilot.VerticalTCAS:
		if v.TCASSubMode != autopilot.TCASSubModeNone {
			fma.Vertical = "TCAS " + strings.ReplaceAll(v.TCASSubMode.String(), "_CPT", "*")
		}
	case autopilot.VerticalALT:
		if v.ALTCruiseActive {
			fma.Vertical = "ALT CRZ"
		}
	}
	if v.EXPEDActive {
		fma.Vertical = "EXP " + fma.Vertical
	}

	var ap []string
	switch {
	case o.AP1 && o.AP2:
		ap = append(ap, "AP1+2")
	case o.AP1:
		ap = append(ap, "AP1")
	case o.AP2:
		ap = append(ap, "AP2")
	}
	if f.Request.FDActive {
		ap = append(ap, "1FD2")
	}
	fma.APFD = strings.Join(ap, " ")

	for _, fl := range []struct {
		name string
		set  bool
	}{
		{"LAT REV", o.LateralReversion},
		{"VERT REV", o.VerticalReversion},
		{"TRK/FPA REV", o.ReversionTrkFpa},
		{"TRIPLE CLICK", o.TripleClick},
		{"FMA REV", o.FMAReversion},
		{"SPD PROT", v.SpeedProtection},
		{"TCAS DISARM", o.TCASDisarm},
		{"RA INHIBIT", o.TCASRAInhibit},
		{"TRK/FPA DESEL", o.TCASTrkFpaDeselection},
	} {
		if fl.set {
			fma.Flags = append(fma.Flags, fl.name)
		}
	}
	return fma
}

func modesChanged(a, b *autopilot.Output) bool {
	return a.Lateral.Output.Mode != b.Lateral.Output.Mode || a.Vertical.Output.Mode != b.Vertical.Output.Mode ||
		a.Vertical.Output.Autothrust != b.Vertical.Output.Autothrust || a.AP1 != b.AP1 || a.AP2 != b.AP2 ||
		a.LateralArmed != b.LateralArmed || a.VerticalArmed != b.VerticalArmed
}

// nextChange returns the index of the next frame after i, in the
// direction of step, whose modes differ from those of the frame before
// it. If there is none, i is returned.
func nextChange(frames []recorder.Frame, i, step int) int {
	for j := i + step; j > 0 && j < len(frames); j += step {
		if modesChanged(&frames[j-1].Output, &frames[j].Output) {
			return j
		}
	}
	return i
}
