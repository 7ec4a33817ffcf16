// autopilot/armed.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"strings"
)

// LateralArmed is the published set of armed lateral modes.
type LateralArmed uint8

const (
	LateralArmedNAV LateralArmed = 1 << iota
	LateralArmedLOC
)

func (a LateralArmed) Has(b LateralArmed) bool { return a&b != 0 }

// Legacy returns the mask packed into a double, the representation used
// by the simulator's variable bus.
func (a LateralArmed) Legacy() float64 { return float64(a) }

func (a LateralArmed) String() string {
	return armedString([]string{"NAV", "LOC"}, uint8(a))
}

// VerticalArmed is the published set of armed vertical modes.
type VerticalArmed uint8

const (
	VerticalArmedALT VerticalArmed = 1 << iota
	VerticalArmedALTCST
	VerticalArmedCLB
	VerticalArmedDES
	VerticalArmedGS
	VerticalArmedFINALDES
	VerticalArmedTCAS
)

func (a VerticalArmed) Has(b VerticalArmed) bool { return a&b != 0 }

func (a VerticalArmed) Legacy() float64 { return float64(a) }

func (a VerticalArmed) String() string {
	return armedString([]string{"ALT", "ALT_CST", "CLB", "DES", "GS", "FINAL_DES", "TCAS"}, uint8(a))
}

func armedString(names []string, bits uint8) string {
	var s []string
	for i, n := range names {
		if bits&(1<<i) != 0 {
			s = append(s, n)
		}
	}
	return strings.Join(s, " ")
}

// LateralArming holds the lateral armed flags as evaluated this tick.
type LateralArming struct {
	NAV bool `json:"nav"`
	LOC bool `json:"loc"`
}

func (a LateralArming) Mask() LateralArmed {
	var m LateralArmed
	if a.NAV {
		m |= LateralArmedNAV
	}
	if a.LOC {
		m |= LateralArmedLOC
	}
	return m
}

// VerticalArming holds the vertical armed flags as evaluated this tick.
type VerticalArming struct {
	ALT      bool `json:"alt"`
	ALTCst   bool `json:"alt_cst"`
	CLB      bool `json:"clb"`
	DES      bool `json:"des"`
	FinalDES bool `json:"final_des"`
	GS       bool `json:"gs"`
	TCAS     bool `json:"tcas"`
}

func (a VerticalArming) Mask() VerticalArmed {
	var m VerticalArmed
	set := func(b bool, bit VerticalArmed) {
		if b {
			m |= bit
		}
	}
	set(a.ALT, VerticalArmedALT)
	set(a.ALTCst, VerticalArmedALTCST)
	set(a.CLB, VerticalArmedCLB)
	set(a.DES, VerticalArmedDES)
	set(a.GS, VerticalArmedGS)
	set(a.FinalDES, VerticalArmedFINALDES)
	set(a.TCAS, VerticalArmedTCAS)
	return m
}
