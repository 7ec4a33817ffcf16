// autopilot/types.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"fmt"
	"strconv"
)

// LateralMode is the active lateral guidance mode. The numeric values are
// shared with the flight-control laws and the recorded traces, so they
// must not change.
type LateralMode int

const (
	LateralNone     LateralMode = 0
	LateralHDG      LateralMode = 10
	LateralTRACK    LateralMode = 11
	LateralNAV      LateralMode = 20
	LateralLOCCPT   LateralMode = 30
	LateralLOCTRACK LateralMode = 31
	LateralLAND     LateralMode = 32
	LateralFLARE    LateralMode = 33
	LateralROLLOUT  LateralMode = 34
	LateralRWY      LateralMode = 40
	LateralRWYTRACK LateralMode = 41
	LateralGATRACK  LateralMode = 50
)

var lateralModeNames = map[LateralMode]string{
	LateralNone:     "NONE",
	LateralHDG:      "HDG",
	LateralTRACK:    "TRACK",
	LateralNAV:      "NAV",
	LateralLOCCPT:   "LOC_CPT",
	LateralLOCTRACK: "LOC_TRACK",
	LateralLAND:     "LAND",
	LateralFLARE:    "FLARE",
	LateralROLLOUT:  "ROLL_OUT",
	LateralRWY:      "RWY",
	LateralRWYTRACK: "RWY_TRACK",
	LateralGATRACK:  "GA_TRACK",
}

func (m LateralMode) String() string { return enumString(lateralModeNames, m) }
func (m LateralMode) MarshalText() ([]byte, error) {
	return enumMarshal(lateralModeNames, m)
}
func (m *LateralMode) UnmarshalText(b []byte) error {
	return enumUnmarshal(lateralModeNames, m, b)
}

// In reports whether m is one of the given modes.
func (m LateralMode) In(modes ...LateralMode) bool {
	for _, o := range modes {
		if m == o {
			return true
		}
	}
	return false
}

type LateralLaw int

const (
	LateralLawNone LateralLaw = iota
	LateralLawHDG
	LateralLawTRACK
	LateralLawHPATH
	LateralLawLOCCPT
	LateralLawLOCTRACK
	LateralLawROLLOUT
)

var lateralLawNames = map[LateralLaw]string{
	LateralLawNone:     "NONE",
	LateralLawHDG:      "HDG",
	LateralLawTRACK:    "TRACK",
	LateralLawHPATH:    "HPATH",
	LateralLawLOCCPT:   "LOC_CPT",
	LateralLawLOCTRACK: "LOC_TRACK",
	LateralLawROLLOUT:  "ROLL_OUT",
}

func (l LateralLaw) String() string { return enumString(lateralLawNames, l) }
func (l LateralLaw) MarshalText() ([]byte, error) {
	return enumMarshal(lateralLawNames, l)
}
func (l *LateralLaw) UnmarshalText(b []byte) error {
	return enumUnmarshal(lateralLawNames, l, b)
}

// VerticalMode is the active vertical guidance mode.
type VerticalMode int

const (
	VerticalNone      VerticalMode = 0
	VerticalALT       VerticalMode = 10
	VerticalALTCPT    VerticalMode = 11
	VerticalOPCLB     VerticalMode = 12
	VerticalOPDES     VerticalMode = 13
	VerticalVS        VerticalMode = 14
	VerticalFPA       VerticalMode = 15
	VerticalALTCST    VerticalMode = 20
	VerticalALTCSTCPT VerticalMode = 21
	VerticalCLB       VerticalMode = 22
	VerticalDES       VerticalMode = 23
	VerticalFINALDES  VerticalMode = 24
	VerticalGSCPT     VerticalMode = 30
	VerticalGSTRACK   VerticalMode = 31
	VerticalLAND      VerticalMode = 32
	VerticalFLARE     VerticalMode = 33
	VerticalROLLOUT   VerticalMode = 34
	VerticalSRS       VerticalMode = 40
	VerticalSRSGA     VerticalMode = 41
	VerticalTCAS      VerticalMode = 50
)

var verticalModeNames = map[VerticalMode]string{
	VerticalNone:      "NONE",
	VerticalALT:       "ALT",
	VerticalALTCPT:    "ALT_CPT",
	VerticalOPCLB:     "OP_CLB",
	VerticalOPDES:     "OP_DES",
	VerticalVS:        "VS",
	VerticalFPA:       "FPA",
	VerticalALTCST:    "ALT_CST",
	VerticalALTCSTCPT: "ALT_CST_CPT",
	VerticalCLB:       "CLB",
	VerticalDES:       "DES",
	VerticalFINALDES:  "FINAL_DES",
	VerticalGSCPT:     "GS_CPT",
	VerticalGSTRACK:   "GS_TRACK",
	VerticalLAND:      "LAND",
	VerticalFLARE:     "FLARE",
	VerticalROLLOUT:   "ROLL_OUT",
	VerticalSRS:       "SRS",
	VerticalSRSGA:     "SRS_GA",
	VerticalTCAS:      "TCAS",
}

func (m VerticalMode) String() string { return enumString(verticalModeNames, m) }
func (m VerticalMode) MarshalText() ([]byte, error) {
	return enumMarshal(verticalModeNames, m)
}
func (m *VerticalMode) UnmarshalText(b []byte) error {
	return enumUnmarshal(verticalModeNames, m, b)
}

func (m VerticalMode) In(modes ...VerticalMode) bool {
	for _, o := range modes {
		if m == o {
			return true
		}
	}
	return false
}

type VerticalLaw int

const (
	VerticalLawNone VerticalLaw = iota
	VerticalLawALTHOLD
	VerticalLawALTACQ
	VerticalLawSPDMACH
	VerticalLawVS
	VerticalLawFPA
	VerticalLawGS
	VerticalLawFLARE
	VerticalLawSRS
	VerticalLawVPATH
)

var verticalLawNames = map[VerticalLaw]string{
	VerticalLawNone:    "NONE",
	VerticalLawALTHOLD: "ALT_HOLD",
	VerticalLawALTACQ:  "ALT_ACQ",
	VerticalLawSPDMACH: "SPD_MACH",
	VerticalLawVS:      "VS",
	VerticalLawFPA:     "FPA",
	VerticalLawGS:      "GS",
	VerticalLawFLARE:   "FLARE",
	VerticalLawSRS:     "SRS",
	VerticalLawVPATH:   "VPATH",
}

func (l VerticalLaw) String() string { return enumString(verticalLawNames, l) }
func (l VerticalLaw) MarshalText() ([]byte, error) {
	return enumMarshal(verticalLawNames, l)
}
func (l *VerticalLaw) UnmarshalText(b []byte) error {
	return enumUnmarshal(verticalLawNames, l, b)
}

// AutothrustMode is the thrust mode requested from the autothrust.
type AutothrustMode int

const (
	AutothrustNone AutothrustMode = iota
	AutothrustSpeed
	AutothrustThrustIdle
	AutothrustThrustClimb
	AutothrustRetard
)

var autothrustModeNames = map[AutothrustMode]string{
	AutothrustNone:        "NONE",
	AutothrustSpeed:       "SPEED",
	AutothrustThrustIdle:  "THRUST_IDLE",
	AutothrustThrustClimb: "THRUST_CLB",
	AutothrustRetard:      "RETARD",
}

func (a AutothrustMode) String() string { return enumString(autothrustModeNames, a) }
func (a AutothrustMode) MarshalText() ([]byte, error) {
	return enumMarshal(autothrustModeNames, a)
}
func (a *AutothrustMode) UnmarshalText(b []byte) error {
	return enumUnmarshal(autothrustModeNames, a, b)
}

// TCASSubMode tracks the altitude capture performed inside the TCAS mode.
type TCASSubMode int

const (
	TCASSubModeNone TCASSubMode = iota
	TCASSubModeALT
	TCASSubModeALTCPT
)

var tcasSubModeNames = map[TCASSubMode]string{
	TCASSubModeNone:   "NONE",
	TCASSubModeALT:    "ALT",
	TCASSubModeALTCPT: "ALT_CPT",
}

func (t TCASSubMode) String() string { return enumString(tcasSubModeNames, t) }
func (t TCASSubMode) MarshalText() ([]byte, error) {
	return enumMarshal(tcasSubModeNames, t)
}
func (t *TCASSubMode) UnmarshalText(b []byte) error {
	return enumUnmarshal(tcasSubModeNames, t, b)
}

// FMVerticalMode is the vertical guidance requested by the flight
// management computer while DES is active.
type FMVerticalMode int

const (
	FMVerticalNone FMVerticalMode = iota
	FMVerticalSpeedThrust
	FMVerticalVPathThrust
	FMVerticalVPathSpeed
	FMVerticalFPASpeed
	FMVerticalVSSpeed
)

var fmVerticalModeNames = map[FMVerticalMode]string{
	FMVerticalNone:        "NONE",
	FMVerticalSpeedThrust: "SPEED_THRUST",
	FMVerticalVPathThrust: "VPATH_THRUST",
	FMVerticalVPathSpeed:  "VPATH_SPEED",
	FMVerticalFPASpeed:    "FPA_SPEED",
	FMVerticalVSSpeed:     "VS_SPEED",
}

func (f FMVerticalMode) String() string { return enumString(fmVerticalModeNames, f) }
func (f FMVerticalMode) MarshalText() ([]byte, error) {
	return enumMarshal(fmVerticalModeNames, f)
}
func (f *FMVerticalMode) UnmarshalText(b []byte) error {
	return enumUnmarshal(fmVerticalModeNames, f, b)
}

///////////////////////////////////////////////////////////////////////////

func enumString[T ~int](names map[T]string, v T) string {
	if s, ok := names[v]; ok {
		return s
	}
	return strconv.Itoa(int(v))
}

func enumMarshal[T ~int](names map[T]string, v T) ([]byte, error) {
	if s, ok := names[v]; ok {
		return []byte(s), nil
	}
	return nil, fmt.Errorf("%d: %w", int(v), ErrUnknownEnumValue)
}

// enumUnmarshal accepts either the name or the numeric wire value, so that
// traces written by other tools can be read back.
func enumUnmarshal[T ~int](names map[T]string, v *T, b []byte) error {
	s := string(b)
	for k, n := range names {
		if n == s {
			*v = k
			return nil
		}
	}
	if i, err := strconv.Atoi(s); err == nil {
		if _, ok := names[T(i)]; ok {
			*v = T(i)
			return nil
		}
	}
	return fmt.Errorf("%q: %w", s, ErrUnknownEnumValue)
}
