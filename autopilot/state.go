// autopilot/state.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"log/slog"
)

type LateralConditions struct {
	NAV        bool `json:"nav"`
	LOCCapture bool `json:"loc_cpt"`
	LOCTrack   bool `json:"loc_track"`
	LAND       bool `json:"land"`
	FLARE      bool `json:"flare"`
	ROLLOUT    bool `json:"roll_out"`
	GATrack    bool `json:"ga_track"`
}

type LateralOutput struct {
	Mode                LateralMode `json:"mode"`
	Law                 LateralLaw  `json:"law"`
	PsiCommand          float64     `json:"psi_c"`
	ModeReversion       bool        `json:"mode_reversion"`
	ModeReversionTrkFpa bool        `json:"mode_reversion_trk_fpa"`
}

func (o LateralOutput) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", o.Mode.String()),
		slog.String("law", o.Law.String()),
		slog.Float64("psi_c", o.PsiCommand),
		slog.Bool("reversion", o.ModeReversion))
}

// LateralState is the lateral part of the result of a tick; the previous
// tick's value is what the guards of the next tick look at.
type LateralState struct {
	Armed     LateralArming     `json:"armed"`
	Condition LateralConditions `json:"condition"`
	Output    LateralOutput     `json:"output"`
}

type VerticalConditions struct {
	ALT           bool `json:"alt"`
	ALTCapture    bool `json:"alt_cpt"`
	ALTCst        bool `json:"alt_cst"`
	ALTCstCapture bool `json:"alt_cst_cpt"`
	CLB           bool `json:"clb"`
	DES           bool `json:"des"`
	FinalDES      bool `json:"final_des"`
	GSCapture     bool `json:"gs_cpt"`
	GSTrack       bool `json:"gs_track"`
	LAND          bool `json:"land"`
	FLARE         bool `json:"flare"`
	ROLLOUT       bool `json:"roll_out"`
	SRS           bool `json:"srs"`
	SRSGA         bool `json:"srs_ga"`
	THRRed        bool `json:"thr_red"`
	HFcuActive    bool `json:"h_fcu_active"`
	TCAS          bool `json:"tcas"`
}

type VerticalOutput struct {
	Mode                VerticalMode   `json:"mode"`
	Law                 VerticalLaw    `json:"law"`
	Autothrust          AutothrustMode `json:"autothrust"`
	ModeReversion       bool           `json:"mode_reversion"`
	ModeReversionTarget float64        `json:"mode_reversion_target"`
	ModeReversionTrkFpa bool           `json:"mode_reversion_trk_fpa"`

	HCommand    float64 `json:"h_c"`
	HDotCommand float64 `json:"h_dot_c"`
	FPACommand  float64 `json:"fpa_c"`
	VCommand    float64 `json:"v_c"`

	ALTSoftActive   bool `json:"alt_soft"`
	ALTCruiseActive bool `json:"alt_cruise"`
	EXPEDActive     bool `json:"exped"`
	SpeedProtection bool `json:"speed_protection"`
	FDDisconnect    bool `json:"fd_disconnect"`
	FDConnect       bool `json:"fd_connect"`

	TCASSubMode                  TCASSubMode `json:"tcas_sub_mode"`
	TCASSubModeCompatible        bool        `json:"tcas_sub_mode_compatible"`
	TCASMessageDisarm            bool        `json:"tcas_message_disarm"`
	TCASMessageRAInhibit         bool        `json:"tcas_message_ra_inhibit"`
	TCASMessageTrkFpaDeselection bool        `json:"tcas_message_trk_fpa_deselection"`
}

func (o VerticalOutput) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("mode", o.Mode.String()),
		slog.String("law", o.Law.String()),
		slog.String("athr", o.Autothrust.String()),
		slog.Float64("h_c", o.HCommand),
		slog.Float64("h_dot_c", o.HDotCommand),
		slog.Float64("v_c", o.VCommand),
		slog.Bool("reversion", o.ModeReversion))
}

type VerticalState struct {
	Armed     VerticalArming     `json:"armed"`
	Condition VerticalConditions `json:"condition"`
	Output    VerticalOutput     `json:"output"`
}

// Output is everything a tick publishes: the engagement, both state
// machines, the derived data and the post-processed annunciations.
type Output struct {
	Time float64 `json:"time"`

	AP1 bool `json:"ap1"`
	AP2 bool `json:"ap2"`

	Lateral  LateralState  `json:"lateral"`
	Vertical VerticalState `json:"vertical"`
	Computed Computed      `json:"computed"`

	LateralArmed  LateralArmed  `json:"lateral_armed"`
	VerticalArmed VerticalArmed `json:"vertical_armed"`

	// Debounced annunciation flags.
	LateralReversion      bool `json:"lateral_reversion"`
	VerticalReversion     bool `json:"vertical_reversion"`
	ReversionTrkFpa       bool `json:"reversion_trk_fpa"`
	TripleClick           bool `json:"triple_click"`
	FMAReversion          bool `json:"fma_reversion"`
	TCASDisarm            bool `json:"tcas_disarm"`
	TCASRAInhibit         bool `json:"tcas_ra_inhibit"`
	TCASTrkFpaDeselection bool `json:"tcas_trk_fpa_deselection"`
}

// APEngaged reports whether either autopilot channel is engaged.
func (o *Output) APEngaged() bool { return o.AP1 || o.AP2 }

func (o Output) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("time", o.Time),
		slog.Bool("ap1", o.AP1),
		slog.Bool("ap2", o.AP2),
		slog.Any("lateral", o.Lateral.Output),
		slog.Any("vertical", o.Vertical.Output),
		slog.String("lateral_armed", o.LateralArmed.String()),
		slog.String("vertical_armed", o.VerticalArmed.String()))
}
