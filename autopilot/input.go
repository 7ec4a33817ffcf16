// autopilot/input.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"log/slog"

	"github.com/mmp/autoflight/math"
)

// Aircraft is the per-tick snapshot of the aircraft state as reported by
// the simulator. Angles are in degrees unless noted, speeds in knots,
// altitudes in feet and vertical speeds in feet per minute.
type Aircraft struct {
	Theta float64 `json:"theta" yaml:"theta"`
	Phi   float64 `json:"phi" yaml:"phi"`
	// Body rates in rad/s.
	P float64 `json:"p" yaml:"p"`
	Q float64 `json:"q" yaml:"q"`
	R float64 `json:"r" yaml:"r"`
	// Body accelerations in m/s².
	Bx float64 `json:"bx" yaml:"bx"`
	By float64 `json:"by" yaml:"by"`
	Bz float64 `json:"bz" yaml:"bz"`

	VIAS float64 `json:"v_ias" yaml:"v_ias"`
	VTAS float64 `json:"v_tas" yaml:"v_tas"`
	VGnd float64 `json:"v_gnd" yaml:"v_gnd"`
	Mach float64 `json:"mach" yaml:"mach"`

	H      float64 `json:"h" yaml:"h"`
	HInd   float64 `json:"h_ind" yaml:"h_ind"`
	HRadio float64 `json:"h_radio" yaml:"h_radio"`
	HDot   float64 `json:"h_dot" yaml:"h_dot"`

	Psi      float64 `json:"psi" yaml:"psi"`
	PsiTrack float64 `json:"psi_track" yaml:"psi_track"`
	PsiTrue  float64 `json:"psi_true" yaml:"psi_true"`

	NavValid    bool    `json:"nav_valid" yaml:"nav_valid"`
	LocValid    bool    `json:"loc_valid" yaml:"loc_valid"`
	LocDeg      float64 `json:"loc_deg" yaml:"loc_deg"`
	LocMagVar   float64 `json:"loc_magvar" yaml:"loc_magvar"`
	LocErrorDeg float64 `json:"loc_error_deg" yaml:"loc_error_deg"`
	GsValid     bool    `json:"gs_valid" yaml:"gs_valid"`
	GsDeg       float64 `json:"gs_deg" yaml:"gs_deg"`
	GsErrorDeg  float64 `json:"gs_error_deg" yaml:"gs_error_deg"`
	DMEValid    bool    `json:"dme_valid" yaml:"dme_valid"`
	DMENmi      float64 `json:"dme_nmi" yaml:"dme_nmi"`

	Position    math.Position `json:"position" yaml:"position"`
	LocPosition math.Position `json:"loc_position" yaml:"loc_position"`
	GsPosition  math.Position `json:"gs_position" yaml:"gs_position"`

	XTKNmi        float64 `json:"xtk_nmi" yaml:"xtk_nmi"`
	TAEDeg        float64 `json:"tae_deg" yaml:"tae_deg"`
	PhiCommandDeg float64 `json:"phi_command_deg" yaml:"phi_command_deg"`
	PhiLimitDeg   float64 `json:"phi_limit_deg" yaml:"phi_limit_deg"`

	// FlightPhase follows the flight management numbering: 0 preflight,
	// 1 takeoff, 2 climb, 3 cruise, 4 descent, 5 approach, 6 go-around
	// and 7 done.
	FlightPhase         int     `json:"flight_phase" yaml:"flight_phase"`
	V2                  float64 `json:"v2" yaml:"v2"`
	VAPP                float64 `json:"vapp" yaml:"vapp"`
	VLS                 float64 `json:"vls" yaml:"vls"`
	VMAX                float64 `json:"vmax" yaml:"vmax"`
	FlightPlanAvailable bool    `json:"flight_plan_available" yaml:"flight_plan_available"`

	ThrustReductionAlt   float64 `json:"thrust_reduction_alt" yaml:"thrust_reduction_alt"`
	ThrustReductionAltGA float64 `json:"thrust_reduction_alt_ga" yaml:"thrust_reduction_alt_ga"`
	AccelerationAlt      float64 `json:"acceleration_alt" yaml:"acceleration_alt"`
	AccelerationAltEO    float64 `json:"acceleration_alt_eo" yaml:"acceleration_alt_eo"`
	AccelerationAltGA    float64 `json:"acceleration_alt_ga" yaml:"acceleration_alt_ga"`
	AccelerationAltGAEO  float64 `json:"acceleration_alt_ga_eo" yaml:"acceleration_alt_ga_eo"`
	CruiseAlt            float64 `json:"cruise_alt" yaml:"cruise_alt"`

	GearStrut1 float64 `json:"gear_strut_1" yaml:"gear_strut_1"`
	GearStrut2 float64 `json:"gear_strut_2" yaml:"gear_strut_2"`

	// Throttle lever positions in degrees; 45 is TOGA and 35 FLX/MCT.
	ThrottleLever   [4]float64 `json:"throttle_lever" yaml:"throttle_lever"`
	FlapHandle      int        `json:"flap_handle" yaml:"flap_handle"`
	EngineOperative [4]bool    `json:"engine_operative" yaml:"engine_operative"`

	AltimeterLeft  float64 `json:"altimeter_left" yaml:"altimeter_left"`
	AltimeterRight float64 `json:"altimeter_right" yaml:"altimeter_right"`
	Weight         float64 `json:"weight" yaml:"weight"`
}

// Request holds what the crew and the flight management computer ask of
// the autopilot. Pushbutton fields carry the raw switch level; the
// session derives the rising edges.
type Request struct {
	VFcu        float64 `json:"v_fcu" yaml:"v_fcu"`
	PsiFcu      float64 `json:"psi_fcu" yaml:"psi_fcu"`
	HFcu        float64 `json:"h_fcu" yaml:"h_fcu"`
	HConstraint float64 `json:"h_constraint" yaml:"h_constraint"`
	HDotFcu     float64 `json:"h_dot_fcu" yaml:"h_dot_fcu"`
	FPAFcu      float64 `json:"fpa_fcu" yaml:"fpa_fcu"`

	APEngage     bool `json:"ap_engage" yaml:"ap_engage"`
	AP1          bool `json:"ap1" yaml:"ap1"`
	AP2          bool `json:"ap2" yaml:"ap2"`
	APDisconnect bool `json:"ap_disconnect" yaml:"ap_disconnect"`
	HDGPush      bool `json:"hdg_push" yaml:"hdg_push"`
	HDGPull      bool `json:"hdg_pull" yaml:"hdg_pull"`
	ALTPush      bool `json:"alt_push" yaml:"alt_push"`
	ALTPull      bool `json:"alt_pull" yaml:"alt_pull"`
	VSPush       bool `json:"vs_push" yaml:"vs_push"`
	VSPull       bool `json:"vs_pull" yaml:"vs_pull"`
	LOCPush      bool `json:"loc_push" yaml:"loc_push"`
	APPRPush     bool `json:"appr_push" yaml:"appr_push"`
	EXPEDPush    bool `json:"exped_push" yaml:"exped_push"`

	FDActive     bool `json:"fd_active" yaml:"fd_active"`
	TrkFpaMode   bool `json:"trk_fpa_mode" yaml:"trk_fpa_mode"`
	DirToTrigger bool `json:"dir_to_trigger" yaml:"dir_to_trigger"`
	FLXActive    bool `json:"flx_active" yaml:"flx_active"`
	SlewTrigger  bool `json:"slew_trigger" yaml:"slew_trigger"`
	MachMode     bool `json:"mach_mode" yaml:"mach_mode"`
	ATHREngaged  bool `json:"athr_engaged" yaml:"athr_engaged"`
	SpeedManaged bool `json:"speed_managed" yaml:"speed_managed"`
	FDREvent     bool `json:"fdr_event" yaml:"fdr_event"`

	PhiLocCommand float64 `json:"phi_loc_command" yaml:"phi_loc_command"`

	FMVerticalMode      FMVerticalMode `json:"fm_vertical_mode" yaml:"fm_vertical_mode"`
	FMHCommand          float64        `json:"fm_h_command" yaml:"fm_h_command"`
	FMHDotCommand       float64        `json:"fm_h_dot_command" yaml:"fm_h_dot_command"`
	FMRnavApproach      bool           `json:"fm_rnav_approach" yaml:"fm_rnav_approach"`
	FMFinalDesCanEngage bool           `json:"fm_final_des_can_engage" yaml:"fm_final_des_can_engage"`

	TCASFail      bool    `json:"tcas_fail" yaml:"tcas_fail"`
	TCASAvailable bool    `json:"tcas_available" yaml:"tcas_available"`
	TCASAdvisory  int     `json:"tcas_advisory" yaml:"tcas_advisory"`
	TCASTargetMin float64 `json:"tcas_target_min" yaml:"tcas_target_min"`
	TCASTargetMax float64 `json:"tcas_target_max" yaml:"tcas_target_max"`

	FlareCondition bool `json:"flare_condition" yaml:"flare_condition"`
}

// Pushbuttons holds the rising edges of the crew controls for one tick.
type Pushbuttons struct {
	APEngage     bool `json:"ap_engage"`
	AP1          bool `json:"ap1"`
	AP2          bool `json:"ap2"`
	APDisconnect bool `json:"ap_disconnect"`
	HDGPush      bool `json:"hdg_push"`
	HDGPull      bool `json:"hdg_pull"`
	ALTPush      bool `json:"alt_push"`
	ALTPull      bool `json:"alt_pull"`
	VSPush       bool `json:"vs_push"`
	VSPull       bool `json:"vs_pull"`
	LOCPush      bool `json:"loc_push"`
	APPRPush     bool `json:"appr_push"`
	EXPEDPush    bool `json:"exped_push"`
}

// VSKnob reports whether either vertical speed knob action occurred.
func (p Pushbuttons) VSKnob() bool { return p.VSPush || p.VSPull }

func (p Pushbuttons) LogValue() slog.Value {
	var pressed []slog.Attr
	add := func(b bool, name string) {
		if b {
			pressed = append(pressed, slog.Bool(name, true))
		}
	}
	add(p.APEngage, "ap_engage")
	add(p.AP1, "ap1")
	add(p.AP2, "ap2")
	add(p.APDisconnect, "ap_disconnect")
	add(p.HDGPush, "hdg_push")
	add(p.HDGPull, "hdg_pull")
	add(p.ALTPush, "alt_push")
	add(p.ALTPull, "alt_pull")
	add(p.VSPush, "vs_push")
	add(p.VSPull, "vs_pull")
	add(p.LOCPush, "loc_push")
	add(p.APPRPush, "appr_push")
	add(p.EXPEDPush, "exped_push")
	return slog.GroupValue(pressed...)
}

// Engines2 reports whether engines 1 and 2 are operative; the go-around
// and SRS logic only looks at the inboard pair on four-engine aircraft.
func (ac *Aircraft) Engines2() bool {
	return ac.EngineOperative[0] && ac.EngineOperative[1]
}

