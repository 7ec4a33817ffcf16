//go:build fglog

// autopilot/log_debug.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"fmt"
	"strings"
)

// Flight guidance trace configuration
var (
	fglogEnabled    bool
	fglogCategories map[string]bool
	fglogSession    string // only trace the session with this name (empty = trace all)
)

// InitFGLog initializes the flight guidance trace
func InitFGLog(enabled bool, categories string, session string) {
	fglogEnabled = enabled
	fglogCategories = make(map[string]bool)
	fglogSession = strings.TrimSpace(session)

	if !enabled {
		return
	}

	if categories == "" || categories == "all" {
		for _, c := range []string{FGLogState, FGLogLateral, FGLogVertical, FGLogArming, FGLogEngage,
			FGLogFMA, FGLogTCAS} {
			fglogCategories[c] = true
		}
	} else {
		for _, cat := range strings.Split(categories, ",") {
			fglogCategories[strings.TrimSpace(cat)] = true
		}
	}
}

// FGLog prints a trace line with the simulation time, session name and
// category.
func FGLog(s *Session, now float64, category string, format string, args ...any) {
	if !fglogEnabled || !fglogCategories[category] {
		return
	}
	if fglogSession != "" && fglogSession != s.Name {
		return
	}

	// Format: [t=SSSS.SS] [session] [category] message
	fmt.Printf("[t=%8.2f] [%s] [%s] %s\n", now, s.Name, category, fmt.Sprintf(format, args...))
}

// FGLogEnabled returns whether tracing is enabled for a given category
func FGLogEnabled(category string) bool {
	return fglogEnabled && fglogCategories[category]
}
