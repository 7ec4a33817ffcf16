//go:build !fglog

// autopilot/log_release.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

// InitFGLog is a no-op in release builds
func InitFGLog(enabled bool, categories string, session string) {}

// FGLog is a no-op in release builds
func FGLog(s *Session, now float64, category string, format string, args ...any) {}

// FGLogEnabled always returns false in release builds
func FGLogEnabled(category string) bool { return false }
