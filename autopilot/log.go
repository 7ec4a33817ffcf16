// autopilot/log.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

// Available logging categories
const (
	FGLogState    = "state"
	FGLogLateral  = "lateral"
	FGLogVertical = "vertical"
	FGLogArming   = "arming"
	FGLogEngage   = "engage"
	FGLogFMA      = "fma"
	FGLogTCAS     = "tcas"
)
