// autopilot/errors.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

import (
	"errors"
)

var (
	ErrInvalidProfile   = errors.New("Invalid aircraft profile")
	ErrNonPositiveDT    = errors.New("Tick time step must be positive")
	ErrUnknownEnumValue = errors.New("Unknown enumerant")
	ErrUnknownProfile   = errors.New("Unknown aircraft profile")
)
