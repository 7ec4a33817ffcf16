// autopilot/decide.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package autopilot

// transition is one row of a guard cascade. when is evaluated lazily so
// that guards with side effects (stopwatches, memories) only run when
// the earlier rows did not match.
type transition struct {
	name string
	when func() bool
	then func()
}

// decide runs the action of the first transition whose guard holds and
// returns its name. It returns "" if none matched.
func decide(ts ...transition) string {
	for _, t := range ts {
		if t.when() {
			if t.then != nil {
				t.then()
			}
			return t.name
		}
	}
	return ""
}

func always() bool { return true }
