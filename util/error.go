// util/error.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"fmt"
	"strings"

	"github.com/mmp/autoflight/log"
)

// ErrorLogger accumulates validation errors for aircraft profiles and
// scenario scripts. It tracks context about what is currently being
// validated, so that each message says where the problem is, and lets
// validation continue past the first error.
type ErrorLogger struct {
	// Tracked via Push()/Pop() calls to remember what we're looking at if
	// an error is found.
	hierarchy []string
	// Actual error messages to report.
	errors []string
}

func (e *ErrorLogger) Push(s string) {
	e.hierarchy = append(e.hierarchy, s)
}

func (e *ErrorLogger) Pop() {
	e.hierarchy = e.hierarchy[:len(e.hierarchy)-1]
}

func (e *ErrorLogger) ErrorString(s string, args ...any) {
	e.errors = append(e.errors, e.prefix()+fmt.Sprintf(s, args...))
}

func (e *ErrorLogger) Error(err error) {
	e.errors = append(e.errors, e.prefix()+err.Error())
}

func (e *ErrorLogger) prefix() string {
	if len(e.hierarchy) == 0 {
		return ""
	}
	return strings.Join(e.hierarchy, " / ") + ": "
}

func (e *ErrorLogger) HaveErrors() bool {
	return e != nil && len(e.errors) > 0
}

func (e *ErrorLogger) Errors() []string {
	return e.errors
}

func (e *ErrorLogger) LogErrors(lg *log.Logger) {
	for _, err := range e.errors {
		lg.Errorf("%+v", err)
	}
}

func (e *ErrorLogger) String() string {
	return strings.Join(e.errors, "\n")
}

// Err returns nil if no errors have been reported and otherwise an error
// wrapping base whose message lists all of them.
func (e *ErrorLogger) Err(base error) error {
	if !e.HaveErrors() {
		return nil
	}
	return fmt.Errorf("%w:\n%s", base, e.String())
}

// CheckDepth panics if Push and Pop calls were unbalanced since the
// depth d was recorded; it is meant to be deferred.
func (e *ErrorLogger) CheckDepth(d int) {
	if e == nil || e.CurrentDepth() == d {
		return
	}
	if r := recover(); r != nil {
		panic(r)
	}
	var frames []string
	for _, f := range log.Callstack(nil) {
		frames = append(frames, f.String())
	}
	panic(fmt.Errorf("ErrorLogger depth %d at start, %d at end\n%s", d, e.CurrentDepth(),
		strings.Join(frames, "\n")))
}

func (e *ErrorLogger) CurrentDepth() int {
	if e == nil {
		return 0
	}
	return len(e.hierarchy)
}
