package ir

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultMaxErrors caps the number of errors a reporter keeps.
const DefaultMaxErrors = 100

// Error is a positioned diagnostic about the program being compiled.
type Error struct {
	Pos     Position
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if !e.Pos.Valid() {
		return e.Message
	}
	return fmt.Sprintf("%d:%d: %s", e.Pos.Line, e.Pos.Column, e.Message)
}

// ErrorList is a list of diagnostics. It implements error.
type ErrorList []*Error

// Error implements the error interface.
func (el ErrorList) Error() string {
	if len(el) == 0 {
		return "no errors"
	}
	if len(el) == 1 {
		return el[0].Error()
	}
	return fmt.Sprintf("%s (and %d more errors)", el[0].Error(), len(el)-1)
}

// FormatAll returns every error on its own line.
func (el ErrorList) FormatAll() string {
	var sb strings.Builder
	for i, e := range el {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(e.Error())
	}
	return sb.String()
}

// ErrorReporter accumulates diagnostics. Compilation keeps going after an
// error so that one pass reports as many problems as possible.
type ErrorReporter struct {
	errors  ErrorList
	max     int
	dropped int
}

// NewErrorReporter creates a reporter keeping at most max errors; max <= 0
// uses DefaultMaxErrors.
func NewErrorReporter(max int) *ErrorReporter {
	if max <= 0 {
		max = DefaultMaxErrors
	}
	return &ErrorReporter{max: max}
}

// Error records a diagnostic.
func (r *ErrorReporter) Error(pos Position, msg string) {
	if len(r.errors) >= r.max {
		r.dropped++
		return
	}
	r.errors = append(r.errors, &Error{Pos: pos, Message: msg})
}

// Errorf records a formatted diagnostic.
func (r *ErrorReporter) Errorf(pos Position, format string, args ...any) {
	r.Error(pos, fmt.Sprintf(format, args...))
}

// Count returns the number of errors reported, including dropped ones.
func (r *ErrorReporter) Count() int { return len(r.errors) + r.dropped }

// HasErrors reports whether any error was recorded.
func (r *ErrorReporter) HasErrors() bool { return r.Count() > 0 }

// Dropped returns how many errors were discarded past the cap.
func (r *ErrorReporter) Dropped() int { return r.dropped }

// Errors returns the recorded errors in report order.
func (r *ErrorReporter) Errors() ErrorList { return r.errors }

// Sorted returns the errors ordered by position.
func (r *ErrorReporter) Sorted() ErrorList {
	out := make(ErrorList, len(r.errors))
	copy(out, r.errors)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Pos.Before(out[j].Pos) })
	return out
}

// Err returns the accumulated errors as an error, or nil.
func (r *ErrorReporter) Err() error {
	if len(r.errors) == 0 {
		return nil
	}
	return r.Sorted()
}

// Reset forgets every recorded error.
func (r *ErrorReporter) Reset() {
	r.errors = nil
	r.dropped = 0
}

// InternalError is raised (as a panic value) when the IR violates an
// invariant the factories are supposed to guarantee.
type InternalError struct {
	Pos     Position
	Message string
}

func (e *InternalError) Error() string {
	return "internal error: " + (&Error{Pos: e.Pos, Message: e.Message}).Error()
}

func internalf(pos Position, format string, args ...any) {
	panic(&InternalError{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Internalf panics with an *InternalError. Backends use it for IR shapes
// that cannot reach them from a valid program.
func Internalf(pos Position, format string, args ...any) {
	internalf(pos, format, args...)
}
