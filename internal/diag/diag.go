// Package diag implements the severities spec.md §7 ties to every
// recoverable failure in the analysis pipeline: Warning (log and keep
// going), Fatal (abort the current function, move on to the next one),
// and Assertion (an internal invariant broke; the programmer, not the
// input, is at fault). Adapted from the teacher's SentraError/
// SourceLocation pattern, retargeted from interpreter runtime errors to
// static-analysis diagnostics.
package diag

import (
	"fmt"
	"strings"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	// Warning is recorded and surfaced but does not interrupt analysis:
	// e.g. an expression kind the range analysis does not model, widened
	// to Full().
	Warning Severity = iota
	// Fatal aborts analysis of the current function; the generator moves
	// on to the next function in the translation unit (spec §7).
	Fatal
	// Assertion signals an internal invariant violation -- a bug in this
	// tool, not in the analyzed program. Collector.Assertf panics with
	// these after recording them, since continuing would fabricate
	// results.
	Assertion
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Fatal:
		return "fatal"
	case Assertion:
		return "assertion"
	default:
		return "?"
	}
}

// Location pinpoints a diagnostic in the analyzed C source.
type Location struct {
	File string
	Line int
	Col  int
}

func (l Location) String() string {
	if l.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Diagnostic is one recorded event: a severity, a message, the location
// it occurred at, and the function it was raised while analyzing.
type Diagnostic struct {
	Severity Severity
	Message  string
	Where    Location
	Function string
}

func (d Diagnostic) Error() string {
	var sb strings.Builder
	sb.WriteString(strings.ToUpper(d.Severity.String()[:1]) + d.Severity.String()[1:])
	if d.Function != "" {
		sb.WriteString(" in ")
		sb.WriteString(d.Function)
	}
	if loc := d.Where.String(); loc != "" {
		sb.WriteString(" at ")
		sb.WriteString(loc)
	}
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	return sb.String()
}

// Collector accumulates diagnostics raised while processing a translation
// unit, keyed loosely by the function under analysis so the generator can
// report "function X skipped: <reason>" without unwinding the whole run.
type Collector struct {
	items []Diagnostic
}

func NewCollector() *Collector { return &Collector{} }

// Warn records a Warning-severity diagnostic.
func (c *Collector) Warn(fn string, where Location, format string, args ...any) {
	c.items = append(c.items, Diagnostic{Severity: Warning, Message: fmt.Sprintf(format, args...), Where: where, Function: fn})
}

// Fatalf records a Fatal diagnostic and returns it as an error so the
// caller can unwind the current function's analysis via a plain return.
func (c *Collector) Fatalf(fn string, where Location, format string, args ...any) error {
	d := Diagnostic{Severity: Fatal, Message: fmt.Sprintf(format, args...), Where: where, Function: fn}
	c.items = append(c.items, d)
	return d
}

// Assertf records an Assertion diagnostic and panics with it: these mark
// broken tool invariants, not analyzable-input problems, so they are not
// meant to be recovered from in normal operation.
func (c *Collector) Assertf(fn string, where Location, format string, args ...any) {
	d := Diagnostic{Severity: Assertion, Message: fmt.Sprintf(format, args...), Where: where, Function: fn}
	c.items = append(c.items, d)
	panic(d)
}

// All returns every diagnostic recorded so far, oldest first.
func (c *Collector) All() []Diagnostic { return c.items }

// HasFatal reports whether fn has at least one Fatal diagnostic recorded
// against it. (The generator itself skips a function on the error its
// Fatalf call returns, not through this method.)
func (c *Collector) HasFatal(fn string) bool {
	for _, d := range c.items {
		if d.Function == fn && d.Severity == Fatal {
			return true
		}
	}
	return false
}

// Count returns the number of recorded diagnostics at or above sev.
func (c *Collector) Count(sev Severity) int {
	n := 0
	for _, d := range c.items {
		if d.Severity >= sev {
			n++
		}
	}
	return n
}
