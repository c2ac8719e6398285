// Package dslog wraps gosl/io's coloured console printers behind a
// small, context-passed Logger so call sites read like gofem's own
// io.Pf/io.PfYel/io.PfRed idiom while gaining the per-module failure
// counter the engine's error-handling policy requires.
package dslog

import (
	"github.com/cpmech/gosl/io"
)

// Logger writes status, warning and error lines for a running engine,
// and tracks how many times each named module has failed.
type Logger struct {
	Verbose  bool
	Quiet    bool
	failures map[string]int
}

// New returns a Logger. verbose enables Detail lines; quiet suppresses
// all but error output.
func New(verbose, quiet bool) *Logger {
	return &Logger{Verbose: verbose, Quiet: quiet, failures: make(map[string]int)}
}

// Info writes a plain informational line.
func (l *Logger) Info(format string, args ...any) {
	if l.Quiet {
		return
	}
	io.Pf(format, args...)
}

// Detail writes a line only when Verbose is set, matching the
// teacher's "verbose()" guarded Messenger::printVerbose calls.
func (l *Logger) Detail(format string, args ...any) {
	if l.Quiet || !l.Verbose {
		return
	}
	io.Pfgrey(format, args...)
}

// Warn writes a yellow warning line; does not count as a module failure.
func (l *Logger) Warn(format string, args ...any) {
	if l.Quiet {
		return
	}
	io.PfYel("WARNING: "+format, args...)
}

// Error writes a red error line and increments the named module's
// failure counter.
func (l *Logger) Error(module, format string, args ...any) {
	if !l.Quiet {
		io.PfRed("ERROR ("+module+"): "+format, args...)
	}
	l.failures[module]++
}

// Success writes a green confirmation line.
func (l *Logger) Success(format string, args ...any) {
	if l.Quiet {
		return
	}
	io.PfGreen(format, args...)
}

// FailureCount returns how many times the named module has reported
// an error this run.
func (l *Logger) FailureCount(module string) int {
	return l.failures[module]
}

// ThresholdExceeded reports whether module has failed more times than
// max, in which case the engine should abort the run.
func (l *Logger) ThresholdExceeded(module string, max int) bool {
	return l.failures[module] > max
}
