// Package diagnostics implements the error/warning taxonomy shared by every
// compiler stage: InvalidInput, Warning, EmitterError, ValidatorFailure.
package diagnostics

import (
	"fmt"
	"strings"
)

// Kind classifies a fatal error raised by a stage.
type Kind int

const (
	// KindInvalidInput covers missing files, bad YAML, schema violations,
	// and the structural checks in the topology reader.
	KindInvalidInput Kind = iota
	// KindEmitterError covers unwritable output files and missing templates.
	KindEmitterError
	// KindValidatorFailure covers a non-zero exit from the external checker.
	KindValidatorFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindEmitterError:
		return "EmitterError"
	case KindValidatorFailure:
		return "ValidatorFailure"
	default:
		return "Unknown"
	}
}

// Error is a typed fatal diagnostic. Stages return *Error, never a bare
// fmt.Errorf, so the CLI can map it to the right exit code.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewInvalidInput builds a KindInvalidInput error.
func NewInvalidInput(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NewEmitterError builds a KindEmitterError error.
func NewEmitterError(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindEmitterError, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NewValidatorFailure builds a KindValidatorFailure error.
func NewValidatorFailure(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidatorFailure, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Sink accumulates non-fatal warnings across a single compiler run. It must
// be reset at the start of every run so warnings never leak between
// invocations (spec'd process-wide logging state reset).
type Sink struct {
	Warnings []string
}

// NewSink creates an empty warning sink.
func NewSink() *Sink {
	return &Sink{Warnings: make([]string, 0)}
}

// Reset clears accumulated warnings.
func (s *Sink) Reset() {
	s.Warnings = s.Warnings[:0]
}

// Warn records a warning message.
func (s *Sink) Warn(format string, args ...interface{}) {
	s.Warnings = append(s.Warnings, fmt.Sprintf(format, args...))
}

// HasWarnings reports whether any warning was recorded.
func (s *Sink) HasWarnings() bool {
	return len(s.Warnings) > 0
}

// Report renders the accumulated warnings as a human-readable block.
func (s *Sink) Report() string {
	if len(s.Warnings) == 0 {
		return "no warnings\n"
	}
	var sb strings.Builder
	sb.WriteString("WARNINGS:\n")
	for _, w := range s.Warnings {
		sb.WriteString("  - ")
		sb.WriteString(w)
		sb.WriteString("\n")
	}
	return sb.String()
}
