// Package errs defines the error kinds from spec.md §7. ConfigError,
// PlacementError, and TraceError carry an optional underlying cause
// exposed through Unwrap, so errors.Is/As see through them the way they
// see through the teacher's fmt.Errorf("...: %w", err) wrapping;
// NumericError carries only a message.
package errs

import "fmt"

// ConfigError signals an invalid flag value, an impossible
// topology/code combination, or a capacity shortfall. Fatal at startup
// (exit code 2).
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError builds a ConfigError with no underlying cause.
func NewConfigError(msg string) *ConfigError { return &ConfigError{Msg: msg} }

// WrapConfigError builds a ConfigError wrapping an underlying cause.
func WrapConfigError(msg string, err error) *ConfigError {
	return &ConfigError{Msg: msg, Err: err}
}

// PlacementError signals that placement constraints are unsatisfiable
// for the given topology. Fatal for the iteration; indicates a
// ConfigError upstream.
type PlacementError struct {
	Msg string
	Err error
}

func (e *PlacementError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("placement error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("placement error: %s", e.Msg)
}

func (e *PlacementError) Unwrap() error { return e.Err }

// NewPlacementError builds a PlacementError with no underlying cause.
func NewPlacementError(msg string) *PlacementError { return &PlacementError{Msg: msg} }

// WrapPlacementError builds a PlacementError wrapping an underlying cause.
func WrapPlacementError(msg string, err error) *PlacementError {
	return &PlacementError{Msg: msg, Err: err}
}

// NumericError signals that a hazard-rate evaluation produced a
// non-finite value. Recovered locally by the caller (treated as the max
// observed hazard) and logged — never propagated as a fatal error.
type NumericError struct {
	Msg string
}

func (e *NumericError) Error() string { return fmt.Sprintf("numeric error: %s", e.Msg) }

// NewNumericError builds a NumericError.
func NewNumericError(msg string) *NumericError { return &NumericError{Msg: msg} }

// TraceError signals a missing or malformed trace file when use_trace is
// set. Fatal (exit code 2).
type TraceError struct {
	Msg string
	Err error
}

func (e *TraceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("trace error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("trace error: %s", e.Msg)
}

func (e *TraceError) Unwrap() error { return e.Err }

// WrapTraceError builds a TraceError wrapping an underlying cause.
func WrapTraceError(msg string, err error) *TraceError {
	return &TraceError{Msg: msg, Err: err}
}
