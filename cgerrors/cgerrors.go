// Package cgerrors implements the error taxonomy of spec §7: ParseError,
// ConversionError, ResolutionMiss, EmitError and ConfigError. All but
// ConfigError are recoverable at the point they occur; ConfigError is
// fatal and prevents the analyzer from running at all.
package cgerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseError means the parser produced no usable tree for a file. Recovered
// locally by the frontend: return a zero-element FileIr and continue.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps err with a stack trace via github.com/pkg/errors so
// the driver's failure summary can report an origin even though the error
// itself is recovered, not fatal.
func NewParseError(path string, err error) *ParseError {
	return &ParseError{Path: path, Err: errors.WithStack(err)}
}

// ConversionError means a single element or relationship could not be
// materialized from an otherwise-valid tree. Recorded in FileIr.errors;
// never aborts the walk.
type ConversionError struct {
	Path    string
	Line    int
	Message string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion error in %s:%d: %s", e.Path, e.Line, e.Message)
}

// ResolutionMiss means a PotentialRelationship could not be bound to a
// concrete target. Non-fatal: the edge persists as a placeholder.
type ResolutionMiss struct {
	TargetPattern string
	Hint          string
}

func (e *ResolutionMiss) Error() string {
	return fmt.Sprintf("unresolved target %q: %s", e.TargetPattern, e.Hint)
}

// EmitError means a batch failed to upsert. The driver retries according to
// its retry policy; once the retry budget is exhausted this is surfaced to
// the caller and the EntityMap is left unchanged for the affected files.
type EmitError struct {
	BatchIndex int
	Err        error
	Retryable  bool
}

func (e *EmitError) Error() string {
	return fmt.Sprintf("emit error on batch %d (retryable=%v): %v", e.BatchIndex, e.Retryable, e.Err)
}

func (e *EmitError) Unwrap() error { return e.Err }

// NewEmitError wraps err with a stack trace for the failure summary.
func NewEmitError(batchIndex int, err error, retryable bool) *EmitError {
	return &EmitError{BatchIndex: batchIndex, Err: errors.WithStack(err), Retryable: retryable}
}

// ConfigError means invalid configuration was discovered at startup. Fatal:
// the analyzer does not run.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %q: %s", e.Field, e.Message)
}

// NewConfigError builds a ConfigError with a stack-carrying wrap available
// via errors.Wrap for callers that need to chain it.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{Field: field, Message: message}
}

// Wrap attaches a message and stack trace to err, used by the driver when
// surfacing the "first fatal error's kind and message" (spec §7).
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, message)
}
