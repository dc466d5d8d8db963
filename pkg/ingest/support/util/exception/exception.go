// Package exception provides the error types shared by the surfin-flow compiler.
// Errors are categorized by Kind so callers can tell a fatal configuration
// problem (abort the compile unit) from a per-table validation failure.
package exception

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a CompileError.
type Kind string

const (
	// KindConfiguration covers unrecognized weight classes, unsupported
	// dialects and invalid capacities. Always fatal for the affected unit.
	KindConfiguration Kind = "ConfigurationError"
	// KindValidation covers input that is well-formed but inconsistent with
	// live metadata, e.g. a check column missing from the table.
	KindValidation Kind = "ValidationError"
)

// Sentinel errors matched by errors.Is against any CompileError of the same kind.
var (
	ErrConfiguration = errors.New(string(KindConfiguration))
	ErrValidation    = errors.New(string(KindValidation))
)

// CompileError is returned by every compiler component.
type CompileError struct {
	// Module names the component that raised the error (e.g. "pack", "predicate").
	Module string
	// Message is a human-readable description naming the offending value.
	Message string
	// Kind is the error category.
	Kind Kind
	// Allowed lists acceptable values, when the failure is a lookup against a closed set.
	Allowed []string
	// OriginalErr is the wrapped cause, if any.
	OriginalErr error
}

// NewConfigurationError creates a CompileError of KindConfiguration.
func NewConfigurationError(module, message string, originalErr error) *CompileError {
	return &CompileError{Module: module, Message: message, Kind: KindConfiguration, OriginalErr: originalErr}
}

// NewConfigurationErrorf is NewConfigurationError with a format string.
// A trailing error argument is taken as the wrapped cause.
func NewConfigurationErrorf(module, format string, a ...interface{}) *CompileError {
	var originalErr error
	if len(a) > 0 {
		if err, ok := a[len(a)-1].(error); ok {
			originalErr = err
			a = a[:len(a)-1]
		}
	}
	return NewConfigurationError(module, fmt.Sprintf(format, a...), originalErr)
}

// NewValidationError creates a CompileError of KindValidation. allowed is
// copied, sorted and appended to the message.
func NewValidationError(module, message string, allowed []string) *CompileError {
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return &CompileError{Module: module, Message: message, Kind: KindValidation, Allowed: sorted}
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", e.Module, e.Kind, e.Message)
	if len(e.Allowed) > 0 {
		fmt.Fprintf(&b, " (valid values: %s)", strings.Join(e.Allowed, ", "))
	}
	if e.OriginalErr != nil {
		fmt.Fprintf(&b, ": %v", e.OriginalErr)
	}
	return b.String()
}

// Unwrap returns the original error for errors.Unwrap.
func (e *CompileError) Unwrap() error {
	return e.OriginalErr
}

// Is lets errors.Is match the kind sentinels.
func (e *CompileError) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrValidation:
		return e.Kind == KindValidation
	}
	return false
}

// IsConfigurationError reports whether err (or anything it wraps) is a configuration error.
func IsConfigurationError(err error) bool {
	return err != nil && errors.Is(err, ErrConfiguration)
}

// IsValidationError reports whether err (or anything it wraps) is a validation error.
func IsValidationError(err error) bool {
	return err != nil && errors.Is(err, ErrValidation)
}

// ExtractErrorMessage returns the Message of a CompileError, or err.Error() otherwise.
func ExtractErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
