// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInputParse    = errors.New("input could not be parsed")
	ErrOutOfRange    = errors.New("input out of range")
	ErrConfigInvalid = errors.New("invalid configuration")
	ErrDataNotFound  = errors.New("data not found")
	ErrDatabaseError = errors.New("database error")
)

// User-facing messages for validation failures.
const (
	MsgCheckInput     = "check your input"
	MsgMustBePositive = "all values must be greater than zero"
)

// ValidationKind separates values that could not be interpreted from
// values that were interpreted but are not acceptable.
type ValidationKind int

const (
	// KindParse means the value is not of the expected type.
	KindParse ValidationKind = iota
	// KindRange means the value violates a constraint.
	KindRange
)

func (k ValidationKind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindRange:
		return "range"
	default:
		return "unknown"
	}
}

// Rules attached to a ValidationError.
const (
	RuleNumber   = "number"
	RuleInteger  = "integer"
	RuleEnum     = "enum"
	RulePositive = "positive"
	RuleFinite   = "finite"
	RuleBounds   = "bounds"
)

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Kind    ValidationKind
	Rule    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap maps the error onto ErrInputParse or ErrOutOfRange.
func (e *ValidationError) Unwrap() error {
	if e.Kind == KindParse {
		return ErrInputParse
	}
	return ErrOutOfRange
}

// NewParseError creates a ValidationError for a value of the wrong type.
func NewParseError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Kind:    KindParse,
		Rule:    rule,
		Message: message,
	}
}

// NewRangeError creates a ValidationError for a constraint violation.
func NewRangeError(field string, value interface{}, rule, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Kind:    KindRange,
		Rule:    rule,
		Message: message,
	}
}

// UserMessage returns the short message shown in place of a result.
func UserMessage(err error) string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return MsgCheckInput
	}
	switch {
	case ve.Kind == KindParse:
		return MsgCheckInput
	case ve.Rule == RulePositive:
		return MsgMustBePositive
	default:
		return ve.Field + " " + ve.Message
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
