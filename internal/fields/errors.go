package fields

import (
	"fmt"
	"strings"
)

// Validation error codes carried on ValidationError.Code.
const (
	CodeRequired      = "REQUIRED"
	CodeTypeMismatch  = "TYPE_MISMATCH"
	CodePattern       = "PATTERN_MISMATCH"
	CodeOutOfRange    = "OUT_OF_RANGE"
	CodeUnknownOption = "UNKNOWN_OPTION"
	CodeCustom        = "CUSTOM"
)

// ValidationError reports a single field failure. It is a value intended for
// redisplay next to the offending input, never a fatal condition.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, code, message string) *ValidationError {
	return &ValidationError{Field: field, Code: code, Message: message}
}

// AggregateError collects every per-field failure from a multi-field
// validation pass so callers can show a complete error report at once.
type AggregateError struct {
	Errors []ValidationError `json:"errors"`
}

func (a *AggregateError) Error() string {
	if a == nil || len(a.Errors) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(a.Errors))
	for _, e := range a.Errors {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Add appends a failure to the aggregate.
func (a *AggregateError) Add(err *ValidationError) {
	if err == nil {
		return
	}
	a.Errors = append(a.Errors, *err)
}

// Empty reports whether any failures were collected.
func (a *AggregateError) Empty() bool {
	return a == nil || len(a.Errors) == 0
}

// ByField returns the first failure message per field name, the shape the
// renderer consumes for inline error display.
func (a *AggregateError) ByField() map[string]string {
	if a == nil {
		return nil
	}
	out := make(map[string]string, len(a.Errors))
	for _, e := range a.Errors {
		if _, seen := out[e.Field]; !seen {
			out[e.Field] = e.Message
		}
	}
	return out
}
