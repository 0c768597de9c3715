package models

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when an input location does not resolve.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("input not found: %s", e.Path)
}

// ParseError is returned when input cannot be coerced to the transaction schema.
// Line is 1-based and zero when the failure is not tied to a row.
type ParseError struct {
	Path   string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse ")
	b.WriteString(e.Path)
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " value %q", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingColumnError is returned when a named column is absent from a table.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

// MissingFeatureError is returned when derived calendar features are required but absent.
type MissingFeatureError struct {
	Columns []string
}

func (e *MissingFeatureError) Error() string {
	return fmt.Sprintf("missing required date features: %s (extract date features first)",
		strings.Join(e.Columns, ", "))
}

// ValidationError reports an invalid parameter.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// UnexpectedIOError wraps any other I/O failure.
type UnexpectedIOError struct {
	Op  string
	Err error
}

func (e *UnexpectedIOError) Error() string {
	return fmt.Sprintf("unexpected I/O error during %s: %v", e.Op, e.Err)
}

func (e *UnexpectedIOError) Unwrap() error { return e.Err }
