// Package errors provides structured error types for the Drawbridge application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP server
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes map to the conversion pipeline stages:
//   - INVALID_*: Input validation failures
//   - EXTRACTION_FAILED: malformed rendered visual tree (fatal per conversion)
//   - CLASSIFICATION_FAILED: unrecognized primitive cluster (recoverable)
//   - LAYOUT_FAILED: contradictory layout constraints (recoverable)
//   - RENDER_FAILED: the external rendering collaborator failed
//   - TIMEOUT: a single conversion exceeded its wall-clock budget
//
// # Usage
//
//	err := errors.New(errors.ErrCodeExtraction, "empty visual tree for %s", src.Type)
//	if errors.Is(err, errors.ErrCodeExtraction) {
//	    // Handle extraction error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRender, origErr, "render %s diagram", src.Type)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidSource Code = "INVALID_SOURCE"
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"

	// Conversion stage errors
	ErrCodeUnsupportedType Code = "UNSUPPORTED_DIAGRAM_TYPE"
	ErrCodeExtraction      Code = "EXTRACTION_FAILED"
	ErrCodeClassification  Code = "CLASSIFICATION_FAILED"
	ErrCodeLayout          Code = "LAYOUT_FAILED"
	ErrCodeBuild           Code = "BUILD_FAILED"

	// Collaborator errors
	ErrCodeRender  Code = "RENDER_FAILED"
	ErrCodeTimeout Code = "TIMEOUT"
	ErrCodeNetwork Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code, the pipeline stage that produced
// it, and an optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Stage   string // Pipeline stage ("extract", "classify", "layout", "style", "build", "render")
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s", e.Stage, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// WithStage annotates the error with the pipeline stage that produced it
// and returns the same error for chaining.
func (e *Error) WithStage(stage string) *Error {
	e.Stage = stage
	return e
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetStage extracts the pipeline stage from an error, if available.
// Returns empty string if the error carries no stage annotation.
func GetStage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Recoverable reports whether err has a defined in-pipeline fallback:
// classification errors fall back to a generic labeled rectangle, layout
// errors to naive grid placement. Everything else aborts its conversion.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeClassification, ErrCodeLayout:
		return true
	default:
		return false
	}
}
