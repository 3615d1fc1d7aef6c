// Package errors provides the error taxonomy shared by the wiki client, the
// article parsers and the MCP tool layer.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure for callers and metrics labels.
type Kind string

const (
	KindNone        Kind = ""
	KindNetwork     Kind = "network"
	KindStatus      Kind = "status"
	KindDeserialize Kind = "deserialize"
	KindParse       Kind = "parse"
	KindValidation  Kind = "validation"
	KindUnknown     Kind = "unknown"
)

// NetworkError indicates the request could not be sent or no response arrived.
type NetworkError struct {
	Op  string // "search", "get_article", "open_article"
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: request to %s failed: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError indicates the wiki answered with a non-2xx status.
type StatusError struct {
	Op         string
	URL        string
	StatusCode int
	Body       string // truncated
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: %s returned status %d: %s", e.Op, e.URL, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %s returned status %d", e.Op, e.URL, e.StatusCode)
}

// DeserializeError indicates a response body did not match the expected JSON shape.
type DeserializeError struct {
	Op  string
	URL string
	Err error
}

func (e *DeserializeError) Error() string {
	return fmt.Sprintf("%s: failed to decode response from %s: %v", e.Op, e.URL, e.Err)
}

func (e *DeserializeError) Unwrap() error { return e.Err }

// ParseError indicates article HTML could not be turned into a ParsedArticle.
type ParseError struct {
	Source string // URL or file the HTML came from, may be empty
	Parser string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s parser: failed to parse %s: %v", e.Parser, e.Source, e.Err)
	}
	return fmt.Sprintf("%s parser: %v", e.Parser, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError indicates invalid input parameters.
type ValidationError struct {
	Field   string // field name that failed validation
	Value   string // the invalid value
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// IsNetwork returns true if err wraps a NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsStatus returns true if err wraps a StatusError.
func IsStatus(err error) bool {
	var target *StatusError
	return errors.As(err, &target)
}

// IsDeserialize returns true if err wraps a DeserializeError.
func IsDeserialize(err error) bool {
	var target *DeserializeError
	return errors.As(err, &target)
}

// IsParse returns true if err wraps a ParseError.
func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// IsValidation returns true if err wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// KindOf reports which taxonomy member err belongs to.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case IsValidation(err):
		return KindValidation
	case IsNetwork(err):
		return KindNetwork
	case IsStatus(err):
		return KindStatus
	case IsDeserialize(err):
		return KindDeserialize
	case IsParse(err):
		return KindParse
	default:
		return KindUnknown
	}
}
