// Package errors provides structured error handling for seisflow.
// Errors carry a code, optional context and the original cause, so callers
// can distinguish fatal load-time failures from row-scoped resolution
// failures that a batch must swallow and count.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies an error class for programmatic handling.
type Code string

const (
	// Catalog errors (1xx)
	CodeCatalogRead      Code = "E101"
	CodeMalformedCatalog Code = "E102"
	CodeMissingColumn    Code = "E103"
	CodeMissingValue     Code = "E104"
	CodeBadTimestamp     Code = "E105"
	CodeBadWindow        Code = "E106"

	// Resolution errors (2xx)
	CodeFetchFailed          Code = "E201"
	CodeMultiSegment         Code = "E202"
	CodeIdentityMismatch     Code = "E203"
	CodeInventoryUnavailable Code = "E204"

	// Storage errors (3xx)
	CodeWriteFailed  Code = "E301"
	CodeDecodeFailed Code = "E302"
	CodeEncodeFailed Code = "E303"

	// System errors (4xx)
	CodeContextCanceled Code = "E401"

	// Unknown
	CodeUnknown Code = "E999"
)

// SeisError is the base error type for all seisflow errors.
type SeisError struct {
	Code    Code
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *SeisError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if len(e.Context) > 0 {
		sb.WriteString(" (")
		first := true
		for k, v := range e.Context {
			if !first {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s=%v", k, v))
			first = false
		}
		sb.WriteString(")")
	}

	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *SeisError) Unwrap() error {
	return e.Cause
}

// Is matches on code so errors.Is works with sentinel-style targets.
func (e *SeisError) Is(target error) bool {
	if t, ok := target.(*SeisError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithContext adds a key-value pair to the error context.
func (e *SeisError) WithContext(key string, value interface{}) *SeisError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a new SeisError.
func New(code Code, message string) *SeisError {
	return &SeisError{Code: code, Message: message}
}

// Wrap wraps an existing error with a code and message. Returns nil for a
// nil cause so call sites can wrap unconditionally.
func Wrap(err error, code Code, message string) *SeisError {
	if err == nil {
		return nil
	}
	return &SeisError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *SeisError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// --- Convenience constructors ---

// MissingValue reports an empty cell in a required catalog column.
func MissingValue(column string, row int) *SeisError {
	return New(CodeMissingValue, "missing value in required column").
		WithContext("column", column).
		WithContext("row", row)
}

// MissingColumn reports a required column absent from the catalog header.
func MissingColumn(column string) *SeisError {
	return New(CodeMissingColumn, "required column not found").
		WithContext("column", column)
}

// BadTimestamp reports an unparseable timestamp cell.
func BadTimestamp(column, value string, row int) *SeisError {
	return New(CodeBadTimestamp, "failed to parse timestamp").
		WithContext("column", column).
		WithContext("value", value).
		WithContext("row", row)
}

// FetchFailed reports a waveform that could not be fetched or decoded.
func FetchFailed(url string, err error) *SeisError {
	return Wrap(err, CodeFetchFailed, "could not read waveform").
		WithContext("url", url)
}

// MultiSegment reports a stream with gaps or overlaps in the requested
// window (more than one contiguous trace).
func MultiSegment(traces int, locator string) *SeisError {
	return New(CodeMultiSegment, "several traces found, maybe gaps/overlaps").
		WithContext("traces", traces).
		WithContext("locator", locator)
}

// IdentityMismatch reports a resolved trace whose channel id differs from
// the one requested.
func IdentityMismatch(want, got string) *SeisError {
	return New(CodeIdentityMismatch, "resolved trace id does not match request").
		WithContext("want", want).
		WithContext("got", got)
}

// InventoryUnavailable reports a station whose response metadata could not
// be resolved. Scoped to the whole (network, station) group.
func InventoryUnavailable(network, station string, err error) *SeisError {
	return Wrap(err, CodeInventoryUnavailable, "station inventory unavailable").
		WithContext("network", network).
		WithContext("station", station)
}

// --- Error checking utilities ---

// IsCode checks whether err carries the given code.
func IsCode(err error, code Code) bool {
	var se *SeisError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// GetCode extracts the code from err, or CodeUnknown.
func GetCode(err error) Code {
	var se *SeisError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// IsRowScoped reports whether err is a per-row resolution failure that a
// batch operation should log, count and continue past.
func IsRowScoped(err error) bool {
	switch GetCode(err) {
	case CodeFetchFailed, CodeMultiSegment, CodeIdentityMismatch:
		return true
	default:
		return false
	}
}

// IsFatal reports whether err must abort the surrounding operation.
func IsFatal(err error) bool {
	switch GetCode(err) {
	case CodeCatalogRead, CodeMalformedCatalog, CodeMissingColumn,
		CodeMissingValue, CodeBadTimestamp, CodeBadWindow, CodeContextCanceled:
		return true
	default:
		return false
	}
}
