package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinels for the billing error taxonomy. Mark errors with one of these
// through the builder so handlers can map them to a status code.
var (
	ErrInvalidArgument     = new(ErrCodeInvalidArgument, "invalid argument")
	ErrNotFound            = new(ErrCodeNotFound, "resource not found")
	ErrInvalidState        = new(ErrCodeInvalidState, "invalid state")
	ErrConflict            = new(ErrCodeConflict, "version conflict")
	ErrUpstreamUnavailable = new(ErrCodeUpstreamUnavailable, "upstream unavailable")
	ErrAccessBlocked       = new(ErrCodeAccessBlocked, "access blocked")
	ErrSystem              = new(ErrCodeSystem, "system error")

	// ordered so the first match wins
	statusCodes = []struct {
		err    error
		status int
	}{
		{ErrInvalidArgument, http.StatusBadRequest},
		{ErrNotFound, http.StatusNotFound},
		{ErrInvalidState, http.StatusConflict},
		{ErrConflict, http.StatusConflict},
		{ErrAccessBlocked, http.StatusForbidden},
		{ErrUpstreamUnavailable, http.StatusServiceUnavailable},
		{ErrSystem, http.StatusInternalServerError},
	}
)

const (
	ErrCodeInvalidArgument     = "invalid_argument"
	ErrCodeNotFound            = "not_found"
	ErrCodeInvalidState        = "invalid_state"
	ErrCodeConflict            = "conflict"
	ErrCodeUpstreamUnavailable = "upstream_unavailable"
	ErrCodeAccessBlocked       = "access_blocked"
	ErrCodeSystem              = "system_error"
)

// InternalError represents a domain error
type InternalError struct {
	Code    string // Machine-readable error code
	Message string // Human-readable error message
	Err     error  // Underlying error
}

func (e *InternalError) Error() string {
	if e.Err == nil {
		return e.DisplayError()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Err.Error())
}

func (e *InternalError) DisplayError() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Is implements error matching for wrapped errors
func (e *InternalError) Is(target error) bool {
	if target == nil {
		return false
	}

	t, ok := target.(*InternalError)
	if !ok {
		return errors.Is(e.Err, target)
	}

	return e.Code == t.Code
}

func new(code string, message string) *InternalError {
	return &InternalError{
		Code:    code,
		Message: message,
	}
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Is(err, reference error) bool {
	return errors.Is(err, reference)
}

func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

func IsUpstreamUnavailable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

func IsAccessBlocked(err error) bool {
	return errors.Is(err, ErrAccessBlocked)
}

// HTTPStatusFromErr maps a marked error to its response status.
func HTTPStatusFromErr(err error) int {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.status
		}
	}
	return http.StatusInternalServerError
}

// CodeFromErr returns the machine-readable code of the sentinel err is marked with.
func CodeFromErr(err error) string {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return sc.err.(*InternalError).Code
		}
	}
	return ErrCodeSystem
}

// DisplayMessage returns the user-facing hints attached to err, falling back
// to the error text itself when no hint was recorded.
func DisplayMessage(err error) string {
	if err == nil {
		return ""
	}
	if hints := errors.GetAllHints(err); len(hints) > 0 {
		return strings.Join(hints, "; ")
	}
	return err.Error()
}
