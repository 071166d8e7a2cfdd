package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation    = NewError("VALIDATION_ERROR", "validation failed", http.StatusBadRequest)
	ErrConfiguration = NewError("CONFIGURATION_ERROR", "server misconfigured", http.StatusInternalServerError)
	ErrProvider      = NewError("PROVIDER_ERROR", "failed to send email", http.StatusInternalServerError)
	ErrInternal      = NewError("INTERNAL_ERROR", "server error", http.StatusInternalServerError)
	ErrNotFound      = NewError("NOT_FOUND", "not found", http.StatusNotFound)
	ErrRateLimited   = NewError("RATE_LIMITED", "rate limit exceeded", http.StatusTooManyRequests)
)

// Error is the application error carried from the pipeline to the HTTP layer.
// Message is the short, machine-stable string returned to clients.
type Error struct {
	Code    string
	Message string
	Status  int
	Details string
	Cause   error
}

func NewError(code, message string, status int) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}

	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on Code so sentinels compare equal to their derived copies.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && (t.Message == e.Message || isSentinel(t))
}

func isSentinel(e *Error) bool {
	switch e {
	case ErrValidation, ErrConfiguration, ErrProvider, ErrInternal, ErrNotFound, ErrRateLimited:
		return true
	}
	return false
}

func (e *Error) WithMessage(message string) *Error {
	err := *e
	err.Message = message
	return &err
}

func (e *Error) WithCause(cause error) *Error {
	err := *e
	err.Cause = cause
	return &err
}

func (e *Error) WithDetails(details string) *Error {
	err := *e
	err.Details = details
	return &err
}

func Wrap(err error, appErr *Error) *Error {
	if err == nil {
		return nil
	}
	return appErr.WithCause(err)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrValidation.Code)
}

func IsConfiguration(err error) bool {
	return hasCode(err, ErrConfiguration.Code)
}

func IsProvider(err error) bool {
	return hasCode(err, ErrProvider.Code)
}

func hasCode(err error, code string) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func ToHTTPStatus(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the failure body every endpoint returns.
type ErrorResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ToErrorResponse maps err to the client body. Unknown errors collapse to the
// generic internal message; details are only exposed for provider failures.
func ToErrorResponse(err error) ErrorResponse {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = ErrInternal.WithCause(err)
	}

	response := ErrorResponse{
		OK:    false,
		Error: appErr.Message,
	}

	if appErr.Code == ErrProvider.Code && appErr.Details != "" {
		response.Details = appErr.Details
	}

	return response
}
