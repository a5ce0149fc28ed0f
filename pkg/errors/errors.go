package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/crewboard/crewboard-backend/pkg/i18n"
)

// Standard error types
var (
	ErrNotFound           = errors.New("resource not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternal           = errors.New("internal server error")
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrRateLimited        = errors.New("rate limited")
)

// AppError represents an application error with context
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"` // i18n key for localization
	Params     map[string]string `json:"-"`
	Code       string            `json:"code"`
	StatusCode int               `json:"status_code"`
	Details    map[string]string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Localize returns the message in the request's locale. Errors without a
// message key keep their English text.
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	loc := i18n.LocalizerFromContext(ctx)
	params := e.Params
	if key, ok := e.Params[resourceKeyParam]; ok {
		params = make(map[string]string, len(e.Params))
		for k, v := range e.Params {
			params[k] = v
		}
		if name := loc.T("resources." + key); name != "resources."+key {
			params["resource"] = name
		}
	}
	return loc.T(e.MessageKey, params)
}

const resourceKeyParam = "resource_key"

// WithDetails adds details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code string, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{Err: err, Code: code, Message: message, StatusCode: statusCode}
}

// NotFound uses resourceKey both as the English fallback and as the
// resources.* i18n key.
func NotFound(resourceKey string) *AppError {
	name := i18n.T("resources." + resourceKey)
	if name == "resources."+resourceKey {
		name = resourceKey
	}
	return &AppError{
		Err:        ErrNotFound,
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", name),
		MessageKey: "errors.not_found",
		Params:     map[string]string{"resource": name, resourceKeyParam: resourceKey},
		StatusCode: http.StatusNotFound,
	}
}

func Unauthorized(message string) *AppError {
	return &AppError{
		Err:        ErrUnauthorized,
		Code:       "UNAUTHORIZED",
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "FORBIDDEN",
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

// RowSecurity is returned when the database refuses a write through a
// row-level security policy.
func RowSecurity() *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "FORBIDDEN",
		Message:    "access to this job site is not permitted",
		MessageKey: "errors.row_security",
		StatusCode: http.StatusForbidden,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "BAD_REQUEST",
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "CONFLICT",
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func Internal(message string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		MessageKey: "errors.internal",
		StatusCode: http.StatusInternalServerError,
	}
}

func Validation(details map[string]string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Code:       "VALIDATION_ERROR",
		Message:    "validation failed",
		MessageKey: "errors.validation_failed",
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

func InvalidCredentials() *AppError {
	return &AppError{
		Err:        ErrInvalidCredentials,
		Code:       "INVALID_CREDENTIALS",
		Message:    "invalid email or password",
		MessageKey: "errors.invalid_credentials",
		StatusCode: http.StatusUnauthorized,
	}
}

func TokenExpired() *AppError {
	return &AppError{
		Err:        ErrTokenExpired,
		Code:       "TOKEN_EXPIRED",
		Message:    "token has expired",
		MessageKey: "errors.token_expired",
		StatusCode: http.StatusUnauthorized,
	}
}

func TokenInvalid() *AppError {
	return &AppError{
		Err:        ErrTokenInvalid,
		Code:       "TOKEN_INVALID",
		Message:    "invalid token",
		MessageKey: "errors.token_invalid",
		StatusCode: http.StatusUnauthorized,
	}
}

func TooManyRequests() *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Code:       "TOO_MANY_REQUESTS",
		Message:    "too many attempts, try again later",
		MessageKey: "errors.too_many_requests",
		StatusCode: http.StatusTooManyRequests,
	}
}

// InvitationInvalid covers expired, revoked and already-accepted invitations.
func InvitationInvalid() *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "INVITATION_INVALID",
		Message:    "invitation is no longer valid",
		MessageKey: "errors.invitation_invalid",
		StatusCode: http.StatusGone,
	}
}

// AsAppError returns err as an *AppError, wrapping unknown errors as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	wrapped := Internal("an unexpected error occurred")
	wrapped.Err = err
	return wrapped
}

// IsNotFound reports whether err is a not-found AppError.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
