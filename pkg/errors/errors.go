package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fuelshift/fuelshift-backend/pkg/i18n"
)

// Sentinel errors wrapped by every AppError so errors.Is works across layers
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
	ErrSessionExpired     = errors.New("session expired")
	ErrAccountSuspended   = errors.New("account suspended")
	ErrInvitePending      = errors.New("invite pending")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrUnavailable        = errors.New("service unavailable")
	ErrTooManyRequests    = errors.New("too many requests")
)

// AppError represents an application error with an HTTP status and i18n key
type AppError struct {
	Err        error             `json:"-"`
	Message    string            `json:"message"`
	MessageKey string            `json:"-"`
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

// Localize returns the message in the locale carried by ctx
func (e *AppError) Localize(ctx context.Context) string {
	if e.MessageKey == "" {
		return e.Message
	}
	return i18n.TFromContext(ctx, e.MessageKey, e.Params)
}

// WithDetails adds field-level details to an AppError
func (e *AppError) WithDetails(details map[string]string) *AppError {
	e.Details = details
	return e
}

// New creates an AppError without an i18n key
func New(code string, message string, statusCode int) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: statusCode}
}

// Wrap wraps an error with additional context
func Wrap(err error, code string, message string, statusCode int) *AppError {
	return &AppError{Err: err, Code: code, Message: message, StatusCode: statusCode}
}

func newKeyed(sentinel error, code, key, message string, status int) *AppError {
	return &AppError{
		Err:        sentinel,
		Code:       code,
		Message:    message,
		MessageKey: key,
		StatusCode: status,
	}
}

func NotFound(resource string) *AppError {
	e := newKeyed(ErrNotFound, "NOT_FOUND", "errors.not_found", resource+" not found", http.StatusNotFound)
	e.Params = map[string]string{"resource": resource}
	return e
}

func Unauthorized(message string) *AppError {
	return newKeyed(ErrUnauthorized, "UNAUTHORIZED", "errors.unauthorized", message, http.StatusUnauthorized)
}

func Forbidden(message string) *AppError {
	return newKeyed(ErrForbidden, "FORBIDDEN", "errors.forbidden", message, http.StatusForbidden)
}

func BadRequest(message string) *AppError {
	return newKeyed(ErrBadRequest, "BAD_REQUEST", "errors.bad_request", message, http.StatusBadRequest)
}

func Conflict(message string) *AppError {
	return newKeyed(ErrConflict, "CONFLICT", "errors.conflict", message, http.StatusConflict)
}

// DuplicateShift is the conflict returned when a (pump, date, shift type) slot is taken
func DuplicateShift() *AppError {
	return newKeyed(ErrConflict, "DUPLICATE_SHIFT", "errors.duplicate_shift",
		"a shift for this pump, date and shift type has already been submitted", http.StatusConflict)
}

func Internal(message string) *AppError {
	return newKeyed(ErrInternal, "INTERNAL_ERROR", "errors.internal", message, http.StatusInternalServerError)
}

func Validation(details map[string]string) *AppError {
	e := newKeyed(ErrValidation, "VALIDATION_ERROR", "errors.validation_failed", "validation failed", http.StatusBadRequest)
	e.Details = details
	return e
}

func InvalidCredentials() *AppError {
	return newKeyed(ErrInvalidCredentials, "INVALID_CREDENTIALS", "errors.invalid_credentials",
		"invalid username or password", http.StatusUnauthorized)
}

func TokenExpired() *AppError {
	return newKeyed(ErrTokenExpired, "TOKEN_EXPIRED", "errors.token_expired", "token has expired", http.StatusUnauthorized)
}

func TokenInvalid() *AppError {
	return newKeyed(ErrTokenInvalid, "TOKEN_INVALID", "errors.token_invalid", "invalid token", http.StatusUnauthorized)
}

func SessionExpired() *AppError {
	return newKeyed(ErrSessionExpired, "SESSION_EXPIRED", "errors.session_expired", "session has expired", http.StatusUnauthorized)
}

func AccountSuspended() *AppError {
	return newKeyed(ErrAccountSuspended, "ACCOUNT_SUSPENDED", "errors.account_suspended", "account is suspended", http.StatusForbidden)
}

func InvitePending() *AppError {
	return newKeyed(ErrInvitePending, "INVITE_PENDING", "errors.invite_pending", "invitation has not been accepted", http.StatusForbidden)
}

func TooManyRequests() *AppError {
	return newKeyed(ErrTooManyRequests, "TOO_MANY_REQUESTS", "errors.too_many_requests", "too many attempts, try again later", http.StatusTooManyRequests)
}

// InvalidTransition reports a shift state change the approval workflow does not allow
func InvalidTransition(from, to string) *AppError {
	e := newKeyed(ErrInvalidTransition, "INVALID_TRANSITION", "errors.invalid_transition",
		fmt.Sprintf("cannot move shift from %s to %s", from, to), http.StatusConflict)
	e.Params = map[string]string{"from": from, "to": to}
	return e
}

// ServiceUnavailable wraps an infrastructure failure (database unreachable, broker down)
func ServiceUnavailable(cause error) *AppError {
	e := newKeyed(ErrUnavailable, "SERVICE_UNAVAILABLE", "errors.service_unavailable",
		"service temporarily unavailable", http.StatusServiceUnavailable)
	if cause != nil {
		e.Err = fmt.Errorf("%w: %v", ErrUnavailable, cause)
	}
	return e
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}

// AsAppError returns the AppError in err's chain, if any
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
