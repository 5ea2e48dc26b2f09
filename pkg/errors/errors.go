package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard sentinel errors for common cases.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrPaymentFailed  = errors.New("payment failed")
	ErrGone           = errors.New("gone")
)

// Sentinel errors for promotion code rejections. Every one of these is a
// per-request recoverable condition surfaced to the caller as a rejection
// reason, never a process-level failure.
var (
	ErrCodeInactive    = errors.New("code is inactive")
	ErrCodeExpired     = errors.New("code has expired")
	ErrUsageExceeded   = errors.New("usage limit reached")
	ErrBelowMinimum    = errors.New("order below minimum")
	ErrNoBalance       = errors.New("no balance remaining")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// AppError represents a structured application error with HTTP status mapping.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     ErrUnauthorized,
	}
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrForbidden,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// PaymentFailed creates a 422 error for a payment charge failure.
func PaymentFailed(message string) *AppError {
	return &AppError{
		Code:    "PAYMENT_FAILED",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrPaymentFailed,
	}
}

// Conflict creates a 409 error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrConflict,
	}
}

// Gone creates a 410 error.
func Gone(message string) *AppError {
	return &AppError{
		Code:    "GONE",
		Message: message,
		Status:  http.StatusGone,
		Err:     ErrGone,
	}
}

// CodeInactive creates a 422 error for a disabled coupon or gift card.
func CodeInactive(message string) *AppError {
	return &AppError{
		Code:    "CODE_INACTIVE",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrCodeInactive,
	}
}

// CodeExpired creates a 422 error for a coupon or gift card past its validity window.
func CodeExpired(message string) *AppError {
	return &AppError{
		Code:    "CODE_EXPIRED",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrCodeExpired,
	}
}

// UsageExceeded creates a 409 error for a coupon at its redemption cap.
func UsageExceeded(message string) *AppError {
	return &AppError{
		Code:    "USAGE_EXCEEDED",
		Message: message,
		Status:  http.StatusConflict,
		Err:     ErrUsageExceeded,
	}
}

// BelowMinimum creates a 422 error for a subtotal under the coupon minimum.
func BelowMinimum(message string) *AppError {
	return &AppError{
		Code:    "BELOW_MINIMUM",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrBelowMinimum,
	}
}

// NoBalance creates a 422 error for a gift card with nothing left to redeem.
func NoBalance(message string) *AppError {
	return &AppError{
		Code:    "NO_BALANCE",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrNoBalance,
	}
}

// InvalidQuantity creates a 400 error for a cart operation that would produce
// a non-positive or non-integer quantity.
func InvalidQuantity(message string) *AppError {
	return &AppError{
		Code:    "INVALID_QUANTITY",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidQuantity,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrPaymentFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrGone):
		return http.StatusGone
	case errors.Is(err, ErrUsageExceeded):
		return http.StatusConflict
	case errors.Is(err, ErrCodeInactive), errors.Is(err, ErrCodeExpired),
		errors.Is(err, ErrBelowMinimum), errors.Is(err, ErrNoBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidQuantity):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
