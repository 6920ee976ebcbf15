package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// Is reports whether err is an AppError carrying code.
func Is(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap converts any error into an AppError. AppErrors anywhere in the chain
// are returned as-is; other errors become INTERNAL_ERROR with the original as cause.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// --- Table errors ---

// Schema creates a new AppError for an input table that cannot be processed.
func Schema(reason string) *AppError {
	return &AppError{
		Code: ErrCodeSchema, Message: fmt.Sprintf("Invalid trial table: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// MissingColumns creates a schema error naming every absent column.
func MissingColumns(columns ...string) *AppError {
	return &AppError{
		Code: ErrCodeSchema, Message: fmt.Sprintf("Missing required column(s): %s", strings.Join(columns, ", ")),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"columns": columns},
	}
}

// NonFinite creates a schema error for a NaN or infinite input cell.
func NonFinite(column string, row int, value float64) *AppError {
	return &AppError{
		Code: ErrCodeSchema, Message: fmt.Sprintf("Column %s row %d is not a finite number", column, row),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"column": column, "row": row, "value": fmt.Sprint(value)},
	}
}

// Calibration creates a new AppError for a run with no usable reference trial.
func Calibration(referenceDiameter float64) *AppError {
	return &AppError{
		Code: ErrCodeCalibration, Message: fmt.Sprintf("No valid trial matches the reference diameter %g mm", referenceDiameter),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"reference_diameter": referenceDiameter},
	}
}

// RowFailures creates a new AppError summarising the row errors of a run.
// Callers attach the individual faults with WithDetail("faults", ...).
func RowFailures(rows, faults int) *AppError {
	return &AppError{
		Code: ErrCodeRowFailures, Message: fmt.Sprintf("%d row(s) failed validity checks (%d fault(s))", rows, faults),
		HTTPStatus: http.StatusUnprocessableEntity, Retryable: false,
		Details: map[string]any{"rows": rows, "count": faults},
	}
}

// --- Request errors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Retryable: false, Details: details,
	}
}

// --- Admission errors ---

// ServiceUnavailable creates a new AppError for a request turned away because
// all limit slots are busy.
func ServiceUnavailable(limit int) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: "All compute slots are busy. Please try again.",
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"limit": limit},
	}
}

// RateLimited creates a new AppError for too many requests. retryAfter is
// the wait in seconds before a request would be admitted.
func RateLimited(retryAfter float64) *AppError {
	return &AppError{
		Code: ErrCodeRateLimited, Message: "Too many requests. Please wait a moment and try again.",
		HTTPStatus: http.StatusTooManyRequests, Retryable: true,
		Details: map[string]any{"retry_after": retryAfter},
	}
}

// --- Internal errors ---

// Canceled creates a new AppError for a run abandoned between stages.
func Canceled(stage string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: fmt.Sprintf("Run canceled before stage %s", stage),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"stage": stage}, Cause: cause,
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
