package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Table errors (fatal, whole-table)
const (
	// ErrCodeSchema indicates the input table is missing a required column or
	// carries a non-numeric or non-finite value.
	ErrCodeSchema ErrorCode = "SCHEMA_ERROR"
	// ErrCodeCalibration indicates no usable reference-diameter trial exists.
	ErrCodeCalibration ErrorCode = "CALIBRATION_ERROR"
)

// Row errors (per-row, non-fatal)
const (
	// ErrCodeDegenerateInput indicates a zero divisor for a row.
	ErrCodeDegenerateInput ErrorCode = "DEGENERATE_INPUT"
	// ErrCodeDomain indicates a non-positive logarithm or square-root argument,
	// or a non-finite intermediate result.
	ErrCodeDomain ErrorCode = "DOMAIN_ERROR"
	// ErrCodeRowFailures aggregates the row errors of a single run.
	ErrCodeRowFailures ErrorCode = "ROW_FAILURES"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Admission errors
const (
	// ErrCodeServiceUnavailable indicates every compute slot is busy.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeRateLimited indicates the client exceeded the request rate.
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodeCanceled indicates the run was abandoned by its caller.
	ErrCodeCanceled ErrorCode = "CANCELED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeRateLimited:        true,
	ErrCodeCanceled:           true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsRowCode reports whether code describes a per-row fault rather than a
// whole-table failure.
func IsRowCode(code ErrorCode) bool {
	return code == ErrCodeDegenerateInput || code == ErrCodeDomain
}
