package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeNotFound, "not found", http.StatusNotFound)
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "not found" {
		t.Errorf("expected message 'not found', got %q", err.Message)
	}
	if err.HTTPStatus != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, err.HTTPStatus)
	}
	if err.Retryable {
		t.Error("NOT_FOUND should not be retryable")
	}
}

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeCanceled, "canceled", http.StatusServiceUnavailable)
	if !err.Retryable {
		t.Error("CANCELED should be retryable")
	}
}

func TestAppError_MissingColumns(t *testing.T) {
	err := MissingColumns("Hdiff", "t")
	if err.Code != ErrCodeSchema {
		t.Errorf("expected SCHEMA_ERROR, got %s", err.Code)
	}
	if !strings.Contains(err.Message, "Hdiff, t") {
		t.Errorf("expected both columns in message, got %q", err.Message)
	}
	cols, ok := err.Details["columns"].([]string)
	if !ok || len(cols) != 2 {
		t.Errorf("expected columns detail, got %v", err.Details["columns"])
	}
}

func TestAppError_Calibration(t *testing.T) {
	err := Calibration(9.6)
	if err.Code != ErrCodeCalibration {
		t.Errorf("expected CALIBRATION_ERROR, got %s", err.Code)
	}
	if err.HTTPStatus != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", err.HTTPStatus)
	}
	if err.Details["reference_diameter"] != 9.6 {
		t.Errorf("expected reference_diameter=9.6, got %v", err.Details["reference_diameter"])
	}
}

func TestAppError_RowFailures(t *testing.T) {
	err := RowFailures(2, 3).WithDetail("faults", []string{"a", "b", "c"})
	if err.Code != ErrCodeRowFailures {
		t.Errorf("expected ROW_FAILURES, got %s", err.Code)
	}
	if err.Details["rows"] != 2 || err.Details["count"] != 3 {
		t.Errorf("unexpected details %v", err.Details)
	}
	if _, ok := err.Details["faults"]; !ok {
		t.Error("expected faults detail to be attached")
	}
}

func TestAppError_NonFinite(t *testing.T) {
	err := NonFinite("P_avg", 4, 0)
	if err.Details["column"] != "P_avg" || err.Details["row"] != 4 {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Schema("bad header").WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := NotFound("item", "1").WithDetails(map[string]any{
		"extra": "info",
	})
	if err.Details["extra"] != "info" {
		t.Errorf("expected extra=info in details")
	}
	if err.Details["resource"] != "item" {
		t.Error("expected original details to be preserved")
	}

	err.WithDetails(map[string]any{
		"another": "detail",
	})
	if err.Details["another"] != "detail" {
		t.Error("expected another=detail to be merged")
	}
	if err.Details["extra"] != "info" {
		t.Error("expected extra=info to be preserved after second merge")
	}
}

func TestAppError_WithDetails_Nil(t *testing.T) {
	err := Internal(nil).WithDetails(nil)
	if err.Details == nil {
		t.Fatal("expected Details map to be initialized even with nil input")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Unwrap_Success(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := Internal(cause)
	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	err2 := NotFound("x", "")
	if err2.Unwrap() != nil {
		t.Error("Unwrap should return nil when no cause")
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name      string
		err       *AppError
		code      ErrorCode
		status    int
		retryable bool
	}{
		{"Schema", Schema("empty"), ErrCodeSchema, http.StatusBadRequest, false},
		{"MissingColumns", MissingColumns("D"), ErrCodeSchema, http.StatusBadRequest, false},
		{"Calibration", Calibration(9.6), ErrCodeCalibration, http.StatusUnprocessableEntity, false},
		{"RowFailures", RowFailures(1, 1), ErrCodeRowFailures, http.StatusUnprocessableEntity, false},
		{"InvalidInput", InvalidInput("body", "empty"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput, http.StatusBadRequest, false},
		{"ServiceUnavailable", ServiceUnavailable(4), ErrCodeServiceUnavailable, http.StatusServiceUnavailable, true},
		{"RateLimited", RateLimited(0.5), ErrCodeRateLimited, http.StatusTooManyRequests, true},
		{"Canceled", Canceled("reynolds", nil), ErrCodeCanceled, http.StatusServiceUnavailable, true},
		{"Internal", Internal(nil), ErrCodeInternal, http.StatusInternalServerError, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
			if tc.err.HTTPStatus != tc.status {
				t.Errorf("expected status %d, got %d", tc.status, tc.err.HTTPStatus)
			}
			if tc.err.Retryable != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, tc.err.Retryable)
			}
		})
	}
}

func TestErrorCode_IsRowCode(t *testing.T) {
	for _, code := range []ErrorCode{ErrCodeDegenerateInput, ErrCodeDomain} {
		if !IsRowCode(code) {
			t.Errorf("expected %s to be a row code", code)
		}
	}
	for _, code := range []ErrorCode{ErrCodeSchema, ErrCodeCalibration, ErrCodeRowFailures, ErrCodeInternal} {
		if IsRowCode(code) {
			t.Errorf("expected %s to NOT be a row code", code)
		}
	}
}

func TestAppError_ToResponse_Success(t *testing.T) {
	err := MissingColumns("t")
	resp := err.ToResponse()
	if resp.Error.Code != ErrCodeSchema {
		t.Errorf("expected code SCHEMA_ERROR in response, got %s", resp.Error.Code)
	}
	if resp.Error.Retryable {
		t.Error("expected retryable=false in response")
	}
	if resp.Error.Details["columns"] == nil {
		t.Error("expected columns in response details")
	}
}

func TestIs(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", Calibration(9.6))
	if !Is(wrapped, ErrCodeCalibration) {
		t.Error("expected Is to match wrapped calibration error")
	}
	if Is(wrapped, ErrCodeSchema) {
		t.Error("expected Is to reject a different code")
	}
	if Is(fmt.Errorf("plain"), ErrCodeSchema) {
		t.Error("expected Is to reject a plain error")
	}
}

func TestAppError_AsAppError_Success(t *testing.T) {
	appErr := Internal(nil)
	wrapped := fmt.Errorf("wrap: %w", appErr)

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}

	_, ok = AsAppError(fmt.Errorf("not an app error"))
	if ok {
		t.Error("expected AsAppError to return false for non-AppError")
	}
}

func TestWrap_NilReturnsNil(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrap_AppErrorPassthrough(t *testing.T) {
	orig := Schema("x")
	if got := Wrap(orig); got != orig {
		t.Error("Wrap should return the original AppError unchanged")
	}
}

func TestWrap_PlainError(t *testing.T) {
	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if got.Cause != plain {
		t.Error("expected cause to be the original error")
	}
}

func TestAppError_ImplementsErrorInterface(t *testing.T) {
	var err error = Calibration(9.6)
	if err.Error() == "" {
		t.Error("Error() should not be empty")
	}

	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		t.Error("stderrors.As should work with AppError")
	}
}
