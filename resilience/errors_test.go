package resilience

import (
	"errors"
	"net/http"
	"testing"

	apperrors "github.com/kbukum/licensing/errors"
)

func TestToAppError(t *testing.T) {
	notFound := apperrors.NotFound("organization", "O1")

	tests := []struct {
		name       string
		err        error
		wantCode   apperrors.ErrorCode
		wantStatus int
	}{
		{"circuit open", &RejectionError{Policy: "p", Reason: ReasonCircuitOpen, Err: ErrCircuitOpen}, apperrors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"bulkhead", &RejectionError{Policy: "p", Reason: ReasonBulkheadFull, Err: ErrBulkheadFull}, apperrors.ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
		{"rate limited", &RejectionError{Policy: "p", Reason: ReasonRateLimited, Err: ErrRateLimited}, apperrors.ErrCodeRateLimited, http.StatusTooManyRequests},
		{"timeout", &RejectionError{Policy: "p", Reason: ReasonAttemptTimeout, Err: ErrAttemptTimeout}, apperrors.ErrCodeTimeout, http.StatusGatewayTimeout},
		{"downstream app error", &RejectionError{Policy: "p", Reason: ReasonDownstreamFailed, Err: notFound}, apperrors.ErrCodeNotFound, http.StatusNotFound},
		{"downstream plain error", &RejectionError{Policy: "p", Reason: ReasonDownstreamFailed, Err: errBoom}, apperrors.ErrCodeExternalService, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr, ok := apperrors.AsAppError(ToAppError(tt.err))
			if !ok {
				t.Fatalf("expected AppError, got %v", ToAppError(tt.err))
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, appErr.Code)
			}
			if appErr.HTTPStatus != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, appErr.HTTPStatus)
			}
		})
	}
}

func TestToAppError_Passthrough(t *testing.T) {
	if ToAppError(nil) != nil {
		t.Error("nil should map to nil")
	}
	if !errors.Is(ToAppError(errBoom), errBoom) {
		t.Error("non-rejection errors should pass through")
	}
}
