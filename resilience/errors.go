package resilience

import (
	"errors"

	apperrors "github.com/kbukum/licensing/errors"
)

// ToAppError maps a policy rejection to an AppError for callers that expose
// failures over HTTP. Errors that already carry an AppError are returned as
// that AppError; other errors pass through unchanged.
func ToAppError(err error) error {
	if err == nil {
		return nil
	}
	var re *RejectionError
	if !errors.As(err, &re) {
		return err
	}

	var out *apperrors.AppError
	switch re.Reason {
	case ReasonCircuitOpen, ReasonBulkheadFull:
		out = apperrors.ServiceUnavailable(re.Policy)
	case ReasonRateLimited:
		out = apperrors.RateLimited()
	case ReasonAttemptTimeout:
		out = apperrors.Timeout(re.Policy)
	default:
		if appErr, ok := apperrors.AsAppError(re.Err); ok {
			return appErr
		}
		out = apperrors.ExternalServiceError(re.Policy, re.Err)
	}
	return out.WithCause(err).WithDetail("reason", string(re.Reason))
}
