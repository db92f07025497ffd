package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/kbukum/licensing/errors"
	"github.com/kbukum/licensing/logger"
)

// Recovery returns middleware that recovers from panics, logs the stack and
// answers with an INTERNAL_ERROR body.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.WithContext(r.Context()).Error("Panic recovered", logger.Fields(
						logger.FieldError, fmt.Sprintf("%v", rec),
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
						"method", r.Method,
					))
					appErr := apperrors.Internal(fmt.Errorf("panic: %v", rec))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(appErr.HTTPStatus)
					_ = json.NewEncoder(w).Encode(appErr.ToResponse())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
