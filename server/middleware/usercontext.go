package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kbukum/licensing/usercontext"
)

// UserContext reads the tmx-* identity headers into the request context.
// A correlation id is generated when the caller sent none, and the id in use
// is echoed on the response.
func UserContext() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uc := usercontext.FromHeaders(r.Header)
			if uc.CorrelationID == "" {
				uc.CorrelationID = uuid.NewString()
				r.Header.Set(usercontext.HeaderCorrelationID, uc.CorrelationID)
			}
			w.Header().Set(usercontext.HeaderCorrelationID, uc.CorrelationID)
			next.ServeHTTP(w, r.WithContext(usercontext.WithContext(r.Context(), uc)))
		})
	}
}
