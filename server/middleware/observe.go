package middleware

import (
	"net/http"
	"strconv"

	"github.com/kbukum/licensing/observability"
	"github.com/kbukum/licensing/usercontext"
)

// Observe returns middleware that opens a span per request and records the
// request metrics. The OperationContext is stored in the request context.
// A nil metrics records spans only.
func Observe(serviceName string, metrics *observability.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isHealthEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			uc, _ := usercontext.FromContext(r.Context())
			oc := observability.NewOperationContext(serviceName, r.Method+" "+r.URL.Path, uc.CorrelationID, uc.UserID, metrics)
			ctx, span := oc.StartSpanForOperation(r.Context(), observability.SpanHTTPRequest)
			ctx = observability.WithOperationContext(ctx, oc)

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			var err error
			if sw.status >= http.StatusInternalServerError {
				err = errStatus(sw.status)
			}
			oc.EndOperation(ctx, span, strconv.Itoa(sw.status), err)
		})
	}
}

type errStatus int

func (e errStatus) Error() string { return "http status " + strconv.Itoa(int(e)) }
