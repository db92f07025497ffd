package middleware

import (
	"net/http"

	"github.com/kbukum/licensing/messages"
)

// Language picks the response language from Accept-Language and stores it
// in the request context for message lookups.
func Language(catalog *messages.Catalog) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tag := catalog.Match(r.Header.Get("Accept-Language"))
			w.Header().Set("Content-Language", tag.String())
			next.ServeHTTP(w, r.WithContext(messages.WithLanguage(r.Context(), tag)))
		})
	}
}
