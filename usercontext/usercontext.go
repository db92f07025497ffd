// Package usercontext carries the per-request identity headers of the
// licensing service through a context.Context.
package usercontext

import (
	"context"
	"net/http"
)

// Header names propagated between services.
const (
	HeaderCorrelationID  = "tmx-correlation-id"
	HeaderUserID         = "tmx-user-id"
	HeaderOrganizationID = "tmx-organization-id"
)

// UserContext holds the request-scoped identifiers.
type UserContext struct {
	CorrelationID  string
	UserID         string
	OrganizationID string
}

type contextKey struct{}

// WithContext stores uc in ctx.
func WithContext(ctx context.Context, uc UserContext) context.Context {
	return context.WithValue(ctx, contextKey{}, uc)
}

// FromContext returns the UserContext stored in ctx, if any.
func FromContext(ctx context.Context) (UserContext, bool) {
	uc, ok := ctx.Value(contextKey{}).(UserContext)
	return uc, ok
}

// CorrelationID returns the correlation id in ctx or "".
func CorrelationID(ctx context.Context) string {
	uc, _ := FromContext(ctx)
	return uc.CorrelationID
}

// FromHeaders reads the propagated headers from h.
func FromHeaders(h http.Header) UserContext {
	return UserContext{
		CorrelationID:  h.Get(HeaderCorrelationID),
		UserID:         h.Get(HeaderUserID),
		OrganizationID: h.Get(HeaderOrganizationID),
	}
}

// Inject writes the non-empty identifiers of the UserContext in ctx to h.
func Inject(ctx context.Context, h http.Header) {
	uc, ok := FromContext(ctx)
	if !ok {
		return
	}
	if uc.CorrelationID != "" {
		h.Set(HeaderCorrelationID, uc.CorrelationID)
	}
	if uc.UserID != "" {
		h.Set(HeaderUserID, uc.UserID)
	}
	if uc.OrganizationID != "" {
		h.Set(HeaderOrganizationID, uc.OrganizationID)
	}
}
