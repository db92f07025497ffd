package usercontext

import (
	"context"
	"net/http"
	"testing"
)

func TestFromContext_NotSet(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no user context")
	}
	if got := CorrelationID(context.Background()); got != "" {
		t.Errorf("expected empty correlation id, got %q", got)
	}
}

func TestHeadersRoundTrip(t *testing.T) {
	in := http.Header{}
	in.Set(HeaderCorrelationID, "corr-1")
	in.Set(HeaderUserID, "user-1")
	in.Set(HeaderOrganizationID, "O1")

	ctx := WithContext(context.Background(), FromHeaders(in))
	if got := CorrelationID(ctx); got != "corr-1" {
		t.Errorf("expected corr-1, got %q", got)
	}

	out := http.Header{}
	Inject(ctx, out)
	for _, h := range []string{HeaderCorrelationID, HeaderUserID, HeaderOrganizationID} {
		if out.Get(h) != in.Get(h) {
			t.Errorf("header %s: expected %q, got %q", h, in.Get(h), out.Get(h))
		}
	}
}

func TestInject_SkipsEmpty(t *testing.T) {
	ctx := WithContext(context.Background(), UserContext{CorrelationID: "c"})
	out := http.Header{}
	Inject(ctx, out)
	if _, ok := out[http.CanonicalHeaderKey(HeaderUserID)]; ok {
		t.Error("empty user id should not be injected")
	}
}
