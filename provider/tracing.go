package provider

import (
	"context"

	"github.com/kbukum/licensing/observability"
)

// WithTracing returns a Middleware that opens a downstream.call span around
// each Execute call, tagged with the calling service and the provider name.
func WithTracing[I, O any](serviceName string) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &tracingRR[I, O]{inner: inner, serviceName: serviceName}
	}
}

type tracingRR[I, O any] struct {
	inner       RequestResponse[I, O]
	serviceName string
}

func (t *tracingRR[I, O]) Name() string                         { return t.inner.Name() }
func (t *tracingRR[I, O]) IsAvailable(ctx context.Context) bool { return t.inner.IsAvailable(ctx) }

func (t *tracingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanDownstreamCall)
	defer span.End()

	observability.SetSpanAttribute(ctx, observability.AttrServiceName, t.serviceName)
	observability.SetSpanAttribute(ctx, observability.AttrClientType, t.inner.Name())

	output, err := t.inner.Execute(ctx, input)
	if err != nil {
		observability.SetSpanError(ctx, err)
		observability.SetSpanAttribute(ctx, observability.AttrStatus, "error")
		return output, err
	}
	observability.SetSpanAttribute(ctx, observability.AttrStatus, "ok")
	return output, nil
}
