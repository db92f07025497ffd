package provider

import "context"

// Adapt exposes inner, which speaks the transport types [BI, BO], as a
// RequestResponse over the domain types [I, O]. encode builds the transport
// request and decode turns the transport response into the domain value.
// When encode fails inner is not called.
func Adapt[I, O, BI, BO any](
	inner RequestResponse[BI, BO],
	name string,
	encode func(ctx context.Context, in I) (BI, error),
	decode func(out BO) (O, error),
) RequestResponse[I, O] {
	return &adapted[I, O, BI, BO]{inner: inner, name: name, encode: encode, decode: decode}
}

type adapted[I, O, BI, BO any] struct {
	inner  RequestResponse[BI, BO]
	name   string
	encode func(context.Context, I) (BI, error)
	decode func(BO) (O, error)
}

func (a *adapted[I, O, BI, BO]) Name() string { return a.name }

func (a *adapted[I, O, BI, BO]) IsAvailable(ctx context.Context) bool {
	return a.inner.IsAvailable(ctx)
}

func (a *adapted[I, O, BI, BO]) Execute(ctx context.Context, in I) (O, error) {
	var zero O
	req, err := a.encode(ctx, in)
	if err != nil {
		return zero, err
	}
	resp, err := a.inner.Execute(ctx, req)
	if err != nil {
		return zero, err
	}
	return a.decode(resp)
}
