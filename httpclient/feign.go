package httpclient

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Endpoint declares one remote operation as data: an HTTP method and a path
// template whose {name} segments are filled from call arguments.
//
//	var getOrganization = httpclient.Endpoint{
//	    Method: http.MethodGet,
//	    Path:   "/v1/organization/{organizationId}",
//	}
type Endpoint struct {
	Method string
	Path   string
}

// Expand substitutes the path parameters of e. Values are path-escaped.
// A placeholder without a value is an error.
func (e Endpoint) Expand(params map[string]string) (string, error) {
	var b strings.Builder
	rest := e.Path
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("httpclient: unterminated parameter in %q", e.Path)
		}
		name := rest[open+1 : open+end]
		v, ok := params[name]
		if !ok || v == "" {
			return "", fmt.Errorf("httpclient: missing path parameter %q for %q", name, e.Path)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(v))
		rest = rest[open+end+1:]
	}
	return b.String(), nil
}

// Target resolves the base URL of a named service for one call.
type Target interface {
	// Service is the logical service name the target resolves.
	Service() string
	// BaseURL returns the base URL to use for the next call.
	BaseURL(ctx context.Context) (string, error)
}

// StaticTarget is a Target with a fixed address.
type StaticTarget struct {
	Name string
	URL  string
}

// Service returns the target name.
func (t StaticTarget) Service() string { return t.Name }

// BaseURL returns the fixed URL.
func (t StaticTarget) BaseURL(context.Context) (string, error) { return t.URL, nil }

// Proxy binds declared endpoints to a Target and performs the calls through
// an Adapter.
type Proxy struct {
	adapter *Adapter
	target  Target
}

// NewProxy creates a proxy for target. The adapter should have an empty
// BaseURL since every call resolves its own address.
func NewProxy(adapter *Adapter, target Target) *Proxy {
	return &Proxy{adapter: adapter, target: target}
}

// Service returns the name of the proxied service.
func (p *Proxy) Service() string { return p.target.Service() }

// Call invokes ep on the proxy's target and decodes the JSON response into T.
// Resolution failures are returned as-is so callers see the registry error.
func Call[T any](ctx context.Context, p *Proxy, ep Endpoint, params map[string]string, body any) (T, error) {
	var zero T

	path, err := ep.Expand(params)
	if err != nil {
		return zero, toAppError(p.target.Service(), NewValidationError(err.Error()))
	}
	base, err := p.target.BaseURL(ctx)
	if err != nil {
		return zero, err
	}

	full := strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
	resp, err := send[T](p.adapter, ctx, Request{Method: ep.Method, Path: full, Body: body})
	if err != nil {
		return zero, err
	}
	return resp.Data, nil
}
