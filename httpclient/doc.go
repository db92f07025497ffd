// Package httpclient provides the HTTP transport used by the downstream
// clients: a single-exchange Adapter, typed JSON helpers, and a small
// declarative layer (Endpoint, Target, Proxy) for feign-style clients.
//
// Every failure is returned as an *errors.AppError whose cause is the
// classified *Error, so the resilience policy can decide retryability from
// the AppError while callers can still match transport details with
// IsTimeout, IsNotFound and friends.
//
// Outbound requests carry the tmx-* identity headers of the request context
// and the W3C trace context.
//
// # Basic Usage
//
//	client, _ := httpclient.New(httpclient.Config{
//	    Name:    "organization-service",
//	    BaseURL: "http://localhost:8081",
//	    Timeout: 5 * time.Second,
//	})
//
//	org, err := httpclient.Get[Organization](client, ctx, "/v1/organization/42")
//
// # Declarative endpoints
//
//	proxy := httpclient.NewProxy(client, target)
//	org, err := httpclient.Call[Organization](ctx, proxy, getOrganization,
//	    map[string]string{"organizationId": id}, nil)
package httpclient
