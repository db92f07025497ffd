// Package provider implements a small generic provider framework for
// swappable downstream clients.
//
// RequestResponse[I, O] is the one interaction pattern: one input, one
// output. Concrete clients (REST, discovery-resolved REST, declarative
// feign-style) implement it, and ModeSelector picks one by mode name at
// call time, falling back to a default for unknown modes.
//
// # Middleware
//
// Middleware[I, O] is a function that wraps a RequestResponse provider.
// Use Chain to compose multiple middlewares:
//
//	wrapped := provider.Chain(
//	    provider.WithLogging[In, Out](log),
//	    provider.WithMetrics[In, Out](metrics),
//	    provider.WithTracing[In, Out]("license-service"),
//	)(rawProvider)
//
// # Resilience
//
// WithResilience runs every call through a shared resilience.Policy. With
// a fallback the wrapped provider never fails; without one, rejections
// come back as AppErrors:
//
//	org := provider.WithResilience(client, registry.Get("organization-service"),
//	    func(id string, reason resilience.Reason, err error) Organization {
//	        return Unavailable(id)
//	    })
package provider
