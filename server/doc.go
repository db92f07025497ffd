// Package server provides the HTTP server for the licensing service: a Gin
// engine mounted on a ServeMux, wrapped with h2c so HTTP/2 cleartext
// clients share the port.
//
// ApplyMiddleware installs the net/http middleware stack from
// server/middleware (panic recovery, tmx-* user context propagation,
// request logging, CORS and a body-size limit). RegisterDefaultEndpoints
// adds the operational endpoints from server/endpoint:
//
//   - /health: component and resilience policy health
//   - /info: service version and VCS revision
//   - /metrics: runtime memory and goroutine counts
//   - /alive, /ready: liveness and readiness checks
//
// RespondOK, RespondCreated and RespondWithError write the JSON envelopes
// used by the API handlers. ServerComponent adapts Server to the component
// lifecycle.
package server
