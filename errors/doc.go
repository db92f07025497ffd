// Package errors provides the application error type shared by the licensing
// service. Errors carry a machine-readable code, an HTTP status and a
// retryable flag; the resilience layer uses the flag to decide whether a
// failed downstream attempt is worth repeating.
package errors
