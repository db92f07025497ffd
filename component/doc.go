// Package component defines the lifecycle contract of the service's
// infrastructure pieces (database, discovery, HTTP server) and a Registry
// that starts them in order and stops them in reverse.
package component
