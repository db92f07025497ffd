// Package bootstrap runs a service through its lifecycle: it validates the
// typed configuration, initializes logging, starts registered components in
// order, runs the configure callbacks that wire business services, waits
// for SIGINT/SIGTERM and shuts everything down in reverse order.
package bootstrap
