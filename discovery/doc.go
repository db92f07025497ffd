// Package discovery resolves logical service names to concrete instances.
//
// A Discovery backend lists the instances of a service; Client adds a TTL
// cache, health filtering and load balancing (random, round-robin,
// weighted) on top of it; Target adapts a Client to httpclient.Target so
// declarative proxies resolve an address per call. Component manages the
// backend lifecycle and, when configured, registers this service.
//
// # Backends
//
//   - discovery/consul: HashiCorp Consul health catalog and agent registration
//   - discovery/static: endpoints listed in configuration
//
// Backends register themselves on import:
//
//	import (
//	    _ "github.com/kbukum/licensing/discovery/consul"
//	    _ "github.com/kbukum/licensing/discovery/static"
//	)
package discovery
