package database

import (
	"context"

	"github.com/kbukum/licensing/provider"
)

var _ provider.Provider = (*DB)(nil)

// Name returns the driver name (implements provider.Provider).
func (d *DB) Name() string {
	return d.cfg.Driver
}

// IsAvailable reports whether the pool is open and answers a ping.
func (d *DB) IsAvailable(ctx context.Context) bool {
	d.mu.Lock()
	closed := d.closed
	d.mu.Unlock()
	if closed {
		return false
	}
	return d.PingContext(ctx) == nil
}
