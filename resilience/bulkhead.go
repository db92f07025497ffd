package resilience

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrBulkheadFull is returned when no slot is available within MaxWait.
var ErrBulkheadFull = errors.New("bulkhead is full")

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead for metrics/logging.
	Name string
	// MaxConcurrent is the maximum number of concurrent calls.
	MaxConcurrent int
	// MaxWait is how long to wait for a slot. 0 means fail immediately.
	MaxWait time.Duration
}

// Bulkhead bounds the number of calls in flight against one downstream.
type Bulkhead struct {
	config   BulkheadConfig
	sem      *semaphore.Weighted
	inFlight atomic.Int64
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = DefaultPolicyConfig().BulkheadMaxConcurrent
	}
	return &Bulkhead{
		config: config,
		sem:    semaphore.NewWeighted(int64(config.MaxConcurrent)),
	}
}

// Acquire takes a slot, waiting at most MaxWait. Every successful Acquire
// must be paired with Release.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	if b.config.MaxWait <= 0 {
		if !b.sem.TryAcquire(1) {
			return ErrBulkheadFull
		}
	} else {
		waitCtx, cancel := context.WithTimeout(ctx, b.config.MaxWait)
		defer cancel()
		if err := b.sem.Acquire(waitCtx, 1); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return ErrBulkheadFull
		}
	}
	b.inFlight.Add(1)
	return nil
}

// Release frees a slot taken by Acquire.
func (b *Bulkhead) Release() {
	b.inFlight.Add(-1)
	b.sem.Release(1)
}

// InUse returns the number of calls currently holding a slot.
func (b *Bulkhead) InUse() int {
	return int(b.inFlight.Load())
}

// Available returns the number of free slots.
func (b *Bulkhead) Available() int {
	return b.config.MaxConcurrent - b.InUse()
}

// MaxConcurrent returns the slot count.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrent
}
