package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestBulkhead_AcquireRelease(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 2})

	if err := b.Acquire(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.InUse() != 1 || b.Available() != 1 {
		t.Errorf("expected 1 in use and 1 available, got %d/%d", b.InUse(), b.Available())
	}
	b.Release()
	if b.InUse() != 0 {
		t.Errorf("expected 0 in use after Release, got %d", b.InUse())
	}
}

func TestBulkhead_RejectsWhenFull(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 2})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := b.Acquire(ctx); err != nil {
			t.Fatalf("Acquire %d: %v", i, err)
		}
	}
	if b.Available() != 0 {
		t.Errorf("expected 0 available, got %d", b.Available())
	}

	if err := b.Acquire(ctx); !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}

	b.Release()
	if err := b.Acquire(ctx); err != nil {
		t.Errorf("expected slot after Release, got %v", err)
	}
}

func TestBulkhead_WaitsUpToMaxWait(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: 200 * time.Millisecond})
	ctx := context.Background()

	if err := b.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		b.Release()
	}()

	if err := b.Acquire(ctx); err != nil {
		t.Errorf("expected queued Acquire to succeed, got %v", err)
	}
}

func TestBulkhead_MaxWaitExpires(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	ctx := context.Background()

	if err := b.Acquire(ctx); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	err := b.Acquire(ctx)
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("Acquire returned before MaxWait elapsed")
	}
}

func TestBulkhead_CallerCancellation(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: 1, MaxWait: time.Second})
	if err := b.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestBulkhead_NeverExceedsMaxConcurrent(t *testing.T) {
	const max = 3
	const callers = 20
	b := NewBulkhead(BulkheadConfig{Name: "test", MaxConcurrent: max})

	var (
		current, peak atomic.Int32
		rejected      atomic.Int32
		entered       atomic.Int32
		wg            sync.WaitGroup
	)
	release := make(chan struct{})

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := b.Acquire(context.Background()); err != nil {
				if errors.Is(err, ErrBulkheadFull) {
					rejected.Add(1)
				}
				return
			}
			defer b.Release()
			n := current.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			entered.Add(1)
			<-release
			current.Add(-1)
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	// Admitted callers block until release, so every caller has either
	// entered or been rejected once the sum reaches callers.
	for entered.Load()+rejected.Load() < callers && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	if peak.Load() > max {
		t.Errorf("peak concurrency %d exceeds %d", peak.Load(), max)
	}
	if rejected.Load() == 0 {
		t.Error("expected at least one ErrBulkheadFull")
	}
	if b.InUse() != 0 {
		t.Errorf("expected all slots released, got %d in use", b.InUse())
	}
}
