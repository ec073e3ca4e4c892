package resilience

import (
	"context"
	"sync/atomic"
	"time"
)

// BulkheadConfig configures a Bulkhead.
type BulkheadConfig struct {
	// MaxConcurrent is the number of operations allowed at once.
	// Default: 4
	MaxConcurrent int

	// MaxWait is how long to wait for a free slot. Zero fails immediately.
	MaxWait time.Duration
}

// Bulkhead limits concurrent operations with a counting semaphore.
type Bulkhead struct {
	cfg BulkheadConfig
	sem chan struct{}

	active   atomic.Int64
	rejected atomic.Int64
}

// NewBulkhead creates a Bulkhead.
func NewBulkhead(cfg BulkheadConfig) *Bulkhead {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 4
	}
	return &Bulkhead{
		cfg: cfg,
		sem: make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Acquire takes a slot or returns ErrBulkheadFull.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		b.active.Add(1)
		return nil
	default:
	}

	if b.cfg.MaxWait <= 0 {
		b.rejected.Add(1)
		return ErrBulkheadFull
	}

	timer := time.NewTimer(b.cfg.MaxWait)
	defer timer.Stop()

	select {
	case b.sem <- struct{}{}:
		b.active.Add(1)
		return nil
	case <-timer.C:
		b.rejected.Add(1)
		return ErrBulkheadFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (b *Bulkhead) Release() {
	select {
	case <-b.sem:
		b.active.Add(-1)
	default:
	}
}

// Execute runs op inside a slot.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()
	return op(ctx)
}

// BulkheadStats is a snapshot of bulkhead usage.
type BulkheadStats struct {
	Active        int
	MaxConcurrent int
	Rejected      int64
}

// Stats returns current usage.
func (b *Bulkhead) Stats() BulkheadStats {
	return BulkheadStats{
		Active:        int(b.active.Load()),
		MaxConcurrent: b.cfg.MaxConcurrent,
		Rejected:      b.rejected.Load(),
	}
}
