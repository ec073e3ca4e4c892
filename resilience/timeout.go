package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultTimeout bounds an operation when no timeout is configured.
const DefaultTimeout = 5 * time.Second

// Timeout abandons operations that outlive a deadline.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a Timeout. Non-positive durations use DefaultTimeout.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultTimeout
	}
	return &Timeout{d: d}
}

// Duration returns the configured deadline.
func (t *Timeout) Duration() time.Duration {
	return t.d
}

// Execute runs op with a derived context that expires after the deadline.
// If op ignores its context, Execute still returns ErrTimeout on time and op
// finishes in the background.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
