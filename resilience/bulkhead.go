package resilience

import (
	"context"
	"runtime"
	"time"

	apperrors "github.com/kbukum/pipeflow/errors"
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies the bulkhead in logs and metrics.
	Name string
	// MaxConcurrent is the number of slots. Zero means GOMAXPROCS.
	MaxConcurrent int
	// MaxWait is how long a caller may queue for a slot. Zero rejects at once.
	MaxWait time.Duration
	// OnReject is called for every rejected caller.
	OnReject func(name string)
}

// Bulkhead limits the number of concurrent calls.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
}

// NewBulkhead creates a bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = runtime.GOMAXPROCS(0)
	}
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire takes a slot and returns the function that gives it back. When no
// slot frees up within MaxWait it returns a SERVICE_UNAVAILABLE error, and
// when ctx ends first it returns ctx.Err().
func (b *Bulkhead) Acquire(ctx context.Context) (release func(), err error) {
	if err := b.acquire(ctx); err != nil {
		if b.config.OnReject != nil {
			b.config.OnReject(b.config.Name)
		}
		return nil, err
	}
	return func() { <-b.sem }, nil
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}
	if b.config.MaxWait <= 0 {
		return apperrors.ServiceUnavailable(b.config.MaxConcurrent)
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return apperrors.ServiceUnavailable(b.config.MaxConcurrent)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs fn inside a slot.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	release, err := b.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// ExecuteWithResult runs fn inside a slot and returns its value.
func ExecuteWithResult[T any](b *Bulkhead, ctx context.Context, fn func() (T, error)) (T, error) {
	var result T
	err := b.Execute(ctx, func() error {
		var fnErr error
		result, fnErr = fn()
		return fnErr
	})
	return result, err
}

// InUse returns the number of occupied slots.
func (b *Bulkhead) InUse() int { return len(b.sem) }

// MaxConcurrent returns the number of slots.
func (b *Bulkhead) MaxConcurrent() int { return b.config.MaxConcurrent }
