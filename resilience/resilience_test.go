package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/kbukum/pipeflow/errors"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{t: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestBulkheadLimitsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "compute", MaxConcurrent: 2, MaxWait: time.Second})

	var inFlight, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
			if err != nil {
				t.Errorf("Execute: %v", err)
			}
		}()
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency %d exceeds limit", peak)
	}
	if b.InUse() != 0 {
		t.Errorf("slots leaked: %d in use", b.InUse())
	}
}

func TestBulkheadRejectsWhenFull(t *testing.T) {
	var rejected []string
	b := NewBulkhead(BulkheadConfig{
		Name:          "compute",
		MaxConcurrent: 1,
		OnReject:      func(name string) { rejected = append(rejected, name) },
	})

	release, err := b.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	err = b.Execute(context.Background(), func() error { return nil })
	if !apperrors.Is(err, apperrors.ErrCodeServiceUnavailable) {
		t.Fatalf("expected SERVICE_UNAVAILABLE, got %v", err)
	}
	if appErr, _ := apperrors.AsAppError(err); appErr.Details["limit"] != 1 || !appErr.Retryable {
		t.Errorf("unexpected error %+v", appErr)
	}
	if len(rejected) != 1 || rejected[0] != "compute" {
		t.Errorf("OnReject calls: %v", rejected)
	}

	release()
	if err := b.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Errorf("slot should be free after release: %v", err)
	}
}

func TestBulkheadWait(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})
	release, _ := b.Acquire(context.Background())

	if _, err := b.Acquire(context.Background()); !apperrors.Is(err, apperrors.ErrCodeServiceUnavailable) {
		t.Errorf("expected a timeout rejection, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Acquire(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	go func() {
		time.Sleep(5 * time.Millisecond)
		release()
	}()
	got, err := ExecuteWithResult(b, context.Background(), func() (int, error) { return 42, nil })
	if err != nil || got != 42 {
		t.Errorf("ExecuteWithResult = %d, %v", got, err)
	}
}

func TestBulkheadDefaultsToGOMAXPROCS(t *testing.T) {
	if b := NewBulkhead(BulkheadConfig{}); b.MaxConcurrent() < 1 {
		t.Errorf("MaxConcurrent = %d", b.MaxConcurrent())
	}
}

func TestRateLimiter(t *testing.T) {
	clock := newFakeClock()
	rl := newRateLimiter(RateLimiterConfig{Rate: 2, Burst: 3}, clock.Now)

	for i := 0; i < 3; i++ {
		if ok, _ := rl.Allow(); !ok {
			t.Fatalf("burst token %d refused", i)
		}
	}
	ok, wait := rl.Allow()
	if ok || wait != 500*time.Millisecond {
		t.Fatalf("empty bucket: ok=%v wait=%v", ok, wait)
	}

	err := rl.Take()
	if !apperrors.Is(err, apperrors.ErrCodeRateLimited) {
		t.Fatalf("expected RATE_LIMITED, got %v", err)
	}
	if appErr, _ := apperrors.AsAppError(err); appErr.Details["retry_after"] != 0.5 {
		t.Errorf("retry_after: %v", appErr.Details["retry_after"])
	}

	clock.Advance(time.Second)
	for i := 0; i < 2; i++ {
		if err := rl.Take(); err != nil {
			t.Errorf("refilled token %d refused: %v", i, err)
		}
	}
	if ok, _ := rl.Allow(); ok {
		t.Error("bucket should be empty again")
	}

	clock.Advance(time.Hour)
	rl.mu.Lock()
	rl.refill()
	tokens := rl.tokens
	rl.mu.Unlock()
	if tokens != 3 {
		t.Errorf("refill must cap at burst, got %v", tokens)
	}
}

func TestRateLimiterDefaults(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 2.5})
	if rl.config.Burst != 3 {
		t.Errorf("burst: got %d want 3", rl.config.Burst)
	}
	rl = NewRateLimiter(RateLimiterConfig{})
	if rl.config.Rate != 10 || rl.config.Burst != 10 {
		t.Errorf("defaults: %+v", rl.config)
	}
}

func TestKeyedRateLimiter(t *testing.T) {
	clock := newFakeClock()
	k := newKeyedRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1}, time.Minute, clock.Now)

	if err := k.Take("10.0.0.1"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := k.Take("10.0.0.1"); !apperrors.Is(err, apperrors.ErrCodeRateLimited) {
		t.Fatalf("second request should be limited, got %v", err)
	}
	if err := k.Take("10.0.0.2"); err != nil {
		t.Fatalf("keys must not share a bucket: %v", err)
	}
	if k.Len() != 2 {
		t.Fatalf("Len = %d", k.Len())
	}

	clock.Advance(30 * time.Second)
	_ = k.Take("10.0.0.2")
	clock.Advance(45 * time.Second)
	_ = k.Take("10.0.0.2")
	if k.Len() != 1 {
		t.Errorf("idle key should be swept, Len = %d", k.Len())
	}
}
