package resilience

import (
	"sync"
	"time"

	apperrors "github.com/kbukum/pipeflow/errors"
)

// RateLimiterConfig configures a token bucket.
type RateLimiterConfig struct {
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the bucket size. Zero means ceil(Rate).
	Burst int
}

// RateLimiter is a token bucket. It is safe for concurrent use.
type RateLimiter struct {
	config RateLimiterConfig
	now    func() time.Time

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// NewRateLimiter creates a full bucket.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	return newRateLimiter(config, time.Now)
}

func newRateLimiter(config RateLimiterConfig, now func() time.Time) *RateLimiter {
	if config.Rate <= 0 {
		config.Rate = 10
	}
	if config.Burst <= 0 {
		config.Burst = int(config.Rate + 0.999999)
	}
	return &RateLimiter{
		config:     config,
		now:        now,
		tokens:     float64(config.Burst),
		lastRefill: now(),
	}
}

// Allow takes one token. When the bucket is empty it returns false and the
// time until the next token.
func (rl *RateLimiter) Allow() (bool, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()
	if rl.tokens >= 1 {
		rl.tokens--
		return true, 0
	}
	wait := (1 - rl.tokens) / rl.config.Rate
	return false, time.Duration(wait * float64(time.Second))
}

// Take is Allow as an error: RATE_LIMITED with the wait in its details.
func (rl *RateLimiter) Take() error {
	if ok, wait := rl.Allow(); !ok {
		return apperrors.RateLimited(wait.Seconds())
	}
	return nil
}

func (rl *RateLimiter) refill() {
	now := rl.now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now

	rl.tokens += elapsed * rl.config.Rate
	if rl.tokens > float64(rl.config.Burst) {
		rl.tokens = float64(rl.config.Burst)
	}
}

// KeyedRateLimiter keeps one bucket per key, typically a client address.
// Buckets unused for longer than the sweep interval are dropped lazily.
type KeyedRateLimiter struct {
	config RateLimiterConfig
	idle   time.Duration
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*keyedBucket
	lastSweep time.Time
}

type keyedBucket struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

// NewKeyedRateLimiter creates a limiter that forgets keys idle for longer
// than idle. Zero means one minute.
func NewKeyedRateLimiter(config RateLimiterConfig, idle time.Duration) *KeyedRateLimiter {
	return newKeyedRateLimiter(config, idle, time.Now)
}

func newKeyedRateLimiter(config RateLimiterConfig, idle time.Duration, now func() time.Time) *KeyedRateLimiter {
	if idle <= 0 {
		idle = time.Minute
	}
	return &KeyedRateLimiter{
		config:    config,
		idle:      idle,
		now:       now,
		buckets:   make(map[string]*keyedBucket),
		lastSweep: now(),
	}
}

// Take takes a token from the bucket of key.
func (k *KeyedRateLimiter) Take(key string) error {
	k.mu.Lock()
	now := k.now()
	if now.Sub(k.lastSweep) >= k.idle {
		k.sweep(now)
	}
	b, ok := k.buckets[key]
	if !ok {
		b = &keyedBucket{limiter: newRateLimiter(k.config, k.now)}
		k.buckets[key] = b
	}
	b.lastSeen = now
	k.mu.Unlock()

	return b.limiter.Take()
}

func (k *KeyedRateLimiter) sweep(now time.Time) {
	for key, b := range k.buckets {
		if now.Sub(b.lastSeen) >= k.idle {
			delete(k.buckets, key)
		}
	}
	k.lastSweep = now
}

// Len returns the number of tracked keys.
func (k *KeyedRateLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
