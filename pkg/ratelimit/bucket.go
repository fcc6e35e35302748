package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"
)

// Default bucket shape for outbound AI requests
const (
	DefaultCapacity   = 50
	DefaultRefillRate = 10.0
)

// Bucket is a token bucket that paces callers to refillRate permits per
// second while allowing bursts of up to capacity permits after idle periods.
//
// A Bucket is safe for concurrent use. Callers waiting for a permit sleep
// outside the lock, so a long wait never blocks other callers from observing
// or acquiring tokens.
type Bucket struct {
	mu         sync.Mutex
	capacity   float64
	tokens     float64
	refillRate float64
	lastRefill time.Time

	clock   Clock
	observe func(time.Duration)
}

// NewBucket returns a full bucket. A capacity below one is raised to one and a
// non-positive refill rate falls back to one token per second.
func NewBucket(capacity int, refillRate float64, opts ...Option) *Bucket {
	o := newOptions(opts)

	if capacity < 1 {
		capacity = 1
	}
	if refillRate <= 0 {
		refillRate = 1
	}

	return &Bucket{
		capacity:   float64(capacity),
		tokens:     float64(capacity),
		refillRate: refillRate,
		lastRefill: o.clock.Now(),
		clock:      o.clock,
		observe:    o.observeWait,
	}
}

// Acquire blocks until a permit is available and takes it. The wait is
// proportional to the token deficit: each missing token costs
// 1/refillRate seconds. If ctx is done before a permit is granted, Acquire
// returns ctx.Err() and no token is consumed.
func (b *Bucket) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var waited time.Duration
	for {
		b.mu.Lock()
		b.refill()
		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()

			if b.observe != nil {
				b.observe(waited)
			}
			return nil
		}
		wait := b.deficitWait()
		b.mu.Unlock()

		if err := b.clock.Sleep(ctx, wait); err != nil {
			return err
		}
		waited += wait
	}
}

// Tokens refills the bucket and reports the tokens currently available.
func (b *Bucket) Tokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

func (b *Bucket) Capacity() int {
	return int(b.capacity)
}

func (b *Bucket) RefillRate() float64 {
	return b.refillRate
}

// refill must be called with b.mu held.
func (b *Bucket) refill() {
	now := b.clock.Now()
	elapsed := now.Sub(b.lastRefill)
	if elapsed <= 0 {
		return
	}

	b.tokens = math.Min(b.capacity, b.tokens+elapsed.Seconds()*b.refillRate)
	b.lastRefill = now
}

// deficitWait must be called with b.mu held.
func (b *Bucket) deficitWait() time.Duration {
	deficit := 1 - b.tokens
	wait := time.Duration(math.Ceil(deficit / b.refillRate * float64(time.Second)))
	if wait < 1 {
		wait = 1
	}
	return wait
}
