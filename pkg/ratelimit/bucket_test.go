package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Slept() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.slept...)
}

func drain(t *testing.T, b *Bucket) {
	t.Helper()
	for i := 0; i < b.Capacity(); i++ {
		require.NoError(t, b.Acquire(context.Background()))
	}
}

func TestNewBucket(t *testing.T) {
	tests := []struct {
		name         string
		capacity     int
		rate         float64
		wantCapacity int
		wantRate     float64
	}{
		{"defaults", 50, 10, 50, 10},
		{"zero capacity raised", 0, 10, 1, 10},
		{"negative rate falls back", 5, -2, 5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBucket(tt.capacity, tt.rate, WithClock(newFakeClock()))
			assert.Equal(t, tt.wantCapacity, b.Capacity())
			assert.Equal(t, tt.wantRate, b.RefillRate())
			assert.Equal(t, float64(tt.wantCapacity), b.Tokens())
		})
	}
}

func TestBucketBurstAfterIdle(t *testing.T) {
	clock := newFakeClock()
	b := NewBucket(50, 10, WithClock(clock))

	drain(t, b)
	require.Empty(t, clock.Slept(), "a full bucket must not induce waits")

	// capacity / refillRate seconds refills the bucket completely
	clock.Advance(5 * time.Second)
	assert.Equal(t, 50.0, b.Tokens())

	for i := 0; i < 50; i++ {
		require.NoError(t, b.Acquire(context.Background()))
	}
	assert.Empty(t, clock.Slept())
}

func TestBucketSustainedRate(t *testing.T) {
	clock := newFakeClock()
	b := NewBucket(50, 10, WithClock(clock))
	drain(t, b)

	start := clock.Now()
	const calls = 1000
	for i := 0; i < calls; i++ {
		require.NoError(t, b.Acquire(context.Background()))
	}
	elapsed := clock.Now().Sub(start)

	// 1000 permits at 10/s take 100s once the burst is spent
	assert.InDelta(t, 100.0, elapsed.Seconds(), 0.01)
	achieved := float64(calls) / elapsed.Seconds()
	assert.LessOrEqual(t, achieved, 10*1.001)
}

func TestBucketWaitIsProportionalToDeficit(t *testing.T) {
	clock := newFakeClock()
	b := NewBucket(2, 10, WithClock(clock))
	drain(t, b)

	clock.Advance(50 * time.Millisecond)
	assert.InDelta(t, 0.5, b.Tokens(), 1e-9)

	require.NoError(t, b.Acquire(context.Background()))

	slept := clock.Slept()
	require.NotEmpty(t, slept)
	var total time.Duration
	for _, d := range slept {
		total += d
	}
	assert.InDelta(t, float64(50*time.Millisecond), float64(total), float64(time.Microsecond))
}

func TestBucketTokensNeverNegative(t *testing.T) {
	clock := newFakeClock()
	b := NewBucket(3, 7, WithClock(clock))

	for i := 0; i < 200; i++ {
		require.NoError(t, b.Acquire(context.Background()))
		tokens := b.Tokens()
		assert.GreaterOrEqual(t, tokens, 0.0)
		assert.LessOrEqual(t, tokens, 3.0)
		if i%17 == 0 {
			clock.Advance(time.Duration(i) * time.Millisecond)
		}
	}

	clock.Advance(time.Hour)
	assert.Equal(t, 3.0, b.Tokens(), "refill is capped at capacity")
}

func TestBucketAcquireCancelled(t *testing.T) {
	clock := newFakeClock()
	b := NewBucket(1, 1, WithClock(clock))
	drain(t, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0.0, b.Tokens(), "a cancelled acquire must not consume a token")
}

func TestBucketCancelledWhileWaiting(t *testing.T) {
	b := NewBucket(1, 0.5)
	require.NoError(t, b.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := b.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBucketWaitObserver(t *testing.T) {
	clock := newFakeClock()
	var mu sync.Mutex
	var waits []time.Duration

	b := NewBucket(1, 4, WithClock(clock), WithWaitObserver(func(d time.Duration) {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
	}))

	require.NoError(t, b.Acquire(context.Background()))
	require.NoError(t, b.Acquire(context.Background()))

	require.Len(t, waits, 2)
	assert.Zero(t, waits[0])
	assert.Equal(t, 250*time.Millisecond, waits[1])
}

func TestBucketConcurrentAcquire(t *testing.T) {
	b := NewBucket(5, 1000)

	const workers = 50
	var wg sync.WaitGroup
	errs := make(chan error, workers)

	start := time.Now()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- b.Acquire(context.Background())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	// 45 permits beyond the burst at 1000/s need at least ~45ms
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	tokens := b.Tokens()
	assert.GreaterOrEqual(t, tokens, 0.0)
	assert.LessOrEqual(t, tokens, 5.0)
}
