package ratelimit

import "time"

type options struct {
	clock       Clock
	observeWait func(time.Duration)
}

// Option configures a Bucket or a Limiter.
type Option func(*options)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithWaitObserver registers fn to receive the wait induced by every
// successful Bucket.Acquire, including zero waits.
func WithWaitObserver(fn func(time.Duration)) Option {
	return func(o *options) {
		o.observeWait = fn
	}
}

func newOptions(opts []Option) options {
	o := options{clock: SystemClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
