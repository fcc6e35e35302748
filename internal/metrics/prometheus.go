package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ThrottleWait records how long outbound AI requests waited for a permit
	ThrottleWait = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "terrano_ai_throttle_wait_seconds",
			Help:    "Time spent waiting for an outbound AI request permit",
			Buckets: []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	// StreamFragments counts content deltas decoded from completion streams
	StreamFragments = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "terrano_ai_stream_fragments_total",
			Help: "Content fragments decoded from streamed completions",
		},
	)

	// StreamDecodeErrors counts frames skipped because their payload could not be parsed
	StreamDecodeErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "terrano_ai_stream_decode_errors_total",
			Help: "Streamed frames skipped because of malformed payloads",
		},
	)

	// FunctionCalls counts remote function invocations, labelled by function and outcome
	FunctionCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terrano_function_calls_total",
			Help: "Remote function invocations",
		},
		[]string{"function", "status"}, // status=ok/error
	)

	// RequestsTotal counts inbound API requests, labelled by route group and outcome
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "terrano_requests_total",
			Help: "Inbound API requests",
		},
		[]string{"group", "status"}, // status=accepted/rejected
	)

	initOnce sync.Once
)

// Init registers all metrics with the default registry. It is safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(ThrottleWait)
		prometheus.MustRegister(StreamFragments)
		prometheus.MustRegister(StreamDecodeErrors)
		prometheus.MustRegister(FunctionCalls)
		prometheus.MustRegister(RequestsTotal)
	})
}

// ObserveThrottleWait is shaped for ratelimit.WithWaitObserver
func ObserveThrottleWait(d time.Duration) {
	ThrottleWait.Observe(d.Seconds())
}
