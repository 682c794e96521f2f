// Package resilience wraps outbound calls in a circuit breaker. Calls are
// never retried here: a failed gateway call surfaces to the caller at once.
package resilience

import (
	"time"

	"github.com/sony/gobreaker"
)

// NewCircuitBreaker creates a breaker that opens after a burst of failures.
// isSuccessful decides which errors count against the breaker; nil counts
// every error.
func NewCircuitBreaker(name string, isSuccessful func(err error) bool) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,                // half-open: allow 3 requests
		Interval:    30 * time.Second, // closed: reset counters every 30s
		Timeout:     10 * time.Second, // open -> half-open after 10s
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		IsSuccessful: isSuccessful,
	})
}
