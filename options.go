package ripple

import (
	"time"

	"github.com/zoobzio/clockz"
)

// DefaultErrorHistory is the number of failures a graph keeps by default.
const DefaultErrorHistory = 32

// Option configures a Graph.
type Option func(*Graph)

// WithClock sets the clock used for debounce timers and fire durations.
// Use this with clockz.FakeClock for deterministic debounce testing.
func WithClock(clock clockz.Clock) Option {
	return func(g *Graph) {
		g.clock = clock
	}
}

// WithDefaultDebounce sets the delay used by WithDebounce(0).
// Default: DefaultDebounce.
func WithDefaultDebounce(d time.Duration) Option {
	return func(g *Graph) {
		if d > 0 {
			g.debounce = d
		}
	}
}

// WithDispatcher sets where debounced actions run.
// Default: InlineDispatcher, which runs them on the timer goroutine.
func WithDispatcher(d Dispatcher) Option {
	return func(g *Graph) {
		if d != nil {
			g.dispatcher = d
		}
	}
}

// WithMetrics sets a metrics provider for observability integration.
func WithMetrics(provider MetricsProvider) Option {
	return func(g *Graph) {
		g.metrics = provider
	}
}

// WithErrorHistory sets how many recent failures Failures returns.
// Use 0 to disable the history.
func WithErrorHistory(n int) Option {
	return func(g *Graph) {
		g.failures = newFailureRing(n)
	}
}
