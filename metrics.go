package ripple

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on graph activity.
type MetricsProvider interface {
	// OnRelationshipAdded is called when Add stores a relationship.
	OnRelationshipAdded()

	// OnRelationshipRemoved is called when Remove deletes a relationship.
	OnRelationshipRemoved()

	// OnFire is called after a ChannelNode invoked its targets.
	OnFire(targets int, duration time.Duration)

	// OnSuppressed is called when a fire is folded into a transaction.
	OnSuppressed()

	// OnDeferredFailure is called when a debounced action returns an error.
	OnDeferredFailure()
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnRelationshipAdded()          {}
func (NoOpMetricsProvider) OnRelationshipRemoved()        {}
func (NoOpMetricsProvider) OnFire(_ int, _ time.Duration) {}
func (NoOpMetricsProvider) OnSuppressed()                 {}
func (NoOpMetricsProvider) OnDeferredFailure()            {}
