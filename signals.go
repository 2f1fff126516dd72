package ripple

import "github.com/zoobzio/capitan"

// Relationship signals.
var (
	// RelationshipAdded is emitted when Add stores a relationship.
	RelationshipAdded = capitan.NewSignal(
		"ripple.relationship.added",
		"Relationship added",
	)

	// RelationshipRemoved is emitted when Remove deletes a relationship.
	RelationshipRemoved = capitan.NewSignal(
		"ripple.relationship.removed",
		"Relationship removed",
	)

	// ObjectRemoved is emitted when ObjectDestroyed tears down an object's node.
	ObjectRemoved = capitan.NewSignal(
		"ripple.object.destroyed",
		"Object removed from the graph",
	)

	// GraphDestroyed is emitted when Destroy tears down the whole graph.
	GraphDestroyed = capitan.NewSignal(
		"ripple.graph.destroyed",
		"Graph destroyed",
	)
)

// Propagation signals.
var (
	// ChangeFired is emitted after a ChannelNode has invoked its targets.
	ChangeFired = capitan.NewSignal(
		"ripple.change.fired",
		"Change propagated to targets",
	)

	// ChangeSuppressed is emitted when a fire is folded into a transaction.
	ChangeSuppressed = capitan.NewSignal(
		"ripple.change.suppressed",
		"Change folded into transaction",
	)

	// TransactionUnmatched is emitted when End has no matching Begin.
	TransactionUnmatched = capitan.NewSignal(
		"ripple.transaction.unmatched",
		"End without matching Begin",
	)

	// DeferredFailed is emitted when a debounced action returns an error.
	DeferredFailed = capitan.NewSignal(
		"ripple.deferred.failed",
		"Deferred action failed",
	)
)

// FactoryAmbiguous is emitted when several factories match a new ChannelNode.
var FactoryAmbiguous = capitan.NewSignal(
	"ripple.factory.ambiguous",
	"Multiple channel node factories matched",
)
