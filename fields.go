package ripple

import "github.com/zoobzio/capitan"

// Field keys for graph events.
var (
	// KeySource describes the source object.
	KeySource = capitan.NewStringKey("source")

	// KeyTarget describes the target object.
	KeyTarget = capitan.NewStringKey("target")

	// KeyChannel is the channel, rendered as text.
	KeyChannel = capitan.NewStringKey("channel")

	// KeyTargets is the number of targets invoked by a fire.
	KeyTargets = capitan.NewIntKey("targets")

	// KeyDepth is the transaction depth of a ChannelNode.
	KeyDepth = capitan.NewIntKey("depth")

	// KeyObjects is the number of objects in the registry.
	KeyObjects = capitan.NewIntKey("objects")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeyFactory is the name of the chosen ChannelNode factory.
	KeyFactory = capitan.NewStringKey("factory")

	// KeyDebounce is the debounce delay of a relationship.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyDuration is the time a fire took.
	KeyDuration = capitan.NewDurationKey("duration")
)
