package ripple

import (
	"context"
	"reflect"
	"slices"

	"github.com/zoobzio/capitan"
)

// ChannelNodeFactory specializes ChannelNodes for the (source, channel)
// pairs it matches. Configure runs once on each new node before any
// relationship is stored on it.
type ChannelNodeFactory interface {
	Name() string
	Matches(source any, channel Channel) bool
	Configure(node *ChannelNode)
}

// Factory is a ChannelNodeFactory built from plain values.
type Factory struct {
	// ID names the factory in warnings.
	ID string

	// Match selects the (source, channel) pairs the factory handles.
	Match func(source any, channel Channel) bool

	// Method, when set, becomes the node's declared handler name.
	Method string

	// Setup, when set, runs after Method is applied.
	Setup func(node *ChannelNode)
}

// Name returns f.ID.
func (f Factory) Name() string {
	return f.ID
}

// Matches reports whether f.Match accepts the pair.
func (f Factory) Matches(source any, channel Channel) bool {
	return f.Match != nil && f.Match(source, channel)
}

// Configure applies Method and Setup to node.
func (f Factory) Configure(node *ChannelNode) {
	if f.Method != "" {
		node.SetMethod(f.Method)
	}
	if f.Setup != nil {
		f.Setup(node)
	}
}

// ForType returns a Factory matching sources of type T. With channels
// given, only those channels match; otherwise every channel does.
//
//	g.RegisterFactory(ripple.ForType[*Config]("OnConfigChanged"))
func ForType[T any](method string, channels ...Channel) Factory {
	return Factory{
		ID: reflect.TypeFor[T]().String(),
		Match: func(source any, channel Channel) bool {
			if _, ok := source.(T); !ok {
				return false
			}
			return len(channels) == 0 || slices.Contains(channels, channel)
		},
		Method: method,
	}
}

// RegisterFactory adds f to the factories consulted when a ChannelNode is
// created. Factories are consulted in registration order and the first match
// wins; further matches are reported as an AmbiguousFactoryWarning.
func (g *Graph) RegisterFactory(f ChannelNodeFactory) {
	g.factories = append(g.factories, f)
}

// configureChannel applies the first matching factory to cn.
func (g *Graph) configureChannel(ctx context.Context, cn *ChannelNode) {
	var matched []ChannelNodeFactory
	for _, f := range g.factories {
		if f.Matches(cn.source, cn.channel) {
			matched = append(matched, f)
		}
	}
	if len(matched) == 0 {
		return
	}

	if len(matched) > 1 {
		names := make([]string, len(matched))
		for i, f := range matched {
			names[i] = f.Name()
		}
		warning := &AmbiguousFactoryWarning{Source: cn.source, Channel: cn.channel, Factories: names}
		g.record(warning)
		capitan.Emit(ctx, FactoryAmbiguous,
			KeySource.Field(describe(cn.source)),
			KeyChannel.Field(describeChannel(cn.channel)),
			KeyFactory.Field(names[0]),
			KeyError.Field(warning.Error()),
		)
	}
	matched[0].Configure(cn)
}
