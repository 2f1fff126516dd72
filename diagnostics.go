package ripple

import (
	"context"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/ripple/bag"
)

// Stats summarizes the graph.
type Stats struct {
	// Objects is the number of objects with a node in the registry.
	Objects int

	// Channels is the number of live ChannelNodes.
	Channels int

	// Relationships is the number of stored relationships.
	Relationships int

	// Fired counts action invocations since the graph was created.
	Fired uint64

	// InProgress is the number of ChannelNodes with an open transaction.
	InProgress int
}

// Link is an outbound relationship reported by Inspect.
type Link struct {
	Channel   Channel
	Target    any
	Debounced bool
	Pending   bool
}

// Report describes one object's relationships.
type Report struct {
	Object any

	// New reports whether the object's node was empty when last retrieved.
	New bool

	// Inbound lists the (source, channel) pairs the object depends on.
	Inbound []Dependency

	// Outbound lists the objects depending on this one, per channel in
	// channel creation order and then firing order.
	Outbound []Link
}

// Transaction describes a ChannelNode with an open transaction.
type Transaction struct {
	Source  any
	Channel Channel
	Depth   int
	Pending int
}

// Has reports whether obj has a node in the registry.
func (g *Graph) Has(obj any) bool {
	if checkObject(obj) != nil {
		return false
	}
	_, ok := g.nodes[obj]
	return ok
}

// Lookup returns the ChannelNode for src without creating it.
func (g *Graph) Lookup(src any) (*ChannelNode, bool) {
	obj, channel, err := normalize(src)
	if err != nil {
		return nil, false
	}
	sn := g.nodes[obj]
	if sn == nil {
		return nil, false
	}
	cn, ok := sn.channels[channel]
	return cn, ok
}

// Resources returns the bag released when obj's node is destroyed, either
// by ObjectDestroyed or when obj takes part in no relationship. It reports
// false when obj has no node.
func (g *Graph) Resources(obj any) (*bag.Bag, bool) {
	sn := g.nodes[obj]
	if sn == nil || sn.destroying {
		return nil, false
	}
	return &sn.resources, true
}

// Stats returns counts over the whole graph.
func (g *Graph) Stats() Stats {
	s := Stats{Objects: len(g.nodes), Fired: g.fired}
	for _, sn := range g.nodes {
		s.Channels += len(sn.channels)
		for _, cn := range sn.channels {
			s.Relationships += len(cn.targets)
			if cn.depth > 0 {
				s.InProgress++
			}
		}
	}
	return s
}

// Inspect reports obj's inbound and outbound relationships. The second
// result is false when obj has no node.
func (g *Graph) Inspect(obj any) (Report, bool) {
	if checkObject(obj) != nil {
		return Report{}, false
	}
	sn := g.nodes[obj]
	if sn == nil {
		return Report{Object: obj}, false
	}

	r := Report{Object: obj, New: sn.isNew}
	for _, bl := range sn.sortedBackLinks() {
		r.Inbound = append(r.Inbound, Dependency{Source: bl.source, Channel: bl.channel})
	}
	for _, channel := range sn.order {
		cn := sn.channels[channel]
		for _, l := range cn.order {
			r.Outbound = append(r.Outbound, Link{
				Channel:   channel,
				Target:    l.target,
				Debounced: l.action.debouncer != nil,
				Pending:   l.action.debouncer != nil && l.action.debouncer.pending(),
			})
		}
	}
	return r, true
}

// InProgress lists the ChannelNodes with an open transaction, which after
// all work has finished points at a Begin without a matching End.
func (g *Graph) InProgress() []Transaction {
	var out []Transaction
	for _, sn := range g.sortedNodes() {
		for _, channel := range sn.order {
			cn := sn.channels[channel]
			if cn.depth == 0 {
				continue
			}
			out = append(out, Transaction{
				Source:  sn.object,
				Channel: channel,
				Depth:   cn.depth,
				Pending: len(cn.pending),
			})
		}
	}
	return out
}

// Failures returns recent failures that could not be returned to a caller,
// oldest first. See WithErrorHistory.
func (g *Graph) Failures() []Failure {
	return g.failures.all()
}

// ClearFailures empties the failure history.
func (g *Graph) ClearFailures() {
	g.failures.clear()
}

// record adds err to the failure history. Safe to call from any goroutine.
func (g *Graph) record(err error) {
	g.failures.push(Failure{Err: err, At: g.clock.Now()})
}

// deferredFailed reports an error returned by a debounced action.
func (g *Graph) deferredFailed(ctx context.Context, err error) {
	g.record(err)
	capitan.Emit(ctx, DeferredFailed,
		KeyError.Field(err.Error()),
	)
	if g.metrics != nil {
		g.metrics.OnDeferredFailure()
	}
}
