package ripple

import (
	"context"
	"slices"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
)

// Graph records which objects depend on which (object, channel) pairs and
// propagates changes along those relationships.
//
// A Graph is not safe for concurrent use. Actions may call back into the
// graph while it is firing. Debounced actions run through the configured
// Dispatcher.
type Graph struct {
	nodes     map[any]*sourceNode
	factories []ChannelNodeFactory
	fired     uint64
	seq       uint64

	clock      clockz.Clock
	debounce   time.Duration
	dispatcher Dispatcher
	metrics    MetricsProvider
	failures   *failureRing
}

// New creates an empty Graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		nodes:      make(map[any]*sourceNode),
		clock:      clockz.RealClock,
		debounce:   DefaultDebounce,
		dispatcher: InlineDispatcher{},
		failures:   newFailureRing(DefaultErrorHistory),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Add records that target depends on src, which is an object (channel All)
// or a Source. Adding the same (source, channel, target) again replaces the
// earlier relationship, keeping its position in firing order and disposing
// its action first.
//
// Without options target is notified through the default action: the
// ChannelNode's declared method if target provides it, else
// OnDependencyChanged if target implements DependencyHandler, else a fire of
// target's own All channel.
func (g *Graph) Add(ctx context.Context, src, target any, opts ...LinkOption) (*ChannelNode, error) {
	obj, channel, err := normalize(src)
	if err != nil {
		return nil, err
	}
	if err := checkObject(target); err != nil {
		return nil, err
	}

	var cfg linkConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	sn := g.source(obj, true)
	cn := g.channel(ctx, sn, channel, true)
	snNew, cnNew := sn.isNew, cn.isNew

	// A replaced relationship is torn down before the new one exists, so
	// its removal hook may call back into the graph.
	slot := -1
	if old := cn.targets[target]; old != nil {
		slot = slices.Index(cn.order, old)
		cn.detach(old)
		g.dropBackLink(target, old.back)
		old.action.dispose()

		prevSN, prevCN := sn, cn
		sn = g.source(obj, true)
		cn = g.channel(ctx, sn, channel, true)
		if sn == prevSN {
			sn.isNew = snNew
		}
		if cn == prevCN {
			cn.isNew = cnNew
		} else {
			slot = -1
		}
	}
	tn := g.source(target, true)

	g.seq++
	l := &link{
		target: target,
		action: g.newAction(cn, obj, channel, target, cfg),
		back:   &backLink{source: obj, channel: channel, seq: g.seq},
	}
	prev := cn.attach(l, slot)
	tn.backLinks[l.back] = struct{}{}
	if prev != nil {
		g.dropBackLink(target, prev.back)
		prev.action.dispose()
	}

	var delay time.Duration
	if l.action.debouncer != nil {
		delay = l.action.debouncer.delay
	}
	capitan.Emit(ctx, RelationshipAdded,
		KeySource.Field(describe(obj)),
		KeyChannel.Field(describeChannel(channel)),
		KeyTarget.Field(describe(target)),
		KeyDebounce.Field(delay),
	)
	if g.metrics != nil {
		g.metrics.OnRelationshipAdded()
	}
	return cn, nil
}

// Remove deletes the relationship between src and target, disposing its
// action, and releases any node left empty. Removing a relationship that
// does not exist is a no-op.
func (g *Graph) Remove(ctx context.Context, src, target any) error {
	obj, channel, err := normalize(src)
	if err != nil {
		return err
	}
	if err := checkObject(target); err != nil {
		return err
	}

	sn := g.source(obj, false)
	if sn == nil {
		return nil
	}
	cn := g.channel(ctx, sn, channel, false)
	if cn == nil {
		g.releaseSource(sn)
		return nil
	}
	l := cn.targets[target]
	if l == nil {
		g.releaseChannel(sn, cn)
		g.releaseSource(sn)
		return nil
	}

	cn.detach(l)
	if tn := g.nodes[target]; tn != nil {
		delete(tn.backLinks, l.back)
	}
	l.action.dispose()

	g.releaseChannel(sn, cn)
	g.releaseSource(sn)
	g.releaseSource(g.nodes[target])

	capitan.Emit(ctx, RelationshipRemoved,
		KeySource.Field(describe(obj)),
		KeyChannel.Field(describeChannel(channel)),
		KeyTarget.Field(describe(target)),
	)
	if g.metrics != nil {
		g.metrics.OnRelationshipRemoved()
	}
	return nil
}

// Fire notifies every target of src with args, in the order the
// relationships were added. Targets added while the fire is in progress are
// not notified by it; targets removed while it is in progress are skipped.
//
// Inside a transaction (see Begin) the fire is folded into the transaction
// instead: args, when given, replace the pending arguments.
//
// The first action error stops the fire and is returned wrapped in a
// *PropagationError. Firing a pair nobody depends on is a no-op.
func (g *Graph) Fire(ctx context.Context, src any, args ...any) error {
	obj, channel, err := normalize(src)
	if err != nil {
		return err
	}

	sn := g.source(obj, false)
	if sn == nil {
		return nil
	}
	cn := g.channel(ctx, sn, channel, false)
	if cn == nil {
		g.releaseSource(sn)
		return nil
	}

	if cn.depth > 0 {
		if len(args) > 0 {
			cn.pending = args
		}
		capitan.Emit(ctx, ChangeSuppressed,
			KeySource.Field(describe(obj)),
			KeyChannel.Field(describeChannel(channel)),
			KeyDepth.Field(cn.depth),
		)
		if g.metrics != nil {
			g.metrics.OnSuppressed()
		}
		return nil
	}

	return g.propagate(ctx, sn, cn, args)
}

// Begin opens a transaction on src. Fires on src are suppressed until the
// matching outermost End, which fires once.
func (g *Graph) Begin(ctx context.Context, src any) error {
	obj, channel, err := normalize(src)
	if err != nil {
		return err
	}
	sn := g.source(obj, true)
	cn := g.channel(ctx, sn, channel, true)
	cn.depth++
	return nil
}

// End closes a transaction on src. Closing the outermost transaction fires
// src with args, or, when no args are given, with the last arguments given
// to a nested End or a suppressed Fire. End without a matching Begin returns
// a *ProtocolError.
func (g *Graph) End(ctx context.Context, src any, args ...any) error {
	obj, channel, err := normalize(src)
	if err != nil {
		return err
	}

	sn := g.source(obj, false)
	var cn *ChannelNode
	if sn != nil {
		cn = g.channel(ctx, sn, channel, false)
	}
	if cn == nil || cn.depth == 0 {
		if sn != nil {
			g.releaseSource(sn)
		}
		capitan.Emit(ctx, TransactionUnmatched,
			KeySource.Field(describe(obj)),
			KeyChannel.Field(describeChannel(channel)),
		)
		return &ProtocolError{Source: obj, Channel: channel}
	}

	if cn.depth > 1 {
		cn.depth--
		if len(args) > 0 {
			cn.pending = args
		}
		return nil
	}

	if len(args) == 0 {
		args = cn.pending
	}
	cn.depth = 0
	cn.pending = nil
	return g.propagate(ctx, sn, cn, args)
}

// ObjectDestroyed removes obj from the graph along with every relationship
// in which it is the source or the target, whether or not its node is
// empty. Use it when obj's lifetime ends.
func (g *Graph) ObjectDestroyed(ctx context.Context, obj any) {
	if checkObject(obj) != nil {
		return
	}
	sn := g.nodes[obj]
	if sn == nil {
		return
	}
	g.unregister(sn)
	g.destroySource(sn)

	capitan.Emit(ctx, ObjectRemoved,
		KeySource.Field(describe(obj)),
	)
}

// Destroy tears down every node in the graph. Registered factories are
// kept.
func (g *Graph) Destroy(ctx context.Context) {
	count := len(g.nodes)
	for _, sn := range g.sortedNodes() {
		if g.nodes[sn.object] != sn {
			continue
		}
		g.unregister(sn)
		g.destroySource(sn)
	}

	capitan.Emit(ctx, GraphDestroyed,
		KeyObjects.Field(count),
	)
}

// propagate invokes cn's targets and releases cn and sn if they end up
// empty.
func (g *Graph) propagate(ctx context.Context, sn *sourceNode, cn *ChannelNode, args []any) error {
	start := g.clock.Now()
	snapshot := slices.Clone(cn.order)
	source, channel := cn.source, cn.channel

	cn.firing++
	defer func() {
		cn.firing--
		g.releaseChannel(sn, cn)
		g.releaseSource(sn)
	}()

	invoked := 0
	for _, l := range snapshot {
		if cn.destroyed {
			break
		}
		if cn.targets[l.target] != l {
			continue
		}
		g.fired++
		invoked++
		if err := l.action.invoke(ctx, args...); err != nil {
			return &PropagationError{Source: source, Channel: channel, Target: l.target, Err: err}
		}
	}

	elapsed := g.clock.Since(start)
	capitan.Emit(ctx, ChangeFired,
		KeySource.Field(describe(source)),
		KeyChannel.Field(describeChannel(channel)),
		KeyTargets.Field(invoked),
		KeyDuration.Field(elapsed),
	)
	if g.metrics != nil {
		g.metrics.OnFire(invoked, elapsed)
	}
	return nil
}

// source returns obj's node, creating it when create is set.
func (g *Graph) source(obj any, create bool) *sourceNode {
	if sn, ok := g.nodes[obj]; ok {
		sn.isNew = sn.empty()
		return sn
	}
	if !create {
		return nil
	}
	g.seq++
	sn := newSourceNode(obj, g.seq)
	g.nodes[obj] = sn
	return sn
}

// channel returns sn's node for channel, creating and configuring it when
// create is set.
func (g *Graph) channel(ctx context.Context, sn *sourceNode, channel Channel, create bool) *ChannelNode {
	if cn, ok := sn.channels[channel]; ok {
		cn.isNew = sn.isNew
		return cn
	}
	if !create {
		return nil
	}
	cn := newChannelNode(sn.object, channel)
	g.configureChannel(ctx, cn)
	sn.channels[channel] = cn
	sn.order = append(sn.order, channel)
	return cn
}

// dropBackLink removes b from target's node, if the node still exists.
func (g *Graph) dropBackLink(target any, b *backLink) {
	if tn, ok := g.nodes[target]; ok {
		delete(tn.backLinks, b)
	}
}

func (g *Graph) unregister(sn *sourceNode) {
	if g.nodes[sn.object] == sn {
		delete(g.nodes, sn.object)
	}
}

// releaseChannel destroys cn if it has no targets and no open transaction.
func (g *Graph) releaseChannel(sn *sourceNode, cn *ChannelNode) {
	if cn == nil || cn.destroyed || !cn.empty() {
		return
	}
	if sn != nil && sn.channels[cn.channel] == cn {
		sn.dropChannel(cn.channel)
	}
	g.destroyChannel(cn)
}

// releaseSource destroys sn if it owns no channels and no back-links.
func (g *Graph) releaseSource(sn *sourceNode) {
	if sn == nil || sn.destroying || sn.destroyed || !sn.empty() {
		return
	}
	g.unregister(sn)
	g.destroySource(sn)
}

// destroyChannel disposes cn's resources and relationships, removing the
// mirrored back-links and releasing targets left empty.
func (g *Graph) destroyChannel(cn *ChannelNode) {
	if cn.destroyed {
		return
	}
	cn.destroyed = true

	if err := cn.resources.Dispose(); err != nil {
		g.record(err)
	}

	links := cn.order
	cn.order = nil
	cn.targets = nil
	for _, l := range links {
		l.action.dispose()
		if tn := g.nodes[l.target]; tn != nil {
			delete(tn.backLinks, l.back)
			g.releaseSource(tn)
		}
	}

	cn.source = nil
	cn.channel = nil
	cn.pending = nil
}

// destroySource tears down sn: its channels as a source and its back-links
// as a target. sn must already be unregistered.
func (g *Graph) destroySource(sn *sourceNode) {
	if sn.destroying || sn.destroyed {
		return
	}
	sn.destroying = true

	if err := sn.resources.Dispose(); err != nil {
		g.record(err)
	}

	for _, channel := range sn.order {
		g.destroyChannel(sn.channels[channel])
	}
	sn.channels = nil
	sn.order = nil

	backs := sn.sortedBackLinks()
	sn.backLinks = nil
	for _, bl := range backs {
		src := g.nodes[bl.source]
		if src == nil {
			continue
		}
		cn := src.channels[bl.channel]
		if cn == nil || cn.destroyed {
			continue
		}
		l := cn.targets[sn.object]
		if l == nil || l.back != bl {
			continue
		}
		cn.detach(l)
		l.action.dispose()
		g.releaseChannel(src, cn)
		g.releaseSource(src)
	}

	sn.destroyed = true
	sn.object = nil
}

// sortedNodes returns the registered nodes in creation order.
func (g *Graph) sortedNodes() []*sourceNode {
	out := make([]*sourceNode, 0, len(g.nodes))
	for _, sn := range g.nodes {
		out = append(out, sn)
	}
	slices.SortFunc(out, func(a, b *sourceNode) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return out
}
