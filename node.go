package ripple

import (
	"fmt"
	"slices"

	"github.com/zoobzio/ripple/bag"
)

// backLink is held by a target's sourceNode and names the (source, channel)
// pair whose ChannelNode points at the target.
type backLink struct {
	source  any
	channel Channel
	seq     uint64
}

// link is one relationship stored on a ChannelNode.
type link struct {
	target any
	action *action
	back   *backLink
}

// sourceNode is the per-object record. It owns the object's ChannelNodes
// (the object as a source) and its back-links (the object as a target).
type sourceNode struct {
	object    any
	seq       uint64
	channels  map[Channel]*ChannelNode
	order     []Channel
	backLinks map[*backLink]struct{}
	resources bag.Bag
	isNew     bool

	destroying bool
	destroyed  bool
}

func newSourceNode(obj any, seq uint64) *sourceNode {
	return &sourceNode{
		object:    obj,
		seq:       seq,
		channels:  make(map[Channel]*ChannelNode),
		backLinks: make(map[*backLink]struct{}),
		isNew:     true,
	}
}

func (n *sourceNode) empty() bool {
	return len(n.channels) == 0 && len(n.backLinks) == 0
}

func (n *sourceNode) dropChannel(channel Channel) {
	delete(n.channels, channel)
	if i := slices.Index(n.order, channel); i >= 0 {
		n.order = slices.Delete(n.order, i, i+1)
	}
}

// sortedBackLinks returns the back-links in the order they were recorded.
func (n *sourceNode) sortedBackLinks() []*backLink {
	out := make([]*backLink, 0, len(n.backLinks))
	for bl := range n.backLinks {
		out = append(out, bl)
	}
	slices.SortFunc(out, func(a, b *backLink) int {
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

// ChannelNode holds the relationships for one (source object, channel) pair
// together with its transaction bookkeeping. ChannelNodes are created and
// destroyed by the Graph; callers receive them from Add and from registered
// factories.
//
// Using a ChannelNode after it has been destroyed panics with an error
// wrapping ErrDestroyed.
type ChannelNode struct {
	source    any
	channel   Channel
	targets   map[any]*link
	order     []*link
	depth     int
	pending   []any
	firing    int
	method    string
	resources bag.Bag
	isNew     bool
	destroyed bool
}

func newChannelNode(source any, channel Channel) *ChannelNode {
	return &ChannelNode{
		source:  source,
		channel: channel,
		targets: make(map[any]*link),
		isNew:   true,
	}
}

func (n *ChannelNode) mustLive() {
	if n.destroyed {
		panic(fmt.Errorf("%w: use after destroy", ErrDestroyed))
	}
}

// Source returns the node's source object.
func (n *ChannelNode) Source() any {
	n.mustLive()
	return n.source
}

// Channel returns the node's channel.
func (n *ChannelNode) Channel() Channel {
	n.mustLive()
	return n.channel
}

// Method returns the handler name targets are asked for by the default
// action, or "" when the node declares none.
func (n *ChannelNode) Method() string {
	n.mustLive()
	return n.method
}

// SetMethod declares the handler name the default action looks up on
// targets implementing MethodProvider.
func (n *ChannelNode) SetMethod(name string) {
	n.mustLive()
	n.method = name
}

// Resources returns the bag released when the node is destroyed.
func (n *ChannelNode) Resources() *bag.Bag {
	n.mustLive()
	return &n.resources
}

// Len returns the number of targets.
func (n *ChannelNode) Len() int {
	n.mustLive()
	return len(n.order)
}

// Depth returns the transaction nesting depth.
func (n *ChannelNode) Depth() int {
	n.mustLive()
	return n.depth
}

// IsNew reports whether the node, or the object node owning it, was empty
// when it was last retrieved.
func (n *ChannelNode) IsNew() bool {
	n.mustLive()
	return n.isNew
}

// State reports what the node is doing. It is safe to call on a destroyed
// node.
func (n *ChannelNode) State() State {
	switch {
	case n.destroyed:
		return StateDestroyed
	case n.firing > 0:
		return StateFiring
	case n.depth > 0:
		return StateSuppressing
	}
	return StateIdle
}

func (n *ChannelNode) empty() bool {
	return len(n.targets) == 0 && n.depth == 0
}

// attach stores l, replacing any relationship to the same target in place.
// Otherwise l is inserted at slot, or appended when slot is out of range.
// The replaced link is returned.
func (n *ChannelNode) attach(l *link, slot int) *link {
	old := n.targets[l.target]
	n.targets[l.target] = l
	if old != nil {
		if i := slices.Index(n.order, old); i >= 0 {
			n.order[i] = l
			return old
		}
	}
	if slot >= 0 && slot <= len(n.order) {
		n.order = slices.Insert(n.order, slot, l)
	} else {
		n.order = append(n.order, l)
	}
	return old
}

func (n *ChannelNode) detach(l *link) bool {
	if n.targets[l.target] != l {
		return false
	}
	delete(n.targets, l.target)
	if i := slices.Index(n.order, l); i >= 0 {
		n.order = slices.Delete(n.order, i, i+1)
	}
	return true
}
