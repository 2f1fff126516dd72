package ripple

import (
	"context"
	"time"
)

// DefaultDebounce is the delay used by WithDebounce(0).
const DefaultDebounce = 500 * time.Millisecond

// linkConfig holds the options given to Add.
type linkConfig struct {
	action    Action
	debounced bool
	debounce  time.Duration
	onRemove  func()
}

// LinkOption configures a relationship created by Add. Without options the
// relationship uses the default action.
type LinkOption func(*linkConfig)

// WithAction uses fn as the relationship's action instead of the default
// handler resolution.
func WithAction(fn Action) LinkOption {
	return func(c *linkConfig) {
		c.action = fn
	}
}

// WithDebounce delays the action until no fire has arrived for d. Each fire
// restarts the delay and only the last fire's arguments reach the action.
// A zero or negative d uses the graph's default debounce.
func WithDebounce(d time.Duration) LinkOption {
	return func(c *linkConfig) {
		c.debounced = true
		c.debounce = d
	}
}

// OnRemove registers fn to run once when the relationship is removed,
// replaced, or torn down with its nodes.
func OnRemove(fn func()) LinkOption {
	return func(c *linkConfig) {
		c.onRemove = fn
	}
}

// action is the stored form of a relationship's propagation behavior.
type action struct {
	invoke    Action
	debouncer *debouncer
	onRemove  func()
	disposed  bool
}

// dispose cancels any pending debounce and runs the removal hook once.
func (a *action) dispose() {
	if a.disposed {
		return
	}
	a.disposed = true
	if a.debouncer != nil {
		a.debouncer.stop()
	}
	if a.onRemove != nil {
		a.onRemove()
	}
}

// newAction builds the action for a relationship from cn to target.
func (g *Graph) newAction(cn *ChannelNode, source any, channel Channel, target any, cfg linkConfig) *action {
	fn := cfg.action
	if fn == nil {
		fn = g.defaultAction(cn, source, channel, target)
	}

	a := &action{invoke: fn, onRemove: cfg.onRemove}
	if cfg.debounced {
		delay := cfg.debounce
		if delay <= 0 {
			delay = g.debounce
		}
		a.debouncer = newDebouncer(g.clock, delay, fn, g.dispatcher, func(ctx context.Context, err error) {
			g.deferredFailed(ctx, &PropagationError{Source: source, Channel: channel, Target: target, Err: err})
		})
		a.invoke = a.debouncer.call
	}
	return a
}

// defaultAction resolves the target's handler at fire time: the node's
// declared method, then OnDependencyChanged, then a pass-through fire of the
// target's own All channel unless that channel is already firing.
func (g *Graph) defaultAction(cn *ChannelNode, source any, channel Channel, target any) Action {
	return func(ctx context.Context, args ...any) error {
		if cn.method != "" {
			if p, ok := target.(MethodProvider); ok {
				if fn := p.DependencyMethod(cn.method); fn != nil {
					return fn(ctx, args...)
				}
			}
		}
		if h, ok := target.(DependencyHandler); ok {
			return h.OnDependencyChanged(ctx, Dependency{Source: source, Channel: channel}, args...)
		}
		// A pass-through cycle stops at the node already firing.
		if next, ok := g.Lookup(target); ok && next.firing > 0 {
			return nil
		}
		return g.Fire(ctx, target, args...)
	}
}
