/*
Package ripple propagates changes between objects through an explicit
dependency graph.

A Graph records that a target object depends on a source object, either on
the whole object or on one named channel of it. Firing the source notifies
every target in the order the relationships were added. Targets decide how
they react: through a named method declared by a factory, through a generic
OnDependencyChanged handler, or, when they have neither, by passing the
change on to their own dependents.

# Basic Usage

	g := ripple.New()

	g.Add(ctx, ripple.On(window, "size"), panel)
	g.Fire(ctx, ripple.On(window, "size"), 800, 600)

A target reacts by implementing DependencyHandler:

	func (p *Panel) OnDependencyChanged(ctx context.Context, dep ripple.Dependency, args ...any) error {
	    w, h := args[0].(int), args[1].(int)
	    return p.Resize(w, h)
	}

# Channels

Every source has an All channel plus any number of named channels. Channels
are independent: firing a named channel does not notify All dependents, and
firing All does not notify named channel dependents. Channels may be any
comparable value.

# Actions

Add accepts LinkOptions that change how a relationship propagates:

	g.Add(ctx, doc, preview,
	    ripple.WithDebounce(200*time.Millisecond),
	    ripple.OnRemove(func() { preview.Close() }),
	)

WithAction replaces the default handler resolution. WithDebounce defers the
action until fires stop arriving and delivers only the last arguments.
OnRemove runs once when the relationship goes away.

# Factories

Registered factories configure new ChannelNodes. ForType declares which
method a target should provide for sources of a given type:

	g.RegisterFactory(ripple.ForType[*Window]("OnWindowChanged", "size"))

Targets expose named methods by embedding Methods.

# Transactions

Begin and End bracket a batch of changes. Fires inside the batch are held,
and the outermost End fires once with the last arguments given:

	g.Begin(ctx, window)
	g.Fire(ctx, window, 640, 480)
	g.Fire(ctx, window, 800, 600)
	g.End(ctx, window) // one fire with (800, 600)

# Lifetimes

Nodes are created on demand and released once they hold no relationships
and no open transaction. ObjectDestroyed removes an object with every
relationship that mentions it. Destroy tears down the whole graph.

# Concurrency

A Graph is not safe for concurrent use. Debounced actions and watcher
values reach the graph through a Dispatcher; a Queue hands them to the
goroutine that owns the graph.

# Observability

The graph emits capitan signals (RelationshipAdded, ChangeFired,
ChangeSuppressed, DeferredFailed and others) and reports to an optional
MetricsProvider. Stats, Inspect and InProgress describe the graph's
current shape, and Failures lists errors that had no caller to return to.
*/
package ripple
