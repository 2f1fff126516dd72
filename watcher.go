package ripple

import (
	"context"
	"fmt"
)

// Watcher observes an external source for changes and emits raw bytes on a
// channel. Implementations emit the current value immediately upon Watch.
type Watcher interface {
	// Watch begins observing the source and returns a channel that emits
	// raw bytes when changes occur. The channel is closed when the context
	// is canceled or an unrecoverable error occurs.
	Watch(ctx context.Context) (<-chan []byte, error)
}

// Bind fires src on g with each value w emits, until ctx is canceled or the
// watcher closes its channel. Fires are handed to d so they run on the
// goroutine owning g; a nil d uses g's dispatcher. Errors returned by the
// fire are kept in g's failure history.
//
// The returned channel is closed once ctx is canceled or the watcher's
// channel is drained. A dispatcher implementing ContextDispatcher is
// abandoned on cancellation even while it has no room for the next fire.
func Bind(ctx context.Context, g *Graph, src any, w Watcher, d Dispatcher) (<-chan struct{}, error) {
	if _, _, err := normalize(src); err != nil {
		return nil, err
	}
	if d == nil {
		d = g.dispatcher
	}

	changes, err := w.Watch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var data []byte
			select {
			case <-ctx.Done():
				return
			case v, ok := <-changes:
				if !ok {
					return
				}
				data = v
			}
			err := dispatchContext(ctx, d, func() {
				if err := g.Fire(ctx, src, data); err != nil {
					g.record(err)
				}
			})
			if err != nil {
				return
			}
		}
	}()
	return done, nil
}
