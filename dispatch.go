package ripple

import "context"

// Dispatcher runs deferred work such as debounced actions. A Graph is not
// safe for concurrent use, so programs whose deferred actions touch the
// graph should install a Dispatcher that hands the work to the goroutine
// owning the graph, such as a Queue.
type Dispatcher interface {
	Dispatch(fn func())
}

// ContextDispatcher is a Dispatcher whose hand-off may block and can be
// abandoned when ctx is canceled.
type ContextDispatcher interface {
	Dispatcher
	DispatchContext(ctx context.Context, fn func()) error
}

// dispatchContext hands fn to d, giving up when ctx is done. Dispatchers
// that cannot be interrupted are only skipped when ctx is already done.
func dispatchContext(ctx context.Context, d Dispatcher, fn func()) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cd, ok := d.(ContextDispatcher); ok {
		return cd.DispatchContext(ctx, fn)
	}
	d.Dispatch(fn)
	return nil
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// InlineDispatcher runs work immediately on the calling goroutine, which for
// debounced actions is the timer goroutine.
type InlineDispatcher struct{}

// Dispatch runs fn.
func (InlineDispatcher) Dispatch(fn func()) {
	fn()
}

// Queue collects deferred work for a single owner goroutine, which executes
// it with Run, Next or Drain.
type Queue struct {
	work chan func()
}

// NewQueue creates a Queue buffering up to size pending callbacks. Dispatch
// blocks while the buffer is full; DispatchContext blocks until its context
// is done.
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{work: make(chan func(), size)}
}

// Dispatch enqueues fn.
func (q *Queue) Dispatch(fn func()) {
	q.work <- fn
}

// DispatchContext enqueues fn, returning ctx's error if ctx is done before
// the buffer has room.
func (q *Queue) DispatchContext(ctx context.Context, fn func()) error {
	select {
	case q.work <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued work until ctx is canceled.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-q.work:
			fn()
		}
	}
}

// Next waits for one callback and executes it.
func (q *Queue) Next(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case fn := <-q.work:
		fn()
		return nil
	}
}

// Drain executes every callback already queued and returns how many ran.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case fn := <-q.work:
			fn()
			n++
		default:
			return n
		}
	}
}

// Len returns the number of queued callbacks.
func (q *Queue) Len() int {
	return len(q.work)
}

var (
	_ Dispatcher = InlineDispatcher{}
	_ Dispatcher = (*Queue)(nil)

	_ ContextDispatcher = (*Queue)(nil)
	_ Dispatcher = DispatcherFunc(nil)
)
