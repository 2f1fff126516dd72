package ripple

import (
	"context"
	"sync"
	"time"

	"github.com/zoobzio/clockz"
)

// debouncer coalesces calls into a single deferred invocation of inner
// carrying the last call's arguments. Calls return immediately; the inner
// action runs through the dispatcher once the delay passes without another
// call.
type debouncer struct {
	clock    clockz.Clock
	delay    time.Duration
	inner    Action
	dispatch Dispatcher
	onError  func(context.Context, error)

	// life is canceled by stop, abandoning a blocked hand-off.
	life context.Context
	kill context.CancelFunc

	mu      sync.Mutex
	gen     uint64
	timer   clockz.Timer
	cancel  chan struct{}
	ctx     context.Context
	args    []any
	stopped bool
}

func newDebouncer(clock clockz.Clock, delay time.Duration, inner Action, dispatch Dispatcher, onError func(context.Context, error)) *debouncer {
	life, kill := context.WithCancel(context.Background())
	return &debouncer{
		clock:    clock,
		delay:    delay,
		inner:    inner,
		dispatch: dispatch,
		onError:  onError,
		life:     life,
		kill:     kill,
	}
}

// call records args and restarts the delay.
func (d *debouncer) call(ctx context.Context, args ...any) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return nil
	}

	d.ctx = context.WithoutCancel(ctx)
	d.args = args
	d.gen++
	d.stopTimer()

	d.timer = d.clock.NewTimer(d.delay)
	d.cancel = make(chan struct{})
	go d.wait(d.timer, d.cancel, d.gen)
	return nil
}

// stop cancels any pending invocation. Later calls are ignored.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	d.kill()
	d.stopTimer()
	d.ctx = nil
	d.args = nil
}

// pending reports whether an invocation is scheduled.
func (d *debouncer) pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// stopTimer must be called with mu held.
func (d *debouncer) stopTimer() {
	if d.timer == nil {
		return
	}
	d.timer.Stop()
	close(d.cancel)
	d.timer = nil
	d.cancel = nil
}

func (d *debouncer) wait(timer clockz.Timer, cancel <-chan struct{}, gen uint64) {
	select {
	case <-cancel:
		return
	case <-timer.C():
	}

	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	ctx, args := d.ctx, d.args
	d.timer = nil
	d.cancel = nil
	d.args = nil
	d.mu.Unlock()

	_ = dispatchContext(d.life, d.dispatch, func() {
		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if stopped {
			return
		}
		if err := d.inner(ctx, args...); err != nil && d.onError != nil {
			d.onError(ctx, err)
		}
	})
}
