package ripple

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func nextWithin(t *testing.T, q *Queue, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	if err := q.Next(ctx); err != nil {
		t.Fatalf("expected deferred work to be queued: %v", err)
	}
}

func TestDebounce_CoalescesRapidFires(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	queue := NewQueue(4)
	g := New(WithClock(clock), WithDispatcher(queue))

	a := &node{}
	b := &recorder{}
	if _, err := g.Add(ctx, a, b, WithDebounce(100*time.Millisecond)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	for i := 1; i <= 3; i++ {
		if err := g.Fire(ctx, a, i); err != nil {
			t.Fatalf("Fire failed: %v", err)
		}
	}

	if len(b.calls) != 0 {
		t.Fatalf("expected no immediate calls, got %d", len(b.calls))
	}
	if r, _ := g.Inspect(a); len(r.Outbound) != 1 || !r.Outbound[0].Debounced || !r.Outbound[0].Pending {
		t.Errorf("expected one pending debounced link, got %+v", r.Outbound)
	}

	clock.Advance(150 * time.Millisecond)
	clock.BlockUntilReady()
	nextWithin(t, queue, time.Second)

	if len(b.calls) != 1 {
		t.Fatalf("expected 1 call after debounce, got %d", len(b.calls))
	}
	if args := b.calls[0].args; len(args) != 1 || args[0] != 3 {
		t.Errorf("expected last args [3], got %v", args)
	}
}

func TestDebounce_FireRestartsDelay(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	queue := NewQueue(4)
	g := New(WithClock(clock), WithDispatcher(queue))

	a := &node{}
	b := &recorder{}
	if _, err := g.Add(ctx, a, b, WithDebounce(100*time.Millisecond)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_ = g.Fire(ctx, a, "early")
	clock.Advance(60 * time.Millisecond)
	clock.BlockUntilReady()

	_ = g.Fire(ctx, a, "late")
	clock.Advance(60 * time.Millisecond)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)

	if queue.Len() != 0 {
		t.Fatalf("expected delay restarted by the second fire, got %d queued", queue.Len())
	}

	clock.Advance(50 * time.Millisecond)
	clock.BlockUntilReady()
	nextWithin(t, queue, time.Second)

	if len(b.calls) != 1 || b.calls[0].args[0] != "late" {
		t.Errorf("expected one call with [late], got %+v", b.calls)
	}
}

func TestDebounce_ZeroUsesGraphDefault(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	queue := NewQueue(4)
	g := New(WithClock(clock), WithDispatcher(queue), WithDefaultDebounce(time.Second))

	a := &node{}
	b := &recorder{}
	if _, err := g.Add(ctx, a, b, WithDebounce(0)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_ = g.Fire(ctx, a)
	clock.Advance(DefaultDebounce)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)
	if queue.Len() != 0 {
		t.Fatal("expected the graph default, not DefaultDebounce, to apply")
	}

	clock.Advance(time.Second)
	clock.BlockUntilReady()
	nextWithin(t, queue, time.Second)
	if len(b.calls) != 1 {
		t.Errorf("expected 1 call, got %d", len(b.calls))
	}
}

func TestDebounce_RemoveCancelsPendingBeforeHook(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	queue := NewQueue(4)
	g := New(WithClock(clock), WithDispatcher(queue))

	a := &node{}
	b := &recorder{}
	removed := 0
	if _, err := g.Add(ctx, a, b,
		WithDebounce(100*time.Millisecond),
		OnRemove(func() { removed++ }),
	); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_ = g.Fire(ctx, a, 1)
	if err := g.Remove(ctx, a, b); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	if removed != 1 {
		t.Errorf("expected removal hook once, got %d", removed)
	}

	clock.Advance(time.Second)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)

	if n := queue.Drain(); n != 0 {
		t.Errorf("expected nothing dispatched after removal, got %d", n)
	}
	if len(b.calls) != 0 {
		t.Errorf("expected no calls after removal, got %d", len(b.calls))
	}
}

func TestAction_DisposeStopsDebouncerBeforeHook(t *testing.T) {
	clock := clockz.NewFakeClock()
	g := New(WithClock(clock), WithDispatcher(NewQueue(1)))
	a, b := &node{}, &recorder{}

	var pendingAtHook bool
	var act *action
	act = g.newAction(nil, a, All, b, linkConfig{
		action:    func(context.Context, ...any) error { return nil },
		debounced: true,
		debounce:  time.Second,
		onRemove:  func() { pendingAtHook = act.debouncer.pending() },
	})

	_ = act.invoke(context.Background())
	if !act.debouncer.pending() {
		t.Fatal("expected invocation scheduled")
	}

	act.dispose()
	act.dispose()
	if pendingAtHook {
		t.Error("expected pending invocation cancelled before the hook ran")
	}
}

func TestDebounce_ObjectDestroyedCancelsPending(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	queue := NewQueue(4)
	g := New(WithClock(clock), WithDispatcher(queue))

	a := &node{}
	b := &recorder{}
	if _, err := g.Add(ctx, a, b, WithDebounce(100*time.Millisecond)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	_ = g.Fire(ctx, a)
	g.ObjectDestroyed(ctx, b)

	clock.Advance(time.Second)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)

	queue.Drain()
	if len(b.calls) != 0 {
		t.Errorf("expected destroyed target not notified, got %d calls", len(b.calls))
	}
}

func TestDebounce_DeferredErrorRecorded(t *testing.T) {
	ctx := context.Background()
	clock := clockz.NewFakeClock()
	queue := NewQueue(4)
	metrics := &countingMetrics{}
	g := New(WithClock(clock), WithDispatcher(queue), WithMetrics(metrics))

	boom := errors.New("boom")
	a := &node{}
	b := &recorder{err: boom}
	if _, err := g.Add(ctx, a, b, WithDebounce(100*time.Millisecond)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if err := g.Fire(ctx, a); err != nil {
		t.Fatalf("expected debounced fire to return nil, got %v", err)
	}

	clock.Advance(150 * time.Millisecond)
	clock.BlockUntilReady()
	nextWithin(t, queue, time.Second)

	failures := g.Failures()
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	var perr *PropagationError
	if !errors.As(failures[0].Err, &perr) || !errors.Is(perr, boom) {
		t.Fatalf("expected PropagationError wrapping boom, got %v", failures[0].Err)
	}
	if perr.Source != a || perr.Target != b {
		t.Errorf("expected error naming a and b, got %+v", perr)
	}
	if metrics.deferred.Load() != 1 {
		t.Errorf("expected 1 deferred failure metric, got %d", metrics.deferred.Load())
	}
}

func TestDebounce_StopIgnoresLaterCalls(t *testing.T) {
	clock := clockz.NewFakeClock()
	queue := NewQueue(4)
	calls := 0
	d := newDebouncer(clock, 10*time.Millisecond, func(context.Context, ...any) error {
		calls++
		return nil
	}, queue, nil)

	d.stop()
	if err := d.call(context.Background(), 1); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if d.pending() {
		t.Error("expected stopped debouncer to schedule nothing")
	}

	clock.Advance(time.Second)
	clock.BlockUntilReady()
	time.Sleep(10 * time.Millisecond)
	queue.Drain()
	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}

func TestDebounce_StoppedAfterDispatchDoesNotRun(t *testing.T) {
	clock := clockz.NewFakeClock()
	queue := NewQueue(4)
	calls := 0
	d := newDebouncer(clock, 10*time.Millisecond, func(context.Context, ...any) error {
		calls++
		return nil
	}, queue, nil)

	_ = d.call(context.Background())
	clock.Advance(20 * time.Millisecond)
	clock.BlockUntilReady()

	deadline := time.Now().Add(time.Second)
	for queue.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if queue.Len() != 1 {
		t.Fatal("expected work to be dispatched")
	}

	d.stop()
	queue.Drain()
	if calls != 0 {
		t.Errorf("expected queued work skipped after stop, got %d calls", calls)
	}
}

func TestDebounce_StopAbandonsBlockedDispatch(t *testing.T) {
	clock := clockz.NewFakeClock()
	queue := NewQueue(1)
	queue.Dispatch(func() {})
	calls := 0
	d := newDebouncer(clock, 10*time.Millisecond, func(context.Context, ...any) error {
		calls++
		return nil
	}, queue, nil)

	_ = d.call(context.Background())
	clock.Advance(20 * time.Millisecond)
	clock.BlockUntilReady()

	deadline := time.Now().Add(time.Second)
	for d.pending() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if d.pending() {
		t.Fatal("expected the timer to fire")
	}
	time.Sleep(10 * time.Millisecond)

	d.stop()
	if n := queue.Drain(); n != 1 {
		t.Fatalf("expected only the filler callback, got %d", n)
	}
	time.Sleep(20 * time.Millisecond)
	if queue.Len() != 0 {
		t.Error("expected the blocked hand-off to be abandoned after stop")
	}
	if calls != 0 {
		t.Errorf("expected no calls, got %d", calls)
	}
}
