// Package testing provides test utilities and helpers for ripple graphs.
package testing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"github.com/zoobzio/ripple"
)

// Call is one notification received by a Recorder.
type Call struct {
	Dependency ripple.Dependency
	Args       []any
}

// Recorder is a ripple.DependencyHandler that records every notification.
// It is safe for concurrent use, so it can observe debounced actions run by
// an InlineDispatcher.
type Recorder struct {
	Name string

	mu    sync.Mutex
	calls []Call
	err   error
}

// NewRecorder creates a Recorder with the given name.
func NewRecorder(name string) *Recorder {
	return &Recorder{Name: name}
}

// OnDependencyChanged implements ripple.DependencyHandler.
func (r *Recorder) OnDependencyChanged(_ context.Context, dep ripple.Dependency, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, Call{Dependency: dep, Args: args})
	return r.err
}

// FailWith makes later notifications return err.
func (r *Recorder) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Calls returns a copy of the recorded notifications.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// Count returns the number of recorded notifications.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// Last returns the most recent notification.
func (r *Recorder) Last() (Call, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return Call{}, false
	}
	return r.calls[len(r.calls)-1], true
}

var _ ripple.DependencyHandler = (*Recorder)(nil)

// Harness bundles a graph with a fake clock and a queue for deterministic
// debounce tests.
type Harness struct {
	Graph *ripple.Graph
	Clock *clockz.FakeClock
	Queue *ripple.Queue
}

// NewHarness creates a Harness. The graph is destroyed when the test ends.
func NewHarness(t *testing.T, opts ...ripple.Option) *Harness {
	t.Helper()
	h := &Harness{
		Clock: clockz.NewFakeClock(),
		Queue: ripple.NewQueue(64),
	}
	opts = append([]ripple.Option{ripple.WithClock(h.Clock), ripple.WithDispatcher(h.Queue)}, opts...)
	h.Graph = ripple.New(opts...)
	t.Cleanup(func() { h.Graph.Destroy(context.Background()) })
	return h
}

// Advance moves the fake clock forward and runs the work that becomes due,
// waiting up to a second for expected callbacks to reach the queue. It
// returns how many callbacks ran.
func (h *Harness) Advance(t *testing.T, d time.Duration, expected int) int {
	t.Helper()
	h.Clock.Advance(d)
	h.Clock.BlockUntilReady()

	WaitFor(t, time.Second, func() bool { return h.Queue.Len() >= expected })
	return h.Queue.Drain()
}

// WaitFor polls a condition until it returns true or timeout is reached.
// Returns true if the condition was met, false if timeout occurred.
func WaitFor(t *testing.T, timeout time.Duration, condition func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

// RequireRelationships fails the test if src does not have exactly n
// targets.
func RequireRelationships(t *testing.T, g *ripple.Graph, src any, n int) {
	t.Helper()
	got := 0
	if cn, ok := g.Lookup(src); ok {
		got = cn.Len()
	}
	if got != n {
		t.Fatalf("expected %d relationships, got %d", n, got)
	}
}

// RequireAbsent fails the test if any of objs still has a node.
func RequireAbsent(t *testing.T, g *ripple.Graph, objs ...any) {
	t.Helper()
	for _, obj := range objs {
		if g.Has(obj) {
			t.Fatalf("expected %T@%p to have no node", obj, obj)
		}
	}
}

// RequireEmpty fails the test if the graph still holds any node.
func RequireEmpty(t *testing.T, g *ripple.Graph) {
	t.Helper()
	if s := g.Stats(); s.Objects != 0 || s.Channels != 0 || s.Relationships != 0 {
		t.Fatalf("expected empty graph, got %+v", s)
	}
}
