package ripple

import (
	"sync"
	"time"
)

// Failure is an error the graph could not return to a caller: a failed
// debounced action, a resource that failed to release, or a warning.
type Failure struct {
	Err error
	At  time.Time
}

// failureRing is a thread-safe ring buffer of recent failures. Debounced
// actions push from their timer goroutines.
type failureRing struct {
	mu      sync.RWMutex
	entries []Failure
	size    int
	head    int
	count   int
}

// newFailureRing creates a ring with the given capacity.
// If size is 0, the ring is disabled.
func newFailureRing(size int) *failureRing {
	if size <= 0 {
		return nil
	}
	return &failureRing{
		entries: make([]Failure, size),
		size:    size,
	}
}

func (r *failureRing) push(f Failure) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = f
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

func (r *failureRing) clear() {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.entries)
	r.head = 0
	r.count = 0
}

// all returns the failures oldest first.
func (r *failureRing) all() []Failure {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.count == 0 {
		return nil
	}

	out := make([]Failure, r.count)
	start := (r.head - r.count + r.size) % r.size
	for i := range out {
		out[i] = r.entries[(start+i)%r.size]
	}
	return out
}
