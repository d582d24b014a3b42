package diag

import (
	"context"
	"sync"
)

const defaultCapacity = 100

// Recorder is a [Sink] that keeps the most recent diagnostics in a fixed
// size ring, overwriting the oldest entry when full.
type Recorder struct {
	entries  []Diagnostic
	capacity int
	head     int
	size     int
	dropped  int
	mu       sync.RWMutex
}

// NewRecorder creates a [Recorder] holding up to capacity diagnostics.
// A non-positive capacity selects the default of 100.
func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}

	return &Recorder{
		entries:  make([]Diagnostic, capacity),
		capacity: capacity,
	}
}

// Report implements [Sink].
func (r *Recorder) Report(_ context.Context, d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.head] = d
	r.head = (r.head + 1) % r.capacity

	if r.size < r.capacity {
		r.size++
	} else {
		r.dropped++
	}
}

// Diagnostics returns the recorded diagnostics, oldest first.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.size == 0 {
		return nil
	}

	out := make([]Diagnostic, 0, r.size)
	start := (r.head - r.size + r.capacity) % r.capacity

	for i := range r.size {
		out = append(out, r.entries[(start+i)%r.capacity])
	}

	return out
}

// Len returns the number of diagnostics held.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.size
}

// Dropped returns the number of diagnostics overwritten because the ring
// was full.
func (r *Recorder) Dropped() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.dropped
}

// Reset removes all diagnostics.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	clear(r.entries)

	r.head = 0
	r.size = 0
	r.dropped = 0
}
