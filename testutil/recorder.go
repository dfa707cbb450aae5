package testutil

import (
	"fmt"
	"sync"
)

// Recorder collects a trace of callback invocations. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []string
}

// Record appends a formatted entry.
func (r *Recorder) Record(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, fmt.Sprintf(format, args...))
}

// Action returns an action that records entry.
func (r *Recorder) Action(entry string) func() {
	return func() { r.Record("%s", entry) }
}

// Activity returns a do-activity body recording "label(counter)".
func (r *Recorder) Activity(label string) func(counter int) {
	return func(counter int) { r.Record("%s(%d)", label, counter) }
}

// Entries returns a copy of the trace.
func (r *Recorder) Entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.entries...)
}

// Reset clears the trace.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
