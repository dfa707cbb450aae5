package core

import "sync"

// RunRequester receives "this machine has pending work" notifications. The
// host must eventually call RunToCompletion for the machine at least once
// per request; coalescing requests is allowed.
type RunRequester interface {
	RequestRun(id MachineID)
}

// RunRequesterFunc adapts a function to RunRequester.
type RunRequesterFunc func(id MachineID)

func (f RunRequesterFunc) RequestRun(id MachineID) { f(id) }

// RunQueue is the default RunRequester: a FIFO of machine ids in which a
// machine appears at most once. Safe for concurrent use.
type RunQueue struct {
	mu      sync.Mutex
	ids     []MachineID
	pending map[MachineID]bool
	ready   chan struct{}
}

// NewRunQueue returns an empty queue.
func NewRunQueue() *RunQueue {
	return &RunQueue{
		pending: make(map[MachineID]bool),
		ready:   make(chan struct{}, 1),
	}
}

// RequestRun appends id unless it is already waiting, and signals Ready.
func (q *RunQueue) RequestRun(id MachineID) {
	q.mu.Lock()
	if !q.pending[id] {
		q.pending[id] = true
		q.ids = append(q.ids, id)
	}
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Pop removes the oldest waiting id.
func (q *RunQueue) Pop() (MachineID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.ids) == 0 {
		return 0, false
	}
	id := q.ids[0]
	q.ids = q.ids[1:]
	delete(q.pending, id)
	return id, true
}

// Len returns the number of waiting ids.
func (q *RunQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// Ready is signalled after every request. A receive does not guarantee a
// non-empty queue.
func (q *RunQueue) Ready() <-chan struct{} {
	return q.ready
}
