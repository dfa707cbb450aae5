package core

import (
	"log/slog"
	"sort"
)

// Registry owns every machine and the shared do-activity schedule. Machines
// are created on first reference and live as long as the registry.
type Registry struct {
	machines   map[MachineID]*Machine
	order      []*Machine // creation order
	schedule   *Schedule
	clock      Clock
	requester  RunRequester
	logger     *slog.Logger
	queueLimit int
	hooks      []func(StateChange)
}

// NewRegistry creates a registry. Without WithRunRequester requests go to a
// fresh RunQueue, available through Requester.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		machines:   make(map[MachineID]*Machine),
		schedule:   NewSchedule(),
		clock:      NewMonotonicClock(),
		logger:     slog.Default(),
		queueLimit: DefaultQueueLimit,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.requester == nil {
		r.requester = NewRunQueue()
	}
	return r
}

// GetOrCreate returns the machine with id, creating it parked in the
// pseudostate.
func (r *Registry) GetOrCreate(id MachineID) *Machine {
	if m, ok := r.machines[id]; ok {
		return m
	}
	m := newMachine(id, r)
	r.machines[id] = m
	r.order = append(r.order, m)
	return m
}

// Lookup returns the machine with id without creating it.
func (r *Registry) Lookup(id MachineID) (*Machine, bool) {
	m, ok := r.machines[id]
	return m, ok
}

// Machines returns all machines ordered by id.
func (r *Registry) Machines() []*Machine {
	list := make([]*Machine, 0, len(r.machines))
	for _, m := range r.machines {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].id < list[j].id })
	return list
}

// RunToCompletion runs one pass of the machine with id.
func (r *Registry) RunToCompletion(id MachineID) {
	r.GetOrCreate(id).RunToCompletion()
}

// IdleTick advances the do-activity schedule to the current clock time and
// requests a run for every machine that received a positive counter or whose
// timeout deadline has passed.
func (r *Registry) IdleTick() {
	now := r.clock.NowMillis()
	r.schedule.Tick(now, func(id MachineID, index, counter int) {
		m, ok := r.machines[id]
		if !ok {
			return
		}
		if index >= len(m.current.activities) {
			return
		}
		m.current.activities[index].pending = counter
		if counter > 0 {
			r.requestRun(id)
		}
	})
	for _, m := range r.order {
		if m.timeoutDue(now) {
			r.requestRun(m.id)
		}
	}
}

// AddStateChangeHook registers fn like WithStateChangeHook.
func (r *Registry) AddStateChangeHook(fn func(StateChange)) {
	if fn != nil {
		r.hooks = append(r.hooks, fn)
	}
}

func (r *Registry) Schedule() *Schedule     { return r.schedule }
func (r *Registry) Clock() Clock            { return r.clock }
func (r *Registry) Requester() RunRequester { return r.requester }
func (r *Registry) Logger() *slog.Logger    { return r.logger }

func (r *Registry) requestRun(id MachineID) {
	r.requester.RequestRun(id)
}

func (r *Registry) notify(change StateChange) {
	for _, fn := range r.hooks {
		fn(change)
	}
}
