package mstate

import (
	"log/slog"
	"sync"

	"github.com/comalice/mstate/internal/core"
	"github.com/comalice/mstate/internal/primitives"
)

type (
	MachineID   = core.MachineID
	StateID     = core.StateID
	TriggerID   = core.TriggerID
	StateChange = core.StateChange
	Clock       = core.Clock
	ClockFunc   = core.ClockFunc
	Step        = core.Step

	// RunRequesterFunc adapts a function to receive run requests.
	RunRequesterFunc = core.RunRequesterFunc

	// Option configures an Engine.
	Option = core.Option

	// Vars is a per-machine variable store.
	Vars = primitives.Vars
)

const (
	// Pseudostate is the parked state of a machine that is not started.
	Pseudostate = core.Pseudostate
	// DefaultQueueLimit bounds every machine's trigger queue unless
	// WithQueueLimit says otherwise.
	DefaultQueueLimit = core.DefaultQueueLimit
)

// ErrQueueFull is returned by Send when a machine's trigger queue is at its
// limit. The trigger is dropped.
var ErrQueueFull = core.ErrQueueFull

var (
	WithClock           = core.WithClock
	WithRunRequester    = core.WithRunRequester
	WithLogger          = core.WithLogger
	WithQueueLimit      = core.WithQueueLimit
	WithStateChangeHook = core.WithStateChangeHook
)

// Engine is the entry point: it interns state and trigger names and owns the
// registry of machines.
type Engine struct {
	names    *primitives.NameStore
	registry *core.Registry
	logger   *slog.Logger

	varsMu sync.Mutex
	vars   map[MachineID]*Vars
}

// New creates an engine. Without WithRunRequester run requests collect in
// the queue returned by RunQueue.
func New(opts ...Option) *Engine {
	r := core.NewRegistry(opts...)
	return &Engine{
		names:    primitives.NewNameStore(),
		registry: r,
		logger:   r.Logger(),
		vars:     make(map[MachineID]*Vars),
	}
}

// RunQueue returns the engine's default run queue, or nil when a custom
// RunRequester was configured.
func (e *Engine) RunQueue() *core.RunQueue {
	q, _ := e.registry.Requester().(*core.RunQueue)
	return q
}

// Registry exposes the underlying machine registry.
func (e *Engine) Registry() *core.Registry { return e.registry }

func (e *Engine) Logger() *slog.Logger { return e.logger }

// ID interns name and returns its id. The empty name is id 0.
func (e *Engine) ID(name string) primitives.NameID { return e.names.GetOrNew(name) }

// Lookup returns the id of an already interned name.
func (e *Engine) Lookup(name string) (primitives.NameID, bool) { return e.names.Lookup(name) }

// NameOf returns the name interned under id.
func (e *Engine) NameOf(id primitives.NameID) string {
	switch id {
	case primitives.StartTrigger:
		return "<start>"
	case primitives.StopTrigger:
		return "<stop>"
	case primitives.TimeoutTrigger:
		return "<timeout>"
	}
	return e.names.NameOf(id)
}

// Vars returns the variable store of machine m, creating it on first use.
func (e *Engine) Vars(m MachineID) *Vars {
	e.varsMu.Lock()
	defer e.varsMu.Unlock()
	v, ok := e.vars[m]
	if !ok {
		v = primitives.NewVars()
		e.vars[m] = v
	}
	return v
}

// Machines returns the ids of every machine referenced so far, ascending.
func (e *Engine) Machines() []MachineID {
	list := e.registry.Machines()
	ids := make([]MachineID, len(list))
	for i, m := range list {
		ids[i] = m.ID()
	}
	return ids
}

// Start asks machine m to leave the pseudostate for state. It has no effect
// on a machine that is already started.
func (e *Engine) Start(m MachineID, state string) error {
	if state == "" {
		e.logger.Warn("start without target state ignored", "machine", int(m))
		return nil
	}
	target := e.names.GetOrNew(state)
	return e.registry.GetOrCreate(m).Enqueue(primitives.StartTrigger, []int{int(target)})
}

// Stop asks machine m to return to the pseudostate. Exit actions of the
// current state run; do-activities stop.
func (e *Engine) Stop(m MachineID) error {
	return e.registry.GetOrCreate(m).Enqueue(primitives.StopTrigger, nil)
}

// Send queues trigger with args on machine m and requests a run. It never
// evaluates transitions itself.
func (e *Engine) Send(m MachineID, trigger string, args ...int) error {
	if trigger == "" {
		e.logger.Warn("send of empty trigger ignored", "machine", int(m))
		return nil
	}
	return e.SendID(m, e.names.GetOrNew(trigger), args...)
}

// SendID is Send with an already interned trigger.
func (e *Engine) SendID(m MachineID, trigger TriggerID, args ...int) error {
	if trigger <= core.CompletionTrigger {
		e.logger.Warn("send of reserved trigger ignored", "machine", int(m), "trigger", int(trigger))
		return nil
	}
	return e.registry.GetOrCreate(m).Enqueue(trigger, args)
}

// Traverse selects target index on the evaluation in progress on machine m.
// Outside a transition callback it has no effect.
func (e *Engine) Traverse(m MachineID, index int) {
	if mc, ok := e.registry.Lookup(m); ok {
		mc.Traverse(index)
	}
}

// TriggerArgs returns the arguments of the trigger machine m evaluated last.
func (e *Engine) TriggerArgs(m MachineID) []int {
	if mc, ok := e.registry.Lookup(m); ok {
		return mc.TriggerArgs()
	}
	return []int{}
}

// ResetTimeout re-arms machine m's timeout deadline ms from now. A negative
// ms disarms it until the next state entry.
func (e *Engine) ResetTimeout(m MachineID, ms int64) {
	if mc, ok := e.registry.Lookup(m); ok {
		mc.ResetTimeout(ms)
	}
}

// Timeouted reports whether machine m's timeout deadline has passed.
func (e *Engine) Timeouted(m MachineID) bool {
	mc, ok := e.registry.Lookup(m)
	return ok && mc.Timeouted()
}

// RunToCompletion performs one pass of machine m. Hosts call it once per run
// request.
func (e *Engine) RunToCompletion(m MachineID) {
	e.registry.RunToCompletion(m)
}

// IdleTick advances do-activity timers to the clock's current time.
func (e *Engine) IdleTick() {
	e.registry.IdleTick()
}

// Current returns the name of machine m's current state; "" while parked.
func (e *Engine) Current(m MachineID) string {
	return e.names.NameOf(e.CurrentID(m))
}

// CurrentID returns the id of machine m's current state.
func (e *Engine) CurrentID(m MachineID) StateID {
	if mc, ok := e.registry.Lookup(m); ok {
		return mc.Current()
	}
	return Pseudostate
}

// OnStateChange registers fn to run after every state change of any
// machine, on the dispatch goroutine.
func (e *Engine) OnStateChange(fn func(StateChange)) {
	e.registry.AddStateChangeHook(fn)
}

// QueueLen returns the number of triggers waiting on machine m.
func (e *Engine) QueueLen(m MachineID) int {
	if mc, ok := e.registry.Lookup(m); ok {
		return mc.QueueLen()
	}
	return 0
}
