package core

import (
	"fmt"
	"log/slog"

	"github.com/comalice/mstate/internal/primitives"
)

// Step is a phase of the run-to-completion stepper.
type Step int

const (
	// WaitPoint suspends the machine; control returns to the host.
	WaitPoint Step = iota
	// EvalTrigger consumes queued triggers.
	EvalTrigger
	// EvalCompletion evaluates completion transitions.
	EvalCompletion
	// Reached performs the selected state change.
	Reached
)

func (s Step) String() string {
	switch s {
	case WaitPoint:
		return "WaitPoint"
	case EvalTrigger:
		return "EvalTrigger"
	case EvalCompletion:
		return "EvalCompletion"
	case Reached:
		return "Reached"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Machine is one state machine. It is owned by a Registry and must only be
// driven from the host's dispatch goroutine.
type Machine struct {
	id       MachineID
	registry *Registry
	logger   *slog.Logger

	states  []*State // arena indexed by StateID
	current *State
	queue   []primitives.TriggerEvent

	resume      Step
	target      StateID
	lastTrigger TriggerID
	args        []int
	eval        *Evaluation
	running     bool

	deadline       int64 // < 0: no timeout armed
	deadlineRaised bool
}

func newMachine(id MachineID, r *Registry) *Machine {
	m := &Machine{
		id:       id,
		registry: r,
		logger:   r.logger.With("machine", int(id)),
		resume:   EvalTrigger,
		args:     []int{},
		deadline: -1,
	}
	m.current = m.State(Pseudostate)
	return m
}

func (m *Machine) ID() MachineID { return m.id }

// State returns the state with the given id, creating an empty one on first
// reference.
func (m *Machine) State(id StateID) *State {
	if id < 0 {
		id = Pseudostate
	}
	if int(id) >= len(m.states) {
		grown := make([]*State, int(id)+1)
		copy(grown, m.states)
		m.states = grown
	}
	if m.states[id] == nil {
		m.states[id] = newState(id)
	}
	return m.states[id]
}

// HasState reports whether id has been referenced on this machine.
func (m *Machine) HasState(id StateID) bool {
	return id >= 0 && int(id) < len(m.states) && m.states[id] != nil
}

// Current returns the id of the current state.
func (m *Machine) Current() StateID { return m.current.id }

// Parked reports whether the machine sits in the pseudostate.
func (m *Machine) Parked() bool { return m.current.id == Pseudostate }

// Resume returns the phase the next pass starts at.
func (m *Machine) Resume() Step { return m.resume }

// QueueLen returns the number of queued triggers.
func (m *Machine) QueueLen() int { return len(m.queue) }

// Running reports whether a pass is executing.
func (m *Machine) Running() bool { return m.running }

// TriggerArgs returns the argument list of the trigger last evaluated.
func (m *Machine) TriggerArgs() []int { return m.args }

// Enqueue appends a trigger and requests a run. It never evaluates.
func (m *Machine) Enqueue(trigger TriggerID, args []int) error {
	if limit := m.registry.queueLimit; limit > 0 && len(m.queue) >= limit {
		m.logger.Warn("trigger queue full, dropping trigger", "trigger", int(trigger), "limit", limit)
		return fmt.Errorf("machine %d: %w", m.id, ErrQueueFull)
	}
	m.queue = append(m.queue, primitives.NewTriggerEvent(trigger, args))
	m.registry.requestRun(m.id)
	return nil
}

// Traverse selects a target on the evaluation in progress. Outside a
// transition callback it does nothing.
func (m *Machine) Traverse(index int) {
	if m.eval == nil {
		m.logger.Debug("traverse outside evaluation ignored", "index", index)
		return
	}
	m.eval.Traverse(index)
}

// ResetTimeout re-arms the timeout deadline ms from now. A negative ms
// disarms it.
func (m *Machine) ResetTimeout(ms int64) {
	m.deadlineRaised = false
	if ms < 0 {
		m.deadline = -1
		return
	}
	m.deadline = m.registry.clock.NowMillis() + ms
}

// Timeouted reports whether the armed deadline has passed.
func (m *Machine) Timeouted() bool {
	return m.deadline >= 0 && m.registry.clock.NowMillis() >= m.deadline
}

// timeoutDue reports, once per armed deadline, that the current state's
// timeout transition is ready to fire at now.
func (m *Machine) timeoutDue(now int64) bool {
	if m.current.timeout == nil || m.deadline < 0 || m.deadlineRaised || now < m.deadline {
		return false
	}
	m.deadlineRaised = true
	return true
}

// RunToCompletion executes one pass: it steps through the phases until the
// machine reaches WaitPoint. A pass performs at most one state change.
func (m *Machine) RunToCompletion() {
	if m.running {
		// Reentrant call from inside a callback. Defer it to the host.
		m.logger.Warn("reentrant run-to-completion refused")
		m.registry.requestRun(m.id)
		return
	}
	m.running = true
	defer func() {
		m.running = false
		m.eval = nil
	}()

	step := m.resume
	for step != WaitPoint {
		m.logger.Debug("step", "phase", step.String(), "state", int(m.current.id))
		switch step {
		case EvalTrigger:
			switch {
			case m.evalTimeout() || m.evalTrigger():
				step = Reached
			case m.evalDoCounters():
				step = EvalCompletion
			default:
				step = WaitPoint
				m.resume = EvalTrigger
			}
		case EvalCompletion:
			if m.evalTimeout() || m.evaluate(primitives.NewTriggerEvent(CompletionTrigger, nil)) {
				step = Reached
			} else {
				step = EvalTrigger
			}
		case Reached:
			// The new state is current once reach starts; a callback panic
			// must still leave completion transitions next.
			m.resume = EvalCompletion
			m.reach()
			step = WaitPoint
			m.registry.requestRun(m.id)
		default:
			step = WaitPoint
		}
	}
}
