package mstate

import (
	"github.com/comalice/mstate/internal/core"
)

// StateDecl declares the behaviour of one state. Declarations are
// append-only; each kind runs in declaration order.
type StateDecl struct {
	engine  *Engine
	machine MachineID
	name    string
	state   *core.State // nil for the pseudostate
}

// DefineState returns the declaration handle of state name on machine m,
// creating both on first use. The empty name is the pseudostate, which
// accepts no declarations.
func (e *Engine) DefineState(m MachineID, name string) *StateDecl {
	d := &StateDecl{engine: e, machine: m, name: name}
	id := e.names.GetOrNew(name)
	if id == core.Pseudostate {
		e.logger.Warn("declaration on pseudostate ignored", "machine", int(m))
		return d
	}
	d.state = e.registry.GetOrCreate(m).State(id)
	return d
}

// Define runs fn against the declaration of state name on machine m.
func (e *Engine) Define(m MachineID, name string, fn func(s *StateDecl)) {
	fn(e.DefineState(m, name))
}

// DeclareEntry appends an entry action to state.
func (e *Engine) DeclareEntry(m MachineID, state string, action func()) {
	e.DefineState(m, state).Entry(action)
}

// DeclareExit appends an exit action to state.
func (e *Engine) DeclareExit(m MachineID, state string, action func()) {
	e.DefineState(m, state).Exit(action)
}

// DeclareEntryFrom appends an entry action told the name of the state being
// left; "" when coming from the pseudostate.
func (e *Engine) DeclareEntryFrom(m MachineID, state string, action func(prev string)) {
	e.DefineState(m, state).EntryFrom(action)
}

// DeclareExitTo appends an exit action told the name of the next state.
func (e *Engine) DeclareExitTo(m MachineID, state string, action func(next string)) {
	e.DefineState(m, state).ExitTo(action)
}

// DeclareTimeout makes state leave for target afterMs after entry.
func (e *Engine) DeclareTimeout(m MachineID, state string, afterMs int64, target string) {
	e.DefineState(m, state).Timeout(afterMs, target)
}

// DeclareDoActivity appends a do-activity to state.
func (e *Engine) DeclareDoActivity(m MachineID, state string, intervalMs int64, body func(counter int)) {
	e.DefineState(m, state).Do(intervalMs, body)
}

// DeclareTransition appends a transition from state. The empty trigger
// declares a completion transition. A nil eval always takes targets[0].
func (e *Engine) DeclareTransition(m MachineID, state, trigger string, targets []string, eval EvalFunc) {
	e.DefineState(m, state).On(trigger, eval, targets...)
}

// DeclareSimpleTransition appends an unconditional transition from state to
// target.
func (e *Engine) DeclareSimpleTransition(m MachineID, state, trigger, target string) {
	e.DefineState(m, state).Goto(trigger, target)
}

// Name returns the declared state's name.
func (d *StateDecl) Name() string { return d.name }

// Machine returns the owning machine.
func (d *StateDecl) Machine() MachineID { return d.machine }

// Entry appends an entry action.
func (d *StateDecl) Entry(action func()) *StateDecl {
	if d.state != nil && action != nil {
		d.state.AddEntry(action)
	}
	return d
}

// Exit appends an exit action.
func (d *StateDecl) Exit(action func()) *StateDecl {
	if d.state != nil && action != nil {
		d.state.AddExit(action)
	}
	return d
}

// EntryFrom appends an entry action that receives the previous state's name.
func (d *StateDecl) EntryFrom(action func(prev string)) *StateDecl {
	if d.state != nil && action != nil {
		d.state.AddEntryFrom(func(prev StateID) { action(d.engine.NameOf(prev)) })
	}
	return d
}

// ExitTo appends an exit action that receives the next state's name.
func (d *StateDecl) ExitTo(action func(next string)) *StateDecl {
	if d.state != nil && action != nil {
		d.state.AddExitTo(func(next StateID) { action(d.engine.NameOf(next)) })
	}
	return d
}

// Timeout declares the state's timeout transition to target. It outranks
// queued triggers and completion transitions once afterMs have passed since
// entry; Eval.ResetTimeout moves the deadline. Only the first timeout of a
// state is kept.
func (d *StateDecl) Timeout(afterMs int64, target string) *StateDecl {
	if d.state == nil {
		return d
	}
	if !d.state.SetTimeout(afterMs, d.engine.names.GetOrNew(target)) {
		d.engine.logger.Warn("timeout declaration ignored", "machine", int(d.machine), "state", d.name, "after_ms", afterMs)
	}
	return d
}

// Do appends a do-activity. body runs once with counter 0 when the state is
// entered, then every intervalMs with the number of intervals elapsed since
// entry. A non-positive interval only gets the entry call.
func (d *StateDecl) Do(intervalMs int64, body func(counter int)) *StateDecl {
	if d.state != nil && body != nil {
		d.state.AddDoActivity(intervalMs, body)
	}
	return d
}

// On appends a transition for trigger with the given targets. eval chooses
// the target; nil always takes the first one.
func (d *StateDecl) On(trigger string, eval EvalFunc, targets ...string) *StateDecl {
	if d.state == nil {
		return d
	}
	ids := make([]StateID, len(targets))
	for i, t := range targets {
		ids[i] = d.engine.names.GetOrNew(t)
	}
	d.state.AddTransition(d.engine.names.GetOrNew(trigger), ids, d.engine.wrap(eval))
	return d
}

// Goto appends an unconditional transition.
func (d *StateDecl) Goto(trigger, target string) *StateDecl {
	return d.On(trigger, nil, target)
}

// Always appends a completion transition.
func (d *StateDecl) Always(eval EvalFunc, targets ...string) *StateDecl {
	return d.On("", eval, targets...)
}
