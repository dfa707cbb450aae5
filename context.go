package mstate

import "github.com/comalice/mstate/internal/core"

// Eval is the context of one transition evaluation. A callback takes the
// transition by calling Traverse with an index into the transition's targets.
type Eval struct {
	engine *Engine
	ev     *core.Evaluation
}

// EvalFunc is a transition evaluation callback.
type EvalFunc func(ev *Eval)

func (e *Engine) wrap(fn EvalFunc) core.EvalFunc {
	if fn == nil {
		return nil
	}
	return func(ev *core.Evaluation) {
		fn(&Eval{engine: e, ev: ev})
	}
}

// Machine returns the id of the evaluating machine.
func (x *Eval) Machine() MachineID { return x.ev.Machine() }

// Source returns the name of the state owning the transition.
func (x *Eval) Source() string { return x.engine.NameOf(x.ev.Source()) }

// Trigger returns the trigger name; "" for completion transitions.
func (x *Eval) Trigger() string { return x.engine.NameOf(x.ev.Trigger()) }

// TriggerID returns the trigger id; 0 for completion transitions.
func (x *Eval) TriggerID() TriggerID { return x.ev.Trigger() }

// Args returns the trigger arguments. Empty for completion transitions.
func (x *Eval) Args() []int { return x.ev.Args() }

// Arg returns the i-th argument or def.
func (x *Eval) Arg(i, def int) int { return x.ev.Arg(i, def) }

// Traverse selects the target at index. Out-of-range indices leave the
// transition untaken.
func (x *Eval) Traverse(index int) { x.ev.Traverse(index) }

// Cancel clears the selection.
func (x *Eval) Cancel() { x.ev.Cancel() }

// Selected returns the current selection, -1 if none.
func (x *Eval) Selected() int { return x.ev.Selected() }

// ResetTimeout re-arms the machine's timeout deadline ms from now.
func (x *Eval) ResetTimeout(ms int64) { x.ev.ResetTimeout(ms) }

// Timeouted reports whether the machine's timeout deadline has passed.
func (x *Eval) Timeouted() bool { return x.ev.Timeouted() }

// Vars returns the evaluating machine's variables.
func (x *Eval) Vars() *Vars { return x.engine.Vars(x.ev.Machine()) }

// Send queues trigger on the evaluating machine. It is evaluated in a later
// pass.
func (x *Eval) Send(trigger string, args ...int) error {
	return x.engine.Send(x.ev.Machine(), trigger, args...)
}
