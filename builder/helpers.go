// Package builder declares states in one call with functional options:
//
//	builder.Declare(e, 1, "Off",
//		builder.OnEntry(lampOff),
//		builder.On("toggle", "On"),
//	)
package builder

import (
	"github.com/comalice/mstate"
)

// Option configures a state declaration.
type Option func(*mstate.StateDecl)

// Declare applies opts to state name of machine m, in order.
func Declare(e *mstate.Engine, m mstate.MachineID, name string, opts ...Option) *mstate.StateDecl {
	d := e.DefineState(m, name)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// OnEntry adds an action that executes when the state is entered.
func OnEntry(act func()) Option {
	return func(d *mstate.StateDecl) { d.Entry(act) }
}

// OnExit adds an action that executes when the state is exited.
func OnExit(act func()) Option {
	return func(d *mstate.StateDecl) { d.Exit(act) }
}

// OnEntryFrom adds an entry action told the name of the state being left.
func OnEntryFrom(act func(prev string)) Option {
	return func(d *mstate.StateDecl) { d.EntryFrom(act) }
}

// OnExitTo adds an exit action told the name of the state being entered.
func OnExitTo(act func(next string)) Option {
	return func(d *mstate.StateDecl) { d.ExitTo(act) }
}

// After adds the state's timeout transition to target.
func After(ms int64, target string) Option {
	return func(d *mstate.StateDecl) { d.Timeout(ms, target) }
}

// Every adds a do-activity with the given period in milliseconds.
func Every(intervalMs int64, body func(counter int)) Option {
	return func(d *mstate.StateDecl) { d.Do(intervalMs, body) }
}

// On adds an outbound transition to target. Without options it is always
// taken.
func On(trigger, target string, opts ...TransOption) Option {
	return func(d *mstate.StateDecl) {
		d.On(trigger, buildEval(opts), target)
	}
}

// Completion adds a completion transition to target.
func Completion(target string, opts ...TransOption) Option {
	return On("", target, opts...)
}

// Choice adds a transition whose eval picks one of targets.
func Choice(trigger string, eval mstate.EvalFunc, targets ...string) Option {
	return func(d *mstate.StateDecl) { d.On(trigger, eval, targets...) }
}

type transition struct {
	guard  func(*mstate.Eval) bool
	action func(*mstate.Eval)
}

type TransOption func(*transition)

// WithGuard makes the transition conditional.
func WithGuard(g func(*mstate.Eval) bool) TransOption {
	return func(t *transition) { t.guard = g }
}

// WithAction runs act when the transition is taken, before the source's
// exit actions.
func WithAction(act func(*mstate.Eval)) TransOption {
	return func(t *transition) { t.action = act }
}

func buildEval(opts []TransOption) mstate.EvalFunc {
	if len(opts) == 0 {
		return nil
	}
	var t transition
	for _, opt := range opts {
		opt(&t)
	}
	return func(ev *mstate.Eval) {
		if t.guard != nil && !t.guard(ev) {
			return
		}
		if t.action != nil {
			t.action(ev)
		}
		ev.Traverse(0)
	}
}
