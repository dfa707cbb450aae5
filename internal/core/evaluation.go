package core

// Unselected is the traversal index of an evaluation that chose no target.
const Unselected = -1

// Evaluation is handed to a transition callback. The callback takes the
// transition by selecting an index into its targets; anything outside the
// target list, including Unselected, leaves the transition untaken.
type Evaluation struct {
	machine  *Machine
	source   StateID
	trigger  TriggerID
	args     []int
	selected int
}

// Machine returns the id of the evaluating machine.
func (ev *Evaluation) Machine() MachineID { return ev.machine.id }

// Source returns the state owning the transition.
func (ev *Evaluation) Source() StateID { return ev.source }

// Trigger returns the trigger being evaluated; CompletionTrigger for
// completion transitions.
func (ev *Evaluation) Trigger() TriggerID { return ev.trigger }

// Args returns the arguments of the current trigger. Empty for completion
// transitions.
func (ev *Evaluation) Args() []int { return ev.args }

// Arg returns the i-th argument, or def when absent.
func (ev *Evaluation) Arg(i, def int) int {
	if i < 0 || i >= len(ev.args) {
		return def
	}
	return ev.args[i]
}

// Traverse selects the target at index.
func (ev *Evaluation) Traverse(index int) { ev.selected = index }

// Cancel clears any selection.
func (ev *Evaluation) Cancel() { ev.selected = Unselected }

// Selected returns the current selection.
func (ev *Evaluation) Selected() int { return ev.selected }

// ResetTimeout re-arms the machine's timeout deadline ms from now; a negative
// ms disarms it.
func (ev *Evaluation) ResetTimeout(ms int64) { ev.machine.ResetTimeout(ms) }

// Timeouted reports whether the machine's timeout deadline has passed.
func (ev *Evaluation) Timeouted() bool { return ev.machine.Timeouted() }

// Send queues a trigger on the evaluating machine. It never evaluates
// synchronously.
func (ev *Evaluation) Send(trigger TriggerID, args ...int) error {
	return ev.machine.Enqueue(trigger, args)
}
