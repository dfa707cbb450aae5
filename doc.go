// Package mstate is a reactive state-machine engine for event-driven control
// software.
//
// A program declares independent machines, each a flat set of named states
// with entry actions, exit actions, periodic do-activities and transitions.
// Transitions are evaluated by callbacks that choose one of several targets,
// so a single declaration covers guards and choice points. Transitions with
// the empty trigger name are completion transitions. Right after a state is
// entered they are evaluated before any queued trigger; later they are
// evaluated again each time do-activities run, which happens only once the
// queue has been consumed.
//
// A state may also declare one timeout transition. Once its deadline passes
// it outranks both queued triggers and completion transitions; a transition
// callback can move the deadline with Eval.ResetTimeout.
//
// Machines are driven with strict run-to-completion semantics. Send only
// queues a trigger and asks the host for a run; the host later calls
// RunToCompletion, which performs at most one state change per pass. The
// host also calls IdleTick periodically to advance do-activity timers. The
// realtime package provides a ready-made host loop; testutil provides a
// deterministic one for tests.
//
// Example:
//
//	e := mstate.New()
//	e.DefineState(1, "Off").Entry(lampOff).Goto("toggle", "On")
//	e.DefineState(1, "On").Entry(lampOn).Goto("toggle", "Off")
//	e.Start(1, "Off")
//
// An Engine is not safe for concurrent use. Declarations, Send and
// RunToCompletion must all happen on the host's dispatch goroutine.
package mstate
