// Package realtime provides the reference host loop for an mstate engine.
//
// A Runtime owns the engine on a single goroutine. Every TickRate it calls
// IdleTick so do-activities see time pass, and whenever the engine's run
// queue signals work it calls RunToCompletion for each requested machine.
// Other goroutines talk to the engine only through the runtime's inbox:
//
//	e := mstate.New()
//	e.DefineState(1, "Off").Goto("toggle", "On")
//	e.DefineState(1, "On").Goto("toggle", "Off")
//
//	rt, _ := realtime.NewRuntime(e, realtime.Config{TickRate: 20 * time.Millisecond})
//	rt.Start(ctx)
//	rt.StartMachine(1, "Off")
//	rt.Send(1, "toggle")
//
// # Ordering
//
// Commands (StartMachine, Send, StopMachine, Do) are numbered on arrival and
// applied in that order, before the next batch of passes. Triggers for one
// machine therefore reach its queue in submission order regardless of which
// goroutine sent them.
//
// # Fairness
//
// At most Config.MaxPassesPerWake passes run per wake-up. Remaining requests
// stay queued, so a machine that keeps re-requesting itself cannot starve
// the idle tick or the inbox.
//
// # Failures
//
// A panic inside an action or transition callback is recovered and logged;
// the loop keeps running.
package realtime
