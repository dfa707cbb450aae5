package realtime

// processTick advances do-activity timers, then serves pending work.
func (rt *Runtime) processTick() {
	rt.processCommands()
	rt.engine.IdleTick()

	rt.tickMu.Lock()
	rt.tickNum++
	rt.tickMu.Unlock()

	rt.processPasses()
}

// processWake serves commands and run requests without a timer step.
func (rt *Runtime) processWake() {
	rt.processCommands()
	rt.processPasses()
}

func (rt *Runtime) processCommands() {
	for _, cmd := range rt.collectCommands() {
		rt.safely(int(cmd.machine), func() { rt.apply(cmd) })
	}
}

// processPasses runs up to MaxPassesPerWake requested passes. If requests
// remain the loop is woken again.
func (rt *Runtime) processPasses() {
	for i := 0; i < rt.cfg.MaxPassesPerWake; i++ {
		id, ok := rt.queue.Pop()
		if !ok {
			return
		}
		if !rt.safely(int(id), func() { rt.engine.RunToCompletion(id) }) {
			// Triggers behind the failed one still need a pass.
			rt.queue.RequestRun(id)
		}
		rt.passes.Add(1)
	}
	if rt.queue.Len() > 0 {
		select {
		case rt.wake <- struct{}{}:
		default:
		}
	}
}

// safely runs fn and reports whether it returned without panicking.
func (rt *Runtime) safely(machine int, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			rt.logger.Error("panic in state machine callback", "machine", machine, "panic", r)
			ok = false
		}
	}()
	fn()
	return true
}
