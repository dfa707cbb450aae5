package core

import "github.com/comalice/mstate/internal/primitives"

// evalTrigger pops queued triggers until one takes a transition.
func (m *Machine) evalTrigger() bool {
	for len(m.queue) > 0 {
		ev := m.queue[0]
		m.queue[0] = primitives.TriggerEvent{}
		m.queue = m.queue[1:]
		if m.evaluate(ev) {
			return true
		}
		m.logger.Debug("trigger consumed without transition", "trigger", int(ev.Trigger), "state", int(m.current.id))
	}
	m.queue = nil
	return false
}

// evalTimeout takes the current state's timeout transition once its
// deadline has passed. It outranks queued triggers and completion.
func (m *Machine) evalTimeout() bool {
	t := m.current.timeout
	if t == nil || m.current.id == Pseudostate || !m.Timeouted() {
		return false
	}
	m.target = t.Target
	m.lastTrigger = TimeoutTrigger
	m.args = []int{}
	return true
}

// evalDoCounters runs every do-activity of the current state whose counter is
// pending. It reports whether any ran.
func (m *Machine) evalDoCounters() bool {
	executed := false
	for _, a := range m.current.activities {
		if a.runIfPending() {
			executed = true
		}
	}
	return executed
}

// evaluate selects a target for ev from the current state's transitions, in
// declaration order. The selected target is stored for reach.
func (m *Machine) evaluate(ev primitives.TriggerEvent) bool {
	if m.current.id == Pseudostate {
		if ev.Trigger == primitives.StartTrigger && len(ev.Args) > 0 {
			m.target = StateID(ev.Args[0])
			m.lastTrigger = ev.Trigger
			m.args = ev.Args
			return true
		}
		return false
	}
	if ev.Trigger == primitives.StopTrigger {
		m.target = Pseudostate
		m.lastTrigger = ev.Trigger
		m.args = ev.Args
		return true
	}

	transitions := m.current.transitions
	for _, t := range transitions {
		if t.Trigger != ev.Trigger {
			continue
		}
		e := &Evaluation{
			machine:  m,
			source:   m.current.id,
			trigger:  ev.Trigger,
			args:     ev.Args,
			selected: Unselected,
		}
		m.args = ev.Args
		m.eval = e
		t.eval(e)
		m.eval = nil

		if e.selected >= 0 && e.selected < len(t.Targets) {
			m.target = t.Targets[e.selected]
			m.lastTrigger = ev.Trigger
			return true
		}
	}
	return false
}

// reach leaves the current state for the selected target.
func (m *Machine) reach() {
	from := m.current
	for _, a := range from.exit {
		a(m.target)
	}

	m.current = m.State(m.target)
	now := m.registry.clock.NowMillis()
	if t := m.current.timeout; t != nil && m.current.id != Pseudostate {
		m.ResetTimeout(t.AfterMs)
	} else {
		m.ResetTimeout(-1)
	}
	intervals := make([]int64, len(m.current.activities))
	for i, a := range m.current.activities {
		a.pending = -1
		intervals[i] = a.IntervalMs
	}
	m.registry.schedule.Reset(m.id, intervals, now)

	m.logger.Debug("state reached", "from", int(from.id), "to", int(m.current.id))

	for _, a := range m.current.entry {
		a(from.id)
	}
	for _, a := range m.current.activities {
		a.fn(0)
	}

	m.registry.notify(StateChange{
		Machine: m.id,
		From:    from.id,
		To:      m.current.id,
		Trigger: m.lastTrigger,
		Args:    m.args,
		AtMs:    now,
	})
}
