package core

// DoActivity is a periodic action of a state.
type DoActivity struct {
	IntervalMs int64
	fn         ActivityFunc
	pending    int // <= 0: nothing to deliver
}

func newDoActivity(intervalMs int64, fn ActivityFunc) *DoActivity {
	return &DoActivity{IntervalMs: intervalMs, fn: fn, pending: -1}
}

// Pending returns the counter waiting to be delivered, or a value <= 0.
func (a *DoActivity) Pending() int {
	return a.pending
}

// runIfPending clears the pending counter and runs the body if it was positive.
func (a *DoActivity) runIfPending() bool {
	counter := a.pending
	a.pending = -1
	if counter > 0 {
		a.fn(counter)
		return true
	}
	return false
}

// Transition is an outgoing transition of a state.
type Transition struct {
	Trigger TriggerID
	Targets []StateID
	eval    EvalFunc
}

// Timeout is a state's timeout transition: it fires AfterMs after entry
// unless the deadline is reset.
type Timeout struct {
	AfterMs int64
	Target  StateID
}

// State holds the declarations of one state, in declaration order.
// Declarations are append-only and belong before the machine is started.
type State struct {
	id          StateID
	entry       []EntryFunc
	activities  []*DoActivity
	exit        []ExitFunc
	transitions []*Transition
	timeout     *Timeout
}

func newState(id StateID) *State {
	return &State{id: id}
}

func (s *State) ID() StateID { return s.id }

// AddEntry appends an entry action. Nil actions are ignored.
func (s *State) AddEntry(a Action) {
	if a != nil {
		s.entry = append(s.entry, func(StateID) { a() })
	}
}

// AddEntryFrom appends an entry action that receives the previous state.
func (s *State) AddEntryFrom(fn EntryFunc) {
	if fn != nil {
		s.entry = append(s.entry, fn)
	}
}

// AddExit appends an exit action. Nil actions are ignored.
func (s *State) AddExit(a Action) {
	if a != nil {
		s.exit = append(s.exit, func(StateID) { a() })
	}
}

// AddExitTo appends an exit action that receives the next state.
func (s *State) AddExitTo(fn ExitFunc) {
	if fn != nil {
		s.exit = append(s.exit, fn)
	}
}

// SetTimeout declares the state's timeout transition. Only the first
// declaration counts; a negative delay is rejected.
func (s *State) SetTimeout(afterMs int64, target StateID) bool {
	if s.timeout != nil || afterMs < 0 {
		return false
	}
	s.timeout = &Timeout{AfterMs: afterMs, Target: target}
	return true
}

// Timeout returns the state's timeout transition, or nil.
func (s *State) Timeout() *Timeout { return s.timeout }

// AddDoActivity appends a do-activity. An interval <= 0 only gets the
// on-entry invocation.
func (s *State) AddDoActivity(intervalMs int64, fn ActivityFunc) *DoActivity {
	if fn == nil {
		return nil
	}
	a := newDoActivity(intervalMs, fn)
	s.activities = append(s.activities, a)
	return a
}

// AddTransition appends a transition. A nil eval always traverses index 0.
func (s *State) AddTransition(trigger TriggerID, targets []StateID, eval EvalFunc) *Transition {
	if eval == nil {
		eval = func(ev *Evaluation) { ev.Traverse(0) }
	}
	t := &Transition{
		Trigger: trigger,
		Targets: append([]StateID(nil), targets...),
		eval:    eval,
	}
	s.transitions = append(s.transitions, t)
	return t
}

func (s *State) Transitions() []*Transition { return s.transitions }

func (s *State) Activities() []*DoActivity { return s.activities }

// Empty reports whether nothing has been declared on the state.
func (s *State) Empty() bool {
	return len(s.entry) == 0 && len(s.activities) == 0 && len(s.exit) == 0 &&
		len(s.transitions) == 0 && s.timeout == nil
}
