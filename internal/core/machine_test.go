package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_StartsParked(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)

	assert.True(t, m.Parked())
	assert.Equal(t, Pseudostate, m.Current())
	assert.Equal(t, EvalTrigger, m.Resume())
	assert.True(t, m.State(Pseudostate).Empty())
}

// Off --A--> On; one pass per run request.
func TestMachine_ScenarioSimpleTransition(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	f.entry(m, stateOff, "Off")
	f.exit(m, stateOff, "Off")
	f.entry(m, stateOn, "On")
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, nil)

	f.start(m, stateOff)
	f.drain()
	assert.Equal(t, []string{"entry(Off)"}, f.trace)
	assert.Equal(t, stateOff, m.Current())

	require.NoError(t, m.Enqueue(trigA, nil))
	f.drain()
	assert.Equal(t, []string{"entry(Off)", "exit(Off)", "entry(On)"}, f.trace)
	assert.Equal(t, stateOn, m.Current())
}

// Slow has a 500 ms do-activity and a completion transition guarded by
// counter >= 6 to Fast.
func TestMachine_ScenarioDoActivityThenCompletion(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	var last int
	var invocations []int

	f.entry(m, stateSlow, "Slow")
	f.entry(m, stateFast, "Fast")
	m.State(stateSlow).AddDoActivity(500, func(counter int) {
		invocations = append(invocations, counter)
		last = counter
	})
	m.State(stateSlow).AddTransition(CompletionTrigger, []StateID{stateFast}, func(ev *Evaluation) {
		if last >= 6 {
			ev.Traverse(0)
		}
	})

	f.start(m, stateSlow)
	f.drain()
	require.Equal(t, []int{0}, invocations, "on-entry invocation")

	for i := 0; i < 6; i++ {
		f.tick(500)
		f.drain()
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6}, invocations)
	assert.Equal(t, stateFast, m.Current())
	assert.Equal(t, []string{"entry(Slow)", "entry(Fast)"}, f.trace)
	assert.Equal(t, 0, f.reg.Schedule().Count(1), "Fast has no timed activities")
}

// Targets [X, Y]; the callback selects 1 only when a predicate holds.
func TestMachine_ScenarioChoiceCancelled(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	predicate := false

	f.exit(m, stateOff, "Off")
	f.entry(m, stateX, "X")
	f.entry(m, stateY, "Y")
	m.State(stateOff).AddTransition(trigA, []StateID{stateX, stateY}, func(ev *Evaluation) {
		if predicate {
			ev.Traverse(1)
		}
	})

	f.start(m, stateOff)
	f.drain()
	require.NoError(t, m.Enqueue(trigA, nil))
	f.drain()
	assert.Equal(t, stateOff, m.Current())
	assert.Empty(t, f.trace)

	predicate = true
	require.NoError(t, m.Enqueue(trigA, nil))
	f.drain()
	assert.Equal(t, stateY, m.Current())
	assert.Equal(t, []string{"exit(Off)", "entry(Y)"}, f.trace)
}

// A trigger with no matching transition is consumed.
func TestMachine_ScenarioUnmatchedTriggerConsumed(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	f.entry(m, stateOff, "Off")
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, nil)

	f.start(m, stateOff)
	f.drain()
	f.resetTrace()

	require.NoError(t, m.Enqueue(trigZ, nil))
	f.drain()
	assert.Equal(t, stateOff, m.Current())
	assert.Empty(t, f.trace)
	assert.Equal(t, 0, m.QueueLen())
}

func TestMachine_FIFOEarlyExit(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, nil)
	m.State(stateOn).AddTransition(trigB, []StateID{stateOff}, nil)

	f.start(m, stateOff)
	f.drain()

	// T1 matches: T2 stays queued for the next pass.
	require.NoError(t, m.Enqueue(trigA, nil))
	require.NoError(t, m.Enqueue(trigB, nil))
	m.RunToCompletion()
	assert.Equal(t, stateOn, m.Current())
	assert.Equal(t, 1, m.QueueLen())

	m.RunToCompletion() // completion check of On, then B
	assert.Equal(t, stateOff, m.Current())
	assert.Equal(t, 0, m.QueueLen())

	// T1 unmatched: T2 is tried in the same pass.
	require.NoError(t, m.Enqueue(trigZ, nil))
	require.NoError(t, m.Enqueue(trigA, nil))
	m.RunToCompletion()
	m.RunToCompletion()
	assert.Equal(t, stateOn, m.Current())
	assert.Equal(t, 0, m.QueueLen())
}

func TestMachine_CompletionPriority(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	f.entry(m, stateX, "X")
	f.entry(m, stateY, "Y")
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, nil)
	m.State(stateOn).AddTransition(CompletionTrigger, []StateID{stateX}, nil)
	m.State(stateOn).AddTransition(trigB, []StateID{stateY}, nil)

	f.start(m, stateOff)
	f.drain()

	require.NoError(t, m.Enqueue(trigA, nil))
	m.RunToCompletion()
	require.Equal(t, stateOn, m.Current())
	assert.Equal(t, EvalCompletion, m.Resume())

	// B arrives after entering On; the completion transition still wins.
	require.NoError(t, m.Enqueue(trigB, nil))
	m.RunToCompletion()
	assert.Equal(t, stateX, m.Current())
	assert.Equal(t, []string{"entry(X)"}, f.trace)
}

func TestMachine_CoalescedDelivery(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	var got []int
	m.State(stateSlow).AddDoActivity(500, func(counter int) { got = append(got, counter) })

	f.start(m, stateSlow)
	f.drain()

	const missed = 7
	f.tick(missed * 500)
	f.drain()
	assert.Equal(t, []int{0, missed}, got)

	// A partial interval delivers nothing.
	f.tick(499)
	f.drain()
	assert.Equal(t, []int{0, missed}, got)
}

func TestMachine_PendingCounterReplaced(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	var got []int
	m.State(stateSlow).AddDoActivity(100, func(counter int) { got = append(got, counter) })

	f.start(m, stateSlow)
	f.drain()

	// Two ticks before the host runs: the second value replaces the first.
	f.tick(100)
	f.tick(100)
	f.drain()
	assert.Equal(t, []int{0, 2}, got)
}

func TestMachine_EntryRunsOncePerEntry(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	entries := 0
	m.State(stateSlow).AddEntry(func() { entries++ })
	m.State(stateSlow).AddDoActivity(10, func(int) {})

	f.start(m, stateSlow)
	for i := 0; i < 20; i++ {
		f.tick(10)
		f.drain()
	}
	assert.Equal(t, 1, entries)
}

func TestMachine_NonReentrant(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	depth := 0
	maxDepth := 0
	track := func() {
		depth++
		if depth > maxDepth {
			maxDepth = depth
		}
		// Attempts to re-enter the same machine are deferred.
		f.reg.RunToCompletion(1)
		depth--
	}
	m.State(stateOff).AddEntry(track)
	m.State(stateOn).AddEntry(track)
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, func(ev *Evaluation) {
		track()
		ev.Traverse(0)
	})

	f.start(m, stateOff)
	f.drain()
	require.NoError(t, m.Enqueue(trigA, nil))
	f.drain()

	assert.Equal(t, stateOn, m.Current())
	assert.Equal(t, 1, maxDepth)
	assert.False(t, m.Running())
}

func TestMachine_SendFromCallbackIsQueued(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	f.entry(m, stateOn, "On")
	f.entry(m, stateX, "X")
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, func(ev *Evaluation) {
		require.NoError(t, ev.Send(trigB))
		assert.Equal(t, stateOff, m.Current(), "send must not evaluate synchronously")
		ev.Traverse(0)
	})
	m.State(stateOn).AddTransition(trigB, []StateID{stateX}, nil)

	f.start(m, stateOff)
	f.drain()
	require.NoError(t, m.Enqueue(trigA, nil))
	f.drain()

	assert.Equal(t, stateX, m.Current())
	assert.Equal(t, []string{"entry(On)", "entry(X)"}, f.trace)
}

func TestMachine_TriggerArgs(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	var seen []int
	var completionArgs []int
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, func(ev *Evaluation) {
		seen = ev.Args()
		assert.Equal(t, ev.Args(), m.TriggerArgs())
		assert.Equal(t, 5, ev.Arg(1, -1))
		assert.Equal(t, -1, ev.Arg(9, -1))
		ev.Traverse(0)
	})
	m.State(stateOn).AddTransition(CompletionTrigger, []StateID{stateOn}, func(ev *Evaluation) {
		completionArgs = ev.Args()
	})

	f.start(m, stateOff)
	f.drain()
	require.NoError(t, m.Enqueue(trigA, []int{4, 5}))
	f.drain()

	assert.Equal(t, []int{4, 5}, seen)
	assert.NotNil(t, completionArgs)
	assert.Empty(t, completionArgs)
}

func TestMachine_TransitionsEvaluatedInOrder(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	var order []int
	m.State(stateOff).AddTransition(trigA, []StateID{stateX}, func(ev *Evaluation) {
		order = append(order, 1)
		ev.Traverse(5) // out of range: not taken
	})
	m.State(stateOff).AddTransition(trigA, []StateID{stateY}, func(ev *Evaluation) {
		order = append(order, 2)
		assert.Equal(t, Unselected, ev.Selected(), "selection is cleared per evaluation")
		ev.Traverse(0)
	})
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, func(ev *Evaluation) {
		order = append(order, 3)
		ev.Traverse(0)
	})

	f.start(m, stateOff)
	f.drain()
	require.NoError(t, m.Enqueue(trigA, nil))
	f.drain()

	assert.Equal(t, []int{1, 2}, order)
	assert.Equal(t, stateY, m.Current())
}

func TestMachine_UndeclaredTargetIsPlaceholder(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	const ghost StateID = 99
	m.State(stateOff).AddTransition(trigA, []StateID{ghost}, nil)

	f.start(m, stateOff)
	f.drain()
	assert.False(t, m.HasState(ghost))

	require.NoError(t, m.Enqueue(trigA, nil))
	require.NoError(t, m.Enqueue(trigA, nil))
	f.drain()

	assert.Equal(t, ghost, m.Current())
	assert.True(t, m.State(ghost).Empty())
	assert.Equal(t, 0, m.QueueLen())
}

func TestMachine_TriggersBeforeStartAreDropped(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, nil)

	require.NoError(t, m.Enqueue(trigA, nil))
	f.start(m, stateOff)
	f.drain()

	assert.Equal(t, stateOff, m.Current())
}

func TestMachine_StopAndRestart(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	f.entry(m, stateSlow, "Slow")
	f.exit(m, stateSlow, "Slow")
	m.State(stateSlow).AddDoActivity(100, func(int) {})

	f.start(m, stateSlow)
	f.drain()
	require.Equal(t, 1, f.reg.Schedule().Count(1))

	require.NoError(t, m.Enqueue(-2, nil))
	f.drain()
	assert.True(t, m.Parked())
	assert.Equal(t, 0, f.reg.Schedule().Count(1))

	// Start is ignored outside the pseudostate, but works once parked.
	f.start(m, stateSlow)
	f.drain()
	assert.Equal(t, stateSlow, m.Current())
	f.start(m, stateOff)
	f.drain()
	assert.Equal(t, stateSlow, m.Current())

	assert.Equal(t, []string{"entry(Slow)", "exit(Slow)", "entry(Slow)"}, f.trace)
}

func TestMachine_QueueLimit(t *testing.T) {
	f := newFixture(t, WithQueueLimit(2))
	m := f.reg.GetOrCreate(1)

	require.NoError(t, m.Enqueue(trigA, nil))
	require.NoError(t, m.Enqueue(trigA, nil))
	err := m.Enqueue(trigA, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueueFull))
	assert.Equal(t, 2, m.QueueLen())
}

func TestMachine_TraverseOutsideEvaluation(t *testing.T) {
	f := newFixture(t)
	m := f.reg.GetOrCreate(1)
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, func(ev *Evaluation) {
		m.Traverse(0)
	})
	m.Traverse(0) // no evaluation in progress: ignored

	f.start(m, stateOff)
	f.drain()
	require.NoError(t, m.Enqueue(trigA, nil))
	f.drain()
	assert.Equal(t, stateOn, m.Current())
}

func TestMachine_Deterministic(t *testing.T) {
	run := func() []string {
		f := newFixture(t)
		m := f.reg.GetOrCreate(1)
		f.entry(m, stateOff, "Off")
		f.exit(m, stateOff, "Off")
		f.entry(m, stateSlow, "Slow")
		f.exit(m, stateSlow, "Slow")
		m.State(stateSlow).AddDoActivity(200, func(c int) { f.record("do(%d)", c) })
		m.State(stateOff).AddTransition(trigA, []StateID{stateSlow}, nil)
		m.State(stateSlow).AddTransition(trigB, []StateID{stateOff}, nil)

		f.start(m, stateOff)
		f.drain()
		_ = m.Enqueue(trigA, nil)
		f.drain()
		for i := 0; i < 5; i++ {
			f.tick(150)
			f.drain()
		}
		_ = m.Enqueue(trigB, nil)
		f.drain()
		return f.trace
	}

	first := run()
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, run())
	}
	assert.Equal(t, []string{
		"entry(Off)", "exit(Off)", "entry(Slow)", "do(0)",
		"do(1)", "do(2)", "do(3)", "exit(Slow)", "entry(Off)",
	}, first)
}

func TestMachine_StateChangeHook(t *testing.T) {
	var changes []StateChange
	f := newFixture(t, WithStateChangeHook(func(c StateChange) { changes = append(changes, c) }))
	m := f.reg.GetOrCreate(7)
	m.State(stateOff).AddTransition(trigA, []StateID{stateOn}, nil)

	f.start(m, stateOff)
	f.drain()
	f.clock.now = 42
	require.NoError(t, m.Enqueue(trigA, []int{3}))
	f.drain()

	require.Len(t, changes, 2)
	assert.Equal(t, StateChange{Machine: 7, From: Pseudostate, To: stateOff, Trigger: -1, Args: []int{int(stateOff)}}, changes[0])
	assert.Equal(t, StateChange{Machine: 7, From: stateOff, To: stateOn, Trigger: trigA, Args: []int{3}, AtMs: 42}, changes[1])
}

func TestStep_String(t *testing.T) {
	assert.Equal(t, "WaitPoint", WaitPoint.String())
	assert.Equal(t, "EvalTrigger", EvalTrigger.String())
	assert.Equal(t, "EvalCompletion", EvalCompletion.String())
	assert.Equal(t, "Reached", Reached.String())
	assert.Equal(t, "Step(9)", Step(9).String())
}
