// Package core provides the run-to-completion engine: states and their
// transitions, the per-machine trigger queue and stepper, the do-activity
// schedule table, and the registry that owns every machine.
//
// The core performs no threading, locking or blocking of its own. A host
// drives it from a single dispatch goroutine; see the realtime package for
// the reference host loop.
//
//go:generate go test ./... -race
package core

import (
	"errors"
	"time"

	"github.com/comalice/mstate/internal/primitives"
)

// MachineID identifies a state machine within a registry.
type MachineID int

// StateID and TriggerID are interned names.
type (
	StateID   = primitives.NameID
	TriggerID = primitives.NameID
)

const (
	// Pseudostate is the parked state before start and after stop.
	Pseudostate StateID = primitives.NoneID
	// CompletionTrigger marks transitions evaluated without an external event.
	CompletionTrigger TriggerID = primitives.NoneID
	// TimeoutTrigger is reported in StateChange for timeout transitions.
	TimeoutTrigger TriggerID = primitives.TimeoutTrigger
)

// Action is an entry or exit action.
type Action func()

// EntryFunc is an entry action told the state being left.
type EntryFunc func(prev StateID)

// ExitFunc is an exit action told the state about to be entered.
type ExitFunc func(next StateID)

// ActivityFunc is a do-activity body. counter is 0 for the on-entry call and
// the number of elapsed intervals since the state was entered afterwards.
type ActivityFunc func(counter int)

// EvalFunc is a transition evaluation callback. It takes the transition by
// selecting a target index on ev.
type EvalFunc func(ev *Evaluation)

// ErrQueueFull is returned when a machine's trigger queue is at its limit.
var ErrQueueFull = errors.New("trigger queue full")

// Clock is the host's monotonic millisecond clock.
type Clock interface {
	NowMillis() int64
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() int64

func (f ClockFunc) NowMillis() int64 { return f() }

type monotonicClock struct {
	start time.Time
}

// NewMonotonicClock returns a Clock counting milliseconds since its creation.
func NewMonotonicClock() Clock {
	return &monotonicClock{start: time.Now()}
}

func (c *monotonicClock) NowMillis() int64 {
	return time.Since(c.start).Milliseconds()
}

// StateChange describes one completed transition.
type StateChange struct {
	Machine MachineID
	From    StateID
	To      StateID
	Trigger TriggerID
	Args    []int
	AtMs    int64
}
