package core

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
)

const (
	stateOff  StateID = 1
	stateOn   StateID = 2
	stateSlow StateID = 3
	stateFast StateID = 4
	stateX    StateID = 5
	stateY    StateID = 6

	trigA TriggerID = 10
	trigB TriggerID = 11
	trigZ TriggerID = 12
)

type fakeClock struct{ now int64 }

func (c *fakeClock) NowMillis() int64 { return c.now }

// fixture drives a registry by hand: every run request goes to queue and
// drain honours them one pass at a time.
type fixture struct {
	t     *testing.T
	clock *fakeClock
	queue *RunQueue
	reg   *Registry
	trace []string
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{t: t, clock: &fakeClock{}, queue: NewRunQueue()}
	base := []Option{
		WithClock(f.clock),
		WithRunRequester(f.queue),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	f.reg = NewRegistry(append(base, opts...)...)
	return f
}

func (f *fixture) record(format string, args ...any) {
	f.trace = append(f.trace, fmt.Sprintf(format, args...))
}

func (f *fixture) entry(m *Machine, s StateID, name string) {
	m.State(s).AddEntry(func() { f.record("entry(%s)", name) })
}

func (f *fixture) exit(m *Machine, s StateID, name string) {
	m.State(s).AddExit(func() { f.record("exit(%s)", name) })
}

// pass honours a single queued run request.
func (f *fixture) pass() bool {
	id, ok := f.queue.Pop()
	if !ok {
		return false
	}
	f.reg.RunToCompletion(id)
	return true
}

// drain honours run requests until none remain.
func (f *fixture) drain() int {
	f.t.Helper()
	n := 0
	for f.pass() {
		n++
		if n > 1000 {
			f.t.Fatal("drain did not settle")
		}
	}
	return n
}

func (f *fixture) start(m *Machine, s StateID) {
	f.t.Helper()
	if err := m.Enqueue(-1, []int{int(s)}); err != nil {
		f.t.Fatalf("start: %v", err)
	}
}

func (f *fixture) tick(ms int64) {
	f.clock.now += ms
	f.reg.IdleTick()
}

func (f *fixture) resetTrace() { f.trace = nil }
