package testutil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/comalice/mstate"
	"github.com/comalice/mstate/realtime"
)

// RuntimeAdapter drives an engine the same way whether passes run inline or
// on a realtime host loop. This allows running the same test suite on both.
type RuntimeAdapter interface {
	Engine() *mstate.Engine
	Start(ctx context.Context) error
	Stop() error
	StartMachine(m mstate.MachineID, state string) error
	Send(m mstate.MachineID, trigger string, args ...int) error
	Current(m mstate.MachineID) string
	WaitForStability(timeout time.Duration) error
}

// Host is the deterministic adapter: nothing runs until the test calls
// Pass, Drain or Advance.
type Host struct {
	engine *mstate.Engine
	clock  *FakeClock
}

// NewHost creates an engine on a FakeClock with logging discarded.
func NewHost(opts ...mstate.Option) *Host {
	h := &Host{clock: &FakeClock{}}
	base := []mstate.Option{
		mstate.WithClock(h.clock),
		mstate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	h.engine = mstate.New(append(base, opts...)...)
	return h
}

func (h *Host) Engine() *mstate.Engine { return h.engine }
func (h *Host) Clock() *FakeClock      { return h.clock }

// Pass honours one run request. It reports false when none was pending.
func (h *Host) Pass() bool {
	id, ok := h.engine.RunQueue().Pop()
	if !ok {
		return false
	}
	h.engine.RunToCompletion(id)
	return true
}

// Drain honours run requests until none remain and returns the number of
// passes. It panics after limit passes, which means a machine never settles.
func (h *Host) Drain() int {
	const limit = 100000
	n := 0
	for h.Pass() {
		n++
		if n >= limit {
			panic("testutil: run queue did not settle")
		}
	}
	return n
}

// Advance moves the clock by ms, performs an idle tick and drains.
func (h *Host) Advance(ms int64) int {
	h.clock.Advance(ms)
	h.engine.IdleTick()
	return h.Drain()
}

func (h *Host) Start(ctx context.Context) error { return nil }
func (h *Host) Stop() error                     { return nil }

func (h *Host) StartMachine(m mstate.MachineID, state string) error {
	return h.engine.Start(m, state)
}

func (h *Host) Send(m mstate.MachineID, trigger string, args ...int) error {
	return h.engine.Send(m, trigger, args...)
}

func (h *Host) Current(m mstate.MachineID) string { return h.engine.Current(m) }

func (h *Host) WaitForStability(time.Duration) error {
	h.Drain()
	return nil
}

// RealtimeAdapter runs the engine on a realtime.Runtime.
type RealtimeAdapter struct {
	engine *mstate.Engine
	rt     *realtime.Runtime
}

// NewRealtimeAdapter wraps e, which must use its default run queue.
func NewRealtimeAdapter(e *mstate.Engine, cfg realtime.Config) (*RealtimeAdapter, error) {
	rt, err := realtime.NewRuntime(e, cfg)
	if err != nil {
		return nil, err
	}
	return &RealtimeAdapter{engine: e, rt: rt}, nil
}

func (a *RealtimeAdapter) Engine() *mstate.Engine          { return a.engine }
func (a *RealtimeAdapter) Runtime() *realtime.Runtime      { return a.rt }
func (a *RealtimeAdapter) Start(ctx context.Context) error { return a.rt.Start(ctx) }
func (a *RealtimeAdapter) Stop() error                     { return a.rt.Stop() }

func (a *RealtimeAdapter) StartMachine(m mstate.MachineID, state string) error {
	return a.rt.StartMachine(m, state)
}

func (a *RealtimeAdapter) Send(m mstate.MachineID, trigger string, args ...int) error {
	return a.rt.Send(m, trigger, args...)
}

func (a *RealtimeAdapter) Current(m mstate.MachineID) string {
	name, _ := a.rt.Current(context.Background(), m)
	return name
}

// WaitForStability waits until the inbox and the run queue are both empty.
func (a *RealtimeAdapter) WaitForStability(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for {
		idle := false
		err := a.rt.Do(ctx, func(e *mstate.Engine) { idle = e.RunQueue().Len() == 0 })
		if err != nil {
			return err
		}
		if idle {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.New("testutil: runtime did not settle")
		case <-time.After(time.Millisecond):
		}
	}
}
