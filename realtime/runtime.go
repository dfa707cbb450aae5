package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/comalice/mstate"
	"github.com/comalice/mstate/internal/core"
	"github.com/comalice/mstate/internal/extensibility"
)

// Defaults for Config fields left zero.
const (
	DefaultTickRate         = 20 * time.Millisecond
	DefaultMaxPassesPerWake = 64
	DefaultInboxLimit       = 1000
)

// ErrNoRunQueue is returned for engines built with a custom RunRequester.
var ErrNoRunQueue = errors.New("engine has no run queue")

// Config configures the runtime.
type Config struct {
	TickRate         time.Duration // idle tick period
	MaxPassesPerWake int           // passes per wake-up before yielding
	InboxLimit       int           // pending commands from other goroutines
}

func (c Config) withDefaults() Config {
	if c.TickRate <= 0 {
		c.TickRate = DefaultTickRate
	}
	if c.MaxPassesPerWake <= 0 {
		c.MaxPassesPerWake = DefaultMaxPassesPerWake
	}
	if c.InboxLimit <= 0 {
		c.InboxLimit = DefaultInboxLimit
	}
	return c
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime's logger; the engine's logger by default.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		if l != nil {
			rt.logger = l
		}
	}
}

// WithEventSource forwards every trigger of src into the inbox while the
// runtime runs.
func WithEventSource(src extensibility.EventSource) Option {
	return func(rt *Runtime) {
		if src != nil {
			rt.sources = append(rt.sources, src)
		}
	}
}

// Runtime drives an engine from a dedicated goroutine.
type Runtime struct {
	engine *mstate.Engine
	queue  *core.RunQueue
	cfg    Config
	logger *slog.Logger

	inbox       []command
	inboxMu     sync.Mutex
	sequenceNum uint64
	wake        chan struct{}

	tickNum uint64
	tickMu  sync.Mutex
	passes  atomic.Uint64

	sources []extensibility.EventSource

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
	workers sync.WaitGroup
}

// NewRuntime creates a runtime for e. The engine must use its default run
// queue.
func NewRuntime(e *mstate.Engine, cfg Config, opts ...Option) (*Runtime, error) {
	q := e.RunQueue()
	if q == nil {
		return nil, ErrNoRunQueue
	}
	rt := &Runtime{
		engine: e,
		queue:  q,
		cfg:    cfg.withDefaults(),
		logger: e.Logger(),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt, nil
}

// Start launches the host loop. It returns immediately.
func (rt *Runtime) Start(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.cancel != nil {
		return errors.New("runtime already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	rt.cancel = cancel
	rt.stopped = make(chan struct{})

	for _, src := range rt.sources {
		rt.workers.Add(1)
		go rt.forward(loopCtx, src)
	}
	go rt.tickLoop(loopCtx)

	rt.logger.Info("runtime started", "tick_rate", rt.cfg.TickRate)
	return nil
}

// Stop cancels the loop and waits for it to exit. Commands still in the
// inbox are discarded.
func (rt *Runtime) Stop() error {
	rt.mu.Lock()
	cancel, stopped := rt.cancel, rt.stopped
	rt.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-stopped
	rt.workers.Wait()

	rt.mu.Lock()
	rt.cancel = nil
	rt.mu.Unlock()
	rt.logger.Info("runtime stopped", "ticks", rt.GetTickNumber(), "passes", rt.passes.Load())
	return nil
}

func (rt *Runtime) tickLoop(ctx context.Context) {
	defer close(rt.stopped)
	ticker := time.NewTicker(rt.cfg.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.processTick()
		case <-rt.wake:
			rt.processWake()
		case <-rt.queue.Ready():
			rt.processWake()
		}
	}
}

func (rt *Runtime) forward(ctx context.Context, src extensibility.EventSource) {
	defer rt.workers.Done()
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case tr, ok := <-events:
			if !ok {
				return
			}
			if err := rt.Send(tr.Machine, tr.Name, tr.Args...); err != nil {
				rt.logger.Warn("event source trigger dropped", "machine", int(tr.Machine), "trigger", tr.Name, "error", err)
			}
		}
	}
}

// StartMachine asks machine m to enter state. Safe from any goroutine.
func (rt *Runtime) StartMachine(m mstate.MachineID, state string) error {
	return rt.enqueue(command{kind: cmdStart, machine: m, name: state})
}

// Send queues trigger on machine m. Safe from any goroutine.
func (rt *Runtime) Send(m mstate.MachineID, trigger string, args ...int) error {
	return rt.enqueue(command{kind: cmdSend, machine: m, name: trigger, args: append([]int(nil), args...)})
}

// StopMachine returns machine m to the pseudostate. Safe from any goroutine.
func (rt *Runtime) StopMachine(m mstate.MachineID) error {
	return rt.enqueue(command{kind: cmdStop, machine: m})
}

// Do runs fn on the host loop and waits for it to finish or ctx to end.
func (rt *Runtime) Do(ctx context.Context, fn func(e *mstate.Engine)) error {
	done := make(chan struct{})
	err := rt.enqueue(command{kind: cmdCall, fn: func(e *mstate.Engine) {
		defer close(done)
		fn(e)
	}})
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns machine m's current state name, read on the host loop.
func (rt *Runtime) Current(ctx context.Context, m mstate.MachineID) (string, error) {
	result := make(chan string, 1)
	if err := rt.Do(ctx, func(e *mstate.Engine) { result <- e.Current(m) }); err != nil {
		return "", err
	}
	return <-result, nil
}

// GetTickNumber returns the number of idle ticks performed.
func (rt *Runtime) GetTickNumber() uint64 {
	rt.tickMu.Lock()
	defer rt.tickMu.Unlock()
	return rt.tickNum
}

// Passes returns the number of run-to-completion passes performed.
func (rt *Runtime) Passes() uint64 { return rt.passes.Load() }
