// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/comalice/mstate"
	"github.com/comalice/mstate/internal/extensibility"
	"github.com/comalice/mstate/internal/primitives"
	"github.com/comalice/mstate/internal/production"
)

// GenFlatConfig creates a ring of n states advancing on "tick".
func GenFlatConfig(machine, n int) primitives.MachineConfig {
	if n < 1 {
		n = 1
	}
	config := primitives.MachineConfig{
		Machine: machine,
		Initial: "s0",
		States:  make([]primitives.StateConfig, 0, n),
	}
	for i := 0; i < n; i++ {
		sc := primitives.NewStateConfig(fmt.Sprintf("s%d", i)).
			Transition("tick", fmt.Sprintf("s%d", (i+1)%n))
		config.States = append(config.States, *sc)
	}
	return config
}

// GenWideTransitions creates one state with numTransitions "tick"
// transitions of which only the last one is taken, so every trigger scans
// the full list.
func GenWideTransitions(machine, numTransitions int) primitives.MachineConfig {
	if numTransitions < 1 {
		numTransitions = 1
	}
	main := primitives.NewStateConfig("main")
	for i := 0; i < numTransitions-1; i++ {
		main.AddTransition(primitives.TransitionConfig{
			Trigger: "tick",
			Targets: []string{fmt.Sprintf("target%d", i)},
			Guard:   "false",
		})
	}
	main.Transition("tick", "main")
	return primitives.MachineConfig{
		Machine: machine,
		Initial: "main",
		States:  []primitives.StateConfig{*main},
	}
}

func mID(i int) mstate.MachineID { return mstate.MachineID(i) }

// WithClockFunc makes the engine read *now as its clock.
func WithClockFunc(now *int64) mstate.Option {
	return mstate.WithClock(mstate.ClockFunc(func() int64 { return *now }))
}

// NewQuietEngine creates an engine that discards logs.
func NewQuietEngine(opts ...mstate.Option) *mstate.Engine {
	base := []mstate.Option{mstate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	return mstate.New(append(base, opts...)...)
}

// Declare loads cfg into e with the builtin actions and starts it.
func Declare(e *mstate.Engine, cfg primitives.MachineConfig) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	l, err := production.NewLoader(extensibility.Builtins(logger), logger)
	if err != nil {
		return err
	}
	if err := l.Declare(e, &cfg); err != nil {
		return err
	}
	return e.Start(mstate.MachineID(cfg.Machine), cfg.Initial)
}

// Drain honours every pending run request of e.
func Drain(e *mstate.Engine) int {
	q := e.RunQueue()
	n := 0
	for {
		id, ok := q.Pop()
		if !ok {
			return n
		}
		e.RunToCompletion(id)
		n++
	}
}

// GenDocumentYAML renders a flat document of numStates states.
func GenDocumentYAML(numStates int) []byte {
	cfg := GenFlatConfig(1, numStates)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		panic(err)
	}
	return data
}
