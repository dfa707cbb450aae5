// Package production provides the integrations a deployed engine needs:
// declarative machine documents and publishing of state changes.
package production

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/comalice/mstate"
	"github.com/comalice/mstate/internal/extensibility"
	"github.com/comalice/mstate/internal/primitives"
)

// CounterVar is the machine variable holding the do-activity counter of the
// current state. It is reset to 0 on every state entry. Guards read it as
// `counter`.
const CounterVar = "counter"

// DecodeJSON parses a JSON machine document.
func DecodeJSON(data []byte) (*primitives.MachineConfig, error) {
	var cfg primitives.MachineConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return &cfg, nil
}

// DecodeYAML parses a YAML machine document.
func DecodeYAML(data []byte) (*primitives.MachineConfig, error) {
	var cfg primitives.MachineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	return &cfg, nil
}

// ReadFile reads a document, choosing the format by extension: .json, or
// .yaml / .yml.
func ReadFile(path string) (*primitives.MachineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg *primitives.MachineConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		cfg, err = DecodeJSON(data)
	case ".yaml", ".yml":
		cfg, err = DecodeYAML(data)
	default:
		return nil, fmt.Errorf("%s: unsupported document extension", path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Loader declares machine documents into an engine, resolving action names
// and compiling guard expressions.
type Loader struct {
	actions extensibility.ActionSource
	guards  *extensibility.GuardCompiler
	logger  *slog.Logger
}

// NewLoader creates a loader resolving actions through actions.
func NewLoader(actions extensibility.ActionSource, logger *slog.Logger) (*Loader, error) {
	if logger == nil {
		logger = slog.Default()
	}
	guards, err := extensibility.NewGuardCompiler()
	if err != nil {
		return nil, err
	}
	return &Loader{actions: actions, guards: guards, logger: logger}, nil
}

// LoadFile reads the document at path and declares it.
func (l *Loader) LoadFile(e *mstate.Engine, path string) (*primitives.MachineConfig, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := l.Declare(e, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Declare validates cfg and declares every state on machine cfg.Machine.
// Nothing is declared unless every action resolves and every expression
// compiles. The machine is not started.
func (l *Loader) Declare(e *mstate.Engine, cfg *primitives.MachineConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	m := mstate.MachineID(cfg.Machine)

	type plan func()
	var plans []plan

	for i := range cfg.States {
		s := &cfg.States[i]
		plans = append(plans, func() {
			e.DeclareEntry(m, s.Name, func() { e.Vars(m).Set(CounterVar, 0) })
		})
		for _, name := range s.Entry {
			fn, err := l.actions.Lookup(name)
			if err != nil {
				return fmt.Errorf("state %q entry: %w", s.Name, err)
			}
			plans = append(plans, func() {
				e.DeclareEntry(m, s.Name, func() { fn(l.call(e, m, s.Name, 0)) })
			})
		}
		for _, name := range s.Exit {
			fn, err := l.actions.Lookup(name)
			if err != nil {
				return fmt.Errorf("state %q exit: %w", s.Name, err)
			}
			plans = append(plans, func() {
				e.DeclareExit(m, s.Name, func() { fn(l.call(e, m, s.Name, 0)) })
			})
		}
		for _, act := range s.Do {
			fn, err := l.actions.Lookup(act.Action)
			if err != nil {
				return fmt.Errorf("state %q do: %w", s.Name, err)
			}
			every := int64(act.Every)
			plans = append(plans, func() {
				e.DeclareDoActivity(m, s.Name, every, func(counter int) {
					e.Vars(m).Set(CounterVar, counter)
					fn(l.call(e, m, s.Name, counter))
				})
			})
		}
		if t := s.Timeout; t != nil {
			after, target := int64(t.After), t.Target
			plans = append(plans, func() {
				e.DeclareTimeout(m, s.Name, after, target)
			})
		}
		for j := range s.Transitions {
			eval, err := l.transition(e, m, s.Name, &s.Transitions[j])
			if err != nil {
				return fmt.Errorf("state %q transition %d: %w", s.Name, j, err)
			}
			t := s.Transitions[j]
			plans = append(plans, func() {
				e.DeclareTransition(m, s.Name, t.Trigger, t.Targets, eval)
			})
		}
	}

	for _, p := range plans {
		p()
	}
	l.logger.Info("machine declared",
		"machine", cfg.Machine,
		"states", len(cfg.States),
		"version", primitives.ComputeVersion(cfg),
	)
	return nil
}

func (l *Loader) call(e *mstate.Engine, m mstate.MachineID, state string, counter int) extensibility.Call {
	return extensibility.Call{
		Machine: m,
		State:   state,
		Counter: counter,
		Vars:    e.Vars(m),
		Send: func(trigger string, args ...int) error {
			return e.Send(m, trigger, args...)
		},
	}
}

func (l *Loader) transition(e *mstate.Engine, m mstate.MachineID, state string, t *primitives.TransitionConfig) (mstate.EvalFunc, error) {
	var guard *extensibility.Guard
	var sel *extensibility.Selector
	var err error
	if t.Guard != "" {
		if guard, err = l.guards.CompileGuard(t.Guard); err != nil {
			return nil, err
		}
	}
	if t.Select != "" {
		if sel, err = l.guards.CompileSelect(t.Select); err != nil {
			return nil, err
		}
	}
	actions := make([]extensibility.ActionFunc, len(t.Actions))
	for i, name := range t.Actions {
		if actions[i], err = l.actions.Lookup(name); err != nil {
			return nil, err
		}
	}
	if guard == nil && sel == nil && len(actions) == 0 {
		return nil, nil
	}

	targets := len(t.Targets)
	return func(ev *mstate.Eval) {
		vars := e.Vars(m)
		counter, _ := vars.Int(CounterVar)
		in := extensibility.GuardInput{
			Args:      ev.Args(),
			Counter:   counter,
			Vars:      vars.Snapshot(),
			Trigger:   ev.Trigger(),
			State:     state,
			Timeouted: ev.Timeouted(),
		}
		if guard != nil {
			ok, err := guard.Eval(in)
			if err != nil {
				l.logger.Warn("guard failed", "machine", int(m), "state", state, "error", err)
			}
			if !ok {
				return
			}
		}
		index := 0
		if sel != nil {
			i, err := sel.Eval(in)
			if err != nil {
				l.logger.Warn("select failed", "machine", int(m), "state", state, "error", err)
				return
			}
			index = i
		}
		if index < 0 || index >= targets {
			return
		}
		ev.Traverse(index)
		c := l.call(e, m, state, int(counter))
		for _, act := range actions {
			act(c)
		}
	}, nil
}
