package extensibility

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/comalice/mstate/internal/core"
	"github.com/comalice/mstate/internal/primitives"
)

// ErrUnknownAction is returned when a document names an action that was
// never registered.
var ErrUnknownAction = errors.New("unknown action")

// Call is what a named action sees when it runs.
type Call struct {
	Machine core.MachineID
	State   string
	// Counter is the do-activity counter; 0 for entry and exit actions.
	Counter int
	Vars    *primitives.Vars
	Send    func(trigger string, args ...int) error
}

// ActionFunc is a named action body.
type ActionFunc func(c Call)

// ActionSource resolves action names.
type ActionSource interface {
	Lookup(name string) (ActionFunc, error)
}

// ActionRegistry maps names to action bodies. Safe for concurrent use.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// NewActionRegistry creates an empty registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]ActionFunc)}
}

// Register adds fn under name. Names follow the document naming rules and
// may be registered once.
func (r *ActionRegistry) Register(name string, fn ActionFunc) error {
	if err := primitives.ValidateName(name); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	if fn == nil {
		return fmt.Errorf("action %q: nil body", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.actions[name]; exists {
		return fmt.Errorf("action %q already registered", name)
	}
	r.actions[name] = fn
	return nil
}

// MustRegister is Register that panics on error.
func (r *ActionRegistry) MustRegister(name string, fn ActionFunc) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the action registered under name.
func (r *ActionRegistry) Lookup(name string) (ActionFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
	return fn, nil
}

// Names returns the registered names, sorted.
func (r *ActionRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoggingActions wraps an ActionSource and logs every action it runs.
type LoggingActions struct {
	inner  ActionSource
	logger *slog.Logger
}

// NewLoggingActions creates a LoggingActions around inner.
func NewLoggingActions(inner ActionSource, logger *slog.Logger) *LoggingActions {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingActions{inner: inner, logger: logger}
}

// Lookup resolves name through the inner source and wraps the body.
func (l *LoggingActions) Lookup(name string) (ActionFunc, error) {
	fn, err := l.inner.Lookup(name)
	if err != nil {
		return nil, err
	}
	return func(c Call) {
		start := time.Now()
		fn(c)
		l.logger.Debug("action executed",
			"action", name,
			"machine", int(c.Machine),
			"state", c.State,
			"counter", c.Counter,
			"duration", time.Since(start),
		)
	}, nil
}

// Builtins returns a registry holding the actions every document may use:
//
//	noop        does nothing
//	log         logs the call at info level
//	count       increments the integer variable named after the state
//	send-self   sends the trigger stored in vars["send"] to the same machine
func Builtins(logger *slog.Logger) *ActionRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	r := NewActionRegistry()
	r.MustRegister("noop", func(Call) {})
	r.MustRegister("log", func(c Call) {
		logger.Info("action", "machine", int(c.Machine), "state", c.State, "counter", c.Counter)
	})
	r.MustRegister("count", func(c Call) {
		n, _ := c.Vars.Int(c.State)
		c.Vars.Set(c.State, n+1)
	})
	r.MustRegister("send-self", func(c Call) {
		trigger, ok := c.Vars.Get("send")
		if !ok {
			return
		}
		if name, ok := trigger.(string); ok && c.Send != nil {
			if err := c.Send(name); err != nil {
				logger.Warn("send-self failed", "machine", int(c.Machine), "error", err)
			}
		}
	})
	return r
}
