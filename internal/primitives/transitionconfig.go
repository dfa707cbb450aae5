package primitives

import (
	"errors"
	"fmt"
)

// TransitionConfig declares a transition.
//
// Guard is an optional boolean expression; when it evaluates false the
// transition is not taken. Select is an optional integer expression choosing
// the index into Targets; without it index 0 is traversed. Actions run, in
// order, when the transition is taken, before the source state is exited.
type TransitionConfig struct {
	Trigger string   `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Targets []string `json:"targets" yaml:"targets"`
	Guard   string   `json:"guard,omitempty" yaml:"guard,omitempty"`
	Select  string   `json:"select,omitempty" yaml:"select,omitempty"`
	Actions []string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

// IsCompletion reports whether the transition has no external trigger.
func (t *TransitionConfig) IsCompletion() bool {
	return t.Trigger == ""
}

// Validate checks target names. A trigger may be empty (completion).
func (t *TransitionConfig) Validate() error {
	if len(t.Targets) == 0 {
		return errors.New("at least one target is required")
	}
	for i, target := range t.Targets {
		if err := ValidateName(target); err != nil {
			return fmt.Errorf("target %d: %w", i, err)
		}
	}
	if t.Trigger != "" {
		if err := ValidateName(t.Trigger); err != nil {
			return fmt.Errorf("trigger: %w", err)
		}
	}
	return nil
}

// ValidateName accepts identifiers made of letters, digits, '_', '-' and '.'.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("empty name")
	}
	for i, r := range name {
		if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.') {
			return fmt.Errorf("invalid name %q: invalid character '%c' at index %d", name, r, i)
		}
	}
	return nil
}
