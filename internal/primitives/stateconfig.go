package primitives

import (
	"errors"
	"fmt"
)

// StateConfig declares one state. Action names are resolved against an
// action registry when the document is loaded.
type StateConfig struct {
	Name        string             `json:"name" yaml:"name"`
	Entry       []string           `json:"entry,omitempty" yaml:"entry,omitempty"`
	Do          []ActivityConfig   `json:"do,omitempty" yaml:"do,omitempty"`
	Exit        []string           `json:"exit,omitempty" yaml:"exit,omitempty"`
	Transitions []TransitionConfig `json:"transitions,omitempty" yaml:"transitions,omitempty"`
	Timeout     *TimeoutConfig     `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// TimeoutConfig declares a state's timeout transition: After milliseconds
// after entry the machine moves to Target.
type TimeoutConfig struct {
	After  int    `json:"after" yaml:"after"`
	Target string `json:"target" yaml:"target"`
}

// ActivityConfig declares a do-activity running every Every milliseconds.
// Every <= 0 only runs the on-entry invocation.
type ActivityConfig struct {
	Every  int    `json:"every" yaml:"every"`
	Action string `json:"action" yaml:"action"`
}

// NewStateConfig creates a StateConfig with the given name.
func NewStateConfig(name string) *StateConfig {
	return &StateConfig{Name: name}
}

// AddEntry appends an entry action name.
func (s *StateConfig) AddEntry(action string) *StateConfig {
	s.Entry = append(s.Entry, action)
	return s
}

// AddExit appends an exit action name.
func (s *StateConfig) AddExit(action string) *StateConfig {
	s.Exit = append(s.Exit, action)
	return s
}

// AddDo appends a do-activity.
func (s *StateConfig) AddDo(everyMs int, action string) *StateConfig {
	s.Do = append(s.Do, ActivityConfig{Every: everyMs, Action: action})
	return s
}

// Transition appends a transition. The trigger "" declares a completion transition.
func (s *StateConfig) Transition(trigger string, targets ...string) *StateConfig {
	s.Transitions = append(s.Transitions, TransitionConfig{Trigger: trigger, Targets: targets})
	return s
}

// AddTransition appends a fully specified transition.
func (s *StateConfig) AddTransition(t TransitionConfig) *StateConfig {
	s.Transitions = append(s.Transitions, t)
	return s
}

// SetTimeout declares the state's timeout transition.
func (s *StateConfig) SetTimeout(afterMs int, target string) *StateConfig {
	s.Timeout = &TimeoutConfig{After: afterMs, Target: target}
	return s
}

// Validate checks the state name, its activities, transitions and timeout.
func (s *StateConfig) Validate() error {
	if s.Name == "" {
		return errors.New("state name is required")
	}
	if err := ValidateName(s.Name); err != nil {
		return err
	}
	for i, a := range s.Do {
		if a.Action == "" {
			return fmt.Errorf("state %s: do-activity %d has no action", s.Name, i)
		}
		if a.Every < 0 {
			return fmt.Errorf("state %s: do-activity %d has negative interval", s.Name, i)
		}
	}
	for i := range s.Transitions {
		if err := s.Transitions[i].Validate(); err != nil {
			return fmt.Errorf("state %s: transition %d: %w", s.Name, i, err)
		}
	}
	if t := s.Timeout; t != nil {
		if t.After < 0 {
			return fmt.Errorf("state %s: negative timeout", s.Name)
		}
		if err := ValidateName(t.Target); err != nil {
			return fmt.Errorf("state %s: timeout target: %w", s.Name, err)
		}
	}
	return nil
}
