// MachineConfig is the declarative form of one state machine, loaded from a
// YAML or JSON document and declared into an engine by the production loader.
//
// Documents keep declaration order: states, actions and transitions are lists,
// because evaluation order of transitions is the order they were declared in.
package primitives

import (
	"errors"
	"fmt"
)

// ErrInvalidDocument is wrapped by every validation failure.
var ErrInvalidDocument = errors.New("invalid machine document")

// MachineConfig defines a complete machine declaration.
type MachineConfig struct {
	Version string        `json:"version,omitempty" yaml:"version,omitempty"`
	Machine int           `json:"machine" yaml:"machine"`
	Initial string        `json:"initial" yaml:"initial"`
	States  []StateConfig `json:"states" yaml:"states"`
}

// Validate checks the document:
//   - Initial is set and names a declared state
//   - every state validates and names are unique
//
// Transition targets that are never declared are allowed; the engine parks
// in them as empty placeholder states.
func (m *MachineConfig) Validate() error {
	if m.Initial == "" {
		return fmt.Errorf("%w: initial state is required", ErrInvalidDocument)
	}
	if len(m.States) == 0 {
		return fmt.Errorf("%w: at least one state is required", ErrInvalidDocument)
	}

	seen := make(map[string]bool, len(m.States))
	for i := range m.States {
		s := &m.States[i]
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: state %d: %v", ErrInvalidDocument, i, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate state %q", ErrInvalidDocument, s.Name)
		}
		seen[s.Name] = true
	}

	if !seen[m.Initial] {
		return fmt.Errorf("%w: initial state %q not declared", ErrInvalidDocument, m.Initial)
	}
	return nil
}

// FindState returns the declaration of the named state.
func (m *MachineConfig) FindState(name string) (*StateConfig, error) {
	for i := range m.States {
		if m.States[i].Name == name {
			return &m.States[i], nil
		}
	}
	return nil, fmt.Errorf("state %q not found", name)
}

// TriggerNames returns the distinct trigger names used by the document, in
// first-use order. The completion trigger "" is not included.
func (m *MachineConfig) TriggerNames() []string {
	var names []string
	seen := map[string]bool{}
	for _, s := range m.States {
		for _, t := range s.Transitions {
			if t.Trigger == "" || seen[t.Trigger] {
				continue
			}
			seen[t.Trigger] = true
			names = append(names, t.Trigger)
		}
	}
	return names
}
