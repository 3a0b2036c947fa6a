// Package primitives defines the foundational data structures for the statechart engine.
// All implementations use only the Go standard library (stdlib-only).
// No external dependencies.
//
// MachineConfig represents the top-level configuration of a statechart machine,
// containing the machine ID, initial state, and flat map of all states by ID.
// States support hierarchical nesting via the Children field.
// Validation ensures ID/Initial presence, state validity, target existence, and no orphans.

package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// MachineConfig defines the complete statechart configuration.
type MachineConfig struct {
	Version   string                  `json:"version,omitempty" yaml:"version,omitempty"`
	ID        string                  `json:"id" yaml:"id"`
	Initial   string                  `json:"initial" yaml:"initial"`
	Delimiter string                  `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	States    map[string]*StateConfig `json:"states" yaml:"states"`
}

// EffectiveDelimiter returns Delimiter, defaulting to DefaultDelimiter.
func (m *MachineConfig) EffectiveDelimiter() string {
	if m.Delimiter == "" {
		return DefaultDelimiter
	}
	return m.Delimiter
}

// Validate validates the entire machine configuration:
// - Non-empty ID and Initial
// - Initial exists in States
// - All individual states validate (recursive)
// - All transition targets exist in States
// - No orphaned states (all reachable from Initial via Children hierarchy)
func (m *MachineConfig) Validate() error {
	if m.ID == "" {
		return errors.New("machine ID is required")
	}
	if m.Initial == "" {
		return errors.New("initial state ID is required")
	}
	if len(m.States) == 0 {
		return errors.New("states map is required and cannot be empty")
	}
	initialState, ok := m.States[m.Initial]
	if !ok {
		return fmt.Errorf("initial state %q not found in states", m.Initial)
	}
	if initialState.Type == ShallowHistory || initialState.Type == DeepHistory {
		return fmt.Errorf("initial state %q must not be a history node", m.Initial)
	}

	// Validate all states recursively
	for sid, state := range m.States {
		if err := state.Validate(); err != nil {
			return fmt.Errorf("state %q validation failed: %w", sid, err)
		}
	}

	// Validate transition targets exist (on, always, onDone, after).
	for sid, state := range m.States {
		allTrans := map[string][]TransitionConfig{}
		for event, transitions := range state.On {
			allTrans[event] = transitions
		}
		if len(state.Always) > 0 {
			allTrans["always"] = state.Always
		}
		if state.OnDone != nil {
			allTrans["onDone"] = []TransitionConfig{*state.OnDone}
		}
		for event, transitions := range allTrans {
			for i, trans := range transitions {
				for _, target := range trans.AllTargets() {
					if _, err := m.resolveTarget(sid, target); err != nil {
						return fmt.Errorf("invalid transition target %q (state %q, event %q, transition %d): %w", target, sid, event, i, err)
					}
				}
			}
		}
		for i, at := range state.After {
			if _, err := m.resolveTarget(sid, at.Target); err != nil {
				return fmt.Errorf("invalid after-timer target %q (state %q, entry %d): %w", at.Target, sid, i, err)
			}
		}
	}

	// Check no orphaned states via reachability
	visited := make(map[string]bool)
	if err := m.markReachable(initialState, visited); err != nil {
		return fmt.Errorf("reachability check failed: %w", err)
	}
	for sid := range m.States {
		if !visited[sid] {
			return fmt.Errorf("orphaned state %q (not reachable from initial %q)", sid, m.Initial)
		}
	}

	return nil
}

// resolveTarget resolves a transition target string relative to sourceID:
// "#id" is absolute by node id, otherwise the first path segment is looked
// up directly in the flat States map (sibling/global id resolution used by
// the loader proper; this pass only checks existence, not relative
// resolution against the live tree).
func (m *MachineConfig) resolveTarget(sourceID, target string) (*StateConfig, error) {
	body := strings.TrimPrefix(target, "#")
	head := strings.Split(body, ".")[0]
	st, ok := m.States[head]
	if !ok {
		return nil, fmt.Errorf("target %q not found (from %q)", target, sourceID)
	}
	return st, nil
}

// markReachable recursively marks reachable states via Children hierarchy and transition targets.
func (m *MachineConfig) markReachable(state *StateConfig, visited map[string]bool) error {
	if visited[state.ID] {
		return nil
	}
	visited[state.ID] = true

	for _, child := range state.Children {
		if err := m.markReachable(child, visited); err != nil {
			return err
		}
	}

	visitTargets := func(transitions []TransitionConfig) error {
		for _, trans := range transitions {
			for _, target := range trans.AllTargets() {
				head := strings.Split(strings.TrimPrefix(target, "#"), ".")[0]
				if targetState, ok := m.States[head]; ok && !visited[head] {
					if err := m.markReachable(targetState, visited); err != nil {
						return err
					}
				}
			}
		}
		return nil
	}

	for _, transitions := range state.On {
		if err := visitTargets(transitions); err != nil {
			return err
		}
	}
	if err := visitTargets(state.Always); err != nil {
		return err
	}
	if state.OnDone != nil {
		if err := visitTargets([]TransitionConfig{*state.OnDone}); err != nil {
			return err
		}
	}
	for _, at := range state.After {
		head := strings.Split(strings.TrimPrefix(at.Target, "#"), ".")[0]
		if targetState, ok := m.States[head]; ok && !visited[head] {
			if err := m.markReachable(targetState, visited); err != nil {
				return err
			}
		}
	}

	return nil
}

// FindState resolves a state by hierarchical path (e.g. "parent.child.grandchild").
func (m *MachineConfig) FindState(path string) (*StateConfig, error) {
	if path == "" {
		return nil, errors.New("path cannot be empty")
	}
	segments := strings.Split(path, m.EffectiveDelimiter())
	if len(segments) == 0 {
		return nil, errors.New("invalid path")
	}
	current, ok := m.States[segments[0]]
	if !ok {
		return nil, fmt.Errorf("state %q not found", segments[0])
	}
	for i := 1; i < len(segments); i++ {
		seg := segments[i]
		found := false
		for _, child := range current.Children {
			if child.ID == seg {
				current = child
				found = true
				break
			}
		}
		if !found {
			prefix := strings.Join(segments[:i], m.EffectiveDelimiter())
			return nil, fmt.Errorf("child %q not found in %q", seg, prefix)
		}
	}
	return current, nil
}
