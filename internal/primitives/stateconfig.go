// Package primitives defines the foundational data structures for the statechart engine.
// All implementations use only the Go standard library (stdlib-only).
// No external dependencies.
//
// StateConfig represents a state in the statechart, supporting atomic, compound, parallel,
// final, and history state types with transitions, actions, and hierarchical nesting.
package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// StateType defines the possible types of states in the statechart.
type StateType string

const (
	Atomic         StateType = "atomic"
	Compound       StateType = "compound"
	Parallel       StateType = "parallel"
	Final          StateType = "final"
	ShallowHistory StateType = "shallowHistory"
	DeepHistory    StateType = "deepHistory"
)

// AfterTimer is one entry of a node's `after: { N: target }` map,
// normalized into an explicit delay/target pair so the loader can
// synthesize the on-entry send and the corresponding transition.
type AfterTimer struct {
	DelayMs int64
	Target  string
}

// StateConfig defines a state configuration, supporting hierarchical nesting.
//
// On is keyed by event type; EventOrder records the order event keys
// were first added so normalization can walk a node's own event table in
// document order even though Go map iteration order is undefined.
// Transitions for a single event are already ordered since On's value is
// a plain slice.
type StateConfig struct {
	ID         string                        `json:"id" yaml:"id"`
	Type       StateType                     `json:"type" yaml:"type"`
	Initial    string                        `json:"initial,omitempty" yaml:"initial,omitempty"`
	On         map[string][]TransitionConfig `json:"on,omitempty" yaml:"on,omitempty"`
	EventOrder []string                      `json:"-" yaml:"-"`
	Always     []TransitionConfig            `json:"always,omitempty" yaml:"always,omitempty"`
	After      []AfterTimer                  `json:"after,omitempty" yaml:"after,omitempty"`
	OnDone     *TransitionConfig             `json:"onDone,omitempty" yaml:"onDone,omitempty"`
	Entry      []ActionRef                   `json:"entry,omitempty" yaml:"entry,omitempty"`
	Exit       []ActionRef                   `json:"exit,omitempty" yaml:"exit,omitempty"`
	Activities []string                      `json:"activities,omitempty" yaml:"activities,omitempty"`
	Children   []*StateConfig                `json:"children,omitempty" yaml:"children,omitempty"`

	// History-only field.
	HistoryDefault string `json:"historyDefault,omitempty" yaml:"historyDefault,omitempty"`

	// Final-only field: data to carry on the synthesized done event.
	FinalData any `json:"data,omitempty" yaml:"data,omitempty"`
}

// NewStateConfig creates a new StateConfig with ID and Type.
func NewStateConfig(id string, typ StateType) *StateConfig {
	return &StateConfig{
		ID:   id,
		Type: typ,
	}
}

// WithInitial sets the initial child state ID (for compound/parallel).
func (s *StateConfig) WithInitial(initial string) *StateConfig {
	s.Initial = initial
	return s
}

// WithOn sets the event-to-transition map wholesale, recomputing
// EventOrder from the map's keys in the order encountered (callers that
// need a specific document order should use AddTransition instead).
func (s *StateConfig) WithOn(on map[string][]TransitionConfig) *StateConfig {
	s.On = make(map[string][]TransitionConfig)
	s.EventOrder = nil
	for k, v := range on {
		s.On[k] = v
		s.EventOrder = append(s.EventOrder, k)
	}
	return s
}

// AddTransition adds a transition for an event, preserving document
// order both across distinct events (EventOrder) and within one event
// (append to the existing slice).
func (s *StateConfig) AddTransition(event string, trans TransitionConfig) *StateConfig {
	trans.Event = event
	if s.On == nil {
		s.On = make(map[string][]TransitionConfig)
	}
	if _, seen := s.On[event]; !seen {
		s.EventOrder = append(s.EventOrder, event)
	}
	s.On[event] = append(s.On[event], trans)
	return s
}

// WithEntry sets entry actions.
func (s *StateConfig) WithEntry(entry []ActionRef) *StateConfig {
	s.Entry = entry
	return s
}

// AddEntry adds an entry action.
func (s *StateConfig) AddEntry(action ActionRef) *StateConfig {
	s.Entry = append(s.Entry, action)
	return s
}

// WithExit sets exit actions.
func (s *StateConfig) WithExit(exit []ActionRef) *StateConfig {
	s.Exit = exit
	return s
}

// AddExit adds an exit action.
func (s *StateConfig) AddExit(action ActionRef) *StateConfig {
	s.Exit = append(s.Exit, action)
	return s
}

// WithChildren sets child states.
func (s *StateConfig) WithChildren(children []*StateConfig) *StateConfig {
	s.Children = children
	return s
}

// AddChild adds a child state.
func (s *StateConfig) AddChild(child *StateConfig) *StateConfig {
	s.Children = append(s.Children, child)
	return s
}

// WithAfter adds a `send(after(N,id), delay=N)` timer.
func (s *StateConfig) WithAfter(delayMs int64, target string) *StateConfig {
	s.After = append(s.After, AfterTimer{DelayMs: delayMs, Target: target})
	return s
}

// WithOnDone sets the transition fired on synthetic `done.state.<id>`.
func (s *StateConfig) WithOnDone(target string) *StateConfig {
	s.OnDone = &TransitionConfig{Target: target}
	return s
}

// State creates and adds a child state (atomic by default, or specified type).
// Returns the child for fluent chaining: parent.State("child").Transition("evt", "target").
func (s *StateConfig) State(id string, typ ...StateType) *StateConfig {
	t := Atomic
	if len(typ) > 0 {
		t = typ[0]
	}
	child := NewStateConfig(id, t)
	s.AddChild(child)
	return child
}

// Transition adds a simple transition from event to target.
// Optionally override with full TransitionConfig via first arg.
// Usage: .Transition("evt", "target") or .Transition("evt", "target", TransitionConfig{Guard: fn}).
func (s *StateConfig) Transition(event, target string, transOpts ...TransitionConfig) *StateConfig {
	trans := TransitionConfig{Target: target}
	if len(transOpts) > 0 {
		trans = transOpts[0]
		if trans.Target == "" {
			trans.Target = target
		}
	}
	return s.AddTransition(event, trans)
}

// Flatten returns a flat map[string]*StateConfig by recursing the entire hierarchy from this root.
func (s *StateConfig) Flatten() map[string]*StateConfig {
	m := make(map[string]*StateConfig)
	s.flattenHelper(m)
	return m
}

func (s *StateConfig) flattenHelper(m map[string]*StateConfig) {
	if _, ok := m[s.ID]; ok {
		return
	}
	m[s.ID] = s
	for _, child := range s.Children {
		child.flattenHelper(m)
	}
}

// Validate performs recursive validation of the StateConfig tree.
func (s *StateConfig) Validate() error {
	if s.ID == "" {
		return errors.New("state ID is required")
	}

	validTypes := map[StateType]struct{}{
		Atomic: {}, Compound: {}, Parallel: {}, Final: {},
		ShallowHistory: {}, DeepHistory: {},
	}
	if _, ok := validTypes[s.Type]; !ok {
		return fmt.Errorf("invalid state type %q for state %s", s.Type, s.ID)
	}

	switch s.Type {
	case Atomic:
		if s.Initial != "" {
			return fmt.Errorf("atomic state %s cannot have Initial", s.ID)
		}
		if len(s.Children) > 0 {
			return fmt.Errorf("atomic state %s cannot have Children", s.ID)
		}
	case Final:
		if len(s.Children) > 0 {
			return fmt.Errorf("final state %s cannot have Children", s.ID)
		}
		if len(s.On) > 0 || len(s.Always) > 0 {
			return fmt.Errorf("final state %s cannot have outgoing transitions", s.ID)
		}
	case Compound, Parallel:
		if len(s.Children) == 0 {
			return fmt.Errorf("%s state %s requires Children", s.Type, s.ID)
		}
		if s.Type == Compound {
			if s.Initial == "" {
				return fmt.Errorf("%s state %s requires Initial child", s.Type, s.ID)
			}
			initialFound := false
			for _, child := range s.Children {
				if child.ID == s.Initial {
					if child.Type == ShallowHistory || child.Type == DeepHistory {
						return fmt.Errorf("initial child %q of %s must not be a history node", s.Initial, s.ID)
					}
					initialFound = true
					break
				}
			}
			if !initialFound {
				return fmt.Errorf("initial child %q not found in children of %s", s.Initial, s.ID)
			}
		}
		for _, child := range s.Children {
			if s.Type == Parallel && (child.Type == Atomic || child.Type == Final) {
				return fmt.Errorf("parallel state %s region %q must be compound or parallel, not %s", s.ID, child.ID, child.Type)
			}
		}
	case ShallowHistory, DeepHistory:
		if len(s.Children) > 0 {
			return fmt.Errorf("history state %s cannot have Children (restored at runtime)", s.ID)
		}
	}

	if s.On != nil {
		for event := range s.On {
			if strings.TrimSpace(event) == "" {
				return fmt.Errorf("empty event name in On map for state %s", s.ID)
			}
		}
	}

	for i, child := range s.Children {
		if err := child.Validate(); err != nil {
			return fmt.Errorf("child %d (%s) of %s failed validation: %w", i, child.ID, s.ID, err)
		}
	}

	return nil
}
