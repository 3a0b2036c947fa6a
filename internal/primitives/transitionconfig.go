// Package primitives defines the foundational data structures for the statechart engine.
// TransitionConfig defines transitions between states with guards, actions, targets.
// All implementations use only the Go standard library (stdlib-only).
// No external dependencies.
//
// TransitionConfig supports hierarchical targets via dot-separated paths
// (e.g., "parent.child"), an absolute `#id` form, and multiple targets
// for parallel regions. Document order — the position of a
// TransitionConfig within its owning []TransitionConfig slice, and of
// that slice's event within StateConfig.EventOrder — is the sole
// tie-break the selector uses; Priority is carried for shape-compat with
// the teacher's transition table but is not consulted by the selector.
package primitives

import (
	"errors"
	"fmt"
	"strings"
)

// ActionRef references an action: either a string ID or func(ctx any, event Event).
type ActionRef any

// GuardRef references a guard condition: either a string ID or
// func(ctx any, event Event) bool.
type GuardRef any

// TransitionConfig defines a single transition triggered by an Event.
//
// A transition with no Target/Targets is internal regardless of the
// Internal flag; Internal additionally forces internal semantics even
// when a Target is present, matching `internal: true` in a machine
// definition loaded from config.
type TransitionConfig struct {
	Event    string      `json:"event"`
	Guard    GuardRef    `json:"guard,omitempty"`
	Target   string      `json:"target,omitempty"`
	Targets  []string    `json:"targets,omitempty"`
	Internal bool        `json:"internal,omitempty"`
	Actions  []ActionRef `json:"actions,omitempty"`
	Priority int         `json:"priority,omitempty"`
}

// AllTargets returns Targets if set, else a one-element slice built from
// Target, else nil for a targetless (internal) transition.
func (t *TransitionConfig) AllTargets() []string {
	if len(t.Targets) > 0 {
		return t.Targets
	}
	if t.Target != "" {
		return []string{t.Target}
	}
	return nil
}

// IsInternal reports whether this transition is internal
func (t *TransitionConfig) IsInternal() bool {
	return t.Internal || len(t.AllTargets()) == 0
}

// Validate checks TransitionConfig fields and target path syntax.
func (t *TransitionConfig) Validate() error {
	if t.Event == "" {
		return errors.New("event is required")
	}
	for _, target := range t.AllTargets() {
		if err := validateTargetSyntax(target); err != nil {
			return err
		}
	}
	if t.Priority < 0 {
		return errors.New("priority must be non-negative")
	}
	return nil
}

func validateTargetSyntax(target string) error {
	body := target
	if strings.HasPrefix(body, "#") {
		body = body[1:]
	}
	segments := strings.Split(body, ".")
	for i, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return fmt.Errorf("invalid target path %q: empty segment at index %d", target, i)
		}
		for _, r := range seg {
			if !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-') {
				return fmt.Errorf("invalid target path %q: invalid character '%c' at index %d", target, r, i)
			}
		}
	}
	return nil
}
