package core

import (
	"sort"

	"github.com/comalice/statechartx/internal/primitives"
)

// Configuration is the set of every currently active node, at every level
// of the hierarchy (not just leaves), plus the history recorded for any
// history-bearing ancestor that has been exited at least once.
// It is an immutable value: every operation that changes it returns a new
// one.
type Configuration struct {
	Active  []string // absolute node ids, sorted lexicographically (sort.Strings)
	History primitives.History
}

// State is the pure core's public view of "where the machine is": a
// Configuration plus the context it carries, and the schedule produced by
// whatever step (InitialState/Transition) last built it. Actions are never
// executed by the pure core itself; the interpreter tier runs them.
type State struct {
	Definition    *Definition
	Configuration Configuration
	Context       any
	Changed       bool
	Done          bool
	Actions       []Action
}

// Value renders the State's Configuration as a primitives.Value,
// suitable for Matches or for display/persistence.
func (s *State) Value() primitives.Value {
	return s.Definition.configurationValue(s.Configuration)
}

// Matches reports whether the state's value satisfies pattern under the
// Value/Path matching rules.
func (s *State) Matches(pattern string) bool {
	return primitives.Matches(pattern, s.Value(), s.Definition.delimiter)
}

// activeNodeSet resolves a Configuration's Active ids back to *node
// pointers via the owning Definition.
func (def *Definition) activeNodeSet(cfg Configuration) []*node {
	out := make([]*node, 0, len(cfg.Active))
	for _, id := range cfg.Active {
		if n, ok := def.byID[id]; ok {
			out = append(out, n)
		}
	}
	return out
}

// configurationValue converts the leaf regions of a Configuration into a
// primitives.Value by building one Path per active leaf (root-relative,
// short-id segments) and folding them with PathsToValue.
func (def *Definition) configurationValue(cfg Configuration) primitives.Value {
	active := def.activeNodeSet(cfg)
	leaves := partitionIntoRegions(active)
	var paths []primitives.Path
	for _, leaf := range leaves {
		var segs []string
		for _, a := range leaf.ancestorsInclusive() {
			segs = append([]string{a.shortID}, segs...)
		}
		paths = append(paths, primitives.Path(segs))
	}
	return primitives.PathsToValue(paths)
}

// mergeActive turns an entered node list (already including every
// ancestor visited on the way, per how defaultDescend/pathFromLCCA are
// constructed) into a sorted, deduplicated Configuration.Active, merged
// with whatever was already active outside the affected subtree.
func mergeActive(existing []string, removed, added []*node) []string {
	removedSet := make(map[string]bool, len(removed))
	for _, n := range removed {
		removedSet[n.id] = true
	}
	kept := make(map[string]bool, len(existing))
	for _, id := range existing {
		if !removedSet[id] {
			kept[id] = true
		}
	}
	for _, n := range added {
		kept[n.id] = true
	}
	out := make([]string, 0, len(kept))
	for id := range kept {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
