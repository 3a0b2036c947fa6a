package core

import (
	"errors"
	"log"

	"github.com/comalice/statechartx/internal/primitives"
)

// candidate pairs a resolved transition with the node whose On/Always
// table it came from, so the stepper can compute exit/entry sets relative
// to the right source.
type candidate struct {
	source *node
	trans  resolvedTransition
}

// selectTransitions implements: for every currently active leaf
// region, walk from the leaf to the root collecting the first node (per
// region) whose event table has a guard-passing entry for eventType. Ties
// across regions are independent (parallel regions each contribute their
// own winner); within a single region the first matching ancestor wins and
// that ancestor's own transitions are ordered by document order, with the
// first guard that passes taken. A guard that errors or panics counts as
// not passing (§7 guard_failure) rather than aborting the search, so a
// later candidate for the same event still gets a chance.
func selectTransitions(def *Definition, active []*node, eventType string, ctx any, event primitives.Event, guardEval GuardEvaluator) []candidate {
	regions := partitionIntoRegions(active)

	var out []candidate
	for _, leaf := range regions {
		if found := selectForRegion(leaf, eventType, ctx, event, guardEval); found != nil {
			out = append(out, *found)
		}
	}
	return out
}

// selectForRegion walks leaf to root (inclusive) and returns the first
// node with a matching, guard-passing transition for eventType.
func selectForRegion(leaf *node, eventType string, ctx any, event primitives.Event, guardEval GuardEvaluator) *candidate {
	for _, n := range leaf.ancestorsInclusive() {
		transitions := transitionsFor(n, eventType)
		if len(transitions) == 0 {
			continue
		}
		for _, t := range transitions {
			if evalGuard(guardEval, t.guard, ctx, event) {
				return &candidate{source: n, trans: t}
			}
		}
	}
	return nil
}

// transitionsFor returns n's own transitions for eventType, or its always
// transitions when eventType is the empty/always pseudo-event, in document
// order. Wildcard ("*") entries are consulted only when no exact match
// exists on this node, per the common "specific beats wildcard" reading of
// event-table precedence.
func transitionsFor(n *node, eventType string) []resolvedTransition {
	if eventType == "" {
		return n.always
	}
	if ts, ok := n.on[eventType]; ok {
		return ts
	}
	if ts, ok := n.on[primitives.WildcardEventType]; ok {
		return ts
	}
	return nil
}

// evalGuard resolves and runs guard against ctx/event. A guard that panics,
// or a GuardEvaluator/reference that errors or can't be resolved, is logged
// as a guard_failure warning and treated as false rather than propagated:
// per primitives.ErrGuardFailure, a bad guard must not abort the whole
// step, only disqualify its own candidate.
func evalGuard(guardEval GuardEvaluator, guard primitives.GuardRef, ctx any, event primitives.Event) (ok bool) {
	if guard == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("statechartx: guard_failure: %v: panic: %v", primitives.ErrGuardFailure, r)
			ok = false
		}
	}()

	var err error
	switch {
	case guardEval != nil:
		ok, err = guardEval.Eval(ctx, guard, event)
	default:
		if fn, isFn := guard.(func(any, primitives.Event) bool); isFn {
			return fn(ctx, event)
		}
		err = errors.New("unresolvable guard reference")
	}
	if err != nil {
		log.Printf("statechartx: guard_failure: %v: %v", primitives.ErrGuardFailure, err)
		return false
	}
	return ok
}

// partitionIntoRegions returns the set of active leaf nodes (atomic, final,
// or an active history placeholder with nothing entered below it yet):
// one per orthogonal region, which is exactly what per-region candidate
// search needs to start from.
func partitionIntoRegions(active []*node) []*node {
	var leaves []*node
	activeSet := make(map[*node]bool, len(active))
	for _, n := range active {
		activeSet[n] = true
	}
	for _, n := range active {
		hasActiveChild := false
		for _, c := range n.children {
			if activeSet[c] {
				hasActiveChild = true
				break
			}
		}
		if !hasActiveChild {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// dedupeBySource resolves the case where two different regions (e.g.
// nested parallel leaves under the same compound ancestor) selected a
// transition from the very same source node: only the first one in
// candidate order is kept, the rest are dropped as redundant
// since exiting/entering would otherwise be computed twice for one source.
func dedupeBySource(cands []candidate) []candidate {
	seen := make(map[*node]bool, len(cands))
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if seen[c.source] {
			continue
		}
		seen[c.source] = true
		out = append(out, c)
	}
	return out
}
