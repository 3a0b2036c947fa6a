// Package core implements the pure statechart transition function on
// top of the data shapes in internal/primitives. A Definition is built once
// by Load and is read-only afterward: every exported operation on it
// is safe to call concurrently from multiple goroutines because none of
// them mutate the Definition or any Configuration passed in.
package core

import "github.com/comalice/statechartx/internal/primitives"

// kind mirrors primitives.StateType but is resolved (normalized) so the
// rest of the package never has to re-derive atomic/compound/parallel from
// a children count the way primitives.StateConfig.Validate does.
type kind int

const (
	kindAtomic kind = iota
	kindCompound
	kindParallel
	kindFinal
	kindHistoryShallow
	kindHistoryDeep
)

// resolvedTransition is a TransitionConfig with its targets resolved to
// absolute node ids and its document-order position recorded, so the
// selector never needs to re-walk strings at step time.
type resolvedTransition struct {
	event    string
	guard    primitives.GuardRef
	targets  []string // absolute node ids; nil => internal/targetless
	internal bool
	actions  []primitives.ActionRef
	order    int // global document-order index, used as the sole tie-break
}

type resolvedAfter struct {
	delayMs   int64
	eventType string
	targets   []string
}

// node is one entry of the arena-indexed tree Load builds from a
// primitives.MachineConfig. Nodes are addressed by their absolute
// delimiter-joined id (e.g. "light.red.walk"); a synthetic root node with
// id "" owns every state that the source config left top-level, since
// primitives.MachineConfig has no single named root.
type node struct {
	id       string
	shortID  string
	kind     kind
	parent   *node
	children []*node
	order    int // document order among all nodes, root-first / depth-first

	initial        string // short id of default child (compound/parallel uses all children)
	historyDefault string // short id of the default target for a history node

	onEntry    []primitives.ActionRef
	onExit     []primitives.ActionRef
	activities []string

	eventOrder []string
	on         map[string][]resolvedTransition
	always     []resolvedTransition
	after      []resolvedAfter
	onDone     *resolvedTransition
	finalData  any
}

func (n *node) isAtomicLike() bool {
	return n.kind == kindAtomic || n.kind == kindFinal
}

func (n *node) isHistory() bool {
	return n.kind == kindHistoryShallow || n.kind == kindHistoryDeep
}

// ancestorsInclusive returns n and every ancestor up to (excluding) the
// synthetic root, leaf-first. Used by the selector's per-region candidate
// search.
func (n *node) ancestorsInclusive() []*node {
	var out []*node
	for cur := n; cur != nil && cur.id != ""; cur = cur.parent {
		out = append(out, cur)
	}
	return out
}

// isDescendantOf reports whether n is a == or strictly inside anc.
func (n *node) isDescendantOf(anc *node) bool {
	for cur := n; cur != nil; cur = cur.parent {
		if cur == anc {
			return true
		}
	}
	return false
}

// lcca returns the deepest node that is a or an ancestor of a and is also
// b or an ancestor of b, whatever its kind: lcca(a, a) is a itself, and
// two nodes in different top-level subtrees yield the synthetic root.
func lcca(a, b *node) *node {
	ancestorsA := make(map[*node]bool)
	for cur := a; cur != nil; cur = cur.parent {
		ancestorsA[cur] = true
	}
	for cur := b; cur != nil; cur = cur.parent {
		if ancestorsA[cur] {
			return cur
		}
	}
	return nil
}
