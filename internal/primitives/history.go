package primitives

// History records, for each history marker whose parent has been exited,
// what was active under that parent at the moment of exit. It is keyed by
// the history marker's absolute dotted id rather than nested, since node
// ids are already unique within the machine and a flat map avoids needing
// a second tree shape that mirrors the state tree's nesting. The core
// stepper stores a []string of absolute node ids per entry: the active
// child for a shallow marker, the active leaves for a deep one.
//
// History values are immutable: Record always returns a new History,
// never mutating the receiver, so a Configuration's History field can be
// shared freely across steps that didn't change it.
type History map[string]Value

// Record returns a new History with subtree recorded against nodeID. A
// nil receiver is treated as empty.
func (h History) Record(nodeID string, subtree Value) History {
	next := make(History, len(h)+1)
	for k, v := range h {
		next[k] = v
	}
	next[nodeID] = subtree
	return next
}

// Restore returns the recorded subtree for nodeID, if any.
func (h History) Restore(nodeID string) (Value, bool) {
	if h == nil {
		return nil, false
	}
	v, ok := h[nodeID]
	return v, ok
}

// Equal reports whether two History values record the same entries.
func (h History) Equal(o History) bool {
	if len(h) != len(o) {
		return false
	}
	for k, v := range h {
		ov, ok := o[k]
		if !ok || !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

// valueEqual performs a structural comparison of two Values.
func valueEqual(a, b Value) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			ov, ok := bv[k]
			if !ok || !valueEqual(v, ov) {
				return false
			}
		}
		return true
	case []string:
		bv, ok := b.([]string)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
