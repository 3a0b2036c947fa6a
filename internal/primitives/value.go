// Package primitives defines the foundational data structures for the statechart engine.
// All implementations use only the Go standard library (stdlib-only).
// No external dependencies.
//
// Value is the recursive structure described in the formalism's data model:
// either a leaf string naming an atomic substate, or a mapping from
// region-key to Value (used for compound and parallel nodes).
package primitives

import (
	"fmt"
	"sort"
	"strings"
)

// Value is either a leaf string or a map[string]Value. Represented as
// `any` rather than a closed sum type because a JSON/YAML-decoded
// machine document produces exactly these two shapes and nothing else.
type Value = any

// DefaultDelimiter is used to join/split dotted paths when a machine does
// not override it via Options.
const DefaultDelimiter = "."

// Path is an ordered list of keys from some ancestor down to a leaf.
type Path []string

// String joins the path with delimiter.
func (p Path) String(delimiter string) string {
	return strings.Join(p, delimiter)
}

// Equal reports whether two paths name the same sequence of keys.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a component-wise prefix of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i := range prefix {
		if p[i] != prefix[i] {
			return false
		}
	}
	return true
}

// ToValue accepts a dotted string, a path array ([]string), a nested
// map[string]Value, or another Value, and normalizes it to a Value.
func ToValue(x any, delimiter string) (Value, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	switch v := x.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrInvalidDefinition)
	case string:
		return pathToValue(strings.Split(v, delimiter)), nil
	case Path:
		return pathToValue([]string(v)), nil
	case []string:
		return pathToValue(v), nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, child := range v {
			cv, err := ToValue(child, delimiter)
			if err != nil {
				return nil, err
			}
			out[k] = cv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: cannot interpret %T as a state value", ErrInvalidDefinition, x)
	}
}

// pathToValue builds {a: {b: "c"}} from ["a","b","c"].
func pathToValue(segments []string) Value {
	if len(segments) == 0 {
		return ""
	}
	if len(segments) == 1 {
		return segments[0]
	}
	return map[string]any{segments[0]: pathToValue(segments[1:])}
}

// ToPaths enumerates all leaf paths a value denotes, one per orthogonal
// region, in sorted region-key order for determinism.
func ToPaths(v Value) []Path {
	switch t := v.(type) {
	case string:
		return []Path{{t}}
	case map[string]any:
		if len(t) == 0 {
			return nil
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var out []Path
		for _, k := range keys {
			for _, sub := range ToPaths(t[k]) {
				p := make(Path, 0, len(sub)+1)
				p = append(p, k)
				p = append(p, sub...)
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

// PathsToValue is the inverse of ToPaths: ToPaths(PathsToValue(ps)) is
// equivalent to ps for any well-formed path set (one path per region,
// sharing a consistent branching structure).
func PathsToValue(paths []Path) Value {
	if len(paths) == 0 {
		return nil
	}
	if len(paths) == 1 && len(paths[0]) == 1 {
		return paths[0][0]
	}
	buckets := map[string][]Path{}
	var order []string
	for _, p := range paths {
		if len(p) == 0 {
			continue
		}
		head, rest := p[0], p[1:]
		if _, ok := buckets[head]; !ok {
			order = append(order, head)
		}
		if len(rest) > 0 {
			buckets[head] = append(buckets[head], rest)
		} else {
			buckets[head] = append(buckets[head], Path{})
		}
	}
	out := make(map[string]any, len(buckets))
	for _, k := range order {
		subPaths := buckets[k]
		if len(subPaths) == 1 && len(subPaths[0]) == 0 {
			out[k] = k
			continue
		}
		// Regions nested under k: reconstruct recursively. A leaf
		// bucket (no further segments) degenerates to its own key.
		var nonEmpty []Path
		leaf := false
		for _, sp := range subPaths {
			if len(sp) == 0 {
				leaf = true
			} else {
				nonEmpty = append(nonEmpty, sp)
			}
		}
		if leaf && len(nonEmpty) == 0 {
			out[k] = k
		} else {
			out[k] = PathsToValue(nonEmpty)
		}
	}
	return out
}

// Matches reports whether pattern is a prefix of value in every region
// pattern names. matches("red", {red:"walk"}) = true;
// matches({red:"walk"}, "red") = false.
func Matches(pattern, value Value, delimiter string) bool {
	pv, err := ToValue(pattern, delimiter)
	if err != nil {
		return false
	}
	vv, err := ToValue(value, delimiter)
	if err != nil {
		return false
	}
	patternPaths := ToPaths(pv)
	valuePaths := ToPaths(vv)
	for _, pp := range patternPaths {
		found := false
		for _, vp := range valuePaths {
			if vp.HasPrefix(pp) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
