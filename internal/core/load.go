package core

import (
	"fmt"
	"strings"

	"github.com/comalice/statechartx/internal/primitives"
)

// Definition is the normalized, read-only form of a
// primitives.MachineConfig. It is produced once by Load and never
// mutated afterward; every Transition/InitialState call reads it but never
// writes to it, which is what makes the pure core thread-safe by
// construction.
type Definition struct {
	id        string
	delimiter string
	version   string
	root      *node
	byID      map[string]*node // absolute dotted id -> node
	order     int              // next transition document-order index; starts at the node count
}

// LoadOption customizes normalization.
type LoadOption func(*loadState)

type loadState struct {
	delimiter string
	orderSeq  int
}

// WithDelimiter overrides the path delimiter used to build absolute ids
// and to split/join Value paths (default ".", primitives.DefaultDelimiter).
func WithDelimiter(d string) LoadOption {
	return func(ls *loadState) { ls.delimiter = d }
}

// Load normalizes a primitives.MachineConfig into a Definition:
// each StateType becomes a node kind, `after` timers become synthesized
// sends, `onDone` becomes a transition on a synthetic done.state.<id>
// event, and every transition target is resolved to an absolute node id
// up front so the selector never has to re-walk strings.
//
// Load returns a *primitives.DefinitionError (wrapping ErrInvalidDefinition)
// on any structural problem it checks: an unresolvable target, a duplicate
// node id, a state id containing the delimiter, an unknown state type, or a
// config that fails its own Validate. Cycles among Children pointers are
// not detected.
func Load(config *primitives.MachineConfig, opts ...LoadOption) (*Definition, error) {
	if err := config.Validate(); err != nil {
		return nil, &primitives.DefinitionError{Reason: err.Error()}
	}

	ls := &loadState{delimiter: config.EffectiveDelimiter()}
	for _, opt := range opts {
		opt(ls)
	}

	root := &node{id: "", shortID: "", kind: kindCompound, initial: config.Initial}
	byID := map[string]*node{"": root}

	topLevel := topLevelStates(config)
	for _, sc := range topLevel {
		child, err := buildNode(sc, root, ls, byID)
		if err != nil {
			return nil, err
		}
		root.children = append(root.children, child)
	}
	assignOrder(root, &ls.orderSeq)

	def := &Definition{
		id:        config.ID,
		delimiter: ls.delimiter,
		version:   primitives.ComputeVersion(config),
		root:      root,
		byID:      byID,
		order:     ls.orderSeq,
	}

	if err := resolveTransitions(def, config, topLevel); err != nil {
		return nil, &primitives.DefinitionError{Reason: err.Error()}
	}
	return def, nil
}

// topLevelStates returns the StateConfigs in config.States that are not
// referenced as a Children entry of any other StateConfig: the flat
// registry pattern the teacher's MachineBuilder produces (states map holds
// every node, hierarchy is expressed purely via Children pointers).
func topLevelStates(config *primitives.MachineConfig) []*primitives.StateConfig {
	referenced := map[string]bool{}
	var markChildren func(sc *primitives.StateConfig)
	markChildren = func(sc *primitives.StateConfig) {
		for _, c := range sc.Children {
			referenced[c.ID] = true
			markChildren(c)
		}
	}
	for _, sc := range config.States {
		markChildren(sc)
	}
	var top []*primitives.StateConfig
	for id, sc := range config.States {
		if !referenced[id] {
			top = append(top, sc)
		}
	}
	return top
}

func stateKind(t primitives.StateType) (kind, error) {
	switch t {
	case primitives.Atomic:
		return kindAtomic, nil
	case primitives.Compound:
		return kindCompound, nil
	case primitives.Parallel:
		return kindParallel, nil
	case primitives.Final:
		return kindFinal, nil
	case primitives.ShallowHistory:
		return kindHistoryShallow, nil
	case primitives.DeepHistory:
		return kindHistoryDeep, nil
	default:
		return 0, &primitives.DefinitionError{Reason: fmt.Sprintf("unknown state type %q", t)}
	}
}

func buildNode(sc *primitives.StateConfig, parent *node, ls *loadState, byID map[string]*node) (*node, error) {
	k, err := stateKind(sc.Type)
	if err != nil {
		return nil, err
	}
	if ls.delimiter != "" && strings.Contains(sc.ID, ls.delimiter) {
		return nil, &primitives.DefinitionError{Reason: fmt.Sprintf("state id %q contains the delimiter %q", sc.ID, ls.delimiter)}
	}
	absID := sc.ID
	if parent.id != "" {
		absID = parent.id + ls.delimiter + sc.ID
	}
	if _, dup := byID[absID]; dup {
		return nil, &primitives.DefinitionError{Reason: fmt.Sprintf("duplicate node id %q", absID)}
	}
	n := &node{
		id:             absID,
		shortID:        sc.ID,
		kind:           k,
		parent:         parent,
		initial:        sc.Initial,
		historyDefault: sc.HistoryDefault,
		onEntry:        sc.Entry,
		onExit:         sc.Exit,
		activities:     sc.Activities,
		finalData:      sc.FinalData,
	}
	byID[absID] = n
	for _, csc := range sc.Children {
		c, err := buildNode(csc, n, ls, byID)
		if err != nil {
			return nil, err
		}
		n.children = append(n.children, c)
	}
	return n, nil
}

func assignOrder(n *node, seq *int) {
	n.order = *seq
	*seq++
	for _, c := range n.children {
		assignOrder(c, seq)
	}
}

// resolveTransitions walks the original StateConfig tree a second time
// (now that every node has an absolute id) to resolve On/Always/After/
// OnDone target strings into the node-level resolved* shapes.
func resolveTransitions(def *Definition, config *primitives.MachineConfig, topLevel []*primitives.StateConfig) error {
	var walk func(sc *primitives.StateConfig, n *node) error
	walk = func(sc *primitives.StateConfig, n *node) error {
		if len(sc.EventOrder) > 0 {
			n.on = make(map[string][]resolvedTransition, len(sc.EventOrder))
		}
		for _, event := range sc.EventOrder {
			for _, tc := range sc.On[event] {
				rt, err := resolveOne(def, n, &tc)
				if err != nil {
					return err
				}
				rt.event = event
				n.on[event] = append(n.on[event], rt)
			}
			n.eventOrder = append(n.eventOrder, event)
		}
		for _, tc := range sc.Always {
			rt, err := resolveOne(def, n, &tc)
			if err != nil {
				return err
			}
			n.always = append(n.always, rt)
		}
		if sc.OnDone != nil {
			rt, err := resolveOne(def, n, sc.OnDone)
			if err != nil {
				return err
			}
			doneType := primitives.DoneStateEventType(n.id)
			rt.event = doneType
			n.onDone = &rt
			// Folded into the normal event table too: a done.state.<id>
			// event is selected exactly like any other event, so
			// the stepper never needs a separate done-transition path.
			if n.on == nil {
				n.on = make(map[string][]resolvedTransition)
			}
			n.on[doneType] = append(n.on[doneType], rt)
		}
		for _, at := range sc.After {
			target, err := resolveTarget(def, n, at.Target)
			if err != nil {
				return err
			}
			eventType := primitives.AfterEventType(at.DelayMs, n.id)
			rt := resolvedTransition{event: eventType, targets: []string{target.id}, order: def.order}
			def.order++
			n.after = append(n.after, resolvedAfter{
				delayMs:   at.DelayMs,
				eventType: eventType,
				targets:   []string{target.id},
			})
			if n.on == nil {
				n.on = make(map[string][]resolvedTransition)
			}
			n.on[eventType] = append(n.on[eventType], rt)
		}
		for i, csc := range sc.Children {
			if err := walk(csc, n.children[i]); err != nil {
				return err
			}
		}
		return nil
	}
	for _, sc := range topLevel {
		n := def.byID[sc.ID]
		if err := walk(sc, n); err != nil {
			return err
		}
	}
	return nil
}

func resolveOne(def *Definition, source *node, tc *primitives.TransitionConfig) (resolvedTransition, error) {
	rt := resolvedTransition{
		guard:    tc.Guard,
		internal: tc.IsInternal(),
		actions:  tc.Actions,
		order:    def.order,
	}
	def.order++
	for _, t := range tc.AllTargets() {
		target, err := resolveTarget(def, source, t)
		if err != nil {
			return resolvedTransition{}, err
		}
		rt.targets = append(rt.targets, target.id)
	}
	return rt, nil
}

// resolveTarget resolves a transition/after target string relative to
// source: a leading "#" addresses a node by its absolute id directly;
// otherwise the first path segment is looked up sibling-first (among
// source's own siblings) and falls back to the top-level registry, after
// which any remaining segments drill through children.
func resolveTarget(def *Definition, source *node, target string) (*node, error) {
	if strings.HasPrefix(target, "#") {
		absID := target[1:]
		n, ok := def.byID[absID]
		if !ok {
			return nil, &primitives.TargetError{Source: source.id, Target: target}
		}
		return n, nil
	}

	segments := strings.Split(target, def.delimiter)
	head := segments[0]

	var start *node
	if source.parent != nil {
		for _, sib := range source.parent.children {
			if sib.shortID == head {
				start = sib
				break
			}
		}
	}
	if start == nil {
		for _, top := range def.root.children {
			if top.shortID == head {
				start = top
				break
			}
		}
	}
	if start == nil {
		return nil, &primitives.TargetError{Source: source.id, Target: target}
	}

	cur := start
	for _, seg := range segments[1:] {
		found := false
		for _, c := range cur.children {
			if c.shortID == seg {
				cur = c
				found = true
				break
			}
		}
		if !found {
			return nil, &primitives.TargetError{Source: source.id, Target: target}
		}
	}
	return cur, nil
}
