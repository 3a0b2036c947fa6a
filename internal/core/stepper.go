package core

import (
	"sort"

	"github.com/comalice/statechartx/internal/primitives"
)

// maxMacrostepIterations bounds the always-transition/done-event
// convergence loop. A well-formed definition settles in a handful
// of iterations; the cap exists so a definition with an accidental
// eventless cycle fails by returning a stale-but-terminated state rather
// than hanging the caller.
const maxMacrostepIterations = 200

// ---- entry/exit set construction -----------------------------------------

func pickInitialChild(n *node) *node {
	for _, c := range n.children {
		if c.shortID == n.initial {
			return c
		}
	}
	return nil
}

// defaultDescend returns the nodes entered beneath n by default: the
// initial-child chain for a compound state, every child (recursively) for
// a parallel state, nothing for an atomic/final/history leaf.
func defaultDescend(n *node, hist primitives.History) []*node {
	switch n.kind {
	case kindCompound:
		child := pickInitialChild(n)
		if child == nil {
			return nil
		}
		out := []*node{child}
		return append(out, defaultDescend(child, hist)...)
	case kindParallel:
		var out []*node
		for _, c := range n.children {
			out = append(out, c)
			out = append(out, defaultDescend(c, hist)...)
		}
		return out
	default:
		return nil
	}
}

// pathFromLCCA returns target's ancestor chain down to (and including)
// target, starting just below lccaNode (lccaNode itself excluded), root-
// first.
func pathFromLCCA(lccaNode, target *node) []*node {
	var chain []*node
	for cur := target; cur != nil && cur != lccaNode; cur = cur.parent {
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

func depth(n *node) int {
	d := 0
	for cur := n; cur.parent != nil; cur = cur.parent {
		d++
	}
	return d
}

// exitSetFor returns every node in activeByID that is anchor itself or one
// of its active descendants, ordered leaf-first (deepest first).
func exitSetFor(activeByID map[string]*node, anchor *node) []*node {
	var out []*node
	for _, n := range activeByID {
		if n.isDescendantOf(anchor) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := depth(out[i]), depth(out[j])
		if di != dj {
			return di > dj
		}
		return out[i].order > out[j].order
	})
	return out
}

// restoreHistory resolves a history node's recorded subtree: shallow histories remember the one direct child that was
// active, deep histories remember every active leaf under the region.
func (def *Definition) restoreHistory(histNode *node, hist primitives.History) ([]*node, bool) {
	rec, ok := hist.Restore(histNode.id)
	if !ok {
		return nil, false
	}
	ids, ok := rec.([]string)
	if !ok || len(ids) == 0 {
		return nil, false
	}
	if histNode.kind == kindHistoryShallow {
		child, ok := def.byID[ids[0]]
		if !ok {
			return nil, false
		}
		chain := []*node{child}
		return append(chain, defaultDescend(child, hist)...), true
	}
	seen := map[*node]bool{}
	var chain []*node
	owner := histNode.parent
	for _, id := range ids {
		leaf, ok := def.byID[id]
		if !ok {
			continue
		}
		for _, n := range pathFromLCCA(owner, leaf) {
			if !seen[n] {
				seen[n] = true
				chain = append(chain, n)
			}
		}
	}
	if len(chain) == 0 {
		return nil, false
	}
	return chain, true
}

// entryChainFor returns the ordered (root-first) list of nodes to enter in
// order to reach target from lccaNode, including target's own default
// descent, or its history-resolved (or history-default) subtree when
// target is itself a history marker.
func (def *Definition) entryChainFor(target, lccaNode *node, hist primitives.History) []*node {
	if !target.isHistory() {
		chain := pathFromLCCA(lccaNode, target)
		return append(chain, defaultDescend(target, hist)...)
	}

	owner := target.parent
	chain := pathFromLCCA(lccaNode, owner)
	if restored, ok := def.restoreHistory(target, hist); ok {
		return append(chain, restored...)
	}

	defaultShort := target.historyDefault
	if defaultShort == "" {
		defaultShort = owner.initial
	}
	for _, c := range owner.children {
		if c.shortID == defaultShort {
			chain = append(chain, c)
			return append(chain, defaultDescend(c, hist)...)
		}
	}
	return chain
}

// recordHistory updates hist for every history child of a node that is
// about to exit.
func recordHistory(hist primitives.History, activeByID map[string]*node, exitNodes []*node) primitives.History {
	for _, n := range exitNodes {
		if n.kind != kindCompound && n.kind != kindParallel {
			continue
		}
		for _, c := range n.children {
			switch c.kind {
			case kindHistoryShallow:
				for _, sib := range n.children {
					if sib == c {
						continue
					}
					if _, active := activeByID[sib.id]; active {
						hist = hist.Record(c.id, []string{sib.id})
						break
					}
				}
			case kindHistoryDeep:
				var leaves []string
				for id, an := range activeByID {
					if an.isAtomicLike() && an.isDescendantOf(n) {
						leaves = append(leaves, id)
					}
				}
				if len(leaves) > 0 {
					sort.Strings(leaves)
					hist = hist.Record(c.id, leaves)
				}
			}
		}
	}
	return hist
}

// ---- action classification ------------------------------------------------

// classifyAndRun folds any assign-shaped ActionRef into ctx immediately
// (in order) and turns every other ActionRef into a schedulable Action,
// leaving opaque string ids / bare funcs as ActionPure for an
// ActionRunner to resolve.
func classifyAndRun(ctx any, event primitives.Event, refs []primitives.ActionRef) (any, []Action, error) {
	newCtx := ctx
	var schedule []Action
	for _, ref := range refs {
		switch v := ref.(type) {
		case nil:
			continue
		case primitives.WholeAssigner, primitives.KeyAssigner, func(any, primitives.Event) any:
			updated, err := primitives.UpdateContext(newCtx, event, []primitives.Assign{v})
			if err != nil {
				return ctx, nil, err
			}
			newCtx = updated
		case primitives.RaiseAction:
			schedule = append(schedule, raiseAction(ref, v.EventType, v.Data))
		case primitives.SendAction:
			id := v.ID
			if id == "" {
				id = v.EventType
			}
			schedule = append(schedule, sendAction(ref, v.EventType, v.Data, v.DelayMs, id))
		case primitives.CancelAction:
			schedule = append(schedule, cancelAction(v.SendID))
		case primitives.LogAction:
			schedule = append(schedule, logAction(ref, v.Label, v.Value))
		case primitives.StartActivityAction:
			schedule = append(schedule, startActivity(v.ID))
		case primitives.StopActivityAction:
			schedule = append(schedule, stopActivity(v.ID))
		default:
			schedule = append(schedule, pureAction(ref))
		}
	}
	return newCtx, schedule, nil
}

func activitiesOf(nodes []*node) []string {
	seen := map[string]bool{}
	var out []string
	for _, n := range nodes {
		for _, a := range n.activities {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	sort.Strings(out)
	return out
}

// ---- done-state detection --------------------------------------------------

func isRegionDone(n *node, activeByID map[string]*node) bool {
	switch n.kind {
	case kindFinal:
		return true
	case kindCompound:
		for _, c := range n.children {
			if _, ok := activeByID[c.id]; ok {
				return isRegionDone(c, activeByID)
			}
		}
		return false
	case kindParallel:
		if len(n.children) == 0 {
			return false
		}
		for _, c := range n.children {
			if !isRegionDone(c, activeByID) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (def *Definition) firstPendingDone(cfg Configuration) (string, bool) {
	activeNodes := def.activeNodeSet(cfg)
	sort.Slice(activeNodes, func(i, j int) bool { return activeNodes[i].order < activeNodes[j].order })
	activeByID := make(map[string]*node, len(activeNodes))
	for _, n := range activeNodes {
		activeByID[n.id] = n
	}
	for _, n := range activeNodes {
		if (n.kind == kindCompound || n.kind == kindParallel) && n.onDone != nil && isRegionDone(n, activeByID) {
			return n.onDone.event, true
		}
	}
	return "", false
}

func (def *Definition) isMachineDone(cfg Configuration) bool {
	activeNodes := def.activeNodeSet(cfg)
	activeByID := make(map[string]*node, len(activeNodes))
	for _, n := range activeNodes {
		activeByID[n.id] = n
	}
	return isRegionDone(def.root, activeByID)
}

// ---- microstep / macrostep --------------------------------------------------

// enterInitial builds the machine's whole initial Configuration by
// default-descending from the synthetic root.
func (def *Definition) enterInitial(ctx any, event primitives.Event) (Configuration, any, []Action, error) {
	entry := defaultDescend(def.root, nil)
	ids := make([]string, 0, len(entry))
	for _, n := range entry {
		ids = append(ids, n.id)
	}
	sort.Strings(ids)

	var refs []primitives.ActionRef
	var afterSends []Action
	for _, n := range entry {
		refs = append(refs, n.onEntry...)
		for _, at := range n.after {
			afterSends = append(afterSends, sendAction(nil, at.eventType, nil, at.delayMs, at.eventType))
		}
	}
	newCtx, acts, err := classifyAndRun(ctx, event, refs)
	if err != nil {
		return Configuration{}, ctx, nil, err
	}
	acts = append(acts, afterSends...)
	for _, a := range activitiesOf(entry) {
		acts = append(acts, startActivity(a))
	}
	return Configuration{Active: ids}, newCtx, acts, nil
}

// microstep applies every region's winning candidate for a single event
// type in one pass: collects exit actions leaf-first across all
// firing regions, then every firing transition's own actions, then entry
// actions root-first, then the activity start/stop diff. An empty
// Configuration triggers enterInitial instead of event selection.
func (def *Definition) microstep(cfg Configuration, ctx any, eventType string, event primitives.Event, guardEval GuardEvaluator) (Configuration, any, []Action, bool, error) {
	if len(cfg.Active) == 0 {
		newCfg, newCtx, acts, err := def.enterInitial(ctx, event)
		if err != nil {
			return cfg, ctx, nil, false, err
		}
		return newCfg, newCtx, acts, true, nil
	}

	activeNodes := def.activeNodeSet(cfg)
	activeByID := make(map[string]*node, len(activeNodes))
	for _, n := range activeNodes {
		activeByID[n.id] = n
	}

	cands := dedupeBySource(selectTransitions(def, activeNodes, eventType, ctx, event, guardEval))
	if len(cands) == 0 {
		return cfg, ctx, nil, false, nil
	}

	newCtx := ctx
	var schedule []Action
	var allExit, allEntered []*node
	hist := cfg.History

	for _, cand := range cands {
		if len(cand.trans.targets) == 0 {
			updated, acts, err := classifyAndRun(newCtx, event, cand.trans.actions)
			if err != nil {
				return cfg, ctx, nil, false, err
			}
			newCtx = updated
			schedule = append(schedule, acts...)
			continue
		}

		targets := make([]*node, 0, len(cand.trans.targets))
		for _, tid := range cand.trans.targets {
			tn, ok := def.byID[tid]
			if !ok {
				return cfg, ctx, nil, false, &primitives.TargetError{Source: cand.source.id, Target: tid}
			}
			targets = append(targets, tn)
		}

		anchor := cand.source
		lccaNode := anchor
		for _, t := range targets {
			lccaNode = lcca(lccaNode, t)
		}
		selfOnly := true
		for _, t := range targets {
			if t != anchor {
				selfOnly = false
				break
			}
		}
		if cand.trans.internal {
			lccaNode = anchor
		} else if selfOnly && anchor.parent != nil {
			lccaNode = anchor.parent
		}

		exitNodes := exitSetFor(activeByID, anchor)
		if cand.trans.internal {
			filtered := exitNodes[:0]
			for _, n := range exitNodes {
				if n != anchor {
					filtered = append(filtered, n)
				}
			}
			exitNodes = filtered
		}

		var exitRefs []primitives.ActionRef
		var afterCancels []Action
		for _, n := range exitNodes {
			exitRefs = append(exitRefs, n.onExit...)
			for _, at := range n.after {
				afterCancels = append(afterCancels, cancelAction(at.eventType))
			}
		}
		updated, acts, err := classifyAndRun(newCtx, event, exitRefs)
		if err != nil {
			return cfg, ctx, nil, false, err
		}
		newCtx = updated
		schedule = append(schedule, acts...)
		schedule = append(schedule, afterCancels...)

		hist = recordHistory(hist, activeByID, exitNodes)

		updated, acts, err = classifyAndRun(newCtx, event, cand.trans.actions)
		if err != nil {
			return cfg, ctx, nil, false, err
		}
		newCtx = updated
		schedule = append(schedule, acts...)

		var entryChain []*node
		seenEntry := map[*node]bool{}
		for _, t := range targets {
			for _, n := range def.entryChainFor(t, lccaNode, hist) {
				if !seenEntry[n] {
					seenEntry[n] = true
					entryChain = append(entryChain, n)
				}
			}
		}
		var entryRefs []primitives.ActionRef
		var afterSends []Action
		for _, n := range entryChain {
			entryRefs = append(entryRefs, n.onEntry...)
			for _, at := range n.after {
				afterSends = append(afterSends, sendAction(nil, at.eventType, nil, at.delayMs, at.eventType))
			}
		}
		updated, acts, err = classifyAndRun(newCtx, event, entryRefs)
		if err != nil {
			return cfg, ctx, nil, false, err
		}
		newCtx = updated
		schedule = append(schedule, acts...)
		schedule = append(schedule, afterSends...)

		allExit = append(allExit, exitNodes...)
		allEntered = append(allEntered, entryChain...)
	}

	beforeActivities := activitiesOf(activeNodes)
	newActiveIDs := mergeActive(cfg.Active, allExit, allEntered)
	newActiveNodes := def.activeNodeSet(Configuration{Active: newActiveIDs})
	afterActivities := activitiesOf(newActiveNodes)
	starts, stops := activityDiff(beforeActivities, afterActivities)
	for _, s := range starts {
		schedule = append(schedule, startActivity(s))
	}
	for _, s := range stops {
		schedule = append(schedule, stopActivity(s))
	}

	return Configuration{Active: newActiveIDs, History: hist}, newCtx, schedule, true, nil
}

// macrostep runs one externally-caused microstep to completion: the
// triggering event, then any done.state events newly enabled by it, then
// any eventless ("always") transitions, repeating until nothing more fires.
func (def *Definition) macrostep(cfg Configuration, ctx any, eventType string, event primitives.Event, guardEval GuardEvaluator) (Configuration, any, []Action, bool, error) {
	curCfg, curCtx := cfg, ctx
	var allActions []Action
	changedOverall := false

	step := func(et string, ev primitives.Event) (bool, error) {
		newCfg, newCtx, acts, changed, err := def.microstep(curCfg, curCtx, et, ev, guardEval)
		if err != nil {
			return false, err
		}
		if changed {
			curCfg, curCtx = newCfg, newCtx
			allActions = append(allActions, acts...)
			changedOverall = true
		}
		return changed, nil
	}

	if _, err := step(eventType, event); err != nil {
		return cfg, ctx, nil, false, err
	}

	for i := 0; i < maxMacrostepIterations; i++ {
		progressed := false

		if doneType, ok := def.firstPendingDone(curCfg); ok {
			changed, err := step(doneType, primitives.Event{Type: doneType})
			if err != nil {
				return cfg, ctx, nil, false, err
			}
			progressed = progressed || changed
		}

		changed, err := step("", primitives.Event{Type: primitives.InitEventType})
		if err != nil {
			return cfg, ctx, nil, false, err
		}
		progressed = progressed || changed

		if !progressed {
			break
		}
	}

	return curCfg, curCtx, allActions, changedOverall, nil
}

// ---- public API --------------------------------------------------------

// InitialState computes the machine's starting State: its default
// Configuration, any initial assigns folded into ctx, and entry/activity
// actions scheduled for the interpreter to run.
func (def *Definition) InitialState(ctx any, guardEval GuardEvaluator) (*State, error) {
	cfg, newCtx, acts, _, err := def.macrostep(Configuration{}, ctx, "", primitives.Event{Type: primitives.InitEventType}, guardEval)
	if err != nil {
		return nil, err
	}
	return &State{
		Definition:    def,
		Configuration: cfg,
		Context:       newCtx,
		Changed:       true,
		Done:          def.isMachineDone(cfg),
		Actions:       acts,
	}, nil
}

// Transition computes the next State given the current one and an
// incoming Event. guardEval may be nil: then guards expressed as
// func(ctx, Event) bool are evaluated directly and any other guard counts
// as failing. A non-nil guardEval receives every guard, funcs included.
func (def *Definition) Transition(from *State, event primitives.Event, guardEval GuardEvaluator) (*State, error) {
	cfg, newCtx, acts, changed, err := def.macrostep(from.Configuration, from.Context, event.Type, event, guardEval)
	if err != nil {
		return nil, err
	}
	return &State{
		Definition:    def,
		Configuration: cfg,
		Context:       newCtx,
		Changed:       changed,
		Done:          def.isMachineDone(cfg),
		Actions:       acts,
	}, nil
}

// FromValue reconstructs a State directly from a primitives.Value: every named leaf in value is entered, and any sibling
// region left unspecified (e.g. other parallel regions) is filled in via
// its own default descent.
func (def *Definition) FromValue(value primitives.Value, ctx any) (*State, error) {
	paths := primitives.ToPaths(value)
	active := map[string]bool{}
	for _, p := range paths {
		cur := def.root
		for _, seg := range p {
			var next *node
			for _, c := range cur.children {
				if c.shortID == seg {
					next = c
					break
				}
			}
			if next == nil {
				return nil, &primitives.TargetError{Source: "", Target: p.String(def.delimiter)}
			}
			active[next.id] = true
			cur = next
		}
		for _, n := range defaultDescend(cur, nil) {
			active[n.id] = true
		}
	}
	ids := make([]string, 0, len(active))
	for id := range active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	cfg := Configuration{Active: ids}
	return &State{
		Definition:    def,
		Configuration: cfg,
		Context:       ctx,
		Changed:       false,
		Done:          def.isMachineDone(cfg),
	}, nil
}
