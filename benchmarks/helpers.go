// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"
	"time"

	"github.com/comalice/statechartx/internal/core"
	"github.com/comalice/statechartx/internal/primitives"
	"gopkg.in/yaml.v3"
)

// GenFlatConfig creates a flat machine with n atomic states cycling via "tick" events.
func GenFlatConfig(n int) primitives.MachineConfig {
	if n < 1 {
		n = 1
	}
	config := primitives.MachineConfig{
		ID:      fmt.Sprintf("flat_%d", n),
		Initial: "s0",
		States:  make(map[string]*primitives.StateConfig, n),
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("s%d", i)
		sc := primitives.NewStateConfig(id, primitives.Atomic)
		targetIdx := (i + 1) % n
		target := fmt.Sprintf("s%d", targetIdx)
		sc.AddTransition("tick", primitives.TransitionConfig{Target: target})
		config.States[id] = sc
	}
	return config
}

// GenDeepConfig creates compound c0 holding leaf1/leaf2 plus compounds
// c1..c{depth-1}, each a direct child of c0 with its own leaf1/leaf2; the
// nesting is two levels deep whatever depth is. "tick" flips between
// c0's own leaves, and c1..c{depth-1} are never entered.
func GenDeepConfig(depth int) primitives.MachineConfig {
	if depth < 1 {
		depth = 1
	}
	mb := primitives.NewMachineBuilder(fmt.Sprintf("deep_%d", depth), "c0")
	sb := mb.Compound("c0")
	sb.WithInitial("leaf1")
	leaf1 := sb.Atomic("leaf1")
	leaf1.Transition("tick", "leaf2")
	leaf2 := sb.Atomic("leaf2")
	leaf2.Transition("tick", "leaf1")
	sb = sb.Up()
	for i := 1; i < depth; i++ {
		sb = sb.Compound(fmt.Sprintf("c%d", i))
		sb.WithInitial("leaf1")
		leaf1 = sb.Atomic("leaf1")
		leaf1.Transition("tick", "leaf2")
		leaf2 = sb.Atomic("leaf2")
		leaf2.Transition("tick", "leaf1")
		sb = sb.Up()
	}
	config, err := mb.Build()
	if err != nil {
		panic(err)
	}
	return config
}

// GenWideTransitions creates one main state with many outgoing "tick"
// transitions, only the first of which (document order) ever fires; the
// selector's first-match-wins rule makes every later transition dead
// weight exercising candidate search, not the live path.
func GenWideTransitions(numTransitions int) primitives.MachineConfig {
	if numTransitions < 1 {
		numTransitions = 1
	}
	config := primitives.MachineConfig{
		ID:      fmt.Sprintf("wide_%d", numTransitions),
		Initial: "main",
		States:  make(map[string]*primitives.StateConfig, numTransitions+1),
	}
	main := primitives.NewStateConfig("main", primitives.Atomic)
	for i := 0; i < numTransitions; i++ {
		target := fmt.Sprintf("target%d", i)
		idx := i
		trans := primitives.TransitionConfig{
			Event:  "tick",
			Target: target,
			Guard: func(ctx any, e primitives.Event) bool {
				return idx == 0 // only the first transition ever fires
			},
		}
		main.AddTransition("tick", trans)
		tsc := primitives.NewStateConfig(target, primitives.Atomic)
		tsc.AddTransition("tick", primitives.TransitionConfig{Target: "main"})
		config.States[target] = tsc
	}
	config.States["main"] = main
	return config
}

// SnapshotFromService captures a core.Snapshot of a Service's current State.
func SnapshotFromService(machineID string, svc *core.Service) core.Snapshot {
	st := svc.Current()
	return core.Snapshot{
		MachineID:   machineID,
		Active:      st.Configuration.Active,
		History:     st.Configuration.History,
		ContextData: st.Context,
		Timestamp:   time.Now(),
	}
}

// GenSnapshotYAML generates YAML bytes for a snapshot of given size.
func GenSnapshotYAML(numStates int, hierarchical bool) []byte {
	var config primitives.MachineConfig
	if hierarchical {
		config = GenDeepConfig(5)
	} else {
		config = GenFlatConfig(numStates)
	}
	def, err := core.Load(&config)
	if err != nil {
		panic(err)
	}
	svc := core.NewService(def)
	if err := svc.Start(nil); err != nil {
		panic(err)
	}
	defer svc.Stop()
	// Send one event to mutate state
	e := primitives.NewEvent("tick", nil)
	svc.Send(e)
	time.Sleep(10 * time.Millisecond)
	snap := SnapshotFromService(config.ID, svc)
	data, err := yaml.Marshal(snap)
	if err != nil {
		panic(err)
	}
	return data
}
