package core_test

import (
	"errors"
	"testing"

	"github.com/comalice/statechartx/internal/core"
	"github.com/comalice/statechartx/internal/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition_Flat(t *testing.T) {
	config := trafficLightConfig()
	require.NoError(t, config.Validate())
	def, err := core.Load(&config)
	require.NoError(t, err)

	st, err := def.InitialState(nil, nil)
	require.NoError(t, err)
	assert.True(t, st.Matches("red"))

	st, err = def.Transition(st, primitives.NewEvent("TIMER", nil), nil)
	require.NoError(t, err)
	assert.True(t, st.Matches("green"))
	assert.True(t, st.Changed)

	st, err = def.Transition(st, primitives.NewEvent("UNKNOWN", nil), nil)
	require.NoError(t, err)
	assert.True(t, st.Matches("green"))
	assert.False(t, st.Changed)
}

func TestTransition_Parallel(t *testing.T) {
	mb := primitives.NewMachineBuilder("ui", "regions")
	regions := mb.Parallel("regions")
	left := regions.Compound("left").WithInitial("a")
	left.Atomic("a").Transition("LCLICK", "b")
	left.Atomic("b").Transition("LCLICK", "a")
	right := regions.Compound("right").WithInitial("a")
	right.Atomic("a").Transition("RCLICK", "b")
	right.Atomic("b").Transition("RCLICK", "a")
	config, err := mb.Build()
	require.NoError(t, err)

	def, err := core.Load(&config)
	require.NoError(t, err)

	st, err := def.InitialState(nil, nil)
	require.NoError(t, err)
	assert.True(t, st.Matches("regions.left.a"))
	assert.True(t, st.Matches("regions.right.a"))

	st, err = def.Transition(st, primitives.NewEvent("LCLICK", nil), nil)
	require.NoError(t, err)
	assert.True(t, st.Matches("regions.left.b"), "left region should have switched")
	assert.True(t, st.Matches("regions.right.a"), "right region must stay untouched")
}

func TestTransition_ShallowHistory(t *testing.T) {
	mb := primitives.NewMachineBuilder("history", "session")
	session := mb.Compound("session").WithInitial("sub")
	sub := session.Compound("sub").WithInitial("a")
	sub.Atomic("a").Transition("SWITCH", "b")
	sub.History("h", true)
	sub.Atomic("b").Transition("SAVE", "h")
	session.Atomic("away").Transition("LEAVE", "sub")
	config, err := mb.Build()
	require.NoError(t, err)

	def, err := core.Load(&config)
	require.NoError(t, err)

	st, err := def.InitialState(nil, nil)
	require.NoError(t, err)
	assert.True(t, st.Matches("session.sub.a"))

	st, err = def.Transition(st, primitives.NewEvent("SWITCH", nil), nil)
	require.NoError(t, err)
	assert.True(t, st.Matches("session.sub.b"))

	st, err = def.Transition(st, primitives.NewEvent("SAVE", nil), nil)
	require.NoError(t, err)
	assert.True(t, st.Matches("session.sub.a"), "sub is not exited by b -> h, so nothing is recorded and h falls back to sub's initial child")
}

func TestTransition_GuardBlocksCandidate(t *testing.T) {
	idle := primitives.NewStateConfig("idle", primitives.Atomic)
	idle.AddTransition("GO", primitives.TransitionConfig{
		Target: "blocked",
		Guard: func(ctx any, e primitives.Event) bool {
			return false
		},
	})
	idle.AddTransition("GO", primitives.TransitionConfig{Target: "allowed"})
	idle.EventOrder = []string{"GO"}
	config := primitives.MachineConfig{
		ID:      "guarded",
		Initial: "idle",
		States: map[string]*primitives.StateConfig{
			"idle":    idle,
			"blocked": {ID: "blocked", Type: primitives.Atomic},
			"allowed": {ID: "allowed", Type: primitives.Atomic},
		},
	}
	require.NoError(t, config.Validate())
	def, err := core.Load(&config)
	require.NoError(t, err)

	st, err := def.InitialState(nil, nil)
	require.NoError(t, err)

	st, err = def.Transition(st, primitives.NewEvent("GO", nil), nil)
	require.NoError(t, err)
	assert.True(t, st.Matches("allowed"))
}

// erroringGuardEvaluator fails closed on a magic guard ref, the way an
// adapter wired to an unregistered guard ID would.
type erroringGuardEvaluator struct{}

func (erroringGuardEvaluator) Eval(ctx any, guard primitives.GuardRef, event primitives.Event) (bool, error) {
	if guard == "boom" {
		return false, errors.New("boom")
	}
	return true, nil
}

func guardFallthroughConfig(guard primitives.GuardRef) primitives.MachineConfig {
	idle := primitives.NewStateConfig("idle", primitives.Atomic)
	idle.AddTransition("GO", primitives.TransitionConfig{Target: "blocked", Guard: guard})
	idle.AddTransition("GO", primitives.TransitionConfig{Target: "allowed"})
	return primitives.MachineConfig{
		ID:      "guard_fallthrough",
		Initial: "idle",
		States: map[string]*primitives.StateConfig{
			"idle":    idle,
			"blocked": {ID: "blocked", Type: primitives.Atomic},
			"allowed": {ID: "allowed", Type: primitives.Atomic},
		},
	}
}

func TestTransition_GuardErrorFallsThroughToNextCandidate(t *testing.T) {
	config := guardFallthroughConfig("boom")
	require.NoError(t, config.Validate())
	def, err := core.Load(&config)
	require.NoError(t, err)

	st, err := def.InitialState(nil, nil)
	require.NoError(t, err)

	st, err = def.Transition(st, primitives.NewEvent("GO", nil), erroringGuardEvaluator{})
	require.NoError(t, err, "a guard that errors must not abort the step")
	assert.True(t, st.Matches("allowed"))
}

func TestTransition_GuardPanicFallsThroughToNextCandidate(t *testing.T) {
	config := guardFallthroughConfig(func(ctx any, e primitives.Event) bool {
		panic("guard blew up")
	})
	require.NoError(t, config.Validate())
	def, err := core.Load(&config)
	require.NoError(t, err)

	st, err := def.InitialState(nil, nil)
	require.NoError(t, err)

	st, err = def.Transition(st, primitives.NewEvent("GO", nil), nil)
	require.NoError(t, err, "a guard that panics must not crash the step")
	assert.True(t, st.Matches("allowed"))
}
