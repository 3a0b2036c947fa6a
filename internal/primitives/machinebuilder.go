// Package primitives includes builder helpers for MachineConfig.
package primitives

// MachineBuilder builds hierarchical MachineConfig fluently.
type MachineBuilder struct {
	config *MachineConfig
	states map[string]*StateConfig
	stack  []*StateConfig // For nesting Up()
}

// NewMachineBuilder creates a new MachineBuilder.
func NewMachineBuilder(id, initial string) *MachineBuilder {
	return &MachineBuilder{
		config: &MachineConfig{ID: id, Initial: initial},
		states: make(map[string]*StateConfig),
	}
}

// Compound starts a compound state (push to stack).
func (b *MachineBuilder) Compound(id string) *StateBuilder {
	s := NewStateConfig(id, Compound)
	b.states[id] = s
	b.stack = append(b.stack, s)
	return &StateBuilder{state: s, mb: b}
}

// Parallel starts a parallel region.
func (b *MachineBuilder) Parallel(id string) *StateBuilder {
	s := NewStateConfig(id, Parallel)
	b.states[id] = s
	b.stack = append(b.stack, s)
	return &StateBuilder{state: s, mb: b}
}

// Atomic starts an atomic state.
func (b *MachineBuilder) Atomic(id string) *StateBuilder {
	s := NewStateConfig(id, Atomic)
	b.states[id] = s
	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].AddChild(s)
	}
	return &StateBuilder{state: s, mb: b}
}

// History starts a history state (shallow/deep).
func (b *MachineBuilder) History(id string, shallow bool) *StateBuilder {
	typ := ShallowHistory
	if !shallow {
		typ = DeepHistory
	}
	s := NewStateConfig(id, typ)
	b.states[id] = s
	if len(b.stack) > 0 {
		b.stack[len(b.stack)-1].AddChild(s)
	}
	return &StateBuilder{state: s, mb: b}
}

// State sugar for Atomic.
func (b *MachineBuilder) State(id string) *StateBuilder {
	return b.Atomic(id)
}

// StateBuilder for fluent transitions/nesting.
type StateBuilder struct {
	state *StateConfig
	mb    *MachineBuilder
}

// Transition adds transition.
func (sb *StateBuilder) Transition(event, target string, opts ...TransitionConfig) *StateBuilder {
	sb.state.Transition(event, target, opts...)
	return sb
}

// TransitionTo adds a transition that targets multiple parallel regions at once.
func (sb *StateBuilder) TransitionTo(event string, targets []string, opts ...TransitionConfig) *StateBuilder {
	trans := TransitionConfig{Targets: targets}
	if len(opts) > 0 {
		trans = opts[0]
		if len(trans.Targets) == 0 {
			trans.Targets = targets
		}
	}
	sb.state.AddTransition(event, trans)
	return sb
}

// Always adds an eventless (always/NULL) transition, evaluated before any event is processed.
func (sb *StateBuilder) Always(target string, opts ...TransitionConfig) *StateBuilder {
	trans := TransitionConfig{Target: target}
	if len(opts) > 0 {
		trans = opts[0]
		if trans.Target == "" && len(trans.Targets) == 0 {
			trans.Target = target
		}
	}
	sb.state.Always = append(sb.state.Always, trans)
	return sb
}

// After adds a delayed `after: {N: target}` timer to the current state.
func (sb *StateBuilder) After(delayMs int64, target string) *StateBuilder {
	sb.state.WithAfter(delayMs, target)
	return sb
}

// OnDone sets the transition fired when this (compound/parallel) state reaches completion.
func (sb *StateBuilder) OnDone(target string) *StateBuilder {
	sb.state.WithOnDone(target)
	return sb
}

// Compound nests compound child.
func (sb *StateBuilder) Compound(id string) *StateBuilder {
	child := sb.state.State(id, Compound)
	sb.mb.states[child.ID] = child
	sb.mb.stack = append(sb.mb.stack, child)
	return &StateBuilder{state: child, mb: sb.mb}
}

// Parallel nests parallel child.
func (sb *StateBuilder) Parallel(id string) *StateBuilder {
	child := sb.state.State(id, Parallel)
	sb.mb.states[child.ID] = child
	sb.mb.stack = append(sb.mb.stack, child)
	return &StateBuilder{state: child, mb: sb.mb}
}

// Atomic/State nests atomic child.
func (sb *StateBuilder) Atomic(id string) *StateBuilder {
	child := sb.state.State(id)
	sb.mb.states[child.ID] = child
	return &StateBuilder{state: child, mb: sb.mb}
}

// History nests history child.
func (sb *StateBuilder) History(id string, shallow bool) *StateBuilder {
	typ := ShallowHistory
	if !shallow {
		typ = DeepHistory
	}
	child := sb.state.State(id, typ)
	sb.mb.states[child.ID] = child
	return &StateBuilder{state: child, mb: sb.mb}
}

// Up pops stack to parent.
func (sb *StateBuilder) Up() *StateBuilder {
	if len(sb.mb.stack) > 1 {
		sb.mb.stack = sb.mb.stack[:len(sb.mb.stack)-1]
		parent := sb.mb.stack[len(sb.mb.stack)-1]
		return &StateBuilder{state: parent, mb: sb.mb}
	}
	return sb
}

// WithInitial sets initial for current (compound/parallel).
func (sb *StateBuilder) WithInitial(initial string) *StateBuilder {
	sb.state.WithInitial(initial)
	return sb
}

// Build finalizes the config and validates it, returning an error instead
// of panicking so callers (e.g. a YAML-driven loader) can surface a
// well-formed invalid_definition error rather than crash.
func (b *MachineBuilder) Build() (MachineConfig, error) {
	b.config.States = b.states
	if err := b.config.Validate(); err != nil {
		return MachineConfig{}, err
	}
	return *b.config, nil
}

// MustBuild finalizes the config and panics on validation failure. Useful
// in tests and examples where the configuration is known valid.
func (b *MachineBuilder) MustBuild() MachineConfig {
	cfg, err := b.Build()
	if err != nil {
		panic(err)
	}
	return cfg
}
