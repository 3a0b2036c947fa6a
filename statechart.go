// Package statechartx implements a Harel statechart engine: hierarchical
// and parallel (orthogonal) states, shallow/deep history, guarded
// transitions, entry/exit/transition actions, delayed (after) events, and
// long-running activities.
//
// The transition function itself lives in internal/core and is pure:
// given a Definition (the immutable, normalized state tree produced by
// Load) and a Configuration, computing the next Configuration for an
// Event never mutates either input and is safe to call concurrently from
// any number of goroutines. Service wraps that pure core in the only
// stateful, single-goroutine-owned piece of the engine: an actor that
// owns the event queue, timers, and the side-effecting adapters
// (persistence, publishing, registries) a running machine needs.
//
// This package re-exports the pieces of internal/core and
// internal/primitives an application actually needs to construct and run
// a machine, so callers never import internal/... directly.
package statechartx

import (
	"github.com/comalice/statechartx/internal/core"
	"github.com/comalice/statechartx/internal/primitives"
)

type (
	// Definition is a loaded, read-only statechart: the normalized node
	// tree plus everything a transition needs to resolve targets,
	// evaluate guards, and schedule actions.
	Definition = core.Definition

	// State is one immutable snapshot of a running machine: its active
	// Configuration, its Context, and the Actions a macrostep produced.
	State = core.State

	// Configuration is the set of currently active node ids plus
	// recorded history, addressed by absolute id.
	Configuration = core.Configuration

	// Service is the cooperative, single-goroutine interpreter that
	// drives a Definition against a live event queue.
	Service = core.Service

	// ServiceOption configures a Service at construction time.
	ServiceOption = core.ServiceOption

	// Snapshot is a serializable point-in-time capture of a Service's
	// State, suitable for persistence and later Restore.
	Snapshot = core.Snapshot

	// TransitionMetadata describes one completed transition for an
	// EventPublisher subscriber.
	TransitionMetadata = core.TransitionMetadata

	// ActionRunner executes the opaque action/invoke references a
	// Definition's actions carry (string ids, or funcs the loader could
	// not resolve to a built-in action shape).
	ActionRunner = core.ActionRunner

	// GuardEvaluator resolves a GuardRef against a Context and Event.
	GuardEvaluator = core.GuardEvaluator

	// ActivityRunner starts and stops a named long-running activity.
	ActivityRunner = core.ActivityRunner

	// EventSource feeds externally produced events into a Service.
	EventSource = core.EventSource

	// Persister saves and loads Snapshots.
	Persister = core.Persister

	// EventPublisher broadcasts completed transitions.
	EventPublisher = core.EventPublisher

	// Registry manages versioned snapshots across multiple machines.
	Registry = core.Registry

	// Visualizer renders a Definition to an external format.
	Visualizer = core.Visualizer

	// Clock abstracts wall-clock scheduling for delayed sends.
	Clock = core.Clock

	// Logger is the diagnostic sink the interpreter logs through.
	Logger = core.Logger

	// NodeInfo is the exported, read-only view of one node in a
	// Definition's tree, for Visualizer implementations living outside
	// this module.
	NodeInfo = core.NodeInfo

	// MachineConfig is the wire/declarative shape Load normalizes into
	// a Definition: states, transitions, and machine-level metadata as
	// parsed from YAML/JSON or built with MachineBuilder.
	MachineConfig = primitives.MachineConfig

	// Event is one occurrence fed into a running machine, or produced
	// internally by an after/done/invoke action.
	Event = primitives.Event

	// MachineBuilder provides a fluent, string-keyed API for
	// constructing a MachineConfig without hand-writing the struct
	// literal tree.
	MachineBuilder = primitives.MachineBuilder
)

var (
	// Load normalizes a MachineConfig into a read-only Definition.
	Load = core.Load

	// NewService builds a Service around an already-Loaded Definition.
	NewService = core.NewService

	// NewMachineBuilder starts a fluent MachineConfig builder.
	NewMachineBuilder = primitives.NewMachineBuilder

	// NewEvent constructs an Event with the given type and payload.
	NewEvent = primitives.NewEvent

	// WithActionRunner configures a Service's ActionRunner.
	WithActionRunner = core.WithActionRunner

	// WithGuardEvaluator configures a Service's GuardEvaluator.
	WithGuardEvaluator = core.WithGuardEvaluator

	// WithActivityRunner configures a Service's ActivityRunner.
	WithActivityRunner = core.WithActivityRunner

	// WithEventSource attaches an external EventSource to a Service.
	WithEventSource = core.WithEventSource

	// WithPersister attaches a Persister to a Service.
	WithPersister = core.WithPersister

	// WithPublisher attaches an EventPublisher to a Service.
	WithPublisher = core.WithPublisher

	// WithRegistry attaches a Registry to a Service.
	WithRegistry = core.WithRegistry

	// WithClock overrides a Service's Clock (real by default).
	WithClock = core.WithClock

	// WithLogger overrides a Service's Logger (log.Default by default).
	WithLogger = core.WithLogger

	// WithQueueSize sets a Service's event queue capacity.
	WithQueueSize = core.WithQueueSize

	// OnTransition registers a post-macrostep callback on a Service.
	OnTransition = core.OnTransition
)
