package core

import (
	"context"
	"time"

	"github.com/comalice/statechartx/internal/primitives"
)

// ActionRunner resolves and executes "pure"/opaque actions the stepper
// couldn't type-switch into a concrete Action (a string ID or a plain
// func(ctx, Event), per the teacher's original action-dispatch shape).
type ActionRunner interface {
	Run(ctx any, ref primitives.ActionRef, event primitives.Event) error
}

// GuardEvaluator resolves a GuardRef against the current context/event.
type GuardEvaluator interface {
	Eval(ctx any, guard primitives.GuardRef, event primitives.Event) (bool, error)
}

// EventSource feeds external events into a running Service.
type EventSource interface {
	Events() <-chan primitives.Event
}

// Snapshot is the serializable snapshot of a Service's runtime state: the
// normalized Definition is not re-serialized (it is loaded once from the
// original MachineConfig), only the Configuration + Context that vary
// over time.
type Snapshot struct {
	MachineID   string            `json:"machineID" yaml:"machineID"`
	Version     string            `json:"version" yaml:"version"`
	Active      []string          `json:"active" yaml:"active"`
	History     primitives.History `json:"history,omitempty" yaml:"history,omitempty"`
	ContextData any               `json:"context" yaml:"context"`
	Timestamp   time.Time         `json:"timestamp" yaml:"timestamp"`
}

// Persister stores/loads Snapshots for a machine by id.
type Persister interface {
	Save(ctx context.Context, snapshot Snapshot) error
	Load(ctx context.Context, machineID string) (Snapshot, error)
}

// TransitionMetadata describes one completed macrostep for an EventPublisher.
type TransitionMetadata struct {
	MachineID string
	EventType string
	FromValue primitives.Value
	ToValue   primitives.Value
	Timestamp time.Time
}

// EventPublisher broadcasts completed transitions to external subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, metadata TransitionMetadata) error
	Close() error
}

// Visualizer renders a Definition (optionally highlighting an active
// Configuration) to an external format.
type Visualizer interface {
	ExportDOT(def *Definition, active []string) string
	ExportJSON(def *Definition) ([]byte, error)
}

// Registry manages versioned snapshots across multiple running machines.
type Registry interface {
	Register(ctx context.Context, machineID string, snapshot Snapshot) error
	Latest(ctx context.Context, machineID string) (Snapshot, error)
	Version(ctx context.Context, machineID, version string) (Snapshot, error)
	ListVersions(ctx context.Context, machineID string) ([]string, error)
	ListMachines(ctx context.Context) ([]string, error)
}

// ActivityRunner starts and stops a named, long-running activity. Start is
// called once when an activity-bearing node is entered and not already
// running; Stop once when it is exited. The Service never calls both
// concurrently for the same id.
type ActivityRunner interface {
	Start(id string) error
	Stop(id string) error
}

// Logger is the minimal diagnostic sink the interpreter and the
// extensibility adapters log through. *log.Logger satisfies it directly.
type Logger interface {
	Printf(format string, args ...any)
}
