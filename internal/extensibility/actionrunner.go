package extensibility

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/comalice/statechartx/internal/core"
	"github.com/comalice/statechartx/internal/primitives"
)

// ActionFunc is the shape a registered action takes: it receives the
// context and the event and returns a context value and an error.
// ActionRegistry.Run reports only the error; the returned context is
// discarded and does not change the machine's context.
type ActionFunc func(ctx any, event primitives.Event) (any, error)

// ActionRegistry resolves string-identified actions (the ActionPure/
// ActionInvoke fallback the stepper leaves for an ActionRunner) by name,
// the same "register by ID, dispatch by identity" shape the teacher's
// DefaultActionRunner used for its string case.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]ActionFunc
}

// NewActionRegistry creates an empty ActionRegistry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]ActionFunc)}
}

// Register associates name with fn, overwriting any previous registration.
func (r *ActionRegistry) Register(name string, fn ActionFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = fn
}

// Run executes the given action reference: a bare func(ctx, Event) runs
// directly, a string ID is looked up in the registry, anything else is an
// error.
func (r *ActionRegistry) Run(ctx any, ref primitives.ActionRef, event primitives.Event) error {
	switch a := ref.(type) {
	case nil:
		return nil
	case func(any, primitives.Event):
		a(ctx, event)
		return nil
	case string:
		r.mu.RLock()
		fn, ok := r.actions[a]
		r.mu.RUnlock()
		if !ok {
			return fmt.Errorf("action ID %q not registered", a)
		}
		_, err := fn(ctx, event)
		return err
	default:
		return fmt.Errorf("unknown action type: %T", ref)
	}
}

// LoggingActionRunner wraps an ActionRunner and logs around execution,
// the way the teacher's LoggingActionRunner wrapped DefaultActionRunner.
type LoggingActionRunner struct {
	inner  core.ActionRunner
	logger core.Logger
}

// NewLoggingActionRunner creates a new LoggingActionRunner wrapping the
// given inner runner. A nil logger defaults to log.Default().
func NewLoggingActionRunner(inner core.ActionRunner, logger core.Logger) *LoggingActionRunner {
	if logger == nil {
		logger = log.Default()
	}
	return &LoggingActionRunner{inner: inner, logger: logger}
}

// Run logs before and after delegating to the inner runner.
func (r *LoggingActionRunner) Run(ctx any, ref primitives.ActionRef, event primitives.Event) error {
	r.logger.Printf("executing action %v for event %q", ref, event.Type)
	start := time.Now()
	err := r.inner.Run(ctx, ref, event)
	r.logger.Printf("action %v completed in %v: %v", ref, time.Since(start), err)
	return err
}
