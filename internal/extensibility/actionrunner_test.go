package extensibility

import (
	"testing"

	"github.com/comalice/statechartx/internal/primitives"
)

func TestActionRegistry_Run_Func(t *testing.T) {
	ctx := map[string]any{}
	event := primitives.NewEvent("test", nil)
	called := false
	action := func(c any, e primitives.Event) {
		called = true
	}
	r := NewActionRegistry()
	if err := r.Run(ctx, action, event); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("action func not called")
	}
}

func TestActionRegistry_Run_UnregisteredString(t *testing.T) {
	r := NewActionRegistry()
	err := r.Run(map[string]any{}, "unknown", primitives.NewEvent("test", nil))
	if err == nil {
		t.Error("expected error for unregistered action ID")
	}
}

func TestActionRegistry_Run_RegisteredString(t *testing.T) {
	r := NewActionRegistry()
	called := false
	r.Register("greet", func(ctx any, event primitives.Event) (any, error) {
		called = true
		return ctx, nil
	})
	if err := r.Run(map[string]any{}, "greet", primitives.NewEvent("test", nil)); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("registered action not invoked")
	}
}

func TestActionRegistry_Run_Nil(t *testing.T) {
	r := NewActionRegistry()
	if err := r.Run(map[string]any{}, nil, primitives.NewEvent("test", nil)); err != nil {
		t.Errorf("unexpected error for nil: %v", err)
	}
}

func TestLoggingActionRunner(t *testing.T) {
	ctx := map[string]any{}
	event := primitives.NewEvent("test", nil)
	called := false
	action := func(c any, e primitives.Event) {
		called = true
	}
	inner := NewActionRegistry()
	r := NewLoggingActionRunner(inner, nil)
	if err := r.Run(ctx, action, event); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !called {
		t.Error("inner action not called")
	}
}
