package primitives

import (
	"strings"
	"testing"
)

func TestTransitionConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		tc          TransitionConfig
		wantErr     bool
		errContains string
	}{
		{
			name:    "valid",
			tc:      TransitionConfig{Event: "click", Target: "next"},
			wantErr: false,
		},
		{
			name:        "missing event",
			tc:          TransitionConfig{Target: "next"},
			wantErr:     true,
			errContains: "event is required",
		},
		{
			name:    "no target is internal, not invalid",
			tc:      TransitionConfig{Event: "click"},
			wantErr: false,
		},
		{
			name:        "negative priority",
			tc:          TransitionConfig{Event: "e", Target: "t", Priority: -1},
			wantErr:     true,
			errContains: "non-negative",
		},
		{
			name:        "empty target segment",
			tc:          TransitionConfig{Event: "e", Target: "parent..child"},
			wantErr:     true,
			errContains: "empty segment",
		},
		{
			name:        "invalid target char",
			tc:          TransitionConfig{Event: "e", Target: "invalid@state"},
			wantErr:     true,
			errContains: "invalid character",
		},
		{
			name:    "absolute id target",
			tc:      TransitionConfig{Event: "e", Target: "#node_id"},
			wantErr: false,
		},
		{
			name:    "multiple targets",
			tc:      TransitionConfig{Event: "e", Targets: []string{"a.b", "a.c"}},
			wantErr: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tc.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error got nil")
				}
				if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf(`error "%v" does not contain "%s"`, err, tt.errContains)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}
		})
	}
}

func TestTransitionConfigIsInternal(t *testing.T) {
	if !(&TransitionConfig{Event: "e"}).IsInternal() {
		t.Error("targetless transition should be internal")
	}
	if (&TransitionConfig{Event: "e", Target: "t"}).IsInternal() {
		t.Error("targeted transition should be external")
	}
	if !(&TransitionConfig{Event: "e", Target: "t", Internal: true}).IsInternal() {
		t.Error("internal:true with a target should still be internal")
	}
}

func TestTransitionConfigAllTargets(t *testing.T) {
	if got := (&TransitionConfig{Target: "a"}).AllTargets(); len(got) != 1 || got[0] != "a" {
		t.Fatalf("AllTargets single = %v", got)
	}
	if got := (&TransitionConfig{Targets: []string{"a", "b"}}).AllTargets(); len(got) != 2 {
		t.Fatalf("AllTargets multi = %v", got)
	}
	if got := (&TransitionConfig{}).AllTargets(); got != nil {
		t.Fatalf("AllTargets empty = %v, want nil", got)
	}
}
