package core_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/comalice/statechartx/internal/core"
	"github.com/comalice/statechartx/internal/primitives"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingActionRunner counts how many times each action ref fires, so a
// test can assert on dispatch without a real side-effecting adapter.
type recordingActionRunner struct {
	mu    sync.Mutex
	calls map[string]int
}

func newRecordingActionRunner() *recordingActionRunner {
	return &recordingActionRunner{calls: make(map[string]int)}
}

func (r *recordingActionRunner) Run(ctx any, ref primitives.ActionRef, event primitives.Event) error {
	id, _ := ref.(string)
	r.mu.Lock()
	r.calls[id]++
	r.mu.Unlock()
	return nil
}

func (r *recordingActionRunner) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[id]
}

// recordingActivityRunner tracks start/stop calls by id.
type recordingActivityRunner struct {
	mu      sync.Mutex
	started []string
	stopped []string
}

func (r *recordingActivityRunner) Start(id string) error {
	r.mu.Lock()
	r.started = append(r.started, id)
	r.mu.Unlock()
	return nil
}

func (r *recordingActivityRunner) Stop(id string) error {
	r.mu.Lock()
	r.stopped = append(r.stopped, id)
	r.mu.Unlock()
	return nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not met before timeout")
	}
}

func TestService_StartSendStop(t *testing.T) {
	config := trafficLightConfig()
	require.NoError(t, config.Validate())
	def, err := core.Load(&config)
	require.NoError(t, err)

	svc := core.NewService(def)
	require.NoError(t, svc.Start(nil))
	defer svc.Stop()

	assert.True(t, svc.Current().Matches("red"))

	require.NoError(t, svc.Send(primitives.NewEvent("TIMER", nil)))
	waitFor(t, time.Second, func() bool { return svc.Current().Matches("green") })

	require.NoError(t, svc.Stop())
	assert.Error(t, svc.Send(primitives.NewEvent("TIMER", nil)), "sending after Stop must fail")
}

func TestService_OnTransitionCallback(t *testing.T) {
	config := trafficLightConfig()
	require.NoError(t, config.Validate())
	def, err := core.Load(&config)
	require.NoError(t, err)

	var seen int64
	svc := core.NewService(def, core.OnTransition(func(prev, next *core.State, event primitives.Event) {
		atomic.AddInt64(&seen, 1)
	}))
	require.NoError(t, svc.Start(nil))
	defer svc.Stop()

	require.NoError(t, svc.Send(primitives.NewEvent("TIMER", nil)))
	waitFor(t, time.Second, func() bool { return atomic.LoadInt64(&seen) == 1 })
}

func TestService_PureActionDispatch(t *testing.T) {
	idle := primitives.NewStateConfig("idle", primitives.Atomic)
	idle.AddTransition("GO", primitives.TransitionConfig{
		Target:  "done",
		Actions: []primitives.ActionRef{"logGo"},
	})
	config := primitives.MachineConfig{
		ID:      "pureaction",
		Initial: "idle",
		States: map[string]*primitives.StateConfig{
			"idle": idle,
			"done": primitives.NewStateConfig("done", primitives.Atomic),
		},
	}
	require.NoError(t, config.Validate())
	def, err := core.Load(&config)
	require.NoError(t, err)

	runner := newRecordingActionRunner()
	svc := core.NewService(def, core.WithActionRunner(runner))
	require.NoError(t, svc.Start(nil))
	defer svc.Stop()

	require.NoError(t, svc.Send(primitives.NewEvent("GO", nil)))
	waitFor(t, time.Second, func() bool { return runner.count("logGo") == 1 })
}

func TestService_DelayedSendFiresOnSimulatedClock(t *testing.T) {
	mb := primitives.NewMachineBuilder("timeout", "waiting")
	mb.Atomic("waiting").After(500, "expired")
	mb.Atomic("expired")
	config, err := mb.Build()
	require.NoError(t, err)

	def, err := core.Load(&config)
	require.NoError(t, err)

	clock := core.NewSimulatedClock(time.Unix(0, 0))
	svc := core.NewService(def, core.WithClock(clock))
	require.NoError(t, svc.Start(nil))
	defer svc.Stop()

	assert.True(t, svc.Current().Matches("waiting"))

	clock.Advance(200 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.True(t, svc.Current().Matches("waiting"), "timer not yet due")

	clock.Advance(400 * time.Millisecond)
	waitFor(t, time.Second, func() bool { return svc.Current().Matches("expired") })
}

func TestService_ActivityStartStop(t *testing.T) {
	active := primitives.NewStateConfig("active", primitives.Atomic)
	active.Activities = []string{"polling"}
	active.AddTransition("STOP", primitives.TransitionConfig{Target: "idle"})
	config := primitives.MachineConfig{
		ID:      "activity",
		Initial: "active",
		States: map[string]*primitives.StateConfig{
			"active": active,
			"idle":   primitives.NewStateConfig("idle", primitives.Atomic),
		},
	}
	require.NoError(t, config.Validate())
	def, err := core.Load(&config)
	require.NoError(t, err)

	runner := &recordingActivityRunner{}
	svc := core.NewService(def, core.WithActivityRunner(runner))
	require.NoError(t, svc.Start(nil))
	defer svc.Stop()

	waitFor(t, time.Second, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return len(runner.started) == 1
	})

	require.NoError(t, svc.Send(primitives.NewEvent("STOP", nil)))
	waitFor(t, time.Second, func() bool {
		runner.mu.Lock()
		defer runner.mu.Unlock()
		return len(runner.stopped) == 1
	})

	runner.mu.Lock()
	assert.Equal(t, []string{"polling"}, runner.started)
	assert.Equal(t, []string{"polling"}, runner.stopped)
	runner.mu.Unlock()
}

func TestService_Restore(t *testing.T) {
	config := trafficLightConfig()
	require.NoError(t, config.Validate())
	def, err := core.Load(&config)
	require.NoError(t, err)

	snapshot := core.Snapshot{
		MachineID: def.ID(),
		Active:    []string{"yellow"},
		Timestamp: time.Now(),
	}

	svc := core.NewService(def)
	require.NoError(t, svc.Restore(snapshot))
	assert.True(t, svc.Current().Matches("yellow"))
	assert.False(t, svc.Current().Matches("red"))
}

func TestService_RestoreRejectsMismatchedMachine(t *testing.T) {
	config := trafficLightConfig()
	require.NoError(t, config.Validate())
	def, err := core.Load(&config)
	require.NoError(t, err)

	svc := core.NewService(def)
	err = svc.Restore(core.Snapshot{MachineID: "not-traffic"})
	assert.Error(t, err)
}
