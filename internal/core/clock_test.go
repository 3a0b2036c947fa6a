package core_test

import (
	"sync"
	"testing"
	"time"

	"github.com/comalice/statechartx/internal/core"
	"github.com/stretchr/testify/assert"
)

func TestSimulatedClock_AdvanceFiresDueTimersInOrder(t *testing.T) {
	clock := core.NewSimulatedClock(time.Unix(0, 0))

	var mu sync.Mutex
	var fired []string
	record := func(label string) func() {
		return func() {
			mu.Lock()
			fired = append(fired, label)
			mu.Unlock()
		}
	}

	clock.AfterFunc(300*time.Millisecond, record("c"))
	clock.AfterFunc(100*time.Millisecond, record("a"))
	clock.AfterFunc(200*time.Millisecond, record("b"))

	clock.Advance(250 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a", "b"}, fired, "only timers due at or before the new time fire, in deadline order")
}

func TestSimulatedClock_AdvancePastEverythingFiresAll(t *testing.T) {
	clock := core.NewSimulatedClock(time.Unix(0, 0))

	var mu sync.Mutex
	var fired []string
	record := func(label string) func() {
		return func() {
			mu.Lock()
			fired = append(fired, label)
			mu.Unlock()
		}
	}

	clock.AfterFunc(50*time.Millisecond, record("a"))
	clock.AfterFunc(50*time.Millisecond, record("b"))

	clock.Advance(time.Second)

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"a", "b"}, fired)
}

func TestSimulatedClock_CancelPreventsFiring(t *testing.T) {
	clock := core.NewSimulatedClock(time.Unix(0, 0))

	fired := false
	cancel := clock.AfterFunc(100*time.Millisecond, func() { fired = true })
	cancel()

	clock.Advance(time.Second)
	assert.False(t, fired, "cancelled timer must not fire")
}

func TestSimulatedClock_NowAdvances(t *testing.T) {
	start := time.Unix(1000, 0)
	clock := core.NewSimulatedClock(start)
	assert.True(t, clock.Now().Equal(start))

	clock.Advance(5 * time.Second)
	assert.True(t, clock.Now().Equal(start.Add(5*time.Second)))
}

func TestRealClock_AfterFuncFiresAndCancels(t *testing.T) {
	clock := core.RealClock{}

	fired := make(chan struct{}, 1)
	clock.AfterFunc(10*time.Millisecond, func() { fired <- struct{}{} })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}

	fired2 := false
	cancel := clock.AfterFunc(50*time.Millisecond, func() { fired2 = true })
	cancel()
	time.Sleep(100 * time.Millisecond)
	assert.False(t, fired2, "cancelled RealClock timer must not fire")
}
