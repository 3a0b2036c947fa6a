// Command demo drives a small traffic-light statechart end to end: load a
// MachineConfig, start a Service against it, let a TimerEventSource push a
// TIMER event every two seconds, and print the active configuration and a
// DOT rendering after each completed cycle.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/comalice/statechartx/internal/core"
	"github.com/comalice/statechartx/internal/extensibility"
	"github.com/comalice/statechartx/internal/primitives"
	"github.com/comalice/statechartx/internal/production"
)

func main() {
	mb := primitives.NewMachineBuilder("traffic-light", "traffic")
	traffic := mb.Compound("traffic").WithInitial("red")
	traffic.Atomic("red").Transition("TIMER", "green")
	traffic.Atomic("green").Transition("TIMER", "yellow")
	traffic.Atomic("yellow").Transition("TIMER", "red")

	config, err := mb.Build()
	if err != nil {
		panic(err)
	}

	def, err := core.Load(&config)
	if err != nil {
		panic(err)
	}

	persister, err := production.NewJSONPersister("/tmp/statechartx-demo")
	if err != nil {
		panic(err)
	}

	publishCh := make(chan core.TransitionMetadata, 100)
	publisher := production.NewChannelPublisher(publishCh)
	visualizer := &production.DefaultVisualizer{}

	// TimerEventSource feeds TIMER events on its own ticker; Service.Start
	// forwards everything it emits into the interpreter's own Send path.
	source := extensibility.NewTimerEventSource("TIMER", nil, 2*time.Second)
	defer source.Stop()

	var cycles int64
	done := make(chan struct{})

	svc := core.NewService(def,
		core.WithPersister(persister),
		core.WithPublisher(publisher),
		core.WithEventSource(source),
		core.OnTransition(func(prev, next *core.State, event primitives.Event) {
			n := atomic.AddInt64(&cycles, 1)
			fmt.Printf("\n--- Cycle %d ---\n", n)
			fmt.Println("Current states:", next.Configuration.Active)
			fmt.Println("DOT:\n" + visualizer.ExportDOT(def, next.Configuration.Active))
			select {
			case meta := <-publishCh:
				fmt.Printf("Published: %s -> %v (%s)\n", meta.EventType, meta.ToValue, meta.MachineID)
			default:
			}
			if n >= 12 {
				fmt.Println("Demo complete after 12 cycles.")
				close(done)
			}
		}),
	)

	if err := svc.Start(map[string]any{}); err != nil {
		panic(err)
	}
	defer svc.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
	case <-sig:
		fmt.Println("\nShutting down gracefully...")
	}
}
