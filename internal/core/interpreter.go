package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/comalice/statechartx/internal/primitives"
)

// ServiceOption applies functional configuration to a Service, following
// the teacher's own options-over-constructor shape.
type ServiceOption func(*Service)

func WithActionRunner(r ActionRunner) ServiceOption {
	return func(s *Service) { s.actionRunner = r }
}

func WithGuardEvaluator(g GuardEvaluator) ServiceOption {
	return func(s *Service) { s.guardEval = g }
}

func WithActivityRunner(a ActivityRunner) ServiceOption {
	return func(s *Service) { s.activityRunner = a }
}

func WithEventSource(e EventSource) ServiceOption {
	return func(s *Service) { s.eventSource = e }
}

func WithPersister(p Persister) ServiceOption {
	return func(s *Service) { s.persister = p }
}

func WithPublisher(p EventPublisher) ServiceOption {
	return func(s *Service) { s.publisher = p }
}

func WithRegistry(r Registry) ServiceOption {
	return func(s *Service) { s.registry = r }
}

func WithClock(c Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

func WithQueueSize(n int) ServiceOption {
	return func(s *Service) { s.queueSize = n }
}

// OnTransition registers a callback invoked (from the interpreter's own
// goroutine, never concurrently) after each completed macrostep.
func OnTransition(fn func(prev, next *State, event primitives.Event)) ServiceOption {
	return func(s *Service) { s.onTransition = append(s.onTransition, fn) }
}

// Service is the cooperative, single-threaded interpreter that drives a
// Definition's pure Transition function against a live event queue. It
// owns every side effect the pure core only describes: running Actions,
// scheduling/cancelling delayed sends, starting/stopping activities, and
// publishing/persisting completed transitions. The current *State is
// guarded by mu, so Current may be read from any goroutine while the
// interpreter goroutine replaces it.
type Service struct {
	def *Definition

	mu      sync.RWMutex
	current *State

	actionRunner   ActionRunner
	guardEval      GuardEvaluator
	activityRunner ActivityRunner
	eventSource    EventSource
	persister      Persister
	publisher      EventPublisher
	registry       Registry
	clock          Clock
	logger         Logger
	onTransition   []func(prev, next *State, event primitives.Event)

	queueSize int
	events    chan primitives.Event
	done      chan struct{}
	stopOnce  sync.Once

	timersMu sync.Mutex
	timers   map[string]CancelFunc

	runningMu sync.Mutex
	running   map[string]bool
}

// NewService builds a Service around an already-Loaded Definition.
func NewService(def *Definition, opts ...ServiceOption) *Service {
	s := &Service{
		def:       def,
		queueSize: 1000,
		clock:     RealClock{},
		logger:    log.Default(),
		done:      make(chan struct{}),
		timers:    make(map[string]CancelFunc),
		running:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.events = make(chan primitives.Event, s.queueSize)
	return s
}

// Start computes the initial State, runs its entry schedule, and launches
// the interpreter goroutine. Idempotent only in the sense that calling it
// twice on the same Service starts two readers of the same channel, which
// callers must not do; a fresh Service should be created per run.
func (s *Service) Start(ctx any) error {
	guard := s.guardEvalAdapter()
	initial, err := s.def.InitialState(ctx, guard)
	if err != nil {
		return err
	}
	s.setCurrent(initial)
	s.runSchedule(initial.Actions, primitives.Event{Type: primitives.InitEventType})
	s.publishTransition(nil, initial, primitives.Event{Type: primitives.InitEventType})

	go s.loop()
	if s.eventSource != nil {
		go func() {
			for ev := range s.eventSource.Events() {
				_ = s.Send(ev)
			}
		}()
	}
	return nil
}

func (s *Service) loop() {
	for {
		select {
		case ev := <-s.events:
			s.step(ev)
		case <-s.done:
			return
		}
	}
}

func (s *Service) step(ev primitives.Event) {
	prev := s.Current()
	guard := s.guardEvalAdapter()
	next, err := s.def.Transition(prev, ev, guard)
	if err != nil {
		s.logger.Printf("statechartx: transition error for event %q: %v", ev.Type, err)
		return
	}
	s.setCurrent(next)
	s.runSchedule(next.Actions, ev)
	s.publishTransition(prev, next, ev)
	for _, fn := range s.onTransition {
		fn(prev, next, ev)
	}
}

// runSchedule executes every Action a macrostep produced, in order:
// raises are fed straight back into the event queue, sends are scheduled
// on the Clock (recording a CancelFunc so a later Cancel can stop them),
// activities delegate to the ActivityRunner, and anything left (Pure,
// Invoke) goes to the ActionRunner by identity.
func (s *Service) runSchedule(acts []Action, event primitives.Event) {
	for _, a := range acts {
		switch a.Kind {
		case ActionRaise:
			_ = s.Send(primitives.NewEvent(a.EventType, a.EventData))
		case ActionSend:
			s.scheduleSend(a, event)
		case ActionCancel:
			s.cancelSend(a.CancelID)
		case ActionLog:
			s.logger.Printf("statechartx: %s = %v", a.Label, a.Value)
		case ActionStart:
			s.startActivity(a.ActivityID)
		case ActionStop:
			s.stopActivity(a.ActivityID)
		case ActionPure, ActionInvoke:
			if s.actionRunner != nil {
				if err := s.actionRunner.Run(s.Current().Context, a.Ref, event); err != nil {
					s.logger.Printf("statechartx: action error: %v", err)
				}
			}
		}
	}
}

func (s *Service) scheduleSend(a Action, event primitives.Event) {
	ev := primitives.NewEvent(a.EventType, a.EventData)
	if a.DelayMs <= 0 {
		_ = s.Send(ev)
		return
	}
	cancel := s.clock.AfterFunc(time.Duration(a.DelayMs)*time.Millisecond, func() {
		s.timersMu.Lock()
		delete(s.timers, a.SendID)
		s.timersMu.Unlock()
		_ = s.Send(ev)
	})
	s.timersMu.Lock()
	s.timers[a.SendID] = cancel
	s.timersMu.Unlock()
}

func (s *Service) cancelSend(sendID string) {
	s.timersMu.Lock()
	cancel, ok := s.timers[sendID]
	delete(s.timers, sendID)
	s.timersMu.Unlock()
	if ok {
		cancel()
	}
}

func (s *Service) startActivity(id string) {
	s.runningMu.Lock()
	if s.running[id] {
		s.runningMu.Unlock()
		return
	}
	s.running[id] = true
	s.runningMu.Unlock()
	if s.activityRunner != nil {
		if err := s.activityRunner.Start(id); err != nil {
			s.logger.Printf("statechartx: activity %q start error: %v", id, err)
		}
	}
}

func (s *Service) stopActivity(id string) {
	s.runningMu.Lock()
	delete(s.running, id)
	s.runningMu.Unlock()
	if s.activityRunner != nil {
		if err := s.activityRunner.Stop(id); err != nil {
			s.logger.Printf("statechartx: activity %q stop error: %v", id, err)
		}
	}
}

func (s *Service) guardEvalAdapter() GuardEvaluator {
	return s.guardEval
}

// Send enqueues an event for asynchronous processing. Returns an error if
// the queue is full (backpressure) rather than blocking the caller.
func (s *Service) Send(event primitives.Event) error {
	select {
	case <-s.done:
		return errors.New("statechartx: service stopped")
	default:
	}
	select {
	case s.events <- event:
		return nil
	default:
		return errors.New("statechartx: event queue full (backpressure)")
	}
}

func (s *Service) setCurrent(st *State) {
	s.mu.Lock()
	s.current = st
	s.mu.Unlock()
}

// Current returns the most recently computed State. Safe to call from any
// goroutine.
func (s *Service) Current() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Stop signals the interpreter goroutine to exit after draining any event
// already being processed. Safe to call more than once.
func (s *Service) Stop() error {
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}

func (s *Service) publishTransition(prev, next *State, event primitives.Event) {
	snapshot := Snapshot{
		MachineID:   s.def.id,
		Version:     s.def.version,
		Active:      append([]string(nil), next.Configuration.Active...),
		History:     next.Configuration.History,
		ContextData: next.Context,
		Timestamp:   s.clock.Now(),
	}
	go func() {
		ctx := context.Background()
		if s.persister != nil {
			if err := s.persister.Save(ctx, snapshot); err != nil {
				s.logger.Printf("statechartx: persist error: %v", err)
			}
		}
		if s.registry != nil {
			if err := s.registry.Register(ctx, s.def.id, snapshot); err != nil {
				s.logger.Printf("statechartx: registry error: %v", err)
			}
		}
		if s.publisher != nil {
			var fromValue primitives.Value
			if prev != nil {
				fromValue = prev.Value()
			}
			md := TransitionMetadata{
				MachineID: s.def.id,
				EventType: event.Type,
				FromValue: fromValue,
				ToValue:   next.Value(),
				Timestamp: s.clock.Now(),
			}
			if err := s.publisher.Publish(ctx, md); err != nil {
				s.logger.Printf("statechartx: publish error: %v", err)
			}
		}
	}()
}

// Restore rebuilds a Service's current State from a previously saved
// Snapshot, without running entry actions again (the state is already
// considered entered). Call before Start.
func (s *Service) Restore(snapshot Snapshot) error {
	if snapshot.MachineID != s.def.id {
		return fmt.Errorf("statechartx: machine id mismatch: have %q, snapshot %q", s.def.id, snapshot.MachineID)
	}
	s.setCurrent(&State{
		Definition: s.def,
		Configuration: Configuration{
			Active:  append([]string(nil), snapshot.Active...),
			History: snapshot.History,
		},
		Context: snapshot.ContextData,
		Changed: true,
	})
	return nil
}

// Visualize renders the Service's Definition (with its current
// Configuration highlighted) via the configured Visualizer.
func (s *Service) Visualize(v Visualizer) string {
	if v == nil {
		return ""
	}
	cur := s.Current()
	if cur == nil {
		return v.ExportDOT(s.def, nil)
	}
	return v.ExportDOT(s.def, cur.Configuration.Active)
}
