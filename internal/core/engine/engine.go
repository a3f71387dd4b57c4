// Package engine drives the cycle controller from a wall-clock ticker
// and fans its events out to subscribers. It owns the one controller
// instance of a running daemon; mid-cycle state is volatile and does
// not survive a restart.
package engine

import (
	"context"
	"sync"
	"time"

	"pomo/internal/core/clock"
	"pomo/internal/core/cycle"
	"pomo/internal/core/model"
	"pomo/internal/logging"
)

// Record is handed to the persistence collaborator once per finished
// interval.
type Record struct {
	Kind      model.Kind
	Planned   time.Duration
	Actual    time.Duration
	Completed bool
	StartedAt time.Time
	EndedAt   time.Time
}

// Recorder persists finished intervals. Failures are logged and
// otherwise invisible to the engine.
type Recorder interface {
	Record(ctx context.Context, record Record) error
}

// Options contains runtime options for the engine.
type Options struct {
	TickInterval time.Duration
}

// Snapshot is a point-in-time view of the timer for status queries.
type Snapshot struct {
	Kind                    model.Kind
	State                   clock.State
	Remaining               time.Duration
	Total                   time.Duration
	Progress                float64
	SessionInCycle          int
	SessionsBeforeLongBreak int
}

// Engine serializes access to a cycle controller and runs the tick
// loop.
type Engine struct {
	mu         sync.Mutex
	controller *cycle.Controller
	recorder   Recorder
	options    Options

	events  []chan cycle.Event
	stopCh  chan struct{}
	running bool

	lastTick        time.Time
	intervalStarted time.Time
}

// New creates an engine around a fresh controller.
func New(config model.TimerConfig, recorder Recorder, options Options) (*Engine, error) {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	controller, err := cycle.New(config)
	if err != nil {
		return nil, err
	}
	return &Engine{
		controller: controller,
		recorder:   recorder,
		options:    options,
		stopCh:     make(chan struct{}),
	}, nil
}

// Subscribe registers a new observer channel. Sends never block; slow
// observers miss events.
func (engine *Engine) Subscribe(buffer int) <-chan cycle.Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan cycle.Event, buffer)
	engine.mu.Lock()
	engine.events = append(engine.events, ch)
	engine.mu.Unlock()
	return ch
}

// Run launches the ticking loop. After a Stop, Run starts a fresh
// loop; subscriptions do not carry over.
func (engine *Engine) Run() {
	engine.mu.Lock()
	if engine.running {
		engine.mu.Unlock()
		return
	}
	engine.running = true
	engine.stopCh = make(chan struct{})
	stopCh := engine.stopCh
	engine.lastTick = time.Now()
	engine.mu.Unlock()

	go engine.loop(stopCh)
}

// Stop terminates the ticking loop and closes observer channels.
func (engine *Engine) Stop() {
	engine.mu.Lock()
	if !engine.running {
		engine.mu.Unlock()
		return
	}
	close(engine.stopCh)
	engine.running = false
	events := engine.events
	engine.events = nil
	engine.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (engine *Engine) loop(stopCh <-chan struct{}) {
	ticker := time.NewTicker(engine.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case tickTime := <-ticker.C:
			engine.tick(tickTime)
		}
	}
}

func (engine *Engine) tick(now time.Time) {
	engine.mu.Lock()
	if !engine.running {
		engine.mu.Unlock()
		return
	}

	elapsed := now.Sub(engine.lastTick)
	engine.lastTick = now
	if elapsed <= 0 {
		engine.mu.Unlock()
		return
	}

	event := engine.controller.Update(elapsed)
	record, recordable := engine.noteCompletionLocked(event, now)
	engine.mu.Unlock()

	if event.Type == cycle.EventIdle {
		return
	}
	if recordable {
		engine.persist(record)
	}
	engine.emit(event)
}

// noteCompletionLocked turns a completion event into a Record and
// tracks the start time of the interval that follows it.
func (engine *Engine) noteCompletionLocked(event cycle.Event, now time.Time) (Record, bool) {
	if event.Type != cycle.EventCompleted {
		return Record{}, false
	}

	record := Record{
		Kind:      event.Finished,
		Planned:   event.Planned,
		Actual:    event.Actual,
		Completed: event.Completed,
		StartedAt: engine.intervalStarted,
		EndedAt:   now,
	}
	if record.StartedAt.IsZero() {
		record.StartedAt = now.Add(-event.Actual)
	}

	if event.AutoStarted {
		engine.intervalStarted = now
	} else {
		engine.intervalStarted = time.Time{}
	}

	// A skip of an interval that never ran leaves nothing to persist.
	recordable := event.Completed || event.Actual > 0
	return record, recordable
}

func (engine *Engine) persist(record Record) {
	if engine.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := engine.recorder.Record(ctx, record); err != nil {
		logging.Error().Err(err).Str("kind", string(record.Kind)).Msg("session record failed")
	}
}

func (engine *Engine) emit(event cycle.Event) {
	engine.mu.Lock()
	observers := append([]chan cycle.Event(nil), engine.events...)
	engine.mu.Unlock()

	for _, ch := range observers {
		select {
		case ch <- event:
		default:
		}
	}
}

// Toggle starts, resumes or pauses the current interval.
func (engine *Engine) Toggle() error {
	engine.mu.Lock()
	wasRunning := engine.controller.Clock().State() == clock.StateRunning
	err := engine.controller.Toggle()
	engine.noteStartLocked(err == nil && !wasRunning)
	event := engine.snapshotEventLocked()
	engine.mu.Unlock()

	if err == nil {
		engine.emit(event)
	}
	return err
}

// Start starts or resumes the current interval.
func (engine *Engine) Start() error {
	engine.mu.Lock()
	wasIdle := engine.controller.Clock().State() == clock.StateIdle
	err := engine.controller.Start()
	engine.noteStartLocked(err == nil && wasIdle)
	event := engine.snapshotEventLocked()
	engine.mu.Unlock()

	if err == nil {
		engine.emit(event)
	}
	return err
}

// Pause freezes the current interval.
func (engine *Engine) Pause() error {
	engine.mu.Lock()
	err := engine.controller.Pause()
	event := engine.snapshotEventLocked()
	engine.mu.Unlock()

	if err == nil {
		engine.emit(event)
	}
	return err
}

// Skip abandons the current interval and moves to the next one. The
// abandoned interval is reported to the recorder but never counts as
// a completed pomodoro.
func (engine *Engine) Skip() {
	engine.mu.Lock()
	event := engine.controller.Skip()
	record, recordable := engine.noteCompletionLocked(event, time.Now())
	engine.mu.Unlock()

	if recordable {
		engine.persist(record)
	}
	engine.emit(event)
}

// Reset restarts the current interval without touching the cycle
// position.
func (engine *Engine) Reset() {
	engine.mu.Lock()
	engine.controller.Reset()
	engine.intervalStarted = time.Time{}
	event := engine.snapshotEventLocked()
	engine.mu.Unlock()

	engine.emit(event)
}

// UpdateConfig swaps the timer configuration and restarts the cycle at
// the first work interval.
func (engine *Engine) UpdateConfig(config model.TimerConfig) error {
	engine.mu.Lock()
	err := engine.controller.SetConfig(config)
	engine.intervalStarted = time.Time{}
	event := engine.snapshotEventLocked()
	engine.mu.Unlock()

	if err != nil {
		return err
	}
	logging.Info().
		Int("sessions_before_long_break", config.SessionsBeforeLongBreak).
		Int64("work_seconds", int64(config.WorkDuration.Seconds())).
		Msg("timer config updated")
	engine.emit(event)
	return nil
}

// SwitchTo abandons the current interval and moves directly to kind.
func (engine *Engine) SwitchTo(kind model.Kind) {
	engine.mu.Lock()
	engine.controller.SwitchTo(kind)
	engine.intervalStarted = time.Time{}
	event := engine.snapshotEventLocked()
	engine.mu.Unlock()

	engine.emit(event)
}

// Status returns a snapshot of the current timer state.
func (engine *Engine) Status() Snapshot {
	engine.mu.Lock()
	defer engine.mu.Unlock()

	countdown := engine.controller.Clock()
	return Snapshot{
		Kind:                    engine.controller.Kind(),
		State:                   countdown.State(),
		Remaining:               countdown.Remaining(),
		Total:                   countdown.Total(),
		Progress:                countdown.Progress(),
		SessionInCycle:          engine.controller.SessionInCycle(),
		SessionsBeforeLongBreak: engine.controller.Config().SessionsBeforeLongBreak,
	}
}

// noteStartLocked marks the wall-clock start of a fresh interval. A
// resume keeps the original start time.
func (engine *Engine) noteStartLocked(started bool) {
	if !started {
		return
	}
	if engine.intervalStarted.IsZero() {
		engine.intervalStarted = time.Now()
	}
	engine.lastTick = time.Now()
}

func (engine *Engine) snapshotEventLocked() cycle.Event {
	countdown := engine.controller.Clock()
	return cycle.Event{
		Type:      cycle.EventTicked,
		Kind:      engine.controller.Kind(),
		State:     countdown.State(),
		Remaining: countdown.Remaining(),
		Progress:  countdown.Progress(),
	}
}
