// Package cycle decides the sequence of Pomodoro intervals. A
// Controller owns one countdown clock at a time and, when an interval
// completes, picks the next kind and whether it auto-starts.
package cycle

import (
	"time"

	"pomo/internal/core/clock"
	"pomo/internal/core/model"
)

// Controller composes a countdown clock with the cycle position. It is
// single-owner and not safe for concurrent use; the engine serializes
// access behind its own mutex.
type Controller struct {
	config    model.TimerConfig
	countdown *clock.Clock
	kind      model.Kind

	// completedInCycle counts work sessions finished since the last
	// long break. Skipped work intervals do not count.
	completedInCycle int
}

// New creates a controller positioned at the first work interval.
func New(config model.TimerConfig) (*Controller, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	controller := &Controller{config: config, kind: model.KindWork}
	controller.rebuildClock(model.KindWork)
	return controller, nil
}

// NextKind is the pure interval transition function. completedInCycle
// is the count after the current interval's completion was applied.
func NextKind(current model.Kind, completedInCycle, sessionsBeforeLong int) model.Kind {
	switch current {
	case model.KindWork:
		if completedInCycle >= sessionsBeforeLong {
			return model.KindLongBreak
		}
		return model.KindShortBreak
	default:
		return model.KindWork
	}
}

// Update feeds elapsed time into the current countdown. It returns an
// EventIdle when nothing is running, an EventTicked while the interval
// is in progress, and an EventCompleted when the interval finished and
// the controller advanced to the next one.
func (controller *Controller) Update(elapsed time.Duration) Event {
	signal, err := controller.countdown.Advance(elapsed)
	if err != nil {
		return controller.snapshotEvent(EventIdle)
	}
	if signal == clock.SignalCompleted {
		return controller.advance(true)
	}
	return controller.snapshotEvent(EventTicked)
}

// Skip forces the current interval to end without its countdown
// reaching zero. A skipped work interval is not counted toward the
// long-break threshold.
func (controller *Controller) Skip() Event {
	return controller.advance(false)
}

// Toggle starts, resumes or pauses the current countdown.
func (controller *Controller) Toggle() error {
	return controller.countdown.Toggle()
}

// Start starts or resumes the current countdown.
func (controller *Controller) Start() error {
	return controller.countdown.Start()
}

// Pause freezes the current countdown.
func (controller *Controller) Pause() error {
	return controller.countdown.Pause()
}

// Reset restarts only the current interval; the cycle position is
// unchanged.
func (controller *Controller) Reset() {
	controller.countdown.Reset()
}

// SetConfig replaces the timer configuration and restarts the cycle at
// the first work interval.
func (controller *Controller) SetConfig(config model.TimerConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	controller.config = config
	controller.kind = model.KindWork
	controller.completedInCycle = 0
	controller.rebuildClock(model.KindWork)
	return nil
}

// SwitchTo abandons the current interval and moves directly to the
// given kind, leaving the work-session count untouched.
func (controller *Controller) SwitchTo(kind model.Kind) {
	if !kind.Valid() {
		return
	}
	controller.kind = kind
	controller.rebuildClock(kind)
}

// Config returns the active timer configuration.
func (controller *Controller) Config() model.TimerConfig {
	return controller.config
}

// Kind returns the kind of the interval now current.
func (controller *Controller) Kind() model.Kind {
	return controller.kind
}

// Clock exposes the current countdown for read-only queries.
func (controller *Controller) Clock() *clock.Clock {
	return controller.countdown
}

// CompletedInCycle returns the work sessions finished since the last
// long break.
func (controller *Controller) CompletedInCycle() int {
	return controller.completedInCycle
}

// SessionInCycle returns the 1-based position for "session x of N"
// display, clamped to [1, N].
func (controller *Controller) SessionInCycle() int {
	session := controller.completedInCycle + 1
	if session > controller.config.SessionsBeforeLongBreak {
		session = controller.config.SessionsBeforeLongBreak
	}
	if session < 1 {
		session = 1
	}
	return session
}

// advance runs the interval transition. completed distinguishes a
// countdown that reached zero from a skip.
func (controller *Controller) advance(completed bool) Event {
	finished := controller.kind
	planned := controller.countdown.Total()
	actual := controller.countdown.Elapsed()

	if completed && finished == model.KindWork {
		controller.completedInCycle++
	}

	next := NextKind(finished, controller.completedInCycle, controller.config.SessionsBeforeLongBreak)
	if finished == model.KindLongBreak {
		controller.completedInCycle = 0
	}

	controller.kind = next
	controller.rebuildClock(next)

	autoStarted := false
	if (next == model.KindWork && controller.config.AutoStartWork) ||
		(next != model.KindWork && controller.config.AutoStartBreaks) {
		autoStarted = controller.countdown.Start() == nil
	}

	event := controller.snapshotEvent(EventCompleted)
	event.Finished = finished
	event.Next = next
	event.AutoStarted = autoStarted
	event.Completed = completed
	event.Planned = planned
	event.Actual = actual
	return event
}

func (controller *Controller) rebuildClock(kind model.Kind) {
	countdown, err := clock.New(controller.config.DurationFor(kind))
	if err != nil {
		// The config is validated on entry, so only a zero-value
		// Controller can reach this.
		countdown, _ = clock.New(time.Second)
	}
	controller.countdown = countdown
}

func (controller *Controller) snapshotEvent(eventType EventType) Event {
	return Event{
		Type:      eventType,
		Kind:      controller.kind,
		State:     controller.countdown.State(),
		Remaining: controller.countdown.Remaining(),
		Progress:  controller.countdown.Progress(),
	}
}
