package cycle

import (
	"time"

	"pomo/internal/core/clock"
	"pomo/internal/core/model"
)

// EventType classifies the outcome of a controller update.
type EventType string

const (
	// EventIdle means no countdown was running; nothing changed.
	EventIdle EventType = "idle"
	// EventTicked means time advanced without finishing the interval.
	EventTicked EventType = "ticked"
	// EventCompleted means the current interval ended and the controller
	// moved to the next one.
	EventCompleted EventType = "completed"
)

// Event is reported by Update and Skip for the host to act on.
type Event struct {
	Type EventType

	// Snapshot of the interval now current (after any transition).
	Kind      model.Kind
	State     clock.State
	Remaining time.Duration
	Progress  float64

	// Completion details, set only for EventCompleted.
	Finished    model.Kind
	Next        model.Kind
	AutoStarted bool
	// Completed is false when the interval was skipped before its
	// countdown reached zero.
	Completed bool
	Planned   time.Duration
	Actual    time.Duration
}
