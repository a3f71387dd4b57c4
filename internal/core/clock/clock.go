// Package clock implements a countdown over a single fixed interval.
// It has no knowledge of Pomodoro semantics; the cycle controller owns
// one instance per interval and feeds elapsed time into it.
package clock

import (
	"errors"
	"time"
)

// ErrInvalidDuration indicates a total duration below one second.
var ErrInvalidDuration = errors.New("clock duration must be at least one second")

// ErrInvalidTransition indicates an operation invoked from a state that
// does not permit it. The clock is left unchanged.
var ErrInvalidTransition = errors.New("invalid clock transition")

// State is the current mode of the countdown.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StatePaused    State = "paused"
	StateCompleted State = "completed"
)

// Signal is the outcome of an Advance call.
type Signal int

const (
	// SignalTicked means time passed without the countdown finishing.
	SignalTicked Signal = iota
	// SignalCompleted means the countdown reached zero on this call.
	SignalCompleted
)

// Clock tracks remaining time for one interval. It is single-owner and
// not safe for concurrent use; the engine serializes access.
type Clock struct {
	total     time.Duration
	remaining time.Duration
	state     State
}

// New creates an idle clock counting down from total.
func New(total time.Duration) (*Clock, error) {
	if total < time.Second {
		return nil, ErrInvalidDuration
	}
	return &Clock{total: total, remaining: total, state: StateIdle}, nil
}

// Start begins the countdown. From Idle the remaining time is reset to
// the full duration; from Paused the countdown resumes where it left
// off. Any other source state reports ErrInvalidTransition.
func (countdown *Clock) Start() error {
	switch countdown.state {
	case StateIdle:
		countdown.remaining = countdown.total
		countdown.state = StateRunning
		return nil
	case StatePaused:
		countdown.state = StateRunning
		return nil
	default:
		return ErrInvalidTransition
	}
}

// Pause freezes a running countdown.
func (countdown *Clock) Pause() error {
	if countdown.state != StateRunning {
		return ErrInvalidTransition
	}
	countdown.state = StatePaused
	return nil
}

// Toggle pauses a running clock and starts an idle or paused one.
// Toggling a completed clock reports ErrInvalidTransition.
func (countdown *Clock) Toggle() error {
	if countdown.state == StateRunning {
		return countdown.Pause()
	}
	return countdown.Start()
}

// Reset returns the clock to Idle with the full duration remaining.
// Valid from any state.
func (countdown *Clock) Reset() {
	countdown.state = StateIdle
	countdown.remaining = countdown.total
}

// Advance moves the countdown forward by elapsed time. Only a running
// clock advances; remaining time clamps at zero, and the transition to
// Completed is reported exactly once. A non-positive elapsed value is
// a no-op reporting SignalTicked.
func (countdown *Clock) Advance(elapsed time.Duration) (Signal, error) {
	if countdown.state != StateRunning {
		return SignalTicked, ErrInvalidTransition
	}
	if elapsed <= 0 {
		return SignalTicked, nil
	}

	countdown.remaining -= elapsed
	if countdown.remaining <= 0 {
		countdown.remaining = 0
		countdown.state = StateCompleted
		return SignalCompleted, nil
	}
	return SignalTicked, nil
}

// State returns the current clock state.
func (countdown *Clock) State() State {
	return countdown.state
}

// Remaining returns the time left on the countdown.
func (countdown *Clock) Remaining() time.Duration {
	return countdown.remaining
}

// Total returns the fixed interval duration.
func (countdown *Clock) Total() time.Duration {
	return countdown.total
}

// Elapsed returns how much of the interval has passed.
func (countdown *Clock) Elapsed() time.Duration {
	return countdown.total - countdown.remaining
}

// Progress returns completion as a value in [0, 1].
func (countdown *Clock) Progress() float64 {
	progress := float64(countdown.total-countdown.remaining) / float64(countdown.total)
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}
