package model

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies one timed segment of a Pomodoro cycle.
type Kind string

const (
	KindWork       Kind = "work"
	KindShortBreak Kind = "short_break"
	KindLongBreak  Kind = "long_break"
)

// Label returns the display label for a kind.
func (kind Kind) Label() string {
	switch kind {
	case KindWork:
		return "Focus"
	case KindShortBreak:
		return "Short Break"
	case KindLongBreak:
		return "Long Break"
	}
	return string(kind)
}

// IsBreak reports whether the kind is a break interval.
func (kind Kind) IsBreak() bool {
	return kind == KindShortBreak || kind == KindLongBreak
}

// Valid reports whether the kind belongs to the closed set.
func (kind Kind) Valid() bool {
	return kind == KindWork || kind == KindShortBreak || kind == KindLongBreak
}

// ErrInvalidConfig indicates a timer configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid timer config")

// TimerConfig contains the runtime settings of the cycle controller.
type TimerConfig struct {
	WorkDuration       time.Duration
	ShortBreakDuration time.Duration
	LongBreakDuration  time.Duration

	// SessionsBeforeLongBreak is the number of completed work sessions
	// that route to a long break instead of a short one.
	SessionsBeforeLongBreak int

	AutoStartBreaks bool
	AutoStartWork   bool
}

// Validate checks that every duration is at least one second and the
// cycle length is positive.
func (config TimerConfig) Validate() error {
	durations := []struct {
		kind  Kind
		value time.Duration
	}{
		{KindWork, config.WorkDuration},
		{KindShortBreak, config.ShortBreakDuration},
		{KindLongBreak, config.LongBreakDuration},
	}
	for _, entry := range durations {
		if entry.value < time.Second {
			return fmt.Errorf("%w: %s duration %v below one second", ErrInvalidConfig, entry.kind, entry.value)
		}
	}
	if config.SessionsBeforeLongBreak < 1 {
		return fmt.Errorf("%w: sessions before long break must be at least 1, got %d", ErrInvalidConfig, config.SessionsBeforeLongBreak)
	}
	return nil
}

// DurationFor returns the configured duration for an interval kind.
func (config TimerConfig) DurationFor(kind Kind) time.Duration {
	switch kind {
	case KindShortBreak:
		return config.ShortBreakDuration
	case KindLongBreak:
		return config.LongBreakDuration
	default:
		return config.WorkDuration
	}
}

// DefaultTimerConfig returns the classic 25/5/15 configuration.
func DefaultTimerConfig() TimerConfig {
	return ClassicPreset().TimerConfig()
}
