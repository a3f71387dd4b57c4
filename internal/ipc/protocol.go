// Package ipc implements the newline-delimited JSON protocol the CLI
// uses to control a running daemon over a localhost TCP socket.
package ipc

import (
	"fmt"
	"time"
)

// Command names accepted by the daemon.
const (
	CommandStart  = "start"
	CommandPause  = "pause"
	CommandResume = "resume"
	CommandToggle = "toggle"
	CommandStop   = "stop"
	CommandSkip   = "skip"
	CommandStatus = "status"
	CommandStats  = "stats"
	CommandPing   = "ping"
)

// Response types.
const (
	TypeOK     = "ok"
	TypeStatus = "status"
	TypeStats  = "stats"
	TypePong   = "pong"
	TypeError  = "error"
)

// Stats periods.
const (
	PeriodToday = "today"
	PeriodWeek  = "week"
	PeriodAll   = "all"
)

// Command is a single request line.
type Command struct {
	Command string `json:"command"`
	// SessionType optionally targets start at a specific interval kind.
	SessionType string `json:"session_type,omitempty"`
	// Period selects the stats window: today, week or all.
	Period string `json:"period,omitempty"`
}

// Status describes the timer at the moment of the request.
type Status struct {
	State              string  `json:"state"`
	SessionType        string  `json:"session_type"`
	RemainingSecs      int64   `json:"remaining_secs"`
	RemainingFormatted string  `json:"remaining_formatted"`
	Progress           float64 `json:"progress"`
	CurrentSession     int     `json:"current_session"`
	TotalSessions      int     `json:"total_sessions"`
	TotalDurationSecs  int64   `json:"total_duration_secs"`
}

// Stats describes aggregated history for one period.
type Stats struct {
	Period         string  `json:"period"`
	Hours          float64 `json:"hours"`
	Pomodoros      int     `json:"pomodoros"`
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
	DailyGoal      int     `json:"daily_goal"`
	TodayPomodoros int     `json:"today_pomodoros"`
}

// Response is a single reply line. Status and Stats fields are
// embedded so their members serialize flat next to the type tag.
type Response struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	*Status
	*Stats
}

// OK returns a plain success response.
func OK() Response {
	return Response{Type: TypeOK}
}

// OKMessage returns a success response carrying a message.
func OKMessage(message string) Response {
	return Response{Type: TypeOK, Message: message}
}

// Errorf returns an error response with a formatted message.
func Errorf(format string, args ...any) Response {
	return Response{Type: TypeError, Message: fmt.Sprintf(format, args...)}
}

// FormatRemaining renders a duration as MM:SS, rounding up so a
// running timer never shows 00:00 before it completes.
func FormatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	totalSecs := int64((remaining + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", totalSecs/60, totalSecs%60)
}
