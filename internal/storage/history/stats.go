package history

import (
	"context"
	"math"
	"time"
)

// Statistics is the aggregated view served to the CLI and IPC stats
// queries.
type Statistics struct {
	TodayWork      time.Duration
	TodayPomodoros int

	WeekDailyHours [7]float64
	WeekWork       time.Duration
	WeekPomodoros  int

	CurrentStreak int
	LongestStreak int

	TotalWork      time.Duration
	TotalPomodoros int
}

// LoadStatistics builds the aggregate from the store. Any query error
// aborts the load; callers fall back to a zero value if they prefer.
func LoadStatistics(ctx context.Context, store *Store) (Statistics, error) {
	var stats Statistics
	var err error

	if stats.TodayWork, stats.TodayPomodoros, err = store.TodayStats(ctx); err != nil {
		return Statistics{}, err
	}
	if stats.WeekDailyHours, err = store.WeekStats(ctx); err != nil {
		return Statistics{}, err
	}
	if stats.WeekWork, stats.WeekPomodoros, err = store.WeekTotals(ctx); err != nil {
		return Statistics{}, err
	}

	if stats.CurrentStreak, stats.LongestStreak, err = store.Streak(ctx); err != nil {
		return Statistics{}, err
	}
	if stats.TotalWork, stats.TotalPomodoros, err = store.TotalStats(ctx); err != nil {
		return Statistics{}, err
	}
	return stats, nil
}

// TodayHours returns today's work time in hours, rounded to one
// decimal.
func (stats Statistics) TodayHours() float64 {
	return roundTenth(stats.TodayWork.Hours())
}

// WeekHours returns this week's work time in hours, rounded to one
// decimal.
func (stats Statistics) WeekHours() float64 {
	return roundTenth(stats.WeekWork.Hours())
}

// TotalHours returns the all-time work time in whole hours.
func (stats Statistics) TotalHours() int {
	return int(stats.TotalWork.Hours())
}

// DailyGoalProgress reports progress toward a daily pomodoro target as
// a ratio; a zero target counts as reached.
func (stats Statistics) DailyGoalProgress(target int) float64 {
	if target <= 0 {
		return 1
	}
	return float64(stats.TodayPomodoros) / float64(target)
}

// DailyGoalReached reports whether today's completed pomodoros meet
// the target.
func (stats Statistics) DailyGoalReached(target int) bool {
	return stats.TodayPomodoros >= target
}

func roundTenth(value float64) float64 {
	return math.Round(value*10) / 10
}
