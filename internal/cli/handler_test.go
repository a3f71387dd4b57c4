package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomo/internal/core/engine"
	"pomo/internal/core/model"
	"pomo/internal/ipc"
	"pomo/internal/storage/history"
)

func newTestHandler(t *testing.T) *commandHandler {
	t.Helper()

	store, err := history.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	host, err := engine.New(model.DefaultTimerConfig(), sessionRecorder{store: store}, engine.Options{})
	require.NoError(t, err)

	return newCommandHandler(host, store, 8)
}

func TestHandleStartAndStatus(t *testing.T) {
	handler := newTestHandler(t)

	response := handler.Handle(ipc.Command{Command: ipc.CommandStart})
	assert.Equal(t, ipc.TypeOK, response.Type)

	response = handler.Handle(ipc.Command{Command: ipc.CommandStatus})
	require.Equal(t, ipc.TypeStatus, response.Type)
	require.NotNil(t, response.Status)
	assert.Equal(t, "running", response.Status.State)
	assert.Equal(t, "work", response.Status.SessionType)
	assert.Equal(t, "25:00", response.Status.RemainingFormatted)
	assert.Equal(t, 1, response.Status.CurrentSession)
	assert.Equal(t, 4, response.Status.TotalSessions)
	assert.Equal(t, int64(1500), response.Status.TotalDurationSecs)
}

func TestHandleStartWithSessionType(t *testing.T) {
	handler := newTestHandler(t)

	response := handler.Handle(ipc.Command{Command: ipc.CommandStart, SessionType: "long_break"})
	assert.Equal(t, ipc.TypeOK, response.Type)

	response = handler.Handle(ipc.Command{Command: ipc.CommandStatus})
	require.NotNil(t, response.Status)
	assert.Equal(t, "long_break", response.Status.SessionType)
	assert.Equal(t, "running", response.Status.State)

	response = handler.Handle(ipc.Command{Command: ipc.CommandStart, SessionType: "nap"})
	assert.Equal(t, ipc.TypeError, response.Type)
}

func TestHandlePauseRequiresRunningTimer(t *testing.T) {
	handler := newTestHandler(t)

	response := handler.Handle(ipc.Command{Command: ipc.CommandPause})
	assert.Equal(t, ipc.TypeError, response.Type)

	handler.Handle(ipc.Command{Command: ipc.CommandStart})
	response = handler.Handle(ipc.Command{Command: ipc.CommandPause})
	assert.Equal(t, ipc.TypeOK, response.Type)

	response = handler.Handle(ipc.Command{Command: ipc.CommandResume})
	assert.Equal(t, ipc.TypeOK, response.Type)
}

func TestHandleStopResetsInterval(t *testing.T) {
	handler := newTestHandler(t)

	handler.Handle(ipc.Command{Command: ipc.CommandStart})
	response := handler.Handle(ipc.Command{Command: ipc.CommandStop})
	assert.Equal(t, ipc.TypeOK, response.Type)

	response = handler.Handle(ipc.Command{Command: ipc.CommandStatus})
	require.NotNil(t, response.Status)
	assert.Equal(t, "idle", response.Status.State)
	assert.Equal(t, "work", response.Status.SessionType)
}

func TestHandleSkipMovesToBreak(t *testing.T) {
	handler := newTestHandler(t)

	response := handler.Handle(ipc.Command{Command: ipc.CommandSkip})
	assert.Equal(t, ipc.TypeOK, response.Type)

	response = handler.Handle(ipc.Command{Command: ipc.CommandStatus})
	require.NotNil(t, response.Status)
	assert.Equal(t, "short_break", response.Status.SessionType)
}

func TestHandleStatsReflectsHistory(t *testing.T) {
	handler := newTestHandler(t)

	ctx := context.Background()
	require.NoError(t, handler.store.Record(ctx, history.Session{
		Kind:      model.KindWork,
		Planned:   25 * time.Minute,
		Actual:    25 * time.Minute,
		Completed: true,
		EndedAt:   time.Now(),
	}))

	response := handler.Handle(ipc.Command{Command: ipc.CommandStats, Period: ipc.PeriodToday})
	require.Equal(t, ipc.TypeStats, response.Type)
	require.NotNil(t, response.Stats)
	assert.Equal(t, ipc.PeriodToday, response.Stats.Period)
	assert.Equal(t, 1, response.Stats.Pomodoros)
	assert.Equal(t, 8, response.Stats.DailyGoal)
	assert.Equal(t, 1, response.Stats.TodayPomodoros)

	handler.setDailyGoal(2)
	response = handler.Handle(ipc.Command{Command: ipc.CommandStats, Period: ipc.PeriodAll})
	require.NotNil(t, response.Stats)
	assert.Equal(t, 2, response.Stats.DailyGoal)
	assert.Equal(t, 1, response.Stats.Pomodoros)
}

func TestHandleUnknownCommand(t *testing.T) {
	handler := newTestHandler(t)

	response := handler.Handle(ipc.Command{Command: "reboot"})
	assert.Equal(t, ipc.TypeError, response.Type)
}

func TestStatsForPeriodProjection(t *testing.T) {
	statistics := history.Statistics{
		TodayWork:      90 * time.Minute,
		TodayPomodoros: 3,
		WeekWork:       5 * time.Hour,
		WeekPomodoros:  11,
		TotalWork:      100 * time.Hour,
		TotalPomodoros: 240,
		CurrentStreak:  4,
		LongestStreak:  9,
	}

	today := statsForPeriod(statistics, ipc.PeriodToday, 8)
	assert.InDelta(t, 1.5, today.Hours, 0.001)
	assert.Equal(t, 3, today.Pomodoros)

	week := statsForPeriod(statistics, ipc.PeriodWeek, 8)
	assert.InDelta(t, 5.0, week.Hours, 0.001)
	assert.Equal(t, 11, week.Pomodoros)

	all := statsForPeriod(statistics, ipc.PeriodAll, 8)
	assert.InDelta(t, 100.0, all.Hours, 0.001)
	assert.Equal(t, 240, all.Pomodoros)
	assert.Equal(t, 4, all.CurrentStreak)
	assert.Equal(t, 9, all.LongestStreak)
}

func TestVersionCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	app := New().WithOutput(&stdout, &stderr)

	require.NoError(t, app.ExecuteWithArgs(context.Background(), []string{"version"}))
	assert.Contains(t, stdout.String(), "pomo version")
}
