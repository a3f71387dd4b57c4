package ipc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomo/internal/ipc"
)

func startServer(t *testing.T, handler ipc.Handler) *ipc.Server {
	t.Helper()
	server, err := ipc.Listen(0, handler)
	require.NoError(t, err)
	go server.Serve()
	t.Cleanup(func() { _ = server.Close() })
	return server
}

func TestPingBypassesHandler(t *testing.T) {
	server := startServer(t, ipc.HandlerFunc(func(ipc.Command) ipc.Response {
		t.Fatal("handler must not run for ping")
		return ipc.Response{}
	}))

	response, err := ipc.Send(server.Port(), ipc.Command{Command: ipc.CommandPing})
	require.NoError(t, err)
	assert.Equal(t, ipc.TypePong, response.Type)

	assert.True(t, ipc.Running(server.Port()))
}

func TestStatusRoundTrip(t *testing.T) {
	server := startServer(t, ipc.HandlerFunc(func(command ipc.Command) ipc.Response {
		require.Equal(t, ipc.CommandStatus, command.Command)
		return ipc.Response{
			Type: ipc.TypeStatus,
			Status: &ipc.Status{
				State:              "running",
				SessionType:        "work",
				RemainingSecs:      754,
				RemainingFormatted: "12:34",
				Progress:           0.497,
				CurrentSession:     2,
				TotalSessions:      4,
				TotalDurationSecs:  1500,
			},
		}
	}))

	response, err := ipc.Send(server.Port(), ipc.Command{Command: ipc.CommandStatus})
	require.NoError(t, err)
	require.Equal(t, ipc.TypeStatus, response.Type)
	require.NotNil(t, response.Status)
	assert.Equal(t, "work", response.Status.SessionType)
	assert.Equal(t, "12:34", response.Status.RemainingFormatted)
	assert.Equal(t, 2, response.Status.CurrentSession)
}

func TestStatsCarriesPeriod(t *testing.T) {
	server := startServer(t, ipc.HandlerFunc(func(command ipc.Command) ipc.Response {
		return ipc.Response{
			Type: ipc.TypeStats,
			Stats: &ipc.Stats{
				Period:        command.Period,
				Hours:         3.5,
				Pomodoros:     7,
				CurrentStreak: 2,
				DailyGoal:     8,
			},
		}
	}))

	response, err := ipc.Send(server.Port(), ipc.Command{Command: ipc.CommandStats, Period: ipc.PeriodWeek})
	require.NoError(t, err)
	require.NotNil(t, response.Stats)
	assert.Equal(t, ipc.PeriodWeek, response.Stats.Period)
	assert.InDelta(t, 3.5, response.Stats.Hours, 0.001)
}

func TestHandlerErrorsReachTheClient(t *testing.T) {
	server := startServer(t, ipc.HandlerFunc(func(ipc.Command) ipc.Response {
		return ipc.Errorf("timer already running")
	}))

	response, err := ipc.Send(server.Port(), ipc.Command{Command: ipc.CommandStart})
	require.NoError(t, err)
	assert.Equal(t, ipc.TypeError, response.Type)
	assert.Equal(t, "timer already running", response.Message)
}

func TestRunningFalseWhenNoServer(t *testing.T) {
	server := startServer(t, ipc.HandlerFunc(func(ipc.Command) ipc.Response {
		return ipc.OK()
	}))
	port := server.Port()
	require.NoError(t, server.Close())

	assert.False(t, ipc.Running(port))
}

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "25:00", ipc.FormatRemaining(25*time.Minute))
	assert.Equal(t, "00:01", ipc.FormatRemaining(300*time.Millisecond))
	assert.Equal(t, "00:00", ipc.FormatRemaining(0))
	assert.Equal(t, "00:00", ipc.FormatRemaining(-time.Second))
}
