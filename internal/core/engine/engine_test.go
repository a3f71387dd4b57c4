package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomo/internal/core/clock"
	"pomo/internal/core/cycle"
	"pomo/internal/core/engine"
	"pomo/internal/core/model"
)

type memoryRecorder struct {
	mu      sync.Mutex
	records []engine.Record
}

func (recorder *memoryRecorder) Record(_ context.Context, record engine.Record) error {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	recorder.records = append(recorder.records, record)
	return nil
}

func (recorder *memoryRecorder) all() []engine.Record {
	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	return append([]engine.Record(nil), recorder.records...)
}

func secondsConfig(autoStartBreaks bool) model.TimerConfig {
	return model.TimerConfig{
		WorkDuration:            time.Second,
		ShortBreakDuration:      time.Second,
		LongBreakDuration:       time.Second,
		SessionsBeforeLongBreak: 4,
		AutoStartBreaks:         autoStartBreaks,
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := engine.New(model.TimerConfig{}, nil, engine.Options{})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestStatusStartsAtFirstWorkInterval(t *testing.T) {
	host, err := engine.New(model.DefaultTimerConfig(), nil, engine.Options{})
	require.NoError(t, err)

	status := host.Status()
	assert.Equal(t, model.KindWork, status.Kind)
	assert.Equal(t, clock.StateIdle, status.State)
	assert.Equal(t, 25*time.Minute, status.Remaining)
	assert.Equal(t, 1, status.SessionInCycle)
	assert.Equal(t, 4, status.SessionsBeforeLongBreak)
}

func TestStartPauseToggle(t *testing.T) {
	host, err := engine.New(model.DefaultTimerConfig(), nil, engine.Options{})
	require.NoError(t, err)

	require.NoError(t, host.Start())
	assert.Equal(t, clock.StateRunning, host.Status().State)

	require.NoError(t, host.Pause())
	assert.Equal(t, clock.StatePaused, host.Status().State)

	require.NoError(t, host.Toggle())
	assert.Equal(t, clock.StateRunning, host.Status().State)

	assert.Error(t, host.Start())
}

func TestSkipAdvancesWithoutRecordingUnstartedInterval(t *testing.T) {
	recorder := &memoryRecorder{}
	host, err := engine.New(model.DefaultTimerConfig(), recorder, engine.Options{})
	require.NoError(t, err)

	host.Skip()

	status := host.Status()
	assert.Equal(t, model.KindShortBreak, status.Kind)
	assert.Equal(t, clock.StateIdle, status.State)
	assert.Empty(t, recorder.all())
}

func TestRunRecordsCompletedWorkInterval(t *testing.T) {
	recorder := &memoryRecorder{}
	host, err := engine.New(secondsConfig(false), recorder, engine.Options{TickInterval: 10 * time.Millisecond})
	require.NoError(t, err)

	events := host.Subscribe(16)
	host.Run()
	defer host.Stop()
	require.NoError(t, host.Start())

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Type != cycle.EventCompleted {
				continue
			}
			assert.Equal(t, model.KindWork, event.Finished)
			assert.True(t, event.Completed)
			assert.Equal(t, model.KindShortBreak, event.Next)

			records := recorder.all()
			require.Len(t, records, 1)
			assert.Equal(t, model.KindWork, records[0].Kind)
			assert.True(t, records[0].Completed)
			assert.Equal(t, time.Second, records[0].Planned)
			assert.False(t, records[0].StartedAt.IsZero())
			assert.False(t, records[0].EndedAt.Before(records[0].StartedAt))

			assert.Equal(t, model.KindShortBreak, host.Status().Kind)
			assert.Equal(t, clock.StateIdle, host.Status().State)
			return
		case <-deadline:
			t.Fatal("work interval did not complete")
		}
	}
}

func TestRunAutoStartsBreakWhenConfigured(t *testing.T) {
	host, err := engine.New(secondsConfig(true), nil, engine.Options{TickInterval: 10 * time.Millisecond})
	require.NoError(t, err)

	events := host.Subscribe(16)
	host.Run()
	defer host.Stop()
	require.NoError(t, host.Start())

	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Type != cycle.EventCompleted {
				continue
			}
			assert.True(t, event.AutoStarted)
			assert.Equal(t, clock.StateRunning, host.Status().State)
			return
		case <-deadline:
			t.Fatal("work interval did not complete")
		}
	}
}

func TestUpdateConfigRestartsCycle(t *testing.T) {
	host, err := engine.New(model.DefaultTimerConfig(), nil, engine.Options{})
	require.NoError(t, err)

	host.Skip()
	require.Equal(t, model.KindShortBreak, host.Status().Kind)

	updated := model.DefaultTimerConfig()
	updated.WorkDuration = 50 * time.Minute
	require.NoError(t, host.UpdateConfig(updated))

	status := host.Status()
	assert.Equal(t, model.KindWork, status.Kind)
	assert.Equal(t, 50*time.Minute, status.Total)
	assert.Equal(t, 1, status.SessionInCycle)

	assert.Error(t, host.UpdateConfig(model.TimerConfig{}))
}

func TestSwitchToMovesDirectlyToKind(t *testing.T) {
	host, err := engine.New(model.DefaultTimerConfig(), nil, engine.Options{})
	require.NoError(t, err)

	host.SwitchTo(model.KindLongBreak)

	status := host.Status()
	assert.Equal(t, model.KindLongBreak, status.Kind)
	assert.Equal(t, 15*time.Minute, status.Total)
}

func TestRunAfterStopTicksAgain(t *testing.T) {
	host, err := engine.New(secondsConfig(false), nil, engine.Options{TickInterval: 10 * time.Millisecond})
	require.NoError(t, err)

	host.Run()
	host.Stop()

	host.Run()
	defer host.Stop()
	events := host.Subscribe(16)
	require.NoError(t, host.Start())

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Type == cycle.EventTicked || event.Type == cycle.EventCompleted {
				return
			}
		case <-deadline:
			t.Fatal("no ticks after restart")
		}
	}
}

func TestStopClosesSubscribers(t *testing.T) {
	host, err := engine.New(model.DefaultTimerConfig(), nil, engine.Options{})
	require.NoError(t, err)

	events := host.Subscribe(1)
	host.Run()
	host.Stop()

	for {
		if _, open := <-events; !open {
			return
		}
	}
}
