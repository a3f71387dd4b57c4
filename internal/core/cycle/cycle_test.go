package cycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomo/internal/core/clock"
	"pomo/internal/core/cycle"
	"pomo/internal/core/model"
)

func classicConfig() model.TimerConfig {
	config := model.DefaultTimerConfig()
	return config
}

func newController(t *testing.T, config model.TimerConfig) *cycle.Controller {
	t.Helper()
	controller, err := cycle.New(config)
	require.NoError(t, err)
	return controller
}

// finish runs the current interval to natural completion.
func finish(t *testing.T, controller *cycle.Controller) cycle.Event {
	t.Helper()
	if controller.Clock().State() != clock.StateRunning {
		require.NoError(t, controller.Start())
	}
	event := controller.Update(controller.Clock().Remaining())
	require.Equal(t, cycle.EventCompleted, event.Type)
	return event
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := classicConfig()
	config.WorkDuration = 0
	_, err := cycle.New(config)
	assert.ErrorIs(t, err, model.ErrInvalidConfig)

	config = classicConfig()
	config.SessionsBeforeLongBreak = 0
	_, err = cycle.New(config)
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestInitialPosition(t *testing.T) {
	controller := newController(t, classicConfig())

	assert.Equal(t, model.KindWork, controller.Kind())
	assert.Equal(t, 0, controller.CompletedInCycle())
	assert.Equal(t, 1, controller.SessionInCycle())
	assert.Equal(t, clock.StateIdle, controller.Clock().State())
	assert.Equal(t, 25*time.Minute, controller.Clock().Remaining())
}

func TestNextKindTransitionTable(t *testing.T) {
	tests := []struct {
		current   model.Kind
		completed int
		n         int
		want      model.Kind
	}{
		{model.KindWork, 1, 4, model.KindShortBreak},
		{model.KindWork, 3, 4, model.KindShortBreak},
		{model.KindWork, 4, 4, model.KindLongBreak},
		{model.KindWork, 1, 1, model.KindLongBreak},
		{model.KindShortBreak, 2, 4, model.KindWork},
		{model.KindLongBreak, 4, 4, model.KindWork},
	}

	for _, test := range tests {
		got := cycle.NextKind(test.current, test.completed, test.n)
		assert.Equal(t, test.want, got, "%s completed=%d n=%d", test.current, test.completed, test.n)
	}
}

func TestFullCycleRoutesToLongBreakAndResets(t *testing.T) {
	controller := newController(t, classicConfig())

	for session := 1; session <= 4; session++ {
		assert.Equal(t, model.KindWork, controller.Kind())
		assert.Equal(t, session, controller.SessionInCycle())

		event := finish(t, controller)
		assert.Equal(t, model.KindWork, event.Finished)
		assert.Equal(t, session, controller.CompletedInCycle())

		if session < 4 {
			assert.Equal(t, model.KindShortBreak, event.Next)
			finish(t, controller)
		} else {
			assert.Equal(t, model.KindLongBreak, event.Next)
		}
	}

	event := finish(t, controller)
	assert.Equal(t, model.KindLongBreak, event.Finished)
	assert.Equal(t, model.KindWork, event.Next)
	assert.Equal(t, 0, controller.CompletedInCycle())
	assert.Equal(t, 1, controller.SessionInCycle())
}

func TestSkippedWorkDoesNotCount(t *testing.T) {
	controller := newController(t, classicConfig())
	require.NoError(t, controller.Start())
	controller.Update(10 * time.Minute)

	event := controller.Skip()
	assert.Equal(t, cycle.EventCompleted, event.Type)
	assert.False(t, event.Completed)
	assert.Equal(t, model.KindWork, event.Finished)
	assert.Equal(t, model.KindShortBreak, event.Next)
	assert.Equal(t, 0, controller.CompletedInCycle())

	// The collaborator still learns how long the abandoned interval ran.
	assert.Equal(t, 25*time.Minute, event.Planned)
	assert.Equal(t, 10*time.Minute, event.Actual)
}

func TestSkippedLongBreakResetsCounter(t *testing.T) {
	config := classicConfig()
	config.SessionsBeforeLongBreak = 1
	controller := newController(t, config)

	finish(t, controller)
	require.Equal(t, model.KindLongBreak, controller.Kind())
	require.Equal(t, 1, controller.CompletedInCycle())

	event := controller.Skip()
	assert.Equal(t, model.KindWork, event.Next)
	assert.Equal(t, 0, controller.CompletedInCycle())
}

func TestAutoStartPolicy(t *testing.T) {
	config := classicConfig()
	config.AutoStartBreaks = true
	config.AutoStartWork = false
	controller := newController(t, config)

	event := finish(t, controller)
	assert.Equal(t, model.KindShortBreak, event.Next)
	assert.True(t, event.AutoStarted)
	assert.Equal(t, clock.StateRunning, controller.Clock().State())

	event = finish(t, controller)
	assert.Equal(t, model.KindWork, event.Next)
	assert.False(t, event.AutoStarted)
	assert.Equal(t, clock.StateIdle, controller.Clock().State())
}

func TestClassicScenario(t *testing.T) {
	// 25/5/15, N=4, auto-start breaks only. Advancing a running work
	// interval by a total of 25 minutes yields exactly one completion
	// into a running short break of 5 minutes.
	config := classicConfig()
	config.AutoStartBreaks = true
	controller := newController(t, config)
	require.NoError(t, controller.Start())

	var completions []cycle.Event
	for i := 0; i < 25; i++ {
		event := controller.Update(time.Minute)
		if event.Type == cycle.EventCompleted {
			completions = append(completions, event)
		}
	}

	require.Len(t, completions, 1)
	event := completions[0]
	assert.Equal(t, model.KindWork, event.Finished)
	assert.Equal(t, model.KindShortBreak, event.Next)
	assert.True(t, event.AutoStarted)
	assert.True(t, event.Completed)
	assert.Equal(t, 25*time.Minute, event.Planned)
	assert.Equal(t, 25*time.Minute, event.Actual)

	assert.Equal(t, clock.StateRunning, controller.Clock().State())
	assert.Equal(t, 5*time.Minute, controller.Clock().Remaining())
}

func TestUpdateWhileIdleReportsIdle(t *testing.T) {
	controller := newController(t, classicConfig())

	event := controller.Update(time.Minute)
	assert.Equal(t, cycle.EventIdle, event.Type)
	assert.Equal(t, 25*time.Minute, controller.Clock().Remaining())
}

func TestResetKeepsCyclePosition(t *testing.T) {
	controller := newController(t, classicConfig())
	finish(t, controller)
	require.Equal(t, model.KindShortBreak, controller.Kind())
	require.Equal(t, 1, controller.CompletedInCycle())

	require.NoError(t, controller.Start())
	controller.Update(time.Minute)
	controller.Reset()

	assert.Equal(t, model.KindShortBreak, controller.Kind())
	assert.Equal(t, 1, controller.CompletedInCycle())
	assert.Equal(t, clock.StateIdle, controller.Clock().State())
	assert.Equal(t, 5*time.Minute, controller.Clock().Remaining())
}

func TestSetConfigRestartsCycle(t *testing.T) {
	controller := newController(t, classicConfig())
	finish(t, controller)
	require.Equal(t, 1, controller.CompletedInCycle())

	preset := model.ShortPreset().TimerConfig()
	require.NoError(t, controller.SetConfig(preset))

	assert.Equal(t, model.KindWork, controller.Kind())
	assert.Equal(t, 0, controller.CompletedInCycle())
	assert.Equal(t, 15*time.Minute, controller.Clock().Remaining())

	bad := preset
	bad.LongBreakDuration = time.Millisecond
	assert.ErrorIs(t, controller.SetConfig(bad), model.ErrInvalidConfig)
}

func TestSwitchTo(t *testing.T) {
	controller := newController(t, classicConfig())
	controller.SwitchTo(model.KindLongBreak)

	assert.Equal(t, model.KindLongBreak, controller.Kind())
	assert.Equal(t, 15*time.Minute, controller.Clock().Remaining())
	assert.Equal(t, 0, controller.CompletedInCycle())

	// Unknown kinds are ignored.
	controller.SwitchTo(model.Kind("nap"))
	assert.Equal(t, model.KindLongBreak, controller.Kind())
}

func TestSessionInCycleClamped(t *testing.T) {
	controller := newController(t, classicConfig())

	for session := 1; session <= 4; session++ {
		assert.Equal(t, session, controller.SessionInCycle())
		finish(t, controller) // work
		if session < 4 {
			finish(t, controller) // short break
		}
	}

	// During the long break the display stays at "4 of 4".
	require.Equal(t, model.KindLongBreak, controller.Kind())
	assert.Equal(t, 4, controller.SessionInCycle())
}
