package cli

import (
	"context"
	"sync"
	"time"

	"pomo/internal/core/engine"
	"pomo/internal/core/model"
	"pomo/internal/ipc"
	"pomo/internal/storage/history"
)

const statsQueryTimeout = 3 * time.Second

// commandHandler translates IPC commands into engine calls and history
// queries on the daemon side.
type commandHandler struct {
	host  *engine.Engine
	store *history.Store

	mu        sync.Mutex
	dailyGoal int
}

func newCommandHandler(host *engine.Engine, store *history.Store, dailyGoal int) *commandHandler {
	return &commandHandler{host: host, store: store, dailyGoal: dailyGoal}
}

// setDailyGoal swaps the goal target after a config reload.
func (handler *commandHandler) setDailyGoal(target int) {
	handler.mu.Lock()
	handler.dailyGoal = target
	handler.mu.Unlock()
}

// Handle implements ipc.Handler.
func (handler *commandHandler) Handle(command ipc.Command) ipc.Response {
	switch command.Command {
	case ipc.CommandStart:
		if command.SessionType != "" {
			kind := model.Kind(command.SessionType)
			if !kind.Valid() {
				return ipc.Errorf("unknown session type %q", command.SessionType)
			}
			handler.host.SwitchTo(kind)
		}
		if err := handler.host.Start(); err != nil {
			return ipc.Errorf("cannot start: %v", err)
		}
		return ipc.OKMessage("timer started")

	case ipc.CommandPause:
		if err := handler.host.Pause(); err != nil {
			return ipc.Errorf("cannot pause: %v", err)
		}
		return ipc.OKMessage("timer paused")

	case ipc.CommandResume:
		if err := handler.host.Start(); err != nil {
			return ipc.Errorf("cannot resume: %v", err)
		}
		return ipc.OKMessage("timer resumed")

	case ipc.CommandToggle:
		if err := handler.host.Toggle(); err != nil {
			return ipc.Errorf("cannot toggle: %v", err)
		}
		return ipc.OK()

	case ipc.CommandStop:
		handler.host.Reset()
		return ipc.OKMessage("timer stopped")

	case ipc.CommandSkip:
		handler.host.Skip()
		return ipc.OKMessage("skipped to next interval")

	case ipc.CommandStatus:
		return handler.status()

	case ipc.CommandStats:
		return handler.stats(command.Period)

	default:
		return ipc.Errorf("unknown command %q", command.Command)
	}
}

func (handler *commandHandler) status() ipc.Response {
	snapshot := handler.host.Status()
	return ipc.Response{
		Type: ipc.TypeStatus,
		Status: &ipc.Status{
			State:              string(snapshot.State),
			SessionType:        string(snapshot.Kind),
			RemainingSecs:      int64(snapshot.Remaining / time.Second),
			RemainingFormatted: ipc.FormatRemaining(snapshot.Remaining),
			Progress:           snapshot.Progress,
			CurrentSession:     snapshot.SessionInCycle,
			TotalSessions:      snapshot.SessionsBeforeLongBreak,
			TotalDurationSecs:  int64(snapshot.Total / time.Second),
		},
	}
}

func (handler *commandHandler) stats(period string) ipc.Response {
	ctx, cancel := context.WithTimeout(context.Background(), statsQueryTimeout)
	defer cancel()

	statistics, err := history.LoadStatistics(ctx, handler.store)
	if err != nil {
		return ipc.Errorf("load statistics: %v", err)
	}

	handler.mu.Lock()
	dailyGoal := handler.dailyGoal
	handler.mu.Unlock()

	stats := statsForPeriod(statistics, period, dailyGoal)
	return ipc.Response{Type: ipc.TypeStats, Stats: &stats}
}
