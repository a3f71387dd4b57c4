package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pomo/internal/core/cycle"
	"pomo/internal/core/engine"
	"pomo/internal/ipc"
	"pomo/internal/logging"
	"pomo/internal/platform"
	"pomo/internal/storage"
	"pomo/internal/storage/history"
)

const instanceName = "pomo-daemon"

// sessionRecorder feeds finished intervals from the engine into the
// history store.
type sessionRecorder struct {
	store *history.Store
}

func (recorder sessionRecorder) Record(ctx context.Context, record engine.Record) error {
	return recorder.store.Record(ctx, history.Session{
		Kind:      record.Kind,
		Planned:   record.Planned,
		Actual:    record.Actual,
		Completed: record.Completed,
		StartedAt: record.StartedAt,
		EndedAt:   record.EndedAt,
	})
}

func (app *App) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the timer daemon",
		Long: `Run the timer daemon in the foreground. The daemon owns the timer,
records finished sessions to the history database and answers client
commands on a localhost socket until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.runDaemon(cmd.Context())
		},
	}
}

func (app *App) runDaemon(ctx context.Context) error {
	config, configPath, err := app.loadConfig()
	if err != nil {
		return err
	}
	logging.Init(config.Logging)

	guard, err := platform.AcquireSingleInstance(instanceName)
	if err != nil {
		return fmt.Errorf("another pomo daemon is already running")
	}
	defer func() { _ = guard.Release() }()

	presetsPath, err := storage.DefaultPresetsPath()
	if err != nil {
		return err
	}
	presets, err := storage.LoadPresets(presetsPath)
	if err != nil {
		logging.Warn().Err(err).Msg("preset file ignored")
	}

	timerConfig, err := config.TimerConfig(presets)
	if err != nil {
		return fmt.Errorf("resolve timer config: %w", err)
	}

	historyPath, err := config.HistoryPath()
	if err != nil {
		return err
	}
	store, err := history.Open(historyPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	host, err := engine.New(timerConfig, sessionRecorder{store: store}, engine.Options{TickInterval: time.Second})
	if err != nil {
		return err
	}
	host.Run()
	defer host.Stop()

	handler := newCommandHandler(host, store, config.Goals.DailyPomodoros)
	server, err := ipc.Listen(config.IPC.Port, handler)
	if err != nil {
		return err
	}
	go server.Serve()
	defer func() { _ = server.Close() }()

	go app.logCompletions(host.Subscribe(16))

	go func() {
		_ = storage.WatchConfig(ctx, configPath, func(updated storage.Config) {
			reloadedConfig, err := updated.TimerConfig(presets)
			if err != nil {
				logging.Warn().Err(err).Msg("reloaded config rejected")
				return
			}
			if err := host.UpdateConfig(reloadedConfig); err != nil {
				logging.Warn().Err(err).Msg("reloaded config rejected")
				return
			}
			handler.setDailyGoal(updated.Goals.DailyPomodoros)
		})
	}()

	logging.Info().
		Int("port", config.IPC.Port).
		Str("history", historyPath).
		Msg("daemon started")

	<-ctx.Done()
	logging.Info().Msg("daemon stopping")
	return nil
}

// logCompletions records interval transitions in the daemon log.
func (app *App) logCompletions(events <-chan cycle.Event) {
	for event := range events {
		if event.Type != cycle.EventCompleted {
			continue
		}
		logging.Info().
			Str("finished", string(event.Finished)).
			Str("next", string(event.Next)).
			Bool("completed", event.Completed).
			Bool("auto_started", event.AutoStarted).
			Msg("interval finished")
	}
}
