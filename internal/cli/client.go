package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pomo/internal/core/model"
	"pomo/internal/ipc"
	"pomo/internal/storage"
	"pomo/internal/storage/history"
)

// send delivers one command to the daemon and fails with a hint when
// no daemon answers.
func (app *App) send(command ipc.Command) (ipc.Response, error) {
	config, _, err := app.loadConfig()
	if err != nil {
		return ipc.Response{}, err
	}

	response, err := ipc.Send(config.IPC.Port, command)
	if err != nil {
		return ipc.Response{}, fmt.Errorf("no daemon on port %d (start one with `pomo run`): %w", config.IPC.Port, err)
	}
	if response.Type == ipc.TypeError {
		return ipc.Response{}, fmt.Errorf("%s", response.Message)
	}
	return response, nil
}

// sendSimple runs a fire-and-forget control command and prints the
// daemon's acknowledgement.
func (app *App) sendSimple(command ipc.Command) error {
	response, err := app.send(command)
	if err != nil {
		return err
	}
	if response.Message != "" {
		fmt.Fprintln(app.stdout, response.Message)
	}
	return nil
}

func (app *App) newStartCmd() *cobra.Command {
	var sessionType string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start or resume the timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.sendSimple(ipc.Command{Command: ipc.CommandStart, SessionType: sessionType})
		},
	}
	cmd.Flags().StringVar(&sessionType, "session", "",
		"jump to a specific interval first: work, short_break or long_break")
	return cmd
}

func (app *App) newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause the running timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.sendSimple(ipc.Command{Command: ipc.CommandPause})
		},
	}
}

func (app *App) newResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume",
		Short: "Resume a paused timer",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.sendSimple(ipc.Command{Command: ipc.CommandResume})
		},
	}
}

func (app *App) newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle",
		Short: "Start the timer if stopped, pause it if running",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.sendSimple(ipc.Command{Command: ipc.CommandToggle})
		},
	}
}

func (app *App) newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop and reset the current interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.sendSimple(ipc.Command{Command: ipc.CommandStop})
		},
	}
}

func (app *App) newSkipCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skip",
		Short: "Skip to the next interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.sendSimple(ipc.Command{Command: ipc.CommandSkip})
		},
	}
}

func (app *App) newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check whether a daemon is running",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, _, err := app.loadConfig()
			if err != nil {
				return err
			}
			if !ipc.Running(config.IPC.Port) {
				return fmt.Errorf("no daemon on port %d", config.IPC.Port)
			}
			fmt.Fprintln(app.stdout, "daemon is running")
			return nil
		},
	}
}

func (app *App) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current timer state",
		RunE: func(cmd *cobra.Command, args []string) error {
			response, err := app.send(ipc.Command{Command: ipc.CommandStatus})
			if err != nil {
				return err
			}
			if response.Status == nil {
				return fmt.Errorf("malformed status response")
			}
			app.printStatus(*response.Status)
			return nil
		},
	}
}

func (app *App) printStatus(status ipc.Status) {
	label := model.Kind(status.SessionType).Label()
	fmt.Fprintf(app.stdout, "%s [%s]\n", label, status.State)
	fmt.Fprintf(app.stdout, "  %s remaining (%.0f%%)\n", status.RemainingFormatted, status.Progress*100)
	if status.SessionType == string(model.KindWork) {
		fmt.Fprintf(app.stdout, "  session %d of %d\n", status.CurrentSession, status.TotalSessions)
	}
}

func (app *App) newStatsCmd() *cobra.Command {
	var period string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show work statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch period {
			case ipc.PeriodToday, ipc.PeriodWeek, ipc.PeriodAll:
			default:
				return fmt.Errorf("unknown period %q (use today, week or all)", period)
			}
			stats, err := app.fetchStats(cmd.Context(), period)
			if err != nil {
				return err
			}
			app.printStats(stats)
			return nil
		},
	}
	cmd.Flags().StringVar(&period, "period", ipc.PeriodToday, "stats window: today, week or all")
	return cmd
}

// fetchStats asks the daemon when one is running and falls back to
// reading the history database directly otherwise.
func (app *App) fetchStats(ctx context.Context, period string) (ipc.Stats, error) {
	config, _, err := app.loadConfig()
	if err != nil {
		return ipc.Stats{}, err
	}

	if ipc.Running(config.IPC.Port) {
		response, err := ipc.Send(config.IPC.Port, ipc.Command{Command: ipc.CommandStats, Period: period})
		if err != nil {
			return ipc.Stats{}, err
		}
		if response.Type == ipc.TypeError {
			return ipc.Stats{}, fmt.Errorf("%s", response.Message)
		}
		if response.Stats == nil {
			return ipc.Stats{}, fmt.Errorf("malformed stats response")
		}
		return *response.Stats, nil
	}

	store, err := app.openHistory(config)
	if err != nil {
		return ipc.Stats{}, err
	}
	defer func() { _ = store.Close() }()

	statistics, err := history.LoadStatistics(ctx, store)
	if err != nil {
		return ipc.Stats{}, err
	}
	return statsForPeriod(statistics, period, config.Goals.DailyPomodoros), nil
}

// statsForPeriod projects the aggregate onto one reporting window.
func statsForPeriod(statistics history.Statistics, period string, dailyGoal int) ipc.Stats {
	stats := ipc.Stats{
		Period:         period,
		CurrentStreak:  statistics.CurrentStreak,
		LongestStreak:  statistics.LongestStreak,
		DailyGoal:      dailyGoal,
		TodayPomodoros: statistics.TodayPomodoros,
	}
	switch period {
	case ipc.PeriodWeek:
		stats.Hours = statistics.WeekHours()
		stats.Pomodoros = statistics.WeekPomodoros
	case ipc.PeriodAll:
		stats.Hours = float64(statistics.TotalHours())
		stats.Pomodoros = statistics.TotalPomodoros
	default:
		stats.Period = ipc.PeriodToday
		stats.Hours = statistics.TodayHours()
		stats.Pomodoros = statistics.TodayPomodoros
	}
	return stats
}

func (app *App) printStats(stats ipc.Stats) {
	fmt.Fprintf(app.stdout, "%s: %.1fh focused, %d pomodoros\n", stats.Period, stats.Hours, stats.Pomodoros)
	fmt.Fprintf(app.stdout, "streak: %d days (longest %d)\n", stats.CurrentStreak, stats.LongestStreak)
	if stats.DailyGoal > 0 {
		fmt.Fprintf(app.stdout, "daily goal: %d/%d\n", stats.TodayPomodoros, stats.DailyGoal)
	}
}

func (app *App) newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the available timer presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := storage.DefaultPresetsPath()
			if err != nil {
				return err
			}
			presets, err := storage.LoadPresets(path)
			if err != nil {
				return err
			}
			for _, preset := range presets {
				origin := "user"
				if preset.Builtin {
					origin = "builtin"
				}
				fmt.Fprintf(app.stdout, "%-16s %2dm work / %2dm break / %2dm long break, long break every %d  (%s)\n",
					preset.Name, preset.WorkMinutes, preset.ShortBreakMinutes,
					preset.LongBreakMinutes, preset.SessionsBeforeLongBreak, origin)
			}
			return nil
		},
	}
}
