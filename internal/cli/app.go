// Package cli provides the pomo command line interface: the daemon
// entry point plus the client commands that talk to it over IPC.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"pomo/internal/storage"
)

// Version information set at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// App represents the CLI application.
type App struct {
	root   *cobra.Command
	stdout io.Writer
	stderr io.Writer

	configPath string
}

// New creates a new CLI application.
func New() *App {
	app := &App{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	app.root = &cobra.Command{
		Use:   "pomo",
		Short: "Pomodoro timer with a headless daemon and a scriptable CLI",
		Long: `pomo runs work/break cycles in a background daemon and exposes them
over a localhost socket. The client commands control the running daemon;
history and statistics live in a local SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	app.root.PersistentFlags().StringVarP(&app.configPath, "config", "c", "",
		"path to config.toml (defaults to the user config directory)")

	app.root.AddCommand(
		app.newVersionCmd(),
		app.newRunCmd(),
		app.newStartCmd(),
		app.newPauseCmd(),
		app.newResumeCmd(),
		app.newToggleCmd(),
		app.newStopCmd(),
		app.newSkipCmd(),
		app.newStatusCmd(),
		app.newStatsCmd(),
		app.newPingCmd(),
		app.newPresetsCmd(),
		app.newUndoCmd(),
		app.newExportCmd(),
		app.newResetHistoryCmd(),
	)

	return app
}

// WithOutput sets custom output writers.
func (app *App) WithOutput(stdout, stderr io.Writer) *App {
	app.stdout = stdout
	app.stderr = stderr
	app.root.SetOut(stdout)
	app.root.SetErr(stderr)
	return app
}

// Execute runs the CLI application.
func (app *App) Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return app.root.ExecuteContext(ctx)
}

// ExecuteWithArgs runs the CLI with specific arguments (useful for
// testing).
func (app *App) ExecuteWithArgs(ctx context.Context, args []string) error {
	app.root.SetArgs(args)
	return app.Execute(ctx)
}

// loadConfig resolves the config path (flag first, then the user
// config directory) and loads it. Parse errors fall back to defaults.
func (app *App) loadConfig() (storage.Config, string, error) {
	path := app.configPath
	if path == "" {
		var err error
		path, err = storage.DefaultConfigPath()
		if err != nil {
			return storage.Config{}, "", err
		}
	}

	config, err := storage.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(app.stderr, "warning: %v, using defaults\n", err)
	}
	return config, path, nil
}

// newVersionCmd creates the version command.
func (app *App) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(app.stdout, "pomo version %s (%s)\n", Version, GitCommit)
		},
	}
}
