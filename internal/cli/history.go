package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pomo/internal/storage"
	"pomo/internal/storage/history"
)

// openHistory opens the history database the daemon also uses. WAL
// mode keeps concurrent access from a running daemon safe.
func (app *App) openHistory(config storage.Config) (*history.Store, error) {
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

func (app *App) newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Remove the most recent work session from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, _, err := app.loadConfig()
			if err != nil {
				return err
			}
			store, err := app.openHistory(config)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			session, err := store.UndoLastWorkSession(cmd.Context())
			if errors.Is(err, history.ErrNoSessions) {
				fmt.Fprintln(app.stdout, "no work sessions to undo")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "removed work session from %s (%s)\n",
				session.EndedAt.Local().Format("2006-01-02 15:04"),
				session.Actual)
			return nil
		},
	}
}

func (app *App) newExportCmd() *cobra.Command {
	var formatName string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history as CSV or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := history.ParseFormat(formatName)
			if err != nil {
				return err
			}

			config, _, err := app.loadConfig()
			if err != nil {
				return err
			}
			store, err := app.openHistory(config)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			writer := app.stdout
			if outputPath != "" {
				file, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer func() { _ = file.Close() }()
				writer = file
			}

			if err := history.Export(cmd.Context(), store, writer, format); err != nil {
				return err
			}
			if outputPath != "" {
				fmt.Fprintf(app.stdout, "exported history to %s\n", outputPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&formatName, "format", string(history.FormatCSV), "export format: csv or json")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to a file instead of stdout")
	return cmd
}

func (app *App) newResetHistoryCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset-history",
		Short: "Delete all recorded sessions, aggregates and streaks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to delete history without --force")
			}

			config, _, err := app.loadConfig()
			if err != nil {
				return err
			}
			store, err := app.openHistory(config)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.ResetAll(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(app.stdout, "history cleared")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "confirm deletion")
	return cmd
}
