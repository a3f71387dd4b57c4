package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"pomo/internal/logging"
)

// debounceDelay coalesces the bursts of write events editors produce
// when saving a file.
const debounceDelay = 250 * time.Millisecond

// WatchConfig reloads the configuration whenever the file at path
// changes and hands it to onChange. It blocks until ctx is done.
func WatchConfig(ctx context.Context, path string, onChange func(Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Watch the directory: editors often replace the file wholesale,
	// which drops a watch placed on the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch config directory: %w", err)
	}

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				timerCh = timer.C
			} else {
				timer.Reset(debounceDelay)
			}
		case <-timerCh:
			timer = nil
			timerCh = nil
			config, err := LoadConfig(path)
			if err != nil {
				logging.Warn().Err(err).Str("path", path).Msg("config reload failed")
				continue
			}
			logging.Info().Str("path", path).Msg("config reloaded")
			onChange(config)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn().Err(err).Msg("config watcher error")
		}
	}
}
