// Package storage reads and writes the user-editable configuration
// files under the OS config directory.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"pomo/internal/core/model"
	"pomo/internal/logging"
)

const (
	appDirName      = "pomo"
	configFileName  = "config.toml"
	presetsFileName = "presets.yaml"
	historyFileName = "history.db"
)

// DefaultIPCPort is the localhost port the daemon listens on.
const DefaultIPCPort = 19847

// TimerSettings is the [timer] section, durations in minutes.
type TimerSettings struct {
	Preset                  string `toml:"preset"`
	WorkMinutes             int    `toml:"work_minutes"`
	ShortBreakMinutes       int    `toml:"short_break_minutes"`
	LongBreakMinutes        int    `toml:"long_break_minutes"`
	SessionsBeforeLongBreak int    `toml:"sessions_before_long_break"`
	AutoStartBreaks         bool   `toml:"auto_start_breaks"`
	AutoStartWork           bool   `toml:"auto_start_work"`
}

// GoalSettings is the [goals] section.
type GoalSettings struct {
	DailyPomodoros int `toml:"daily_pomodoros"`
}

// IPCSettings is the [ipc] section.
type IPCSettings struct {
	Port int `toml:"port"`
}

// StorageSettings is the [storage] section.
type StorageSettings struct {
	// HistoryPath overrides the default history database location.
	HistoryPath string `toml:"history_path"`
}

// Config is the on-disk configuration.
type Config struct {
	Timer   TimerSettings   `toml:"timer"`
	Goals   GoalSettings    `toml:"goals"`
	IPC     IPCSettings     `toml:"ipc"`
	Storage StorageSettings `toml:"storage"`
	Logging logging.Config  `toml:"logging"`
}

// DefaultConfig returns the classic preset with IPC and logging
// defaults.
func DefaultConfig() Config {
	classic := model.ClassicPreset()
	return Config{
		Timer: TimerSettings{
			WorkMinutes:             classic.WorkMinutes,
			ShortBreakMinutes:       classic.ShortBreakMinutes,
			LongBreakMinutes:        classic.LongBreakMinutes,
			SessionsBeforeLongBreak: classic.SessionsBeforeLongBreak,
		},
		Goals:   GoalSettings{DailyPomodoros: 8},
		IPC:     IPCSettings{Port: DefaultIPCPort},
		Logging: logging.DefaultConfig(),
	}
}

// TimerConfig resolves the timer settings into a validated runtime
// configuration. When a preset name is set it supplies the durations;
// auto-start flags always come from the settings.
func (config Config) TimerConfig(presets []model.Preset) (model.TimerConfig, error) {
	timer := config.Timer

	resolved := model.TimerConfig{
		WorkDuration:            time.Duration(timer.WorkMinutes) * time.Minute,
		ShortBreakDuration:      time.Duration(timer.ShortBreakMinutes) * time.Minute,
		LongBreakDuration:       time.Duration(timer.LongBreakMinutes) * time.Minute,
		SessionsBeforeLongBreak: timer.SessionsBeforeLongBreak,
		AutoStartBreaks:         timer.AutoStartBreaks,
		AutoStartWork:           timer.AutoStartWork,
	}

	if timer.Preset != "" {
		preset, ok := model.FindPreset(presets, timer.Preset)
		if !ok {
			return model.TimerConfig{}, fmt.Errorf("unknown preset %q", timer.Preset)
		}
		fromPreset := preset.TimerConfig()
		fromPreset.AutoStartBreaks = timer.AutoStartBreaks
		fromPreset.AutoStartWork = timer.AutoStartWork
		resolved = fromPreset
	}

	if err := resolved.Validate(); err != nil {
		return model.TimerConfig{}, err
	}
	return resolved, nil
}

// DefaultConfigPath returns the config.toml location under the OS
// config directory.
func DefaultConfigPath() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// DefaultPresetsPath returns the presets.yaml location.
func DefaultPresetsPath() (string, error) {
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, presetsFileName), nil
}

// HistoryPath returns the configured history database location, or
// the default next to the config file.
func (config Config) HistoryPath() (string, error) {
	if config.Storage.HistoryPath != "" {
		return config.Storage.HistoryPath, nil
	}
	dir, err := appDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, historyFileName), nil
}

func appDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(configDir, appDirName), nil
}

// LoadConfig reads the configuration from path. A missing file yields
// the defaults without error.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return config, nil
		}
		return config, fmt.Errorf("read config file: %w", err)
	}

	if err := toml.Unmarshal(rawData, &config); err != nil {
		return DefaultConfig(), fmt.Errorf("parse config toml: %w", err)
	}
	if config.IPC.Port <= 0 || config.IPC.Port > 65535 {
		config.IPC.Port = DefaultIPCPort
	}
	return config, nil
}

// SaveConfig writes the configuration to path, creating parent
// directories as needed.
func SaveConfig(path string, config Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	serialized, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshal config toml: %w", err)
	}

	if err := os.WriteFile(path, serialized, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
