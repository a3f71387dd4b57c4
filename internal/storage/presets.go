package storage

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pomo/internal/core/model"
)

type yamlPreset struct {
	Name                    string `yaml:"name"`
	WorkMinutes             int    `yaml:"work_minutes"`
	ShortBreakMinutes       int    `yaml:"short_break_minutes"`
	LongBreakMinutes        int    `yaml:"long_break_minutes"`
	SessionsBeforeLongBreak int    `yaml:"sessions_before_long_break"`
}

type yamlPresetFile struct {
	Presets []yamlPreset `yaml:"presets"`
}

// LoadPresets returns the builtin presets merged with any user-defined
// ones from the YAML file at path. A user preset with a builtin's name
// replaces it; a missing file yields the builtins alone.
func LoadPresets(path string) ([]model.Preset, error) {
	presets := model.BuiltinPresets()

	rawData, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return presets, nil
		}
		return presets, fmt.Errorf("read presets file: %w", err)
	}

	var fileData yamlPresetFile
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return presets, fmt.Errorf("parse presets yaml: %w", err)
	}

	for _, entry := range fileData.Presets {
		if entry.Name == "" {
			continue
		}
		preset := model.Preset{
			Name:                    entry.Name,
			WorkMinutes:             entry.WorkMinutes,
			ShortBreakMinutes:       entry.ShortBreakMinutes,
			LongBreakMinutes:        entry.LongBreakMinutes,
			SessionsBeforeLongBreak: entry.SessionsBeforeLongBreak,
		}
		if err := preset.TimerConfig().Validate(); err != nil {
			return presets, fmt.Errorf("preset %q: %w", entry.Name, err)
		}
		presets = mergePreset(presets, preset)
	}
	return presets, nil
}

func mergePreset(presets []model.Preset, preset model.Preset) []model.Preset {
	for i := range presets {
		if presets[i].Name == preset.Name {
			presets[i] = preset
			return presets
		}
	}
	return append(presets, preset)
}
