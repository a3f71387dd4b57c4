package model

import "time"

// Preset is a named bundle of interval durations.
type Preset struct {
	Name                    string
	WorkMinutes             int
	ShortBreakMinutes       int
	LongBreakMinutes        int
	SessionsBeforeLongBreak int
	Builtin                 bool
}

// TimerConfig converts the preset into a timer configuration.
// Auto-start flags are not part of a preset and default to off.
func (preset Preset) TimerConfig() TimerConfig {
	return TimerConfig{
		WorkDuration:            time.Duration(preset.WorkMinutes) * time.Minute,
		ShortBreakDuration:      time.Duration(preset.ShortBreakMinutes) * time.Minute,
		LongBreakDuration:       time.Duration(preset.LongBreakMinutes) * time.Minute,
		SessionsBeforeLongBreak: preset.SessionsBeforeLongBreak,
	}
}

// ClassicPreset is the traditional 25/5/15 Pomodoro.
func ClassicPreset() Preset {
	return Preset{Name: "Classic", WorkMinutes: 25, ShortBreakMinutes: 5, LongBreakMinutes: 15, SessionsBeforeLongBreak: 4, Builtin: true}
}

// ShortPreset uses 15/3/10 intervals.
func ShortPreset() Preset {
	return Preset{Name: "Short", WorkMinutes: 15, ShortBreakMinutes: 3, LongBreakMinutes: 10, SessionsBeforeLongBreak: 4, Builtin: true}
}

// LongFocusPreset uses 50/10/30 intervals.
func LongFocusPreset() Preset {
	return Preset{Name: "Long Focus", WorkMinutes: 50, ShortBreakMinutes: 10, LongBreakMinutes: 30, SessionsBeforeLongBreak: 2, Builtin: true}
}

// FiftyTwoSeventeenPreset implements the 52/17 method.
func FiftyTwoSeventeenPreset() Preset {
	return Preset{Name: "52/17", WorkMinutes: 52, ShortBreakMinutes: 17, LongBreakMinutes: 30, SessionsBeforeLongBreak: 2, Builtin: true}
}

// BuiltinPresets returns the presets that ship with the application.
func BuiltinPresets() []Preset {
	return []Preset{
		ClassicPreset(),
		ShortPreset(),
		LongFocusPreset(),
		FiftyTwoSeventeenPreset(),
	}
}

// FindPreset looks a preset up by name. The second return value
// reports whether it was found.
func FindPreset(presets []Preset, name string) (Preset, bool) {
	for _, preset := range presets {
		if preset.Name == name {
			return preset, true
		}
	}
	return Preset{}, false
}
