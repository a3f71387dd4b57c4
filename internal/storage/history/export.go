package history

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Format selects the export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat maps a user-supplied string onto a Format.
func ParseFormat(value string) (Format, error) {
	switch Format(value) {
	case FormatCSV, FormatJSON:
		return Format(value), nil
	}
	return "", fmt.Errorf("unknown export format %q", value)
}

// ExportSummary heads an export with all-time aggregates.
type ExportSummary struct {
	ExportedAt       string  `json:"exported_at"`
	TotalWorkHours   float64 `json:"total_work_hours"`
	TotalPomodoros   int     `json:"total_pomodoros"`
	DaysTracked      int     `json:"days_tracked"`
	CurrentStreak    int     `json:"current_streak"`
	LongestStreak    int     `json:"longest_streak"`
	AvgDailyHours    float64 `json:"average_daily_hours"`
	AvgDailyPomodoro float64 `json:"average_daily_pomodoros"`
}

type exportSession struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"`
	PlannedSeconds int64  `json:"planned_seconds"`
	ActualSeconds  int64  `json:"actual_seconds"`
	Completed      bool   `json:"completed"`
	StartedAt      string `json:"started_at"`
	EndedAt        string `json:"ended_at"`
}

type exportData struct {
	Summary    ExportSummary   `json:"summary"`
	DailyStats []DailyStats    `json:"daily_stats"`
	Sessions   []exportSession `json:"sessions"`
}

// Export writes the full history (summary, daily aggregates, session
// rows) to w in the requested format.
func Export(ctx context.Context, store *Store, w io.Writer, format Format) error {
	data, err := gatherExport(ctx, store)
	if err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(data); err != nil {
			return fmt.Errorf("export json: %w", err)
		}
		return nil
	case FormatCSV:
		return exportCSV(w, data)
	}
	return fmt.Errorf("unknown export format %q", format)
}

func gatherExport(ctx context.Context, store *Store) (exportData, error) {
	sessions, err := store.Sessions(ctx)
	if err != nil {
		return exportData{}, err
	}
	days, err := store.AllDailyStats(ctx)
	if err != nil {
		return exportData{}, err
	}
	current, longest, err := store.Streak(ctx)
	if err != nil {
		return exportData{}, err
	}

	var totalWorkSeconds int64
	var totalPomodoros int
	for _, day := range days {
		totalWorkSeconds += day.WorkSeconds
		totalPomodoros += day.CompletedPomodoros
	}

	summary := ExportSummary{
		ExportedAt:     time.Now().Format("2006-01-02 15:04:05"),
		TotalWorkHours: float64(totalWorkSeconds) / 3600,
		TotalPomodoros: totalPomodoros,
		DaysTracked:    len(days),
		CurrentStreak:  current,
		LongestStreak:  longest,
	}
	if len(days) > 0 {
		summary.AvgDailyHours = summary.TotalWorkHours / float64(len(days))
		summary.AvgDailyPomodoro = float64(totalPomodoros) / float64(len(days))
	}

	exported := make([]exportSession, 0, len(sessions))
	for _, session := range sessions {
		exported = append(exported, exportSession{
			ID:             session.ID,
			Kind:           string(session.Kind),
			PlannedSeconds: int64(session.Planned.Seconds()),
			ActualSeconds:  int64(session.Actual.Seconds()),
			Completed:      session.Completed,
			StartedAt:      session.StartedAt.UTC().Format(time.RFC3339),
			EndedAt:        session.EndedAt.UTC().Format(time.RFC3339),
		})
	}

	return exportData{Summary: summary, DailyStats: days, Sessions: exported}, nil
}

func exportCSV(w io.Writer, data exportData) error {
	writer := csv.NewWriter(w)

	records := [][]string{
		{"# summary"},
		{"exported_at", "total_work_hours", "total_pomodoros", "days_tracked", "current_streak", "longest_streak"},
		{
			data.Summary.ExportedAt,
			strconv.FormatFloat(data.Summary.TotalWorkHours, 'f', 2, 64),
			strconv.Itoa(data.Summary.TotalPomodoros),
			strconv.Itoa(data.Summary.DaysTracked),
			strconv.Itoa(data.Summary.CurrentStreak),
			strconv.Itoa(data.Summary.LongestStreak),
		},
		{"# daily_stats"},
		{"date", "work_seconds", "break_seconds", "completed_pomodoros", "interrupted_pomodoros"},
	}
	for _, day := range data.DailyStats {
		records = append(records, []string{
			day.Date,
			strconv.FormatInt(day.WorkSeconds, 10),
			strconv.FormatInt(day.BreakSeconds, 10),
			strconv.Itoa(day.CompletedPomodoros),
			strconv.Itoa(day.InterruptedPomodoros),
		})
	}
	records = append(records,
		[]string{"# sessions"},
		[]string{"id", "kind", "planned_seconds", "actual_seconds", "completed", "started_at", "ended_at"},
	)
	for _, session := range data.Sessions {
		records = append(records, []string{
			session.ID,
			session.Kind,
			strconv.FormatInt(session.PlannedSeconds, 10),
			strconv.FormatInt(session.ActualSeconds, 10),
			strconv.FormatBool(session.Completed),
			session.StartedAt,
			session.EndedAt,
		})
	}

	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return nil
}
