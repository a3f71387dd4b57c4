// Package history persists completed Pomodoro sessions to SQLite and
// serves the aggregated statistics built from them.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"pomo/internal/core/model"
)

// dateLayout is the ISO 8601 date used as the daily_stats key.
const dateLayout = "2006-01-02"

// ErrNoSessions indicates there is no session to operate on.
var ErrNoSessions = errors.New("no sessions recorded")

// Session is one finished interval as reported by the engine.
type Session struct {
	ID        string
	Kind      model.Kind
	Planned   time.Duration
	Actual    time.Duration
	Completed bool
	StartedAt time.Time
	EndedAt   time.Time
}

// DailyStats is one aggregated day.
type DailyStats struct {
	Date                 string
	WorkSeconds          int64
	BreakSeconds         int64
	CompletedPomodoros   int
	InterruptedPomodoros int
}

// Store is a SQLite-backed session history.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the history database at path and migrates
// the schema.
func Open(path string) (*Store, error) {
	return open("file:" + path + "?_busy_timeout=5000&_journal_mode=WAL")
}

// OpenInMemory opens a throwaway database for tests. The store keeps
// a single connection, so the in-memory database lives until Close.
func OpenInMemory() (*Store, error) {
	return open(":memory:")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// SQLite supports a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (store *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			planned_seconds INTEGER NOT NULL,
			actual_seconds INTEGER NOT NULL,
			completed INTEGER NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS daily_stats (
			date TEXT PRIMARY KEY,
			work_seconds INTEGER NOT NULL DEFAULT 0,
			break_seconds INTEGER NOT NULL DEFAULT 0,
			completed_pomodoros INTEGER NOT NULL DEFAULT 0,
			interrupted_pomodoros INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS streaks (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			current_streak INTEGER NOT NULL DEFAULT 0,
			longest_streak INTEGER NOT NULL DEFAULT 0,
			last_active_date TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
		CREATE INDEX IF NOT EXISTS idx_sessions_kind ON sessions(kind);
		INSERT OR IGNORE INTO streaks (id, current_streak, longest_streak) VALUES (1, 0, 0);
	`
	if _, err := store.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate history db: %w", err)
	}
	return nil
}

// Record persists one finished session and folds it into the daily
// aggregates. A missing ID or EndedAt is filled in.
func (store *Store) Record(ctx context.Context, session Session) error {
	if !session.Kind.Valid() {
		return fmt.Errorf("record session: unknown kind %q", session.Kind)
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.EndedAt.IsZero() {
		session.EndedAt = time.Now()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = session.EndedAt.Add(-session.Actual)
	}
	date := session.EndedAt.Local().Format(dateLayout)

	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (id, kind, planned_seconds, actual_seconds, completed, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, string(session.Kind),
		int64(session.Planned.Seconds()), int64(session.Actual.Seconds()),
		boolToInt(session.Completed),
		session.StartedAt.UTC().Format(time.RFC3339),
		session.EndedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO daily_stats (date) VALUES (?) ON CONFLICT(date) DO NOTHING`, date); err != nil {
		return fmt.Errorf("ensure daily stats: %w", err)
	}

	actualSeconds := int64(session.Actual.Seconds())
	if session.Kind == model.KindWork {
		column := "interrupted_pomodoros"
		if session.Completed {
			column = "completed_pomodoros"
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE daily_stats SET work_seconds = work_seconds + ?, `+column+` = `+column+` + 1 WHERE date = ?`,
			actualSeconds, date)
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE daily_stats SET break_seconds = break_seconds + ? WHERE date = ?`,
			actualSeconds, date)
	}
	if err != nil {
		return fmt.Errorf("update daily stats: %w", err)
	}

	if session.Kind == model.KindWork && session.Completed {
		if err := store.updateStreak(ctx, tx, session.EndedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("record session: %w", err)
	}
	return nil
}

func (store *Store) updateStreak(ctx context.Context, tx *sql.Tx, endedAt time.Time) error {
	today := endedAt.Local().Format(dateLayout)
	yesterday := endedAt.Local().AddDate(0, 0, -1).Format(dateLayout)

	var current int
	var lastActive sql.NullString
	err := tx.QueryRowContext(ctx,
		`SELECT current_streak, last_active_date FROM streaks WHERE id = 1`).
		Scan(&current, &lastActive)
	if err != nil {
		return fmt.Errorf("read streak: %w", err)
	}

	next := 1
	switch {
	case lastActive.Valid && lastActive.String == today:
		next = current
	case lastActive.Valid && lastActive.String == yesterday:
		next = current + 1
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE streaks
		 SET current_streak = ?, longest_streak = MAX(longest_streak, ?), last_active_date = ?
		 WHERE id = 1`,
		next, next, today)
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}
	return nil
}

// TodayStats returns today's accumulated work time and completed
// pomodoro count. Missing days report zero.
func (store *Store) TodayStats(ctx context.Context) (time.Duration, int, error) {
	return store.dayStats(ctx, time.Now().Local().Format(dateLayout))
}

func (store *Store) dayStats(ctx context.Context, date string) (time.Duration, int, error) {
	var workSeconds int64
	var pomodoros int
	err := store.db.QueryRowContext(ctx,
		`SELECT work_seconds, completed_pomodoros FROM daily_stats WHERE date = ?`, date).
		Scan(&workSeconds, &pomodoros)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("day stats: %w", err)
	}
	return time.Duration(workSeconds) * time.Second, pomodoros, nil
}

// WeekStats returns work hours per day of the current week, Monday
// first.
func (store *Store) WeekStats(ctx context.Context) ([7]float64, error) {
	var hours [7]float64

	today := time.Now().Local()
	weekday := (int(today.Weekday()) + 6) % 7 // Monday = 0
	monday := today.AddDate(0, 0, -weekday)

	rows, err := store.db.QueryContext(ctx,
		`SELECT date, work_seconds FROM daily_stats WHERE date >= ? AND date <= ? ORDER BY date`,
		monday.Format(dateLayout), today.Format(dateLayout))
	if err != nil {
		return hours, fmt.Errorf("week stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var date string
		var workSeconds int64
		if err := rows.Scan(&date, &workSeconds); err != nil {
			return hours, fmt.Errorf("week stats: %w", err)
		}
		day, err := time.ParseInLocation(dateLayout, date, time.Local)
		if err != nil {
			continue
		}
		index := (int(day.Weekday()) + 6) % 7 // Monday = 0
		hours[index] = float64(workSeconds) / 3600
	}
	return hours, rows.Err()
}

// WeekTotals returns the current week's work duration and completed
// pomodoros, Monday through today.
func (store *Store) WeekTotals(ctx context.Context) (time.Duration, int, error) {
	today := time.Now().Local()
	weekday := (int(today.Weekday()) + 6) % 7 // Monday = 0
	monday := today.AddDate(0, 0, -weekday)

	var workSeconds int64
	var pomodoros int
	err := store.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(work_seconds), 0), COALESCE(SUM(completed_pomodoros), 0)
		 FROM daily_stats WHERE date >= ? AND date <= ?`,
		monday.Format(dateLayout), today.Format(dateLayout)).
		Scan(&workSeconds, &pomodoros)
	if err != nil {
		return 0, 0, fmt.Errorf("week totals: %w", err)
	}
	return time.Duration(workSeconds) * time.Second, pomodoros, nil
}

// TotalStats returns all-time work duration and completed pomodoros.
func (store *Store) TotalStats(ctx context.Context) (time.Duration, int, error) {
	var workSeconds int64
	var pomodoros int
	err := store.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(work_seconds), 0), COALESCE(SUM(completed_pomodoros), 0) FROM daily_stats`).
		Scan(&workSeconds, &pomodoros)
	if err != nil {
		return 0, 0, fmt.Errorf("total stats: %w", err)
	}
	return time.Duration(workSeconds) * time.Second, pomodoros, nil
}

// Streak returns the current and longest daily streak.
func (store *Store) Streak(ctx context.Context) (current, longest int, err error) {
	err = store.db.QueryRowContext(ctx,
		`SELECT current_streak, longest_streak FROM streaks WHERE id = 1`).
		Scan(&current, &longest)
	if err != nil {
		return 0, 0, fmt.Errorf("read streak: %w", err)
	}
	return current, longest, nil
}

// Sessions returns all recorded sessions, newest first.
func (store *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := store.db.QueryContext(ctx,
		`SELECT id, kind, planned_seconds, actual_seconds, completed, started_at, ended_at
		 FROM sessions ORDER BY started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []Session
	for rows.Next() {
		var session Session
		var kind string
		var plannedSeconds, actualSeconds int64
		var completed int
		var startedAt, endedAt string
		if err := rows.Scan(&session.ID, &kind, &plannedSeconds, &actualSeconds, &completed, &startedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		session.Kind = model.Kind(kind)
		session.Planned = time.Duration(plannedSeconds) * time.Second
		session.Actual = time.Duration(actualSeconds) * time.Second
		session.Completed = completed != 0
		session.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		session.EndedAt, _ = time.Parse(time.RFC3339, endedAt)
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// AllDailyStats returns every aggregated day, newest first.
func (store *Store) AllDailyStats(ctx context.Context) ([]DailyStats, error) {
	rows, err := store.db.QueryContext(ctx,
		`SELECT date, work_seconds, break_seconds, completed_pomodoros, interrupted_pomodoros
		 FROM daily_stats ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list daily stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var days []DailyStats
	for rows.Next() {
		var day DailyStats
		if err := rows.Scan(&day.Date, &day.WorkSeconds, &day.BreakSeconds, &day.CompletedPomodoros, &day.InterruptedPomodoros); err != nil {
			return nil, fmt.Errorf("list daily stats: %w", err)
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// UndoLastWorkSession deletes the most recent work session and backs
// its contribution out of the daily aggregates. It returns the removed
// session, or ErrNoSessions when history holds no work sessions.
// The streak row is untouched: a day stays active once any completed
// work session has landed on it.
func (store *Store) UndoLastWorkSession(ctx context.Context) (Session, error) {
	tx, err := store.db.BeginTx(ctx, nil)
	if err != nil {
		return Session{}, fmt.Errorf("undo session: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var session Session
	var kind string
	var plannedSeconds, actualSeconds int64
	var completed int
	var startedAt, endedAt string
	err = tx.QueryRowContext(ctx,
		`SELECT id, kind, planned_seconds, actual_seconds, completed, started_at, ended_at
		 FROM sessions WHERE kind = ? ORDER BY ended_at DESC LIMIT 1`, string(model.KindWork)).
		Scan(&session.ID, &kind, &plannedSeconds, &actualSeconds, &completed, &startedAt, &endedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNoSessions
	}
	if err != nil {
		return Session{}, fmt.Errorf("undo session: %w", err)
	}
	session.Kind = model.Kind(kind)
	session.Planned = time.Duration(plannedSeconds) * time.Second
	session.Actual = time.Duration(actualSeconds) * time.Second
	session.Completed = completed != 0
	session.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	session.EndedAt, _ = time.Parse(time.RFC3339, endedAt)

	column := "interrupted_pomodoros"
	if session.Completed {
		column = "completed_pomodoros"
	}
	date := session.EndedAt.Local().Format(dateLayout)
	_, err = tx.ExecContext(ctx,
		`UPDATE daily_stats
		 SET work_seconds = MAX(0, work_seconds - ?), `+column+` = MAX(0, `+column+` - 1)
		 WHERE date = ?`,
		actualSeconds, date)
	if err != nil {
		return Session{}, fmt.Errorf("undo session: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, session.ID); err != nil {
		return Session{}, fmt.Errorf("undo session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("undo session: %w", err)
	}
	return session, nil
}

// ResetAll deletes every session, aggregate and streak.
func (store *Store) ResetAll(ctx context.Context) error {
	_, err := store.db.ExecContext(ctx, `
		DELETE FROM sessions;
		DELETE FROM daily_stats;
		UPDATE streaks SET current_streak = 0, longest_streak = 0, last_active_date = NULL WHERE id = 1;
	`)
	if err != nil {
		return fmt.Errorf("reset history: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (store *Store) Close() error {
	return store.db.Close()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
