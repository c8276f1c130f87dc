package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wellbeing/internal/core/model"
)

const dayLayout = "2006-01-02"

// timestampLayout is fixed width so stored timestamps sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

const (
	counterTotalUsage     = "total_usage_seconds"
	counterBlocks         = "blocks"
	counterExtensions     = "extensions"
	counterEmergencyExits = "emergency_exits"
)

// goalWindowDays is the number of days, today included, the goal percentage
// looks back over.
const goalWindowDays = 7

// SessionRecord is one finished session in the history table.
type SessionRecord struct {
	ID          string
	EndedAt     time.Time
	UsedSeconds int
}

// RecordBlock adds a finished session's usage to the counters, today's row
// and the history.
func (s *Store) RecordBlock(ctx context.Context, usedSeconds int, at time.Time) error {
	if usedSeconds < 0 {
		usedSeconds = 0
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := addCounter(ctx, tx, counterTotalUsage, usedSeconds); err != nil {
		return err
	}
	if err := addCounter(ctx, tx, counterBlocks, 1); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO daily_usage(day, usage_seconds, sessions) VALUES(?, ?, 1)
		ON CONFLICT(day) DO UPDATE SET
			usage_seconds = usage_seconds + excluded.usage_seconds,
			sessions = sessions + 1
	`, at.Format(dayLayout), usedSeconds); err != nil {
		return fmt.Errorf("update daily usage: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions(id, ended_at, used_seconds) VALUES(?, ?, ?)
	`, uuid.NewString(), at.UTC().Format(timestampLayout), usedSeconds); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return tx.Commit()
}

// RecordExtension counts one "continue" after a warning.
func (s *Store) RecordExtension(ctx context.Context, _ time.Time) error {
	return addCounter(ctx, s.db, counterExtensions, 1)
}

// RecordEmergencyExit counts one break ended early.
func (s *Store) RecordEmergencyExit(ctx context.Context, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := addCounter(ctx, tx, counterEmergencyExits, 1); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO daily_usage(day, emergency_exits) VALUES(?, 1)
		ON CONFLICT(day) DO UPDATE SET emergency_exits = emergency_exits + 1
	`, at.Format(dayLayout)); err != nil {
		return fmt.Errorf("update daily exits: %w", err)
	}
	return tx.Commit()
}

// Stats returns the aggregate counters as seen at now. Day boundaries follow
// now's location.
func (s *Store) Stats(ctx context.Context, now time.Time) (model.Stats, error) {
	stats := model.DefaultStats()

	counters, err := s.counters(ctx)
	if err != nil {
		return stats, err
	}
	stats.TotalUsageSeconds = counters[counterTotalUsage]
	stats.Blocks = counters[counterBlocks]
	stats.Extensions = counters[counterExtensions]

	today := now.Format(dayLayout)
	err = s.db.QueryRowContext(ctx, `
		SELECT usage_seconds, sessions FROM daily_usage WHERE day = ?
	`, today).Scan(&stats.TodayUsageSeconds, &stats.TodaySessions)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return stats, fmt.Errorf("query today: %w", err)
	}

	if stats.StreakDays, err = s.streak(ctx, now); err != nil {
		return stats, err
	}
	if stats.GoalAchievementPercent, err = s.goalPercent(ctx, now); err != nil {
		return stats, err
	}
	return stats, nil
}

// Sessions returns the most recent finished sessions, newest first.
func (s *Store) Sessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ended_at, used_seconds FROM sessions
		ORDER BY ended_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var records []SessionRecord
	for rows.Next() {
		var (
			record  SessionRecord
			endedAt string
		)
		if err := rows.Scan(&record.ID, &endedAt, &record.UsedSeconds); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		record.EndedAt, err = time.Parse(timestampLayout, endedAt)
		if err != nil {
			return nil, fmt.Errorf("%w: session %s ended_at: %v", model.ErrMalformedData, record.ID, err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// PruneHistory deletes session records that ended before cutoff and returns
// how many were removed. Counters and daily rows are kept.
func (s *Store) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE ended_at < ?
	`, cutoff.UTC().Format(timestampLayout))
	if err != nil {
		return 0, fmt.Errorf("prune sessions: %w", err)
	}
	return result.RowsAffected()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func addCounter(ctx context.Context, db execer, name string, delta int) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO counters(name, value) VALUES(?, ?)
		ON CONFLICT(name) DO UPDATE SET value = value + excluded.value
	`, name, delta)
	if err != nil {
		return fmt.Errorf("update counter %s: %w", name, err)
	}
	return nil
}

func (s *Store) counters(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM counters`)
	if err != nil {
		return nil, fmt.Errorf("query counters: %w", err)
	}
	defer rows.Close()

	counters := make(map[string]int)
	for rows.Next() {
		var (
			name  string
			value int
		)
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("scan counter: %w", err)
		}
		counters[name] = value
	}
	return counters, rows.Err()
}

// streak counts consecutive days with at least one finished session, ending
// today or, when today has none yet, yesterday.
func (s *Store) streak(ctx context.Context, now time.Time) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT day FROM daily_usage WHERE sessions > 0 AND day <= ? ORDER BY day DESC
	`, now.Format(dayLayout))
	if err != nil {
		return 0, fmt.Errorf("query streak: %w", err)
	}
	defer rows.Close()

	today := startOfDay(now)
	expected := today
	streak := 0
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return 0, fmt.Errorf("scan streak day: %w", err)
		}
		parsed, err := time.ParseInLocation(dayLayout, day, now.Location())
		if err != nil {
			return 0, fmt.Errorf("%w: daily_usage day %q", model.ErrMalformedData, day)
		}
		if streak == 0 && parsed.Equal(today.AddDate(0, 0, -1)) {
			expected = parsed
		}
		if !parsed.Equal(expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak, rows.Err()
}

// goalPercent is the share of breaks in the recent window that were not ended
// early. With no breaks in the window the goal is met.
func (s *Store) goalPercent(ctx context.Context, now time.Time) (int, error) {
	since := startOfDay(now).AddDate(0, 0, -(goalWindowDays - 1)).Format(dayLayout)
	var sessions, exits int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(sessions), 0), COALESCE(SUM(emergency_exits), 0)
		FROM daily_usage WHERE day >= ? AND day <= ?
	`, since, now.Format(dayLayout)).Scan(&sessions, &exits)
	if err != nil {
		return 0, fmt.Errorf("query goal: %w", err)
	}
	if sessions <= 0 {
		return 100, nil
	}
	kept := sessions - exits
	if kept < 0 {
		kept = 0
	}
	return kept * 100 / sessions, nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
