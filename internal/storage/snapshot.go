package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"wellbeing/internal/core/model"
)

// SaveSnapshot replaces the stored session snapshot.
func (s *Store) SaveSnapshot(ctx context.Context, snapshot model.Snapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_snapshot(id, phase, paused, remaining_seconds, total_seconds, warning_issued, captured_at_ms)
		VALUES(1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			paused = excluded.paused,
			remaining_seconds = excluded.remaining_seconds,
			total_seconds = excluded.total_seconds,
			warning_issued = excluded.warning_issued,
			captured_at_ms = excluded.captured_at_ms
	`,
		string(snapshot.Phase),
		boolToInt(snapshot.Paused),
		snapshot.RemainingSeconds,
		snapshot.TotalSeconds,
		boolToInt(snapshot.WarningIssued),
		snapshot.CapturedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot. ok is false when none was saved.
func (s *Store) LoadSnapshot(ctx context.Context) (model.Snapshot, bool, error) {
	var (
		snapshot   model.Snapshot
		phase      string
		paused     int
		warning    int
		capturedMs int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT phase, paused, remaining_seconds, total_seconds, warning_issued, captured_at_ms
		FROM session_snapshot WHERE id = 1
	`).Scan(&phase, &paused, &snapshot.RemainingSeconds, &snapshot.TotalSeconds, &warning, &capturedMs)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, fmt.Errorf("load snapshot: %w", err)
	}

	snapshot.Phase = model.Phase(phase)
	snapshot.Paused = paused != 0
	snapshot.WarningIssued = warning != 0
	snapshot.CapturedAt = time.UnixMilli(capturedMs)
	return snapshot, true, nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
