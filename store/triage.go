package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/jask/smssensor"
)

// TriageUnrecognized parks a financial-looking message that no parser
// claimed. Duplicate (sender, body) pairs are collapsed so rescans do not
// pile up copies.
func (s *SQLite) TriageUnrecognized(ctx context.Context, sender, body string, receivedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT OR IGNORE INTO unrecognized_messages(id, sender, body, received_at)
	VALUES(?, ?, ?, ?)`,
		uuid.NewString(), sender, body, receivedAt)
	return err
}

// PurgeUnrecognizedBefore deletes triaged messages received before cutoff
// and reports how many went.
func (s *SQLite) PurgeUnrecognizedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
	DELETE FROM unrecognized_messages WHERE received_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LastCheckpoint returns the previous scan checkpoint, nil on first run.
func (s *SQLite) LastCheckpoint(ctx context.Context) (*smssensor.Checkpoint, error) {
	var cp smssensor.Checkpoint
	err := s.db.QueryRowContext(ctx, `
	SELECT last_scan_at, lookback_days FROM scan_state WHERE id = 1`).
		Scan(&cp.ScannedAt, &cp.LookbackDays)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cp, nil
}

// SetCheckpoint records where the next incremental scan should resume from.
func (s *SQLite) SetCheckpoint(ctx context.Context, cp smssensor.Checkpoint) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO scan_state(id, last_scan_at, lookback_days, updated_at)
	VALUES(1, ?, ?, CURRENT_TIMESTAMP)
	ON CONFLICT(id) DO UPDATE SET
	 last_scan_at = excluded.last_scan_at,
	 lookback_days = excluded.lookback_days,
	 updated_at = CURRENT_TIMESTAMP`,
		cp.ScannedAt, cp.LookbackDays)
	return err
}
