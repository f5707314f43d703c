package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/smssensor"
)

// UpsertSubscription creates or refreshes a schedule. The key is the UMN
// when the mandate carries one, (merchant, issuer) otherwise, so re-parsing
// the same mandate message is idempotent. A mandate without a frequency
// leaves the prior value in place.
func (s *SQLite) UpsertSubscription(ctx context.Context, sub *smssensor.SubscriptionSchedule) error {
	return WithTx(s.db, func(tx *sql.Tx) error {
		if sub.UMN != "" {
			res, err := tx.ExecContext(ctx, `
			UPDATE subscriptions SET
			 merchant = ?, issuer = ?, amount = ?,
			 frequency = CASE WHEN ? != '' THEN ? ELSE frequency END,
			 next_charge_at = COALESCE(?, next_charge_at),
			 state = ?, updated_at = CURRENT_TIMESTAMP
			WHERE umn = ?`,
				sub.Merchant, sub.Issuer, sub.Amount.String(),
				sub.Frequency, sub.Frequency,
				nullTime(sub.NextChargeAt), sub.State, sub.UMN)
			if err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err != nil {
				return err
			} else if n > 0 {
				return nil
			}
		}
		_, err := tx.ExecContext(ctx, `
		INSERT INTO subscriptions(id, merchant, issuer, umn, amount, frequency, next_charge_at, state, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, CASE WHEN ? != '' THEN ? ELSE 'monthly' END, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		ON CONFLICT(merchant, issuer) DO UPDATE SET
		 umn = CASE WHEN excluded.umn != '' THEN excluded.umn ELSE subscriptions.umn END,
		 amount = excluded.amount,
		 frequency = CASE WHEN ? != '' THEN excluded.frequency ELSE subscriptions.frequency END,
		 next_charge_at = COALESCE(excluded.next_charge_at, subscriptions.next_charge_at),
		 state = excluded.state,
		 updated_at = CURRENT_TIMESTAMP`,
			sub.ID, sub.Merchant, sub.Issuer, sub.UMN, sub.Amount.String(),
			sub.Frequency, sub.Frequency, nullTime(sub.NextChargeAt), sub.State,
			sub.Frequency)
		return err
	})
}

// ActiveSubscriptions lists schedules in the active state.
func (s *SQLite) ActiveSubscriptions(ctx context.Context) ([]smssensor.SubscriptionSchedule, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, merchant, issuer, umn, amount, frequency, next_charge_at, last_charge_at, state
	FROM subscriptions WHERE state = ? ORDER BY merchant`, smssensor.SubscriptionActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []smssensor.SubscriptionSchedule
	for rows.Next() {
		var sub smssensor.SubscriptionSchedule
		var amount string
		var next, last sql.NullTime
		if err := rows.Scan(&sub.ID, &sub.Merchant, &sub.Issuer, &sub.UMN,
			&amount, &sub.Frequency, &next, &last, &sub.State); err != nil {
			return nil, err
		}
		if sub.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("decode amount: %w", err)
		}
		sub.NextChargeAt = next.Time
		sub.LastChargeAt = last.Time
		out = append(out, sub)
	}
	return out, rows.Err()
}

// AdvanceSubscription records a charge against a schedule and moves the
// next expected charge forward. Each column only ever moves forward, so two
// workers advancing the same schedule from stale reads cannot regress it.
func (s *SQLite) AdvanceSubscription(ctx context.Context, id string, lastCharge, nextCharge time.Time) error {
	_, err := s.db.ExecContext(ctx, `
	UPDATE subscriptions SET
	 last_charge_at = CASE WHEN last_charge_at IS NULL OR last_charge_at < ? THEN ? ELSE last_charge_at END,
	 next_charge_at = CASE WHEN next_charge_at IS NULL OR next_charge_at < ? THEN ? ELSE next_charge_at END,
	 updated_at = CURRENT_TIMESTAMP
	WHERE id = ?`,
		lastCharge, lastCharge, nextCharge, nextCharge, id)
	return err
}

// HideSubscription removes a schedule from matching without deleting it.
func (s *SQLite) HideSubscription(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `
	UPDATE subscriptions SET state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		smssensor.SubscriptionHidden, id)
	return err
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
