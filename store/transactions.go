package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/jask/smssensor"
)

// FindByHash returns the transaction with the given content hash,
// tombstoned or not, or nil.
func (s *SQLite) FindByHash(ctx context.Context, hash string) (*smssensor.TransactionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, content_hash, issuer, amount, currency, direction, merchant, reference,
	 account_suffix, balance, credit_limit, occurred_at, raw_body, is_from_card,
	 category, rule_annotations, is_recurring, is_deleted
	FROM transactions WHERE content_hash = ?`, hash)
	rec, err := scanTransaction(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// InsertIfAbsent persists rec unless a record with its content hash already
// exists. The UNIQUE constraint on content_hash makes the check-and-insert
// atomic even across concurrent writers.
func (s *SQLite) InsertIfAbsent(ctx context.Context, rec *smssensor.TransactionRecord) (bool, error) {
	annotations, err := json.Marshal(rec.RuleAnnotations)
	if err != nil {
		return false, fmt.Errorf("encode rule annotations: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO transactions(
	 id, content_hash, issuer, amount, currency, direction, merchant, reference,
	 account_suffix, balance, credit_limit, occurred_at, raw_body, is_from_card,
	 category, rule_annotations, is_recurring, is_deleted, created_at, updated_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP);
	`,
		rec.ID, rec.ContentHash, rec.Issuer, rec.Amount.String(), rec.Currency,
		rec.Direction.String(), rec.Merchant, rec.Reference, rec.AccountSuffix,
		nullDecimal(rec.Balance), nullDecimal(rec.CreditLimit), rec.OccurredAt,
		rec.RawBody, rec.IsFromCard, rec.Category, string(annotations),
		rec.IsRecurring, rec.IsDeleted)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Tombstone soft-deletes a transaction. The row stays so a rescan of the
// same message cannot resurrect it.
func (s *SQLite) Tombstone(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE transactions SET is_deleted = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// ListRecent returns live transactions newest first.
func (s *SQLite) ListRecent(ctx context.Context, limit int) ([]smssensor.TransactionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, content_hash, issuer, amount, currency, direction, merchant, reference,
	 account_suffix, balance, credit_limit, occurred_at, raw_body, is_from_card,
	 category, rule_annotations, is_recurring, is_deleted
	FROM transactions WHERE is_deleted = 0
	ORDER BY occurred_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []smssensor.TransactionRecord
	for rows.Next() {
		rec, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func scanTransaction(sc scanner) (*smssensor.TransactionRecord, error) {
	var rec smssensor.TransactionRecord
	var amount, direction, annotations string
	var balance, creditLimit sql.NullString
	err := sc.Scan(&rec.ID, &rec.ContentHash, &rec.Issuer, &amount, &rec.Currency,
		&direction, &rec.Merchant, &rec.Reference, &rec.AccountSuffix,
		&balance, &creditLimit, &rec.OccurredAt, &rec.RawBody, &rec.IsFromCard,
		&rec.Category, &annotations, &rec.IsRecurring, &rec.IsDeleted)
	if err != nil {
		return nil, err
	}
	if rec.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	rec.Direction = parseDirection(direction)
	if rec.Balance, err = scanNullDecimal(balance); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	if rec.CreditLimit, err = scanNullDecimal(creditLimit); err != nil {
		return nil, fmt.Errorf("decode credit limit: %w", err)
	}
	if annotations != "" {
		if err := json.Unmarshal([]byte(annotations), &rec.RuleAnnotations); err != nil {
			return nil, fmt.Errorf("decode rule annotations: %w", err)
		}
	}
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
