package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jask/smssensor"
)

// AppendBalanceSnapshot records one balance observation. History is
// append-only; nothing is ever updated in place.
func (s *SQLite) AppendBalanceSnapshot(ctx context.Context, snap *smssensor.AccountBalanceSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO balance_snapshots(id, issuer, account_suffix, balance, credit_limit, is_credit_card, source_excerpt, as_of, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`,
		snap.ID, snap.Issuer, snap.AccountSuffix, snap.Balance.String(),
		nullDecimal(snap.CreditLimit), snap.IsCreditCard, snap.SourceExcerpt, snap.AsOf)
	return err
}

// LatestBalance returns the most recent snapshot for an account, or nil
// when the account has never been observed.
func (s *SQLite) LatestBalance(ctx context.Context, issuer, accountSuffix string) (*smssensor.AccountBalanceSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `
	SELECT id, issuer, account_suffix, balance, credit_limit, is_credit_card, source_excerpt, as_of
	FROM balance_snapshots WHERE issuer = ? AND account_suffix = ?
	ORDER BY as_of DESC, created_at DESC LIMIT 1`, issuer, accountSuffix)
	snap, err := scanSnapshot(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return snap, nil
}

// BalanceHistory returns every snapshot for an account, oldest first.
func (s *SQLite) BalanceHistory(ctx context.Context, issuer, accountSuffix string) ([]smssensor.AccountBalanceSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT id, issuer, account_suffix, balance, credit_limit, is_credit_card, source_excerpt, as_of
	FROM balance_snapshots WHERE issuer = ? AND account_suffix = ?
	ORDER BY as_of ASC, created_at ASC`, issuer, accountSuffix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []smssensor.AccountBalanceSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

func scanSnapshot(sc scanner) (*smssensor.AccountBalanceSnapshot, error) {
	var snap smssensor.AccountBalanceSnapshot
	var balance string
	var creditLimit sql.NullString
	err := sc.Scan(&snap.ID, &snap.Issuer, &snap.AccountSuffix, &balance,
		&creditLimit, &snap.IsCreditCard, &snap.SourceExcerpt, &snap.AsOf)
	if err != nil {
		return nil, err
	}
	if snap.Balance, err = decimal.NewFromString(balance); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	if snap.CreditLimit, err = scanNullDecimal(creditLimit); err != nil {
		return nil, fmt.Errorf("decode credit limit: %w", err)
	}
	return &snap, nil
}
