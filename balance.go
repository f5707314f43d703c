package smssensor

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/smssensor/logger"
	"github.com/jask/smssensor/parser"
)

// BalanceReconciler derives per-account balance snapshots from two signal
// sources: explicit balance-update notifications and the balance/limit
// fields that sometimes ride along on transaction alerts. History is
// append-only; the current balance of an account is its newest snapshot.
type BalanceReconciler struct {
	store Store
}

func NewBalanceReconciler(store Store) *BalanceReconciler {
	return &BalanceReconciler{store: store}
}

// ApplyBalanceUpdate records an explicit balance notification verbatim.
// These are the issuer's own statement of the balance and always win over
// anything inferred.
func (r *BalanceReconciler) ApplyBalanceUpdate(ctx context.Context, issuer string, info parser.BalanceInfo, body string) error {
	prev, err := r.store.LatestBalance(ctx, issuer, info.AccountSuffix)
	if err != nil {
		return err
	}
	snap := &AccountBalanceSnapshot{
		ID:            uuid.NewString(),
		Issuer:        issuer,
		AccountSuffix: info.AccountSuffix,
		Balance:       info.Balance,
		CreditLimit:   info.CreditLimit,
		IsCreditCard:  info.IsCreditCard,
		SourceExcerpt: excerpt(body),
		AsOf:          info.AsOf,
	}
	// An account that has ever reported as a credit card stays one; later
	// messages often omit the card wording.
	if prev != nil && prev.IsCreditCard {
		snap.IsCreditCard = true
	}
	return r.store.AppendBalanceSnapshot(ctx, snap)
}

// ReconcileTransaction derives a new snapshot from a parsed transaction.
// The rules apply in order; the first that fits wins:
//
//  1. a credit-card charge grows the owed amount by the charge,
//  2. a payment into a known credit-card account shrinks it (never below
//     zero),
//  3. a transaction carrying an explicit balance field sets it verbatim,
//  4. otherwise the previous balance carries forward unchanged — but only
//     for accounts already observed, so unseen accounts never get a
//     fabricated snapshot.
//
// Transactions without an account suffix are ignored: there is no account
// to attribute the balance to.
func (r *BalanceReconciler) ReconcileTransaction(ctx context.Context, rec *TransactionRecord) error {
	if rec.AccountSuffix == "" {
		return nil
	}
	prev, err := r.store.LatestBalance(ctx, rec.Issuer, rec.AccountSuffix)
	if err != nil {
		return err
	}

	isCreditCard := rec.IsFromCard
	if prev != nil && prev.IsCreditCard {
		isCreditCard = true
	}

	var balance decimal.Decimal
	switch {
	case isCreditCard && rec.Direction != parser.Income:
		if prev != nil {
			balance = prev.Balance
		}
		balance = balance.Add(rec.Amount)
	case isCreditCard && rec.Direction == parser.Income:
		if prev != nil {
			balance = prev.Balance
		}
		balance = balance.Sub(rec.Amount)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
	case rec.Balance != nil:
		balance = *rec.Balance
	case prev != nil:
		balance = prev.Balance
	default:
		// Never seen this account and the message says nothing about its
		// balance; writing a snapshot would just invent zero.
		return nil
	}

	snap := &AccountBalanceSnapshot{
		ID:            uuid.NewString(),
		Issuer:        rec.Issuer,
		AccountSuffix: rec.AccountSuffix,
		Balance:       balance,
		CreditLimit:   rec.CreditLimit,
		IsCreditCard:  isCreditCard,
		SourceExcerpt: excerpt(rec.RawBody),
		AsOf:          rec.OccurredAt,
	}
	if snap.CreditLimit == nil && prev != nil {
		snap.CreditLimit = prev.CreditLimit
	}
	log := logger.FromContext(ctx)
	log.Debug().
		Str("issuer", snap.Issuer).
		Str("account", snap.AccountSuffix).
		Str("balance", snap.Balance.StringFixed(2)).
		Bool("credit_card", snap.IsCreditCard).
		Msg("reconciled balance snapshot")
	return r.store.AppendBalanceSnapshot(ctx, snap)
}

const maxExcerptLen = 120

func excerpt(body string) string {
	if len(body) <= maxExcerptLen {
		return body
	}
	return body[:maxExcerptLen]
}
