package smssensor

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/smssensor/parser"
)

func cardCharge(issuer, suffix string, amount float64, at time.Time) TransactionRecord {
	return TransactionRecord{
		ID:            "t-" + at.Format("150405"),
		Issuer:        issuer,
		AccountSuffix: suffix,
		Amount:        decimal.NewFromFloat(amount),
		Direction:     parser.Credit,
		IsFromCard:    true,
		OccurredAt:    at,
		RawBody:       "card charge",
	}
}

func TestApplyBalanceUpdateRecordsVerbatim(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := NewBalanceReconciler(store)
	ctx := context.Background()

	info := parser.BalanceInfo{
		AccountSuffix: "9876",
		Balance:       decimal.NewFromFloat(45250.75),
		AsOf:          time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.ApplyBalanceUpdate(ctx, "HDFC Bank", info, "A/c balance as on 12-AUG-26 is INR 45,250.75"))

	snap, err := store.LatestBalance(ctx, "HDFC Bank", "9876")
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Equal(t, "45250.75", snap.Balance.String())
	require.False(t, snap.IsCreditCard)
	require.NotEmpty(t, snap.SourceExcerpt)
}

func TestApplyBalanceUpdateCreditCardFlagIsSticky(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := NewBalanceReconciler(store)
	ctx := context.Background()

	first := parser.BalanceInfo{
		AccountSuffix: "4421",
		Balance:       decimal.NewFromFloat(12000),
		IsCreditCard:  true,
		AsOf:          time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.ApplyBalanceUpdate(ctx, "SBI Card", first, "total amount due"))

	// The next statement omits the card wording; the account stays a card.
	second := parser.BalanceInfo{
		AccountSuffix: "4421",
		Balance:       decimal.NewFromFloat(14000),
		AsOf:          time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.ApplyBalanceUpdate(ctx, "SBI Card", second, "amount due"))

	snap, err := store.LatestBalance(ctx, "SBI Card", "4421")
	require.NoError(t, err)
	require.True(t, snap.IsCreditCard)
	require.Equal(t, "14000", snap.Balance.String())
}

func TestReconcileCreditCardChargesAccumulate(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := NewBalanceReconciler(store)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	amounts := []float64{450, 1200, 89.50}
	for i, amt := range amounts {
		rec := cardCharge("HDFC Bank", "5678", amt, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, r.ReconcileTransaction(ctx, &rec))
	}

	snap, err := store.LatestBalance(ctx, "HDFC Bank", "5678")
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.Equal(t, "1739.5", snap.Balance.String())
	require.True(t, snap.IsCreditCard)
	require.Equal(t, len(amounts), store.snapshotCount(), "history is append-only")
}

func TestReconcilePaymentShrinksCardBalanceClampedAtZero(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := NewBalanceReconciler(store)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	charge := cardCharge("HDFC Bank", "5678", 300, base)
	require.NoError(t, r.ReconcileTransaction(ctx, &charge))

	// The account is known as a card now, even though the payment itself
	// does not carry card markers.
	payment := TransactionRecord{
		ID:            "pay",
		Issuer:        "HDFC Bank",
		AccountSuffix: "5678",
		Amount:        decimal.NewFromFloat(500),
		Direction:     parser.Income,
		OccurredAt:    base.Add(time.Hour),
		RawBody:       "payment received",
	}
	require.NoError(t, r.ReconcileTransaction(ctx, &payment))

	snap, err := store.LatestBalance(ctx, "HDFC Bank", "5678")
	require.NoError(t, err)
	require.True(t, snap.Balance.IsZero(), "owed amount never goes negative, got %s", snap.Balance)
	require.True(t, snap.IsCreditCard)
}

func TestReconcileExplicitBalanceFieldWins(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := NewBalanceReconciler(store)
	ctx := context.Background()

	bal := decimal.NewFromFloat(10000)
	rec := TransactionRecord{
		ID:            "t1",
		Issuer:        "SBI",
		AccountSuffix: "9031",
		Amount:        decimal.NewFromFloat(55),
		Direction:     parser.Debit,
		Balance:       &bal,
		OccurredAt:    time.Date(2026, 8, 5, 9, 0, 0, 0, time.UTC),
		RawBody:       "debited by 55.0",
	}
	require.NoError(t, r.ReconcileTransaction(ctx, &rec))

	snap, err := store.LatestBalance(ctx, "SBI", "9031")
	require.NoError(t, err)
	require.Equal(t, "10000", snap.Balance.String())
}

func TestReconcileCarriesBalanceForward(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := NewBalanceReconciler(store)
	ctx := context.Background()

	bal := decimal.NewFromFloat(10000)
	first := TransactionRecord{
		ID:            "t1",
		Issuer:        "SBI",
		AccountSuffix: "9031",
		Amount:        decimal.NewFromFloat(55),
		Direction:     parser.Debit,
		Balance:       &bal,
		OccurredAt:    time.Date(2026, 8, 5, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.ReconcileTransaction(ctx, &first))

	// A later alert without a balance field keeps the last observation.
	second := TransactionRecord{
		ID:            "t2",
		Issuer:        "SBI",
		AccountSuffix: "9031",
		Amount:        decimal.NewFromFloat(120),
		Direction:     parser.Debit,
		OccurredAt:    time.Date(2026, 8, 6, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, r.ReconcileTransaction(ctx, &second))

	snap, err := store.LatestBalance(ctx, "SBI", "9031")
	require.NoError(t, err)
	require.Equal(t, "10000", snap.Balance.String())
	require.Equal(t, second.OccurredAt, snap.AsOf)
	require.Equal(t, 2, store.snapshotCount())
}

func TestReconcileUnknownAccountWritesNothing(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := NewBalanceReconciler(store)
	ctx := context.Background()

	rec := TransactionRecord{
		ID:            "t1",
		Issuer:        "Axis Bank",
		AccountSuffix: "4823",
		Amount:        decimal.NewFromFloat(230),
		Direction:     parser.Debit,
		OccurredAt:    time.Now(),
	}
	require.NoError(t, r.ReconcileTransaction(ctx, &rec))
	require.Zero(t, store.snapshotCount())

	noAccount := TransactionRecord{
		ID:         "t2",
		Issuer:     "Axis Bank",
		Amount:     decimal.NewFromFloat(230),
		Direction:  parser.Debit,
		OccurredAt: time.Now(),
	}
	require.NoError(t, r.ReconcileTransaction(ctx, &noAccount))
	require.Zero(t, store.snapshotCount())
}

func TestReconcileCarriesCreditLimitForward(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	r := NewBalanceReconciler(store)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	limit := decimal.NewFromFloat(100000)
	first := cardCharge("ICICI Bank", "0007", 450, base)
	first.CreditLimit = &limit
	require.NoError(t, r.ReconcileTransaction(ctx, &first))

	second := cardCharge("ICICI Bank", "0007", 120, base.Add(time.Hour))
	require.NoError(t, r.ReconcileTransaction(ctx, &second))

	snap, err := store.LatestBalance(ctx, "ICICI Bank", "0007")
	require.NoError(t, err)
	require.NotNil(t, snap.CreditLimit)
	require.Equal(t, "100000", snap.CreditLimit.String())
}
