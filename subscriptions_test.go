package smssensor

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jask/smssensor/parser"
)

func seedSubscription(t *testing.T, store *fakeStore, merchant, issuer string, amount float64, next time.Time) *SubscriptionSchedule {
	t.Helper()
	sub := &SubscriptionSchedule{
		ID:           "sub-" + merchant,
		Merchant:     merchant,
		Issuer:       issuer,
		Amount:       decimal.NewFromFloat(amount),
		Frequency:    FrequencyMonthly,
		NextChargeAt: next,
		State:        SubscriptionActive,
	}
	require.NoError(t, store.UpsertSubscription(context.Background(), sub))
	return sub
}

func debitRecord(merchant, issuer string, amount float64) TransactionRecord {
	return TransactionRecord{
		Issuer:    issuer,
		Merchant:  merchant,
		Amount:    decimal.NewFromFloat(amount),
		Direction: parser.Debit,
	}
}

func TestMatchAmountTolerance(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := NewSubscriptionMatcher(store, 0.05)
	seedSubscription(t, store, "Netflix", "HDFC Bank", 199, time.Time{})
	ctx := context.Background()

	rec := debitRecord("NETFLIX", "HDFC Bank", 199)
	sub, err := m.Match(ctx, &rec)
	require.NoError(t, err)
	require.NotNil(t, sub)

	// 5% of 199 is 9.95: a price bump inside the band still matches.
	rec = debitRecord("NETFLIX", "HDFC Bank", 207)
	sub, err = m.Match(ctx, &rec)
	require.NoError(t, err)
	require.NotNil(t, sub)

	rec = debitRecord("NETFLIX", "HDFC Bank", 210)
	sub, err = m.Match(ctx, &rec)
	require.NoError(t, err)
	require.Nil(t, sub)
}

func TestMatchFuzzyMerchantNames(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := NewSubscriptionMatcher(store, 0.05)
	seedSubscription(t, store, "Netflix Premium", "HDFC Bank", 199, time.Time{})
	seedSubscription(t, store, "SWIGGY", "ICICI Bank", 149, time.Time{})
	ctx := context.Background()

	// Short-vs-long containment.
	rec := debitRecord("NETFLIX", "HDFC Bank", 199)
	sub, err := m.Match(ctx, &rec)
	require.NoError(t, err)
	require.NotNil(t, sub)
	require.Equal(t, "Netflix Premium", sub.Merchant)

	// A one-character spelling drift.
	rec = debitRecord("SWIGY", "ICICI Bank", 149)
	sub, err = m.Match(ctx, &rec)
	require.NoError(t, err)
	require.NotNil(t, sub)

	rec = debitRecord("ZOMATO", "ICICI Bank", 149)
	sub, err = m.Match(ctx, &rec)
	require.NoError(t, err)
	require.Nil(t, sub)
}

func TestMatchFiltersByIssuerAndDirection(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := NewSubscriptionMatcher(store, 0.05)
	seedSubscription(t, store, "Netflix", "HDFC Bank", 199, time.Time{})
	ctx := context.Background()

	rec := debitRecord("NETFLIX", "ICICI Bank", 199)
	sub, err := m.Match(ctx, &rec)
	require.NoError(t, err)
	require.Nil(t, sub)

	refund := debitRecord("NETFLIX", "HDFC Bank", 199)
	refund.Direction = parser.Income
	sub, err = m.Match(ctx, &refund)
	require.NoError(t, err)
	require.Nil(t, sub)

	anonymous := debitRecord("", "HDFC Bank", 199)
	sub, err = m.Match(ctx, &anonymous)
	require.NoError(t, err)
	require.Nil(t, sub)
}

func TestAdvanceReanchorsOnChargeDate(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := NewSubscriptionMatcher(store, 0.05)
	next := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	sub := seedSubscription(t, store, "Netflix", "HDFC Bank", 199, next)
	ctx := context.Background()

	// A charge months late re-anchors the schedule on the day it cleared.
	chargedAt := time.Date(2026, 11, 20, 8, 0, 0, 0, time.UTC)
	require.NoError(t, m.Advance(ctx, sub, chargedAt))

	got := store.subscriptionByMerchant("Netflix")
	require.Equal(t, time.Date(2026, 12, 20, 8, 0, 0, 0, time.UTC), got.NextChargeAt)
	require.Equal(t, chargedAt, got.LastChargeAt)
}

func TestAdvanceRecordsMidCycleCharge(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := NewSubscriptionMatcher(store, 0.05)
	next := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	sub := seedSubscription(t, store, "Netflix", "HDFC Bank", 199, next)
	ctx := context.Background()

	// A charge ten days early still counts: the next charge moves one
	// period out from it, and the charge itself is recorded.
	chargedAt := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, m.Advance(ctx, sub, chargedAt))

	got := store.subscriptionByMerchant("Netflix")
	require.Equal(t, time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), got.NextChargeAt)
	require.Equal(t, chargedAt, got.LastChargeAt)
}

func TestAdvanceNeverMovesBackwards(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := NewSubscriptionMatcher(store, 0.05)
	sub := seedSubscription(t, store, "Netflix", "HDFC Bank", 199,
		time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	chargedAt := time.Date(2026, 9, 15, 6, 0, 0, 0, time.UTC)
	require.NoError(t, m.Advance(ctx, sub, chargedAt))

	// A replayed charge from a previous cycle leaves both dates alone.
	require.NoError(t, m.Advance(ctx, sub, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))

	got := store.subscriptionByMerchant("Netflix")
	require.Equal(t, time.Date(2026, 10, 15, 6, 0, 0, 0, time.UTC), got.NextChargeAt)
	require.Equal(t, chargedAt, got.LastChargeAt)
}

func TestAdvanceFrequencies(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	cases := map[string]time.Time{
		FrequencyWeekly:    base.AddDate(0, 0, 7),
		FrequencyMonthly:   base.AddDate(0, 1, 0),
		FrequencyQuarterly: base.AddDate(0, 3, 0),
		FrequencyYearly:    base.AddDate(1, 0, 0),
		"":                 base.AddDate(0, 1, 0),
	}
	for freq, want := range cases {
		require.Equal(t, want, addPeriod(base, freq), "frequency: %q", freq)
	}
}

func TestCreateOrUpdateKeepsPriorFrequency(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := NewSubscriptionMatcher(store, 0.05)
	ctx := context.Background()

	info := parser.MandateInfo{
		Merchant:  "Spotify",
		Amount:    decimal.NewFromFloat(119),
		UMN:       "spot119@fed",
		Frequency: FrequencyYearly,
	}
	require.NoError(t, m.CreateOrUpdate(ctx, "Federal Bank", info))

	// A renewal notice that omits the frequency keeps the recorded one.
	info.Frequency = ""
	info.Amount = decimal.NewFromFloat(129)
	require.NoError(t, m.CreateOrUpdate(ctx, "Federal Bank", info))

	sub := store.subscriptionByMerchant("Spotify")
	require.NotNil(t, sub)
	require.Equal(t, FrequencyYearly, sub.Frequency)
	require.Equal(t, "129", sub.Amount.String())
}

func TestCreateOrUpdateIdempotentByUMN(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	m := NewSubscriptionMatcher(store, 0.05)
	ctx := context.Background()

	info := parser.MandateInfo{
		Merchant:      "Netflix",
		Amount:        decimal.NewFromFloat(199),
		UMN:           "abc123@hdfc",
		NextDeduction: time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, m.CreateOrUpdate(ctx, "HDFC Bank", info))
	require.NoError(t, m.CreateOrUpdate(ctx, "HDFC Bank", info))
	require.Len(t, store.subs, 1)

	sub := store.subscriptionByMerchant("Netflix")
	require.Equal(t, FrequencyMonthly, sub.Frequency, "unstated frequency defaults to monthly")
	require.Equal(t, info.NextDeduction, sub.NextChargeAt)
}
