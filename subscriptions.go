package smssensor

import (
	"context"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jask/smssensor/logger"
	"github.com/jask/smssensor/parser"
)

// Subscription billing frequencies. Monthly is the default when a mandate
// message does not state one.
const (
	FrequencyMonthly   = "monthly"
	FrequencyWeekly    = "weekly"
	FrequencyQuarterly = "quarterly"
	FrequencyYearly    = "yearly"
)

// SubscriptionMatcher maintains recurring-charge schedules: it records
// mandates as they arrive and links later debits back to them.
type SubscriptionMatcher struct {
	store     Store
	tolerance decimal.Decimal
}

// NewSubscriptionMatcher builds a matcher with the given amount tolerance,
// expressed as a fraction (0.05 means a charge may deviate 5% from the
// mandate amount and still match).
func NewSubscriptionMatcher(store Store, tolerance float64) *SubscriptionMatcher {
	return &SubscriptionMatcher{
		store:     store,
		tolerance: decimal.NewFromFloat(tolerance),
	}
}

// CreateOrUpdate records a mandate as a subscription schedule. Re-parsing
// the same mandate message is idempotent: the store upserts by UMN when the
// mandate carries one and by (merchant, issuer) otherwise.
func (m *SubscriptionMatcher) CreateOrUpdate(ctx context.Context, issuer string, info parser.MandateInfo) error {
	sub := &SubscriptionSchedule{
		ID:           uuid.NewString(),
		Merchant:     info.Merchant,
		Issuer:       issuer,
		UMN:          info.UMN,
		Amount:       info.Amount,
		Frequency:    info.Frequency, // store keeps the prior value when empty
		NextChargeAt: info.NextDeduction,
		State:        SubscriptionActive,
	}
	return m.store.UpsertSubscription(ctx, sub)
}

// Match finds the active subscription a debit belongs to, or nil. A charge
// matches when the merchant names agree (exact after normalization, or
// within a small edit distance) and the amount is within tolerance of the
// scheduled amount.
func (m *SubscriptionMatcher) Match(ctx context.Context, rec *TransactionRecord) (*SubscriptionSchedule, error) {
	if rec.Direction == parser.Income || rec.Merchant == "" {
		return nil, nil
	}
	subs, err := m.store.ActiveSubscriptions(ctx)
	if err != nil {
		return nil, err
	}
	merchant := normalizeMerchant(rec.Merchant)
	for i := range subs {
		sub := &subs[i]
		if sub.Issuer != "" && rec.Issuer != "" && sub.Issuer != rec.Issuer {
			continue
		}
		if !merchantsMatch(merchant, normalizeMerchant(sub.Merchant)) {
			continue
		}
		if !m.amountWithinTolerance(rec.Amount, sub.Amount) {
			continue
		}
		return sub, nil
	}
	return nil, nil
}

// Advance records the charge that just landed and recomputes the next
// expected charge one billing period out from it, so a charge that arrives
// early or late re-anchors the schedule on the real billing day. The store
// keeps both dates monotonic; replaying an old charge never regresses an
// already-advanced schedule.
func (m *SubscriptionMatcher) Advance(ctx context.Context, sub *SubscriptionSchedule, chargedAt time.Time) error {
	next := addPeriod(chargedAt, sub.Frequency)
	log := logger.FromContext(ctx)
	log.Debug().
		Str("merchant", sub.Merchant).
		Time("next_charge_at", next).
		Msg("advancing subscription schedule")
	return m.store.AdvanceSubscription(ctx, sub.ID, chargedAt, next)
}

func (m *SubscriptionMatcher) amountWithinTolerance(got, want decimal.Decimal) bool {
	if want.IsZero() {
		return got.IsZero()
	}
	diff := got.Sub(want).Abs()
	return diff.LessThanOrEqual(want.Mul(m.tolerance))
}

func addPeriod(t time.Time, frequency string) time.Time {
	switch frequency {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

func normalizeMerchant(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// merchantsMatch allows small spelling drift between the mandate's merchant
// name and the debit's ("Netflix" vs "NETFLIX COM"). Exact match first,
// then containment for short-vs-long forms, then edit distance.
func merchantsMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if len(a) >= 4 && len(b) >= 4 {
		if strings.Contains(a, b) || strings.Contains(b, a) {
			return true
		}
	}
	dist := levenshtein.ComputeDistance(a, b)
	max := len(a)
	if len(b) > max {
		max = len(b)
	}
	if max == 0 {
		return false
	}
	return dist <= max/4
}
