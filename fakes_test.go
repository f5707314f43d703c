package smssensor

import (
	"context"
	"sync"
	"time"
)

// fakeStore is an in-memory Store mirroring the sqlite implementation's
// semantics: content-hash uniqueness, UMN-first subscription upserts,
// monotonic schedule advances and append-only balance snapshots.
type fakeStore struct {
	mu sync.Mutex

	txns       map[string]*TransactionRecord
	subs       []*SubscriptionSchedule
	snapshots  []*AccountBalanceSnapshot
	rules      []Rule
	overrides  map[string]string
	triaged    map[string]time.Time
	checkpoint *Checkpoint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		txns:      make(map[string]*TransactionRecord),
		overrides: make(map[string]string),
		triaged:   make(map[string]time.Time),
	}
}

func (f *fakeStore) FindByHash(_ context.Context, hash string) (*TransactionRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.txns[hash]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) InsertIfAbsent(_ context.Context, rec *TransactionRecord) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.txns[rec.ContentHash]; ok {
		return false, nil
	}
	cp := *rec
	f.txns[rec.ContentHash] = &cp
	return true, nil
}

func (f *fakeStore) tombstone(hash string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.txns[hash]; ok {
		rec.IsDeleted = true
	}
}

func (f *fakeStore) UpsertSubscription(_ context.Context, sub *SubscriptionSchedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := f.findSub(sub)
	if existing == nil {
		cp := *sub
		if cp.Frequency == "" {
			cp.Frequency = FrequencyMonthly
		}
		f.subs = append(f.subs, &cp)
		return nil
	}
	existing.Amount = sub.Amount
	if sub.UMN != "" {
		existing.UMN = sub.UMN
	}
	if sub.Frequency != "" {
		existing.Frequency = sub.Frequency
	}
	if !sub.NextChargeAt.IsZero() {
		existing.NextChargeAt = sub.NextChargeAt
	}
	existing.State = SubscriptionActive
	return nil
}

func (f *fakeStore) findSub(sub *SubscriptionSchedule) *SubscriptionSchedule {
	if sub.UMN != "" {
		for _, s := range f.subs {
			if s.UMN == sub.UMN {
				return s
			}
		}
	}
	for _, s := range f.subs {
		if s.Merchant == sub.Merchant && s.Issuer == sub.Issuer {
			return s
		}
	}
	return nil
}

func (f *fakeStore) ActiveSubscriptions(context.Context) ([]SubscriptionSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SubscriptionSchedule
	for _, s := range f.subs {
		if s.State == SubscriptionActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) AdvanceSubscription(_ context.Context, id string, lastCharge, nextCharge time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.ID != id {
			continue
		}
		if s.LastChargeAt.IsZero() || s.LastChargeAt.Before(lastCharge) {
			s.LastChargeAt = lastCharge
		}
		if s.NextChargeAt.IsZero() || s.NextChargeAt.Before(nextCharge) {
			s.NextChargeAt = nextCharge
		}
		return nil
	}
	return nil
}

func (f *fakeStore) AppendBalanceSnapshot(_ context.Context, snap *AccountBalanceSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *snap
	f.snapshots = append(f.snapshots, &cp)
	return nil
}

func (f *fakeStore) LatestBalance(_ context.Context, issuer, accountSuffix string) (*AccountBalanceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *AccountBalanceSnapshot
	for _, s := range f.snapshots {
		if s.Issuer != issuer || s.AccountSuffix != accountSuffix {
			continue
		}
		if latest == nil || !s.AsOf.Before(latest.AsOf) {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) ActiveRules(context.Context) ([]Rule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Rule(nil), f.rules...), nil
}

func (f *fakeStore) MerchantCategoryOverride(_ context.Context, merchant string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overrides[merchant], nil
}

func (f *fakeStore) TriageUnrecognized(_ context.Context, sender, body string, receivedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := sender + "|" + body
	if _, ok := f.triaged[key]; !ok {
		f.triaged[key] = receivedAt
	}
	return nil
}

func (f *fakeStore) PurgeUnrecognizedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var purged int64
	for key, at := range f.triaged {
		if at.Before(cutoff) {
			delete(f.triaged, key)
			purged++
		}
	}
	return purged, nil
}

func (f *fakeStore) LastCheckpoint(context.Context) (*Checkpoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkpoint == nil {
		return nil, nil
	}
	cp := *f.checkpoint
	return &cp, nil
}

func (f *fakeStore) SetCheckpoint(_ context.Context, cp Checkpoint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checkpoint = &cp
	return nil
}

func (f *fakeStore) transactionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.txns)
}

func (f *fakeStore) subscriptionByMerchant(merchant string) *SubscriptionSchedule {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.Merchant == merchant {
			cp := *s
			return &cp
		}
	}
	return nil
}

func (f *fakeStore) snapshotCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.snapshots)
}

func (f *fakeStore) triagedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.triaged)
}

var _ Store = (*fakeStore)(nil)

// fakeSource serves a fixed message slice regardless of window, or a
// canned error.
type fakeSource struct {
	messages []RawMessage
	err      error
}

func (f *fakeSource) Messages(context.Context, time.Time, time.Time) ([]RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.messages, nil
}
