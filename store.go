package smssensor

import (
	"context"
	"time"
)

// MessageSource yields raw messages for a time window, abstracting the
// device's SMS/RCS storage. A zero From means "all time".
type MessageSource interface {
	Messages(ctx context.Context, from, to time.Time) ([]RawMessage, error)
}

// Store is the persistence surface the pipeline runs against. The engine
// behind it is opaque to this package; the sqlite implementation lives in
// the store subpackage.
//
// Lookup methods return (nil, nil) when nothing matches — absence is an
// expected non-event, not an error.
type Store interface {
	// FindByHash returns the record with the given content hash, tombstoned
	// or not.
	FindByHash(ctx context.Context, hash string) (*TransactionRecord, error)
	// InsertIfAbsent atomically persists rec unless a record with its
	// content hash already exists. Returns false when a concurrent or prior
	// insert won; that is the dedup guarantee the pipeline relies on.
	InsertIfAbsent(ctx context.Context, rec *TransactionRecord) (bool, error)

	// UpsertSubscription creates or updates a schedule, keyed by UMN when
	// set and by (merchant, issuer) otherwise.
	UpsertSubscription(ctx context.Context, sub *SubscriptionSchedule) error
	// ActiveSubscriptions lists schedules in the active state.
	ActiveSubscriptions(ctx context.Context) ([]SubscriptionSchedule, error)
	// AdvanceSubscription records a charge and moves a schedule forward.
	// The store must never move LastChargeAt or NextChargeAt backwards,
	// even under concurrent advances.
	AdvanceSubscription(ctx context.Context, id string, lastCharge, nextCharge time.Time) error

	// AppendBalanceSnapshot records one balance observation. Snapshots are
	// never updated in place.
	AppendBalanceSnapshot(ctx context.Context, snap *AccountBalanceSnapshot) error
	// LatestBalance returns the most recent snapshot for an account.
	LatestBalance(ctx context.Context, issuer, accountSuffix string) (*AccountBalanceSnapshot, error)

	// ActiveRules returns enabled rules ordered by priority.
	ActiveRules(ctx context.Context) ([]Rule, error)
	// MerchantCategoryOverride returns the user's category for a merchant,
	// or the empty string.
	MerchantCategoryOverride(ctx context.Context, merchant string) (string, error)

	// TriageUnrecognized parks a financial-looking message that matched no
	// parser, deduplicated by (sender, body).
	TriageUnrecognized(ctx context.Context, sender, body string, receivedAt time.Time) error
	// PurgeUnrecognizedBefore deletes triaged messages older than cutoff.
	PurgeUnrecognizedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// LastCheckpoint returns the previous scan checkpoint, nil on first run.
	LastCheckpoint(ctx context.Context) (*Checkpoint, error)
	SetCheckpoint(ctx context.Context, cp Checkpoint) error
}

// ProgressSink receives progress snapshots from the monitor task during a
// run and one final snapshot at completion.
type ProgressSink func(ProcessingStats)

// SavedHook is invoked after a run that persisted at least one new record,
// for collaborators that need to refresh derived context.
type SavedHook func()
