// Package smssensor extracts transaction, subscription and balance facts
// from on-device bank notification messages and reconciles them against
// persisted state. It is a library: the host application supplies the
// message source and the persistence store, and invokes Coordinator.Run
// from its background scheduler.
package smssensor

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jask/smssensor/parser"
)

// Channel identifies the transport a message arrived on.
type Channel string

const (
	ChannelSMS Channel = "sms"
	ChannelRCS Channel = "rcs"
)

// RawMessage is one notification as sourced from device storage. Never
// persisted by this package.
type RawMessage struct {
	Sender    string
	Body      string
	Timestamp time.Time
	Channel   Channel
}

// TransactionRecord is the persisted form of a parsed transaction. Created
// once per content hash; mutated only by rule application and subscription
// matching; deletion is a tombstone so rescans cannot resurrect it.
type TransactionRecord struct {
	ID              string
	ContentHash     string
	Issuer          string
	Amount          decimal.Decimal
	Currency        string
	Direction       parser.Direction
	Merchant        string
	Reference       string
	AccountSuffix   string
	Balance         *decimal.Decimal
	CreditLimit     *decimal.Decimal
	OccurredAt      time.Time
	RawBody         string
	IsFromCard      bool
	Category        string
	RuleAnnotations []string
	IsRecurring     bool
	IsDeleted       bool
}

// Subscription schedule states.
const (
	SubscriptionActive = "active"
	SubscriptionHidden = "hidden"
)

// SubscriptionSchedule tracks a recurring payment authorization. Identity
// key is (merchant, issuer); the UMN takes precedence when the issuer
// provides one.
type SubscriptionSchedule struct {
	ID           string
	Merchant     string
	Issuer       string
	UMN          string
	Amount       decimal.Decimal
	Frequency    string
	NextChargeAt time.Time
	LastChargeAt time.Time
	State        string
}

// AccountBalanceSnapshot is one observation of an account's balance.
// Snapshots are append-only; the current balance is the most recent
// snapshot for (issuer, account suffix).
type AccountBalanceSnapshot struct {
	ID            string
	Issuer        string
	AccountSuffix string
	Balance       decimal.Decimal
	CreditLimit   *decimal.Decimal
	IsCreditCard  bool
	SourceExcerpt string
	AsOf          time.Time
}

// Checkpoint records where the previous scan ended so the next run can be
// incremental. LookbackDays is stored so a widened lookback triggers a full
// rescan.
type Checkpoint struct {
	ScannedAt    time.Time
	LookbackDays int
}
