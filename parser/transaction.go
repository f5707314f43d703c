package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction describes how a transaction moves money relative to the account.
type Direction int

const (
	// Debit is money leaving a bank account.
	Debit Direction = iota
	// Credit is a charge on a credit card (increases amount owed).
	Credit
	// Income is money arriving into an account.
	Income
)

func (d Direction) String() string {
	switch d {
	case Credit:
		return "credit"
	case Income:
		return "income"
	default:
		return "debit"
	}
}

// Transaction is the structured result of parsing one bank notification.
type Transaction struct {
	Issuer        string
	Amount        decimal.Decimal
	Currency      string
	Direction     Direction
	Merchant      string
	Reference     string
	AccountSuffix string
	Balance       *decimal.Decimal
	CreditLimit   *decimal.Decimal
	Timestamp     time.Time
	RawBody       string
	IsFromCard    bool
}

// hashBucket groups timestamps into one-minute buckets so that provider-side
// jitter on the same event does not change the dedup key.
const hashBucket = 60

// ContentHash returns the deterministic dedup key for the transaction.
// Two messages describing the same event always hash identically, so a
// rescan of the corpus never produces a second record.
func (t *Transaction) ContentHash() string {
	parts := []string{
		t.Issuer,
		t.Amount.StringFixed(2),
		t.Direction.String(),
		strconv.FormatInt(t.Timestamp.Unix()/hashBucket, 10),
		t.Reference,
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(sum[:])
}
