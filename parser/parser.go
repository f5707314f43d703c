// Package parser extracts structured transaction, mandate and balance facts
// from free-text bank SMS/RCS notifications. Each issuer has its own parser
// because message grammars differ too much for a single one; the Registry
// resolves a sender ID to the right implementation.
package parser

import (
	"time"

	"github.com/shopspring/decimal"
)

// Class is the routing decision for a message, checked before any
// transaction parsing is attempted.
type Class int

const (
	// Plain means the message may be an ordinary transaction notification.
	Plain Class = iota
	// Mandate is a standing-authorization creation notice (UPI mandate etc.).
	Mandate
	// EMandate is an e-mandate upcoming-deduction notice.
	EMandate
	// FutureDebit announces a specific scheduled debit that has not happened yet.
	FutureDebit
	// BalanceUpdate is a statement-style balance notification, not a transaction.
	BalanceUpdate
)

func (c Class) String() string {
	switch c {
	case Mandate:
		return "mandate"
	case EMandate:
		return "e-mandate"
	case FutureDebit:
		return "future-debit"
	case BalanceUpdate:
		return "balance-update"
	default:
		return "plain"
	}
}

// MandateInfo is the payload extracted from mandate, e-mandate and
// future-debit notifications.
type MandateInfo struct {
	Merchant      string
	Amount        decimal.Decimal
	UMN           string    // unique mandate number, empty when absent
	NextDeduction time.Time // zero when the message carries no date
	Frequency     string    // e.g. "monthly"; empty when not stated
}

// BalanceInfo is the payload extracted from a balance-update notification.
type BalanceInfo struct {
	AccountSuffix string
	Balance       decimal.Decimal
	AsOf          time.Time // zero when the message carries no date
	IsCreditCard  bool
	CreditLimit   *decimal.Decimal
}

// Parser is the per-issuer capability set. Parse and the typed sub-parsers
// return nil for text they do not understand; malformed input is an expected
// case, never an error.
type Parser interface {
	// Issuer is the canonical bank name attached to parsed transactions.
	Issuer() string
	// CanHandle reports whether this parser covers the given sender ID.
	CanHandle(sender string) bool
	// Classify routes a message before transaction parsing is attempted.
	// A non-Plain message is handled by ParseMandate/ParseBalanceUpdate and
	// never doubles as a plain transaction.
	Classify(body string) Class
	// Parse extracts a transaction from a Plain message, or nil.
	Parse(body, sender string, timestamp time.Time) *Transaction
	// ParseMandate extracts the payload for Mandate, EMandate and
	// FutureDebit messages, or nil.
	ParseMandate(body string, class Class) *MandateInfo
	// ParseBalanceUpdate extracts the payload for BalanceUpdate messages,
	// or nil.
	ParseBalanceUpdate(body string) *BalanceInfo
}

// baseParser carries the defaults shared by issuers that only handle plain
// transactions. Issuers with mandate or balance-update grammars shadow the
// relevant methods.
type baseParser struct{}

func (baseParser) Classify(string) Class                  { return Plain }
func (baseParser) ParseMandate(string, Class) *MandateInfo { return nil }
func (baseParser) ParseBalanceUpdate(string) *BalanceInfo  { return nil }
