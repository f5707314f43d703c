package smssensor

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jask/smssensor/logger"
	"github.com/jask/smssensor/parser"
)

// Outcome describes what the pipeline did with one message. Every message
// gets exactly one outcome; none of them except OutcomeError indicate a
// problem.
type Outcome int

const (
	// OutcomeSkipped: promotional or government sender, dropped on purpose.
	OutcomeSkipped Outcome = iota
	// OutcomeUnrecognized: no parser for the sender; triaged if it looked
	// financial, silently dropped otherwise.
	OutcomeUnrecognized
	// OutcomeMandate: handled as a mandate / e-mandate / future-debit
	// notification.
	OutcomeMandate
	// OutcomeBalance: handled as an explicit balance update.
	OutcomeBalance
	// OutcomeUnparsed: a recognized sender but non-transactional text.
	OutcomeUnparsed
	// OutcomeDuplicate: an identical transaction already exists, possibly
	// tombstoned by the user.
	OutcomeDuplicate
	// OutcomeBlocked: a rule suppressed the transaction.
	OutcomeBlocked
	// OutcomeSaved: a new transaction record was persisted.
	OutcomeSaved
	// OutcomeError: a recoverable per-message failure; logged and skipped.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUnrecognized:
		return "unrecognized"
	case OutcomeMandate:
		return "mandate"
	case OutcomeBalance:
		return "balance"
	case OutcomeUnparsed:
		return "unparsed"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeSaved:
		return "saved"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Pipeline turns one raw message into at most one domain event: a saved
// transaction, a subscription change, or a balance snapshot.
type Pipeline struct {
	registry   *parser.Registry
	store      Store
	subs       *SubscriptionMatcher
	reconciler *BalanceReconciler
}

func NewPipeline(registry *parser.Registry, store Store, subs *SubscriptionMatcher, reconciler *BalanceReconciler) *Pipeline {
	return &Pipeline{
		registry:   registry,
		store:      store,
		subs:       subs,
		reconciler: reconciler,
	}
}

// Process runs one message through the extraction flow. It returns an error
// only for failures worth logging; callers count the message as processed
// either way, because a single bad message must never sink a whole run.
func (p *Pipeline) Process(ctx context.Context, msg RawMessage) (Outcome, error) {
	switch parser.SenderSuffix(msg.Sender) {
	case "-P", "-G":
		return OutcomeSkipped, nil
	}

	prs := p.registry.Resolve(msg.Sender)
	if prs == nil {
		if parser.LooksFinancial(msg.Sender, msg.Body) {
			if err := p.store.TriageUnrecognized(ctx, msg.Sender, msg.Body, msg.Timestamp); err != nil {
				return OutcomeError, fmt.Errorf("triage unrecognized: %w", err)
			}
		}
		return OutcomeUnrecognized, nil
	}

	switch class := prs.Classify(msg.Body); class {
	case parser.Mandate, parser.EMandate, parser.FutureDebit:
		info := prs.ParseMandate(msg.Body, class)
		if info == nil {
			return OutcomeUnparsed, nil
		}
		if err := p.subs.CreateOrUpdate(ctx, prs.Issuer(), *info); err != nil {
			return OutcomeError, fmt.Errorf("record mandate: %w", err)
		}
		return OutcomeMandate, nil
	case parser.BalanceUpdate:
		info := prs.ParseBalanceUpdate(msg.Body)
		if info == nil {
			return OutcomeUnparsed, nil
		}
		if info.AsOf.IsZero() {
			info.AsOf = msg.Timestamp
		}
		if err := p.reconciler.ApplyBalanceUpdate(ctx, prs.Issuer(), *info, msg.Body); err != nil {
			return OutcomeError, fmt.Errorf("apply balance update: %w", err)
		}
		return OutcomeBalance, nil
	}

	txn := prs.Parse(msg.Body, msg.Sender, msg.Timestamp)
	if txn == nil {
		return OutcomeUnparsed, nil
	}

	hash := txn.ContentHash()
	existing, err := p.store.FindByHash(ctx, hash)
	if err != nil {
		return OutcomeError, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		// Tombstoned or not, the record stays as the user left it.
		return OutcomeDuplicate, nil
	}

	rec := recordFromTransaction(txn, hash)

	if override, err := p.store.MerchantCategoryOverride(ctx, rec.Merchant); err != nil {
		return OutcomeError, fmt.Errorf("category override: %w", err)
	} else if override != "" {
		rec.Category = override
	}

	rules, err := p.store.ActiveRules(ctx)
	if err != nil {
		return OutcomeError, fmt.Errorf("load rules: %w", err)
	}
	rec, ruleRes := EvaluateRules(rec, rules)
	if ruleRes.Blocked {
		log := logger.FromContext(ctx)
		log.Debug().
			Str("merchant", rec.Merchant).
			Strs("rules", ruleRes.AppliedRuleIDs).
			Msg("transaction blocked by rule")
		return OutcomeBlocked, nil
	}

	matched, err := p.subs.Match(ctx, &rec)
	if err != nil {
		return OutcomeError, fmt.Errorf("subscription match: %w", err)
	}
	if matched != nil {
		if err := p.subs.Advance(ctx, matched, rec.OccurredAt); err != nil {
			return OutcomeError, fmt.Errorf("advance subscription: %w", err)
		}
		rec.IsRecurring = true
	}

	inserted, err := p.store.InsertIfAbsent(ctx, &rec)
	if err != nil {
		return OutcomeError, fmt.Errorf("insert transaction: %w", err)
	}
	if !inserted {
		// A concurrent partition got there first.
		return OutcomeDuplicate, nil
	}

	if rec.AccountSuffix != "" {
		if err := p.reconciler.ReconcileTransaction(ctx, &rec); err != nil {
			// The transaction itself is saved; a failed snapshot is logged
			// and the run moves on.
			log := logger.FromContext(ctx)
			log.Warn().Err(err).
				Str("issuer", rec.Issuer).
				Str("account", rec.AccountSuffix).
				Msg("balance reconciliation failed")
		}
	}

	return OutcomeSaved, nil
}

func recordFromTransaction(txn *parser.Transaction, hash string) TransactionRecord {
	return TransactionRecord{
		ID:            uuid.NewString(),
		ContentHash:   hash,
		Issuer:        txn.Issuer,
		Amount:        txn.Amount,
		Currency:      txn.Currency,
		Direction:     txn.Direction,
		Merchant:      txn.Merchant,
		Reference:     txn.Reference,
		AccountSuffix: txn.AccountSuffix,
		Balance:       txn.Balance,
		CreditLimit:   txn.CreditLimit,
		OccurredAt:    txn.Timestamp,
		RawBody:       txn.RawBody,
		IsFromCard:    txn.IsFromCard,
	}
}
