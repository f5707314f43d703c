package smssensor

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Rule condition operators. Unknown operators fail the condition rather
// than erroring, so a bad rule can never block ingestion.
const (
	OpEquals     = "equals"
	OpContains   = "contains"
	OpStartsWith = "starts_with"
	OpEndsWith   = "ends_with"
	OpRegex      = "regex"
	OpGreater    = "gt"
	OpLess       = "lt"
	OpOneOf      = "one_of"
)

// Rule action types.
const (
	ActionSetCategory   = "set_category"
	ActionSetMerchant   = "set_merchant"
	ActionMarkRecurring = "mark_recurring"
	ActionBlock         = "block"
)

// RuleCondition matches one field of a transaction. String comparisons are
// case-insensitive; amount comparisons parse Value as a decimal.
type RuleCondition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

type RuleAction struct {
	Type  string `json:"type"`
	Value string `json:"value,omitempty"`
}

// Rule is a user-authored transformation applied after parsing. Rules run
// in ascending Priority order and all of a rule's conditions must hold for
// its actions to fire.
type Rule struct {
	ID         string
	Name       string
	Priority   int
	Enabled    bool
	Conditions []RuleCondition
	Actions    []RuleAction
}

// RuleResult is the audit trail of one evaluation pass.
type RuleResult struct {
	AppliedRuleIDs []string
	Blocked        bool
}

// EvaluateRules applies rules to a copy of rec and returns the transformed
// record plus the audit of which rules fired. The input record is never
// mutated. Rules must already be ordered by priority; disabled rules are
// skipped. A block action stops evaluation immediately.
func EvaluateRules(rec TransactionRecord, rules []Rule) (TransactionRecord, RuleResult) {
	var res RuleResult
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if !ruleMatches(rule, rec) {
			continue
		}
		res.AppliedRuleIDs = append(res.AppliedRuleIDs, rule.ID)
		rec.RuleAnnotations = append(rec.RuleAnnotations, rule.ID)
		for _, action := range rule.Actions {
			switch action.Type {
			case ActionSetCategory:
				rec.Category = action.Value
			case ActionSetMerchant:
				rec.Merchant = action.Value
			case ActionMarkRecurring:
				rec.IsRecurring = true
			case ActionBlock:
				res.Blocked = true
			}
		}
		if res.Blocked {
			return rec, res
		}
	}
	return rec, res
}

func ruleMatches(rule Rule, rec TransactionRecord) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	for _, cond := range rule.Conditions {
		if !conditionMatches(cond, rec) {
			return false
		}
	}
	return true
}

func conditionMatches(cond RuleCondition, rec TransactionRecord) bool {
	if cond.Field == "amount" {
		return amountMatches(cond, rec.Amount)
	}

	var field string
	switch cond.Field {
	case "merchant":
		field = rec.Merchant
	case "issuer":
		field = rec.Issuer
	case "category":
		field = rec.Category
	case "direction":
		field = rec.Direction.String()
	case "reference":
		field = rec.Reference
	case "account_suffix":
		field = rec.AccountSuffix
	case "body":
		field = rec.RawBody
	default:
		return false
	}

	field = strings.ToLower(field)
	value := strings.ToLower(cond.Value)

	switch cond.Operator {
	case OpEquals:
		return field == value
	case OpContains:
		return strings.Contains(field, value)
	case OpStartsWith:
		return strings.HasPrefix(field, value)
	case OpEndsWith:
		return strings.HasSuffix(field, value)
	case OpOneOf:
		for _, opt := range strings.Split(value, ",") {
			if field == strings.TrimSpace(opt) {
				return true
			}
		}
		return false
	case OpRegex:
		re, err := regexp.Compile("(?i)" + cond.Value)
		if err != nil {
			return false
		}
		return re.MatchString(field)
	default:
		return false
	}
}

func amountMatches(cond RuleCondition, amount decimal.Decimal) bool {
	want, err := decimal.NewFromString(cond.Value)
	if err != nil {
		return false
	}
	switch cond.Operator {
	case OpEquals:
		return amount.Equal(want)
	case OpGreater:
		return amount.GreaterThan(want)
	case OpLess:
		return amount.LessThan(want)
	default:
		return false
	}
}
