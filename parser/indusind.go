package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// IndusInd handles IndusInd Bank notifications. Mostly standard verbs; the
// issuer-specific work is masked-account extraction and keeping ACH/NACH
// debits out of the card bucket.
type IndusInd struct {
	baseParser
}

// NewIndusInd returns the IndusInd Bank parser.
func NewIndusInd() *IndusInd { return &IndusInd{} }

func (*IndusInd) Issuer() string { return "IndusInd Bank" }

var indusSenderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2}-INDUSB(?:-S)?$`),
	regexp.MustCompile(`^[A-Z]{2}-INDUSIND(?:-S)?$`),
	regexp.MustCompile(`^[A-Z]{2}-INDUS(?:[A-Z]{2,})?-S$`),
}

func (*IndusInd) CanHandle(sender string) bool {
	if sender == "INDUSB" || sender == "INDUSIND" || strings.Contains(sender, "INDUSIND BANK") {
		return true
	}
	for _, p := range indusSenderPatterns {
		if p.MatchString(sender) {
			return true
		}
	}
	return false
}

var (
	indusVerbAmount = regexp.MustCompile(`(?i)(?:INR|Rs\.?|₹)\s*([0-9,]+(?:\.\d{2})?)\s+(?:debited|credited|spent|withdrawn|paid|purchase)`)

	indusTowardsPattern = regexp.MustCompile(`(?i)towards\s+(\S+)`)
	indusFromPattern    = regexp.MustCompile(`(?i)from\s+(\S+)`)
	indusAtPattern      = regexp.MustCompile(`(?i)at\s+([^\n]+?)(?:\s+Ref|\s+on|$)`)

	indusMaskedAccount = regexp.MustCompile(`(?i)A/?C\s+[0-9]{2,}[*xX#]+(\d{4,})`)
	indusStarMask      = regexp.MustCompile(`(?i)A/?c\s+\*?X+\s*(\d{4,6})`)

	indusBalancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Avl\s*BAL\s+of\s+INR\s*([0-9,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)(?:Avl\s*BAL|Available\s+Balance(?:\s+is)?|Bal)[:\s]+INR\s*([0-9,]+(?:\.\d{2})?)`),
	}
	indusRRNPattern = regexp.MustCompile(`(?i)RRN[:\s]+([0-9]+)`)
)

func (p *IndusInd) Parse(body, sender string, timestamp time.Time) *Transaction {
	if !p.isTransaction(body) {
		return nil
	}
	amount := firstAmount(body, append([]*regexp.Regexp{indusVerbAmount}, amountPatterns...)...)
	if amount == nil {
		return nil
	}
	direction, ok := p.direction(body)
	if !ok {
		return nil
	}
	return &Transaction{
		Issuer:        p.Issuer(),
		Amount:        *amount,
		Currency:      "INR",
		Direction:     direction,
		Merchant:      p.merchant(body),
		Reference:     p.reference(body),
		AccountSuffix: p.accountSuffix(body),
		Balance:       p.balance(body),
		Timestamp:     timestamp,
		RawBody:       body,
		IsFromCard:    p.detectCard(body),
	}
}

func (p *IndusInd) isTransaction(body string) bool {
	lower := strings.ToLower(body)
	// Interest payouts on deposits are account churn, not spending.
	if strings.Contains(lower, "net interest") && strings.Contains(lower, "deposit no") {
		return false
	}
	return isTransactionText(body)
}

func (p *IndusInd) direction(body string) (Direction, bool) {
	lower := strings.ToLower(body)
	for _, kw := range []string{"spent", "debited", "purchase"} {
		if strings.Contains(lower, kw) {
			return Debit, true
		}
	}
	return extractDirection(body)
}

func (p *IndusInd) detectCard(body string) bool {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "ach db") || strings.Contains(lower, "ach cr") || strings.Contains(lower, "nach") {
		return false
	}
	return detectIsCard(body)
}

func (p *IndusInd) merchant(body string) string {
	if m := indusTowardsPattern.FindStringSubmatch(body); m != nil {
		merchant := strings.TrimRight(strings.TrimSpace(m[1]), ".,;")
		merchant = strings.SplitN(merchant, "/", 2)[0]
		merchant = strings.SplitN(merchant, "@", 2)[0]
		if merchant != "" {
			return cleanMerchantName(merchant)
		}
	}
	if m := indusFromPattern.FindStringSubmatch(body); m != nil {
		token := strings.TrimRight(strings.TrimSpace(m[1]), ".,;")
		if strings.Contains(token, "@") {
			name := strings.SplitN(token, "@", 2)[0]
			if name != "" {
				return cleanMerchantName(name)
			}
		}
	}
	if m := indusAtPattern.FindStringSubmatch(body); m != nil {
		if merchant := strings.TrimSpace(m[1]); merchant != "" {
			return cleanMerchantName(merchant)
		}
	}
	return extractMerchant(body)
}

func (p *IndusInd) accountSuffix(body string) string {
	if m := indusMaskedAccount.FindStringSubmatch(body); m != nil {
		return lastDigits(m[1], 4)
	}
	if m := indusStarMask.FindStringSubmatch(body); m != nil {
		return lastDigits(m[1], 4)
	}
	return extractAccountSuffix(body)
}

func (p *IndusInd) balance(body string) *decimal.Decimal {
	if d := firstAmount(body, indusBalancePatterns...); d != nil {
		return d
	}
	return extractBalance(body)
}

func (p *IndusInd) reference(body string) string {
	if m := firstMatch(body, indusRRNPattern); m != "" {
		return m
	}
	return extractReference(body)
}
