package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ICICI handles ICICI Bank notifications, including multi-currency card
// spends ("USD 11.80 spent using ICICI Bank Card") and AutoPay debits.
type ICICI struct {
	baseParser
}

// NewICICI returns the ICICI Bank parser.
func NewICICI() *ICICI { return &ICICI{} }

func (*ICICI) Issuer() string { return "ICICI Bank" }

var iciciSenderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2}-ICICIB(?:-[STPG])?$`),
	regexp.MustCompile(`^[A-Z]{2}-ICICI(?:-S)?$`),
}

func (*ICICI) CanHandle(sender string) bool {
	if strings.Contains(sender, "ICICI") {
		return true
	}
	for _, p := range iciciSenderPatterns {
		if p.MatchString(sender) {
			return true
		}
	}
	return false
}

var (
	iciciCurrencySpent = regexp.MustCompile(`(?i)([A-Z]{3})\s+[0-9,]+(?:\.\d{2})?\s+spent`)
	iciciMonthAbbrs    = regexp.MustCompile(`^(JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)$`)

	iciciAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)[A-Z]{3}\s+([0-9,]+(?:\.\d{2})?)\s+spent`),
		regexp.MustCompile(`(?i)(?:Rs\.?|INR)\s+([0-9,]+(?:\.\d{2})?)\s+spent`),
		regexp.MustCompile(`(?i)debited\s+(?:with|for)\s+Rs\.?\s*([0-9,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)credited\s+with\s+Rs\.?\s*([0-9,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)credited:\s*Rs\.?\s*([0-9,]+(?:\.\d{2})?)`),
	}

	iciciMerchantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)on\s+\d{1,2}-\w{3}-\d{2}\s+(?:at|on)\s+([^.]+?)(?:\.|\s+Avl|$)`),
		regexp.MustCompile(`(?i)towards\s+([^.\n]+?)\s+for`),
		regexp.MustCompile(`(?i)from\s+([^.\n]+?)\.\s*UPI`),
		regexp.MustCompile(`(?i);\s*([^.\n]+?)\s+credited\.\s*UPI`),
	}
	iciciACHPattern = regexp.MustCompile(`(?i)Info\s+(?:ACH|NACH)\*([^*]+)\*`)

	iciciAccountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ICICI\s+Bank\s+Card\s+[X*]*(\d+)`),
		regexp.MustCompile(`(?i)ICICI\s+Bank\s+Acc(?:oun)?t\s+([X*\d]+)`),
		regexp.MustCompile(`(?i)Acct\s+([X*]*\d+)`),
	}

	iciciRefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)RRN\s+([A-Za-z0-9]+)`),
		regexp.MustCompile(`(?i)UPI:([A-Za-z0-9]+)`),
		regexp.MustCompile(`(?i)transaction\s+reference\s+no\.?([A-Z0-9]+)`),
	}
)

func (p *ICICI) Parse(body, sender string, timestamp time.Time) *Transaction {
	if !p.isTransaction(body) {
		return nil
	}
	amount := firstAmount(body, append(iciciAmountPatterns, amountPatterns...)...)
	if amount == nil {
		return nil
	}
	direction, ok := p.direction(body)
	if !ok {
		return nil
	}
	var limit *decimal.Decimal
	if direction == Credit {
		limit = extractAvailableLimit(body)
	}
	return &Transaction{
		Issuer:        p.Issuer(),
		Amount:        *amount,
		Currency:      p.currency(body),
		Direction:     direction,
		Merchant:      p.merchant(body),
		Reference:     p.reference(body),
		AccountSuffix: p.accountSuffix(body),
		Balance:       extractBalance(body),
		CreditLimit:   limit,
		Timestamp:     timestamp,
		RawBody:       body,
		IsFromCard:    detectIsCard(body),
	}
}

func (p *ICICI) isTransaction(body string) bool {
	lower := strings.ToLower(body)
	// The cash-deposit completion message duplicates the credit notification.
	if strings.Contains(lower, "cash deposit transaction") && strings.Contains(lower, "has been completed") {
		return false
	}
	if strings.Contains(lower, "is due by") || strings.Contains(lower, "will be debited") {
		return false
	}
	for _, kw := range []string{
		"debited with", "debited for", "credited with", "credited:",
		"autopay", "your account has been", "spent using",
	} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return isTransactionText(body)
}

func (p *ICICI) currency(body string) string {
	if m := iciciCurrencySpent.FindStringSubmatch(body); m != nil {
		code := strings.ToUpper(m[1])
		if !iciciMonthAbbrs.MatchString(code) {
			return code
		}
	}
	return "INR"
}

func (p *ICICI) direction(body string) (Direction, bool) {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "icici bank credit card") ||
		(strings.Contains(lower, "icici bank card") && strings.Contains(lower, "spent")) {
		return Credit, true
	}
	if strings.Contains(lower, "info by cash") {
		return Income, true
	}
	return extractDirection(body)
}

func (p *ICICI) merchant(body string) string {
	if m := iciciACHPattern.FindStringSubmatch(body); m != nil {
		return cleanMerchantName(strings.TrimSpace(m[1])) + " Dividend"
	}
	for _, pat := range iciciMerchantPatterns {
		if m := pat.FindStringSubmatch(body); m != nil {
			merchant := cleanMerchantName(strings.TrimSpace(m[1]))
			if isValidMerchantName(merchant) {
				return merchant
			}
		}
	}
	lower := strings.ToLower(body)
	if strings.Contains(lower, "info by cash") {
		return "Cash Deposit"
	}
	if strings.Contains(lower, "autopay") {
		return autoPayService(lower)
	}
	return extractMerchant(body)
}

// autoPayService names the common AutoPay billers; everything else gets the
// generic label so the subscription matcher still has a stable merchant.
func autoPayService(lower string) string {
	switch {
	case strings.Contains(lower, "google play"):
		return "Google Play Store"
	case strings.Contains(lower, "netflix"):
		return "Netflix"
	case strings.Contains(lower, "spotify"):
		return "Spotify"
	case strings.Contains(lower, "amazon prime"):
		return "Amazon Prime"
	case strings.Contains(lower, "disney"), strings.Contains(lower, "hotstar"):
		return "Disney+ Hotstar"
	case strings.Contains(lower, "youtube"):
		return "YouTube Premium"
	}
	return "AutoPay Subscription"
}

func (p *ICICI) reference(body string) string {
	if m := firstMatch(body, iciciRefPatterns...); m != "" {
		return m
	}
	return extractReference(body)
}

func (p *ICICI) accountSuffix(body string) string {
	for _, pat := range iciciAccountPatterns {
		if m := pat.FindStringSubmatch(body); m != nil {
			return lastDigits(m[1], 4)
		}
	}
	return extractAccountSuffix(body)
}
