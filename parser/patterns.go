package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Shared compiled patterns. Compilation is front-loaded here so the per-issuer
// parsers stay declarative; issuer-specific patterns live in their own files.
var (
	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)INR\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`₹\s*([0-9,]+(?:\.\d{1,2})?)`),
	}

	referencePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Ref|Reference|Txn|Transaction)(?:\s+No)?[:.\s]+([A-Z0-9]+)`),
		regexp.MustCompile(`(?i)UPI[:\s]+([0-9]+)`),
	}

	accountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:A/c|Account|Acct)(?:\s+No)?\.?\s+(?:XX+|[X*]+)?(\d+)`),
		regexp.MustCompile(`(?i)Card\s+(?:XX+|[X*]+)?(\d{4})`),
	}

	balancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Avl\s+Bal|Available\s+Balance|A/c\s+Balance|Balance|Bal)[:\s]+(?:Rs\.?|INR)?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)(?:Updated|Remaining)\s+Balance[:\s]+(?:Rs\.?|INR)?\s*([0-9,]+(?:\.\d{1,2})?)`),
	}

	availableLimitPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Available\s+limit:?\s*Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)Avl\s+Lmt:?\s*Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)Avail\s+Limit:?\s*Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)Available\s+Credit\s+Limit:?\s*Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
	}

	merchantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)to\s+([^.\n]+?)(?:\s+on|\s+at|\s+Ref|\s+UPI)`),
		regexp.MustCompile(`(?i)from\s+([^.\n]+?)(?:\s+on|\s+at|\s+Ref|\s+UPI)`),
		regexp.MustCompile(`(?i)at\s+([^.\n]+?)(?:\s+on|\s+Ref)`),
		regexp.MustCompile(`(?i)for\s+([^.\n]+?)(?:\s+on|\s+at|\s+Ref)`),
	}

	cleaningPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\(.*?\)\s*$`),
		regexp.MustCompile(`(?i)\s+Ref\s+No.*`),
		regexp.MustCompile(`\s+on\s+\d{2}.*`),
		regexp.MustCompile(`(?i)\s+UPI.*`),
		regexp.MustCompile(`\s+at\s+\d{2}:\d{2}.*`),
		regexp.MustCompile(`\s*-\s*$`),
		regexp.MustCompile(`(?i)(\s+PVT\.?\s*LTD\.?|\s+PRIVATE\s+LIMITED)$`),
		regexp.MustCompile(`(?i)(\s+LTD\.?|\s+LIMITED)$`),
	}
)

// parseAmount converts an extracted "1,23,456.78" style string to a decimal.
func parseAmount(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// firstAmount runs patterns in order and returns the first parsed amount.
func firstAmount(body string, patterns ...*regexp.Regexp) *decimal.Decimal {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(body); m != nil {
			if d, ok := parseAmount(m[1]); ok {
				return &d
			}
		}
	}
	return nil
}

func firstMatch(body string, patterns ...*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(body); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

var skipKeywords = []string{
	"otp", "one time password", "verification code",
	"offer", "discount", "cashback offer", "win ",
	"has requested", "payment request", "collect request",
	"requesting payment", "requests rs", "ignore if already paid",
	"have received payment",
	"is due", "min amount due", "minimum amount due",
	"in arrears", "is overdue", "ignore if paid",
}

var transactionVerbs = []string{
	"debited", "credited", "withdrawn", "deposited",
	"spent", "received", "transferred", "paid",
}

// isTransactionText is the common gate: OTPs, offers, payment requests and
// due reminders are rejected, and a debit/credit verb must be present.
func isTransactionText(body string) bool {
	lower := strings.ToLower(body)
	for _, kw := range skipKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	for _, verb := range transactionVerbs {
		if strings.Contains(lower, verb) {
			return true
		}
	}
	return false
}

// extractDirection maps verbs to the money flow. Returned bool is false for
// text with no recognizable verb.
func extractDirection(body string) (Direction, bool) {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "debited"),
		strings.Contains(lower, "withdrawn"),
		strings.Contains(lower, "spent"),
		strings.Contains(lower, "charged"),
		strings.Contains(lower, "paid"),
		strings.Contains(lower, "purchase"),
		strings.Contains(lower, "deducted"),
		strings.Contains(lower, "transferred"),
		strings.Contains(lower, "sent"):
		return Debit, true
	case strings.Contains(lower, "credited"),
		strings.Contains(lower, "deposited"),
		strings.Contains(lower, "received"),
		strings.Contains(lower, "refund"):
		return Income, true
	case strings.Contains(lower, "cashback") && !strings.Contains(lower, "earn cashback"):
		return Income, true
	}
	return Debit, false
}

var accountWords = []string{
	"a/c", "account", "ac ", "acc ",
	"saving account", "current account", "savings a/c", "current a/c",
}

var cardWords = []string{
	"card ending", "card xx", "debit card", "credit card",
	"card no.", "card number", "card *", "card x",
}

// detectIsCard reports whether the transaction ran over a card. Account
// wording wins over card wording because statements like "from A/c ..." often
// also mention a card for blocking instructions.
func detectIsCard(body string) bool {
	lower := strings.ToLower(body)
	for _, w := range accountWords {
		if strings.Contains(lower, w) {
			return false
		}
	}
	for _, w := range cardWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// cleanMerchantName strips reference suffixes, dates, company suffixes and
// other trailing noise from an extracted merchant string.
func cleanMerchantName(merchant string) string {
	out := merchant
	for _, p := range cleaningPatterns {
		out = p.ReplaceAllString(out, "")
	}
	return strings.TrimSpace(out)
}

var merchantStopWords = map[string]struct{}{
	"USING": {}, "VIA": {}, "THROUGH": {}, "BY": {}, "WITH": {},
	"FOR": {}, "TO": {}, "FROM": {}, "AT": {}, "THE": {},
}

func isValidMerchantName(name string) bool {
	if len(name) < 2 || strings.Contains(name, "@") {
		return false
	}
	if _, stop := merchantStopWords[strings.ToUpper(name)]; stop {
		return false
	}
	hasLetter := false
	allDigits := true
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
		if r < '0' || r > '9' {
			allDigits = false
		}
	}
	return hasLetter && !allDigits
}

// extractMerchant applies the generic merchant patterns with cleanup.
func extractMerchant(body string) string {
	for _, p := range merchantPatterns {
		if m := p.FindStringSubmatch(body); m != nil {
			merchant := cleanMerchantName(strings.TrimSpace(m[1]))
			if isValidMerchantName(merchant) {
				return merchant
			}
		}
	}
	return ""
}

func extractReference(body string) string {
	return firstMatch(body, referencePatterns...)
}

// extractAccountSuffix returns the last four visible digits of the account
// or card mentioned in the message.
func extractAccountSuffix(body string) string {
	for _, p := range accountPatterns {
		if m := p.FindStringSubmatch(body); m != nil {
			return lastDigits(m[1], 4)
		}
	}
	return ""
}

func lastDigits(s string, n int) string {
	var digits []rune
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) > n {
		digits = digits[len(digits)-n:]
	}
	return string(digits)
}

func extractBalance(body string) *decimal.Decimal {
	return firstAmount(body, balancePatterns...)
}

func extractAvailableLimit(body string) *decimal.Decimal {
	return firstAmount(body, availableLimitPatterns...)
}

var monthAbbr = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// parseShortDate parses the dd/MM/yy and dd-MM-yyyy styles that mandate
// messages carry. Returns zero time for anything else.
func parseShortDate(s string) time.Time {
	for _, layout := range []string{"02/01/06", "02/01/2006", "02-01-2006", "02-01-06"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
