package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HDFC handles HDFC Bank notifications: standard debit/credit messages, UPI
// with VPA details, salary credits, card transactions, e-mandate and future
// debit alerts, and statement-style balance updates.
type HDFC struct {
	baseParser
}

// NewHDFC returns the HDFC Bank parser.
func NewHDFC() *HDFC { return &HDFC{} }

func (*HDFC) Issuer() string { return "HDFC Bank" }

var hdfcSenderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2}-HDFCBK.*$`),
	regexp.MustCompile(`^[A-Z]{2}-HDFC.*$`),
	regexp.MustCompile(`^HDFC-[A-Z]+$`),
	regexp.MustCompile(`^[A-Z]{2}-HDFCB.*$`),
}

func (*HDFC) CanHandle(sender string) bool {
	switch sender {
	case "HDFCBK", "HDFCBANK", "HDFC", "HDFCB":
		return true
	}
	for _, p := range hdfcSenderPatterns {
		if p.MatchString(sender) {
			return true
		}
	}
	return false
}

// Classify routes e-mandate, future-debit and balance-update notices before
// transaction parsing. HDFC marks e-mandates with a literal "E-Mandate!" tag
// and future debits with "will be".
func (h *HDFC) Classify(body string) Class {
	switch {
	case strings.Contains(body, "E-Mandate!"):
		return EMandate
	case h.isBalanceUpdate(body):
		return BalanceUpdate
	case strings.Contains(strings.ToLower(body), "will be"):
		return FutureDebit
	}
	return Plain
}

var (
	hdfcSalaryPattern       = regexp.MustCompile(`(?i)for\s+[^-]+-[^-]+-[^-]+\s+[A-Z]+\s+SALARY-([^.\n]+)`)
	hdfcSimpleSalaryPattern = regexp.MustCompile(`(?i)SALARY[- ]([^.\n]+?)(?:\s+Info|$)`)
	hdfcInfoPattern         = regexp.MustCompile(`(?i)Info:\s*(?:UPI/)?([^/.\n]+?)(?:/|$)`)
	hdfcVPAWithName         = regexp.MustCompile(`(?i)VPA\s+[^@\s]+@[^\s]+\s*\(([^)]+)\)`)
	hdfcVPAPattern          = regexp.MustCompile(`(?i)VPA\s+([^@\s]+)@`)
	hdfcSpentPattern        = regexp.MustCompile(`(?i)at\s+([^.\n]+?)\s+on\s+\d{2}`)
	hdfcDebitForPattern     = regexp.MustCompile(`(?i)debited\s+for\s+([^.\n]+?)\s+on\s+\d{2}`)
	hdfcTowardsPattern      = regexp.MustCompile(`(?i)towards\s+([^\n]+?)(?:\s+UMRN|\s+ID:|\s+Alert:|$)`)
	hdfcCardSuffixPattern   = regexp.MustCompile(`(?i)Card\s+x(\d{4})`)
	hdfcBankSuffixPattern   = regexp.MustCompile(`(?i)HDFC\s+Bank\s+(?:A/c\s+)?(?:XX+|[X*]+)?(\d+)`)
	hdfcRefPatterns         = []*regexp.Regexp{
		regexp.MustCompile(`(?i)UPI\s+Ref\s+No\s+(\d{12})`),
		regexp.MustCompile(`(?i)Ref\s+No\.?\s+([A-Z0-9]+)`),
		regexp.MustCompile(`(?i)Ref\s+(\d{9,12})`),
	}
	hdfcAvlBalINR = regexp.MustCompile(`(?i)Avl\s+bal:?\s*INR\s*([0-9,]+(?:\.\d{1,2})?)`)
	hdfcSentWord  = regexp.MustCompile(`\bsent\b`)
)

func (h *HDFC) Parse(body, sender string, timestamp time.Time) *Transaction {
	if h.Classify(body) != Plain || !h.isTransaction(body) {
		return nil
	}
	amount := firstAmount(body, amountPatterns...)
	if amount == nil {
		return nil
	}
	direction, ok := h.direction(body)
	if !ok {
		return nil
	}
	var limit *decimal.Decimal
	if direction == Credit {
		limit = extractAvailableLimit(body)
	}
	return &Transaction{
		Issuer:        h.Issuer(),
		Amount:        *amount,
		Currency:      "INR",
		Direction:     direction,
		Merchant:      h.merchant(body),
		Reference:     h.reference(body),
		AccountSuffix: h.accountSuffix(body),
		Balance:       h.balance(body),
		CreditLimit:   limit,
		Timestamp:     timestamp,
		RawBody:       body,
		IsFromCard:    detectIsCard(body),
	}
}

func (h *HDFC) isTransaction(body string) bool {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "payment alert") && !strings.Contains(lower, "will be") {
		return true
	}
	for _, kw := range skipKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	if strings.Contains(lower, "received towards your credit card") ||
		(strings.Contains(lower, "payment") && strings.Contains(lower, "credited to your card")) {
		return false
	}
	// HDFC additionally uses "Sent Rs.X From HDFC Bank" and "Txn Rs.X".
	for _, kw := range append(transactionVerbs, "sent", "deducted", "txn") {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (h *HDFC) direction(body string) (Direction, bool) {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "block cc") || strings.Contains(lower, "block pcc"):
		return Credit, true
	case strings.Contains(lower, "spent on card") && !strings.Contains(lower, "block dc"):
		return Credit, true
	case strings.Contains(lower, "payment") && strings.Contains(lower, "credit card"),
		strings.Contains(lower, "towards") && strings.Contains(lower, "credit card"):
		return Debit, true
	case hdfcSentWord.MatchString(lower) && strings.Contains(lower, "from hdfc"):
		return Debit, true
	}
	return extractDirection(body)
}

func (h *HDFC) merchant(body string) string {
	lower := strings.ToLower(body)

	// "Spent Rs.x From HDFC Bank Card xxxx At MERCHANT On date"
	if strings.Contains(lower, "from hdfc bank card") {
		atIdx := strings.Index(lower, " at ")
		onIdx := strings.LastIndex(lower, " on ")
		if atIdx != -1 && onIdx > atIdx {
			if m := cleanMerchantName(strings.TrimSpace(body[atIdx+4 : onIdx])); m != "" {
				return m
			}
		}
	}
	if strings.Contains(lower, "withdrawn") || strings.Contains(lower, "atm") {
		return "ATM"
	}
	if strings.Contains(lower, "salary") && strings.Contains(lower, "deposited") {
		if m := firstMatch(body, hdfcSalaryPattern, hdfcSimpleSalaryPattern); m != "" {
			return cleanMerchantName(m)
		}
	}
	if m := hdfcInfoPattern.FindStringSubmatch(body); m != nil {
		merchant := strings.TrimSpace(m[1])
		if merchant != "" && !strings.EqualFold(merchant, "UPI") {
			return cleanMerchantName(merchant)
		}
	}
	if strings.Contains(lower, "vpa") {
		if m := firstMatch(body, hdfcVPAWithName); m != "" {
			return cleanMerchantName(m)
		}
		if m := firstMatch(body, hdfcVPAPattern); len(m) > 3 && isValidMerchantName(m) {
			return cleanMerchantName(m)
		}
	}
	if strings.Contains(lower, "spent on card") {
		if m := firstMatch(body, hdfcSpentPattern); m != "" {
			return cleanMerchantName(m)
		}
	}
	if strings.Contains(lower, "debited for") {
		if m := firstMatch(body, hdfcDebitForPattern); m != "" {
			return cleanMerchantName(m)
		}
	}
	if strings.Contains(lower, "towards") {
		if m := firstMatch(body, hdfcTowardsPattern); m != "" {
			return cleanMerchantName(m)
		}
	}
	return extractMerchant(body)
}

func (h *HDFC) reference(body string) string {
	if m := firstMatch(body, hdfcRefPatterns...); m != "" {
		return m
	}
	return extractReference(body)
}

func (h *HDFC) accountSuffix(body string) string {
	if m := firstMatch(body, hdfcCardSuffixPattern); m != "" {
		return m
	}
	if m := firstMatch(body, hdfcBankSuffixPattern); m != "" {
		return lastDigits(m, 4)
	}
	return extractAccountSuffix(body)
}

func (h *HDFC) balance(body string) *decimal.Decimal {
	if d := firstAmount(body, hdfcAvlBalINR); d != nil {
		return d
	}
	return extractBalance(body)
}

var (
	hdfcMandateAmount   = regexp.MustCompile(`(?i)Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)\s+will\s+be\s+deducted`)
	hdfcMandateDate     = regexp.MustCompile(`(?i)deducted\s+on\s+(\d{2}/\d{2}/\d{2})`)
	hdfcMandateMerchant = regexp.MustCompile(`(?i)For\s+([^\n]+?)\s+mandate`)
	hdfcUMNPattern      = regexp.MustCompile(`(?i)UMN\s+([a-zA-Z0-9@]+)`)
	hdfcFutureAmount    = regexp.MustCompile(`(?i)INR\.?\s*([0-9,]+(?:\.\d{1,2})?)`)
	hdfcFutureDate      = regexp.MustCompile(`(?i)will\s+be\s+debited\s+on\s+(\d{2}/\d{2}/\d{4})`)
	hdfcFutureMerchant  = regexp.MustCompile(`(?i)for\s+([^\n]+?)(?:\s+ID:|\s+Act:|$)`)
)

// ParseMandate handles both the multi-line e-mandate notice and the plainer
// future-debit alert; the two carry the same payload shape.
func (h *HDFC) ParseMandate(body string, class Class) *MandateInfo {
	switch class {
	case EMandate:
		amount := firstAmount(body, hdfcMandateAmount)
		if amount == nil {
			return nil
		}
		merchant := "Unknown Subscription"
		if m := firstMatch(body, hdfcMandateMerchant); m != "" {
			merchant = cleanMerchantName(m)
		}
		return &MandateInfo{
			Merchant:      merchant,
			Amount:        *amount,
			UMN:           firstMatch(body, hdfcUMNPattern),
			NextDeduction: parseShortDate(firstMatch(body, hdfcMandateDate)),
		}
	case FutureDebit:
		amount := firstAmount(body, hdfcFutureAmount)
		if amount == nil {
			return nil
		}
		merchant := h.merchant(body)
		if merchant == "" {
			if m := firstMatch(body, hdfcFutureMerchant); m != "" {
				merchant = cleanMerchantName(m)
			} else {
				merchant = "Unknown Subscription"
			}
		}
		return &MandateInfo{
			Merchant:      merchant,
			Amount:        *amount,
			NextDeduction: parseShortDate(firstMatch(body, hdfcFutureDate)),
		}
	}
	return nil
}

var (
	hdfcBalanceIs   = regexp.MustCompile(`(?i)is\s+INR\s*([0-9,]+(?:\.\d{1,2})?)`)
	hdfcBalanceAsOn = regexp.MustCompile(`(?i)as\s+on\s+(?:yesterday:)?(\d{1,2})-([A-Z]{3})-(\d{2})`)
)

func (h *HDFC) isBalanceUpdate(body string) bool {
	lower := strings.ToLower(body)
	hasBalance := strings.Contains(lower, "available bal") ||
		strings.Contains(lower, "avl bal") ||
		strings.Contains(lower, "account balance") ||
		strings.Contains(lower, "a/c balance")
	if !hasBalance || !strings.Contains(lower, "as on") {
		return false
	}
	for _, verb := range []string{"debited", "credited", "withdrawn", "spent", "transferred"} {
		if strings.Contains(lower, verb) {
			return false
		}
	}
	return true
}

func (h *HDFC) ParseBalanceUpdate(body string) *BalanceInfo {
	if !h.isBalanceUpdate(body) {
		return nil
	}
	suffix := h.accountSuffix(body)
	if suffix == "" {
		return nil
	}
	balance := firstAmount(body, hdfcBalanceIs)
	if balance == nil {
		return nil
	}
	info := &BalanceInfo{AccountSuffix: suffix, Balance: *balance}
	if m := hdfcBalanceAsOn.FindStringSubmatch(body); m != nil {
		if month, ok := monthAbbr[strings.ToUpper(m[2])]; ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			info.AsOf = time.Date(2000+year, month, day, 0, 0, 0, 0, time.UTC)
		}
	}
	return info
}
