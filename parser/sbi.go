package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SBI handles State Bank of India notifications, including the SBICRD credit
// card route and UPI-Mandate creation notices.
type SBI struct {
	baseParser
}

// NewSBI returns the State Bank of India parser.
func NewSBI() *SBI { return &SBI{} }

func (*SBI) Issuer() string { return "State Bank of India" }

var sbiSenderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2}-SBIBK(?:-[STPG])?$`),
	regexp.MustCompile(`^[A-Z]{2}-SBI$`),
}

func (*SBI) CanHandle(sender string) bool {
	for _, frag := range []string{"SBIINB", "SBIUPI", "SBICRD", "ATMSBI", "SBI"} {
		if strings.Contains(sender, frag) {
			return true
		}
	}
	for _, p := range sbiSenderPatterns {
		if p.MatchString(sender) {
			return true
		}
	}
	return false
}

// Classify routes UPI-Mandate creation notices away from transaction parsing.
func (*SBI) Classify(body string) Class {
	if strings.Contains(body, "UPI-Mandate") &&
		strings.Contains(strings.ToLower(body), "successfully created") {
		return Mandate
	}
	return Plain
}

var (
	sbiAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)transaction\s+number\s+\d+\s+for\s+Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)payment\s+of\s+Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)\s+spent`),
		regexp.MustCompile(`(?i)debited\s+by\s+([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)credited\s+by\s+Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)\s+(?:has\s+been\s+)?(?:debited|credited)`),
		regexp.MustCompile(`(?i)INR\s*([0-9,]+(?:\.\d{1,2})?)\s+(?:has\s+been\s+)?(?:debited|credited)`),
		regexp.MustCompile(`(?i)(?:withdrawn|transferred)\s+Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)ATM\s+withdrawal\s+of\s+Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)Yono\s+Cash\s+Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
	}

	sbiMerchantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)trf\s+to\s+([^.\n]+?)(?:\s+Ref|$)`),
		regexp.MustCompile(`(?i)transfer\s+from\s+([^.\n]+?)(?:\s+Ref|$)`),
		regexp.MustCompile(`(?i)paid\s+to\s+([\w.-]+)@[\w]+`),
		regexp.MustCompile(`(?i)(?:NEFT|IMPS|RTGS)[^:]*:\s*([^.\n]+?)(?:\s+Ref|\s+on|$)`),
	}
	sbiDoneAtPattern  = regexp.MustCompile(`(?i)done\s+at\s+([^.\n]+?)(?:\s+on\s+|$)`)
	sbiCardAtPattern  = regexp.MustCompile(`(?i)at\s+([^.\n]+?)\s+on\s+\d`)
	sbiYonoATMPattern = regexp.MustCompile(`(?i)w/d@SBI\s+ATM\s+([A-Z0-9]+)`)

	sbiAccountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)by\s+SBI\s+Debit\s+Card\s+([\w-]+)`),
		regexp.MustCompile(`(?i)A/c\s+ending\s+(\d{4})`),
		regexp.MustCompile(`(?i)a/c\s+no\.?\s+(?:XX|X\*+)?(\d{4})`),
		regexp.MustCompile(`(?i)A/c\s+([X*]*\d+)`),
	}
	sbiCardEndingPattern = regexp.MustCompile(`(?i)ending\s+with\s+(\d{4})`)

	sbiBalancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Your\s+updated\s+available\s+balance\s+is\s+Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
		regexp.MustCompile(`(?i)Avl\s+Bal\s+Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`),
	}

	sbiAvailableLimit = regexp.MustCompile(`(?i)available\s+limit\s+is\s+Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`)

	sbiRefPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)transaction\s+number\s+([\w-]+)`),
		regexp.MustCompile(`(?i)Ref\s+No\.?\s*(\w+)`),
		regexp.MustCompile(`(?i)Txn#\s*(\w+)`),
		regexp.MustCompile(`(?i)transaction\s+ID:?\s*(\w+)`),
	}

	sbiMandateAmount   = regexp.MustCompile(`(?i)Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`)
	sbiMandateMerchant = regexp.MustCompile(`(?i)towards\s+([^.\n]+?)(?:\s+from|\s+A/c|$)`)
	sbiMandateUMN      = regexp.MustCompile(`(?i)UMN:([^.\s]+)`)
)

func (p *SBI) Parse(body, sender string, timestamp time.Time) *Transaction {
	if p.Classify(body) != Plain || !p.isTransaction(body) {
		return nil
	}
	amount := firstAmount(body, append(sbiAmountPatterns, amountPatterns...)...)
	if amount == nil {
		return nil
	}
	fromCreditCard := strings.Contains(sender, "SBICRD")
	direction, ok := p.direction(body, fromCreditCard)
	if !ok {
		return nil
	}
	tx := &Transaction{
		Issuer:        p.Issuer(),
		Amount:        *amount,
		Currency:      "INR",
		Direction:     direction,
		Merchant:      p.merchant(body, fromCreditCard),
		Reference:     p.reference(body),
		AccountSuffix: p.accountSuffix(body, fromCreditCard),
		Balance:       p.balance(body),
		Timestamp:     timestamp,
		RawBody:       body,
		IsFromCard:    fromCreditCard || detectIsCard(body),
	}
	if direction == Credit {
		tx.CreditLimit = firstAmount(body, append([]*regexp.Regexp{sbiAvailableLimit}, availableLimitPatterns...)...)
	}
	return tx
}

func (p *SBI) isTransaction(body string) bool {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "e-statement of sbi credit card") ||
		strings.Contains(lower, "is due for") ||
		strings.Contains(lower, "sbi card application") ||
		strings.Contains(lower, "track your application status") {
		return false
	}
	if strings.Contains(lower, "by sbi debit card") {
		return true
	}
	return isTransactionText(body)
}

func (p *SBI) direction(body string, fromCreditCard bool) (Direction, bool) {
	lower := strings.ToLower(body)
	if fromCreditCard {
		// A payment credited to the card reduces debt; spends are charges.
		if strings.Contains(lower, "payment of") && strings.Contains(lower, "credited to your sbi credit card") {
			return Income, true
		}
		return Credit, true
	}
	for _, kw := range []string{"withdrawn", "transferred", "paid to", "atm withdrawal", "by sbi debit card"} {
		if strings.Contains(lower, kw) {
			return Debit, true
		}
	}
	return extractDirection(body)
}

func (p *SBI) merchant(body string, fromCreditCard bool) string {
	if fromCreditCard {
		if strings.Contains(strings.ToLower(body), "via bbps") {
			return "BBPS Payment"
		}
		if m := sbiCardAtPattern.FindStringSubmatch(body); m != nil {
			merchant := cleanMerchantName(strings.TrimSpace(m[1]))
			if isValidMerchantName(merchant) {
				return merchant
			}
		}
	}
	if m := sbiDoneAtPattern.FindStringSubmatch(body); m != nil {
		loc := cleanMerchantName(strings.TrimSpace(m[1]))
		if isValidMerchantName(loc) {
			return loc
		}
	}
	for _, pat := range sbiMerchantPatterns {
		if m := pat.FindStringSubmatch(body); m != nil {
			merchant := cleanMerchantName(strings.TrimSpace(m[1]))
			if isValidMerchantName(merchant) {
				return merchant
			}
		}
	}
	if m := sbiYonoATMPattern.FindStringSubmatch(body); m != nil {
		return "YONO Cash ATM - " + m[1]
	}
	return extractMerchant(body)
}

func (p *SBI) reference(body string) string {
	if m := firstMatch(body, sbiRefPatterns...); m != "" {
		return m
	}
	return extractReference(body)
}

func (p *SBI) accountSuffix(body string, fromCreditCard bool) string {
	if fromCreditCard {
		if m := firstMatch(body, sbiCardEndingPattern); m != "" {
			return m
		}
	}
	for _, pat := range sbiAccountPatterns {
		if m := pat.FindStringSubmatch(body); m != nil {
			return lastDigits(m[1], 4)
		}
	}
	return extractAccountSuffix(body)
}

func (p *SBI) balance(body string) *decimal.Decimal {
	if d := firstAmount(body, sbiBalancePatterns...); d != nil {
		return d
	}
	return extractBalance(body)
}

// ParseMandate extracts the UPI-Mandate creation payload. SBI does not carry
// a next-deduction date in the creation notice.
func (p *SBI) ParseMandate(body string, class Class) *MandateInfo {
	if class != Mandate || p.Classify(body) != Mandate {
		return nil
	}
	amount := firstAmount(body, sbiMandateAmount)
	if amount == nil {
		return nil
	}
	merchant := "Unknown Subscription"
	if m := firstMatch(body, sbiMandateMerchant); m != "" {
		merchant = cleanMerchantName(m)
	}
	return &MandateInfo{
		Merchant: merchant,
		Amount:   *amount,
		UMN:      firstMatch(body, sbiMandateUMN),
	}
}
