package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Axis handles Axis Bank notifications; the UPI narration format packs
// reference and merchant into slash-separated segments.
type Axis struct {
	baseParser
}

// NewAxis returns the Axis Bank parser.
func NewAxis() *Axis { return &Axis{} }

func (*Axis) Issuer() string { return "Axis Bank" }

var axisSenderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2}-AXISBK(?:-S)?$`),
	regexp.MustCompile(`^[A-Z]{2}-AXISBANK-S$`),
	regexp.MustCompile(`^[A-Z]{2}-AXIS(?:-S)?$`),
}

func (*Axis) CanHandle(sender string) bool {
	for _, frag := range []string{"AXIS BANK", "AXISBANK", "AXISBK", "AXISB"} {
		if strings.Contains(sender, frag) {
			return true
		}
	}
	if sender == "AXIS" {
		return true
	}
	for _, p := range axisSenderPatterns {
		if p.MatchString(sender) {
			return true
		}
	}
	return false
}

var (
	axisAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)INR\s+([0-9,]+(?:\.\d{1,2})?)\s+(?:debited|credited)`),
		regexp.MustCompile(`(?i)Payment\s+of\s+INR\s+([0-9,]+(?:\.\d{1,2})?)`),
	}
	axisUPIMerchant = regexp.MustCompile(`(?i)UPI/[^/]+/[^/]+/([^\n]+?)(?:\s*Not you|\s*$)`)
	axisInfoPattern = regexp.MustCompile(`(?i)Info\s*[-–]\s*([^.\n]+?)(?:\.\s*Chk|\s*$)`)
	axisUPIRef      = regexp.MustCompile(`(?i)UPI/[^/]+/([0-9]+)`)

	axisAccountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)A/c\s+no\.\s+([X*]*\d+)`),
		regexp.MustCompile(`(?i)Credit\s+Card\s+([X*]*\d+)`),
	}
)

func (p *Axis) Parse(body, sender string, timestamp time.Time) *Transaction {
	if !p.isTransaction(body) {
		return nil
	}
	amount := firstAmount(body, append(axisAmountPatterns, amountPatterns...)...)
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
		Currency:      "INR",
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

func (p *Axis) isTransaction(body string) bool {
	lower := strings.ToLower(body)
	// Payment received toward a card is a confirmation, not spending.
	if strings.Contains(lower, "payment") &&
		strings.Contains(lower, "has been received") &&
		strings.Contains(lower, "towards your axis bank") {
		return false
	}
	return isTransactionText(body)
}

func (p *Axis) direction(body string) (Direction, bool) {
	lower := strings.ToLower(body)
	if (strings.Contains(lower, "credit card") || strings.Contains(lower, " cc ")) &&
		(strings.Contains(lower, "debited") || strings.Contains(lower, "spent")) {
		return Credit, true
	}
	return extractDirection(body)
}

func (p *Axis) merchant(body string) string {
	if m := axisUPIMerchant.FindStringSubmatch(body); m != nil {
		merchant := cleanMerchantName(strings.TrimSpace(m[1]))
		if isValidMerchantName(merchant) {
			return merchant
		}
	}
	if m := axisInfoPattern.FindStringSubmatch(body); m != nil {
		info := strings.TrimSpace(m[1])
		if strings.Contains(strings.ToUpper(info), "SALARY") {
			return "Salary"
		}
		return cleanMerchantName(info)
	}
	return extractMerchant(body)
}

func (p *Axis) reference(body string) string {
	if m := firstMatch(body, axisUPIRef); m != "" {
		return m
	}
	return extractReference(body)
}

func (p *Axis) accountSuffix(body string) string {
	for _, pat := range axisAccountPatterns {
		if m := pat.FindStringSubmatch(body); m != nil {
			return lastDigits(m[1], 4)
		}
	}
	return extractAccountSuffix(body)
}
