package parser

import (
	"regexp"
	"strings"
	"time"
)

// Federal handles Federal Bank notifications: UPI debits with VPA targets,
// card spends, e-mandate creation and processing notices, and future-debit
// reminders.
type Federal struct {
	baseParser
}

// NewFederal returns the Federal Bank parser.
func NewFederal() *Federal { return &Federal{} }

func (*Federal) Issuer() string { return "Federal Bank" }

var federalSenderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z]{2}-FEDBNK(?:-[STPG])?$`),
	regexp.MustCompile(`(?i)^[A-Z]{2}-FedFiB-[A-Z]$`),
}

func (*Federal) CanHandle(sender string) bool {
	for _, frag := range []string{"FEDBNK", "FEDERAL", "FEDFIB"} {
		if strings.Contains(sender, frag) {
			return true
		}
	}
	for _, p := range federalSenderPatterns {
		if p.MatchString(sender) {
			return true
		}
	}
	return false
}

func (f *Federal) Classify(body string) Class {
	lower := strings.ToLower(body)
	if f.isMandateCreation(lower) {
		return EMandate
	}
	if strings.Contains(lower, "payment due") && strings.Contains(lower, "will be processed") {
		return FutureDebit
	}
	return Plain
}

func (*Federal) isMandateCreation(lower string) bool {
	if !strings.Contains(lower, "mandate") {
		return false
	}
	for _, kw := range []string{"successfully created", "has been initiated", "registration has been initiated"} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

var (
	federalAmountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)INR\s+([0-9,]+(?:\.\d{2})?)\s+spent`),
		regexp.MustCompile(`(?i)you've received INR\s+([0-9,]+(?:\.\d{2})?)`),
		regexp.MustCompile(`(?i)Rs\s+([0-9,]+(?:\.\d{2})?)\s+(?:debited|sent|credited)`),
		regexp.MustCompile(`(?i)withdrawn\s+Rs\s+([0-9,]+(?:\.\d{2})?)`),
	}
	federalCardMerchant  = regexp.MustCompile(`(?i)at\s+([^.\n]+?)\s+on\s+\d`)
	federalVPAPattern    = regexp.MustCompile(`(?i)to\s+VPA\s+([^\s]+?)(?:\.\s*Ref\s+No|\s*Ref\s+No|$)`)
	federalToPattern     = regexp.MustCompile(`(?i)to\s+([^.\n]+?)(?:\.\s*Ref|Ref\s+No|$)`)
	federalSentByPattern = regexp.MustCompile(`(?i)It was sent by\s+([^.\n]+?)(?:\s+on|$)`)
	federalCardSuffix    = regexp.MustCompile(`(?i)(?:credit|debit)\s+card\s+ending\s+with\s+(\d{4})`)
	federalCardMask      = regexp.MustCompile(`(?i)card\s+XX\*\*?(\d{4})`)
	federalINRSpent      = regexp.MustCompile(`(?i).*inr\s+[\d,]+(?:\.\d{2})?\s+spent.*`)

	federalMandateAmount   = regexp.MustCompile(`(?i)(?:for\s+a\s+)?maximum\s+amount\s+of\s+Rs\.?\s*([0-9,]+(?:\.\d{1,2})?)`)
	federalMandateDate     = regexp.MustCompile(`(?i)starting\s+from\s+(\d{2}-\d{2}-\d{4})`)
	federalMandateMerchant = regexp.MustCompile(`(?i)(?:created\s+a\s+)?mandate\s+on\s+([^.\n]+?)(?:\s+for|\s*$)`)
	federalMandateUMN      = regexp.MustCompile(`(?i)Mandate\s+Ref\s+No-?\s*([^.\s]+)`)

	federalFutureAmount   = regexp.MustCompile(`(?i)INR\s+(\d+(?:,\d{3})*(?:\.\d{2})?)`)
	federalFutureDate     = regexp.MustCompile(`(?i)on\s+(\d{2}/\d{2}/\d{4})`)
	federalFutureMerchant = regexp.MustCompile(`(?i)for\s+([^.\n]+?)\s*,\s*INR`)
)

func (f *Federal) Parse(body, sender string, timestamp time.Time) *Transaction {
	if f.Classify(body) != Plain || !f.isTransaction(body) {
		return nil
	}
	amount := firstAmount(body, append(federalAmountPatterns, amountPatterns...)...)
	if amount == nil {
		return nil
	}
	direction, ok := f.direction(body)
	if !ok {
		return nil
	}
	return &Transaction{
		Issuer:        f.Issuer(),
		Amount:        *amount,
		Currency:      "INR",
		Direction:     direction,
		Merchant:      f.merchant(body),
		Reference:     extractReference(body),
		AccountSuffix: f.accountSuffix(body),
		Balance:       extractBalance(body),
		Timestamp:     timestamp,
		RawBody:       body,
		IsFromCard:    f.detectCard(body),
	}
}

func (f *Federal) isTransaction(body string) bool {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "otp") || strings.Contains(lower, "one time password") {
		return false
	}
	if strings.Contains(lower, "declined") {
		return false
	}
	for _, kw := range []string{
		"sent via upi", "debited via upi", "credited", "withdrawn",
		"received", "transferred", "spent on your credit card",
		"payment via e-mandate",
	} {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return isTransactionText(body)
}

// detectCard has Federal-specific exclusions: UPI, ATM and IMPS/NEFT/RTGS
// traffic also mentions cards but is account-side.
func (f *Federal) detectCard(body string) bool {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "via upi"), strings.Contains(lower, "to vpa"),
		strings.Contains(lower, "atm"),
		strings.Contains(lower, "via imps"), strings.Contains(lower, "via neft"),
		strings.Contains(lower, "via rtgs"):
		return false
	case strings.Contains(lower, "credit card"), strings.Contains(lower, "debit card"),
		strings.Contains(lower, "card xx**"), strings.Contains(lower, "card ending with"),
		federalINRSpent.MatchString(lower):
		return true
	}
	return false
}

func (f *Federal) direction(body string) (Direction, bool) {
	lower := strings.ToLower(body)
	switch {
	case strings.Contains(lower, "credit card") && strings.Contains(lower, "spent"):
		return Credit, true
	case strings.Contains(lower, "e-mandate") && strings.Contains(lower, "processed successfully"):
		return Debit, true
	case strings.Contains(lower, "sent via upi"), strings.Contains(lower, "debited"),
		strings.Contains(lower, "withdrawn"), strings.Contains(lower, "spent"),
		strings.Contains(lower, "paid"):
		return Debit, true
	case strings.Contains(lower, "credited"), strings.Contains(lower, "received"),
		strings.Contains(lower, "deposited"), strings.Contains(lower, "refund"):
		return Income, true
	}
	return extractDirection(body)
}

func (f *Federal) merchant(body string) string {
	lower := strings.ToLower(body)
	if strings.Contains(lower, "credited to your a/c") && strings.Contains(lower, "via imps") {
		return "IMPS Credit"
	}
	if f.detectCard(body) {
		if m := federalCardMerchant.FindStringSubmatch(body); m != nil {
			merchant := cleanMerchantName(strings.TrimSpace(m[1]))
			if isValidMerchantName(merchant) {
				return merchant
			}
		}
	}
	if strings.Contains(lower, "vpa") {
		if m := federalVPAPattern.FindStringSubmatch(body); m != nil {
			return wellKnownVPA(strings.TrimSpace(m[1]))
		}
	}
	if m := federalToPattern.FindStringSubmatch(body); m != nil {
		merchant := strings.TrimSpace(m[1])
		if !strings.Contains(strings.ToUpper(merchant), "VPA") {
			cleaned := cleanMerchantName(merchant)
			if isValidMerchantName(cleaned) {
				return cleaned
			}
		}
	}
	if strings.Contains(lower, "you've received") {
		if m := federalSentByPattern.FindStringSubmatch(body); m != nil {
			from := strings.TrimSpace(m[1])
			if len(from) <= 4 || strings.Trim(from, "0") == "" {
				return "Bank Transfer"
			}
			merchant := cleanMerchantName(from)
			if isValidMerchantName(merchant) {
				return merchant
			}
		}
	}
	if strings.Contains(lower, "atm") || strings.Contains(lower, "withdrawn") {
		return "ATM Withdrawal"
	}
	return extractMerchant(body)
}

// wellKnownVPA maps a UPI VPA handle to a recognizable merchant label.
func wellKnownVPA(vpa string) string {
	handle := strings.ToLower(strings.SplitN(vpa, "@", 2)[0])
	known := []struct{ frag, name string }{
		{"indigo", "Indigo"}, {"uber", "Uber"}, {"ola", "Ola"}, {"rapido", "Rapido"},
		{"amazon", "Amazon"}, {"flipkart", "Flipkart"}, {"myntra", "Myntra"},
		{"paytm", "Paytm"}, {"bharatpe", "BharatPe"}, {"phonepe", "PhonePe"},
		{"swiggy", "Swiggy"}, {"zomato", "Zomato"},
		{"netflix", "Netflix"}, {"spotify", "Spotify"}, {"hotstar", "Disney+ Hotstar"},
		{"bookmyshow", "BookMyShow"}, {"jio", "Jio"}, {"airtel", "Airtel"},
		{"irctc", "IRCTC"}, {"redbus", "RedBus"}, {"makemytrip", "MakeMyTrip"},
		{"razorpay", "Online Payment"}, {"rzp", "Online Payment"},
		{"payu", "Online Payment"}, {"billdesk", "Online Payment"},
	}
	for _, k := range known {
		if strings.Contains(handle, k.frag) {
			return k.name
		}
	}
	if handle != "" && strings.Trim(handle, "0123456789") == "" {
		return "Individual"
	}
	return vpa
}

func (f *Federal) accountSuffix(body string) string {
	if f.detectCard(body) {
		if m := firstMatch(body, federalCardSuffix, federalCardMask); m != "" {
			return m
		}
	}
	return extractAccountSuffix(body)
}

// ParseMandate covers both mandate creation notices and payment-due
// reminders under existing mandates.
func (f *Federal) ParseMandate(body string, class Class) *MandateInfo {
	switch class {
	case EMandate:
		if !f.isMandateCreation(strings.ToLower(body)) {
			return nil
		}
		amount := firstAmount(body, federalMandateAmount)
		if amount == nil {
			return nil
		}
		merchant := "Unknown Subscription"
		if m := firstMatch(body, federalMandateMerchant); m != "" {
			merchant = cleanMerchantName(m)
		}
		return &MandateInfo{
			Merchant:      merchant,
			Amount:        *amount,
			UMN:           firstMatch(body, federalMandateUMN),
			NextDeduction: parseShortDate(firstMatch(body, federalMandateDate)),
		}
	case FutureDebit:
		amount := firstAmount(body, federalFutureAmount)
		if amount == nil {
			return nil
		}
		merchant := "Unknown Subscription"
		if m := firstMatch(body, federalFutureMerchant); m != "" {
			merchant = cleanMerchantName(m)
		}
		return &MandateInfo{
			Merchant:      merchant,
			Amount:        *amount,
			NextDeduction: parseShortDate(firstMatch(body, federalFutureDate)),
		}
	}
	return nil
}
