package parser

import (
	"regexp"
	"strings"
)

// Registry resolves a raw sender ID to the issuer parser that handles it.
// Resolution is tolerant of the DLT route prefixes and suffixes Indian
// telecoms attach to sender IDs.
type Registry struct {
	parsers []Parser
}

// NewRegistry returns a registry with every supported issuer registered.
func NewRegistry() *Registry {
	return &Registry{parsers: []Parser{
		NewHDFC(),
		NewICICI(),
		NewSBI(),
		NewAxis(),
		NewFederal(),
		NewIndusInd(),
	}}
}

// Register adds a parser. Later registrations win ties, letting hosts shadow
// a built-in issuer with a customized parser.
func (r *Registry) Register(p Parser) {
	r.parsers = append([]Parser{p}, r.parsers...)
}

// Resolve returns the parser for sender, or nil. An unresolvable sender is
// not an error; most SMS traffic is not financial.
func (r *Registry) Resolve(sender string) Parser {
	normalized := NormalizeSender(sender)
	for _, p := range r.parsers {
		if p.CanHandle(normalized) {
			return p
		}
	}
	return nil
}

var routePrefix = regexp.MustCompile(`^[A-Z]{2}-`)

// NormalizeSender uppercases and trims a sender ID. The two-letter route
// prefix is kept (issuer patterns match against it) but surrounding
// whitespace and case variance are not.
func NormalizeSender(sender string) string {
	return strings.ToUpper(strings.TrimSpace(sender))
}

// SenderSuffix returns the single-letter DLT suffix of a sender ID
// ("-S", "-T", "-P", "-G"), or the empty string.
func SenderSuffix(sender string) string {
	s := NormalizeSender(sender)
	if len(s) >= 2 && s[len(s)-2] == '-' {
		return s[len(s)-2:]
	}
	return ""
}

// stripRoute removes the leading route prefix for contains-style matching.
func stripRoute(sender string) string {
	return routePrefix.ReplaceAllString(sender, "")
}

var financialKeywords = []string{
	"debited", "credited", "withdrawn", "deposited", "spent",
	"transferred", "a/c", "account", "balance", "card",
	"upi", "neft", "imps", "rs.", "rs ", "inr",
}

// LooksFinancial reports whether an unresolved message is worth parking for
// manual triage: a transactional/service route suffix plus financial wording.
func LooksFinancial(sender, body string) bool {
	suffix := SenderSuffix(sender)
	if suffix != "-T" && suffix != "-S" {
		return false
	}
	lower := strings.ToLower(body)
	for _, kw := range financialKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
