package router

import (
	"strings"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

// domainKeywords back both label corroboration and the offline fallback.
// Matching is a case-insensitive substring test, so multi-word entries work as phrases.
var domainKeywords = map[contractx.Domain][]string{
	contractx.DomainEcommerce: {"order", "tracking", "shipment", "shipping", "delivery", "return", "refund", "product"},
	contractx.DomainBanking:   {"balance", "transfer", "transaction", "card", "loan", "payment", "deposit"},
	contractx.DomainTelecom:   {"data usage", "network", "signal", "roaming", "bill", "plan", "internet", "outage"},
}

// matchKeyword returns the first keyword of domain found in text, if any.
func matchKeyword(domain contractx.Domain, text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, kw := range domainKeywords[domain] {
		if strings.Contains(lower, kw) {
			return kw, true
		}
	}
	return "", false
}

// keywordDomain reports the single domain whose keywords appear in text.
// ok is false when no domain or more than one domain matches.
func keywordDomain(text string) (domain contractx.Domain, keyword string, ok bool) {
	var hits int
	for _, d := range contractx.Domains {
		if kw, found := matchKeyword(d, text); found {
			hits++
			domain, keyword = d, kw
		}
	}
	if hits != 1 {
		return "", "", false
	}
	return domain, keyword, true
}
