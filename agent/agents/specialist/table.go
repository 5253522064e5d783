package specialist

import (
	"slices"
	"strings"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

// Role identifiers.
const (
	RoleOrderSpecialist          = "order_specialist"
	RoleEcommerceCustomerService = "ecommerce_customer_service"
	RoleTransactionAnalyst       = "transaction_analyst"
	RoleAccountSpecialist        = "account_specialist"
	RoleTechnicalSupport         = "technical_support"
	RoleBillingSpecialist        = "billing_specialist"
)

// tables lists each domain's specialists in selection order. The default comes last.
var tables = map[contractx.Domain][]contractx.Specialist{
	contractx.DomainEcommerce: {
		{
			Role:            RoleOrderSpecialist,
			Title:           "Order Management Specialist",
			Domain:          contractx.DomainEcommerce,
			Goal:            "Help customers with order tracking, status updates, and order-related inquiries",
			Backstory:       "You are an experienced e-commerce order specialist with deep knowledge of order processing, shipping, and tracking systems.",
			KeywordTriggers: []string{"order", "tracking", "shipment", "delivery", "status"},
		},
		{
			Role:      RoleEcommerceCustomerService,
			Title:     "E-commerce Customer Service Representative",
			Domain:    contractx.DomainEcommerce,
			Goal:      "Provide comprehensive customer support for e-commerce inquiries including returns, policies, and general questions",
			Backstory: "You are a friendly and knowledgeable customer service representative specializing in e-commerce support.",
			Default:   true,
		},
	},
	contractx.DomainBanking: {
		{
			Role:            RoleTransactionAnalyst,
			Title:           "Transaction Analyst",
			Domain:          contractx.DomainBanking,
			Goal:            "Help customers understand their transactions, investigate discrepancies, and provide transaction history",
			Backstory:       "You are a detail-oriented transaction analyst with extensive knowledge of banking operations and transaction processing.",
			KeywordTriggers: []string{"transaction", "transfer", "payment", "history", "charge"},
		},
		{
			Role:      RoleAccountSpecialist,
			Title:     "Banking Account Specialist",
			Domain:    contractx.DomainBanking,
			Goal:      "Assist customers with account inquiries, balance checks, and account management",
			Backstory: "You are a professional banking specialist with expertise in account services, transactions, and banking policies.",
			Default:   true,
		},
	},
	contractx.DomainTelecom: {
		{
			Role:            RoleTechnicalSupport,
			Title:           "Telecom Technical Support Specialist",
			Domain:          contractx.DomainTelecom,
			Goal:            "Provide technical assistance for network issues, connectivity problems, and device troubleshooting",
			Backstory:       "You are a skilled technical support specialist with deep knowledge of telecommunications networks and mobile technologies.",
			KeywordTriggers: []string{"network", "signal", "connection", "outage", "technical", "slow"},
		},
		{
			Role:      RoleBillingSpecialist,
			Title:     "Telecom Billing Specialist",
			Domain:    contractx.DomainTelecom,
			Goal:      "Handle billing inquiries, plan changes, usage questions, and account management",
			Backstory: "You are an experienced billing specialist who helps customers understand their telecom services, usage, and billing.",
			Default:   true,
		},
	},
}

// briefs are the per-domain working instructions added to every specialist request.
var briefs = map[contractx.Domain]string{
	contractx.DomainEcommerce: "Please help this customer with their e-commerce inquiry. Use the available tools to look up " +
		"orders, products and policies, give accurate answers and offer additional assistance if needed. " +
		"Be friendly, professional, and thorough.",
	contractx.DomainBanking: "Please assist this banking customer with their inquiry. Use the available tools to access " +
		"account information securely, provide accurate financial data and explain banking policies and procedures. " +
		"Maintain the highest standards of security and professionalism.",
	contractx.DomainTelecom: "Please help this telecom customer with their inquiry. Use the available tools to check account " +
		"and service status, diagnose technical issues, provide billing and usage information and offer next steps. " +
		"Be technical when needed but explain things clearly.",
}

// Select picks the specialist for a query within domain. The first specialist with a trigger
// contained in the query wins; otherwise the domain default. Unknown domains resolve against
// the fallback domain.
func Select(domain contractx.Domain, query string) contractx.Specialist {
	if !domain.Valid() {
		domain = contractx.FallbackDomain
	}

	lower := strings.ToLower(query)
	var fallback contractx.Specialist
	for _, s := range tables[domain] {
		if s.Default {
			fallback = s
			continue
		}
		for _, kw := range s.KeywordTriggers {
			if strings.Contains(lower, kw) {
				return clone(s)
			}
		}
	}
	return clone(fallback)
}

// ForDomain returns the domain's specialists in selection order.
func ForDomain(domain contractx.Domain) []contractx.Specialist {
	out := make([]contractx.Specialist, 0, len(tables[domain]))
	for _, s := range tables[domain] {
		out = append(out, clone(s))
	}
	return out
}

// Brief returns the working instructions for domain.
func Brief(domain contractx.Domain) string {
	return briefs[domain]
}

func clone(s contractx.Specialist) contractx.Specialist {
	s.KeywordTriggers = slices.Clone(s.KeywordTriggers)
	return s
}
