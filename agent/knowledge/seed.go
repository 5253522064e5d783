package knowledge

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

type seedDoc struct {
	id       string
	content  string
	topic    string
	category string
}

var sampleKnowledge = map[contractx.Domain][]seedDoc{
	contractx.DomainEcommerce: {
		{"ecom_0", "To track your order, you need your order ID. Orders typically ship within 1-2 business days.", "order_tracking", "shipping"},
		{"ecom_1", "Our return policy allows returns within 30 days of purchase with original receipt.", "returns", "policy"},
		{"ecom_2", "Free shipping is available on orders over $50. Standard shipping takes 3-5 business days.", "shipping", "policy"},
		{"ecom_3", "You can cancel your order within 2 hours of placing it if it hasn't been processed yet.", "cancellation", "policy"},
	},
	contractx.DomainBanking: {
		{"bank_0", "To check your account balance, provide your account number and we'll verify your identity.", "balance_inquiry", "account_services"},
		{"bank_1", "ATM withdrawals are limited to $500 per day for security purposes.", "atm_limits", "security"},
		{"bank_2", "If you suspect fraudulent activity, contact us immediately to freeze your account.", "fraud_protection", "security"},
		{"bank_3", "Wire transfers typically take 1-3 business days to complete.", "wire_transfers", "transactions"},
	},
	contractx.DomainTelecom: {
		{"telecom_0", "Data usage is calculated in real-time. You can check your usage in your account portal.", "data_usage", "billing"},
		{"telecom_1", "Network outages are rare but can be checked on our service status page.", "network_status", "technical"},
		{"telecom_2", "Plan changes take effect at the beginning of your next billing cycle.", "plan_changes", "account"},
		{"telecom_3", "International roaming charges apply when using your phone outside the country.", "roaming", "international"},
	},
}

// SeedSamples loads the demo knowledge base for every domain. Re-running it upserts by id.
func SeedSamples(ctx context.Context, r *Retriever) (int, error) {
	total := 0
	for _, domain := range contractx.Domains {
		docs := sampleKnowledge[domain]
		contents := make([]string, len(docs))
		metadata := make([]map[string]string, len(docs))
		ids := make([]string, len(docs))
		for i, d := range docs {
			contents[i] = d.content
			metadata[i] = map[string]string{"topic": d.topic, "category": d.category}
			ids[i] = d.id
		}
		if err := r.Add(ctx, domain, contents, metadata, ids); err != nil {
			return total, fmt.Errorf("seed %s knowledge: %w", domain, err)
		}
		total += len(docs)
	}
	return total, nil
}
