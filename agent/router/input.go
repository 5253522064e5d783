package router

import (
	"sort"
	"strings"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

// formatQuery renders the user turn shared by the classifier and the intent analyzer.
// Context keys are sorted so the same query always produces the same prompt.
func formatQuery(q contractx.Query) string {
	var b strings.Builder
	b.WriteString("Customer query: ")
	b.WriteString(q.Text)
	if len(q.CustomerContext) > 0 {
		keys := make([]string, 0, len(q.CustomerContext))
		for k := range q.CustomerContext {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("\n\nCustomer information:")
		for _, k := range keys {
			b.WriteString("\n- ")
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(q.CustomerContext[k])
		}
	}
	return b.String()
}
