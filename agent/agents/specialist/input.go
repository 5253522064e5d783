package specialist

import (
	"sort"
	"strings"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

// BuildInput renders the user turn of a specialist request: customer context, routing,
// intent, missing identifying fields, the domain brief and finally the query.
func BuildInput(spec contractx.Specialist, req contractx.SpecialistRequest) string {
	var b strings.Builder

	b.WriteString("Customer Information:")
	if len(req.Query.CustomerContext) == 0 {
		b.WriteString(" none provided")
	} else {
		keys := make([]string, 0, len(req.Query.CustomerContext))
		for k := range req.Query.CustomerContext {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString("\n- ")
			b.WriteString(k)
			b.WriteString(": ")
			b.WriteString(req.Query.CustomerContext[k])
		}
	}

	b.WriteString("\n\nRouting: ")
	b.WriteString(string(req.Routing.Domain))
	b.WriteString(" (")
	b.WriteString(string(req.Routing.Confidence))
	b.WriteString(" confidence)")
	if req.Routing.Reason != "" {
		b.WriteString(": ")
		b.WriteString(req.Routing.Reason)
	}

	in := req.Intent
	b.WriteString("\nIntent: ")
	if in.PrimaryIntent != "" {
		b.WriteString(in.PrimaryIntent)
		b.WriteString("; ")
	}
	b.WriteString("urgency ")
	b.WriteString(string(in.Urgency))
	b.WriteString(", tone ")
	b.WriteString(string(in.Tone))
	if len(in.RequiredInfo) > 0 {
		b.WriteString("; needs ")
		b.WriteString(strings.Join(in.RequiredInfo, ", "))
	}
	if in.SuggestedApproach != "" {
		b.WriteString("\nSuggested approach: ")
		b.WriteString(in.SuggestedApproach)
	}

	if len(req.MissingFields) > 0 {
		b.WriteString("\nMissing identifying information: ")
		b.WriteString(strings.Join(req.MissingFields, ", "))
		b.WriteString(". Ask the customer for it before looking anything up that depends on it.")
	}

	if brief := Brief(spec.Domain); brief != "" {
		b.WriteString("\n\n")
		b.WriteString(brief)
	}

	b.WriteString("\n\nCustomer Query: ")
	b.WriteString(req.Query.Text)
	return b.String()
}
