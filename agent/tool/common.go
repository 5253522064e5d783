package tool

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	storex "github.com/tanpawarit/support-dispatch/agent/store"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EscalationWindow is reported for every escalation regardless of priority.
const EscalationWindow = "2-4 hours during business hours"

const DefaultPriority = "normal"

func commonTools(deps Deps) []Definition {
	return []Definition{
		{
			Name:        ToolGetCustomerInfo,
			Description: "Get customer information by customer ID.",
			Params:      []Param{{Name: "customer_id", Description: "Customer ID such as CUST001", Required: true}},
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				c, err := deps.Repo.GetCustomer(ctx, args[0])
				if err != nil {
					return lookupFailure(ToolGetCustomerInfo, err, fmt.Sprintf("Customer %s not found.", args[0]))
				}
				return contractx.OK(ToolGetCustomerInfo, fmt.Sprintf(
					"Customer: %s, Email: %s, Phone: %s, Domain: %s", c.Name, c.Email, c.Phone, c.Domain))
			},
		},
		{
			Name:        ToolSearchGeneralKnowledge,
			Description: "Search across all knowledge bases for general information.",
			Params:      []Param{{Name: "query", Description: "What to look for", Required: true}},
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				hits, err := deps.Knowledge.SearchAll(ctx, args[0])
				if err != nil {
					return knowledgeFailure(ToolSearchGeneralKnowledge, err)
				}
				if len(hits) == 0 {
					return contractx.OK(ToolSearchGeneralKnowledge, "No relevant information found in knowledge base.")
				}
				if len(hits) > 2 {
					hits = hits[:2]
				}
				return contractx.OK(ToolSearchGeneralKnowledge, "General information found: "+strings.Join(hits, " | "))
			},
		},
		{
			Name:        ToolValidateUserInput,
			Description: "Validate user input against an expected format: email, phone or order_id.",
			Params: []Param{
				{Name: "input_data", Description: "The value to validate", Required: true},
				{Name: "expected_format", Description: "One of email, phone, order_id", Required: true},
			},
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				return ValidateInput(args[0], args[1])
			},
		},
		{
			Name:        ToolGetBusinessHours,
			Description: "Get current business hours and whether the support desk is open.",
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				return contractx.OK(ToolGetBusinessHours, deps.Hours.Describe(deps.now()))
			},
		},
		{
			Name:        ToolEscalateToHuman,
			Description: "Escalate the issue to a human agent. Use only when asked or when the issue cannot be resolved.",
			Params: []Param{
				{Name: "issue_description", Description: "Short description of the issue", Required: true},
				{Name: "customer_id", Description: "Customer identifier if known"},
				{Name: "priority", Description: "low, normal, high or urgent", Default: DefaultPriority},
			},
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				return escalate(ctx, deps, args[0], args[1], args[2])
			},
		},
		{
			Name:        ToolGetSystemStatus,
			Description: "Get overall system status and customer statistics.",
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				counts, err := deps.Repo.CountCustomersByDomain(ctx)
				if err != nil {
					return contractx.Fail(ToolGetSystemStatus, contractx.ErrorKindBackendUnavailable, "System status check failed: %v", err)
				}
				title := cases.Title(language.English)
				parts := []string{"System Status: Online"}
				for _, c := range counts {
					parts = append(parts, fmt.Sprintf("%s: %d customers", title.String(c.Domain), c.Count))
				}
				return contractx.OK(ToolGetSystemStatus, strings.Join(parts, " | "))
			},
		},
	}
}

// NewEscalationID returns ESC_<yyyymmdd>_<hhmmss>_<6 hex>.
func NewEscalationID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("ESC_%s_%s", now.Format("20060102_150405"), suffix)
}

type escalationMessage struct {
	EscalationID string    `json:"escalation_id"`
	CustomerID   string    `json:"customer_id,omitempty"`
	Issue        string    `json:"issue"`
	Priority     string    `json:"priority"`
	CreatedAt    time.Time `json:"created_at"`
}

func escalate(ctx context.Context, deps Deps, issue, customerID, priority string) contractx.ToolResult {
	priority = strings.ToLower(strings.TrimSpace(priority))
	if priority == "" {
		priority = DefaultPriority
	}

	now := deps.now()
	row := &storex.Escalation{
		EscalationID: NewEscalationID(now),
		CustomerID:   customerID,
		Issue:        issue,
		Priority:     priority,
		Status:       "open",
		CreatedAt:    now.UTC(),
	}
	if err := deps.Repo.CreateEscalation(ctx, row); err != nil {
		return contractx.Fail(ToolEscalateToHuman, contractx.ErrorKindBackendUnavailable, "Error escalating to human agent: %v", err)
	}

	logger := log.Ctx(ctx).With().
		Str("component", "tool").
		Str("escalation_id", row.EscalationID).
		Str("priority", priority).
		Logger()

	if deps.Publisher != nil {
		msgID, err := deps.Publisher.PublishJSON(ctx, escalationMessage{
			EscalationID: row.EscalationID,
			CustomerID:   customerID,
			Issue:        issue,
			Priority:     priority,
			CreatedAt:    row.CreatedAt,
		}, row.EscalationID)
		if err != nil {
			logger.Error().Err(err).Msg("failed to publish escalation")
		} else if err := deps.Repo.MarkEscalationPublished(ctx, row.EscalationID, msgID); err != nil {
			logger.Warn().Err(err).Msg("failed to record escalation message id")
		}
	}
	logger.Info().Msg("escalated to human agent")

	return contractx.OK(ToolEscalateToHuman, fmt.Sprintf(
		"Your issue has been escalated to a human agent. Escalation ID: %s. Priority: %s. You will be contacted within %s.",
		row.EscalationID, priority, EscalationWindow))
}
