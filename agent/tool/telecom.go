package tool

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

func telecomTools(deps Deps) []Definition {
	d := contractx.DomainTelecom
	phoneParam := []Param{{Name: "phone_number", Description: "Phone number on the account, e.g. 555-0103", Required: true}}
	return []Definition{
		{
			Name:        ToolGetTelecomAccountInfo,
			Domain:      d,
			Description: "Get telecom account information for a phone number.",
			Params:      phoneParam,
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				a, err := deps.Repo.GetTelecomAccount(ctx, args[0])
				if err != nil {
					return lookupFailure(ToolGetTelecomAccountInfo, err, "Phone number not found in our system.")
				}
				return contractx.OK(ToolGetTelecomAccountInfo, fmt.Sprintf(
					"Phone: %s, Plan: %s, Monthly Charge: %s, Status: %s", a.PhoneNumber, a.PlanType, money(a.MonthlyCharge), a.Status))
			},
		},
		{
			Name:        ToolGetDataUsage,
			Domain:      d,
			Description: "Get current data usage for a phone number.",
			Params:      phoneParam,
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				a, err := deps.Repo.GetTelecomAccount(ctx, args[0])
				if err != nil {
					return lookupFailure(ToolGetDataUsage, err, "Phone number not found.")
				}
				return contractx.OK(ToolGetDataUsage, fmt.Sprintf(
					"Current data usage: %.1f GB this month. Monthly charge: %s", a.DataUsageGB, money(a.MonthlyCharge)))
			},
		},
		{
			Name:        ToolSearchTelecomKnowledge,
			Domain:      d,
			Description: "Search the telecom knowledge base for usage, network, plan and roaming information.",
			Params:      []Param{{Name: "query", Description: "What to look for", Required: true}},
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				hits, err := deps.Knowledge.Search(ctx, d, args[0], 2)
				if err != nil {
					return knowledgeFailure(ToolSearchTelecomKnowledge, err)
				}
				if len(hits) == 0 {
					return contractx.OK(ToolSearchTelecomKnowledge, "No relevant telecom information found.")
				}
				return contractx.OK(ToolSearchTelecomKnowledge, "Telecom information: "+strings.Join(hits, "\n"))
			},
		},
		{
			Name:        ToolCheckNetworkStatus,
			Domain:      d,
			Description: "Check network status for a specific phone number.",
			Params:      phoneParam,
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				a, err := deps.Repo.GetTelecomAccount(ctx, args[0])
				if err != nil {
					return lookupFailure(ToolCheckNetworkStatus, err, "Phone number not found in our network.")
				}
				if !strings.EqualFold(a.Status, "active") {
					return contractx.OK(ToolCheckNetworkStatus, fmt.Sprintf(
						"Network status for %s: line is %s. Service is not available until the account is active.", a.PhoneNumber, a.Status))
				}
				return contractx.OK(ToolCheckNetworkStatus, fmt.Sprintf(
					"Network status for %s: Active and operational. Signal strength: Strong.", a.PhoneNumber))
			},
		},
	}
}
