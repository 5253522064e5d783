package tool

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

const recentTransactionLimit = 5

func bankingTools(deps Deps) []Definition {
	d := contractx.DomainBanking
	accountParam := []Param{{Name: "account_number", Description: "Bank account number such as ACC001", Required: true}}
	return []Definition{
		{
			Name:        ToolGetAccountBalance,
			Domain:      d,
			Description: "Get the balance of a bank account.",
			Params:      accountParam,
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				a, err := deps.Repo.GetBankAccount(ctx, args[0])
				if err != nil {
					return lookupFailure(ToolGetAccountBalance, err, "Account not found. Please verify your account number.")
				}
				return contractx.OK(ToolGetAccountBalance, "Your current account balance is: "+money(a.Balance))
			},
		},
		{
			Name:        ToolGetRecentTransactions,
			Domain:      d,
			Description: "Get the most recent transactions of a bank account.",
			Params:      accountParam,
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				txns, err := deps.Repo.ListRecentTransactions(ctx, args[0], recentTransactionLimit)
				if err != nil {
					return lookupFailure(ToolGetRecentTransactions, err, "No recent transactions found.")
				}
				if len(txns) == 0 {
					return contractx.Fail(ToolGetRecentTransactions, contractx.ErrorKindNotFound, "No recent transactions found.")
				}
				lines := make([]string, 0, len(txns))
				for _, t := range txns {
					lines = append(lines, fmt.Sprintf("%s: %s %s - %s",
						t.CreatedAt.Format("2006-01-02 15:04"), t.TransactionType, money(t.Amount), t.Description))
				}
				return contractx.OK(ToolGetRecentTransactions, "Recent transactions:\n"+strings.Join(lines, "\n"))
			},
		},
		{
			Name:        ToolSearchBankingKnowledge,
			Domain:      d,
			Description: "Search the banking knowledge base for policies on limits, fraud and transfers.",
			Params:      []Param{{Name: "query", Description: "What to look for", Required: true}},
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				hits, err := deps.Knowledge.Search(ctx, d, args[0], 2)
				if err != nil {
					return knowledgeFailure(ToolSearchBankingKnowledge, err)
				}
				if len(hits) == 0 {
					return contractx.OK(ToolSearchBankingKnowledge, "No relevant banking information found.")
				}
				return contractx.OK(ToolSearchBankingKnowledge, "Banking information: "+strings.Join(hits, "\n"))
			},
		},
		{
			Name:        ToolCheckAccountStatus,
			Domain:      d,
			Description: "Check the type and status of a bank account.",
			Params:      accountParam,
			Handler: func(ctx context.Context, args []string) contractx.ToolResult {
				a, err := deps.Repo.GetBankAccount(ctx, args[0])
				if err != nil {
					return lookupFailure(ToolCheckAccountStatus, err, "Account not found.")
				}
				return contractx.OK(ToolCheckAccountStatus, fmt.Sprintf(
					"Account Type: %s, Status: %s, Opened: %s", a.AccountType, a.Status, a.CreatedAt.Format("2006-01-02")))
			},
		},
	}
}
