package tool

import (
	"context"
	"errors"
	"fmt"
	"time"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	storex "github.com/tanpawarit/support-dispatch/agent/store"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	ToolGetCustomerInfo        = "get_customer_info"
	ToolSearchGeneralKnowledge = "search_general_knowledge"
	ToolValidateUserInput      = "validate_user_input"
	ToolGetBusinessHours       = "get_business_hours"
	ToolEscalateToHuman        = "escalate_to_human"
	ToolGetSystemStatus        = "get_system_status"

	ToolGetOrderStatus           = "get_order_status"
	ToolGetCustomerOrders        = "get_customer_orders"
	ToolSearchEcommerceKnowledge = "search_ecommerce_knowledge"
	ToolCheckProductAvailability = "check_product_availability"

	ToolGetAccountBalance      = "get_account_balance"
	ToolGetRecentTransactions  = "get_recent_transactions"
	ToolSearchBankingKnowledge = "search_banking_knowledge"
	ToolCheckAccountStatus     = "check_account_status"

	ToolGetTelecomAccountInfo  = "get_telecom_account_info"
	ToolGetDataUsage           = "get_data_usage"
	ToolSearchTelecomKnowledge = "search_telecom_knowledge"
	ToolCheckNetworkStatus     = "check_network_status"
)

// Searcher is the knowledge lookup the search tools run against.
type Searcher interface {
	Search(ctx context.Context, domain contractx.Domain, query string, topK int) ([]string, error)
	SearchAll(ctx context.Context, query string) ([]string, error)
}

// Publisher delivers escalations to the human support queue.
type Publisher interface {
	PublishJSON(ctx context.Context, payload any, dedupID string) (string, error)
}

type Deps struct {
	Repo      storex.Repository
	Knowledge Searcher
	Publisher Publisher // optional
	Hours     BusinessHours
	Now       func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Catalog returns every tool definition wired to deps.
func Catalog(deps Deps) []Definition {
	defs := commonTools(deps)
	defs = append(defs, ecommerceTools(deps)...)
	defs = append(defs, bankingTools(deps)...)
	defs = append(defs, telecomTools(deps)...)
	return defs
}

func NewDefaultGateway(deps Deps) (*Gateway, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("%w: tool gateway needs a repository", contractx.ErrValidation)
	}
	if deps.Knowledge == nil {
		return nil, fmt.Errorf("%w: tool gateway needs a knowledge searcher", contractx.ErrValidation)
	}
	return NewGateway(Catalog(deps)...)
}

var printer = message.NewPrinter(language.English)

// money formats like $2,500.75.
func money(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

// lookupFailure maps a repository error onto a tool error result.
func lookupFailure(tool string, err error, notFound string) contractx.ToolResult {
	if errors.Is(err, contractx.ErrNotFound) {
		return contractx.Fail(tool, contractx.ErrorKindNotFound, "%s", notFound)
	}
	return contractx.Fail(tool, contractx.ErrorKindBackendUnavailable, "The records system is unavailable right now (%v). Please try again later.", err)
}

func knowledgeFailure(tool string, err error) contractx.ToolResult {
	return contractx.Fail(tool, contractx.ErrorKindBackendUnavailable, "Error searching knowledge base: %v", err)
}
